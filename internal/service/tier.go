package service

import (
	"context"
	"time"

	"github.com/fanvault/backend/internal/domain"
	"github.com/fanvault/backend/internal/logger"
	"github.com/google/uuid"
)

// TierService manages an artist's subscription tiers.
type TierService struct {
	repo TierRepository
	log  logger.Logger
	now  func() time.Time
}

// NewTierService creates a new TierService.
func NewTierService(repo TierRepository, log logger.Logger) *TierService {
	return &TierService{repo: repo, log: log, now: time.Now}
}

// Create adds an active tier for artistID.
func (s *TierService) Create(ctx context.Context, artistID string, req *domain.CreateTierRequest) (*domain.Tier, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	now := s.now()
	tier := &domain.Tier{
		ID:           uuid.New().String(),
		ArtistID:     artistID,
		Name:         req.Name,
		Description:  req.Description,
		MinimumPrice: req.MinimumPrice,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, tier); err != nil {
		return nil, domain.ErrInternal("failed to create tier", err)
	}

	s.log.Info("tier created", map[string]interface{}{"tierId": tier.ID, "artistId": artistID})
	return tier, nil
}

// Update patches a tier owned by artistID.
func (s *TierService) Update(ctx context.Context, artistID, id string, req *domain.UpdateTierRequest) (*domain.Tier, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	tier, err := s.owned(ctx, artistID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		tier.Name = *req.Name
	}
	if req.Description != nil {
		tier.Description = *req.Description
	}
	if req.MinimumPrice != nil {
		tier.MinimumPrice = *req.MinimumPrice
	}
	if req.IsActive != nil {
		tier.IsActive = *req.IsActive
	}
	tier.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, tier); err != nil {
		return nil, domain.ErrInternal("failed to update tier", err)
	}
	return tier, nil
}

// SetActive activates or retires a tier. A retired tier stops granting
// access immediately, including to existing subscribers.
func (s *TierService) SetActive(ctx context.Context, artistID, id string, active bool) (*domain.Tier, error) {
	tier, err := s.owned(ctx, artistID, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return nil, domain.ErrInternal("failed to update tier", err)
	}
	tier.IsActive = active

	s.log.Info("tier status changed", map[string]interface{}{"tierId": id, "active": active})
	return tier, nil
}

// ListByArtist returns the artist's tiers. Only the artist sees retired
// tiers.
func (s *TierService) ListByArtist(ctx context.Context, callerID, artistID string) ([]*domain.Tier, error) {
	tiers, err := s.repo.ListByArtist(ctx, artistID, callerID != "" && callerID == artistID)
	if err != nil {
		return nil, domain.ErrInternal("failed to list tiers", err)
	}
	return tiers, nil
}

// Get returns a tier by id.
func (s *TierService) Get(ctx context.Context, id string) (*domain.Tier, error) {
	tier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, domain.ErrInternal("failed to find tier", err)
	}
	if tier == nil {
		return nil, domain.ErrNotFound("tier not found")
	}
	return tier, nil
}

func (s *TierService) owned(ctx context.Context, artistID, id string) (*domain.Tier, error) {
	tier, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if tier.ArtistID != artistID {
		return nil, domain.ErrNotFound("tier not found")
	}
	return tier, nil
}
