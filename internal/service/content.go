package service

import (
	"context"
	"time"

	"github.com/fanvault/backend/internal/domain"
	"github.com/fanvault/backend/internal/logger"
	"github.com/google/uuid"
)

// MediaSealer encrypts media locations at rest. *crypto.Encryptor
// satisfies it.
type MediaSealer interface {
	Seal(ownerID string, plaintext []byte) (string, error)
	Open(ownerID, encoded string) ([]byte, error)
}

// ContentService manages content owned by artists.
type ContentService struct {
	content ContentRepository
	tiers   TierRepository
	sealer  MediaSealer
	log     logger.Logger
	now     func() time.Time
}

// NewContentService creates a new ContentService.
func NewContentService(content ContentRepository, tiers TierRepository, sealer MediaSealer, log logger.Logger) *ContentService {
	return &ContentService{
		content: content,
		tiers:   tiers,
		sealer:  sealer,
		log:     log,
		now:     time.Now,
	}
}

// Create publishes content for artistID.
func (s *ContentService) Create(ctx context.Context, artistID string, req *domain.CreateContentRequest) (*domain.Content, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	tiers, err := s.resolveTiers(ctx, artistID, req.TierIDs)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	location, err := s.sealer.Seal(id, []byte(req.MediaLocation))
	if err != nil {
		return nil, domain.ErrInternal("failed to encrypt media location", err)
	}

	now := s.now()
	c := &domain.Content{
		ID:            id,
		ArtistID:      artistID,
		Title:         req.Title,
		Description:   req.Description,
		Type:          domain.ContentType(req.Type),
		Visibility:    domain.Visibility(req.Visibility),
		Tiers:         tiers,
		MediaLocation: location,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.content.Create(ctx, c); err != nil {
		return nil, domain.ErrInternal("failed to create content", err)
	}

	s.warnOrphaned(c)
	s.log.Info("content created", map[string]interface{}{
		"contentId":  c.ID,
		"artistId":   artistID,
		"visibility": c.Visibility,
	})
	return c, nil
}

// Update patches content owned by artistID.
func (s *ContentService) Update(ctx context.Context, artistID, id string, req *domain.UpdateContentRequest) (*domain.Content, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	c, err := s.owned(ctx, artistID, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		c.Title = *req.Title
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if req.Visibility != nil {
		c.Visibility = domain.Visibility(*req.Visibility)
	}
	if req.TierIDs != nil {
		tiers, err := s.resolveTiers(ctx, artistID, *req.TierIDs)
		if err != nil {
			return nil, err
		}
		c.Tiers = tiers
	}
	c.UpdatedAt = s.now()

	if err := s.content.Update(ctx, c); err != nil {
		return nil, domain.ErrInternal("failed to update content", err)
	}

	s.warnOrphaned(c)
	return c, nil
}

// Delete removes content owned by artistID.
func (s *ContentService) Delete(ctx context.Context, artistID, id string) error {
	if _, err := s.owned(ctx, artistID, id); err != nil {
		return err
	}
	if err := s.content.Delete(ctx, id); err != nil {
		return domain.ErrInternal("failed to delete content", err)
	}
	s.log.Info("content deleted", map[string]interface{}{"contentId": id, "artistId": artistID})
	return nil
}

// owned loads content and hides it from anyone but its artist.
func (s *ContentService) owned(ctx context.Context, artistID, id string) (*domain.Content, error) {
	c, err := s.content.FindContentByID(ctx, id)
	if err != nil {
		return nil, domain.ErrInternal("failed to find content", err)
	}
	if c == nil || c.ArtistID != artistID {
		return nil, domain.ErrNotFound("content not found")
	}
	return c, nil
}

// resolveTiers loads tierIDs and checks they all belong to artistID.
func (s *ContentService) resolveTiers(ctx context.Context, artistID string, tierIDs []string) ([]domain.Tier, error) {
	tiers := make([]domain.Tier, 0, len(tierIDs))
	seen := make(map[string]bool, len(tierIDs))
	for _, id := range tierIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		t, err := s.tiers.FindByID(ctx, id)
		if err != nil {
			return nil, domain.ErrInternal("failed to find tier", err)
		}
		if t == nil || t.ArtistID != artistID {
			return nil, domain.ErrValidation("unknown tier " + id)
		}
		tiers = append(tiers, *t)
	}
	return tiers, nil
}

func (s *ContentService) warnOrphaned(c *domain.Content) {
	if c.Visibility == domain.VisibilityTierLocked && len(c.Tiers) == 0 {
		s.log.Warn("tier-locked content has no tiers and is visible only to its artist", map[string]interface{}{
			"contentId": c.ID,
		})
	}
}
