package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/fanvault/backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const tierColumns = `t.id, t.artist_id, t.name, t.description, t.minimum_price, t.is_active, t.created_at, t.updated_at`

// TierRepository handles database operations for tiers.
type TierRepository struct {
	db *pgxpool.Pool
}

// NewTierRepository creates a new TierRepository.
func NewTierRepository(db *pgxpool.Pool) *TierRepository {
	return &TierRepository{db: db}
}

// Create inserts a new tier.
func (r *TierRepository) Create(ctx context.Context, t *domain.Tier) error {
	query := `
		INSERT INTO tiers (id, artist_id, name, description, minimum_price, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		t.ID, t.ArtistID, t.Name, t.Description, t.MinimumPrice, t.IsActive, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create tier: %w", err)
	}
	return nil
}

// Update writes the mutable fields of a tier.
func (r *TierRepository) Update(ctx context.Context, t *domain.Tier) error {
	query := `
		UPDATE tiers SET name = $1, description = $2, minimum_price = $3, is_active = $4, updated_at = $5
		WHERE id = $6
	`
	_, err := r.db.Exec(ctx, query, t.Name, t.Description, t.MinimumPrice, t.IsActive, t.UpdatedAt, t.ID)
	if err != nil {
		return fmt.Errorf("failed to update tier: %w", err)
	}
	return nil
}

// SetActive toggles whether the tier grants access.
func (r *TierRepository) SetActive(ctx context.Context, id string, active bool) error {
	_, err := r.db.Exec(ctx, `UPDATE tiers SET is_active = $1, updated_at = NOW() WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("failed to update tier status: %w", err)
	}
	return nil
}

// FindByID returns a tier by ID, or nil.
func (r *TierRepository) FindByID(ctx context.Context, id string) (*domain.Tier, error) {
	row := r.db.QueryRow(ctx, `SELECT `+tierColumns+` FROM tiers t WHERE t.id = $1`, id)
	t, err := scanTier(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find tier: %w", err)
	}
	return t, nil
}

// ListByArtist returns an artist's tiers, cheapest first. Inactive tiers
// are included only when includeInactive is set.
func (r *TierRepository) ListByArtist(ctx context.Context, artistID string, includeInactive bool) ([]*domain.Tier, error) {
	query := `
		SELECT ` + tierColumns + `
		FROM tiers t
		WHERE t.artist_id = $1 AND ($2 OR t.is_active)
		ORDER BY t.minimum_price, t.name
	`
	rows, err := r.db.Query(ctx, query, artistID, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("failed to list tiers: %w", err)
	}
	defer rows.Close()

	tiers := []*domain.Tier{}
	for rows.Next() {
		t, err := scanTier(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tier: %w", err)
		}
		tiers = append(tiers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list tiers: %w", err)
	}
	return tiers, nil
}

func scanTier(row pgx.Row) (*domain.Tier, error) {
	var t domain.Tier
	err := row.Scan(&t.ID, &t.ArtistID, &t.Name, &t.Description, &t.MinimumPrice, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
