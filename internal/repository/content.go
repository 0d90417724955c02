package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/fanvault/backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const contentColumns = `c.id, c.artist_id, c.title, c.description, c.type, c.visibility, c.media_location, c.created_at, c.updated_at`

// ContentRepository handles database operations for content and its tier
// associations.
type ContentRepository struct {
	db *pgxpool.Pool
}

// NewContentRepository creates a new ContentRepository.
func NewContentRepository(db *pgxpool.Pool) *ContentRepository {
	return &ContentRepository{db: db}
}

// Create inserts content together with its tier set.
func (r *ContentRepository) Create(ctx context.Context, c *domain.Content) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO content (id, artist_id, title, description, type, visibility, media_location, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`
		_, err := tx.Exec(ctx, query,
			c.ID, c.ArtistID, c.Title, c.Description, c.Type, c.Visibility,
			c.MediaLocation, c.CreatedAt, c.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create content: %w", err)
		}
		return replaceTiers(ctx, tx, c.ID, c.TierIDs())
	})
}

// Update writes the mutable fields of content and replaces its tier set.
func (r *ContentRepository) Update(ctx context.Context, c *domain.Content) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			UPDATE content SET title = $1, description = $2, visibility = $3, updated_at = $4
			WHERE id = $5
		`
		_, err := tx.Exec(ctx, query, c.Title, c.Description, c.Visibility, c.UpdatedAt, c.ID)
		if err != nil {
			return fmt.Errorf("failed to update content: %w", err)
		}
		return replaceTiers(ctx, tx, c.ID, c.TierIDs())
	})
}

// SetTiers replaces the tier set of a content item.
func (r *ContentRepository) SetTiers(ctx context.Context, contentID string, tierIDs []string) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		return replaceTiers(ctx, tx, contentID, tierIDs)
	})
}

func replaceTiers(ctx context.Context, tx pgx.Tx, contentID string, tierIDs []string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM content_tiers WHERE content_id = $1`, contentID); err != nil {
		return fmt.Errorf("failed to clear content tiers: %w", err)
	}
	if len(tierIDs) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO content_tiers (content_id, tier_id)
		SELECT $1, UNNEST($2::text[])
		ON CONFLICT DO NOTHING
	`, contentID, tierIDs)
	if err != nil {
		return fmt.Errorf("failed to set content tiers: %w", err)
	}
	return nil
}

// Delete removes content. Tier associations cascade.
func (r *ContentRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM content WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete content: %w", err)
	}
	return nil
}

// FindContentByID returns content with its tiers, or nil.
func (r *ContentRepository) FindContentByID(ctx context.Context, id string) (*domain.Content, error) {
	row := r.db.QueryRow(ctx, `SELECT `+contentColumns+` FROM content c WHERE c.id = $1`, id)
	c, err := scanContent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find content: %w", err)
	}

	if err := r.attachTiers(ctx, []*domain.Content{c}); err != nil {
		return nil, err
	}
	return c, nil
}

// ListContent returns one page of content matching the filter, newest
// first, and the total number of matches.
func (r *ContentRepository) ListContent(ctx context.Context, filter domain.ContentFilter, page domain.Page) ([]*domain.Content, int, error) {
	total, err := r.CountContent(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	where, args := contentWhere(filter)
	query := fmt.Sprintf(`
		SELECT %s FROM content c
		WHERE %s
		ORDER BY c.created_at DESC, c.id
		LIMIT $%d OFFSET $%d
	`, contentColumns, where, len(args)+1, len(args)+2)
	args = append(args, page.Limit, page.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list content: %w", err)
	}
	defer rows.Close()

	items := []*domain.Content{}
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan content: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to list content: %w", err)
	}
	rows.Close()

	if err := r.attachTiers(ctx, items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// CountContent returns the number of rows matching the filter.
func (r *ContentRepository) CountContent(ctx context.Context, filter domain.ContentFilter) (int, error) {
	where, args := contentWhere(filter)
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM content c WHERE `+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count content: %w", err)
	}
	return n, nil
}

// CountByVisibility returns the number of content items per visibility.
func (r *ContentRepository) CountByVisibility(ctx context.Context) (map[domain.Visibility]int, error) {
	rows, err := r.db.Query(ctx, `SELECT visibility, COUNT(*) FROM content GROUP BY visibility`)
	if err != nil {
		return nil, fmt.Errorf("failed to count content: %w", err)
	}
	defer rows.Close()

	counts := map[domain.Visibility]int{}
	for rows.Next() {
		var v domain.Visibility
		var n int
		if err := rows.Scan(&v, &n); err != nil {
			return nil, fmt.Errorf("failed to scan content count: %w", err)
		}
		counts[v] = n
	}
	return counts, rows.Err()
}

// contentWhere renders domain.ContentFilter as SQL. It must select exactly
// the rows for which ContentFilter.Matches is true.
func contentWhere(f domain.ContentFilter) (string, []interface{}) {
	tierIDs := f.TierIDs
	if tierIDs == nil {
		tierIDs = []string{}
	}
	where := `
		($1::text = '' OR c.artist_id = $1)
		AND ($2::text = '' OR c.type = $2)
		AND (
			$3::boolean
			OR ($4::boolean AND c.visibility = 'PUBLIC')
			OR (c.visibility = 'TIER_LOCKED' AND EXISTS (
				SELECT 1 FROM content_tiers ct
				WHERE ct.content_id = c.id AND ct.tier_id = ANY($5::text[])
			))
		)`
	return where, []interface{}{f.ArtistID, string(f.Type), f.All, f.Public, tierIDs}
}

// attachTiers loads the tier sets of items in one query.
func (r *ContentRepository) attachTiers(ctx context.Context, items []*domain.Content) error {
	if len(items) == 0 {
		return nil
	}

	byID := make(map[string]*domain.Content, len(items))
	ids := make([]string, 0, len(items))
	for _, c := range items {
		c.Tiers = []domain.Tier{}
		byID[c.ID] = c
		ids = append(ids, c.ID)
	}

	query := `
		SELECT ct.content_id, ` + tierColumns + `
		FROM content_tiers ct
		JOIN tiers t ON t.id = ct.tier_id
		WHERE ct.content_id = ANY($1::text[])
		ORDER BY t.minimum_price, t.name
	`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to load content tiers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var contentID string
		var t domain.Tier
		err := rows.Scan(&contentID, &t.ID, &t.ArtistID, &t.Name, &t.Description, &t.MinimumPrice, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to scan content tier: %w", err)
		}
		if c, ok := byID[contentID]; ok {
			c.Tiers = append(c.Tiers, t)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to load content tiers: %w", err)
	}
	return nil
}

func scanContent(row pgx.Row) (*domain.Content, error) {
	var c domain.Content
	err := row.Scan(
		&c.ID, &c.ArtistID, &c.Title, &c.Description, &c.Type, &c.Visibility,
		&c.MediaLocation, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
