package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fanvault/backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const subscriptionColumns = `s.id, s.fan_id, s.artist_id, s.tier_id, s.status, s.amount,
	s.current_period_start, s.current_period_end, s.payment_provider_id, s.created_at, s.updated_at`

// SubscriptionRepository handles database operations for subscriptions.
// Reads join the subscription's tier.
type SubscriptionRepository struct {
	db *pgxpool.Pool
}

func NewSubscriptionRepository(db *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) error {
	query := `
		INSERT INTO subscriptions (id, fan_id, artist_id, tier_id, status, amount, current_period_start, current_period_end, payment_provider_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.Exec(ctx, query,
		sub.ID, sub.FanID, sub.ArtistID, sub.TierID, sub.Status, sub.Amount,
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.PaymentProviderID,
		sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

// UpdateStatus sets the status and, when periodEnd is non-zero, extends the
// current period.
func (r *SubscriptionRepository) UpdateStatus(ctx context.Context, id string, status domain.SubscriptionStatus, periodEnd time.Time) error {
	query := `
		UPDATE subscriptions SET
			status = $1,
			current_period_start = CASE WHEN $2::timestamptz IS NULL THEN current_period_start ELSE current_period_end END,
			current_period_end = COALESCE($2::timestamptz, current_period_end),
			updated_at = NOW()
		WHERE id = $3
	`
	var end *time.Time
	if !periodEnd.IsZero() {
		end = &periodEnd
	}
	_, err := r.db.Exec(ctx, query, status, end, id)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	return nil
}

// SetProviderID records the payment provider's reference for a subscription.
func (r *SubscriptionRepository) SetProviderID(ctx context.Context, id, providerID string) error {
	_, err := r.db.Exec(ctx, `UPDATE subscriptions SET payment_provider_id = $1, updated_at = NOW() WHERE id = $2`, providerID, id)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	return nil
}

// ExpireLapsed marks ACTIVE subscriptions whose period ended before now as
// EXPIRED and returns how many rows changed.
func (r *SubscriptionRepository) ExpireLapsed(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE subscriptions SET status = $1, updated_at = NOW()
		WHERE status = $2 AND current_period_end < $3
	`, domain.SubscriptionExpired, domain.SubscriptionActive, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire subscriptions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// FindByID returns a subscription by ID, or nil.
func (r *SubscriptionRepository) FindByID(ctx context.Context, id string) (*domain.Subscription, error) {
	return r.scanOne(ctx, `SELECT `+subscriptionColumns+`, `+tierColumns+`
		FROM subscriptions s JOIN tiers t ON t.id = s.tier_id
		WHERE s.id = $1`, id)
}

// FindByProviderID returns the subscription linked to a payment provider
// reference, or nil.
func (r *SubscriptionRepository) FindByProviderID(ctx context.Context, providerID string) (*domain.Subscription, error) {
	return r.scanOne(ctx, `SELECT `+subscriptionColumns+`, `+tierColumns+`
		FROM subscriptions s JOIN tiers t ON t.id = s.tier_id
		WHERE s.payment_provider_id = $1 AND s.payment_provider_id <> ''
		ORDER BY s.created_at DESC LIMIT 1`, providerID)
}

// FindSubscriptions returns rows matching the filter, latest period end
// first.
func (r *SubscriptionRepository) FindSubscriptions(ctx context.Context, filter domain.SubscriptionFilter) ([]*domain.Subscription, error) {
	return r.query(ctx, filter, 0)
}

// FindOneSubscription returns the first row matching the filter, or nil.
func (r *SubscriptionRepository) FindOneSubscription(ctx context.Context, filter domain.SubscriptionFilter) (*domain.Subscription, error) {
	subs, err := r.query(ctx, filter, 1)
	if err != nil || len(subs) == 0 {
		return nil, err
	}
	return subs[0], nil
}

// ListByFan returns every subscription a fan holds, latest period end first.
func (r *SubscriptionRepository) ListByFan(ctx context.Context, fanID string) ([]*domain.Subscription, error) {
	return r.query(ctx, domain.SubscriptionFilter{FanID: fanID}, 0)
}

// CountByStatus returns the number of subscriptions per status.
func (r *SubscriptionRepository) CountByStatus(ctx context.Context) (map[domain.SubscriptionStatus]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM subscriptions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count subscriptions: %w", err)
	}
	defer rows.Close()

	counts := map[domain.SubscriptionStatus]int{}
	for rows.Next() {
		var s domain.SubscriptionStatus
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, fmt.Errorf("failed to scan subscription count: %w", err)
		}
		counts[s] = n
	}
	return counts, rows.Err()
}

func (r *SubscriptionRepository) query(ctx context.Context, f domain.SubscriptionFilter, limit int) ([]*domain.Subscription, error) {
	tierIDs := f.TierIDs
	if tierIDs == nil {
		tierIDs = []string{}
	}
	var activeAt *time.Time
	if !f.ActiveAt.IsZero() {
		activeAt = &f.ActiveAt
	}

	query := `
		SELECT ` + subscriptionColumns + `, ` + tierColumns + `
		FROM subscriptions s
		JOIN tiers t ON t.id = s.tier_id
		WHERE ($1::text = '' OR s.fan_id = $1)
		  AND ($2::text = '' OR s.artist_id = $2)
		  AND (cardinality($3::text[]) = 0 OR s.tier_id = ANY($3))
		  AND ($4::text = '' OR s.status = $4)
		  AND ($5::timestamptz IS NULL OR s.current_period_end >= $5)
		  AND (NOT $6::boolean OR t.is_active)
		ORDER BY s.current_period_end DESC, s.created_at DESC
	`
	args := []interface{}{f.FanID, f.ArtistID, tierIDs, string(f.Status), activeAt, f.TierActiveOnly}
	if limit > 0 {
		query += ` LIMIT $7`
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	defer rows.Close()

	subs := []*domain.Subscription{}
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	return subs, nil
}

func (r *SubscriptionRepository) scanOne(ctx context.Context, query string, args ...interface{}) (*domain.Subscription, error) {
	sub, err := scanSubscription(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find subscription: %w", err)
	}
	return sub, nil
}

func scanSubscription(row pgx.Row) (*domain.Subscription, error) {
	var sub domain.Subscription
	var t domain.Tier
	err := row.Scan(
		&sub.ID, &sub.FanID, &sub.ArtistID, &sub.TierID, &sub.Status, &sub.Amount,
		&sub.CurrentPeriodStart, &sub.CurrentPeriodEnd, &sub.PaymentProviderID,
		&sub.CreatedAt, &sub.UpdatedAt,
		&t.ID, &t.ArtistID, &t.Name, &t.Description, &t.MinimumPrice, &t.IsActive, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	sub.Tier = &t
	return &sub, nil
}
