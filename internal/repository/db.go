package repository

import (
	"context"
	"fmt"

	"github.com/fanvault/backend/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewDB creates a new PostgreSQL connection pool.
func NewDB(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// RunMigrations creates the schema. It is idempotent.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	query := `
		CREATE TABLE IF NOT EXISTS users (
			id           TEXT PRIMARY KEY,
			email        TEXT NOT NULL UNIQUE,
			display_name TEXT NOT NULL DEFAULT '',
			password     TEXT NOT NULL,
			role         TEXT NOT NULL DEFAULT 'fan',
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

		CREATE TABLE IF NOT EXISTS tiers (
			id            TEXT PRIMARY KEY,
			artist_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name          TEXT NOT NULL,
			description   TEXT NOT NULL DEFAULT '',
			minimum_price BIGINT NOT NULL CHECK (minimum_price >= 0),
			is_active     BOOLEAN NOT NULL DEFAULT TRUE,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_tiers_artist_id ON tiers(artist_id);

		CREATE TABLE IF NOT EXISTS content (
			id             TEXT PRIMARY KEY,
			artist_id      TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title          TEXT NOT NULL,
			description    TEXT NOT NULL DEFAULT '',
			type           TEXT NOT NULL,
			visibility     TEXT NOT NULL CHECK (visibility IN ('PUBLIC', 'PRIVATE', 'TIER_LOCKED')),
			media_location TEXT NOT NULL,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_content_artist_visibility ON content(artist_id, visibility);

		CREATE TABLE IF NOT EXISTS content_tiers (
			content_id TEXT NOT NULL REFERENCES content(id) ON DELETE CASCADE,
			tier_id    TEXT NOT NULL REFERENCES tiers(id) ON DELETE CASCADE,
			PRIMARY KEY (content_id, tier_id)
		);
		CREATE INDEX IF NOT EXISTS idx_content_tiers_tier_id ON content_tiers(tier_id);

		CREATE TABLE IF NOT EXISTS subscriptions (
			id                   TEXT PRIMARY KEY,
			fan_id               TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			artist_id            TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			tier_id              TEXT NOT NULL REFERENCES tiers(id),
			status               TEXT NOT NULL,
			amount               BIGINT NOT NULL DEFAULT 0,
			current_period_start TIMESTAMPTZ NOT NULL,
			current_period_end   TIMESTAMPTZ NOT NULL,
			payment_provider_id  TEXT NOT NULL DEFAULT '',
			created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_subscriptions_fan_artist ON subscriptions(fan_id, artist_id, status);
		CREATE INDEX IF NOT EXISTS idx_subscriptions_tier_id ON subscriptions(tier_id);
		CREATE INDEX IF NOT EXISTS idx_subscriptions_provider_id ON subscriptions(payment_provider_id);
	`
	_, err := pool.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
