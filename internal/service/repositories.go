package service

import (
	"context"
	"time"

	"github.com/fanvault/backend/internal/domain"
)

// The interfaces below are satisfied by the pgx repositories in
// internal/repository.

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Exists(ctx context.Context, email string) (bool, error)
	ListAll(ctx context.Context) ([]*domain.User, error)
	Delete(ctx context.Context, id string) error
}

type TierRepository interface {
	Create(ctx context.Context, t *domain.Tier) error
	Update(ctx context.Context, t *domain.Tier) error
	SetActive(ctx context.Context, id string, active bool) error
	FindByID(ctx context.Context, id string) (*domain.Tier, error)
	ListByArtist(ctx context.Context, artistID string, includeInactive bool) ([]*domain.Tier, error)
}

type ContentRepository interface {
	Create(ctx context.Context, c *domain.Content) error
	Update(ctx context.Context, c *domain.Content) error
	Delete(ctx context.Context, id string) error
	FindContentByID(ctx context.Context, id string) (*domain.Content, error)
}

type SubscriptionRepository interface {
	Create(ctx context.Context, sub *domain.Subscription) error
	UpdateStatus(ctx context.Context, id string, status domain.SubscriptionStatus, periodEnd time.Time) error
	FindByID(ctx context.Context, id string) (*domain.Subscription, error)
	ListByFan(ctx context.Context, fanID string) ([]*domain.Subscription, error)
	ExpireLapsed(ctx context.Context, now time.Time) (int64, error)
}
