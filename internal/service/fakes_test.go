package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/fanvault/backend/internal/domain"
)

var errStore = errors.New("store unavailable")

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*domain.User{}}
}

func (f *fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeUserRepo) Exists(ctx context.Context, email string) (bool, error) {
	u, err := f.FindByEmail(ctx, email)
	return u != nil, err
}

func (f *fakeUserRepo) ListAll(ctx context.Context) ([]*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
	return nil
}

type fakeTierRepo struct {
	mu    sync.Mutex
	tiers map[string]*domain.Tier
	err   error
}

func newFakeTierRepo(tiers ...domain.Tier) *fakeTierRepo {
	f := &fakeTierRepo{tiers: map[string]*domain.Tier{}}
	for i := range tiers {
		t := tiers[i]
		f.tiers[t.ID] = &t
	}
	return f
}

func (f *fakeTierRepo) Create(ctx context.Context, t *domain.Tier) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *t
	f.tiers[t.ID] = &cp
	return nil
}

func (f *fakeTierRepo) Update(ctx context.Context, t *domain.Tier) error {
	return f.Create(ctx, t)
}

func (f *fakeTierRepo) SetActive(ctx context.Context, id string, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tiers[id]; ok {
		t.IsActive = active
	}
	return nil
}

func (f *fakeTierRepo) FindByID(ctx context.Context, id string) (*domain.Tier, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if t, ok := f.tiers[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeTierRepo) ListByArtist(ctx context.Context, artistID string, includeInactive bool) ([]*domain.Tier, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*domain.Tier{}
	for _, t := range f.tiers {
		if t.ArtistID == artistID && (includeInactive || t.IsActive) {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MinimumPrice < out[j].MinimumPrice })
	return out, nil
}

type fakeContentRepo struct {
	mu    sync.Mutex
	items map[string]*domain.Content
}

func newFakeContentRepo() *fakeContentRepo {
	return &fakeContentRepo{items: map[string]*domain.Content{}}
}

func (f *fakeContentRepo) Create(ctx context.Context, c *domain.Content) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *c
	f.items[c.ID] = &cp
	return nil
}

func (f *fakeContentRepo) Update(ctx context.Context, c *domain.Content) error {
	return f.Create(ctx, c)
}

func (f *fakeContentRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, id)
	return nil
}

func (f *fakeContentRepo) FindContentByID(ctx context.Context, id string) (*domain.Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.items[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

type statusUpdate struct {
	status    domain.SubscriptionStatus
	periodEnd time.Time
}

type fakeSubscriptionRepo struct {
	mu      sync.Mutex
	subs    map[string]*domain.Subscription
	updates []statusUpdate
	expired int64
}

func newFakeSubscriptionRepo(subs ...*domain.Subscription) *fakeSubscriptionRepo {
	f := &fakeSubscriptionRepo{subs: map[string]*domain.Subscription{}}
	for _, s := range subs {
		f.subs[s.ID] = s
	}
	return f
}

func (f *fakeSubscriptionRepo) Create(ctx context.Context, sub *domain.Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *sub
	f.subs[sub.ID] = &cp
	return nil
}

func (f *fakeSubscriptionRepo) UpdateStatus(ctx context.Context, id string, status domain.SubscriptionStatus, periodEnd time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, statusUpdate{status: status, periodEnd: periodEnd})
	if s, ok := f.subs[id]; ok {
		s.Status = status
		if !periodEnd.IsZero() {
			s.CurrentPeriodStart = s.CurrentPeriodEnd
			s.CurrentPeriodEnd = periodEnd
		}
	}
	return nil
}

func (f *fakeSubscriptionRepo) FindByID(ctx context.Context, id string) (*domain.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.subs[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeSubscriptionRepo) ListByFan(ctx context.Context, fanID string) ([]*domain.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*domain.Subscription{}
	for _, s := range f.subs {
		if s.FanID == fanID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSubscriptionRepo) ExpireLapsed(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, s := range f.subs {
		if s.Status == domain.SubscriptionActive && s.CurrentPeriodEnd.Before(now) {
			s.Status = domain.SubscriptionExpired
			n++
		}
	}
	f.expired += n
	return n, nil
}

// fakeChecker returns a fixed decision per content id.
type fakeChecker struct {
	mu      sync.Mutex
	results map[string]domain.AccessResult
}

func (f *fakeChecker) set(contentID string, r domain.AccessResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[contentID] = r
}

func (f *fakeChecker) CheckContentAccess(ctx context.Context, userID, contentID string) domain.AccessResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.results[contentID]; ok {
		return r
	}
	return domain.DenyNotFound()
}
