package access

import (
	"context"
	"sync"

	"github.com/fanvault/backend/internal/domain"
)

// fakeContentRepo applies ContentFilter exactly as the SQL repository does.
type fakeContentRepo struct {
	mu      sync.Mutex
	items   []*domain.Content
	err     error
	lookups int
}

func (f *fakeContentRepo) FindContentByID(ctx context.Context, id string) (*domain.Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.err != nil {
		return nil, f.err
	}
	for _, c := range f.items {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeContentRepo) ListContent(ctx context.Context, filter domain.ContentFilter, page domain.Page) ([]*domain.Content, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, 0, f.err
	}
	var matched []*domain.Content
	for _, c := range f.items {
		if filter.Matches(c) {
			matched = append(matched, c)
		}
	}
	total := len(matched)
	start := page.Offset()
	if start > total {
		start = total
	}
	end := start + page.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (f *fakeContentRepo) CountContent(ctx context.Context, filter domain.ContentFilter) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	n := 0
	for _, c := range f.items {
		if filter.Matches(c) {
			n++
		}
	}
	return n, nil
}

// fakeSubscriptionRepo only scopes rows by fan and tier, leaving status,
// expiry, tier activity and artist checks to the evaluator.
type fakeSubscriptionRepo struct {
	mu    sync.Mutex
	subs  []*domain.Subscription
	err   error
	calls int
}

func (f *fakeSubscriptionRepo) FindSubscriptions(ctx context.Context, filter domain.SubscriptionFilter) ([]*domain.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.Subscription
	for _, s := range f.subs {
		if s.FanID != filter.FanID {
			continue
		}
		if len(filter.TierIDs) > 0 && !contains(filter.TierIDs, s.TierID) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeSubscriptionRepo) FindOneSubscription(ctx context.Context, filter domain.SubscriptionFilter) (*domain.Subscription, error) {
	subs, err := f.FindSubscriptions(ctx, filter)
	if err != nil || len(subs) == 0 {
		return nil, err
	}
	return subs[0], nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
