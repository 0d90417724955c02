// Package access decides whether a user may view gated artist content.
//
// Every exported operation is read-only and never returns an error: any
// repository failure resolves to a denial (fail closed).
package access

import (
	"context"
	"time"

	"github.com/fanvault/backend/internal/domain"
	"github.com/fanvault/backend/internal/logger"
	"github.com/fanvault/backend/internal/metrics"
)

// ContentRepository reads content records.
type ContentRepository interface {
	// FindContentByID returns the content with its tiers, or nil if absent.
	FindContentByID(ctx context.Context, id string) (*domain.Content, error)
	// ListContent returns one page of rows matching the filter and the
	// total number of matching rows.
	ListContent(ctx context.Context, filter domain.ContentFilter, page domain.Page) ([]*domain.Content, int, error)
	CountContent(ctx context.Context, filter domain.ContentFilter) (int, error)
}

// SubscriptionRepository reads subscription records joined with their tier.
type SubscriptionRepository interface {
	FindSubscriptions(ctx context.Context, filter domain.SubscriptionFilter) ([]*domain.Subscription, error)
	// FindOneSubscription returns the first matching row, or nil.
	FindOneSubscription(ctx context.Context, filter domain.SubscriptionFilter) (*domain.Subscription, error)
}

const (
	opCheckContent = "check_content_access"
	opCheckTier    = "check_tier_access"
	opListContent  = "user_accessible_content"
	opSummary      = "content_access_summary"
)

// Evaluator is the content access decision point. It holds no mutable
// state and is safe for concurrent use.
type Evaluator struct {
	content       ContentRepository
	subscriptions SubscriptionRepository
	now           func() time.Time
	log           logger.Logger
	metrics       *metrics.Metrics
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithClock overrides the time source used for subscription validity.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) { e.now = now }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Evaluator) { e.log = l }
}

// WithMetrics records decisions and latencies.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Evaluator) { e.metrics = m }
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(content ContentRepository, subscriptions SubscriptionRepository, opts ...Option) *Evaluator {
	e := &Evaluator{
		content:       content,
		subscriptions: subscriptions,
		now:           time.Now,
		log:           logger.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CheckContentAccess decides whether userID may view contentID. Rules are
// applied in order and the first match wins: lookup, public, owner,
// tier-locked resolution, private.
func (e *Evaluator) CheckContentAccess(ctx context.Context, userID, contentID string) domain.AccessResult {
	defer e.observe(opCheckContent, time.Now())

	result := e.checkContentAccess(ctx, userID, contentID)
	e.metrics.ObserveDecision(string(result.Reason()))
	return result
}

func (e *Evaluator) checkContentAccess(ctx context.Context, userID, contentID string) domain.AccessResult {
	log := e.log.WithFields(map[string]interface{}{
		"userId":    userID,
		"contentId": contentID,
	})

	content, err := e.content.FindContentByID(ctx, contentID)
	if err != nil {
		log.Warn("content lookup failed", map[string]interface{}{"error": err})
		return domain.DenyNotFound()
	}
	if content == nil {
		log.Debug("content not found", nil)
		return domain.DenyNotFound()
	}

	if content.Visibility == domain.VisibilityPublic {
		return domain.PublicAccess{}
	}

	if userID != "" && userID == content.ArtistID {
		return domain.OwnerAccess{}
	}

	if content.Visibility != domain.VisibilityTierLocked {
		// PRIVATE, or anything unrecognised, is owner-only.
		return domain.DenyNoSubscription()
	}

	if len(content.Tiers) == 0 || userID == "" {
		return domain.DenyNoSubscription()
	}

	now := e.clock()
	subs, err := e.subscriptions.FindSubscriptions(ctx, domain.SubscriptionFilter{
		FanID:          userID,
		ArtistID:       content.ArtistID,
		TierIDs:        content.TierIDs(),
		Status:         domain.SubscriptionActive,
		ActiveAt:       now,
		TierActiveOnly: true,
	})
	if err != nil {
		log.Warn("subscription lookup failed", map[string]interface{}{"error": err})
		return domain.DenyNotFound()
	}

	for _, sub := range subs {
		if grantsContent(sub, userID, content, now) {
			return domain.SubscriptionAccess{Subscription: *sub}
		}
	}
	return domain.DenyNoSubscription()
}

// CheckTierAccess reports whether userID holds a currently valid
// subscription to tierID. Repository errors yield false.
func (e *Evaluator) CheckTierAccess(ctx context.Context, userID, tierID string) bool {
	defer e.observe(opCheckTier, time.Now())

	if userID == "" || tierID == "" {
		return false
	}

	now := e.clock()
	sub, err := e.subscriptions.FindOneSubscription(ctx, domain.SubscriptionFilter{
		FanID:    userID,
		TierIDs:  []string{tierID},
		Status:   domain.SubscriptionActive,
		ActiveAt: now,
	})
	if err != nil {
		e.log.Warn("tier access lookup failed", map[string]interface{}{
			"userId": userID,
			"tierId": tierID,
			"error":  err,
		})
		return false
	}
	if sub == nil {
		return false
	}
	return sub.FanID == userID && sub.TierID == tierID && sub.ValidAt(now)
}

// GetUserAccessibleContent lists the artist's content that
// CheckContentAccess would grant to userID, one page at a time. Failures
// yield an empty page.
func (e *Evaluator) GetUserAccessibleContent(ctx context.Context, userID, artistID string, q domain.ContentQuery) domain.AccessibleContentPage {
	defer e.observe(opListContent, time.Now())

	page := domain.Page{Page: q.Page, Limit: q.Limit}.Normalize()
	empty := domain.AccessibleContentPage{
		Content:    []*domain.Content{},
		Pagination: domain.NewPagination(page, 0),
	}
	if artistID == "" {
		return empty
	}

	filter, _, err := e.accessFilter(ctx, userID, artistID)
	if err != nil {
		e.log.Warn("accessible content lookup failed", map[string]interface{}{
			"userId":   userID,
			"artistId": artistID,
			"error":    err,
		})
		return empty
	}
	filter.Type = q.Type

	items, total, err := e.content.ListContent(ctx, filter, page)
	if err != nil {
		e.log.Warn("accessible content listing failed", map[string]interface{}{
			"userId":   userID,
			"artistId": artistID,
			"error":    err,
		})
		return empty
	}
	if items == nil {
		items = []*domain.Content{}
	}

	return domain.AccessibleContentPage{
		Content:    items,
		Pagination: domain.NewPagination(page, total),
	}
}

// GetContentAccessSummary counts what userID can reach of the artist's
// catalogue. Any failure yields an all-zero summary.
func (e *Evaluator) GetContentAccessSummary(ctx context.Context, userID, artistID string) domain.AccessSummary {
	defer e.observe(opSummary, time.Now())

	if artistID == "" {
		return domain.EmptyAccessSummary()
	}

	summary, err := e.contentAccessSummary(ctx, userID, artistID)
	if err != nil {
		e.log.Warn("access summary failed", map[string]interface{}{
			"userId":   userID,
			"artistId": artistID,
			"error":    err,
		})
		return domain.EmptyAccessSummary()
	}
	return summary
}

func (e *Evaluator) contentAccessSummary(ctx context.Context, userID, artistID string) (domain.AccessSummary, error) {
	total, err := e.content.CountContent(ctx, domain.ContentFilter{ArtistID: artistID, All: true})
	if err != nil {
		return domain.AccessSummary{}, err
	}
	public, err := e.content.CountContent(ctx, domain.ContentFilter{ArtistID: artistID, Public: true})
	if err != nil {
		return domain.AccessSummary{}, err
	}

	summary := domain.AccessSummary{
		TotalContent:  total,
		PublicContent: public,
		GatedContent:  total - public,
		Subscriptions: []domain.TierContentCount{},
	}

	filter, subs, err := e.accessFilter(ctx, userID, artistID)
	if err != nil {
		return domain.AccessSummary{}, err
	}

	accessibleGated := 0
	switch {
	case filter.All:
		accessibleGated = summary.GatedContent
	case len(filter.TierIDs) > 0:
		accessibleGated, err = e.content.CountContent(ctx, domain.ContentFilter{
			ArtistID: artistID,
			TierIDs:  filter.TierIDs,
		})
		if err != nil {
			return domain.AccessSummary{}, err
		}
	}
	summary.AccessibleContent = public + accessibleGated

	seen := make(map[string]bool, len(subs))
	for _, sub := range subs {
		if seen[sub.TierID] {
			continue
		}
		seen[sub.TierID] = true

		count, err := e.content.CountContent(ctx, domain.ContentFilter{
			ArtistID: artistID,
			TierIDs:  []string{sub.TierID},
		})
		if err != nil {
			return domain.AccessSummary{}, err
		}
		summary.Subscriptions = append(summary.Subscriptions, domain.TierContentCount{
			SubscriptionID: sub.ID,
			TierID:         sub.TierID,
			TierName:       sub.Tier.Name,
			ContentCount:   count,
		})
	}

	return summary, nil
}

// accessFilter builds the set query equivalent of CheckContentAccess for
// one artist's catalogue, plus the subscriptions that qualified.
func (e *Evaluator) accessFilter(ctx context.Context, userID, artistID string) (domain.ContentFilter, []*domain.Subscription, error) {
	if userID != "" && userID == artistID {
		return domain.ContentFilter{ArtistID: artistID, All: true}, nil, nil
	}

	subs, err := e.validSubscriptions(ctx, userID, artistID)
	if err != nil {
		return domain.ContentFilter{}, nil, err
	}

	tierIDs := make([]string, 0, len(subs))
	seen := make(map[string]bool, len(subs))
	for _, sub := range subs {
		if !seen[sub.TierID] {
			seen[sub.TierID] = true
			tierIDs = append(tierIDs, sub.TierID)
		}
	}

	return domain.ContentFilter{ArtistID: artistID, Public: true, TierIDs: tierIDs}, subs, nil
}

// validSubscriptions returns the user's subscriptions to the artist that
// currently grant access.
func (e *Evaluator) validSubscriptions(ctx context.Context, userID, artistID string) ([]*domain.Subscription, error) {
	if userID == "" {
		return nil, nil
	}

	now := e.clock()
	subs, err := e.subscriptions.FindSubscriptions(ctx, domain.SubscriptionFilter{
		FanID:          userID,
		ArtistID:       artistID,
		Status:         domain.SubscriptionActive,
		ActiveAt:       now,
		TierActiveOnly: true,
	})
	if err != nil {
		return nil, err
	}

	valid := make([]*domain.Subscription, 0, len(subs))
	for _, sub := range subs {
		if subscriptionValid(sub, userID, artistID, now) {
			valid = append(valid, sub)
		}
	}
	return valid, nil
}

// subscriptionValid re-checks the repository's filtering so a lax query
// can never widen access.
func subscriptionValid(sub *domain.Subscription, userID, artistID string, now time.Time) bool {
	if sub == nil || sub.FanID != userID || sub.ArtistID != artistID {
		return false
	}
	if !sub.ValidAt(now) || !sub.TierActive() {
		return false
	}
	return sub.Tier.ArtistID == "" || sub.Tier.ArtistID == artistID
}

func grantsContent(sub *domain.Subscription, userID string, content *domain.Content, now time.Time) bool {
	return subscriptionValid(sub, userID, content.ArtistID, now) && content.HasTier(sub.TierID)
}

// clock returns the current instant at the precision Postgres stores
// timestamps with, so the SQL filter and the Go re-check agree.
func (e *Evaluator) clock() time.Time {
	return e.now().Truncate(time.Microsecond)
}

func (e *Evaluator) observe(op string, start time.Time) {
	e.metrics.ObserveDuration(op, time.Since(start).Seconds())
}
