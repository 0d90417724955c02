package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fanvault/backend/internal/domain"
	"github.com/fanvault/backend/internal/logger"
	"github.com/fanvault/backend/pkg/payment"
	"github.com/google/uuid"
)

// Payment event types delivered by the provider webhook.
const (
	EventActivated = "subscription.activated"
	EventRenewed   = "subscription.renewed"
	EventPastDue   = "subscription.past_due"
	EventCanceled  = "subscription.canceled"
)

const defaultPeriod = 30 * 24 * time.Hour

// transitions lists, per event, the statuses it may be applied to and the
// resulting status.
var transitions = map[string]struct {
	from []domain.SubscriptionStatus
	to   domain.SubscriptionStatus
}{
	EventActivated: {
		from: []domain.SubscriptionStatus{domain.SubscriptionIncomplete, domain.SubscriptionPastDue},
		to:   domain.SubscriptionActive,
	},
	EventRenewed: {
		from: []domain.SubscriptionStatus{domain.SubscriptionActive, domain.SubscriptionPastDue, domain.SubscriptionExpired},
		to:   domain.SubscriptionActive,
	},
	EventPastDue: {
		from: []domain.SubscriptionStatus{domain.SubscriptionActive},
		to:   domain.SubscriptionPastDue,
	},
	EventCanceled: {
		from: []domain.SubscriptionStatus{domain.SubscriptionIncomplete, domain.SubscriptionActive, domain.SubscriptionPastDue, domain.SubscriptionExpired},
		to:   domain.SubscriptionCanceled,
	},
}

type SubscriptionService struct {
	repo    SubscriptionRepository
	tiers   TierRepository
	payment payment.PaymentGateway
	log     logger.Logger
	now     func() time.Time
}

func NewSubscriptionService(repo SubscriptionRepository, tiers TierRepository, gateway payment.PaymentGateway, log logger.Logger) *SubscriptionService {
	return &SubscriptionService{
		repo:    repo,
		tiers:   tiers,
		payment: gateway,
		log:     log,
		now:     time.Now,
	}
}

// ListForFan returns every subscription the fan holds.
func (s *SubscriptionService) ListForFan(ctx context.Context, fanID string) ([]*domain.Subscription, error) {
	subs, err := s.repo.ListByFan(ctx, fanID)
	if err != nil {
		return nil, domain.ErrInternal("failed to list subscriptions", err)
	}
	return subs, nil
}

// CreateCheckout records an INCOMPLETE subscription to the tier and returns
// the payment link. The subscription grants nothing until the provider
// confirms payment through the webhook.
func (s *SubscriptionService) CreateCheckout(ctx context.Context, fanID string, req *domain.CheckoutRequest) (*domain.PaymentLinkResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	tier, err := s.subscribableTier(ctx, fanID, req.TierID)
	if err != nil {
		return nil, err
	}

	amount := req.Amount
	if amount == 0 {
		amount = tier.MinimumPrice
	}
	if amount < tier.MinimumPrice {
		return nil, domain.ErrValidation("amount is below the tier minimum price")
	}

	orderID := uuid.New().String()
	now := s.now()
	sub := &domain.Subscription{
		ID:                 uuid.New().String(),
		FanID:              fanID,
		ArtistID:           tier.ArtistID,
		TierID:             tier.ID,
		Status:             domain.SubscriptionIncomplete,
		Amount:             amount,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now,
		PaymentProviderID:  orderID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, domain.ErrInternal("failed to create subscription", err)
	}

	paymentURL, err := s.payment.CreatePaymentLink(ctx, payment.CheckoutSession{
		OrderID:        orderID,
		SubscriptionID: sub.ID,
		FanID:          fanID,
		TierID:         tier.ID,
		Amount:         amount,
	})
	if err != nil {
		return nil, domain.ErrInternal("failed to create payment link", err)
	}

	s.log.Info("checkout created", map[string]interface{}{
		"subscriptionId": sub.ID,
		"fanId":          fanID,
		"tierId":         tier.ID,
		"amount":         amount,
	})

	return &domain.PaymentLinkResponse{
		PaymentURL:     paymentURL,
		OrderID:        orderID,
		SubscriptionID: sub.ID,
	}, nil
}

// HandlePaymentWebhook authenticates and applies a provider event. Replays
// of an already applied event are accepted without changes.
func (s *SubscriptionService) HandlePaymentWebhook(ctx context.Context, payload []byte, signature string) error {
	if !s.payment.VerifySignature(payload, signature) {
		s.log.Warn("payment webhook signature rejected", nil)
		return domain.ErrUnauthorized("invalid signature")
	}

	var event domain.PaymentEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return domain.ErrBadRequest("invalid JSON body")
	}
	if err := validateStruct(&event); err != nil {
		return err
	}
	// A renewal is identified by the period it pays for; without one a
	// redelivery would extend the subscription again.
	if event.Type == EventRenewed && event.PeriodEnd.IsZero() {
		return domain.ErrValidation("periodEnd is required for renewals")
	}

	sub, err := s.repo.FindByID(ctx, event.SubscriptionID)
	if err != nil {
		return domain.ErrInternal("failed to find subscription", err)
	}
	if sub == nil {
		return domain.ErrNotFound("subscription not found")
	}
	if event.PaymentProviderID != "" && event.PaymentProviderID != sub.PaymentProviderID {
		return domain.ErrBadRequest("payment reference mismatch")
	}

	rule := transitions[event.Type]
	if replayed(event, sub, rule.to) {
		return nil
	}
	if !allowed(rule.from, sub.Status) {
		return domain.ErrConflict("cannot apply " + event.Type + " to a " + string(sub.Status) + " subscription")
	}

	var periodEnd time.Time
	if rule.to == domain.SubscriptionActive {
		periodEnd = s.nextPeriodEnd(sub, event)
	}
	if err := s.repo.UpdateStatus(ctx, sub.ID, rule.to, periodEnd); err != nil {
		return domain.ErrInternal("failed to update subscription", err)
	}

	s.log.Info("subscription updated from payment event", map[string]interface{}{
		"subscriptionId": sub.ID,
		"event":          event.Type,
		"from":           sub.Status,
		"to":             rule.to,
	})
	return nil
}

// nextPeriodEnd uses the provider's period end when given. Activations
// without one start a default period from now or the current end,
// whichever is later.
func (s *SubscriptionService) nextPeriodEnd(sub *domain.Subscription, event domain.PaymentEvent) time.Time {
	if !event.PeriodEnd.IsZero() {
		return event.PeriodEnd
	}
	start := s.now()
	if sub.CurrentPeriodEnd.After(start) {
		start = sub.CurrentPeriodEnd
	}
	return start.Add(defaultPeriod)
}

// replayed reports whether event has already been applied to sub.
func replayed(event domain.PaymentEvent, sub *domain.Subscription, to domain.SubscriptionStatus) bool {
	if sub.Status != to {
		return false
	}
	if event.Type != EventRenewed {
		return true
	}
	return !event.PeriodEnd.IsZero() && !event.PeriodEnd.After(sub.CurrentPeriodEnd)
}

func allowed(from []domain.SubscriptionStatus, status domain.SubscriptionStatus) bool {
	for _, f := range from {
		if f == status {
			return true
		}
	}
	return false
}

// Simulate grants an ACTIVE subscription without a payment round trip.
// It is for administrators and test environments.
func (s *SubscriptionService) Simulate(ctx context.Context, req *domain.SimulateRequest) (*domain.Subscription, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	tier, err := s.subscribableTier(ctx, req.FanID, req.TierID)
	if err != nil {
		return nil, err
	}

	period := defaultPeriod
	if req.Days > 0 {
		period = time.Duration(req.Days) * 24 * time.Hour
	}

	now := s.now()
	sub := &domain.Subscription{
		ID:                 uuid.New().String(),
		FanID:              req.FanID,
		ArtistID:           tier.ArtistID,
		TierID:             tier.ID,
		Status:             domain.SubscriptionActive,
		Amount:             tier.MinimumPrice,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.Add(period),
		CreatedAt:          now,
		UpdatedAt:          now,
		Tier:               tier,
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, domain.ErrInternal("failed to create subscription", err)
	}

	s.log.Info("subscription simulated", map[string]interface{}{"subscriptionId": sub.ID, "fanId": req.FanID})
	return sub, nil
}

// ExpireLapsed marks subscriptions whose period has ended as EXPIRED.
// Access checks never depend on this sweep.
func (s *SubscriptionService) ExpireLapsed(ctx context.Context) (int64, error) {
	n, err := s.repo.ExpireLapsed(ctx, s.now())
	if err != nil {
		return 0, err
	}
	s.log.Info("expired lapsed subscriptions", map[string]interface{}{"count": n})
	return n, nil
}

func (s *SubscriptionService) subscribableTier(ctx context.Context, fanID, tierID string) (*domain.Tier, error) {
	tier, err := s.tiers.FindByID(ctx, tierID)
	if err != nil {
		return nil, domain.ErrInternal("failed to find tier", err)
	}
	if tier == nil || !tier.IsActive {
		return nil, domain.ErrNotFound("tier not found")
	}
	if tier.ArtistID == fanID {
		return nil, domain.ErrBadRequest("artists cannot subscribe to their own tiers")
	}
	return tier, nil
}
