package domain

import "time"

// SubscriptionStatus mirrors the payment provider's subscription lifecycle.
type SubscriptionStatus string

const (
	SubscriptionActive     SubscriptionStatus = "ACTIVE"
	SubscriptionCanceled   SubscriptionStatus = "CANCELED"
	SubscriptionPastDue    SubscriptionStatus = "PAST_DUE"
	SubscriptionIncomplete SubscriptionStatus = "INCOMPLETE"
	SubscriptionExpired    SubscriptionStatus = "EXPIRED"
)

// Subscription represents a fan's subscription to one of an artist's tiers.
type Subscription struct {
	ID                 string             `json:"id"`
	FanID              string             `json:"fanId"`
	ArtistID           string             `json:"artistId"`
	TierID             string             `json:"tierId"`
	Status             SubscriptionStatus `json:"status"`
	Amount             int64              `json:"amount"` // cents per period
	CurrentPeriodStart time.Time          `json:"currentPeriodStart"`
	CurrentPeriodEnd   time.Time          `json:"currentPeriodEnd"`
	PaymentProviderID  string             `json:"paymentProviderId,omitempty"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`

	// Tier is the joined tier row, populated by repository reads.
	Tier *Tier `json:"tier,omitempty"`
}

// ValidAt reports whether the subscription is ACTIVE and its period has not
// ended at now. A period ending exactly at now is still valid.
func (s *Subscription) ValidAt(now time.Time) bool {
	return s.Status == SubscriptionActive && !s.CurrentPeriodEnd.Before(now)
}

// TierActive reports whether the joined tier is present and active.
func (s *Subscription) TierActive() bool {
	return s.Tier != nil && s.Tier.IsActive
}

// SubscriptionFilter selects subscription rows. Zero-valued fields do not
// constrain the query.
type SubscriptionFilter struct {
	FanID    string
	ArtistID string
	TierIDs  []string
	Status   SubscriptionStatus
	// ActiveAt keeps rows whose current period ends at or after the instant.
	ActiveAt time.Time
	// TierActiveOnly keeps rows whose joined tier is active.
	TierActiveOnly bool
}

// CheckoutRequest is the input for subscribing to a tier.
type CheckoutRequest struct {
	TierID string `json:"tierId" validate:"required,uuid"`
	// Amount lets fans pay more than the tier minimum; zero means minimum.
	Amount int64 `json:"amount" validate:"gte=0"`
}

// PaymentLinkResponse returns the URL to redirect the user to for payment.
type PaymentLinkResponse struct {
	PaymentURL     string `json:"paymentUrl"`
	OrderID        string `json:"orderId"`
	SubscriptionID string `json:"subscriptionId"`
}

// PaymentEvent is the normalized payment webhook payload.
type PaymentEvent struct {
	Type              string    `json:"type" validate:"required,oneof=subscription.activated subscription.renewed subscription.past_due subscription.canceled"`
	SubscriptionID    string    `json:"subscriptionId" validate:"required"`
	PaymentProviderID string    `json:"paymentProviderId"`
	PeriodEnd         time.Time `json:"periodEnd"`
}

// SimulateRequest is the admin-only input for granting a subscription
// without a payment round trip.
type SimulateRequest struct {
	FanID  string `json:"fanId" validate:"required"`
	TierID string `json:"tierId" validate:"required"`
	Days   int    `json:"days" validate:"omitempty,min=1,max=366"`
}
