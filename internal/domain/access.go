package domain

import "time"

// AccessReason explains an access decision.
type AccessReason string

const (
	ReasonPublic         AccessReason = "public"
	ReasonOwner          AccessReason = "owner"
	ReasonSubscription   AccessReason = "subscription"
	ReasonNoSubscription AccessReason = "no_subscription"
	ReasonNotFound       AccessReason = "not_found"
)

// AccessResult is the outcome of a content access check. It is a closed
// set of variants: PublicAccess, OwnerAccess, SubscriptionAccess and
// DeniedAccess. Only SubscriptionAccess carries a payload.
type AccessResult interface {
	HasAccess() bool
	Reason() AccessReason
	accessResult()
}

// PublicAccess grants access because the content is PUBLIC.
type PublicAccess struct{}

func (PublicAccess) HasAccess() bool      { return true }
func (PublicAccess) Reason() AccessReason { return ReasonPublic }
func (PublicAccess) accessResult()        {}

// OwnerAccess grants access because the requester owns the content.
type OwnerAccess struct{}

func (OwnerAccess) HasAccess() bool      { return true }
func (OwnerAccess) Reason() AccessReason { return ReasonOwner }
func (OwnerAccess) accessResult()        {}

// SubscriptionAccess grants access through a qualifying subscription whose
// tier is one of the content's tiers.
type SubscriptionAccess struct {
	Subscription Subscription
}

func (SubscriptionAccess) HasAccess() bool      { return true }
func (SubscriptionAccess) Reason() AccessReason { return ReasonSubscription }
func (SubscriptionAccess) accessResult()        {}

// DeniedAccess refuses access. The reason is either no_subscription or
// not_found.
type DeniedAccess struct {
	reason AccessReason
}

func (d DeniedAccess) HasAccess() bool      { return false }
func (d DeniedAccess) Reason() AccessReason { return d.reason }
func (DeniedAccess) accessResult()          {}

// DenyNoSubscription is returned when content exists but the requester
// does not qualify.
func DenyNoSubscription() DeniedAccess {
	return DeniedAccess{reason: ReasonNoSubscription}
}

// DenyNotFound is returned when content is missing or could not be loaded.
func DenyNotFound() DeniedAccess {
	return DeniedAccess{reason: ReasonNotFound}
}

// AccessResponse is the wire shape of an AccessResult.
type AccessResponse struct {
	HasAccess    bool          `json:"hasAccess"`
	Reason       AccessReason  `json:"reason"`
	Subscription *Subscription `json:"subscription,omitempty"`
}

// NewAccessResponse flattens an AccessResult for serialization.
func NewAccessResponse(r AccessResult) AccessResponse {
	resp := AccessResponse{HasAccess: r.HasAccess(), Reason: r.Reason()}
	if s, ok := r.(SubscriptionAccess); ok {
		sub := s.Subscription
		resp.Subscription = &sub
	}
	return resp
}

// ContentQuery holds the caller-facing filters for accessible content.
type ContentQuery struct {
	Type  ContentType
	Page  int
	Limit int
}

// AccessibleContentPage is a page of content the user may view.
type AccessibleContentPage struct {
	Content    []*Content `json:"content"`
	Pagination Pagination `json:"pagination"`
}

// TierContentCount is the per-subscription line of an access summary.
type TierContentCount struct {
	SubscriptionID string `json:"subscriptionId"`
	TierID         string `json:"tierId"`
	TierName       string `json:"tierName"`
	ContentCount   int    `json:"contentCount"`
}

// AccessSummary aggregates what a user can reach of an artist's catalogue.
// AccessibleContent == PublicContent + accessible gated content and
// GatedContent == TotalContent - PublicContent always hold.
type AccessSummary struct {
	TotalContent      int                `json:"totalContent"`
	PublicContent     int                `json:"publicContent"`
	AccessibleContent int                `json:"accessibleContent"`
	GatedContent      int                `json:"gatedContent"`
	Subscriptions     []TierContentCount `json:"subscriptions"`
}

// EmptyAccessSummary is the degraded summary returned on failure.
func EmptyAccessSummary() AccessSummary {
	return AccessSummary{Subscriptions: []TierContentCount{}}
}

// AccessClaims are the claims carried by a content access token.
type AccessClaims struct {
	UserID    string    `json:"userId"`
	ContentID string    `json:"contentId"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
	Epoch     int64     `json:"epoch,omitempty"`
}

// Permits reports whether the token was minted for contentID. Resource
// endpoints must check this before serving anything.
func (c *AccessClaims) Permits(contentID string) bool {
	return c != nil && contentID != "" && c.ContentID == contentID
}

// AccessTokenResponse is returned when a token is issued.
type AccessTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// MediaGrant is what a redeemed access token reveals.
type MediaGrant struct {
	ContentID string      `json:"contentId"`
	Type      ContentType `json:"type"`
	Location  string      `json:"location"`
	ExpiresAt time.Time   `json:"expiresAt"`
}
