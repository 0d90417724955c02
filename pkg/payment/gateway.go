package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// SignatureHeader carries the webhook signature as "sha256=<hex>".
const SignatureHeader = "X-Payment-Signature"

// CheckoutSession describes a subscription payment to collect.
type CheckoutSession struct {
	OrderID        string
	SubscriptionID string
	FanID          string
	TierID         string
	Amount         int64 // cents
}

// PaymentGateway defines the interface for payment providers.
type PaymentGateway interface {
	// CreatePaymentLink returns the URL the fan is redirected to.
	CreatePaymentLink(ctx context.Context, s CheckoutSession) (string, error)
	// VerifySignature checks a webhook payload against its signature header.
	VerifySignature(payload []byte, signature string) bool
}

// HostedGateway builds links to a hosted checkout page and authenticates
// webhooks with a shared HMAC-SHA256 secret.
type HostedGateway struct {
	checkoutURL string
	secret      []byte
}

// NewHostedGateway creates a HostedGateway.
func NewHostedGateway(checkoutURL, webhookSecret string) (*HostedGateway, error) {
	if _, err := url.Parse(checkoutURL); err != nil || checkoutURL == "" {
		return nil, fmt.Errorf("invalid checkout url %q", checkoutURL)
	}
	if webhookSecret == "" {
		return nil, fmt.Errorf("webhook secret is required")
	}
	return &HostedGateway{checkoutURL: checkoutURL, secret: []byte(webhookSecret)}, nil
}

func (g *HostedGateway) CreatePaymentLink(ctx context.Context, s CheckoutSession) (string, error) {
	u, err := url.Parse(g.checkoutURL)
	if err != nil {
		return "", fmt.Errorf("invalid checkout url: %w", err)
	}
	q := u.Query()
	q.Set("order_id", s.OrderID)
	q.Set("subscription_id", s.SubscriptionID)
	q.Set("amount", strconv.FormatInt(s.Amount, 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (g *HostedGateway) VerifySignature(payload []byte, signature string) bool {
	return VerifySignature(g.secret, payload, signature)
}

// Sign returns the signature header value for payload.
func Sign(secret, payload []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a "sha256=<hex>" signature in constant time.
func VerifySignature(secret, payload []byte, signature string) bool {
	algo, sum, ok := strings.Cut(signature, "=")
	if !ok || algo != "sha256" || len(secret) == 0 {
		return false
	}
	return hmac.Equal([]byte(sum), []byte(strings.TrimPrefix(Sign(secret, payload), "sha256=")))
}
