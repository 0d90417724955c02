// Package token issues and verifies short-lived content access tokens.
//
// A token is a capability: it names one user and one content item and
// carries no access decision. Callers decide whether to issue, and
// resource endpoints must check AccessClaims.Permits against the
// requested content before serving anything.
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fanvault/backend/internal/domain"
	"github.com/fanvault/backend/internal/logger"
	"github.com/fanvault/backend/internal/metrics"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the lifetime of an access token.
const DefaultTTL = time.Hour

// ErrRevocationDisabled is returned by Revoke when no store is configured.
var ErrRevocationDisabled = errors.New("token revocation is not enabled")

// RevocationStore tracks a revocation epoch per (user, content) pair.
type RevocationStore interface {
	Epoch(ctx context.Context, userID, contentID string) (int64, error)
	Revoke(ctx context.Context, userID, contentID string) (int64, error)
}

type accessTokenClaims struct {
	UserID    string `json:"userId"`
	ContentID string `json:"contentId"`
	Epoch     int64  `json:"epoch,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 access tokens with a server-held secret.
type Issuer struct {
	secret      []byte
	ttl         time.Duration
	now         func() time.Time
	revocations RevocationStore
	metrics     *metrics.Metrics
	log         logger.Logger
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// WithRevocationStore enables epoch based revocation.
func WithRevocationStore(store RevocationStore) Option {
	return func(i *Issuer) { i.revocations = store }
}

// WithMetrics records issued and rejected tokens.
func WithMetrics(m *metrics.Metrics) Option {
	return func(i *Issuer) { i.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(i *Issuer) { i.log = l }
}

// NewIssuer creates an Issuer. A non-positive ttl falls back to DefaultTTL.
func NewIssuer(secret string, ttl time.Duration, opts ...Option) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	i := &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
		log:    logger.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// TTL returns the configured token lifetime.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// GenerateAccessToken signs a token for (userID, contentID). Issuance is
// unconditional; authorization is the caller's job. The only error is a
// signing failure.
func (i *Issuer) GenerateAccessToken(ctx context.Context, userID, contentID string) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.ttl)

	var epoch int64
	if i.revocations != nil {
		e, err := i.revocations.Epoch(ctx, userID, contentID)
		if err != nil {
			// The token still gets checked against the store on redemption.
			i.log.Warn("failed to read revocation epoch", map[string]interface{}{
				"userId":    userID,
				"contentId": contentID,
				"error":     err,
			})
		}
		epoch = e
	}

	claims := accessTokenClaims{
		UserID:    userID,
		ContentID: contentID,
		Epoch:     epoch,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	i.metrics.TokenIssued()
	return signed, claims.ExpiresAt.Time.UTC(), nil
}

// VerifyAccessToken checks signature, algorithm, expiry and revocation.
// Any failure yields (nil, false); callers treat that as unauthenticated.
func (i *Issuer) VerifyAccessToken(ctx context.Context, raw string) (*domain.AccessClaims, bool) {
	parsed, err := jwt.ParseWithClaims(raw, &accessTokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		i.reject(rejectionCause(err), err)
		return nil, false
	}

	claims, ok := parsed.Claims.(*accessTokenClaims)
	if !ok || !parsed.Valid {
		i.reject("invalid", nil)
		return nil, false
	}

	if i.revocations != nil {
		current, err := i.revocations.Epoch(ctx, claims.UserID, claims.ContentID)
		if err != nil {
			i.reject("revocation_unavailable", err)
			return nil, false
		}
		if claims.Epoch < current {
			i.reject("revoked", nil)
			return nil, false
		}
	}

	return &domain.AccessClaims{
		UserID:    claims.UserID,
		ContentID: claims.ContentID,
		IssuedAt:  claims.IssuedAt.Time.UTC(),
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
		Epoch:     claims.Epoch,
	}, true
}

// Revoke invalidates every token issued so far for (userID, contentID).
func (i *Issuer) Revoke(ctx context.Context, userID, contentID string) error {
	if i.revocations == nil {
		return ErrRevocationDisabled
	}
	if _, err := i.revocations.Revoke(ctx, userID, contentID); err != nil {
		return err
	}
	i.metrics.TokenRevoked()
	return nil
}

func (i *Issuer) reject(cause string, err error) {
	i.metrics.TokenRejected(cause)
	fields := map[string]interface{}{"cause": cause}
	if err != nil {
		fields["error"] = err
	}
	i.log.Debug("access token rejected", fields)
}

func rejectionCause(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "expired"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "signature"
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return "unverifiable"
	default:
		return "invalid"
	}
}
