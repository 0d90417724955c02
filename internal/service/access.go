package service

import (
	"context"
	"errors"
	"time"

	"github.com/fanvault/backend/internal/domain"
	"github.com/fanvault/backend/internal/logger"
	"github.com/fanvault/backend/internal/metrics"
	"github.com/fanvault/backend/internal/token"
)

// AccessChecker decides content access. *access.Evaluator satisfies it.
type AccessChecker interface {
	CheckContentAccess(ctx context.Context, userID, contentID string) domain.AccessResult
}

// TokenIssuer mints and verifies content access tokens. *token.Issuer
// satisfies it.
type TokenIssuer interface {
	GenerateAccessToken(ctx context.Context, userID, contentID string) (string, time.Time, error)
	VerifyAccessToken(ctx context.Context, raw string) (*domain.AccessClaims, bool)
	Revoke(ctx context.Context, userID, contentID string) error
}

// AccessService exchanges access decisions for short-lived tokens and
// redeems those tokens for media.
type AccessService struct {
	checker AccessChecker
	tokens  TokenIssuer
	content ContentRepository
	sealer  MediaSealer
	metrics *metrics.Metrics
	log     logger.Logger
}

// NewAccessService creates a new AccessService. m may be nil.
func NewAccessService(checker AccessChecker, tokens TokenIssuer, content ContentRepository, sealer MediaSealer, m *metrics.Metrics, log logger.Logger) *AccessService {
	return &AccessService{
		checker: checker,
		tokens:  tokens,
		content: content,
		sealer:  sealer,
		metrics: m,
		log:     log,
	}
}

var errContentNotFound = domain.ErrNotFound("content not found")

// IssueToken mints a token for contentID if userID currently has access.
// Every denial is reported as not found.
func (s *AccessService) IssueToken(ctx context.Context, userID, contentID string) (*domain.AccessTokenResponse, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized("authentication required")
	}

	result := s.checker.CheckContentAccess(ctx, userID, contentID)
	if !result.HasAccess() {
		s.log.Debug("token refused", map[string]interface{}{
			"userId":    userID,
			"contentId": contentID,
			"reason":    result.Reason(),
		})
		return nil, errContentNotFound
	}

	raw, expiresAt, err := s.tokens.GenerateAccessToken(ctx, userID, contentID)
	if err != nil {
		return nil, domain.ErrInternal("failed to issue access token", err)
	}
	return &domain.AccessTokenResponse{Token: raw, ExpiresAt: expiresAt}, nil
}

// RevokeTokens invalidates every token userID holds for contentID.
func (s *AccessService) RevokeTokens(ctx context.Context, userID, contentID string) error {
	if err := s.tokens.Revoke(ctx, userID, contentID); err != nil {
		if errors.Is(err, token.ErrRevocationDisabled) {
			return domain.ErrBadRequest("token revocation is disabled")
		}
		return domain.ErrInternal("failed to revoke tokens", err)
	}
	return nil
}

// Redeem exchanges a token for the media location of contentID. The token
// must be valid, minted for contentID, and its holder must still have
// access. Every failure is reported as not found.
func (s *AccessService) Redeem(ctx context.Context, contentID, raw string) (*domain.MediaGrant, error) {
	claims, ok := s.tokens.VerifyAccessToken(ctx, raw)
	if !ok {
		return nil, errContentNotFound
	}

	if !claims.Permits(contentID) {
		s.metrics.TokenRejected("wrong_content")
		s.log.Warn("access token presented for another resource", map[string]interface{}{
			"userId":         claims.UserID,
			"tokenContentId": claims.ContentID,
			"contentId":      contentID,
		})
		return nil, errContentNotFound
	}

	if !s.checker.CheckContentAccess(ctx, claims.UserID, contentID).HasAccess() {
		s.metrics.TokenRejected("access_lost")
		return nil, errContentNotFound
	}

	c, err := s.content.FindContentByID(ctx, contentID)
	if err != nil || c == nil {
		return nil, errContentNotFound
	}

	location, err := s.sealer.Open(c.ID, c.MediaLocation)
	if err != nil {
		s.log.Error("failed to decrypt media location", map[string]interface{}{
			"contentId": contentID,
			"error":     err,
		})
		return nil, errContentNotFound
	}

	return &domain.MediaGrant{
		ContentID: c.ID,
		Type:      c.Type,
		Location:  string(location),
		ExpiresAt: claims.ExpiresAt,
	}, nil
}
