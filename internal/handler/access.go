package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/fanvault/backend/internal/contextkeys"
	"github.com/fanvault/backend/internal/domain"
	"github.com/fanvault/backend/internal/logger"
	"github.com/go-chi/chi/v5"
)

// AccessEvaluator answers access questions. *access.Evaluator satisfies it.
type AccessEvaluator interface {
	CheckContentAccess(ctx context.Context, userID, contentID string) domain.AccessResult
	CheckTierAccess(ctx context.Context, userID, tierID string) bool
	GetUserAccessibleContent(ctx context.Context, userID, artistID string, q domain.ContentQuery) domain.AccessibleContentPage
	GetContentAccessSummary(ctx context.Context, userID, artistID string) domain.AccessSummary
}

// AccessTokens issues, revokes and redeems content access tokens.
// *service.AccessService satisfies it.
type AccessTokens interface {
	IssueToken(ctx context.Context, userID, contentID string) (*domain.AccessTokenResponse, error)
	RevokeTokens(ctx context.Context, userID, contentID string) error
	Redeem(ctx context.Context, contentID, raw string) (*domain.MediaGrant, error)
}

// AccessHandler exposes access decisions and token exchange.
type AccessHandler struct {
	responder
	evaluator AccessEvaluator
	tokens    AccessTokens
}

// NewAccessHandler creates a new AccessHandler.
func NewAccessHandler(evaluator AccessEvaluator, tokens AccessTokens, log logger.Logger) *AccessHandler {
	return &AccessHandler{responder: newResponder(log), evaluator: evaluator, tokens: tokens}
}

// Check handles GET /api/content/{id}/access. Anonymous callers are
// allowed. Every denial is reported as not_found so callers cannot tell
// gated content from missing content.
func (h *AccessHandler) Check(w http.ResponseWriter, r *http.Request) {
	result := h.evaluator.CheckContentAccess(r.Context(), contextkeys.UserIDFrom(r.Context()), chi.URLParam(r, "id"))
	if !result.HasAccess() {
		result = domain.DenyNotFound()
	}
	h.writeJSON(w, http.StatusOK, domain.NewAccessResponse(result))
}

// IssueToken handles POST /api/content/{id}/token.
func (h *AccessHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	resp, err := h.tokens.IssueToken(r.Context(), contextkeys.UserIDFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, resp)
}

// RevokeTokens handles DELETE /api/content/{id}/token.
func (h *AccessHandler) RevokeTokens(w http.ResponseWriter, r *http.Request) {
	if err := h.tokens.RevokeTokens(r.Context(), contextkeys.UserIDFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Download handles GET /api/content/{id}/download?token=. The token is the
// only credential; every failure is a 404.
func (h *AccessHandler) Download(w http.ResponseWriter, r *http.Request) {
	grant, err := h.tokens.Redeem(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("token"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	h.writeJSON(w, http.StatusOK, grant)
}

// ListAccessible handles GET /api/artists/{artistId}/content?type=&page=&limit=.
func (h *AccessHandler) ListAccessible(w http.ResponseWriter, r *http.Request) {
	q, err := parseContentQuery(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	page := h.evaluator.GetUserAccessibleContent(r.Context(), contextkeys.UserIDFrom(r.Context()), chi.URLParam(r, "artistId"), q)
	h.writeJSON(w, http.StatusOK, page)
}

// Summary handles GET /api/artists/{artistId}/access-summary.
func (h *AccessHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary := h.evaluator.GetContentAccessSummary(r.Context(), contextkeys.UserIDFrom(r.Context()), chi.URLParam(r, "artistId"))
	h.writeJSON(w, http.StatusOK, summary)
}

// TierAccess handles GET /api/tiers/{id}/access.
func (h *AccessHandler) TierAccess(w http.ResponseWriter, r *http.Request) {
	tierID := chi.URLParam(r, "id")
	ok := h.evaluator.CheckTierAccess(r.Context(), contextkeys.UserIDFrom(r.Context()), tierID)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"tierId": tierID, "hasAccess": ok})
}

func parseContentQuery(r *http.Request) (domain.ContentQuery, error) {
	values := r.URL.Query()
	var q domain.ContentQuery

	if t := values.Get("type"); t != "" {
		q.Type = domain.ContentType(t)
		if !q.Type.Valid() {
			return q, domain.ErrBadRequest("unknown content type")
		}
	}
	var err error
	if q.Page, err = intParam(values.Get("page")); err != nil {
		return q, domain.ErrBadRequest("page must be an integer")
	}
	if q.Limit, err = intParam(values.Get("limit")); err != nil {
		return q, domain.ErrBadRequest("limit must be an integer")
	}
	return q, nil
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
