package handler

import (
	"context"
	"net/http"

	"github.com/fanvault/backend/internal/domain"
	"github.com/fanvault/backend/internal/logger"
)

type UserCounter interface {
	CountByRole(ctx context.Context) (map[string]int, error)
}

type ContentCounter interface {
	CountByVisibility(ctx context.Context) (map[domain.Visibility]int, error)
}

type SubscriptionCounter interface {
	CountByStatus(ctx context.Context) (map[domain.SubscriptionStatus]int, error)
}

// StatsHandler serves platform-wide counts for administrators.
type StatsHandler struct {
	responder
	users         UserCounter
	content       ContentCounter
	subscriptions SubscriptionCounter
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(users UserCounter, content ContentCounter, subs SubscriptionCounter, log logger.Logger) *StatsHandler {
	return &StatsHandler{responder: newResponder(log), users: users, content: content, subscriptions: subs}
}

// Get handles GET /api/admin/stats. A failing count is logged and
// reported as empty.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := h.users.CountByRole(ctx)
	if err != nil {
		h.log.WithError(err).Warn("failed to count users", nil)
		users = map[string]int{}
	}
	content, err := h.content.CountByVisibility(ctx)
	if err != nil {
		h.log.WithError(err).Warn("failed to count content", nil)
		content = map[domain.Visibility]int{}
	}
	subs, err := h.subscriptions.CountByStatus(ctx)
	if err != nil {
		h.log.WithError(err).Warn("failed to count subscriptions", nil)
		subs = map[domain.SubscriptionStatus]int{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"users":         users,
		"content":       content,
		"subscriptions": subs,
	})
}
