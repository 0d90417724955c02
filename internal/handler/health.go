package handler

import (
	"context"
	"net/http"

	"github.com/fanvault/backend/internal/logger"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping calls f.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler handles the health check endpoint.
type HealthHandler struct {
	responder
	db    Pinger
	redis Pinger
}

// NewHealthHandler creates a new HealthHandler. redis may be nil when token
// revocation is disabled.
func NewHealthHandler(db, redis Pinger, log logger.Logger) *HealthHandler {
	return &HealthHandler{responder: newResponder(log), db: db, redis: redis}
}

// Check handles GET /health.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]interface{}{
		"status": "ok",
	}

	if err := h.db.Ping(ctx); err != nil {
		status["database"] = "error"
		status["status"] = "degraded"
	} else {
		status["database"] = "ok"
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			status["redis"] = "error"
			status["status"] = "degraded"
		} else {
			status["redis"] = "ok"
		}
	}

	code := http.StatusOK
	if status["status"] == "degraded" {
		code = http.StatusServiceUnavailable
	}

	h.writeJSON(w, code, status)
}
