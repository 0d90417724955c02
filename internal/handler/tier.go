package handler

import (
	"net/http"

	"github.com/fanvault/backend/internal/contextkeys"
	"github.com/fanvault/backend/internal/domain"
	"github.com/fanvault/backend/internal/logger"
	"github.com/fanvault/backend/internal/service"
	"github.com/go-chi/chi/v5"
)

// TierHandler handles tier management endpoints.
type TierHandler struct {
	responder
	tiers *service.TierService
}

// NewTierHandler creates a new TierHandler.
func NewTierHandler(tiers *service.TierService, log logger.Logger) *TierHandler {
	return &TierHandler{responder: newResponder(log), tiers: tiers}
}

// ListByArtist handles GET /api/artists/{artistId}/tiers. The artist also
// sees inactive tiers.
func (h *TierHandler) ListByArtist(w http.ResponseWriter, r *http.Request) {
	tiers, err := h.tiers.ListByArtist(r.Context(), contextkeys.UserIDFrom(r.Context()), chi.URLParam(r, "artistId"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, tiers)
}

// Create handles POST /api/tiers.
func (h *TierHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateTierRequest
	if err := DecodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	tier, err := h.tiers.Create(r.Context(), contextkeys.UserIDFrom(r.Context()), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, tier)
}

// Update handles PUT /api/tiers/{id}.
func (h *TierHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateTierRequest
	if err := DecodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	tier, err := h.tiers.Update(r.Context(), contextkeys.UserIDFrom(r.Context()), chi.URLParam(r, "id"), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, tier)
}

// Activate handles POST /api/tiers/{id}/activate.
func (h *TierHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

// Deactivate handles POST /api/tiers/{id}/deactivate. Subscribers of an
// inactive tier lose access immediately.
func (h *TierHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *TierHandler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	tier, err := h.tiers.SetActive(r.Context(), contextkeys.UserIDFrom(r.Context()), chi.URLParam(r, "id"), active)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, tier)
}
