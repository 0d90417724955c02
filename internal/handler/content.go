package handler

import (
	"net/http"

	"github.com/fanvault/backend/internal/contextkeys"
	"github.com/fanvault/backend/internal/domain"
	"github.com/fanvault/backend/internal/logger"
	"github.com/fanvault/backend/internal/service"
	"github.com/go-chi/chi/v5"
)

// ContentHandler handles artist content management endpoints.
type ContentHandler struct {
	responder
	content *service.ContentService
}

// NewContentHandler creates a new ContentHandler.
func NewContentHandler(content *service.ContentService, log logger.Logger) *ContentHandler {
	return &ContentHandler{responder: newResponder(log), content: content}
}

// Create handles POST /api/content.
func (h *ContentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateContentRequest
	if err := DecodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	c, err := h.content.Create(r.Context(), contextkeys.UserIDFrom(r.Context()), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, c)
}

// Update handles PATCH /api/content/{id}.
func (h *ContentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateContentRequest
	if err := DecodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	c, err := h.content.Update(r.Context(), contextkeys.UserIDFrom(r.Context()), chi.URLParam(r, "id"), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, c)
}

// Delete handles DELETE /api/content/{id}.
func (h *ContentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.content.Delete(r.Context(), contextkeys.UserIDFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
