package handler

import (
	"net/http"

	"github.com/fanvault/backend/internal/domain"
	"github.com/fanvault/backend/internal/logger"
	"github.com/fanvault/backend/internal/service"
	"github.com/go-chi/chi/v5"
)

// UserHandler handles user management endpoints (admin only). Admins use
// it to onboard artists and remove abusive accounts.
type UserHandler struct {
	responder
	auth *service.AuthService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(auth *service.AuthService, log logger.Logger) *UserHandler {
	return &UserHandler{responder: newResponder(log), auth: auth}
}

// List handles GET /api/users?role=.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")
	switch role {
	case "", domain.RoleFan, domain.RoleArtist, domain.RoleAdmin:
	default:
		h.writeError(w, domain.ErrBadRequest("unknown role"))
		return
	}

	users, err := h.auth.ListUsers(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if role != "" {
		filtered := make([]*domain.UserResponse, 0, len(users))
		for _, u := range users {
			if u.Role == role {
				filtered = append(filtered, u)
			}
		}
		users = filtered
	}
	h.writeJSON(w, http.StatusOK, users)
}

// Create handles POST /api/users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if err := DecodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	user, err := h.auth.CreateUser(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, user)
}

// Delete handles DELETE /api/users/{id}.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.auth.DeleteUser(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
