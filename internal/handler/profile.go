package handler

import (
	"net/http"

	"fleetdesk/internal/middleware"
)

// ProfileHandler serves the authenticated user's own profile to any
// client, cookie or bearer.
type ProfileHandler struct{}

// NewProfileHandler creates a profile handler.
func NewProfileHandler() *ProfileHandler {
	return &ProfileHandler{}
}

// Get handles GET /api/driver/profile.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFrom(r.Context())
	writeJSON(w, http.StatusOK, u.ToSafeUser())
}
