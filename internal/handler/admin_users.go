package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"fleetdesk/internal/middleware"
	"fleetdesk/internal/user"
	"fleetdesk/internal/verification"
)

// AdminUsersHandler handles admin user management.
type AdminUsersHandler struct {
	users         *user.Manager
	verifications *verification.Manager
}

// NewAdminUsersHandler creates an admin users handler.
func NewAdminUsersHandler(users *user.Manager, verifications *verification.Manager) *AdminUsersHandler {
	return &AdminUsersHandler{users: users, verifications: verifications}
}

func toSafeUsers(users []*user.User) []*user.SafeUser {
	safe := make([]*user.SafeUser, len(users))
	for i, u := range users {
		safe[i] = u.ToSafeUser()
	}
	return safe
}

// List handles GET /api/admin/users.
func (h *AdminUsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		log.Printf("failed to list users: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, toSafeUsers(users))
}

// ListPaginated handles GET /api/admin/users/paginated.
func (h *AdminUsersHandler) ListPaginated(w http.ResponseWriter, r *http.Request) {
	p := parsePageParams(r)

	users, total, err := h.users.ListPage(r.Context(), p.limit, p.offset())
	if err != nil {
		log.Printf("failed to list users: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, pageResponse(toSafeUsers(users), p, total))
}

// createUserResponse carries the one-time temporary password alongside
// the safe projection.
type createUserResponse struct {
	*user.SafeUser
	TempPassword string `json:"tempPassword"`
}

// Create handles POST /api/admin/users.
func (h *AdminUsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var params user.CreateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	result, err := h.users.Create(r.Context(), params)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrEmailTaken):
			writeError(w, http.StatusConflict, "A user with this email already exists")
		case errors.Is(err, user.ErrInvalidEmail),
			errors.Is(err, user.ErrInvalidFullName),
			errors.Is(err, user.ErrInvalidRole):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			log.Printf("failed to create user: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to create user")
		}
		return
	}

	// Kick off email verification for the new account. Issue logs and
	// swallows provider failures; a storage failure only costs the
	// email, which the user can re-request.
	if err := h.verifications.Issue(r.Context(), result.User); err != nil {
		log.Printf("failed to issue verification token for %s: %v", result.User.Username, err)
	}

	writeJSON(w, http.StatusCreated, createUserResponse{
		SafeUser:     result.User.ToSafeUser(),
		TempPassword: result.TempPassword,
	})
}

// Update handles PATCH /api/admin/users/{id}.
func (h *AdminUsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	var params user.UpdateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	caller, _ := middleware.UserFrom(r.Context())
	updated, err := h.users.Update(r.Context(), id, params, caller.ID)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			writeError(w, http.StatusNotFound, "user not found")
		case errors.Is(err, user.ErrEmailTaken):
			writeError(w, http.StatusConflict, "A user with this email already exists")
		case errors.Is(err, user.ErrSelfDeactivate),
			errors.Is(err, user.ErrSelfEmailChange),
			errors.Is(err, user.ErrEmptyUpdate),
			errors.Is(err, user.ErrInvalidEmail),
			errors.Is(err, user.ErrInvalidFullName),
			errors.Is(err, user.ErrInvalidRole):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			log.Printf("failed to update user: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to update user")
		}
		return
	}

	writeJSON(w, http.StatusOK, updated.ToSafeUser())
}

// ResetPassword handles POST /api/admin/users/{id}/reset-password.
// The temporary password in the response is the only place it ever
// appears in plaintext.
func (h *AdminUsersHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	result, err := h.users.ResetPassword(r.Context(), id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		log.Printf("failed to reset password: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to reset password")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
