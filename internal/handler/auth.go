package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"fleetdesk/internal/jwtauth"
	"fleetdesk/internal/middleware"
	"fleetdesk/internal/session"
	"fleetdesk/internal/user"
)

// AuthHandler handles login, logout, and the self-service account
// endpoints for both the web console and mobile clients.
type AuthHandler struct {
	users    *user.Manager
	sessions *session.Manager
	tokens   *jwtauth.Service
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(users *user.Manager, sessions *session.Manager, tokens *jwtauth.Service) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions, tokens: tokens}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /api/login. Success sets the session cookie and
// returns the safe projection; every failure is the same generic 401.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	u, err := h.users.Authenticate(r.Context(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		log.Printf("login failed: %v", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	token, err := h.sessions.Create(r.Context(), u.ID)
	if err != nil {
		log.Printf("failed to create session: %v", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	h.sessions.SetCookie(w, token)
	writeJSON(w, http.StatusOK, u.ToSafeUser())
}

// Logout handles POST /api/logout. Succeeds whether or not a session
// existed.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token, ok := session.ReadCookie(r); ok {
		if err := h.sessions.Destroy(r.Context(), token); err != nil {
			log.Printf("failed to destroy session: %v", err)
		}
	}
	h.sessions.ClearCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// CurrentUser handles GET /api/user.
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFrom(r.Context())
	writeJSON(w, http.StatusOK, u.ToSafeUser())
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePassword handles POST /api/change-password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	u, _ := middleware.UserFrom(r.Context())
	if err := h.users.ChangePassword(r.Context(), u.ID, req.CurrentPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, user.ErrWrongPassword):
			writeError(w, http.StatusBadRequest, "Current password is incorrect")
		case errors.Is(err, user.ErrWeakPassword):
			writeError(w, http.StatusBadRequest, "Password must be between 8 and 100 characters")
		default:
			log.Printf("failed to change password: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to change password")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}

type mobileLoginResponse struct {
	Token string         `json:"token"`
	User  *user.SafeUser `json:"user"`
}

// LoginMobile handles POST /api/auth/login-mobile. Returns a bearer
// token instead of a cookie; a missing signing secret is a server
// configuration error, not a credential failure.
func (h *AuthHandler) LoginMobile(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	u, err := h.users.Authenticate(r.Context(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		log.Printf("mobile login failed: %v", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	token, err := h.tokens.Issue(u.ID.String(), u.Username, u.Role)
	if err != nil {
		log.Printf("failed to issue token: %v", err)
		writeError(w, http.StatusInternalServerError, "token signing is not configured")
		return
	}

	writeJSON(w, http.StatusOK, mobileLoginResponse{Token: token, User: u.ToSafeUser()})
}

// LogoutMobile handles POST /api/auth/logout-mobile. The token to
// revoke must ride in the Authorization header.
func (h *AuthHandler) LogoutMobile(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		writeError(w, http.StatusBadRequest, "Token is required")
		return
	}

	if err := h.tokens.Revoke(r.Context(), raw); err != nil {
		log.Printf("failed to revoke token: %v", err)
		writeError(w, http.StatusInternalServerError, "logout failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}
