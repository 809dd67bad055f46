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

// VerifyHandler handles email verification.
type VerifyHandler struct {
	verifications *verification.Manager
}

// NewVerifyHandler creates a verification handler.
func NewVerifyHandler(verifications *verification.Manager) *VerifyHandler {
	return &VerifyHandler{verifications: verifications}
}

// Verify handles GET and POST /api/auth/verify-email. GET takes the
// token from the query string (emailed links), POST from the body.
func (h *VerifyHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var token string
	if r.Method == http.MethodGet {
		token = r.URL.Query().Get("token")
	} else {
		var req struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		token = req.Token
	}
	if token == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Verification token is required",
		})
		return
	}

	if err := h.verifications.Consume(r.Context(), token); err != nil {
		if errors.Is(err, verification.ErrInvalidToken) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"success": false,
				"message": "Verification token is invalid or expired",
			})
			return
		}
		log.Printf("failed to verify email: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to verify email")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Email verified successfully",
	})
}

// Resend handles POST /api/auth/resend-verification-email for the
// logged-in user.
func (h *VerifyHandler) Resend(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFrom(r.Context())

	if err := h.verifications.Resend(r.Context(), u.Username); err != nil {
		switch {
		case errors.Is(err, verification.ErrAlreadyVerified):
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"success": false,
				"message": "Email is already verified",
			})
		case errors.Is(err, verification.ErrResendLimit):
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"success": false,
				"message": "Too many verification emails requested, please try again later",
			})
		case errors.Is(err, user.ErrNotFound):
			writeError(w, http.StatusNotFound, "user not found")
		default:
			log.Printf("failed to resend verification email: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to resend verification email")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Verification email sent",
	})
}
