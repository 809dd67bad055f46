package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"

	"fleetdesk/internal/middleware"
	"fleetdesk/internal/notify"
	"fleetdesk/internal/user"
)

// AdminNotificationsHandler triggers ad-hoc notifications. Unlike the
// fire-and-forget sends elsewhere, provider failures surface here so
// the admin knows the delivery did not happen.
type AdminNotificationsHandler struct {
	users    *user.Manager
	notifier notify.Sender
}

// NewAdminNotificationsHandler creates an admin notifications handler.
func NewAdminNotificationsHandler(users *user.Manager, notifier notify.Sender) *AdminNotificationsHandler {
	return &AdminNotificationsHandler{users: users, notifier: notifier}
}

type sendWelcomeRequest struct {
	UserID string `json:"userId"`
}

// SendWelcome handles POST /api/admin/notifications/send-welcome.
func (h *AdminNotificationsHandler) SendWelcome(w http.ResponseWriter, r *http.Request) {
	var req sendWelcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	id, err := uuid.Parse(req.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	u, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		log.Printf("failed to load user: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	if !u.IsActive {
		writeError(w, http.StatusBadRequest, "cannot send welcome email to an inactive user")
		return
	}

	caller, _ := middleware.UserFrom(r.Context())
	msg := notify.Message{
		Workflow:    notify.WorkflowWelcome,
		RecipientID: u.ID.String(),
		Email:       u.Username,
		FullName:    u.FullName,
		Payload: map[string]any{
			"fullName":    u.FullName,
			"requestedBy": caller.Username,
		},
		TransactionID: uuid.NewString(),
	}
	if err := h.notifier.Send(r.Context(), msg); err != nil {
		log.Printf("failed to send welcome email to %s: %v", u.Username, err)
		writeError(w, http.StatusInternalServerError, "failed to send welcome email")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
