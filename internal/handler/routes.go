// Package handler exposes the HTTP API.
package handler

import (
	"net/http"

	"fleetdesk/internal/contact"
	"fleetdesk/internal/database"
	"fleetdesk/internal/jwtauth"
	"fleetdesk/internal/middleware"
	"fleetdesk/internal/notify"
	"fleetdesk/internal/org"
	"fleetdesk/internal/ratelimit"
	"fleetdesk/internal/session"
	"fleetdesk/internal/user"
	"fleetdesk/internal/verification"
)

// Deps carries the wired services the handlers depend on.
type Deps struct {
	DB            *database.DB
	Users         *user.Manager
	Sessions      *session.Manager
	Tokens        *jwtauth.Service
	Verifications *verification.Manager
	Orgs          *org.Manager
	Contacts      *contact.Manager
	Notifier      notify.Sender
	Auth          *middleware.Auth
	LoginLimiter  ratelimit.Limiter
}

// RegisterRoutes registers all HTTP routes with the provided mux.
func RegisterRoutes(mux *http.ServeMux, deps Deps) {
	mux.HandleFunc("GET /health", NewHealthHandler(deps.DB))

	authH := NewAuthHandler(deps.Users, deps.Sessions, deps.Tokens)
	mux.HandleFunc("POST /api/login", middleware.LoginRateLimit(deps.LoginLimiter, authH.Login))
	mux.HandleFunc("POST /api/logout", authH.Logout)
	mux.HandleFunc("GET /api/user", deps.Auth.RequireSession(authH.CurrentUser))
	mux.HandleFunc("POST /api/change-password", deps.Auth.RequireSession(authH.ChangePassword))
	mux.HandleFunc("POST /api/auth/login-mobile", middleware.LoginRateLimit(deps.LoginLimiter, authH.LoginMobile))
	mux.HandleFunc("POST /api/auth/logout-mobile", authH.LogoutMobile)

	verifyH := NewVerifyHandler(deps.Verifications)
	mux.HandleFunc("GET /api/auth/verify-email", verifyH.Verify)
	mux.HandleFunc("POST /api/auth/verify-email", verifyH.Verify)
	mux.HandleFunc("POST /api/auth/resend-verification-email", deps.Auth.RequireSession(verifyH.Resend))

	profileH := NewProfileHandler()
	mux.HandleFunc("GET /api/driver/profile", deps.Auth.RequireAuth(profileH.Get))

	usersH := NewAdminUsersHandler(deps.Users, deps.Verifications)
	mux.HandleFunc("GET /api/admin/users", deps.Auth.RequireAdmin(usersH.List))
	mux.HandleFunc("GET /api/admin/users/paginated", deps.Auth.RequireAdmin(usersH.ListPaginated))
	mux.HandleFunc("POST /api/admin/users", deps.Auth.RequireAdmin(usersH.Create))
	mux.HandleFunc("PATCH /api/admin/users/{id}", deps.Auth.RequireAdmin(usersH.Update))
	mux.HandleFunc("POST /api/admin/users/{id}/reset-password", deps.Auth.RequireAdmin(usersH.ResetPassword))

	companyH := NewAdminCompanyHandler(deps.Orgs)
	mux.HandleFunc("GET /api/admin/company", deps.Auth.RequireAdmin(companyH.Get))
	mux.HandleFunc("POST /api/admin/company", deps.Auth.RequireAdmin(companyH.Create))
	mux.HandleFunc("PATCH /api/admin/company", deps.Auth.RequireAdmin(companyH.Update))

	partnersH := NewAdminPartnersHandler(deps.Orgs)
	mux.HandleFunc("GET /api/admin/partners", deps.Auth.RequireAdmin(partnersH.List))
	mux.HandleFunc("GET /api/admin/partners/paginated", deps.Auth.RequireAdmin(partnersH.ListPaginated))
	mux.HandleFunc("GET /api/admin/partners/{id}", deps.Auth.RequireAdmin(partnersH.Get))
	mux.HandleFunc("POST /api/admin/partners", deps.Auth.RequireAdmin(partnersH.Create))
	mux.HandleFunc("PATCH /api/admin/partners/{id}", deps.Auth.RequireAdmin(partnersH.Update))
	mux.HandleFunc("PATCH /api/admin/partners/{id}/activate", deps.Auth.RequireAdmin(partnersH.Activate))
	mux.HandleFunc("PATCH /api/admin/partners/{id}/deactivate", deps.Auth.RequireAdmin(partnersH.Deactivate))
	mux.HandleFunc("DELETE /api/admin/partners/{id}", deps.Auth.RequireAdmin(partnersH.Delete))

	contactsH := NewAdminContactsHandler(deps.Contacts)
	mux.HandleFunc("GET /api/admin/contacts", deps.Auth.RequireAdmin(contactsH.ListPaginated))
	mux.HandleFunc("GET /api/admin/contacts/paginated", deps.Auth.RequireAdmin(contactsH.ListPaginated))
	mux.HandleFunc("GET /api/admin/contacts/{id}", deps.Auth.RequireAdmin(contactsH.Get))
	mux.HandleFunc("POST /api/admin/contacts", deps.Auth.RequireAdmin(contactsH.Create))
	mux.HandleFunc("PATCH /api/admin/contacts/{id}", deps.Auth.RequireAdmin(contactsH.Update))
	mux.HandleFunc("PATCH /api/admin/contacts/{id}/activate", deps.Auth.RequireAdmin(contactsH.Activate))
	mux.HandleFunc("PATCH /api/admin/contacts/{id}/deactivate", deps.Auth.RequireAdmin(contactsH.Deactivate))

	notificationsH := NewAdminNotificationsHandler(deps.Users, deps.Notifier)
	mux.HandleFunc("POST /api/admin/notifications/send-welcome", deps.Auth.RequireAdmin(notificationsH.SendWelcome))
}
