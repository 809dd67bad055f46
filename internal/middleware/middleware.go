// Package middleware guards routes behind session, bearer-token, and
// role checks, and throttles login attempts.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"fleetdesk/internal/jwtauth"
	"fleetdesk/internal/ratelimit"
	"fleetdesk/internal/session"
	"fleetdesk/internal/user"
)

type ctxKey int

const principalKey ctxKey = 0

// AuthSource records which credential authenticated the request.
type AuthSource string

const (
	SourceSession AuthSource = "session"
	SourceBearer  AuthSource = "bearer"
)

// Principal is the authenticated caller attached to the request
// context. The user record is re-loaded on every request, so a
// deactivated account loses access immediately.
type Principal struct {
	User   *user.User
	Source AuthSource
}

// Auth builds the route guards.
type Auth struct {
	sessions *session.Manager
	tokens   *jwtauth.Service
	users    *user.Manager
}

// NewAuth creates the auth middleware set.
func NewAuth(sessions *session.Manager, tokens *jwtauth.Service, users *user.Manager) *Auth {
	return &Auth{sessions: sessions, tokens: tokens, users: users}
}

// PrincipalFrom returns the authenticated caller, if any.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok
}

// UserFrom returns the authenticated user, if any.
func UserFrom(ctx context.Context) (*user.User, bool) {
	p, ok := PrincipalFrom(ctx)
	if !ok {
		return nil, false
	}
	return p.User, true
}

// RequireSession admits only requests carrying a valid session cookie.
// Bearer tokens are not accepted on these routes.
func (a *Auth) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, errMsg := a.resolveSession(r)
		if p == nil {
			writeError(w, http.StatusUnauthorized, errMsg)
			return
		}
		next(w, r.WithContext(WithPrincipal(r.Context(), p)))
	}
}

// RequireAuth admits requests authenticated by either credential. A
// present Authorization header is authoritative: if the bearer token
// fails, the request is rejected without falling back to the cookie.
func (a *Auth) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			p      *Principal
			errMsg string
		)
		if _, ok := bearerToken(r); ok {
			p, errMsg = a.resolveBearer(r)
		} else {
			p, errMsg = a.resolveSession(r)
		}
		if p == nil {
			writeError(w, http.StatusUnauthorized, errMsg)
			return
		}
		next(w, r.WithContext(WithPrincipal(r.Context(), p)))
	}
}

// RequireAdmin admits only session-authenticated admins. Authenticated
// non-admins get 403, everyone else 401.
func (a *Auth) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return a.RequireSession(func(w http.ResponseWriter, r *http.Request) {
		p, _ := PrincipalFrom(r.Context())
		if p.User.Role != user.RoleAdmin {
			writeError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next(w, r)
	})
}

// resolveSession authenticates via the session cookie. A nil principal
// comes with the 401 message to send.
func (a *Auth) resolveSession(r *http.Request) (*Principal, string) {
	token, ok := session.ReadCookie(r)
	if !ok {
		return nil, "Authentication required"
	}

	u, err := a.sessions.Resolve(r.Context(), token)
	if err != nil {
		if !errors.Is(err, session.ErrNoSession) {
			log.Printf("session resolution failed: %v", err)
		}
		return nil, "Authentication required"
	}

	return &Principal{User: u, Source: SourceSession}, ""
}

// resolveBearer authenticates via the Authorization header. Each token
// failure mode gets its own 401 message; the holder has already proven
// identity once, so specificity leaks nothing.
func (a *Auth) resolveBearer(r *http.Request) (*Principal, string) {
	raw, _ := bearerToken(r)

	claims, err := a.tokens.Verify(r.Context(), raw)
	if err != nil {
		switch {
		case errors.Is(err, jwtauth.ErrTokenExpired):
			return nil, "Token expired"
		case errors.Is(err, jwtauth.ErrTokenRevoked):
			return nil, "Token has been revoked"
		default:
			if !errors.Is(err, jwtauth.ErrTokenInvalid) {
				log.Printf("token verification failed: %v", err)
			}
			return nil, "Invalid token"
		}
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, "Invalid token"
	}
	u, err := a.users.GetActiveByID(r.Context(), id)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			log.Printf("failed to load token user: %v", err)
		}
		return nil, "Invalid token"
	}

	return &Principal{User: u, Source: SourceBearer}, ""
}

// WithPrincipal attaches a principal to a context. Guards use it after
// authentication; handler tests use it to simulate an authenticated
// request.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// bearerToken extracts the token from an Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// LoginRateLimit throttles a handler per client IP. The limiter fails
// open: a limiter backend error logs and lets the request through.
func LoginRateLimit(limiter ratelimit.Limiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok, err := limiter.Allow(r.Context(), clientIP(r))
		if err != nil {
			log.Printf("rate limiter unavailable, allowing request: %v", err)
		} else if !ok {
			writeError(w, http.StatusTooManyRequests, "Too many login attempts, please try again later")
			return
		}
		next(w, r)
	}
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the
// connection's remote address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if ip, _, ok := strings.Cut(fwd, ","); ok {
			return strings.TrimSpace(ip)
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
