package handler

import (
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"fleetdesk/internal/middleware"
	"fleetdesk/internal/user"
)

func errNoRows() error {
	return sql.ErrNoRows
}

// asPrincipal attaches an authenticated user to the request, standing
// in for the auth middleware.
func asPrincipal(req *http.Request, u *user.User, source middleware.AuthSource) *http.Request {
	ctx := middleware.WithPrincipal(req.Context(), &middleware.Principal{User: u, Source: source})
	return req.WithContext(ctx)
}

func adminUser(id uuid.UUID) *user.User {
	return &user.User{
		ID:            id,
		Username:      "admin@logistics.com",
		FullName:      "System Admin",
		Role:          user.RoleAdmin,
		IsActive:      true,
		EmailVerified: true,
		CreatedAt:     time.Now(),
	}
}

func TestParsePageParams(t *testing.T) {
	cases := []struct {
		name      string
		query     string
		wantPage  int
		wantLimit int
		wantDesc  bool
	}{
		{"defaults", "", 1, 20, false},
		{"explicit", "?page=3&limit=50&sortOrder=desc", 3, 50, true},
		{"limit capped", "?limit=500", 1, 100, false},
		{"garbage clamped", "?page=-2&limit=zero", 1, 20, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "/x"+tc.query, nil)
			p := parsePageParams(req)
			if p.page != tc.wantPage || p.limit != tc.wantLimit || p.desc != tc.wantDesc {
				t.Errorf("got page=%d limit=%d desc=%v", p.page, p.limit, p.desc)
			}
		})
	}
}

func TestPageResponse(t *testing.T) {
	p := pageParams{page: 2, limit: 20}
	resp := pageResponse([]string{"a"}, p, 45)

	pagination := resp["pagination"].(map[string]int)
	if pagination["totalPages"] != 3 {
		t.Errorf("expected 3 total pages for 45/20, got %d", pagination["totalPages"])
	}
	if pagination["total"] != 45 || pagination["page"] != 2 || pagination["limit"] != 20 {
		t.Errorf("unexpected pagination %v", pagination)
	}
}
