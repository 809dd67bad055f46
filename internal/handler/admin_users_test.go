package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"fleetdesk/internal/notify"
	"fleetdesk/internal/user"
	"fleetdesk/internal/verification"
)

func setupUsersTest(t *testing.T) (*AdminUsersHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	users := user.NewManager(user.NewDatastore(db))
	verifications := verification.NewManager(
		verification.NewDatastore(db), users, notify.LogSender{}, "https://fleet.example")
	return NewAdminUsersHandler(users, verifications), mock, func() { db.Close() }
}

func TestAdminUsersHandler_Create(t *testing.T) {
	h, mock, cleanup := setupUsersTest(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT .+ FROM users WHERE username`).
		WithArgs("alice@x.com").
		WillReturnError(errNoRows())
	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	// Creation also issues a verification token for the new account.
	mock.ExpectExec(`DELETE FROM email_verification_tokens`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`INSERT INTO email_verification_tokens`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	req := jsonRequest(t, http.MethodPost, "/api/admin/users",
		user.CreateParams{Email: "alice@x.com", FullName: "Alice Example"})
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(strings.ToLower(rec.Body.String()), `"password"`) {
		t.Error("response must not contain a password field")
	}

	var resp struct {
		user.SafeUser
		TempPassword string `json:"tempPassword"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.TempPassword) != 12 {
		t.Errorf("expected a 12-char temp password, got %q", resp.TempPassword)
	}
	if !resp.MustChangePassword {
		t.Error("new accounts must be created with mustChangePassword=true")
	}
	if resp.EmailVerified {
		t.Error("new accounts start unverified")
	}
	if resp.Role != user.RoleDriver {
		t.Errorf("expected default DRIVER role, got %q", resp.Role)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestAdminUsersHandler_Create_Duplicate(t *testing.T) {
	h, mock, cleanup := setupUsersTest(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT .+ FROM users WHERE username`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "username", "password", "full_name", "role",
			"is_active", "must_change_password", "email_verified",
			"last_login_at", "created_at",
		}).AddRow(uuid.New(), "alice@x.com", "hash", "Alice Example",
			user.RoleDriver, true, false, false, nil, time.Now()))

	req := jsonRequest(t, http.MethodPost, "/api/admin/users",
		user.CreateParams{Email: "alice@x.com", FullName: "Alice Example"})
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 for a duplicate email, got %d", rec.Code)
	}
}

func TestAdminUsersHandler_Create_InvalidInput(t *testing.T) {
	h, _, cleanup := setupUsersTest(t)
	defer cleanup()

	cases := []struct {
		name   string
		params user.CreateParams
	}{
		{"bad email", user.CreateParams{Email: "nope", FullName: "Alice Example"}},
		{"short name", user.CreateParams{Email: "alice@x.com", FullName: "A"}},
		{"bad role", user.CreateParams{Email: "alice@x.com", FullName: "Alice Example", Role: "WIZARD"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := jsonRequest(t, http.MethodPost, "/api/admin/users", tc.params)
			rec := httptest.NewRecorder()
			h.Create(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestAdminUsersHandler_ListPaginated(t *testing.T) {
	h, mock, cleanup := setupUsersTest(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(45))
	mock.ExpectQuery(`SELECT .+ FROM users ORDER BY created_at DESC LIMIT`).
		WithArgs(20, 20).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "username", "password", "full_name", "role",
			"is_active", "must_change_password", "email_verified",
			"last_login_at", "created_at",
		}).AddRow(uuid.New(), "a@x.com", "hash", "User A",
			user.RoleDriver, true, false, false, nil, time.Now()))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users/paginated?page=2", nil)
	rec := httptest.NewRecorder()
	h.ListPaginated(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.Contains(strings.ToLower(rec.Body.String()), `"password"`) {
		t.Error("paginated list must not contain password fields")
	}

	var resp struct {
		Data       []user.SafeUser `json:"data"`
		Pagination struct {
			Page       int `json:"page"`
			Total      int `json:"total"`
			TotalPages int `json:"totalPages"`
		} `json:"pagination"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Pagination.Total != 45 || resp.Pagination.TotalPages != 3 || resp.Pagination.Page != 2 {
		t.Errorf("unexpected pagination %+v", resp.Pagination)
	}
	if len(resp.Data) != 1 {
		t.Errorf("expected 1 user, got %d", len(resp.Data))
	}
}

func TestAdminUsersHandler_Update_SelfDeactivate(t *testing.T) {
	h, _, cleanup := setupUsersTest(t)
	defer cleanup()

	adminID := uuid.New()
	inactive := false

	req := jsonRequest(t, http.MethodPatch, "/api/admin/users/"+adminID.String(),
		user.UpdateParams{IsActive: &inactive})
	req.SetPathValue("id", adminID.String())
	req = asPrincipal(req, adminUser(adminID), "session")
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for self-deactivation, got %d", rec.Code)
	}
}

func TestAdminUsersHandler_ResetPassword(t *testing.T) {
	h, mock, cleanup := setupUsersTest(t)
	defer cleanup()

	targetID := uuid.New()
	mock.ExpectQuery(`SELECT .+ FROM users WHERE id`).
		WithArgs(targetID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "username", "password", "full_name", "role",
			"is_active", "must_change_password", "email_verified",
			"last_login_at", "created_at",
		}).AddRow(targetID, "bob@x.com", "old-hash", "Bob Example",
			user.RoleDriver, true, false, true, nil, time.Now()))
	mock.ExpectExec(`UPDATE users SET password`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest(http.MethodPost, "/api/admin/users/"+targetID.String()+"/reset-password", nil)
	req.SetPathValue("id", targetID.String())
	rec := httptest.NewRecorder()
	h.ResetPassword(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		UserID       uuid.UUID `json:"userId"`
		TempPassword string    `json:"tempPassword"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.UserID != targetID {
		t.Errorf("expected user id %s, got %s", targetID, resp.UserID)
	}
	if len(resp.TempPassword) != 12 {
		t.Errorf("expected a 12-char temp password, got %q", resp.TempPassword)
	}
}

func TestAdminUsersHandler_ResetPassword_NotFound(t *testing.T) {
	h, mock, cleanup := setupUsersTest(t)
	defer cleanup()

	targetID := uuid.New()
	mock.ExpectQuery(`SELECT .+ FROM users WHERE id`).
		WillReturnError(errNoRows())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/users/"+targetID.String()+"/reset-password", nil)
	req.SetPathValue("id", targetID.String())
	rec := httptest.NewRecorder()
	h.ResetPassword(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
