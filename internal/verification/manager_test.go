package verification

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"fleetdesk/internal/notify"
	"fleetdesk/internal/ratelimit"
	"fleetdesk/internal/user"
)

type recordingSender struct {
	sent []notify.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg notify.Message) error {
	s.sent = append(s.sent, msg)
	return s.err
}

func newTestManager(t *testing.T) (*Manager, sqlmock.Sqlmock, *recordingSender, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	sender := &recordingSender{}
	users := user.NewManager(user.NewDatastore(db))
	m := NewManager(NewDatastore(db), users, sender, "https://fleet.example")
	return m, mock, sender, func() { db.Close() }
}

func testUser(id uuid.UUID) *user.User {
	return &user.User{
		ID:       id,
		Username: "driver@fleet.example",
		FullName: "Test Driver",
		Role:     user.RoleDriver,
		IsActive: true,
	}
}

func userRows(id uuid.UUID, verified bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "username", "password", "full_name", "role",
		"is_active", "must_change_password", "email_verified",
		"last_login_at", "created_at",
	}).AddRow(id, "driver@fleet.example", "$2a$10$hash", "Test Driver",
		user.RoleDriver, true, false, verified, nil, time.Now())
}

func tokenRows(id, userID uuid.UUID, token string, expiresAt time.Time, verifiedAt any) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "token", "expires_at", "verified_at", "created_at"}).
		AddRow(id, userID, token, expiresAt, verifiedAt, time.Now())
}

func TestManager_Issue(t *testing.T) {
	m, mock, sender, done := newTestManager(t)
	defer done()

	userID := uuid.New()
	u := testUser(userID)

	mock.ExpectExec(`DELETE FROM email_verification_tokens`).
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO email_verification_tokens`).
		WithArgs(sqlmock.AnyArg(), userID, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	if err := m.Issue(context.Background(), u); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.Workflow != notify.WorkflowVerifyEmail {
		t.Errorf("unexpected workflow %q", msg.Workflow)
	}
	if msg.Email != u.Username {
		t.Errorf("unexpected recipient %q", msg.Email)
	}
	if msg.TransactionID == "" {
		t.Error("expected a transaction id")
	}

	link, _ := msg.Payload["verificationUrl"].(string)
	if !strings.HasPrefix(link, "https://fleet.example/verify-email?token=") {
		t.Fatalf("unexpected verification url %q", link)
	}
	raw := strings.TrimPrefix(link, "https://fleet.example/verify-email?token=")
	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		t.Fatalf("token is not URL-safe base64: %v", err)
	}
	if len(decoded) != 32 {
		t.Errorf("expected a 32-byte token, got %d bytes", len(decoded))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestManager_Issue_SendFailureDoesNotFail(t *testing.T) {
	m, mock, sender, done := newTestManager(t)
	defer done()
	sender.err = errors.New("provider down")

	userID := uuid.New()
	mock.ExpectExec(`DELETE FROM email_verification_tokens`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`INSERT INTO email_verification_tokens`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	if err := m.Issue(context.Background(), testUser(userID)); err != nil {
		t.Fatalf("a delivery failure must not fail token issuance: %v", err)
	}
}

func TestManager_Consume(t *testing.T) {
	m, mock, _, done := newTestManager(t)
	defer done()

	userID := uuid.New()
	tokenID := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM email_verification_tokens WHERE token`).
		WithArgs("good-token").
		WillReturnRows(tokenRows(tokenID, userID, "good-token", time.Now().Add(time.Hour), nil))
	mock.ExpectExec(`UPDATE email_verification_tokens`).
		WithArgs(tokenID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users SET email_verified`).
		WithArgs(userID, true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := m.Consume(context.Background(), "good-token"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestManager_Consume_Invalid(t *testing.T) {
	userID := uuid.New()

	cases := []struct {
		name  string
		setup func(mock sqlmock.Sqlmock)
	}{
		{
			name: "unknown token",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM email_verification_tokens WHERE token`).
					WillReturnError(sql.ErrNoRows)
			},
		},
		{
			name: "expired token",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM email_verification_tokens WHERE token`).
					WillReturnRows(tokenRows(uuid.New(), userID, "t", time.Now().Add(-time.Minute), nil))
			},
		},
		{
			name: "already consumed",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM email_verification_tokens WHERE token`).
					WillReturnRows(tokenRows(uuid.New(), userID, "t", time.Now().Add(time.Hour), time.Now()))
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, mock, _, done := newTestManager(t)
			defer done()
			tc.setup(mock)

			err := m.Consume(context.Background(), "t")
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestManager_Resend(t *testing.T) {
	m, mock, sender, done := newTestManager(t)
	defer done()

	userID := uuid.New()
	mock.ExpectQuery(`SELECT .+ FROM users WHERE username`).
		WithArgs("driver@fleet.example").
		WillReturnRows(userRows(userID, false))
	mock.ExpectExec(`DELETE FROM email_verification_tokens`).
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO email_verification_tokens`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	if err := m.Resend(context.Background(), "driver@fleet.example"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Errorf("expected 1 message, got %d", len(sender.sent))
	}
}

func TestManager_Resend_AlreadyVerified(t *testing.T) {
	m, mock, _, done := newTestManager(t)
	defer done()

	mock.ExpectQuery(`SELECT .+ FROM users WHERE username`).
		WillReturnRows(userRows(uuid.New(), true))

	err := m.Resend(context.Background(), "driver@fleet.example")
	if !errors.Is(err, ErrAlreadyVerified) {
		t.Errorf("expected ErrAlreadyVerified, got %v", err)
	}
}

func TestManager_Resend_UnknownUser(t *testing.T) {
	m, mock, _, done := newTestManager(t)
	defer done()

	mock.ExpectQuery(`SELECT .+ FROM users WHERE username`).
		WillReturnError(sql.ErrNoRows)

	err := m.Resend(context.Background(), "nobody@fleet.example")
	if !errors.Is(err, user.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestManager_Resend_Limit(t *testing.T) {
	m, mock, _, done := newTestManager(t)
	defer done()
	m.WithResendLimiter(ratelimit.NewMemoryLimiter(1, time.Hour))

	userID := uuid.New()
	mock.ExpectQuery(`SELECT .+ FROM users WHERE username`).
		WillReturnRows(userRows(userID, false))
	mock.ExpectExec(`DELETE FROM email_verification_tokens`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO email_verification_tokens`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	if err := m.Resend(context.Background(), "driver@fleet.example"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectQuery(`SELECT .+ FROM users WHERE username`).
		WillReturnRows(userRows(userID, false))

	err := m.Resend(context.Background(), "driver@fleet.example")
	if !errors.Is(err, ErrResendLimit) {
		t.Errorf("expected ErrResendLimit, got %v", err)
	}
}
