package org

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func newTestManager(t *testing.T) (*Manager, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	return NewManager(NewDatastore(db)), mock, func() { db.Close() }
}

func orgRows(id uuid.UUID, orgType, nameEn string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name_en", "name_ar", "type", "tax_id", "registration_number",
		"address", "city", "country", "phone", "email", "is_active", "notes",
		"created_at", "updated_at",
	}).AddRow(id, nameEn, "شريك", orgType, nil, nil,
		nil, "Riyadh", "SA", nil, nil, true, nil, time.Now(), time.Now())
}

func strptr(s string) *string { return &s }

func TestManager_Company_NoneYet(t *testing.T) {
	m, mock, done := newTestManager(t)
	defer done()

	mock.ExpectQuery(`SELECT .+ FROM organizations WHERE type`).
		WithArgs(TypeCompany).
		WillReturnError(sql.ErrNoRows)

	o, err := m.Company(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o != nil {
		t.Error("expected nil company before setup")
	}
}

func TestManager_CreateCompany(t *testing.T) {
	m, mock, done := newTestManager(t)
	defer done()

	mock.ExpectQuery(`SELECT .+ FROM organizations WHERE type`).
		WithArgs(TypeCompany).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`INSERT INTO organizations`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).
			AddRow(time.Now(), time.Now()))

	o, err := m.CreateCompany(context.Background(), CreateParams{
		NameEn: "Fleet Logistics",
		NameAr: "فليت للخدمات اللوجستية",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Type != TypeCompany {
		t.Errorf("expected COMPANY type, got %q", o.Type)
	}
	if !o.IsActive {
		t.Error("new organizations start active")
	}
}

func TestManager_CreateCompany_Singleton(t *testing.T) {
	m, mock, done := newTestManager(t)
	defer done()

	mock.ExpectQuery(`SELECT .+ FROM organizations WHERE type`).
		WithArgs(TypeCompany).
		WillReturnRows(orgRows(uuid.New(), TypeCompany, "Existing Co"))

	_, err := m.CreateCompany(context.Background(), CreateParams{
		NameEn: "Another Co",
		NameAr: "شركة أخرى",
	})
	if !errors.Is(err, ErrCompanyExists) {
		t.Errorf("expected ErrCompanyExists, got %v", err)
	}
}

func TestManager_CreateCompany_Invalid(t *testing.T) {
	m, _, done := newTestManager(t)
	defer done()

	cases := []struct {
		name   string
		params CreateParams
		want   error
	}{
		{"missing english name", CreateParams{NameAr: "اسم"}, ErrInvalidName},
		{"missing arabic name", CreateParams{NameEn: "Name"}, ErrInvalidName},
		{"bad email", CreateParams{NameEn: "N", NameAr: "ن", Email: strptr("nope")}, ErrInvalidEmail},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := m.CreateCompany(context.Background(), tc.params); !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestManager_PartnersPage(t *testing.T) {
	m, mock, done := newTestManager(t)
	defer done()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM organizations WHERE type`).
		WithArgs(TypePartner).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))
	mock.ExpectQuery(`SELECT .+ FROM organizations WHERE type = \$1 ORDER BY city DESC LIMIT`).
		WithArgs(TypePartner, 20, 20).
		WillReturnRows(orgRows(uuid.New(), TypePartner, "Partner A"))

	orgs, total, err := m.PartnersPage(context.Background(), 20, 20, "city", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 42 {
		t.Errorf("expected total 42, got %d", total)
	}
	if len(orgs) != 1 {
		t.Errorf("expected 1 partner, got %d", len(orgs))
	}
}

func TestManager_PartnersPage_UnknownSortFallsBack(t *testing.T) {
	m, mock, done := newTestManager(t)
	defer done()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM organizations WHERE type`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	// An unvetted sort key must not reach the query text.
	mock.ExpectQuery(`ORDER BY name_en ASC LIMIT`).
		WithArgs(TypePartner, 20, 0).
		WillReturnRows(orgRows(uuid.New(), TypePartner, "Partner A"))

	if _, _, err := m.PartnersPage(context.Background(), 20, 0, "id; DROP TABLE users", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestManager_Partner_CompanyNotReachable(t *testing.T) {
	m, mock, done := newTestManager(t)
	defer done()

	companyID := uuid.New()
	mock.ExpectQuery(`SELECT .+ FROM organizations WHERE id`).
		WithArgs(companyID).
		WillReturnRows(orgRows(companyID, TypeCompany, "Fleet Logistics"))

	_, err := m.Partner(context.Background(), companyID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for a company id, got %v", err)
	}
}

func TestManager_UpdatePartner(t *testing.T) {
	m, mock, done := newTestManager(t)
	defer done()

	id := uuid.New()
	mock.ExpectQuery(`SELECT .+ FROM organizations WHERE id`).
		WithArgs(id).
		WillReturnRows(orgRows(id, TypePartner, "Old Name"))
	mock.ExpectExec(`UPDATE organizations SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT .+ FROM organizations WHERE id`).
		WithArgs(id).
		WillReturnRows(orgRows(id, TypePartner, "New Name"))

	o, err := m.UpdatePartner(context.Background(), id, UpdateParams{NameEn: strptr("New Name")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.NameEn != "New Name" {
		t.Errorf("expected updated name, got %q", o.NameEn)
	}
}

func TestManager_UpdatePartner_Empty(t *testing.T) {
	m, mock, done := newTestManager(t)
	defer done()

	id := uuid.New()
	mock.ExpectQuery(`SELECT .+ FROM organizations WHERE id`).
		WithArgs(id).
		WillReturnRows(orgRows(id, TypePartner, "Partner"))

	_, err := m.UpdatePartner(context.Background(), id, UpdateParams{})
	if !errors.Is(err, ErrEmptyUpdate) {
		t.Errorf("expected ErrEmptyUpdate, got %v", err)
	}
}

func TestManager_DeletePartner(t *testing.T) {
	m, mock, done := newTestManager(t)
	defer done()

	id := uuid.New()
	mock.ExpectQuery(`SELECT .+ FROM organizations WHERE id`).
		WithArgs(id).
		WillReturnRows(orgRows(id, TypePartner, "Doomed Partner"))
	mock.ExpectExec(`DELETE FROM organizations WHERE id`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := m.DeletePartner(context.Background(), id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestManager_DeletePartner_NotFound(t *testing.T) {
	m, mock, done := newTestManager(t)
	defer done()

	id := uuid.New()
	mock.ExpectQuery(`SELECT .+ FROM organizations WHERE id`).
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	err := m.DeletePartner(context.Background(), id)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
