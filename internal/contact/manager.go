package contact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"fleetdesk/internal/org"
	"fleetdesk/internal/validation"
)

// Domain errors surfaced to handlers.
var (
	ErrNotFound     = errors.New("contact not found")
	ErrOrgNotFound  = errors.New("organization not found")
	ErrUserLinked   = errors.New("user account is already linked to another contact")
	ErrInvalidName  = errors.New("both English and Arabic names are required")
	ErrInvalidType  = errors.New("invalid contact type")
	ErrInvalidEmail = errors.New("invalid email address")
	ErrEmptyUpdate  = errors.New("no fields to update")
)

// uniqueViolation is the Postgres error code raised when the partial
// unique index on user_id rejects a duplicate link.
const uniqueViolation = "23505"

// sortColumns maps API sort keys to vetted column names. Keys outside
// this map fall back to the English name.
var sortColumns = map[string]string{
	"nameEn":    "c.name_en",
	"nameAr":    "c.name_ar",
	"createdAt": "c.created_at",
}

// Manager implements contact business logic.
type Manager struct {
	ds   *Datastore
	orgs *org.Manager
}

// NewManager creates a contact manager.
func NewManager(ds *Datastore, orgs *org.Manager) *Manager {
	return &Manager{ds: ds, orgs: orgs}
}

// CreateParams are the writable fields of a new contact.
type CreateParams struct {
	OrganizationID uuid.UUID  `json:"organizationId"`
	UserID         *uuid.UUID `json:"userId"`
	NameEn         string     `json:"nameEn"`
	NameAr         string     `json:"nameAr"`
	ContactType    string     `json:"contactType"`
	Mobile         *string    `json:"mobile"`
	Email          *string    `json:"email"`
	Nationality    *string    `json:"nationality"`
	Notes          *string    `json:"notes"`
}

// UpdateParams are the optional fields of a partial update.
type UpdateParams struct {
	UserID      *uuid.UUID `json:"userId"`
	NameEn      *string    `json:"nameEn"`
	NameAr      *string    `json:"nameAr"`
	ContactType *string    `json:"contactType"`
	Mobile      *string    `json:"mobile"`
	Email       *string    `json:"email"`
	Nationality *string    `json:"nationality"`
	Notes       *string    `json:"notes"`
	IsActive    *bool      `json:"isActive"`
}

// ListPage retrieves one filtered page of contacts plus the total
// matching count. sortBy accepts nameEn, nameAr, and createdAt;
// anything else sorts by nameEn.
func (m *Manager) ListPage(ctx context.Context, f Filter, limit, offset int, sortBy string, desc bool) ([]*Contact, int, error) {
	column, ok := sortColumns[sortBy]
	if !ok {
		column = "c.name_en"
	}

	total, err := m.ds.Count(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count contacts: %w", err)
	}
	contacts, err := m.ds.ListPage(ctx, f, limit, offset, column, desc)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list contacts: %w", err)
	}
	return contacts, total, nil
}

// Get retrieves a contact by ID.
func (m *Manager) Get(ctx context.Context, id uuid.UUID) (*Contact, error) {
	c, err := m.ds.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return c, nil
}

// Create adds a contact to an existing organization.
func (m *Manager) Create(ctx context.Context, params CreateParams) (*Contact, error) {
	if params.NameEn == "" || params.NameAr == "" {
		return nil, ErrInvalidName
	}
	if !ValidType(params.ContactType) {
		return nil, ErrInvalidType
	}
	if params.Email != nil && !validation.ValidEmail(*params.Email) {
		return nil, ErrInvalidEmail
	}

	if _, err := m.orgs.Partner(ctx, params.OrganizationID); err != nil {
		if errors.Is(err, org.ErrNotFound) {
			// Contacts may also belong to the company itself.
			if company, cerr := m.orgs.Company(ctx); cerr != nil {
				return nil, cerr
			} else if company == nil || company.ID != params.OrganizationID {
				return nil, ErrOrgNotFound
			}
		} else {
			return nil, err
		}
	}

	c := &Contact{
		OrganizationID: params.OrganizationID,
		UserID:         params.UserID,
		NameEn:         params.NameEn,
		NameAr:         params.NameAr,
		ContactType:    params.ContactType,
		Mobile:         params.Mobile,
		Email:          params.Email,
		Nationality:    params.Nationality,
		Notes:          params.Notes,
		IsActive:       true,
	}
	if err := m.ds.Create(ctx, c); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUserLinked
		}
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}
	return c, nil
}

// Update applies a partial update.
func (m *Manager) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*Contact, error) {
	if params.UserID == nil && params.NameEn == nil && params.NameAr == nil &&
		params.ContactType == nil && params.Mobile == nil && params.Email == nil &&
		params.Nationality == nil && params.Notes == nil && params.IsActive == nil {
		return nil, ErrEmptyUpdate
	}
	if params.NameEn != nil && *params.NameEn == "" {
		return nil, ErrInvalidName
	}
	if params.NameAr != nil && *params.NameAr == "" {
		return nil, ErrInvalidName
	}
	if params.ContactType != nil && !ValidType(*params.ContactType) {
		return nil, ErrInvalidType
	}
	if params.Email != nil && !validation.ValidEmail(*params.Email) {
		return nil, ErrInvalidEmail
	}

	affected, err := m.ds.Update(ctx, id, UpdateFields{
		UserID:      params.UserID,
		NameEn:      params.NameEn,
		NameAr:      params.NameAr,
		ContactType: params.ContactType,
		Mobile:      params.Mobile,
		Email:       params.Email,
		Nationality: params.Nationality,
		Notes:       params.Notes,
		IsActive:    params.IsActive,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUserLinked
		}
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	return m.Get(ctx, id)
}

// SetActive toggles a contact's active flag.
func (m *Manager) SetActive(ctx context.Context, id uuid.UUID, active bool) (*Contact, error) {
	return m.Update(ctx, id, UpdateParams{IsActive: &active})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
