package org

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"fleetdesk/internal/validation"
)

// Domain errors surfaced to handlers.
var (
	ErrNotFound      = errors.New("organization not found")
	ErrCompanyExists = errors.New("company profile already exists")
	ErrInvalidName   = errors.New("both English and Arabic names are required")
	ErrInvalidEmail  = errors.New("invalid email address")
	ErrEmptyUpdate   = errors.New("no fields to update")
)

// partnerSortColumns maps API sort keys to vetted column names. Keys
// outside this map fall back to the English name.
var partnerSortColumns = map[string]string{
	"nameEn":  "name_en",
	"nameAr":  "name_ar",
	"city":    "city",
	"country": "country",
}

// Manager implements organization business logic.
type Manager struct {
	ds *Datastore
}

// NewManager creates an organization manager.
func NewManager(ds *Datastore) *Manager {
	return &Manager{ds: ds}
}

// CreateParams are the writable fields of a new organization.
type CreateParams struct {
	NameEn             string  `json:"nameEn"`
	NameAr             string  `json:"nameAr"`
	TaxID              *string `json:"taxId"`
	RegistrationNumber *string `json:"registrationNumber"`
	Address            *string `json:"address"`
	City               *string `json:"city"`
	Country            *string `json:"country"`
	Phone              *string `json:"phone"`
	Email              *string `json:"email"`
	Notes              *string `json:"notes"`
}

func (p CreateParams) validate() error {
	if p.NameEn == "" || p.NameAr == "" {
		return ErrInvalidName
	}
	if p.Email != nil && !validation.ValidEmail(*p.Email) {
		return ErrInvalidEmail
	}
	return nil
}

// UpdateParams are the optional fields of a partial update.
type UpdateParams struct {
	NameEn             *string `json:"nameEn"`
	NameAr             *string `json:"nameAr"`
	TaxID              *string `json:"taxId"`
	RegistrationNumber *string `json:"registrationNumber"`
	Address            *string `json:"address"`
	City               *string `json:"city"`
	Country            *string `json:"country"`
	Phone              *string `json:"phone"`
	Email              *string `json:"email"`
	Notes              *string `json:"notes"`
	IsActive           *bool   `json:"isActive"`
}

func (p UpdateParams) validate() error {
	if p.NameEn == nil && p.NameAr == nil && p.TaxID == nil && p.RegistrationNumber == nil &&
		p.Address == nil && p.City == nil && p.Country == nil && p.Phone == nil &&
		p.Email == nil && p.Notes == nil && p.IsActive == nil {
		return ErrEmptyUpdate
	}
	if p.NameEn != nil && *p.NameEn == "" {
		return ErrInvalidName
	}
	if p.NameAr != nil && *p.NameAr == "" {
		return ErrInvalidName
	}
	if p.Email != nil && !validation.ValidEmail(*p.Email) {
		return ErrInvalidEmail
	}
	return nil
}

func (p UpdateParams) fields() UpdateFields {
	return UpdateFields{
		NameEn:             p.NameEn,
		NameAr:             p.NameAr,
		TaxID:              p.TaxID,
		RegistrationNumber: p.RegistrationNumber,
		Address:            p.Address,
		City:               p.City,
		Country:            p.Country,
		Phone:              p.Phone,
		Email:              p.Email,
		Notes:              p.Notes,
		IsActive:           p.IsActive,
	}
}

// Company retrieves the company profile, or nil when none has been
// created yet.
func (m *Manager) Company(ctx context.Context) (*Organization, error) {
	o, err := m.ds.GetCompany(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return o, nil
}

// CreateCompany creates the singleton company profile.
func (m *Manager) CreateCompany(ctx context.Context, params CreateParams) (*Organization, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	existing, err := m.Company(ctx)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrCompanyExists
	}

	return m.create(ctx, TypeCompany, params)
}

// UpdateCompany applies a partial update to the company profile.
func (m *Manager) UpdateCompany(ctx context.Context, params UpdateParams) (*Organization, error) {
	o, err := m.Company(ctx)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrNotFound
	}
	return m.update(ctx, o.ID, params)
}

// Partners lists all partner organizations ordered by English name.
func (m *Manager) Partners(ctx context.Context) ([]*Organization, error) {
	orgs, err := m.ds.ListPartners(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list partners: %w", err)
	}
	return orgs, nil
}

// PartnersPage lists one page of partners. sortBy accepts nameEn,
// nameAr, city, and country; anything else sorts by nameEn.
func (m *Manager) PartnersPage(ctx context.Context, limit, offset int, sortBy string, desc bool) ([]*Organization, int, error) {
	column, ok := partnerSortColumns[sortBy]
	if !ok {
		column = "name_en"
	}

	total, err := m.ds.CountPartners(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count partners: %w", err)
	}
	orgs, err := m.ds.ListPartnersPage(ctx, limit, offset, column, desc)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list partners: %w", err)
	}
	return orgs, total, nil
}

// Partner retrieves a partner by ID. Company records are not reachable
// through this path.
func (m *Manager) Partner(ctx context.Context, id uuid.UUID) (*Organization, error) {
	o, err := m.ds.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get partner: %w", err)
	}
	if o.Type != TypePartner {
		return nil, ErrNotFound
	}
	return o, nil
}

// CreatePartner creates a partner organization.
func (m *Manager) CreatePartner(ctx context.Context, params CreateParams) (*Organization, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	return m.create(ctx, TypePartner, params)
}

// UpdatePartner applies a partial update to a partner.
func (m *Manager) UpdatePartner(ctx context.Context, id uuid.UUID, params UpdateParams) (*Organization, error) {
	if _, err := m.Partner(ctx, id); err != nil {
		return nil, err
	}
	return m.update(ctx, id, params)
}

// SetPartnerActive toggles a partner's active flag.
func (m *Manager) SetPartnerActive(ctx context.Context, id uuid.UUID, active bool) (*Organization, error) {
	if _, err := m.Partner(ctx, id); err != nil {
		return nil, err
	}
	return m.update(ctx, id, UpdateParams{IsActive: &active})
}

// DeletePartner removes a partner permanently, cascading its contacts.
func (m *Manager) DeletePartner(ctx context.Context, id uuid.UUID) error {
	if _, err := m.Partner(ctx, id); err != nil {
		return err
	}
	affected, err := m.ds.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete partner: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Manager) create(ctx context.Context, orgType string, params CreateParams) (*Organization, error) {
	o := &Organization{
		NameEn:             params.NameEn,
		NameAr:             params.NameAr,
		Type:               orgType,
		TaxID:              params.TaxID,
		RegistrationNumber: params.RegistrationNumber,
		Address:            params.Address,
		City:               params.City,
		Country:            params.Country,
		Phone:              params.Phone,
		Email:              params.Email,
		Notes:              params.Notes,
		IsActive:           true,
	}
	if err := m.ds.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}
	return o, nil
}

func (m *Manager) update(ctx context.Context, id uuid.UUID, params UpdateParams) (*Organization, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	affected, err := m.ds.Update(ctx, id, params.fields())
	if err != nil {
		return nil, fmt.Errorf("failed to update organization: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	o, err := m.ds.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload organization: %w", err)
	}
	return o, nil
}
