package org

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// DBTX is the database handle the datastore operates on. *sql.DB and
// *sql.Tx both satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Datastore provides direct access to the organizations table.
type Datastore struct {
	db DBTX
}

// NewDatastore creates a datastore on the given handle.
func NewDatastore(db DBTX) *Datastore {
	return &Datastore{db: db}
}

const orgColumns = `id, name_en, name_ar, type, tax_id, registration_number,
	address, city, country, phone, email, is_active, notes, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrg(row rowScanner) (*Organization, error) {
	o := &Organization{}
	err := row.Scan(&o.ID, &o.NameEn, &o.NameAr, &o.Type, &o.TaxID, &o.RegistrationNumber,
		&o.Address, &o.City, &o.Country, &o.Phone, &o.Email, &o.IsActive, &o.Notes,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// Create inserts an organization.
func (ds *Datastore) Create(ctx context.Context, o *Organization) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	query := `
		INSERT INTO organizations (id, name_en, name_ar, type, tax_id, registration_number,
			address, city, country, phone, email, is_active, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at`
	return ds.db.QueryRowContext(ctx, query,
		o.ID, o.NameEn, o.NameAr, o.Type, o.TaxID, o.RegistrationNumber,
		o.Address, o.City, o.Country, o.Phone, o.Email, o.IsActive, o.Notes).
		Scan(&o.CreatedAt, &o.UpdatedAt)
}

// GetByID retrieves an organization by ID.
func (ds *Datastore) GetByID(ctx context.Context, id uuid.UUID) (*Organization, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations WHERE id = $1`
	return scanOrg(ds.db.QueryRowContext(ctx, query, id))
}

// GetCompany retrieves the singleton company record.
func (ds *Datastore) GetCompany(ctx context.Context) (*Organization, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations WHERE type = $1 LIMIT 1`
	return scanOrg(ds.db.QueryRowContext(ctx, query, TypeCompany))
}

// ListPartners retrieves all partners ordered by English name.
func (ds *Datastore) ListPartners(ctx context.Context) ([]*Organization, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations WHERE type = $1 ORDER BY name_en ASC`
	return ds.queryPartners(ctx, query, TypePartner)
}

// ListPartnersPage retrieves one page of partners. orderBy must be a
// vetted column name; desc flips the direction.
func (ds *Datastore) ListPartnersPage(ctx context.Context, limit, offset int, orderBy string, desc bool) ([]*Organization, error) {
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	query := fmt.Sprintf(`SELECT %s FROM organizations WHERE type = $1 ORDER BY %s %s LIMIT $2 OFFSET $3`,
		orgColumns, orderBy, dir)
	return ds.queryPartners(ctx, query, TypePartner, limit, offset)
}

func (ds *Datastore) queryPartners(ctx context.Context, query string, args ...any) ([]*Organization, error) {
	rows, err := ds.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgs []*Organization
	for rows.Next() {
		o, err := scanOrg(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, o)
	}
	return orgs, rows.Err()
}

// CountPartners counts partner organizations.
func (ds *Datastore) CountPartners(ctx context.Context) (int, error) {
	var count int
	err := ds.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM organizations WHERE type = $1`, TypePartner).Scan(&count)
	return count, err
}

// UpdateFields is a partial update; nil fields keep their value.
type UpdateFields struct {
	NameEn             *string
	NameAr             *string
	TaxID              *string
	RegistrationNumber *string
	Address            *string
	City               *string
	Country            *string
	Phone              *string
	Email              *string
	Notes              *string
	IsActive           *bool
}

// Update applies the set fields and returns the number of rows matched.
func (ds *Datastore) Update(ctx context.Context, id uuid.UUID, fields UpdateFields) (int64, error) {
	query := `
		UPDATE organizations SET
			name_en = COALESCE($2, name_en),
			name_ar = COALESCE($3, name_ar),
			tax_id = COALESCE($4, tax_id),
			registration_number = COALESCE($5, registration_number),
			address = COALESCE($6, address),
			city = COALESCE($7, city),
			country = COALESCE($8, country),
			phone = COALESCE($9, phone),
			email = COALESCE($10, email),
			notes = COALESCE($11, notes),
			is_active = COALESCE($12, is_active),
			updated_at = NOW()
		WHERE id = $1`
	result, err := ds.db.ExecContext(ctx, query, id,
		fields.NameEn, fields.NameAr, fields.TaxID, fields.RegistrationNumber,
		fields.Address, fields.City, fields.Country, fields.Phone, fields.Email,
		fields.Notes, fields.IsActive)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Delete removes an organization. Contacts cascade.
func (ds *Datastore) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	result, err := ds.db.ExecContext(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
