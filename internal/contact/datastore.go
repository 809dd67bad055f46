package contact

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DBTX is the database handle the datastore operates on. *sql.DB and
// *sql.Tx both satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Datastore provides direct access to the contacts table.
type Datastore struct {
	db DBTX
}

// NewDatastore creates a datastore on the given handle.
func NewDatastore(db DBTX) *Datastore {
	return &Datastore{db: db}
}

const contactColumns = `c.id, c.organization_id, c.user_id, c.name_en, c.name_ar,
	c.contact_type, c.mobile, c.email, c.nationality, c.is_active, c.notes,
	c.created_at, c.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (*Contact, error) {
	c := &Contact{}
	err := row.Scan(&c.ID, &c.OrganizationID, &c.UserID, &c.NameEn, &c.NameAr,
		&c.ContactType, &c.Mobile, &c.Email, &c.Nationality, &c.IsActive, &c.Notes,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Filter narrows contact listings. Zero values mean "no constraint".
type Filter struct {
	OrgType     string // organization type, COMPANY or PARTNER
	ContactType string
	Search      string // matches names, email, and mobile
}

// where renders the filter as a WHERE clause and its arguments.
func (f Filter) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.OrgType != "" {
		args = append(args, f.OrgType)
		conds = append(conds, fmt.Sprintf("o.type = $%d", len(args)))
	}
	if f.ContactType != "" {
		args = append(args, f.ContactType)
		conds = append(conds, fmt.Sprintf("c.contact_type = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(c.name_en ILIKE $%d OR c.name_ar ILIKE $%d OR c.email ILIKE $%d OR c.mobile ILIKE $%d)",
			n, n, n, n))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

const listFrom = ` FROM contacts c JOIN organizations o ON o.id = c.organization_id`

// ListPage retrieves one filtered page. orderBy must be a vetted
// column name.
func (ds *Datastore) ListPage(ctx context.Context, f Filter, limit, offset int, orderBy string, desc bool) ([]*Contact, error) {
	where, args := f.where()
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	query := fmt.Sprintf(`SELECT %s%s%s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		contactColumns, listFrom, where, orderBy, dir, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := ds.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []*Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// Count counts contacts matching the filter.
func (ds *Datastore) Count(ctx context.Context, f Filter) (int, error) {
	where, args := f.where()
	var count int
	err := ds.db.QueryRowContext(ctx, `SELECT COUNT(*)`+listFrom+where, args...).Scan(&count)
	return count, err
}

// GetByID retrieves a contact by ID.
func (ds *Datastore) GetByID(ctx context.Context, id uuid.UUID) (*Contact, error) {
	query := `SELECT ` + contactColumns + listFrom + ` WHERE c.id = $1`
	return scanContact(ds.db.QueryRowContext(ctx, query, id))
}

// Create inserts a contact.
func (ds *Datastore) Create(ctx context.Context, c *Contact) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	query := `
		INSERT INTO contacts (id, organization_id, user_id, name_en, name_ar,
			contact_type, mobile, email, nationality, is_active, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`
	return ds.db.QueryRowContext(ctx, query,
		c.ID, c.OrganizationID, c.UserID, c.NameEn, c.NameAr,
		c.ContactType, c.Mobile, c.Email, c.Nationality, c.IsActive, c.Notes).
		Scan(&c.CreatedAt, &c.UpdatedAt)
}

// UpdateFields is a partial update; nil fields keep their value.
type UpdateFields struct {
	UserID      *uuid.UUID
	NameEn      *string
	NameAr      *string
	ContactType *string
	Mobile      *string
	Email       *string
	Nationality *string
	Notes       *string
	IsActive    *bool
}

// Update applies the set fields and returns the number of rows matched.
func (ds *Datastore) Update(ctx context.Context, id uuid.UUID, fields UpdateFields) (int64, error) {
	query := `
		UPDATE contacts SET
			user_id = COALESCE($2, user_id),
			name_en = COALESCE($3, name_en),
			name_ar = COALESCE($4, name_ar),
			contact_type = COALESCE($5, contact_type),
			mobile = COALESCE($6, mobile),
			email = COALESCE($7, email),
			nationality = COALESCE($8, nationality),
			notes = COALESCE($9, notes),
			is_active = COALESCE($10, is_active),
			updated_at = NOW()
		WHERE id = $1`
	result, err := ds.db.ExecContext(ctx, query, id,
		fields.UserID, fields.NameEn, fields.NameAr, fields.ContactType,
		fields.Mobile, fields.Email, fields.Nationality, fields.Notes, fields.IsActive)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
