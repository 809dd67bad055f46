// Package contact manages the people attached to organizations.
package contact

import (
	"time"

	"github.com/google/uuid"
)

// Contact roles within an organization.
const (
	TypeDriver          = "DRIVER"
	TypeStaff           = "STAFF"
	TypeManager         = "MANAGER"
	TypeCustomerService = "CUSTOMER_SERVICE"
	TypeSales           = "SALES"
	TypeAccountant      = "ACCOUNTANT"
	TypeOther           = "OTHER"
)

// ValidType reports whether t is a known contact type.
func ValidType(t string) bool {
	switch t {
	case TypeDriver, TypeStaff, TypeManager, TypeCustomerService, TypeSales, TypeAccountant, TypeOther:
		return true
	}
	return false
}

// Contact is a person attached to an organization. UserID links the
// contact to a login account; at most one contact may hold a given
// link.
type Contact struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organizationId"`
	UserID         *uuid.UUID `json:"userId"`
	NameEn         string     `json:"nameEn"`
	NameAr         string     `json:"nameAr"`
	ContactType    string     `json:"contactType"`
	Mobile         *string    `json:"mobile"`
	Email          *string    `json:"email"`
	Nationality    *string    `json:"nationality"`
	IsActive       bool       `json:"isActive"`
	Notes          *string    `json:"notes"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}
