// Package org manages the owning company profile and partner
// organizations.
package org

import (
	"time"

	"github.com/google/uuid"
)

// Organization types. The company is the singleton owning organization;
// partners are external carriers and customers.
const (
	TypeCompany = "COMPANY"
	TypePartner = "PARTNER"
)

// Organization is a company or partner record. Names are bilingual;
// optional fields are nil when unset.
type Organization struct {
	ID                 uuid.UUID `json:"id"`
	NameEn             string    `json:"nameEn"`
	NameAr             string    `json:"nameAr"`
	Type               string    `json:"type"`
	TaxID              *string   `json:"taxId"`
	RegistrationNumber *string   `json:"registrationNumber"`
	Address            *string   `json:"address"`
	City               *string   `json:"city"`
	Country            *string   `json:"country"`
	Phone              *string   `json:"phone"`
	Email              *string   `json:"email"`
	IsActive           bool      `json:"isActive"`
	Notes              *string   `json:"notes"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}
