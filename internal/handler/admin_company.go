package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"fleetdesk/internal/org"
)

// AdminCompanyHandler manages the singleton company profile.
type AdminCompanyHandler struct {
	orgs *org.Manager
}

// NewAdminCompanyHandler creates an admin company handler.
func NewAdminCompanyHandler(orgs *org.Manager) *AdminCompanyHandler {
	return &AdminCompanyHandler{orgs: orgs}
}

// Get handles GET /api/admin/company. Returns null before the profile
// has been created.
func (h *AdminCompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	company, err := h.orgs.Company(r.Context())
	if err != nil {
		log.Printf("failed to get company: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get company")
		return
	}
	writeJSON(w, http.StatusOK, company)
}

// Create handles POST /api/admin/company.
func (h *AdminCompanyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var params org.CreateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	company, err := h.orgs.CreateCompany(r.Context(), params)
	if err != nil {
		switch {
		case errors.Is(err, org.ErrCompanyExists):
			writeError(w, http.StatusConflict, "Company profile already exists")
		case errors.Is(err, org.ErrInvalidName), errors.Is(err, org.ErrInvalidEmail):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			log.Printf("failed to create company: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to create company")
		}
		return
	}

	writeJSON(w, http.StatusCreated, company)
}

// Update handles PATCH /api/admin/company.
func (h *AdminCompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	var params org.UpdateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	company, err := h.orgs.UpdateCompany(r.Context(), params)
	if err != nil {
		switch {
		case errors.Is(err, org.ErrNotFound):
			writeError(w, http.StatusNotFound, "company profile not found")
		case errors.Is(err, org.ErrInvalidName), errors.Is(err, org.ErrInvalidEmail),
			errors.Is(err, org.ErrEmptyUpdate):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			log.Printf("failed to update company: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to update company")
		}
		return
	}

	writeJSON(w, http.StatusOK, company)
}
