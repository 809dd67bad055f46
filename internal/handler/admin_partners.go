package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"fleetdesk/internal/org"
)

// AdminPartnersHandler manages partner organizations.
type AdminPartnersHandler struct {
	orgs *org.Manager
}

// NewAdminPartnersHandler creates an admin partners handler.
func NewAdminPartnersHandler(orgs *org.Manager) *AdminPartnersHandler {
	return &AdminPartnersHandler{orgs: orgs}
}

// List handles GET /api/admin/partners.
func (h *AdminPartnersHandler) List(w http.ResponseWriter, r *http.Request) {
	partners, err := h.orgs.Partners(r.Context())
	if err != nil {
		log.Printf("failed to list partners: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list partners")
		return
	}
	writeJSON(w, http.StatusOK, partners)
}

// ListPaginated handles GET /api/admin/partners/paginated.
func (h *AdminPartnersHandler) ListPaginated(w http.ResponseWriter, r *http.Request) {
	p := parsePageParams(r)

	partners, total, err := h.orgs.PartnersPage(r.Context(), p.limit, p.offset(), p.sortBy, p.desc)
	if err != nil {
		log.Printf("failed to list partners: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list partners")
		return
	}
	writeJSON(w, http.StatusOK, pageResponse(partners, p, total))
}

// Get handles GET /api/admin/partners/{id}.
func (h *AdminPartnersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid partner ID")
		return
	}

	partner, err := h.orgs.Partner(r.Context(), id)
	if err != nil {
		if errors.Is(err, org.ErrNotFound) {
			writeError(w, http.StatusNotFound, "partner not found")
			return
		}
		log.Printf("failed to get partner: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get partner")
		return
	}
	writeJSON(w, http.StatusOK, partner)
}

// Create handles POST /api/admin/partners.
func (h *AdminPartnersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var params org.CreateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	partner, err := h.orgs.CreatePartner(r.Context(), params)
	if err != nil {
		switch {
		case errors.Is(err, org.ErrInvalidName), errors.Is(err, org.ErrInvalidEmail):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			log.Printf("failed to create partner: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to create partner")
		}
		return
	}

	writeJSON(w, http.StatusCreated, partner)
}

// Update handles PATCH /api/admin/partners/{id}.
func (h *AdminPartnersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid partner ID")
		return
	}

	var params org.UpdateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	partner, err := h.orgs.UpdatePartner(r.Context(), id, params)
	if err != nil {
		h.writePartnerError(w, err, "failed to update partner")
		return
	}
	writeJSON(w, http.StatusOK, partner)
}

// Activate handles PATCH /api/admin/partners/{id}/activate.
func (h *AdminPartnersHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

// Deactivate handles PATCH /api/admin/partners/{id}/deactivate.
func (h *AdminPartnersHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *AdminPartnersHandler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid partner ID")
		return
	}

	partner, err := h.orgs.SetPartnerActive(r.Context(), id, active)
	if err != nil {
		h.writePartnerError(w, err, "failed to update partner")
		return
	}
	writeJSON(w, http.StatusOK, partner)
}

// Delete handles DELETE /api/admin/partners/{id}. Hard delete; the
// partner's contacts go with it.
func (h *AdminPartnersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid partner ID")
		return
	}

	if err := h.orgs.DeletePartner(r.Context(), id); err != nil {
		h.writePartnerError(w, err, "failed to delete partner")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Partner deleted"})
}

func (h *AdminPartnersHandler) writePartnerError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, org.ErrNotFound):
		writeError(w, http.StatusNotFound, "partner not found")
	case errors.Is(err, org.ErrInvalidName), errors.Is(err, org.ErrInvalidEmail),
		errors.Is(err, org.ErrEmptyUpdate):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("%s: %v", fallback, err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
