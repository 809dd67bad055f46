package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"fleetdesk/internal/contact"
)

// AdminContactsHandler manages organization contacts.
type AdminContactsHandler struct {
	contacts *contact.Manager
}

// NewAdminContactsHandler creates an admin contacts handler.
func NewAdminContactsHandler(contacts *contact.Manager) *AdminContactsHandler {
	return &AdminContactsHandler{contacts: contacts}
}

// ListPaginated handles GET /api/admin/contacts and its /paginated
// alias. Filters: orgType, contactType, search.
func (h *AdminContactsHandler) ListPaginated(w http.ResponseWriter, r *http.Request) {
	p := parsePageParams(r)
	q := r.URL.Query()
	f := contact.Filter{
		OrgType:     q.Get("orgType"),
		ContactType: q.Get("contactType"),
		Search:      q.Get("search"),
	}

	contacts, total, err := h.contacts.ListPage(r.Context(), f, p.limit, p.offset(), p.sortBy, p.desc)
	if err != nil {
		log.Printf("failed to list contacts: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list contacts")
		return
	}
	writeJSON(w, http.StatusOK, pageResponse(contacts, p, total))
}

// Get handles GET /api/admin/contacts/{id}.
func (h *AdminContactsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid contact ID")
		return
	}

	c, err := h.contacts.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, contact.ErrNotFound) {
			writeError(w, http.StatusNotFound, "contact not found")
			return
		}
		log.Printf("failed to get contact: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get contact")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Create handles POST /api/admin/contacts.
func (h *AdminContactsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var params contact.CreateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	c, err := h.contacts.Create(r.Context(), params)
	if err != nil {
		switch {
		case errors.Is(err, contact.ErrOrgNotFound):
			writeError(w, http.StatusNotFound, "organization not found")
		case errors.Is(err, contact.ErrUserLinked):
			writeError(w, http.StatusConflict, "User account is already linked to another contact")
		case errors.Is(err, contact.ErrInvalidName), errors.Is(err, contact.ErrInvalidType),
			errors.Is(err, contact.ErrInvalidEmail):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			log.Printf("failed to create contact: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to create contact")
		}
		return
	}

	writeJSON(w, http.StatusCreated, c)
}

// Update handles PATCH /api/admin/contacts/{id}.
func (h *AdminContactsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid contact ID")
		return
	}

	var params contact.UpdateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	c, err := h.contacts.Update(r.Context(), id, params)
	if err != nil {
		h.writeContactError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Activate handles PATCH /api/admin/contacts/{id}/activate.
func (h *AdminContactsHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

// Deactivate handles PATCH /api/admin/contacts/{id}/deactivate.
func (h *AdminContactsHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *AdminContactsHandler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid contact ID")
		return
	}

	c, err := h.contacts.SetActive(r.Context(), id, active)
	if err != nil {
		h.writeContactError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *AdminContactsHandler) writeContactError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, contact.ErrNotFound):
		writeError(w, http.StatusNotFound, "contact not found")
	case errors.Is(err, contact.ErrUserLinked):
		writeError(w, http.StatusConflict, "User account is already linked to another contact")
	case errors.Is(err, contact.ErrInvalidName), errors.Is(err, contact.ErrInvalidType),
		errors.Is(err, contact.ErrInvalidEmail), errors.Is(err, contact.ErrEmptyUpdate):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("contact operation failed: %v", err)
		writeError(w, http.StatusInternalServerError, "contact operation failed")
	}
}
