package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode JSON response: %v", err)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// parseID extracts a UUID path parameter.
func parseID(r *http.Request) (uuid.UUID, error) {
	idStr := r.PathValue("id")
	if idStr == "" {
		return uuid.Nil, errors.New("missing id")
	}
	return uuid.Parse(idStr)
}

// Pagination defaults and bounds.
const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// pageParams are the normalized pagination query parameters.
type pageParams struct {
	page   int
	limit  int
	sortBy string
	desc   bool
}

// parsePageParams reads page, limit, sortBy, and sortOrder from the
// query string. Out-of-range values are clamped rather than rejected.
func parsePageParams(r *http.Request) pageParams {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}

	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	return pageParams{
		page:   page,
		limit:  limit,
		sortBy: q.Get("sortBy"),
		desc:   q.Get("sortOrder") == "desc",
	}
}

func (p pageParams) offset() int {
	return (p.page - 1) * p.limit
}

// pageResponse wraps a page of results in the standard envelope.
func pageResponse(data any, p pageParams, total int) map[string]any {
	totalPages := (total + p.limit - 1) / p.limit
	return map[string]any{
		"data": data,
		"pagination": map[string]int{
			"page":       p.page,
			"limit":      p.limit,
			"total":      total,
			"totalPages": totalPages,
		},
	}
}
