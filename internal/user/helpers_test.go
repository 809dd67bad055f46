package user

import (
	"database/sql"
	"encoding/json"
	"strings"
	"testing"
)

func errNoRows(t *testing.T) error {
	t.Helper()
	return sql.ErrNoRows
}

// containsPasswordField marshals v and scans the JSON keys for
// anything password-like.
func containsPasswordField(t *testing.T, v any) bool {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	return strings.Contains(strings.ToLower(string(data)), `"password"`)
}
