// Package validation provides input checks shared by the service layer.
package validation

import (
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidEmail reports whether email looks like a deliverable address.
func ValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	return email != "" && emailRegex.MatchString(email) && len(email) <= 200
}

// ValidFullName reports whether name is an acceptable display name.
func ValidFullName(name string) bool {
	name = strings.TrimSpace(name)
	return len(name) >= 2 && len(name) <= 200
}

// ValidPassword reports whether password meets the minimum policy.
func ValidPassword(password string) bool {
	return len(password) >= 8 && len(password) <= 100
}
