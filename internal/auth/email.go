package auth

import (
	"regexp"
	"strings"

	"github.com/seein-app/seein-backend/internal/shared"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// NormalizeEmail trims whitespace, lower-cases and format-validates an email
// address. The normalized form is the canonical account key.
func NormalizeEmail(email string) (string, error) {
	cleaned := strings.ToLower(strings.TrimSpace(email))
	if !validEmail(cleaned) {
		return "", shared.ErrInvalidEmail
	}
	return cleaned, nil
}

func validEmail(email string) bool {
	if email == "" || !emailPattern.MatchString(email) {
		return false
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return false
	}
	if len(local) == 0 || len(local) > 64 {
		return false
	}
	if len(domain) == 0 || len(domain) > 255 {
		return false
	}
	return strings.Contains(domain, ".")
}
