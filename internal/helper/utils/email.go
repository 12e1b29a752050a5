package utils

import (
	"errors"
	"strings"
)

// NormalizeEmail lowercases and trims; accounts are keyed on the
// normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ExtractEmailDomain(email string) (string, error) {
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[1] == "" {
		return "", errors.New("invalid email format")
	}
	return parts[1], nil
}
