// Package email validates and canonicalizes contact email addresses at the
// intake boundary.
package email

import (
	"fmt"
	"net/mail"
	"strings"
)

// Normalize trims, lowercases, and validates an address. The lowercased form
// is what the stores dedupe on, so every caller must go through here.
func Normalize(address string) (string, error) {
	cleaned := strings.ToLower(strings.TrimSpace(address))
	if cleaned == "" {
		return "", fmt.Errorf("email is required")
	}
	parsed, err := mail.ParseAddress(cleaned)
	if err != nil {
		return "", fmt.Errorf("invalid email %q", address)
	}
	return parsed.Address, nil
}
