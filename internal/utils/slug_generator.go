package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"unicode"
)

// GenerateSlug creates a URL-safe slug in the format "name-XXXX" where XXXX
// is a random 4-digit suffix keeping slugs unique across accounts
func GenerateSlug(name string) (string, error) {
	base := slugify(name)
	if base == "" {
		base = "welcomebook"
	}

	suffix, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", fmt.Errorf("failed to generate random suffix: %w", err)
	}

	return fmt.Sprintf("%s-%04d", base, suffix.Int64()), nil
}

// slugify lowercases the name and collapses everything outside [a-z0-9] into
// single dashes
func slugify(name string) string {
	var b strings.Builder
	lastDash := true

	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) && r < 128, unicode.IsDigit(r) && r < 128:
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	return strings.Trim(b.String(), "-")
}
