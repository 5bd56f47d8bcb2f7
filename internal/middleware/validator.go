package middleware

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	DefaultLimit   = 20
	MaxLimit       = 100
	MaxQueryLength = 256
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

// ValidateQuery sanitizes free text and enforces a length cap.
func ValidateQuery(q string) (string, error) {
	q = SanitizeString(q)
	if q == "" {
		return "", fmt.Errorf("query parameter q is required")
	}
	if utf8.RuneCountInString(q) > MaxQueryLength {
		return "", fmt.Errorf("query too long (max %d characters)", MaxQueryLength)
	}
	return q, nil
}

// ValidateBugID checks that id is a UUID.
func ValidateBugID(id string) error {
	if id == "" {
		return fmt.Errorf("bug ID cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid bug ID format")
	}
	return nil
}

// ValidateSlug accepts a lowercase, dash-separated identifier.
func ValidateSlug(slug string) error {
	if slug == "" {
		return fmt.Errorf("slug cannot be empty")
	}
	if len(slug) > MaxQueryLength || !slugPattern.MatchString(slug) {
		return fmt.Errorf("invalid slug format (lowercase letters, digits and dashes only)")
	}
	return nil
}
