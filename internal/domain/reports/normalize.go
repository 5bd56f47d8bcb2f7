package reports

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var slugSeparators = regexp.MustCompile(`[^a-z0-9]+`)

// Normalize returns the comparison key for s: lowercase, accents folded to
// their base letter, and nothing but ASCII letters and digits left.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	// transform.Chain keeps state, so build one per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.Predicate(notKeyRune)))
	out, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		return ""
	}
	return out
}

// Slugify turns s into a hyphenated, human readable identifier.
func Slugify(s string) string {
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		return ""
	}
	return strings.Trim(slugSeparators.ReplaceAllString(folded, "-"), "-")
}

func notKeyRune(r rune) bool {
	return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
}
