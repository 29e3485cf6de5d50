// Package validation contains input validation helpers for posts and identities.
package validation

import (
	"regexp"
	"strings"
)

var (
	slugRegex       = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
	slugStripRegex  = regexp.MustCompile(`[^a-z0-9\s-]`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
	hyphenRunRegex  = regexp.MustCompile(`-+`)
	uuidRegex       = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)
)

// ToSlug normalizes arbitrary text into a URL-safe slug: lowercase, strip
// anything outside [a-z0-9\s-], collapse whitespace and hyphen runs into
// single hyphens, and trim leading/trailing hyphens. The result may be empty
// for input with no usable characters; callers must check IsValidSlug.
func ToSlug(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = slugStripRegex.ReplaceAllString(s, "")
	s = whitespaceRegex.ReplaceAllString(s, "-")
	s = hyphenRunRegex.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// IsValidSlug reports whether slug is non-empty and consists of lowercase
// alphanumeric groups separated by single hyphens.
func IsValidSlug(slug string) bool {
	return slugRegex.MatchString(slug)
}

// IsValidUUID reports whether uuid matches the canonical hyphenated 8-4-4-4-12
// layout with a v1-v5 version nibble and an RFC 4122 variant nibble.
// Intentionally stricter than uuid.Parse, which also accepts URN and braced
// forms the API must reject.
func IsValidUUID(uuid string) bool {
	return uuidRegex.MatchString(strings.ToLower(uuid))
}
