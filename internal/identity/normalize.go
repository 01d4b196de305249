package identity

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeName canonicalizes a free-text name for comparison: trimmed,
// internal whitespace runs collapsed to single spaces, uppercased.
// Empty input yields the empty string.
//
// Every code path that compares names must go through this function;
// registry matching and person resolution both depend on it producing
// identical keys for identical names.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.ToUpper(whitespaceRun.ReplaceAllString(name, " "))
}

// NormalizeContact canonicalizes an email or phone for comparison:
// trimmed and lowercased. Empty input yields the empty string.
func NormalizeContact(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
