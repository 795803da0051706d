package facematch

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldDiacritics removes diacritical marks from a string (e.g., "Sútrisno" -> "Sutrisno").
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// NormalizeName normalizes a display name for comparison: no diacritics, lowercase,
// dashes and runs of whitespace collapsed to single spaces.
func NormalizeName(name string) string {
	name = strings.ToLower(foldDiacritics(name))
	name = strings.ReplaceAll(name, "-", " ")
	return strings.Join(strings.Fields(name), " ")
}

// NameMatches reports whether query is contained in name after normalization.
// An empty query matches every name.
func NameMatches(name, query string) bool {
	q := NormalizeName(query)
	if q == "" {
		return true
	}
	return strings.Contains(NormalizeName(name), q)
}
