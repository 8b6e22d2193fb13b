package store

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldSearch lowercases a string and strips diacritics so that "Škoda"
// matches a search for "skoda". Used by every store implementation so
// search behaves the same everywhere.
func FoldSearch(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// MatchesSearch reports whether the employee's name or code contains the
// already-folded search term. The term is a literal substring: % and _
// carry no wildcard meaning here, and the postgres store escapes them
// in its LIKE pattern to match.
func MatchesSearch(e Employee, foldedTerm string) bool {
	if foldedTerm == "" {
		return true
	}
	return strings.Contains(FoldSearch(e.Name), foldedTerm) ||
		strings.Contains(FoldSearch(e.Code), foldedTerm)
}

// DayOf truncates a timestamp to midnight in its own location. All
// attendance records are keyed by this value.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
