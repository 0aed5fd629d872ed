package license

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var entitySuffixes = regexp.MustCompile(
	`(?i)\s*,?\s*(LLC|L\.?L\.?C\.?|INC\.?|INCORPORATED|CORP\.?|CORPORATION|` +
		`CO\.?|COMPANY|LTD\.?|LIMITED|DBA|D/B/A)\s*\.?\s*$`)

var multiSpace = regexp.MustCompile(`\s{2,}`)

// accent strips combining diacritical marks so "José's Café" matches
// registry rows stored as "JOSES CAFE".
var accent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize uppercases a business name, strips accents, entity suffixes,
// and punctuation, and collapses whitespace for registry matching.
func Normalize(name string) string {
	n := strings.ToUpper(strings.TrimSpace(name))
	if stripped, _, err := transform.String(accent, n); err == nil {
		n = stripped
	}
	n = entitySuffixes.ReplaceAllString(n, "")
	n = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '&' {
			return r
		}
		return -1
	}, n)
	n = multiSpace.ReplaceAllString(n, " ")
	return strings.TrimSpace(n)
}
