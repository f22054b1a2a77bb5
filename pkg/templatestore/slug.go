package templatestore

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slug turns a template name into a file stem: accents are stripped, the
// result is lower-cased, spaces and dashes become underscores, and anything
// that is not a letter, digit or underscore is dropped.
func Slug(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}
	folded = cases.Lower(language.Und).String(folded)

	var b strings.Builder
	for _, r := range folded {
		switch {
		case r == ' ' || r == '-':
			b.WriteByte('_')
		case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DisplayName title-cases a file stem for listings, e.g. "my_api" -> "My Api".
func DisplayName(stem string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(stem, "_", " "))
}
