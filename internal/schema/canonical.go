package schema

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/verte-zerg/conselho/internal/model"
)

// StripAccents removes combining marks, so "Frequência" becomes "Frequencia".
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Normalize trims, lowercases and strips diacritics.
func Normalize(s string) string {
	return StripAccents(strings.ToLower(strings.TrimSpace(s)))
}

// Canonicalize maps a raw header to its canonical field. Unrecognized headers
// come back unchanged and must be resolved by an explicit mapping.
func Canonicalize(raw string) model.Field {
	key := Normalize(raw)
	if f, ok := dictionary[key]; ok {
		return f
	}
	for _, subject := range Subjects {
		if Normalize(string(subject)) == key {
			return subject
		}
	}
	return model.Field(raw)
}

// Recognized reports whether raw resolves to a canonical field.
func Recognized(raw string) bool {
	return IsCanonical(Canonicalize(raw))
}
