package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// asciiFold decomposes to NFD and strips combining marks, so "Ç" folds to
// "C" and "ã" to "a".
var asciiFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeHeader folds a raw export header into a canonical identifier:
// diacritics stripped, lowercased, every run of punctuation, whitespace or
// non-ASCII residue (mojibake included) collapsed to a single underscore,
// no leading or trailing underscores. Idempotent; the result always matches
// [a-z0-9_]*.
//
//	"PRECIPITAÇÃO TOTAL, HORÁRIO (mm)" → "precipitacao_total_horario_mm"
func NormalizeHeader(raw string) string {
	folded, _, err := transform.String(asciiFold, raw)
	if err != nil {
		folded = raw
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingSep := false
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r + ('a' - 'A'))
		default:
			pendingSep = true
		}
	}
	return b.String()
}
