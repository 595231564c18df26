package roster

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldAccents removes diacritics ("Ação" -> "Acao").
func foldAccents(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeHeader lowercases, strips diacritics and collapses every run of
// whitespace or punctuation into a single underscore:
// "Data de Nascimento" -> "data_de_nascimento", "E-mail" -> "e_mail".
func NormalizeHeader(s string) string {
	s = strings.ToLower(foldAccents(s))

	var b strings.Builder
	pendingSep := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// headerKey is the comparison key: the normalized header without
// separators, so "e_mail" and "email" compare equal.
func headerKey(s string) string {
	return strings.ReplaceAll(NormalizeHeader(s), "_", "")
}

// nameKey folds a person's name for case and accent insensitive comparison.
func nameKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(foldAccents(s))), " ")
}
