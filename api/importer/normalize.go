package importer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"AcenteCorpSaas/api/constants"
)

// Turkish letters are folded by table because Unicode decomposition alone
// does not cover dotless ı / dotted İ the way carrier exports need.
var turkishFold = strings.NewReplacer(
	"İ", "I", "ı", "i",
	"Ş", "S", "ş", "s",
	"Ğ", "G", "ğ", "g",
	"Ç", "C", "ç", "c",
	"Ö", "O", "ö", "o",
	"Ü", "U", "ü", "u",
)

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold normalizes free text to canonical uppercase ASCII: NBSP and
// whitespace collapse, Turkish letter folding, accent stripping. Every
// comparison in detection and customer matching goes through this.
func Fold(s string) string {
	s = strings.ReplaceAll(s, constants.NBSP, " ")
	s = turkishFold.Replace(s)
	if out, _, err := transform.String(stripAccents, s); err == nil {
		s = out
	}
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

// NormalizeHeader folds a column caption and drops the punctuation carriers
// sprinkle into captions ("Poliçe No.", "Poliçe-No:", "POLİÇE_NO").
func NormalizeHeader(s string) string {
	s = Fold(s)
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune(' ')
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// NormalizeFilename folds the base name (without extension) for pattern
// matching.
func NormalizeFilename(name string) string {
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	return NormalizeHeader(name)
}

// NormalizePlate strips separators and folds case: "34 ABC 123" == "34abc123".
func NormalizePlate(s string) string {
	s = Fold(s)
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, s)
}

// NormalizeName folds an insured name for index keys.
func NormalizeName(parts ...string) string {
	joined := strings.Join(parts, " ")
	return Fold(joined)
}

// fragmentMatch is the bidirectional substring test used both by detection
// and by column binding: an abbreviated fragment matches an expanded header
// and the other way around.
func fragmentMatch(fragment, header string) bool {
	if fragment == "" || header == "" {
		return false
	}
	return strings.Contains(header, fragment) || strings.Contains(fragment, header)
}
