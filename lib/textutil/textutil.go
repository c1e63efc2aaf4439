package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// punctuation that joins a word rather than separating two, ex. "S.C." or "O'Connor".
var punctuation = regexp.MustCompile(`[^a-z0-9\s\-/_&]+`)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldAccents turns "Zoë" into "Zoe".
func FoldAccents(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		return s
	}
	return folded
}

// NormalizeName produces a comparison key for a person or team name:
// lowercase, accents folded, punctuation and whitespace removed.
func NormalizeName(name string) string {
	name = strings.ToLower(FoldAccents(name))
	return nonAlnum.ReplaceAllString(name, "")
}

// NormalizeWords is NormalizeName but keeps single spaces between words,
// this is the form used for fuzzy matching. Dashes, slashes and
// ampersands separate words, other punctuation is dropped.
func NormalizeWords(name string) string {
	name = strings.ToLower(FoldAccents(name))
	name = punctuation.ReplaceAllString(name, "")
	name = nonAlnum.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// MatchName reports whether `query` appears in `name` ignoring case,
// accents and punctuation.
func MatchName(name, query string) bool {
	q := NormalizeName(query)
	if q == "" {
		return false
	}
	return strings.Contains(NormalizeName(name), q)
}
