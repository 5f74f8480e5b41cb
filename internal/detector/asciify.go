package detector

import (
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// asciifyLabel strips diacritical marks from a bubble's field value before it
// is drawn with basicfont.Face7x13, which only carries ASCII glyphs and
// renders anything else as a blank box.
func asciifyLabel(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}
