// Package textnorm normalizes album titles for use in directory names and
// EXIF text fields.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// decorations are the emoji, pictograph and symbol blocks stripped from titles
var decorations = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x200d, Hi: 0x200d, Stride: 1},
		{Lo: 0x231a, Hi: 0x231a, Stride: 1},
		{Lo: 0x23cf, Hi: 0x23cf, Stride: 1},
		{Lo: 0x23e9, Hi: 0x23e9, Stride: 1},
		{Lo: 0x24c2, Hi: 0xffff, Stride: 1},
	},
	R32: []unicode.Range32{
		{Lo: 0x10000, Hi: 0x10ffff, Stride: 1},
	},
}

// The ranges above are the union of these blocks, which overlap heavily:
// U+1F600-1F64F, U+1F300-1F5FF, U+1F680-1F6FF, U+1F1E0-1F1FF, U+2500-2BEF,
// U+2702-27B0, U+24C2-1F251, U+1F926-1F937, U+10000-10FFFF, U+2640-2642,
// U+2600-2B55, U+200D, U+23CF, U+23E9, U+231A, U+FE0F, U+3030.

var folder = strings.NewReplacer(
	"ä", "ae",
	"ö", "oe",
	"ü", "ue",
	"Ä", "Ae",
	"Ö", "Oe",
	"Ü", "Ue",
	"ß", "ss",
)

// StripDecorations removes emoji and decorative symbols. It never fails and
// applying it twice gives the same result as applying it once.
func StripDecorations(s string) string {
	out, _, err := transform.String(runes.Remove(runes.In(decorations)), s)
	if err != nil {
		return s
	}
	return out
}

// FoldSpecialLetters spells out German umlauts and sharp s in ASCII
func FoldSpecialLetters(s string) string {
	return folder.Replace(s)
}

// ToASCII drops every non-ASCII rune
func ToASCII(s string) string {
	out, _, err := transform.String(runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})), s)
	if err != nil {
		return s
	}
	return out
}

// SingleLine replaces control characters such as line breaks and tabs with
// spaces
func SingleLine(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
}

// Description renders an album title as an ASCII image description
func Description(title string) string {
	return ToASCII(FoldSpecialLetters(title))
}
