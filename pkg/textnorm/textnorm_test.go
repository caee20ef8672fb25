package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripDecorations(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Spring Trip", "Spring Trip"},
		{"emoji suffix", "Spring Trip 🌸", "Spring Trip "},
		{"flag", "Ausflug 🇩🇪", "Ausflug "},
		{"zwj sequence", "Familie 👨‍👩‍👧", "Familie "},
		{"variation selector", "Sonne ☀️", "Sonne "},
		{"box drawing", "a─b", "ab"},
		{"umlauts kept", "Übernachtung in Köln", "Übernachtung in Köln"},
		{"watch", "Zeit ⌚", "Zeit "},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripDecorations(tt.in))
		})
	}
}

func TestStripDecorationsIdempotent(t *testing.T) {
	inputs := []string{"🎉 Fasching 🎭", "Sommerfest ☀️🌻", "Laternenumzug ✨", "Ö"}
	for _, in := range inputs {
		once := StripDecorations(in)
		assert.Equal(t, once, StripDecorations(once), in)
	}
}

func TestFoldSpecialLetters(t *testing.T) {
	assert.Equal(t, "Ausflug Muenchen", FoldSpecialLetters("Ausflug München"))
	assert.Equal(t, "Strasse", FoldSpecialLetters("Straße"))
	assert.Equal(t, "AeOeUe aeoeue", FoldSpecialLetters("ÄÖÜ äöü"))
	assert.Equal(t, "plain", FoldSpecialLetters("plain"))
}

func TestToASCII(t *testing.T) {
	assert.Equal(t, "Caf", ToASCII("Café"))
	assert.Equal(t, "Spring Trip 2022", ToASCII("Spring Trip 2022"))
	assert.Equal(t, " ", ToASCII("日本 "))
}

func TestDescription(t *testing.T) {
	assert.Equal(t, "Ausflug nach Koeln", Description("Ausflug nach Köln"))
	assert.Equal(t, "Grosse Fte", Description("Große Fête"))
	assert.Equal(t, "Kita Sommerfest", Description("Kita Sommerfest"))
	// letters outside the fold table vanish, the ASCII around them stays
	assert.Equal(t, "Ausflug nach Pars 2023", Description("Ausflug nach París 2023"))
	assert.Equal(t, "Oma  Opa", Description("Oma ♥ Opa"))
}

func TestSingleLine(t *testing.T) {
	assert.Equal(t, "Sommer -GPSLatitude=0 fest", SingleLine("Sommer\n-GPSLatitude=0\nfest"))
	assert.Equal(t, "a  b c", SingleLine("a\r\nb\tc"))
	assert.Equal(t, "Fasching", SingleLine("Fasching"))
	assert.Equal(t, "", SingleLine(""))
}
