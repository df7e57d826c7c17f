package domain

import "github.com/muesli/termenv"

// Color is the color of one terminal cell foreground or background.
// We reuse termenv.Color as the concrete representation rather than
// reinventing an enum: termenv.NoColor{} is the Default variant,
// termenv.ANSIColor/ANSI256Color are the Indexed variant, and
// termenv.RGBColor is the Rgb variant. All three are comparable, which is
// what segmentation needs for its style-equality key.
type Color = termenv.Color

// NoColor is the Default color.
var NoColor = termenv.NoColor{}

// IndexedColor builds an Indexed(0..255) color.
func IndexedColor(n uint8) Color {
	if n < 16 {
		return termenv.ANSIColor(n)
	}
	return termenv.ANSI256Color(n)
}

// RGBColor builds an Rgb(r,g,b) color from a "#rrggbb" hex string.
func RGBColor(hex string) Color {
	return termenv.RGBColor(hex)
}

// CellStyle is the full visual style of one terminal cell. Equality is
// structural and is used verbatim as the VOM segmentation key.
type CellStyle struct {
	Fg        Color
	Bg        Color
	Bold      bool
	Underline bool
	Inverse   bool
}

// Equal reports whether two styles are identical in every field.
func (s CellStyle) Equal(o CellStyle) bool {
	return s.Fg == o.Fg && s.Bg == o.Bg && s.Bold == o.Bold &&
		s.Underline == o.Underline && s.Inverse == o.Inverse
}

// DefaultStyle is the style of an unstyled cell.
var DefaultStyle = CellStyle{Fg: NoColor, Bg: NoColor}

// ScreenCell is one cell of the emulator's grid.
type ScreenCell struct {
	Char  rune
	Style CellStyle
}
