// Package layout measures editor lines and maps pointer coordinates to
// glyph offsets.
//
// The editor core never lays text out itself. It asks an Engine for line
// widths and glyph positions; a real renderer provides its own Engine,
// Mono serves headless use and tests.
package layout

import (
	"math"

	"github.com/rivo/uniseg"
)

// Point is a coordinate relative to the top-left corner of a line.
type Point struct {
	X, Y float64
}

// Engine measures single lines of text.
type Engine interface {
	// LineWidth returns the intrinsic width of line at fontSize.
	LineWidth(line string, fontSize float64) float64

	// GlyphAt returns the rune offset of the glyph under x. Coordinates
	// past the end of the line map to the line's rune length.
	GlyphAt(line string, fontSize float64, x float64) int
}

// DefaultAdvance is the advance of one cell as a fraction of the font size.
const DefaultAdvance = 0.6

// Mono is a monospace Engine. Each grapheme cluster takes as many cells as
// its display width (wide CJK characters take two).
type Mono struct {
	// Advance is the cell width as a fraction of the font size.
	// Zero means DefaultAdvance.
	Advance float64
}

func (m Mono) cell(fontSize float64) float64 {
	adv := m.Advance
	if adv <= 0 {
		adv = DefaultAdvance
	}
	return fontSize * adv
}

// LineWidth implements Engine.
func (m Mono) LineWidth(line string, fontSize float64) float64 {
	return float64(uniseg.StringWidth(trimNewline(line))) * m.cell(fontSize)
}

// GlyphAt implements Engine.
func (m Mono) GlyphAt(line string, fontSize float64, x float64) int {
	line = trimNewline(line)
	cell := m.cell(fontSize)
	if x <= 0 || cell <= 0 {
		return 0
	}
	target := int(math.Floor(x / cell))

	runes, cells := 0, 0
	state := -1
	rest := line
	for len(rest) > 0 {
		var cluster string
		var width int
		cluster, rest, width, state = uniseg.FirstGraphemeClusterInString(rest, state)
		if cells+width > target {
			return runes
		}
		cells += width
		runes += len([]rune(cluster))
	}
	return runes
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
