package tui

import "github.com/marc2332/freya-editor/internal/layout"

// CellEngine measures text in terminal cells. The font size has no
// effect on a terminal grid.
type CellEngine struct{}

var cells = layout.Mono{Advance: 1}

// LineWidth implements layout.Engine.
func (CellEngine) LineWidth(line string, _ float64) float64 {
	return cells.LineWidth(line, 1)
}

// GlyphAt implements layout.Engine.
func (CellEngine) GlyphAt(line string, _ float64, x float64) int {
	return cells.GlyphAt(line, 1, x)
}
