package tui

import (
	"github.com/gdamore/tcell/v2"

	"github.com/marc2332/freya-editor/internal/highlight"
)

var (
	styleBase      = tcell.StyleDefault.Background(tcell.NewRGBColor(20, 20, 20)).Foreground(tcell.NewRGBColor(220, 220, 220))
	styleEditor    = tcell.StyleDefault.Background(tcell.NewRGBColor(40, 40, 40)).Foreground(tcell.NewRGBColor(220, 220, 220))
	styleGutter    = styleEditor.Foreground(tcell.NewRGBColor(120, 120, 120))
	styleDivider   = styleBase.Foreground(tcell.NewRGBColor(60, 60, 60))
	styleStatus    = styleBase.Foreground(tcell.NewRGBColor(200, 200, 200))
	styleTab       = styleBase.Foreground(tcell.NewRGBColor(150, 150, 150))
	styleTabActive = styleEditor.Bold(true)
	styleSelected  = styleBase.Background(tcell.NewRGBColor(55, 55, 55)).Bold(true)
	styleFocused   = styleBase.Background(tcell.NewRGBColor(35, 35, 35))
	styleHover     = styleBase.Background(tcell.NewRGBColor(60, 60, 60)).Foreground(tcell.NewRGBColor(240, 240, 240))
	styleCommand   = styleBase.Background(tcell.NewRGBColor(45, 45, 45)).Foreground(tcell.ColorWhite)
	styleOutput    = styleCommand.Foreground(tcell.NewRGBColor(150, 150, 150))
)

var kindColors = map[highlight.Kind]tcell.Color{
	highlight.KindKeyword:     tcell.NewRGBColor(197, 134, 192),
	highlight.KindName:        tcell.NewRGBColor(156, 220, 254),
	highlight.KindString:      tcell.NewRGBColor(206, 145, 120),
	highlight.KindNumber:      tcell.NewRGBColor(181, 206, 168),
	highlight.KindComment:     tcell.NewRGBColor(106, 153, 85),
	highlight.KindOperator:    tcell.NewRGBColor(212, 212, 212),
	highlight.KindPunctuation: tcell.NewRGBColor(180, 180, 180),
}

func kindStyle(k highlight.Kind) tcell.Style {
	if c, ok := kindColors[k]; ok {
		return styleEditor.Foreground(c)
	}
	return styleEditor
}
