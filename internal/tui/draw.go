package tui

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"

	"github.com/marc2332/freya-editor/internal/app"
	"github.com/marc2332/freya-editor/internal/filetree"
	"github.com/marc2332/freya-editor/internal/highlight"
	"github.com/marc2332/freya-editor/internal/state"
)

// View draws an Application on a terminal screen.
type View struct {
	screen tcell.Screen
	app    *app.Application

	// Display state of the last Draw, used to map mouse positions.
	explorerTop int
	tops        map[state.Scope]int
	tabHits     []tabHit

	pressed  bool
	hovered  state.Scope
	hovering bool
}

type tabHit struct {
	panel, tab int
	r          rect
}

// NewView creates a view of a on screen. The screen must be initialized.
func NewView(screen tcell.Screen, a *app.Application) *View {
	return &View{screen: screen, app: a, tops: make(map[state.Scope]int)}
}

// Draw renders the current state and shows it.
func (v *View) Draw() {
	s := v.screen
	s.SetStyle(styleBase)
	s.Clear()
	s.HideCursor()

	w, h := s.Size()
	m := v.app.Store().Read()
	g := computeGeometry(m, w, h)

	v.tabHits = v.tabHits[:0]
	clear(v.tops)

	v.drawExplorer(m, g.explorer)
	for i, r := range g.panels {
		v.drawPanel(m, i, r)
		if i < len(g.panels)-1 {
			v.vline(r.X+r.W-1, r.Y, r.H)
		}
	}
	if g.command.H > 0 {
		v.drawCommand(g.command)
	}
	v.text(g.status.X+1, g.status.Y, g.status.W-1, v.app.StatusLine(), styleStatus)
	s.Show()
}

func (v *View) drawExplorer(m *state.Manager, r rect) {
	if r.W == 0 {
		return
	}
	rows := filetree.FlattenAll(m.Folders())
	focus := m.ExplorerFocus()
	v.explorerTop = keepVisible(v.explorerTop, focus, r.H)

	focused := m.FocusedView() == state.ViewFilesExplorer
	for i := 0; i < r.H; i++ {
		row := v.explorerTop + i
		if row >= len(rows) {
			break
		}
		it := rows[row]
		icon := "  "
		switch {
		case it.IsFile:
		case it.IsOpened:
			icon = "▾ "
		default:
			icon = "▸ "
		}

		style := styleBase
		if row == focus {
			style = styleFocused
			if focused {
				style = styleSelected
			}
			v.fill(rect{X: r.X, Y: r.Y + i, W: r.W, H: 1}, style)
		}
		label := strings.Repeat("  ", it.Depth) + icon + filepath.Base(it.Path)
		v.text(r.X, r.Y+i, r.W, label, style)
	}
	v.vline(r.X+r.W, r.Y, r.H)
}

func (v *View) drawPanel(m *state.Manager, i int, r rect) {
	panel := m.Panel(i)
	active, hasActive := panel.ActiveTab()

	x := r.X
	for t, tab := range panel.Tabs() {
		d := tab.Data()
		label := " " + d.Title
		if d.Edited {
			label += " *"
		}
		label += " "
		style := styleTab
		if hasActive && t == active {
			style = styleTabActive
		}
		n := v.text(x, r.Y, r.X+r.W-x, label, style)
		v.tabHits = append(v.tabHits, tabHit{panel: i, tab: t, r: rect{X: x, Y: r.Y, W: n, H: 1}})
		x += n
	}

	body := rect{X: r.X, Y: r.Y + tabBarHeight, W: r.W, H: r.H - tabBarHeight}
	v.fill(body, styleEditor)
	if !hasActive {
		v.centered(body, "freya", styleGutter)
		return
	}
	e, ok := m.LookupEditor(i, active)
	if !ok {
		v.centered(body, "Config", styleGutter)
		return
	}

	var metrics highlight.Metrics
	scroll := 0
	s, hasSurface := v.app.Surface(i, active)
	if hasSurface {
		s.Measure()
		metrics = s.Metrics()
		scroll = s.Keys().Scroll()
	}

	ta := r.textArea()
	cursor := e.Buffer.Cursor()
	top := keepVisible(scrollTop(m, scroll), cursor.Row, ta.H)
	scope := state.ScopeTab(i, active)
	v.tops[scope] = top

	for row := 0; row < ta.H; row++ {
		line := top + row
		if line >= e.Buffer.LineCount() {
			break
		}
		v.text(r.X, ta.Y+row, gutterWidth, fmt.Sprintf("%4d ", line+1), styleGutter)
		var spans []highlight.Span
		if line < len(metrics.Lines) {
			spans = metrics.Lines[line]
		}
		v.line(ta.X, ta.Y+row, ta.W, e.Buffer.Line(line), spans)
	}

	if m.FocusedView() == state.ViewCodeEditor && m.FocusedPanel() == i {
		if y := cursor.Row - top; y >= 0 && y < ta.H {
			runes := []rune(e.Buffer.Line(cursor.Row))
			prefix := string(runes[:min(cursor.Col, len(runes))])
			v.screen.ShowCursor(ta.X+uniseg.StringWidth(prefix), ta.Y+y)
		}
	}

	if hasSurface {
		if res, ok := s.Hover().Result(); ok {
			if y := res.Line - top + 1; y >= 0 && y < ta.H {
				first, _, _ := strings.Cut(res.Text, "\n")
				v.text(ta.X, ta.Y+y, ta.W, " "+first+" ", styleHover)
			}
		}
	}
}

func (v *View) drawCommand(r rect) {
	c := v.app.Commander()
	v.fill(r, styleCommand)
	input := "> " + c.Input()
	n := v.text(r.X+1, r.Y, r.W-1, input, styleCommand)
	v.screen.ShowCursor(r.X+1+n, r.Y)
	if out := c.Output(); out != "" && n+3 < r.W {
		v.text(r.X+n+3, r.Y, r.W-n-3, out, styleOutput)
	}
}

// scrollTop converts a scroll offset to the first visible line.
func scrollTop(m *state.Manager, scroll int) int {
	lineH := math.Max(math.Floor(m.FontSize()*m.LineHeight()), 1)
	return max(int(-float64(scroll)/lineH), 0)
}

// keepVisible moves top so that row is one of the n rows shown.
func keepVisible(top, row, n int) int {
	if n <= 0 {
		return top
	}
	if row < top {
		return row
	}
	if row >= top+n {
		return row - n + 1
	}
	return max(top, 0)
}

// text draws s clipped to width cells and returns the cells used.
func (v *View) text(x, y, width int, s string, style tcell.Style) int {
	used := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		w := g.Width()
		if used+w > width {
			break
		}
		r := g.Runes()
		v.screen.SetContent(x+used, y, r[0], r[1:], style)
		used += w
	}
	return used
}

// line draws one buffer line colored by spans.
func (v *View) line(x, y, width int, s string, spans []highlight.Span) {
	used, idx := 0, 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		w := g.Width()
		r := g.Runes()
		if used+w > width {
			return
		}
		if r[0] == '\t' {
			r, w = []rune{' '}, 1
		}
		v.screen.SetContent(x+used, y, r[0], r[1:], kindStyle(kindAt(spans, idx)))
		used += w
		idx += len(g.Runes())
	}
}

func kindAt(spans []highlight.Span, idx int) highlight.Kind {
	for _, sp := range spans {
		if idx >= sp.Start && idx < sp.End {
			return sp.Kind
		}
	}
	return highlight.KindText
}

func (v *View) fill(r rect, style tcell.Style) {
	for y := r.Y; y < r.Y+r.H; y++ {
		for x := r.X; x < r.X+r.W; x++ {
			v.screen.SetContent(x, y, ' ', nil, style)
		}
	}
}

func (v *View) vline(x, y, n int) {
	for i := 0; i < n; i++ {
		v.screen.SetContent(x, y+i, '│', nil, styleDivider)
	}
}

func (v *View) centered(r rect, s string, style tcell.Style) {
	w := uniseg.StringWidth(s)
	v.text(r.X+max((r.W-w)/2, 0), r.Y+r.H/2, r.W, s, style)
}
