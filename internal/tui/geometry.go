package tui

import "github.com/marc2332/freya-editor/internal/state"

// Fixed parts of the screen.
const (
	explorerWidth = 30
	gutterWidth   = 5
	tabBarHeight  = 1
)

type rect struct {
	X, Y, W, H int
}

func (r rect) contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// geometry splits the screen: the explorer column on the left when a
// workspace is open, the panels side by side, the command line and the
// status line at the bottom.
type geometry struct {
	explorer rect
	panels   []rect
	command  rect
	status   rect
}

func computeGeometry(m *state.Manager, w, h int) geometry {
	var g geometry
	g.status = rect{X: 0, Y: h - 1, W: w, H: 1}
	bodyH := h - 1
	if m.FocusedView() == state.ViewCommander {
		g.command = rect{X: 0, Y: h - 2, W: w, H: 1}
		bodyH--
	}
	bodyH = max(bodyH, 0)

	x := 0
	if len(m.Folders()) > 0 {
		ew := min(explorerWidth, w/3)
		g.explorer = rect{X: 0, Y: 0, W: ew, H: bodyH}
		x = ew + 1
	}

	n := len(m.Panels())
	if n == 0 {
		return g
	}
	avail := max(w-x, 0)
	pw := avail / n
	for i := 0; i < n; i++ {
		width := pw
		if i == n-1 {
			width = avail - pw*(n-1)
		}
		g.panels = append(g.panels, rect{X: x + i*pw, Y: 0, W: width, H: bodyH})
	}
	return g
}

// textArea is the part of a panel showing buffer lines.
func (r rect) textArea() rect {
	return rect{
		X: r.X + gutterWidth,
		Y: r.Y + tabBarHeight,
		W: max(r.W-gutterWidth-1, 0),
		H: max(r.H-tabBarHeight, 0),
	}
}
