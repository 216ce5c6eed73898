package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marc2332/freya-editor/internal/app"
	"github.com/marc2332/freya-editor/internal/config"
	"github.com/marc2332/freya-editor/internal/filetree"
	"github.com/marc2332/freya-editor/internal/fs"
	"github.com/marc2332/freya-editor/internal/state"
)

const waitFor = 2 * time.Second

type fixture struct {
	app    *app.Application
	screen tcell.SimulationScreen
	view   *View
	ctx    context.Context
}

// newFixture runs an application on /proj with src/main.rs open and an
// 80x12 simulated terminal.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := fs.NewMemFS()
	mem.WriteFile("/proj/src/main.rs", "fn main() {}\n")
	mem.WriteFile("/proj/Cargo.toml", "[package]\n")

	cfg := config.Default()
	cfg.LSP.Enabled = false
	cfg.Explorer.Watch = false
	a, err := app.New(app.Options{
		Config:        &cfg,
		WorkspacePath: "/proj",
		Files:         []string{"/proj/src/main.rs"},
		Logger:        app.NullLogger,
		Transport:     mem,
		Engine:        CellEngine{},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	require.Eventually(t, func() bool {
		_, ok := a.ActiveSurface()
		return ok && a.Store().Read().FocusedView() == state.ViewCodeEditor
	}, waitFor, 5*time.Millisecond)

	s := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, s.Init())
	t.Cleanup(s.Fini)
	s.SetSize(80, 12)

	return &fixture{app: a, screen: s, view: NewView(s, a), ctx: ctx}
}

// row returns the text of screen row y between columns x0 and x1.
func (f *fixture) row(y, x0, x1 int) string {
	var b strings.Builder
	for x := x0; x < x1; x++ {
		r, _, _, _ := f.screen.GetContent(x, y) //nolint:staticcheck // GetContent is the correct API
		if r == 0 {
			r = ' '
		}
		b.WriteRune(r)
	}
	return strings.TrimRight(b.String(), " ")
}

func (f *fixture) drawUntil(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		f.view.Draw()
		return cond()
	}, waitFor, 5*time.Millisecond)
}

func TestDraw_Layout(t *testing.T) {
	f := newFixture(t)
	f.view.Draw()

	// Explorer: 26 columns, then the divider.
	assert.Equal(t, "▾ proj", f.row(0, 0, 26))
	assert.Equal(t, "  ▸ src", f.row(1, 0, 26))
	assert.Equal(t, "    Cargo.toml", f.row(2, 0, 26))
	assert.Equal(t, "│", f.row(0, 26, 27))

	assert.Equal(t, " main.rs", f.row(0, 27, 80))
	assert.Equal(t, "   1 fn main() {}", f.row(1, 27, 80))
	assert.Equal(t, "   2", f.row(2, 27, 80))
	assert.Equal(t, " Code Editor | Ln 1, Col 1", f.row(11, 0, 80))
}

func TestHandle_TypingRedraws(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.view.Handle(f.ctx, tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)))

	f.drawUntil(t, func() bool { return f.row(1, 27, 80) == "   1 xfn main() {}" })
	assert.Equal(t, " main.rs *", f.row(0, 27, 80))
	assert.Equal(t, " Code Editor | Ln 1, Col 2", f.row(11, 0, 80))
}

func TestHandle_ClickMovesCursor(t *testing.T) {
	f := newFixture(t)
	f.view.Draw()

	// Text starts after the gutter at column 32.
	require.NoError(t, f.view.Handle(f.ctx, tcell.NewEventMouse(32+3, 1, tcell.Button1, tcell.ModNone)))
	require.NoError(t, f.view.Handle(f.ctx, tcell.NewEventMouse(32+3, 1, tcell.ButtonNone, tcell.ModNone)))

	f.drawUntil(t, func() bool {
		c, _ := f.app.Store().Read().ActiveCursor()
		return c.Col == 3
	})
	assert.Equal(t, " Code Editor | Ln 1, Col 4", f.row(11, 0, 80))
}

func TestHandle_ClickExplorerFolder(t *testing.T) {
	f := newFixture(t)
	f.view.Draw()

	require.NoError(t, f.view.Handle(f.ctx, tcell.NewEventMouse(3, 1, tcell.Button1, tcell.ModNone)))
	f.drawUntil(t, func() bool {
		return len(filetree.FlattenAll(f.app.Store().Read().Folders())) == 4
	})
	assert.Equal(t, "  ▾ src", f.row(1, 0, 26))
	assert.Equal(t, "      main.rs", f.row(2, 0, 26))
	assert.Equal(t, state.ViewFilesExplorer, f.app.Store().Read().FocusedView())
}

func TestHandle_CommandLine(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.view.Handle(f.ctx, tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)))
	for _, r := range "fs 9" {
		require.NoError(t, f.view.Handle(f.ctx, tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)))
	}
	f.view.Draw()
	assert.Equal(t, " > fs 9", f.row(10, 0, 80))
	assert.Equal(t, " Commander | Ln 1, Col 1", f.row(11, 0, 80))

	require.NoError(t, f.view.Handle(f.ctx, tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone)))
	assert.Equal(t, 9.0, f.app.Store().Read().FontSize())
	assert.Equal(t, state.ViewCodeEditor, f.app.Store().Read().FocusedView())
}

func TestRun_QuitStopsApplication(t *testing.T) {
	f := newFixture(t)

	done := make(chan error, 1)
	go func() { done <- f.view.Run(f.ctx) }()
	require.NoError(t, f.screen.PostEvent(tcell.NewEventKey(tcell.KeyCtrlQ, 0, tcell.ModCtrl)))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("Run did not return on Ctrl+Q")
	}
}

func TestGeometry(t *testing.T) {
	m := state.NewManager()
	g := computeGeometry(m, 100, 20)
	assert.Equal(t, rect{}, g.explorer)
	assert.Equal(t, []rect{{X: 0, Y: 0, W: 100, H: 19}}, g.panels)
	assert.Equal(t, rect{X: 0, Y: 19, W: 100, H: 1}, g.status)
	assert.Equal(t, rect{X: 5, Y: 1, W: 94, H: 18}, g.panels[0].textArea())

	m2 := state.NewManager()
	m2.PushPanel(state.NewPanel())
	m2.OpenFolder(filetree.NewFolder("/proj", filetree.Closed))
	m2.SetFocusedView(state.ViewCommander)
	g = computeGeometry(m2, 100, 20)
	assert.Equal(t, rect{X: 0, Y: 0, W: 30, H: 18}, g.explorer)
	assert.Equal(t, rect{X: 0, Y: 18, W: 100, H: 1}, g.command)
	require.Len(t, g.panels, 2)
	assert.Equal(t, rect{X: 31, Y: 0, W: 34, H: 18}, g.panels[0])
	assert.Equal(t, rect{X: 65, Y: 0, W: 35, H: 18}, g.panels[1])
}

func TestKeepVisible(t *testing.T) {
	assert.Equal(t, 0, keepVisible(0, 3, 10))
	assert.Equal(t, 2, keepVisible(5, 2, 10))
	assert.Equal(t, 11, keepVisible(0, 20, 10))
	assert.Equal(t, 4, keepVisible(4, 4, 0))
}

func TestCellEngine(t *testing.T) {
	var e CellEngine
	assert.Equal(t, 4.0, e.LineWidth("ab日", 17))
	assert.Equal(t, 2, e.GlyphAt("ab日c", 17, 3))
	assert.Equal(t, 3, e.GlyphAt("ab日c", 17, 4))
}
