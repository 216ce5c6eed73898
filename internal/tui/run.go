package tui

import (
	"context"
	"errors"

	"github.com/gdamore/tcell/v2"

	"github.com/marc2332/freya-editor/internal/app"
	"github.com/marc2332/freya-editor/internal/input/key"
	"github.com/marc2332/freya-editor/internal/layout"
	"github.com/marc2332/freya-editor/internal/state"
)

// Run draws on every state change and handles terminal events until ctx
// is done or the user quits, which also stops the application.
func (v *View) Run(ctx context.Context) error {
	v.screen.EnableMouse(tcell.MouseMotionEvents)

	events := make(chan tcell.Event, 64)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	v.Draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-v.app.Redraw():
			v.Draw()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := v.Handle(ctx, ev); err != nil {
				if errors.Is(err, app.ErrQuit) {
					v.app.Quit()
					return nil
				}
				return err
			}
		}
	}
}

// Handle applies one terminal event.
func (v *View) Handle(ctx context.Context, ev tcell.Event) error {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		k := key.FromTcell(ev)
		if k.Key == key.KeyNone {
			return nil
		}
		return v.app.HandleKey(ctx, k)
	case *tcell.EventMouse:
		return v.handleMouse(ctx, ev)
	case *tcell.EventResize:
		v.screen.Sync()
		v.Draw()
	}
	return nil
}

func (v *View) handleMouse(ctx context.Context, ev *tcell.EventMouse) error {
	x, y := ev.Position()
	pressed := ev.Buttons()&tcell.Button1 != 0
	wasPressed := v.pressed
	v.pressed = pressed

	w, h := v.screen.Size()
	m := v.app.Store().Read()
	g := computeGeometry(m, w, h)

	if pressed && !wasPressed {
		return v.press(ctx, m, g, x, y)
	}
	if !pressed {
		v.motion(m, g, x, y)
	}
	return nil
}

func (v *View) press(ctx context.Context, m *state.Manager, g geometry, x, y int) error {
	if g.explorer.contains(x, y) {
		if err := v.app.PointerDown(ctx); err != nil {
			return err
		}
		v.app.Explorer().Activate(v.explorerTop + y - g.explorer.Y)
		return nil
	}

	for _, hit := range v.tabHits {
		if hit.r.contains(x, y) {
			return v.app.SelectTab(ctx, hit.panel, hit.tab)
		}
	}

	for i, r := range g.panels {
		if !r.contains(x, y) {
			continue
		}
		ta := r.textArea()
		tab, ok := m.Panel(i).ActiveTab()
		if !ok || !ta.contains(x, y) {
			if err := v.app.PointerDown(ctx); err != nil {
				return err
			}
			return v.app.FocusPanel(ctx, i)
		}
		line := v.tops[state.ScopeTab(i, tab)] + y - ta.Y
		return v.app.Click(ctx, i, line, layout.Point{X: float64(x - ta.X), Y: 0})
	}
	return v.app.PointerDown(ctx)
}

// motion feeds pointer movement over editor text to the hover loop of
// that editor; leaving an editor clears its hover.
func (v *View) motion(m *state.Manager, g geometry, x, y int) {
	for i, r := range g.panels {
		ta := r.textArea()
		if !ta.contains(x, y) {
			continue
		}
		tab, ok := m.Panel(i).ActiveTab()
		if !ok {
			break
		}
		scope := state.ScopeTab(i, tab)
		s, ok := v.app.Surface(i, tab)
		if !ok {
			break
		}
		if v.hovering && v.hovered != scope {
			v.leave()
		}
		v.hovered, v.hovering = scope, true
		s.PointerMoved(v.tops[scope]+y-ta.Y, layout.Point{X: float64(x - ta.X)})
		return
	}
	v.leave()
}

func (v *View) leave() {
	if !v.hovering {
		return
	}
	v.hovering = false
	panel, tab, _ := v.hovered.Tab()
	if s, ok := v.app.Surface(panel, tab); ok {
		s.PointerLeft()
	}
}
