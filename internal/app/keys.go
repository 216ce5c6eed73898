package app

import (
	"context"

	"github.com/marc2332/freya-editor/internal/config"
	"github.com/marc2332/freya-editor/internal/input/key"
	"github.com/marc2332/freya-editor/internal/layout"
	"github.com/marc2332/freya-editor/internal/state"
)

// HandleKey routes a key event. Global shortcuts come first:
//
//	Ctrl+Q    quit
//	Escape    toggle the command line
//	Alt+E     toggle between the explorer and the code editor
//	Alt++     grow the font
//	Alt+-     shrink the font
//
// In the code editor Alt+H shows the hover under the pointer without
// waiting for the hover delay. Anything else goes to the focused view. ErrQuit is returned for Ctrl+Q.
func (app *Application) HandleKey(ctx context.Context, ev key.Event) error {
	if handled, err := app.handleGlobalKey(ctx, ev); handled || err != nil {
		return err
	}

	switch app.store.Read().FocusedView() {
	case state.ViewCommander:
		if ev.Key == key.KeyEnter {
			app.commander.HandleKey(ctx, ev)
			return app.store.Submit(ctx, state.ScopeAll, func(m *state.Manager) {
				m.SetFocusedViewToPrevious()
			})
		}
		app.commander.HandleKey(ctx, ev)
		return nil
	case state.ViewFilesExplorer:
		_, err := app.explorer.HandleKey(ctx, ev)
		return err
	default:
		s, ok := app.ActiveSurface()
		if !ok {
			return nil
		}
		if ev.Key == key.KeyRune && ev.Modifiers.HasAlt() && (ev.Rune == 'h' || ev.Rune == 'H') {
			s.Hover().ShowNow()
			return nil
		}
		s.Keys().Send(ev)
		return nil
	}
}

func (app *Application) handleGlobalKey(ctx context.Context, ev key.Event) (bool, error) {
	switch {
	case ev.Key == key.KeyRune && ev.Rune == 'q' && ev.Modifiers.HasCtrl():
		return true, ErrQuit

	case ev.Key == key.KeyEscape:
		return true, app.store.Submit(ctx, state.ScopeAll, func(m *state.Manager) {
			if m.FocusedView() == state.ViewCommander {
				m.SetFocusedViewToPrevious()
			} else {
				m.SetFocusedView(state.ViewCommander)
			}
		})

	case ev.Key == key.KeyRune && ev.Modifiers.HasAlt():
		switch ev.Rune {
		case '+', '=':
			return true, app.SetFontSize(ctx, app.FontSize()+config.FontSizeStep)
		case '-':
			return true, app.SetFontSize(ctx, app.FontSize()-config.FontSizeStep)
		case 'e', 'E':
			return true, app.store.Submit(ctx, state.ScopeAll, func(m *state.Manager) {
				if m.FocusedView() == state.ViewFilesExplorer {
					m.SetFocusedView(state.ViewCodeEditor)
				} else {
					m.SetFocusedView(state.ViewFilesExplorer)
				}
			})
		}
	}
	return false, nil
}

// PointerDown leaves the command line when it is focused. Any other
// press is a no-op here; editor clicks go through Click.
func (app *Application) PointerDown(ctx context.Context) error {
	_, err := app.store.SubmitChange(ctx, state.ScopeAll, func(m *state.Manager) bool {
		if m.FocusedView() != state.ViewCommander {
			return false
		}
		m.SetFocusedViewToPrevious()
		return true
	})
	return err
}

// Click handles a press on line of panel at p: the panel's active editor
// is focused, along with the code editor view, and the click moves its
// cursor. A panel without an editor is just focused.
func (app *Application) Click(ctx context.Context, panel, line int, p layout.Point) error {
	if err := app.PointerDown(ctx); err != nil {
		return err
	}
	m := app.store.Read()
	if panel < 0 || panel >= len(m.Panels()) {
		return nil
	}
	tab, ok := m.Panel(panel).ActiveTab()
	if !ok {
		return app.FocusPanel(ctx, panel)
	}
	s, ok := app.Surface(panel, tab)
	if !ok {
		return app.FocusPanel(ctx, panel)
	}
	if err := s.Focus(ctx); err != nil {
		return err
	}
	s.Click(line, p)
	return nil
}

// FocusPanel focuses panel i. Out-of-range panels are ignored.
func (app *Application) FocusPanel(ctx context.Context, i int) error {
	_, err := app.store.SubmitChange(ctx, state.ScopeAll, func(m *state.Manager) bool {
		if i < 0 || i >= len(m.Panels()) || m.FocusedPanel() == i {
			return false
		}
		m.SetFocusedPanel(i)
		return true
	})
	return err
}

// SelectTab focuses panel and activates its tab.
func (app *Application) SelectTab(ctx context.Context, panel, tab int) error {
	_, err := app.store.SubmitChange(ctx, state.ScopeAll, func(m *state.Manager) bool {
		if !validTab(m, panel, tab) {
			return false
		}
		m.SetFocusedTab(panel, tab)
		return true
	})
	return err
}

// CloseTab closes the tab at (panel, tab).
func (app *Application) CloseTab(ctx context.Context, panel, tab int) error {
	_, err := app.store.SubmitChange(ctx, state.ScopeAll, func(m *state.Manager) bool {
		if !validTab(m, panel, tab) {
			return false
		}
		m.CloseEditor(panel, tab)
		return true
	})
	return err
}

// SplitPanel adds an empty panel and focuses it.
func (app *Application) SplitPanel(ctx context.Context) error {
	return app.store.Submit(ctx, state.ScopeAll, func(m *state.Manager) {
		m.SplitPanel()
	})
}

// ClosePanel removes panel i. The last panel is never removed.
func (app *Application) ClosePanel(ctx context.Context, i int) error {
	_, err := app.store.SubmitChange(ctx, state.ScopeAll, func(m *state.Manager) bool {
		if i < 0 || i >= len(m.Panels()) || len(m.Panels()) == 1 {
			return false
		}
		m.ClosePanel(i)
		return true
	})
	return err
}

func validTab(m *state.Manager, panel, tab int) bool {
	return panel >= 0 && panel < len(m.Panels()) && tab >= 0 && tab < m.Panel(panel).Len()
}
