package editor

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/marc2332/freya-editor/internal/debounce"
	"github.com/marc2332/freya-editor/internal/engine/buffer"
	"github.com/marc2332/freya-editor/internal/highlight"
	"github.com/marc2332/freya-editor/internal/layout"
	"github.com/marc2332/freya-editor/internal/lsp"
	"github.com/marc2332/freya-editor/internal/state"
)

// Default surface settings.
const (
	DefaultHoverDelay = 300 * time.Millisecond
	DefaultQueueSize  = 256
)

// Option configures a Surface.
type Option func(*Surface)

// WithLogger sets the logger used for soft failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Surface) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithHoverDelay sets how long the pointer must rest before hovering.
func WithHoverDelay(d time.Duration) Option {
	return func(s *Surface) {
		if d > 0 {
			s.hoverDelay = d
		}
	}
}

// WithLanguageServer sets the language server the surface hovers against.
// A nil config disables hover.
func WithLanguageServer(cfg *lsp.Config) Option {
	return func(s *Surface) {
		s.lspConfig = cfg
	}
}

// WithEngine sets the layout engine. Defaults to layout.Mono.
func WithEngine(eng layout.Engine) Option {
	return func(s *Surface) {
		if eng != nil {
			s.engine = eng
		}
	}
}

// WithQueueSize sets the capacity of each input queue.
func WithQueueSize(n int) Option {
	return func(s *Surface) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// WithKeyHook is called after each applied key event with its outcome.
func WithKeyHook(fn func(buffer.TextEvent)) Option {
	return func(s *Surface) {
		s.onKey = fn
	}
}

// WithHoverHook is called with the outcome of each hover request.
func WithHoverHook(fn func(HoverOutcome)) Option {
	return func(s *Surface) {
		s.onHover = fn
	}
}

// WithRender is called whenever the surface needs to be drawn again: on
// writes to its tab scope and when the hover changes.
func WithRender(fn func()) Option {
	return func(s *Surface) {
		s.render = fn
	}
}

// Surface is the code editor for the tab at (Panel, Tab).
type Surface struct {
	store      *state.Store
	panel, tab int

	logger     *slog.Logger
	hoverDelay time.Duration
	lspConfig  *lsp.Config
	engine     layout.Engine
	queueSize  int
	onKey      func(buffer.TextEvent)
	onHover    func(HoverOutcome)
	render     func()

	sub    *state.Subscription
	keys   *Keypress
	cursor *CursorSync
	hover  *HoverLoop
	spans  *highlight.Loop
}

// NewSurface creates the surface for the tab at (panel, tab). Its loops
// start with Run.
func NewSurface(store *state.Store, panel, tab int, opts ...Option) *Surface {
	s := &Surface{
		store:      store,
		panel:      panel,
		tab:        tab,
		logger:     slog.Default(),
		hoverDelay: DefaultHoverDelay,
		engine:     layout.Mono{},
		queueSize:  DefaultQueueSize,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.keys = newKeypress(store, panel, tab, s.queueSize)
	s.keys.onApplied = s.onKey
	s.cursor = newCursorSync(store, panel, tab, s.queueSize)
	s.hover = newHoverLoop(store, panel, tab, s.lspConfig, debounce.Acquire(s.hoverDelay),
		s.logger.With("panel", panel, "tab", tab), s.queueSize)
	s.hover.onOutcome = s.onHover
	s.hover.onChange = s.notify
	s.spans = highlight.NewLoop(store, panel, tab, s.engine, s.notify)

	s.sub = store.Subscribe(state.ScopeTab(panel, tab), s.notify)
	return s
}

// Scope returns the notification scope of the surface.
func (s *Surface) Scope() state.Scope { return state.ScopeTab(s.panel, s.tab) }

// Keys returns the keypress pipeline.
func (s *Surface) Keys() *Keypress { return s.keys }

// Cursor returns the cursor synchronization channel.
func (s *Surface) Cursor() *CursorSync { return s.cursor }

// Hover returns the hover loop.
func (s *Surface) Hover() *HoverLoop { return s.hover }

// Metrics returns the highlighted lines and content width.
func (s *Surface) Metrics() highlight.Metrics { return s.spans.Metrics() }

// Engine returns the layout engine.
func (s *Surface) Engine() layout.Engine { return s.engine }

// Run starts the surface loops and blocks until ctx is done or one of
// them fails. The surface's subscription is removed on return.
func (s *Surface) Run(ctx context.Context) error {
	defer s.sub.Unsubscribe()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.keys.run(ctx) })
	g.Go(func() error { return s.cursor.runClicks(ctx) })
	g.Go(func() error { return s.cursor.runResponses(ctx) })
	g.Go(func() error { return s.hover.run(ctx) })
	g.Go(func() error { return s.spans.Run(ctx, s.keys.Highlight()) })
	return g.Wait()
}

// Focus makes the surface's tab the active tab of the focused panel and
// focuses the code editor view. Every observer is notified.
func (s *Surface) Focus(ctx context.Context) error {
	_, err := s.store.SubmitChange(ctx, state.ScopeAll, func(m *state.Manager) bool {
		changed := false
		if m.FocusedView() != state.ViewCodeEditor {
			m.SetFocusedView(state.ViewCodeEditor)
			changed = true
		}
		if !m.IsActiveTab(s.panel, s.tab) {
			if _, ok := m.LookupEditor(s.panel, s.tab); !ok {
				return changed
			}
			m.SetFocusedTab(s.panel, s.tab)
			changed = true
		}
		return changed
	})
	return err
}

// Click handles a click on line at p: the panel must be focused, then the
// click is resolved to a cursor position by the next Measure.
func (s *Surface) Click(line int, p layout.Point) {
	if s.store.Read().FocusedPanel() != s.panel {
		return
	}
	s.cursor.Click(p, line)
}

// Measure runs the layout side of a cursor request, if one is pending.
func (s *Surface) Measure() bool {
	return s.cursor.Measure(s.engine)
}

// PointerMoved forwards pointer movement to the hover loop.
func (s *Surface) PointerMoved(line int, p layout.Point) {
	s.hover.PointerMoved(s.engine, line, p)
}

// PointerLeft clears the hover.
func (s *Surface) PointerLeft() {
	s.hover.Clear()
}

func (s *Surface) notify() {
	if s.render != nil {
		s.render()
	}
}
