package highlight

import (
	"context"
	"sync"

	"github.com/marc2332/freya-editor/internal/layout"
	"github.com/marc2332/freya-editor/internal/state"
)

// Metrics is what a surface renders from: the spans of each line and the
// width of the widest line.
type Metrics struct {
	Lines [][]Span
	Width float64
}

// Loop keeps the metrics of one editor tab current. It recomputes them
// once at start and again on every signal from its trigger channel.
type Loop struct {
	store      *state.Store
	panel, tab int
	engine     layout.Engine
	onUpdate   func()

	mu      sync.RWMutex
	metrics Metrics
}

// NewLoop creates the loop for the tab at (panel, tab). onUpdate, if not
// nil, is called after each recomputation.
func NewLoop(store *state.Store, panel, tab int, eng layout.Engine, onUpdate func()) *Loop {
	return &Loop{
		store:    store,
		panel:    panel,
		tab:      tab,
		engine:   eng,
		onUpdate: onUpdate,
	}
}

// Metrics returns the last computed metrics.
func (l *Loop) Metrics() Metrics {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.metrics
}

// Run recomputes on each trigger until ctx is done.
func (l *Loop) Run(ctx context.Context, trigger <-chan struct{}) error {
	l.Refresh()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-trigger:
			l.Refresh()
		}
	}
}

// Refresh recomputes the metrics from the committed state.
func (l *Loop) Refresh() {
	m := l.store.Read()
	e, ok := m.LookupEditor(l.panel, l.tab)
	if !ok {
		return
	}

	text := e.Buffer.Text()
	metrics := Metrics{Lines: Spans(text, e.LanguageID)}
	for row, n := 0, e.Buffer.LineCount(); row < n; row++ {
		metrics.Width = max(metrics.Width, l.engine.LineWidth(e.Buffer.Line(row), m.FontSize()))
	}

	l.mu.Lock()
	l.metrics = metrics
	l.mu.Unlock()
	if l.onUpdate != nil {
		l.onUpdate()
	}
}
