package editor

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/marc2332/freya-editor/internal/debounce"
	"github.com/marc2332/freya-editor/internal/layout"
	"github.com/marc2332/freya-editor/internal/lsp"
	"github.com/marc2332/freya-editor/internal/state"
)

// HoverOutcome classifies what happened to one hover request.
type HoverOutcome string

const (
	HoverStored        HoverOutcome = "stored"
	HoverEmpty         HoverOutcome = "empty"
	HoverFailed        HoverOutcome = "failed"
	HoverStale         HoverOutcome = "stale"
	HoverStillIndexing HoverOutcome = "still_indexing"
	HoverNotRunning    HoverOutcome = "not_running"
)

// HoverResult is hover text shown for a line.
type HoverResult struct {
	Line int
	Text string
}

type hoverAction struct {
	clear bool
	pos   lsp.Position
}

// HoverLoop resolves hover requests for one surface against the language
// server bridge of its file.
type HoverLoop struct {
	store      *state.Store
	panel, tab int
	cfg        *lsp.Config
	logger     *slog.Logger
	debouncer  *debounce.Handle

	actions   chan hoverAction
	onOutcome func(HoverOutcome)
	onChange  func()

	mu     sync.Mutex
	target int // line under the pointer, -1 when none
	result *HoverResult
}

func newHoverLoop(store *state.Store, panel, tab int, cfg *lsp.Config, d *debounce.Handle, logger *slog.Logger, queue int) *HoverLoop {
	return &HoverLoop{
		store:     store,
		panel:     panel,
		tab:       tab,
		cfg:       cfg,
		logger:    logger,
		debouncer: d,
		actions:   make(chan hoverAction, queue),
		target:    -1,
	}
}

// Result returns the hover text currently shown, if any.
func (h *HoverLoop) Result() (HoverResult, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.result == nil {
		return HoverResult{}, false
	}
	return *h.result, true
}

// Target returns the line the pointer is over, or -1.
func (h *HoverLoop) Target() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.target
}

// Hover queues a request for pos and makes pos.Line the hover target.
func (h *HoverLoop) Hover(pos lsp.Position) {
	h.setTarget(pos.Line)
	h.actions <- hoverAction{pos: pos}
}

// Clear queues removal of the shown hover. Pending debounced requests are
// cancelled.
func (h *HoverLoop) Clear() {
	h.debouncer.Cancel()
	h.setTarget(-1)
	h.actions <- hoverAction{clear: true}
}

// PointerMoved handles the pointer moving over line at p. Over text, a
// hover request for the glyph under the pointer is sent once the pointer
// rests for the debounce delay; past the end of the text the hover is
// cleared.
func (h *HoverLoop) PointerMoved(eng layout.Engine, line int, p layout.Point) {
	m := h.store.Read()
	e, ok := m.LookupEditor(h.panel, h.tab)
	if !ok || line < 0 || line >= e.Buffer.LineCount() {
		return
	}
	text := e.Buffer.Line(line)
	fontSize := m.FontSize()

	if p.X >= eng.LineWidth(text, fontSize) {
		h.Clear()
		return
	}

	h.setTarget(line)
	h.debouncer.Trigger(func() {
		h.Hover(lsp.Position{Line: line, Character: eng.GlyphAt(text, fontSize, p.X)})
	})
}

// ShowNow sends the debounced hover request immediately instead of
// waiting out the delay. Reports whether one was waiting.
func (h *HoverLoop) ShowNow() bool {
	return h.debouncer.Flush()
}

func (h *HoverLoop) setTarget(line int) {
	h.mu.Lock()
	h.target = line
	h.mu.Unlock()
}

func (h *HoverLoop) run(ctx context.Context) error {
	defer h.debouncer.Cancel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case a := <-h.actions:
			if a.clear {
				h.set(nil)
				continue
			}
			h.outcome(h.request(ctx, a.pos))
		}
	}
}

func (h *HoverLoop) request(ctx context.Context, pos lsp.Position) HoverOutcome {
	if h.cfg == nil {
		return HoverNotRunning
	}
	bridge := h.store.Read().Bridge(h.cfg.Key())
	if bridge == nil {
		h.logger.Info("LSP: not running", "server", h.cfg.ServerID)
		return HoverNotRunning
	}
	e, ok := h.store.Read().LookupEditor(h.panel, h.tab)
	if !ok {
		return HoverFailed
	}

	text, ok, err := bridge.Hover(ctx, e.Path, pos)
	switch {
	case errors.Is(err, lsp.ErrStillIndexing):
		h.logger.Info("LSP: still indexing", "server", h.cfg.ServerID)
		return HoverStillIndexing
	case err != nil:
		if ctx.Err() == nil {
			h.logger.Warn("hover request failed", "path", e.Path, "error", err)
		}
		h.set(nil)
		return HoverFailed
	case !ok:
		h.set(nil)
		return HoverEmpty
	}

	if target := h.Target(); target != pos.Line {
		h.dropUnless(target)
		return HoverStale
	}
	h.set(&HoverResult{Line: pos.Line, Text: text})
	return HoverStored
}

func (h *HoverLoop) set(r *HoverResult) {
	h.mu.Lock()
	changed := r != nil || h.result != nil
	h.result = r
	h.mu.Unlock()
	if changed && h.onChange != nil {
		h.onChange()
	}
}

// dropUnless clears the shown hover unless it belongs to line.
func (h *HoverLoop) dropUnless(line int) {
	h.mu.Lock()
	changed := h.result != nil && h.result.Line != line
	if changed {
		h.result = nil
	}
	h.mu.Unlock()
	if changed && h.onChange != nil {
		h.onChange()
	}
}

func (h *HoverLoop) outcome(o HoverOutcome) {
	if h.onOutcome != nil {
		h.onOutcome(o)
	}
}
