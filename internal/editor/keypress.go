package editor

import (
	"context"
	"math"
	"sync/atomic"

	"github.com/marc2332/freya-editor/internal/engine/buffer"
	"github.com/marc2332/freya-editor/internal/input/key"
	"github.com/marc2332/freya-editor/internal/state"
)

// Line jumps for modified vertical arrows.
const (
	LinesJumpAlt     = 5
	LinesJumpControl = 3
)

// Keypress applies key events to one surface's buffer strictly in
// arrival order.
type Keypress struct {
	store      *state.Store
	panel, tab int

	events    chan key.Event
	highlight chan struct{}
	scroll    atomic.Int64
	onApplied func(buffer.TextEvent)
}

func newKeypress(store *state.Store, panel, tab, queue int) *Keypress {
	return &Keypress{
		store:     store,
		panel:     panel,
		tab:       tab,
		events:    make(chan key.Event, queue),
		highlight: make(chan struct{}, 1),
	}
}

// Send queues ev. Safe for concurrent use; blocks only while the queue is
// full.
func (k *Keypress) Send(ev key.Event) {
	k.events <- ev
}

// Highlight is signalled after text changes. Signals coalesce: any number
// of changes between two receives produce one signal.
func (k *Keypress) Highlight() <-chan struct{} { return k.highlight }

// Scroll returns the vertical scroll offset, in (-content height, 0].
func (k *Keypress) Scroll() int { return int(k.scroll.Load()) }

// SetScroll sets the vertical scroll offset, as reported by the view.
func (k *Keypress) SetScroll(y int) { k.scroll.Store(int64(y)) }

func (k *Keypress) run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-k.events:
			result, err := k.apply(ctx, ev)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			if result == buffer.TextChanged {
				select {
				case k.highlight <- struct{}{}:
				default:
				}
			}
			if k.onApplied != nil {
				k.onApplied(result)
			}
		}
	}
}

// apply runs ev against the buffer inside one store write. Keys are only
// applied while the surface's panel is focused, its tab is active, and the
// code editor view has focus.
func (k *Keypress) apply(ctx context.Context, ev key.Event) (buffer.TextEvent, error) {
	result := buffer.NoChange
	_, err := k.store.SubmitChange(ctx, state.ScopeTab(k.panel, k.tab), func(m *state.Manager) bool {
		if m.FocusedView() != state.ViewCodeEditor || !m.IsActiveTab(k.panel, k.tab) {
			return false
		}
		e, ok := m.LookupEditor(k.panel, k.tab)
		if !ok {
			return false
		}

		times := 1
		single := ev
		if ev.Key.IsVertical() {
			switch {
			case ev.Modifiers.HasAlt():
				times = LinesJumpAlt
				k.scrollBy(m, e, ev.Key)
			case ev.Modifiers.HasCtrl():
				times = LinesJumpControl
			}
			if times > 1 {
				single = key.NewSpecialEvent(ev.Key, key.ModNone)
			}
		}

		for i := 0; i < times; i++ {
			result = merge(result, e.Buffer.ProcessKey(single))
		}
		return result != buffer.NoChange
	})
	if err != nil {
		return buffer.NoChange, err
	}
	return result, nil
}

// scrollBy moves the scroll offset five lines towards dir, clamped to
// [-content height, 0].
func (k *Keypress) scrollBy(m *state.Manager, e *state.EditorData, dir key.Key) {
	lineHeight := math.Floor(m.FontSize() * m.LineHeight())
	jump := int(math.Ceil(lineHeight * LinesJumpAlt))
	minY := -int(float64(e.Buffer.LineCount()) * lineHeight)

	y := k.Scroll()
	if dir == key.KeyUp {
		y += jump
	} else {
		y -= jump
	}
	k.scroll.Store(int64(min(max(y, minY), 0)))
}

// merge keeps the strongest of two outcomes.
func merge(a, b buffer.TextEvent) buffer.TextEvent {
	if a == buffer.TextChanged || b == buffer.TextChanged {
		return buffer.TextChanged
	}
	if a == buffer.CursorMoved || b == buffer.CursorMoved {
		return buffer.CursorMoved
	}
	return buffer.NoChange
}
