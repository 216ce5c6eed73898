package editor

import (
	"context"
	"sync"

	"github.com/marc2332/freya-editor/internal/engine/buffer"
	"github.com/marc2332/freya-editor/internal/layout"
	"github.com/marc2332/freya-editor/internal/state"
)

// CursorRequest asks the layout engine to resolve a click on Line at Point.
type CursorRequest struct {
	Point layout.Point
	Line  int

	gen uint64
}

// CursorRef is the cell the layout engine polls for a pending request.
// Each click overwrites the previous request; there is never more than one
// outstanding. Every request gets a new generation so that answers to an
// overwritten request can be recognised.
type CursorRef struct {
	mu  sync.Mutex
	req *CursorRequest
	gen uint64
}

// Pending returns the outstanding request, if any.
func (r *CursorRef) Pending() (CursorRequest, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.req == nil {
		return CursorRequest{}, false
	}
	return *r.req, true
}

func (r *CursorRef) set(req CursorRequest) {
	r.mu.Lock()
	r.gen++
	req.gen = r.gen
	r.req = &req
	r.mu.Unlock()
}

// current reports whether gen is the generation of the pending request.
func (r *CursorRef) current(gen uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.req != nil && r.req.gen == gen
}

// clear removes the pending request if it still has generation gen.
func (r *CursorRef) clear(gen uint64) {
	r.mu.Lock()
	if r.req != nil && r.req.gen == gen {
		r.req = nil
	}
	r.mu.Unlock()
}

type cursorResponse struct {
	col, row int
	gen      uint64
}

// CursorSync connects pointer clicks, the layout engine, and the buffer
// cursor of one surface.
type CursorSync struct {
	store      *state.Store
	panel, tab int

	ref       CursorRef
	clicks    chan CursorRequest
	responses chan cursorResponse
	onCommit  func(buffer.Cursor)
}

func newCursorSync(store *state.Store, panel, tab, queue int) *CursorSync {
	return &CursorSync{
		store:     store,
		panel:     panel,
		tab:       tab,
		clicks:    make(chan CursorRequest, queue),
		responses: make(chan cursorResponse, queue),
	}
}

// Ref returns the request cell read by the layout engine.
func (c *CursorSync) Ref() *CursorRef { return &c.ref }

// Click queues a click at p on line.
func (c *CursorSync) Click(p layout.Point, line int) {
	c.clicks <- CursorRequest{Point: p, Line: line}
}

// Respond queues the layout engine's answer for the pending request.
// It is dropped if no request is pending.
func (c *CursorSync) Respond(col, row int) {
	req, ok := c.ref.Pending()
	if !ok {
		return
	}
	c.respond(req.gen, col, row)
}

func (c *CursorSync) respond(gen uint64, col, row int) {
	c.responses <- cursorResponse{col: col, row: row, gen: gen}
}

// Measure performs the layout side of the protocol: if a request is
// pending, it resolves the glyph under the click with eng and responds.
// Reports whether a request was answered.
func (c *CursorSync) Measure(eng layout.Engine) bool {
	req, ok := c.ref.Pending()
	if !ok {
		return false
	}
	m := c.store.Read()
	e, ok := m.LookupEditor(c.panel, c.tab)
	if !ok {
		return false
	}
	row := min(max(req.Line, 0), e.Buffer.LineCount()-1)
	col := eng.GlyphAt(e.Buffer.Line(row), m.FontSize(), req.Point.X)
	c.respond(req.gen, col, row)
	return true
}

// runClicks writes each click into the request cell, in order.
func (c *CursorSync) runClicks(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case req := <-c.clicks:
			c.ref.set(req)
		}
	}
}

// runResponses commits each measured position, in order.
func (c *CursorSync) runResponses(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case resp := <-c.responses:
			if err := c.commit(ctx, resp); err != nil {
				return err
			}
		}
	}
}

// commit clamps the response into the buffer and moves the cursor when
// it differs from the current one, then clears the request it answered.
// A response to a request that a later click replaced is dropped.
func (c *CursorSync) commit(ctx context.Context, resp cursorResponse) error {
	if !c.ref.current(resp.gen) {
		return nil
	}
	var moved buffer.Cursor
	changed, err := c.store.SubmitChange(ctx, state.ScopeTab(c.panel, c.tab), func(m *state.Manager) bool {
		e, ok := m.LookupEditor(c.panel, c.tab)
		if !ok {
			return false
		}
		b := &e.Buffer
		row := min(max(resp.row, 0), b.LineCount()-1)
		col := min(max(resp.col, 0), b.LineLen(row))
		if !b.SetCursor(buffer.Cursor{Row: row, Col: col}) {
			return false
		}
		moved = b.Cursor()
		return true
	})
	c.ref.clear(resp.gen)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	if changed && c.onCommit != nil {
		c.onCommit(moved)
	}
	return nil
}
