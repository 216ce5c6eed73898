package state

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/marc2332/freya-editor/internal/lsp"
)

// Store owns the editor state and serializes every mutation.
//
// Readers call Read and get the last committed snapshot without locking.
// Writers open a Guard with Write or GlobalWrite, mutate the working copy
// it exposes, and Release it to commit and notify observers. Only one
// guard may be live at a time; opening a second one panics with
// ErrConcurrentWrite.
//
// Background tasks do not open guards themselves. They hand mutations to
// the writer loop started by Run, through Submit or Post, which applies
// them one at a time in arrival order.
type Store struct {
	current  atomic.Pointer[Manager]
	writing  atomic.Bool
	registry *Registry
	onNotify func(scope Scope, observers int)

	ops     chan *op
	running atomic.Bool
	stopped chan struct{}
	stopMu  sync.Once
}

type op struct {
	scope   Scope
	fn      func(*Manager) bool
	done    chan struct{}
	changed bool
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithRegistry uses r instead of a fresh registry.
func WithRegistry(r *Registry) StoreOption {
	return func(s *Store) {
		s.registry = r
	}
}

// WithNotifyHook is called after every release with the number of
// observers notified.
func WithNotifyHook(fn func(scope Scope, observers int)) StoreOption {
	return func(s *Store) {
		s.onNotify = fn
	}
}

// WithQueueSize sets how many mutations Post can buffer before blocking.
func WithQueueSize(n int) StoreOption {
	return func(s *Store) {
		s.ops = make(chan *op, n)
	}
}

// NewStore creates a store holding m. A nil m starts from NewManager.
func NewStore(m *Manager, opts ...StoreOption) *Store {
	if m == nil {
		m = NewManager()
	}
	s := &Store{
		registry: NewRegistry(),
		ops:      make(chan *op, 256),
		stopped:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.current.Store(m)
	return s
}

// Registry returns the observer registry.
func (s *Store) Registry() *Registry { return s.registry }

// Subscribe registers an observer on the store's registry.
func (s *Store) Subscribe(scope Scope, notify func()) *Subscription {
	return s.registry.Subscribe(scope, notify)
}

// Read returns the last committed state. The result must not be modified.
func (s *Store) Read() *Manager {
	return s.current.Load()
}

// Write opens a guard whose release notifies observers of scope.
// Panics with ErrConcurrentWrite if another guard is live.
func (s *Store) Write(scope Scope) *Guard {
	if !s.writing.CompareAndSwap(false, true) {
		panic(ErrConcurrentWrite)
	}
	return &Guard{
		store:   s,
		scope:   scope,
		working: s.current.Load().clone(),
	}
}

// GlobalWrite opens a guard whose release notifies every observer.
func (s *Store) GlobalWrite() *Guard {
	return s.Write(ScopeAll)
}

// Update runs fn inside a guard for scope and releases it.
func (s *Store) Update(scope Scope, fn func(*Manager)) {
	g := s.Write(scope)
	defer g.Release()
	fn(g.Manager())
}

// GlobalUpdate runs fn inside a global guard and releases it.
func (s *Store) GlobalUpdate(fn func(*Manager)) {
	s.Update(ScopeAll, fn)
}

// Run applies submitted mutations one at a time until ctx is done.
// Returns ErrStoreRunning if the loop is already running.
func (s *Store) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrStoreRunning
	}
	defer s.stopMu.Do(func() { close(s.stopped) })

	for {
		select {
		case <-ctx.Done():
			return nil
		case o := <-s.ops:
			o.changed = s.apply(o)
			if o.done != nil {
				close(o.done)
			}
		}
	}
}

// apply runs one queued mutation. Changes are discarded, and nobody is
// notified, when the mutation reports it changed nothing.
func (s *Store) apply(o *op) (changed bool) {
	g := s.Write(o.scope)
	defer func() {
		if changed {
			g.Release()
		} else {
			g.Discard()
		}
	}()
	return o.fn(g.Manager())
}

// Submit queues fn for the writer loop and waits until it is committed
// and observers were notified. fn must not call Submit.
func (s *Store) Submit(ctx context.Context, scope Scope, fn func(*Manager)) error {
	_, err := s.SubmitChange(ctx, scope, func(m *Manager) bool {
		fn(m)
		return true
	})
	return err
}

// SubmitChange is like Submit, but fn reports whether it changed anything.
// When it did not, the working copy is dropped and no observer is
// notified. The returned bool is fn's result.
func (s *Store) SubmitChange(ctx context.Context, scope Scope, fn func(*Manager) bool) (bool, error) {
	o := &op{scope: scope, fn: fn, done: make(chan struct{})}
	select {
	case s.ops <- o:
	case <-ctx.Done():
		return false, ctx.Err()
	case <-s.stopped:
		return false, ErrStoreClosed
	}

	select {
	case <-o.done:
		return o.changed, nil
	case <-ctx.Done():
		return false, ctx.Err()
	case <-s.stopped:
		return false, ErrStoreClosed
	}
}

// Post queues fn for the writer loop without waiting for it to run.
// Blocks only while the queue is full. Mutations posted after the loop
// stopped are dropped.
func (s *Store) Post(scope Scope, fn func(*Manager)) {
	o := &op{scope: scope, fn: func(m *Manager) bool {
		fn(m)
		return true
	}}
	select {
	case s.ops <- o:
	case <-s.stopped:
	}
}

// LookupBridge returns the committed bridge for key, or nil.
func (s *Store) LookupBridge(key string) *lsp.Bridge {
	return s.Read().Bridge(key)
}

// InsertBridge registers b through the writer loop.
func (s *Store) InsertBridge(ctx context.Context, key string, b *lsp.Bridge) error {
	return s.Submit(ctx, ScopeAll, func(m *Manager) {
		m.InsertBridge(key, b)
	})
}

// Ensure Store can hold language server bridges.
var _ lsp.BridgeTable = (*Store)(nil)

// Guard is an open write transaction.
type Guard struct {
	store    *Store
	scope    Scope
	working  *Manager
	released bool
}

// Manager returns the working copy. Panics with ErrGuardReleased after
// Release.
func (g *Guard) Manager() *Manager {
	if g.released {
		panic(ErrGuardReleased)
	}
	return g.working
}

// Scope returns the scope observers are notified for.
func (g *Guard) Scope() Scope { return g.scope }

// Release commits the working copy and notifies observers matching the
// guard's scope. Calling Release again does nothing.
func (g *Guard) Release() {
	if g.released {
		return
	}
	g.released = true

	s := g.store
	s.current.Store(g.working)
	g.working = nil
	s.writing.Store(false)

	n := s.registry.Notify(g.scope)
	if s.onNotify != nil {
		s.onNotify(g.scope, n)
	}
}

// Discard drops the working copy without committing or notifying.
// Calling Discard or Release afterwards does nothing.
func (g *Guard) Discard() {
	if g.released {
		return
	}
	g.released = true
	g.working = nil
	g.store.writing.Store(false)
}
