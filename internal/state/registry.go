package state

import (
	"sync"

	"github.com/google/uuid"
)

// Registry maps observers to the scope they are interested in.
// It is safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	subs map[string]*Subscription
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{subs: make(map[string]*Subscription)}
}

// Subscription is one observer's entry in a Registry.
type Subscription struct {
	id       string
	registry *Registry
	notify   func()

	mu    sync.Mutex
	scope Scope
}

// Subscribe registers notify to be called whenever a write matching scope
// is released. notify runs on the releasing goroutine and must not block.
func (r *Registry) Subscribe(scope Scope, notify func()) *Subscription {
	sub := &Subscription{
		id:       uuid.NewString(),
		registry: r,
		notify:   notify,
		scope:    scope,
	}

	r.mu.Lock()
	r.subs[sub.id] = sub
	r.mu.Unlock()
	return sub
}

// Len returns the number of live subscriptions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// Notify calls every observer matching scope and returns how many were
// called. ScopeAll matches every observer; a tab scope matches observers
// registered with that exact scope. Order is unspecified.
func (r *Registry) Notify(scope Scope) int {
	r.mu.RLock()
	targets := make([]func(), 0, len(r.subs))
	for _, sub := range r.subs {
		if scope.IsAll() || sub.Scope() == scope {
			targets = append(targets, sub.notify)
		}
	}
	r.mu.RUnlock()

	for _, fn := range targets {
		if fn != nil {
			fn()
		}
	}
	return len(targets)
}

// ID returns the observer id.
func (s *Subscription) ID() string { return s.id }

// Scope returns the current interest scope.
func (s *Subscription) Scope() Scope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scope
}

// Update replaces the interest scope if it differs from the current one.
// Reports whether it changed.
func (s *Subscription) Update(scope Scope) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scope == scope {
		return false
	}
	s.scope = scope
	return true
}

// Unsubscribe removes the observer from its registry. Safe to call twice.
func (s *Subscription) Unsubscribe() {
	s.registry.mu.Lock()
	delete(s.registry.subs, s.id)
	s.registry.mu.Unlock()
}
