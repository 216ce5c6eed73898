package state

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ScopedNotify(t *testing.T) {
	r := NewRegistry()
	var all, tab00, tab01 atomic.Int32

	r.Subscribe(ScopeAll, func() { all.Add(1) })
	r.Subscribe(ScopeTab(0, 0), func() { tab00.Add(1) })
	r.Subscribe(ScopeTab(0, 1), func() { tab01.Add(1) })

	assert.Equal(t, 1, r.Notify(ScopeTab(0, 0)))
	assert.Equal(t, int32(1), tab00.Load())
	assert.Equal(t, int32(0), tab01.Load())
	assert.Equal(t, int32(0), all.Load())

	assert.Equal(t, 3, r.Notify(ScopeAll))
	assert.Equal(t, int32(1), all.Load())
	assert.Equal(t, int32(2), tab00.Load())
	assert.Equal(t, int32(1), tab01.Load())

	assert.Equal(t, 0, r.Notify(ScopeTab(4, 2)))
}

func TestSubscription_UpdateAndUnsubscribe(t *testing.T) {
	r := NewRegistry()
	var n atomic.Int32
	sub := r.Subscribe(ScopeTab(0, 0), func() { n.Add(1) })
	require.NotEmpty(t, sub.ID())

	assert.False(t, sub.Update(ScopeTab(0, 0)))
	assert.True(t, sub.Update(ScopeTab(1, 0)))
	assert.Equal(t, ScopeTab(1, 0), sub.Scope())

	r.Notify(ScopeTab(0, 0))
	assert.Equal(t, int32(0), n.Load())
	r.Notify(ScopeTab(1, 0))
	assert.Equal(t, int32(1), n.Load())

	sub.Unsubscribe()
	sub.Unsubscribe()
	assert.Equal(t, 0, r.Len())
	r.Notify(ScopeAll)
	assert.Equal(t, int32(1), n.Load())
}

func TestScope(t *testing.T) {
	assert.True(t, ScopeAll.IsAll())
	assert.Equal(t, "all", ScopeAll.String())

	s := ScopeTab(2, 3)
	p, e, ok := s.Tab()
	require.True(t, ok)
	assert.Equal(t, 2, p)
	assert.Equal(t, 3, e)
	assert.Equal(t, "tab(2,3)", s.String())
	assert.NotEqual(t, ScopeAll, ScopeTab(0, 0))
}
