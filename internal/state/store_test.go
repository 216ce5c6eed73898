package state

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marc2332/freya-editor/internal/engine/buffer"
	"github.com/marc2332/freya-editor/internal/lsp"
)

func runStore(t *testing.T, s *Store) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestStore_ReadSeesCommittedStateOnly(t *testing.T) {
	s := NewStore(nil)
	before := s.Read()

	g := s.GlobalWrite()
	g.Manager().PushTab(editorTab("/a.rs"), 0, true)
	assert.Equal(t, 0, s.Read().Panel(0).Len(), "uncommitted write is invisible")
	g.Release()

	assert.Equal(t, 1, s.Read().Panel(0).Len())
	assert.Equal(t, 0, before.Panel(0).Len(), "old snapshot is unchanged")
}

func TestStore_ConcurrentWritePanics(t *testing.T) {
	s := NewStore(nil)
	g := s.Write(ScopeTab(0, 0))

	require.PanicsWithError(t, ErrConcurrentWrite.Error(), func() {
		s.GlobalWrite()
	})

	g.Release()
	require.NotPanics(t, func() { s.GlobalWrite().Release() })
}

func TestGuard_ReleasedUsePanics(t *testing.T) {
	s := NewStore(nil)
	g := s.GlobalWrite()
	g.Release()
	g.Release()

	require.PanicsWithError(t, ErrGuardReleased.Error(), func() {
		g.Manager()
	})
}

func TestStore_ScopedAndGlobalNotification(t *testing.T) {
	var hooked []int
	s := NewStore(nil, WithNotifyHook(func(_ Scope, n int) { hooked = append(hooked, n) }))

	var all, tab, other atomic.Int32
	s.Subscribe(ScopeAll, func() { all.Add(1) })
	s.Subscribe(ScopeTab(0, 0), func() { tab.Add(1) })
	s.Subscribe(ScopeTab(0, 1), func() { other.Add(1) })

	s.Update(ScopeTab(0, 0), func(m *Manager) {})
	assert.Equal(t, int32(0), all.Load())
	assert.Equal(t, int32(1), tab.Load())
	assert.Equal(t, int32(0), other.Load())

	s.GlobalUpdate(func(m *Manager) {})
	assert.Equal(t, int32(1), all.Load())
	assert.Equal(t, int32(2), tab.Load())
	assert.Equal(t, int32(1), other.Load())

	assert.Equal(t, []int{1, 3}, hooked)
}

func TestStore_ObserverReadsCommittedState(t *testing.T) {
	s := NewStore(nil)
	var seen int
	s.Subscribe(ScopeAll, func() { seen = s.Read().Panel(0).Len() })

	s.GlobalUpdate(func(m *Manager) {
		m.PushTab(editorTab("/a.rs"), 0, true)
	})
	assert.Equal(t, 1, seen)
}

func TestStore_UpdateReleasesOnPanic(t *testing.T) {
	s := NewStore(nil)
	assert.Panics(t, func() {
		s.GlobalUpdate(func(m *Manager) { m.SetFocusedPanel(9) })
	})
	require.NotPanics(t, func() { s.GlobalWrite().Release() })
}

func TestStore_SubmitSerializesWriters(t *testing.T) {
	s := NewStore(NewManager())
	s.GlobalUpdate(func(m *Manager) {
		m.PushTab(NewEditorTab(NewEditorData("/a.rs", "/", "rust", "")), 0, true)
	})
	runStore(t, s)

	const writers, each = 8, 25
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				err := s.Submit(context.Background(), ScopeTab(0, 0), func(m *Manager) {
					b := &m.Editor(0, 0).Buffer
					b.Insert(b.Len(), "x")
				})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, writers*each, s.Read().Editor(0, 0).Buffer.Len())
}

func TestStore_PostKeepsOrder(t *testing.T) {
	s := NewStore(nil)
	s.GlobalUpdate(func(m *Manager) {
		m.PushTab(NewEditorTab(NewEditorData("/a.rs", "/", "rust", "")), 0, true)
	})
	runStore(t, s)

	for _, r := range "hello" {
		s.Post(ScopeTab(0, 0), func(m *Manager) {
			b := &m.Editor(0, 0).Buffer
			b.InsertChar(r, b.Len())
		})
	}
	require.NoError(t, s.Submit(context.Background(), ScopeAll, func(*Manager) {}))
	assert.Equal(t, "hello", s.Read().Editor(0, 0).Buffer.Text())
}

func TestStore_RunTwiceAndStopped(t *testing.T) {
	s := NewStore(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return s.running.Load() }, time.Second, time.Millisecond)
	assert.ErrorIs(t, s.Run(ctx), ErrStoreRunning)

	cancel()
	require.NoError(t, <-done)

	err := s.Submit(context.Background(), ScopeAll, func(*Manager) {})
	assert.ErrorIs(t, err, ErrStoreClosed)
}

func TestStore_SubmitHonoursContext(t *testing.T) {
	s := NewStore(nil, WithQueueSize(0))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := s.Submit(ctx, ScopeAll, func(*Manager) {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStore_BridgeTable(t *testing.T) {
	s := NewStore(nil)
	runStore(t, s)

	assert.Nil(t, s.LookupBridge("rust-analyzer"))

	b := lsp.NewBridge("rust-analyzer", nil)
	require.NoError(t, s.InsertBridge(context.Background(), "rust-analyzer", b))
	assert.Same(t, b, s.LookupBridge("rust-analyzer"))
}

func TestStore_CursorCommitScoped(t *testing.T) {
	s := NewStore(nil)
	s.GlobalUpdate(func(m *Manager) {
		m.PushTab(NewEditorTab(NewEditorData("/a.rs", "/", "rust", "ab\ncd")), 0, true)
	})

	var n atomic.Int32
	s.Subscribe(ScopeTab(0, 0), func() { n.Add(1) })

	s.Update(ScopeTab(0, 0), func(m *Manager) {
		m.Editor(0, 0).Buffer.SetCursor(buffer.Cursor{Row: 1, Col: 1})
	})
	c, ok := s.Read().ActiveCursor()
	require.True(t, ok)
	assert.Equal(t, buffer.Cursor{Row: 1, Col: 1}, c)
	assert.Equal(t, int32(1), n.Load())
}

func TestStore_SubmitChangeSkipsNotification(t *testing.T) {
	s := NewStore(nil)
	runStore(t, s)

	var n atomic.Int32
	s.Subscribe(ScopeAll, func() { n.Add(1) })

	changed, err := s.SubmitChange(context.Background(), ScopeAll, func(m *Manager) bool {
		m.SetFontSize(40)
		return false
	})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, DefaultFontSize, s.Read().FontSize(), "unchanged mutation is dropped")
	assert.Equal(t, int32(0), n.Load())

	changed, err = s.SubmitChange(context.Background(), ScopeAll, func(m *Manager) bool {
		m.SetFontSize(40)
		return true
	})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 40.0, s.Read().FontSize())
	assert.Equal(t, int32(1), n.Load())
}

func TestGuard_Discard(t *testing.T) {
	s := NewStore(nil)
	g := s.GlobalWrite()
	g.Manager().SplitPanel()
	g.Discard()
	g.Release()

	assert.Len(t, s.Read().Panels(), 1)
	require.NotPanics(t, func() { s.GlobalWrite().Discard() })
}
