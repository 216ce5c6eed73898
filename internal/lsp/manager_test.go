package lsp

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type fakeSession struct {
	mu       sync.Mutex
	opened   []TextDocumentItem
	hovers   []HoverParams
	result   string
	shutdown bool
}

func (f *fakeSession) DidOpen(_ context.Context, item TextDocumentItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = append(f.opened, item)
	return nil
}

func (f *fakeSession) Hover(_ context.Context, params HoverParams) (gjson.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hovers = append(f.hovers, params)
	return gjson.Parse(f.result), nil
}

func (f *fakeSession) Shutdown(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shutdown = true
	return nil
}

type mapTable struct {
	mu      sync.Mutex
	bridges map[string]*Bridge
	err     error
}

func newMapTable() *mapTable {
	return &mapTable{bridges: make(map[string]*Bridge)}
}

func (m *mapTable) LookupBridge(id string) *Bridge {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bridges[id]
}

func (m *mapTable) InsertBridge(_ context.Context, id string, b *Bridge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.bridges[id] = b
	return nil
}

func TestManager_GetOrCreateSharesOneSession(t *testing.T) {
	var starts atomic.Int32
	release := make(chan struct{})
	m := NewManager(WithStarter(func(_, _ context.Context, _ Config, _ Events) (Session, error) {
		starts.Add(1)
		<-release
		return &fakeSession{}, nil
	}))
	defer m.Shutdown(context.Background())

	table := newMapTable()
	cfg := *ConfigFor("/proj", "rust")

	var wg sync.WaitGroup
	got := make([]*Bridge, 8)
	for i := range got {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := m.GetOrCreate(context.Background(), table, cfg)
			assert.NoError(t, err)
			got[i] = b
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), starts.Load())
	for _, b := range got {
		assert.Same(t, got[0], b)
	}
	assert.Same(t, got[0], table.LookupBridge(cfg.Key()))
	assert.Equal(t, SessionStarting, got[0].State())

	again, err := m.GetOrCreate(context.Background(), table, cfg)
	require.NoError(t, err)
	assert.Same(t, got[0], again)
	assert.Equal(t, int32(1), starts.Load())
}

func TestManager_IndexedCallbackAndStatus(t *testing.T) {
	var status []string
	m := NewManager(
		WithStatusCallback(func(name, s string) { status = append(status, name+" "+s) }),
		WithStarter(func(_, _ context.Context, _ Config, ev Events) (Session, error) {
			ev.status("Indexing", "done")
			ev.indexed()
			return &fakeSession{}, nil
		}),
	)

	b, err := m.GetOrCreate(context.Background(), newMapTable(), *ConfigFor("/proj", "rust"))
	require.NoError(t, err)
	assert.True(t, b.Indexed.Load())
	assert.Equal(t, SessionIndexed, b.State())
	assert.Equal(t, []string{"Indexing done"}, status)
}

func TestManager_StartFailure(t *testing.T) {
	boom := errors.New("boom")
	m := NewManager(WithStarter(func(_, _ context.Context, _ Config, _ Events) (Session, error) {
		return nil, boom
	}))

	table := newMapTable()
	_, err := m.GetOrCreate(context.Background(), table, *ConfigFor("/proj", "rust"))
	var serr *ServerError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "rust-analyzer", serr.ServerID)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, table.LookupBridge(ConfigFor("/proj", "rust").Key()))
}

func TestManager_InsertFailureShutsSessionDown(t *testing.T) {
	sess := &fakeSession{}
	m := NewManager(WithStarter(func(_, _ context.Context, _ Config, _ Events) (Session, error) {
		return sess, nil
	}))
	table := newMapTable()
	table.err = errors.New("store closed")

	_, err := m.GetOrCreate(context.Background(), table, *ConfigFor("/proj", "rust"))
	require.Error(t, err)
	assert.True(t, sess.shutdown)
}

func TestManager_Shutdown(t *testing.T) {
	sess := &fakeSession{}
	m := NewManager(WithStarter(func(_, _ context.Context, _ Config, _ Events) (Session, error) {
		return sess, nil
	}))
	_, err := m.GetOrCreate(context.Background(), newMapTable(), *ConfigFor("/proj", "rust"))
	require.NoError(t, err)

	require.NoError(t, m.Shutdown(context.Background()))
	assert.True(t, sess.shutdown)

	_, err = m.GetOrCreate(context.Background(), newMapTable(), *ConfigFor("/proj", "rust"))
	assert.ErrorIs(t, err, ErrShutdown)
}

func TestBridge_DidOpenOnce(t *testing.T) {
	sess := &fakeSession{}
	b := NewBridge("rust-analyzer", sess)
	ctx := context.Background()

	require.NoError(t, b.DidOpen(ctx, "/proj/src/main.rs", "rust", "fn main() {}"))
	require.NoError(t, b.DidOpen(ctx, "/proj/src/main.rs", "rust", "fn main() {}"))
	require.Len(t, sess.opened, 1)
	assert.Equal(t, 0, sess.opened[0].Version)
	assert.Equal(t, DocumentURI("file:///proj/src/main.rs"), sess.opened[0].URI)
	assert.True(t, b.IsOpen("/proj/src/main.rs"))

	err := b.DidOpen(ctx, "src/main.rs", "rust", "")
	assert.ErrorIs(t, err, ErrInvalidURI)
	assert.Len(t, sess.opened, 1)
}

func TestBridge_HoverWaitsForIndexing(t *testing.T) {
	sess := &fakeSession{result: `{"contents":"u8"}`}
	b := NewBridge("rust-analyzer", sess)
	ctx := context.Background()

	_, _, err := b.Hover(ctx, "/proj/a.rs", Position{Line: 1})
	assert.ErrorIs(t, err, ErrStillIndexing)
	assert.Empty(t, sess.hovers)

	b.Indexed.Store(true)
	text, ok, err := b.Hover(ctx, "/proj/a.rs", Position{Line: 1, Character: 2})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "u8", text)
	require.Len(t, sess.hovers, 1)
	assert.Equal(t, Position{Line: 1, Character: 2}, sess.hovers[0].Position)
}

func TestManager_SessionPerRoot(t *testing.T) {
	var roots []string
	m := NewManager(WithStarter(func(_, _ context.Context, cfg Config, _ Events) (Session, error) {
		roots = append(roots, cfg.RootPath)
		return &fakeSession{}, nil
	}))
	defer m.Shutdown(context.Background())

	table := newMapTable()
	a, err := m.GetOrCreate(context.Background(), table, *ConfigFor("/projA", "rust"))
	require.NoError(t, err)
	b, err := m.GetOrCreate(context.Background(), table, *ConfigFor("/projB", "rust"))
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	assert.Equal(t, []string{"/projA", "/projB"}, roots)
	assert.Same(t, b, table.LookupBridge(ConfigFor("/projB", "rust").Key()))
}
