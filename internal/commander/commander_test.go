package commander

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marc2332/freya-editor/internal/input/key"
)

type fakeHost struct {
	mu     sync.Mutex
	size   float64
	opened []string
}

func (h *fakeHost) FontSize() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.size
}

func (h *fakeHost) SetFontSize(_ context.Context, size float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.size = min(max(size, 5), 150)
	return nil
}

func (h *fakeHost) Open(_ context.Context, path string) error {
	if path == "/missing" {
		return errors.New("no such file")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.opened = append(h.opened, path)
	return nil
}

func (h *fakeHost) Status() string { return "Code Editor" }

func newTestCommander(t *testing.T) (*Commander, *fakeHost) {
	t.Helper()
	h := &fakeHost{size: 17}
	c := New(h, nil)
	t.Cleanup(c.Close)
	return c, h
}

func TestExec_FontSize(t *testing.T) {
	c, h := newTestCommander(t)
	ctx := context.Background()

	out, err := c.Exec(ctx, "fs 20")
	require.NoError(t, err)
	assert.Equal(t, "font size 20", out)
	assert.Equal(t, 20.0, h.FontSize())

	out, err = c.Exec(ctx, "  fs   300 ")
	require.NoError(t, err)
	assert.Equal(t, "font size 150", out)

	_, err = c.Exec(ctx, "fs big")
	assert.ErrorIs(t, err, ErrUsage)
	_, err = c.Exec(ctx, "fs")
	assert.ErrorIs(t, err, ErrUsage)
}

func TestExec_Unknown(t *testing.T) {
	c, _ := newTestCommander(t)
	_, err := c.Exec(context.Background(), "rm -rf")
	assert.ErrorIs(t, err, ErrUnknownCommand)

	out, err := c.Exec(context.Background(), "   ")
	assert.NoError(t, err)
	assert.Empty(t, out)
}

func TestExec_Open(t *testing.T) {
	c, h := newTestCommander(t)
	out, err := c.Exec(context.Background(), "open /proj/a.rs")
	require.NoError(t, err)
	assert.Equal(t, "opened /proj/a.rs", out)
	assert.Equal(t, []string{"/proj/a.rs"}, h.opened)

	_, err = c.Exec(context.Background(), "open /missing")
	assert.Error(t, err)
}

func TestExec_Lua(t *testing.T) {
	c, h := newTestCommander(t)
	ctx := context.Background()

	out, err := c.Exec(ctx, "lua print(editor.font_size() + 1)")
	require.NoError(t, err)
	assert.Equal(t, "18", out)

	out, err = c.Exec(ctx, "lua editor.font_size(30); print(editor.status(), 'ok')")
	require.NoError(t, err)
	assert.Equal(t, "Code Editor\tok", out)
	assert.Equal(t, 30.0, h.FontSize())

	_, err = c.Exec(ctx, "lua editor.open('/missing')")
	assert.Error(t, err)

	_, err = c.Exec(ctx, "lua os.exit(1)")
	assert.Error(t, err, "os library is not loaded")

	_, err = c.Exec(ctx, "lua")
	assert.ErrorIs(t, err, ErrUsage)
}

func TestExec_Help(t *testing.T) {
	c, _ := newTestCommander(t)
	out, err := c.Exec(context.Background(), "help")
	require.NoError(t, err)
	assert.Equal(t, "fs <size>, help, lua <chunk>, open <path>", out)
}

func TestHandleKey(t *testing.T) {
	var changes int
	h := &fakeHost{size: 17}
	c := New(h, func() { changes++ })
	defer c.Close()
	ctx := context.Background()

	for _, r := range "fs 21" {
		require.True(t, c.HandleKey(ctx, key.NewRuneEvent(r, key.ModNone)))
	}
	assert.Equal(t, "fs 21", c.Input())

	assert.True(t, c.HandleKey(ctx, key.NewSpecialEvent(key.KeyBackspace, key.ModNone)))
	assert.True(t, c.HandleKey(ctx, key.NewRuneEvent('4', key.ModNone)))
	assert.True(t, c.HandleKey(ctx, key.NewSpecialEvent(key.KeyEnter, key.ModNone)))

	assert.Empty(t, c.Input())
	assert.Equal(t, "font size 24", c.Output())
	assert.Equal(t, 24.0, h.FontSize())
	assert.Equal(t, 8, changes)

	assert.False(t, c.HandleKey(ctx, key.NewSpecialEvent(key.KeyBackspace, key.ModNone)), "empty input")
	assert.False(t, c.HandleKey(ctx, key.NewSpecialEvent(key.KeyUp, key.ModNone)))

	for _, r := range "nope" {
		c.HandleKey(ctx, key.NewRuneEvent(r, key.ModNone))
	}
	c.HandleKey(ctx, key.NewSpecialEvent(key.KeyEnter, key.ModNone))
	assert.Contains(t, c.Output(), "unknown command")
}
