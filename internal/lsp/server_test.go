package lsp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

// fakePeer is the server end of an in-process connection.
type fakePeer struct {
	r *bufio.Reader
	w io.Writer
}

func (p *fakePeer) read(t *testing.T) gjson.Result {
	t.Helper()
	length := 0
	for {
		line, err := p.r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		if v, ok := strings.CutPrefix(line, "Content-Length: "); ok {
			length, err = strconv.Atoi(v)
			require.NoError(t, err)
		}
	}
	body := make([]byte, length)
	_, err := io.ReadFull(p.r, body)
	require.NoError(t, err)
	return gjson.ParseBytes(body)
}

func (p *fakePeer) write(t *testing.T, body string) {
	t.Helper()
	_, err := fmt.Fprintf(p.w, "Content-Length: %d\r\n\r\n%s", len(body), body)
	require.NoError(t, err)
}

// newPipeTransport returns a client transport and the peer driving it.
func newPipeTransport() (*Transport, *fakePeer) {
	clientR, serverW := io.Pipe()
	serverR, clientW := io.Pipe()
	closer := closerFunc(func() error {
		clientR.Close()
		return clientW.Close()
	})
	return NewTransport(clientR, clientW, closer, nil), &fakePeer{r: bufio.NewReader(serverR), w: serverW}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestTransport_CallAndNotify(t *testing.T) {
	tr, peer := newPipeTransport()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tr.Start(ctx)
	defer tr.Close()

	got := make(chan gjson.Result, 1)
	tr.OnNotification("custom/ping", func(_ string, params gjson.Result) {
		got <- params
	})

	go func() {
		req := peer.read(t)
		assert.Equal(t, "2.0", req.Get("jsonrpc").String())
		assert.Equal(t, "test/echo", req.Get("method").String())
		peer.write(t, fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"result":{"echo":%s}}`,
			req.Get("id").Int(), req.Get("params.value").Raw))
		peer.write(t, `{"jsonrpc":"2.0","method":"custom/ping","params":{"n":7}}`)
	}()

	res, err := tr.Call(ctx, "test/echo", map[string]int{"value": 42})
	require.NoError(t, err)
	assert.Equal(t, int64(42), res.Get("echo").Int())

	select {
	case p := <-got:
		assert.Equal(t, int64(7), p.Get("n").Int())
	case <-time.After(time.Second):
		t.Fatal("notification not delivered")
	}
}

func TestTransport_RPCError(t *testing.T) {
	tr, peer := newPipeTransport()
	ctx := context.Background()
	tr.Start(ctx)
	defer tr.Close()

	go func() {
		req := peer.read(t)
		peer.write(t, fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"error":{"code":-32601,"message":"nope"}}`,
			req.Get("id").Int()))
	}()

	_, err := tr.Call(ctx, "missing", nil)
	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, CodeMethodNotFound, rpcErr.Code)
}

func TestTransport_CallAfterClose(t *testing.T) {
	tr, _ := newPipeTransport()
	require.NoError(t, tr.Close())
	_, err := tr.Call(context.Background(), "x", nil)
	assert.ErrorIs(t, err, ErrShutdown)
	assert.ErrorIs(t, tr.Notify("x", nil), ErrShutdown)
}

func TestServer_InitializeProgressAndHover(t *testing.T) {
	tr, peer := newPipeTransport()

	var mu sync.Mutex
	var statuses []string
	indexed := make(chan struct{})
	var once sync.Once
	events := Events{
		OnStatus: func(name, status string) {
			mu.Lock()
			statuses = append(statuses, name+" "+status)
			mu.Unlock()
		},
		OnIndexed: func() { once.Do(func() { close(indexed) }) },
	}

	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		init := peer.read(t)
		assert.Equal(t, "initialize", init.Get("method").String())
		assert.Equal(t, "file:///proj", init.Get("params.rootUri").String())
		assert.True(t, init.Get("params.capabilities.window.workDoneProgress").Bool())
		peer.write(t, fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"result":{"capabilities":{"hoverProvider":true}}}`,
			init.Get("id").Int()))

		assert.Equal(t, "initialized", peer.read(t).Get("method").String())

		// Server-initiated request must be acknowledged.
		peer.write(t, `{"jsonrpc":"2.0","id":"w1","method":"window/workDoneProgress/create","params":{"token":"idx"}}`)
		ack := peer.read(t)
		assert.Equal(t, "w1", ack.Get("id").String())
		assert.True(t, ack.Get("result").Exists())

		peer.write(t, `{"jsonrpc":"2.0","method":"$/progress","params":{"token":"idx","value":{"kind":"begin","title":"Indexing","percentage":0}}}`)
		peer.write(t, `{"jsonrpc":"2.0","method":"$/progress","params":{"token":"idx","value":{"kind":"report","message":"1/2 core","percentage":50}}}`)
		peer.write(t, `{"jsonrpc":"2.0","method":"$/progress","params":{"token":"idx","value":{"kind":"end"}}}`)

		open := peer.read(t)
		assert.Equal(t, "textDocument/didOpen", open.Get("method").String())
		assert.Equal(t, int64(0), open.Get("params.textDocument.version").Int())

		hover := peer.read(t)
		assert.Equal(t, "textDocument/hover", hover.Get("method").String())
		assert.Equal(t, int64(3), hover.Get("params.position.line").Int())
		peer.write(t, fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"result":{"contents":{"kind":"markdown","value":"i32"}}}`,
			hover.Get("id").Int()))
	}()

	ctx := context.Background()
	cfg := Config{RootPath: "/proj", LanguageID: "rust", ServerID: "rust-analyzer"}
	s, err := connect(ctx, ctx, cfg, events, tr, nil)
	require.NoError(t, err)
	defer tr.Close()

	select {
	case <-indexed:
	case <-time.After(2 * time.Second):
		t.Fatal("server never reported indexed")
	}

	mu.Lock()
	assert.Equal(t, []string{"Indexing 0% ", "Indexing 50% 1/2 core", "Indexing done"}, statuses)
	mu.Unlock()

	b := NewBridge(cfg.ServerID, s)
	b.Indexed.Store(true)
	require.NoError(t, b.DidOpen(ctx, "/proj/src/main.rs", "rust", "fn main() {}"))

	text, ok, err := b.Hover(ctx, "/proj/src/main.rs", Position{Line: 3, Character: 1})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "i32", text)

	<-serverDone
}
