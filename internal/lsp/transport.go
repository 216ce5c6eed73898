package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Transport handles JSON-RPC 2.0 communication over stdio.
// It implements the LSP base protocol with Content-Length headers.
type Transport struct {
	reader *bufio.Reader
	writer io.Writer
	closer io.Closer
	logger *slog.Logger

	writeMu sync.Mutex

	mu       sync.Mutex
	nextID   atomic.Int64
	pending  map[int64]chan gjson.Result
	handlers map[string]NotificationHandler

	closed atomic.Bool
	done   chan struct{}
}

// NotificationHandler handles an incoming notification. Handlers run on
// the read goroutine, in arrival order, and must not block.
type NotificationHandler func(method string, params gjson.Result)

// NewTransport creates a transport over the given streams. c, if not nil,
// is closed by Close.
func NewTransport(r io.Reader, w io.Writer, c io.Closer, logger *slog.Logger) *Transport {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{
		reader:   bufio.NewReaderSize(r, 64*1024),
		writer:   w,
		closer:   c,
		logger:   logger,
		pending:  make(map[int64]chan gjson.Result),
		handlers: make(map[string]NotificationHandler),
		done:     make(chan struct{}),
	}
}

// Start begins reading messages in a new goroutine.
func (t *Transport) Start(ctx context.Context) {
	go t.readLoop(ctx)
}

// Done is closed when the transport is closed.
func (t *Transport) Done() <-chan struct{} {
	return t.done
}

// Close closes the transport and releases resources.
func (t *Transport) Close() error {
	if t.closed.Swap(true) {
		return nil
	}
	close(t.done)

	t.mu.Lock()
	t.pending = make(map[int64]chan gjson.Result)
	t.mu.Unlock()

	if t.closer != nil {
		return t.closer.Close()
	}
	return nil
}

// IsClosed returns true if the transport has been closed.
func (t *Transport) IsClosed() bool {
	return t.closed.Load()
}

// Call sends a request and waits for its result. A null result is returned
// as a Result whose Type is gjson.Null.
func (t *Transport) Call(ctx context.Context, method string, params any) (gjson.Result, error) {
	if t.closed.Load() {
		return gjson.Result{}, ErrShutdown
	}

	id := t.nextID.Add(1)
	ch := make(chan gjson.Result, 1)

	t.mu.Lock()
	t.pending[id] = ch
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		delete(t.pending, id)
		t.mu.Unlock()
	}()

	msg, err := envelope(method, params)
	if err == nil {
		msg, err = sjson.SetBytes(msg, "id", id)
	}
	if err != nil {
		return gjson.Result{}, fmt.Errorf("build request: %w", err)
	}
	if err := t.send(msg); err != nil {
		return gjson.Result{}, fmt.Errorf("send request: %w", err)
	}

	select {
	case <-ctx.Done():
		return gjson.Result{}, ctx.Err()
	case <-t.done:
		return gjson.Result{}, ErrShutdown
	case resp := <-ch:
		if e := resp.Get("error"); e.Exists() {
			return gjson.Result{}, &RPCError{
				Code:    int(e.Get("code").Int()),
				Message: e.Get("message").String(),
			}
		}
		return resp.Get("result"), nil
	}
}

// Notify sends a notification (no response expected).
func (t *Transport) Notify(method string, params any) error {
	if t.closed.Load() {
		return ErrShutdown
	}
	msg, err := envelope(method, params)
	if err != nil {
		return fmt.Errorf("build notification: %w", err)
	}
	return t.send(msg)
}

// OnNotification registers a handler for server notifications. The method
// "*" matches notifications without a specific handler.
func (t *Transport) OnNotification(method string, handler NotificationHandler) {
	t.mu.Lock()
	t.handlers[method] = handler
	t.mu.Unlock()
}

func envelope(method string, params any) ([]byte, error) {
	msg := []byte(`{"jsonrpc":"2.0"}`)
	msg, err := sjson.SetBytes(msg, "method", method)
	if err != nil {
		return nil, err
	}
	if params == nil {
		return msg, nil
	}
	if raw, ok := params.(json.RawMessage); ok {
		return sjson.SetRawBytes(msg, "params", raw)
	}
	return sjson.SetBytes(msg, "params", params)
}

// send writes a message with the LSP Content-Length header.
func (t *Transport) send(body []byte) error {
	header := "Content-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n"

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if _, err := io.WriteString(t.writer, header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := t.writer.Write(body); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	return nil
}

func (t *Transport) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.done:
			return
		default:
		}

		msg, err := t.readMessage()
		if err != nil {
			if t.closed.Load() || errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				_ = t.Close()
				return
			}
			t.logger.Warn("lsp: bad message", "error", err)
			continue
		}
		t.dispatch(msg)
	}
}

// readMessage reads a single framed message.
func (t *Transport) readMessage() ([]byte, error) {
	contentLength := -1
	for {
		line, err := t.reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if ok && strings.EqualFold(strings.TrimSpace(name), "content-length") {
			if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
				contentLength = n
			}
		}
	}

	if contentLength < 0 {
		return nil, errors.New("missing Content-Length header")
	}

	body := make([]byte, contentLength)
	if _, err := io.ReadFull(t.reader, body); err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// dispatch routes a message to a waiting caller or a handler.
func (t *Transport) dispatch(data []byte) {
	if !gjson.ValidBytes(data) {
		t.logger.Warn("lsp: invalid json from server")
		return
	}
	msg := gjson.ParseBytes(data)
	id := msg.Get("id")
	method := msg.Get("method").String()

	switch {
	case id.Exists() && method == "":
		t.handleResponse(id.Int(), msg)

	case id.Exists():
		// Server-to-client request. Acknowledge with a null result so the
		// server does not wait on us, then treat it like a notification.
		t.reply(id)
		t.handleNotification(method, msg.Get("params"))

	case method != "":
		t.handleNotification(method, msg.Get("params"))
	}
}

func (t *Transport) reply(id gjson.Result) {
	msg, err := sjson.SetRawBytes([]byte(`{"jsonrpc":"2.0","result":null}`), "id", []byte(id.Raw))
	if err != nil {
		return
	}
	if err := t.send(msg); err != nil {
		t.logger.Debug("lsp: reply failed", "error", err)
	}
}

func (t *Transport) handleResponse(id int64, resp gjson.Result) {
	t.mu.Lock()
	ch, ok := t.pending[id]
	if ok {
		delete(t.pending, id)
	}
	t.mu.Unlock()

	if ok {
		select {
		case ch <- resp:
		default:
		}
	}
}

func (t *Transport) handleNotification(method string, params gjson.Result) {
	t.mu.Lock()
	handler, ok := t.handlers[method]
	if !ok {
		handler, ok = t.handlers["*"]
	}
	t.mu.Unlock()

	if ok && handler != nil {
		handler(method, params)
	}
}
