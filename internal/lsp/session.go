package lsp

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/tidwall/gjson"
)

// SessionState is the lifecycle of a language server session.
type SessionState int32

const (
	// SessionUninitialized means no session exists yet.
	SessionUninitialized SessionState = iota
	// SessionStarting means the session exists but has not finished indexing.
	SessionStarting
	// SessionIndexed means the server is ready for hover requests.
	SessionIndexed
)

// String returns a human-readable state name.
func (s SessionState) String() string {
	switch s {
	case SessionUninitialized:
		return "uninitialized"
	case SessionStarting:
		return "starting"
	case SessionIndexed:
		return "indexed"
	default:
		return "unknown"
	}
}

// Session is a connection to a running language server.
type Session interface {
	// DidOpen notifies the server that a document was opened.
	DidOpen(ctx context.Context, item TextDocumentItem) error

	// Hover requests hover information. A null result means no hover.
	Hover(ctx context.Context, params HoverParams) (gjson.Result, error)

	// Shutdown stops the server.
	Shutdown(ctx context.Context) error
}

// Events are callbacks a session invokes from its notification goroutine.
type Events struct {
	// OnStatus receives progress and status messages as (name, status).
	OnStatus func(name, status string)

	// OnIndexed is called when the server reports it finished indexing.
	OnIndexed func()
}

func (e Events) status(name, status string) {
	if e.OnStatus != nil {
		e.OnStatus(name, status)
	}
}

func (e Events) indexed() {
	if e.OnIndexed != nil {
		e.OnIndexed()
	}
}

// Bridge is a session shared by every editor of one language server.
type Bridge struct {
	serverID string
	session  Session

	// Indexed is set once the server finished indexing. It is written from
	// the session's notification goroutine and read by hover loops.
	Indexed atomic.Bool

	mu     sync.Mutex
	opened map[DocumentURI]bool
}

// NewBridge wraps session. The bridge starts out not indexed.
func NewBridge(serverID string, session Session) *Bridge {
	return &Bridge{
		serverID: serverID,
		session:  session,
		opened:   make(map[DocumentURI]bool),
	}
}

// ServerID returns the key the bridge is registered under.
func (b *Bridge) ServerID() string { return b.serverID }

// Session returns the underlying session.
func (b *Bridge) Session() Session { return b.session }

// State returns SessionIndexed once indexed, SessionStarting before.
func (b *Bridge) State() SessionState {
	if b.Indexed.Load() {
		return SessionIndexed
	}
	return SessionStarting
}

// DidOpen sends textDocument/didOpen for path with version 0, once per
// document for the lifetime of the bridge. Returns an error matching
// ErrInvalidURI if path cannot be expressed as a URI.
func (b *Bridge) DidOpen(ctx context.Context, path, languageID, text string) error {
	uri, err := FilePathToURI(path)
	if err != nil {
		return err
	}

	b.mu.Lock()
	if b.opened[uri] {
		b.mu.Unlock()
		return nil
	}
	b.opened[uri] = true
	b.mu.Unlock()

	err = b.session.DidOpen(ctx, TextDocumentItem{
		URI:        uri,
		LanguageID: languageID,
		Version:    0,
		Text:       text,
	})
	if err != nil {
		b.mu.Lock()
		delete(b.opened, uri)
		b.mu.Unlock()
	}
	return err
}

// IsOpen reports whether didOpen was sent for path.
func (b *Bridge) IsOpen(path string) bool {
	uri, err := FilePathToURI(path)
	if err != nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opened[uri]
}

// Hover requests hover text at pos in the document at path.
// Returns ErrStillIndexing before the server is indexed, and ("", false)
// when the server has nothing to show.
func (b *Bridge) Hover(ctx context.Context, path string, pos Position) (string, bool, error) {
	if !b.Indexed.Load() {
		return "", false, ErrStillIndexing
	}
	uri, err := FilePathToURI(path)
	if err != nil {
		return "", false, err
	}

	result, err := b.session.Hover(ctx, HoverParams{
		TextDocumentPositionParams: TextDocumentPositionParams{
			TextDocument: TextDocumentIdentifier{URI: uri},
			Position:     pos,
		},
	})
	if err != nil {
		return "", false, err
	}
	text, ok := HoverText(result)
	return text, ok, nil
}
