package lsp

import (
	"errors"
	"fmt"
)

// Standard errors returned by the LSP layer.
var (
	// ErrShutdown indicates the session has been shut down.
	ErrShutdown = errors.New("lsp session shut down")

	// ErrNoServer indicates no server is configured for the language.
	ErrNoServer = errors.New("no server configured for language")

	// ErrNotRunning indicates no session exists for the language.
	ErrNotRunning = errors.New("language server not running")

	// ErrStillIndexing indicates the server has not finished indexing.
	ErrStillIndexing = errors.New("language server still indexing")

	// ErrInvalidURI indicates a path that cannot be expressed as a file URI.
	ErrInvalidURI = errors.New("path cannot be converted to a file URI")

	// ErrInvalidResponse indicates an invalid response from the server.
	ErrInvalidResponse = errors.New("invalid response from server")
)

// RPCError represents a JSON-RPC error from the server.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Standard JSON-RPC error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	CodeServerNotInitialized = -32002
	CodeRequestCancelled     = -32800
	CodeContentModified      = -32801
)

// ServerError represents an error related to a server's lifecycle.
type ServerError struct {
	ServerID string
	Err      error
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	return fmt.Sprintf("server %s: %v", e.ServerID, e.Err)
}

// Unwrap returns the underlying error.
func (e *ServerError) Unwrap() error {
	return e.Err
}

// URIError reports a path that could not be turned into a file URI.
type URIError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *URIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid file uri for %q: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("invalid file uri for %q", e.Path)
}

// Unwrap returns ErrInvalidURI so callers can match with errors.Is.
func (e *URIError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidURI, e.Err}
	}
	return []error{ErrInvalidURI}
}
