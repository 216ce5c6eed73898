package lsp

import (
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// This file contains the subset of LSP protocol types the editor uses.
// See https://microsoft.github.io/language-server-protocol/specifications/specification-current/

// DocumentURI is a URI identifying a text document.
type DocumentURI string

// Position in a text document expressed as zero-based line and character
// offset. Character offsets are UTF-16 code units.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// TextDocumentIdentifier identifies a text document.
type TextDocumentIdentifier struct {
	URI DocumentURI `json:"uri"`
}

// TextDocumentItem is an item to transfer a text document from client to server.
type TextDocumentItem struct {
	URI        DocumentURI `json:"uri"`
	LanguageID string      `json:"languageId"`
	Version    int         `json:"version"`
	Text       string      `json:"text"`
}

// TextDocumentPositionParams is a position inside a text document.
type TextDocumentPositionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

// HoverParams are parameters for textDocument/hover.
type HoverParams struct {
	TextDocumentPositionParams
}

// DidOpenTextDocumentParams are parameters for textDocument/didOpen.
type DidOpenTextDocumentParams struct {
	TextDocument TextDocumentItem `json:"textDocument"`
}

// WorkspaceFolder represents a workspace folder.
type WorkspaceFolder struct {
	URI  DocumentURI `json:"uri"`
	Name string      `json:"name"`
}

// InitializeParams are parameters for the initialize request.
type InitializeParams struct {
	ProcessID             int                `json:"processId"`
	RootURI               DocumentURI        `json:"rootUri,omitempty"`
	Capabilities          ClientCapabilities `json:"capabilities"`
	InitializationOptions any                `json:"initializationOptions,omitempty"`
	WorkspaceFolders      []WorkspaceFolder  `json:"workspaceFolders,omitempty"`
}

// ClientCapabilities describes what the client supports.
type ClientCapabilities struct {
	TextDocument TextDocumentClientCapabilities `json:"textDocument"`
	Window       WindowClientCapabilities       `json:"window"`
	Experimental map[string]any                 `json:"experimental,omitempty"`
}

// TextDocumentClientCapabilities lists text document features.
type TextDocumentClientCapabilities struct {
	Hover HoverClientCapabilities `json:"hover"`
}

// HoverClientCapabilities lists the content formats accepted for hover.
type HoverClientCapabilities struct {
	ContentFormat []string `json:"contentFormat,omitempty"`
}

// WindowClientCapabilities lists window features.
type WindowClientCapabilities struct {
	WorkDoneProgress bool `json:"workDoneProgress"`
}

// DefaultClientCapabilities returns the capabilities the editor announces.
// Work done progress is required for indexing to be observable.
func DefaultClientCapabilities() ClientCapabilities {
	return ClientCapabilities{
		TextDocument: TextDocumentClientCapabilities{
			Hover: HoverClientCapabilities{ContentFormat: []string{"plaintext", "markdown"}},
		},
		Window: WindowClientCapabilities{WorkDoneProgress: true},
		Experimental: map[string]any{
			"serverStatusNotification": true,
		},
	}
}

// FilePathToURI converts an absolute file path to a file URI.
// Relative, empty or otherwise malformed paths return an error matching
// ErrInvalidURI.
func FilePathToURI(path string) (DocumentURI, error) {
	switch {
	case path == "":
		return "", &URIError{Path: path}
	case !utf8.ValidString(path) || strings.ContainsRune(path, 0):
		return "", &URIError{Path: path}
	case !filepath.IsAbs(path):
		return "", &URIError{Path: path}
	}

	p := filepath.ToSlash(path)
	if runtime.GOOS == "windows" && len(p) >= 2 && p[1] == ':' {
		p = "/" + p
	}

	u := &url.URL{Scheme: "file", Path: p}
	return DocumentURI(u.String()), nil
}

// URIToFilePath converts a file URI back to a path.
func URIToFilePath(uri DocumentURI) (string, error) {
	u, err := url.Parse(string(uri))
	if err != nil {
		return "", &URIError{Path: string(uri), Err: err}
	}
	if u.Scheme != "file" {
		return "", &URIError{Path: string(uri)}
	}

	p := u.Path
	if runtime.GOOS == "windows" && len(p) >= 3 && p[0] == '/' && p[2] == ':' {
		p = p[1:]
	}
	return filepath.FromSlash(p), nil
}

// UTF16Offset converts a rune column within line to UTF-16 code units.
func UTF16Offset(line string, col int) int {
	n := 0
	for i, r := range []rune(line) {
		if i >= col {
			break
		}
		n += len(utf16.Encode([]rune{r}))
	}
	return n
}
