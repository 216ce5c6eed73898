package lsp

import (
	"path/filepath"
	"strings"
)

// Config describes one session to start.
type Config struct {
	// RootPath is the workspace root the server is started in.
	RootPath string

	// LanguageID is the LSP language identifier (e.g. "rust").
	LanguageID string

	// ServerID names the server; editors with the same id and root
	// share one session.
	ServerID string

	// Command and Args start the server process.
	Command string
	Args    []string

	// ReadyOnInitialize marks the session indexed as soon as the
	// initialize handshake completes, for servers that never report
	// progress.
	ReadyOnInitialize bool
}

// Key identifies the session for cfg: one per server and workspace root.
func (c Config) Key() string {
	return c.ServerID + "\x00" + c.RootPath
}

// ServerSpec is the per-language server configuration.
type ServerSpec struct {
	ServerID          string
	Command           string
	Args              []string
	ReadyOnInitialize bool
}

// Servers maps language ids to server specs.
type Servers map[string]ServerSpec

// DefaultServers returns the built-in server table.
func DefaultServers() Servers {
	return Servers{
		"rust": {ServerID: "rust-analyzer", Command: "rust-analyzer"},
	}
}

// ConfigFor returns the session config for a file of language under root,
// or nil when no server is configured for language.
func (s Servers) ConfigFor(root, language string) *Config {
	spec, ok := s[language]
	if !ok || spec.Command == "" {
		return nil
	}
	id := spec.ServerID
	if id == "" {
		id = spec.Command
	}
	return &Config{
		RootPath:          root,
		LanguageID:        language,
		ServerID:          id,
		Command:           spec.Command,
		Args:              spec.Args,
		ReadyOnInitialize: spec.ReadyOnInitialize,
	}
}

// ConfigFor looks language up in the default server table.
func ConfigFor(root, language string) *Config {
	return DefaultServers().ConfigFor(root, language)
}

var extLanguages = map[string]string{
	".rs":   "rust",
	".go":   "go",
	".py":   "python",
	".js":   "javascript",
	".jsx":  "javascriptreact",
	".ts":   "typescript",
	".tsx":  "typescriptreact",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".hpp":  "cpp",
	".lua":  "lua",
	".toml": "toml",
	".json": "json",
	".yaml": "yaml",
	".yml":  "yaml",
	".md":   "markdown",
}

// LanguageFromPath returns the language id for a file path by extension,
// or "" when unknown.
func LanguageFromPath(path string) string {
	return extLanguages[strings.ToLower(filepath.Ext(path))]
}
