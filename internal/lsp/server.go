package lsp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/tidwall/gjson"
)

// Server is a Session backed by a language server speaking JSON-RPC.
type Server struct {
	config    Config
	events    Events
	logger    *slog.Logger
	transport *Transport

	cmd    *exec.Cmd
	cancel context.CancelFunc

	mu     sync.Mutex
	titles map[string]string // progress token -> title
}

// Ensure Server implements Session.
var _ Session = (*Server)(nil)

// StartServer starts the server process described by cfg and performs the
// initialize handshake. The process lives until ctx is done or Shutdown is
// called; initCtx bounds only the handshake.
func StartServer(ctx, initCtx context.Context, cfg Config, events Events, logger *slog.Logger) (*Server, error) {
	procCtx, cancel := context.WithCancel(ctx)

	cmd := exec.CommandContext(procCtx, cfg.Command, cfg.Args...)
	cmd.Env = os.Environ()
	cmd.Dir = cfg.RootPath

	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		stdin.Close()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start process: %w", err)
	}

	transport := NewTransport(stdout, stdin, stdin, logger)
	s, err := connect(procCtx, initCtx, cfg, events, transport, logger)
	if err != nil {
		cancel()
		_ = cmd.Wait()
		return nil, err
	}
	s.cmd = cmd
	s.cancel = cancel

	go func() {
		err := cmd.Wait()
		s.logger.Info("language server exited", "server", cfg.ServerID, "error", err)
		_ = transport.Close()
	}()
	return s, nil
}

// connect wires a session to an already running transport.
func connect(ctx, initCtx context.Context, cfg Config, events Events, transport *Transport, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		config:    cfg,
		events:    events,
		logger:    logger.With("server", cfg.ServerID),
		transport: transport,
		titles:    make(map[string]string),
	}
	s.registerNotificationHandlers()
	transport.Start(ctx)

	if err := s.initialize(initCtx); err != nil {
		_ = transport.Close()
		return nil, fmt.Errorf("initialize: %w", err)
	}
	if cfg.ReadyOnInitialize {
		events.indexed()
	}
	return s, nil
}

func (s *Server) initialize(ctx context.Context) error {
	var rootURI DocumentURI
	var folders []WorkspaceFolder
	if s.config.RootPath != "" {
		uri, err := FilePathToURI(s.config.RootPath)
		if err != nil {
			return err
		}
		rootURI = uri
		folders = []WorkspaceFolder{{URI: uri, Name: filepath.Base(s.config.RootPath)}}
	}

	params := InitializeParams{
		ProcessID:        os.Getpid(),
		RootURI:          rootURI,
		Capabilities:     DefaultClientCapabilities(),
		WorkspaceFolders: folders,
	}
	if _, err := s.transport.Call(ctx, "initialize", params); err != nil {
		return fmt.Errorf("initialize request: %w", err)
	}
	return s.transport.Notify("initialized", struct{}{})
}

// registerNotificationHandlers tracks progress and readiness.
func (s *Server) registerNotificationHandlers() {
	s.transport.OnNotification("$/progress", s.handleProgress)

	s.transport.OnNotification("experimental/serverStatus", func(_ string, params gjson.Result) {
		if params.Get("quiescent").Bool() {
			s.events.status(s.config.ServerID, "ready")
			s.events.indexed()
		}
	})

	s.transport.OnNotification("window/showMessage", func(_ string, params gjson.Result) {
		s.logger.Info("lsp: server message", "message", params.Get("message").String())
	})

	s.transport.OnNotification("window/logMessage", func(_ string, params gjson.Result) {
		s.logger.Debug("lsp: server log", "message", params.Get("message").String())
	})
}

// handleProgress turns work done progress into status messages. The end
// of any progress marks the server indexed.
func (s *Server) handleProgress(_ string, params gjson.Result) {
	token := params.Get("token").String()
	value := params.Get("value")
	message := value.Get("message").String()

	s.mu.Lock()
	title := s.titles[token]
	switch value.Get("kind").String() {
	case "begin":
		title = value.Get("title").String()
		s.titles[token] = title
	case "end":
		delete(s.titles, token)
	}
	s.mu.Unlock()

	if title == "" {
		title = token
	}

	switch value.Get("kind").String() {
	case "begin", "report":
		status := message
		if pct := value.Get("percentage"); pct.Exists() {
			status = strconv.FormatInt(pct.Int(), 10) + "% " + status
		}
		if status == "" {
			status = "..."
		}
		s.events.status(title, status)
	case "end":
		if message == "" {
			message = "done"
		}
		s.events.status(title, message)
		s.events.indexed()
	}
}

// DidOpen notifies the server that a document was opened.
func (s *Server) DidOpen(_ context.Context, item TextDocumentItem) error {
	return s.transport.Notify("textDocument/didOpen", DidOpenTextDocumentParams{TextDocument: item})
}

// Hover requests hover information at a position.
func (s *Server) Hover(ctx context.Context, params HoverParams) (gjson.Result, error) {
	return s.transport.Call(ctx, "textDocument/hover", params)
}

// Shutdown gracefully shuts the server down and stops the process.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.transport.IsClosed() {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_, _ = s.transport.Call(shutdownCtx, "shutdown", nil)
		_ = s.transport.Notify("exit", nil)
	}
	err := s.transport.Close()
	if s.cancel != nil {
		s.cancel()
	}
	return err
}
