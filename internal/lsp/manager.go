package lsp

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

// BridgeTable is where bridges live once created. The editor state store
// implements it so that bridges share its lifetime and write discipline.
type BridgeTable interface {
	// LookupBridge returns the bridge registered under key, or nil.
	LookupBridge(key string) *Bridge

	// InsertBridge registers b under key and returns once committed.
	InsertBridge(ctx context.Context, key string, b *Bridge) error
}

// Starter starts a session. ctx bounds the session's lifetime; initCtx
// bounds only the startup handshake.
type Starter func(ctx, initCtx context.Context, cfg Config, events Events) (Session, error)

// ProcessStarter returns a Starter that launches server processes.
func ProcessStarter(logger *slog.Logger) Starter {
	return func(ctx, initCtx context.Context, cfg Config, events Events) (Session, error) {
		return StartServer(ctx, initCtx, cfg, events, logger)
	}
}

// Manager lazily creates shared sessions.
type Manager struct {
	starter  Starter
	logger   *slog.Logger
	onStatus func(name, status string)

	group singleflight.Group

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	bridges []*Bridge
}

// ManagerOption configures the manager.
type ManagerOption func(*Manager)

// WithStarter replaces the process starter.
func WithStarter(s Starter) ManagerOption {
	return func(m *Manager) {
		m.starter = s
	}
}

// WithLogger sets the manager's logger.
func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithStatusCallback receives (name, status) messages from every session.
func WithStatusCallback(cb func(name, status string)) ManagerOption {
	return func(m *Manager) {
		m.onStatus = cb
	}
}

// NewManager creates a manager. Sessions it starts live until Shutdown.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	if m.starter == nil {
		m.starter = ProcessStarter(m.logger)
	}
	m.ctx, m.cancel = context.WithCancel(context.Background())
	return m
}

// GetOrCreate returns the bridge for cfg.Key(), starting a session and
// registering it in table if none exists. Concurrent callers for the same
// server and root share a single creation.
func (m *Manager) GetOrCreate(ctx context.Context, table BridgeTable, cfg Config) (*Bridge, error) {
	key := cfg.Key()
	if b := table.LookupBridge(key); b != nil {
		return b, nil
	}

	v, err, _ := m.group.Do(key, func() (any, error) {
		if b := table.LookupBridge(key); b != nil {
			return b, nil
		}
		return m.create(ctx, table, cfg)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Bridge), nil
}

func (m *Manager) create(ctx context.Context, table BridgeTable, cfg Config) (*Bridge, error) {
	if m.ctx.Err() != nil {
		return nil, &ServerError{ServerID: cfg.ServerID, Err: ErrShutdown}
	}

	b := NewBridge(cfg.ServerID, nil)
	events := Events{
		OnStatus: m.onStatus,
		OnIndexed: func() {
			if !b.Indexed.Swap(true) {
				m.logger.Info("lsp: indexed", "server", cfg.ServerID)
			}
		},
	}

	m.logger.Info("lsp: starting", "server", cfg.ServerID, "root", cfg.RootPath)
	session, err := m.starter(m.ctx, ctx, cfg, events)
	if err != nil {
		return nil, &ServerError{ServerID: cfg.ServerID, Err: err}
	}
	b.session = session

	if err := table.InsertBridge(ctx, cfg.Key(), b); err != nil {
		_ = session.Shutdown(context.Background())
		return nil, &ServerError{ServerID: cfg.ServerID, Err: err}
	}

	m.mu.Lock()
	m.bridges = append(m.bridges, b)
	m.mu.Unlock()
	return b, nil
}

// Shutdown stops every session the manager started.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	bridges := m.bridges
	m.bridges = nil
	m.mu.Unlock()

	var errs []error
	for _, b := range bridges {
		if err := b.session.Shutdown(ctx); err != nil {
			errs = append(errs, &ServerError{ServerID: b.serverID, Err: err})
		}
	}
	m.cancel()
	return errors.Join(errs...)
}
