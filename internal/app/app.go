// Package app wires the editor together: the state store, the file
// explorer, one surface per open editor tab, language servers and the
// command line. It manages the application lifecycle.
package app

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/marc2332/freya-editor/internal/commander"
	"github.com/marc2332/freya-editor/internal/config"
	"github.com/marc2332/freya-editor/internal/editor"
	"github.com/marc2332/freya-editor/internal/explorer"
	"github.com/marc2332/freya-editor/internal/filetree"
	"github.com/marc2332/freya-editor/internal/fs"
	"github.com/marc2332/freya-editor/internal/layout"
	"github.com/marc2332/freya-editor/internal/lsp"
	"github.com/marc2332/freya-editor/internal/state"
)

// ShutdownTimeout bounds language server shutdown.
const ShutdownTimeout = 3 * time.Second

// Options configures the application.
type Options struct {
	// Config is the loaded configuration. Zero means config.Default().
	Config *config.Config

	// WorkspacePath is opened in the explorer on startup.
	WorkspacePath string

	// Files are opened on startup.
	Files []string

	// Logger defaults to one built from Config.Logging.
	Logger *slog.Logger

	// Transport defaults to the local file system.
	Transport fs.Transport

	// Starter replaces the language server process starter.
	Starter lsp.Starter

	// Engine is the layout engine of every surface.
	Engine layout.Engine

	// Registerer receives the metrics. Nil leaves them unregistered.
	Registerer prometheus.Registerer
}

// Application is the central coordinator for all editor components.
type Application struct {
	opts    Options
	cfg     config.Config
	logger  *slog.Logger
	metrics *Metrics

	store     *state.Store
	lsp       *lsp.Manager
	servers   lsp.Servers
	watcher   *filetree.Watcher
	explorer  *explorer.Explorer
	commander *commander.Commander

	mu        sync.Mutex
	surfaces  map[state.Scope]*surfaceEntry
	lspStatus map[string]string
	group     *errgroup.Group
	quit      context.CancelFunc

	changes chan struct{}
	redraw  chan struct{}
	running atomic.Bool
}

type surfaceEntry struct {
	surface *editor.Surface
	path    string
	cancel  context.CancelFunc
}

// New creates an application. Nothing runs until Run.
func New(opts Options) (*Application, error) {
	cfg := config.Default()
	if opts.Config != nil {
		cfg = *opts.Config
	}
	if err := cfg.Validate(); err != nil {
		return nil, &InitError{Component: "config", Err: err}
	}

	app := &Application{
		opts:      opts,
		cfg:       cfg,
		logger:    opts.Logger,
		metrics:   NewMetrics(opts.Registerer),
		servers:   cfg.LSP.ServerTable(),
		surfaces:  make(map[state.Scope]*surfaceEntry),
		lspStatus: make(map[string]string),
		changes:   make(chan struct{}, 1),
		redraw:    make(chan struct{}, 1),
	}
	if app.logger == nil {
		app.logger = NewLogger(LoggerConfig{
			Level:     ParseLogLevel(cfg.Logging.Level),
			JSON:      cfg.Logging.Format == "json",
			Component: "freya",
		})
	}

	m := state.NewManager()
	m.SetFontSize(cfg.Editor.FontSize)
	m.SetLineHeight(cfg.Editor.LineHeight)
	app.store = state.NewStore(m, state.WithNotifyHook(app.metrics.RecordCommit))

	lspOpts := []lsp.ManagerOption{
		lsp.WithLogger(app.logger.With("component", "lsp")),
		lsp.WithStatusCallback(app.setLSPStatus),
	}
	if opts.Starter != nil {
		lspOpts = append(lspOpts, lsp.WithStarter(opts.Starter))
	}
	app.lsp = lsp.NewManager(lspOpts...)

	transport := opts.Transport
	if transport == nil {
		transport = fs.NewOSFS()
	}
	expOpts := []explorer.Option{
		explorer.WithLogger(app.logger.With("component", "explorer")),
		explorer.WithOpenHook(func(_ string, err error) { app.metrics.RecordOpen(err) }),
	}
	if app.servers != nil {
		expOpts = append(expOpts, explorer.WithLanguageServers(app.lsp, app.servers))
	}
	if cfg.Explorer.Watch {
		w, err := filetree.NewWatcher(app.logger.With("component", "watcher"), cfg.Explorer.RefreshDelay.Duration)
		if err != nil {
			return nil, &InitError{Component: "file watcher", Err: err}
		}
		app.watcher = w
		expOpts = append(expOpts, explorer.WithWatcher(w))
	}
	app.explorer = explorer.New(app.store, transport, expOpts...)
	app.commander = commander.New(app, app.requestRedraw)

	app.store.Subscribe(state.ScopeAll, app.onGlobalChange)
	return app, nil
}

// Store returns the state store.
func (app *Application) Store() *state.Store { return app.store }

// Explorer returns the file explorer.
func (app *Application) Explorer() *explorer.Explorer { return app.explorer }

// Commander returns the command line.
func (app *Application) Commander() *commander.Commander { return app.commander }

// Logger returns the application logger.
func (app *Application) Logger() *slog.Logger { return app.logger }

// Redraw is signalled whenever the screen should be drawn again.
func (app *Application) Redraw() <-chan struct{} { return app.redraw }

// Run starts every component and blocks until ctx is done, Quit is
// called or a component fails. Language servers are shut down before
// Run returns.
func (app *Application) Run(ctx context.Context) error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.commander.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	app.mu.Lock()
	app.group = g
	app.quit = cancel
	app.mu.Unlock()

	g.Go(func() error { return app.store.Run(gctx) })
	g.Go(func() error { return app.explorer.Run(gctx) })
	if app.watcher != nil {
		g.Go(func() error { return app.watcher.Run(gctx) })
	}
	g.Go(func() error { return app.supervise(gctx) })
	g.Go(func() error { return app.startup(gctx) })

	err := g.Wait()

	shutdownCtx, stop := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer stop()
	if serr := app.lsp.Shutdown(shutdownCtx); serr != nil {
		app.logger.Warn("shutting down language servers", "error", serr)
	}

	if errors.Is(err, ErrQuit) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Quit stops Run.
func (app *Application) Quit() {
	app.mu.Lock()
	defer app.mu.Unlock()
	if app.quit != nil {
		app.quit()
	}
}

// startup opens the workspace folder and the files given on the command
// line. With files, the code editor ends up focused.
func (app *Application) startup(ctx context.Context) error {
	if app.opts.WorkspacePath != "" {
		dir, err := filepath.Abs(app.opts.WorkspacePath)
		if err != nil {
			return err
		}
		if err := app.explorer.AddWorkspace(ctx, dir); err != nil {
			return err
		}
	}

	if len(app.opts.Files) == 0 {
		return nil
	}
	for _, f := range app.opts.Files {
		if err := app.Open(ctx, f); err != nil {
			if !errors.Is(err, lsp.ErrInvalidURI) {
				return err
			}
			app.logger.Warn("cannot open file", "path", f, "error", err)
		}
	}
	return app.store.Submit(ctx, state.ScopeAll, func(m *state.Manager) {
		m.SetFocusedView(state.ViewCodeEditor)
	})
}

// Open opens path in the focused panel. The file's workspace root is
// the workspace folder containing it, else its directory.
func (app *Application) Open(ctx context.Context, path string) error {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	root := filepath.Dir(path)
	for _, f := range app.store.Read().Folders() {
		if path == f.Path || strings.HasPrefix(path, f.Path+string(filepath.Separator)) {
			root = f.Path
			break
		}
	}
	return app.explorer.Do(ctx, explorer.Task{Kind: explorer.OpenFile, Path: path, RootPath: root, Row: -1})
}

// supervise keeps one running surface per open editor tab.
func (app *Application) supervise(ctx context.Context) error {
	app.syncSurfaces(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-app.changes:
			app.syncSurfaces(ctx)
		}
	}
}

// syncSurfaces starts surfaces for new tabs and stops those whose tab
// was closed or now holds another file.
func (app *Application) syncSurfaces(ctx context.Context) {
	m := app.store.Read()
	want := make(map[state.Scope]*state.EditorData)
	for p, panel := range m.Panels() {
		for t, tab := range panel.Tabs() {
			if e, ok := tab.Editor(); ok {
				want[state.ScopeTab(p, t)] = e
			}
		}
	}

	app.mu.Lock()
	defer app.mu.Unlock()

	for scope, ent := range app.surfaces {
		if e, ok := want[scope]; !ok || e.Path != ent.path {
			ent.cancel()
			delete(app.surfaces, scope)
		}
	}
	for scope, e := range want {
		if _, ok := app.surfaces[scope]; ok || ctx.Err() != nil {
			continue
		}
		panel, tab, _ := scope.Tab()
		s := editor.NewSurface(app.store, panel, tab, app.surfaceOptions(e)...)
		sctx, cancel := context.WithCancel(ctx)
		app.surfaces[scope] = &surfaceEntry{surface: s, path: e.Path, cancel: cancel}
		app.group.Go(func() error { return s.Run(sctx) })
	}
	app.metrics.SetSurfaces(len(app.surfaces))
}

func (app *Application) surfaceOptions(e *state.EditorData) []editor.Option {
	opts := []editor.Option{
		editor.WithLogger(app.logger.With("component", "editor", "path", e.Path)),
		editor.WithHoverDelay(app.cfg.Editor.HoverDelay.Duration),
		editor.WithLanguageServer(app.servers.ConfigFor(e.RootPath, e.LanguageID)),
		editor.WithKeyHook(app.metrics.RecordKey),
		editor.WithHoverHook(app.metrics.RecordHover),
		editor.WithRender(app.requestRedraw),
	}
	if app.opts.Engine != nil {
		opts = append(opts, editor.WithEngine(app.opts.Engine))
	}
	return opts
}

// Surface returns the running surface of the tab at (panel, tab).
func (app *Application) Surface(panel, tab int) (*editor.Surface, bool) {
	app.mu.Lock()
	defer app.mu.Unlock()
	ent, ok := app.surfaces[state.ScopeTab(panel, tab)]
	if !ok {
		return nil, false
	}
	return ent.surface, true
}

// ActiveSurface returns the surface of the focused panel's active tab.
func (app *Application) ActiveSurface() (*editor.Surface, bool) {
	m := app.store.Read()
	if len(m.Panels()) == 0 {
		return nil, false
	}
	tab, ok := m.Panel(m.FocusedPanel()).ActiveTab()
	if !ok {
		return nil, false
	}
	return app.Surface(m.FocusedPanel(), tab)
}

func (app *Application) onGlobalChange() {
	select {
	case app.changes <- struct{}{}:
	default:
	}
	app.requestRedraw()
}

func (app *Application) requestRedraw() {
	select {
	case app.redraw <- struct{}{}:
	default:
	}
}

func (app *Application) setLSPStatus(name, status string) {
	app.mu.Lock()
	app.lspStatus[name] = status
	app.mu.Unlock()
	app.requestRedraw()
}

// FontSize implements commander.Host.
func (app *Application) FontSize() float64 {
	return app.store.Read().FontSize()
}

// SetFontSize implements commander.Host. The size is clamped to the
// supported range.
func (app *Application) SetFontSize(ctx context.Context, size float64) error {
	size = config.ClampFontSize(size)
	_, err := app.store.SubmitChange(ctx, state.ScopeAll, func(m *state.Manager) bool {
		if m.FontSize() == size {
			return false
		}
		m.SetFontSize(size)
		return true
	})
	return err
}

// Status implements commander.Host.
func (app *Application) Status() string {
	return app.StatusLine()
}
