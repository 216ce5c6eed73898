package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/marc2332/freya-editor/internal/app"
	"github.com/marc2332/freya-editor/internal/config"
	"github.com/marc2332/freya-editor/internal/explorer"
	"github.com/marc2332/freya-editor/internal/filetree"
	"github.com/marc2332/freya-editor/internal/fs"
	"github.com/marc2332/freya-editor/internal/lsp"
	"github.com/marc2332/freya-editor/internal/state"
	"github.com/marc2332/freya-editor/internal/tui"
)

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	logLevel   string
	logFile    string
	workspace  string
}

func newRootCmd() *cobra.Command {
	var g globalFlags
	var metricsAddr string

	root := &cobra.Command{
		Use:   "freya-editor [files...]",
		Short: "A terminal code editor with language server support",
		Long: `freya-editor opens a workspace folder in a file explorer and edits
files in split panels, with syntax highlighting and hover information
from language servers.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEditor(cmd.Context(), g, metricsAddr, args)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "path to a configuration file (.toml, .yaml)")
	pf.StringVar(&g.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&g.logFile, "log-file", "", "write logs to this file")
	pf.StringVarP(&g.workspace, "workspace", "w", "", "workspace directory")
	root.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	root.AddCommand(newTreeCmd(&g), newHoverCmd(&g), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "freya-editor %s\n", version)
			fmt.Fprintf(out, "Commit: %s\n", commit)
			fmt.Fprintf(out, "Built: %s\n", date)
		},
	}
}

// loadConfig loads the configuration and applies flag overrides.
func loadConfig(g globalFlags) (config.Config, error) {
	var opts []config.Option
	if g.configPath != "" {
		opts = append(opts, config.WithFile(g.configPath))
	}
	if g.workspace != "" {
		opts = append(opts, config.WithProjectDir(g.workspace))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return config.Config{}, err
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
		if err := cfg.Validate(); err != nil {
			return config.Config{}, err
		}
	}
	return cfg, nil
}

// newLogger builds the logger. The editor owns the terminal, so without
// a log file its logs are discarded.
func newLogger(cfg config.Config, g globalFlags, fallback io.Writer) (*slog.Logger, func(), error) {
	out, closeFn := fallback, func() {}
	if g.logFile != "" {
		f, err := os.OpenFile(g.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		out, closeFn = f, func() { f.Close() }
	}
	return app.NewLogger(app.LoggerConfig{
		Level:     app.ParseLogLevel(cfg.Logging.Level),
		Output:    out,
		JSON:      cfg.Logging.Format == "json",
		Component: "freya",
	}), closeFn, nil
}

// errNotTerminal is returned when the editor is started without a terminal.
var errNotTerminal = errors.New("standard input and output must be a terminal")

func runEditor(ctx context.Context, g globalFlags, metricsAddr string, files []string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errNotTerminal
	}
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(cfg, g, io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()

	workspace := g.workspace
	if workspace == "" && len(files) > 0 {
		if abs, err := filepath.Abs(files[0]); err == nil {
			workspace = filepath.Dir(abs)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	a, err := app.New(app.Options{
		Config:        &cfg,
		WorkspacePath: workspace,
		Files:         files,
		Logger:        logger,
		Engine:        tui.CellEngine{},
		Registerer:    reg,
	})
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing terminal: %w", err)
	}
	defer screen.Fini()

	grp, ctx := errgroup.WithContext(ctx)
	grp.Go(func() error { return a.Run(ctx) })
	grp.Go(func() error { return tui.NewView(screen, a).Run(ctx) })
	if metricsAddr != "" {
		grp.Go(func() error { return serveMetrics(ctx, metricsAddr, reg, logger) })
	}
	return grp.Wait()
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newTreeCmd(g *globalFlags) *cobra.Command {
	var depth int
	cmd := &cobra.Command{
		Use:   "tree [dir]",
		Short: "Print a folder the way the file explorer shows it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			abs, err := filepath.Abs(dir)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(*g)
			if err != nil {
				return err
			}
			logger, closeLog, err := newLogger(cfg, *g, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeLog()
			return printTree(cmd.Context(), cmd.OutOrStdout(), fs.NewOSFS(), abs, depth, logger)
		},
	}
	cmd.Flags().IntVarP(&depth, "depth", "d", 1, "expand folders up to this depth")
	return cmd
}

// printTree opens dir as a workspace, expands folders shallower than
// depth and prints the explorer rows.
func printTree(ctx context.Context, w io.Writer, transport fs.Transport, dir string, depth int, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store := state.NewStore(nil)
	go store.Run(ctx)
	exp := explorer.New(store, transport, explorer.WithLogger(logger))

	if err := exp.AddWorkspace(ctx, dir); err != nil {
		return err
	}
	for expanded := true; expanded; {
		expanded = false
		for _, row := range filetree.FlattenAll(store.Read().Folders()) {
			if row.IsFile || row.IsOpened || row.Depth >= depth {
				continue
			}
			t := explorer.Task{Kind: explorer.OpenFolder, Path: row.Path, RootPath: row.RootPath, Row: -1}
			if err := exp.Do(ctx, t); err != nil {
				return err
			}
			expanded = true
			break
		}
	}

	for _, row := range filetree.FlattenAll(store.Read().Folders()) {
		name := filepath.Base(row.Path)
		if !row.IsFile {
			name += "/"
		}
		fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", row.Depth), name)
	}
	return nil
}

func newHoverCmd(g *globalFlags) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "hover <file> <line> <column>",
		Short: "Print the language server hover text at a position (1-based)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := strconv.Atoi(args[1])
			if err != nil || line < 1 {
				return fmt.Errorf("invalid line %q", args[1])
			}
			col, err := strconv.Atoi(args[2])
			if err != nil || col < 1 {
				return fmt.Errorf("invalid column %q", args[2])
			}
			cfg, err := loadConfig(*g)
			if err != nil {
				return err
			}
			logger, closeLog, err := newLogger(cfg, *g, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeLog()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			text, err := hoverAt(ctx, cfg, logger, args[0], g.workspace, lsp.Position{Line: line - 1, Character: col - 1})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "give up after this long")
	return cmd
}

// hoverAt starts the file's language server, opens the file and asks for
// hover text, retrying while the server is still indexing.
func hoverAt(ctx context.Context, cfg config.Config, logger *slog.Logger, file, root string, pos lsp.Position) (string, error) {
	path, err := filepath.Abs(file)
	if err != nil {
		return "", err
	}
	if root == "" {
		root = filepath.Dir(path)
	}
	language := lsp.LanguageFromPath(path)
	lcfg := cfg.LSP.ServerTable().ConfigFor(root, language)
	if lcfg == nil {
		return "", fmt.Errorf("%w: %q", lsp.ErrNoServer, language)
	}

	text, err := fs.NewOSFS().ReadFileToString(ctx, path)
	if err != nil {
		return "", err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	store := state.NewStore(nil)
	go store.Run(runCtx)

	mgr := lsp.NewManager(lsp.WithLogger(logger))
	defer func() {
		shutdownCtx, stop := context.WithTimeout(context.Background(), app.ShutdownTimeout)
		defer stop()
		_ = mgr.Shutdown(shutdownCtx)
	}()

	bridge, err := mgr.GetOrCreate(ctx, store, *lcfg)
	if err != nil {
		return "", err
	}
	if err := bridge.DidOpen(ctx, path, language, text); err != nil {
		return "", err
	}

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		hover, ok, err := bridge.Hover(ctx, path, pos)
		switch {
		case errors.Is(err, lsp.ErrStillIndexing):
		case err != nil:
			return "", err
		case !ok:
			return "", errors.New("nothing to show")
		default:
			return hover, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}
