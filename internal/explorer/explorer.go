// Package explorer runs the file explorer: it expands and collapses
// workspace folders and opens files into editor tabs.
//
// Tasks are handled one at a time, in the order they were sent, by the
// loop started with Run.
package explorer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/marc2332/freya-editor/internal/filetree"
	"github.com/marc2332/freya-editor/internal/fs"
	"github.com/marc2332/freya-editor/internal/input/key"
	"github.com/marc2332/freya-editor/internal/lsp"
	"github.com/marc2332/freya-editor/internal/state"
)

// Option configures an Explorer.
type Option func(*Explorer)

// WithLogger sets the logger for soft failures.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Explorer) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLanguageServers starts (or reuses) the language server of every
// opened file and announces the file to it.
func WithLanguageServers(mgr *lsp.Manager, servers lsp.Servers) Option {
	return func(e *Explorer) {
		e.lsp = mgr
		e.servers = servers
	}
}

// WithWatcher keeps opened folders in sync with the disk.
func WithWatcher(w *filetree.Watcher) Option {
	return func(e *Explorer) {
		e.watcher = w
	}
}

// WithOpenHook is called after each OpenFile task with its result. A
// file that could not be read is reported here even though Do succeeds.
func WithOpenHook(fn func(path string, err error)) Option {
	return func(e *Explorer) {
		e.onOpen = fn
	}
}

// WithQueueSize sets the task queue capacity.
func WithQueueSize(n int) Option {
	return func(e *Explorer) {
		if n > 0 {
			e.tasks = make(chan Task, n)
		}
	}
}

// Explorer applies file explorer tasks to the state store.
type Explorer struct {
	store     *state.Store
	transport fs.Transport
	logger    *slog.Logger
	lsp       *lsp.Manager
	servers   lsp.Servers
	watcher   *filetree.Watcher
	onOpen    func(string, error)

	tasks chan Task
	lspWG sync.WaitGroup
}

// New creates an explorer reading through transport.
func New(store *state.Store, transport fs.Transport, opts ...Option) *Explorer {
	e := &Explorer{
		store:     store,
		transport: transport,
		logger:    slog.Default(),
		tasks:     make(chan Task, 64),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Send queues t.
func (e *Explorer) Send(t Task) {
	e.tasks <- t
}

// Run handles queued tasks and folder changes until ctx is done.
func (e *Explorer) Run(ctx context.Context) error {
	defer e.lspWG.Wait()

	var changes <-chan string
	if e.watcher != nil {
		changes = e.watcher.Changes()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case t := <-e.tasks:
			if err := e.Do(ctx, t); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				e.logger.Warn("explorer task failed", "task", t.String(), "error", err)
			}
		case dir := <-changes:
			if err := e.Refresh(ctx, dir); err != nil && ctx.Err() == nil {
				e.logger.Warn("refreshing folder", "path", dir, "error", err)
			}
		}
	}
}

// Do handles t immediately. The files explorer view is focused first.
// A file that cannot be read is logged and opens no tab; a path that
// cannot be expressed as a file URI returns an error matching
// lsp.ErrInvalidURI.
func (e *Explorer) Do(ctx context.Context, t Task) error {
	if e.store.Read().FocusedView() != state.ViewFilesExplorer {
		err := e.store.Submit(ctx, state.ScopeAll, func(m *state.Manager) {
			m.SetFocusedView(state.ViewFilesExplorer)
		})
		if err != nil {
			return err
		}
	}

	var err error
	switch t.Kind {
	case OpenFolder:
		err = e.openFolder(ctx, t)
	case CloseFolder:
		err = e.closeFolder(ctx, t)
	case OpenFile:
		err = e.openFile(ctx, t)
	default:
		return fmt.Errorf("explorer: unknown task kind %v", t.Kind)
	}
	if err != nil {
		return err
	}

	if t.Row >= 0 {
		return e.store.Submit(ctx, state.ScopeAll, func(m *state.Manager) {
			m.SetExplorerFocus(t.Row)
		})
	}
	return nil
}

// AddWorkspace lists dir and shows it as an expanded workspace folder.
// The listing is best effort: an unreadable folder is shown empty.
func (e *Explorer) AddWorkspace(ctx context.Context, dir string) error {
	items, err := filetree.ReadFolderAsItems(ctx, e.transport, dir)
	if err != nil {
		e.logger.Warn("error reading folder", "path", dir, "error", err)
	}
	e.watch(dir)
	return e.store.Submit(ctx, state.ScopeAll, func(m *state.Manager) {
		m.OpenFolder(filetree.NewFolder(dir, filetree.Opened(items)))
		m.SetFocusedView(state.ViewFilesExplorer)
	})
}

func (e *Explorer) openFolder(ctx context.Context, t Task) error {
	items, err := filetree.ReadFolderAsItems(ctx, e.transport, t.Path)
	if err != nil {
		e.logger.Warn("error reading folder", "path", t.Path, "error", err)
		return nil
	}
	e.watch(t.Path)
	return e.store.Submit(ctx, state.ScopeAll, func(m *state.Manager) {
		m.SetFolderState(t.RootPath, t.Path, filetree.Opened(items))
	})
}

func (e *Explorer) closeFolder(ctx context.Context, t Task) error {
	if e.watcher != nil {
		e.watcher.Unwatch(t.Path)
	}
	return e.store.Submit(ctx, state.ScopeAll, func(m *state.Manager) {
		m.SetFolderState(t.RootPath, t.Path, filetree.Closed)
	})
}

func (e *Explorer) openFile(ctx context.Context, t Task) (err error) {
	var readErr error
	defer func() {
		if e.onOpen != nil {
			e.onOpen(t.Path, errors.Join(err, readErr))
		}
	}()

	if _, err := lsp.FilePathToURI(t.Path); err != nil {
		return err
	}

	text, readErr := e.transport.ReadFileToString(ctx, t.Path)
	if readErr != nil {
		e.logger.Warn("error reading file", "path", t.Path, "error", readErr)
		return nil
	}

	language := lsp.LanguageFromPath(t.Path)
	data := state.NewEditorData(t.Path, t.RootPath, language, text)
	err = e.store.Submit(ctx, state.ScopeAll, func(m *state.Manager) {
		m.PushTab(state.NewEditorTab(data), m.FocusedPanel(), true)
	})
	if err != nil {
		return err
	}

	e.announce(ctx, t.Path, t.RootPath, language, text)
	return nil
}

// announce sends didOpen to the file's language server in the
// background. The server is started on first use.
func (e *Explorer) announce(ctx context.Context, path, root, language, text string) {
	if e.lsp == nil {
		return
	}
	cfg := e.servers.ConfigFor(root, language)
	if cfg == nil {
		return
	}

	e.lspWG.Add(1)
	go func() {
		defer e.lspWG.Done()
		bridge, err := e.lsp.GetOrCreate(ctx, e.store, *cfg)
		if err != nil {
			e.logger.Warn("starting language server", "server", cfg.ServerID, "error", err)
			return
		}
		if err := bridge.DidOpen(ctx, path, language, text); err != nil {
			e.logger.Warn("didOpen", "path", path, "error", err)
		}
	}()
}

// WaitLanguageServers blocks until every pending didOpen finished.
func (e *Explorer) WaitLanguageServers() {
	e.lspWG.Wait()
}

// Refresh lists dir again if it is an opened folder of some workspace,
// keeping the state of its subfolders.
func (e *Explorer) Refresh(ctx context.Context, dir string) error {
	var root string
	var current filetree.Item
	for _, f := range e.store.Read().Folders() {
		if it, ok := f.Find(dir); ok && it.IsFolder() && it.State.IsOpened() {
			root, current = f.Path, it
			break
		}
	}
	if root == "" {
		return nil
	}

	items, err := filetree.ReadFolderAsItems(ctx, e.transport, dir)
	if err != nil {
		return err
	}
	for i, it := range items {
		if !it.IsFolder() {
			continue
		}
		if old, ok := current.Find(it.Path); ok && old.IsFolder() {
			items[i].State = old.State
		}
	}

	return e.store.Submit(ctx, state.ScopeAll, func(m *state.Manager) {
		m.SetFolderState(root, dir, filetree.Opened(items))
	})
}

func (e *Explorer) watch(dir string) {
	if e.watcher == nil {
		return
	}
	if err := e.watcher.Watch(dir); err != nil {
		e.logger.Warn("watching folder", "path", dir, "error", err)
	}
}

// Activate queues the task for explorer row i: a file opens, an opened
// folder closes, a closed folder opens. Reports whether the row exists.
func (e *Explorer) Activate(row int) bool {
	rows := filetree.FlattenAll(e.store.Read().Folders())
	if row < 0 || row >= len(rows) {
		return false
	}
	it := rows[row]

	t := Task{Path: it.Path, RootPath: it.RootPath, Row: row}
	switch {
	case it.IsFile:
		t.Kind = OpenFile
	case it.IsOpened:
		t.Kind = CloseFolder
	default:
		t.Kind = OpenFolder
	}
	e.Send(t)
	return true
}

// HandleKey applies explorer navigation while the explorer view is
// focused: Up and Down move the focused row, Enter activates it.
// Reports whether the key was consumed.
func (e *Explorer) HandleKey(ctx context.Context, ev key.Event) (bool, error) {
	m := e.store.Read()
	if m.FocusedView() != state.ViewFilesExplorer {
		return false, nil
	}

	switch ev.Key {
	case key.KeyUp, key.KeyDown:
		delta := 1
		if ev.Key == key.KeyUp {
			delta = -1
		}
		return true, e.store.Submit(ctx, state.ScopeAll, func(m *state.Manager) {
			m.MoveExplorerFocus(delta)
		})
	case key.KeyEnter:
		return e.Activate(m.ExplorerFocus()), nil
	}
	return false, nil
}
