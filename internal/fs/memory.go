package fs

import (
	"context"
	iofs "io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"syscall"
)

// MemFS implements Transport with an in-memory tree of slash-separated
// paths. It is used by tests and headless runs.
//
// MemFS is safe for concurrent use.
type MemFS struct {
	mu    sync.RWMutex
	files map[string]string
	dirs  map[string]bool
}

// NewMemFS creates an empty in-memory filesystem containing only "/".
func NewMemFS() *MemFS {
	return &MemFS{
		files: make(map[string]string),
		dirs:  map[string]bool{"/": true},
	}
}

// Ensure MemFS implements Transport.
var _ Transport = (*MemFS)(nil)

// WriteFile stores content at filePath, creating parent directories.
func (m *MemFS) WriteFile(filePath, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	filePath = cleanPath(filePath)
	m.files[filePath] = content
	m.mkdirAllLocked(path.Dir(filePath))
}

// MkdirAll creates dirPath and its parents.
func (m *MemFS) MkdirAll(dirPath string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mkdirAllLocked(cleanPath(dirPath))
}

// Remove deletes a file or a directory and everything below it.
func (m *MemFS) Remove(p string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = cleanPath(p)
	prefix := p + "/"
	delete(m.files, p)
	delete(m.dirs, p)
	for f := range m.files {
		if strings.HasPrefix(f, prefix) {
			delete(m.files, f)
		}
	}
	for d := range m.dirs {
		if strings.HasPrefix(d, prefix) {
			delete(m.dirs, d)
		}
	}
}

func (m *MemFS) mkdirAllLocked(dirPath string) {
	for dirPath != "/" && dirPath != "." && !m.dirs[dirPath] {
		m.dirs[dirPath] = true
		dirPath = path.Dir(dirPath)
	}
}

// ListDirectory returns the direct children of dirPath sorted by name.
func (m *MemFS) ListDirectory(ctx context.Context, dirPath string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	dirPath = cleanPath(dirPath)
	if !m.dirs[dirPath] {
		if _, ok := m.files[dirPath]; ok {
			return nil, &iofs.PathError{Op: "readdir", Path: dirPath, Err: syscall.ENOTDIR}
		}
		return nil, &iofs.PathError{Op: "readdir", Path: dirPath, Err: iofs.ErrNotExist}
	}

	prefix := dirPath
	if prefix != "/" {
		prefix += "/"
	}

	var entries []Entry
	for f := range m.files {
		if isChild(prefix, f) {
			entries = append(entries, Entry{Path: f})
		}
	}
	for d := range m.dirs {
		if isChild(prefix, d) {
			entries = append(entries, Entry{Path: d, IsDir: true})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return path.Base(entries[i].Path) < path.Base(entries[j].Path)
	})
	return entries, nil
}

// ReadFileToString returns the content stored at filePath.
func (m *MemFS) ReadFileToString(ctx context.Context, filePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	filePath = cleanPath(filePath)
	content, ok := m.files[filePath]
	if !ok {
		if m.dirs[filePath] {
			return "", &iofs.PathError{Op: "read", Path: filePath, Err: syscall.EISDIR}
		}
		return "", &iofs.PathError{Op: "read", Path: filePath, Err: iofs.ErrNotExist}
	}
	return content, nil
}

func isChild(prefix, p string) bool {
	if !strings.HasPrefix(p, prefix) {
		return false
	}
	rest := p[len(prefix):]
	return rest != "" && !strings.Contains(rest, "/")
}

func cleanPath(p string) string {
	p = path.Clean("/" + strings.TrimPrefix(p, "/"))
	return p
}
