package fs

import (
	"context"
	"os"
	"path/filepath"
)

// OSFS implements Transport using the operating system's filesystem.
type OSFS struct{}

// NewOSFS creates a new OS-backed transport.
func NewOSFS() *OSFS {
	return &OSFS{}
}

// Ensure OSFS implements Transport.
var _ Transport = (*OSFS)(nil)

// ListDirectory returns the entries of path. os.ReadDir sorts by name.
func (f *OSFS) ListDirectory(ctx context.Context, path string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dirEntries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		entries = append(entries, Entry{
			Path:  filepath.Join(path, de.Name()),
			IsDir: de.IsDir(),
		})
	}
	return entries, nil
}

// ReadFileToString reads the file at path.
func (f *OSFS) ReadFileToString(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
