// Package fs provides the filesystem transport the file explorer and
// editor tabs read through.
//
// The Transport interface lets the OS filesystem be swapped for an
// in-memory one in tests and headless runs.
package fs

import "context"

// Entry is one item of a directory listing.
type Entry struct {
	Path  string
	IsDir bool
}

// Transport lists directories and reads files.
type Transport interface {
	// ListDirectory returns the direct children of path, sorted by name.
	ListDirectory(ctx context.Context, path string) ([]Entry, error)

	// ReadFileToString reads the whole file at path.
	ReadFileToString(ctx context.Context, path string) (string, error)
}
