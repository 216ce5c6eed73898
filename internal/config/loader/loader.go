// Package loader reads configuration sources into nested maps.
//
// Files are decoded according to their extension (TOML or YAML) and
// environment variables are mapped onto dotted setting paths. Sources are
// combined with DeepMerge, later sources overriding earlier ones.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Loader produces a configuration map from one source.
// A missing source yields nil, nil.
type Loader interface {
	Load() (map[string]any, error)
}

// FileSystem is the file access loaders need.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
}

// OSFS reads from the operating system.
type OSFS struct{}

// ReadFile implements FileSystem.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// ErrUnsupportedFormat is returned for files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// decoder parses raw file contents.
type decoder func(data []byte) (map[string]any, error)

// FileLoader loads one configuration file.
type FileLoader struct {
	fs     FileSystem
	path   string
	decode decoder
}

// ForPath returns the loader matching path's extension: .toml, .yaml or
// .yml.
func ForPath(fsys FileSystem, path string) (*FileLoader, error) {
	if fsys == nil {
		fsys = OSFS{}
	}
	var dec decoder
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		dec = decodeTOML
	case ".yaml", ".yml":
		dec = decodeYAML
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	return &FileLoader{fs: fsys, path: path, decode: dec}, nil
}

// Path returns the file the loader reads.
func (l *FileLoader) Path() string { return l.path }

// Load implements Loader.
func (l *FileLoader) Load() (map[string]any, error) {
	data, err := l.fs.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", l.path, err)
	}

	m, err := l.decode(data)
	if err != nil {
		return nil, &ParseError{Path: l.path, Err: err}
	}
	return m, nil
}

// ParseError reports a file that could not be decoded.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
