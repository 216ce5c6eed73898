// Package filetree models the file explorer tree: folders that are opened
// or closed, files, and the flattened view the explorer renders.
//
// Items are values. SetFolderState returns a new tree that shares the
// untouched branches with the old one, so trees can live in state
// snapshots.
package filetree

import (
	"path/filepath"
	"strings"
)

// Kind distinguishes files from folders.
type Kind uint8

const (
	KindFile Kind = iota
	KindFolder
)

// FolderState is the expand state of a folder. The zero value is Closed.
type FolderState struct {
	opened   bool
	children []Item
}

// Closed is the state of a collapsed folder.
var Closed = FolderState{}

// Opened returns the state of an expanded folder with the given children.
func Opened(children []Item) FolderState {
	return FolderState{opened: true, children: children}
}

// IsOpened reports whether the folder is expanded.
func (s FolderState) IsOpened() bool { return s.opened }

// Children returns the listed children of an opened folder.
func (s FolderState) Children() []Item { return s.children }

// Item is a node of the tree.
type Item struct {
	Path  string
	Kind  Kind
	State FolderState // folders only
}

// NewFile returns a file item.
func NewFile(path string) Item {
	return Item{Path: path, Kind: KindFile}
}

// NewFolder returns a folder item in the given state.
func NewFolder(path string, state FolderState) Item {
	return Item{Path: path, Kind: KindFolder, State: state}
}

// IsFolder reports whether the item is a folder.
func (it Item) IsFolder() bool { return it.Kind == KindFolder }

// Name returns the last path element.
func (it Item) Name() string { return filepath.Base(it.Path) }

// SetFolderState returns a copy of it in which the folder at folderPath has
// the given state. The folder is located by walking opened folders whose
// path is an ancestor of folderPath. If no such folder is reachable, it is
// returned unchanged.
func (it Item) SetFolderState(folderPath string, state FolderState) Item {
	if !it.IsFolder() {
		return it
	}
	if it.Path == folderPath {
		it.State = state
		return it
	}
	if !it.State.opened || !isAncestor(it.Path, folderPath) {
		return it
	}

	children := make([]Item, len(it.State.children))
	for i, child := range it.State.children {
		children[i] = child.SetFolderState(folderPath, state)
	}
	it.State = Opened(children)
	return it
}

// Find returns the item at p within the tree rooted at it.
func (it Item) Find(p string) (Item, bool) {
	if it.Path == p {
		return it, true
	}
	if !it.IsFolder() || !it.State.opened || !isAncestor(it.Path, p) {
		return Item{}, false
	}
	for _, child := range it.State.children {
		if found, ok := child.Find(p); ok {
			return found, true
		}
	}
	return Item{}, false
}

// OpenedFolders returns the paths of every opened folder in the tree,
// parents before children.
func (it Item) OpenedFolders() []string {
	if !it.IsFolder() || !it.State.opened {
		return nil
	}
	paths := []string{it.Path}
	for _, child := range it.State.children {
		paths = append(paths, child.OpenedFolders()...)
	}
	return paths
}

// isAncestor reports whether dir is a proper ancestor of p, comparing
// whole path elements.
func isAncestor(dir, p string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
