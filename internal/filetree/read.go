package filetree

import (
	"context"

	"github.com/marc2332/freya-editor/internal/fs"
)

// ReadFolderAsItems lists dir and returns its children as closed folders
// followed by files, each group in listing order.
func ReadFolderAsItems(ctx context.Context, transport fs.Transport, dir string) ([]Item, error) {
	entries, err := transport.ListDirectory(ctx, dir)
	if err != nil {
		return nil, err
	}

	var folders, files []Item
	for _, e := range entries {
		if e.IsDir {
			folders = append(folders, NewFolder(e.Path, Closed))
		} else {
			files = append(files, NewFile(e.Path))
		}
	}
	return append(folders, files...), nil
}
