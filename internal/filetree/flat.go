package filetree

// FlatItem is one row of the rendered explorer.
type FlatItem struct {
	Path     string
	IsFile   bool
	IsOpened bool
	Depth    int
	RootPath string
}

// Flatten returns it and every visible descendant in display order.
// it sits at depth; its children at depth+1.
func (it Item) Flatten(depth int, rootPath string) []FlatItem {
	items := []FlatItem{{
		Path:     it.Path,
		IsFile:   !it.IsFolder(),
		IsOpened: it.IsFolder() && it.State.opened,
		Depth:    depth,
		RootPath: rootPath,
	}}
	if it.IsFolder() && it.State.opened {
		for _, child := range it.State.children {
			items = append(items, child.Flatten(depth+1, rootPath)...)
		}
	}
	return items
}

// FlattenAll flattens every workspace folder, each rooted at itself.
func FlattenAll(folders []Item) []FlatItem {
	var items []FlatItem
	for _, f := range folders {
		items = append(items, f.Flatten(0, f.Path)...)
	}
	return items
}
