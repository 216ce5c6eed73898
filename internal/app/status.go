package app

import (
	"fmt"
	"sort"
	"strings"
)

// StatusLine renders the status bar: the focused view, the cursor of the
// focused editor and the latest message of each language server.
//
//	Code Editor | Ln 3, Col 1 | rust-analyzer indexing
func (app *Application) StatusLine() string {
	m := app.store.Read()

	var b strings.Builder
	b.WriteString(m.FocusedView().String())
	if c, ok := m.ActiveCursor(); ok {
		fmt.Fprintf(&b, " | Ln %d, Col %d", c.Row+1, c.Col+1)
	}

	app.mu.Lock()
	names := make([]string, 0, len(app.lspStatus))
	for name := range app.lspStatus {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, " | %s %s", name, app.lspStatus[name])
	}
	app.mu.Unlock()

	return b.String()
}
