package state

import "fmt"

// Scope is the granularity at which an observer wants to be notified:
// every change (ScopeAll) or changes made on behalf of one tab.
//
// Scope is comparable; two scopes match when they are equal.
type Scope struct {
	panel  int
	editor int
	tab    bool
}

// ScopeAll is the global scope.
var ScopeAll = Scope{}

// ScopeTab returns the scope of the tab at (panel, editor).
func ScopeTab(panel, editor int) Scope {
	return Scope{panel: panel, editor: editor, tab: true}
}

// IsAll reports whether s is the global scope.
func (s Scope) IsAll() bool { return !s.tab }

// Tab returns the tab coordinates. ok is false for ScopeAll.
func (s Scope) Tab() (panel, editor int, ok bool) {
	return s.panel, s.editor, s.tab
}

// String returns "all" or "tab(panel,editor)".
func (s Scope) String() string {
	if s.IsAll() {
		return "all"
	}
	return fmt.Sprintf("tab(%d,%d)", s.panel, s.editor)
}
