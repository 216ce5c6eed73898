package state

import (
	"maps"

	"github.com/marc2332/freya-editor/internal/engine/buffer"
	"github.com/marc2332/freya-editor/internal/filetree"
	"github.com/marc2332/freya-editor/internal/lsp"
)

// Default editor metrics.
const (
	DefaultFontSize   = 17.0
	DefaultLineHeight = 1.2
)

// Manager is the root of the editor state: panels of tabs, the workspace
// folders shown by the explorer, and the language server bridges.
//
// A Manager obtained from Store.Read is a snapshot and must not be
// modified. Mutations go through a Guard.
type Manager struct {
	focusedPanel int
	panels       []Panel

	fontSize   float64
	lineHeight float64

	focusedView  View
	previousView View
	hasPrevious  bool

	folders       []filetree.Item
	explorerFocus int

	bridges map[string]*lsp.Bridge
}

// NewManager returns the initial state: one empty panel, default font
// metrics, the code editor focused.
func NewManager() *Manager {
	return &Manager{
		panels:     []Panel{NewPanel()},
		fontSize:   DefaultFontSize,
		lineHeight: DefaultLineHeight,
		bridges:    make(map[string]*lsp.Bridge),
	}
}

// clone returns a copy that can be mutated without affecting m.
// Buffers are persistent so copying them is cheap.
func (m *Manager) clone() *Manager {
	c := *m
	c.panels = make([]Panel, len(m.panels))
	for i, p := range m.panels {
		c.panels[i] = p.clone()
	}
	c.folders = append([]filetree.Item(nil), m.folders...)
	c.bridges = maps.Clone(m.bridges)
	if c.bridges == nil {
		c.bridges = make(map[string]*lsp.Bridge)
	}
	return &c
}

// FontSize returns the editor font size.
func (m *Manager) FontSize() float64 { return m.fontSize }

// LineHeight returns the line height multiplier.
func (m *Manager) LineHeight() float64 { return m.lineHeight }

// SetFontSize sets the font size. Callers clamp.
func (m *Manager) SetFontSize(size float64) { m.fontSize = size }

// SetLineHeight sets the line height multiplier.
func (m *Manager) SetLineHeight(h float64) { m.lineHeight = h }

// FocusedView returns the view holding keyboard focus.
func (m *Manager) FocusedView() View { return m.focusedView }

// SetFocusedView focuses v and remembers the view it replaced.
func (m *Manager) SetFocusedView(v View) {
	m.previousView = m.focusedView
	m.hasPrevious = true
	m.focusedView = v
}

// SetFocusedViewToPrevious restores the view replaced by the last
// SetFocusedView, once.
func (m *Manager) SetFocusedViewToPrevious() {
	if !m.hasPrevious {
		return
	}
	m.focusedView = m.previousView
	m.hasPrevious = false
}

// FocusedPanel returns the index of the focused panel.
func (m *Manager) FocusedPanel() int { return m.focusedPanel }

// SetFocusedPanel focuses panel. Panics if out of range.
func (m *Manager) SetFocusedPanel(panel int) {
	checkIndex("panel", panel, len(m.panels))
	m.focusedPanel = panel
}

// SetFocusedTab focuses panel and activates its tab.
func (m *Manager) SetFocusedTab(panel, tab int) {
	m.SetFocusedPanel(panel)
	m.panels[panel].SetActiveTab(tab)
}

// Panels returns all panels. The slice must not be modified.
func (m *Manager) Panels() []Panel { return m.panels }

// Panel returns panel i. Panics if out of range.
func (m *Manager) Panel(i int) *Panel {
	checkIndex("panel", i, len(m.panels))
	return &m.panels[i]
}

// PushTab adds tab to panel. A tab with the same identity key is never
// duplicated: the existing one is reused. With focus, the tab becomes
// active and the panel focused.
func (m *Manager) PushTab(tab PanelTab, panel int, focus bool) {
	p := m.Panel(panel)

	idx := p.indexOf(tab.Key())
	if idx < 0 {
		p.tabs = append(p.tabs, tab.clone())
		idx = len(p.tabs) - 1
		if p.active < 0 {
			p.active = idx
		}
	}

	if focus {
		m.focusedPanel = panel
		p.active = idx
	}
}

// CloseEditor removes tab index from panel. If it was active, the next
// tab becomes active, else the previous one, else none.
func (m *Manager) CloseEditor(panel, index int) {
	m.Panel(panel).closeTab(index)
}

// PushPanel appends a panel.
func (m *Manager) PushPanel(p Panel) {
	m.panels = append(m.panels, p.clone())
}

// SplitPanel appends an empty panel and focuses it.
func (m *Manager) SplitPanel() {
	m.PushPanel(NewPanel())
	m.focusedPanel = len(m.panels) - 1
}

// ClosePanel removes panel i unless it is the only one. Focus stays on
// the same panel when possible; closing the focused last panel moves
// focus to the new last panel.
func (m *Manager) ClosePanel(i int) {
	checkIndex("panel", i, len(m.panels))
	if len(m.panels) == 1 {
		return
	}

	m.panels = append(m.panels[:i:i], m.panels[i+1:]...)
	if i < m.focusedPanel || (i == m.focusedPanel && m.focusedPanel == len(m.panels)) {
		m.focusedPanel--
	}
	m.focusedPanel = min(max(m.focusedPanel, 0), len(m.panels)-1)
}

// Editor returns the editor of the tab at (panel, tab), or nil when that
// tab is not a text editor. Panics if the indices are out of range.
func (m *Manager) Editor(panel, tab int) *EditorData {
	t := m.Panel(panel).Tab(tab)
	if e, ok := t.Editor(); ok {
		return e
	}
	return nil
}

// LookupEditor is like Editor but reports out-of-range indices and
// non-editor tabs with ok == false instead of panicking.
func (m *Manager) LookupEditor(panel, tab int) (*EditorData, bool) {
	if panel < 0 || panel >= len(m.panels) {
		return nil, false
	}
	p := &m.panels[panel]
	if tab < 0 || tab >= len(p.tabs) {
		return nil, false
	}
	return p.tabs[tab].Editor()
}

// ActiveEditor returns the active editor of the focused panel, if any.
func (m *Manager) ActiveEditor() (*EditorData, bool) {
	p := &m.panels[m.focusedPanel]
	if idx, ok := p.ActiveTab(); ok {
		return p.tabs[idx].Editor()
	}
	return nil, false
}

// ActiveCursor returns the cursor of the active editor, if any.
func (m *Manager) ActiveCursor() (buffer.Cursor, bool) {
	if e, ok := m.ActiveEditor(); ok {
		return e.Buffer.Cursor(), true
	}
	return buffer.Cursor{}, false
}

// IsActiveTab reports whether (panel, tab) is the active tab of the
// focused panel.
func (m *Manager) IsActiveTab(panel, tab int) bool {
	if panel != m.focusedPanel || panel >= len(m.panels) {
		return false
	}
	idx, ok := m.panels[panel].ActiveTab()
	return ok && idx == tab
}

// FindEditor locates the text editor tab for path.
func (m *Manager) FindEditor(path string) (panel, tab int, ok bool) {
	key := TabKey(path)
	for pi := range m.panels {
		if ti := m.panels[pi].indexOf(key); ti >= 0 {
			return pi, ti, true
		}
	}
	return 0, 0, false
}

// Bridge returns the language server bridge registered under id.
func (m *Manager) Bridge(id string) *lsp.Bridge {
	return m.bridges[id]
}

// InsertBridge registers b under id.
func (m *Manager) InsertBridge(id string, b *lsp.Bridge) {
	m.bridges[id] = b
}

// Bridges returns every registered bridge keyed by server id. The map must
// not be modified.
func (m *Manager) Bridges() map[string]*lsp.Bridge {
	return m.bridges
}

// Folders returns the workspace folders shown by the explorer.
func (m *Manager) Folders() []filetree.Item { return m.folders }

// OpenFolder adds a workspace folder, replacing one with the same path.
func (m *Manager) OpenFolder(item filetree.Item) {
	for i, f := range m.folders {
		if f.Path == item.Path {
			m.folders[i] = item
			return
		}
	}
	m.folders = append(m.folders, item)
}

// SetFolderState sets the state of folderPath inside the workspace folder
// rooted at rootPath. Reports whether the root was found.
func (m *Manager) SetFolderState(rootPath, folderPath string, st filetree.FolderState) bool {
	for i, f := range m.folders {
		if f.Path == rootPath {
			m.folders[i] = f.SetFolderState(folderPath, st)
			return true
		}
	}
	return false
}

// ExplorerFocus returns the index of the focused explorer row.
func (m *Manager) ExplorerFocus() int { return m.explorerFocus }

// SetExplorerFocus focuses explorer row i.
func (m *Manager) SetExplorerFocus(i int) { m.explorerFocus = max(i, 0) }

// MoveExplorerFocus moves the focused explorer row by delta within
// [0, rows-1].
func (m *Manager) MoveExplorerFocus(delta int) {
	rows := len(filetree.FlattenAll(m.folders))
	if rows == 0 {
		m.explorerFocus = 0
		return
	}
	m.explorerFocus = min(max(m.explorerFocus+delta, 0), rows-1)
}
