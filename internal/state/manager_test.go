package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marc2332/freya-editor/internal/engine/buffer"
	"github.com/marc2332/freya-editor/internal/filetree"
)

func editorTab(path string) PanelTab {
	return NewEditorTab(NewEditorData(path, "/proj", "rust", "fn main() {}\n"))
}

func TestNewManager(t *testing.T) {
	m := NewManager()
	require.Len(t, m.Panels(), 1)
	assert.Equal(t, 0, m.FocusedPanel())
	assert.Equal(t, DefaultFontSize, m.FontSize())
	assert.Equal(t, DefaultLineHeight, m.LineHeight())
	assert.Equal(t, ViewCodeEditor, m.FocusedView())

	_, ok := m.Panel(0).ActiveTab()
	assert.False(t, ok)
	_, ok = m.ActiveEditor()
	assert.False(t, ok)
}

func TestPushTab_Idempotent(t *testing.T) {
	m := NewManager()
	m.PushTab(editorTab("/proj/a.rs"), 0, true)
	m.PushTab(editorTab("/proj/b.rs"), 0, true)
	m.PushTab(editorTab("/proj/./a.rs"), 0, true)

	p := m.Panel(0)
	require.Equal(t, 2, p.Len())
	active, ok := p.ActiveTab()
	require.True(t, ok)
	assert.Equal(t, 0, active, "existing tab is reused and activated")

	m.PushTab(NewConfigTab(), 0, false)
	m.PushTab(NewConfigTab(), 0, false)
	assert.Equal(t, 3, p.Len())
	active, _ = p.ActiveTab()
	assert.Equal(t, 0, active, "unfocused push keeps the active tab")
}

func TestPushTab_FirstTabBecomesActive(t *testing.T) {
	m := NewManager()
	m.SplitPanel()
	m.SetFocusedPanel(0)

	m.PushTab(editorTab("/proj/a.rs"), 1, false)
	active, ok := m.Panel(1).ActiveTab()
	require.True(t, ok)
	assert.Equal(t, 0, active)
	assert.Equal(t, 0, m.FocusedPanel())

	m.PushTab(editorTab("/proj/b.rs"), 1, true)
	assert.Equal(t, 1, m.FocusedPanel())
	assert.True(t, m.IsActiveTab(1, 1))
}

func TestCloseEditor_Reselection(t *testing.T) {
	tests := []struct {
		name       string
		tabs       int
		active     int
		close      int
		wantActive int
		wantOK     bool
	}{
		{"active middle selects following", 3, 1, 1, 1, true},
		{"active last selects previous", 3, 2, 2, 1, true},
		{"only tab leaves none", 1, 0, 0, 0, false},
		{"before active shifts index", 3, 2, 0, 1, true},
		{"after active keeps index", 3, 0, 2, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager()
			for i := 0; i < tt.tabs; i++ {
				m.PushTab(editorTab(string(rune('a'+i))+".rs"), 0, false)
			}
			m.Panel(0).SetActiveTab(tt.active)

			m.CloseEditor(0, tt.close)

			assert.Equal(t, tt.tabs-1, m.Panel(0).Len())
			active, ok := m.Panel(0).ActiveTab()
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.wantActive, active)
			}
		})
	}
}

func TestCloseEditor_FollowingTabTakesOver(t *testing.T) {
	m := NewManager()
	for _, p := range []string{"/a", "/b", "/c"} {
		m.PushTab(editorTab(p), 0, true)
	}
	m.SetFocusedTab(0, 1)
	m.CloseEditor(0, 1)

	e, ok := m.ActiveEditor()
	require.True(t, ok)
	assert.Equal(t, "/c", e.Path)
}

func TestClosePanel(t *testing.T) {
	t.Run("last panel is kept", func(t *testing.T) {
		m := NewManager()
		m.PushTab(editorTab("/a"), 0, true)
		m.ClosePanel(0)
		require.Len(t, m.Panels(), 1)
		assert.Equal(t, 1, m.Panel(0).Len())
	})

	tests := []struct {
		name      string
		panels    int
		focused   int
		close     int
		wantFocus int
	}{
		{"before focused", 3, 2, 0, 1},
		{"after focused", 3, 0, 2, 0},
		{"focused middle", 3, 1, 1, 1},
		{"focused last", 3, 2, 2, 1},
		{"focused first", 2, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager()
			for i := 1; i < tt.panels; i++ {
				m.PushPanel(NewPanel())
			}
			m.SetFocusedPanel(tt.focused)

			m.ClosePanel(tt.close)

			assert.Len(t, m.Panels(), tt.panels-1)
			assert.Equal(t, tt.wantFocus, m.FocusedPanel())
		})
	}
}

func TestIndexPanics(t *testing.T) {
	m := NewManager()

	assertIndexPanic := func(kind string, fn func()) {
		t.Helper()
		defer func() {
			r := recover()
			require.NotNil(t, r)
			err, ok := r.(*IndexError)
			require.True(t, ok, "panic value %T", r)
			assert.Equal(t, kind, err.Kind)
			assert.ErrorIs(t, err, ErrIndexOutOfRange)
		}()
		fn()
	}

	assertIndexPanic("panel", func() { m.SetFocusedPanel(3) })
	assertIndexPanic("panel", func() { m.ClosePanel(-1) })
	assertIndexPanic("tab", func() { m.CloseEditor(0, 0) })
	assertIndexPanic("tab", func() { m.Editor(0, 5) })
}

func TestFocusedViewToggle(t *testing.T) {
	m := NewManager()
	m.SetFocusedViewToPrevious()
	assert.Equal(t, ViewCodeEditor, m.FocusedView(), "nothing to restore")

	m.SetFocusedView(ViewCommander)
	assert.Equal(t, ViewCommander, m.FocusedView())
	m.SetFocusedViewToPrevious()
	assert.Equal(t, ViewCodeEditor, m.FocusedView())
	assert.Equal(t, "Code Editor", m.FocusedView().String())
}

func TestEditorAndCursor(t *testing.T) {
	m := NewManager()
	m.PushTab(editorTab("/proj/main.rs"), 0, true)
	m.PushTab(NewConfigTab(), 0, false)

	e := m.Editor(0, 0)
	require.NotNil(t, e)
	e.Buffer.SetCursor(buffer.Cursor{Row: 0, Col: 3})

	c, ok := m.ActiveCursor()
	require.True(t, ok)
	assert.Equal(t, buffer.Cursor{Row: 0, Col: 3}, c)

	assert.Nil(t, m.Editor(0, 1), "config tab has no editor")
	assert.Equal(t, TabData{ID: ConfigTabKey, Title: "Config"}, m.Panel(0).Tab(1).Data())
	assert.Equal(t, "main.rs", m.Panel(0).Tab(0).Data().Title)

	pi, ti, ok := m.FindEditor("/proj/main.rs")
	require.True(t, ok)
	assert.Equal(t, [2]int{0, 0}, [2]int{pi, ti})
}

func TestCloneIsolatesBuffers(t *testing.T) {
	m := NewManager()
	m.PushTab(editorTab("/a.rs"), 0, true)

	c := m.clone()
	c.Editor(0, 0).Buffer.Insert(0, "// ")
	c.PushTab(editorTab("/b.rs"), 0, false)

	assert.Equal(t, "fn main() {}\n", m.Editor(0, 0).Buffer.Text())
	assert.Equal(t, 1, m.Panel(0).Len())
	assert.True(t, c.Editor(0, 0).Edited())
}

func TestExplorerFolders(t *testing.T) {
	m := NewManager()
	m.OpenFolder(filetree.NewFolder("/proj", filetree.Opened([]filetree.Item{
		filetree.NewFolder("/proj/src", filetree.Closed),
		filetree.NewFile("/proj/Cargo.toml"),
	})))
	require.Len(t, m.Folders(), 1)

	ok := m.SetFolderState("/proj", "/proj/src", filetree.Opened([]filetree.Item{
		filetree.NewFile("/proj/src/main.rs"),
	}))
	require.True(t, ok)
	assert.False(t, m.SetFolderState("/other", "/other/x", filetree.Closed))

	m.MoveExplorerFocus(10)
	assert.Equal(t, 3, m.ExplorerFocus())
	m.MoveExplorerFocus(-10)
	assert.Equal(t, 0, m.ExplorerFocus())
}
