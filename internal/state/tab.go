package state

import (
	"path/filepath"

	"golang.org/x/text/unicode/norm"

	"github.com/marc2332/freya-editor/internal/engine/buffer"
)

// ConfigTabKey is the identity key of the config tab.
const ConfigTabKey = "config"

// TabKind distinguishes the variants of PanelTab.
type TabKind uint8

const (
	// TabTextEditor is a tab editing a file.
	TabTextEditor TabKind = iota
	// TabConfig is the editor configuration tab.
	TabConfig
)

// EditorData is the state of one text editor tab.
type EditorData struct {
	Path       string
	RootPath   string
	LanguageID string
	Buffer     buffer.Buffer
}

// NewEditorData opens text read from path. rootPath is the workspace
// root the file belongs to.
func NewEditorData(path, rootPath, languageID, text string) EditorData {
	return EditorData{
		Path:       path,
		RootPath:   rootPath,
		LanguageID: languageID,
		Buffer:     buffer.New(path, text),
	}
}

// Edited reports whether the buffer has unsaved changes.
func (e *EditorData) Edited() bool { return e.Buffer.Edited() }

// TabData is the display metadata of a tab.
type TabData struct {
	ID     string
	Title  string
	Edited bool
}

// PanelTab is a tab inside a panel: either a text editor or the config tab.
type PanelTab struct {
	kind   TabKind
	editor *EditorData
}

// NewEditorTab returns a text editor tab for e.
func NewEditorTab(e EditorData) PanelTab {
	return PanelTab{kind: TabTextEditor, editor: &e}
}

// NewConfigTab returns the config tab.
func NewConfigTab() PanelTab {
	return PanelTab{kind: TabConfig}
}

// Kind returns the tab variant.
func (t PanelTab) Kind() TabKind { return t.kind }

// Editor returns the editor state of a text editor tab.
func (t PanelTab) Editor() (*EditorData, bool) {
	return t.editor, t.kind == TabTextEditor && t.editor != nil
}

// Key returns the identity key used to de-duplicate tabs.
func (t PanelTab) Key() string {
	if t.kind == TabConfig || t.editor == nil {
		return ConfigTabKey
	}
	return TabKey(t.editor.Path)
}

// Data returns display metadata for the tab.
func (t PanelTab) Data() TabData {
	if t.kind == TabConfig || t.editor == nil {
		return TabData{ID: ConfigTabKey, Title: "Config"}
	}
	return TabData{
		ID:     t.Key(),
		Title:  filepath.Base(t.editor.Path),
		Edited: t.editor.Edited(),
	}
}

func (t PanelTab) clone() PanelTab {
	if t.editor != nil {
		e := *t.editor
		t.editor = &e
	}
	return t
}

// TabKey normalizes a file path into a tab identity key.
func TabKey(path string) string {
	return norm.NFC.String(filepath.Clean(path))
}
