package loader

import (
	"errors"
	"io/fs"
	"testing"
)

type mapFS map[string]string

func (m mapFS) ReadFile(path string) ([]byte, error) {
	s, ok := m[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return []byte(s), nil
}

func TestForPath_TOML(t *testing.T) {
	fsys := mapFS{"/c.toml": "[editor]\nfontSize = 20\nhoverDelay = \"250ms\"\n"}
	l, err := ForPath(fsys, "/c.toml")
	if err != nil {
		t.Fatalf("ForPath: %v", err)
	}
	m, err := l.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v, _ := GetPath(m, "editor.fontSize"); v != int64(20) {
		t.Errorf("editor.fontSize = %v (%T), want 20", v, v)
	}
	if v, _ := GetPath(m, "editor.hoverDelay"); v != "250ms" {
		t.Errorf("editor.hoverDelay = %v, want 250ms", v)
	}
}

func TestForPath_YAML(t *testing.T) {
	fsys := mapFS{"/c.yml": "logging:\n  level: debug\nlsp:\n  servers:\n    rust:\n      command: ra\n"}
	l, err := ForPath(fsys, "/c.yml")
	if err != nil {
		t.Fatalf("ForPath: %v", err)
	}
	m, err := l.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v, _ := GetPath(m, "logging.level"); v != "debug" {
		t.Errorf("logging.level = %v, want debug", v)
	}
	servers, ok := GetPath(m, "lsp.servers")
	if !ok {
		t.Fatal("lsp.servers missing")
	}
	if _, ok := servers.(map[string]any); !ok {
		t.Errorf("lsp.servers is %T, want map[string]any", servers)
	}
}

func TestForPath_Errors(t *testing.T) {
	if _, err := ForPath(nil, "/c.ini"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}

	l, _ := ForPath(mapFS{}, "/missing.toml")
	m, err := l.Load()
	if m != nil || err != nil {
		t.Errorf("missing file = %v, %v; want nil, nil", m, err)
	}

	l, _ = ForPath(mapFS{"/bad.toml": "[editor"}, "/bad.toml")
	_, err = l.Load()
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Path != "/bad.toml" {
		t.Errorf("err = %v, want ParseError for /bad.toml", err)
	}
}

func TestEnvLoader(t *testing.T) {
	l := NewEnvLoader("FREYA_", map[string]string{"FREYA_LOG_LEVEL": "logging.level"})
	l.environ = func() []string {
		return []string{
			"FREYA_LOG_LEVEL=warn",
			"FREYA_EDITOR_FONT_SIZE=22",
			"FREYA_EDITOR_LINE_HEIGHT=1.5",
			"FREYA_EXPLORER_WATCH=off",
			"FREYA_EDITOR_HOVER_DELAY=1s",
			"FREYA_=ignored",
			"HOME=/root",
		}
	}

	m, err := l.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		path string
		want any
	}{
		{"logging.level", "warn"},
		{"editor.fontSize", int64(22)},
		{"editor.lineHeight", 1.5},
		{"explorer.watch", false},
		{"editor.hoverDelay", "1s"},
	}
	for _, tt := range tests {
		if got, _ := GetPath(m, tt.path); got != tt.want {
			t.Errorf("%s = %v (%T), want %v", tt.path, got, got, tt.want)
		}
	}
	if len(m) != 3 {
		t.Errorf("sections = %v, want logging, editor, explorer", m)
	}
}

func TestDeepMergeAndLoadAll(t *testing.T) {
	base := mapFS{"/a.toml": "[editor]\nfontSize = 17\nlineHeight = 1.2\n"}
	over := mapFS{"/b.yaml": "editor:\n  fontSize: 30\n"}
	a, _ := ForPath(base, "/a.toml")
	b, _ := ForPath(over, "/b.yaml")

	m, err := LoadAll(a, b)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if v, _ := GetPath(m, "editor.fontSize"); v != 30 {
		t.Errorf("editor.fontSize = %v (%T), want 30", v, v)
	}
	if v, _ := GetPath(m, "editor.lineHeight"); v != 1.2 {
		t.Errorf("editor.lineHeight = %v, want 1.2", v)
	}
}
