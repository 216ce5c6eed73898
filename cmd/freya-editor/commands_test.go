package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marc2332/freya-editor/internal/app"
	"github.com/marc2332/freya-editor/internal/fs"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "freya-editor dev")
	assert.Contains(t, out, "Commit: unknown")
}

func TestTreeCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src", "bin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "main.rs"), []byte("fn main() {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Cargo.toml"), nil, 0o644))

	out, err := execute(t, "tree", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(dir)+"/\n  src/\n  Cargo.toml\n", out)

	out, err = execute(t, "tree", "--depth", "2", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(dir)+"/\n  src/\n    bin/\n    main.rs\n  Cargo.toml\n", out)
}

func TestPrintTree_MemFS(t *testing.T) {
	mem := fs.NewMemFS()
	mem.WriteFile("/proj/a/b/c.txt", "")
	mem.WriteFile("/proj/z.txt", "")

	var out bytes.Buffer
	require.NoError(t, printTree(context.Background(), &out, mem, "/proj", 3, app.NullLogger))
	assert.Equal(t, "proj/\n  a/\n    b/\n      c.txt\n  z.txt\n", out.String())
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := execute(t, "tree", "--log-level", "loud", t.TempDir())
	assert.Error(t, err)
}

func TestHoverCommand_Arguments(t *testing.T) {
	_, err := execute(t, "hover", "main.rs", "zero", "1")
	assert.ErrorContains(t, err, "invalid line")

	_, err = execute(t, "hover", "main.rs", "1", "0")
	assert.ErrorContains(t, err, "invalid column")

	_, err = execute(t, "hover", "notes.txt", "1", "1")
	assert.ErrorContains(t, err, "no server configured")
}

func TestEditorNeedsTerminal(t *testing.T) {
	_, err := execute(t, "main.rs")
	assert.ErrorIs(t, err, errNotTerminal)
}
