package commander

import (
	"context"
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// newState creates an interpreter with the safe standard libraries and
// the editor module.
func (c *Commander) newState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.LoadLibName, lua.OpenPackage},
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}

	L.SetGlobal("print", L.NewFunction(c.luaPrint))
	L.SetGlobal("editor", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"font_size": c.luaFontSize,
		"open":      c.luaOpen,
		"status":    c.luaStatus,
	}))
	return L
}

// lua runs args[0] as a chunk. Output written with print is returned.
func (c *Commander) lua(ctx context.Context, args []string) (string, error) {
	if len(args) != 1 || args[0] == "" {
		return "", fmt.Errorf("%w: lua <chunk>", ErrUsage)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.out.Reset()
	c.L.SetContext(ctx)
	defer c.L.RemoveContext()

	if err := c.L.DoString(args[0]); err != nil {
		return "", fmt.Errorf("lua: %w", err)
	}
	return strings.TrimRight(c.out.String(), "\n"), nil
}

func (c *Commander) luaPrint(L *lua.LState) int {
	parts := make([]string, 0, L.GetTop())
	for i := 1; i <= L.GetTop(); i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	c.out.WriteString(strings.Join(parts, "\t"))
	c.out.WriteByte('\n')
	return 0
}

// editor.font_size([size]) returns the font size, setting it first when
// an argument is given.
func (c *Commander) luaFontSize(L *lua.LState) int {
	if L.GetTop() >= 1 {
		size := float64(L.CheckNumber(1))
		if err := c.host.SetFontSize(L.Context(), size); err != nil {
			L.RaiseError("%v", err)
			return 0
		}
	}
	L.Push(lua.LNumber(c.host.FontSize()))
	return 1
}

func (c *Commander) luaOpen(L *lua.LState) int {
	path := L.CheckString(1)
	if err := c.host.Open(L.Context(), path); err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

func (c *Commander) luaStatus(L *lua.LState) int {
	L.Push(lua.LString(c.host.Status()))
	return 1
}
