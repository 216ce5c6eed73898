// Package commander implements the editor command line.
//
// A line is split into a command name and arguments. Built-in commands
// cover the common cases ("fs 20" sets the font size); "lua" runs the
// rest of the line as a Lua chunk with an "editor" module in scope.
package commander

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/marc2332/freya-editor/internal/input/key"
)

// ErrUnknownCommand is returned for a name with no registered command.
var ErrUnknownCommand = errors.New("unknown command")

// ErrUsage is returned when a command gets malformed arguments.
var ErrUsage = errors.New("usage")

// Host is the editor the commands act on.
type Host interface {
	FontSize() float64
	SetFontSize(ctx context.Context, size float64) error
	Open(ctx context.Context, path string) error
	Status() string
}

// Command is a named action.
type Command struct {
	Name  string
	Usage string
	Run   func(ctx context.Context, args []string) (string, error)
}

// Commander holds the command line state and the Lua interpreter.
// It is safe for concurrent use; commands run one at a time.
type Commander struct {
	host Host

	mu       sync.Mutex
	L        *lua.LState
	out      strings.Builder
	commands map[string]Command
	input    []rune
	output   string
	onChange func()
}

// New creates a commander for host with the built-in commands.
// onChange, if set, is called after the input or output changes.
func New(host Host, onChange func()) *Commander {
	c := &Commander{
		host:     host,
		commands: make(map[string]Command),
		onChange: onChange,
	}
	c.L = c.newState()

	c.Register(Command{Name: "fs", Usage: "fs <size>", Run: c.fontSize})
	c.Register(Command{Name: "open", Usage: "open <path>", Run: c.open})
	c.Register(Command{Name: "lua", Usage: "lua <chunk>", Run: c.lua})
	c.Register(Command{Name: "help", Usage: "help", Run: c.help})
	return c
}

// Close releases the interpreter.
func (c *Commander) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.L.Close()
}

// Register adds or replaces a command.
func (c *Commander) Register(cmd Command) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commands[cmd.Name] = cmd
}

// Input returns the line being typed.
func (c *Commander) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return string(c.input)
}

// Output returns the result of the last command.
func (c *Commander) Output() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.output
}

// Exec runs one command line and returns its output.
func (c *Commander) Exec(ctx context.Context, line string) (string, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil
	}
	name, rest, _ := strings.Cut(line, " ")

	c.mu.Lock()
	cmd, ok := c.commands[name]
	c.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}

	var args []string
	if name == "lua" {
		args = []string{strings.TrimSpace(rest)}
	} else {
		args = strings.Fields(rest)
	}
	return cmd.Run(ctx, args)
}

// HandleKey edits the input line. Enter runs it. Reports whether the
// key was used.
func (c *Commander) HandleKey(ctx context.Context, ev key.Event) bool {
	c.mu.Lock()
	switch {
	case ev.Key == key.KeyEnter:
		line := string(c.input)
		c.input = c.input[:0]
		c.mu.Unlock()

		out, err := c.Exec(ctx, line)
		if err != nil {
			out = err.Error()
		}
		c.mu.Lock()
		c.output = out
	case ev.Key == key.KeyBackspace:
		if len(c.input) == 0 {
			c.mu.Unlock()
			return false
		}
		c.input = c.input[:len(c.input)-1]
	case ev.IsChar():
		c.input = append(c.input, ev.Rune)
	default:
		c.mu.Unlock()
		return false
	}
	c.mu.Unlock()

	if c.onChange != nil {
		c.onChange()
	}
	return true
}

func (c *Commander) fontSize(ctx context.Context, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%w: fs <size>", ErrUsage)
	}
	size, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return "", fmt.Errorf("%w: fs <size>: %v", ErrUsage, err)
	}
	if err := c.host.SetFontSize(ctx, size); err != nil {
		return "", err
	}
	return fmt.Sprintf("font size %g", c.host.FontSize()), nil
}

func (c *Commander) open(ctx context.Context, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%w: open <path>", ErrUsage)
	}
	if err := c.host.Open(ctx, args[0]); err != nil {
		return "", err
	}
	return "opened " + args[0], nil
}

func (c *Commander) help(context.Context, []string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	usages := make([]string, 0, len(c.commands))
	for _, cmd := range c.commands {
		usages = append(usages, cmd.Usage)
	}
	sort.Strings(usages)
	return strings.Join(usages, ", "), nil
}
