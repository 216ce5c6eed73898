package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/marc2332/freya-editor/internal/config/loader"
	"github.com/marc2332/freya-editor/internal/lsp"
)

// Font size limits and step for font size commands.
const (
	MinFontSize  = 5.0
	MaxFontSize  = 150.0
	FontSizeStep = 4.0
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FREYA_"

// Config is the complete editor configuration.
type Config struct {
	Editor   EditorConfig   `toml:"editor"`
	Logging  LoggingConfig  `toml:"logging"`
	LSP      LSPConfig      `toml:"lsp"`
	Explorer ExplorerConfig `toml:"explorer"`
}

// EditorConfig holds code editor settings.
type EditorConfig struct {
	FontSize   float64  `toml:"fontSize"`
	LineHeight float64  `toml:"lineHeight"`
	HoverDelay Duration `toml:"hoverDelay"`
}

// LoggingConfig selects log verbosity and output format.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level"`
	// Format is text or json.
	Format string `toml:"format"`
}

// LSPConfig configures language servers.
type LSPConfig struct {
	Enabled bool                    `toml:"enabled"`
	Servers map[string]ServerConfig `toml:"servers"`
}

// ServerConfig is the language server for one language id.
type ServerConfig struct {
	Command           string   `toml:"command"`
	Args              []string `toml:"args"`
	ServerID          string   `toml:"serverId"`
	ReadyOnInitialize bool     `toml:"readyOnInitialize"`
}

// ExplorerConfig configures the file explorer.
type ExplorerConfig struct {
	Watch        bool     `toml:"watch"`
	RefreshDelay Duration `toml:"refreshDelay"`
}

// Duration is a time.Duration written as text ("300ms").
type Duration struct {
	time.Duration
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Default returns the built-in configuration.
func Default() Config {
	servers := make(map[string]ServerConfig)
	for lang, spec := range lsp.DefaultServers() {
		servers[lang] = ServerConfig{
			Command:           spec.Command,
			Args:              spec.Args,
			ServerID:          spec.ServerID,
			ReadyOnInitialize: spec.ReadyOnInitialize,
		}
	}
	return Config{
		Editor: EditorConfig{
			FontSize:   17,
			LineHeight: 1.2,
			HoverDelay: Duration{300 * time.Millisecond},
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		LSP:     LSPConfig{Enabled: true, Servers: servers},
		Explorer: ExplorerConfig{
			Watch:        true,
			RefreshDelay: Duration{100 * time.Millisecond},
		},
	}
}

// Option configures Load.
type Option func(*options)

type options struct {
	fs         loader.FileSystem
	userDir    string
	projectDir string
	file       string
	env        bool
}

// WithFile loads path on top of the user and project files.
func WithFile(path string) Option {
	return func(o *options) { o.file = path }
}

// WithUserConfigDir overrides the user configuration directory.
func WithUserConfigDir(dir string) Option {
	return func(o *options) { o.userDir = dir }
}

// WithProjectDir looks for .freya/config.{toml,yaml,yml} under dir.
func WithProjectDir(dir string) Option {
	return func(o *options) { o.projectDir = dir }
}

// WithFileSystem reads files through fsys.
func WithFileSystem(fsys loader.FileSystem) Option {
	return func(o *options) { o.fs = fsys }
}

// WithoutEnv ignores environment overrides.
func WithoutEnv() Option {
	return func(o *options) { o.env = false }
}

// Load builds the configuration from defaults, files and environment,
// then validates it.
func Load(opts ...Option) (Config, error) {
	o := options{fs: loader.OSFS{}, env: true}
	if dir, err := os.UserConfigDir(); err == nil {
		o.userDir = filepath.Join(dir, "freya-editor")
	}
	for _, opt := range opts {
		opt(&o)
	}

	var sources []loader.Loader
	if o.userDir != "" {
		sources = append(sources, candidates(o.fs, filepath.Join(o.userDir, "config"))...)
	}
	if o.projectDir != "" {
		sources = append(sources, candidates(o.fs, filepath.Join(o.projectDir, ".freya", "config"))...)
	}
	if o.file != "" {
		l, err := loader.ForPath(o.fs, o.file)
		if err != nil {
			return Config{}, err
		}
		sources = append(sources, l)
	}
	if o.env {
		sources = append(sources, loader.NewEnvLoader(EnvPrefix, map[string]string{
			"FREYA_LOG_LEVEL":  "logging.level",
			"FREYA_LOG_FORMAT": "logging.format",
			"FREYA_FONT_SIZE":  "editor.fontSize",
		}))
	}

	merged, err := loader.LoadAll(sources...)
	if err != nil {
		return Config{}, err
	}
	cfg, err := FromMap(merged)
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func candidates(fsys loader.FileSystem, base string) []loader.Loader {
	var out []loader.Loader
	for _, ext := range []string{".toml", ".yaml", ".yml"} {
		if l, err := loader.ForPath(fsys, base+ext); err == nil {
			out = append(out, l)
		}
	}
	return out
}

// FromMap decodes a merged settings map over the defaults.
func FromMap(m map[string]any) (Config, error) {
	cfg := Default()
	if len(m) == 0 {
		return cfg, nil
	}
	data, err := toml.Marshal(m)
	if err != nil {
		return Config{}, fmt.Errorf("encoding settings: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decoding settings: %w", err)
	}
	return cfg, nil
}

// Validate checks every setting.
func (c Config) Validate() error {
	switch {
	case c.Editor.FontSize < MinFontSize || c.Editor.FontSize > MaxFontSize:
		return &ValidationError{Path: "editor.fontSize", Value: c.Editor.FontSize,
			Message: fmt.Sprintf("must be within [%g, %g]", MinFontSize, MaxFontSize)}
	case c.Editor.LineHeight <= 0:
		return &ValidationError{Path: "editor.lineHeight", Value: c.Editor.LineHeight, Message: "must be positive"}
	case c.Editor.HoverDelay.Duration < 0:
		return &ValidationError{Path: "editor.hoverDelay", Value: c.Editor.HoverDelay, Message: "must not be negative"}
	case c.Logging.Format != "text" && c.Logging.Format != "json":
		return &ValidationError{Path: "logging.format", Value: c.Logging.Format, Message: "must be text or json"}
	}
	if _, ok := parseLevel(c.Logging.Level); !ok {
		return &ValidationError{Path: "logging.level", Value: c.Logging.Level, Message: "must be debug, info, warn or error"}
	}
	for lang, s := range c.LSP.Servers {
		if s.Command == "" {
			return &ValidationError{Path: "lsp.servers." + lang + ".command", Value: s.Command, Message: "must not be empty"}
		}
	}
	return nil
}

// ServerTable returns the configured servers, or nil when language
// servers are disabled.
func (c LSPConfig) ServerTable() lsp.Servers {
	if !c.Enabled {
		return nil
	}
	servers := make(lsp.Servers, len(c.Servers))
	for lang, s := range c.Servers {
		servers[lang] = lsp.ServerSpec{
			ServerID:          s.ServerID,
			Command:           s.Command,
			Args:              s.Args,
			ReadyOnInitialize: s.ReadyOnInitialize,
		}
	}
	return servers
}

// ClampFontSize limits size to [MinFontSize, MaxFontSize].
func ClampFontSize(size float64) float64 {
	return min(max(size, MinFontSize), MaxFontSize)
}

func parseLevel(s string) (string, bool) {
	switch s {
	case "debug", "info", "warn", "error":
		return s, true
	}
	return "", false
}
