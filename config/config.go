// Package config resolves runtime settings from defaults, a TOML file, the
// environment and command-line flags, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	appDir          = "todo-tui"
	dataFileName    = "todos.json"
	configFileName  = "config.toml"
	DefaultTick     = 80 * time.Millisecond
	DefaultBackups  = 10
	DefaultLogLevel = "info"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config is the resolved configuration.
type Config struct {
	DataFile     string        `toml:"data_file"`
	LogFile      string        `toml:"log_file"`
	LogLevel     string        `toml:"log_level"`
	LogFormat    string        `toml:"log_format"`
	TickInterval time.Duration `toml:"-"`
	TickMillis   int           `toml:"tick_ms"`
	WrapFields   bool          `toml:"wrap_fields"`
	NoColor      bool          `toml:"no_color"`
	Backups      int           `toml:"backups"`
}

// Overrides are flag values; empty or nil fields leave the config alone.
type Overrides struct {
	DataFile string
	LogLevel string
	NoColor  bool
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DataFile:     DefaultDataFile(),
		LogLevel:     DefaultLogLevel,
		LogFormat:    "text",
		TickInterval: DefaultTick,
		TickMillis:   int(DefaultTick / time.Millisecond),
		WrapFields:   true,
		Backups:      DefaultBackups,
	}
}

// Load layers the config file at path (or the default location when path is
// empty), the environment and overrides on top of Default. A missing default
// file is not an error; an explicitly named file must exist.
func Load(path string, o Overrides) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile()
	}
	if path != "" {
		if err := loadFile(&cfg, path, explicit); err != nil {
			return Config{}, err
		}
	}

	loadFromEnv(&cfg)
	applyOverrides(&cfg, o)

	cfg.TickInterval = time.Duration(cfg.TickMillis) * time.Millisecond
	cfg.DataFile = expandHome(cfg.DataFile)
	cfg.LogFile = expandHome(cfg.LogFile)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DataFile) == "" {
		return fmt.Errorf("%w: data file must not be empty", ErrInvalidConfig)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("%w: tick interval must be positive, got %s", ErrInvalidConfig, c.TickInterval)
	}
	if c.Backups < 0 {
		return fmt.Errorf("%w: backups must not be negative, got %d", ErrInvalidConfig, c.Backups)
	}
	return nil
}

func loadFile(cfg *Config, path string, required bool) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("config file %s: %w", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}
	return nil
}

func loadFromEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("TODO_TUI_DATA_FILE")); v != "" {
		cfg.DataFile = v
	}
	if v := strings.TrimSpace(os.Getenv("TODO_TUI_LOG_FILE")); v != "" {
		cfg.LogFile = v
	}
	if v := strings.TrimSpace(os.Getenv("TODO_TUI_LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("TODO_TUI_LOG_FORMAT")); v != "" {
		cfg.LogFormat = v
	}
	if v, ok := getEnvInt("TODO_TUI_TICK_MS"); ok {
		cfg.TickMillis = v
	}
	if v, ok := getEnvBool("TODO_TUI_WRAP_FIELDS"); ok {
		cfg.WrapFields = v
	}
	if v, ok := getEnvInt("TODO_TUI_BACKUPS"); ok {
		cfg.Backups = v
	}
	// Any non-empty NO_COLOR disables color, per no-color.org.
	if os.Getenv("NO_COLOR") != "" {
		cfg.NoColor = true
	}
}

func applyOverrides(cfg *Config, o Overrides) {
	if v := strings.TrimSpace(o.DataFile); v != "" {
		cfg.DataFile = v
	}
	if v := strings.TrimSpace(o.LogLevel); v != "" {
		cfg.LogLevel = v
	}
	if o.NoColor {
		cfg.NoColor = true
	}
}

// DefaultDataFile is $XDG_DATA_HOME/todo-tui/todos.json, falling back to
// ~/.local/share on Unix and the user config dir elsewhere.
func DefaultDataFile() string {
	return filepath.Join(dataDir(), appDir, dataFileName)
}

// DefaultConfigFile is $XDG_CONFIG_HOME/todo-tui/config.toml or the OS
// equivalent. It returns "" when no config dir can be determined.
func DefaultConfigFile() string {
	if dir := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); dir != "" {
		return filepath.Join(dir, appDir, configFileName)
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appDir, configFileName)
}

func dataDir() string {
	if dir := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); dir != "" {
		return dir
	}
	if runtime.GOOS != "windows" && runtime.GOOS != "darwin" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, ".local", "share")
		}
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	return "."
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func getEnvInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvBool(name string) (bool, bool) {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return false, false
	}
	switch raw {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
