// Package config loads viewer configuration from
// ~/.runlens/config.yaml, with built-in defaults when the file is
// absent and a RUNLENS_CONFIG environment override for the path.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/runlens/internal/outline"
	"github.com/ppiankov/runlens/internal/render"
)

// EnvConfigPath overrides the config file location when set.
const EnvConfigPath = "RUNLENS_CONFIG"

// Config is the full viewer configuration.
type Config struct {
	// Addr is the HTTP listen address for `runlens serve`.
	Addr string `yaml:"addr"`
	// LogDir is the default directory scanned for evaluation logs.
	LogDir string `yaml:"log_dir"`
	// CacheSize bounds the LRU of memoized views.
	CacheSize int `yaml:"cache_size"`
	// View is the default view mode, "outline" or "full".
	View string `yaml:"view"`
	// Collapse selects which regions start collapsed.
	Collapse outline.Policy `yaml:"collapse"`
	// Render holds terminal output options.
	Render render.Options `yaml:"render"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:      "127.0.0.1:7326",
		LogDir:    ".",
		CacheSize: 64,
		View:      "outline",
		Collapse:  outline.DefaultPolicy(),
		Render:    render.Options{Indent: 2, Color: true},
	}
}

// Path returns the config file location: $RUNLENS_CONFIG when set,
// otherwise ~/.runlens/config.yaml.
func Path() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".runlens", "config.yaml")
}

// Load reads the configuration, falling back to Default when no file
// exists. Fields absent from the file keep their default values.
func Load() (Config, error) {
	return LoadPath(Path())
}

// LoadPath reads configuration from an explicit file path.
func LoadPath(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that loaded values are usable.
func Validate(cfg Config) error {
	if cfg.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if cfg.CacheSize <= 0 {
		return fmt.Errorf("cache_size must be positive")
	}
	switch cfg.View {
	case "outline", "full":
	default:
		return fmt.Errorf("view must be \"outline\" or \"full\", got %q", cfg.View)
	}
	return nil
}
