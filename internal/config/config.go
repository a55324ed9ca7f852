// Package config loads and saves the UI collaborator's config.json
// (spec §6). The core only ever reads directories[*].path where
// enabled; everything else round-trips opaquely so save_config never
// drops fields the UI collaborator set.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Directory is one entry of the directories[] array in config.json.
type Directory struct {
	Path    string `json:"path" mapstructure:"path"`
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Name    string `json:"name" mapstructure:"name"`
}

// Config mirrors the UI collaborator's config.json shape exactly, per
// spec §6, so save_config round-trips fields the core never reads.
type Config struct {
	Directories []Directory `json:"directories" mapstructure:"directories"`
	ViewMode    string      `json:"viewMode" mapstructure:"viewMode"`
	SortField   string      `json:"sortField" mapstructure:"sortField"`
	SortOrder   string      `json:"sortOrder" mapstructure:"sortOrder"`
	FilterMode  string      `json:"filterMode" mapstructure:"filterMode"`
}

// EnabledRoots returns directories[*].path where enabled — the only
// slice of config.json the scan engine itself consumes.
func (c *Config) EnabledRoots() []string {
	var roots []string
	for _, d := range c.Directories {
		if d.Enabled {
			roots = append(roots, d.Path)
		}
	}
	return roots
}

// Loader reads/writes config.json at a fixed app-data location, using
// viper the way quantmind-br-gendocs/internal/config.Loader layers
// global/project YAML — here there is a single JSON file, optionally
// overridden by a .env-provided app-data directory.
type Loader struct {
	path string
	v    *viper.Viper
}

// DefaultAppDataDir resolves <app-data>, honoring a PHOTODUPE_APP_DATA
// override taken from the environment or from a .env file loaded with
// godotenv.Load (a missing .env file is ignored).
func DefaultAppDataDir() string {
	_ = godotenv.Load()
	if dir := os.Getenv("PHOTODUPE_APP_DATA"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".photodupe")
}

// NewLoader builds a loader for config.json under appDataDir.
func NewLoader(appDataDir string) *Loader {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(appDataDir)
	v.SetDefault("viewMode", "grid")
	v.SetDefault("sortField", "date")
	v.SetDefault("sortOrder", "desc")
	v.SetDefault("filterMode", "all")
	return &Loader{path: filepath.Join(appDataDir, "config.json"), v: v}
}

// Load reads config.json, returning viper's defaults if the file does
// not exist yet (first run).
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: read %s: %w", l.path, err)
		}
	}
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal %s: %w", l.path, err)
	}
	return &cfg, nil
}

// Save writes cfg to config.json, creating the app-data directory if
// needed.
func (l *Loader) Save(cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("config: mkdir: %w", err)
	}
	for k, val := range map[string]any{
		"directories": cfg.Directories,
		"viewMode":    cfg.ViewMode,
		"sortField":   cfg.SortField,
		"sortOrder":   cfg.SortOrder,
		"filterMode":  cfg.FilterMode,
	} {
		l.v.Set(k, val)
	}
	if err := l.v.WriteConfigAs(l.path); err != nil {
		return fmt.Errorf("config: write %s: %w", l.path, err)
	}
	return nil
}

// Watch invokes onChange whenever config.json is modified on disk by
// the UI collaborator, using viper's fsnotify-backed watcher.
func (l *Loader) Watch(onChange func(*Config)) {
	l.v.OnConfigChange(func(_ fsnotify.Event) {
		var cfg Config
		if err := l.v.Unmarshal(&cfg); err == nil {
			onChange(&cfg)
		}
	})
	l.v.WatchConfig()
}
