package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath overrides the default config directory.
const EnvConfigPath = "CHANPLAN_CONFIG_PATH"

// DefaultDir is the config directory used when neither a flag nor the
// environment names one.
const DefaultDir = "data/config"

// Storage backends.
const (
	BackendPebble = "pebble"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config represents the complete chanplan configuration
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
	UI      UIConfig      `yaml:"ui"`
	Groups  GroupsConfig  `yaml:"groups"`

	// LoadedFrom is the directory the configuration was read from ("" for defaults).
	LoadedFrom string `yaml:"-"`
}

// StorageConfig selects and tunes the group store.
type StorageConfig struct {
	Backend       string `yaml:"backend"`
	Path          string `yaml:"path"`
	CacheSizeMB   int    `yaml:"cache_size_mb"`
	BusyTimeoutMS int    `yaml:"busy_timeout_ms"`
	MaxGroupBytes int    `yaml:"max_group_bytes"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Dir        string `yaml:"dir"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	Stderr     bool   `yaml:"stderr"`
}

// UIConfig tunes the terminal grid.
type UIConfig struct {
	EnableMouse  bool `yaml:"enable_mouse"`
	ToastSeconds int  `yaml:"toast_seconds"`
	Columns      int  `yaml:"columns"`
}

// GroupsConfig holds group naming and migration settings.
type GroupsConfig struct {
	DefaultName string `yaml:"default_name"`
	LegacyKey   string `yaml:"legacy_key"`
}

// Default returns the configuration used when no files override anything.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg, map[string]any{})
	return cfg
}

// Purpose: Load and merge every YAML file in a config directory.
// Key aspects: Files are merged in lexical order (later keys win, nested maps
// merge); a single-file path is rejected. Defaults fill unset keys, then the
// result is validated.
// Upstream: main config resolution.
// Downstream: mergeMaps, applyDefaults, validate.
func Load(dir string) (*Config, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("config: stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("config: %s is not a directory", dir)
	}
	files, err := yamlFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("config: no .yaml files in %s", dir)
	}

	merged := map[string]any{}
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		mergeMaps(merged, doc)
	}

	raw, err := yaml.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("config: remarshal: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	applyDefaults(&cfg, merged)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.LoadedFrom = dir
	return &cfg, nil
}

// Resolve picks the config directory: explicit flag, then EnvConfigPath, then
// DefaultDir. A missing default directory yields Default().
func Resolve(flagDir string) (*Config, error) {
	if dir := strings.TrimSpace(flagDir); dir != "" {
		return Load(dir)
	}
	if dir := strings.TrimSpace(os.Getenv(EnvConfigPath)); dir != "" {
		return Load(dir)
	}
	if _, err := os.Stat(DefaultDir); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return Load(DefaultDir)
}

func yamlFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("config: read dir %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

func mergeMaps(dst, src map[string]any) {
	for k, v := range src {
		if sub, ok := v.(map[string]any); ok {
			if existing, ok := dst[k].(map[string]any); ok {
				mergeMaps(existing, sub)
				continue
			}
		}
		dst[k] = v
	}
}

// hasKey reports whether a dotted path was set in the merged YAML.
func hasKey(raw map[string]any, path ...string) bool {
	cur := raw
	for i, p := range path {
		v, ok := cur[p]
		if !ok {
			return false
		}
		if i == len(path)-1 {
			return true
		}
		if cur, ok = v.(map[string]any); !ok {
			return false
		}
	}
	return false
}

func applyDefaults(cfg *Config, raw map[string]any) {
	if strings.TrimSpace(cfg.Storage.Backend) == "" {
		cfg.Storage.Backend = BackendPebble
	}
	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	if strings.TrimSpace(cfg.Storage.Path) == "" {
		switch cfg.Storage.Backend {
		case BackendSQLite:
			cfg.Storage.Path = "data/groups.db"
		default:
			cfg.Storage.Path = "data/groups"
		}
	}
	if cfg.Storage.CacheSizeMB == 0 {
		cfg.Storage.CacheSizeMB = 8
	}
	if cfg.Storage.BusyTimeoutMS == 0 {
		cfg.Storage.BusyTimeoutMS = 5000
	}
	if !hasKey(raw, "storage", "max_group_bytes") {
		// Browser local storage allows about 5MB per origin.
		cfg.Storage.MaxGroupBytes = 5 << 20
	}

	if strings.TrimSpace(cfg.Logging.Dir) == "" {
		cfg.Logging.Dir = "data/logs"
	}
	if strings.TrimSpace(cfg.Logging.File) == "" {
		cfg.Logging.File = "chanplan.log"
	}
	if cfg.Logging.MaxSizeMB == 0 {
		cfg.Logging.MaxSizeMB = 10
	}
	if !hasKey(raw, "logging", "max_backups") {
		cfg.Logging.MaxBackups = 3
	}
	if !hasKey(raw, "logging", "stderr") {
		cfg.Logging.Stderr = true
	}

	if !hasKey(raw, "ui", "enable_mouse") {
		cfg.UI.EnableMouse = true
	}
	if cfg.UI.ToastSeconds == 0 {
		cfg.UI.ToastSeconds = 5
	}
	if cfg.UI.Columns == 0 {
		cfg.UI.Columns = 4
	}

	if strings.TrimSpace(cfg.Groups.DefaultName) == "" {
		cfg.Groups.DefaultName = "channels"
	}
	if strings.TrimSpace(cfg.Groups.LegacyKey) == "" {
		cfg.Groups.LegacyKey = "legacy|csv_data"
	}
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case BackendPebble, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("config: storage.backend %q must be pebble, sqlite or memory", c.Storage.Backend)
	}
	if c.Storage.CacheSizeMB < 0 {
		return fmt.Errorf("config: storage.cache_size_mb must be positive, got %d", c.Storage.CacheSizeMB)
	}
	if c.Storage.BusyTimeoutMS < 0 {
		return fmt.Errorf("config: storage.busy_timeout_ms must be positive, got %d", c.Storage.BusyTimeoutMS)
	}
	if c.Storage.MaxGroupBytes < 0 {
		return fmt.Errorf("config: storage.max_group_bytes must be >= 0, got %d", c.Storage.MaxGroupBytes)
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxBackups < 0 {
		return errors.New("config: logging.max_size_mb and logging.max_backups must be >= 0")
	}
	if c.UI.ToastSeconds < 0 {
		return fmt.Errorf("config: ui.toast_seconds must be >= 0, got %d", c.UI.ToastSeconds)
	}
	switch c.UI.Columns {
	case 1, 2, 4, 8:
	default:
		return fmt.Errorf("config: ui.columns must divide 32 channels into rows of 1, 2, 4 or 8, got %d", c.UI.Columns)
	}
	return nil
}

// Print displays the configuration
func (c *Config) Print() {
	src := c.LoadedFrom
	if src == "" {
		src = "built-in defaults"
	}
	fmt.Printf("Config: %s\n", src)
	fmt.Printf("Storage: %s at %s (max group %d bytes)\n", c.Storage.Backend, c.Storage.Path, c.Storage.MaxGroupBytes)
	fmt.Printf("Logging: %s\n", filepath.Join(c.Logging.Dir, c.Logging.File))
	fmt.Printf("UI: %d columns, mouse=%v, toast=%ds\n", c.UI.Columns, c.UI.EnableMouse, c.UI.ToastSeconds)
}
