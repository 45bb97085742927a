package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
)

const (
	configDir  = ".config/filer"
	configFile = "config.json"
)

// testConfigPath overrides ConfigPath in tests.
var testConfigPath string

// rawConfig is the JSON-unmarshaling intermediary.
type rawConfig struct {
	UI      json.RawMessage `json:"ui"`
	Keymap  KeymapConfig    `json:"keymap"`
	Sources []SourceConfig  `json:"sources"`
	Watch   rawWatchConfig  `json:"watch"`
}

type rawWatchConfig struct {
	Enabled  *bool  `json:"enabled"`
	Debounce string `json:"debounce"`
}

// Load loads configuration from the default location.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom loads configuration from a specific path.
// If path is empty, uses ~/.config/filer/config.json
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = ConfigPath()
		if path == "" {
			return cfg, nil // Return defaults on error
		}
	}

	data, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	// Merge raw config into defaults
	if err := mergeConfig(cfg, &raw); err != nil {
		return nil, err
	}

	// Expand paths and warn if a source doesn't exist
	for i := range cfg.Sources {
		cfg.Sources[i].Path = ExpandPath(cfg.Sources[i].Path)
		if _, err := os.Stat(cfg.Sources[i].Path); os.IsNotExist(err) {
			slog.Warn("source path not found", "name", cfg.Sources[i].Name, "path", cfg.Sources[i].Path)
		}
	}
	cfg.UI.Search = ExpandPath(cfg.UI.Search)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// mergeConfig merges raw config values into the config.
func mergeConfig(cfg *Config, raw *rawConfig) error {
	// UI: unmarshal onto the defaults so absent keys keep their values
	if len(raw.UI) > 0 {
		if err := MergeParams(&cfg.UI, raw.UI); err != nil {
			return err
		}
	}

	// Keymap
	for k, v := range raw.Keymap.Overrides {
		cfg.Keymap.Overrides[k] = v
	}

	// Sources
	if len(raw.Sources) > 0 {
		cfg.Sources = append([]SourceConfig(nil), raw.Sources...)
	}

	// Watch
	if raw.Watch.Enabled != nil {
		cfg.Watch.Enabled = *raw.Watch.Enabled
	}
	if raw.Watch.Debounce != "" {
		if d, err := time.ParseDuration(raw.Watch.Debounce); err == nil {
			cfg.Watch.Debounce = d
		}
	}
	return nil
}

// MergeParams overlays the JSON object data onto p. A capitalised sort name
// such as "Filename" is read as the lowercase mode with sortReverse set.
func MergeParams(p *Params, data []byte) error {
	if err := json.Unmarshal(data, p); err != nil {
		return err
	}
	if lower := strings.ToLower(p.Sort); lower != p.Sort {
		p.Sort = lower
		p.SortReverse = true
	}
	return nil
}

// ExpandPath expands ~ to home directory.
func ExpandPath(path string) string {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return expanded
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	if testConfigPath != "" {
		return testConfigPath
	}
	home, err := homedir.Dir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, configDir, configFile)
}

// SetTestConfigPath points ConfigPath at path. For tests only.
func SetTestConfigPath(path string) { testConfigPath = path }

// ResetTestConfigPath undoes SetTestConfigPath.
func ResetTestConfigPath() { testConfigPath = "" }
