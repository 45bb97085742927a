package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// saveConfig is the JSON-marshaling intermediary that uses string durations.
type saveConfig struct {
	UI      Params          `json:"ui"`
	Keymap  KeymapConfig    `json:"keymap"`
	Sources []SourceConfig  `json:"sources,omitempty"`
	Watch   saveWatchConfig `json:"watch"`
}

type saveWatchConfig struct {
	Enabled  *bool  `json:"enabled,omitempty"`
	Debounce string `json:"debounce,omitempty"`
}

// toSaveConfig converts Config to the JSON-serializable format.
func toSaveConfig(cfg *Config) saveConfig {
	return saveConfig{
		UI:      cfg.UI,
		Keymap:  cfg.Keymap,
		Sources: cfg.Sources,
		Watch: saveWatchConfig{
			Enabled:  &cfg.Watch.Enabled,
			Debounce: cfg.Watch.Debounce.String(),
		},
	}
}

// Save writes the config to ~/.config/filer/config.json. Top-level keys
// that Save does not manage are kept as they are in the existing file.
func Save(cfg *Config) error {
	path := ConfigPath()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	doc := make(map[string]json.RawMessage)
	if existing, err := os.ReadFile(path); err == nil {
		// An unreadable existing file is overwritten.
		_ = json.Unmarshal(existing, &doc)
	}

	managed, err := json.Marshal(toSaveConfig(cfg))
	if err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(managed, &fields); err != nil {
		return err
	}
	for k, v := range fields {
		doc[k] = v
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
