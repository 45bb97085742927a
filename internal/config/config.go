package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/marcus/filer/internal/sortpolicy"
)

// ErrInvalidConfiguration is returned for option values outside their
// allowed set.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Config is the root configuration structure.
type Config struct {
	UI      Params         `json:"ui"`
	Keymap  KeymapConfig   `json:"keymap"`
	Sources []SourceConfig `json:"sources"`
	Watch   WatchConfig    `json:"watch"`
}

// SourceConfig is one directory shown under its own root row.
type SourceConfig struct {
	Name string `json:"name"`
	Path string `json:"path"` // supports ~ expansion
}

// WatchConfig configures filesystem change detection.
type WatchConfig struct {
	Enabled  bool          `json:"enabled"`
	Debounce time.Duration `json:"debounce"`
}

// KeymapConfig holds key binding overrides.
type KeymapConfig struct {
	Overrides map[string]string `json:"overrides"`
}

// Highlights names the highlight groups used by the filer.
type Highlights struct {
	Floating       string `json:"floating,omitempty"`
	FloatingBorder string `json:"floatingBorder,omitempty"`
	Selected       string `json:"selected,omitempty"`
	SourceName     string `json:"sourceName,omitempty"`
	SourcePath     string `json:"sourcePath,omitempty"`
}

// WindowOption is a window-local option, written in JSON as a
// ["name", value] pair.
type WindowOption struct {
	Name  string
	Value any
}

func (o WindowOption) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{o.Name, o.Value})
}

func (o *WindowOption) UnmarshalJSON(data []byte) error {
	var pair []any
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("window option %s: want [name, value]: %w", data, ErrInvalidConfiguration)
	}
	name, ok := pair[0].(string)
	if !ok {
		return fmt.Errorf("window option %s: name must be a string: %w", data, ErrInvalidConfiguration)
	}
	o.Name, o.Value = name, pair[1]
	return nil
}

// Params are the filer UI options.
type Params struct {
	DisplayRoot           bool           `json:"displayRoot"`
	FileFilter            string         `json:"fileFilter"`
	FloatingBorder        string         `json:"floatingBorder"`
	Focus                 bool           `json:"focus"`
	Highlights            Highlights     `json:"highlights"`
	OnPreview             string         `json:"onPreview,omitempty"`
	PreviewCol            int            `json:"previewCol"`
	PreviewFloating       bool           `json:"previewFloating"`
	PreviewFloatingBorder string         `json:"previewFloatingBorder"`
	PreviewFloatingZindex int            `json:"previewFloatingZindex"`
	PreviewHeight         int            `json:"previewHeight"`
	PreviewMaxSize        int64          `json:"previewMaxSize"`
	PreviewRow            int            `json:"previewRow"`
	PreviewSplit          string         `json:"previewSplit"`
	PreviewWidth          int            `json:"previewWidth"`
	PreviewWindowOptions  []WindowOption `json:"previewWindowOptions"`
	Search                string         `json:"search"`
	Sort                  string         `json:"sort"`
	SortReverse           bool           `json:"sortReverse"`
	SortTreesFirst        bool           `json:"sortTreesFirst"`
	Split                 string         `json:"split"`
	SplitDirection        string         `json:"splitDirection"`
	Statusline            bool           `json:"statusline"`
	WinCol                int            `json:"winCol"`
	WinHeight             int            `json:"winHeight"`
	WinRow                int            `json:"winRow"`
	WinWidth              int            `json:"winWidth"`
}

// SortPolicy returns the sort options as a policy.
func (p Params) SortPolicy() sortpolicy.Policy {
	return sortpolicy.Policy{
		Mode:       sortpolicy.ParseMode(p.Sort),
		Reverse:    p.SortReverse,
		TreesFirst: p.SortTreesFirst,
		FileFilter: p.FileFilter,
	}
}

// Clone returns a deep copy.
func (p Params) Clone() Params {
	p.PreviewWindowOptions = append([]WindowOption(nil), p.PreviewWindowOptions...)
	return p
}

// DefaultParams returns the default UI options.
func DefaultParams() Params {
	return Params{
		DisplayRoot:           true,
		FloatingBorder:        "none",
		Focus:                 true,
		PreviewFloatingBorder: "none",
		PreviewFloatingZindex: 100,
		PreviewHeight:         10,
		PreviewSplit:          "horizontal",
		PreviewWidth:          40,
		PreviewWindowOptions: []WindowOption{
			{Name: "signcolumn", Value: "no"},
			{Name: "foldcolumn", Value: 0},
			{Name: "foldenable", Value: 0},
			{Name: "number", Value: 0},
			{Name: "wrap", Value: 0},
		},
		Sort:           "none",
		Split:          "horizontal",
		SplitDirection: "botright",
		Statusline:     true,
		WinHeight:      20,
	}
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		UI: DefaultParams(),
		Keymap: KeymapConfig{
			Overrides: make(map[string]string),
		},
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: 200 * time.Millisecond,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = 200 * time.Millisecond
	}
	return c.UI.Validate()
}

// Validate checks split values and the file filter pattern.
func (p Params) Validate() error {
	if err := oneOf("split", p.Split, "horizontal", "vertical", "floating", "no"); err != nil {
		return err
	}
	if err := oneOf("previewSplit", p.PreviewSplit, "horizontal", "vertical", "no"); err != nil {
		return err
	}
	if err := oneOf("splitDirection", p.SplitDirection, "botright", "topleft"); err != nil {
		return err
	}
	if _, err := sortpolicy.New(p.SortPolicy()); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	return nil
}

func oneOf(name, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s %q: %w", name, value, ErrInvalidConfiguration)
}
