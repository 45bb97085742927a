package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"github.com/mitchellh/go-homedir"
)

// State holds what the filer remembers between runs.
type State struct {
	// Cursors maps a listed path to the cursor row last used there.
	Cursors map[string]int `json:"cursors,omitempty"`
	// LastPath is the directory listed when the filer last quit.
	LastPath string `json:"lastPath,omitempty"`
}

var (
	current *State
	mu      sync.RWMutex
	path    string
	lock    *flock.Flock
)

// Init loads state from the default location.
func Init() error {
	home, err := homedir.Dir()
	if err != nil {
		return err
	}
	return InitWithDir(filepath.Join(home, ".config", "filer"))
}

// InitWithDir loads state from a specified directory.
// This is primarily for testing to avoid reading real user state.
func InitWithDir(dir string) error {
	mu.Lock()
	path = filepath.Join(dir, "state.json")
	lock = flock.New(path + ".lock")
	mu.Unlock()
	return Load()
}

// Load reads state from disk.
func Load() error {
	mu.Lock()
	defer mu.Unlock()

	current = &State{Cursors: make(map[string]int)}
	if lock == nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if err := lock.RLock(); err != nil {
		return fmt.Errorf("lock state: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil // no state file yet, use defaults
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, current); err != nil {
		return fmt.Errorf("parse state: %w", err)
	}
	if current.Cursors == nil {
		current.Cursors = make(map[string]int)
	}
	return nil
}

// Save writes state to disk. Concurrent filer processes serialize on a
// lock file next to the state file.
func Save() error {
	mu.RLock()
	defer mu.RUnlock()

	if current == nil || lock == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return err
	}

	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock state: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// GetCursor returns the saved cursor row for a listed path.
func GetCursor(p string) (int, bool) {
	mu.RLock()
	defer mu.RUnlock()
	if current == nil {
		return 0, false
	}
	row, ok := current.Cursors[p]
	return row, ok
}

// SetCursor saves the cursor row for a listed path. Unchanged rows are not
// written.
func SetCursor(p string, row int) error {
	mu.Lock()
	if current == nil {
		current = &State{Cursors: make(map[string]int)}
	}
	if old, ok := current.Cursors[p]; ok && old == row {
		mu.Unlock()
		return nil
	}
	current.Cursors[p] = row
	mu.Unlock()
	return Save()
}

// GetLastPath returns the directory listed when the filer last quit.
func GetLastPath() string {
	mu.RLock()
	defer mu.RUnlock()
	if current == nil {
		return ""
	}
	return current.LastPath
}

// SetLastPath saves the directory being listed.
func SetLastPath(p string) error {
	mu.Lock()
	if current == nil {
		current = &State{Cursors: make(map[string]int)}
	}
	current.LastPath = p
	mu.Unlock()
	return Save()
}

// Cursors adapts the package state to the filer's cursor store.
type Cursors struct{}

func (Cursors) Cursor(p string) (int, bool)      { return GetCursor(p) }
func (Cursors) SetCursor(p string, row int) error { return SetCursor(p, row) }
