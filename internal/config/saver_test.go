package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestSave_PreservesUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	// Write a config file that includes keys not managed by Save
	initial := []byte(`{
  "bookmarks": ["~/src", "/etc"],
  "customKey": "should survive"
}`)
	if err := os.WriteFile(path, initial, 0644); err != nil {
		t.Fatal(err)
	}

	// Point Save() at our temp file
	SetTestConfigPath(path)
	defer ResetTestConfigPath()

	cfg := Default()
	if err := Save(cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal saved config: %v", err)
	}

	if _, ok := raw["bookmarks"]; !ok {
		t.Error("Save() deleted 'bookmarks' key from config.json")
	}
	if _, ok := raw["customKey"]; !ok {
		t.Error("Save() deleted 'customKey' from config.json")
	}

	// Verify managed keys are also present
	if _, ok := raw["ui"]; !ok {
		t.Error("Save() did not write 'ui' key")
	}
	if _, ok := raw["watch"]; !ok {
		t.Error("Save() did not write 'watch' key")
	}
}

func TestSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.json")

	SetTestConfigPath(path)
	defer ResetTestConfigPath()

	cfg := Default()
	cfg.UI.Split = "vertical"
	cfg.UI.Sort = "size"
	cfg.UI.SortReverse = true
	cfg.Sources = []SourceConfig{{Name: "root", Path: dir}}
	if err := Save(cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if loaded.UI.Split != "vertical" {
		t.Errorf("got split %q, want vertical", loaded.UI.Split)
	}
	if loaded.UI.Sort != "size" || !loaded.UI.SortReverse {
		t.Errorf("got sort (%q, %v), want (size, true)", loaded.UI.Sort, loaded.UI.SortReverse)
	}
	if len(loaded.Sources) != 1 || loaded.Sources[0].Path != dir {
		t.Errorf("got sources %+v", loaded.Sources)
	}
	if loaded.Watch.Debounce != cfg.Watch.Debounce {
		t.Errorf("got debounce %v, want %v", loaded.Watch.Debounce, cfg.Watch.Debounce)
	}
}
