// Package source is the filesystem side of the filer: it lists directories
// as items, watches them for changes and decides how items are previewed.
package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/marcus/filer/internal/item"
	"github.com/marcus/filer/internal/tree"
)

// Kind is the item kind of every entry listed here.
const Kind = "file"

// DirectoryGroup highlights directory names.
const DirectoryGroup = "Directory"

// Lister reads one directory level at a time.
type Lister struct {
	ShowHidden bool
}

// List returns the entries of dir as items at level. Words are paths
// relative to the source root, with a trailing separator for directories.
func (l Lister) List(ctx context.Context, src tree.Source, dir string, level int) ([]*item.Item, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	items := make([]*item.Item, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !l.ShowHidden && strings.HasPrefix(e.Name(), ".") {
			continue
		}
		full := filepath.Join(dir, e.Name())
		isDir := e.IsDir()
		if e.Type()&os.ModeSymlink != 0 {
			if fi, err := os.Stat(full); err == nil {
				isDir = fi.IsDir()
			}
		}
		it := newItem(src, full, e.Name(), level, isDir)
		if info, err := e.Info(); err == nil {
			it.Status = &item.Status{Size: info.Size(), Time: info.ModTime().Unix()}
		}
		items = append(items, it)
	}
	return items, nil
}

func newItem(src tree.Source, full, name string, level int, isDir bool) *item.Item {
	word, err := filepath.Rel(src.Path, full)
	if err != nil {
		word = full
	}
	label := name
	if isDir {
		word += string(filepath.Separator)
		label += string(filepath.Separator)
	}
	indent := strings.Repeat("  ", level)

	it := &item.Item{
		Word:        word,
		Display:     indent + label,
		TreePath:    full,
		Kind:        Kind,
		Action:      item.ActionData{Path: full, IsDirectory: isDir},
		IsTree:      isDir,
		Level:       level,
		SourceIndex: src.Index,
		SourceName:  src.Name,
	}
	if isDir {
		it.Highlights = []item.Highlight{{
			Name:  "directory",
			Group: DirectoryGroup,
			Col:   len(indent) + 1,
			Width: len(label),
		}}
	}
	return it
}

// Group folds a single directory child into its parent, giving one row
// for a chain like "a/b/". It reports false when children are not a lone
// directory.
func Group(parent *item.Item, children []*item.Item) (*item.Item, bool) {
	if len(children) != 1 || !children[0].IsTree {
		return nil, false
	}
	child := children[0].Clone()
	indent := strings.Repeat("  ", parent.Level)
	label := strings.TrimPrefix(parent.Label(), indent)
	name := filepath.Base(child.TreePath) + string(filepath.Separator)

	child.Level = parent.Level
	child.Grouped = true
	child.Display = indent + label + name
	child.Highlights = []item.Highlight{{
		Name:  "directory",
		Group: DirectoryGroup,
		Col:   len(indent) + 1,
		Width: len(label) + len(name),
	}}
	return child, true
}
