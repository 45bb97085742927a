// Package tree holds the flattened, currently displayed item tree together
// with the selection set and the snapshot of the last rendered view.
//
// Rows are 1-based, matching editor line numbers. Items are identified by
// item.Key rather than by position: rows shift whenever a directory is
// expanded or collapsed, keys do not.
package tree

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/marcus/filer/internal/item"
	"github.com/marcus/filer/internal/sortpolicy"
	"github.com/mattn/go-runewidth"
)

// Source describes one data source whose items are shown under a root row.
type Source struct {
	Index int
	Name  string
	Path  string
	Kind  string
}

// Options configures Refresh.
type Options struct {
	Sort        sortpolicy.Policy
	DisplayRoot bool
	// HomeDir is replaced by "~" in root labels when non-empty.
	HomeDir string
	// Cwd is used as the root path of sources that have none.
	Cwd string
	// Highlight groups for the two root label spans.
	SourceNameGroup string
	SourcePathGroup string
}

// State is safe for concurrent use.
type State struct {
	mu        sync.RWMutex
	items     []*item.Item
	index     map[item.Key]int
	view      []*item.Item
	selected  map[item.Key]struct{}
	refreshed bool
}

// New returns an empty tree.
func New() *State {
	return &State{
		index:    make(map[item.Key]int),
		selected: make(map[item.Key]struct{}),
	}
}

// Refresh rebuilds the tree from a flat batch of source items. Each source
// contributes an optional root row followed by its sorted items, in source
// declaration order.
func (s *State) Refresh(sources []Source, raw []*item.Item, opts Options) error {
	sorter, err := sortpolicy.New(opts.Sort)
	if err != nil {
		return err
	}

	bySource := make(map[int][]*item.Item)
	for _, it := range raw {
		bySource[it.SourceIndex] = append(bySource[it.SourceIndex], it)
	}

	items := make([]*item.Item, 0, len(raw)+len(sources))
	for _, src := range sources {
		if opts.DisplayRoot {
			items = append(items, newRoot(src, opts))
		}
		if batch := bySource[src.Index]; len(batch) > 0 {
			items = append(items, sorter.Sort(batch)...)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
	s.reindex()
	s.prune()
	s.refreshed = true
	return nil
}

// Expand places children directly below parent and stores parent (whose
// Expanded flag the caller has already set) at its position. A grouped
// expansion with a single child replaces parent by that child instead.
// When parent is not in the tree the children are appended. The returned
// value is the change in item count.
func (s *State) Expand(parent *item.Item, children []*item.Item, policy sortpolicy.Policy, grouped bool) (int, error) {
	sorter, err := sortpolicy.New(policy)
	if err != nil {
		return 0, err
	}
	insert := sorter.Sort(children)

	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.items)
	idx, ok := s.index[parent.Key()]
	switch {
	case !ok:
		s.items = append(s.items, insert...)
	case grouped && len(insert) == 1:
		s.items[idx] = insert[0]
	default:
		items := make([]*item.Item, 0, len(s.items)+len(insert))
		items = append(items, s.items[:idx]...)
		items = append(items, parent)
		items = append(items, insert...)
		items = append(items, s.items[idx+1:]...)
		s.items = items
	}
	s.reindex()
	s.prune()
	return len(s.items) - before, nil
}

// Collapse removes the descendants of it, i.e. the run of rows after it
// whose level is greater than its own, and stores it at its position. It
// returns the number of rows removed; a miss removes nothing.
func (s *State) Collapse(it *item.Item) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	start, ok := s.index[it.Key()]
	if !ok {
		return 0
	}
	end := len(s.items)
	for i := start + 1; i < len(s.items); i++ {
		if s.items[i].Level <= it.Level {
			end = i
			break
		}
	}

	removed := end - start - 1
	s.items = append(s.items[:start+1], s.items[end:]...)
	s.items[start] = it
	s.reindex()
	s.prune()
	return removed
}

// Search returns the row of it. An exact structural match is tried first,
// then a match on source and tree path alone, since callers often hold an
// older copy of the item than the one stored.
func (s *State) Search(it *item.Item) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.index[it.Key()]
	if ok && s.items[idx].Equal(it) {
		return idx + 1, true
	}
	for i, cur := range s.items {
		if cur.Equal(it) {
			return i + 1, true
		}
	}
	if ok {
		return idx + 1, true
	}
	return 0, false
}

// SearchPath returns the first row showing path, from any source.
func (s *State) SearchPath(path string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i, cur := range s.items {
		if cur.SortKey() == path {
			return i + 1, true
		}
	}
	return 0, false
}

// Row returns the current row of the item with the same key.
func (s *State) Row(it *item.Item) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.index[it.Key()]
	return idx + 1, ok
}

// Items returns a copy of the displayed items in display order.
func (s *State) Items() []*item.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*item.Item(nil), s.items...)
}

// Len returns the number of displayed items.
func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Snapshot records the current items as the rendered view. Call it after a
// successful render.
func (s *State) Snapshot() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = make([]*item.Item, len(s.items))
	for i, it := range s.items {
		s.view[i] = it.Clone()
	}
}

// ViewLen returns the number of rows in the last rendered view.
func (s *State) ViewLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.view)
}

// ItemAtRow maps a rendered row to the live item with the same identity.
// It returns nil when the row is out of range or the item has since been
// removed.
func (s *State) ItemAtRow(row int) *item.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.itemAtRow(row)
}

func (s *State) itemAtRow(row int) *item.Item {
	if row < 1 || row > len(s.view) {
		return nil
	}
	idx, ok := s.index[s.view[row-1].Key()]
	if !ok {
		return nil
	}
	return s.items[idx]
}

// SiblingBounds returns the first and last rendered rows at the same level
// as row within the run that contains it.
func (s *State) SiblingBounds(row int) (top, bottom int, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if row < 1 || row > len(s.view) {
		return 0, 0, false
	}
	level := s.view[row-1].Level
	top, bottom = row, row
	for i := row - 1; i >= 1; i-- {
		l := s.view[i-1].Level
		if l < level {
			break
		}
		if l == level {
			top = i
		}
	}
	for i := row + 1; i <= len(s.view); i++ {
		l := s.view[i-1].Level
		if l < level {
			break
		}
		if l == level {
			bottom = i
		}
	}
	return top, bottom, true
}

// ExpandedAncestor returns it when it is an expanded tree node, otherwise
// the nearest expanded tree ancestor found by walking up its tree path.
// Source roots are never returned.
func (s *State) ExpandedAncestor(it *item.Item) *item.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx, ok := s.index[it.Key()]; ok {
		if cur := s.items[idx]; cur.IsTree && cur.Expanded && !cur.IsRoot() {
			return cur
		}
	}
	p := strings.TrimRight(it.SortKey(), string(filepath.Separator))
	for {
		parent := filepath.Dir(p)
		if parent == p || parent == "." || parent == "" {
			return nil
		}
		p = parent
		idx, ok := s.index[item.KeyOf(it.SourceIndex, p)]
		if !ok {
			continue
		}
		cur := s.items[idx]
		if cur.IsRoot() {
			return nil
		}
		if cur.IsTree && cur.Expanded {
			return cur
		}
	}
}

// JustRefreshed reports whether a Refresh happened since the last call to
// ConsumeRefreshed.
func (s *State) JustRefreshed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshed
}

// ConsumeRefreshed clears the refreshed marker and returns its old value.
func (s *State) ConsumeRefreshed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	was := s.refreshed
	s.refreshed = false
	return was
}

// reindex must be called with mu held for writing.
func (s *State) reindex() {
	s.index = make(map[item.Key]int, len(s.items))
	for i, it := range s.items {
		k := it.Key()
		if _, dup := s.index[k]; !dup {
			s.index[k] = i
		}
	}
}

func newRoot(src Source, opts Options) *item.Item {
	root := src.Path
	if root == "" {
		root = opts.Cwd
	}
	display := shortenHome(root, opts.HomeDir)

	nameGroup := opts.SourceNameGroup
	if nameGroup == "" {
		nameGroup = "Type"
	}
	pathGroup := opts.SourcePathGroup
	if pathGroup == "" {
		pathGroup = "String"
	}

	return &item.Item{
		Word:    root,
		Display: src.Name + ":" + display,
		Action:  item.ActionData{Path: root, IsDirectory: true},
		Highlights: []item.Highlight{
			{Name: "root-source-name", Group: nameGroup, Col: 1, Width: runewidth.StringWidth(src.Name)},
			{Name: "root-source-path", Group: pathGroup, Col: len(src.Name) + 2, Width: runewidth.StringWidth(display)},
		},
		Kind:        src.Kind,
		IsTree:      true,
		TreePath:    root,
		MatcherKey:  "word",
		SourceIndex: src.Index,
		SourceName:  src.Name,
		Level:       item.RootLevel,
		Expanded:    true,
	}
}

func shortenHome(p, home string) string {
	home = strings.TrimRight(home, string(filepath.Separator))
	if home == "" {
		return p
	}
	if p == home {
		return "~"
	}
	if strings.HasPrefix(p, home+string(filepath.Separator)) {
		return "~" + p[len(home):]
	}
	return p
}
