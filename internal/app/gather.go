package app

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/filer/internal/item"
	"github.com/marcus/filer/internal/plugin"
	"github.com/marcus/filer/internal/source"
	"github.com/marcus/filer/internal/tree"
)

// ItemsGatheredMsg carries a finished background listing of all sources.
type ItemsGatheredMsg struct {
	Epoch uint64
	Items []*item.Item
	// Expanded are the rows that were expanded when the gather started,
	// in display order, with their fresh children.
	Expanded []expandedDir
	Err      error
}

// GetEpoch implements plugin.EpochMessage.
func (m ItemsGatheredMsg) GetEpoch() uint64 { return m.Epoch }

type expandedDir struct {
	Item     *item.Item
	Children []*item.Item
}

// gatherCmd starts a new gather generation. Results of earlier generations
// still in flight are dropped when they arrive.
func (f *Framework) gatherCmd(expanded []*item.Item) tea.Cmd {
	f.run.Epoch++
	f.run.Done = false
	epoch := f.run.Epoch
	sources := slices.Clone(f.sources)
	lister := f.lister
	return func() tea.Msg {
		return gather(context.Background(), lister, sources, expanded, epoch)
	}
}

func gather(ctx context.Context, lister source.Lister, sources []tree.Source, expanded []*item.Item, epoch uint64) ItemsGatheredMsg {
	out := ItemsGatheredMsg{Epoch: epoch}
	for _, src := range sources {
		items, err := lister.List(ctx, src, src.Path, 0)
		if err != nil {
			out.Err = fmt.Errorf("gather %s: %w", src.Path, err)
			return out
		}
		out.Items = append(out.Items, items...)
	}

	for _, it := range expanded {
		dir := expandedDir{Item: it}
		if !it.Grouped {
			src, ok := sourceByIndex(sources, it.SourceIndex)
			if !ok {
				continue
			}
			children, err := lister.List(ctx, src, it.TreePath, it.Level+1)
			if err != nil {
				// Removed since it was expanded.
				continue
			}
			dir.Children = children
		}
		out.Expanded = append(out.Expanded, dir)
	}
	return out
}

func sourceByIndex(sources []tree.Source, index int) (tree.Source, bool) {
	for _, s := range sources {
		if s.Index == index {
			return s, true
		}
	}
	return tree.Source{}, false
}

// applyGathered rebuilds the tree from a gather, expands again what was
// expanded before and redraws.
func (f *Framework) applyGathered(ctx context.Context, m ItemsGatheredMsg) error {
	if plugin.IsStale(&f.run, m) {
		f.log.Debug("app: dropping stale gather", "epoch", m.Epoch, "current", f.run.Epoch)
		return nil
	}
	f.run.Done = true
	if m.Err != nil {
		return m.Err
	}
	f.run.MaxItems = len(m.Items)
	if err := f.ui.RefreshItems(ctx, f.run, f.sources, m.Items); err != nil {
		return err
	}

	t := f.ui.Tree()
	for _, dir := range m.Expanded {
		if dir.Item.Grouped {
			if err := f.regroup(ctx, dir.Item); err != nil {
				f.log.Debug("app: regroup", "path", dir.Item.TreePath, "error", err)
			}
			continue
		}
		if _, ok := t.Row(dir.Item); !ok {
			continue
		}
		parent := dir.Item.Clone()
		parent.Expanded = true
		if _, err := f.ui.ExpandItem(ctx, parent, dir.Children, false); err != nil {
			return err
		}
	}

	f.syncWatcher()
	return f.ui.Redraw(ctx, f.run)
}

// regroup folds a grouped row again: the freshly listed tree only has its
// topmost directory, so that one is expanded with grouping.
func (f *Framework) regroup(ctx context.Context, grouped *item.Item) error {
	t := f.ui.Tree()
	if _, ok := t.Row(grouped); ok {
		return nil
	}
	src, ok := f.source(grouped.SourceIndex)
	if !ok {
		return fmt.Errorf("no source %d", grouped.SourceIndex)
	}
	for dir := filepath.Dir(grouped.TreePath); dir != src.Path && dir != filepath.Dir(dir); dir = filepath.Dir(dir) {
		row, ok := t.Row(&item.Item{SourceIndex: grouped.SourceIndex, TreePath: dir})
		if !ok {
			continue
		}
		anchor := t.Items()[row-1]
		if anchor.Expanded {
			return nil
		}
		parent := anchor.Clone()
		parent.Expanded = true
		return f.expand(ctx, parent, 0, true, 0)
	}
	return fmt.Errorf("no anchor row")
}
