// Package filer is the file explorer UI. It keeps the displayed tree,
// renders it into a list buffer, and turns user actions into tree edits,
// preview updates and requests to the host.
package filer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/marcus/filer/internal/config"
	"github.com/marcus/filer/internal/editor"
	"github.com/marcus/filer/internal/item"
	"github.com/marcus/filer/internal/plugin"
	"github.com/marcus/filer/internal/preview"
	"github.com/marcus/filer/internal/tree"
	"github.com/mitchellh/go-homedir"
)

var (
	// ErrUnknownAction is returned by Do for names not in the action table.
	ErrUnknownAction = errors.New("unknown action")
	// ErrNotTree reports an expand of an item that cannot have children.
	ErrNotTree = errors.New("item is not a tree")
	// ErrAlreadyExpanded reports an expand of an open directory.
	ErrAlreadyExpanded = errors.New("item is already expanded")
)

// ActionArgs are passed to every action handler.
type ActionArgs struct {
	Context plugin.Context
	Params  plugin.ActionParams
}

// ActionFunc handles one named action.
type ActionFunc func(ctx context.Context, args *ActionArgs) (plugin.ActionFlags, error)

// UI is one named filer instance.
type UI struct {
	name    string
	ed      Editor
	host    Host
	log     *slog.Logger
	tree    *tree.State
	preview *preview.Controller
	cursors CursorStore
	hook    preview.Hook
	homeDir string
	actions map[string]ActionFunc

	mu             sync.Mutex
	params         config.Params
	collapseTarget *item.Item
	titleLeased    bool
	opened         bool
}

// Option configures a UI.
type Option func(*UI)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(u *UI) { u.log = l }
}

// WithCursorStore persists the cursor row per listed path.
func WithCursorStore(s CursorStore) Option {
	return func(u *UI) { u.cursors = s }
}

// WithPreviewHook runs fn after every rendered preview. It takes
// precedence over the onPreview option.
func WithPreviewHook(fn func(ctx context.Context, ev preview.Event) error) Option {
	return func(u *UI) { u.hook = preview.FuncHook(fn) }
}

// WithHomeDir sets the directory shown as "~" in root rows.
func WithHomeDir(dir string) Option {
	return func(u *UI) { u.homeDir = dir }
}

// New returns a UI named name.
func New(name string, ed Editor, host Host, params config.Params, opts ...Option) *UI {
	u := &UI{
		name:   name,
		ed:     ed,
		host:   host,
		log:    slog.Default(),
		tree:   tree.New(),
		params: params.Clone(),
	}
	if home, err := homedir.Dir(); err == nil {
		u.homeDir = home
	}
	for _, opt := range opts {
		opt(u)
	}
	u.preview = preview.New(ed, u.log)
	u.actions = u.actionTable()
	return u
}

// Name returns the instance name.
func (u *UI) Name() string { return u.name }

// Tree exposes the displayed tree.
func (u *UI) Tree() *tree.State { return u.tree }

// Preview exposes the preview controller.
func (u *UI) Preview() *preview.Controller { return u.preview }

// BufferName is the name of the list buffer.
func (u *UI) BufferName() string { return "filer-" + u.name }

// Params returns a copy of the current options.
func (u *UI) Params() config.Params {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.params.Clone()
}

// SetParams replaces the options after validating them.
func (u *UI) SetParams(p config.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.params = p.Clone()
	return nil
}

// ActionNames lists the registered actions in alphabetical order.
func (u *UI) ActionNames() []string {
	names := make([]string, 0, len(u.actions))
	for name := range u.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Do runs the named action.
func (u *UI) Do(ctx context.Context, run plugin.Context, name string, params plugin.ActionParams) (plugin.ActionFlags, error) {
	fn, ok := u.actions[name]
	if !ok {
		return plugin.ActionNone, fmt.Errorf("%q: %w", name, ErrUnknownAction)
	}
	if params == nil {
		params = plugin.ActionParams{}
	}
	flags, err := fn(ctx, &ActionArgs{Context: run, Params: params})
	if errors.Is(err, ErrNotTree) || errors.Is(err, ErrAlreadyExpanded) {
		u.log.Debug("filer: "+name+" did nothing", "reason", err)
	}
	return flags, err
}

// RefreshItems rebuilds the tree from a new batch of source items.
func (u *UI) RefreshItems(ctx context.Context, run plugin.Context, sources []tree.Source, items []*item.Item) error {
	p := u.Params()
	return u.tree.Refresh(sources, items, tree.Options{
		Sort:            p.SortPolicy(),
		DisplayRoot:     p.DisplayRoot,
		HomeDir:         u.homeDir,
		Cwd:             run.Cwd,
		SourceNameGroup: p.Highlights.SourceName,
		SourcePathGroup: p.Highlights.SourcePath,
	})
}

// ExpandItem places children below parent.
func (u *UI) ExpandItem(ctx context.Context, parent *item.Item, children []*item.Item, isGrouped bool) (int, error) {
	return u.tree.Expand(parent, children, u.Params().SortPolicy(), isGrouped)
}

// CollapseItem removes the descendants of it and returns how many rows went
// away. The next redraw puts the cursor on it.
func (u *UI) CollapseItem(ctx context.Context, it *item.Item) int {
	removed := u.tree.Collapse(it)
	u.mu.Lock()
	u.collapseTarget = it
	u.mu.Unlock()
	return removed
}

// SearchItem moves the cursor to it and centers the view.
func (u *UI) SearchItem(ctx context.Context, it *item.Item) error {
	row, ok := u.tree.Search(it)
	if !ok {
		return nil
	}
	win, err := u.WinID(ctx)
	if err != nil || win == editor.NoWindow {
		return err
	}
	if err := u.ed.SetCursor(ctx, win, row); err != nil {
		return err
	}
	return u.ed.CenterCursor(ctx, win)
}

// Visible reports whether a window shows the list buffer.
func (u *UI) Visible(ctx context.Context) (bool, error) {
	win, err := u.WinID(ctx)
	return win != editor.NoWindow, err
}

// WinID returns the first window showing the list buffer.
func (u *UI) WinID(ctx context.Context) (editor.WinID, error) {
	nr, found, err := u.ed.BufferByName(ctx, u.BufferName())
	if err != nil || !found {
		return editor.NoWindow, err
	}
	wins, err := u.ed.BufferWindows(ctx, nr)
	if err != nil || len(wins) == 0 {
		return editor.NoWindow, err
	}
	return wins[0], nil
}

// Quit closes the preview and the list window and tells the host.
func (u *UI) Quit(ctx context.Context, run plugin.Context) error {
	if err := u.preview.Close(ctx, run); err != nil {
		return err
	}
	if err := u.preview.RemovePreviewedBuffers(ctx); err != nil {
		return err
	}

	nr, found, err := u.ed.BufferByName(ctx, u.BufferName())
	if err != nil || !found {
		return err
	}
	wins, err := u.ed.BufferWindows(ctx, nr)
	if err != nil {
		return err
	}
	if len(wins) > 0 {
		u.saveCursor(ctx, run, wins[0])
	}

	split := u.Params().Split
	for _, win := range wins {
		if err := u.ed.GotoWindow(ctx, win); err != nil {
			return err
		}
		count, err := u.ed.WindowCount(ctx)
		if err != nil {
			return err
		}
		if split == "no" || count == 1 {
			prevName, err := u.ed.BufferName(ctx, run.BufNr)
			if err != nil || prevName != run.BufName || run.BufNr == nr {
				err = u.ed.ShowEmpty(ctx, win)
			} else {
				err = u.ed.ShowBuffer(ctx, win, run.BufNr)
			}
			if err != nil {
				return err
			}
			continue
		}
		if err := u.ed.CloseWindow(ctx, win); err != nil {
			return err
		}
		if err := u.ed.GotoWindow(ctx, run.WinID); err != nil && !errors.Is(err, editor.ErrNoSuchWindow) {
			return err
		}
	}

	u.mu.Lock()
	leased := u.titleLeased
	u.titleLeased = false
	u.opened = false
	u.mu.Unlock()
	if leased {
		if err := u.ed.RestoreTitle(ctx); err != nil {
			return err
		}
	}

	return u.host.Event(ctx, u.name, "close")
}

// cursorItem returns the item under the cursor as last rendered.
func (u *UI) cursorItem(ctx context.Context) (*item.Item, int, error) {
	win, err := u.WinID(ctx)
	if err != nil || win == editor.NoWindow {
		return nil, 0, err
	}
	row, err := u.ed.Cursor(ctx, win)
	if err != nil {
		return nil, 0, err
	}
	return u.tree.ItemAtRow(row), row, nil
}

// targetItems returns the selection, or the item under the cursor when
// nothing is selected.
func (u *UI) targetItems(ctx context.Context) ([]*item.Item, error) {
	if u.tree.HasSelection() {
		return u.tree.SelectedItems(), nil
	}
	it, _, err := u.cursorItem(ctx)
	if err != nil || it == nil {
		return nil, err
	}
	return []*item.Item{it}, nil
}

func (u *UI) saveCursor(ctx context.Context, run plugin.Context, win editor.WinID) {
	if u.cursors == nil || run.Path == "" {
		return
	}
	row, err := u.ed.Cursor(ctx, win)
	if err != nil {
		return
	}
	if err := u.cursors.SetCursor(run.Path, row); err != nil {
		u.log.Error("filer: save cursor", "path", run.Path, "error", err)
	}
}
