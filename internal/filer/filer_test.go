package filer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/marcus/filer/internal/config"
	"github.com/marcus/filer/internal/editor"
	"github.com/marcus/filer/internal/item"
	"github.com/marcus/filer/internal/plugin"
	"github.com/marcus/filer/internal/preview"
	"github.com/marcus/filer/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHost plays the list framework: it owns a fixed directory listing and
// answers tree requests by calling back into the UI.
type fakeHost struct {
	ui       *UI
	run      plugin.Context
	children map[string][]*item.Item

	mu       sync.Mutex
	errors   []string
	actions  []string
	events   []string
	popped   int
	redraws  []RedrawOptions
	prompted []string
	answer   string
}

func (h *fakeHost) ResolvePreviewer(ctx context.Context, it *item.Item, params plugin.ActionParams, pctx preview.Context) (preview.Previewer, error) {
	return &preview.NoFilePreviewer{Contents: []string{"preview of " + it.Word}}, nil
}

func (h *fakeHost) RedrawTree(ctx context.Context, name, mode string, targets []TreeTarget) error {
	for _, t := range targets {
		parent := t.Item.Clone()
		switch mode {
		case TreeExpand:
			parent.Expanded = true
			if _, err := h.ui.ExpandItem(ctx, parent, h.children[parent.TreePath], t.IsGrouped); err != nil {
				return err
			}
		case TreeCollapse:
			parent.Expanded = false
			h.ui.CollapseItem(ctx, parent)
		}
	}
	return h.ui.Redraw(ctx, h.run)
}

func (h *fakeHost) Redraw(ctx context.Context, name string, opts RedrawOptions) error {
	h.mu.Lock()
	h.redraws = append(h.redraws, opts)
	h.mu.Unlock()
	return nil
}

func (h *fakeHost) ItemAction(ctx context.Context, name, action string, items []*item.Item, params plugin.ActionParams) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, it := range items {
		h.actions = append(h.actions, action+":"+it.Word)
	}
	return nil
}

func (h *fakeHost) ItemActionNames(ctx context.Context, name string, items []*item.Item) ([]string, error) {
	return []string{"open", "yank"}, nil
}

func (h *fakeHost) ChooseAction(ctx context.Context, name string, items []*item.Item, actions []string) error {
	return nil
}

func (h *fakeHost) Prompt(ctx context.Context, prompt string, choices []string, done func(string)) {
	h.mu.Lock()
	h.prompted = append(h.prompted, prompt)
	answer := h.answer
	h.mu.Unlock()
	done(answer)
}

func (h *fakeHost) Pop(ctx context.Context, name string) error {
	h.mu.Lock()
	h.popped++
	h.mu.Unlock()
	return nil
}

func (h *fakeHost) Event(ctx context.Context, name, event string) error {
	h.mu.Lock()
	h.events = append(h.events, event)
	h.mu.Unlock()
	return nil
}

func (h *fakeHost) PrintError(ctx context.Context, msg string) {
	h.mu.Lock()
	h.errors = append(h.errors, msg)
	h.mu.Unlock()
}

type memCursors map[string]int

func (m memCursors) Cursor(path string) (int, bool) {
	row, ok := m[path]
	return row, ok
}

func (m memCursors) SetCursor(path string, row int) error {
	m[path] = row
	return nil
}

type fixture struct {
	ed      *editor.Memory
	host    *fakeHost
	ui      *UI
	cursors memCursors
}

func dir(path string, level int) *item.Item {
	return &item.Item{Word: path, TreePath: path, IsTree: true, Level: level,
		Action: item.ActionData{Path: path, IsDirectory: true}}
}

func file(path string, level int) *item.Item {
	return &item.Item{Word: path, TreePath: path, Level: level, Action: item.ActionData{Path: path}}
}

func newFixture(t *testing.T, mutate func(*config.Params)) *fixture {
	t.Helper()
	ctx := context.Background()
	ed := editor.NewMemory(40, 120)
	mainBuf, err := ed.WindowBuffer(ctx, ed.Current())
	require.NoError(t, err)

	p := config.DefaultParams()
	p.DisplayRoot = false
	if mutate != nil {
		mutate(&p)
	}

	host := &fakeHost{
		run: plugin.Context{
			Name: "default", Path: "/p", Cwd: "/p",
			WinID: ed.Current(), BufNr: mainBuf,
			Done: true, MaxItems: 3,
		},
		children: map[string][]*item.Item{
			"/p/a": {file("/p/a/x", 1), file("/p/a/y", 1)},
			"/p/b": {file("/p/b/z", 1)},
		},
	}
	cursors := memCursors{}
	u := New("default", ed, host, p, WithCursorStore(cursors), WithHomeDir("/home/u"))
	host.ui = u

	f := &fixture{ed: ed, host: host, ui: u, cursors: cursors}
	f.refresh(t, dir("/p/a", 0), dir("/p/b", 0), file("/p/c", 0))
	return f
}

func (f *fixture) refresh(t *testing.T, items ...*item.Item) {
	t.Helper()
	ctx := context.Background()
	sources := []tree.Source{{Index: 0, Name: "file", Path: "/p"}}
	require.NoError(t, f.ui.RefreshItems(ctx, f.host.run, sources, items))
	require.NoError(t, f.ui.Redraw(ctx, f.host.run))
}

func (f *fixture) do(t *testing.T, name string, params plugin.ActionParams) plugin.ActionFlags {
	t.Helper()
	flags, err := f.ui.Do(context.Background(), f.host.run, name, params)
	require.NoError(t, err)
	return flags
}

func (f *fixture) lines(t *testing.T) []string {
	t.Helper()
	ctx := context.Background()
	nr, found, err := f.ed.BufferByName(ctx, f.ui.BufferName())
	require.NoError(t, err)
	require.True(t, found)
	lines, err := f.ed.BufferLines(ctx, nr)
	require.NoError(t, err)
	return lines
}

func (f *fixture) cursor(t *testing.T) int {
	t.Helper()
	ctx := context.Background()
	win, err := f.ui.WinID(ctx)
	require.NoError(t, err)
	row, err := f.ed.Cursor(ctx, win)
	require.NoError(t, err)
	return row
}

func (f *fixture) setCursor(t *testing.T, row int) {
	t.Helper()
	ctx := context.Background()
	win, err := f.ui.WinID(ctx)
	require.NoError(t, err)
	require.NoError(t, f.ed.SetCursor(ctx, win, row))
}

func TestRedraw_OpensListWindow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	assert.Equal(t, []string{"/p/a", "/p/b", "/p/c"}, f.lines(t))
	visible, err := f.ui.Visible(ctx)
	require.NoError(t, err)
	assert.True(t, visible)

	win, _ := f.ui.WinID(ctx)
	assert.Equal(t, win, f.ed.Current(), "focus stays on the list")

	nr, _, _ := f.ed.BufferByName(ctx, f.ui.BufferName())
	buf, ok := f.ed.Buffer(nr)
	require.True(t, ok)
	assert.Equal(t, "filer", buf.Filetype)
	name, _, _ := f.ed.BufferVar(ctx, nr, "filer_ui_name")
	assert.Equal(t, "default", name)
	path, _, _ := f.ed.BufferVar(ctx, nr, "filer_ui_path")
	assert.Equal(t, "/p", path)

	var status string
	for _, w := range f.ed.Windows() {
		if w.ID == win {
			status = w.Statusline
		}
	}
	assert.Equal(t, "[filer-default] 3/3", status)
}

func TestRedraw_SecondRedrawReusesWindow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	count, _ := f.ed.WindowCount(ctx)
	require.NoError(t, f.ui.Redraw(ctx, f.host.run))
	after, _ := f.ed.WindowCount(ctx)
	assert.Equal(t, count, after)
}

func TestRedraw_SyncWaitsForGathering(t *testing.T) {
	ctx := context.Background()
	ed := editor.NewMemory(40, 120)
	host := &fakeHost{run: plugin.Context{Name: "default", Sync: true}}
	u := New("default", ed, host, config.DefaultParams())
	host.ui = u

	require.NoError(t, u.Redraw(ctx, host.run))
	visible, err := u.Visible(ctx)
	require.NoError(t, err)
	assert.False(t, visible)
}

func TestRedraw_FloatingTakesTitle(t *testing.T) {
	ctx := context.Background()
	ed := editor.NewMemory(40, 120)
	require.NoError(t, ed.SetTitle(ctx, "editor"))
	p := config.DefaultParams()
	p.Split = "floating"
	host := &fakeHost{run: plugin.Context{Name: "default", Path: "/p", WinID: ed.Current(), Done: true, MaxItems: 1}}
	u := New("default", ed, host, p)
	host.ui = u
	require.NoError(t, u.RefreshItems(ctx, host.run, []tree.Source{{Index: 0, Path: "/p"}}, nil))
	require.NoError(t, u.Redraw(ctx, host.run))

	title, _ := ed.Title(ctx)
	assert.Equal(t, "[filer-default] 1/1", title)
	win, _ := u.WinID(ctx)
	for _, w := range ed.Windows() {
		if w.ID == win {
			assert.True(t, w.Layout.Floating())
			assert.Equal(t, "Normal:NormalFloat,FloatBorder:FloatBorder", w.Highlight)
		}
	}

	_, err := u.Do(ctx, host.run, "quit", nil)
	require.NoError(t, err)
	title, _ = ed.Title(ctx)
	assert.Equal(t, "editor", title)
}

func TestExpandAndCollapse(t *testing.T) {
	f := newFixture(t, nil)

	f.setCursor(t, 1)
	f.do(t, "expandItem", nil)
	assert.Equal(t, []string{"/p/a", "/p/a/x", "/p/a/y", "/p/b", "/p/c"}, f.lines(t))

	// Collapse from a child lands on the parent.
	f.setCursor(t, 3)
	f.do(t, "collapseItem", nil)
	assert.Equal(t, []string{"/p/a", "/p/b", "/p/c"}, f.lines(t))
	assert.Equal(t, 1, f.cursor(t))
}

func TestExpandItem_NoOps(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	f.setCursor(t, 3)
	_, err := f.ui.Do(ctx, f.host.run, "expandItem", nil)
	assert.ErrorIs(t, err, ErrNotTree)

	f.setCursor(t, 1)
	f.do(t, "expandItem", nil)
	f.setCursor(t, 1)
	_, err = f.ui.Do(ctx, f.host.run, "expandItem", nil)
	assert.ErrorIs(t, err, ErrAlreadyExpanded)
	assert.Len(t, f.lines(t), 5, "nothing changed")
}

func TestExpandItem_ToggleCollapses(t *testing.T) {
	f := newFixture(t, nil)
	f.setCursor(t, 2)
	f.do(t, "expandItem", nil)
	require.Equal(t, []string{"/p/a", "/p/b", "/p/b/z", "/p/c"}, f.lines(t))

	f.setCursor(t, 2)
	f.do(t, "expandItem", plugin.ActionParams{"mode": "toggle"})
	assert.Equal(t, []string{"/p/a", "/p/b", "/p/c"}, f.lines(t))
	assert.Equal(t, 2, f.cursor(t))
}

func TestExpandItem_GroupedSingleChildReplacesParent(t *testing.T) {
	f := newFixture(t, nil)
	f.host.children["/p/b"] = []*item.Item{{Word: "/p/b/only", TreePath: "/p/b/only", IsTree: true, Grouped: true}}
	f.setCursor(t, 2)
	f.do(t, "expandItem", plugin.ActionParams{"isGrouped": true})
	assert.Equal(t, []string{"/p/a", "/p/b/only", "/p/c"}, f.lines(t))
}

func TestCollapseItem_AtTopLevelDoesNothing(t *testing.T) {
	f := newFixture(t, nil)
	f.setCursor(t, 3)
	assert.Equal(t, plugin.ActionNone, f.do(t, "collapseItem", nil))
	assert.Len(t, f.lines(t), 3)
}

func TestCursorNextPrevious(t *testing.T) {
	tests := []struct {
		name   string
		action string
		start  int
		params plugin.ActionParams
		want   int
	}{
		{"next", "cursorNext", 1, nil, 2},
		{"next clamps", "cursorNext", 3, nil, 3},
		{"next loops", "cursorNext", 3, plugin.ActionParams{"loop": true}, 1},
		{"next count", "cursorNext", 1, plugin.ActionParams{"count": 2}, 3},
		{"previous", "cursorPrevious", 3, nil, 2},
		{"previous clamps", "cursorPrevious", 1, nil, 1},
		{"previous loops", "cursorPrevious", 1, plugin.ActionParams{"loop": true}, 3},
		{"json count", "cursorNext", 1, plugin.ActionParams{"count": float64(2)}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.setCursor(t, tt.start)
			flags := f.do(t, tt.action, tt.params)
			assert.Equal(t, plugin.ActionPersist, flags)
			assert.Equal(t, tt.want, f.cursor(t))
			assert.Equal(t, tt.want, f.cursors["/p"])
		})
	}
}

func TestCursorTreeTopBottom(t *testing.T) {
	f := newFixture(t, nil)
	f.setCursor(t, 1)
	f.do(t, "expandItem", nil)
	// /p/a, /p/a/x, /p/a/y, /p/b, /p/c

	f.setCursor(t, 2)
	f.do(t, "cursorTreeBottom", nil)
	assert.Equal(t, 3, f.cursor(t))
	f.do(t, "cursorTreeTop", nil)
	assert.Equal(t, 2, f.cursor(t))

	f.setCursor(t, 4)
	f.do(t, "cursorTreeTop", nil)
	assert.Equal(t, 1, f.cursor(t))
	f.do(t, "cursorTreeBottom", nil)
	assert.Equal(t, 5, f.cursor(t))
}

func TestSelection(t *testing.T) {
	f := newFixture(t, nil)

	f.setCursor(t, 2)
	assert.Equal(t, plugin.ActionRedraw, f.do(t, "toggleSelectItem", nil))
	assert.True(t, f.ui.Tree().HasSelection())

	f.do(t, "itemAction", plugin.ActionParams{"name": "yank"})
	assert.Equal(t, []string{"yank:/p/b"}, f.host.actions)

	f.do(t, "toggleAllItems", nil)
	assert.Equal(t, []int{1, 3}, f.ui.Tree().SelectedRows())

	f.do(t, "clearSelectAllItems", nil)
	assert.False(t, f.ui.Tree().HasSelection())
}

func TestSelection_PrunedOnRefresh(t *testing.T) {
	f := newFixture(t, nil)
	f.setCursor(t, 3)
	f.do(t, "toggleSelectItem", nil)
	require.True(t, f.ui.Tree().HasSelection())

	f.refresh(t, dir("/p/a", 0), dir("/p/b", 0))
	assert.False(t, f.ui.Tree().HasSelection())
}

func TestItemAction_DefaultsToCursorItem(t *testing.T) {
	f := newFixture(t, nil)
	f.setCursor(t, 3)
	f.do(t, "itemAction", nil)
	assert.Equal(t, []string{"default:/p/c"}, f.host.actions)
}

func TestItemAction_EmptyTreePersists(t *testing.T) {
	f := newFixture(t, nil)
	f.refresh(t)
	assert.Equal(t, plugin.ActionPersist, f.do(t, "itemAction", nil))
	assert.Empty(t, f.host.actions)
}

func TestInputAction(t *testing.T) {
	f := newFixture(t, nil)
	f.host.answer = "open"
	f.setCursor(t, 1)
	f.do(t, "inputAction", nil)
	assert.Equal(t, []string{"Input action name: "}, f.host.prompted)
	assert.Equal(t, []string{"open:/p/a"}, f.host.actions)

	f.host.answer = ""
	f.do(t, "inputAction", nil)
	assert.Len(t, f.host.actions, 1, "cancelled prompt runs nothing")
}

func TestGetItem(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.setCursor(t, 2)
	f.do(t, "getItem", nil)

	nr, _, _ := f.ed.BufferByName(ctx, f.ui.BufferName())
	v, ok, err := f.ed.BufferVar(ctx, nr, "filer_ui_item")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "/p/b", v.(*item.Item).Word)
}

func TestPreviewAndToggle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.setCursor(t, 3)

	assert.Equal(t, plugin.ActionPersist, f.do(t, "preview", nil))
	assert.True(t, f.ui.Preview().Visible())
	listWin, _ := f.ui.WinID(ctx)
	assert.Equal(t, listWin, f.ed.Current())

	assert.Equal(t, plugin.ActionNone, f.do(t, "preview", nil), "same item again")

	f.do(t, "togglePreview", nil)
	assert.False(t, f.ui.Preview().Visible())
	f.do(t, "togglePreview", nil)
	assert.True(t, f.ui.Preview().Visible())

	f.do(t, "closePreviewWindow", nil)
	assert.False(t, f.ui.Preview().Visible())
}

func TestPreview_HookRuns(t *testing.T) {
	ctx := context.Background()
	ed := editor.NewMemory(40, 120)
	host := &fakeHost{run: plugin.Context{Name: "default", Path: "/p", WinID: ed.Current(), Done: true}}
	var got []string
	u := New("default", ed, host, config.DefaultParams(), WithPreviewHook(func(ctx context.Context, ev preview.Event) error {
		got = append(got, ev.Item.Word)
		return nil
	}))
	host.ui = u
	require.NoError(t, u.RefreshItems(ctx, host.run, []tree.Source{{Index: 0, Path: "/p"}}, []*item.Item{file("/p/c", 0)}))
	require.NoError(t, u.Redraw(ctx, host.run))

	// Row 1 is the source root.
	win, _ := u.WinID(ctx)
	require.NoError(t, ed.SetCursor(ctx, win, 2))
	_, err := u.Do(ctx, host.run, "preview", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"/p/c"}, got)
}

func TestPreview_SizeLimitReported(t *testing.T) {
	f := newFixture(t, func(p *config.Params) { p.PreviewMaxSize = 10 })
	big := file("/p/c", 0)
	big.Status = &item.Status{Size: 100}
	f.refresh(t, dir("/p/a", 0), dir("/p/b", 0), big)
	f.setCursor(t, 3)

	assert.Equal(t, plugin.ActionNone, f.do(t, "preview", nil))
	assert.False(t, f.ui.Preview().Visible())
	assert.Len(t, f.host.errors, 1)
}

func TestRedraw_EmptyTreeClosesPreview(t *testing.T) {
	f := newFixture(t, nil)
	f.setCursor(t, 3)
	f.do(t, "preview", nil)
	require.True(t, f.ui.Preview().Visible())

	f.refresh(t)
	assert.False(t, f.ui.Preview().Visible())
}

func TestQuit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.setCursor(t, 2)
	f.do(t, "preview", nil)

	f.do(t, "quit", nil)
	visible, err := f.ui.Visible(ctx)
	require.NoError(t, err)
	assert.False(t, visible)
	assert.False(t, f.ui.Preview().Visible())
	assert.Equal(t, f.host.run.WinID, f.ed.Current())
	assert.Equal(t, []string{"close"}, f.host.events)
	assert.Equal(t, 1, f.host.popped)
	assert.Equal(t, 2, f.cursors["/p"])
}

func TestQuit_SplitNoRestoresBuffer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, func(p *config.Params) { p.Split = "no" })
	win := f.host.run.WinID
	nr, _ := f.ed.WindowBuffer(ctx, win)
	listNr, _, _ := f.ed.BufferByName(ctx, f.ui.BufferName())
	require.Equal(t, listNr, nr, "list replaces the current buffer")

	f.do(t, "quit", nil)
	nr, _ = f.ed.WindowBuffer(ctx, win)
	assert.Equal(t, f.host.run.BufNr, nr)
}

func TestCursorRestoredOnReopen(t *testing.T) {
	f := newFixture(t, nil)
	f.setCursor(t, 3)
	f.do(t, "quit", nil)

	require.NoError(t, f.ui.Redraw(context.Background(), f.host.run))
	assert.Equal(t, 3, f.cursor(t))
}

func TestSearchOnFirstOpen(t *testing.T) {
	f := newFixture(t, func(p *config.Params) { p.Search = "/p/b" })
	assert.Equal(t, 2, f.cursor(t))
}

func TestUpdateOptions(t *testing.T) {
	f := newFixture(t, nil)
	assert.Equal(t, plugin.ActionRedraw, f.do(t, "updateOptions", plugin.ActionParams{"sort": "Filename"}))
	p := f.ui.Params()
	assert.Equal(t, "filename", p.Sort)
	assert.True(t, p.SortReverse)

	assert.Equal(t, plugin.ActionNone, f.do(t, "updateOptions", plugin.ActionParams{"split": "sideways"}))
	assert.Equal(t, "horizontal", f.ui.Params().Split)
	assert.Len(t, f.host.errors, 1)
}

func TestCheckAndRefreshItems(t *testing.T) {
	f := newFixture(t, nil)
	assert.Equal(t, plugin.ActionNone, f.do(t, "checkItems", nil))
	assert.Equal(t, []RedrawOptions{{Check: true, RefreshItems: true}}, f.host.redraws)
	assert.Equal(t, plugin.ActionRefreshItems, f.do(t, "refreshItems", nil))
}

func TestDo_UnknownAction(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.ui.Do(context.Background(), f.host.run, "fly", nil)
	assert.True(t, errors.Is(err, ErrUnknownAction))
	assert.Contains(t, f.ui.ActionNames(), "expandItem")
}

func TestItemAtRowUsesRenderedView(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	// Expand without redrawing: row 2 still means /p/b.
	parent := dir("/p/a", 0)
	parent.Expanded = true
	_, err := f.ui.ExpandItem(ctx, parent, f.host.children["/p/a"], false)
	require.NoError(t, err)

	f.setCursor(t, 2)
	f.do(t, "toggleSelectItem", nil)
	items := f.ui.Tree().SelectedItems()
	require.Len(t, items, 1)
	assert.Equal(t, "/p/b", items[0].Word)
}
