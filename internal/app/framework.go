package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/filer/internal/config"
	"github.com/marcus/filer/internal/editor"
	"github.com/marcus/filer/internal/filer"
	"github.com/marcus/filer/internal/item"
	"github.com/marcus/filer/internal/msg"
	"github.com/marcus/filer/internal/plugin"
	"github.com/marcus/filer/internal/source"
	"github.com/marcus/filer/internal/state"
	"github.com/marcus/filer/internal/tree"
	"github.com/marcus/filer/internal/ui"
	"github.com/mitchellh/go-homedir"
)

// ErrUnknownItemAction is returned for item action names the host does not
// provide.
var ErrUnknownItemAction = errors.New("unknown item action")

// maxExpandDepth caps recursive expansion, which also guards against
// symlink cycles.
const maxExpandDepth = 32

const toastDuration = 3 * time.Second

var itemActionNames = []string{"open", "yank", "narrow"}

var _ filer.Host = (*Framework)(nil)

// Options configures a Framework.
type Options struct {
	Name       string
	Sources    []config.SourceConfig
	Params     config.Params
	Cwd        string
	ShowHidden bool
	Watcher    *source.Watcher
	Cursors    filer.CursorStore
	Logger     *slog.Logger
}

// Framework runs one filer UI inside the terminal program. It implements
// filer.Host: it lists directories for the tree, carries out item actions
// and keeps the interactive state (prompt, action chooser) the view draws.
type Framework struct {
	*source.Previewer

	log     *slog.Logger
	ed      *editor.Memory
	ui      *filer.UI
	lister  source.Lister
	watcher *source.Watcher
	sources []tree.Source
	run     plugin.Context

	prompt   *promptState
	chooser  *chooserState
	pending  []tea.Cmd
	quitting bool

	syntaxCache map[editor.BufNr]highlighted
}

// NewFramework creates the UI named opts.Name on ed. Nothing is listed
// until the command returned by Start runs.
func NewFramework(ed *editor.Memory, opts Options) (*Framework, error) {
	if err := opts.Params.Validate(); err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	name := opts.Name
	if name == "" {
		name = "default"
	}
	cwd := opts.Cwd
	if cwd == "" {
		var err error
		if cwd, err = os.Getwd(); err != nil {
			return nil, err
		}
	}

	f := &Framework{
		Previewer: source.NewPreviewer(log),
		log:       log,
		ed:        ed,
		lister:    source.Lister{ShowHidden: opts.ShowHidden},
		watcher:   opts.Watcher,
		sources:   resolveSources(opts.Sources, cwd),
	}
	f.Previewer.ShowHidden = opts.ShowHidden

	ctx := context.Background()
	win := ed.Current()
	buf, err := ed.WindowBuffer(ctx, win)
	if err != nil {
		return nil, err
	}
	bufName, err := ed.BufferName(ctx, buf)
	if err != nil {
		return nil, err
	}
	f.run = plugin.Context{
		Name:    name,
		Path:    f.sources[0].Path,
		Cwd:     cwd,
		WinID:   win,
		BufNr:   buf,
		BufName: bufName,
	}

	uiOpts := []filer.Option{filer.WithLogger(log)}
	if opts.Cursors != nil {
		uiOpts = append(uiOpts, filer.WithCursorStore(opts.Cursors))
	}
	if home, err := homedir.Dir(); err == nil {
		uiOpts = append(uiOpts, filer.WithHomeDir(home))
	}
	f.ui = filer.New(name, ed, f, opts.Params, uiOpts...)
	return f, nil
}

func resolveSources(cfgs []config.SourceConfig, cwd string) []tree.Source {
	if len(cfgs) == 0 {
		cfgs = []config.SourceConfig{{Path: cwd}}
	}
	sources := make([]tree.Source, 0, len(cfgs))
	for i, c := range cfgs {
		p := config.ExpandPath(c.Path)
		if p == "" {
			p = cwd
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(cwd, p)
		}
		name := c.Name
		if name == "" {
			name = source.Kind
		}
		sources = append(sources, tree.Source{Index: i, Name: name, Path: filepath.Clean(p), Kind: source.Kind})
	}
	return sources
}

// UI returns the filer UI.
func (f *Framework) UI() *filer.UI { return f.ui }

// Context returns the current run context.
func (f *Framework) Context() plugin.Context { return f.run }

// Start begins gathering the sources.
func (f *Framework) Start() tea.Cmd {
	return f.gatherCmd(nil)
}

// Do runs a filer action and follows up on the flags it returns.
func (f *Framework) Do(ctx context.Context, name string, params plugin.ActionParams) {
	flags, err := f.ui.Do(ctx, f.run, name, params)
	switch {
	case errors.Is(err, filer.ErrNotTree), errors.Is(err, filer.ErrAlreadyExpanded):
		return
	case err != nil:
		f.log.Error("app: action failed", "action", name, "error", err)
		f.PrintError(ctx, err.Error())
		return
	}
	switch {
	case flags.Has(plugin.ActionRefreshItems):
		f.queue(f.gatherCmd(f.expandedItems()))
	case flags.Has(plugin.ActionRedraw):
		f.redraw(ctx)
	}
}

func (f *Framework) redraw(ctx context.Context) {
	if err := f.ui.Redraw(ctx, f.run); err != nil {
		f.log.Error("app: redraw", "error", err)
		f.PrintError(ctx, err.Error())
	}
}

func (f *Framework) queue(cmd tea.Cmd) {
	if cmd != nil {
		f.pending = append(f.pending, cmd)
	}
}

// drain returns and forgets the commands queued by host callbacks.
func (f *Framework) drain() []tea.Cmd {
	cmds := f.pending
	f.pending = nil
	return cmds
}

// RedrawTree implements filer.Host.
func (f *Framework) RedrawTree(ctx context.Context, name, mode string, targets []filer.TreeTarget) error {
	for _, t := range targets {
		switch mode {
		case filer.TreeExpand:
			parent := t.Item.Clone()
			parent.Expanded = true
			if err := f.expand(ctx, parent, t.MaxLevel, t.IsGrouped, 0); err != nil {
				return err
			}
		case filer.TreeCollapse:
			it := t.Item.Clone()
			it.Expanded = false
			f.ui.CollapseItem(ctx, it)
		default:
			return fmt.Errorf("redraw tree: mode %q: %w", mode, ErrUnknownItemAction)
		}
	}
	f.syncWatcher()
	return f.ui.Redraw(ctx, f.run)
}

// expand lists parent's children into the tree. Grouping folds chains of
// lone directories into parent's row; maxLevel expands that many further
// levels, all of them when negative.
func (f *Framework) expand(ctx context.Context, parent *item.Item, maxLevel int, grouped bool, depth int) error {
	src, ok := f.source(parent.SourceIndex)
	if !ok {
		return fmt.Errorf("expand %s: no source %d", parent.TreePath, parent.SourceIndex)
	}
	children, err := f.lister.List(ctx, src, parent.TreePath, parent.Level+1)
	if err != nil {
		return fmt.Errorf("expand %s: %w", parent.TreePath, err)
	}
	for grouped {
		g, ok := source.Group(parent, children)
		if !ok {
			break
		}
		g.Expanded = true
		if _, err := f.ui.ExpandItem(ctx, parent, []*item.Item{g}, true); err != nil {
			return err
		}
		parent = g
		if children, err = f.lister.List(ctx, src, g.TreePath, g.Level+1); err != nil {
			return fmt.Errorf("expand %s: %w", g.TreePath, err)
		}
	}
	if _, err := f.ui.ExpandItem(ctx, parent, children, false); err != nil {
		return err
	}

	if maxLevel == 0 || depth+1 >= maxExpandDepth {
		return nil
	}
	for _, c := range children {
		if !c.IsTree {
			continue
		}
		child := c.Clone()
		child.Expanded = true
		if err := f.expand(ctx, child, maxLevel-1, grouped, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (f *Framework) source(index int) (tree.Source, bool) {
	return sourceByIndex(f.sources, index)
}

// Redraw implements filer.Host. Checks and refreshes gather the sources
// again in the background.
func (f *Framework) Redraw(ctx context.Context, name string, opts filer.RedrawOptions) error {
	if opts.Check || opts.RefreshItems {
		f.queue(f.gatherCmd(f.expandedItems()))
		return nil
	}
	return f.ui.Redraw(ctx, f.run)
}

// ItemAction implements filer.Host.
func (f *Framework) ItemAction(ctx context.Context, name, action string, items []*item.Item, params plugin.ActionParams) error {
	switch action {
	case "default", "open":
		return f.open(ctx, items, params)
	case "yank":
		return f.yank(ctx, items)
	case "narrow":
		return f.narrow(items)
	default:
		return fmt.Errorf("item action %q: %w", action, ErrUnknownItemAction)
	}
}

// open toggles directories and opens files in the external editor.
func (f *Framework) open(ctx context.Context, items []*item.Item, params plugin.ActionParams) error {
	var expand, collapse []filer.TreeTarget
	var files []tea.Cmd
	for _, it := range items {
		switch {
		case it.IsRoot():
			continue
		case it.Action.IsDirectory && it.Expanded:
			collapse = append(collapse, filer.TreeTarget{Item: it})
		case it.Action.IsDirectory:
			expand = append(expand, filer.TreeTarget{Item: it})
		default:
			files = append(files, openFileCmd(itemPath(it), params.Int("lineNr", 0)))
		}
	}
	if len(collapse) > 0 {
		if err := f.RedrawTree(ctx, f.run.Name, filer.TreeCollapse, collapse); err != nil {
			return err
		}
	}
	if len(expand) > 0 {
		if err := f.RedrawTree(ctx, f.run.Name, filer.TreeExpand, expand); err != nil {
			return err
		}
	}
	switch len(files) {
	case 0:
	case 1:
		f.queue(files[0])
	default:
		f.queue(tea.Sequence(files...))
	}
	return nil
}

// openFileCmd returns a command to open a file in the user's editor.
func openFileCmd(path string, lineNo int) tea.Cmd {
	return func() tea.Msg {
		editor := os.Getenv("EDITOR")
		if editor == "" {
			editor = os.Getenv("VISUAL")
		}
		if editor == "" {
			editor = "vim"
		}
		return plugin.OpenFileMsg{Editor: editor, Path: path, LineNo: lineNo}
	}
}

func (f *Framework) yank(ctx context.Context, items []*item.Item) error {
	paths := make([]string, 0, len(items))
	for _, it := range items {
		paths = append(paths, itemPath(it))
	}
	if err := clipboard.WriteAll(strings.Join(paths, "\n")); err != nil {
		return fmt.Errorf("yank: %w", err)
	}
	text := "Yanked " + paths[0]
	if len(paths) > 1 {
		text = fmt.Sprintf("Yanked %d paths", len(paths))
	}
	f.queue(msg.ShowToast(text, toastDuration))
	return nil
}

// narrow makes the item's directory the only source and lists it again.
func (f *Framework) narrow(items []*item.Item) error {
	it := items[0]
	dir := itemPath(it)
	if !it.Action.IsDirectory {
		dir = filepath.Dir(dir)
	}
	name := source.Kind
	if src, ok := f.source(it.SourceIndex); ok {
		name = src.Name
	}
	f.sources = []tree.Source{{Index: 0, Name: name, Path: dir, Kind: source.Kind}}
	f.run.Path = dir
	f.queue(f.gatherCmd(nil))
	return nil
}

func itemPath(it *item.Item) string {
	if it.Action.Path != "" {
		return it.Action.Path
	}
	return it.TreePath
}

// ItemActionNames implements filer.Host.
func (f *Framework) ItemActionNames(ctx context.Context, name string, items []*item.Item) ([]string, error) {
	return slices.Clone(itemActionNames), nil
}

// ChooseAction implements filer.Host by opening the action chooser.
func (f *Framework) ChooseAction(ctx context.Context, name string, items []*item.Item, actions []string) error {
	c := ui.NewChooser("Actions", actions)
	f.chooser = &chooserState{chooser: c, items: items}
	return nil
}

// Prompt implements filer.Host by opening the input prompt.
func (f *Framework) Prompt(ctx context.Context, prompt string, choices []string, done func(answer string)) {
	f.prompt = newPromptState(prompt, choices, done)
}

// Pop implements filer.Host. The program quits after the current message.
func (f *Framework) Pop(ctx context.Context, name string) error {
	f.quitting = true
	return nil
}

// Event implements filer.Host.
func (f *Framework) Event(ctx context.Context, name, event string) error {
	f.log.Debug("app: event", "ui", name, "event", event)
	if event == "close" {
		if err := state.SetLastPath(f.run.Path); err != nil {
			f.log.Error("app: save last path", "error", err)
		}
	}
	return nil
}

// PrintError implements filer.Host.
func (f *Framework) PrintError(ctx context.Context, text string) {
	f.log.Warn("app: "+text)
	f.queue(msg.ShowError(text, 5*time.Second))
}

// chooseSelected runs the chosen item action.
func (f *Framework) chooseSelected(ctx context.Context) {
	c := f.chooser
	f.chooser = nil
	action, ok := c.chooser.Selected()
	if !ok {
		return
	}
	f.Do(ctx, "itemAction", plugin.ActionParams{"name": action, "items": c.items})
}

// expandedItems returns the expanded rows in display order.
func (f *Framework) expandedItems() []*item.Item {
	var out []*item.Item
	for _, it := range f.ui.Tree().Items() {
		if it.Expanded && !it.IsRoot() {
			out = append(out, it.Clone())
		}
	}
	return out
}

// syncWatcher watches the source roots and every expanded directory.
func (f *Framework) syncWatcher() {
	if f.watcher == nil {
		return
	}
	dirs := make([]string, 0, len(f.sources))
	for _, s := range f.sources {
		dirs = append(dirs, s.Path)
	}
	for _, it := range f.expandedItems() {
		dirs = append(dirs, it.TreePath)
	}
	f.watcher.Sync(dirs)
}
