package filer

import (
	"context"

	"github.com/marcus/filer/internal/editor"
	"github.com/marcus/filer/internal/item"
	"github.com/marcus/filer/internal/plugin"
	"github.com/marcus/filer/internal/preview"
)

// Tree operations requested from the host.
const (
	TreeExpand   = "expand"
	TreeCollapse = "collapse"
)

// TreeTarget is one node the host should expand or collapse.
type TreeTarget struct {
	Item      *item.Item
	MaxLevel  int
	IsGrouped bool
}

// RedrawOptions ask the host to re-run its sources.
type RedrawOptions struct {
	Check        bool
	RefreshItems bool
}

// Host is the list framework the filer runs in. It owns the sources: the
// filer asks it for children and it calls back into ExpandItem and
// CollapseItem.
type Host interface {
	preview.Resolver

	RedrawTree(ctx context.Context, name, mode string, targets []TreeTarget) error
	Redraw(ctx context.Context, name string, opts RedrawOptions) error
	ItemAction(ctx context.Context, name, action string, items []*item.Item, params plugin.ActionParams) error
	ItemActionNames(ctx context.Context, name string, items []*item.Item) ([]string, error)
	// ChooseAction shows actions as a list of their own.
	ChooseAction(ctx context.Context, name string, items []*item.Item, actions []string) error
	// Prompt asks the user to pick one of choices and calls done with the
	// answer, "" when cancelled. It must not block.
	Prompt(ctx context.Context, prompt string, choices []string, done func(answer string))
	Pop(ctx context.Context, name string) error
	Event(ctx context.Context, name, event string) error
	PrintError(ctx context.Context, msg string)
}

// CursorStore remembers the cursor row per listed path.
type CursorStore interface {
	Cursor(path string) (int, bool)
	SetCursor(path string, row int) error
}

// Editor is the editor surface the filer needs on top of what the preview
// uses.
type Editor interface {
	preview.Editor

	AddBuffer(ctx context.Context, name string) (editor.BufNr, error)
	OpenWindow(ctx context.Context, buf editor.BufNr, role editor.Role, layout editor.Layout) (editor.WinID, error)
	BufferWindows(ctx context.Context, nr editor.BufNr) ([]editor.WinID, error)
	SetLines(ctx context.Context, nr editor.BufNr, lines []string) error
	SetHighlights(ctx context.Context, nr editor.BufNr, rows []editor.RowHighlight, selected []int) error
	Cursor(ctx context.Context, id editor.WinID) (int, error)
	SetCursor(ctx context.Context, id editor.WinID, line int) error
	CenterCursor(ctx context.Context, id editor.WinID) error
	SetBufferVar(ctx context.Context, nr editor.BufNr, name string, value any) error
	SetStatusline(ctx context.Context, id editor.WinID, s string) error
	SetTitle(ctx context.Context, title string) error
	SaveTitle(ctx context.Context) error
	RestoreTitle(ctx context.Context) error
	ScreenSize(ctx context.Context) (lines, columns int, err error)
}
