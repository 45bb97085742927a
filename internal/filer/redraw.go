package filer

import (
	"context"
	"fmt"

	"github.com/marcus/filer/internal/config"
	"github.com/marcus/filer/internal/editor"
	"github.com/marcus/filer/internal/item"
	"github.com/marcus/filer/internal/plugin"
)

var listWindowOptions = []editor.WindowOption{
	{Name: "list", Value: 0},
	{Name: "colorcolumn", Value: ""},
	{Name: "foldcolumn", Value: 0},
	{Name: "foldenable", Value: 0},
	{Name: "number", Value: 0},
	{Name: "relativenumber", Value: 0},
	{Name: "signcolumn", Value: "no"},
	{Name: "spell", Value: 0},
	{Name: "wrap", Value: 0},
}

// Redraw renders the tree into the list buffer, opening the list window
// when none shows it, and puts the cursor where it belongs.
func (u *UI) Redraw(ctx context.Context, run plugin.Context) error {
	if run.Sync && !run.Done {
		return nil
	}

	nr, found, err := u.ed.BufferByName(ctx, u.BufferName())
	if err != nil {
		return err
	}
	if !found {
		if nr, err = u.ed.AddBuffer(ctx, u.BufferName()); err != nil {
			return err
		}
	}

	p, err := u.windowParams(ctx)
	if err != nil {
		return err
	}

	wins, err := u.ed.BufferWindows(ctx, nr)
	if err != nil {
		return err
	}
	var win editor.WinID
	opened := len(wins) == 0
	if opened {
		if win, err = u.openListWindow(ctx, p, nr); err != nil {
			return err
		}
	} else {
		win = wins[0]
	}

	if err := u.setStatus(ctx, p, run, win); err != nil {
		return err
	}

	if err := u.render(ctx, nr); err != nil {
		u.host.PrintError(ctx, "[filer] update buffer failed")
		u.host.PrintError(ctx, err.Error())
		return nil
	}
	u.tree.Snapshot()

	if err := u.restoreCursor(ctx, p, run, win, opened); err != nil {
		return err
	}
	u.saveCursor(ctx, run, win)

	if err := u.ed.SetBufferVar(ctx, nr, "filer_ui_path", run.Path); err != nil {
		return err
	}
	if run.Done {
		if err := u.ed.SetBufferVar(ctx, nr, "filer_ui_prev_bufnr", run.BufNr); err != nil {
			return err
		}
	}

	if u.tree.Len() == 0 {
		if err := u.preview.Close(ctx, run); err != nil {
			return err
		}
	}

	if !p.Focus {
		return u.ed.GotoWindow(ctx, run.WinID)
	}
	return nil
}

// windowParams fills the floating window geometry left at zero from the
// screen size.
func (u *UI) windowParams(ctx context.Context) (config.Params, error) {
	p := u.Params()
	lines, columns, err := u.ed.ScreenSize(ctx)
	if err != nil {
		return p, err
	}
	if p.WinRow == 0 {
		p.WinRow = max(lines/2-10, 0)
	}
	if p.WinCol == 0 {
		p.WinCol = columns / 4
	}
	if p.WinWidth == 0 {
		p.WinWidth = columns / 2
	}
	return p, nil
}

func (u *UI) openListWindow(ctx context.Context, p config.Params, nr editor.BufNr) (editor.WinID, error) {
	var layout editor.Layout
	switch p.Split {
	case "horizontal":
		layout = editor.Layout{Split: "horizontal", Direction: p.SplitDirection, Height: p.WinHeight}
	case "vertical":
		layout = editor.Layout{Split: "vertical", Direction: p.SplitDirection, Width: p.WinWidth}
	case "floating":
		layout = editor.Layout{
			Split:  "floating",
			Row:    p.WinRow,
			Col:    p.WinCol,
			Width:  p.WinWidth,
			Height: p.WinHeight,
			Border: p.FloatingBorder,
		}
	case "no":
		layout = editor.Layout{Split: "no"}
	default:
		u.host.PrintError(ctx, "Invalid split param: "+p.Split)
		return editor.NoWindow, fmt.Errorf("split %q: %w", p.Split, config.ErrInvalidConfiguration)
	}

	win, err := u.ed.OpenWindow(ctx, nr, editor.RoleList, layout)
	if err != nil {
		return editor.NoWindow, err
	}
	if p.Split == "floating" {
		hl := orDefault(p.Highlights.Floating, "NormalFloat")
		border := orDefault(p.Highlights.FloatingBorder, "FloatBorder")
		if err := u.ed.SetWindowHighlight(ctx, win, "Normal:"+hl+",FloatBorder:"+border); err != nil {
			return win, err
		}
	}
	if err := u.ed.SetBufferVar(ctx, nr, "filer_ui_name", u.name); err != nil {
		return win, err
	}
	if err := u.ed.SetWindowOptions(ctx, win, listWindowOptions); err != nil {
		return win, err
	}
	return win, u.ed.SetFiletype(ctx, nr, "filer")
}

// setStatus shows the header in the title for floating lists, taking the
// title lease on first use, and in the status line otherwise.
func (u *UI) setStatus(ctx context.Context, p config.Params, run plugin.Context, win editor.WinID) error {
	header := fmt.Sprintf("[filer-%s] %d/%d", u.name, u.tree.Len(), run.MaxItems)
	if !run.Done {
		header += " [async]"
	}

	if p.Split == "floating" {
		u.mu.Lock()
		leased := u.titleLeased
		u.titleLeased = true
		u.mu.Unlock()
		if !leased {
			if err := u.ed.SaveTitle(ctx); err != nil {
				return err
			}
		}
		return u.ed.SetTitle(ctx, header)
	}
	if p.Statusline {
		return u.ed.SetStatusline(ctx, win, header)
	}
	return nil
}

func (u *UI) render(ctx context.Context, nr editor.BufNr) error {
	items := u.tree.Items()
	lines := make([]string, len(items))
	var rows []editor.RowHighlight
	for i, it := range items {
		lines[i] = it.Label()
		if len(it.Highlights) > 0 {
			rows = append(rows, editor.RowHighlight{Row: i + 1, Spans: append([]item.Highlight(nil), it.Highlights...)})
		}
	}
	if err := u.ed.SetLines(ctx, nr, lines); err != nil {
		return err
	}
	return u.ed.SetHighlights(ctx, nr, rows, u.tree.SelectedRows())
}

// restoreCursor places the cursor on, in order of preference: the item just
// collapsed, the search path after a refresh, or the row remembered for
// the listed path when the list was just opened or refreshed.
func (u *UI) restoreCursor(ctx context.Context, p config.Params, run plugin.Context, win editor.WinID, opened bool) error {
	u.mu.Lock()
	target := u.collapseTarget
	u.collapseTarget = nil
	first := !u.opened
	u.opened = true
	u.mu.Unlock()

	refreshed := u.tree.ConsumeRefreshed()

	if target != nil {
		if row, ok := u.tree.Search(target); ok {
			return u.ed.SetCursor(ctx, win, row)
		}
	}
	if refreshed && first && p.Search != "" {
		if row, ok := u.tree.SearchPath(p.Search); ok {
			if err := u.ed.SetCursor(ctx, win, row); err != nil {
				return err
			}
			return u.ed.CenterCursor(ctx, win)
		}
	}
	if (opened || refreshed) && u.cursors != nil && run.Path != "" {
		if row, ok := u.cursors.Cursor(run.Path); ok {
			return u.ed.SetCursor(ctx, win, row)
		}
	}
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
