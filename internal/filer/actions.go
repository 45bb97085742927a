package filer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/marcus/filer/internal/config"
	"github.com/marcus/filer/internal/editor"
	"github.com/marcus/filer/internal/plugin"
	"github.com/marcus/filer/internal/preview"
)

func (u *UI) actionTable() map[string]ActionFunc {
	return map[string]ActionFunc{
		"checkItems":          u.checkItems,
		"chooseAction":        u.chooseAction,
		"clearSelectAllItems": u.clearSelectAllItems,
		"closePreviewWindow":  u.closePreviewWindow,
		"collapseItem":        u.collapseItem,
		"cursorNext":          u.cursorNext,
		"cursorPrevious":      u.cursorPrevious,
		"cursorTreeBottom":    u.cursorTreeBottom,
		"cursorTreeTop":       u.cursorTreeTop,
		"expandItem":          u.expandItem,
		"getItem":             u.getItem,
		"getSelectedItems":    u.getSelectedItems,
		"inputAction":         u.inputAction,
		"itemAction":          u.itemAction,
		"preview":             u.previewAction,
		"previewExecute":      u.previewExecute,
		"quit":                u.quit,
		"refreshItems":        u.refreshItems,
		"toggleAllItems":      u.toggleAllItems,
		"togglePreview":       u.togglePreview,
		"toggleSelectItem":    u.toggleSelectItem,
		"updateOptions":       u.updateOptions,
	}
}

func (u *UI) checkItems(ctx context.Context, args *ActionArgs) (plugin.ActionFlags, error) {
	return plugin.ActionNone, u.host.Redraw(ctx, u.name, RedrawOptions{Check: true, RefreshItems: true})
}

func (u *UI) chooseAction(ctx context.Context, args *ActionArgs) (plugin.ActionFlags, error) {
	items, err := u.targetItems(ctx)
	if err != nil || len(items) == 0 {
		return plugin.ActionNone, err
	}
	actions, err := u.host.ItemActionNames(ctx, u.name, items)
	if err != nil {
		return plugin.ActionNone, err
	}
	return plugin.ActionNone, u.host.ChooseAction(ctx, u.name, items, actions)
}

func (u *UI) clearSelectAllItems(ctx context.Context, args *ActionArgs) (plugin.ActionFlags, error) {
	u.tree.ClearSelection()
	return plugin.ActionRedraw, nil
}

func (u *UI) closePreviewWindow(ctx context.Context, args *ActionArgs) (plugin.ActionFlags, error) {
	return plugin.ActionNone, u.preview.Close(ctx, args.Context)
}

func (u *UI) collapseItem(ctx context.Context, args *ActionArgs) (plugin.ActionFlags, error) {
	it, _, err := u.cursorItem(ctx)
	if err != nil || it == nil {
		return plugin.ActionNone, err
	}
	target := u.tree.ExpandedAncestor(it)
	if target == nil {
		u.log.Debug("filer: nothing to collapse", "item", it.Label())
		return plugin.ActionNone, nil
	}
	err = u.host.RedrawTree(ctx, u.name, TreeCollapse, []TreeTarget{{Item: target}})
	return plugin.ActionNone, err
}

func (u *UI) cursorNext(ctx context.Context, args *ActionArgs) (plugin.ActionFlags, error) {
	return u.moveCursor(ctx, args, args.Params.Int("count", 1))
}

func (u *UI) cursorPrevious(ctx context.Context, args *ActionArgs) (plugin.ActionFlags, error) {
	return u.moveCursor(ctx, args, -args.Params.Int("count", 1))
}

func (u *UI) moveCursor(ctx context.Context, args *ActionArgs, delta int) (plugin.ActionFlags, error) {
	win, err := u.WinID(ctx)
	if err != nil || win == editor.NoWindow {
		return plugin.ActionPersist, err
	}
	n := u.tree.ViewLen()
	if n == 0 {
		return plugin.ActionPersist, nil
	}
	row, err := u.ed.Cursor(ctx, win)
	if err != nil {
		return plugin.ActionPersist, err
	}

	next := row + delta
	if args.Params.Bool("loop", false) {
		next = ((next-1)%n+n)%n + 1
	} else {
		next = min(max(next, 1), n)
	}
	if err := u.ed.SetCursor(ctx, win, next); err != nil {
		return plugin.ActionPersist, err
	}
	u.saveCursor(ctx, args.Context, win)
	return plugin.ActionPersist, nil
}

func (u *UI) cursorTreeTop(ctx context.Context, args *ActionArgs) (plugin.ActionFlags, error) {
	return u.cursorTreeBound(ctx, args, true)
}

func (u *UI) cursorTreeBottom(ctx context.Context, args *ActionArgs) (plugin.ActionFlags, error) {
	return u.cursorTreeBound(ctx, args, false)
}

func (u *UI) cursorTreeBound(ctx context.Context, args *ActionArgs, top bool) (plugin.ActionFlags, error) {
	win, err := u.WinID(ctx)
	if err != nil || win == editor.NoWindow {
		return plugin.ActionPersist, err
	}
	row, err := u.ed.Cursor(ctx, win)
	if err != nil {
		return plugin.ActionPersist, err
	}
	first, last, ok := u.tree.SiblingBounds(row)
	if !ok {
		return plugin.ActionPersist, nil
	}
	target := last
	if top {
		target = first
	}
	if err := u.ed.SetCursor(ctx, win, target); err != nil {
		return plugin.ActionPersist, err
	}
	u.saveCursor(ctx, args.Context, win)
	return plugin.ActionPersist, nil
}

func (u *UI) expandItem(ctx context.Context, args *ActionArgs) (plugin.ActionFlags, error) {
	it, _, err := u.cursorItem(ctx)
	if err != nil || it == nil {
		return plugin.ActionNone, err
	}
	if it.Expanded {
		if args.Params.String("mode", "") == "toggle" {
			return u.collapseItem(ctx, args)
		}
		return plugin.ActionNone, fmt.Errorf("%s: %w", it.Label(), ErrAlreadyExpanded)
	}
	if !it.IsTree {
		return plugin.ActionNone, fmt.Errorf("%s: %w", it.Label(), ErrNotTree)
	}

	target := TreeTarget{
		Item:      it,
		MaxLevel:  args.Params.Int("maxLevel", 0),
		IsGrouped: args.Params.Bool("isGrouped", false),
	}
	return plugin.ActionNone, u.host.RedrawTree(ctx, u.name, TreeExpand, []TreeTarget{target})
}

func (u *UI) getItem(ctx context.Context, args *ActionArgs) (plugin.ActionFlags, error) {
	it, _, err := u.cursorItem(ctx)
	if err != nil || it == nil {
		return plugin.ActionNone, err
	}
	return plugin.ActionNone, u.setListVar(ctx, "filer_ui_item", it.Clone())
}

func (u *UI) getSelectedItems(ctx context.Context, args *ActionArgs) (plugin.ActionFlags, error) {
	items, err := u.targetItems(ctx)
	if err != nil {
		return plugin.ActionNone, err
	}
	return plugin.ActionNone, u.setListVar(ctx, "filer_ui_selected_items", items)
}

func (u *UI) setListVar(ctx context.Context, name string, value any) error {
	nr, found, err := u.ed.BufferByName(ctx, u.BufferName())
	if err != nil || !found {
		return err
	}
	return u.ed.SetBufferVar(ctx, nr, name, value)
}

func (u *UI) inputAction(ctx context.Context, args *ActionArgs) (plugin.ActionFlags, error) {
	items, err := u.targetItems(ctx)
	if err != nil || len(items) == 0 {
		return plugin.ActionNone, err
	}
	actions, err := u.host.ItemActionNames(ctx, u.name, items)
	if err != nil {
		return plugin.ActionNone, err
	}
	u.host.Prompt(ctx, "Input action name: ", actions, func(answer string) {
		if answer == "" {
			return
		}
		if err := u.host.ItemAction(ctx, u.name, answer, items, plugin.ActionParams{}); err != nil {
			u.log.Error("filer: item action", "action", answer, "error", err)
			u.host.PrintError(ctx, err.Error())
		}
	})
	return plugin.ActionNone, nil
}

func (u *UI) itemAction(ctx context.Context, args *ActionArgs) (plugin.ActionFlags, error) {
	items := args.Params.Items("items")
	if items == nil {
		var err error
		if items, err = u.targetItems(ctx); err != nil {
			return plugin.ActionNone, err
		}
	}
	if len(items) == 0 {
		return plugin.ActionPersist, nil
	}
	name := args.Params.String("name", "default")
	return plugin.ActionNone, u.host.ItemAction(ctx, u.name, name, items, args.Params.Params("params"))
}

func (u *UI) previewAction(ctx context.Context, args *ActionArgs) (plugin.ActionFlags, error) {
	it, _, err := u.cursorItem(ctx)
	if err != nil || it == nil {
		return plugin.ActionNone, err
	}

	p := u.Params()
	hook := u.hook
	if hook.IsZero() && p.OnPreview != "" {
		hook = preview.NamedHook(p.OnPreview)
	}
	opened, err := u.preview.PreviewContents(ctx, preview.Request{
		Context:      args.Context,
		Params:       p,
		ActionParams: args.Params,
		Item:         it,
		Resolver:     u.host,
		Hook:         hook,
	})
	if errors.Is(err, preview.ErrSizeLimitExceeded) {
		u.host.PrintError(ctx, err.Error())
		return plugin.ActionNone, nil
	}
	if err != nil || !opened {
		return plugin.ActionNone, err
	}
	return plugin.ActionPersist, nil
}

func (u *UI) previewExecute(ctx context.Context, args *ActionArgs) (plugin.ActionFlags, error) {
	return plugin.ActionNone, u.preview.Execute(ctx, args.Params.String("command", ""))
}

func (u *UI) quit(ctx context.Context, args *ActionArgs) (plugin.ActionFlags, error) {
	if err := u.Quit(ctx, args.Context); err != nil {
		return plugin.ActionNone, err
	}
	return plugin.ActionNone, u.host.Pop(ctx, u.name)
}

func (u *UI) refreshItems(ctx context.Context, args *ActionArgs) (plugin.ActionFlags, error) {
	return plugin.ActionRefreshItems, nil
}

func (u *UI) toggleAllItems(ctx context.Context, args *ActionArgs) (plugin.ActionFlags, error) {
	if !u.tree.ToggleAll() {
		return plugin.ActionNone, nil
	}
	return plugin.ActionRedraw, nil
}

func (u *UI) togglePreview(ctx context.Context, args *ActionArgs) (plugin.ActionFlags, error) {
	it, _, err := u.cursorItem(ctx)
	if err != nil || it == nil {
		return plugin.ActionNone, err
	}
	if u.preview.IsAlreadyPreviewed(it) {
		return plugin.ActionNone, u.preview.Close(ctx, args.Context)
	}
	return u.previewAction(ctx, args)
}

func (u *UI) toggleSelectItem(ctx context.Context, args *ActionArgs) (plugin.ActionFlags, error) {
	_, row, err := u.cursorItem(ctx)
	if err != nil {
		return plugin.ActionNone, err
	}
	if !u.tree.ToggleSelect(row) {
		return plugin.ActionNone, nil
	}
	return plugin.ActionRedraw, nil
}

// updateOptions merges the action parameters into the UI options. Invalid
// options are reported and leave the current ones untouched.
func (u *UI) updateOptions(ctx context.Context, args *ActionArgs) (plugin.ActionFlags, error) {
	data, err := json.Marshal(args.Params)
	if err != nil {
		return plugin.ActionNone, err
	}
	p := u.Params()
	if err := config.MergeParams(&p, data); err != nil {
		u.host.PrintError(ctx, err.Error())
		return plugin.ActionNone, nil
	}
	if err := u.SetParams(p); err != nil {
		u.host.PrintError(ctx, err.Error())
		return plugin.ActionNone, nil
	}
	return plugin.ActionRedraw, nil
}
