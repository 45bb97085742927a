// Package preview manages the preview window: opening it lazily, swapping
// its contents as the cursor moves, and tearing it down again.
package preview

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/marcus/filer/internal/config"
	"github.com/marcus/filer/internal/editor"
	"github.com/marcus/filer/internal/item"
	"github.com/marcus/filer/internal/plugin"
)

// Request is one preview of one item.
type Request struct {
	Context      plugin.Context
	Params       config.Params
	ActionParams plugin.ActionParams // syntaxLimitChars and resolver-specific keys
	Item         *item.Item
	Resolver     Resolver
	Hook         Hook
}

// Controller owns the preview window. It is safe for concurrent use.
type Controller struct {
	mu        sync.Mutex
	ed        Editor
	log       *slog.Logger
	winID     editor.WinID
	target    *item.Item
	params    *config.Params
	buffers   []editor.BufNr
	bufferSet map[editor.BufNr]struct{}
}

// New returns a controller with no preview open.
func New(ed Editor, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		ed:        ed,
		log:       log,
		winID:     editor.NoWindow,
		bufferSet: make(map[editor.BufNr]struct{}),
	}
}

// Visible reports whether a preview window is open.
func (c *Controller) Visible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visible()
}

func (c *Controller) visible() bool { return c.winID != editor.NoWindow }

// WindowID returns the preview window, or editor.NoWindow.
func (c *Controller) WindowID() editor.WinID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.winID
}

// IsAlreadyPreviewed reports whether it is the item on display.
func (c *Controller) IsAlreadyPreviewed(it *item.Item) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alreadyPreviewed(it)
}

func (c *Controller) alreadyPreviewed(it *item.Item) bool {
	return c.visible() && c.target != nil && c.target.Equal(it)
}

// IsChangedParams reports whether p differs from the options the current
// preview was rendered with.
func (c *Controller) IsChangedParams(p config.Params) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.changedParams(p)
}

func (c *Controller) changedParams(p config.Params) bool {
	return c.params == nil || !reflect.DeepEqual(*c.params, p)
}

// PreviewContents shows req.Item in the preview window, opening the window
// when needed. It returns false when nothing was rendered: the item is
// already on display with the same options, there is no resolver, or the
// resolver has no previewer for it.
func (c *Controller) PreviewContents(ctx context.Context, req Request) (bool, error) {
	c.mu.Lock()
	locked := true
	defer func() {
		if locked {
			c.mu.Unlock()
		}
	}()

	if req.Resolver == nil || (c.alreadyPreviewed(req.Item) && !c.changedParams(req.Params)) {
		return false, nil
	}
	if limit := req.Params.PreviewMaxSize; limit > 0 && req.Item.Size() > limit {
		return false, fmt.Errorf("%s is %d bytes, limit %d: %w", req.Item.Label(), req.Item.Size(), limit, ErrSizeLimitExceeded)
	}

	prev, err := c.ed.CurrentWindow(ctx)
	if err != nil {
		return false, err
	}

	p := req.Params
	pctx := Context{
		Col:        p.PreviewCol,
		Row:        p.PreviewRow,
		Width:      p.PreviewWidth,
		Height:     p.PreviewHeight,
		IsFloating: p.PreviewFloating,
		Split:      p.PreviewSplit,
	}
	pv, err := req.Resolver.ResolvePreviewer(ctx, req.Item, req.ActionParams, pctx)
	if err != nil {
		return false, fmt.Errorf("resolve previewer: %w", err)
	}
	if pv == nil {
		return false, nil
	}

	var opened bool
	switch pv := pv.(type) {
	case *TerminalPreviewer:
		opened, err = c.previewTerminal(ctx, pv, req)
	case *BufferPreviewer:
		opened, err = c.previewBuffer(ctx, pv, req)
	case *NoFilePreviewer:
		opened, err = c.previewBuffer(ctx, pv, req)
	default:
		return false, fmt.Errorf("unknown previewer %T", pv)
	}
	if err != nil || !opened {
		return false, err
	}

	if p.PreviewFloating {
		hl := orDefault(p.Highlights.Floating, "NormalFloat")
		border := orDefault(p.Highlights.FloatingBorder, "FloatBorder")
		if err := c.ed.SetWindowHighlight(ctx, c.winID, "Normal:"+hl+",FloatBorder:"+border); err != nil {
			return false, err
		}
	}

	if pattern, lineNr := jumpTarget(pv); pattern != "" || lineNr > 0 {
		if err := c.ed.Jump(ctx, c.winID, pattern, lineNr); err != nil {
			c.log.Debug("preview: jump failed", "pattern", pattern, "line", lineNr, "error", err)
		}
	}

	params := req.Params.Clone()
	c.params = &params
	win := c.winID

	locked = false
	c.mu.Unlock()

	c.fireHook(ctx, req, win)

	if err := c.ed.GotoWindow(ctx, prev); err != nil {
		return true, err
	}
	return true, nil
}

func (c *Controller) previewTerminal(ctx context.Context, pv *TerminalPreviewer, req Request) (bool, error) {
	if len(pv.Cmds) == 0 {
		return false, nil
	}
	if !c.visible() {
		placeholder, err := c.ed.CreateScratchBuffer(ctx, bufPrefix+"terminal", nil)
		if err != nil {
			return false, err
		}
		if err := c.openWindow(ctx, req, placeholder); err != nil {
			return false, err
		}
	} else if err := c.ed.GotoWindow(ctx, c.winID); err != nil {
		return false, err
	}

	// Each run gets a fresh terminal buffer; old output is never reused.
	nr, err := c.ed.OpenTerminal(ctx, c.winID, pv.Cmds, pv.Cwd)
	if err != nil {
		return false, err
	}
	c.shown(c.winID, req.Item)
	c.track(nr)
	return true, nil
}

func (c *Controller) previewBuffer(ctx context.Context, pv Previewer, req Request) (bool, error) {
	var (
		filetype, syntax string
		detect           bool
	)
	switch pv := pv.(type) {
	case *NoFilePreviewer:
		if len(pv.Contents) == 0 {
			return false, nil
		}
		filetype, syntax = pv.Filetype, pv.Syntax
	case *BufferPreviewer:
		if pv.Expr == nil && pv.Path == "" {
			return false, nil
		}
		filetype, syntax, detect = pv.Filetype, pv.Syntax, true
	}

	name, existing, found, err := c.previewBufferName(ctx, pv, req.Item)
	if err != nil {
		return false, err
	}

	var (
		nr       editor.BufNr
		contents []string
	)
	if bp, ok := pv.(*BufferPreviewer); ok && bp.UseExisting && found {
		nr = existing
		if contents, err = c.ed.BufferLines(ctx, nr); err != nil {
			return false, err
		}
	} else {
		var resolveErr error
		contents, resolveErr = c.contents(ctx, pv)
		if resolveErr != nil {
			c.log.Debug("preview: "+resolveErr.Error(), "item", req.Item.Label())
		}
		if nr, err = c.ed.CreateScratchBuffer(ctx, name, contents); err != nil {
			return false, err
		}
		c.track(nr)
	}

	if err := c.openWindow(ctx, req, nr); err != nil {
		return false, err
	}

	limit := req.ActionParams.Int("syntaxLimitChars", DefaultSyntaxLimitChars)
	if contentLen(contents) < limit {
		switch {
		case filetype != "":
			err = c.ed.SetFiletype(ctx, nr, filetype)
		case detect:
			var ft string
			if ft, err = c.ed.DetectFiletype(ctx, nr); err == nil && ft != "" {
				err = c.ed.SetFiletype(ctx, nr, ft)
			}
		}
		if err != nil {
			return false, err
		}
		if syntax != "" {
			if err := c.ed.SetSyntax(ctx, nr, syntax); err != nil {
				return false, err
			}
		}
	}

	opts := make([]editor.WindowOption, len(req.Params.PreviewWindowOptions))
	for i, o := range req.Params.PreviewWindowOptions {
		opts[i] = editor.WindowOption{Name: o.Name, Value: o.Value}
	}
	if err := c.ed.SetWindowOptions(ctx, c.winID, opts); err != nil {
		return false, err
	}
	return true, nil
}

// previewBufferName returns the name of the scratch buffer for pv and,
// when pv asks to show an existing buffer, that buffer.
func (c *Controller) previewBufferName(ctx context.Context, pv Previewer, it *item.Item) (name string, nr editor.BufNr, found bool, err error) {
	switch pv := pv.(type) {
	case *NoFilePreviewer:
		return bufPrefix + "preview", editor.NoBuffer, false, nil
	case *BufferPreviewer:
		if pv.Expr == nil {
			return bufPrefix + pv.Path, editor.NoBuffer, false, nil
		}
		exprName, exprNr, exprFound, err := c.resolveExpr(ctx, *pv.Expr)
		if err != nil {
			return "", editor.NoBuffer, false, err
		}
		if pv.UseExisting {
			return exprName, exprNr, exprFound, nil
		}
		if exprName == "" {
			return bufPrefix + "no-name:" + pv.Expr.String(), editor.NoBuffer, false, nil
		}
		return bufPrefix + exprName, editor.NoBuffer, false, nil
	}
	return bufPrefix + it.Word, editor.NoBuffer, false, nil
}

func (c *Controller) resolveExpr(ctx context.Context, e BufferExpr) (string, editor.BufNr, bool, error) {
	if e.Name != "" {
		nr, ok, err := c.ed.BufferByName(ctx, e.Name)
		return e.Name, nr, ok, err
	}
	ok, err := c.ed.BufferExists(ctx, e.Nr)
	if err != nil || !ok {
		return "", e.Nr, false, err
	}
	name, err := c.ed.BufferName(ctx, e.Nr)
	return name, e.Nr, true, err
}

// contents resolves the lines to show. A failure is returned together with
// the two-line error report to display in its place.
func (c *Controller) contents(ctx context.Context, pv Previewer) ([]string, error) {
	bp, ok := pv.(*BufferPreviewer)
	if !ok {
		return slices.Clone(pv.(*NoFilePreviewer).Contents), nil
	}

	if bp.Expr != nil {
		if _, nr, found, err := c.resolveExpr(ctx, *bp.Expr); err == nil && found {
			return c.ed.BufferLines(ctx, nr)
		}
	}
	if bp.Path != "" {
		if fi, err := os.Stat(bp.Path); err == nil && !fi.IsDir() {
			data, err := os.ReadFile(bp.Path)
			if err == nil {
				return strings.Split(string(data), "\n"), nil
			}
			return errorLines(err), fmt.Errorf("%w: %w", ErrContentResolution, err)
		}
		if nr, found, err := c.ed.BufferByName(ctx, bp.Path); err == nil && found {
			return c.ed.BufferLines(ctx, nr)
		}
	}

	err := fmt.Errorf("%q cannot be opened", bp.Path)
	return errorLines(err), fmt.Errorf("%w: %w", ErrContentResolution, err)
}

func errorLines(err error) []string {
	return []string{"Error", err.Error()}
}

// openWindow shows nr in the preview window. From here on the window shows
// req.Item, so it becomes the target even if a later step fails; params stay
// unset until rendering completes so that a retry renders again.
func (c *Controller) openWindow(ctx context.Context, req Request, nr editor.BufNr) error {
	p := req.Params
	if p.PreviewSplit == "no" && !p.PreviewFloating {
		// The preview takes over the window the UI was started from.
		if err := c.ed.ShowBuffer(ctx, req.Context.WinID, nr); err != nil {
			return err
		}
		c.shown(req.Context.WinID, req.Item)
		return c.ed.GotoWindow(ctx, c.winID)
	}

	id, err := c.ed.OpenPreviewWindow(ctx, Layout(p), nr, c.winID)
	if err != nil {
		return err
	}
	c.shown(id, req.Item)
	return nil
}

func (c *Controller) shown(win editor.WinID, it *item.Item) {
	c.winID = win
	c.target = it.Clone()
	c.params = nil
}

// Layout returns the preview window placement for p.
func Layout(p config.Params) editor.Layout {
	if p.PreviewFloating {
		return editor.Layout{
			Split:  "floating",
			Row:    p.PreviewRow,
			Col:    p.PreviewCol,
			Width:  p.PreviewWidth,
			Height: p.PreviewHeight,
			Border: p.PreviewFloatingBorder,
			Zindex: p.PreviewFloatingZindex,
		}
	}
	l := editor.Layout{Split: p.PreviewSplit, Direction: p.SplitDirection}
	switch p.PreviewSplit {
	case "horizontal":
		l.Height = p.PreviewHeight
	case "vertical":
		l.Width = p.PreviewWidth
	}
	return l
}

func (c *Controller) fireHook(ctx context.Context, req Request, win editor.WinID) {
	h := req.Hook
	if h.IsZero() {
		return
	}
	ev := Event{Context: req.Context, Item: req.Item, PreviewWinID: win}
	var err error
	if h.fn != nil {
		err = h.fn(ctx, ev)
	} else {
		err = c.ed.CallCallback(ctx, h.name, ev)
	}
	if err != nil {
		c.log.Error("preview: onPreview hook failed", "error", err)
	}
}

func (c *Controller) track(nr editor.BufNr) {
	if _, ok := c.bufferSet[nr]; ok {
		return
	}
	c.bufferSet[nr] = struct{}{}
	c.buffers = append(c.buffers, nr)
}

// Close releases the preview window. The window the UI was started from is
// given back its original buffer instead of being closed. Closing is a
// no-op when no preview is open or when the preview is the only window.
func (c *Controller) Close(ctx context.Context, run plugin.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.visible() {
		return nil
	}
	exists, err := c.ed.WindowExists(ctx, c.winID)
	if err != nil {
		return err
	}
	if !exists {
		c.reset()
		return nil
	}
	n, err := c.ed.WindowCount(ctx)
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	saved, err := c.ed.CurrentWindow(ctx)
	if err != nil {
		return err
	}
	if c.winID == run.WinID {
		if run.BufName == "" {
			err = c.ed.ShowEmpty(ctx, c.winID)
		} else {
			err = c.ed.ShowBuffer(ctx, c.winID, run.BufNr)
		}
	} else {
		err = c.ed.CloseWindow(ctx, c.winID)
	}
	if err != nil {
		return err
	}
	closed := c.winID
	c.reset()
	if saved != closed {
		return c.ed.GotoWindow(ctx, saved)
	}
	return nil
}

func (c *Controller) reset() {
	c.winID = editor.NoWindow
	c.target = nil
	c.params = nil
}

// RemovePreviewedBuffers wipes the preview buffers that no window shows.
func (c *Controller) RemovePreviewedBuffers(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, nr := range c.buffers {
		if err := c.ed.WipeBufferIfHidden(ctx, nr); err != nil {
			return err
		}
	}
	c.buffers = nil
	clear(c.bufferSet)
	return nil
}

// Execute runs cmd in the preview window. It does nothing when no preview
// is open.
func (c *Controller) Execute(ctx context.Context, cmd string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.visible() {
		return nil
	}
	return c.ed.Execute(ctx, c.winID, cmd)
}

func jumpTarget(pv Previewer) (string, int) {
	switch pv := pv.(type) {
	case *BufferPreviewer:
		return pv.Pattern, pv.LineNr
	case *NoFilePreviewer:
		return pv.Pattern, pv.LineNr
	}
	return "", 0
}

func contentLen(lines []string) int {
	n := 0
	for _, l := range lines {
		n += len(l) + 1
	}
	if n > 0 {
		n--
	}
	return n
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
