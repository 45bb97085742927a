package preview

import (
	"context"
	"errors"
	"strconv"

	"github.com/marcus/filer/internal/editor"
	"github.com/marcus/filer/internal/item"
	"github.com/marcus/filer/internal/plugin"
)

var (
	// ErrContentResolution means neither a buffer nor a readable file backs
	// a buffer previewer. It is recovered locally by showing the error text.
	ErrContentResolution = errors.New("preview content unavailable")
	// ErrSizeLimitExceeded means the item is larger than previewMaxSize.
	ErrSizeLimitExceeded = errors.New("preview size limit exceeded")
)

// DefaultSyntaxLimitChars is the content length above which filetype and
// syntax are not applied.
const DefaultSyntaxLimitChars = 400000

// bufPrefix names every buffer the preview creates.
const bufPrefix = "filer-preview:"

// Previewer describes what to show for an item. It is one of
// *BufferPreviewer, *NoFilePreviewer or *TerminalPreviewer.
type Previewer interface {
	kind() string
}

// BufferExpr names an editor buffer by name or number.
type BufferExpr struct {
	Name string
	Nr   editor.BufNr
}

func (e BufferExpr) String() string {
	if e.Name != "" {
		return e.Name
	}
	return strconv.Itoa(int(e.Nr))
}

// BufferPreviewer shows a loaded buffer or a file read from disk.
type BufferPreviewer struct {
	Expr        *BufferExpr
	Path        string
	UseExisting bool // show the buffer named by Expr itself instead of a copy
	Filetype    string
	Syntax      string
	Pattern     string
	LineNr      int
}

// NoFilePreviewer shows literal contents.
type NoFilePreviewer struct {
	Contents []string
	Filetype string
	Syntax   string
	Pattern  string
	LineNr   int
}

// TerminalPreviewer runs a command in the preview window.
type TerminalPreviewer struct {
	Cmds []string
	Cwd  string
}

func (*BufferPreviewer) kind() string   { return "buffer" }
func (*NoFilePreviewer) kind() string   { return "nofile" }
func (*TerminalPreviewer) kind() string { return "terminal" }

// Context is the placement the preview will get, handed to the resolver so
// it can size its output.
type Context struct {
	Col        int
	Row        int
	Width      int
	Height     int
	IsFloating bool
	Split      string
}

// Resolver classifies an item and returns its previewer. A nil Previewer
// with a nil error means the item has nothing to preview.
type Resolver interface {
	ResolvePreviewer(ctx context.Context, it *item.Item, params plugin.ActionParams, pctx Context) (Previewer, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, it *item.Item, params plugin.ActionParams, pctx Context) (Previewer, error)

func (f ResolverFunc) ResolvePreviewer(ctx context.Context, it *item.Item, params plugin.ActionParams, pctx Context) (Previewer, error) {
	return f(ctx, it, params, pctx)
}

// Event is passed to the onPreview hook after a preview was rendered.
type Event struct {
	Context      plugin.Context
	Item         *item.Item
	PreviewWinID editor.WinID
}

// Hook is either a named host callback or an in-process function. The zero
// value does nothing.
type Hook struct {
	name string
	fn   func(ctx context.Context, ev Event) error
}

// NamedHook calls the host callback registered under name.
func NamedHook(name string) Hook { return Hook{name: name} }

// FuncHook calls fn.
func FuncHook(fn func(ctx context.Context, ev Event) error) Hook { return Hook{fn: fn} }

// IsZero reports whether the hook does nothing.
func (h Hook) IsZero() bool { return h.name == "" && h.fn == nil }

// Editor is the part of the editor the preview drives.
type Editor interface {
	CurrentWindow(ctx context.Context) (editor.WinID, error)
	GotoWindow(ctx context.Context, id editor.WinID) error
	WindowCount(ctx context.Context) (int, error)
	WindowExists(ctx context.Context, id editor.WinID) (bool, error)
	WindowBuffer(ctx context.Context, id editor.WinID) (editor.BufNr, error)
	CloseWindow(ctx context.Context, id editor.WinID) error
	ShowBuffer(ctx context.Context, id editor.WinID, nr editor.BufNr) error
	ShowEmpty(ctx context.Context, id editor.WinID) error
	OpenPreviewWindow(ctx context.Context, layout editor.Layout, buf editor.BufNr, existing editor.WinID) (editor.WinID, error)
	BufferByName(ctx context.Context, name string) (editor.BufNr, bool, error)
	BufferName(ctx context.Context, nr editor.BufNr) (string, error)
	BufferExists(ctx context.Context, nr editor.BufNr) (bool, error)
	BufferLines(ctx context.Context, nr editor.BufNr) ([]string, error)
	CreateScratchBuffer(ctx context.Context, name string, lines []string) (editor.BufNr, error)
	WipeBufferIfHidden(ctx context.Context, nr editor.BufNr) error
	SetFiletype(ctx context.Context, nr editor.BufNr, ft string) error
	DetectFiletype(ctx context.Context, nr editor.BufNr) (string, error)
	SetSyntax(ctx context.Context, nr editor.BufNr, syntax string) error
	SetWindowOptions(ctx context.Context, id editor.WinID, opts []editor.WindowOption) error
	SetWindowHighlight(ctx context.Context, id editor.WinID, hl string) error
	Jump(ctx context.Context, id editor.WinID, pattern string, lineNr int) error
	Execute(ctx context.Context, id editor.WinID, cmd string) error
	OpenTerminal(ctx context.Context, id editor.WinID, cmds []string, cwd string) (editor.BufNr, error)
	CallCallback(ctx context.Context, name string, payload any) error
}
