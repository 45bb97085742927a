// Package editor is an in-memory window and buffer system. It stands in for
// the text editor the filer lives in: the terminal host renders it, and the
// filer and preview controllers drive it through narrow interfaces.
package editor

import (
	"errors"

	"github.com/marcus/filer/internal/item"
)

// WinID identifies a window. NoWindow means "none".
type WinID int

// BufNr identifies a buffer. NoBuffer means "none".
type BufNr int

const (
	NoWindow WinID = -1
	NoBuffer BufNr = -1
)

var (
	ErrNoSuchWindow  = errors.New("no such window")
	ErrNoSuchBuffer  = errors.New("no such buffer")
	ErrUnknownCmd    = errors.New("unknown command")
	ErrLastWindow    = errors.New("cannot close last window")
	ErrInvalidLayout = errors.New("invalid window layout")
)

// Role tells the renderer how to place a window.
type Role string

const (
	RoleMain    Role = "main"
	RoleList    Role = "list"
	RolePreview Role = "preview"
)

// Layout describes where a window is drawn.
type Layout struct {
	Split     string // horizontal, vertical, floating, no
	Direction string // botright, topleft
	Row       int
	Col       int
	Width     int
	Height    int
	Border    string
	Zindex    int
}

// Floating reports whether the layout is a floating window.
func (l Layout) Floating() bool { return l.Split == "floating" }

// WindowOption is a window-local option assignment such as ("number", 0).
type WindowOption struct {
	Name  string
	Value any
}

// RowHighlight holds the styled spans of one rendered row.
type RowHighlight struct {
	Row   int
	Spans []item.Highlight
}

// Window is a read-only view of a window's state.
type Window struct {
	ID         WinID
	Buf        BufNr
	Role       Role
	Layout     Layout
	Cursor     int // 1-based line
	TopLine    int // 1-based first visible line
	Options    map[string]any
	Highlight  string // winhighlight
	Statusline string
}

// Buffer is a read-only view of a buffer's state.
type Buffer struct {
	Nr         BufNr
	Name       string
	Lines      []string
	Filetype   string
	Syntax     string
	Scratch    bool
	Terminal   bool
	Highlights []RowHighlight
	Selected   []int
	Vars       map[string]any
}

// TerminalRunner starts cmds in cwd and streams output lines into the
// terminal buffer through appendLines. It must not block.
type TerminalRunner func(cmds []string, cwd string, appendLines func(lines ...string))
