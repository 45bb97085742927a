// Package plugin holds the types shared between the filer UI and the host
// that runs it: the run context, action flags and action parameters.
package plugin

import (
	"github.com/marcus/filer/internal/editor"
)

// Context describes one run of the filer UI as seen by the host.
type Context struct {
	Name     string // UI instance name, "default" unless set
	Path     string // current directory of the listing, used for cursor persistence
	Cwd      string
	WinID    editor.WinID // window that was current when the UI started
	BufNr    editor.BufNr // buffer shown in WinID at start
	BufName  string
	Done     bool // all sources finished gathering
	Sync     bool // redraw only once gathering is done
	MaxItems int  // total number of gathered items
	Epoch    uint64
}

// ActionFlags tell the host what to do after an action ran.
type ActionFlags uint8

const (
	ActionNone         ActionFlags = 0
	ActionRedraw       ActionFlags = 1 << 0
	ActionRefreshItems ActionFlags = 1 << 1
	ActionPersist      ActionFlags = 1 << 2
)

// Has reports whether all bits of f are set in a.
func (a ActionFlags) Has(f ActionFlags) bool { return a&f == f && f != 0 }

// Category represents a logical grouping of commands for the help view.
type Category string

const (
	CategoryNavigation Category = "Navigation"
	CategoryActions    Category = "Actions"
	CategoryView       Category = "View"
	CategorySystem     Category = "System"
)

// Command represents a keybinding command exposed by the filer.
type Command struct {
	ID          string   // action name (e.g., "expandItem")
	Name        string   // short name for the footer (e.g., "Expand")
	Description string   // full description for the help view
	Category    Category // logical grouping for help display
	Priority    int      // footer display priority: 1=highest, 0=default (treated as 99)
}

// OpenFileMsg requests opening a file in an external editor.
// Sent by item actions, handled by the app to exec the editor process.
type OpenFileMsg struct {
	Editor string // Editor command (e.g., "vim", "code")
	Path   string // File path to open
	LineNo int    // Line number to open at (0 = start of file)
}

// EpochMessage is implemented by async messages that need staleness detection.
// Messages from async gathers embed an Epoch field and implement this interface.
type EpochMessage interface {
	GetEpoch() uint64
}

// IsStale returns true if the message's epoch doesn't match the current context epoch.
// Use this in Update() handlers to discard results of superseded gathers:
//
//	if plugin.IsStale(ctx, msg) { return m, nil }
func IsStale(ctx *Context, msg EpochMessage) bool {
	return ctx != nil && msg.GetEpoch() != ctx.Epoch
}
