package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/filer/internal/keymap"
	"github.com/marcus/filer/internal/mouse"
)

// Model is the root Bubble Tea model for the filer application.
type Model struct {
	fw     *Framework
	keymap *keymap.Registry

	// UI state
	width, height int
	ready         bool
	mouse         *mouse.Handler

	// Status/toast messages
	statusMsg     string
	statusShown   time.Time
	statusIsError bool
}

// New creates a new application model around a framework.
func New(fw *Framework, km *keymap.Registry) Model {
	return Model{fw: fw, keymap: km, mouse: mouse.NewHandler()}
}

// Init starts gathering the sources and listening for file changes.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fw.Start(), waitForChanges(m.fw.watcher))
}

// ShowToast displays a temporary status message.
func (m *Model) ShowToast(text string, isError bool) {
	m.statusMsg = text
	m.statusIsError = isError
	m.statusShown = time.Now()
}

// ClearToast removes the status message.
func (m *Model) ClearToast() {
	m.statusMsg = ""
	m.statusIsError = false
	m.statusShown = time.Time{}
}
