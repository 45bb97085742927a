package app

import (
	"fmt"
	"os/exec"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/filer/internal/plugin"
	"github.com/marcus/filer/internal/source"
)

// Message types for tea.Cmd
type (
	// RefreshMsg gathers all sources again.
	RefreshMsg struct{}

	// ErrorMsg represents an error condition.
	ErrorMsg struct {
		Err error
	}

	// FilesChangedMsg is sent after a debounced burst of filesystem events
	// in a watched directory.
	FilesChangedMsg struct{}
)

// waitForChanges blocks until the watcher reports a change.
func waitForChanges(w *source.Watcher) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		<-w.Changes()
		return FilesChangedMsg{}
	}
}

// execEditor suspends the program and runs the editor on a file. A line
// number is passed as "+N", which vi-like editors, emacs and nano accept.
func execEditor(m plugin.OpenFileMsg) tea.Cmd {
	args := []string{m.Path}
	if m.LineNo > 0 {
		args = []string{fmt.Sprintf("+%d", m.LineNo), m.Path}
	}
	c := exec.Command(m.Editor, args...)
	return tea.ExecProcess(c, func(err error) tea.Msg {
		if err != nil {
			return ErrorMsg{Err: fmt.Errorf("%s: %w", m.Editor, err)}
		}
		return RefreshMsg{}
	})
}
