package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/filer/internal/keymap"
	"github.com/marcus/filer/internal/msg"
	"github.com/marcus/filer/internal/plugin"
)

const footerHeight = 1

// Update handles all messages and returns the updated model and commands.
func (m Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	ctx := context.Background()
	var cmds []tea.Cmd

	switch message := message.(type) {
	case tea.KeyMsg:
		cmds = append(cmds, m.handleKeyMsg(ctx, message))

	case tea.MouseMsg:
		m.handleMouse(ctx, message)

	case tea.WindowSizeMsg:
		m.width = message.Width
		m.height = message.Height
		m.ready = true
		m.fw.ed.Resize(max(m.height-footerHeight, 1), m.width)
		if m.fw.run.Done {
			m.fw.redraw(ctx)
		}

	case ItemsGatheredMsg:
		if err := m.fw.applyGathered(ctx, message); err != nil {
			m.fw.log.Error("app: gather", "error", err)
			m.fw.PrintError(ctx, err.Error())
		}

	case RefreshMsg:
		m.fw.queue(m.fw.gatherCmd(m.fw.expandedItems()))

	case FilesChangedMsg:
		m.fw.Do(ctx, "checkItems", nil)
		cmds = append(cmds, waitForChanges(m.fw.watcher))

	case BufferChangedMsg:
		// Re-render only.

	case plugin.OpenFileMsg:
		cmds = append(cmds, execEditor(message))

	case ErrorMsg:
		m.fw.log.Error("app: error", "error", message.Err)
		m.fw.PrintError(ctx, message.Err.Error())

	case msg.ToastMsg:
		m.ShowToast(message.Message, message.IsError)
		cmds = append(cmds, msg.ExpireToast(m.statusShown, toastDurationOr(message.Duration)))

	case msg.ToastExpiredMsg:
		if message.Shown.Equal(m.statusShown) {
			m.ClearToast()
		}
	}

	cmds = append(cmds, m.fw.drain()...)
	if m.fw.quitting {
		return m, tea.Sequence(tea.Batch(cmds...), tea.Quit)
	}
	return m, tea.Batch(cmds...)
}

// handleKeyMsg routes a key to the prompt or the action chooser when one
// is open, and otherwise to the filer action bound to it.
func (m *Model) handleKeyMsg(ctx context.Context, k tea.KeyMsg) tea.Cmd {
	if m.fw.prompt != nil {
		return m.handlePromptKey(ctx, k)
	}
	if m.fw.chooser != nil {
		return m.handleChooserKey(ctx, k)
	}

	b, ok := m.keymap.Lookup(k.String(), keymap.ContextList)
	if !ok {
		return nil
	}
	name, params, err := b.Action()
	if err != nil {
		m.fw.log.Error("app: bad key binding", "key", b.Key, "error", err)
		m.fw.PrintError(ctx, err.Error())
		return nil
	}
	m.fw.Do(ctx, name, params)
	return nil
}

// toastDurationOr returns d, or the default toast duration when d is unset.
func toastDurationOr(d time.Duration) time.Duration {
	if d <= 0 {
		return toastDuration
	}
	return d
}
