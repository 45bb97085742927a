package app

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/marcus/filer/internal/item"
	"github.com/marcus/filer/internal/keymap"
	"github.com/marcus/filer/internal/styles"
	"github.com/marcus/filer/internal/ui"
)

// promptState is the open input prompt.
type promptState struct {
	label   string
	input   textinput.Model
	choices []string
	done    func(answer string)
	// completion cycles through the choices matching prefix.
	prefix string
	next   int
}

func newPromptState(label string, choices []string, done func(string)) *promptState {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = strings.Join(choices, ", ")
	ti.CharLimit = 100
	ti.Width = ui.ModalWidthMedium - 6
	ti.Focus()
	return &promptState{label: label, input: ti, choices: choices, done: done}
}

// complete fills in the next choice starting with what was typed.
func (p *promptState) complete() {
	if p.next == 0 {
		p.prefix = p.input.Value()
	}
	var matches []string
	for _, c := range p.choices {
		if strings.HasPrefix(c, p.prefix) {
			matches = append(matches, c)
		}
	}
	if len(matches) == 0 {
		return
	}
	p.input.SetValue(matches[p.next%len(matches)])
	p.input.CursorEnd()
	p.next++
}

func (p *promptState) view() string {
	var b strings.Builder
	b.WriteString(styles.Title.Render(p.label))
	b.WriteString("\n")
	b.WriteString(p.input.View())
	b.WriteString("\n")
	b.WriteString(styles.Muted.Render("tab complete · enter run · esc cancel"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Primary).
		Padding(0, 1).
		Width(ui.ModalWidthMedium - 2).
		Render(b.String())
}

// handlePromptKey routes a key to the open prompt. Accepting or cancelling
// closes the prompt before its callback runs, so the callback may open
// another one.
func (m *Model) handlePromptKey(ctx context.Context, k tea.KeyMsg) tea.Cmd {
	p := m.fw.prompt
	if b, ok := m.keymap.Lookup(k.String(), keymap.ContextPrompt); ok {
		switch b.Command {
		case "prompt-accept":
			m.fw.prompt = nil
			p.done(strings.TrimSpace(p.input.Value()))
			m.fw.redraw(ctx)
			return nil
		case "prompt-cancel":
			m.fw.prompt = nil
			p.done("")
			return nil
		case "prompt-complete":
			p.complete()
			return nil
		}
	}
	p.next = 0
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(k)
	return cmd
}

// chooserState is the open action chooser and the items it acts on.
type chooserState struct {
	chooser *ui.Chooser
	items   []*item.Item
}

func (m *Model) handleChooserKey(ctx context.Context, k tea.KeyMsg) tea.Cmd {
	switch k.String() {
	case "j", "down", "ctrl+n":
		m.fw.chooser.chooser.Move(1)
	case "k", "up", "ctrl+p":
		m.fw.chooser.chooser.Move(-1)
	case "enter":
		m.fw.chooseSelected(ctx)
	case "esc", "q":
		m.fw.chooser = nil
	}
	return nil
}
