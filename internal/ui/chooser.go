package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/marcus/filer/internal/styles"
)

// Modal widths.
const (
	ModalWidthSmall  = 30
	ModalWidthMedium = 50
)

// Chooser is a modal list of choices with a cursor.
type Chooser struct {
	Title       string
	Items       []string
	Cursor      int
	BorderColor lipgloss.Color
	Width       int
	MaxRows     int
}

// NewChooser creates a chooser with sensible defaults.
func NewChooser(title string, items []string) *Chooser {
	return &Chooser{
		Title:       title,
		Items:       items,
		BorderColor: styles.Primary,
		Width:       ModalWidthSmall,
		MaxRows:     10,
	}
}

// Move shifts the cursor by delta, wrapping at both ends.
func (c *Chooser) Move(delta int) {
	n := len(c.Items)
	if n == 0 {
		return
	}
	c.Cursor = ((c.Cursor+delta)%n + n) % n
}

// Selected returns the item under the cursor.
func (c *Chooser) Selected() (string, bool) {
	if c.Cursor < 0 || c.Cursor >= len(c.Items) {
		return "", false
	}
	return c.Items[c.Cursor], true
}

// View renders the chooser as a bordered box.
func (c *Chooser) View() string {
	inner := c.Width - 4
	var b strings.Builder
	b.WriteString(styles.Title.Render(c.Title))

	start := 0
	if c.MaxRows > 0 && c.Cursor >= c.MaxRows {
		start = c.Cursor - c.MaxRows + 1
	}
	end := len(c.Items)
	if c.MaxRows > 0 {
		end = min(end, start+c.MaxRows)
	}
	for i := start; i < end; i++ {
		b.WriteString("\n")
		line := lipgloss.NewStyle().Width(inner).MaxWidth(inner).Render(c.Items[i])
		if i == c.Cursor {
			line = styles.ListCursor.Render(line)
		} else {
			line = styles.ListItemNormal.Render(line)
		}
		b.WriteString(line)
	}
	if len(c.Items) == 0 {
		b.WriteString("\n")
		b.WriteString(styles.Muted.Render("(nothing)"))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(c.BorderColor).
		Padding(0, 1).
		Width(c.Width - 2).
		Render(b.String())
}
