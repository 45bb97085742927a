package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func TestChooser_Move(t *testing.T) {
	tests := []struct {
		name  string
		items []string
		start int
		delta int
		want  int
	}{
		{"next", []string{"a", "b", "c"}, 0, 1, 1},
		{"wraps forward", []string{"a", "b", "c"}, 2, 1, 0},
		{"wraps backward", []string{"a", "b", "c"}, 0, -1, 2},
		{"empty", nil, 0, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChooser("t", tt.items)
			c.Cursor = tt.start
			c.Move(tt.delta)
			if c.Cursor != tt.want {
				t.Errorf("Cursor = %d, want %d", c.Cursor, tt.want)
			}
		})
	}
}

func TestChooser_Selected(t *testing.T) {
	c := NewChooser("Actions", []string{"open", "yank"})
	c.Move(1)
	if got, ok := c.Selected(); !ok || got != "yank" {
		t.Errorf("Selected() = %q, %v, want yank", got, ok)
	}
	if _, ok := NewChooser("x", nil).Selected(); ok {
		t.Error("empty chooser should have no selection")
	}
}

func TestChooser_View(t *testing.T) {
	c := NewChooser("Actions", []string{"open", "yank"})
	view := ansi.Strip(c.View())
	for _, want := range []string{"Actions", "open", "yank", "╭"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if w := maxLineWidth(strings.Split(c.View(), "\n")); w != c.Width {
		t.Errorf("view width = %d, want %d", w, c.Width)
	}
}

func TestChooser_ViewScrolls(t *testing.T) {
	items := []string{"a0", "a1", "a2", "a3", "a4"}
	c := NewChooser("t", items)
	c.MaxRows = 2
	c.Cursor = 4
	view := ansi.Strip(c.View())
	if strings.Contains(view, "a0") || !strings.Contains(view, "a4") {
		t.Errorf("view should scroll to the cursor:\n%s", view)
	}
}
