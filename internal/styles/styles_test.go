package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestBorder(t *testing.T) {
	tests := []struct {
		name string
		want lipgloss.Border
		ok   bool
	}{
		{"rounded", lipgloss.RoundedBorder(), true},
		{"single", lipgloss.NormalBorder(), true},
		{"double", lipgloss.DoubleBorder(), true},
		{"none", lipgloss.Border{}, false},
		{"bogus", lipgloss.Border{}, false},
	}
	for _, tt := range tests {
		got, ok := Border(tt.name)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Border(%q) = %v, %v, want %v, %v", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}

func TestGroup(t *testing.T) {
	if !HasGroup("Directory") {
		t.Error("Directory should be a known group")
	}
	if HasGroup("NoSuchGroup") {
		t.Error("NoSuchGroup should be unknown")
	}
	if got := Group("NoSuchGroup").Render("x"); got != "x" {
		t.Errorf("unknown group rendered %q, want plain text", got)
	}
}
