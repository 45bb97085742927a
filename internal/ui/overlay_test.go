package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func TestCompositeRow_KeepsStyling(t *testing.T) {
	bg := "\x1b[33mREADME.md\x1b[0m  main.go"

	kept := compositeRow(bg, "|x|", 3, 3, 20, false)
	if !strings.Contains(kept, "\x1b[33m") {
		t.Errorf("undimmed row lost its styling: %q", kept)
	}
	if got := ansi.Strip(kept); got != "REA|x|.md  main.go" {
		t.Errorf("compositeRow() = %q", got)
	}

	dimmed := compositeRow(bg, "|x|", 3, 3, 20, true)
	if strings.Contains(dimmed, "\x1b[33m") {
		t.Errorf("dimmed row kept the original color: %q", dimmed)
	}
}

func TestCompositeRow_PadsShortBackground(t *testing.T) {
	got := ansi.Strip(compositeRow("ab", "[box]", 6, 7, 20, false))
	if got != "ab    [box]  " {
		t.Errorf("compositeRow() = %q", got)
	}
}

func TestOverlayModal(t *testing.T) {
	tests := []struct {
		name       string
		background string
		modal      string
		width      int
		height     int
		wantRow    int
	}{
		{"centered", "a/\nb.txt\nc.txt\nd/\ne.go", "[prompt]", 20, 5, 2},
		{"tall modal", "a/", "one\ntwo\nthree", 10, 3, 0},
		{"short background", "a/", "[M]", 10, 5, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := strings.Split(OverlayModal(tt.background, tt.modal, tt.width, tt.height), "\n")
			if len(lines) != tt.height {
				t.Fatalf("expected %d lines, got %d", tt.height, len(lines))
			}
			first := strings.Split(tt.modal, "\n")[0]
			if !strings.Contains(ansi.Strip(lines[tt.wantRow]), first) {
				t.Errorf("row %d = %q, want modal %q", tt.wantRow, ansi.Strip(lines[tt.wantRow]), first)
			}
		})
	}
}

func TestOverlayModal_DimsBackground(t *testing.T) {
	result := OverlayModal("\x1b[31mred.txt\x1b[0m\nplain", "X", 10, 3)
	if strings.Contains(result, "\x1b[31m") {
		t.Error("background color should be replaced by the dim style")
	}
	if !strings.Contains(ansi.Strip(result), "red.txt") {
		t.Error("dimmed background should keep its text")
	}
}

func TestPlace(t *testing.T) {
	bg := "\x1b[31mred line\x1b[0m\nsecond line\nthird line"

	result := Place(bg, "AB\nCD", 2, 1, 12, 3)
	lines := strings.Split(result, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "\x1b[31mred line\x1b[0m" {
		t.Errorf("rows outside the box keep their styling, got %q", lines[0])
	}
	if got := ansi.Strip(lines[1]); got != "seABnd line" {
		t.Errorf("row 1 = %q, want box at column 2", got)
	}
	if got := ansi.Strip(lines[2]); got != "thCDd line" {
		t.Errorf("row 2 = %q, want box at column 2", got)
	}
}

func TestPlace_ClampsToScreen(t *testing.T) {
	result := Place("", "XYZ", 50, 50, 10, 2)
	lines := strings.Split(result, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[1] != strings.Repeat(" ", 7)+"XYZ" {
		t.Errorf("box not clamped to bottom-right: %q", lines[1])
	}
}
