// Package ui provides shared UI components and helpers for the TUI.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// DimStyle applies a dim gray color to background content behind modals.
// We strip existing ANSI codes and apply gray because SGR 2 (faint) doesn't
// reliably combine with existing color codes in most terminals.
var DimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))

// maxLineWidth returns the maximum visual width of the given lines.
func maxLineWidth(lines []string) int {
	maxWidth := 0
	for _, line := range lines {
		w := ansi.StringWidth(line)
		if w > maxWidth {
			maxWidth = w
		}
	}
	return maxWidth
}

// dimLine strips ANSI codes and applies dim gray styling.
func dimLine(s string) string {
	return DimStyle.Render(ansi.Strip(s))
}

// compositeRow overlays boxLine onto bgLine at column startX. With dim set
// the background on either side is stripped and dimmed, otherwise it keeps
// its styling.
func compositeRow(bgLine, boxLine string, startX, boxWidth, totalWidth int, dim bool) string {
	var result strings.Builder

	bg := bgLine
	if dim {
		bg = ansi.Strip(bgLine)
	}
	bgWidth := ansi.StringWidth(bg)
	render := func(s string) string {
		if dim {
			return DimStyle.Render(s)
		}
		return s
	}

	if startX > 0 {
		leftSeg := ansi.Truncate(bg, startX, "")
		leftWidth := ansi.StringWidth(leftSeg)
		result.WriteString(render(leftSeg))
		// Pad if background is shorter than the box position
		if leftWidth < startX {
			result.WriteString(strings.Repeat(" ", startX-leftWidth))
		}
	}

	result.WriteString(boxLine)
	if w := ansi.StringWidth(boxLine); w < boxWidth {
		result.WriteString(strings.Repeat(" ", boxWidth-w))
	}

	rightStartX := startX + boxWidth
	if rightStartX < totalWidth && bgWidth > rightStartX {
		rightSeg := ansi.Cut(bg, rightStartX, min(bgWidth, totalWidth))
		result.WriteString(render(rightSeg))
	}

	return result.String()
}

// overlay places box at (x, y) over height rows of background.
func overlay(background, box string, x, y, width, height int, dim bool) string {
	bgLines := strings.Split(background, "\n")
	boxLines := strings.Split(box, "\n")
	boxWidth := maxLineWidth(boxLines)

	for len(bgLines) < height {
		bgLines = append(bgLines, "")
	}

	result := make([]string, 0, height)
	for row := 0; row < height; row++ {
		bgLine := bgLines[row]
		idx := row - y
		switch {
		case idx >= 0 && idx < len(boxLines):
			result = append(result, compositeRow(bgLine, boxLines[idx], x, boxWidth, width, dim))
		case dim:
			result = append(result, dimLine(bgLine))
		default:
			result = append(result, bgLine)
		}
	}
	return strings.Join(result, "\n")
}

// Place draws box with its top-left corner at (x, y) over background,
// leaving the background visible and undimmed around it. Positions past
// the screen are pulled back so the box stays visible.
func Place(background, box string, x, y, width, height int) string {
	boxLines := strings.Split(box, "\n")
	x = max(min(x, width-maxLineWidth(boxLines)), 0)
	y = max(min(y, height-len(boxLines)), 0)
	return overlay(background, box, x, y, width, height, false)
}

// OverlayModal composites a modal on top of a dimmed background.
// The modal is centered, with dimmed background visible on all sides.
func OverlayModal(background, modal string, width, height int) string {
	modalLines := strings.Split(modal, "\n")
	startX := max((width-maxLineWidth(modalLines))/2, 0)
	startY := max((height-len(modalLines))/2, 0)
	return overlay(background, modal, startX, startY, width, height, true)
}
