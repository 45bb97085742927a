package app

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/filer/internal/editor"
	"github.com/marcus/filer/internal/mouse"
	"github.com/marcus/filer/internal/plugin"
)

// updateHitMap registers the content area of every window, in paint order,
// in screen coordinates.
func (m *Model) updateHitMap() {
	m.mouse.HitMap.Clear()
	titleRows, height := m.screen()
	for _, p := range placeWindows(m.fw.ed.Windows(), m.width, height) {
		c := p.content
		m.mouse.HitMap.AddRect(fmt.Sprintf("win-%d", p.win.ID), c.x, c.y+titleRows, c.w, c.h, p)
	}
}

// handleMouse moves the list cursor on a click, opens the row on a double
// click and scrolls the list with the wheel.
func (m *Model) handleMouse(ctx context.Context, msg tea.MouseMsg) {
	if m.fw.prompt != nil || m.fw.chooser != nil {
		return
	}
	m.updateHitMap()
	a := m.mouse.HandleMouse(msg)
	if a.Region == nil {
		return
	}
	p, ok := a.Region.Data.(placement)
	if !ok || p.win.Role != editor.RoleList {
		return
	}

	switch a.Type {
	case mouse.ActionScrollUp:
		m.fw.Do(ctx, "cursorPrevious", nil)
	case mouse.ActionScrollDown:
		m.fw.Do(ctx, "cursorNext", nil)
	case mouse.ActionClick, mouse.ActionDoubleClick:
		titleRows, _ := m.screen()
		row := visibleTop(p.win, p.content.h) + a.Y - titleRows - p.content.y
		buf, _ := m.fw.ed.Buffer(p.win.Buf)
		if row < 1 || row > len(buf.Lines) {
			return
		}
		if err := m.fw.ed.SetCursor(ctx, p.win.ID, row); err != nil {
			m.fw.log.Debug("app: mouse cursor", "row", row, "error", err)
			return
		}
		if a.Type == mouse.ActionDoubleClick {
			m.fw.Do(ctx, "itemAction", plugin.ActionParams{"name": "open"})
		}
	}
}
