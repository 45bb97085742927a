// Package mouse provides hit testing and click tracking for mouse input.
package mouse

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// DoubleClickThreshold is the longest gap between two clicks on the same
// spot that still counts as a double click.
const DoubleClickThreshold = 400 * time.Millisecond

// Rect is a screen rectangle in cells.
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether the point lies inside r. Right and bottom
// edges are exclusive.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Region is a named clickable area carrying caller data.
type Region struct {
	ID   string
	Rect Rect
	Data any
}

// HitMap holds regions in paint order. Later regions sit on top.
type HitMap struct {
	regions []Region
}

// NewHitMap returns an empty hit map.
func NewHitMap() *HitMap {
	return &HitMap{}
}

// Add registers a region.
func (h *HitMap) Add(id string, r Rect, data any) {
	h.regions = append(h.regions, Region{ID: id, Rect: r, Data: data})
}

// AddRect registers a region from its coordinates.
func (h *HitMap) AddRect(id string, x, y, w, ht int, data any) {
	h.Add(id, Rect{X: x, Y: y, W: w, H: ht}, data)
}

// Clear removes all regions.
func (h *HitMap) Clear() {
	h.regions = h.regions[:0]
}

// Test returns the topmost region containing the point, or nil.
func (h *HitMap) Test(x, y int) *Region {
	for i := len(h.regions) - 1; i >= 0; i-- {
		if h.regions[i].Rect.Contains(x, y) {
			r := h.regions[i]
			return &r
		}
	}
	return nil
}

// Regions returns a copy of the registered regions.
func (h *HitMap) Regions() []Region {
	out := make([]Region, len(h.regions))
	copy(out, h.regions)
	return out
}

// ActionType classifies a mouse event.
type ActionType int

const (
	ActionNone ActionType = iota
	ActionClick
	ActionDoubleClick
	ActionScrollUp
	ActionScrollDown
)

// MouseAction is a classified mouse event.
type MouseAction struct {
	Type   ActionType
	X, Y   int
	Region *Region
}

// ClickResult is the outcome of a click.
type ClickResult struct {
	Region        *Region
	IsDoubleClick bool
}

// Handler turns raw mouse events into actions against its hit map.
type Handler struct {
	HitMap *HitMap

	now       func() time.Time
	lastClick time.Time
	lastID    string
	lastX     int
	lastY     int
}

// NewHandler returns a handler with an empty hit map.
func NewHandler() *Handler {
	return &Handler{HitMap: NewHitMap(), now: time.Now}
}

// HandleClick records a click and reports what it hit. A second click on
// the same cell of the same region within DoubleClickThreshold is a double
// click; the one after that starts over.
func (h *Handler) HandleClick(x, y int) ClickResult {
	region := h.HitMap.Test(x, y)
	now := h.now()

	var double bool
	if region != nil && region.ID == h.lastID && x == h.lastX && y == h.lastY &&
		!h.lastClick.IsZero() && now.Sub(h.lastClick) <= DoubleClickThreshold {
		double = true
	}

	if double || region == nil {
		h.lastClick = time.Time{}
		h.lastID = ""
	} else {
		h.lastClick = now
		h.lastID = region.ID
		h.lastX, h.lastY = x, y
	}
	return ClickResult{Region: region, IsDoubleClick: double}
}

// HandleMouse classifies msg. Only left presses and wheel events produce
// actions.
func (h *Handler) HandleMouse(msg tea.MouseMsg) MouseAction {
	a := MouseAction{X: msg.X, Y: msg.Y}
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		a.Type = ActionScrollUp
		a.Region = h.HitMap.Test(msg.X, msg.Y)
	case msg.Button == tea.MouseButtonWheelDown:
		a.Type = ActionScrollDown
		a.Region = h.HitMap.Test(msg.X, msg.Y)
	case msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress:
		res := h.HandleClick(msg.X, msg.Y)
		a.Region = res.Region
		a.Type = ActionClick
		if res.IsDoubleClick {
			a.Type = ActionDoubleClick
		}
	}
	return a
}

// Clear drops all regions and any pending click.
func (h *Handler) Clear() {
	h.HitMap.Clear()
	h.lastClick = time.Time{}
	h.lastID = ""
}
