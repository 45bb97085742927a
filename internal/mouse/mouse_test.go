package mouse

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestRect_Contains(t *testing.T) {
	r := Rect{X: 10, Y: 20, W: 30, H: 40}

	tests := []struct {
		name   string
		x, y   int
		expect bool
	}{
		{"inside", 15, 30, true},
		{"top-left corner", 10, 20, true},
		{"right edge exclusive", 40, 30, false},
		{"bottom edge exclusive", 15, 60, false},
		{"left of rect", 9, 30, false},
		{"above rect", 15, 19, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Contains(tt.x, tt.y); got != tt.expect {
				t.Errorf("Rect%+v.Contains(%d, %d) = %v, want %v", r, tt.x, tt.y, got, tt.expect)
			}
		})
	}

	if (Rect{X: 5, Y: 5, W: 0, H: 10}).Contains(5, 5) {
		t.Error("zero-width rect should not contain any point")
	}
}

func TestHitMap_Test(t *testing.T) {
	hm := NewHitMap()
	hm.Add("list", Rect{X: 0, Y: 0, W: 20, H: 20}, "list-data")
	hm.AddRect("float", 5, 5, 10, 10, "float-data")

	if r := hm.Test(7, 7); r == nil || r.ID != "float" {
		t.Fatalf("overlapping point should hit the last added region, got %v", r)
	}
	if r := hm.Test(2, 2); r == nil || r.Data != "list-data" {
		t.Fatalf("expected list region, got %v", r)
	}
	if hm.Test(50, 50) != nil {
		t.Error("expected nil outside all regions")
	}

	regions := hm.Regions()
	regions[0].ID = "mutated"
	if hm.Regions()[0].ID != "list" {
		t.Error("Regions() should return a copy")
	}

	hm.Clear()
	if hm.Test(7, 7) != nil {
		t.Error("expected nil after clear")
	}
}

func TestHandler_DoubleClick(t *testing.T) {
	now := time.Unix(1000, 0)
	h := NewHandler()
	h.now = func() time.Time { return now }
	h.HitMap.Add("list", Rect{X: 0, Y: 0, W: 10, H: 10}, nil)

	if res := h.HandleClick(5, 5); res.Region == nil || res.IsDoubleClick {
		t.Fatalf("first click: got %+v", res)
	}
	now = now.Add(100 * time.Millisecond)
	if res := h.HandleClick(5, 5); !res.IsDoubleClick {
		t.Error("second quick click on the same cell should be a double click")
	}
	if res := h.HandleClick(5, 5); res.IsDoubleClick {
		t.Error("third click should start over")
	}

	now = now.Add(100 * time.Millisecond)
	if res := h.HandleClick(5, 6); res.IsDoubleClick {
		t.Error("click on another row should not be a double click")
	}

	now = now.Add(time.Second)
	if res := h.HandleClick(5, 6); res.IsDoubleClick {
		t.Error("slow second click should not be a double click")
	}
}

func TestHandler_HandleMouse(t *testing.T) {
	h := NewHandler()
	h.HitMap.Add("list", Rect{X: 0, Y: 0, W: 10, H: 10}, nil)

	tests := []struct {
		name string
		msg  tea.MouseMsg
		want ActionType
	}{
		{"left press", tea.MouseMsg{Button: tea.MouseButtonLeft, Action: tea.MouseActionPress, X: 1, Y: 1}, ActionClick},
		{"left release", tea.MouseMsg{Button: tea.MouseButtonLeft, Action: tea.MouseActionRelease, X: 1, Y: 1}, ActionNone},
		{"wheel up", tea.MouseMsg{Button: tea.MouseButtonWheelUp, Action: tea.MouseActionPress, X: 1, Y: 1}, ActionScrollUp},
		{"wheel down", tea.MouseMsg{Button: tea.MouseButtonWheelDown, Action: tea.MouseActionPress, X: 1, Y: 1}, ActionScrollDown},
		{"right press", tea.MouseMsg{Button: tea.MouseButtonRight, Action: tea.MouseActionPress, X: 1, Y: 1}, ActionNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.HandleMouse(tt.msg); got.Type != tt.want {
				t.Errorf("HandleMouse() type = %v, want %v", got.Type, tt.want)
			}
		})
	}
}
