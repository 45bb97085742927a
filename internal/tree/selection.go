package tree

import "github.com/marcus/filer/internal/item"

// ToggleSelect flips the selection of the item rendered at row.
func (s *State) ToggleSelect(row int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	it := s.itemAtRow(row)
	if it == nil {
		return false
	}
	k := it.Key()
	if _, ok := s.selected[k]; ok {
		delete(s.selected, k)
	} else {
		s.selected[k] = struct{}{}
	}
	return true
}

// ToggleAll flips the selection of every item except source roots.
func (s *State) ToggleAll() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) == 0 {
		return false
	}
	for _, it := range s.items {
		if it.IsRoot() {
			continue
		}
		k := it.Key()
		if _, ok := s.selected[k]; ok {
			delete(s.selected, k)
		} else {
			s.selected[k] = struct{}{}
		}
	}
	return true
}

// ClearSelection empties the selection set.
func (s *State) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.selected)
}

// HasSelection reports whether any item is selected.
func (s *State) HasSelection() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.selected) > 0
}

// IsSelected reports whether it is selected.
func (s *State) IsSelected(it *item.Item) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.selected[it.Key()]
	return ok
}

// SelectedItems returns the selected items in display order.
func (s *State) SelectedItems() []*item.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*item.Item, 0, len(s.selected))
	for _, it := range s.items {
		if _, ok := s.selected[it.Key()]; ok {
			out = append(out, it)
		}
	}
	return out
}

// SelectedRows returns the 1-based rows of the selected items.
func (s *State) SelectedRows() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]int, 0, len(s.selected))
	for i, it := range s.items {
		if _, ok := s.selected[it.Key()]; ok {
			out = append(out, i+1)
		}
	}
	return out
}

// prune drops selected keys that are no longer displayed. Must be called
// with mu held for writing.
func (s *State) prune() {
	for k := range s.selected {
		if _, ok := s.index[k]; !ok {
			delete(s.selected, k)
		}
	}
}
