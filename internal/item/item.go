// Package item defines the entries displayed by the filer: files,
// directories and the synthetic per-source root rows.
package item

import (
	"reflect"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// RootLevel is the level reserved for synthetic source-root entries.
const RootLevel = -1

// Key is a stable identity for an item, derived from its source index and
// tree path. It survives changes to display fields such as highlights or
// the expanded flag.
type Key uint64

// Highlight describes a styled span of an item's label.
type Highlight struct {
	Name  string `json:"name"`
	Group string `json:"hl_group"`
	Col   int    `json:"col"` // 1-based byte column
	Width int    `json:"width"`
}

// Status carries optional file metadata used for sorting.
type Status struct {
	Size int64 `json:"size"`
	Time int64 `json:"time"` // unix seconds
}

// ActionData is the payload handed to item actions.
type ActionData struct {
	Path        string         `json:"path,omitempty"`
	IsDirectory bool           `json:"isDirectory,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// Item is one row of the filer tree.
type Item struct {
	Word       string      `json:"word"`
	Display    string      `json:"display,omitempty"`
	TreePath   string      `json:"treePath,omitempty"`
	MatcherKey string      `json:"matcherKey,omitempty"`
	Kind       string      `json:"kind,omitempty"`
	Action     ActionData  `json:"action"`
	Highlights []Highlight `json:"highlights,omitempty"`
	Status     *Status     `json:"status,omitempty"`

	IsTree      bool   `json:"isTree,omitempty"`
	Expanded    bool   `json:"__expanded,omitempty"`
	Level       int    `json:"__level"`
	SourceIndex int    `json:"__sourceIndex"`
	SourceName  string `json:"__sourceName,omitempty"`
	// Grouped marks an item that stands in for a chain of single-child
	// directories ("a/b/c").
	Grouped bool `json:"__grouped,omitempty"`
}

// Label returns the text shown for the item.
func (it *Item) Label() string {
	if it.Display != "" {
		return it.Display
	}
	return it.Word
}

// SortKey returns the path-like field used for ordering and filtering.
func (it *Item) SortKey() string {
	if it.TreePath != "" {
		return it.TreePath
	}
	return it.Word
}

// Key returns the item's stable identity.
func (it *Item) Key() Key {
	return KeyOf(it.SourceIndex, it.SortKey())
}

// IsRoot reports whether the item is a synthetic source root.
func (it *Item) IsRoot() bool {
	return it.Level == RootLevel
}

// Size returns the recorded size or -1 when unknown.
func (it *Item) Size() int64 {
	if it.Status == nil {
		return -1
	}
	return it.Status.Size
}

// Time returns the recorded modification time or -1 when unknown.
func (it *Item) Time() int64 {
	if it.Status == nil {
		return -1
	}
	return it.Status.Time
}

// Equal reports full structural equality.
func (it *Item) Equal(other *Item) bool {
	if it == other {
		return true
	}
	if it == nil || other == nil {
		return false
	}
	return reflect.DeepEqual(*it, *other)
}

// Clone returns a deep-enough copy for snapshotting: slices and the status
// pointer are copied so later mutation of the original does not leak.
func (it *Item) Clone() *Item {
	if it == nil {
		return nil
	}
	c := *it
	if it.Highlights != nil {
		c.Highlights = append([]Highlight(nil), it.Highlights...)
	}
	if it.Status != nil {
		s := *it.Status
		c.Status = &s
	}
	if it.Action.Extra != nil {
		c.Action.Extra = make(map[string]any, len(it.Action.Extra))
		for k, v := range it.Action.Extra {
			c.Action.Extra[k] = v
		}
	}
	return &c
}

// KeyOf computes the key for a source index and tree path.
func KeyOf(sourceIndex int, treePath string) Key {
	d := xxhash.New()
	_, _ = d.WriteString(strconv.Itoa(sourceIndex))
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(treePath)
	return Key(d.Sum64())
}
