// Package sortpolicy orders and filters the items of one source batch or
// one expanded directory before they are placed in the tree.
package sortpolicy

import (
	"cmp"
	"fmt"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/marcus/filer/internal/item"
)

// Mode selects the comparator.
type Mode string

const (
	ModeNone      Mode = "none"
	ModeFilename  Mode = "filename"
	ModeExtension Mode = "extension"
	ModeSize      Mode = "size"
	ModeTime      Mode = "time"
)

// filterTimeout bounds a single fileFilter match.
const filterTimeout = 100 * time.Millisecond

// Policy is the sort/filter configuration.
type Policy struct {
	Mode       Mode
	Reverse    bool
	TreesFirst bool
	FileFilter string // ECMAScript regular expression; empty disables filtering
}

// ParseMode matches a mode name case-insensitively. Unknown names map to
// ModeNone.
func ParseMode(s string) Mode {
	switch m := Mode(strings.ToLower(s)); m {
	case ModeFilename, ModeExtension, ModeSize, ModeTime:
		return m
	default:
		return ModeNone
	}
}

// Sorter is a compiled Policy.
type Sorter struct {
	policy  Policy
	compare func(a, b *item.Item) int
	filter  *regexp2.Regexp
}

// New compiles a policy. It fails only when FileFilter is not a valid
// pattern.
func New(p Policy) (*Sorter, error) {
	s := &Sorter{policy: p, compare: comparator(ParseMode(string(p.Mode)))}
	if p.FileFilter != "" {
		re, err := regexp2.Compile(p.FileFilter, regexp2.ECMAScript)
		if err != nil {
			return nil, fmt.Errorf("invalid fileFilter %q: %w", p.FileFilter, err)
		}
		re.MatchTimeout = filterTimeout
		s.filter = re
	}
	return s, nil
}

// Items is a convenience for New(p).Sort(items).
func Items(p Policy, items []*item.Item) ([]*item.Item, error) {
	s, err := New(p)
	if err != nil {
		return nil, err
	}
	return s.Sort(items), nil
}

// Policy returns the policy the sorter was compiled from.
func (s *Sorter) Policy() Policy {
	return s.policy
}

// Sort returns a new slice; the input is not modified.
func (s *Sorter) Sort(items []*item.Item) []*item.Item {
	out := make([]*item.Item, 0, len(items))
	for _, it := range items {
		if s.keep(it) {
			out = append(out, it)
		}
	}

	compare := s.compare
	if s.policy.Reverse {
		compare = func(a, b *item.Item) int { return s.compare(b, a) }
	}
	slices.SortStableFunc(out, compare)

	if !s.policy.TreesFirst {
		return out
	}
	dirs := make([]*item.Item, 0, len(out))
	files := make([]*item.Item, 0, len(out))
	for _, it := range out {
		if it.IsTree {
			dirs = append(dirs, it)
		} else {
			files = append(files, it)
		}
	}
	return append(dirs, files...)
}

// keep applies the file filter. Directories always pass.
func (s *Sorter) keep(it *item.Item) bool {
	if s.filter == nil || it.IsTree {
		return true
	}
	ok, err := s.filter.MatchString(it.SortKey())
	return err == nil && ok
}

func comparator(m Mode) func(a, b *item.Item) int {
	switch m {
	case ModeFilename:
		return func(a, b *item.Item) int { return cmp.Compare(a.SortKey(), b.SortKey()) }
	case ModeExtension:
		return func(a, b *item.Item) int { return cmp.Compare(extname(a.SortKey()), extname(b.SortKey())) }
	case ModeSize:
		return func(a, b *item.Item) int { return cmp.Compare(a.Size(), b.Size()) }
	case ModeTime:
		return func(a, b *item.Item) int { return cmp.Compare(a.Time(), b.Time()) }
	default:
		return func(a, b *item.Item) int { return 0 }
	}
}

// extname returns the extension of the last path element. Dotfiles without
// a further dot have no extension.
func extname(p string) string {
	base := path.Base(strings.TrimRight(p, "/"))
	if strings.LastIndex(base, ".") <= 0 {
		return ""
	}
	return path.Ext(base)
}
