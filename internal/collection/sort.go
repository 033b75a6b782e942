package collection

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/five82/mantle/internal/library"
)

// SortMode selects the ordering criterion.
type SortMode int

const (
	SortName SortMode = iota
	SortUnread
	SortLastConsumed
	SortReleasedCount
	SortReleasedDate
)

// DefaultSortMode is the ordering used when no preference is stored.
const DefaultSortMode = SortUnread

var sortModes = []struct {
	mode  SortMode
	label string
	short string
}{
	{SortName, "Name", "name"},
	{SortUnread, "Unread", "unread"},
	{SortLastConsumed, "Last Read", "last-read"},
	{SortReleasedCount, "Chapters Released", "released-count"},
	{SortReleasedDate, "Released Chapter Date", "released-date"},
}

func (m SortMode) String() string {
	for _, s := range sortModes {
		if s.mode == m {
			return s.label
		}
	}
	return fmt.Sprintf("SortMode(%d)", int(m))
}

// Next cycles through the sort modes.
func (m SortMode) Next() SortMode {
	if m < SortName || m >= SortReleasedDate {
		return SortName
	}
	return m + 1
}

// ParseSortMode accepts a display label or a short name.
func ParseSortMode(s string) (SortMode, error) {
	want := canonical(s)
	for _, m := range sortModes {
		if canonical(m.label) == want || canonical(m.short) == want {
			return m.mode, nil
		}
	}
	return 0, fmt.Errorf("unknown sort mode %q", s)
}

// Sort returns a stably sorted copy of entries. Name sorts ascending by
// default; every other mode puts the most recent or most unread entries
// first. reverse flips the effective direction.
func Sort(entries []library.Entry, mode SortMode, reverse bool) []library.Entry {
	out := slices.Clone(entries)
	compare := comparator(mode)
	if compare == nil {
		return out
	}
	if reverse {
		forward := compare
		compare = func(a, b library.Entry) int { return forward(b, a) }
	}
	slices.SortStableFunc(out, compare)
	return out
}

// Query bundles the view state the UI keeps.
type Query struct {
	View    View
	Term    string
	Sort    SortMode
	Reverse bool
}

// Apply filters then sorts entries.
func Apply(entries []library.Entry, q Query) []library.Entry {
	return Sort(Filter(entries, q.View, q.Term), q.Sort, q.Reverse)
}

func comparator(mode SortMode) func(a, b library.Entry) int {
	switch mode {
	case SortName:
		return compareName
	case SortUnread:
		return compareUnread
	case SortLastConsumed:
		return func(a, b library.Entry) int {
			return newestFirst(a.LastConsumed.UpdatedAt, b.LastConsumed.UpdatedAt)
		}
	case SortReleasedCount:
		return func(a, b library.Entry) int {
			return cmp.Compare(releasedCount(b), releasedCount(a))
		}
	case SortReleasedDate:
		return func(a, b library.Entry) int {
			return newestFirst(a.LastReleased.UpdatedAt, b.LastReleased.UpdatedAt)
		}
	default:
		return nil
	}
}

func compareName(a, b library.Entry) int {
	return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
}

// compareUnread orders unread entries before read ones. Inside the unread
// bucket entries without a confirmed release date come first; inside the
// read bucket they come last. Known dates sort newest first.
func compareUnread(a, b library.Entry) int {
	ab, bb := unreadBucket(a), unreadBucket(b)
	if ab != bb {
		return cmp.Compare(ab, bb)
	}
	ak, bk := a.LastReleased.Known(), b.LastReleased.Known()
	switch {
	case ak && bk:
		return newestFirst(a.LastReleased.UpdatedAt, b.LastReleased.UpdatedAt)
	case ak == bk:
		return 0
	case ab == 0:
		// unread: unknown first
		if !ak {
			return -1
		}
		return 1
	default:
		// read: unknown last
		if !ak {
			return 1
		}
		return -1
	}
}

func unreadBucket(e library.Entry) int {
	if e.Unread() {
		return 0
	}
	return 1
}

// newestFirst orders later times first; the zero time is the oldest.
func newestFirst(a, b time.Time) int {
	return b.Compare(a)
}

func releasedCount(e library.Entry) float64 {
	n, err := strconv.ParseFloat(strings.TrimSpace(e.LastReleased.Label), 64)
	if err != nil || math.IsNaN(n) {
		return math.Inf(-1)
	}
	return n
}
