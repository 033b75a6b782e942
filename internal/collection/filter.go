// Package collection filters and sorts snapshots of the tracked collection.
// Every function is pure: inputs are never mutated and results are fresh
// slices.
package collection

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/five82/mantle/internal/library"
)

// View selects which entries pass the status filter. Values 1..5 match the
// stored library.Status; All and Unread are synthetic.
type View int

const (
	ViewAll        View = 0
	ViewReading    View = View(library.StatusReading)
	ViewCompleted  View = View(library.StatusCompleted)
	ViewOnHold     View = View(library.StatusOnHold)
	ViewDropped    View = View(library.StatusDropped)
	ViewPlanToRead View = View(library.StatusPlanToRead)
	ViewUnread     View = 6
)

// DefaultView is the view shown when no preference is stored.
const DefaultView = ViewReading

var viewNames = map[View]string{
	ViewAll:        "All",
	ViewReading:    "Reading",
	ViewCompleted:  "Completed",
	ViewOnHold:     "On Hold",
	ViewDropped:    "Dropped",
	ViewPlanToRead: "Plan to Read",
	ViewUnread:     "Unread",
}

func (v View) String() string {
	if name, ok := viewNames[v]; ok {
		return name
	}
	return fmt.Sprintf("View(%d)", int(v))
}

// Next cycles through the views in display order.
func (v View) Next() View {
	if v >= ViewUnread || v < ViewAll {
		return ViewAll
	}
	return v + 1
}

// ParseView accepts a view name (case-insensitive, spaces or dashes) or its
// number.
func ParseView(s string) (View, error) {
	trimmed := strings.TrimSpace(s)
	if n, err := strconv.Atoi(trimmed); err == nil {
		v := View(n)
		if _, ok := viewNames[v]; ok {
			return v, nil
		}
		return 0, fmt.Errorf("unknown view %d", n)
	}
	want := canonical(trimmed)
	for v, name := range viewNames {
		if canonical(name) == want {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown view %q", s)
}

// Filter returns the entries passing both the view and the name term.
// A non-empty term matches case-insensitively against the concatenated
// search names. The term is used as typed, surrounding spaces included.
func Filter(entries []library.Entry, view View, term string) []library.Entry {
	folder := newFolder()
	needle := folder.fold(term)

	out := make([]library.Entry, 0, len(entries))
	for _, e := range entries {
		if !matchesView(e, view) {
			continue
		}
		if needle != "" && !strings.Contains(folder.fold(strings.Join(e.SearchNames, "")), needle) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func matchesView(e library.Entry, view View) bool {
	switch view {
	case ViewAll:
		return true
	case ViewUnread:
		return e.Unread()
	default:
		return e.Status == library.Status(view)
	}
}

// folder normalizes width forms and folds case. A cases.Caser is stateful,
// so each Filter call builds its own.
type folder struct {
	caser cases.Caser
}

func newFolder() folder {
	return folder{caser: cases.Fold()}
}

func (f folder) fold(s string) string {
	if s == "" {
		return ""
	}
	return f.caser.String(norm.NFKC.String(s))
}

func canonical(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, "_", "")
	return strings.ReplaceAll(s, " ", "")
}
