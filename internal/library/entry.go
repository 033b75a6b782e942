package library

import (
	"fmt"
	"strings"
	"time"
)

// Status is the user's reading status of an entry.
type Status int

const (
	StatusReading    Status = 1
	StatusCompleted  Status = 2
	StatusOnHold     Status = 3
	StatusDropped    Status = 4
	StatusPlanToRead Status = 5
)

// CustomSource marks entries created by the user without a provider.
const CustomSource = "custom_manga"

func (s Status) String() string {
	switch s {
	case StatusReading:
		return "Reading"
	case StatusCompleted:
		return "Completed"
	case StatusOnHold:
		return "On Hold"
	case StatusDropped:
		return "Dropped"
	case StatusPlanToRead:
		return "Plan to Read"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// ValidateStatus rejects values outside the stored enumeration.
func ValidateStatus(s Status) error {
	if s < StatusReading || s > StatusPlanToRead {
		return &InvariantViolationError{Reason: fmt.Sprintf("status %d is not between 1 and 5", int(s))}
	}
	return nil
}

// Chapter is a released or consumed position of an entry. An empty Label
// means none; a zero UpdatedAt means the date is unknown.
type Chapter struct {
	Label     string
	URL       string
	Name      string
	UpdatedAt time.Time
}

// Known reports whether the chapter carries a confirmed date.
func (c Chapter) Known() bool {
	return !c.UpdatedAt.IsZero()
}

// Entry is one tracked item of the collection.
type Entry struct {
	ID           int
	CompositeID  int // non-zero when the entry is backed by a composite
	Name         string
	SearchNames  []string
	Source       string
	URL          string
	InternalID   string
	Status       Status
	LastReleased Chapter
	LastConsumed Chapter
}

// NewEntry validates e and fills defaults.
func NewEntry(e Entry) (Entry, error) {
	e.Name = strings.TrimSpace(e.Name)
	if e.Name == "" {
		return Entry{}, &InvariantViolationError{Reason: fmt.Sprintf("entry %d has no name", e.ID)}
	}
	if err := ValidateStatus(e.Status); err != nil {
		return Entry{}, err
	}
	if len(e.SearchNames) == 0 {
		e.SearchNames = []string{e.Name}
	} else {
		e.SearchNames = append([]string(nil), e.SearchNames...)
	}
	return e, nil
}

// IsCustom reports whether the entry has no provider behind it.
func (e Entry) IsCustom() bool {
	return e.Source == CustomSource
}

// IsComposite reports whether the entry is backed by several sub-records.
func (e Entry) IsComposite() bool {
	return e.CompositeID != 0
}

// Unread reports whether a released chapter has not been consumed yet.
// Entries without a released chapter are never unread.
func (e Entry) Unread() bool {
	return e.LastReleased.Label != "" && e.LastConsumed.Label != e.LastReleased.Label
}

// Record returns the entry as a standalone sub-record.
func (e Entry) Record() SubRecord {
	return SubRecord{
		ID:           e.ID,
		Source:       e.Source,
		URL:          e.URL,
		InternalID:   e.InternalID,
		LastReleased: e.LastReleased,
		LastConsumed: e.LastConsumed,
	}
}

// SourceLabel returns the display name of a provider id.
func SourceLabel(source string) string {
	switch source {
	case "mangadex":
		return "MangaDex"
	case "comick":
		return "ComicK"
	case "mangaplus":
		return "MangaPlus"
	case "mangahub":
		return "MangaHub"
	case "mangaupdates":
		return "Manga Updates"
	case "rawkuma":
		return "RawKuma"
	case "klmanga":
		return "KLManga"
	case "jmanga":
		return "JManga"
	case CustomSource:
		return "Custom"
	default:
		return source
	}
}
