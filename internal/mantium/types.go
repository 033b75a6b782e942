package mantium

import (
	"fmt"
	"time"

	"github.com/five82/mantle/internal/library"
)

// ChapterPayload mirrors a chapter as the API encodes it.
type ChapterPayload struct {
	Chapter   string `json:"Chapter"`
	URL       string `json:"URL"`
	Name      string `json:"Name"`
	UpdatedAt string `json:"UpdatedAt"`
}

// MangaPayload mirrors a manga record from /v1/mangas and /v1/multimanga.
type MangaPayload struct {
	ID                  int             `json:"ID"`
	Source              string          `json:"Source"`
	URL                 string          `json:"URL"`
	Name                string          `json:"Name"`
	SearchNames         []string        `json:"SearchNames"`
	InternalID          string          `json:"InternalID"`
	Status              int             `json:"Status"`
	MultiMangaID        int             `json:"MultiMangaID"`
	LastReleasedChapter *ChapterPayload `json:"LastReleasedChapter"`
	LastReadChapter     *ChapterPayload `json:"LastReadChapter"`
}

// MultiMangaPayload mirrors /v1/multimanga.
type MultiMangaPayload struct {
	ID           int            `json:"ID"`
	Status       int            `json:"Status"`
	CurrentManga *MangaPayload  `json:"CurrentManga"`
	Mangas       []MangaPayload `json:"Mangas"`
}

type mangasResponse struct {
	Mangas []MangaPayload `json:"mangas"`
}

type mangaResponse struct {
	Manga *MangaPayload `json:"manga"`
}

type multiMangaResponse struct {
	MultiManga *MultiMangaPayload `json:"multimanga"`
}

type chaptersResponse struct {
	Chapters []ChapterPayload `json:"chapters"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// BackgroundError is the last error raised by the backend's periodic jobs.
type BackgroundError struct {
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Entry converts the payload into a validated library entry.
func (m MangaPayload) Entry() (library.Entry, error) {
	return library.NewEntry(library.Entry{
		ID:           m.ID,
		CompositeID:  m.MultiMangaID,
		Name:         m.Name,
		SearchNames:  m.SearchNames,
		Source:       m.Source,
		URL:          m.URL,
		InternalID:   m.InternalID,
		Status:       library.Status(m.Status),
		LastReleased: m.chapter(m.LastReleasedChapter),
		LastConsumed: m.chapter(m.LastReadChapter),
	})
}

// SubRecord converts the payload into a composite sub-record.
func (m MangaPayload) SubRecord() library.SubRecord {
	return library.SubRecord{
		ID:           m.ID,
		Source:       m.Source,
		URL:          m.URL,
		InternalID:   m.InternalID,
		LastReleased: m.chapter(m.LastReleasedChapter),
		LastConsumed: m.chapter(m.LastReadChapter),
	}
}

// A missing chapter becomes the zero chapter. Provider-backed entries point
// it at the entry page so the UI still has somewhere to link.
func (m MangaPayload) chapter(c *ChapterPayload) library.Chapter {
	if c == nil {
		if m.Source == library.CustomSource {
			return library.Chapter{}
		}
		return library.Chapter{URL: m.URL}
	}
	return c.libraryChapter()
}

// libraryChapter converts the payload into a library chapter.
func (c ChapterPayload) libraryChapter() library.Chapter {
	return library.Chapter{
		Label:     c.Chapter,
		URL:       c.URL,
		Name:      c.Name,
		UpdatedAt: parseTime(c.UpdatedAt),
	}
}

// Composite converts the payload into a validated composite.
func (mm MultiMangaPayload) Composite() (*library.Composite, error) {
	if mm.CurrentManga == nil {
		return nil, &library.InvariantViolationError{Reason: fmt.Sprintf("composite %d has no current record", mm.ID)}
	}
	records := make([]library.SubRecord, 0, len(mm.Mangas))
	for _, m := range mm.Mangas {
		records = append(records, m.SubRecord())
	}
	return library.NewComposite(mm.ID, library.Status(mm.Status), records, mm.CurrentManga.ID)
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			if t.IsZero() {
				return time.Time{}
			}
			return t
		}
	}
	return time.Time{}
}
