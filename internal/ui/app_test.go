package ui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/mantle/internal/library"
	"github.com/five82/mantle/internal/mantium"
	"github.com/five82/mantle/internal/prefs"
	"github.com/five82/mantle/internal/resolver"
	"github.com/five82/mantle/internal/state"
	"github.com/five82/mantle/internal/syncloop"
)

type staticToken struct{}

func (staticToken) GetChangeToken(context.Context) (string, error) { return "A", nil }

type fakeBackend struct {
	mu        sync.Mutex
	composite *library.Composite
	failing   map[int]bool
	chapters  map[int][]library.Chapter
	promoted  []int
}

func (f *fakeBackend) GetCompositeEntry(_ context.Context, id int) (*library.Composite, error) {
	if f.composite == nil || f.composite.ID != id {
		return nil, &library.NotFoundError{Kind: "composite", ID: id}
	}
	return f.composite, nil
}

func (f *fakeBackend) FetchChapters(_ context.Context, record library.SubRecord) ([]library.Chapter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing[record.ID] {
		return nil, &library.SourceUnavailableError{Source: record.Source, RecordID: record.ID, Err: errors.New("502")}
	}
	return f.chapters[record.ID], nil
}

func (f *fakeBackend) PromoteSubRecord(_ context.Context, _ *library.Composite, subID int) (library.SubRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.promoted = append(f.promoted, subID)
	return library.SubRecord{}, nil
}

type harness struct {
	model     Model
	store     *state.Store
	loop      *syncloop.Loop
	backend   *fakeBackend
	prefsPath string
}

func testEntries() []library.Entry {
	return []library.Entry{
		{ID: 1, Name: "Berserk", SearchNames: []string{"Berserk"}, Source: "mangadex", Status: library.StatusReading,
			LastReleased: library.Chapter{Label: "374"}, LastConsumed: library.Chapter{Label: "370"}},
		{ID: 2, Name: "Vagabond", SearchNames: []string{"Vagabond"}, Source: "mangadex", Status: library.StatusReading,
			LastReleased: library.Chapter{Label: "327"}, LastConsumed: library.Chapter{Label: "327"}},
		{ID: 3, Name: "Blame!", SearchNames: []string{"Blame!"}, Source: "comick", Status: library.StatusCompleted,
			LastReleased: library.Chapter{Label: "65"}, LastConsumed: library.Chapter{Label: "65"}},
		{ID: 4, Name: "One Piece", SearchNames: []string{"One Piece"}, Source: "mangaplus", Status: library.StatusReading,
			CompositeID: 40, LastReleased: library.Chapter{Label: "1100"}},
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	backend := &fakeBackend{
		failing:  map[int]bool{},
		chapters: map[int][]library.Chapter{},
	}
	store := &state.Store{}
	store.Update(testEntries(), mantium.BackgroundError{}, nil)
	loop := syncloop.New(staticToken{}, syncloop.Options{InitialToken: "A"})
	res := resolver.New(backend, backend)
	prefsPath := filepath.Join(t.TempDir(), "prefs.toml")

	m := New(Options{
		Backend:   backend,
		Resolver:  res,
		Loop:      loop,
		Store:     store,
		Prefs:     prefs.Prefs{Theme: "Dracula", View: "Reading", Sort: "Name"},
		PrefsPath: prefsPath,
	})
	h := &harness{model: m, store: store, loop: loop, backend: backend, prefsPath: prefsPath}
	h.send(t, tea.WindowSizeMsg{Width: 140, Height: 30})
	h.send(t, snapshotMsg(store.Snapshot()))
	return h
}

func (h *harness) send(t *testing.T, msg tea.Msg) tea.Cmd {
	t.Helper()
	next, cmd := h.model.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	h.model = model
	return cmd
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func rowNames(m Model) []string {
	names := make([]string, 0, len(m.rows))
	for _, e := range m.rows {
		names = append(names, e.Name)
	}
	return names
}

func TestSnapshotRendersFilteredSortedRows(t *testing.T) {
	h := newHarness(t)

	got := strings.Join(rowNames(h.model), ",")
	if got != "Berserk,One Piece,Vagabond" {
		t.Fatalf("rows = %s", got)
	}
	view := h.model.View()
	if !strings.Contains(view, "Berserk") || strings.Contains(view, "Blame!") {
		t.Fatalf("view does not match rows:\n%s", view)
	}
	if !strings.Contains(view, "Reading · 3 of 4") {
		t.Fatalf("list title missing from view:\n%s", view)
	}
}

func TestCycleViewPersistsPreferences(t *testing.T) {
	h := newHarness(t)

	h.send(t, keyRunes("f"))
	if got := strings.Join(rowNames(h.model), ","); got != "Blame!" {
		t.Fatalf("rows after cycling view = %s", got)
	}

	saved, err := prefs.Load(h.prefsPath)
	if err != nil {
		t.Fatalf("load prefs: %v", err)
	}
	if saved.View != "Completed" || saved.Sort != "Name" {
		t.Fatalf("saved prefs = %+v", saved)
	}
}

func TestToggleReverseAndCycleSort(t *testing.T) {
	h := newHarness(t)

	h.send(t, keyRunes("r"))
	if got := strings.Join(rowNames(h.model), ","); got != "Vagabond,One Piece,Berserk" {
		t.Fatalf("reversed rows = %s", got)
	}
	h.send(t, keyRunes("s"))
	saved, _ := prefs.Load(h.prefsPath)
	if !saved.Reverse || saved.Sort != "Unread" {
		t.Fatalf("saved prefs = %+v", saved)
	}
}

func TestSearchFiltersLiveAndEscRestores(t *testing.T) {
	h := newHarness(t)

	h.send(t, keyRunes("/"))
	if !h.model.searching {
		t.Fatal("expected search mode")
	}
	h.send(t, keyRunes("ber"))
	if got := strings.Join(rowNames(h.model), ","); got != "Berserk" {
		t.Fatalf("rows while searching = %s", got)
	}
	// "q" is text while searching, not quit.
	h.send(t, keyRunes("q"))
	if !h.model.searching || h.model.query.Term != "berq" {
		t.Fatalf("q should be typed into the search, term = %q", h.model.query.Term)
	}

	h.send(t, tea.KeyMsg{Type: tea.KeyEsc})
	if h.model.searching || h.model.query.Term != "" {
		t.Fatalf("esc should cancel search, term = %q", h.model.query.Term)
	}
	if len(h.model.rows) != 3 {
		t.Fatalf("rows after cancel = %d", len(h.model.rows))
	}
}

func TestSearchConfirmPersistsTerm(t *testing.T) {
	h := newHarness(t)

	h.send(t, keyRunes("/"))
	h.send(t, keyRunes("vaga"))
	h.send(t, tea.KeyMsg{Type: tea.KeyEnter})

	if h.model.searching {
		t.Fatal("enter should leave search mode")
	}
	saved, _ := prefs.Load(h.prefsPath)
	if saved.Search != "vaga" {
		t.Fatalf("saved search = %q", saved.Search)
	}

	h.send(t, tea.KeyMsg{Type: tea.KeyEsc})
	if h.model.query.Term != "" || len(h.model.rows) != 3 {
		t.Fatalf("esc should clear the term, got %q with %d rows", h.model.query.Term, len(h.model.rows))
	}
}

func TestNavigationClampsSelection(t *testing.T) {
	h := newHarness(t)

	h.send(t, keyRunes("k"))
	if h.model.selectedRow != 0 {
		t.Fatalf("selectedRow = %d, want 0", h.model.selectedRow)
	}
	h.send(t, keyRunes("G"))
	if h.model.selectedRow != 2 {
		t.Fatalf("selectedRow = %d, want 2", h.model.selectedRow)
	}
	h.send(t, keyRunes("j"))
	if h.model.selectedRow != 2 {
		t.Fatalf("selectedRow = %d, want 2", h.model.selectedRow)
	}
}

func TestChaptersDialogSuspendsLoopUntilClosed(t *testing.T) {
	h := newHarness(t)
	h.backend.chapters[1] = []library.Chapter{{Label: "374", Name: "Chapter 374"}, {Label: "373"}}

	cmd := h.send(t, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a chapter load command")
	}
	if h.loop.Phase() != syncloop.Suspended {
		t.Fatalf("phase = %v, want Suspended", h.loop.Phase())
	}

	h.send(t, cmd())
	dialog, ok := h.model.modal.(*chaptersModal)
	if !ok {
		t.Fatalf("modal = %T", h.model.modal)
	}
	if dialog.loading || len(dialog.chapters) != 2 || dialog.err != nil {
		t.Fatalf("dialog state = loading %v, %d chapters, err %v", dialog.loading, len(dialog.chapters), dialog.err)
	}
	if !strings.Contains(h.model.View(), "Chapter 374") {
		t.Fatal("dialog view should list chapters")
	}

	h.send(t, tea.KeyMsg{Type: tea.KeyEsc})
	if h.model.modal != nil {
		t.Fatal("esc should close the dialog")
	}
	if h.loop.Phase() != syncloop.Idle {
		t.Fatalf("phase = %v, want Idle", h.loop.Phase())
	}
}

func TestNewCollectionWaitsForDialogToClose(t *testing.T) {
	h := newHarness(t)

	h.send(t, tea.KeyMsg{Type: tea.KeyEnter})

	entries := testEntries()
	entries = append(entries, library.Entry{ID: 5, Name: "Akira", SearchNames: []string{"Akira"}, Source: "mangadex", Status: library.StatusReading})
	h.store.Update(entries, mantium.BackgroundError{}, nil)
	h.send(t, snapshotMsg(h.store.Snapshot()))

	if len(h.model.rows) != 3 {
		t.Fatalf("rows changed under an open dialog: %v", rowNames(h.model))
	}
	if h.loop.Phase() != syncloop.Suspended {
		t.Fatal("loop should stay suspended while the dialog is open")
	}

	h.send(t, keyRunes("q"))
	if got := strings.Join(rowNames(h.model), ","); got != "Akira,Berserk,One Piece,Vagabond" {
		t.Fatalf("rows after close = %s", got)
	}
}

func TestCompositeFallbackAndExhaustion(t *testing.T) {
	composite, err := library.NewComposite(40, library.StatusReading, []library.SubRecord{
		{ID: 4, Source: "mangaplus"},
		{ID: 41, Source: "mangadex"},
	}, 4)
	if err != nil {
		t.Fatalf("NewComposite: %v", err)
	}

	t.Run("fallback", func(t *testing.T) {
		h := newHarness(t)
		h.backend.composite = composite
		h.backend.failing[4] = true
		h.backend.chapters[41] = []library.Chapter{{Label: "1100"}}

		h.send(t, keyRunes("j")) // One Piece
		cmd := h.send(t, tea.KeyMsg{Type: tea.KeyEnter})
		h.send(t, cmd())

		dialog := h.model.modal.(*chaptersModal)
		if !dialog.fellBack || dialog.record.ID != 41 || len(dialog.chapters) != 1 {
			t.Fatalf("dialog = fellBack %v, record %d, %d chapters", dialog.fellBack, dialog.record.ID, len(dialog.chapters))
		}
		if !strings.Contains(h.model.View(), "switched to MangaDex") {
			t.Fatal("fallback notice missing")
		}
	})

	t.Run("exhausted", func(t *testing.T) {
		exhausted, _ := library.NewComposite(40, library.StatusReading, []library.SubRecord{
			{ID: 4, Source: "mangaplus"},
			{ID: 41, Source: "mangadex"},
		}, 4)
		h := newHarness(t)
		h.backend.composite = exhausted
		h.backend.failing[4] = true
		h.backend.failing[41] = true

		h.send(t, keyRunes("j"))
		cmd := h.send(t, tea.KeyMsg{Type: tea.KeyEnter})
		h.send(t, cmd())

		dialog := h.model.modal.(*chaptersModal)
		if !dialog.exhausted() || len(dialog.chapters) != 0 {
			t.Fatalf("dialog = err %v, %d chapters", dialog.err, len(dialog.chapters))
		}
		if !strings.Contains(h.model.View(), "All sources failed") {
			t.Fatal("exhaustion warning missing")
		}
	})
}

func TestCustomEntryOpensWithoutFetching(t *testing.T) {
	h := newHarness(t)
	entries := []library.Entry{{ID: 9, Name: "Notebook", SearchNames: []string{"Notebook"}, Source: library.CustomSource, Status: library.StatusReading}}
	h.store.Update(entries, mantium.BackgroundError{}, nil)
	h.send(t, snapshotMsg(h.store.Snapshot()))

	if cmd := h.send(t, tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Fatal("custom entries have nothing to load")
	}
	if !strings.Contains(h.model.View(), "Custom entry") {
		t.Fatal("custom entry notice missing")
	}
}

func TestHelpClosesOnAnyKey(t *testing.T) {
	h := newHarness(t)

	h.send(t, keyRunes("?"))
	if !strings.Contains(h.model.View(), "Keyboard Shortcuts") {
		t.Fatal("help overlay not shown")
	}
	h.send(t, keyRunes("x"))
	if h.model.showHelp {
		t.Fatal("any key should close help")
	}
}

func TestHeaderShowsOfflineAndBackgroundError(t *testing.T) {
	h := newHarness(t)
	h.store.Update(testEntries(), mantium.BackgroundError{Message: "mangadex rate limited"}, nil)
	h.store.Fail(errors.New("connection refused"))
	h.store.Fail(errors.New("connection refused"))
	h.send(t, snapshotMsg(h.store.Snapshot()))

	header := h.model.renderHeader()
	for _, want := range []string{"OFFLINE", "connection refused", "BACKEND"} {
		if !strings.Contains(header, want) {
			t.Errorf("header missing %q:\n%s", want, header)
		}
	}
}

func TestCtrlCQuitsFromOpenDialog(t *testing.T) {
	h := newHarness(t)
	if cmd := h.send(t, tea.KeyMsg{Type: tea.KeyEnter}); cmd == nil {
		t.Fatal("expected a chapter load command")
	}
	dialog, ok := h.model.modal.(*chaptersModal)
	if !ok {
		t.Fatalf("modal = %T", h.model.modal)
	}
	cancelled := false
	dialog.cancel = func() { cancelled = true }

	cmd := h.send(t, tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("ctrl+c should quit with a dialog open")
	}
	if !cancelled {
		t.Fatal("ctrl+c should cancel the chapter load")
	}
	if h.model.modal != nil {
		t.Fatal("ctrl+c should close the dialog")
	}
	if h.loop.Phase() != syncloop.Idle {
		t.Fatalf("phase = %v, want Idle", h.loop.Phase())
	}
}

func TestQuitKey(t *testing.T) {
	h := newHarness(t)
	cmd := h.send(t, keyRunes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q should quit")
	}
}
