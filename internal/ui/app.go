package ui

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/mantle/internal/collection"
	"github.com/five82/mantle/internal/library"
	"github.com/five82/mantle/internal/prefs"
	"github.com/five82/mantle/internal/resolver"
	"github.com/five82/mantle/internal/state"
	"github.com/five82/mantle/internal/syncloop"
)

// CompositeSource loads composites for the chapter dialog.
type CompositeSource interface {
	GetCompositeEntry(ctx context.Context, id int) (*library.Composite, error)
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Backend   CompositeSource
	Resolver  *resolver.Resolver
	Loop      *syncloop.Loop
	Store     *state.Store
	Logger    *log.Logger
	Prefs     prefs.Prefs
	PrefsPath string
	PollTick  time.Duration
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	backend   CompositeSource
	resolver  *resolver.Resolver
	loop      *syncloop.Loop
	store     *state.Store
	logger    *log.Logger
	prefs     prefs.Prefs
	prefsPath string
	pollTick  time.Duration

	// UI state
	theme    Theme
	keys     keyMap
	width    int
	height   int
	ready    bool
	showHelp bool
	modal    Modal

	// Data state
	snapshot     state.Snapshot
	renderedSync time.Time // LastSynced of the collection on screen

	// Collection state
	query       collection.Query
	rows        []library.Entry
	selectedRow int
	offset      int

	// Search input
	searching   bool
	search      textinput.Model
	searchPrior string
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick == 0 {
		pollTick = DefaultUIInterval
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	userPrefs := opts.Prefs
	if userPrefs == (prefs.Prefs{}) {
		userPrefs = prefs.Default()
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	query := userPrefs.Query()
	search := textinput.New()
	search.Prompt = "/"
	search.Placeholder = "name"
	search.CharLimit = 120
	search.SetValue(query.Term)

	return Model{
		ctx:       ctx,
		backend:   opts.Backend,
		resolver:  opts.Resolver,
		loop:      opts.Loop,
		store:     opts.Store,
		logger:    logger,
		prefs:     userPrefs,
		prefsPath: prefsPath,
		pollTick:  pollTick,
		theme:     GetTheme(userPrefs.Theme),
		keys:      DefaultKeyMap(),
		query:     query,
		search:    search,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tickCmd(m.pollTick),
	}
	// Fetch snapshot immediately on start
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.clampSelection()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.applySnapshot(state.Snapshot(msg))
		return m, nil

	case chaptersMsg:
		if m.modal == nil {
			return m, nil
		}
		return m.updateModal(msg)
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	return m.renderMain()
}

// applySnapshot stores the latest snapshot. Rows are left alone while a
// dialog is open and rebuilt when it closes.
func (m *Model) applySnapshot(snap state.Snapshot) {
	m.snapshot = snap
	if m.modal != nil {
		return
	}
	m.render()
}

// render rebuilds the visible rows. Showing a newly pulled collection is a
// top-level render and resets the sync loop to Idle.
func (m *Model) render() {
	if !m.snapshot.LastSynced.Equal(m.renderedSync) {
		if m.loop != nil {
			m.loop.BeginRender()
		}
		m.renderedSync = m.snapshot.LastSynced
	}
	m.rebuildRows()
}

// rebuildRows applies the query to the snapshot, keeping the selection on
// the same entry when it is still visible.
func (m *Model) rebuildRows() {
	var selectedID int
	if entry, ok := m.selectedEntry(); ok {
		selectedID = entry.ID
	}

	m.rows = collection.Apply(m.snapshot.Entries, m.query)
	if len(m.rows) == 0 {
		m.selectedRow = 0
		m.offset = 0
		return
	}
	if selectedID != 0 {
		for i, entry := range m.rows {
			if entry.ID == selectedID {
				m.selectedRow = i
				break
			}
		}
	}
	m.clampSelection()
}

func (m Model) selectedEntry() (library.Entry, bool) {
	if m.selectedRow < 0 || m.selectedRow >= len(m.rows) {
		return library.Entry{}, false
	}
	return m.rows[m.selectedRow], true
}

// listHeight is the number of rows that fit inside the list box.
func (m Model) listHeight() int {
	return max(m.height-chromeHeight-2, 1)
}

// clampSelection keeps the selection in range and scrolled into view.
func (m *Model) clampSelection() {
	if len(m.rows) == 0 {
		m.selectedRow = 0
		m.offset = 0
		return
	}
	m.selectedRow = min(max(m.selectedRow, 0), len(m.rows)-1)
	visible := m.listHeight()
	if m.selectedRow < m.offset {
		m.offset = m.selectedRow
	}
	if m.selectedRow >= m.offset+visible {
		m.offset = m.selectedRow - visible + 1
	}
	m.offset = min(max(m.offset, 0), max(len(m.rows)-visible, 0))
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Any key closes help
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.modal != nil {
		if msg.Type == tea.KeyCtrlC {
			m.modal.Close()
			m.closeModal()
			return m, tea.Quit
		}
		return m.updateModal(msg)
	}
	if m.searching {
		return m.handleSearchKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()

	case key.Matches(msg, m.keys.CycleView):
		m.query.View = m.query.View.Next()
		m.rebuildRows()
		m.savePrefs()

	case key.Matches(msg, m.keys.CycleSort):
		m.query.Sort = m.query.Sort.Next()
		m.rebuildRows()
		m.savePrefs()

	case key.Matches(msg, m.keys.ToggleReverse):
		m.query.Reverse = !m.query.Reverse
		m.rebuildRows()
		m.savePrefs()

	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.searchPrior = m.query.Term
		m.search.SetValue(m.query.Term)
		m.search.CursorEnd()
		return m, m.search.Focus()

	case key.Matches(msg, m.keys.Escape):
		if m.query.Term != "" {
			m.query.Term = ""
			m.search.SetValue("")
			m.rebuildRows()
			m.savePrefs()
		}

	case key.Matches(msg, m.keys.OpenChapters):
		return m.openChapters()

	default:
		m.handleNavKey(msg)
	}

	return m, nil
}

// handleSearchKey edits the search term; the list follows every keystroke.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.searching = false
		m.search.Blur()
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		m.searching = false
		m.search.Blur()
		m.search.SetValue(m.searchPrior)
		m.query.Term = m.searchPrior
		m.rebuildRows()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if term := m.search.Value(); term != m.query.Term {
		m.query.Term = term
		m.rebuildRows()
	}
	return m, cmd
}

func (m *Model) handleNavKey(msg tea.KeyMsg) {
	if len(m.rows) == 0 {
		return
	}
	page := m.listHeight()

	switch {
	case key.Matches(msg, m.keys.Down):
		m.selectedRow++
	case key.Matches(msg, m.keys.Up):
		m.selectedRow--
	case key.Matches(msg, m.keys.Top):
		m.selectedRow = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selectedRow = len(m.rows) - 1
	case key.Matches(msg, m.keys.PageDown):
		m.selectedRow += page
	case key.Matches(msg, m.keys.PageUp):
		m.selectedRow -= page
	case key.Matches(msg, m.keys.HalfPageDown):
		m.selectedRow += max(page/2, 1)
	case key.Matches(msg, m.keys.HalfPageUp):
		m.selectedRow -= max(page/2, 1)
	default:
		return
	}
	m.clampSelection()
}

// openChapters opens the chapter dialog for the selected entry. The sync
// loop stays suspended until the dialog closes.
func (m Model) openChapters() (tea.Model, tea.Cmd) {
	entry, ok := m.selectedEntry()
	if !ok {
		return m, nil
	}
	if m.loop != nil {
		m.loop.OpenDialog()
	}

	dialog := newChaptersModal(entry)
	m.modal = dialog
	if entry.IsCustom() || m.resolver == nil {
		dialog.loading = false
		return m, nil
	}

	ctx, cancel := context.WithTimeout(m.ctx, ChapterLoadTimeout)
	dialog.cancel = cancel
	return m, loadChaptersCmd(ctx, cancel, m.backend, m.resolver, entry)
}

func (m Model) updateModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	modal, cmd, closed := m.modal.Update(msg, m.keys)
	if closed {
		m.closeModal()
		return m, cmd
	}
	m.modal = modal
	return m, cmd
}

// closeModal drops the dialog, resumes the sync loop and applies any
// snapshot held while the dialog was open.
func (m *Model) closeModal() {
	m.modal = nil
	if m.loop != nil {
		m.loop.CloseDialog()
	}
	m.render()
}

// savePrefs persists the query and theme. Failures are logged only.
func (m *Model) savePrefs() {
	m.prefs = m.prefs.WithQuery(m.query)
	m.prefs.Theme = m.theme.Name
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.logger.Printf("save preferences: %v", err)
	}
}

// handleTick processes the polling tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	cmds = append(cmds, tickCmd(m.pollTick))
	return m, tea.Batch(cmds...)
}

// renderMain renders the header, command bar and collection list.
func (m Model) renderMain() string {
	return m.renderHeader() + "\n" + m.renderCommandBar() + "\n" + m.renderList()
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// Run starts the Bubble Tea program. Cancelling the options context stops
// it without an error.
func Run(opts Options) error {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
