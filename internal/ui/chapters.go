package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/mantle/internal/library"
	"github.com/five82/mantle/internal/resolver"
)

// chaptersMsg carries the outcome of a chapter load.
type chaptersMsg struct {
	entryID  int
	record   library.SubRecord
	chapters []library.Chapter
	fellBack bool
	err      error
}

// loadChaptersCmd loads the chapters of entry. Composites fall back to
// another source when the current one fails.
func loadChaptersCmd(ctx context.Context, cancel context.CancelFunc, backend CompositeSource, res *resolver.Resolver, entry library.Entry) tea.Cmd {
	return func() tea.Msg {
		defer cancel()
		result, err := res.ResolveEntry(ctx, backend, entry)
		return chaptersMsg{
			entryID:  entry.ID,
			record:   result.Record,
			chapters: result.Chapters,
			fellBack: result.FellBack,
			err:      err,
		}
	}
}

// chaptersModal lists the chapters of one entry.
type chaptersModal struct {
	entry    library.Entry
	loading  bool
	cancel   context.CancelFunc
	record   library.SubRecord
	chapters []library.Chapter
	fellBack bool
	err      error
	selected int
}

func newChaptersModal(entry library.Entry) *chaptersModal {
	return &chaptersModal{
		entry:   entry,
		loading: !entry.IsCustom(),
	}
}

// exhausted reports whether every source of a composite failed.
func (c *chaptersModal) exhausted() bool {
	return errors.Is(c.err, library.ErrAllSourcesExhausted)
}

// Close implements Modal. It abandons a chapter load still running.
func (c *chaptersModal) Close() {
	if c.cancel != nil {
		c.cancel()
	}
}

// Update implements Modal.
func (c *chaptersModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	switch msg := msg.(type) {
	case chaptersMsg:
		if msg.entryID != c.entry.ID {
			return c, nil, false
		}
		c.loading = false
		c.record = msg.record
		c.chapters = msg.chapters
		c.fellBack = msg.fellBack
		c.err = msg.err
		c.selected = 0

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Close):
			c.Close()
			return c, nil, true
		case key.Matches(msg, keys.Down):
			c.selected++
		case key.Matches(msg, keys.Up):
			c.selected--
		case key.Matches(msg, keys.Top):
			c.selected = 0
		case key.Matches(msg, keys.Bottom):
			c.selected = len(c.chapters) - 1
		case key.Matches(msg, keys.HalfPageDown), key.Matches(msg, keys.PageDown):
			c.selected += 10
		case key.Matches(msg, keys.HalfPageUp), key.Matches(msg, keys.PageUp):
			c.selected -= 10
		}
		c.selected = min(max(c.selected, 0), max(len(c.chapters)-1, 0))
	}
	return c, nil, false
}

// View implements Modal.
func (c *chaptersModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	modalWidth := min(max(width-8, 30), 90)
	inner := modalWidth - 4

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(truncate(c.entry.Name, inner)))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(c.subtitle()))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", inner)))
	b.WriteString("\n")

	switch {
	case c.entry.IsCustom():
		b.WriteString(styles.MutedText.Render("Custom entry, there is no source to read chapters from."))
	case c.loading:
		b.WriteString(styles.WarningText.Render("Loading chapters..."))
	default:
		c.writeNotices(&b, styles, inner)
		c.writeChapters(&b, theme, styles, inner, max(height-14, 3))
	}

	b.WriteString("\n\n")
	b.WriteString(styles.FaintText.Render("j/k move · esc close"))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Accent)).
		Padding(1, 2).
		Width(modalWidth).
		Render(b.String())

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}

func (c *chaptersModal) subtitle() string {
	source := c.entry.Source
	if c.record.Source != "" {
		source = c.record.Source
	}
	parts := []string{library.SourceLabel(source), c.entry.Status.String()}
	if c.entry.IsComposite() {
		parts = append(parts, "multi-source")
	}
	return strings.Join(parts, " · ")
}

func (c *chaptersModal) writeNotices(b *strings.Builder, styles Styles, width int) {
	switch {
	case c.exhausted():
		b.WriteString(styles.DangerText.Render("All sources failed. No chapters are available right now."))
		b.WriteString("\n")
	case c.err != nil:
		b.WriteString(styles.DangerText.Render(truncate("Could not load chapters: "+c.err.Error(), width)))
		b.WriteString("\n")
	}
	if c.fellBack {
		b.WriteString(styles.WarningText.Render("Current source failed, switched to " + library.SourceLabel(c.record.Source)))
		b.WriteString("\n")
	}
}

func (c *chaptersModal) writeChapters(b *strings.Builder, theme Theme, styles Styles, width, visible int) {
	if len(c.chapters) == 0 {
		if c.err == nil {
			b.WriteString(styles.MutedText.Render("No chapters released."))
		}
		return
	}

	offset := 0
	if c.selected >= visible {
		offset = c.selected - visible + 1
	}
	end := min(offset+visible, len(c.chapters))

	selectedStyle := lipgloss.NewStyle().
		Background(lipgloss.Color(theme.SelectionBg)).
		Foreground(lipgloss.Color(theme.SelectionText))

	lines := make([]string, 0, end-offset+1)
	for i := offset; i < end; i++ {
		line := c.formatChapter(c.chapters[i], width)
		switch {
		case i == c.selected:
			line = selectedStyle.Width(width).Render(line)
		case c.entry.LastConsumed.Label != "" && c.chapters[i].Label == c.entry.LastConsumed.Label:
			line = styles.SuccessText.Render(line)
		default:
			line = styles.Text.Render(line)
		}
		lines = append(lines, line)
	}
	lines = append(lines, styles.MutedText.Render(fmt.Sprintf("%d chapters", len(c.chapters))))
	b.WriteString(strings.Join(lines, "\n"))
}

// formatChapter renders "label  name  date" with an unknown date spelled out.
func (c *chaptersModal) formatChapter(ch library.Chapter, width int) string {
	date := "unknown"
	if ch.Known() {
		date = ch.UpdatedAt.Local().Format("2006-01-02")
	}
	label := padRight(truncate(chapterLabel(ch.Label), 10), 10)
	nameWidth := max(width-10-2-len(date)-2, 4)
	name := padRight(truncate(ch.Name, nameWidth), nameWidth)
	return label + "  " + name + "  " + date
}
