package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/mantle/internal/library"
)

const (
	statusColumnWidth = 13
	sourceColumnWidth = 16
)

// renderList renders the filtered collection inside a titled box.
func (m Model) renderList() string {
	styles := m.theme.Styles()
	contentHeight := max(m.height-chromeHeight, 3)

	if !m.snapshot.HasCollection {
		msg := styles.MutedText.Render("Waiting for the collection...")
		return lipgloss.Place(m.width, contentHeight, lipgloss.Center, lipgloss.Center, msg)
	}

	var content string
	if len(m.rows) == 0 {
		content = lipgloss.NewStyle().
			Foreground(lipgloss.Color(m.theme.Muted)).
			Background(lipgloss.Color(m.theme.FocusBg)).
			Render("No entries match")
	} else {
		content = m.renderRows(m.width-2, m.theme.FocusBg)
	}
	return m.renderTitledBox(m.listTitle(), content, m.width, contentHeight, true)
}

func (m Model) listTitle() string {
	title := fmt.Sprintf("%s · %d of %d", m.query.View, len(m.rows), len(m.snapshot.Entries))
	if m.query.Term != "" {
		title += fmt.Sprintf(" · %q", truncate(m.query.Term, 20))
	}
	return title
}

// renderRows renders the visible window of rows.
func (m Model) renderRows(width int, bgColor string) string {
	end := min(m.offset+m.listHeight(), len(m.rows))
	lines := make([]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		selected := i == m.selectedRow
		rowBg := bgColor
		if selected {
			rowBg = m.theme.SelectionBg
		}
		content := m.formatRow(m.rows[i], width, rowBg, selected)
		lines = append(lines, lipgloss.NewStyle().
			Background(lipgloss.Color(rowBg)).
			Width(width).
			Render(content))
	}
	return strings.Join(lines, "\n")
}

// formatRow formats one entry.
// Format: "● Name  read / released  Status  Source"
// Selected rows use SelectionText for every part to keep contrast.
func (m Model) formatRow(e library.Entry, width int, bgColor string, selected bool) string {
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles()

	marker := " "
	if e.Unread() {
		marker = "●"
	}
	progress := chapterLabel(e.LastConsumed.Label) + " / " + chapterLabel(e.LastReleased.Label)

	showSource := width >= LayoutSourceWidth
	source := library.SourceLabel(e.Source)
	if e.IsComposite() {
		source += " +"
	}

	fixed := 2 + len([]rune(progress)) + 2 + statusColumnWidth
	if showSource {
		fixed += sourceColumnWidth
	}
	nameWidth := max(width-fixed-2, 10)

	markerStyle := styles.InfoText
	nameStyle := styles.Text
	progressStyle := styles.MutedText
	statusStyle := styles.StatusStyle(e.Status)
	sourceStyle := styles.FaintText
	if selected {
		selText := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.SelectionText))
		markerStyle, nameStyle, progressStyle, statusStyle, sourceStyle = selText, selText, selText, selText, selText
	}

	row := bg.Render(marker, markerStyle) + bg.Space() +
		bg.Render(padRight(truncate(e.Name, nameWidth), nameWidth), nameStyle) + bg.Spaces(2) +
		bg.Render(progress, progressStyle) + bg.Spaces(2) +
		bg.Render(padRight(e.Status.String(), statusColumnWidth), statusStyle)
	if showSource {
		row += bg.Render(truncate(source, sourceColumnWidth), sourceStyle)
	}
	return row
}

// renderTitledBox renders content in a box with the title embedded in the top border.
// Frame style: ┌─── Title ───┐
func (m Model) renderTitledBox(title, content string, width, height int, focused bool) string {
	var borderColorStr, bgColorStr string
	if focused {
		borderColorStr = m.theme.BorderFocus
		bgColorStr = m.theme.FocusBg
	} else {
		borderColorStr = m.theme.Border
		bgColorStr = m.theme.SurfaceAlt
	}
	bg := NewBgStyle(bgColorStr)
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColorStr))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text))

	innerWidth := max(width-2, 0)
	title = truncate(title, max(innerWidth-4, 1))
	titleLen := lipgloss.Width(title)
	leftPad := max((innerWidth-titleLen-2)/2, 0)
	rightPad := max(innerWidth-titleLen-2-leftPad, 0)

	topBorder := bg.Render("┌", borderStyle) +
		bg.Render(strings.Repeat("─", leftPad), borderStyle) +
		bg.Render(" "+title+" ", titleStyle) +
		bg.Render(strings.Repeat("─", rightPad), borderStyle) +
		bg.Render("┐", borderStyle)

	bottomBorder := bg.Render("└", borderStyle) +
		bg.Render(strings.Repeat("─", innerWidth), borderStyle) +
		bg.Render("┘", borderStyle)

	contentStyle := lipgloss.NewStyle().Width(innerWidth).Background(lipgloss.Color(bgColorStr))
	contentLines := strings.Split(content, "\n")
	boxHeight := max(height-2, 0)

	lines := make([]string, 0, boxHeight)
	for i := 0; i < boxHeight; i++ {
		var line string
		if i < len(contentLines) {
			line = contentLines[i]
		}
		lines = append(lines,
			bg.Render("│", borderStyle)+
				contentStyle.Render(line)+
				bg.Render("│", borderStyle))
	}

	return topBorder + "\n" + strings.Join(lines, "\n") + "\n" + bottomBorder
}
