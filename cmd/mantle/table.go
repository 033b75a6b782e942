package main

import (
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/mantle/internal/library"
)

func renderEntryTable(entries []library.Entry) string {
	columns := []table.Column{
		{Title: "", Width: 1},
		{Title: "ID", Width: 6},
		{Title: "Name", Width: 40},
		{Title: "Status", Width: 13},
		{Title: "Read", Width: 8},
		{Title: "Latest", Width: 8},
		{Title: "Released", Width: 10},
		{Title: "Source", Width: 14},
	}

	rows := make([]table.Row, 0, len(entries))
	for _, e := range entries {
		marker := ""
		if e.Unread() {
			marker = "●"
		}
		source := library.SourceLabel(e.Source)
		if e.IsComposite() {
			source += " +"
		}
		rows = append(rows, table.Row{
			marker,
			strconv.Itoa(e.ID),
			e.Name,
			e.Status.String(),
			dash(e.LastConsumed.Label),
			dash(e.LastReleased.Label),
			formatDate(e.LastReleased),
			source,
		})
	}
	return newTable(columns, rows).View()
}

func renderChapterTable(chapters []library.Chapter, lastRead string) string {
	columns := []table.Column{
		{Title: "", Width: 1},
		{Title: "Chapter", Width: 10},
		{Title: "Name", Width: 48},
		{Title: "Released", Width: 10},
	}

	rows := make([]table.Row, 0, len(chapters))
	for _, ch := range chapters {
		marker := ""
		if lastRead != "" && ch.Label == lastRead {
			marker = "✓"
		}
		rows = append(rows, table.Row{marker, dash(ch.Label), ch.Name, formatDate(ch)})
	}
	return newTable(columns, rows).View()
}

func newTable(columns []table.Column, rows []table.Row) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(false),
		table.WithHeight(len(rows)+2),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.NoColor{}).
		Bold(false)
	t.SetStyles(s)
	return t
}

func formatDate(ch library.Chapter) string {
	if !ch.Known() {
		return "unknown"
	}
	return ch.UpdatedAt.Local().Format("2006-01-02")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
