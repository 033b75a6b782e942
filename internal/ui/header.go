package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/five82/mantle/internal/library"
)

// renderHeader renders the status bar.
func (m Model) renderHeader() string {
	// Header uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	if !m.snapshot.HasCollection {
		return m.renderConnectingHeader(styles, bg)
	}
	return styles.Header.Width(m.width).Render(m.buildStatusContent(styles, bg))
}

// renderConnectingHeader shows the state before the first collection pull.
func (m Model) renderConnectingHeader(styles Styles, bg BgStyle) string {
	sep := bg.Spaces(2)

	if m.snapshot.LastError != nil {
		last := "soon"
		if !m.snapshot.LastUpdated.IsZero() {
			last = m.snapshot.LastUpdated.Format("15:04:05")
		}
		parts := []string{
			bg.Render("mantle", styles.Logo),
			bg.Render("MANTIUM "+classifyConnectionError(m.snapshot.LastError), styles.DangerText.Bold(true)),
			bg.Render("Retrying...", styles.WarningText.Bold(true)),
			bg.Render(last, styles.MutedText),
		}
		return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
	}

	return styles.Header.Width(m.width).Render(
		bg.Render("mantle", styles.Logo) + sep +
			bg.Render("Connecting to Mantium...", styles.WarningText.Bold(true)),
	)
}

// buildStatusContent builds the status bar content string.
func (m Model) buildStatusContent(styles Styles, bg BgStyle) string {
	compact := m.width < LayoutCompactWidth

	parts := []string{bg.Render("mantle", styles.Logo)}

	if m.snapshot.IsOffline() {
		parts = append(parts, bg.Render("● OFFLINE", styles.DangerText))
	} else {
		parts = append(parts, bg.Render("● ONLINE", styles.SuccessText))
	}

	unread := 0
	for _, e := range m.snapshot.Entries {
		if e.Unread() {
			unread++
		}
	}
	unreadStyle := styles.MutedText
	if unread > 0 {
		unreadStyle = styles.InfoText
	}
	parts = append(parts,
		bg.Render("Entries:", styles.MutedText)+bg.Space()+
			bg.Render(fmt.Sprintf("%d", len(m.snapshot.Entries)), styles.Text),
		bg.Render("Unread:", styles.MutedText)+bg.Space()+
			bg.Render(fmt.Sprintf("%d", unread), unreadStyle),
	)

	if ts := formatTimestamp(m.snapshot.LastSynced, time.Now()); ts != "" {
		label := "Synced"
		if compact {
			label = "S"
		}
		parts = append(parts, bg.Render(label+":", styles.MutedText)+bg.Space()+bg.Render(ts, styles.MutedText))
	}

	maxErr := 80
	if compact {
		maxErr = 40
	}

	if m.snapshot.LastError != nil {
		errText := truncate(m.snapshot.LastError.Error(), maxErr)
		parts = append(parts,
			bg.Render("ERROR", styles.DangerText.Bold(true))+bg.Space()+
				bg.Render(errText, styles.DangerText),
		)
	}

	if bgErr := m.snapshot.BackgroundError; strings.TrimSpace(bgErr.Message) != "" {
		text := truncate(bgErr.Message, maxErr)
		if !bgErr.Time.IsZero() {
			text = bgErr.Time.Local().Format("15:04") + " " + text
		}
		parts = append(parts,
			bg.Render("BACKEND", styles.WarningText.Bold(true))+bg.Space()+
				bg.Render(text, styles.WarningText),
		)
	}

	return bg.Join(parts, "  ")
}

// formatTimestamp formats a time with a relative indicator.
func formatTimestamp(ts, now time.Time) string {
	if ts.IsZero() {
		return ""
	}

	since := now.Sub(ts)
	out := ts.Format("15:04:05")

	switch {
	case since < time.Minute:
		out += " (now)"
	case since < time.Hour:
		out += fmt.Sprintf(" (%dm ago)", int(since.Minutes()))
	case since < 24*time.Hour:
		out += fmt.Sprintf(" (%dh ago)", int(since.Hours()))
	}
	return out
}

// classifyConnectionError returns a short description of the connection error.
func classifyConnectionError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, library.ErrTimeout) {
		return "TIMEOUT"
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"):
		return "TIMEOUT"
	default:
		return "ERROR"
	}
}

// renderCommandBar renders the command hints bar.
func (m Model) renderCommandBar() string {
	// Command bar uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	if m.searching {
		return styles.Header.Width(m.width).Render(
			m.search.View() + bg.Spaces(2) +
				bg.Render("enter", styles.AccentText) + bg.Sep(":") + bg.Render("Apply", styles.MutedText) + bg.Spaces(2) +
				bg.Render("esc", styles.AccentText) + bg.Sep(":") + bg.Render("Cancel", styles.MutedText),
		)
	}

	sortLabel := m.query.Sort.String()
	if m.query.Reverse {
		sortLabel += " ▲"
	} else {
		sortLabel += " ▼"
	}

	type cmd struct{ key, desc string }
	commands := []cmd{
		{"f", m.query.View.String()},
		{"s", sortLabel},
		{"r", "Reverse"},
		{"/", "Search"},
		{"enter", "Chapters"},
		{"j/k", "Navigate"},
		{"?", "More"},
	}

	colon := bg.Sep(":")
	segments := make([]string, 0, len(commands)+2)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}

	if m.query.Term != "" {
		segments = append(segments, bg.Render("/"+truncate(m.query.Term, 18), styles.AccentText))
	}

	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, bg.Spaces(2)))
}
