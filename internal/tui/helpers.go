package tui

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

// formatTime renders a relative timestamp for list rows.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("Jan 2")
	}
}

// truncStr truncates a string to maxLen runes, appending an ellipsis if needed.
func truncStr(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	if maxLen < 1 {
		return ""
	}
	runes := []rune(s)
	return string(runes[:maxLen-1]) + "…"
}

// cleanTitle strips markdown headers and collapses whitespace so list rows
// show a single readable line.
func cleanTitle(raw string) string {
	s := strings.ReplaceAll(raw, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	for strings.HasPrefix(s, "#") {
		s = strings.TrimLeft(s, "#")
		s = strings.TrimLeft(s, " ")
	}
	return strings.Join(strings.Fields(s), " ")
}

// separator renders a full-width rule.
func separator(width int) string {
	w := width - 2
	if w < 4 {
		w = 4
	}
	return " " + metaStyle.Render(strings.Repeat("─", w)) + "\n"
}

// highlightRow pads a selected row to the full width and paints it.
func highlightRow(line string, width int) string {
	padded := line + strings.Repeat(" ", max(width-lipgloss.Width(line), 0))
	return selectedRowBg.Render(padded)
}

// wrapLines wraps text to width and returns at most maxLines lines.
// maxLines <= 0 means no limit.
func wrapLines(text string, width, maxLines int) ([]string, int) {
	if width < 20 {
		width = 20
	}
	lines := strings.Split(lipgloss.NewStyle().Width(width).Render(text), "\n")
	if maxLines > 0 && len(lines) > maxLines {
		return lines[:maxLines], len(lines) - maxLines
	}
	return lines, 0
}

// scrollStart returns the first visible index so cursor stays in a window
// of size visible.
func scrollStart(cursor, visible int) int {
	if visible < 1 || cursor < visible {
		return 0
	}
	return cursor - visible + 1
}
