package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/naveenspark/haven/pkg/domain"
)

// Shimmer animation for the HAVEN logo.
type shimmerTickMsg time.Time

func shimmerTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return shimmerTickMsg(t)
	})
}

// renderShimmerLogo renders "H A V E N" as a slow tide of light moving
// from deep teal (#173a3a) to soft aqua (#7dd3c0).
func renderShimmerLogo(frame int) string {
	const text = "HAVEN"
	n := len(text)
	t := float64(frame)

	var out strings.Builder
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n-1)

		phase := t*0.06 - x*2.4
		phase += math.Sin(t*0.017) * 1.5

		b := math.Sin(phase)*0.5 + 0.5
		b = math.Pow(b, 1.2)

		tide := math.Sin(t*0.025) * 0.1
		b = b*0.75 + tide + 0.2
		if b > 1.0 {
			b = 1.0
		} else if b < 0.05 {
			b = 0.05
		}

		// Deep:   (23, 58, 58)    #173a3a
		// Bright: (125, 211, 192) #7dd3c0
		r := clampByte(23 + b*(125-23))
		g := clampByte(58 + b*(211-58))
		bl := clampByte(58 + b*(192-58))

		s := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", r, g, bl)))
		out.WriteString(s.Render(string(text[i])))
		if i < n-1 {
			out.WriteString("  ")
		}
	}
	return out.String()
}

func clampByte(v float64) int {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return int(v)
}

var (
	// Base styles, haven neutral palette
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8a94a0"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e6ecef")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c2cad0"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#52606a"))

	// Help bar
	helpKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8a94a0"))

	helpLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#52606a"))

	// Search / accent
	searchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7dd3c0")).
			Bold(true)

	accentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5cc8b0"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7dd3c0"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d08770"))

	unreadStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f0b35a")).
			Bold(true)

	bookmarkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f0b35a"))

	sectionHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#62707a"))

	inputPromptStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#5cc8b0")).
				Bold(true)

	inputPlaceholderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#36424a"))

	selectedRowBg = lipgloss.NewStyle().Background(lipgloss.Color("#1c2a2e"))

	contentColors = map[domain.ContentType]lipgloss.Color{
		domain.ContentArticle:  lipgloss.Color("#88c0d0"),
		domain.ContentVideo:    lipgloss.Color("#b48ead"),
		domain.ContentExercise: lipgloss.Color("#a3be8c"),
	}

	notificationColors = map[domain.NotificationType]lipgloss.Color{
		domain.NotificationAppointment: lipgloss.Color("#88c0d0"),
		domain.NotificationMood:        lipgloss.Color("#a3be8c"),
		domain.NotificationComment:     lipgloss.Color("#b48ead"),
	}

	moodColors = map[string]lipgloss.Color{
		"great": lipgloss.Color("#a3be8c"),
		"good":  lipgloss.Color("#7dd3c0"),
		"okay":  lipgloss.Color("#ebcb8b"),
		"low":   lipgloss.Color("#d08770"),
		"bad":   lipgloss.Color("#bf616a"),
	}
)

// ContentStyle returns a bold style colored for the given content type.
func ContentStyle(t domain.ContentType) lipgloss.Style {
	if c, ok := contentColors[t]; ok {
		return lipgloss.NewStyle().Foreground(c).Bold(true)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#62707a")).Bold(true)
}

// NotificationStyle returns the color for a notification type.
func NotificationStyle(t domain.NotificationType) lipgloss.Style {
	if c, ok := notificationColors[t]; ok {
		return lipgloss.NewStyle().Foreground(c)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#8a94a0"))
}

// MoodStyle returns a bold style colored for a mood label.
func MoodStyle(mood string) lipgloss.Style {
	if c, ok := moodColors[mood]; ok {
		return lipgloss.NewStyle().Foreground(c).Bold(true)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#8a94a0")).Bold(true)
}

// helpEntry renders a single "key label" pair for help bars.
func helpEntry(key, label string) string {
	return helpKeyStyle.Render(key) + " " + helpLabelStyle.Render(label)
}

// helpBar joins entries into an indented help line.
func helpBar(entries ...string) string {
	return " " + strings.Join(entries, "  ")
}

// helpItem is a selectable link in the help overlay.
type helpItem struct {
	label string
	desc  string
	url   string
}

var helpItems = []helpItem{
	{"Crisis support", "findahelpline.com", "https://findahelpline.com"},
	{"Privacy Policy", "haven.app/privacy", "https://haven.app/privacy"},
	{"Terms of Service", "haven.app/terms", "https://haven.app/terms"},
	{"Website", "haven.app", "https://haven.app"},
}

// helpView renders the interactive help overlay with a cursor.
func helpView(cursor int) string {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#7dd3c0")).
		Bold(true).
		Render("H A V E N")

	notice := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Italic(true).
		Render("If you are in danger right now, call your local emergency number.")

	cmdStyle := lipgloss.NewStyle().Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	sectionStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)
	cursorStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7dd3c0"))
	linkDescStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)

	commands := []struct{ cmd, desc string }{
		{"haven", "Open the app (interactive TUI)"},
		{"haven login", "Sign in with email and password"},
		{"haven logout", "Clear your session"},
		{"haven notifications", "List, count and mark notifications"},
		{"haven mood log", "Log how you feel"},
		{"haven --version", "Show version"},
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n  %s\n\n  %s\n\n", title, notice)

	fmt.Fprintf(&b, "  %s\n", sectionStyle.Render("Commands"))
	for _, c := range commands {
		fmt.Fprintf(&b, "    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-20s", c.cmd)), descStyle.Render(c.desc))
	}

	fmt.Fprintf(&b, "\n  %s\n", sectionStyle.Render("Links (enter to open)"))
	for i, item := range helpItems {
		label := cmdStyle.Render(fmt.Sprintf("%-20s", item.label))
		prefix := "    "
		if i == cursor {
			label = cursorStyle.Render(fmt.Sprintf("%-20s", item.label))
			prefix = "  > "
		}
		fmt.Fprintf(&b, "%s%s  %s\n", prefix, label, linkDescStyle.Render(item.desc))
	}
	return b.String()
}
