package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/naveenspark/haven/internal/app"
	"github.com/naveenspark/haven/internal/store"
	"github.com/naveenspark/haven/pkg/domain"
)

// inboxModel shows notifications from the notification store. The store is
// kept fresh by the background poller, so the view never polls itself.
type inboxModel struct {
	svc       *app.App
	items     []domain.Notification
	loading   bool
	failure   *store.Failure
	cursor    int
	width     int
	height    int
	statusMsg string
}

func newInboxModel(svc *app.App) inboxModel {
	return inboxModel{svc: svc}
}

func (m inboxModel) Init() tea.Cmd {
	return refreshNotificationsCmd(m.svc)
}

func (m inboxModel) unread() int {
	return domain.CountUnread(m.items)
}

func (m inboxModel) Update(msg tea.Msg) (inboxModel, tea.Cmd) {
	switch msg := msg.(type) {
	case notificationsSyncedMsg:
		m.items = msg.items
		m.loading = msg.loading
		m.failure = msg.failure
		if m.cursor >= len(m.items) {
			m.cursor = max(len(m.items)-1, 0)
		}
		return m, nil

	case notificationsMarkedMsg:
		switch {
		case !msg.ok:
			m.statusMsg = failureText(msg.failure)
		case msg.all:
			m.statusMsg = "all caught up"
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		m.statusMsg = ""
		switch msg.String() {
		case "j", "down":
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "enter", "m":
			if m.cursor < len(m.items) && m.items[m.cursor].Unread() {
				return m, markReadCmd(m.svc, m.items[m.cursor].ID)
			}
		case "a":
			if m.unread() == 0 {
				m.statusMsg = "nothing unread"
				return m, nil
			}
			return m, markAllReadCmd(m.svc)
		case "r":
			m.loading = true
			return m, refreshNotificationsCmd(m.svc)
		}
	}
	return m, nil
}

func (m inboxModel) View() string {
	var b strings.Builder

	// Legend line, centered
	var legend strings.Builder
	legend.WriteString(NotificationStyle(domain.NotificationAppointment).Render("●") + " " + dimStyle.Render("appointment"))
	legend.WriteString("   ")
	legend.WriteString(NotificationStyle(domain.NotificationMood).Render("●") + " " + dimStyle.Render("mood"))
	legend.WriteString("   ")
	legend.WriteString(NotificationStyle(domain.NotificationComment).Render("●") + " " + dimStyle.Render("comment"))
	legend.WriteString("   ")
	legend.WriteString(NotificationStyle(domain.NotificationDefault).Render("●") + " " + dimStyle.Render("other"))
	legendStr := legend.String()
	pad := (m.width - lipgloss.Width(legendStr)) / 2
	if pad < 0 {
		pad = 0
	}
	b.WriteString(strings.Repeat(" ", pad) + legendStr + "\n")
	b.WriteString(separator(m.width))

	if m.statusMsg != "" {
		b.WriteString(" " + statusStyle.Render(m.statusMsg) + "\n")
	} else if m.failure != nil {
		b.WriteString(" " + errorStyle.Render(failureText(m.failure)) + "\n")
	}

	if len(m.items) == 0 {
		if m.loading {
			b.WriteString(" " + dimStyle.Render("loading notifications..."))
		} else {
			b.WriteString(" " + dimStyle.Render("no notifications"))
		}
		return b.String()
	}

	maxLines := m.height - 3
	if maxLines < 5 {
		maxLines = 10
	}
	bodyWidth := m.width - 15
	if bodyWidth < 20 {
		bodyWidth = 20
	}
	indent := strings.Repeat(" ", 15)

	linesUsed := 0
	for i := scrollStart(m.cursor, maxLines/2); i < len(m.items) && linesUsed < maxLines; i++ {
		n := m.items[i]

		bar := NotificationStyle(n.Type).Render("│")
		marker := " "
		textStyle := dimStyle
		if n.Unread() {
			marker = unreadStyle.Render("•")
			textStyle = normalStyle
		}
		cursor := " "
		if i == m.cursor {
			cursor = accentStyle.Render("▸")
			textStyle = textStyle.Bold(true)
		}

		msgText := n.Message
		if msgText == "" {
			msgText = string(n.Type) + " notification"
		}
		lines, _ := wrapLines(msgText, bodyWidth, 3)
		prefix := cursor + metaStyle.Render(fmt.Sprintf("%8s", formatTime(n.CreatedAt))) + " " + marker + " " + bar + "  "
		b.WriteString(prefix + textStyle.Render(lines[0]) + "\n")
		linesUsed++
		for _, l := range lines[1:] {
			b.WriteString(indent + textStyle.Render(l) + "\n")
			linesUsed++
		}
	}

	return truncateToHeight(b.String(), m.height)
}
