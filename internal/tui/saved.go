package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/haven/internal/app"
	"github.com/naveenspark/haven/internal/browser"
	"github.com/naveenspark/haven/internal/store"
	"github.com/naveenspark/haven/pkg/domain"
)

// savedModel lists the user's bookmarks straight from the bookmark store.
type savedModel struct {
	svc       *app.App
	items     []domain.Bookmark
	loading   bool
	failure   *store.Failure
	cursor    int
	width     int
	height    int
	statusMsg string
}

func newSavedModel(svc *app.App) savedModel {
	return savedModel{svc: svc}
}

func (m savedModel) Init() tea.Cmd {
	return refreshBookmarksCmd(m.svc)
}

func (m savedModel) Update(msg tea.Msg) (savedModel, tea.Cmd) {
	switch msg := msg.(type) {
	case bookmarksSyncedMsg:
		m.items = msg.items
		m.loading = msg.loading
		m.failure = msg.failure
		if m.cursor >= len(m.items) {
			m.cursor = max(len(m.items)-1, 0)
		}
		return m, nil

	case bookmarkToggledMsg:
		switch {
		case !msg.ok:
			m.statusMsg = failureText(msg.failure)
		case !msg.added:
			m.statusMsg = "removed"
		}
		return m, nil

	case openResultMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("open failed: %v", msg.err)
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
		case "x", "b":
			if bm, ok := m.selected(); ok {
				return m, toggleBookmarkCmd(m.svc, bm.Key(), false)
			}
		case "o":
			bm, ok := m.selected()
			if !ok {
				return m, nil
			}
			if bm.Content == nil || bm.Content.URL == "" {
				m.statusMsg = "no link for this bookmark"
				return m, nil
			}
			url := bm.Content.URL
			return m, func() tea.Msg {
				return openResultMsg{err: browser.Open(url)}
			}
		case "r":
			m.loading = true
			return m, refreshBookmarksCmd(m.svc)
		}
	}
	return m, nil
}

func (m savedModel) selected() (domain.Bookmark, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return domain.Bookmark{}, false
	}
	return m.items[m.cursor], true
}

func (m savedModel) View() string {
	var b strings.Builder

	header := " " + sectionHeaderStyle.Render(fmt.Sprintf("SAVED (%d)", len(m.items)))
	if m.loading {
		header += "  " + metaStyle.Render("syncing...")
	}
	b.WriteString(header + "\n")
	b.WriteString(separator(m.width))

	if m.statusMsg != "" {
		b.WriteString(" " + statusStyle.Render(m.statusMsg) + "\n")
	} else if m.failure != nil {
		b.WriteString(" " + errorStyle.Render(failureText(m.failure)) + "\n")
	}

	if len(m.items) == 0 {
		if m.loading {
			b.WriteString(" " + dimStyle.Render("loading..."))
		} else {
			b.WriteString(" " + dimStyle.Render("nothing saved yet -- press b on anything in the library"))
		}
		return b.String()
	}

	visible := m.height - 6
	if visible < 3 {
		visible = 3
	}
	start := scrollStart(m.cursor, visible)
	for i := start; i < len(m.items) && i < start+visible; i++ {
		bm := m.items[i]

		cursor := "  "
		titleStyle := dimStyle
		if i == m.cursor {
			cursor = accentStyle.Render("▸") + " "
			titleStyle = normalStyle.Bold(true)
		}
		dot := ContentStyle(bm.ContentType).Render("●") + " "

		right := metaStyle.Render(fmt.Sprintf("%-9s", bm.ContentType))
		if bm.Content == nil {
			right = metaStyle.Render("saving...")
		}

		titleWidth := m.width - 16
		if titleWidth < 10 {
			titleWidth = 10
		}
		title := truncStr(cleanTitle(bm.Title()), titleWidth)
		line := cursor + dot + titleStyle.Render(fmt.Sprintf("%-*s", titleWidth, title)) + " " + right
		if i == m.cursor {
			b.WriteString(highlightRow(line, m.width) + "\n")
		} else {
			b.WriteString(line + "\n")
		}
	}

	if bm, ok := m.selected(); ok && bm.Content != nil && bm.Content.Description != "" {
		b.WriteString("\n")
		lines, _ := wrapLines(bm.Content.Description, m.width-4, 3)
		for _, line := range lines {
			b.WriteString(" " + normalStyle.Render(line) + "\n")
		}
	}

	return truncateToHeight(b.String(), m.height)
}
