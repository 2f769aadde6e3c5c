package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/haven/internal/app"
	"github.com/naveenspark/haven/pkg/domain"
)

type moodModel struct {
	svc       *app.App
	history   []domain.MoodEntry
	choice    int // index into domain.Moods
	note      string
	logging   bool // picker and note input are open
	saving    bool
	cursor    int
	loading   bool
	err       error
	width     int
	height    int
	statusMsg string
	frame     int
}

type moodsLoadedMsg struct {
	entries []domain.MoodEntry
	err     error
}

type moodLoggedMsg struct {
	entry *domain.MoodEntry
	err   error
}

func newMoodModel(svc *app.App) moodModel {
	return moodModel{svc: svc, choice: 2, loading: true}
}

func (m moodModel) Init() tea.Cmd {
	return m.load()
}

func (m moodModel) load() tea.Cmd {
	if m.svc == nil {
		return nil
	}
	c := m.svc.Client
	return func() tea.Msg {
		entries, err := c.ListMoods(context.Background())
		return moodsLoadedMsg{entries: entries, err: err}
	}
}

func (m moodModel) submit() tea.Cmd {
	if m.svc == nil {
		return nil
	}
	c := m.svc.Client
	mood := domain.Moods[m.choice]
	entry := domain.MoodEntry{
		Mood:  mood,
		Score: domain.DefaultMoodScore(mood),
		Note:  strings.TrimSpace(m.note),
	}
	return func() tea.Msg {
		saved, err := c.LogMood(context.Background(), entry)
		return moodLoggedMsg{entry: saved, err: err}
	}
}

func (m moodModel) Update(msg tea.Msg) (moodModel, tea.Cmd) {
	switch msg := msg.(type) {
	case moodsLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.history = msg.entries
		}
		if m.cursor >= len(m.history) {
			m.cursor = 0
		}
		return m, nil

	case moodLoggedMsg:
		m.saving = false
		if msg.err != nil {
			m.statusMsg = "could not log mood: " + errorText(msg.err)
			return m, nil
		}
		m.logging = false
		m.note = ""
		if msg.entry != nil {
			m.history = append([]domain.MoodEntry{*msg.entry}, m.history...)
			m.statusMsg = "logged " + msg.entry.Mood + ", thanks for checking in"
		}
		return m, nil

	case shimmerTickMsg:
		m.frame++
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		m.statusMsg = ""
		if m.logging {
			return m.updateLogging(msg)
		}
		switch msg.String() {
		case "j", "down":
			if m.cursor < len(m.history)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "m", "enter":
			m.logging = true
		case "r":
			m.loading = true
			return m, m.load()
		}
	}
	return m, nil
}

func (m moodModel) updateLogging(msg tea.KeyMsg) (moodModel, tea.Cmd) {
	if m.saving {
		return m, nil
	}
	switch msg.String() {
	case "esc":
		m.logging = false
		m.note = ""
	case "left", "shift+tab":
		if m.choice > 0 {
			m.choice--
		}
	case "right", "tab":
		if m.choice < len(domain.Moods)-1 {
			m.choice++
		}
	case "enter":
		m.saving = true
		return m, m.submit()
	default:
		m.note = editKey(m.note, msg)
	}
	return m, nil
}

func (m moodModel) View() string {
	var b strings.Builder

	if m.logging {
		b.WriteString(" " + sectionHeaderStyle.Render("HOW ARE YOU FEELING?") + "\n\n ")
		for i, mood := range domain.Moods {
			label := " " + mood + " "
			if i == m.choice {
				b.WriteString(MoodStyle(mood).Reverse(true).Render(label))
			} else {
				b.WriteString(dimStyle.Render(label))
			}
			b.WriteString(" ")
		}
		b.WriteString("\n\n ")
		b.WriteString(renderInput("note: ", m.note, "optional, enter to save", true, m.frame))
		b.WriteString("\n")
		if m.saving {
			b.WriteString("\n " + dimStyle.Render("saving..."))
		}
		if m.statusMsg != "" {
			b.WriteString("\n " + errorStyle.Render(m.statusMsg))
		}
		return b.String()
	}

	b.WriteString(" " + sectionHeaderStyle.Render("MOOD JOURNAL") + "  " + dimStyle.Render("press m to check in") + "\n")
	b.WriteString(separator(m.width))

	if m.statusMsg != "" {
		b.WriteString(" " + statusStyle.Render(m.statusMsg) + "\n")
	}
	if m.loading {
		b.WriteString(" " + dimStyle.Render("loading..."))
		return b.String()
	}
	if m.err != nil {
		b.WriteString(" " + errorStyle.Render("error: "+errorText(m.err)))
		return b.String()
	}
	if len(m.history) == 0 {
		b.WriteString(" " + dimStyle.Render("no check-ins yet"))
		return b.String()
	}

	visible := m.height - 4
	if visible < 3 {
		visible = 3
	}
	start := scrollStart(m.cursor, visible)
	for i := start; i < len(m.history) && i < start+visible; i++ {
		e := m.history[i]
		cursor := "  "
		if i == m.cursor {
			cursor = accentStyle.Render("▸") + " "
		}
		when := metaStyle.Render(fmt.Sprintf("%8s", formatTime(e.CreatedAt)))
		mood := MoodStyle(e.Mood).Render(fmt.Sprintf("%-6s", e.Mood))
		score := metaStyle.Render(fmt.Sprintf("%2d/10", e.Score))
		line := cursor + when + "  " + mood + " " + score
		if e.Note != "" {
			noteWidth := m.width - 30
			if noteWidth < 10 {
				noteWidth = 10
			}
			line += "  " + dimStyle.Render(truncStr(cleanTitle(e.Note), noteWidth))
		}
		if i == m.cursor {
			b.WriteString(highlightRow(line, m.width) + "\n")
		} else {
			b.WriteString(line + "\n")
		}
	}

	return truncateToHeight(b.String(), m.height)
}
