package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/haven/internal/app"
	"github.com/naveenspark/haven/internal/browser"
	"github.com/naveenspark/haven/pkg/domain"
)

type libraryModel struct {
	svc       *app.App
	kind      domain.ContentType
	items     []domain.Content
	marked    map[string]bool // bookmark keys
	cursor    int
	page      int
	search    string
	editing   bool // true when typing in search
	detail    bool
	err       error
	width     int
	height    int
	loading   bool
	statusMsg string
	frame     int
}

type contentLoadedMsg struct {
	kind  domain.ContentType
	page  int
	items []domain.Content
	err   error
}

type copyResultMsg struct{ err error }

type openResultMsg struct{ err error }

func newLibraryModel(svc *app.App) libraryModel {
	return libraryModel{
		svc:     svc,
		kind:    domain.ContentArticle,
		page:    1,
		marked:  map[string]bool{},
		loading: true,
	}
}

func (m libraryModel) Init() tea.Cmd {
	return m.load()
}

func (m libraryModel) load() tea.Cmd {
	if m.svc == nil {
		return nil
	}
	c := m.svc.Client
	kind, search, page := m.kind, m.search, m.page
	return func() tea.Msg {
		items, err := c.ListContent(context.Background(), kind, search, page)
		return contentLoadedMsg{kind: kind, page: page, items: items, err: err}
	}
}

func (m libraryModel) Update(msg tea.Msg) (libraryModel, tea.Cmd) {
	switch msg := msg.(type) {
	case contentLoadedMsg:
		if msg.kind != m.kind || msg.page != m.page {
			return m, nil
		}
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.items = msg.items
		}
		if m.cursor >= len(m.items) {
			m.cursor = 0
		}
		return m, nil

	case bookmarksSyncedMsg:
		marked := make(map[string]bool, len(msg.items))
		for _, b := range msg.items {
			marked[b.Key().String()] = true
		}
		m.marked = marked
		return m, nil

	case bookmarkToggledMsg:
		switch {
		case !msg.ok:
			m.statusMsg = failureText(msg.failure)
		case msg.added:
			m.statusMsg = "saved"
		default:
			m.statusMsg = "removed from saved"
		}
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("copy failed: %v", msg.err)
		} else {
			m.statusMsg = "copied!"
		}
		return m, nil

	case openResultMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("open failed: %v", msg.err)
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
		if m.editing {
			return m.updateSearch(msg)
		}
		if m.detail {
			return m.updateDetail(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m libraryModel) updateSearch(msg tea.KeyMsg) (libraryModel, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.editing = false
		m.page = 1
		m.loading = true
		return m, m.load()
	case "esc":
		m.editing = false
		m.search = ""
		m.page = 1
		m.loading = true
		return m, m.load()
	default:
		m.search = editKey(m.search, msg)
	}
	return m, nil
}

func (m libraryModel) updateList(msg tea.KeyMsg) (libraryModel, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "enter":
		if len(m.items) > 0 {
			m.detail = true
		}
	case "/":
		m.editing = true
		m.search = ""
	case "t":
		m.kind = nextContentType(m.kind)
		m.cursor = 0
		m.page = 1
		m.loading = true
		return m, m.load()
	case "n":
		if len(m.items) > 0 {
			m.page++
			m.cursor = 0
			m.loading = true
			return m, m.load()
		}
	case "p":
		if m.page > 1 {
			m.page--
			m.cursor = 0
			m.loading = true
			return m, m.load()
		}
	case "r":
		m.loading = true
		return m, m.load()
	default:
		return m.updateItem(msg)
	}
	return m, nil
}

func (m libraryModel) updateDetail(msg tea.KeyMsg) (libraryModel, tea.Cmd) {
	if msg.String() == "esc" {
		m.detail = false
		return m, nil
	}
	return m.updateItem(msg)
}

// updateItem handles the actions on the selected item shared by the list
// and detail views.
func (m libraryModel) updateItem(msg tea.KeyMsg) (libraryModel, tea.Cmd) {
	item, ok := m.selected()
	if !ok {
		return m, nil
	}
	switch msg.String() {
	case "b":
		key := domain.BookmarkKey{Type: m.kind, ID: item.ID}
		return m, toggleBookmarkCmd(m.svc, key, !m.marked[key.String()])
	case "c":
		text := item.Title
		if item.URL != "" {
			text += "\n" + item.URL
		}
		return m, func() tea.Msg {
			return copyResultMsg{err: clipboard.WriteAll(text)}
		}
	case "o":
		if item.URL == "" {
			m.statusMsg = "no link for this " + string(m.kind)
			return m, nil
		}
		url := item.URL
		return m, func() tea.Msg {
			return openResultMsg{err: browser.Open(url)}
		}
	}
	return m, nil
}

func (m libraryModel) selected() (domain.Content, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return domain.Content{}, false
	}
	return m.items[m.cursor], true
}

func (m libraryModel) isMarked(c domain.Content) bool {
	return m.marked[domain.BookmarkKey{Type: m.kind, ID: c.ID}.String()]
}

func nextContentType(t domain.ContentType) domain.ContentType {
	for i, ct := range domain.ContentTypes {
		if ct == t {
			return domain.ContentTypes[(i+1)%len(domain.ContentTypes)]
		}
	}
	return domain.ContentTypes[0]
}

func (m libraryModel) View() string {
	if m.detail {
		return m.viewDetail()
	}

	var b strings.Builder

	if m.editing || m.search != "" {
		b.WriteString(" " + renderInput("/ ", m.search, "", m.editing, m.frame))
	} else {
		b.WriteString(" " + dimStyle.Render("/ search..."))
	}

	// Type toggle: [articles] [videos] [exercises]
	b.WriteString("   ")
	for i, ct := range domain.ContentTypes {
		if i > 0 {
			b.WriteString(" ")
		}
		label := "[" + ct.Plural() + "]"
		if ct == m.kind {
			b.WriteString(ContentStyle(ct).Render(label))
		} else {
			b.WriteString(dimStyle.Render(label))
		}
	}
	b.WriteString("  " + helpKeyStyle.Render("t"))
	if m.page > 1 {
		b.WriteString("  " + metaStyle.Render(fmt.Sprintf("page %d", m.page)))
	}
	b.WriteString("\n")
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
	if len(m.items) == 0 {
		b.WriteString(" " + dimStyle.Render("no "+m.kind.Plural()+" found"))
		return b.String()
	}

	available := m.height - 4
	if available < 6 {
		available = 6
	}
	maxVisible := available * 3 / 5
	if maxVisible < 3 {
		maxVisible = 3
	}

	start := scrollStart(m.cursor, maxVisible)
	for i := start; i < len(m.items) && i < start+maxVisible; i++ {
		item := m.items[i]

		cursor := "  "
		titleStyle := dimStyle
		if i == m.cursor {
			cursor = accentStyle.Render("▸") + " "
			titleStyle = normalStyle.Bold(true)
		}

		mark := "  "
		if m.isMarked(item) {
			mark = bookmarkStyle.Render("★") + " "
		}

		right := ""
		rightWidth := 0
		if item.ReadTime > 0 && m.width >= 50 {
			right = metaStyle.Render(fmt.Sprintf("%3d min", item.ReadTime))
			rightWidth = 8
		}

		titleWidth := m.width - 5 - rightWidth
		if titleWidth < 10 {
			titleWidth = 10
		}
		title := truncStr(cleanTitle(item.Title), titleWidth)
		line := cursor + mark + titleStyle.Render(fmt.Sprintf("%-*s", titleWidth, title)) + " " + right
		if i == m.cursor {
			b.WriteString(highlightRow(line, m.width) + "\n")
		} else {
			b.WriteString(line + "\n")
		}
	}

	// Preview of the selected item
	if item, ok := m.selected(); ok && item.Description != "" {
		b.WriteString("\n")
		maxLines := available - maxVisible - 1
		lines, more := wrapLines(item.Description, m.width-4, maxLines)
		for _, line := range lines {
			b.WriteString(" " + normalStyle.Render(line) + "\n")
		}
		if more > 0 {
			b.WriteString(" " + metaStyle.Render(fmt.Sprintf("… %d more lines (enter to read)", more)) + "\n")
		}
	}

	return truncateToHeight(b.String(), m.height)
}

func (m libraryModel) viewDetail() string {
	item, ok := m.selected()
	if !ok {
		return ""
	}

	var b strings.Builder
	b.WriteString(" " + dimStyle.Render("<- back (esc)") + "\n")
	title := selectedStyle.Render(cleanTitle(item.Title))
	if m.isMarked(item) {
		title += " " + bookmarkStyle.Render("★ saved")
	}
	b.WriteString(" " + title + "\n")

	meta := " " + ContentStyle(m.kind).Render(string(m.kind))
	if item.Category != "" {
		meta += metaStyle.Render(" · " + item.Category)
	}
	if item.ReadTime > 0 {
		meta += metaStyle.Render(fmt.Sprintf(" · %d min", item.ReadTime))
	}
	b.WriteString(meta + "\n\n")

	if item.Description != "" {
		lines, _ := wrapLines(item.Description, m.width-4, 0)
		for _, line := range lines {
			b.WriteString(" " + normalStyle.Render(line) + "\n")
		}
	}
	if item.URL != "" {
		b.WriteString("\n " + metaStyle.Render(item.URL) + "\n")
	}
	if m.statusMsg != "" {
		b.WriteString("\n " + statusStyle.Render(m.statusMsg) + "\n")
	}

	return truncateToHeight(b.String(), m.height)
}
