package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/naveenspark/haven/internal/app"
	"github.com/naveenspark/haven/internal/boundary"
	"github.com/naveenspark/haven/internal/browser"
	"github.com/naveenspark/haven/internal/logger"
	"github.com/naveenspark/haven/pkg/domain"
)

type view int

const (
	viewLibrary view = iota
	viewSaved
	viewInbox
	viewMood
)

// chrome is header(2) + tabs(1) + status(1) + help(1).
const chrome = 5

// subscriptions holds the store channels for the lifetime of the program.
type subscriptions struct {
	bookmarks     <-chan struct{}
	notifications <-chan struct{}
	cancel        []func()
}

// App is the root Bubbletea model.
type App struct {
	svc        *app.App
	log        logger.Logger
	subs       *subscriptions
	view       view
	library    libraryModel
	saved      savedModel
	inbox      inboxModel
	mood       moodModel
	helpOpen   bool
	helpCursor int
	user       *domain.User
	unread     int
	signedOut  bool
	width      int
	height     int
	frame      int // logo shimmer animation frame
}

// NewApp creates the TUI over svc. A nil svc renders an empty app, which
// is what the tests drive.
func NewApp(svc *app.App, log logger.Logger) App {
	if log == nil {
		log = logger.Nop()
	}
	a := App{
		svc:     svc,
		log:     log,
		subs:    &subscriptions{},
		library: newLibraryModel(svc),
		saved:   newSavedModel(svc),
		inbox:   newInboxModel(svc),
		mood:    newMoodModel(svc),
	}
	if svc != nil {
		bch, bcancel := svc.Bookmarks.Subscribe()
		nch, ncancel := svc.Notifications.Subscribe()
		a.subs.bookmarks = bch
		a.subs.notifications = nch
		a.subs.cancel = []func(){bcancel, ncancel}
	}
	return a
}

// Close drops the store subscriptions.
func (a App) Close() {
	for _, cancel := range a.subs.cancel {
		cancel()
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		shimmerTickCmd(),
		a.library.Init(),
		a.loadUser(),
		refreshAllCmd(a.svc),
		waitFor(a.subs.bookmarks, bookmarksChangedMsg{}),
		waitFor(a.subs.notifications, notificationsChangedMsg{}),
	)
}

func (a App) loadUser() tea.Cmd {
	if a.svc == nil {
		return nil
	}
	svc := a.svc
	return func() tea.Msg {
		u, err := svc.Profile(context.Background())
		return userLoadedMsg{user: u, err: err}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		bodyMsg := tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - chrome}
		a.library, _ = a.library.Update(bodyMsg)
		a.saved, _ = a.saved.Update(bodyMsg)
		a.inbox, _ = a.inbox.Update(bodyMsg)
		a.mood, _ = a.mood.Update(bodyMsg)
		return a, nil

	case shimmerTickMsg:
		a.frame++
		a.library, _ = a.library.Update(msg)
		a.mood, _ = a.mood.Update(msg)
		return a, shimmerTickCmd()

	case userLoadedMsg:
		if msg.err != nil {
			a.log.Warn("profile load failed", logger.Error(msg.err))
			return a, nil
		}
		a.user = msg.user
		return a, nil

	case bookmarksChangedMsg:
		if a.svc == nil {
			return a, nil
		}
		a.checkSession()
		a = a.applyBookmarks(snapshotBookmarks(a.svc))
		return a, waitFor(a.subs.bookmarks, bookmarksChangedMsg{})

	case notificationsChangedMsg:
		if a.svc == nil {
			return a, nil
		}
		a.checkSession()
		a = a.applyNotifications(snapshotNotifications(a.svc))
		return a, waitFor(a.subs.notifications, notificationsChangedMsg{})

	case bookmarksSyncedMsg:
		return a.applyBookmarks(msg), nil

	case notificationsSyncedMsg:
		return a.applyNotifications(msg), nil

	case bookmarkToggledMsg:
		a.checkSession()
		var cmd tea.Cmd
		if a.view == viewSaved {
			a.saved, cmd = a.saved.Update(msg)
		} else {
			a.library, cmd = a.library.Update(msg)
		}
		return a, cmd

	case notificationsMarkedMsg:
		a.checkSession()
		var cmd tea.Cmd
		a.inbox, cmd = a.inbox.Update(msg)
		return a, cmd

	case contentLoadedMsg, copyResultMsg:
		var cmd tea.Cmd
		a.library, cmd = a.library.Update(msg)
		return a, cmd

	case moodsLoadedMsg, moodLoggedMsg:
		var cmd tea.Cmd
		a.mood, cmd = a.mood.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

		// Help overlay captures all keys when open
		if a.helpOpen {
			switch msg.String() {
			case "h", "esc":
				a.helpOpen = false
			case "q":
				return a, tea.Quit
			case "j", "down":
				if a.helpCursor < len(helpItems)-1 {
					a.helpCursor++
				}
			case "k", "up":
				if a.helpCursor > 0 {
					a.helpCursor--
				}
			case "enter":
				item := helpItems[a.helpCursor]
				if item.url != "" {
					if err := browser.Open(item.url); err != nil {
						a.log.Warn("open link failed", logger.String("url", item.url), logger.Error(err))
					}
				}
			}
			return a, nil
		}

		if !a.isEditing() {
			switch msg.String() {
			case "h", "?":
				a.helpOpen = true
				a.helpCursor = 0
				return a, nil
			case "q":
				return a, tea.Quit
			case "1":
				return a.switchTo(viewLibrary)
			case "2":
				return a.switchTo(viewSaved)
			case "3":
				return a.switchTo(viewInbox)
			case "4":
				return a.switchTo(viewMood)
			}
		}
	}

	var cmd tea.Cmd
	switch a.view {
	case viewLibrary:
		a.library, cmd = a.library.Update(msg)
	case viewSaved:
		a.saved, cmd = a.saved.Update(msg)
	case viewInbox:
		a.inbox, cmd = a.inbox.Update(msg)
	case viewMood:
		a.mood, cmd = a.mood.Update(msg)
	}
	return a, cmd
}

func (a App) switchTo(v view) (tea.Model, tea.Cmd) {
	if a.view == v {
		return a, nil
	}
	a.view = v
	switch v {
	case viewLibrary:
		if len(a.library.items) == 0 {
			return a, a.library.Init()
		}
	case viewMood:
		if len(a.mood.history) == 0 {
			return a, a.mood.Init()
		}
	}
	return a, nil
}

func (a App) applyBookmarks(msg bookmarksSyncedMsg) App {
	a.library, _ = a.library.Update(msg)
	a.saved, _ = a.saved.Update(msg)
	return a
}

func (a App) applyNotifications(msg notificationsSyncedMsg) App {
	a.unread = domain.CountUnread(msg.items)
	a.inbox, _ = a.inbox.Update(msg)
	return a
}

// checkSession notices a session that ended underneath the TUI.
func (a *App) checkSession() {
	if a.svc != nil && !a.svc.Authenticated() {
		a.signedOut = true
		a.user = nil
	}
}

func (a App) isEditing() bool {
	switch a.view {
	case viewLibrary:
		return a.library.editing
	case viewMood:
		return a.mood.logging
	}
	return false
}

func (a App) View() string {
	return boundary.Render("tui", a.log, a.render, func(err error) string {
		return "\n " + errorStyle.Render("display error: "+err.Error()) + "\n " + dimStyle.Render("press q to quit")
	})
}

func (a App) render() string {
	header := centered(renderShimmerLogo(a.frame), a.width)

	var parts []string
	if a.user != nil && a.user.Name != "" {
		parts = append(parts, normalStyle.Render(a.user.Name))
	}
	if a.unread > 0 {
		parts = append(parts, unreadStyle.Render(fmt.Sprintf("● %d unread", a.unread)))
	} else if a.svc != nil || a.user != nil {
		parts = append(parts, metaStyle.Render("○ all read"))
	}
	header += "\n" + centered(strings.Join(parts, metaStyle.Render(" · ")), a.width)

	type tabEntry struct {
		key  string
		name string
		v    view
	}
	tabs := []tabEntry{
		{"1", "Library", viewLibrary},
		{"2", "Saved", viewSaved},
		{"3", "Inbox", viewInbox},
		{"4", "Mood", viewMood},
	}

	colWidth := a.width / len(tabs)
	var tabBar strings.Builder
	for _, t := range tabs {
		var label string
		if t.v == a.view {
			label = accentStyle.Render(t.key) + " " + selectedStyle.Underline(true).Render(t.name)
		} else {
			label = metaStyle.Render(t.key) + " " + dimStyle.Render(t.name)
		}
		if t.v == viewInbox && a.unread > 0 {
			label += " " + unreadStyle.Render(fmt.Sprintf("%d", a.unread))
		}
		if t.v == viewSaved && len(a.saved.items) > 0 {
			label += " " + dimStyle.Render(fmt.Sprintf("%d", len(a.saved.items)))
		}
		labelWidth := lipgloss.Width(label)
		leftPad := max((colWidth-labelWidth)/2, 0)
		rightPad := max(colWidth-labelWidth-leftPad, 0)
		tabBar.WriteString(strings.Repeat(" ", leftPad) + label + strings.Repeat(" ", rightPad))
	}

	var body, help string
	switch a.view {
	case viewLibrary:
		body = a.library.View()
		switch {
		case a.library.editing:
			help = helpBar(helpEntry("enter", "search"), helpEntry("esc", "clear"))
		case a.library.detail:
			help = helpBar(helpEntry("1-4", "tabs"), helpEntry("b", "save"), helpEntry("c", "copy"), helpEntry("o", "open"), helpEntry("esc", "back"))
		default:
			help = helpBar(helpEntry("1-4", "tabs"), helpEntry("j/k", "nav"), helpEntry("/", "search"), helpEntry("t", "type"), helpEntry("b", "save"), helpEntry("n/p", "page"), helpEntry("h", "help"), helpEntry("q", "quit"))
		}
	case viewSaved:
		body = a.saved.View()
		help = helpBar(helpEntry("1-4", "tabs"), helpEntry("j/k", "nav"), helpEntry("x", "remove"), helpEntry("o", "open"), helpEntry("r", "refresh"), helpEntry("h", "help"), helpEntry("q", "quit"))
	case viewInbox:
		body = a.inbox.View()
		help = helpBar(helpEntry("1-4", "tabs"), helpEntry("j/k", "nav"), helpEntry("enter", "mark read"), helpEntry("a", "all read"), helpEntry("r", "refresh"), helpEntry("h", "help"), helpEntry("q", "quit"))
	case viewMood:
		body = a.mood.View()
		if a.mood.logging {
			help = helpBar(helpEntry("←/→", "mood"), helpEntry("enter", "save"), helpEntry("esc", "cancel"))
		} else {
			help = helpBar(helpEntry("1-4", "tabs"), helpEntry("m", "check in"), helpEntry("j/k", "scroll"), helpEntry("h", "help"), helpEntry("q", "quit"))
		}
	}

	if a.helpOpen {
		body = helpView(a.helpCursor)
		help = helpBar(helpEntry("j/k", "nav"), helpEntry("enter", "open"), helpEntry("esc", "close"))
	}

	status := ""
	if a.signedOut {
		status = " " + errorStyle.Render("session ended -- run: haven login")
	}

	body = strings.TrimRight(truncateToHeight(body, a.height-chrome), "\n")
	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s", header, tabBar.String(), body, status, help)
}

// centered pads s on the left to center it within width.
func centered(s string, width int) string {
	pad := max((width-lipgloss.Width(s))/2, 0)
	return strings.Repeat(" ", pad) + s
}
