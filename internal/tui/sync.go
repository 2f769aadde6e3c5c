package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/haven/internal/app"
	"github.com/naveenspark/haven/internal/store"
	"github.com/naveenspark/haven/pkg/client"
	"github.com/naveenspark/haven/pkg/domain"
)

// Store change signals. Each one is re-armed after it is handled.
type bookmarksChangedMsg struct{}
type notificationsChangedMsg struct{}

// bookmarksSyncedMsg carries a snapshot of the bookmark store.
type bookmarksSyncedMsg struct {
	items   []domain.Bookmark
	loading bool
	failure *store.Failure
}

// notificationsSyncedMsg carries a snapshot of the notification store.
type notificationsSyncedMsg struct {
	items   []domain.Notification
	loading bool
	failure *store.Failure
}

// bookmarkToggledMsg reports the outcome of a toggle. added is what the
// toggle tried to do.
type bookmarkToggledMsg struct {
	key     domain.BookmarkKey
	added   bool
	ok      bool
	failure *store.Failure
}

// notificationsMarkedMsg reports the outcome of MarkRead or MarkAllRead.
type notificationsMarkedMsg struct {
	all     bool
	ok      bool
	failure *store.Failure
}

type userLoadedMsg struct {
	user *domain.User
	err  error
}

// waitFor blocks on a store subscription and turns the next signal into msg.
func waitFor(ch <-chan struct{}, msg tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return msg
	}
}

func snapshotBookmarks(svc *app.App) bookmarksSyncedMsg {
	return bookmarksSyncedMsg{
		items:   svc.Bookmarks.Items(),
		loading: svc.Bookmarks.Loading(),
		failure: svc.Bookmarks.LastError(),
	}
}

func snapshotNotifications(svc *app.App) notificationsSyncedMsg {
	return notificationsSyncedMsg{
		items:   svc.Notifications.Items(),
		loading: svc.Notifications.Loading(),
		failure: svc.Notifications.LastError(),
	}
}

func refreshAllCmd(svc *app.App) tea.Cmd {
	if svc == nil {
		return nil
	}
	return func() tea.Msg {
		svc.RefreshAll(context.Background())
		return nil
	}
}

func refreshBookmarksCmd(svc *app.App) tea.Cmd {
	if svc == nil {
		return nil
	}
	return func() tea.Msg {
		svc.Bookmarks.Refresh(context.Background())
		return nil
	}
}

func refreshNotificationsCmd(svc *app.App) tea.Cmd {
	if svc == nil {
		return nil
	}
	return func() tea.Msg {
		svc.Notifications.Refresh(context.Background())
		return nil
	}
}

func toggleBookmarkCmd(svc *app.App, key domain.BookmarkKey, added bool) tea.Cmd {
	if svc == nil {
		return nil
	}
	return func() tea.Msg {
		ok := svc.Bookmarks.Toggle(context.Background(), key.Type, key.ID)
		msg := bookmarkToggledMsg{key: key, added: added, ok: ok}
		if !ok {
			msg.failure = svc.Bookmarks.LastError()
		}
		return msg
	}
}

func markReadCmd(svc *app.App, id domain.ID) tea.Cmd {
	if svc == nil {
		return nil
	}
	return func() tea.Msg {
		ok := svc.Notifications.MarkRead(context.Background(), id)
		msg := notificationsMarkedMsg{ok: ok}
		if !ok {
			msg.failure = svc.Notifications.LastError()
		}
		return msg
	}
}

func markAllReadCmd(svc *app.App) tea.Cmd {
	if svc == nil {
		return nil
	}
	return func() tea.Msg {
		ok := svc.Notifications.MarkAllRead(context.Background())
		msg := notificationsMarkedMsg{all: true, ok: ok}
		if !ok {
			msg.failure = svc.Notifications.LastError()
		}
		return msg
	}
}

// failureText turns a store failure into a one-line status.
func failureText(f *store.Failure) string {
	if f == nil {
		return "something went wrong"
	}
	switch {
	case errors.Is(f.Err, store.ErrBusy):
		return "still working on that, try again in a moment"
	case errors.Is(f.Err, store.ErrUnauthenticated), f.Kind == client.KindAuth:
		return "not logged in -- run: haven login"
	case f.Kind == client.KindNetwork:
		return "offline -- changes were not saved"
	}
	return errorText(f.Err)
}

// errorText formats an API error for the status line.
func errorText(err error) string {
	if err == nil {
		return ""
	}
	var he *client.HTTPError
	if errors.As(err, &he) && he.Message != "" {
		return he.Message
	}
	return err.Error()
}
