package store

import (
	"context"
	"sync"
	"time"

	"github.com/naveenspark/haven/internal/logger"
	"github.com/naveenspark/haven/pkg/domain"
)

// NotificationAPI is the slice of the API client the notification store uses.
type NotificationAPI interface {
	ListNotifications(ctx context.Context) ([]domain.Notification, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkNotificationRead(ctx context.Context, id domain.ID) error
	MarkAllNotificationsRead(ctx context.Context) error
}

// Notifications is the user's inbox. The unread count is derived from the
// loaded items, so it always matches them and is never negative.
type Notifications struct {
	api NotificationAPI
	c   *collection[domain.Notification]

	mu        sync.Mutex
	lastCount int // server count at the last settled poll
	counted   bool
}

// NewNotifications creates an empty notification store.
func NewNotifications(api NotificationAPI, sess Session, log logger.Logger) *Notifications {
	return &Notifications{
		api: api,
		c:   newCollection[domain.Notification]("notifications", sess, log),
	}
}

// Refresh replaces the notifications with the server's list.
func (n *Notifications) Refresh(ctx context.Context) bool {
	return n.c.refresh(ctx, "notifications.refresh", n.api.ListNotifications)
}

// SyncUnreadCount asks the server for its unread count and reloads the
// list when the count disagrees with the loaded items. A paginated list
// never holds every unread item, so a disagreement that persists between
// polls with an unchanged server count is not reloaded again. Used by the
// poller.
func (n *Notifications) SyncUnreadCount(ctx context.Context) bool {
	var count int
	ok := n.c.call(ctx, "notifications.unread-count", func(ctx context.Context) error {
		var err error
		count, err = n.api.UnreadCount(ctx)
		return err
	})
	if !ok {
		return false
	}
	if n.c.hasPending() {
		return true
	}
	n.mu.Lock()
	last, counted := n.lastCount, n.counted
	n.mu.Unlock()

	if local := n.UnreadCount(); count != local && (!counted || count != last) {
		n.c.log.Debug("unread count drifted, reloading",
			logger.Int("server", count),
			logger.Int("local", local))
		if !n.Refresh(ctx) {
			return false
		}
	}
	n.mu.Lock()
	n.lastCount, n.counted = count, true
	n.mu.Unlock()
	return true
}

// MarkRead marks one notification read immediately and reverts it if the
// server call fails.
func (n *Notifications) MarkRead(ctx context.Context, id domain.ID) bool {
	stamp := n.stamp()
	match := func(x domain.Notification) bool { return x.ID.Equal(id) }
	return n.c.mutate(ctx, "notifications.mark-read", "notification:"+id.Canonical(),
		func([]domain.Notification) pendingOp[domain.Notification] {
			return readOp(stamp, match)
		},
		func(ctx context.Context) error { return n.api.MarkNotificationRead(ctx, id) })
}

// MarkAllRead marks every notification read immediately and reverts the
// ones it changed if the server call fails.
func (n *Notifications) MarkAllRead(ctx context.Context) bool {
	stamp := n.stamp()
	all := func(domain.Notification) bool { return true }
	return n.c.mutate(ctx, "notifications.mark-all-read", wildcardKey,
		func([]domain.Notification) pendingOp[domain.Notification] {
			return readOp(stamp, all)
		},
		n.api.MarkAllNotificationsRead)
}

// UnreadCount is the number of loaded notifications without a read time.
func (n *Notifications) UnreadCount() int {
	var count int
	n.c.read(func(items []domain.Notification) { count = domain.CountUnread(items) })
	return count
}

// Items returns a copy of the notifications, newest first.
func (n *Notifications) Items() []domain.Notification { return n.c.snapshot() }

// Loading reports whether a refresh is in flight.
func (n *Notifications) Loading() bool { return n.c.isLoading() }

// LastError returns the most recent swallowed failure, or nil.
func (n *Notifications) LastError() *Failure { return n.c.lastError() }

// Subscribe returns a change signal and a cancel func.
func (n *Notifications) Subscribe() (<-chan struct{}, func()) { return n.c.subscribe() }

// OnAuthFailure registers fn to run when the server rejects the session.
func (n *Notifications) OnAuthFailure(fn func()) { n.c.setAuthHandler(fn) }

// Clear empties the store. Calls still in flight will not touch it.
func (n *Notifications) Clear() {
	n.c.clear()
	n.mu.Lock()
	n.lastCount, n.counted = 0, false
	n.mu.Unlock()
}

func (n *Notifications) stamp() *time.Time {
	t := n.c.now()
	return &t
}

// readOp stamps unread notifications matching match. Undo clears only the
// stamps this op set, so a read time that came from the server survives.
func readOp(stamp *time.Time, match func(domain.Notification) bool) pendingOp[domain.Notification] {
	return pendingOp[domain.Notification]{
		apply: func(items []domain.Notification) []domain.Notification {
			for i := range items {
				if items[i].ReadAt == nil && match(items[i]) {
					items[i].ReadAt = stamp
				}
			}
			return items
		},
		undo: func(items []domain.Notification) []domain.Notification {
			for i := range items {
				if items[i].ReadAt == stamp {
					items[i].ReadAt = nil
				}
			}
			return items
		},
	}
}
