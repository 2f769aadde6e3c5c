package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/naveenspark/haven/pkg/domain"
)

type fakeSession struct {
	mu     sync.Mutex
	authed bool
	epoch  uint64
}

func newSession() *fakeSession { return &fakeSession{authed: true, epoch: 1} }

func (s *fakeSession) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authed
}

func (s *fakeSession) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

func (s *fakeSession) logout() {
	s.mu.Lock()
	s.authed = false
	s.epoch++
	s.mu.Unlock()
}

// gate blocks a fake call until released. entered fires when the call
// reaches the gate.
type gate struct {
	entered chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}, 1), release: make(chan struct{})}
}

func (g *gate) wait(ctx context.Context) error {
	if g == nil {
		return nil
	}
	g.entered <- struct{}{}
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type fakeBookmarkAPI struct {
	mu         sync.Mutex
	server     []domain.Bookmark
	toggleErr  error
	listErr    error
	toggleGate *gate
	listGates  map[int]*gate
	lists      int
	toggles    int
}

func (f *fakeBookmarkAPI) ListBookmarks(ctx context.Context) ([]domain.Bookmark, error) {
	f.mu.Lock()
	f.lists++
	g := f.listGates[f.lists]
	snapshot := append([]domain.Bookmark(nil), f.server...)
	listErr := f.listErr
	f.mu.Unlock()

	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	if listErr != nil {
		return nil, listErr
	}
	return snapshot, nil
}

func (f *fakeBookmarkAPI) ToggleBookmark(ctx context.Context, t domain.ContentType, id domain.ID) error {
	f.mu.Lock()
	f.toggles++
	g := f.toggleGate
	f.mu.Unlock()

	if err := g.wait(ctx); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.toggleErr != nil {
		return f.toggleErr
	}
	key := domain.BookmarkKey{Type: t, ID: id}
	for i, bm := range f.server {
		if bm.Key().String() == key.String() {
			f.server = append(f.server[:i], f.server[i+1:]...)
			return nil
		}
	}
	f.server = append([]domain.Bookmark{serverBookmark(t, id)}, f.server...)
	return nil
}

func (f *fakeBookmarkAPI) toggleCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.toggles
}

func serverBookmark(t domain.ContentType, id domain.ID) domain.Bookmark {
	return domain.Bookmark{
		ContentType: t,
		ContentID:   id,
		Content: &domain.Content{
			ID:    id,
			Type:  t,
			Title: fmt.Sprintf("%s %s", t, id),
		},
	}
}

type fakeNotificationAPI struct {
	mu        sync.Mutex
	server    []domain.Notification
	count     *int
	markErr   error
	countErr  error
	markGate  *gate
	listGates map[int]*gate
	lists     int
	marks     int
}

func (f *fakeNotificationAPI) ListNotifications(ctx context.Context) ([]domain.Notification, error) {
	f.mu.Lock()
	f.lists++
	g := f.listGates[f.lists]
	snapshot := append([]domain.Notification(nil), f.server...)
	f.mu.Unlock()

	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (f *fakeNotificationAPI) UnreadCount(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.countErr != nil {
		return 0, f.countErr
	}
	if f.count != nil {
		return *f.count, nil
	}
	return domain.CountUnread(f.server), nil
}

func (f *fakeNotificationAPI) MarkNotificationRead(ctx context.Context, id domain.ID) error {
	return f.mark(ctx, func(n domain.Notification) bool { return n.ID.Equal(id) })
}

func (f *fakeNotificationAPI) MarkAllNotificationsRead(ctx context.Context) error {
	return f.mark(ctx, func(domain.Notification) bool { return true })
}

func (f *fakeNotificationAPI) mark(ctx context.Context, match func(domain.Notification) bool) error {
	f.mu.Lock()
	f.marks++
	g := f.markGate
	f.mu.Unlock()

	if err := g.wait(ctx); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	now := time.Now()
	for i := range f.server {
		if f.server[i].ReadAt == nil && match(f.server[i]) {
			f.server[i].ReadAt = &now
		}
	}
	return nil
}

func (f *fakeNotificationAPI) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists
}

func unread(id int64) domain.Notification {
	return domain.Notification{
		ID:        domain.IntID(id),
		Type:      domain.NotificationDefault,
		Message:   fmt.Sprintf("notification %d", id),
		CreatedAt: time.Now(),
	}
}
