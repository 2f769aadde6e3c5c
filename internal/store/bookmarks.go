package store

import (
	"context"
	"fmt"
	"slices"

	"github.com/naveenspark/haven/internal/logger"
	"github.com/naveenspark/haven/pkg/client"
	"github.com/naveenspark/haven/pkg/domain"
)

// BookmarkAPI is the slice of the API client the bookmark store uses.
type BookmarkAPI interface {
	ListBookmarks(ctx context.Context) ([]domain.Bookmark, error)
	ToggleBookmark(ctx context.Context, t domain.ContentType, id domain.ID) error
}

// Bookmarks is the user's saved content. Safe for concurrent use.
type Bookmarks struct {
	api BookmarkAPI
	c   *collection[domain.Bookmark]
}

// NewBookmarks creates an empty bookmark store.
func NewBookmarks(api BookmarkAPI, sess Session, log logger.Logger) *Bookmarks {
	return &Bookmarks{
		api: api,
		c:   newCollection[domain.Bookmark]("bookmarks", sess, log),
	}
}

// Refresh replaces the bookmarks with the server's list.
func (b *Bookmarks) Refresh(ctx context.Context) bool {
	return b.c.refresh(ctx, "bookmarks.refresh", func(ctx context.Context) ([]domain.Bookmark, error) {
		items, err := b.api.ListBookmarks(ctx)
		if err != nil {
			return nil, err
		}
		return dedupe(items), nil
	})
}

// Toggle removes the bookmark if present and adds it otherwise. The change
// is visible immediately; on server success the list is refreshed to pick
// up content details, on failure the change is undone. It reports whether
// the server accepted the toggle, not whether the item is now bookmarked.
func (b *Bookmarks) Toggle(ctx context.Context, t domain.ContentType, id domain.ID) bool {
	if !slices.Contains(domain.ContentTypes, t) || id.IsZero() {
		b.c.mu.Lock()
		b.c.failLocked("bookmarks.toggle", &client.ValidationError{Reason: fmt.Sprintf("bad bookmark key %s:%s", t, id)})
		b.c.mu.Unlock()
		return false
	}
	key := domain.BookmarkKey{Type: t, ID: id}
	ok := b.c.mutate(ctx, "bookmarks.toggle", key.String(), func(items []domain.Bookmark) pendingOp[domain.Bookmark] {
		if i := indexOf(items, key); i >= 0 {
			prior := items[i]
			return pendingOp[domain.Bookmark]{
				apply: func(items []domain.Bookmark) []domain.Bookmark { return without(items, key) },
				undo:  func(items []domain.Bookmark) []domain.Bookmark { return with(items, prior, i) },
			}
		}
		placeholder := domain.Bookmark{ContentType: t, ContentID: id, CreatedAt: b.c.now()}
		return pendingOp[domain.Bookmark]{
			apply: func(items []domain.Bookmark) []domain.Bookmark { return with(items, placeholder, 0) },
			undo:  func(items []domain.Bookmark) []domain.Bookmark { return without(items, key) },
		}
	}, func(ctx context.Context) error {
		return b.api.ToggleBookmark(ctx, t, id)
	})
	if !ok {
		return false
	}
	// A failed follow-up refresh leaves the confirmed placeholder in place
	// until the next successful one.
	b.Refresh(ctx)
	return true
}

// IsMarked reports whether (t, id) is bookmarked. Numeric ids compare
// equal regardless of how they were encoded.
func (b *Bookmarks) IsMarked(t domain.ContentType, id domain.ID) bool {
	key := domain.BookmarkKey{Type: t, ID: id}
	var found bool
	b.c.read(func(items []domain.Bookmark) { found = indexOf(items, key) >= 0 })
	return found
}

// Items returns a copy of the bookmarks in display order.
func (b *Bookmarks) Items() []domain.Bookmark { return b.c.snapshot() }

// Loading reports whether a refresh is in flight.
func (b *Bookmarks) Loading() bool { return b.c.isLoading() }

// LastError returns the most recent swallowed failure, or nil.
func (b *Bookmarks) LastError() *Failure { return b.c.lastError() }

// Subscribe returns a change signal and a cancel func.
func (b *Bookmarks) Subscribe() (<-chan struct{}, func()) { return b.c.subscribe() }

// OnAuthFailure registers fn to run when the server rejects the session.
func (b *Bookmarks) OnAuthFailure(fn func()) { b.c.setAuthHandler(fn) }

// Clear empties the store. Calls still in flight will not touch it.
func (b *Bookmarks) Clear() { b.c.clear() }

func indexOf(items []domain.Bookmark, key domain.BookmarkKey) int {
	want := key.String()
	return slices.IndexFunc(items, func(bm domain.Bookmark) bool { return bm.Key().String() == want })
}

func without(items []domain.Bookmark, key domain.BookmarkKey) []domain.Bookmark {
	want := key.String()
	return slices.DeleteFunc(items, func(bm domain.Bookmark) bool { return bm.Key().String() == want })
}

// with inserts bm at position at unless its key is already present.
func with(items []domain.Bookmark, bm domain.Bookmark, at int) []domain.Bookmark {
	if indexOf(items, bm.Key()) >= 0 {
		return items
	}
	at = min(max(at, 0), len(items))
	return slices.Insert(items, at, bm)
}

// dedupe keeps the first entry for each key.
func dedupe(items []domain.Bookmark) []domain.Bookmark {
	seen := make(map[string]bool, len(items))
	out := make([]domain.Bookmark, 0, len(items))
	for _, bm := range items {
		k := bm.Key().String()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, bm)
	}
	return out
}
