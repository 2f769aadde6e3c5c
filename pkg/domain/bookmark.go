package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// BookmarkKey identifies a bookmark. A collection holds at most one
// bookmark per key.
type BookmarkKey struct {
	Type ContentType
	ID   ID
}

// String returns the canonical form of the key, e.g. "article:42".
func (k BookmarkKey) String() string {
	return string(k.Type) + ":" + k.ID.Canonical()
}

// Bookmark is a saved reference to a piece of content. Content is attached
// by the server on fetch and is nil for an entry that has not been
// confirmed yet.
type Bookmark struct {
	ContentType ContentType `json:"type"`
	ContentID   ID          `json:"content_id"`
	Content     *Content    `json:"content,omitempty"`
	CreatedAt   time.Time   `json:"created_at,omitempty"`
}

// Key returns the bookmark's identity within a collection.
func (b Bookmark) Key() BookmarkKey {
	return BookmarkKey{Type: b.ContentType, ID: b.ContentID}
}

// Title returns the content title, or a placeholder for unconfirmed entries.
func (b Bookmark) Title() string {
	if b.Content != nil && b.Content.Title != "" {
		return b.Content.Title
	}
	return fmt.Sprintf("%s #%s", b.ContentType, b.ContentID)
}

// wireBookmark covers both payload families the backend emits: the
// flat {type, content_id, content} form and the polymorphic
// {bookmarkable_type, bookmarkable_id, bookmarkable} form.
type wireBookmark struct {
	Type             string    `json:"type"`
	ContentType      string    `json:"content_type"`
	BookmarkableType string    `json:"bookmarkable_type"`
	ContentID        ID        `json:"content_id"`
	BookmarkableID   ID        `json:"bookmarkable_id"`
	Content          *Content  `json:"content"`
	Bookmarkable     *Content  `json:"bookmarkable"`
	CreatedAt        time.Time `json:"created_at"`
}

// UnmarshalJSON normalizes the backend's bookmark shapes.
func (b *Bookmark) UnmarshalJSON(data []byte) error {
	var w wireBookmark
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	raw := firstNonEmpty(w.BookmarkableType, w.ContentType, w.Type)
	t, err := ParseContentType(raw)
	if err != nil {
		return err
	}
	id := w.ContentID
	if id.IsZero() {
		id = w.BookmarkableID
	}
	if id.IsZero() {
		return fmt.Errorf("bookmark for %s has no content id", t)
	}
	content := w.Content
	if content == nil {
		content = w.Bookmarkable
	}
	if content != nil && content.Type == "" {
		content.Type = t
	}
	*b = Bookmark{ContentType: t, ContentID: id, Content: content, CreatedAt: w.CreatedAt}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
