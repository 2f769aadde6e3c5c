package tui

import (
	"strings"
	"testing"

	"github.com/naveenspark/haven/internal/store"
	"github.com/naveenspark/haven/pkg/client"
	"github.com/naveenspark/haven/pkg/domain"
)

func newTestSavedModel() savedModel {
	m := newSavedModel(nil)
	m.width = 80
	m.height = 24
	return m
}

func confirmedBookmark(t domain.ContentType, id int64, title string) domain.Bookmark {
	return domain.Bookmark{
		ContentType: t,
		ContentID:   domain.IntID(id),
		Content:     &domain.Content{ID: domain.IntID(id), Type: t, Title: title, Description: title + " in ten minutes."},
	}
}

func TestSavedRendersBookmarks(t *testing.T) {
	m := newTestSavedModel()
	m, _ = m.Update(bookmarksSyncedMsg{items: []domain.Bookmark{
		confirmedBookmark(domain.ContentArticle, 42, "Breathing basics"),
		confirmedBookmark(domain.ContentVideo, 7, "Body scan"),
	}})

	view := m.View()
	for _, want := range []string{"SAVED (2)", "Breathing basics", "Body scan"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in view, got:\n%s", want, view)
		}
	}
}

func TestSavedShowsOptimisticPlaceholder(t *testing.T) {
	m := newTestSavedModel()
	m, _ = m.Update(bookmarksSyncedMsg{items: []domain.Bookmark{
		{ContentType: domain.ContentVideo, ContentID: domain.IntID(7)},
	}})

	view := m.View()
	if !strings.Contains(view, "video #7") {
		t.Errorf("expected placeholder title, got:\n%s", view)
	}
	if !strings.Contains(view, "saving...") {
		t.Errorf("expected saving marker for an unconfirmed bookmark, got:\n%s", view)
	}
}

func TestSavedEmptyState(t *testing.T) {
	m := newTestSavedModel()
	m, _ = m.Update(bookmarksSyncedMsg{})
	if view := m.View(); !strings.Contains(view, "nothing saved yet") {
		t.Errorf("expected empty state, got:\n%s", view)
	}

	m, _ = m.Update(bookmarksSyncedMsg{loading: true})
	if view := m.View(); !strings.Contains(view, "loading") {
		t.Errorf("expected loading state, got:\n%s", view)
	}
}

func TestSavedShowsStoreFailure(t *testing.T) {
	m := newTestSavedModel()
	m, _ = m.Update(bookmarksSyncedMsg{failure: &store.Failure{Op: "bookmarks.refresh", Kind: client.KindAuth, Err: store.ErrUnauthenticated}})

	if view := m.View(); !strings.Contains(view, "haven login") {
		t.Errorf("expected login hint, got:\n%s", view)
	}
}

func TestSavedCursorClampsWhenListShrinks(t *testing.T) {
	m := newTestSavedModel()
	m, _ = m.Update(bookmarksSyncedMsg{items: []domain.Bookmark{
		confirmedBookmark(domain.ContentArticle, 42, "Breathing basics"),
		confirmedBookmark(domain.ContentVideo, 7, "Body scan"),
	}})
	m, _ = m.Update(runes("j"))
	if m.cursor != 1 {
		t.Fatalf("expected cursor=1, got %d", m.cursor)
	}

	m, _ = m.Update(bookmarksSyncedMsg{items: []domain.Bookmark{
		confirmedBookmark(domain.ContentArticle, 42, "Breathing basics"),
	}})
	if m.cursor != 0 {
		t.Errorf("expected cursor clamped to 0, got %d", m.cursor)
	}
}

func TestSavedOpenWithoutContent(t *testing.T) {
	m := newTestSavedModel()
	m, _ = m.Update(bookmarksSyncedMsg{items: []domain.Bookmark{
		{ContentType: domain.ContentVideo, ContentID: domain.IntID(7)},
	}})

	m, cmd := m.Update(runes("o"))
	if cmd != nil {
		t.Error("expected no command for a bookmark without a link")
	}
	if !strings.Contains(m.statusMsg, "no link") {
		t.Errorf("expected 'no link' status, got %q", m.statusMsg)
	}
}

func TestSavedRemoveFailureStatus(t *testing.T) {
	m := newTestSavedModel()
	m, _ = m.Update(bookmarkToggledMsg{ok: false, failure: &store.Failure{Op: "bookmarks.toggle", Kind: client.KindServer, Err: &client.HTTPError{StatusCode: 500, Message: "boom"}}})
	if m.statusMsg != "boom" {
		t.Errorf("expected server message, got %q", m.statusMsg)
	}

	m, _ = m.Update(bookmarkToggledMsg{ok: true})
	if m.statusMsg != "removed" {
		t.Errorf("expected 'removed', got %q", m.statusMsg)
	}
}
