package store

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naveenspark/haven/pkg/client"
	"github.com/naveenspark/haven/pkg/domain"
)

func newBookmarks(api *fakeBookmarkAPI) (*Bookmarks, *fakeSession) {
	sess := newSession()
	return NewBookmarks(api, sess, nil), sess
}

func TestToggleIsVisibleBeforeServerResponds(t *testing.T) {
	api := &fakeBookmarkAPI{toggleGate: newGate()}
	b, _ := newBookmarks(api)

	done := make(chan bool)
	go func() { done <- b.Toggle(context.Background(), domain.ContentArticle, domain.IntID(42)) }()

	<-api.toggleGate.entered
	assert.True(t, b.IsMarked(domain.ContentArticle, domain.IntID(42)))
	items := b.Items()
	require.Len(t, items, 1)
	assert.Nil(t, items[0].Content, "placeholder has no content yet")

	close(api.toggleGate.release)
	assert.True(t, <-done)
}

func TestToggleSuccessLoadsContent(t *testing.T) {
	api := &fakeBookmarkAPI{}
	b, _ := newBookmarks(api)

	require.True(t, b.Toggle(context.Background(), domain.ContentArticle, domain.IntID(42)))

	assert.True(t, b.IsMarked(domain.ContentArticle, domain.IntID(42)))
	items := b.Items()
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Content)
	assert.Equal(t, "article 42", items[0].Content.Title)
	assert.Nil(t, b.LastError())
}

func TestToggleFailureRollsBack(t *testing.T) {
	api := &fakeBookmarkAPI{toggleErr: errors.New("connection reset")}
	b, _ := newBookmarks(api)

	assert.False(t, b.Toggle(context.Background(), domain.ContentVideo, domain.IntID(7)))

	assert.False(t, b.IsMarked(domain.ContentVideo, domain.IntID(7)))
	assert.Empty(t, b.Items())
	f := b.LastError()
	require.NotNil(t, f)
	assert.Equal(t, "bookmarks.toggle", f.Op)
	assert.Equal(t, client.KindNetwork, f.Kind)
}

func TestToggleRemovalFailureRestoresPosition(t *testing.T) {
	api := &fakeBookmarkAPI{server: []domain.Bookmark{
		serverBookmark(domain.ContentArticle, "1"),
		serverBookmark(domain.ContentVideo, "2"),
		serverBookmark(domain.ContentExercise, "3"),
	}}
	b, _ := newBookmarks(api)
	require.True(t, b.Refresh(context.Background()))
	before := b.Items()

	api.toggleErr = &client.HTTPError{StatusCode: 500, Message: "boom"}
	assert.False(t, b.Toggle(context.Background(), domain.ContentVideo, "2"))

	assert.Equal(t, before, b.Items())
	assert.Equal(t, client.KindServer, b.LastError().Kind)
}

func TestToggleRollbackPreservesMarkedState(t *testing.T) {
	keys := []domain.BookmarkKey{
		{Type: domain.ContentArticle, ID: "1"},
		{Type: domain.ContentVideo, ID: "7"},
		{Type: domain.ContentExercise, ID: "30"},
	}
	for _, start := range []bool{false, true} {
		for _, k := range keys {
			api := &fakeBookmarkAPI{}
			if start {
				api.server = []domain.Bookmark{serverBookmark(k.Type, k.ID)}
			}
			b, _ := newBookmarks(api)
			require.True(t, b.Refresh(context.Background()))
			before := b.IsMarked(k.Type, k.ID)

			api.toggleErr = errors.New("offline")
			b.Toggle(context.Background(), k.Type, k.ID)

			assert.Equal(t, before, b.IsMarked(k.Type, k.ID), "key %s start %v", k, start)
		}
	}
}

func TestToggleTwiceRestoresMembership(t *testing.T) {
	for _, start := range []bool{false, true} {
		api := &fakeBookmarkAPI{server: []domain.Bookmark{serverBookmark(domain.ContentExercise, "5")}}
		if start {
			api.server = append(api.server, serverBookmark(domain.ContentArticle, "42"))
		}
		b, _ := newBookmarks(api)
		require.True(t, b.Refresh(context.Background()))
		before := keysOf(b.Items())

		require.True(t, b.Toggle(context.Background(), domain.ContentArticle, "42"))
		require.True(t, b.Toggle(context.Background(), domain.ContentArticle, "42"))

		assert.ElementsMatch(t, before, keysOf(b.Items()), "start %v", start)
	}
}

func TestToggleSameKeyWhileInFlightIsRejected(t *testing.T) {
	api := &fakeBookmarkAPI{toggleGate: newGate()}
	b, _ := newBookmarks(api)

	done := make(chan bool)
	go func() { done <- b.Toggle(context.Background(), domain.ContentArticle, "42") }()
	<-api.toggleGate.entered

	// same key, different encoding
	assert.False(t, b.Toggle(context.Background(), domain.ContentArticle, "042"))
	f := b.LastError()
	require.NotNil(t, f)
	assert.ErrorIs(t, f, ErrBusy)
	assert.Equal(t, client.KindNone, f.Kind)
	assert.Equal(t, 1, api.toggleCount())
	assert.True(t, b.IsMarked(domain.ContentArticle, "42"))

	close(api.toggleGate.release)
	require.True(t, <-done)
	assert.True(t, b.IsMarked(domain.ContentArticle, "42"))
}

func TestToggleOtherKeyWhileInFlightProceeds(t *testing.T) {
	api := &fakeBookmarkAPI{toggleGate: newGate()}
	b, _ := newBookmarks(api)

	done := make(chan bool)
	go func() { done <- b.Toggle(context.Background(), domain.ContentArticle, "1") }()
	<-api.toggleGate.entered

	second := make(chan bool)
	go func() { second <- b.Toggle(context.Background(), domain.ContentVideo, "2") }()
	<-api.toggleGate.entered

	close(api.toggleGate.release)
	assert.True(t, <-done)
	assert.True(t, <-second)
	assert.True(t, b.IsMarked(domain.ContentArticle, "1"))
	assert.True(t, b.IsMarked(domain.ContentVideo, "2"))
}

func TestToggleUnauthenticatedIsNoop(t *testing.T) {
	api := &fakeBookmarkAPI{}
	b, sess := newBookmarks(api)
	sess.logout()

	assert.False(t, b.Toggle(context.Background(), domain.ContentArticle, "42"))
	assert.Equal(t, 0, api.toggleCount())
	assert.False(t, b.IsMarked(domain.ContentArticle, "42"))
	assert.ErrorIs(t, b.LastError(), ErrUnauthenticated)
}

func TestToggleRejectsBadKey(t *testing.T) {
	api := &fakeBookmarkAPI{}
	b, _ := newBookmarks(api)

	assert.False(t, b.Toggle(context.Background(), "podcast", "1"))
	assert.False(t, b.Toggle(context.Background(), domain.ContentArticle, ""))
	assert.Equal(t, 0, api.toggleCount())
	assert.Equal(t, client.KindValidation, b.LastError().Kind)
}

func TestToggleSucceedsWhenFollowupRefreshFails(t *testing.T) {
	api := &fakeBookmarkAPI{listErr: errors.New("timeout")}
	b, _ := newBookmarks(api)

	assert.True(t, b.Toggle(context.Background(), domain.ContentArticle, "42"))

	assert.True(t, b.IsMarked(domain.ContentArticle, "42"))
	require.NotNil(t, b.LastError())
	assert.Equal(t, "bookmarks.refresh", b.LastError().Op)
}

func TestIsMarkedCoercesIDs(t *testing.T) {
	api := &fakeBookmarkAPI{server: []domain.Bookmark{serverBookmark(domain.ContentArticle, domain.IntID(42))}}
	b, _ := newBookmarks(api)
	require.True(t, b.Refresh(context.Background()))

	assert.True(t, b.IsMarked(domain.ContentArticle, "42"))
	assert.True(t, b.IsMarked(domain.ContentArticle, "0042"))
	assert.False(t, b.IsMarked(domain.ContentVideo, "42"))
}

func TestRefreshDedupesKeys(t *testing.T) {
	api := &fakeBookmarkAPI{server: []domain.Bookmark{
		serverBookmark(domain.ContentArticle, "42"),
		serverBookmark(domain.ContentArticle, domain.IntID(42)),
	}}
	b, _ := newBookmarks(api)
	require.True(t, b.Refresh(context.Background()))
	assert.Len(t, b.Items(), 1)
}

func TestRefreshFailureKeepsItems(t *testing.T) {
	api := &fakeBookmarkAPI{server: []domain.Bookmark{serverBookmark(domain.ContentArticle, "1")}}
	b, _ := newBookmarks(api)
	require.True(t, b.Refresh(context.Background()))

	api.listErr = &client.ValidationError{Reason: "expected array or object"}
	assert.False(t, b.Refresh(context.Background()))

	assert.Len(t, b.Items(), 1)
	assert.Equal(t, client.KindValidation, b.LastError().Kind)
	assert.False(t, b.Loading())
}

func TestRefreshLoadingFlag(t *testing.T) {
	g := newGate()
	api := &fakeBookmarkAPI{listGates: map[int]*gate{1: g}}
	b, _ := newBookmarks(api)

	done := make(chan bool)
	go func() { done <- b.Refresh(context.Background()) }()
	<-g.entered
	assert.True(t, b.Loading())
	close(g.release)
	<-done
	assert.False(t, b.Loading())
}

func TestRefreshDropsSupersededResponse(t *testing.T) {
	slow := newGate()
	api := &fakeBookmarkAPI{
		server:    []domain.Bookmark{serverBookmark(domain.ContentArticle, "1")},
		listGates: map[int]*gate{1: slow},
	}
	b, _ := newBookmarks(api)

	first := make(chan bool)
	go func() { first <- b.Refresh(context.Background()) }()
	<-slow.entered

	// The server changes and a newer refresh lands first.
	api.mu.Lock()
	api.server = []domain.Bookmark{serverBookmark(domain.ContentVideo, "2")}
	api.mu.Unlock()
	require.True(t, b.Refresh(context.Background()))

	close(slow.release)
	<-first

	assert.False(t, b.IsMarked(domain.ContentArticle, "1"))
	assert.True(t, b.IsMarked(domain.ContentVideo, "2"))
}

func TestToggleNotUndoneByEarlierRefresh(t *testing.T) {
	g := newGate()
	api := &fakeBookmarkAPI{listGates: map[int]*gate{1: g}}
	b, _ := newBookmarks(api)

	// This refresh reads the server before the toggle lands.
	done := make(chan bool)
	go func() { done <- b.Refresh(context.Background()) }()
	<-g.entered

	// The follow-up refresh fails, so nothing newer lands after the toggle.
	api.mu.Lock()
	api.listErr = errors.New("connection reset")
	api.mu.Unlock()
	require.True(t, b.Toggle(context.Background(), domain.ContentArticle, "42"))

	close(g.release)
	assert.True(t, <-done)
	assert.True(t, b.IsMarked(domain.ContentArticle, "42"))
}

func TestRefreshAfterLogoutIsDropped(t *testing.T) {
	g := newGate()
	api := &fakeBookmarkAPI{
		server:    []domain.Bookmark{serverBookmark(domain.ContentArticle, "1")},
		listGates: map[int]*gate{1: g},
	}
	b, sess := newBookmarks(api)

	done := make(chan bool)
	go func() { done <- b.Refresh(context.Background()) }()
	<-g.entered

	sess.logout()
	b.Clear()
	close(g.release)

	assert.False(t, <-done)
	assert.Empty(t, b.Items())
	assert.False(t, b.Loading())
}

func TestToggleResolvedAfterLogoutIsDropped(t *testing.T) {
	api := &fakeBookmarkAPI{toggleGate: newGate(), toggleErr: errors.New("offline")}
	b, sess := newBookmarks(api)

	done := make(chan bool)
	go func() { done <- b.Toggle(context.Background(), domain.ContentArticle, "42") }()
	<-api.toggleGate.entered

	sess.logout()
	b.Clear()
	close(api.toggleGate.release)

	assert.False(t, <-done)
	assert.Empty(t, b.Items())
	assert.Nil(t, b.LastError())
}

func TestRefreshReplaysPendingToggle(t *testing.T) {
	api := &fakeBookmarkAPI{toggleGate: newGate()}
	b, _ := newBookmarks(api)

	done := make(chan bool)
	go func() { done <- b.Toggle(context.Background(), domain.ContentArticle, "42") }()
	<-api.toggleGate.entered

	// A poll-driven refresh sees the server before the toggle landed.
	require.True(t, b.Refresh(context.Background()))
	assert.True(t, b.IsMarked(domain.ContentArticle, "42"))

	close(api.toggleGate.release)
	require.True(t, <-done)
	assert.True(t, b.IsMarked(domain.ContentArticle, "42"))
}

func TestAuthFailureRunsHandler(t *testing.T) {
	api := &fakeBookmarkAPI{toggleErr: &client.HTTPError{StatusCode: 401, Message: "Unauthenticated."}}
	b, _ := newBookmarks(api)
	var calls atomic.Int32
	b.OnAuthFailure(func() { calls.Add(1) })

	assert.False(t, b.Toggle(context.Background(), domain.ContentArticle, "42"))

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, client.KindAuth, b.LastError().Kind)
	assert.False(t, b.IsMarked(domain.ContentArticle, "42"))
}

func TestSubscribeSignalsChanges(t *testing.T) {
	api := &fakeBookmarkAPI{}
	b, _ := newBookmarks(api)
	ch, cancel := b.Subscribe()
	defer cancel()

	require.True(t, b.Toggle(context.Background(), domain.ContentArticle, "42"))

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no change signal")
	}

	cancel()
	cancel()
	b.Clear()
	select {
	case <-ch:
		t.Fatal("signal after cancel")
	default:
	}
}

func keysOf(items []domain.Bookmark) []string {
	out := make([]string, 0, len(items))
	for _, bm := range items {
		out = append(out, bm.Key().String())
	}
	return out
}
