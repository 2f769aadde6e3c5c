package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/naveenspark/haven/internal/logger"
	"github.com/naveenspark/haven/pkg/domain"
)

func newTestClient(url, token string) *Client {
	return New(url, StaticToken(token), WithRateLimit(0, 0), WithRetries(0, 0))
}

func TestGetProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user/profile" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "not authenticated"}) //nolint:errcheck
			return
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID header")
		}
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"data": map[string]any{"id": 3, "name": "Sam", "email": "sam@example.com"},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "test-token")
	me, err := c.GetProfile(context.Background())
	if err != nil {
		t.Fatalf("GetProfile() error: %v", err)
	}
	if me.Name != "Sam" {
		t.Errorf("Name = %q, want %q", me.Name, "Sam")
	}
	if !me.ID.Equal("3") {
		t.Errorf("ID = %q, want %q", me.ID, "3")
	}
}

func TestGetProfile_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "Unauthenticated."}) //nolint:errcheck
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "bad-token")
	_, err := c.GetProfile(context.Background())
	if err == nil {
		t.Fatal("expected error for unauthorized request")
	}
	if got := err.Error(); !strings.Contains(got, "HTTP 401") {
		t.Errorf("error = %q, want it to contain 'HTTP 401'", got)
	}
	if KindOf(err) != KindAuth {
		t.Errorf("KindOf = %v, want auth", KindOf(err))
	}
}

func TestNoTokenOmitsAuthorization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("Authorization = %q, want empty", r.Header.Get("Authorization"))
		}
		w.Write([]byte(`[]`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "")
	if _, err := c.ListNotifications(context.Background()); err != nil {
		t.Fatalf("ListNotifications() error: %v", err)
	}
}

func TestListBookmarks_Paginated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/content/bookmarks" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"data":{"current_page":1,"data":[{"type":"article","content_id":42,"content":{"id":42,"title":"Sleep hygiene"}}]}}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "tok")
	got, err := c.ListBookmarks(context.Background())
	if err != nil {
		t.Fatalf("ListBookmarks() error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d bookmarks, want 1", len(got))
	}
	if got[0].Content == nil || got[0].Content.Title != "Sleep hygiene" {
		t.Errorf("content = %+v", got[0].Content)
	}
}

func TestListBookmarks_SkipsUnknownType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"type":"article","content_id":1},{"type":"podcast","content_id":2}]}`)) //nolint:errcheck
	}))
	defer srv.Close()

	core, logs := observer.New(zap.WarnLevel)
	c := New(srv.URL, StaticToken("tok"), WithRateLimit(0, 0), WithRetries(0, 0), WithLogger(logger.FromZap(zap.New(core))))
	got, err := c.ListBookmarks(context.Background())
	if err != nil {
		t.Fatalf("ListBookmarks() error: %v", err)
	}
	if len(got) != 1 || got[0].ContentType != domain.ContentArticle {
		t.Fatalf("got %+v, want only the article", got)
	}
	if logs.Len() != 1 {
		t.Errorf("logged %d warnings, want 1", logs.Len())
	}
}

func TestToggleBookmark(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/content/bookmark" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req["type"] != "video" {
			t.Errorf("type = %v, want video", req["type"])
		}
		if req["id"] != float64(7) {
			t.Errorf("id = %v, want 7", req["id"])
		}
		w.Write([]byte(`{"bookmarked":true}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "tok")
	if err := c.ToggleBookmark(context.Background(), domain.ContentVideo, "7"); err != nil {
		t.Fatalf("ToggleBookmark() error: %v", err)
	}
}

func TestUnreadCountShapes(t *testing.T) {
	bodies := []string{`3`, `{"count":3}`, `{"unread_count":3}`, `{"data":{"unreadCount":3}}`, `{"data":3}`}
	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(body)) //nolint:errcheck
			}))
			defer srv.Close()

			n, err := newTestClient(srv.URL, "tok").UnreadCount(context.Background())
			if err != nil {
				t.Fatalf("UnreadCount() error: %v", err)
			}
			if n != 3 {
				t.Errorf("UnreadCount() = %d, want 3", n)
			}
		})
	}
}

func TestMarkNotificationReadPath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := newTestClient(srv.URL, "tok").MarkNotificationRead(context.Background(), "12"); err != nil {
		t.Fatalf("MarkNotificationRead() error: %v", err)
	}
	if gotPath != "/notifications/12/read" {
		t.Errorf("path = %q, want /notifications/12/read", gotPath)
	}
}

func TestListContentSetsType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/content/exercises" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("search") != "breath" {
			t.Errorf("search = %q", r.URL.Query().Get("search"))
		}
		w.Write([]byte(`{"data":[{"id":1,"title":"Box breathing"}]}`)) //nolint:errcheck
	}))
	defer srv.Close()

	items, err := newTestClient(srv.URL, "tok").ListContent(context.Background(), domain.ContentExercise, "breath", 1)
	if err != nil {
		t.Fatalf("ListContent() error: %v", err)
	}
	if len(items) != 1 || items[0].Type != domain.ContentExercise {
		t.Errorf("items = %+v", items)
	}
}

func TestLogMoodValidates(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, "tok").LogMood(context.Background(), domain.MoodEntry{Mood: "ecstatic", Score: 11})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if KindOf(err) != KindValidation {
		t.Errorf("KindOf = %v, want validation", KindOf(err))
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Error("invalid mood should not reach the server")
	}
}

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var creds domain.Credentials
		json.NewDecoder(r.Body).Decode(&creds) //nolint:errcheck
		if creds.Email != "sam@example.com" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		w.Write([]byte(`{"data":{"access_token":"tok-123"}}`)) //nolint:errcheck
	}))
	defer srv.Close()

	tok, err := newTestClient(srv.URL, "").Login(context.Background(), domain.Credentials{Email: "sam@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if tok != "tok-123" {
		t.Errorf("token = %q, want tok-123", tok)
	}
}

func TestHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "boom"}) //nolint:errcheck
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, "tok").GetProfile(context.Background())
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if got := err.Error(); !strings.Contains(got, "boom") {
		t.Errorf("error = %q, want it to contain 'boom'", got)
	}
	if KindOf(err) != KindServer {
		t.Errorf("KindOf = %v, want server", KindOf(err))
	}
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[]`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, StaticToken("tok"), WithRateLimit(0, 0), WithRetries(2, time.Millisecond))
	if _, err := c.ListNotifications(context.Background()); err != nil {
		t.Fatalf("ListNotifications() error: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(srv.URL, StaticToken("tok"), WithRateLimit(0, 0), WithRetries(3, time.Millisecond))
	if _, err := c.ListNotifications(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestPostIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL, StaticToken("tok"), WithRateLimit(0, 0), WithRetries(3, time.Millisecond))
	if err := c.MarkAllNotificationsRead(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestDoRequest_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(5 * time.Second) // slow server
		w.Write([]byte(`{}`))       //nolint:errcheck
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "tok")
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	_, err := c.GetProfile(ctx)
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
	if KindOf(err) != KindNetwork {
		t.Errorf("KindOf = %v, want network", KindOf(err))
	}
}
