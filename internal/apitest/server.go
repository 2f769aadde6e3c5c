// Package apitest is an in-process fake of the Haven backend for tests.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/naveenspark/haven/pkg/domain"
)

// Envelope selects how list responses are wrapped.
type Envelope int

const (
	Bare Envelope = iota
	Data
	Paginated
)

// Default credentials accepted by POST /auth/login.
const (
	Email    = "sam@example.com"
	Password = "correct horse"
	PageSize = 10
)

// Server is a fake backend. All state is guarded by mu and may be changed
// by tests between requests.
type Server struct {
	*httptest.Server

	mu            sync.Mutex
	token         string
	user          domain.User
	envelope      Envelope
	catalog       map[domain.ContentType][]domain.Content
	bookmarks     []domain.Bookmark
	notifications []domain.Notification
	moods         []domain.MoodEntry
	failures      map[string]int
	gates         map[string]chan struct{}
	hits          map[string]int
	requestIDs    []string
}

// New starts a seeded fake backend that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		token:    "tok-" + uuid.NewString(),
		user:     domain.User{ID: domain.IntID(3), Name: "Sam", Email: Email},
		catalog:  seedCatalog(),
		failures: make(map[string]int),
		gates:    make(map[string]chan struct{}),
		hits:     make(map[string]int),
	}
	s.notifications = []domain.Notification{
		{ID: domain.IntID(1), Type: domain.NotificationAppointment, Message: "Your session is tomorrow at 10:00", CreatedAt: time.Now().Add(-time.Hour)},
		{ID: domain.IntID(2), Type: domain.NotificationMood, Message: "How are you feeling today?", CreatedAt: time.Now().Add(-2 * time.Hour)},
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func seedCatalog() map[domain.ContentType][]domain.Content {
	return map[domain.ContentType][]domain.Content{
		domain.ContentArticle: {
			{ID: domain.IntID(42), Type: domain.ContentArticle, Title: "Breathing basics", Description: "Slow your breath, calm your mind.", ReadTime: 4},
			{ID: domain.IntID(43), Type: domain.ContentArticle, Title: "Sleep hygiene", Description: "Small habits for better rest.", ReadTime: 6},
		},
		domain.ContentVideo: {
			{ID: domain.IntID(7), Type: domain.ContentVideo, Title: "Body scan", Description: "A ten minute guided scan.", URL: "https://videos.example.com/7"},
		},
		domain.ContentExercise: {
			{ID: domain.IntID(30), Type: domain.ContentExercise, Title: "Box breathing", Description: "Four counts in, hold, out, hold."},
		},
	}
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.intercept)

	r.Post("/auth/login", s.login)
	r.Group(func(r chi.Router) {
		r.Use(s.requireToken)
		r.Post("/auth/logout", s.logout)
		r.Get("/user/profile", s.profile)
		r.Get("/content/bookmarks", s.listBookmarks)
		r.Post("/content/bookmark", s.toggleBookmark)
		r.Get("/content/{kind}", s.listContent)
		r.Get("/notifications", s.listNotifications)
		r.Get("/notifications/unread-count", s.unreadCount)
		r.Post("/notifications/read-all", s.markAllRead)
		r.Post("/notifications/{id}/read", s.markRead)
		r.Get("/moods", s.listMoods)
		r.Post("/moods", s.logMood)
	})
	return r
}

// route is the key used by Fail, Gate and Hits, e.g. "POST /content/bookmark".
func route(r *http.Request) string {
	return r.Method + " " + r.URL.Path
}

// intercept counts hits, holds gated routes and injects failures.
func (s *Server) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := route(r)
		s.mu.Lock()
		s.hits[key]++
		s.requestIDs = append(s.requestIDs, r.Header.Get("X-Request-ID"))
		gate := s.gates[key]
		status, fail := s.failures[key]
		s.mu.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}
		if fail {
			writeJSON(w, status, map[string]string{"message": http.StatusText(status)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		want := s.token
		s.mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer "+want {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthenticated."})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- Test controls ---

// Token returns the bearer token the server accepts.
func (s *Server) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// RevokeToken makes the current token invalid, as a server-side expiry would.
func (s *Server) RevokeToken() {
	s.mu.Lock()
	s.token = "tok-" + uuid.NewString()
	s.mu.Unlock()
}

// SetEnvelope changes how list responses are wrapped.
func (s *Server) SetEnvelope(e Envelope) {
	s.mu.Lock()
	s.envelope = e
	s.mu.Unlock()
}

// Fail makes every request to route answer with status until Recover.
func (s *Server) Fail(route string, status int) {
	s.mu.Lock()
	s.failures[route] = status
	s.mu.Unlock()
}

// Recover clears an injected failure.
func (s *Server) Recover(route string) {
	s.mu.Lock()
	delete(s.failures, route)
	s.mu.Unlock()
}

// Gate holds requests to route until the returned release func is called.
func (s *Server) Gate(route string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.gates[route] = ch
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.gates, route)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// Hits returns how many requests reached route.
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// RequestIDs returns the X-Request-ID header of every request so far.
func (s *Server) RequestIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requestIDs...)
}

// AddNotification pushes a new unread notification to the top of the inbox.
func (s *Server) AddNotification(t domain.NotificationType, msg string) domain.ID {
	id := domain.ID(uuid.NewString())
	s.mu.Lock()
	s.notifications = append([]domain.Notification{{ID: id, Type: t, Message: msg, CreatedAt: time.Now()}}, s.notifications...)
	s.mu.Unlock()
	return id
}

// UnreadCount is the server's view of unread notifications.
func (s *Server) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CountUnread(s.notifications)
}

// Bookmarked reports whether the server holds a bookmark for (t, id).
func (s *Server) Bookmarked(t domain.ContentType, id domain.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bookmarkIndex(domain.BookmarkKey{Type: t, ID: id}) >= 0
}

// --- Handlers ---

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid json"})
		return
	}
	if !strings.EqualFold(creds.Email, Email) || creds.Password != Password {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "These credentials do not match our records."})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]string{"token": s.Token()}})
}

func (s *Server) logout(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) profile(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	u := s.user
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"data": u})
}

func (s *Server) listBookmarks(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	items := append([]domain.Bookmark(nil), s.bookmarks...)
	s.mu.Unlock()
	s.writeList(w, items)
}

func (s *Server) toggleBookmark(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type string    `json:"type"`
		ID   domain.ID `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid json"})
		return
	}
	t, err := domain.ParseContentType(req.Type)
	if err != nil || req.ID.IsZero() {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "The selected type is invalid."})
		return
	}
	key := domain.BookmarkKey{Type: t, ID: req.ID}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.bookmarkIndex(key); i >= 0 {
		s.bookmarks = append(s.bookmarks[:i], s.bookmarks[i+1:]...)
		writeJSON(w, http.StatusOK, map[string]bool{"bookmarked": false})
		return
	}
	content, ok := s.findContent(key)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Content not found."})
		return
	}
	s.bookmarks = append([]domain.Bookmark{{
		ContentType: t,
		ContentID:   content.ID,
		Content:     &content,
		CreatedAt:   time.Now(),
	}}, s.bookmarks...)
	writeJSON(w, http.StatusOK, map[string]bool{"bookmarked": true})
}

func (s *Server) listContent(w http.ResponseWriter, r *http.Request) {
	t, err := domain.ParseContentType(chi.URLParam(r, "kind"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not found."})
		return
	}
	search := strings.ToLower(r.URL.Query().Get("search"))
	page, _ := strconv.Atoi(r.URL.Query().Get("page")) //nolint:errcheck // zero means first page
	if page < 1 {
		page = 1
	}

	s.mu.Lock()
	var matched []domain.Content
	for _, c := range s.catalog[t] {
		if search == "" || strings.Contains(strings.ToLower(c.Title), search) {
			matched = append(matched, c)
		}
	}
	s.mu.Unlock()

	start := min((page-1)*PageSize, len(matched))
	end := min(start+PageSize, len(matched))
	s.writeList(w, matched[start:end])
}

func (s *Server) listNotifications(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	items := append([]domain.Notification(nil), s.notifications...)
	s.mu.Unlock()
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	s.writeList(w, items)
}

func (s *Server) unreadCount(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"count": s.UnreadCount()})
}

func (s *Server) markRead(w http.ResponseWriter, r *http.Request) {
	id := domain.ID(chi.URLParam(r, "id"))
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].ID.Equal(id) {
			if s.notifications[i].ReadAt == nil {
				now := time.Now()
				s.notifications[i].ReadAt = &now
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Notification not found."})
}

func (s *Server) markAllRead(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	now := time.Now()
	for i := range s.notifications {
		if s.notifications[i].ReadAt == nil {
			s.notifications[i].ReadAt = &now
		}
	}
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listMoods(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	items := append([]domain.MoodEntry(nil), s.moods...)
	s.mu.Unlock()
	s.writeList(w, items)
}

func (s *Server) logMood(w http.ResponseWriter, r *http.Request) {
	var entry domain.MoodEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid json"})
		return
	}
	entry.ID = domain.ID(uuid.NewString())
	entry.CreatedAt = time.Now()
	s.mu.Lock()
	s.moods = append([]domain.MoodEntry{entry}, s.moods...)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]any{"data": entry})
}

// --- helpers ---

// bookmarkIndex expects mu held.
func (s *Server) bookmarkIndex(key domain.BookmarkKey) int {
	for i, bm := range s.bookmarks {
		if bm.Key().String() == key.String() {
			return i
		}
	}
	return -1
}

// findContent expects mu held.
func (s *Server) findContent(key domain.BookmarkKey) (domain.Content, bool) {
	for _, c := range s.catalog[key.Type] {
		if c.ID.Equal(key.ID) {
			return c, true
		}
	}
	return domain.Content{}, false
}

func (s *Server) writeList(w http.ResponseWriter, items any) {
	s.mu.Lock()
	env := s.envelope
	s.mu.Unlock()

	switch env {
	case Data:
		writeJSON(w, http.StatusOK, map[string]any{"data": items})
	case Paginated:
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{
			"current_page": 1,
			"data":         items,
			"per_page":     PageSize,
		}})
	default:
		writeJSON(w, http.StatusOK, items)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		fmt.Fprintf(w, `{"message":%q}`, err.Error())
	}
}
