// Package app wires the session, API client, stores and poller for one
// signed-in user.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/naveenspark/haven/internal/config"
	"github.com/naveenspark/haven/internal/logger"
	"github.com/naveenspark/haven/internal/poller"
	"github.com/naveenspark/haven/internal/session"
	"github.com/naveenspark/haven/internal/store"
	"github.com/naveenspark/haven/pkg/client"
	"github.com/naveenspark/haven/pkg/domain"
)

// ErrSignedOut is returned by operations that need a session.
var ErrSignedOut = errors.New("not logged in")

// App is the composition root. Create one per process with New and
// release it with Close.
type App struct {
	Session       *session.Manager
	Client        *client.Client
	Bookmarks     *store.Bookmarks
	Notifications *store.Notifications

	cfg    *config.Config
	logger logger.Logger
	poller *poller.Refresher

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	user *domain.User

	expiring sync.WaitGroup // teardowns started by store callbacks
}

// New builds the services. Nothing talks to the network until Restore or
// Login.
func New(cfg *config.Config, log logger.Logger) *App {
	if log == nil {
		log = logger.Nop()
	}
	sess := session.New(cfg.TokenFile)
	c := client.New(cfg.APIURL, sess,
		client.WithTimeout(cfg.RequestTimeout),
		client.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
		client.WithRetries(cfg.RetryMax, 0),
		client.WithLogger(log),
	)

	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		Session:       sess,
		Client:        c,
		Bookmarks:     store.NewBookmarks(c, sess, log),
		Notifications: store.NewNotifications(c, sess, log),
		cfg:           cfg,
		logger:        log,
		ctx:           ctx,
		cancel:        cancel,
	}
	a.poller = poller.New("unread-count", cfg.PollInterval, a.pollUnread, log)

	// Store callbacks can run inside a poll, and teardown waits for it.
	expire := func() {
		a.expiring.Add(1)
		go func() {
			defer a.expiring.Done()
			a.expire()
		}()
	}
	a.Bookmarks.OnAuthFailure(expire)
	a.Notifications.OnAuthFailure(expire)
	return a
}

// Restore resumes a session from HAVEN_TOKEN or the token file. It reports
// whether a usable token was found.
func (a *App) Restore() bool {
	if !a.Session.Restore() || !a.Session.Authenticated() {
		return false
	}
	a.start()
	return true
}

// Login exchanges credentials for a token, persists it and starts the
// session's background sync. The returned user is nil when the login
// succeeded but the profile could not be fetched.
func (a *App) Login(ctx context.Context, creds domain.Credentials) (*domain.User, error) {
	tok, err := a.Client.Login(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if err := a.Session.Login(tok); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	a.start()
	a.logger.Info("logged in")

	u, err := a.Profile(ctx)
	if err != nil {
		a.logger.Warn("profile fetch failed", logger.Error(err))
		return nil, nil
	}
	return u, nil
}

// Logout revokes the token server-side (best effort) and tears the
// session down locally.
func (a *App) Logout(ctx context.Context) error {
	if a.Session.Token() != "" {
		if err := a.Client.Logout(ctx); err != nil {
			a.logger.Warn("server logout failed", logger.Error(err))
		}
	}
	return a.teardown()
}

// Authenticated reports whether a session is active.
func (a *App) Authenticated() bool {
	return a.Session.Authenticated()
}

// Polling reports whether the unread-count poller is running.
func (a *App) Polling() bool {
	return a.poller.Running()
}

// PollNow asks the poller to sync ahead of schedule.
func (a *App) PollNow() {
	a.poller.Trigger()
}

// Profile returns the signed-in user, fetching it once per session. A
// rejected token ends the session before Profile returns.
func (a *App) Profile(ctx context.Context) (*domain.User, error) {
	a.mu.Lock()
	u := a.user
	a.mu.Unlock()
	if u != nil {
		return u, nil
	}
	if !a.Authenticated() {
		return nil, ErrSignedOut
	}
	u, err := a.Client.GetProfile(ctx)
	if err != nil {
		if client.KindOf(err) == client.KindAuth {
			a.expire()
		}
		return nil, err
	}
	a.mu.Lock()
	a.user = u
	a.mu.Unlock()
	return u, nil
}

// RefreshAll reloads both stores concurrently.
func (a *App) RefreshAll(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); a.Bookmarks.Refresh(ctx) }()
	go func() { defer wg.Done(); a.Notifications.Refresh(ctx) }()
	wg.Wait()
}

// Close stops background work and waits for a pending sign-out to finish.
// A session that was not rejected is kept for the next run.
func (a *App) Close() {
	a.poller.Stop()
	a.expiring.Wait()
	a.cancel()
	_ = a.logger.Sync() //nolint:errcheck // stderr sync fails on some terminals
}

// start resets per-session state and (re)starts the poller. The poller
// replaces any timer left from a previous session.
func (a *App) start() {
	a.mu.Lock()
	a.user = nil
	a.mu.Unlock()
	a.Bookmarks.Clear()
	a.Notifications.Clear()
	a.poller.Start(a.ctx)
}

func (a *App) teardown() error {
	a.poller.Stop()
	err := a.Session.Logout()
	a.mu.Lock()
	a.user = nil
	a.mu.Unlock()
	a.Bookmarks.Clear()
	a.Notifications.Clear()
	a.logger.Info("session ended")
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// expire ends a session the server has rejected.
func (a *App) expire() {
	if a.Session.Token() == "" {
		return
	}
	a.logger.Warn("session rejected by server, signing out")
	if err := a.teardown(); err != nil {
		a.logger.Error("teardown failed", logger.Error(err))
	}
}

func (a *App) pollUnread(ctx context.Context) error {
	if !a.Authenticated() {
		return nil
	}
	if a.Notifications.SyncUnreadCount(ctx) {
		return nil
	}
	if f := a.Notifications.LastError(); f != nil {
		return f
	}
	return nil
}
