// Package store keeps client-side copies of server collections and applies
// mutations optimistically, reconciling with the server or rolling back.
package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/naveenspark/haven/internal/logger"
	"github.com/naveenspark/haven/pkg/client"
)

var (
	// ErrBusy rejects a mutation on a key that already has one in flight.
	ErrBusy = errors.New("store: mutation already in flight")
	// ErrUnauthenticated is recorded when an operation runs without a session.
	ErrUnauthenticated = errors.New("store: not authenticated")
)

// Session is the view of the auth session the stores need.
type Session interface {
	Authenticated() bool
	Epoch() uint64
}

// Failure is the most recent error a store swallowed.
type Failure struct {
	Op   string
	Kind client.ErrorKind
	Err  error
	At   time.Time
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s: %v", f.Op, f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// pendingOp is an optimistic change whose server call has not resolved.
// apply must be idempotent: it is replayed over every refresh that lands
// while the op is pending. undo reverts only what apply changed.
type pendingOp[T any] struct {
	key   string
	apply func([]T) []T
	undo  func([]T) []T
}

// wildcardKey conflicts with every other key.
const wildcardKey = "*"

// collection is the state machine shared by Bookmarks and Notifications.
type collection[T any] struct {
	name string
	sess Session
	log  logger.Logger
	now  func() time.Time

	mu      sync.Mutex
	items   []T
	loading int
	lastErr *Failure
	gen     uint64 // bumped by clear
	seq     uint64 // last refresh issued
	applied uint64 // last refresh applied
	pending []pendingOp[T]
	subs    map[int]chan struct{}
	nextSub int
	onAuth  func()
}

func newCollection[T any](name string, sess Session, log logger.Logger) *collection[T] {
	if log == nil {
		log = logger.Nop()
	}
	return &collection[T]{
		name: name,
		sess: sess,
		log:  log.With(logger.String("store", name)),
		now:  time.Now,
		subs: make(map[int]chan struct{}),
	}
}

// snapshot returns a copy of the items.
func (c *collection[T]) snapshot() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

// read runs fn over the live items under the lock. fn must not retain them.
func (c *collection[T]) read(fn func([]T)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.items)
}

func (c *collection[T]) isLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading > 0
}

func (c *collection[T]) lastError() *Failure {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastErr == nil {
		return nil
	}
	f := *c.lastErr
	return &f
}

func (c *collection[T]) setAuthHandler(fn func()) {
	c.mu.Lock()
	c.onAuth = fn
	c.mu.Unlock()
}

// subscribe returns a channel that receives a value after state changes.
// Notifications coalesce: a slow reader sees one signal for many changes.
func (c *collection[T]) subscribe() (<-chan struct{}, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	ch := make(chan struct{}, 1)
	c.subs[id] = ch
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

// notifyLocked signals subscribers. Caller holds mu.
func (c *collection[T]) notifyLocked() {
	for _, ch := range c.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// clear drops all state. In-flight calls resolve into nothing.
func (c *collection[T]) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.loading = 0
	c.lastErr = nil
	c.pending = nil
	c.gen++
	c.applied = c.seq
	c.notifyLocked()
}

// fail records err as the last failure. Caller holds mu. It reports
// whether the failure was an auth failure.
func (c *collection[T]) failLocked(op string, err error) bool {
	kind := client.KindOf(err)
	switch {
	case errors.Is(err, ErrUnauthenticated):
		kind = client.KindAuth
	case errors.Is(err, ErrBusy):
		kind = client.KindNone
	}
	c.lastErr = &Failure{Op: op, Kind: kind, Err: err, At: c.now()}
	c.notifyLocked()
	c.log.Warn("store operation failed",
		logger.String("op", op),
		logger.Stringer("kind", kind),
		logger.Error(err))
	return kind == client.KindAuth && !errors.Is(err, ErrUnauthenticated)
}

func (c *collection[T]) authFailed() {
	c.mu.Lock()
	fn := c.onAuth
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// refresh replaces the items with fetch's result. Responses older than
// one already applied or a confirmed mutation, or from a previous session,
// are discarded. Pending optimistic ops are replayed over the fresh items.
func (c *collection[T]) refresh(ctx context.Context, op string, fetch func(context.Context) ([]T, error)) bool {
	if !c.sess.Authenticated() {
		c.mu.Lock()
		c.failLocked(op, ErrUnauthenticated)
		c.mu.Unlock()
		return false
	}
	epoch := c.sess.Epoch()

	c.mu.Lock()
	c.seq++
	seq, gen := c.seq, c.gen
	c.loading++
	c.notifyLocked()
	c.mu.Unlock()

	items, err := fetch(ctx)

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		c.log.Debug("dropping response from cleared store", logger.String("op", op))
		return false
	}
	c.loading--
	if c.sess.Epoch() != epoch {
		c.notifyLocked()
		c.mu.Unlock()
		c.log.Debug("dropping response from previous session", logger.String("op", op))
		return false
	}
	if err != nil {
		auth := c.failLocked(op, err)
		c.mu.Unlock()
		if auth {
			c.authFailed()
		}
		return false
	}
	if seq <= c.applied {
		c.notifyLocked()
		c.mu.Unlock()
		c.log.Debug("dropping superseded response",
			logger.String("op", op),
			logger.Uint64("seq", seq),
			logger.Uint64("applied", c.applied))
		return true
	}
	c.applied = seq
	if items == nil {
		items = []T{}
	}
	for _, p := range c.pending {
		items = p.apply(items)
	}
	c.items = items
	c.lastErr = nil
	c.notifyLocked()
	c.mu.Unlock()
	return true
}

// mutate applies the op built from the current items, runs call and then
// keeps the change or undoes it. build runs under the lock. A second
// mutation on a busy key is rejected with ErrBusy.
func (c *collection[T]) mutate(ctx context.Context, op, key string, build func([]T) pendingOp[T], call func(context.Context) error) bool {
	if !c.sess.Authenticated() {
		c.mu.Lock()
		c.failLocked(op, ErrUnauthenticated)
		c.mu.Unlock()
		return false
	}
	epoch := c.sess.Epoch()

	c.mu.Lock()
	if c.busyLocked(key) {
		c.failLocked(op, fmt.Errorf("%s %s: %w", op, key, ErrBusy))
		c.mu.Unlock()
		return false
	}
	p := build(c.items)
	p.key = key
	gen := c.gen
	c.pending = append(c.pending, p)
	c.items = p.apply(slices.Clone(c.items))
	c.notifyLocked()
	c.mu.Unlock()

	err := call(ctx)

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		c.log.Debug("dropping mutation result from cleared store", logger.String("op", op))
		return false
	}
	c.removePendingLocked(p.key)
	if c.sess.Epoch() != epoch {
		c.notifyLocked()
		c.mu.Unlock()
		c.log.Debug("dropping mutation result from previous session", logger.String("op", op))
		return false
	}
	if err != nil {
		c.items = p.undo(slices.Clone(c.items))
		auth := c.failLocked(op, err)
		c.mu.Unlock()
		c.log.Info("rolled back optimistic change",
			logger.String("op", op),
			logger.String("key", p.key))
		if auth {
			c.authFailed()
		}
		return false
	}
	// A refresh issued before the server confirmed may carry the old state.
	c.applied = c.seq
	c.notifyLocked()
	c.mu.Unlock()
	return true
}

// call runs a server call that does not change the items, recording its
// failure. It reports false when the call failed or the session changed.
func (c *collection[T]) call(ctx context.Context, op string, fn func(context.Context) error) bool {
	if !c.sess.Authenticated() {
		c.mu.Lock()
		c.failLocked(op, ErrUnauthenticated)
		c.mu.Unlock()
		return false
	}
	epoch := c.sess.Epoch()
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	err := fn(ctx)

	c.mu.Lock()
	if c.gen != gen || c.sess.Epoch() != epoch {
		c.mu.Unlock()
		c.log.Debug("dropping result from previous session", logger.String("op", op))
		return false
	}
	if err != nil {
		auth := c.failLocked(op, err)
		c.mu.Unlock()
		if auth {
			c.authFailed()
		}
		return false
	}
	c.mu.Unlock()
	return true
}

func (c *collection[T]) hasPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending) > 0
}

func (c *collection[T]) busyLocked(key string) bool {
	for _, p := range c.pending {
		if p.key == key || p.key == wildcardKey || key == wildcardKey {
			return true
		}
	}
	return false
}

func (c *collection[T]) removePendingLocked(key string) {
	c.pending = slices.DeleteFunc(c.pending, func(p pendingOp[T]) bool { return p.key == key })
}
