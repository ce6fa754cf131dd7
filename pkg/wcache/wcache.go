// Package wcache is the per-view window cache: a bounded, recency ordered map
// from cache key to the last payload seen for that window and the live
// subscription keeping it fresh.
package wcache

import (
	"container/list"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"k8s.io/utils/clock"

	"tableflip.dev/diary/pkg/docs"
)

// State is the lifecycle state of one key.
type State int

const (
	// Absent keys have no entry.
	Absent State = iota
	// Loading entries have a subscription but no payload yet.
	Loading
	// Live entries have a payload and an open subscription.
	Live
	// Detached entries keep their payload with the subscription closed.
	Detached
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Live:
		return "live"
	case Detached:
		return "detached"
	default:
		return "absent"
	}
}

// Entry is one cache slot.
type Entry[T any] struct {
	Payload T
	// Loaded is set once Payload holds data (or a deliberate empty seed).
	Loaded bool
	// Unsubscribe closes the live subscription; nil when none is open.
	Unsubscribe docs.Unsubscribe
	// Generation identifies the subscription that owns the entry.
	Generation uint64
	// Revision is the sequence number of the last snapshot applied.
	Revision uint64
}

// State reports the lifecycle state of e.
func (e Entry[T]) State() State {
	switch {
	case e.Unsubscribe != nil && e.Loaded:
		return Live
	case e.Unsubscribe != nil:
		return Loading
	case e.Loaded:
		return Detached
	default:
		return Absent
	}
}

// Stats counts teardown activity.
type Stats struct {
	Evictions     int
	Closed        int
	CloseFailures int
}

type options struct {
	clock clock.WithDelayedExecution
	log   *zap.Logger
}

// Option configures a Cache.
type Option func(*options)

// WithClock sets the clock deferred teardown is scheduled on.
func WithClock(c clock.WithDelayedExecution) Option {
	return func(o *options) { o.clock = c }
}

// WithLogger sets the logger teardown failures are reported to.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// Cache is safe for concurrent use. Subscriptions are always closed outside
// the cache lock.
type Cache[T any] struct {
	mu     sync.Mutex
	bound  int
	ll     *list.List
	items  map[string]*list.Element
	active string

	clock       clock.WithDelayedExecution
	log         *zap.Logger
	teardown    clock.Timer
	teardownGen uint64

	stats Stats
}

type item[T any] struct {
	key   string
	entry Entry[T]
}

// New returns a cache holding at most bound entries, the active one
// included. Eviction never picks the active key. A bound below one is
// treated as one.
func New[T any](bound int, opts ...Option) *Cache[T] {
	o := options{clock: clock.RealClock{}, log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	if bound < 1 {
		bound = 1
	}
	return &Cache[T]{
		bound: bound,
		ll:    list.New(),
		items: make(map[string]*list.Element),
		clock: o.clock,
		log:   o.log.Named("wcache"),
	}
}

// Bound is the configured entry bound.
func (c *Cache[T]) Bound() int { return c.bound }

// Len is the number of entries.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Keys lists keys from least to most recently used.
func (c *Cache[T]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, c.ll.Len())
	for e := c.ll.Back(); e != nil; e = e.Prev() {
		out = append(out, e.Value.(*item[T]).key)
	}
	return out
}

// Get looks key up without changing its recency.
func (c *Cache[T]) Get(key string) (Entry[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		return el.Value.(*item[T]).entry, true
	}
	var zero Entry[T]
	return zero, false
}

// Touch marks key most recently used.
func (c *Cache[T]) Touch(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
	}
}

// SetActive records the key currently displayed. It is never evicted.
func (c *Cache[T]) SetActive(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = key
}

// Active returns the key set with SetActive.
func (c *Cache[T]) Active() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Set stores e under key, marks it most recently used and prunes.
func (c *Cache[T]) Set(key string, e Entry[T]) {
	c.mu.Lock()
	if el, ok := c.items[key]; ok {
		el.Value.(*item[T]).entry = e
		c.ll.MoveToFront(el)
	} else {
		c.items[key] = c.ll.PushFront(&item[T]{key: key, entry: e})
	}
	evicted := c.pruneLocked(c.active)
	c.mu.Unlock()
	c.close(evicted)
}

// Update applies fn to the entry for key in place, without changing its
// recency. fn's changes are kept only when it returns true. Update reports
// whether the entry exists.
func (c *Cache[T]) Update(key string, fn func(e *Entry[T]) bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		return false
	}
	it := el.Value.(*item[T])
	e := it.entry
	if fn(&e) {
		it.entry = e
	}
	return true
}

// Prune evicts least recently used entries other than active until the
// bound holds, closing their subscriptions.
func (c *Cache[T]) Prune(active string) {
	c.mu.Lock()
	evicted := c.pruneLocked(active)
	c.mu.Unlock()
	c.close(evicted)
}

func (c *Cache[T]) pruneLocked(active string) []closer {
	var evicted []closer
	for c.ll.Len() > c.bound {
		el := c.ll.Back()
		for el != nil && el.Value.(*item[T]).key == active {
			el = el.Prev()
		}
		if el == nil {
			break
		}
		it := el.Value.(*item[T])
		c.ll.Remove(el)
		delete(c.items, it.key)
		c.stats.Evictions++
		if it.entry.Unsubscribe != nil {
			evicted = append(evicted, closer{key: it.key, fn: it.entry.Unsubscribe})
		}
	}
	return evicted
}

// Detach closes the subscription of key, keeping its payload. It is a no-op
// unless generation still owns the entry.
func (c *Cache[T]) Detach(key string, generation uint64) {
	c.mu.Lock()
	el, ok := c.items[key]
	if !ok {
		c.mu.Unlock()
		return
	}
	it := el.Value.(*item[T])
	if it.entry.Generation != generation || it.entry.Unsubscribe == nil {
		c.mu.Unlock()
		return
	}
	fn := it.entry.Unsubscribe
	it.entry.Unsubscribe = nil
	c.mu.Unlock()
	c.close([]closer{{key: key, fn: fn}})
}

// DeferTeardown schedules Sweep after d. A pending teardown is replaced.
// Timers are started and stopped outside the cache lock so a clock may run
// the sweep synchronously.
func (c *Cache[T]) DeferTeardown(d time.Duration) {
	c.mu.Lock()
	prev := c.teardown
	c.teardown = nil
	c.teardownGen++
	gen := c.teardownGen
	c.mu.Unlock()
	if prev != nil {
		prev.Stop()
	}

	t := c.clock.AfterFunc(d, func() {
		c.mu.Lock()
		if gen != c.teardownGen {
			c.mu.Unlock()
			return
		}
		c.teardown = nil
		c.teardownGen++
		closers := c.detachAllLocked()
		c.mu.Unlock()
		c.close(closers)
	})

	c.mu.Lock()
	if gen == c.teardownGen {
		c.teardown = t
		t = nil
	}
	c.mu.Unlock()
	if t != nil {
		t.Stop()
	}
}

// CancelTeardown cancels a pending DeferTeardown. It reports whether one was
// pending.
func (c *Cache[T]) CancelTeardown() bool {
	c.mu.Lock()
	t := c.teardown
	c.teardown = nil
	c.teardownGen++
	c.mu.Unlock()
	if t == nil {
		return false
	}
	t.Stop()
	return true
}

// Sweep closes every subscription, keeping payloads.
func (c *Cache[T]) Sweep() {
	c.mu.Lock()
	closers := c.detachAllLocked()
	c.mu.Unlock()
	c.close(closers)
}

func (c *Cache[T]) detachAllLocked() []closer {
	var closers []closer
	for el := c.ll.Back(); el != nil; el = el.Prev() {
		it := el.Value.(*item[T])
		if it.entry.Unsubscribe != nil {
			closers = append(closers, closer{key: it.key, fn: it.entry.Unsubscribe})
			it.entry.Unsubscribe = nil
		}
	}
	return closers
}

// TeardownAll cancels any pending teardown, closes every subscription and
// empties the cache.
func (c *Cache[T]) TeardownAll() {
	c.mu.Lock()
	t := c.teardown
	c.teardown = nil
	c.teardownGen++
	closers := c.detachAllLocked()
	c.ll.Init()
	c.items = make(map[string]*list.Element)
	c.active = ""
	c.mu.Unlock()
	if t != nil {
		t.Stop()
	}
	c.close(closers)
}

// Stats returns teardown counters.
func (c *Cache[T]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

type closer struct {
	key string
	fn  docs.Unsubscribe
}

func (c *Cache[T]) close(closers []closer) {
	for _, cl := range closers {
		err := c.safeClose(cl.fn)
		c.mu.Lock()
		c.stats.Closed++
		if err != nil {
			c.stats.CloseFailures++
		}
		c.mu.Unlock()
		if err != nil {
			c.log.Warn("unsubscribe failed", zap.String("key", cl.key), zap.Error(err))
		}
	}
}

// safeClose turns a panicking unsubscribe into an error.
func (c *Cache[T]) safeClose(fn docs.Unsubscribe) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unsubscribe panicked: %v", r)
		}
	}()
	return fn()
}
