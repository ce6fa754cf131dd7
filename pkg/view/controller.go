// Package view keeps calendar and detail views live. A Controller owns one
// window cache, opens a live query per displayed window, and publishes a
// render-ready State whenever the displayed payload genuinely changes.
//
// Controllers never return errors to their caller: subscription failures,
// missing principals and unresolvable images all degrade to the last cached
// payload or a skeleton with Loading cleared.
package view

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"k8s.io/utils/clock"

	"tableflip.dev/diary/pkg/auth"
	"tableflip.dev/diary/pkg/blob"
	"tableflip.dev/diary/pkg/docs"
	"tableflip.dev/diary/pkg/wcache"
)

// DefaultKeepAlive is how long subscriptions outlive a blurred view.
const DefaultKeepAlive = 180 * time.Second

// Default cache bounds.
const (
	DayBound    = 31
	WeekBound   = 12
	MonthBound  = 12
	DetailBound = 64
)

// State is what a view renders.
type State[T any] struct {
	Key     string `json:"key"`
	Payload T      `json:"payload"`
	Loading bool   `json:"loading"`
}

// Source adapts the controller to one kind of view.
type Source[T any] interface {
	// Key is the cache key of the target.
	Key(t Target) string
	// Skeleton is the payload shown before data arrives.
	Skeleton(t Target) T
	// Query is the live query backing the target.
	Query(uid string, t Target) docs.Query
	// Build turns a result set into a payload, resolving images. It may
	// block.
	Build(ctx context.Context, t Target, result []docs.Document) T
	// Equal reports whether two payloads render the same.
	Equal(a, b T) bool
}

// Deps are the collaborators a controller is built from.
type Deps struct {
	Docs      docs.Service
	Resolver  *blob.Resolver
	Principal auth.Principal
}

type options struct {
	bound     int
	keepAlive time.Duration
	clock     clock.WithDelayedExecution
	log       *zap.Logger
}

// Option configures a controller.
type Option func(*options)

// WithBound overrides the cache bound.
func WithBound(n int) Option {
	return func(o *options) { o.bound = n }
}

// WithKeepAlive overrides how long subscriptions survive Deactivate.
func WithKeepAlive(d time.Duration) Option {
	return func(o *options) { o.keepAlive = d }
}

// WithClock sets the clock used for deferred teardown.
func WithClock(c clock.WithDelayedExecution) Option {
	return func(o *options) { o.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// Controller drives one mounted view.
type Controller[T any] struct {
	src       Source[T]
	svc       docs.Service
	principal auth.Principal
	cache     *wcache.Cache[T]
	log       *zap.Logger
	keepAlive time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	state    State[T]
	active   string
	target   Target
	gen      uint64
	seq      uint64
	updates  chan State[T]
	count    uint64
	disposed bool
	applied  []func(key string, payload T)
	pending  map[string]*inflight
}

// inflight tracks snapshot builds of one subscription that have not been
// applied yet. An error waits for them before the query is detached.
type inflight struct {
	gen    uint64
	builds int
	failed error
}

// NewController returns a controller for src. Most callers want NewDay,
// NewWeek, NewMonth or NewDetail.
func NewController[T any](src Source[T], deps Deps, bound int, opts ...Option) *Controller[T] {
	o := options{bound: bound, keepAlive: DefaultKeepAlive, clock: clock.RealClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	principal := deps.Principal
	if principal == nil {
		principal = auth.Static("")
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller[T]{
		src:       src,
		svc:       deps.Docs,
		principal: principal,
		cache:     wcache.New[T](o.bound, wcache.WithClock(o.clock), wcache.WithLogger(o.log)),
		log:       o.log.Named("view"),
		keepAlive: o.keepAlive,
		ctx:       ctx,
		cancel:    cancel,
		updates:   make(chan State[T], 16),
		pending:   make(map[string]*inflight),
	}
}

// Activate displays target, reusing any cached payload and opening a live
// query if none is open. It is called on focus and on every window change.
func (c *Controller[T]) Activate(target Target) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}

	c.cache.CancelTeardown()

	key := c.src.Key(target)
	c.active, c.target = key, target
	c.cache.SetActive(key)

	e, ok := c.cache.Get(key)
	if ok && e.Loaded {
		c.publishLocked(State[T]{Key: key, Payload: e.Payload})
	} else {
		c.publishLocked(State[T]{Key: key, Payload: c.src.Skeleton(target), Loading: true})
	}
	c.cache.Touch(key)

	uid := c.principal.UID()
	if target.partition() == "" || uid == "" || c.svc == nil {
		c.seedLocked(key, target)
		return
	}
	if ok && e.Unsubscribe != nil {
		return
	}
	c.subscribeLocked(key, target, uid)
}

// Deactivate schedules teardown of every live query after the keep-alive
// period. Activate before then cancels it.
func (c *Controller[T]) Deactivate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	c.cache.DeferTeardown(c.keepAlive)
}

// Dispose closes every live query and empties the cache. Completions still
// in flight are discarded. The Updates channel is closed.
func (c *Controller[T]) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	c.cancel()
	close(c.updates)
	c.mu.Unlock()
	c.cache.TeardownAll()
}

// State returns the last published state.
func (c *Controller[T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Updates streams published states. Slow readers miss intermediate states
// but always see the latest one.
func (c *Controller[T]) Updates() <-chan State[T] {
	return c.updates
}

// Await blocks until the active key has finished loading, ctx is done or the
// controller is disposed, and returns the state at that point. It consumes
// Updates.
func (c *Controller[T]) Await(ctx context.Context) State[T] {
	for {
		s := c.State()
		if !s.Loading {
			return s
		}
		select {
		case <-ctx.Done():
			return c.State()
		case _, ok := <-c.updates:
			if !ok {
				return c.State()
			}
		}
	}
}

// Target returns the last activated target.
func (c *Controller[T]) Target() Target {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

// UpdateCount is the number of states published so far.
func (c *Controller[T]) UpdateCount() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Cache exposes the controller's window cache for inspection.
func (c *Controller[T]) Cache() *wcache.Cache[T] {
	return c.cache
}

// OnApplied registers fn to run after a changed payload is stored for any
// key, before the new state is published. fn runs with the controller lock
// held: it must not block or call back into the controller.
func (c *Controller[T]) OnApplied(fn func(key string, payload T)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applied = append(c.applied, fn)
}

func (c *Controller[T]) seedLocked(key string, target Target) {
	e, ok := c.cache.Get(key)
	if !ok || !e.Loaded {
		e.Payload = c.src.Skeleton(target)
		e.Loaded = true
		c.cache.Set(key, e)
	}
	if key == c.active && c.state.Loading {
		c.publishLocked(State[T]{Key: key, Payload: e.Payload})
	}
}

func (c *Controller[T]) subscribeLocked(key string, target Target, uid string) {
	c.gen++
	gen := c.gen

	// Deliveries wait on c.mu, so the entry carries the generation before
	// the first snapshot can be looked at.
	q := c.src.Query(uid, target)
	unsub, err := c.svc.Subscribe(c.ctx, q,
		func(result []docs.Document) { c.deliver(key, target, gen, result) },
		func(err error) { c.fail(key, target, gen, err) },
	)
	if err != nil {
		c.log.Warn("open live query", zap.String("key", key), zap.String("query", q.String()), zap.Error(err))
		c.seedLocked(key, target)
		return
	}
	e, _ := c.cache.Get(key)
	e.Generation = gen
	e.Unsubscribe = unsub
	c.cache.Set(key, e)
	c.log.Debug("live query opened", zap.String("key", key), zap.Uint64("generation", gen))
}

func (c *Controller[T]) owns(key string, gen uint64) (wcache.Entry[T], bool) {
	e, ok := c.cache.Get(key)
	if !ok || e.Generation != gen || e.Unsubscribe == nil {
		return e, false
	}
	return e, true
}

func (c *Controller[T]) deliver(key string, target Target, gen uint64, result []docs.Document) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	if _, ok := c.owns(key, gen); !ok {
		c.mu.Unlock()
		return
	}
	p := c.pending[key]
	if p == nil || p.gen != gen {
		p = &inflight{gen: gen}
		c.pending[key] = p
	}
	if p.failed != nil {
		c.mu.Unlock()
		return
	}
	p.builds++
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	go func() {
		payload := c.src.Build(c.ctx, target, result)
		c.apply(key, target, gen, seq, payload)
	}()
}

func (c *Controller[T]) apply(key string, target Target, gen, seq uint64, payload T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	if p := c.pending[key]; p != nil && p.gen == gen {
		p.builds--
	}
	c.applyLocked(key, gen, seq, payload)
	c.settleLocked(key, target, gen)
}

func (c *Controller[T]) applyLocked(key string, gen, seq uint64, payload T) {
	e, ok := c.owns(key, gen)
	if !ok || seq <= e.Revision {
		c.log.Debug("discard stale completion", zap.String("key", key), zap.Uint64("seq", seq))
		return
	}

	if e.Loaded && c.src.Equal(e.Payload, payload) {
		c.cache.Update(key, func(e *wcache.Entry[T]) bool {
			e.Revision = seq
			return true
		})
		c.cache.Touch(key)
		if key == c.active && c.state.Loading {
			c.publishLocked(State[T]{Key: key, Payload: e.Payload})
		}
		return
	}

	e.Payload, e.Loaded, e.Revision = payload, true, seq
	c.cache.Set(key, e)
	for _, fn := range c.applied {
		fn(key, payload)
	}
	if key == c.active {
		c.publishLocked(State[T]{Key: key, Payload: payload})
	}
}

// settleLocked drops the build tracking of key once nothing is in flight and
// detaches the query if it failed meanwhile.
func (c *Controller[T]) settleLocked(key string, target Target, gen uint64) {
	p := c.pending[key]
	if p == nil || p.gen != gen || p.builds > 0 {
		return
	}
	delete(c.pending, key)
	if p.failed != nil {
		c.detachLocked(key, target, gen, p.failed)
	}
}

func (c *Controller[T]) fail(key string, target Target, gen uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	if _, ok := c.owns(key, gen); !ok {
		return
	}
	if p := c.pending[key]; p != nil && p.gen == gen && p.builds > 0 {
		if p.failed == nil {
			p.failed = err
			c.log.Debug("live query failed with snapshots in flight", zap.String("key", key), zap.Int("builds", p.builds))
		}
		return
	}
	c.detachLocked(key, target, gen, err)
}

func (c *Controller[T]) detachLocked(key string, target Target, gen uint64, err error) {
	e, ok := c.owns(key, gen)
	if !ok {
		return
	}
	c.log.Warn("live query failed", zap.String("key", key), zap.Error(err))
	c.cache.Detach(key, gen)
	if !e.Loaded {
		e.Payload = c.src.Skeleton(target)
		c.cache.Update(key, func(entry *wcache.Entry[T]) bool {
			entry.Payload = e.Payload
			entry.Loaded = true
			return true
		})
	}
	if key == c.active {
		c.publishLocked(State[T]{Key: key, Payload: e.Payload})
	}
}

// publishLocked records s and offers it to Updates, dropping the oldest
// queued state when the reader is behind.
func (c *Controller[T]) publishLocked(s State[T]) {
	c.state = s
	c.count++
	select {
	case c.updates <- s:
		return
	default:
	}
	select {
	case <-c.updates:
	default:
	}
	select {
	case c.updates <- s:
	default:
	}
}
