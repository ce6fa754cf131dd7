package docs

import (
	"context"
	"sync"
)

// hub fans collection changes out to live queries. Each subscription owns a
// goroutine that delivers snapshots in order, coalescing bursts to the most
// recent result set.
type hub struct {
	mu     sync.Mutex
	next   uint64
	subs   map[uint64]*subscription
	closed bool
}

type subscription struct {
	id         uint64
	q          Query
	onSnapshot SnapshotFunc
	onError    ErrorFunc

	mu      sync.Mutex
	pending []Document
	err     error
	dirty   bool

	wake      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func (h *hub) add(ctx context.Context, q Query, onSnapshot SnapshotFunc, onError ErrorFunc) (*subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrClosed
	}
	if h.subs == nil {
		h.subs = make(map[uint64]*subscription)
	}
	h.next++
	s := &subscription{
		id:         h.next,
		q:          q,
		onSnapshot: onSnapshot,
		onError:    onError,
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	h.subs[s.id] = s
	go s.run(ctx)
	return s, nil
}

func (h *hub) remove(id uint64) {
	h.mu.Lock()
	s, ok := h.subs[id]
	delete(h.subs, id)
	h.mu.Unlock()
	if ok {
		s.close()
	}
}

// unsubscribe returns the Unsubscribe handed to callers. Closing twice is
// an error so misuse shows up in teardown reports.
func (h *hub) unsubscribe(s *subscription) Unsubscribe {
	var once sync.Once
	return func() error {
		err := errAlreadyClosed
		once.Do(func() {
			err = nil
			h.remove(s.id)
		})
		return err
	}
}

// matching returns the live subscriptions on collection ("" matches all).
func (h *hub) matching(collection string) []*subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*subscription, 0, len(h.subs))
	for _, s := range h.subs {
		if collection == "" || s.q.Collection == collection {
			out = append(out, s)
		}
	}
	return out
}

func (h *hub) shutdown() {
	h.mu.Lock()
	h.closed = true
	subs := h.subs
	h.subs = nil
	h.mu.Unlock()
	for _, s := range subs {
		s.fail(ErrClosed)
	}
}

func (s *subscription) push(docs []Document) {
	s.mu.Lock()
	s.pending = docs
	s.dirty = true
	s.mu.Unlock()
	s.signal()
}

func (s *subscription) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	s.signal()
}

func (s *subscription) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscription) close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *subscription) run(ctx context.Context) {
	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			s.close()
			return
		case <-s.wake:
		}

		s.mu.Lock()
		docs, dirty, err := s.pending, s.dirty, s.err
		s.pending, s.dirty = nil, false
		s.mu.Unlock()

		// A close that raced the wake-up wins.
		select {
		case <-s.done:
			return
		default:
		}

		if dirty && s.onSnapshot != nil {
			s.onSnapshot(docs)
		}
		if err != nil {
			if s.onError != nil {
				s.onError(err)
			}
			s.close()
			return
		}
	}
}
