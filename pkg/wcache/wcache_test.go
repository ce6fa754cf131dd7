package wcache

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	testingclock "k8s.io/utils/clock/testing"

	"tableflip.dev/diary/pkg/docs"
)

// subs hands out counting unsubscribe funcs.
type subs struct {
	mu    sync.Mutex
	calls map[string]int
}

func newSubs() *subs { return &subs{calls: make(map[string]int)} }

func (s *subs) unsub(key string) docs.Unsubscribe {
	return func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.calls[key]++
		return nil
	}
}

func (s *subs) count(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[key]
}

func live(s *subs, key string, payload string) Entry[string] {
	return Entry[string]{Payload: payload, Loaded: true, Unsubscribe: s.unsub(key)}
}

func TestBoundHoldsAndActiveSurvives(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	s := newSubs()
	c := New[string](5, WithLogger(zaptest.NewLogger(t)))

	for i := 0; i < 500; i++ {
		key := fmt.Sprintf("k%d", rng.Intn(20))
		c.SetActive(key)
		if _, ok := c.Get(key); !ok {
			c.Set(key, live(s, key, key))
		}
		c.Touch(key)

		require.LessOrEqual(t, c.Len(), 5)
		_, ok := c.Get(key)
		require.True(t, ok, "active key %s evicted", key)
	}
}

func TestActiveIsSkippedWhenLeastRecent(t *testing.T) {
	s := newSubs()
	c := New[string](2)
	c.Set("a", live(s, "a", "a"))
	c.Set("b", live(s, "b", "b"))

	// "a" is least recent but active.
	c.SetActive("a")
	c.Set("c", live(s, "c", "c"))

	assert.ElementsMatch(t, []string{"a", "c"}, c.Keys())
	assert.Equal(t, 1, s.count("b"))
	assert.Equal(t, 0, s.count("a"))
}

func TestBoundOneKeepsOnlyActive(t *testing.T) {
	c := New[string](1)
	c.SetActive("x")
	c.Set("x", Entry[string]{Payload: "x", Loaded: true})
	c.Set("y", Entry[string]{Payload: "y", Loaded: true})
	assert.Equal(t, []string{"x"}, c.Keys())

	// Only the active key present: nothing else to evict.
	c.Prune("x")
	assert.Equal(t, 1, c.Len())
}

func TestEvictionOrderAndSingleUnsubscribe(t *testing.T) {
	s := newSubs()
	c := New[string](3)
	for _, k := range []string{"W1", "W2", "W3", "W4"} {
		c.SetActive(k)
		c.Set(k, live(s, k, k))
	}
	assert.Equal(t, []string{"W2", "W3", "W4"}, c.Keys())
	assert.Equal(t, 1, s.count("W1"))
	assert.Equal(t, Stats{Evictions: 1, Closed: 1}, c.Stats())

	c.Touch("W2")
	c.SetActive("W5")
	c.Set("W5", live(s, "W5", "W5"))
	assert.Equal(t, []string{"W4", "W2", "W5"}, c.Keys())
	assert.Equal(t, 1, s.count("W3"))
	assert.Equal(t, 1, s.count("W1"))
}

func TestGetDoesNotReorder(t *testing.T) {
	c := New[string](2)
	c.Set("a", Entry[string]{Loaded: true})
	c.Set("b", Entry[string]{Loaded: true})
	_, _ = c.Get("a")
	c.Set("c", Entry[string]{Loaded: true})
	assert.Equal(t, []string{"b", "c"}, c.Keys())
}

func TestEntryState(t *testing.T) {
	s := newSubs()
	assert.Equal(t, Absent, Entry[string]{}.State())
	assert.Equal(t, Loading, Entry[string]{Unsubscribe: s.unsub("x")}.State())
	assert.Equal(t, Live, live(s, "x", "p").State())
	assert.Equal(t, Detached, Entry[string]{Loaded: true}.State())
}

func TestDeferredTeardownCancel(t *testing.T) {
	fc := testingclock.NewFakeClock(time.Now())
	s := newSubs()
	c := New[string](4, WithClock(fc))
	c.Set("a", live(s, "a", "a"))

	c.DeferTeardown(180 * time.Second)
	require.True(t, fc.HasWaiters())
	fc.Step(179 * time.Second)
	require.True(t, c.CancelTeardown())

	fc.Step(time.Hour)
	e, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, Live, e.State())
	assert.Equal(t, 0, s.count("a"))
	assert.False(t, c.CancelTeardown(), "nothing pending")
}

func TestDeferredTeardownFires(t *testing.T) {
	fc := testingclock.NewFakeClock(time.Now())
	s := newSubs()
	c := New[string](4, WithClock(fc))
	c.Set("a", live(s, "a", "pa"))
	c.Set("b", live(s, "b", "pb"))
	c.Set("seed", Entry[string]{Loaded: true})

	c.DeferTeardown(180 * time.Second)
	// A second blur replaces the first timer rather than adding one.
	c.DeferTeardown(180 * time.Second)
	fc.Step(180 * time.Second)

	require.Eventually(t, func() bool {
		return s.count("a") == 1 && s.count("b") == 1
	}, time.Second, 5*time.Millisecond)
	for _, k := range []string{"a", "b"} {
		e, ok := c.Get(k)
		require.True(t, ok)
		assert.Nil(t, e.Unsubscribe)
		assert.Equal(t, "p"+k, e.Payload)
		assert.Equal(t, Detached, e.State())
	}
	assert.Equal(t, 3, c.Len())
}

func TestTeardownFailuresAreCounted(t *testing.T) {
	c := New[string](1, WithLogger(zaptest.NewLogger(t)))
	c.Set("bad", Entry[string]{Unsubscribe: func() error { return errors.New("boom") }})
	c.Set("panics", Entry[string]{Unsubscribe: func() error { panic("oops") }})
	c.Set("ok", Entry[string]{Unsubscribe: func() error { return nil }})

	c.TeardownAll()
	assert.Equal(t, 0, c.Len())
	st := c.Stats()
	assert.Equal(t, 3, st.Closed)
	assert.Equal(t, 2, st.CloseFailures)
	assert.Equal(t, 2, st.Evictions)
}

func TestDetachHonoursGeneration(t *testing.T) {
	s := newSubs()
	c := New[string](2)
	e := live(s, "a", "a")
	e.Generation = 2
	c.Set("a", e)

	c.Detach("a", 1)
	assert.Equal(t, 0, s.count("a"), "stale generation is ignored")

	c.Detach("a", 2)
	assert.Equal(t, 1, s.count("a"))
	got, _ := c.Get("a")
	assert.Equal(t, Detached, got.State())
}

func TestTeardownAllCancelsPendingSweep(t *testing.T) {
	fc := testingclock.NewFakeClock(time.Now())
	s := newSubs()
	c := New[string](2, WithClock(fc))
	c.Set("a", live(s, "a", "a"))
	c.DeferTeardown(time.Minute)
	c.TeardownAll()
	assert.Equal(t, 1, s.count("a"))

	fc.Step(time.Hour)
	assert.Equal(t, 1, s.count("a"))
}

func TestUpdateKeepsRecency(t *testing.T) {
	c := New[string](2)
	c.Set("a", Entry[string]{Payload: "a"})
	c.Set("b", Entry[string]{Payload: "b"})

	assert.True(t, c.Update("a", func(e *Entry[string]) bool {
		e.Revision = 7
		return true
	}))
	assert.True(t, c.Update("a", func(e *Entry[string]) bool {
		e.Payload = "discarded"
		return false
	}))
	assert.False(t, c.Update("zz", func(*Entry[string]) bool { return true }))

	got, _ := c.Get("a")
	assert.Equal(t, uint64(7), got.Revision)
	assert.Equal(t, "a", got.Payload)
	assert.Equal(t, []string{"a", "b"}, c.Keys())
}
