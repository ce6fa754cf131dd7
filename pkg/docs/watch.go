package docs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// EventType describes the nature of a storage change notification.
type EventType int

const (
	// EventCollectionChanged indicates documents of the given collection were
	// added, edited, or removed.
	EventCollectionChanged EventType = iota

	// EventCollectionsInvalidated signals a change that could not be tied to
	// one collection; every live query should be re-run.
	EventCollectionsInvalidated
)

// Event is emitted by the disk watcher when underlying storage changes.
type Event struct {
	Type       EventType
	Collection string
}

const watchThrottle = 100 * time.Millisecond

// watch streams change events until ctx is cancelled. The channel is closed
// once ctx is done or the watcher fails.
func (s *Disk) watch(ctx context.Context) (<-chan Event, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("docs: create watcher: %w", err)
	}
	var closeOnce sync.Once
	closeWatcher := func() {
		closeOnce.Do(func() {
			if err := watcher.Close(); err != nil {
				s.log.Warn("watcher close", zap.Error(err))
			}
		})
	}

	dirs, err := collectDirs(s.basePath)
	if err != nil {
		closeWatcher()
		return nil, fmt.Errorf("docs: enumerate directories: %w", err)
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			closeWatcher()
			return nil, fmt.Errorf("docs: watch %s: %w", dir, err)
		}
	}

	events := make(chan Event, 64)

	go func() {
		defer close(events)
		defer closeWatcher()

		watched := make(map[string]struct{}, len(dirs))
		for _, dir := range dirs {
			watched[dir] = struct{}{}
		}

		send := func(ev Event) {
			select {
			case events <- ev:
			case <-ctx.Done():
			}
		}

		throttle := newEventThrottle(watchThrottle)
		defer throttle.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.log.Warn("watcher error, refreshing all queries", zap.Error(err))
				throttle.Enqueue(Event{Type: EventCollectionsInvalidated}, send)
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}

				if evt.Op&fsnotify.Create == fsnotify.Create {
					if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
						dir := filepath.Clean(evt.Name)
						if _, found := watched[dir]; !found {
							if err := watcher.Add(dir); err != nil {
								s.log.Warn("watch new collection", zap.String("dir", dir), zap.Error(err))
							} else {
								watched[dir] = struct{}{}
							}
						}
						throttle.Enqueue(Event{Type: EventCollectionsInvalidated}, send)
						continue
					}
				}

				collection, ok := s.collectionForPath(evt.Name)
				if !ok {
					throttle.Enqueue(Event{Type: EventCollectionsInvalidated}, send)
					continue
				}
				throttle.Enqueue(Event{Type: EventCollectionChanged, Collection: collection}, send)
			}
		}
	}()

	return events, nil
}

// collectDirs walks base and returns all directories that should be watched.
func collectDirs(base string) ([]string, error) {
	dirs := []string{base}
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() && path != base {
			dirs = append(dirs, path)
		}
		return nil
	})
	return dirs, err
}

// collectionForPath derives the collection from a diskv path.
func (s *Disk) collectionForPath(path string) (string, bool) {
	rel, err := filepath.Rel(s.basePath, path)
	if err != nil || rel == "." {
		return "", false
	}
	encoded, _, _ := strings.Cut(rel, string(os.PathSeparator))
	if encoded == "" {
		return "", false
	}
	return fromCollection(encoded)
}

// eventThrottle coalesces bursts of filesystem activity so a live query is
// re-run once per burst instead of once per write.
type eventThrottle struct {
	mu      sync.Mutex
	timer   *time.Timer
	pending map[EventType]map[string]struct{}
	delay   time.Duration
	stopped bool
}

func newEventThrottle(delay time.Duration) *eventThrottle {
	return &eventThrottle{
		delay:   delay,
		pending: make(map[EventType]map[string]struct{}),
	}
}

func (t *eventThrottle) Enqueue(ev Event, send func(Event)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	if t.pending[ev.Type] == nil {
		t.pending[ev.Type] = make(map[string]struct{})
	}
	t.pending[ev.Type][ev.Collection] = struct{}{}

	if t.timer == nil {
		t.timer = time.AfterFunc(t.delay, func() {
			t.flush(send)
		})
	}
}

// flush holds the lock while sending so Stop cannot return mid-flush.
func (t *eventThrottle) flush(send func(Event)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	pending := t.pending
	t.pending = make(map[EventType]map[string]struct{})
	t.timer = nil
	if t.stopped {
		return
	}

	if _, ok := pending[EventCollectionsInvalidated]; ok {
		send(Event{Type: EventCollectionsInvalidated})
		return
	}
	for collection := range pending[EventCollectionChanged] {
		send(Event{Type: EventCollectionChanged, Collection: collection})
	}
}

func (t *eventThrottle) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
