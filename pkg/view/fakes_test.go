package view

import (
	"context"
	"errors"
	"sync"

	"tableflip.dev/diary/pkg/blob"
	"tableflip.dev/diary/pkg/docs"
)

// fakeDocs is a document service whose snapshots are pushed by the test.
type fakeDocs struct {
	mu           sync.Mutex
	subs         []*fakeSub
	subscribeErr error
	updated      []map[string]any
}

type fakeSub struct {
	q          docs.Query
	onSnapshot docs.SnapshotFunc
	onError    docs.ErrorFunc

	mu     sync.Mutex
	closed int
}

func (s *fakeSub) closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (f *fakeDocs) Subscribe(_ context.Context, q docs.Query, onSnapshot docs.SnapshotFunc, onError docs.ErrorFunc) (docs.Unsubscribe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subscribeErr != nil {
		return nil, f.subscribeErr
	}
	s := &fakeSub{q: q, onSnapshot: onSnapshot, onError: onError}
	f.subs = append(f.subs, s)
	return func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.closed++
		if s.closed > 1 {
			return errors.New("closed twice")
		}
		return nil
	}, nil
}

func (f *fakeDocs) sub(i int) *fakeSub {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subs[i]
}

func (f *fakeDocs) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *fakeDocs) Get(context.Context, docs.Query) ([]docs.Document, error) { return nil, nil }

func (f *fakeDocs) Put(_ context.Context, _ string, doc docs.Document) (docs.Document, error) {
	return doc, nil
}

func (f *fakeDocs) Update(_ context.Context, _ string, _ string, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, fields)
	return nil
}

func (f *fakeDocs) Delete(context.Context, string, string) error { return nil }

// gatedStore resolves object paths, holding back paths with a gate until
// the test releases them.
type gatedStore struct {
	mu    sync.Mutex
	urls  map[string]string
	gates map[string]chan struct{}
}

func newGatedStore(urls map[string]string) *gatedStore {
	return &gatedStore{urls: urls, gates: make(map[string]chan struct{})}
}

func (g *gatedStore) hold(p string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gates[p] = make(chan struct{})
}

func (g *gatedStore) release(p string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	close(g.gates[p])
}

func (g *gatedStore) ResolveURL(ctx context.Context, p string) (string, error) {
	g.mu.Lock()
	gate := g.gates[p]
	g.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	u, ok := g.urls[p]
	if !ok {
		return "", blob.ErrNotFound
	}
	return u, nil
}
