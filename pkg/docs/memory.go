package docs

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process Service. Writes are visible to live queries as soon
// as the write returns.
type Memory struct {
	hub hub

	mu          sync.RWMutex
	collections map[string]map[string]Document
}

var _ Service = (*Memory)(nil)

// NewMemory returns an empty in-memory service.
func NewMemory() *Memory {
	return &Memory{collections: make(map[string]map[string]Document)}
}

func (m *Memory) Subscribe(ctx context.Context, q Query, onSnapshot SnapshotFunc, onError ErrorFunc) (Unsubscribe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q.Collection = strings.Trim(q.Collection, "/")
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, err := m.hub.add(ctx, q, onSnapshot, onError)
	if err != nil {
		return nil, err
	}
	s.push(cloneDocs(Run(q, m.listLocked(q.Collection))))
	return m.hub.unsubscribe(s), nil
}

func (m *Memory) Get(ctx context.Context, q Query) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneDocs(Run(q, m.listLocked(q.Collection))), nil
}

func (m *Memory) Put(ctx context.Context, collection string, doc Document) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	collection = strings.Trim(collection, "/")
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	doc, err := normalize(doc)
	if err != nil {
		return Document{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.collections[collection] == nil {
		m.collections[collection] = make(map[string]Document)
	}
	m.collections[collection][doc.ID] = doc
	m.notifyLocked(collection)
	return Document{ID: doc.ID, Data: cloneData(doc.Data)}, nil
}

func (m *Memory) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	collection = strings.Trim(collection, "/")
	patch, err := normalize(Document{ID: id, Data: fields})
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	merged := cloneData(existing.Data)
	if merged == nil {
		merged = make(map[string]any, len(patch.Data))
	}
	for k, v := range patch.Data {
		merged[k] = v
	}
	m.collections[collection][id] = Document{ID: id, Data: merged}
	m.notifyLocked(collection)
	return nil
}

func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	collection = strings.Trim(collection, "/")
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[collection][id]; !ok {
		return ErrNotFound
	}
	delete(m.collections[collection], id)
	m.notifyLocked(collection)
	return nil
}

// Close fails every live query with ErrClosed.
func (m *Memory) Close() error {
	m.hub.shutdown()
	return nil
}

func (m *Memory) listLocked(collection string) []Document {
	items := m.collections[strings.Trim(collection, "/")]
	out := make([]Document, 0, len(items))
	for _, d := range items {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Memory) notifyLocked(collection string) {
	all := m.listLocked(collection)
	for _, s := range m.hub.matching(collection) {
		s.push(cloneDocs(Run(s.q, all)))
	}
}
