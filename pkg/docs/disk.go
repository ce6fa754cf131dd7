package docs

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/peterbourgon/diskv/v3"
	"go.uber.org/zap"
)

// Disk is a Service persisted with diskv. Each document is a JSON file under
// <base>/<hex(collection)>/<id>. Live queries are refreshed on local writes
// and, through a filesystem watcher, on writes made by other processes.
type Disk struct {
	hub hub
	d   *diskv.Diskv
	log *zap.Logger

	basePath string

	// writeMu orders writes with the notifications they trigger.
	writeMu sync.Mutex

	watchOnce   sync.Once
	watchErr    error
	stopWatch   context.CancelFunc
	watchClosed chan struct{}
}

var _ Service = (*Disk)(nil)

// OpenDisk opens (creating if needed) a store rooted at basePath.
func OpenDisk(basePath string, log *zap.Logger) (*Disk, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, errors.New("docs: base path required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("docs: ensure base path: %w", err)
	}
	return &Disk{
		d: diskv.New(diskv.Options{
			BasePath:          basePath,
			AdvancedTransform: keyToPathTransform,
			InverseTransform:  pathToKeyTransform,
			// No read cache: other processes write the same files and the
			// watcher only tells us that something changed.
			CacheSizeMax: 0,
		}),
		log:      log.Named("docs"),
		basePath: basePath,
	}, nil
}

func (s *Disk) Subscribe(ctx context.Context, q Query, onSnapshot SnapshotFunc, onError ErrorFunc) (Unsubscribe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ensureWatch(); err != nil {
		return nil, err
	}
	q.Collection = strings.Trim(q.Collection, "/")

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	sub, err := s.hub.add(ctx, q, onSnapshot, onError)
	if err != nil {
		return nil, err
	}
	all, err := s.list(ctx, q.Collection)
	if err != nil {
		sub.fail(err)
	} else {
		sub.push(Run(q, all))
	}
	return s.hub.unsubscribe(sub), nil
}

func (s *Disk) Get(ctx context.Context, q Query) ([]Document, error) {
	all, err := s.list(ctx, strings.Trim(q.Collection, "/"))
	if err != nil {
		return nil, err
	}
	return Run(q, all), nil
}

func (s *Disk) Put(ctx context.Context, collection string, doc Document) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	collection = strings.Trim(collection, "/")
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.write(collection, doc); err != nil {
		return Document{}, err
	}
	s.notifyLocked(ctx, collection)
	return doc, nil
}

func (s *Disk) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	collection = strings.Trim(collection, "/")
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	existing, err := s.read(toKey(collection, id))
	if err != nil {
		return err
	}
	if existing.Data == nil {
		existing.Data = make(map[string]any, len(fields))
	}
	for k, v := range fields {
		existing.Data[k] = v
	}
	if err := s.write(collection, existing); err != nil {
		return err
	}
	s.notifyLocked(ctx, collection)
	return nil
}

func (s *Disk) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	collection = strings.Trim(collection, "/")
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	key := toKey(collection, id)
	if !s.d.Has(key) {
		return ErrNotFound
	}
	if err := s.d.Erase(key); err != nil {
		return fmt.Errorf("docs: erase %s: %w", key, err)
	}
	s.notifyLocked(ctx, collection)
	return nil
}

// Close stops the watcher and fails every live query with ErrClosed.
func (s *Disk) Close() error {
	// Synchronizes with a concurrent ensureWatch and blocks later ones.
	s.watchOnce.Do(func() {})
	if s.stopWatch != nil {
		s.stopWatch()
		<-s.watchClosed
	}
	s.hub.shutdown()
	return nil
}

func (s *Disk) ensureWatch() error {
	s.watchOnce.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		events, err := s.watch(ctx)
		if err != nil {
			cancel()
			s.watchErr = err
			return
		}
		s.stopWatch = cancel
		s.watchClosed = make(chan struct{})
		go func() {
			defer close(s.watchClosed)
			for ev := range events {
				s.writeMu.Lock()
				switch ev.Type {
				case EventCollectionChanged:
					s.notifyLocked(ctx, ev.Collection)
				case EventCollectionsInvalidated:
					s.notifyLocked(ctx, "")
				}
				s.writeMu.Unlock()
			}
		}()
	})
	return s.watchErr
}

func (s *Disk) notifyLocked(ctx context.Context, collection string) {
	byCollection := make(map[string][]Document)
	for _, sub := range s.hub.matching(collection) {
		all, ok := byCollection[sub.q.Collection]
		if !ok {
			var err error
			all, err = s.list(ctx, sub.q.Collection)
			if err != nil {
				s.log.Warn("refresh live query", zap.String("query", sub.q.String()), zap.Error(err))
				continue
			}
			byCollection[sub.q.Collection] = all
		}
		sub.push(cloneDocs(Run(sub.q, all)))
	}
}

func (s *Disk) list(ctx context.Context, collection string) ([]Document, error) {
	prefix := toCollection(collection) + keySeparator
	var out []Document
	for key := range s.d.KeysPrefix(prefix, ctx.Done()) {
		doc, err := s.read(key)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				// Erased between listing and reading.
				continue
			}
			s.log.Warn("skip unreadable document", zap.String("key", key), zap.Error(err))
			continue
		}
		out = append(out, doc)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Disk) read(key string) (Document, error) {
	val, err := s.d.Read(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("docs: read %s: %w", key, err)
	}
	data := make(map[string]any)
	if err := json.Unmarshal(val, &data); err != nil {
		return Document{}, fmt.Errorf("docs: decode %s: %w", key, err)
	}
	return Document{ID: keyToPathTransform(key).FileName, Data: data}, nil
}

func (s *Disk) write(collection string, doc Document) error {
	data, err := json.Marshal(doc.Data)
	if err != nil {
		return fmt.Errorf("docs: encode %s: %w", doc.ID, err)
	}
	if err := s.d.Write(toKey(collection, doc.ID), data); err != nil {
		return fmt.Errorf("docs: write %s: %w", doc.ID, err)
	}
	return nil
}

const keySeparator = "-"

// Collections are hex encoded so the key separator never appears in the
// directory component; ids may contain it.
func keyToPathTransform(key string) *diskv.PathKey {
	dir, file, _ := strings.Cut(key, keySeparator)
	return &diskv.PathKey{Path: []string{dir}, FileName: file}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	return strings.Join(pathKey.Path, "") + keySeparator + pathKey.FileName
}

func toKey(collection, id string) string {
	return toCollection(collection) + keySeparator + id
}

func toCollection(s string) string {
	return hex.EncodeToString([]byte(s))
}

func fromCollection(s string) (string, bool) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return "", false
	}
	return string(b), true
}
