// Package docs is the document service the view engine subscribes to: a
// collection-scoped store of schemaless documents with one-shot and live
// queries.
package docs

import (
	"context"
	"errors"
	"fmt"
	"path"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("docs: document not found")
	// ErrClosed is returned by a service that has been closed.
	ErrClosed = errors.New("docs: service closed")
)

// Op is a filter operator.
type Op string

const (
	OpEq               Op = "=="
	OpGTE              Op = ">="
	OpLT               Op = "<"
	OpIn               Op = "in"
	OpArrayContainsAny Op = "array-contains-any"
)

// Filter restricts a query to documents whose Field satisfies Op against Value.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Where builds a Filter.
func Where(field string, op Op, value any) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

// Query selects documents from one collection. When DocID is set the query
// addresses that single document and every other field is ignored.
type Query struct {
	Collection string
	DocID      string
	Filters    []Filter
	OrderBy    string
	Desc       bool
	Limit      int
	// StartAfter resumes an ordered query after the cursor position.
	StartAfter *Cursor
}

// Cursor marks a position in an ordered result set.
type Cursor struct {
	ID    string
	Value any
}

// CursorOf returns the cursor positioned at doc for a query ordered by field.
func CursorOf(doc Document, field string) *Cursor {
	return &Cursor{ID: doc.ID, Value: doc.Get(field)}
}

func (q Query) String() string {
	if q.DocID != "" {
		return path.Join(q.Collection, q.DocID)
	}
	after := ""
	if q.StartAfter != nil {
		after = q.StartAfter.ID
	}
	return fmt.Sprintf("%s%v order=%s desc=%t limit=%d after=%q", q.Collection, q.Filters, q.OrderBy, q.Desc, q.Limit, after)
}

// Document is one stored record.
type Document struct {
	ID   string         `json:"id"`
	Data map[string]any `json:"data"`
}

// Get returns the field value for name.
func (d Document) Get(name string) any {
	if d.Data == nil {
		return nil
	}
	return d.Data[name]
}

// Unsubscribe closes a live query. It never waits for an in-flight callback
// and reports failures instead of panicking.
type Unsubscribe func() error

// SnapshotFunc receives the full matching result set on every relevant change.
type SnapshotFunc func(docs []Document)

// ErrorFunc receives a terminal subscription error.
type ErrorFunc func(err error)

// Service is the document store contract.
type Service interface {
	// Subscribe opens a live query. The initial result set is delivered
	// asynchronously, followed by a redelivery after every write to the
	// collection. Deliveries for one subscription are ordered.
	Subscribe(ctx context.Context, q Query, onSnapshot SnapshotFunc, onError ErrorFunc) (Unsubscribe, error)
	// Get runs q once.
	Get(ctx context.Context, q Query) ([]Document, error)
	// Put stores doc, assigning an id when it has none.
	Put(ctx context.Context, collection string, doc Document) (Document, error)
	// Update merges fields into an existing document.
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	// Delete removes a document.
	Delete(ctx context.Context, collection, id string) error
}

// UserCollection returns the per-user collection path, users/<uid>/<name>.
func UserCollection(uid, name string) string {
	return path.Join("users", uid, name)
}

var errAlreadyClosed = errors.New("docs: subscription already closed")
