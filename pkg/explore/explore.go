// Package explore pages through a user's diaries with filters the document
// service cannot index together. One filter is pushed to the server; the rest
// are applied to each fetched page, and the pager keeps reading until the
// page is full, the collection is exhausted, or a scan budget is spent.
package explore

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tableflip.dev/diary/pkg/blob"
	"tableflip.dev/diary/pkg/diary"
	"tableflip.dev/diary/pkg/docs"
)

// Defaults for a Pager.
const (
	DefaultPageSize = 20
	// DefaultFetch is the size of the first server query of a page.
	DefaultFetch = 40
	// DefaultBudget caps documents read per page.
	DefaultBudget = 400

	maxFetch = 640
	// maxIndexValues is how many values one in or array-contains-any filter
	// may carry.
	maxIndexValues = 10
)

// Sort orders the feed by creation time.
type Sort int

const (
	Newest Sort = iota
	Oldest
)

// ParseSort parses "newest" or "oldest".
func ParseSort(s string) (Sort, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "newest":
		return Newest, nil
	case "oldest":
		return Oldest, nil
	}
	return Newest, fmt.Errorf("explore: unknown sort %q", s)
}

// Filter selects diaries. Conditions of different fields are combined with
// AND; values within one field with OR.
type Filter struct {
	Emotions   []string
	Chapters   []string
	Tags       []string
	Liked      bool
	Bookmarked bool
}

// Empty reports whether f selects everything.
func (f Filter) Empty() bool {
	return len(f.Emotions) == 0 && len(f.Chapters) == 0 && len(f.Tags) == 0 && !f.Liked && !f.Bookmarked
}

// Match applies f to d.
func (f Filter) Match(d *diary.Diary) bool {
	if len(f.Emotions) > 0 && !contains(f.Emotions, d.Emotion) {
		return false
	}
	if len(f.Chapters) > 0 && !contains(f.Chapters, d.ChapterID) {
		return false
	}
	if f.Liked && !d.Liked {
		return false
	}
	if f.Bookmarked && !d.Bookmarked {
		return false
	}
	if len(f.Tags) > 0 {
		found := false
		for _, t := range d.Tags {
			if contains(f.Tags, t) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// serverFilters picks the one group of conditions the service can index:
// emotions, else chapters, else the tag group.
func (f Filter) serverFilters() []docs.Filter {
	switch {
	case len(f.Emotions) > 0:
		return []docs.Filter{docs.Where(diary.FieldEmotion, docs.OpIn, head(f.Emotions))}
	case len(f.Chapters) > 0:
		return []docs.Filter{docs.Where(diary.FieldChapterID, docs.OpIn, head(f.Chapters))}
	}
	var out []docs.Filter
	if f.Liked {
		out = append(out, docs.Where(diary.FieldLiked, docs.OpEq, true))
	}
	if f.Bookmarked {
		out = append(out, docs.Where(diary.FieldBookmarked, docs.OpEq, true))
	}
	if len(f.Tags) > 0 {
		out = append(out, docs.Where(diary.FieldTags, docs.OpArrayContainsAny, head(f.Tags)))
	}
	return out
}

// Request asks for one page.
type Request struct {
	Filter   Filter
	Sort     Sort
	PageSize int
	// After continues from the Next cursor of a previous page.
	After *docs.Cursor
}

// Page is one page of results.
type Page struct {
	Items []*diary.Diary
	// Next resumes after the last document examined; nil once exhausted.
	Next *docs.Cursor
	// Scanned is the number of documents read from the service.
	Scanned int
	// Queries is the number of server round trips.
	Queries int
}

// Pager reads explore pages.
type Pager struct {
	svc      docs.Service
	resolver *blob.Resolver
	log      *zap.Logger
	fetch    int
	budget   int
}

// Option configures a Pager.
type Option func(*Pager)

// WithBudget caps documents read per page.
func WithBudget(n int) Option {
	return func(p *Pager) { p.budget = n }
}

// WithFetch sets the size of the first query of each page.
func WithFetch(n int) Option {
	return func(p *Pager) { p.fetch = n }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pager) { p.log = l }
}

// New returns a Pager. resolver may be nil to leave image references as
// stored.
func New(svc docs.Service, resolver *blob.Resolver, opts ...Option) *Pager {
	p := &Pager{svc: svc, resolver: resolver, fetch: DefaultFetch, budget: DefaultBudget}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = zap.NewNop()
	}
	return p
}

// Page reads the next page for uid. Each server query doubles in size until
// the page fills. A page cut short by the scan budget still returns a Next
// cursor, so callers can keep going without skipping anything.
func (p *Pager) Page(ctx context.Context, uid string, req Request) (Page, error) {
	size := req.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	fetch := p.fetch
	if fetch < size {
		fetch = size
	}

	base := docs.Query{
		Collection: docs.UserCollection(uid, diary.Diaries),
		Filters:    req.Filter.serverFilters(),
		OrderBy:    diary.FieldCreatedAt,
		Desc:       req.Sort == Newest,
	}

	var page Page
	cursor := req.After
	for {
		q := base
		q.Limit = fetch
		q.StartAfter = cursor
		result, err := p.svc.Get(ctx, q)
		if err != nil {
			return Page{}, fmt.Errorf("explore: query: %w", err)
		}
		page.Queries++

		for _, doc := range result {
			page.Scanned++
			cursor = docs.CursorOf(doc, diary.FieldCreatedAt)
			d := diary.Decode(doc)
			if req.Filter.Match(d) {
				page.Items = append(page.Items, d)
			}
			if len(page.Items) == size {
				break
			}
		}

		if len(page.Items) == size {
			page.Next = cursor
			break
		}
		if len(result) < fetch {
			// Exhausted.
			break
		}
		if page.Scanned >= p.budget {
			p.log.Debug("explore scan budget spent", zap.Int("scanned", page.Scanned), zap.Int("found", len(page.Items)))
			page.Next = cursor
			break
		}
		if fetch < maxFetch {
			fetch *= 2
		}
	}

	p.resolveImages(ctx, page.Items)
	return page, nil
}

func (p *Pager) resolveImages(ctx context.Context, items []*diary.Diary) {
	if p.resolver == nil {
		return
	}
	g := new(errgroup.Group)
	g.SetLimit(8)
	for _, d := range items {
		g.Go(func() error {
			d.ImageURL = p.resolver.Resolve(ctx, d.ImageURL)
			return nil
		})
	}
	_ = g.Wait()
}

func head(values []string) []string {
	if len(values) > maxIndexValues {
		return values[:maxIndexValues]
	}
	return values
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
