package view

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"tableflip.dev/diary/pkg/blob"
	"tableflip.dev/diary/pkg/diary"
	"tableflip.dev/diary/pkg/docs"
	"tableflip.dev/diary/pkg/window"
)

// Target is what a view is asked to display: a window of one chapter, or a
// single document.
type Target struct {
	Window  window.Window
	Chapter string
	DocID   string
}

// At targets the window of kind containing date in chapter.
func At(kind window.Kind, date time.Time, chapter string) Target {
	return Target{Window: window.Of(kind, date), Chapter: chapter}
}

// Document targets one diary by id.
func Document(id string) Target {
	return Target{DocID: id}
}

func (t Target) partition() string {
	if t.DocID != "" {
		return t.DocID
	}
	return t.Chapter
}

// Next returns the target n windows away in the same chapter.
func (t Target) Next(n int) Target {
	t.Window = t.Window.Next(n)
	return t
}

func (t Target) String() string {
	if t.DocID != "" {
		return window.DocumentKey(t.DocID)
	}
	return window.CacheKey(t.Window.Key(), t.Chapter)
}

// maxParallelResolves bounds concurrent image resolution for one grid.
const maxParallelResolves = 8

func windowQuery(uid string, t Target, desc bool, limit int) docs.Query {
	return docs.Query{
		Collection: docs.UserCollection(uid, diary.Diaries),
		Filters: []docs.Filter{
			docs.Where(diary.FieldChapterID, docs.OpEq, t.Chapter),
			docs.Where(diary.FieldDate, docs.OpGTE, docs.TimestampOf(t.Window.Start)),
			docs.Where(diary.FieldDate, docs.OpLT, docs.TimestampOf(t.Window.End)),
		},
		OrderBy: diary.FieldDate,
		Desc:    desc,
		Limit:   limit,
	}
}

// singleSource shows the most recent diary of a day.
type singleSource struct {
	resolver *blob.Resolver
	equal    func(a, b *diary.Diary) bool
}

func (s singleSource) Key(t Target) string {
	if t.DocID != "" {
		return window.DocumentKey(t.DocID)
	}
	return window.CacheKey(window.DayKey(t.Window.Start), t.Chapter)
}

func (singleSource) Skeleton(Target) *diary.Diary { return nil }

func (singleSource) Query(uid string, t Target) docs.Query {
	if t.DocID != "" {
		return docs.Query{Collection: docs.UserCollection(uid, diary.Diaries), DocID: t.DocID}
	}
	return windowQuery(uid, t, true, 1)
}

func (s singleSource) Build(ctx context.Context, _ Target, result []docs.Document) *diary.Diary {
	if len(result) == 0 {
		return nil
	}
	d := diary.Decode(result[0])
	d.ImageURL = s.resolver.Resolve(ctx, d.ImageURL)
	return d
}

func (s singleSource) Equal(a, b *diary.Diary) bool { return s.equal(a, b) }

// gridSource shows a week or month of calendar cells.
type gridSource struct {
	resolver *blob.Resolver
}

func (gridSource) Key(t Target) string {
	return window.CacheKey(t.Window.Key(), t.Chapter)
}

func (gridSource) Skeleton(t Target) []diary.Cell {
	return diary.Skeleton(t.Window)
}

func (gridSource) Query(uid string, t Target) docs.Query {
	return windowQuery(uid, t, false, 0)
}

func (s gridSource) Build(ctx context.Context, t Target, result []docs.Document) []diary.Cell {
	refs := diary.ImageRefs(diary.DecodeAll(result))

	var mu sync.Mutex
	urls := make(map[string]string, len(refs))
	g := new(errgroup.Group)
	g.SetLimit(maxParallelResolves)
	for day, ref := range refs {
		g.Go(func() error {
			if u := s.resolver.Resolve(ctx, ref); u != "" {
				mu.Lock()
				urls[day] = u
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return diary.Fill(diary.Skeleton(t.Window), urls)
}

func (gridSource) Equal(a, b []diary.Cell) bool { return diary.CellsEqual(a, b) }

// NewDay returns a controller for the day view. Its payload is the latest
// diary of the day, or nil.
func NewDay(deps Deps, opts ...Option) *Controller[*diary.Diary] {
	return NewController[*diary.Diary](singleSource{resolver: deps.Resolver, equal: diary.Equal}, deps, DayBound, opts...)
}

// NewWeek returns a controller for the week view.
func NewWeek(deps Deps, opts ...Option) *Controller[[]diary.Cell] {
	return NewController[[]diary.Cell](gridSource{resolver: deps.Resolver}, deps, WeekBound, opts...)
}

// NewMonth returns a controller for the month view.
func NewMonth(deps Deps, opts ...Option) *Controller[[]diary.Cell] {
	return NewController[[]diary.Cell](gridSource{resolver: deps.Resolver}, deps, MonthBound, opts...)
}
