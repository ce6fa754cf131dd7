// Package mcp provides the Model Context Protocol server integration for the
// diary views.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"tableflip.dev/diary/pkg/auth"
	"tableflip.dev/diary/pkg/comment"
	"tableflip.dev/diary/pkg/diary"
	"tableflip.dev/diary/pkg/docs"
	"tableflip.dev/diary/pkg/explore"
	"tableflip.dev/diary/pkg/report"
	"tableflip.dev/diary/pkg/view"
	"tableflip.dev/diary/pkg/window"
)

// DefaultSettle bounds how long a view tool waits for live data.
const DefaultSettle = 5 * time.Second

// ErrNoPrincipal is returned when no user is signed in.
var ErrNoPrincipal = errors.New("no signed in user")

// Service holds the long lived view controllers shared by the MCP tools, so
// consecutive calls reuse cached windows and open live queries.
type Service struct {
	docs      docs.Service
	principal auth.Principal
	settle    time.Duration

	mu     sync.Mutex
	day    *view.Controller[*diary.Diary]
	week   *view.Controller[[]diary.Cell]
	month  *view.Controller[[]diary.Cell]
	detail *view.Detail
	pager  *explore.Pager
}

// FeedDTO is one explore page.
type FeedDTO struct {
	Items   []*diary.Diary `json:"items"`
	Next    string         `json:"next,omitempty"`
	Scanned int            `json:"scanned"`
	Queries int            `json:"queries"`
}

// ExploreOptions are the explore_feed tool arguments.
type ExploreOptions struct {
	Emotions   []string
	Chapters   []string
	Tags       []string
	Liked      bool
	Bookmarked bool
	Sort       string
	PageSize   int
	After      string
}

// NewService builds the views from deps. generator may be nil.
func NewService(deps view.Deps, generator comment.Generator, opts ...view.Option) *Service {
	principal := deps.Principal
	if principal == nil {
		principal = auth.Static("")
	}
	return &Service{
		docs:      deps.Docs,
		principal: principal,
		settle:    DefaultSettle,
		day:       view.NewDay(deps, opts...),
		week:      view.NewWeek(deps, opts...),
		month:     view.NewMonth(deps, opts...),
		detail:    view.NewDetail(deps, generator, opts...),
		pager:     explore.New(deps.Docs, deps.Resolver),
	}
}

// Close disposes every view.
func (s *Service) Close() {
	s.day.Dispose()
	s.week.Dispose()
	s.month.Dispose()
	s.detail.Dispose()
	s.detail.Wait()
}

// Day shows the latest diary of date in chapter.
func (s *Service) Day(ctx context.Context, date time.Time, chapter string) view.State[*diary.Diary] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return show(ctx, s.day, view.At(window.Day, date, chapter), s.settle)
}

// Grid shows the week or month calendar containing date in chapter.
func (s *Service) Grid(ctx context.Context, kind window.Kind, date time.Time, chapter string) (view.State[[]diary.Cell], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch kind {
	case window.Week:
		return show(ctx, s.week, view.At(kind, date, chapter), s.settle), nil
	case window.Month:
		return show(ctx, s.month, view.At(kind, date, chapter), s.settle), nil
	}
	return view.State[[]diary.Cell]{}, fmt.Errorf("%s is not a calendar view", kind)
}

// Detail shows one diary by id.
func (s *Service) Detail(ctx context.Context, id string) view.State[*diary.Diary] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return show(ctx, s.detail.Controller, view.Document(id), s.settle)
}

// DetailOn shows the latest diary of date in chapter with its detail fields.
func (s *Service) DetailOn(ctx context.Context, date time.Time, chapter string) view.State[*diary.Diary] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return show(ctx, s.detail.Controller, view.At(window.Day, date, chapter), s.settle)
}

// Explore reads one feed page.
func (s *Service) Explore(ctx context.Context, o ExploreOptions) (FeedDTO, error) {
	uid := s.principal.UID()
	if uid == "" {
		return FeedDTO{}, ErrNoPrincipal
	}
	sort, err := explore.ParseSort(o.Sort)
	if err != nil {
		return FeedDTO{}, err
	}
	after, err := explore.ParseToken(strings.TrimSpace(o.After))
	if err != nil {
		return FeedDTO{}, err
	}
	page, err := s.pager.Page(ctx, uid, explore.Request{
		Filter: explore.Filter{
			Emotions:   o.Emotions,
			Chapters:   o.Chapters,
			Tags:       o.Tags,
			Liked:      o.Liked,
			Bookmarked: o.Bookmarked,
		},
		Sort:     sort,
		PageSize: o.PageSize,
		After:    after,
	})
	if err != nil {
		return FeedDTO{}, err
	}
	return FeedDTO{
		Items:   page.Items,
		Next:    explore.Token(page.Next),
		Scanned: page.Scanned,
		Queries: page.Queries,
	}, nil
}

// Report builds the monthly report for the month containing month.
func (s *Service) Report(ctx context.Context, month time.Time) (report.Result, error) {
	uid := s.principal.UID()
	if uid == "" {
		return report.Result{}, ErrNoPrincipal
	}
	return report.Monthly(ctx, s.docs, uid, month)
}

// Chapters lists the signed in user's chapters.
func (s *Service) Chapters(ctx context.Context) ([]diary.Chapter, error) {
	uid := s.principal.UID()
	if uid == "" {
		return nil, ErrNoPrincipal
	}
	return diary.ListChapters(ctx, s.docs, uid)
}

// show activates target, waits up to settle for it to load and leaves the
// view deactivated so idle live queries are torn down after the keep-alive.
func show[T any](ctx context.Context, c *view.Controller[T], target view.Target, settle time.Duration) view.State[T] {
	c.Activate(target)
	defer c.Deactivate()

	ctx, cancel := context.WithTimeout(ctx, settle)
	defer cancel()
	return c.Await(ctx)
}
