package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"tableflip.dev/diary/pkg/auth"
	"tableflip.dev/diary/pkg/blob"
	"tableflip.dev/diary/pkg/comment"
	"tableflip.dev/diary/pkg/diary"
	"tableflip.dev/diary/pkg/docs"
	"tableflip.dev/diary/pkg/view"
	"tableflip.dev/diary/pkg/window"
)

type urlStore map[string]string

func (s urlStore) ResolveURL(_ context.Context, p string) (string, error) {
	if u, ok := s[p]; ok {
		return u, nil
	}
	return "", blob.ErrNotFound
}

func day(d int) time.Time {
	return time.Date(2025, time.March, d, 9, 0, 0, 0, time.Local)
}

func newTestService(t *testing.T, uid string) (*Service, *docs.Memory) {
	t.Helper()
	ctx := context.Background()
	mem := docs.NewMemory()
	t.Cleanup(func() { _ = mem.Close() })

	chapter, err := diary.AddChapter(ctx, mem, "u1", "Spring")
	if err != nil {
		t.Fatalf("AddChapter failed: %v", err)
	}
	if chapter.ID == "" {
		t.Fatalf("expected generated chapter id")
	}

	for i, d := range []*diary.Diary{
		{ID: "d1", ChapterID: "c1", Content: "rain all day", Emotion: "sad", Date: day(10), ImageURL: "gs://bucket/rain.png", Tags: []string{"weather"}},
		{ID: "d2", ChapterID: "c1", Content: "sun again", Emotion: "joy", Date: day(12)},
		{ID: "d3", ChapterID: "c2", Content: "other chapter", Emotion: "calm", Date: day(12)},
	} {
		d.CreatedAt = day(1).Add(time.Duration(i) * time.Minute)
		if _, err := mem.Put(ctx, docs.UserCollection("u1", diary.Diaries), docs.Document{ID: d.ID, Data: d.Fields()}); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	generator := comment.Func(func(_ context.Context, req comment.Request) (string, error) {
		return "thanks for sharing " + req.DiaryID, nil
	})
	svc := NewService(view.Deps{
		Docs:      mem,
		Resolver:  blob.NewResolver(urlStore{"rain.png": "https://cdn.example/rain.png"}, nil),
		Principal: auth.Static(uid),
	}, generator)
	svc.settle = 2 * time.Second
	t.Cleanup(svc.Close)
	return svc, mem
}

func TestServiceDay(t *testing.T) {
	svc, _ := newTestService(t, "u1")

	dto := svc.Day(context.Background(), day(10), "c1")
	if dto.Loading {
		t.Fatalf("expected loaded state")
	}
	if dto.Key != "2025-03-10_c1" {
		t.Fatalf("unexpected key %s", dto.Key)
	}
	if dto.Payload == nil || dto.Payload.ID != "d1" {
		t.Fatalf("expected d1, got %v", dto.Payload)
	}
	if dto.Payload.ImageURL != "https://cdn.example/rain.png" {
		t.Fatalf("expected resolved image, got %q", dto.Payload.ImageURL)
	}

	empty := svc.Day(context.Background(), day(11), "c1")
	if empty.Loading || empty.Payload != nil {
		t.Fatalf("expected empty loaded day, got %+v", empty)
	}
}

func TestServiceGrid(t *testing.T) {
	svc, _ := newTestService(t, "u1")

	month, err := svc.Grid(context.Background(), window.Month, day(20), "c1")
	if err != nil {
		t.Fatalf("Grid failed: %v", err)
	}
	if len(month.Payload) != 42 {
		t.Fatalf("expected 42 cells, got %d", len(month.Payload))
	}
	var pictures int
	for _, c := range month.Payload {
		if c.ImageURL != "" {
			pictures++
			if c.ID != "2025-03-10" {
				t.Fatalf("unexpected picture on %s", c.ID)
			}
		}
	}
	if pictures != 1 {
		t.Fatalf("expected one picture, got %d", pictures)
	}

	week, err := svc.Grid(context.Background(), window.Week, day(12), "c1")
	if err != nil {
		t.Fatalf("Grid failed: %v", err)
	}
	if len(week.Payload) != 7 || week.Key != "W-2025-03-09_c1" {
		t.Fatalf("unexpected week %s with %d cells", week.Key, len(week.Payload))
	}

	if _, err := svc.Grid(context.Background(), window.Day, day(12), "c1"); err == nil {
		t.Fatalf("expected error for a day grid")
	}
}

func TestServiceDetailRequestsComment(t *testing.T) {
	svc, mem := newTestService(t, "u1")
	ctx := context.Background()

	dto := svc.Detail(ctx, "d2")
	if dto.Payload == nil || dto.Payload.Content != "sun again" {
		t.Fatalf("expected d2, got %+v", dto.Payload)
	}
	var stored string
	for deadline := time.Now().Add(2 * time.Second); time.Now().Before(deadline); time.Sleep(5 * time.Millisecond) {
		got, err := mem.Get(ctx, docs.Query{Collection: docs.UserCollection("u1", diary.Diaries), DocID: "d2"})
		if err != nil || len(got) != 1 {
			t.Fatalf("Get failed: %v", err)
		}
		if stored = diary.Decode(got[0]).AIComment; stored != "" {
			break
		}
	}
	if stored != "thanks for sharing d2" {
		t.Fatalf("expected stored comment, got %q", stored)
	}

	byDate := svc.DetailOn(ctx, day(12), "c2")
	if byDate.Payload == nil || byDate.Payload.ID != "d3" {
		t.Fatalf("expected d3, got %+v", byDate.Payload)
	}
}

func TestServiceExplore(t *testing.T) {
	svc, _ := newTestService(t, "u1")
	ctx := context.Background()

	first, err := svc.Explore(ctx, ExploreOptions{PageSize: 2})
	if err != nil {
		t.Fatalf("Explore failed: %v", err)
	}
	if len(first.Items) != 2 || first.Items[0].ID != "d3" || first.Next == "" {
		t.Fatalf("unexpected first page %+v", first)
	}

	second, err := svc.Explore(ctx, ExploreOptions{PageSize: 2, After: first.Next})
	if err != nil {
		t.Fatalf("Explore failed: %v", err)
	}
	if len(second.Items) != 1 || second.Items[0].ID != "d1" || second.Next != "" {
		t.Fatalf("unexpected second page %+v", second)
	}

	joy, err := svc.Explore(ctx, ExploreOptions{Emotions: []string{"joy"}, Sort: "oldest"})
	if err != nil {
		t.Fatalf("Explore failed: %v", err)
	}
	if len(joy.Items) != 1 || joy.Items[0].ID != "d2" {
		t.Fatalf("unexpected joy page %+v", joy)
	}

	if _, err := svc.Explore(ctx, ExploreOptions{Sort: "sideways"}); err == nil {
		t.Fatalf("expected sort error")
	}
}

func TestServiceReportAndChapters(t *testing.T) {
	svc, _ := newTestService(t, "u1")
	ctx := context.Background()

	r, err := svc.Report(ctx, day(1))
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	if r.Month != "2025-03" || r.Total != 3 || r.Days != 2 {
		t.Fatalf("unexpected report %+v", r)
	}

	chapters, err := svc.Chapters(ctx)
	if err != nil {
		t.Fatalf("Chapters failed: %v", err)
	}
	if len(chapters) != 1 || chapters[0].Name != "Spring" {
		t.Fatalf("unexpected chapters %+v", chapters)
	}
}

func TestServiceRequiresPrincipal(t *testing.T) {
	svc, _ := newTestService(t, "")
	ctx := context.Background()

	if _, err := svc.Chapters(ctx); !errors.Is(err, ErrNoPrincipal) {
		t.Fatalf("expected ErrNoPrincipal, got %v", err)
	}
	if _, err := svc.Report(ctx, day(1)); !errors.Is(err, ErrNoPrincipal) {
		t.Fatalf("expected ErrNoPrincipal, got %v", err)
	}

	dto := svc.Day(ctx, day(10), "c1")
	if dto.Loading || dto.Payload != nil {
		t.Fatalf("expected empty skeleton without a principal, got %+v", dto)
	}
}

func TestDayViewTool(t *testing.T) {
	svc, _ := newTestService(t, "u1")
	srv := newServer("diary", "test", svc)

	msg := json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"day_view","arguments":{"date":"2025-03-10","chapter":"c1"}}}`)
	resp := srv.HandleMessage(context.Background(), msg)

	b, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(b), "rain all day") {
		t.Fatalf("expected diary content in response: %s", b)
	}
	if !strings.Contains(string(b), "cdn.example/rain.png") {
		t.Fatalf("expected resolved image in response: %s", b)
	}
}
