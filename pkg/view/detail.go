package view

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"tableflip.dev/diary/pkg/comment"
	"tableflip.dev/diary/pkg/diary"
	"tableflip.dev/diary/pkg/docs"
	"tableflip.dev/diary/pkg/window"
)

// Detail is the diary detail view. Besides keeping the diary live it asks
// the comment generator, once per diary for the lifetime of the view, to
// comment on diaries that have content but no AI comment yet.
type Detail struct {
	*Controller[*diary.Diary]

	svc       docs.Service
	generator comment.Generator
	now       func() time.Time

	mu        sync.Mutex
	requested map[string]bool
	inflight  sync.WaitGroup
}

// NewDetail returns a detail controller. generator may be nil to disable AI
// comments.
func NewDetail(deps Deps, generator comment.Generator, opts ...Option) *Detail {
	c := NewController[*diary.Diary](singleSource{resolver: deps.Resolver, equal: diary.DetailEqual}, deps, DetailBound, opts...)
	d := &Detail{
		Controller: c,
		svc:        deps.Docs,
		generator:  generator,
		now:        time.Now,
		requested:  make(map[string]bool),
	}
	c.OnApplied(d.onApplied)
	return d
}

// ActivateDocument shows the diary with id.
func (d *Detail) ActivateDocument(id string) {
	d.Activate(Document(id))
}

// ActivateDate shows the latest diary written on date in chapter.
func (d *Detail) ActivateDate(date time.Time, chapter string) {
	d.Activate(At(window.Day, date, chapter))
}

// Wait blocks until comment requests already started have finished.
func (d *Detail) Wait() {
	d.inflight.Wait()
}

func (d *Detail) onApplied(_ string, payload *diary.Diary) {
	if d.generator == nil || payload == nil || payload.ID == "" {
		return
	}
	if payload.Content == "" || payload.AIComment != "" {
		return
	}
	uid := d.principal.UID()
	if uid == "" {
		return
	}

	d.mu.Lock()
	if d.requested[payload.ID] {
		d.mu.Unlock()
		return
	}
	d.requested[payload.ID] = true
	d.inflight.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.inflight.Done()
		d.generate(d.ctx, uid, payload.ID, payload.Content)
	}()
}

func (d *Detail) generate(ctx context.Context, uid, id, content string) {
	log := d.log.With(zap.String("diary", id))
	text, err := d.generator.Generate(ctx, comment.Request{DiaryID: id, Content: content})
	if err != nil {
		log.Warn("generate ai comment", zap.Error(err))
		return
	}
	err = d.svc.Update(ctx, docs.UserCollection(uid, diary.Diaries), id, map[string]any{
		diary.FieldAIComment:   text,
		diary.FieldAICommentAt: docs.TimestampOf(d.now()),
	})
	if err != nil {
		log.Warn("store ai comment", zap.Error(err))
		return
	}
	log.Debug("ai comment stored")
}
