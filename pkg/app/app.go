// Package app wires the configured stores, principal and comment generator
// into the views so the CLI and the MCP server share one setup.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tableflip.dev/diary/pkg/auth"
	"tableflip.dev/diary/pkg/blob"
	"tableflip.dev/diary/pkg/comment"
	"tableflip.dev/diary/pkg/config"
	"tableflip.dev/diary/pkg/diary"
	"tableflip.dev/diary/pkg/docs"
	"tableflip.dev/diary/pkg/view"
	"tableflip.dev/diary/pkg/window"
)

// App is an opened diary environment.
type App struct {
	Config    *config.Config
	Log       *zap.Logger
	Docs      *docs.Disk
	Blobs     *blob.DiskStore
	Resolver  *blob.Resolver
	Session   *auth.Session
	Generator comment.Generator
}

var ErrNoUser = errors.New("app: no user configured")

// Open opens the stores named by cfg and signs in the configured user.
func Open(cfg *config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	d, err := docs.OpenDisk(cfg.Path, log)
	if err != nil {
		return nil, err
	}
	blobs, err := blob.OpenDisk(cfg.Blobs, cfg.BlobURL)
	if err != nil {
		_ = d.Close()
		return nil, err
	}

	a := &App{
		Config:   cfg,
		Log:      log,
		Docs:     d,
		Blobs:    blobs,
		Resolver: blob.NewResolver(blobs, log),
		Session:  &auth.Session{},
	}
	if cfg.User != "" {
		a.Session.SignIn(cfg.User)
	}
	if cfg.CommentEndpoint != "" {
		a.Generator = comment.NewHTTPGenerator(cfg.CommentEndpoint)
	}
	return a, nil
}

// Close closes the document store.
func (a *App) Close() error {
	a.Session.SignOut()
	return a.Docs.Close()
}

// Deps returns the collaborators the views are built from.
func (a *App) Deps() view.Deps {
	return view.Deps{Docs: a.Docs, Resolver: a.Resolver, Principal: a.Session}
}

// ViewOptions returns the configured options for a view of kind. detail
// selects the detail view bound.
func (a *App) ViewOptions(kind window.Kind, detail bool) []view.Option {
	bound := a.Config.DayBound
	switch {
	case detail:
		bound = a.Config.DetailBound
	case kind == window.Week:
		bound = a.Config.WeekBound
	case kind == window.Month:
		bound = a.Config.MonthBound
	}
	opts := []view.Option{view.WithLogger(a.Log)}
	if bound > 0 {
		opts = append(opts, view.WithBound(bound))
	}
	if a.Config.KeepAlive > 0 {
		opts = append(opts, view.WithKeepAlive(a.Config.KeepAlive))
	}
	return opts
}

// AddOptions describe a new diary.
type AddOptions struct {
	Chapter string
	On      time.Time
	Content string
	Emotion string
	Tags    []string
	// Image is the path of a picture file to attach, or "".
	Image string
}

// AddDiary stores a diary, uploading its picture to the blob store first.
func (a *App) AddDiary(ctx context.Context, o AddOptions) (*diary.Diary, error) {
	uid := a.Session.UID()
	if uid == "" {
		return nil, ErrNoUser
	}
	if strings.TrimSpace(o.Chapter) == "" {
		return nil, errors.New("app: chapter required")
	}
	on := o.On
	if on.IsZero() {
		on = time.Now()
	}

	d := &diary.Diary{
		ID:        uuid.NewString(),
		ChapterID: o.Chapter,
		Content:   o.Content,
		Emotion:   o.Emotion,
		Tags:      o.Tags,
		Date:      on,
		CreatedAt: time.Now(),
	}

	if o.Image != "" {
		data, err := os.ReadFile(o.Image)
		if err != nil {
			return nil, fmt.Errorf("app: read image: %w", err)
		}
		objectPath := fmt.Sprintf("users/%s/diaries/%s%s", uid, d.ID, strings.ToLower(filepath.Ext(o.Image)))
		ref, err := a.Blobs.Put(objectPath, data)
		if err != nil {
			return nil, err
		}
		d.ImageURL = ref
	}

	if _, err := a.Docs.Put(ctx, docs.UserCollection(uid, diary.Diaries), docs.Document{ID: d.ID, Data: d.Fields()}); err != nil {
		return nil, err
	}
	return d, nil
}
