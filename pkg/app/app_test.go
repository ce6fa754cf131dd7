package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"tableflip.dev/diary/pkg/config"
	"tableflip.dev/diary/pkg/view"
	"tableflip.dev/diary/pkg/window"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		Path:        filepath.Join(dir, "db"),
		Blobs:       filepath.Join(dir, "blobs"),
		BlobURL:     "http://127.0.0.1:8081",
		User:        "u1",
		KeepAlive:   time.Second,
		DayBound:    2,
		WeekBound:   3,
		MonthBound:  4,
		DetailBound: 5,
	}
}

func TestAddDiaryWithImageShowsInDayView(t *testing.T) {
	cfg := testConfig(t)
	a, err := Open(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer a.Close()

	img := filepath.Join(t.TempDir(), "Beach.PNG")
	require.NoError(t, os.WriteFile(img, []byte("\x89PNG\r\n\x1a\nfake"), 0o600))

	on := time.Date(2025, 3, 10, 20, 0, 0, 0, time.Local)
	d, err := a.AddDiary(context.Background(), AddOptions{
		Chapter: "c1",
		On:      on,
		Content: "sunset at the beach",
		Emotion: "joy",
		Image:   img,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(d.ImageURL, "local://diary/users/u1/diaries/"), d.ImageURL)
	assert.True(t, strings.HasSuffix(d.ImageURL, ".png"), d.ImageURL)

	day := view.NewDay(a.Deps(), a.ViewOptions(window.Day, false)...)
	defer day.Dispose()
	day.Activate(view.At(window.Day, on, "c1"))

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	st := day.Await(ctx)
	require.False(t, st.Loading)
	require.NotNil(t, st.Payload)
	assert.Equal(t, "sunset at the beach", st.Payload.Content)
	assert.True(t, strings.HasPrefix(st.Payload.ImageURL, "http://127.0.0.1:8081/o/"), st.Payload.ImageURL)
	assert.Equal(t, 2, day.Cache().Bound())
}

func TestAddDiaryRequiresUserAndChapter(t *testing.T) {
	cfg := testConfig(t)
	cfg.User = ""
	a, err := Open(cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	_, err = a.AddDiary(context.Background(), AddOptions{Chapter: "c1", Content: "x"})
	assert.ErrorIs(t, err, ErrNoUser)

	a.Session.SignIn("u1")
	_, err = a.AddDiary(context.Background(), AddOptions{Content: "x"})
	assert.Error(t, err)

	_, err = a.AddDiary(context.Background(), AddOptions{Chapter: "c1", Image: filepath.Join(t.TempDir(), "missing.jpg")})
	assert.Error(t, err)
}

func TestViewOptionsBounds(t *testing.T) {
	cfg := testConfig(t)
	a, err := Open(cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	week := view.NewWeek(a.Deps(), a.ViewOptions(window.Week, false)...)
	defer week.Dispose()
	month := view.NewMonth(a.Deps(), a.ViewOptions(window.Month, false)...)
	defer month.Dispose()
	detail := view.NewDetail(a.Deps(), nil, a.ViewOptions(window.Day, true)...)
	defer detail.Dispose()

	assert.Equal(t, 3, week.Cache().Bound())
	assert.Equal(t, 4, month.Cache().Bound())
	assert.Equal(t, 5, detail.Cache().Bound())
}
