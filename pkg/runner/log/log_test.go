package log

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/diary/pkg/app"
	"tableflip.dev/diary/pkg/config"
	"tableflip.dev/diary/pkg/diary"
	"tableflip.dev/diary/pkg/view"
	"tableflip.dev/diary/pkg/window"
)

func openApp(t *testing.T) *app.App {
	dir := t.TempDir()
	a, err := app.Open(&config.Config{
		Path:    filepath.Join(dir, "db"),
		Blobs:   filepath.Join(dir, "blobs"),
		BlobURL: "http://127.0.0.1:8081",
		User:    "u1",
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

var march10 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local)

func TestLogDayJSON(t *testing.T) {
	a := openApp(t)
	_, err := a.AddDiary(context.Background(), app.AddOptions{Chapter: "c1", On: march10, Content: "quiet monday"})
	require.NoError(t, err)

	var buf bytes.Buffer
	l := Log{App: a, Kind: window.Day, On: march10, Chapter: "c1", JSON: true, Out: &buf}
	require.NoError(t, l.Do(context.Background()))

	var s view.State[*diary.Diary]
	require.NoError(t, json.Unmarshal(buf.Bytes(), &s))
	assert.Equal(t, "2025-03-10_c1", s.Key)
	assert.False(t, s.Loading)
	require.NotNil(t, s.Payload)
	assert.Equal(t, "quiet monday", s.Payload.Content)
}

func TestLogMonthPretty(t *testing.T) {
	a := openApp(t)

	var buf bytes.Buffer
	l := Log{App: a, Kind: window.Month, On: march10, Chapter: "c1", Out: &buf}
	require.NoError(t, l.Do(context.Background()))
	assert.Contains(t, buf.String(), "March 2025")
	assert.Contains(t, buf.String(), "0 of 42 days with a picture")
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestLogWatchPrintsChanges(t *testing.T) {
	a := openApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out syncBuffer
	done := make(chan error, 1)
	go func() {
		l := Log{App: a, Kind: window.Day, On: march10, Chapter: "c1", Watch: true, JSON: true, Out: &out}
		done <- l.Do(ctx)
	}()

	// The empty day is printed first.
	require.Eventually(t, func() bool { return strings.Count(out.String(), "\n") >= 1 }, 3*time.Second, 10*time.Millisecond)

	_, err := a.AddDiary(context.Background(), app.AddOptions{Chapter: "c1", On: march10, Content: "written later"})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return strings.Contains(out.String(), "written later") }, 3*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
