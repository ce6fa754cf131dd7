package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DIARY_CONFIG_PATH", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 180*time.Second, cfg.KeepAlive)
	assert.Equal(t, 31, cfg.DayBound)
	assert.Equal(t, 12, cfg.WeekBound)
	assert.Equal(t, 12, cfg.MonthBound)
	assert.Equal(t, 64, cfg.DetailBound)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.CommentEndpoint)
	assert.True(t, filepath.IsAbs(cfg.Path), cfg.Path)
	assert.Equal(t, ".diary.db", filepath.Base(cfg.Path))
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DIARY_CONFIG_PATH", dir)
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".diary.yaml"), []byte(`
path: /tmp/diary-test.db
user: alice
keep-alive: 5s
month-bound: 3
`), 0o600))
	t.Setenv("DIARY_COMMENT_ENDPOINT", "http://localhost:9999/comment")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "/tmp/diary-test.db", cfg.Path)
	assert.Equal(t, "alice", cfg.User)
	assert.Equal(t, 5*time.Second, cfg.KeepAlive)
	assert.Equal(t, 3, cfg.MonthBound)
	assert.Equal(t, "http://localhost:9999/comment", cfg.CommentEndpoint)
}

func TestLoadBadFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DIARY_CONFIG_PATH", dir)
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".diary.yaml"), []byte("path: [unterminated"), 0o600))

	_, err := load(viper.New())
	assert.Error(t, err)
}
