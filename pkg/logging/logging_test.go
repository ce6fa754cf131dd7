package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	for _, level := range []string{"", "debug", "info", "warn", "error"} {
		l, err := New(level)
		require.NoError(t, err, level)
		assert.NotNil(t, l)
	}
	_, err := New("loud")
	assert.Error(t, err)
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(zapcore.AddSync(&buf), zapcore.WarnLevel)

	l.Info("hidden")
	l.Warn("shown", zap.String("key", "2025-03-10_c1"))
	require.NoError(t, l.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "2025-03-10_c1")
}
