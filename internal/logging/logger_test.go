package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/mediagate/api"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug, " INFO ": slog.LevelInfo, "warning": slog.LevelWarn, "err": slog.LevelError,
	} {
		got, ok := ParseLevel(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseLevel("verbose")
	assert.False(t, ok)
}

func TestSetLevelFiltersOutput(t *testing.T) {
	var buf bytes.Buffer
	UseWriter(&buf)
	defer func() { _ = SetLevel("info") }()

	require.NoError(t, SetLevel("warn"))
	Logger().Info("hidden")
	assert.Zero(t, buf.Len())

	WithConn(Logger(), api.NewConnHandle(), "127.0.0.1:1").Warn("shown")
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "127.0.0.1:1", rec["remote"])
	assert.Contains(t, rec["conn"], "conn-")

	assert.Error(t, SetLevel("loud"))
	assert.Equal(t, "WARN", Level())
}
