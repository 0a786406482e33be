package control

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/mediagate/api"
	"github.com/momentics/mediagate/internal/logging"
)

const sampleYAML = `
mediaServer:
  net:
    websocket:
      port: 8888
      path: media
      threads: 4
      writeTimeout: 3s
      readLimit: 65536
log:
  level: debug
  format: text
metrics:
  address: 127.0.0.1:9100
`

func writeFile(t *testing.T, dir, body string) string {
	t.Helper()
	p := filepath.Join(dir, "mediagate.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadFileAndResolve(t *testing.T) {
	cfg, err := LoadFile(writeFile(t, t.TempDir(), sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "127.0.0.1:9100", cfg.Metrics.Address)

	res, problems := Resolve(cfg, logging.Discard())
	assert.Empty(t, problems)
	assert.Equal(t, Resolved{Port: 8888, Path: "media", Threads: 4, WriteTimeout: 3 * time.Second, ReadLimit: 65536}, res)
}

func TestResolve_AbsentUsesDefaults(t *testing.T) {
	res, problems := Resolve(&Config{}, logging.Discard())
	assert.Empty(t, problems, "absent values are not errors")
	assert.Equal(t, defaults(), res)
	assert.Positive(t, res.WriteTimeout, "writes are bounded unless configured otherwise")
}

func TestResolve_InvalidUsesDefaultsAndReports(t *testing.T) {
	cfg, err := LoadFile(writeFile(t, t.TempDir(), `
mediaServer:
  net:
    websocket:
      port: 70000
      path: "a?b"
      threads: zero
      writeTimeout: 0s
      readLimit: lots
`))
	require.NoError(t, err)
	res, problems := Resolve(cfg, logging.Discard())
	require.Len(t, problems, 5)
	for _, p := range problems {
		assert.True(t, api.IsConfigurationError(p), p)
	}
	assert.Equal(t, defaults(), res)
}

func defaults() Resolved {
	return Resolved{
		Port:         api.DefaultPort,
		Path:         api.DefaultPath,
		Threads:      api.DefaultThreads,
		WriteTimeout: api.DefaultWriteTimeout,
		ReadLimit:    api.DefaultReadLimit,
	}
}

func TestResolve_EmptyPathIsKept(t *testing.T) {
	empty := ""
	cfg := &Config{}
	cfg.WebSocket().Path = &empty
	res, problems := Resolve(cfg, logging.Discard())
	assert.Empty(t, problems)
	assert.Equal(t, "", res.Path)
}

func TestApplyEnvOverridesFile(t *testing.T) {
	t.Setenv("MEDIAGATE_WS_PORT", "7000")
	t.Setenv("MEDIAGATE_WS_THREADS", "2")
	t.Setenv("MEDIAGATE_WS_WRITE_TIMEOUT", "250ms")
	t.Setenv("MEDIAGATE_WS_READ_LIMIT", "1024")
	t.Setenv("MEDIAGATE_LOG_LEVEL", "warn")

	cfg, err := Load(writeFile(t, t.TempDir(), sampleYAML), false)
	require.NoError(t, err)
	res, problems := Resolve(cfg, logging.Discard())
	assert.Empty(t, problems)
	assert.Equal(t, 7000, res.Port)
	assert.Equal(t, "media", res.Path, "unset variables leave file values alone")
	assert.Equal(t, 2, res.Threads)
	assert.Equal(t, 250*time.Millisecond, res.WriteTimeout)
	assert.Equal(t, int64(1024), res.ReadLimit)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")
	_, err := Load(missing, false)
	assert.Error(t, err)

	cfg, err := Load(missing, true)
	require.NoError(t, err)
	assert.Nil(t, cfg.WebSocket().Port)
}

func TestLoadFile_BadYAML(t *testing.T) {
	_, err := LoadFile(writeFile(t, t.TempDir(), "mediaServer: [unclosed"))
	assert.Error(t, err)
}

func TestConfigStoreNotifiesListeners(t *testing.T) {
	first := &Config{}
	store := NewConfigStore(first)
	var gotOld, gotNew *Config
	store.OnReload(func(old, cur *Config) { gotOld, gotNew = old, cur })

	second := &Config{}
	second.Log.Level = "debug"
	store.Update(second)

	assert.Same(t, first, gotOld)
	assert.Same(t, second, gotNew)
	assert.Same(t, second, store.Current())
}
