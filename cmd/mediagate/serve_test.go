package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/mediagate/control"
	"github.com/momentics/mediagate/internal/logging"
	"github.com/momentics/mediagate/server"
)

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "mediagate "+version)
}

func TestApplyLogConfigFlagWins(t *testing.T) {
	cfg := &control.Config{}
	cfg.Log.Level = "warn"
	require.NoError(t, applyLogConfig(cfg, "debug"))
	assert.Equal(t, "DEBUG", logging.Level())

	require.NoError(t, applyLogConfig(cfg, ""))
	assert.Equal(t, "WARN", logging.Level())

	cfg.Log.Level = "loud"
	assert.Error(t, applyLogConfig(cfg, ""))
}

func TestServeRejectsMissingConfig(t *testing.T) {
	err := runServe(t.Context(), serveOptions{configPath: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}

func TestOnReloadAppliesLevel(t *testing.T) {
	require.NoError(t, logging.SetLevel("info"))
	dir := t.TempDir()
	p := filepath.Join(dir, "c.yaml")
	require.NoError(t, os.WriteFile(p, []byte("log:\n  level: error\n"), 0o600))
	cfg, err := control.Load(p, false)
	require.NoError(t, err)

	onReload(logging.Discard(), "", server.DefaultSettings(), cfg)
	assert.Equal(t, "ERROR", logging.Level())

	onReload(logging.Discard(), "debug", server.DefaultSettings(), &control.Config{})
	assert.Equal(t, "ERROR", logging.Level(), "a command-line level is never overridden")
}
