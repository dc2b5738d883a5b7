package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	filename := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(filename, []byte(content), 0o644))
	return filename
}

func TestInit(t *testing.T) {
	filename := writeConfig(t, `
bind: 127.0.0.1
port: 7000
max_clients: 16
idle_timeout: 30s
wheel:
  slots: 60
  interval: 100ms
logger:
  mode: dev
  level: debug
  filename: wheel.log
`)
	require.NoError(t, Init(filename))

	conf := Get()
	assert.Equal(t, "127.0.0.1:7000", conf.Address())
	assert.Equal(t, 16, conf.MaxClients)
	assert.Equal(t, 30*time.Second, conf.IdleTimeout)
	assert.Equal(t, 60, conf.Wheel.Slots)
	assert.Equal(t, 100*time.Millisecond, conf.Wheel.Interval)
	assert.Equal(t, "dev", conf.LogConfig.Mode)
	assert.Equal(t, "debug", conf.LogConfig.Level)
	assert.Equal(t, "wheel.log", conf.LogConfig.Filename)
	assert.Equal(t, 200, conf.LogConfig.MaxSize)
}

func TestInitDefaults(t *testing.T) {
	filename := writeConfig(t, "port: 7001\n")
	require.NoError(t, Init(filename))

	conf := Get()
	assert.Equal(t, "0.0.0.0:7001", conf.Address())
	assert.Equal(t, 5*time.Minute, conf.IdleTimeout)
	assert.Equal(t, 3600, conf.Wheel.Slots)
	assert.Equal(t, time.Second, conf.Wheel.Interval)
	assert.Equal(t, "info", conf.LogConfig.Level)
}

func TestInitInvalidWheel(t *testing.T) {
	filename := writeConfig(t, "wheel:\n  slots: 0\n")
	assert.Error(t, Init(filename))
}

func TestInitNegativeMaxClients(t *testing.T) {
	filename := writeConfig(t, "max_clients: -1\n")
	assert.Error(t, Init(filename))
}

func TestReload(t *testing.T) {
	filename := writeConfig(t, "idle_timeout: 30s\nmax_clients: 8\n")
	require.NoError(t, Init(filename))
	require.Equal(t, 30*time.Second, Get().IdleTimeout)

	require.NoError(t, os.WriteFile(filename, []byte("idle_timeout: 10s\nmax_clients: 8\n"), 0o644))
	assert.Eventually(t, func() bool {
		return Get().IdleTimeout == 10*time.Second
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 8, Get().MaxClients)
}

func TestInitMissingFile(t *testing.T) {
	assert.Error(t, Init(filepath.Join(t.TempDir(), "missing.yaml")))
}
