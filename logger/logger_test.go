package logger

import (
	"os"
	"path/filepath"
	"testing"

	"gowheel/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "wheel.log")
	require.NoError(t, Init(&config.LogConfig{
		Mode:       "release",
		Level:      "info",
		Filename:   filename,
		MaxSize:    1,
		MaxAge:     1,
		MaxBackups: 1,
	}))
	defer zap.ReplaceGlobals(zap.NewNop())

	zap.L().Debug("hidden")
	zap.L().Info("tick drained", zap.Int("count", 3))
	_ = zap.L().Sync()

	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"tick drained"`)
	assert.Contains(t, string(data), `"count":3`)
	assert.NotContains(t, string(data), "hidden")
}

func TestInitStdout(t *testing.T) {
	require.NoError(t, Init(&config.LogConfig{Mode: "dev", Level: "debug"}))
	defer zap.ReplaceGlobals(zap.NewNop())
	assert.True(t, zap.L().Core().Enabled(zap.DebugLevel))
}

func TestInitBadLevel(t *testing.T) {
	assert.Error(t, Init(&config.LogConfig{Level: "loud"}))
}
