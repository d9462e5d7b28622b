package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/solutiontech/gic/pkg/config"
)

func TestNew_LevelAndFormat(t *testing.T) {
	l, err := New(config.LoggingConfig{Level: "warn", Format: "console"}, false)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	l, err = New(config.LoggingConfig{}, false)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestNew_Rejects(t *testing.T) {
	_, err := New(config.LoggingConfig{Level: "loud"}, false)
	assert.Error(t, err)

	_, err = New(config.LoggingConfig{Format: "xml"}, false)
	assert.ErrorContains(t, err, "unsupported format")
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gic.log")
	l, err := New(config.LoggingConfig{Level: "info", Format: "json", Output: path}, false)
	require.NoError(t, err)

	l.Info("customer created")
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"customer created"`)
}
