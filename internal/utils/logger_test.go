// internal/utils/logger_test.go
package utils

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLogLevel("debug"))
	assert.Equal(t, WARNING, ParseLogLevel(" WARN "))
	assert.Equal(t, WARNING, ParseLogLevel("warning"))
	assert.Equal(t, ERROR, ParseLogLevel("error"))
	assert.Equal(t, INFO, ParseLogLevel("chatty"))
}

func TestToZapFieldsNamesErrors(t *testing.T) {
	fields := toZapFields(map[string]interface{}{"error": errors.New("boom")})
	require.Len(t, fields, 1)
	assert.Equal(t, zapcore.ErrorType, fields[0].Type)
	assert.Nil(t, toZapFields(nil))
}

func TestNewLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guard.log")
	logger := NewLogger("debug", path)

	logger.Debug("scene costed", map[string]interface{}{"scene_id": "1"})
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"scene costed"`)
	assert.Contains(t, string(data), `"scene_id":"1"`)
}

func TestSetLogLevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guard.log")
	logger := NewLogger("info", path)
	logger.SetLogLevel(ERROR)

	logger.Warn("dropped", nil)
	logger.Error("kept", nil)
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), "kept")
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	logger.Info("ignored", map[string]interface{}{"k": 1})
	logger.Infof("ignored %d", 2)
}
