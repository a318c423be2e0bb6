package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"predictflow/internal/config"
)

// lastEntry parses the last JSON line of a log file
func lastEntry(t *testing.T, path string) map[string]interface{} {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func fileLogging(t *testing.T, level string) (config.LoggingConfig, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "logs", "test.log")
	return config.LoggingConfig{Level: level, Format: "json", Output: "file", FilePath: path}, path
}

func TestInitializeLogger(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	cfg, path := fileLogging(t, "info")
	logger, err := InitializeLogger(cfg)
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.Same(t, logger, GetLogger())

	logger.Info("test message", "key", "value")
	require.NoError(t, CloseLogFile())

	entry := lastEntry(t, path)
	assert.Equal(t, "test message", entry["msg"])
	assert.Equal(t, "value", entry["key"])
	assert.Equal(t, "INFO", entry["level"])
}

func TestTraceIDInjection(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	cfg, path := fileLogging(t, "debug")
	logger, err := InitializeLogger(cfg)
	require.NoError(t, err)

	ctx := WithTraceID(context.Background(), "test-trace-123")
	logger.InfoContext(ctx, "test with trace")
	require.NoError(t, CloseLogFile())

	assert.Equal(t, "test-trace-123", lastEntry(t, path)["trace_id"])
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level    string
		log      func(*slog.Logger)
		expected string
	}{
		{"debug", func(l *slog.Logger) { l.Debug("m") }, "DEBUG"},
		{"info", func(l *slog.Logger) { l.Info("m") }, "INFO"},
		{"warning", func(l *slog.Logger) { l.Warn("m") }, "WARN"},
		{"error", func(l *slog.Logger) { l.Error("m") }, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			ResetLoggerForTesting()
			defer ResetLoggerForTesting()

			cfg, path := fileLogging(t, tt.level)
			logger, err := InitializeLogger(cfg)
			require.NoError(t, err)

			tt.log(logger)
			require.NoError(t, CloseLogFile())
			assert.Equal(t, tt.expected, lastEntry(t, path)["level"])
		})
	}

	assert.Equal(t, slog.LevelInfo, parseLogLevel("verbose"))
}

func TestContextHelpers(t *testing.T) {
	ctx := ContextWithTraceID(context.Background())
	traceID := GetTraceID(ctx)
	assert.NotEmpty(t, traceID)

	assert.Equal(t, traceID, GetTraceID(EnsureTraceID(ctx)))
	assert.NotEmpty(t, GetTraceID(EnsureTraceID(context.Background())))
	assert.Empty(t, GetTraceID(context.Background()))
}

func TestLoggerHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	decode := func() map[string]interface{} {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		buf.Reset()
		return entry
	}

	WithComponent(logger, "converter").Info("m")
	assert.Equal(t, "converter", decode()["component"])

	WithError(logger, os.ErrNotExist).Info("m")
	assert.Contains(t, decode()["error"], "file does not exist")

	assert.Same(t, logger, WithError(logger, nil))

	WithFields(logger, map[string]interface{}{"model": "knn", "rows": 3}).Info("m")
	entry := decode()
	assert.Equal(t, "knn", entry["model"])
	assert.Equal(t, 3.0, entry["rows"])
}

func TestNewCLILogger(t *testing.T) {
	logger := NewCLILogger("warn")
	require.NotNil(t, logger)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))
}
