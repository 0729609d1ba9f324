package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formset/internal/config"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		config.LogLevelDebug:   zerolog.DebugLevel,
		config.LogLevelInfo:    zerolog.InfoLevel,
		config.LogLevelWarning: zerolog.WarnLevel,
		config.LogLevelError:   zerolog.ErrorLevel,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("critical")
	assert.Error(t, err)
}

func TestNewWithWriterFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, zerolog.WarnLevel)

	log.Info().Msg("hidden")
	log.Warn().Str("model", "Article").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, `"model":"Article"`)
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formset.log")
	log, err := New(config.LoggerSettings{
		LogLevel:   config.LogLevelInfo,
		LogType:    config.LogTypeFile,
		FilePath:   path,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
	})
	require.NoError(t, err)

	log.Info().Msg("info message")
	log.Error().Msg("error message")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "info message")
	assert.Contains(t, string(content), "error message")
}

func TestNewRejectsInvalidSettings(t *testing.T) {
	_, err := New(config.LoggerSettings{LogLevel: config.LogLevelInfo, LogType: config.LogTypeFile})
	assert.Error(t, err)
}
