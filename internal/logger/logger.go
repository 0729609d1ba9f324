// Package logger builds the zerolog logger shared by the CLI and HTTP API.
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/goliatone/go-formset/internal/config"
)

// New builds a logger from settings: a console writer on stderr or JSON lines
// in a rotated file.
func New(settings config.LoggerSettings) (zerolog.Logger, error) {
	if err := settings.Validate(); err != nil {
		return zerolog.Nop(), err
	}
	level, err := ParseLevel(settings.LogLevel)
	if err != nil {
		return zerolog.Nop(), err
	}

	var out io.Writer
	switch settings.LogType {
	case config.LogTypeFile:
		out = &lumberjack.Logger{
			Filename:   settings.FilePath,
			MaxSize:    settings.MaxSize,
			MaxBackups: settings.MaxBackups,
			MaxAge:     settings.MaxAge,
			Compress:   true,
		}
	default:
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	return NewWithWriter(out, level), nil
}

// NewWithWriter returns a timestamped logger writing to out.
func NewWithWriter(out io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// ParseLevel maps a settings level onto zerolog.
func ParseLevel(level string) (zerolog.Level, error) {
	switch level {
	case config.LogLevelDebug:
		return zerolog.DebugLevel, nil
	case config.LogLevelInfo, "":
		return zerolog.InfoLevel, nil
	case config.LogLevelWarning:
		return zerolog.WarnLevel, nil
	case config.LogLevelError:
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("logger: unknown level %q", level)
	}
}
