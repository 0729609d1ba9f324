package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerSettingsValidation(t *testing.T) {
	tests := []struct {
		name          string
		settings      *LoggerSettings
		expectedError bool
	}{
		{
			name:     "valid console logger",
			settings: &LoggerSettings{LogLevel: LogLevelInfo, LogType: LogTypeConsole},
		},
		{
			name: "valid file logger with rotation",
			settings: &LoggerSettings{
				LogLevel:   LogLevelDebug,
				LogType:    LogTypeFile,
				FilePath:   "/tmp/formset.log",
				MaxSize:    10,
				MaxBackups: 3,
				MaxAge:     28,
			},
		},
		{
			name:          "file logger without path",
			settings:      &LoggerSettings{LogLevel: LogLevelInfo, LogType: LogTypeFile, MaxSize: 1, MaxBackups: 1, MaxAge: 1},
			expectedError: true,
		},
		{
			name:          "unknown level",
			settings:      &LoggerSettings{LogLevel: "loud", LogType: LogTypeConsole},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.settings.Validate()
			if tt.expectedError {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestDatabaseSettingsValidation(t *testing.T) {
	require.NoError(t, (&DatabaseSettings{}).Validate())
	require.NoError(t, (&DatabaseSettings{Type: SqliteDbType}).Validate())
	require.Error(t, (&DatabaseSettings{Type: PostgresDbType}).Validate())
	require.Error(t, (&DatabaseSettings{Type: "mysql", DSN: "x"}).Validate())
	require.Error(t, (&DatabaseSettings{Type: SqliteDbType, Driver: "odbc"}).Validate())
}

func TestLoadDefaults(t *testing.T) {
	settings, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, LogLevelInfo, settings.Logger.LogLevel)
	assert.Equal(t, LogTypeConsole, settings.Logger.LogType)
	assert.Equal(t, 5*time.Minute, settings.Relations.TTL)
	assert.Equal(t, ":8080", settings.HTTP.Addr)
	assert.False(t, settings.Database.Enabled())
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formset.yaml")
	content := []byte(`
logger:
  log_level: debug
models:
  source: testdata/blog.yaml
  format: models
database:
  type: sqlite
  dsn: ":memory:"
relations:
  ttl: 30s
locale: pl
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	t.Setenv("FORMSET_HTTP_ADDR", ":9090")

	settings, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, LogLevelDebug, settings.Logger.LogLevel)
	assert.Equal(t, SqliteDbType, settings.Database.Type)
	assert.Equal(t, DriverGorm, settings.Database.Driver)
	assert.Equal(t, 30*time.Second, settings.Relations.TTL)
	assert.Equal(t, ":9090", settings.HTTP.Addr)
	assert.Equal(t, "pl", settings.Locale)
	assert.Equal(t, "testdata/blog.yaml", settings.Models.Source)
	assert.Equal(t, "models", settings.Models.Format)
	assert.True(t, settings.Database.Enabled())
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("FORMSET_LOGGER_LOG_TYPE", "syslog")
	_, err := Load("")
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadRejectsUnknownModelFormat(t *testing.T) {
	t.Setenv("FORMSET_MODELS_FORMAT", "graphql")
	_, err := Load("")
	require.Error(t, err)
}
