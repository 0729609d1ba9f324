package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Log level constants
const (
	LogLevelInfo    = "info"
	LogLevelDebug   = "debug"
	LogLevelError   = "error"
	LogLevelWarning = "warning"
)

// Log type constants
const (
	LogTypeConsole = "console"
	LogTypeFile    = "file"
)

// Database type constants
const (
	PostgresDbType = "postgres"
	SqliteDbType   = "sqlite"
)

// Key source drivers
const (
	DriverGorm = "gorm"
	DriverSQL  = "sql"
)

// Settings is the root configuration.
type Settings struct {
	Logger    LoggerSettings   `mapstructure:"logger"`
	Models    ModelSettings    `mapstructure:"models"`
	Database  DatabaseSettings `mapstructure:"database"`
	Relations RelationSettings `mapstructure:"relations"`
	HTTP      HTTPSettings     `mapstructure:"http"`
	Locale    string           `mapstructure:"locale" validate:"omitempty,bcp47_language_tag"`
}

// LoggerSettings holds configuration settings for logging, including log level, type and file path
type LoggerSettings struct {
	LogLevel   string `mapstructure:"log_level" validate:"required,oneof=info debug error warning"`
	LogType    string `mapstructure:"log_type" validate:"required,oneof=console file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// ModelSettings locates the model document and optional field presets.
// Source accepts a file path or an http(s) URL.
type ModelSettings struct {
	Source string `mapstructure:"source"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=openapi models jsonschema"`
	Preset string `mapstructure:"preset"`
}

// DatabaseSettings locates the database holding related rows. An empty Type
// disables database lookups.
type DatabaseSettings struct {
	Type   string `mapstructure:"type" validate:"omitempty,oneof=postgres sqlite"`
	Driver string `mapstructure:"driver" validate:"omitempty,oneof=gorm sql"`
	DSN    string `mapstructure:"dsn" validate:"required_if=Type postgres"`
	Name   string `mapstructure:"name"`
}

// RelationSettings tunes the relation key cache.
type RelationSettings struct {
	TTL time.Duration `mapstructure:"ttl" validate:"gte=0"`
}

// HTTPSettings configures the validation API.
type HTTPSettings struct {
	Addr         string        `mapstructure:"addr" validate:"required"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"gte=0"`
}

var validate = validator.New()

// Validate checks that all fields in LoggerSettings are valid
func (s *LoggerSettings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("validation failed for LoggerSettings: %w", err)
	}

	if s.LogType == LogTypeFile {
		if s.FilePath == "" {
			return fmt.Errorf("file path is required for file logger")
		}
		if s.MaxSize < 1 || s.MaxSize > 100 {
			return fmt.Errorf("max size must be between 1 and 100 MB")
		}
		if s.MaxBackups < 1 || s.MaxBackups > 10 {
			return fmt.Errorf("max backups must be between 1 and 10")
		}
		if s.MaxAge < 1 || s.MaxAge > 365 {
			return fmt.Errorf("max age must be between 1 and 365 days")
		}
	}
	return nil
}

// Validate checks the database settings.
func (s *DatabaseSettings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("validation failed for DatabaseSettings: %w", err)
	}
	return nil
}

// Enabled reports whether a database is configured.
func (s DatabaseSettings) Enabled() bool {
	return s.Type != ""
}

// Validate checks every section.
func (s *Settings) Validate() error {
	if err := s.Logger.Validate(); err != nil {
		return err
	}
	if err := s.Database.Validate(); err != nil {
		return err
	}
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("validation failed for Settings: %w", err)
	}
	return nil
}
