package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. FORMSET_LOGGER_LOG_LEVEL.
const EnvPrefix = "FORMSET"

// Defaults seeds v with the default settings.
func Defaults(v *viper.Viper) {
	v.SetDefault("logger.log_level", LogLevelInfo)
	v.SetDefault("logger.log_type", LogTypeConsole)
	v.SetDefault("models.source", "")
	v.SetDefault("models.format", "")
	v.SetDefault("models.preset", "")
	v.SetDefault("database.type", "")
	v.SetDefault("database.driver", DriverGorm)
	v.SetDefault("database.dsn", "")
	v.SetDefault("relations.ttl", "5m")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", "15s")
	v.SetDefault("http.write_timeout", "15s")
	v.SetDefault("locale", "en")
}

// New returns a viper instance wired with defaults and environment lookup.
func New() *viper.Viper {
	v := viper.New()
	Defaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path (when not empty) on top of defaults and environment
// variables and returns validated settings.
func Load(path string) (*Settings, error) {
	return LoadWith(New(), path)
}

// LoadWith is Load over a caller supplied viper instance, so command flags
// bound to v take part in the lookup.
func LoadWith(v *viper.Viper, path string) (*Settings, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &settings, nil
}
