// Package gormstore loads relation keys through gorm.
package gormstore

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/goliatone/go-formset/internal/config"
	"github.com/goliatone/go-formset/internal/storage"
	"github.com/goliatone/go-formset/pkg/relations"
)

// Source reads the key column of the related table.
type Source struct {
	db *gorm.DB
}

var _ relations.KeySource = (*Source)(nil)

// NewSource wraps an open gorm handle.
func NewSource(db *gorm.DB) *Source {
	return &Source{db: db}
}

// Keys returns every value of lookup.TargetKey in lookup.Table.
func (s *Source) Keys(ctx context.Context, lookup relations.Lookup) ([]any, error) {
	if err := storage.CheckLookup(lookup); err != nil {
		return nil, err
	}
	rows, err := s.db.WithContext(ctx).
		Table(storage.Quote(lookup.Table)).
		Select(storage.Quote(lookup.TargetKey)).
		Order(storage.Quote(lookup.TargetKey)).
		Rows()
	if err != nil {
		return nil, fmt.Errorf("gormstore: query %s: %w", lookup.Table, err)
	}
	defer rows.Close()

	var keys []any
	for rows.Next() {
		var key any
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("gormstore: scan %s: %w", lookup.Table, err)
		}
		keys = append(keys, storage.Normalise(key))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("gormstore: read %s: %w", lookup.Table, err)
	}
	return keys, nil
}

// Open creates a database connection based on settings.
func Open(settings config.DatabaseSettings) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	switch settings.Type {
	case config.PostgresDbType:
		dsn := settings.DSN
		if settings.Name != "" {
			dsn = fmt.Sprintf("%s dbname=%s", settings.DSN, settings.Name)
		}
		db, err := gorm.Open(postgres.Open(dsn), cfg)
		if err != nil {
			return nil, fmt.Errorf("gormstore: failed to connect to PostgreSQL: %w", err)
		}
		return db, nil
	case config.SqliteDbType:
		dsn := settings.DSN
		if dsn == "" {
			dsn = ":memory:"
		}
		db, err := gorm.Open(sqlite.Open(dsn), cfg)
		if err != nil {
			return nil, fmt.Errorf("gormstore: failed to connect to SQLite: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("gormstore: unsupported database type: %s", settings.Type)
	}
}

// Close closes the database connection
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("gormstore: failed to get database instance: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("gormstore: failed to close database connection: %w", err)
	}
	return nil
}
