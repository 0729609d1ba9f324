// Package sqlstore loads relation keys with database/sql, for deployments
// that do not want the ORM in the lookup path.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/goliatone/go-formset/internal/config"
	"github.com/goliatone/go-formset/internal/storage"
	"github.com/goliatone/go-formset/pkg/relations"
)

const defaultPingTimeout = 5 * time.Second

// Source runs SELECT key FROM table against a *sql.DB.
type Source struct {
	db *sql.DB
}

var _ relations.KeySource = (*Source)(nil)

// NewSource wraps an open pool.
func NewSource(db *sql.DB) *Source {
	return &Source{db: db}
}

// DriverName maps a database type onto the registered database/sql driver.
func DriverName(dbType string) (string, error) {
	switch dbType {
	case config.PostgresDbType:
		return "pgx", nil
	case config.SqliteDbType:
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("sqlstore: unsupported database type: %s", dbType)
	}
}

// Open connects and pings the database described by settings.
func Open(ctx context.Context, settings config.DatabaseSettings) (*sql.DB, error) {
	driver, err := DriverName(settings.Type)
	if err != nil {
		return nil, err
	}
	dsn := settings.DSN
	if dsn == "" {
		if settings.Type != config.SqliteDbType {
			return nil, errors.New("sqlstore: database DSN is required")
		}
		dsn = ":memory:"
	}

	pool, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	if err := pool.PingContext(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("sqlstore: ping: %w", err)
	}
	return pool, nil
}

// Keys returns every value of lookup.TargetKey in lookup.Table.
func (s *Source) Keys(ctx context.Context, lookup relations.Lookup) ([]any, error) {
	if err := storage.CheckLookup(lookup); err != nil {
		return nil, err
	}
	column := storage.Quote(lookup.TargetKey)
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", column, storage.Quote(lookup.Table), column)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: query %s: %w", lookup.Table, err)
	}
	defer rows.Close()

	var keys []any
	for rows.Next() {
		var key any
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("sqlstore: scan %s: %w", lookup.Table, err)
		}
		keys = append(keys, storage.Normalise(key))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: read %s: %w", lookup.Table, err)
	}
	return keys, nil
}
