// Package relations caches the primary keys of related models so relation
// columns can be checked for membership without querying on every form.
package relations

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formset/pkg/model"
)

// ErrNotRelation is returned when a lookup is requested for a plain field.
var ErrNotRelation = errors.New("relations: field is not a relation")

// Lookup describes where the keys of a relation field live.
type Lookup struct {
	Key       string
	Model     string
	Field     string
	Table     string
	TargetKey string
	Kind      model.FieldKind
}

// LookupFor derives the lookup of a relation field.
func LookupFor(m *model.Model, field model.Field) (Lookup, error) {
	if !field.IsRelation() || field.Relationship == nil {
		return Lookup{}, fmt.Errorf("%w: %s", ErrNotRelation, field.Key(m))
	}
	rel := field.Relationship
	table := strings.TrimSpace(rel.Table)
	if table == "" {
		table = strings.ToLower(rel.Target)
	}
	targetKey := strings.TrimSpace(rel.TargetKey)
	if targetKey == "" {
		targetKey = "id"
	}
	lookup := Lookup{
		Key:       field.Key(m),
		Field:     field.Name,
		Table:     table,
		TargetKey: targetKey,
		Kind:      field.Kind,
	}
	if m != nil {
		lookup.Model = m.Name
	}
	return lookup, nil
}

// KeySource loads the keys a relation may reference.
type KeySource interface {
	Keys(ctx context.Context, lookup Lookup) ([]any, error)
}

// KeySourceFunc adapts a function to KeySource.
type KeySourceFunc func(ctx context.Context, lookup Lookup) ([]any, error)

func (fn KeySourceFunc) Keys(ctx context.Context, lookup Lookup) ([]any, error) {
	return fn(ctx, lookup)
}

// StaticSource serves keys from memory, indexed by table name.
type StaticSource struct {
	mu     sync.RWMutex
	tables map[string][]any
}

// NewStaticSource returns a source seeded with tables.
func NewStaticSource(tables map[string][]any) *StaticSource {
	src := &StaticSource{tables: make(map[string][]any, len(tables))}
	for table, keys := range tables {
		src.tables[table] = append([]any(nil), keys...)
	}
	return src
}

// Set replaces the keys of a table.
func (s *StaticSource) Set(table string, keys ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tables == nil {
		s.tables = make(map[string][]any)
	}
	s.tables[table] = append([]any(nil), keys...)
}

// Tables lists the known tables.
func (s *StaticSource) Tables() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.tables))
	for table := range s.tables {
		out = append(out, table)
	}
	sort.Strings(out)
	return out
}

func (s *StaticSource) Keys(ctx context.Context, lookup Lookup) ([]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys, ok := s.tables[lookup.Table]
	if !ok {
		return nil, fmt.Errorf("relations: unknown table %q", lookup.Table)
	}
	return append([]any(nil), keys...), nil
}
