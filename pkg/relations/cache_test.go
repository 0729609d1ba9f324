package relations

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formset/pkg/model"
)

func authorLookup() Lookup {
	return Lookup{Key: "blog.Article.author", Table: "authors", TargetKey: "id", Kind: model.FieldKindForeignKey}
}

func TestLookupFor(t *testing.T) {
	m := &model.Model{Name: "Article", App: "blog"}
	field := model.Field{
		Name: "tags",
		Kind: model.FieldKindManyToMany,
		Relationship: &model.Relationship{
			Kind:   model.RelationshipManyToMany,
			Target: "Tag",
		},
	}

	got, err := LookupFor(m, field)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	want := Lookup{Key: "blog.Article.tags", Model: "Article", Field: "tags", Table: "tag", TargetKey: "id", Kind: model.FieldKindManyToMany}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("lookup mismatch (-want +got):\n%s", diff)
	}

	if _, err := LookupFor(m, model.Field{Name: "title", Kind: model.FieldKindChar}); !errors.Is(err, ErrNotRelation) {
		t.Fatalf("expected ErrNotRelation, got %v", err)
	}
}

func TestCache_LoadsOnce(t *testing.T) {
	var calls int32
	source := KeySourceFunc(func(ctx context.Context, lookup Lookup) ([]any, error) {
		atomic.AddInt32(&calls, 1)
		return []any{int64(1), int64(2)}, nil
	})
	cache := New(source)

	for i := 0; i < 3; i++ {
		keys, err := cache.Keys(context.Background(), authorLookup())
		if err != nil {
			t.Fatalf("keys: %v", err)
		}
		if diff := cmp.Diff([]any{int64(1), int64(2)}, keys); diff != "" {
			t.Fatalf("keys mismatch (-want +got):\n%s", diff)
		}
	}
	if calls != 1 {
		t.Fatalf("expected a single load, got %d", calls)
	}
	stats := cache.Stats()
	if stats.Hits != 2 || stats.Misses != 1 || stats.Loads != 1 || stats.Entries != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestCache_ConcurrentMissesShareLoad(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	source := KeySourceFunc(func(ctx context.Context, lookup Lookup) ([]any, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return []any{"a"}, nil
	})
	cache := New(source)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Keys(context.Background(), authorLookup()); err != nil {
				t.Errorf("keys: %v", err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls != 1 {
		t.Fatalf("expected one shared load, got %d", calls)
	}
}

func TestCache_FailedLoadsAreNotCached(t *testing.T) {
	fail := true
	source := KeySourceFunc(func(ctx context.Context, lookup Lookup) ([]any, error) {
		if fail {
			return nil, errors.New("db down")
		}
		return []any{int64(1)}, nil
	})
	cache := New(source)

	if _, err := cache.Keys(context.Background(), authorLookup()); err == nil {
		t.Fatalf("expected load error")
	}
	fail = false
	keys, err := cache.Keys(context.Background(), authorLookup())
	if err != nil {
		t.Fatalf("keys after recovery: %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("unexpected keys %v", keys)
	}
}

func TestCache_TTLAndInvalidate(t *testing.T) {
	var calls int32
	source := KeySourceFunc(func(ctx context.Context, lookup Lookup) ([]any, error) {
		atomic.AddInt32(&calls, 1)
		return []any{int64(1)}, nil
	})
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := New(source, WithTTL(time.Minute), WithClock(func() time.Time { return now }))
	ctx := context.Background()

	mustKeys := func() {
		t.Helper()
		if _, err := cache.Keys(ctx, authorLookup()); err != nil {
			t.Fatalf("keys: %v", err)
		}
	}

	mustKeys()
	mustKeys()
	if calls != 1 {
		t.Fatalf("expected cached entry, got %d loads", calls)
	}

	now = now.Add(2 * time.Minute)
	mustKeys()
	if calls != 2 {
		t.Fatalf("expected reload after ttl, got %d loads", calls)
	}

	cache.Invalidate(authorLookup().Key)
	mustKeys()
	if calls != 3 {
		t.Fatalf("expected reload after invalidate, got %d loads", calls)
	}

	cache.Reset()
	if cache.Stats().Entries != 0 {
		t.Fatalf("expected empty cache after reset")
	}
}

func TestStaticSource(t *testing.T) {
	src := NewStaticSource(map[string][]any{"authors": {int64(1)}})
	src.Set("tags", "go", "sql")

	keys, err := src.Keys(context.Background(), Lookup{Table: "tags"})
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if diff := cmp.Diff([]any{"go", "sql"}, keys); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if _, err := src.Keys(context.Background(), Lookup{Table: "missing"}); err == nil {
		t.Fatalf("expected error for unknown table")
	}
	if diff := cmp.Diff([]string{"authors", "tags"}, src.Tables()); diff != "" {
		t.Fatalf("tables mismatch (-want +got):\n%s", diff)
	}
}
