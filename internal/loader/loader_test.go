package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-formset/pkg/source"
)

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "models.yaml")
	if err := os.WriteFile(path, []byte("models: []\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	l := New(source.LoaderOptions{})
	doc, err := l.Load(context.Background(), source.FromFile(path))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := string(doc.Raw()); got != "models: []\n" {
		t.Fatalf("payload mismatch: %q", got)
	}
	if doc.Location() != path {
		t.Fatalf("location mismatch: %q", doc.Location())
	}
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"defs/models.json": {Data: []byte(`{"models": []}`)},
	}
	l := New(source.NewLoaderOptions(source.WithFileSystem(fsys)))

	doc, err := l.Load(context.Background(), source.FromFS("defs/models.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(doc.Raw()) != `{"models": []}` {
		t.Fatalf("payload mismatch: %q", doc.Raw())
	}
}

func TestLoadFSWithoutFileSystem(t *testing.T) {
	l := New(source.LoaderOptions{})
	if _, err := l.Load(context.Background(), source.FromFS("models.json")); err == nil {
		t.Fatalf("expected error when no filesystem is configured")
	}
}

func TestLoadHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models.yaml" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("models: []"))
	}))
	defer server.Close()

	src, err := source.FromURL(server.URL + "/models.yaml")
	if err != nil {
		t.Fatalf("source: %v", err)
	}

	disabled := New(source.LoaderOptions{})
	if _, err := disabled.Load(context.Background(), src); err == nil {
		t.Fatalf("expected http to be disabled by default")
	}

	l := New(source.NewLoaderOptions(source.WithHTTPClient(server.Client())))
	doc, err := l.Load(context.Background(), src)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(doc.Raw()) != "models: []" {
		t.Fatalf("payload mismatch: %q", doc.Raw())
	}

	missing, _ := source.FromURL(server.URL + "/missing.yaml")
	if _, err := l.Load(context.Background(), missing); err == nil {
		t.Fatalf("expected error for non-2xx status")
	}
}

func TestLoadCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := New(source.LoaderOptions{})
	if _, err := l.Load(ctx, source.FromFile("does-not-matter.yaml")); err == nil {
		t.Fatalf("expected cancelled context to fail the load")
	}
}

func TestLoadRejectsOversizedDocuments(t *testing.T) {
	fsys := fstest.MapFS{
		"big.yaml": {Data: []byte("models: [a, b, c]\n")},
	}
	l := New(source.NewLoaderOptions(source.WithFileSystem(fsys), source.WithMaxBytes(8)))
	_, err := l.Load(context.Background(), source.FromFS("big.yaml"))
	if !errors.Is(err, source.ErrDocumentTooLarge) {
		t.Fatalf("expected ErrDocumentTooLarge, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	l := New(source.LoaderOptions{})
	_, err := l.Load(context.Background(), source.FromFile(filepath.Join(t.TempDir(), "absent.yaml")))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
