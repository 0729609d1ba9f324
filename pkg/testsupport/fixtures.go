// Package testsupport holds fixture and golden-file helpers shared by tests.
package testsupport

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formset/pkg/frame"
	"github.com/goliatone/go-formset/pkg/model"
	"github.com/goliatone/go-formset/pkg/source"
)

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// ReadFixture returns the bytes of a fixture file.
func ReadFixture(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return data
}

// LoadDocument wraps a fixture file in a source.Document.
func LoadDocument(t *testing.T, path string) source.Document {
	t.Helper()
	doc, err := source.NewDocument(source.FromFile(path), ReadFixture(t, path))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	return doc
}

// MustRegistry parses the fixture at path with parser and returns a resolved
// registry.
func MustRegistry(t *testing.T, parser model.Parser, path string) *model.Registry {
	t.Helper()
	models, err := parser.Models(Context(), LoadDocument(t, path))
	if err != nil {
		t.Fatalf("parse models: %v", err)
	}
	registry, err := model.NewRegistry(models...)
	if err != nil {
		t.Fatalf("register models: %v", err)
	}
	if err := registry.Resolve(); err != nil {
		t.Fatalf("resolve registry: %v", err)
	}
	return registry
}

// MustReadFrame loads a CSV or JSON data fixture, chosen by extension.
func MustReadFrame(t *testing.T, path string) *frame.Frame {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open frame: %v", err)
	}
	defer file.Close()

	var f *frame.Frame
	if filepath.Ext(path) == ".json" {
		f, err = frame.ReadJSON(file)
	} else {
		f, err = frame.ReadCSV(file)
	}
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

// AssertGoldenJSON compares got, marshalled to JSON, with the golden file at
// path. With UPDATE_GOLDENS set the golden is rewritten instead.
func AssertGoldenJSON(t *testing.T, path string, got any) {
	t.Helper()
	payload, err := json.MarshalIndent(got, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	if os.Getenv("UPDATE_GOLDENS") != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir golden dir: %v", err)
		}
		if err := os.WriteFile(path, append(payload, '\n'), 0o644); err != nil {
			t.Fatalf("write golden: %v", err)
		}
		return
	}

	var want, have any
	if err := json.Unmarshal(ReadFixture(t, path), &want); err != nil {
		t.Fatalf("unmarshal golden: %v", err)
	}
	if err := json.Unmarshal(payload, &have); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if diff := cmp.Diff(want, have); diff != "" {
		t.Fatalf("golden %s mismatch (-want +got):\n%s", filepath.Base(path), diff)
	}
}
