package orchestrator

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formset/pkg/model"
	"github.com/goliatone/go-formset/pkg/source"
)

const (
	// FormatOpenAPI names the parser for OpenAPI component schemas.
	FormatOpenAPI = "openapi"
	// FormatModels names the parser for YAML/JSON model definitions.
	FormatModels = "models"
	// FormatJSONSchema names the parser for JSON Schema definitions.
	FormatJSONSchema = "jsonschema"
)

// DetectFunc reports whether a parser understands the top-level keys of a
// document.
type DetectFunc func(keys map[string]struct{}) bool

type registeredParser struct {
	parser model.Parser
	detect DetectFunc
}

// ParserRegistry stores model parsers by format name.
type ParserRegistry struct {
	mu      sync.RWMutex
	parsers map[string]registeredParser
}

// NewParserRegistry creates an empty parser registry.
func NewParserRegistry() *ParserRegistry {
	return &ParserRegistry{
		parsers: make(map[string]registeredParser),
	}
}

// Register adds a parser under name. Duplicate names return an error. detect
// may be nil, in which case the parser is only reachable by name.
func (r *ParserRegistry) Register(name string, parser model.Parser, detect DetectFunc) error {
	if parser == nil {
		return fmt.Errorf("orchestrator: parser is required")
	}
	key := normalizeFormatName(name)
	if key == "" {
		return fmt.Errorf("orchestrator: parser name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.parsers[key]; exists {
		return fmt.Errorf("orchestrator: parser %q already registered", key)
	}
	r.parsers[key] = registeredParser{parser: parser, detect: detect}
	return nil
}

// MustRegister panics on registration failure.
func (r *ParserRegistry) MustRegister(name string, parser model.Parser, detect DetectFunc) {
	if err := r.Register(name, parser, detect); err != nil {
		panic(err)
	}
}

// Get retrieves a parser by name.
func (r *ParserRegistry) Get(name string) (model.Parser, error) {
	key := normalizeFormatName(name)
	if key == "" {
		return nil, fmt.Errorf("orchestrator: parser name is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.parsers[key]
	if !ok {
		return nil, fmt.Errorf("orchestrator: parser %q not found", key)
	}
	return entry.parser, nil
}

// List returns a sorted list of parser names.
func (r *ParserRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.parsers))
	for name := range r.parsers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Detect returns the names of every parser whose detector accepts doc.
func (r *ParserRegistry) Detect(doc source.Document) ([]string, error) {
	keys, err := topLevelKeys(doc)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []string
	for name, entry := range r.parsers {
		if entry.detect != nil && entry.detect(keys) {
			matches = append(matches, name)
		}
	}
	sort.Strings(matches)
	return matches, nil
}

// HasKey builds a DetectFunc matching documents carrying any of keys.
func HasKey(keys ...string) DetectFunc {
	return func(found map[string]struct{}) bool {
		for _, key := range keys {
			if _, ok := found[key]; ok {
				return true
			}
		}
		return false
	}
}

// topLevelKeys returns the keys of the document's root mapping.
func topLevelKeys(doc source.Document) (map[string]struct{}, error) {
	var root map[string]yaml.Node
	if err := doc.Decode(&root); err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	keys := make(map[string]struct{}, len(root))
	for key := range root {
		keys[key] = struct{}{}
	}
	return keys, nil
}

func normalizeFormatName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (r *ParserRegistry) has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.parsers[normalizeFormatName(name)]
	return ok
}

// detectJSONSchema matches schema documents that are not OpenAPI or Swagger,
// both of which may carry definitions too.
func detectJSONSchema(keys map[string]struct{}) bool {
	if HasKey("openapi", "swagger")(keys) {
		return false
	}
	return HasKey("$schema", "$defs", "definitions")(keys)
}
