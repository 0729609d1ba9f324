package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrModelNotFound is returned when a registry has no model with the requested
// name.
var ErrModelNotFound = errors.New("model: model not registered")

// Registry indexes models by name. Lookups accept either the bare model name
// or the "app.Model" form.
type Registry struct {
	mu     sync.RWMutex
	models map[string]*Model
	order  []string

	// Strict makes Resolve fail on relationships targeting unknown models.
	Strict bool
}

// NewRegistry builds a registry holding the given models.
func NewRegistry(models ...Model) (*Registry, error) {
	reg := &Registry{models: make(map[string]*Model)}
	for _, m := range models {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Register validates and stores a copy of the model.
func (r *Registry) Register(m Model) error {
	if err := Validate(m); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.models == nil {
		r.models = make(map[string]*Model)
	}
	if _, exists := r.models[m.Name]; exists {
		return fmt.Errorf("model: %q registered twice", m.Name)
	}

	stored := m
	stored.Fields = make([]Field, len(m.Fields))
	for idx, field := range m.Fields {
		field.Relationship = cloneRelationship(field.Relationship)
		ensureRelationship(&field)
		stored.Fields[idx] = field
	}
	r.models[m.Name] = &stored
	r.order = append(r.order, m.Name)
	return nil
}

// Lookup returns the model registered under name.
func (r *Registry) Lookup(name string) (*Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	trimmed := strings.TrimSpace(name)
	if m, ok := r.models[trimmed]; ok {
		return m, nil
	}
	if idx := strings.LastIndex(trimmed, "."); idx >= 0 {
		app, bare := trimmed[:idx], trimmed[idx+1:]
		if m, ok := r.models[bare]; ok && m.App == app {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrModelNotFound, trimmed)
}

// Names returns the registered model names sorted alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Models returns the registered models in registration order.
func (r *Registry) Models() []*Model {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Model, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.models[name])
	}
	return out
}

// Len reports how many models are registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.models)
}

// Resolve fills relationship tables from their target models. Targets that are
// not registered fall back to the lower-cased target name unless Strict is set.
func (r *Registry) Resolve() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range r.order {
		m := r.models[name]
		for idx := range m.Fields {
			rel := m.Fields[idx].Relationship
			if rel == nil || strings.TrimSpace(rel.Table) != "" {
				continue
			}
			target, ok := r.models[rel.Target]
			if !ok {
				if r.Strict {
					return fmt.Errorf("%w: %s.%s targets %q", ErrModelNotFound, m.Name, m.Fields[idx].Name, rel.Target)
				}
				rel.Table = strings.ToLower(rel.Target)
				continue
			}
			rel.Table = target.TableName()
		}
	}
	return nil
}
