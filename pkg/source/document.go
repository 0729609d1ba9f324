package source

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Document is a loaded model document: its origin plus an immutable copy of
// the payload.
type Document struct {
	source Source
	raw    []byte
}

// NewDocument copies raw and pairs it with src. Both are required.
func NewDocument(src Source, raw []byte) (Document, error) {
	switch {
	case src == nil:
		return Document{}, errors.New("source: source is required")
	case len(raw) == 0:
		return Document{}, fmt.Errorf("source: %s is empty", src.Location())
	}
	return Document{source: src, raw: append([]byte(nil), raw...)}, nil
}

// MustNewDocument is NewDocument for fixtures; it panics on error.
func MustNewDocument(src Source, raw []byte) Document {
	doc, err := NewDocument(src, raw)
	if err != nil {
		panic(err)
	}
	return doc
}

// Source returns where the document came from.
func (d Document) Source() Source {
	return d.source
}

// Location is shorthand for Source().Location().
func (d Document) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}

// Raw returns a copy of the payload.
func (d Document) Raw() []byte {
	return append([]byte(nil), d.raw...)
}

// Decode unmarshals the payload into out. JSON documents decode too since
// JSON is a subset of YAML.
func (d Document) Decode(out any) error {
	if len(d.raw) == 0 {
		return errors.New("source: document payload is empty")
	}
	if err := yaml.Unmarshal(d.raw, out); err != nil {
		return fmt.Errorf("source: decode %s: %w", d.Location(), err)
	}
	return nil
}
