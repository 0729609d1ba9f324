package model

import (
	"errors"
	"testing"
)

func TestFieldDefaultValue(t *testing.T) {
	calls := 0
	cases := []struct {
		name    string
		field   Field
		want    any
		wantSet bool
	}{
		{name: "not provided", field: Field{Name: "a"}},
		{name: "static", field: Field{Name: "a", Default: "draft", HasDefault: true}, want: "draft", wantSet: true},
		{name: "explicit nil", field: Field{Name: "a", HasDefault: true}, wantSet: true},
		{
			name: "callable wins",
			field: Field{Name: "a", Default: "x", HasDefault: true, DefaultFunc: func() any {
				calls++
				return calls
			}},
			want:    1,
			wantSet: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := tc.field.DefaultValue()
			if ok != tc.wantSet {
				t.Fatalf("expected set=%v, got %v", tc.wantSet, ok)
			}
			if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestFieldFlags(t *testing.T) {
	fk := Field{Name: "author", Kind: FieldKindForeignKey}
	if !fk.IsRelation() || !fk.Coerce() || fk.IsMany() {
		t.Fatalf("unexpected foreign key flags: %+v", fk)
	}

	m2m := Field{Name: "tags", Kind: FieldKindManyToMany}
	if !m2m.IsMany() || !m2m.Coerce() {
		t.Fatalf("unexpected many-to-many flags")
	}

	dec := Field{Name: "price", Kind: FieldKindDecimal}
	if dec.IsRelation() || !dec.Coerce() {
		t.Fatalf("decimal should coerce without being a relation")
	}

	char := Field{Name: "title", Kind: FieldKindChar, Blank: true}
	if char.Coerce() || !char.Nullable() {
		t.Fatalf("unexpected char flags")
	}
}

func TestFieldKey(t *testing.T) {
	m := &Model{Name: "Article", App: "blog"}
	if got := (Field{Name: "author"}).Key(m); got != "blog.Article.author" {
		t.Fatalf("key mismatch: %q", got)
	}
	bare := &Model{Name: "Article"}
	if got := (Field{Name: "author"}).Key(bare); got != "Article.author" {
		t.Fatalf("key mismatch: %q", got)
	}
}

func TestModelFieldNotFound(t *testing.T) {
	m := &Model{Name: "Article", Fields: []Field{{Name: "title", Kind: FieldKindChar}}}
	if _, err := m.Field("body"); !errors.Is(err, ErrFieldNotFound) {
		t.Fatalf("expected ErrFieldNotFound, got %v", err)
	}
	if f, err := m.Field(" title "); err != nil || f.Name != "title" {
		t.Fatalf("expected trimmed lookup to succeed: %v", err)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name  string
		model Model
		ok    bool
	}{
		{name: "valid", model: Model{Name: "A", Fields: []Field{{Name: "a", Kind: FieldKindText}}}, ok: true},
		{name: "missing name", model: Model{}},
		{name: "duplicate field", model: Model{Name: "A", Fields: []Field{{Name: "a", Kind: FieldKindText}, {Name: "a", Kind: FieldKindText}}}},
		{name: "unknown kind", model: Model{Name: "A", Fields: []Field{{Name: "a", Kind: "blob"}}}},
		{name: "relation without target", model: Model{Name: "A", Fields: []Field{{Name: "a", Kind: FieldKindForeignKey}}}},
		{name: "places above digits", model: Model{Name: "A", Fields: []Field{{Name: "a", Kind: FieldKindDecimal, MaxDigits: 4, DecimalPlaces: 5}}}},
		{name: "negative length", model: Model{Name: "A", Fields: []Field{{Name: "a", Kind: FieldKindChar, MaxLength: -1}}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.model)
			if tc.ok && err != nil {
				t.Fatalf("expected valid model, got %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestNormalizeRelationshipKind(t *testing.T) {
	cases := map[string]RelationshipKind{
		"ForeignKey":   RelationshipBelongsTo,
		"belongs_to":   RelationshipBelongsTo,
		"HaSmAnY":      RelationshipManyToMany,
		"many-to-many": RelationshipManyToMany,
	}
	for raw, want := range cases {
		got, ok := NormalizeRelationshipKind(raw)
		if !ok || got != want {
			t.Fatalf("%q: expected %q, got %q (ok=%v)", raw, want, got, ok)
		}
	}
	if _, ok := NormalizeRelationshipKind("sibling"); ok {
		t.Fatalf("expected unknown kind to be rejected")
	}
}

func TestVerboseName(t *testing.T) {
	cases := map[string]string{
		"author_id":    "Author id",
		"publishedAt":  "Published at",
		"price2Net":    "Price2 net",
		"__weird--id_": "Weird id",
		"":             "",
	}
	for in, want := range cases {
		if got := VerboseName(in); got != want {
			t.Fatalf("%q: expected %q, got %q", in, want, got)
		}
	}
	if got := LabelFor(Field{Name: "x", Label: "Custom"}); got != "Custom" {
		t.Fatalf("expected explicit label, got %q", got)
	}
}
