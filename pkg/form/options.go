package form

import (
	"context"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formset/pkg/frame"
	"github.com/goliatone/go-formset/pkg/i18n"
	"github.com/goliatone/go-formset/pkg/relations"
	"github.com/goliatone/go-formset/pkg/validation"
)

// DefaultFunc returns the default value of a field. The boolean is false
// when the field has no default.
type DefaultFunc func(field string) (any, bool)

// RowContext is handed to clean hooks.
type RowContext struct {
	Row   int
	Field string
	Value any
	// Data holds the row's cleaned values so far, including Field.
	Data frame.Row
}

// CleanFunc cleans one field of one row. The returned value replaces the
// cleaned value. Returning a *validation.Error records it against the row.
type CleanFunc func(ctx context.Context, rc RowContext) (any, error)

// FormCleanFunc runs once after every row has been cleaned.
type FormCleanFunc func(ctx context.Context, f *Form) error

// Option customises a Form or ModelForm.
type Option func(*options)

type options struct {
	defaults       DefaultFunc
	cleaners       map[string]CleanFunc
	formCleaners   []FormCleanFunc
	schema         *validation.Schema
	logger         zerolog.Logger
	localizer      i18n.Localizer
	sanitizer      *bluemonday.Policy
	strictColumns  bool
	cache          *relations.Cache
	keySource      relations.KeySource
	requiredChecks bool
}

func newOptions(opts []Option) options {
	cfg := options{
		cleaners:  make(map[string]CleanFunc),
		logger:    zerolog.Nop(),
		localizer: i18n.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithDefaults sets the default value resolver.
func WithDefaults(fn DefaultFunc) Option {
	return func(o *options) {
		o.defaults = fn
	}
}

// WithCleaner registers the clean hook of field.
func WithCleaner(field string, fn CleanFunc) Option {
	return func(o *options) {
		if fn == nil {
			return
		}
		o.cleaners[field] = fn
	}
}

// WithFormCleaner registers a hook that runs after every row was cleaned.
func WithFormCleaner(fn FormCleanFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.formCleaners = append(o.formCleaners, fn)
		}
	}
}

// WithSchema validates the cleaned rows against schema.
func WithSchema(schema *validation.Schema) Option {
	return func(o *options) {
		o.schema = schema
	}
}

// WithLogger attaches a logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLocalizer selects the language of error messages.
func WithLocalizer(loc i18n.Localizer) Option {
	return func(o *options) {
		if loc != nil {
			o.localizer = loc
		}
	}
}

// WithSanitizer passes every string cell through policy before clean hooks
// run.
func WithSanitizer(policy *bluemonday.Policy) Option {
	return func(o *options) {
		o.sanitizer = policy
	}
}

// WithStrictColumns reports frame columns that are not form fields as
// form-level errors.
func WithStrictColumns() Option {
	return func(o *options) {
		o.strictColumns = true
	}
}

// WithRelationCache shares cache between model forms.
func WithRelationCache(cache *relations.Cache) Option {
	return func(o *options) {
		o.cache = cache
	}
}

// WithKeySource gives the model form a private cache over source.
func WithKeySource(source relations.KeySource) Option {
	return func(o *options) {
		o.keySource = source
	}
}

// WithRequiredChecks adds a presence check to fields that are neither
// nullable nor defaulted.
func WithRequiredChecks() Option {
	return func(o *options) {
		o.requiredChecks = true
	}
}
