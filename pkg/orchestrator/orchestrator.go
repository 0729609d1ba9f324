package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formset/internal/jsonschema"
	internalLoader "github.com/goliatone/go-formset/internal/loader"
	"github.com/goliatone/go-formset/internal/modeldef"
	"github.com/goliatone/go-formset/internal/openapi"
	"github.com/goliatone/go-formset/pkg/form"
	"github.com/goliatone/go-formset/pkg/frame"
	"github.com/goliatone/go-formset/pkg/i18n"
	"github.com/goliatone/go-formset/pkg/model"
	"github.com/goliatone/go-formset/pkg/relations"
	"github.com/goliatone/go-formset/pkg/report"
	"github.com/goliatone/go-formset/pkg/source"
	"github.com/goliatone/go-formset/pkg/validation"
)

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithLoader injects a custom document loader.
func WithLoader(loader source.Loader) Option {
	return func(o *Orchestrator) {
		o.loader = loader
	}
}

// WithParser registers an additional parser under name. Parsers registered
// with a detector take part in content detection.
func WithParser(name string, parser model.Parser, detect DetectFunc) Option {
	return func(o *Orchestrator) {
		o.extraParsers = append(o.extraParsers, namedParser{name: name, parser: parser, detect: detect})
	}
}

// WithDefaultFormat selects the parser used when a request omits Format and
// detection finds nothing.
func WithDefaultFormat(name string) Option {
	return func(o *Orchestrator) {
		o.defaultFormat = name
	}
}

// WithSchemaTransformer registers a Transformer that mutates parsed models
// before they are registered.
func WithSchemaTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		o.transformer = t
	}
}

// WithRelationCache shares cache across every validation run.
func WithRelationCache(cache *relations.Cache) Option {
	return func(o *Orchestrator) {
		o.cache = cache
	}
}

// WithKeySource builds the shared relation cache over source.
func WithKeySource(source relations.KeySource, options ...relations.Option) Option {
	return func(o *Orchestrator) {
		o.keySource = source
		o.cacheOptions = options
	}
}

// WithLogger attaches a logger that is also handed to forms and the cache.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithLocale selects the default language of error messages.
func WithLocale(lang string) Option {
	return func(o *Orchestrator) {
		o.locale = lang
	}
}

// WithFormOptions appends options applied to every model form.
func WithFormOptions(options ...form.Option) Option {
	return func(o *Orchestrator) {
		o.formOptions = append(o.formOptions, options...)
	}
}

// WithStrictRelations makes registry resolution fail on relationships that
// target unknown models.
func WithStrictRelations() Option {
	return func(o *Orchestrator) {
		o.strict = true
	}
}

type namedParser struct {
	name   string
	parser model.Parser
	detect DetectFunc
}

// Orchestrator coordinates the pipeline from a model document and a frame to
// a validation report. It applies sensible defaults (file/fs loader, YAML and
// OpenAPI parsers) while remaining open to dependency injection.
type Orchestrator struct {
	loader        source.Loader
	parsers       *ParserRegistry
	extraParsers  []namedParser
	defaultFormat string
	transformer   Transformer
	cache         *relations.Cache
	keySource     relations.KeySource
	cacheOptions  []relations.Option
	logger        zerolog.Logger
	locale        string
	formOptions   []form.Option
	strict        bool
	initialiseErr error
}

// New constructs an Orchestrator applying any provided options. Missing
// dependencies are initialised with the built-in implementations so callers
// can start with a single constructor call.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{logger: zerolog.Nop()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

func (o *Orchestrator) applyDefaults() {
	if o.loader == nil {
		o.loader = internalLoader.New(source.NewLoaderOptions())
	}
	o.parsers = NewParserRegistry()
	builtins := []namedParser{
		{name: FormatOpenAPI, parser: openapi.New(openapi.Options{}), detect: HasKey("openapi", "swagger")},
		{name: FormatModels, parser: modeldef.New(), detect: HasKey("models")},
		{name: FormatJSONSchema, parser: jsonschema.New(), detect: detectJSONSchema},
	}
	for _, entry := range append(o.extraParsers, builtins...) {
		if o.parsers.has(entry.name) {
			continue
		}
		if err := o.parsers.Register(entry.name, entry.parser, entry.detect); err != nil {
			o.initialiseErr = err
			return
		}
	}
	if o.cache == nil && o.keySource != nil {
		opts := append([]relations.Option{relations.WithLogger(o.logger)}, o.cacheOptions...)
		o.cache = relations.New(o.keySource, opts...)
	}
	if o.locale == "" {
		o.locale = i18n.DefaultLanguage
	}
}

// Request describes the inputs of a validation run.
type Request struct {
	// Source identifies where the model document lives. Optional when
	// Document or Registry is supplied.
	Source source.Source

	// Document allows callers to bypass the loader.
	Document *source.Document

	// Registry bypasses loading and parsing altogether.
	Registry *model.Registry

	// Format names the parser. Empty means content detection.
	Format string

	// Model selects the model to validate against, bare or "app.Model".
	Model string

	// Fields and Exclude mirror form.Meta.
	Fields  []string
	Exclude []string

	// Data holds the rows to validate.
	Data *frame.Frame

	// Locale overrides the orchestrator's language for this run.
	Locale string

	// FormOptions are appended after the orchestrator's form options.
	FormOptions []form.Option
}

// Parsers exposes the parser registry.
func (o *Orchestrator) Parsers() *ParserRegistry {
	return o.parsers
}

// Cache returns the shared relation cache, or nil when none is configured.
func (o *Orchestrator) Cache() *relations.Cache {
	return o.cache
}

// Registry loads and parses the request's document into a resolved registry.
func (o *Orchestrator) Registry(ctx context.Context, req Request) (*model.Registry, error) {
	if o.initialiseErr != nil {
		return nil, o.initialiseErr
	}
	if req.Registry != nil {
		return req.Registry, nil
	}

	doc, err := o.resolveDocument(ctx, req)
	if err != nil {
		return nil, err
	}
	parser, err := o.resolveParser(doc, req.Format)
	if err != nil {
		return nil, err
	}
	models, err := parser.Models(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: parse %s: %w", doc.Location(), err)
	}
	if o.transformer != nil {
		for idx := range models {
			if err := o.transformer.Transform(ctx, &models[idx]); err != nil {
				return nil, fmt.Errorf("orchestrator: transform %s: %w", models[idx].Name, err)
			}
		}
	}

	registry, err := model.NewRegistry(models...)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	registry.Strict = o.strict
	if err := registry.Resolve(); err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	o.logger.Debug().
		Str("document", doc.Location()).
		Int("models", registry.Len()).
		Msg("model registry loaded")
	return registry, nil
}

// Form builds the model form described by req without validating it.
func (o *Orchestrator) Form(ctx context.Context, req Request) (*form.ModelForm, error) {
	registry, err := o.Registry(ctx, req)
	if err != nil {
		return nil, err
	}
	return o.buildForm(ctx, registry, req, o.cache)
}

// Validate runs the model form over req.Data and reports the outcome.
// Validation failures are reported, not returned; the error is reserved for
// loading, parsing and key lookup problems.
func (o *Orchestrator) Validate(ctx context.Context, req Request) (report.Report, error) {
	if req.Data == nil {
		return report.Report{}, errors.New("orchestrator: data frame is required")
	}
	mf, err := o.Form(ctx, req)
	if err != nil {
		return report.Report{}, err
	}
	valid, err := mf.IsValid(ctx)
	if err != nil {
		return report.Report{}, fmt.Errorf("orchestrator: validate: %w", err)
	}

	o.logger.Info().
		Str("model", mf.Model().Name).
		Int("rows", mf.Data().Len()).
		Bool("valid", valid).
		Int("errors", mf.Errors().Count()).
		Msg("frame validated")
	return report.FromForm(mf.Model().Name, mf.Form, valid), nil
}

// ColumnInfo describes the validation column derived from one model field.
type ColumnInfo struct {
	Name     string          `json:"name" yaml:"name"`
	Kind     model.FieldKind `json:"kind" yaml:"kind"`
	Label    string          `json:"label" yaml:"label"`
	Nullable bool            `json:"nullable" yaml:"nullable"`
	Coerce   bool            `json:"coerce" yaml:"coerce"`
	Default  any             `json:"default,omitempty" yaml:"default,omitempty"`
	Relation string          `json:"relation,omitempty" yaml:"relation,omitempty"`
	Checks   []string        `json:"checks" yaml:"checks"`
}

// Inspect lists the columns and checks a model form would apply. Without a
// relation cache, relation columns are described against an empty key set.
func (o *Orchestrator) Inspect(ctx context.Context, req Request) ([]ColumnInfo, error) {
	registry, err := o.Registry(ctx, req)
	if err != nil {
		return nil, err
	}
	cache := o.cache
	if cache == nil {
		cache = relations.New(relations.KeySourceFunc(func(context.Context, relations.Lookup) ([]any, error) {
			return nil, nil
		}))
	}
	mf, err := o.buildForm(ctx, registry, req, cache)
	if err != nil {
		return nil, err
	}

	fields := mf.ModelFields()
	columns := mf.Columns()
	out := make([]ColumnInfo, 0, len(columns))
	for idx, column := range columns {
		field := fields[idx]
		info := ColumnInfo{
			Name:     column.Name,
			Kind:     column.Kind,
			Label:    model.LabelFor(field),
			Nullable: column.Nullable,
			Coerce:   column.Coerce,
			Checks:   make([]string, 0, len(column.Checks)),
		}
		if value, ok := field.DefaultValue(); ok {
			info.Default = value
		}
		if field.Relationship != nil {
			info.Relation = field.Relationship.Table + "." + field.Relationship.TargetKey
		}
		for _, check := range column.Checks {
			info.Checks = append(info.Checks, validation.Describe(check))
		}
		out = append(out, info)
	}
	return out, nil
}

func (o *Orchestrator) buildForm(ctx context.Context, registry *model.Registry, req Request, cache *relations.Cache) (*form.ModelForm, error) {
	if strings.TrimSpace(req.Model) == "" {
		return nil, errors.New("orchestrator: model name is required")
	}
	m, err := registry.Lookup(req.Model)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}

	locale := o.locale
	if strings.TrimSpace(req.Locale) != "" {
		locale = req.Locale
	}
	opts := []form.Option{
		form.WithLogger(o.logger),
		form.WithLocalizer(i18n.New(locale)),
	}
	if cache != nil {
		opts = append(opts, form.WithRelationCache(cache))
	}
	opts = append(opts, o.formOptions...)
	opts = append(opts, req.FormOptions...)

	mf, err := form.NewModelForm(ctx, form.Meta{
		Model:   m,
		Fields:  req.Fields,
		Exclude: req.Exclude,
	}, req.Data, opts...)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	return mf, nil
}

func (o *Orchestrator) resolveDocument(ctx context.Context, req Request) (source.Document, error) {
	if req.Document != nil {
		return *req.Document, nil
	}
	if req.Source == nil {
		return source.Document{}, errors.New("orchestrator: source, document or registry is required")
	}
	if o.loader == nil {
		return source.Document{}, errors.New("orchestrator: loader is nil")
	}
	doc, err := o.loader.Load(ctx, req.Source)
	if err != nil {
		return source.Document{}, fmt.Errorf("orchestrator: load document: %w", err)
	}
	return doc, nil
}

func (o *Orchestrator) resolveParser(doc source.Document, format string) (model.Parser, error) {
	if strings.TrimSpace(format) != "" {
		return o.parsers.Get(format)
	}
	matches, err := o.parsers.Detect(doc)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		if o.defaultFormat == "" {
			return nil, fmt.Errorf("orchestrator: unable to detect format of %s", doc.Location())
		}
		return o.parsers.Get(o.defaultFormat)
	case 1:
		return o.parsers.Get(matches[0])
	default:
		return nil, fmt.Errorf("orchestrator: multiple parsers matched %s (%s), specify format", doc.Location(), strings.Join(matches, ", "))
	}
}
