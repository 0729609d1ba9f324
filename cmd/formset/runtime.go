package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/goliatone/go-formset/internal/config"
	internalLoader "github.com/goliatone/go-formset/internal/loader"
	"github.com/goliatone/go-formset/internal/logger"
	"github.com/goliatone/go-formset/internal/storage/gormstore"
	"github.com/goliatone/go-formset/internal/storage/sqlstore"
	"github.com/goliatone/go-formset/pkg/frame"
	"github.com/goliatone/go-formset/pkg/orchestrator"
	"github.com/goliatone/go-formset/pkg/relations"
	"github.com/goliatone/go-formset/pkg/source"
)

const remoteTimeout = 30 * time.Second

type runtime struct {
	settings *config.Settings
	logger   zerolog.Logger
	orch     *orchestrator.Orchestrator
	closers  []func() error
}

func (rt *runtime) Close() error {
	var errs []error
	for _, closer := range rt.closers {
		errs = append(errs, closer())
	}
	return errors.Join(errs...)
}

func (rt *runtime) request() (orchestrator.Request, error) {
	raw := strings.TrimSpace(rt.settings.Models.Source)
	if raw == "" {
		return orchestrator.Request{}, errors.New("a model document is required (--models or models.source)")
	}
	src, err := source.Parse(raw)
	if err != nil {
		return orchestrator.Request{}, err
	}
	return orchestrator.Request{Source: src, Format: rt.settings.Models.Format}, nil
}

func (a *App) bind(flag *pflag.Flag, key string) {
	if err := a.v.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}

// setup loads settings and builds the logger, key source and orchestrator.
// keysPath optionally names a JSON file of table keys used when no database
// is configured.
func (a *App) setup(ctx context.Context, keysPath string) (*runtime, error) {
	settings, err := config.LoadWith(a.v, a.configPath)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(settings.Logger)
	if err != nil {
		return nil, err
	}
	rt := &runtime{settings: settings, logger: log}

	opts := []orchestrator.Option{
		orchestrator.WithLogger(log),
		orchestrator.WithLocale(settings.Locale),
		orchestrator.WithLoader(internalLoader.New(source.NewLoaderOptions(source.WithHTTPFallback(remoteTimeout)))),
	}

	keySource, err := rt.keySource(ctx, keysPath)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	if keySource != nil {
		opts = append(opts, orchestrator.WithKeySource(keySource, relations.WithTTL(settings.Relations.TTL)))
	}

	if preset := strings.TrimSpace(settings.Models.Preset); preset != "" {
		transformer, err := orchestrator.NewJSONPresetTransformerFromFS(os.DirFS(filepath.Dir(preset)), filepath.Base(preset))
		if err != nil {
			_ = rt.Close()
			return nil, err
		}
		opts = append(opts, orchestrator.WithSchemaTransformer(transformer))
	}

	rt.orch = orchestrator.New(opts...)
	return rt, nil
}

func (rt *runtime) keySource(ctx context.Context, keysPath string) (relations.KeySource, error) {
	db := rt.settings.Database
	if keysPath != "" {
		return readStaticKeys(keysPath)
	}
	if !db.Enabled() {
		return nil, nil
	}

	rt.logger.Debug().Str("type", db.Type).Str("driver", db.Driver).Msg("opening relation database")
	switch db.Driver {
	case config.DriverSQL:
		conn, err := sqlstore.Open(ctx, db)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, conn.Close)
		return sqlstore.NewSource(conn), nil
	default:
		conn, err := gormstore.Open(db)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func() error { return gormstore.Close(conn) })
		return gormstore.NewSource(conn), nil
	}
}

// readStaticKeys reads {"table": [key, ...]} into a static key source.
func readStaticKeys(path string) (*relations.StaticSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keys: %w", err)
	}
	var tables map[string][]any
	if err := json.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("decode keys %s: %w", path, err)
	}
	return relations.NewStaticSource(tables), nil
}

// readFrame reads CSV, or JSON when the file ends in .json. "-" reads CSV
// from stdin.
func readFrame(path string) (*frame.Frame, error) {
	if path == "-" {
		return frame.ReadCSV(os.Stdin)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open data: %w", err)
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return frame.ReadJSON(file)
	}
	return frame.ReadCSV(file)
}
