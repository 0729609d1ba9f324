// Package httpapi exposes model validation over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formset/internal/config"
	"github.com/goliatone/go-formset/pkg/model"
	"github.com/goliatone/go-formset/pkg/orchestrator"
)

const shutdownTimeout = 10 * time.Second

// NewRouter registers the API routes over a fixed model registry.
func NewRouter(orch *orchestrator.Orchestrator, registry *model.Registry, logger zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(LogMiddleware(logger), gin.Recovery())

	h := &handler{orch: orch, registry: registry, logger: logger}
	router.GET("/healthz", h.health)
	router.GET("/models", h.listModels)
	router.GET("/models/:name", h.inspectModel)
	router.POST("/models/:name/validate", h.validateModel)
	router.GET("/cache", h.cacheStats)
	router.POST("/cache/invalidate", h.invalidateCache)
	return router
}

// Serve runs handler on settings.Addr until ctx is cancelled, then shuts the
// server down gracefully.
func Serve(ctx context.Context, settings config.HTTPSettings, handler http.Handler, logger zerolog.Logger) error {
	srv := &http.Server{
		Addr:              settings.Addr,
		Handler:           handler,
		ReadTimeout:       settings.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      settings.WriteTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", settings.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- fmt.Errorf("httpapi: server failed: %w", err)
		}
		close(serverErrors)
	}()

	select {
	case err, ok := <-serverErrors:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("httpapi: shutdown: %w", err)
	}
	return nil
}
