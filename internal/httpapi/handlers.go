package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formset/pkg/frame"
	"github.com/goliatone/go-formset/pkg/model"
	"github.com/goliatone/go-formset/pkg/orchestrator"
	"github.com/goliatone/go-formset/pkg/report"
)

// ValidateRequest is the body of POST /models/:name/validate.
type ValidateRequest struct {
	Rows    []map[string]any `json:"rows" binding:"required"`
	Fields  []string         `json:"fields"`
	Exclude []string         `json:"exclude"`
	Locale  string           `json:"locale"`
}

// InvalidateRequest is the optional body of POST /cache/invalidate. An empty
// lookup clears the whole cache.
type InvalidateRequest struct {
	Lookup string `json:"lookup"`
}

type handler struct {
	orch     *orchestrator.Orchestrator
	registry *model.Registry
	logger   zerolog.Logger
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Status: "success", Message: "ok"})
}

func (h *handler) listModels(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Status: "success", Data: h.registry.Names()})
}

func (h *handler) inspectModel(c *gin.Context) {
	columns, err := h.orch.Inspect(c.Request.Context(), orchestrator.Request{
		Registry: h.registry,
		Model:    c.Param("name"),
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, Response{Status: "success", Data: columns})
}

func (h *handler) validateModel(c *gin.Context) {
	var body ValidateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		_ = c.Error(fmt.Errorf("%w: %v", ErrInvalidPayload, err))
		return
	}
	format := strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", report.FormatJSON)))
	contentType, ok := contentTypes[format]
	if !ok {
		_ = c.Error(fmt.Errorf("%w: %q", ErrUnknownFormat, format))
		return
	}

	locale := body.Locale
	if locale == "" {
		locale = c.GetHeader("Accept-Language")
	}
	out, err := h.orch.Validate(c.Request.Context(), orchestrator.Request{
		Registry: h.registry,
		Model:    c.Param("name"),
		Fields:   body.Fields,
		Exclude:  body.Exclude,
		Data:     frame.FromRecords(body.Rows),
		Locale:   locale,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	status := http.StatusOK
	if !out.Valid {
		status = http.StatusUnprocessableEntity
	}
	c.Header("Content-Type", contentType)
	c.Status(status)
	if err := report.Write(c.Writer, format, out); err != nil {
		h.logger.Error().Err(err).Str("format", format).Msg("failed to write report")
	}
}

func (h *handler) invalidateCache(c *gin.Context) {
	cache := h.orch.Cache()
	if cache == nil {
		c.JSON(http.StatusOK, Response{Status: "success", Message: "no cache configured"})
		return
	}
	var body InvalidateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			_ = c.Error(fmt.Errorf("%w: %v", ErrInvalidPayload, err))
			return
		}
	}
	if body.Lookup == "" {
		cache.Reset()
	} else {
		cache.Invalidate(body.Lookup)
	}
	c.JSON(http.StatusOK, Response{Status: "success", Data: cache.Stats()})
}

func (h *handler) cacheStats(c *gin.Context) {
	cache := h.orch.Cache()
	if cache == nil {
		c.JSON(http.StatusOK, Response{Status: "success", Message: "no cache configured"})
		return
	}
	c.JSON(http.StatusOK, Response{Status: "success", Data: cache.Stats()})
}

var contentTypes = map[string]string{
	report.FormatJSON:  "application/json; charset=utf-8",
	report.FormatYAML:  "application/yaml; charset=utf-8",
	report.FormatTable: "text/plain; charset=utf-8",
	report.FormatHTML:  "text/html; charset=utf-8",
}
