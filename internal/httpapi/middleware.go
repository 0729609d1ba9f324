package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// LogMiddleware logs every request and turns errors attached with c.Error into
// a JSON error response when the handler wrote nothing.
func LogMiddleware(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()
		latency := time.Since(startTime)

		if len(c.Errors) != 0 {
			err := c.Errors.Last().Err
			logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")

			if !c.Writer.Written() {
				c.AbortWithStatusJSON(statusFor(err), Response{
					Status:  "error",
					Message: err.Error(),
				})
			}
		}
		logger.Debug().
			Int("status", c.Writer.Status()).
			Dur("latency", latency).
			Str("ip", c.ClientIP()).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("")
	}
}
