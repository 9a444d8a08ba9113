package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"booking-engine/internal/handler/httperr"

	"github.com/gin-gonic/gin"
)

// ErrorHandler writes the envelope for handlers that recorded an error without
// responding, and logs the cause chain of every server-side failure.
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		for _, e := range c.Errors {
			resp, ok := e.Meta.(httperr.Response)
			if ok && resp.Status < http.StatusInternalServerError {
				continue
			}
			logger.ErrorContext(c.Request.Context(), "request failed",
				"request_id", GetRequestID(c),
				"route", c.FullPath(),
				"error", e.Err,
				"cause", fmtCause(e.Err),
			)
		}

		if c.Writer.Written() {
			return
		}
		if last := c.Errors.Last(); last != nil && last.IsType(gin.ErrorTypePublic) {
			if resp, ok := last.Meta.(httperr.Response); ok {
				c.JSON(resp.Status, resp)
				return
			}
		}
		if status := c.Writer.Status(); status != http.StatusOK {
			c.Status(status)
			c.Writer.WriteHeaderNow()
			return
		}
		if len(c.Errors) > 0 {
			c.JSON(http.StatusInternalServerError, internalError())
		}
	}
}

func CustomRecovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(c.Request.Context(), "recovered from panic",
					"panic", rec,
					"request_id", GetRequestID(c),
					"path", c.Request.URL.Path,
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, internalError())
			}
		}()
		c.Next()
	}
}

func internalError() httperr.Response {
	resp := httperr.Response{Status: http.StatusInternalServerError}
	resp.Error.Message = "Internal server error"
	return resp
}

// fmtCause renders the wrapped chain with stack frames for the log only.
func fmtCause(err error) string {
	return fmt.Sprintf("%+v", err)
}
