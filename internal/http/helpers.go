package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"finanzas/internal/core"
)

// writeError maps a domain error onto its HTTP status and a stable error
// code. Anything else is a 500 with the detail kept out of the response.
func writeError(c *gin.Context, err error) {
	if e, ok := core.AsError(err); ok {
		c.JSON(e.Status, gin.H{"error": e.Code, "message": e.Message})
		return
	}
	slog.ErrorContext(c.Request.Context(), "Request failed",
		"error", err,
		"method", c.Request.Method,
		"url", c.Request.URL.Path)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "internal_error",
		"message": "internal server error",
	})
}

func abortError(c *gin.Context, err error) {
	writeError(c, err)
	c.Abort()
}
