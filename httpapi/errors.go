package httpapi

import (
	"chat-presence/errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// abortWithError answers with the status mapped from the error taxonomy.
// Server-side failures are logged and their cause is not exposed.
func (h *Handler) abortWithError(c *gin.Context, err error) {
	status := errors.MapToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("Request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.AbortWithStatusJSON(status, errorResponse{Error: http.StatusText(status)})
		return
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: err.Error()})
}

func bindJSON(c *gin.Context, target any) error {
	if err := c.ShouldBindJSON(target); err != nil {
		return fmt.Errorf("%w: malformed body: %v", errors.ErrValidation, err)
	}
	return nil
}

// parseLimit turns the limit query parameter into a count; anything but a positive integer means no limit.
func parseLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}
