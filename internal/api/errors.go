package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"buyerradar/server/internal/search"
)

var errGeocoding = errors.New("geocoding failed")

// respondError maps the error taxonomy onto HTTP status codes.
func (h *Handler) respondError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, search.ErrInvalidArgument):
		status, code = http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, search.ErrUnknownBuyer):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, search.ErrNoSnapshot):
		status, code = http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, search.ErrDataIntegrity):
		status, code = http.StatusInternalServerError, "data_integrity"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		status, code = http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, errGeocoding):
		status, code = http.StatusBadGateway, "geocoding_failed"
	}

	entry := h.logger.WithError(err).WithFields(map[string]interface{}{
		"path":       c.FullPath(),
		"code":       code,
		"request_id": c.GetString(requestIDKey),
	})
	if status >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}

	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "code": code})
}
