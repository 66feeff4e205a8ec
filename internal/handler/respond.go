package handler

import (
	"errors"
	"net/http"

	"openbook-server/internal/transport/httpdto"
	ob_errors "openbook-server/pkg/errors"

	"github.com/gin-gonic/gin"
)

// respondError maps a service error onto the HTTP status and stable code
// the clients key off. Unknown errors become an opaque 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ob_errors.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
	case errors.Is(err, ob_errors.ErrSelfAction):
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("action cannot target yourself", "SELF_ACTION"))
	case errors.Is(err, ob_errors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
	case errors.Is(err, ob_errors.ErrForbidden):
		c.JSON(http.StatusForbidden, httpdto.NewErrorResponse("forbidden", "FORBIDDEN"))
	case errors.Is(err, ob_errors.ErrNotFound):
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("not found", "NOT_FOUND"))
	case errors.Is(err, ob_errors.ErrAlreadyExists):
		c.JSON(http.StatusConflict, httpdto.NewErrorResponse("already exists", "ALREADY_EXISTS"))
	case errors.Is(err, ob_errors.ErrInvalidTransition):
		c.JSON(http.StatusConflict, httpdto.NewErrorResponse("invalid state", "INVALID_STATE"))
	case errors.Is(err, ob_errors.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, httpdto.NewErrorResponse("rate limit exceeded", "RATE_LIMITED"))
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("internal error", "INTERNAL_ERROR"))
	}
}
