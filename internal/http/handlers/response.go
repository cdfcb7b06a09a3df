// Package handlers provides the HTTP handlers of the broker API.
//
// This file holds the response helpers shared by every endpoint. All errors
// leave through fail (or writeError, which maps service sentinels onto it) so
// clients always receive the same envelope:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "introduction not found"
//	}
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-intro-broker/internal/http/middleware"
	"github.com/tbourn/go-intro-broker/internal/services"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"resource not found"`
}

// fail aborts the request with the error envelope. 5xx responses are logged
// with the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	}
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail for router-level fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// writeError maps a service error onto status and code. Unknown errors are
// logged in full and reported as a generic 500 so storage details never reach
// the client.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrAlreadyResolved):
		fail(c, http.StatusConflict, ErrCodeAlreadyResolved, err.Error())
	case errors.Is(err, services.ErrInvalidIntroduction):
		fail(c, http.StatusBadRequest, ErrCodeInvalidIntroduction, err.Error())
	case errors.Is(err, services.ErrForbidden):
		fail(c, http.StatusForbidden, ErrCodeForbidden, err.Error())
	case errors.Is(err, services.ErrInvalidRequest):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrDuplicateRequest):
		fail(c, http.StatusConflict, ErrCodeDuplicateRequest, err.Error())
	case errors.Is(err, services.ErrAlreadyConnected):
		fail(c, http.StatusConflict, ErrCodeAlreadyConnected, err.Error())
	case errors.Is(err, services.ErrUnknownTemplate):
		fail(c, http.StatusNotFound, ErrCodeUnknownTemplate, err.Error())
	case errors.Is(err, services.ErrDispatchInProgress):
		fail(c, http.StatusConflict, ErrCodeDispatchInProgress, err.Error())
	case errors.Is(err, services.ErrConcurrentUpdate):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		fail(c, http.StatusServiceUnavailable, ErrCodeTimeout, "request cancelled or timed out")
	default:
		middleware.LoggerFrom(c).Error().Err(err).Msg("unhandled service error")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal error")
	}
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// notModified sets a weak ETag built from (kind, scope, count, last change)
// and reports whether the request's If-None-Match already matches it, in
// which case a 304 has been written.
func notModified(c *gin.Context, kind, scope string, count int64, last *time.Time) bool {
	var ts int64
	if last != nil {
		ts = last.UnixNano()
	}
	etag := fmt.Sprintf(`W/"%s:%s:%d:%d"`, kind, scope, count, ts)
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}
