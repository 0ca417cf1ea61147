// Package response renders the JSON envelopes shared by handlers and middleware.
package response

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/you/accountsvc/domain"
)

// StatusFor maps a failure kind onto an HTTP status.
func StatusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInvalid:
		return http.StatusBadRequest
	case domain.KindExpired:
		return http.StatusGone
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Data writes {"data": data}.
func Data(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"data": data})
}

// DataWithWarning writes {"data": data, "warning": warning} when warning is set.
func DataWithWarning(c *gin.Context, status int, data interface{}, warning string) {
	if warning == "" {
		Data(c, status, data)
		return
	}
	c.JSON(status, gin.H{"data": data, "warning": warning})
}

// Error writes {"error": {"code", "message"}} and aborts the chain.
// Anything that is not a domain error is logged and hidden behind a generic message.
func Error(c *gin.Context, err error) {
	de, ok := domain.AsError(err)
	if !ok || de.Kind == domain.KindInternal {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
		abort(c, http.StatusInternalServerError, "INTERNAL", "Something went wrong. Please try again later.")
		return
	}

	var rl *domain.RateLimitError
	if errors.As(err, &rl) {
		c.Header("Retry-After", strconv.FormatInt(int64(rl.RetryAfter.Seconds()), 10))
		abort(c, StatusFor(de.Kind), de.Code, rl.Error())
		return
	}

	abort(c, StatusFor(de.Kind), de.Code, de.Message)
}

// BadRequest reports a request that failed binding or validation.
func BadRequest(c *gin.Context, err error) {
	abort(c, http.StatusBadRequest, domain.ErrInvalidInput.Code, err.Error())
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}
