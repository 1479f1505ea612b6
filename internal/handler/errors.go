// Package handler provides HTTP handlers for the voting API endpoints.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tripvote/internal/transport/httpdto"
	tripvote_errors "tripvote/pkg/errors"
)

// writeError maps domain sentinel errors to HTTP status plus a stable error
// code. Conflict errors are expected outcomes of races, not failures.
func writeError(c *gin.Context, err error) {
	status, code := statusFor(err)
	c.JSON(status, httpdto.NewErrorResponse(err.Error(), code))
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, tripvote_errors.ErrSessionNotFound),
		errors.Is(err, tripvote_errors.ErrTripNotFound),
		errors.Is(err, tripvote_errors.ErrUserNotFound),
		errors.Is(err, tripvote_errors.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, tripvote_errors.ErrDuplicateVote):
		return http.StatusConflict, "DUPLICATE_VOTE"
	case errors.Is(err, tripvote_errors.ErrSessionClosed):
		return http.StatusConflict, "SESSION_CLOSED"
	case errors.Is(err, tripvote_errors.ErrAlreadyClosed):
		return http.StatusConflict, "ALREADY_CLOSED"
	case errors.Is(err, tripvote_errors.ErrSessionActive):
		return http.StatusConflict, "SESSION_ACTIVE"
	case errors.Is(err, tripvote_errors.ErrResultsAlreadySent):
		return http.StatusConflict, "ALREADY_SENT"
	case errors.Is(err, tripvote_errors.ErrAnonymousNotAllowed):
		return http.StatusForbidden, "ANONYMOUS_NOT_ALLOWED"
	case errors.Is(err, tripvote_errors.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, tripvote_errors.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, tripvote_errors.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_REQUEST"
	case errors.Is(err, tripvote_errors.ErrRateLimited):
		return http.StatusTooManyRequests, "RATE_LIMITED"
	case errors.Is(err, tripvote_errors.ErrServiceUnavailable):
		return http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
