package tripvote_errors

import "errors"

// Common errors
var (
	ErrSessionNotFound     = errors.New("voting session not found")
	ErrSessionClosed       = errors.New("voting session is closed")
	ErrSessionActive       = errors.New("voting session is still active")
	ErrDuplicateVote       = errors.New("vote already recorded for this voter")
	ErrAnonymousNotAllowed = errors.New("anonymous voting not allowed")
	ErrAlreadyClosed       = errors.New("session already closed")
	ErrResultsAlreadySent  = errors.New("results already sent")
	ErrTripNotFound        = errors.New("trip not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrRateLimited         = errors.New("rate limited")
	ErrServiceUnavailable  = errors.New("service unavailable")
)
