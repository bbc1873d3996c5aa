package apperr

import "errors"

// Sentinel errors for the messaging core. Repos and services wrap these with
// fmt.Errorf("...: %w", ...) so handlers can map them to HTTP statuses with
// errors.Is while keeping the underlying cause in the logs.
var (
	// ErrValidation - malformed payload: missing text/media, poll with <2 options,
	// bad option index, empty question.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound - conversation, message or poll does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotAuthorized - caller is not permitted to perform the mutation
	// (editing another user's message, closing another user's poll).
	ErrNotAuthorized = errors.New("not authorized")

	// ErrPollClosed - vote arrived after the poll was closed.
	ErrPollClosed = errors.New("poll is closed")

	// ErrPollExpired - vote arrived after the poll's expiry time.
	ErrPollExpired = errors.New("poll has expired")

	// ErrTransient - persistence layer unreachable; surfaced to callers as a
	// generic failure, never with storage internals.
	ErrTransient = errors.New("transient storage error")
)
