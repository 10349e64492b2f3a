package errors

import "errors"

// Sentinel errors for common error conditions
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that input validation failed
	ErrInvalidInput = errors.New("invalid input")

	// ErrReplyInProgress indicates that a reply is already being streamed
	// for this conversation
	ErrReplyInProgress = errors.New("reply already in progress")

	// ErrRateLimited indicates that the upstream service rejected the
	// request because too many were sent in a short window
	ErrRateLimited = errors.New("rate limited")

	// ErrQuotaExhausted indicates that the account has no remaining quota
	ErrQuotaExhausted = errors.New("quota exhausted")

	// ErrUpstream indicates a generic upstream service failure
	ErrUpstream = errors.New("upstream error")

	// ErrStreamClosed indicates that the response stream ended or was
	// cancelled before the reply finished
	ErrStreamClosed = errors.New("stream closed")
)
