package domain

import "errors"

var (
	// Lookup / input
	ErrNotFound     = errors.New("entity not found")
	ErrInvalidInput = errors.New("invalid input")

	// Session lifecycle
	ErrInvalidState    = errors.New("operation not permitted in current session state")
	ErrConflict        = errors.New("submission already in progress")
	ErrVersionConflict = errors.New("session was modified concurrently")

	// Text generator
	ErrUpstream            = errors.New("upstream generator failed")
	ErrUpstreamRateLimited = errors.New("upstream generator rate limited")
	ErrUpstreamTimeout     = errors.New("upstream generator timed out")

	// Persistence
	ErrStoreFailure           = errors.New("session store failure")
	ErrAssessmentNotPersisted = errors.New("assessment computed but not persisted")
	ErrInvalidExecContext     = errors.New("invalid database execution context")
)
