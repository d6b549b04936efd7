package store

import "errors"

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateKey   = errors.New("already exists")

	// ErrStoreUnavailable wraps transport-level failures of the underlying
	// database. Callers treat a claim cycle that fails this way as "nothing
	// claimed" and rely on the next trigger.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrInvalidTransition rejects a status update the job lifecycle does
	// not allow, e.g. moving a terminal job back into the pipeline.
	ErrInvalidTransition = errors.New("invalid status transition")
)
