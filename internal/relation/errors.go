package relation

import "errors"

var (
	// ErrNotFound is returned when the follow target or favorite tab does not exist
	ErrNotFound = errors.New("relation: referenced entity not found")
	// ErrSelfFollow is returned when a user tries to follow themselves
	ErrSelfFollow = errors.New("relation: cannot follow yourself")
	// ErrConflict is returned when a toggle raced a concurrent toggle on the
	// same pair and could not apply. The caller's view of the edge state was
	// stale; it should re-read and retry rather than assume either outcome.
	ErrConflict = errors.New("relation: concurrent toggle conflict")
)
