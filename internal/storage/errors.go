package storage

import "errors"

// Storage errors for the append-only observation store.
var (
	// ErrNotFound is returned when a requested record does not exist,
	// including LatestObservedAt on an empty store.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when attempting to insert an observation
	// whose (entity_id, observed_at, granularity) already exists.
	// Observations are append-only; updates are not allowed.
	ErrDuplicateKey = errors.New("duplicate key: append-only store does not allow updates")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
