package repos

import "errors"

var (
	// ErrNotFound is returned when the requested row does not exist.
	// Handlers map it to 404; the orchestrator never starts a run on it.
	ErrNotFound = errors.New("record not found")
)
