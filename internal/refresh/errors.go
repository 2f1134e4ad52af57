package refresh

import "errors"

var (
	// ErrInvalidConfig is returned by New when the store definitions cannot be polled.
	ErrInvalidConfig = errors.New("invalid refresh configuration")
	// ErrAllStoresFailed is returned when no store could be queried during a cycle.
	ErrAllStoresFailed = errors.New("all configuration stores failed")
	// ErrPublish is returned when a detected change could not be published.
	// The new state stays recorded, so the change will not be reported again.
	ErrPublish = errors.New("publish refresh event")
)
