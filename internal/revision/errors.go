package revision

import "errors"

var (
	// ErrNotFound is returned when the store or its bucket does not exist.
	ErrNotFound = errors.New("revision: store not found")
	// ErrUnauthorized is returned when the store rejects the credentials.
	ErrUnauthorized = errors.New("revision: unauthorized")
	// ErrUnsupportedKind is returned by the Router for a store kind with no client.
	ErrUnsupportedKind = errors.New("revision: unsupported store kind")
)
