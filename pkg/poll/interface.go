package poll

import (
	"context"
)

type MetaFunc struct {
	FetchFunc
	PollerConfig
}

// Poller runs registered functions on their own interval
type Poller interface {
	// Start launches one loop per registered function
	Start(ctx context.Context) error
	// Stop gracefully stops the poller and waits for running functions
	Stop() error
	// RegisterFetchFunc registers a function under a unique name
	RegisterFetchFunc(name string, fetchFunc FetchFunc, config PollerConfig) error
}

// FetchFunc is called on every tick
type FetchFunc func(ctx context.Context) error
