package notify

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/pool"
)

// Target names a sink inside a Multi.
type Target struct {
	Name string
	Sink Sink
}

// Multi publishes each event to every target concurrently. It fails if any target fails;
// the other targets still receive the event.
type Multi struct {
	targets []Target
}

func NewMulti(targets ...Target) *Multi {
	return &Multi{targets: targets}
}

func (m *Multi) Publish(ctx context.Context, event Event) error {
	switch len(m.targets) {
	case 0:
		return nil
	case 1:
		return m.publish(ctx, m.targets[0], event)
	}

	p := pool.New().WithErrors().WithMaxGoroutines(len(m.targets))
	for _, target := range m.targets {
		p.Go(func() error {
			return m.publish(ctx, target, event)
		})
	}
	return p.Wait()
}

func (m *Multi) publish(ctx context.Context, target Target, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink %s panic: %v", target.Name, r)
		}
	}()
	if err := target.Sink.Publish(ctx, event); err != nil {
		return fmt.Errorf("sink %s: %w", target.Name, err)
	}
	return nil
}
