package notify

import (
	"context"
	"time"

	"github.com/Alwanly/service-refresh-watcher/internal/models"
)

// EventSource is stamped on every refresh event emitted by the watcher.
const EventSource = "refresh-watcher"

// Change describes one (store, category) pair whose revisions moved during a cycle.
type Change struct {
	Store    string          `json:"store"`
	Category models.Category `json:"category"`
	Keys     []string        `json:"keys,omitempty"`
}

// Event is the refresh marker published once per cycle that detected change.
type Event struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	Changes    []Change  `json:"changes"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Sink publishes refresh events. Delivery is fire-and-forget: a nil error only means
// the event left this process.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, event Event) error

func (f SinkFunc) Publish(ctx context.Context, event Event) error {
	return f(ctx, event)
}
