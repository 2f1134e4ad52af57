package notify

import (
	"context"
	"sync"

	"github.com/Alwanly/service-refresh-watcher/pkg/logger"
)

// Broadcaster delivers refresh events to in-process subscribers. A subscriber whose
// buffer is full misses the event; Publish never blocks.
type Broadcaster struct {
	logger *logger.CanonicalLogger

	mu     sync.RWMutex
	nextID int
	subs   map[int]chan Event
}

func NewBroadcaster(log *logger.CanonicalLogger) *Broadcaster {
	if log == nil {
		log = logger.NewNop()
	}
	return &Broadcaster{logger: log.Component("broadcaster"), subs: make(map[int]chan Event)}
}

// Subscribe registers a listener with the given buffer size. The returned function
// removes the listener and closes its channel.
func (b *Broadcaster) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *Broadcaster) Publish(_ context.Context, event Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.logger.Warn("subscriber buffer full, event dropped",
				logger.Int("subscriber", id),
				logger.String(logger.FieldEventID, event.ID),
			)
		}
	}
	return nil
}

// Subscribers returns the number of registered listeners.
func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
