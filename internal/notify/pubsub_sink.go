package notify

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/Alwanly/service-refresh-watcher/pkg/logger"
	"github.com/Alwanly/service-refresh-watcher/pkg/pubsub"
)

// DefaultChannel is the channel refresh events are published on.
const DefaultChannel = "config.refresh"

// PubSubSink publishes refresh events as JSON on a pub/sub channel.
type PubSubSink struct {
	publisher pubsub.Publisher
	channel   string
	logger    *logger.CanonicalLogger
}

func NewPubSubSink(publisher pubsub.Publisher, channel string, log *logger.CanonicalLogger) *PubSubSink {
	if channel == "" {
		channel = DefaultChannel
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &PubSubSink{publisher: publisher, channel: channel, logger: log.Component("pubsub_sink")}
}

func (s *PubSubSink) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode refresh event: %w", err)
	}
	if err := s.publisher.Publish(ctx, s.channel, payload); err != nil {
		return fmt.Errorf("publish to %s: %w", s.channel, err)
	}
	s.logger.Debug("refresh event published",
		logger.String(logger.FieldEventID, event.ID),
		logger.String("channel", s.channel),
	)
	return nil
}

// Decode parses a payload written by PubSubSink.
func Decode(payload []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return Event{}, fmt.Errorf("decode refresh event: %w", err)
	}
	return event, nil
}
