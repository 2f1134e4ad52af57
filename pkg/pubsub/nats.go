package pubsub

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Alwanly/service-refresh-watcher/pkg/logger"
)

type NATSConfig struct {
	URL     string
	Name    string
	Timeout time.Duration
}

type natsPubSub struct {
	conn      *nats.Conn
	logger    *logger.CanonicalLogger
	messageCh chan Message

	mu     sync.Mutex
	subs   map[string]*nats.Subscription
	closed bool
}

func NewNATSPubSub(cfg NATSConfig, log *logger.CanonicalLogger) (PubSub, error) {
	opts := []nats.Option{}
	if cfg.Name != "" {
		opts = append(opts, nats.Name(cfg.Name))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, nats.Timeout(cfg.Timeout))
	}
	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	log.Info("nats client initialized", logger.String("url", nc.ConnectedUrlRedacted()))
	return &natsPubSub{
		conn:      nc,
		logger:    log,
		messageCh: make(chan Message, 16),
		subs:      make(map[string]*nats.Subscription),
	}, nil
}

// Publish publishes payload on a subject and flushes it to the server
func (n *natsPubSub) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := n.conn.Publish(channel, payload); err != nil {
		n.logger.WithError(err).Error("failed to publish message to nats", logger.String("channel", channel))
		return err
	}
	return n.conn.FlushWithContext(ctx)
}

func (n *natsPubSub) Ping(ctx context.Context) error {
	if !n.conn.IsConnected() {
		return nats.ErrConnectionClosed
	}
	return n.conn.FlushWithContext(ctx)
}

// Subscribe subscribes to NATS subjects
func (n *natsPubSub) Subscribe(_ context.Context, channels ...string) (<-chan Message, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("no channels to subscribe")
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return nil, fmt.Errorf("nats pubsub closed")
	}

	for _, channel := range channels {
		if _, ok := n.subs[channel]; ok {
			continue
		}
		sub, err := n.conn.Subscribe(channel, n.deliver)
		if err != nil {
			return nil, fmt.Errorf("subscribe %s: %w", channel, err)
		}
		n.subs[channel] = sub
	}

	n.logger.Info("subscribed to nats subjects", logger.Strings("channels", channels))
	return n.messageCh, nil
}

func (n *natsPubSub) deliver(m *nats.Msg) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	select {
	case n.messageCh <- Message{Channel: m.Subject, Payload: m.Data}:
	default:
		n.logger.Warn("nats subscriber buffer full, dropping message", logger.String("channel", m.Subject))
	}
}

func (n *natsPubSub) Unsubscribe(_ context.Context, channels ...string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, channel := range channels {
		if sub, ok := n.subs[channel]; ok {
			if err := sub.Unsubscribe(); err != nil {
				return err
			}
			delete(n.subs, channel)
		}
	}
	return nil
}

func (n *natsPubSub) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	close(n.messageCh)
	n.mu.Unlock()

	if err := n.conn.Drain(); err != nil {
		n.logger.WithError(err).Error("failed to drain nats connection")
		n.conn.Close()
		return err
	}
	return nil
}
