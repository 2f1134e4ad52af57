package pubsub

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/Alwanly/service-refresh-watcher/pkg/logger"
)

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type redisPubSub struct {
	client    *redis.Client
	logger    *logger.CanonicalLogger
	messageCh chan Message

	mu     sync.Mutex
	pubsub *redis.PubSub
	cancel context.CancelFunc
	done   chan struct{}
	closed bool
}

func NewRedisPubSub(ctx context.Context, cfg RedisConfig, log *logger.CanonicalLogger) (PubSub, error) {
	addr := cfg.Addr()
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Try a ping to validate connection
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	r := &redisPubSub{
		client:    client,
		logger:    log,
		messageCh: make(chan Message, 16),
	}

	log.Info("redis client initialized", logger.String("addr", addr))

	return r, nil
}

// Publish publishes a message to a Redis channel
func (r *redisPubSub) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := r.client.Publish(ctx, channel, payload).Err(); err != nil {
		r.logger.WithError(err).Error("failed to publish message to redis", logger.String("channel", channel))
		return err
	}
	return nil
}

// Ping checks if Redis connection is healthy
func (r *redisPubSub) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Subscribe subscribes to Redis channels
func (r *redisPubSub) Subscribe(ctx context.Context, channels ...string) (<-chan Message, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("no channels to subscribe")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, fmt.Errorf("redis pubsub closed")
	}
	if r.pubsub != nil {
		return r.messageCh, r.pubsub.Subscribe(ctx, channels...)
	}

	r.pubsub = r.client.Subscribe(ctx, channels...)
	if _, err := r.pubsub.Receive(ctx); err != nil {
		_ = r.pubsub.Close()
		r.pubsub = nil
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	// Start listening
	listenCtx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.listen(listenCtx, r.pubsub.Channel())

	r.logger.Info("subscribed to redis channels", logger.Strings("channels", channels))
	return r.messageCh, nil
}

// Unsubscribe unsubscribes from Redis channels
func (r *redisPubSub) Unsubscribe(ctx context.Context, channels ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pubsub == nil {
		return nil
	}
	return r.pubsub.Unsubscribe(ctx, channels...)
}

// Close closes the Redis connection
func (r *redisPubSub) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
	if r.pubsub != nil {
		_ = r.pubsub.Close()
	}
	close(r.messageCh)
	if err := r.client.Close(); err != nil {
		r.logger.WithError(err).Error("failed to close redis client")
		return err
	}
	return nil
}

// listen forwards messages from subscribed channels until ctx is cancelled
func (r *redisPubSub) listen(ctx context.Context, ch <-chan *redis.Message) {
	defer close(r.done)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("stopping redis listener")
			return
		case m, ok := <-ch:
			if !ok {
				r.logger.Info("redis pubsub channel closed")
				return
			}
			select {
			case r.messageCh <- Message{Channel: m.Channel, Payload: []byte(m.Payload)}:
			case <-ctx.Done():
				return
			}
		}
	}
}
