package revision

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Alwanly/service-refresh-watcher/internal/models"
	"github.com/Alwanly/service-refresh-watcher/pkg/logger"
)

// DefaultBucket is the JetStream KV bucket read when the connection string names none.
const DefaultBucket = "config"

// NATSConfig configures a NATSClient.
type NATSConfig struct {
	Timeout time.Duration
}

type natsBucket struct {
	nc *nats.Conn
	kv nats.KeyValue
}

// NATSClient lists revisions from JetStream KV buckets. The KV revision of an entry
// is its ETag. KV entries carry no label.
type NATSClient struct {
	cfg    NATSConfig
	logger *logger.CanonicalLogger

	mu      sync.Mutex
	buckets map[string]*natsBucket
}

func NewNATSClient(cfg NATSConfig, log *logger.CanonicalLogger) *NATSClient {
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &NATSClient{
		cfg:     cfg,
		logger:  log.Component("nats_revision_client"),
		buckets: make(map[string]*natsBucket),
	}
}

func (c *NATSClient) bucket(store models.StoreDefinition) (nats.KeyValue, error) {
	conn, err := models.ParseConnection(store.Connection)
	if err != nil {
		return nil, fmt.Errorf("parse connection for store %s: %w", store.ID, err)
	}
	url := strings.TrimSpace(store.Endpoint)
	if url == "" {
		url = conn.Get("endpoint")
	}
	name := conn.Get("bucket")
	if name == "" {
		name = DefaultBucket
	}

	cacheKey := url + "|" + name
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.buckets[cacheKey]; ok {
		return b.kv, nil
	}

	opts := []nats.Option{nats.Name("refresh-watcher"), nats.Timeout(c.cfg.Timeout)}
	if user := conn.Get("id"); user != "" {
		opts = append(opts, nats.UserInfo(user, conn.Get("secret")))
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}
	kv, err := js.KeyValue(name)
	if err != nil {
		nc.Close()
		if errors.Is(err, nats.ErrBucketNotFound) {
			return nil, fmt.Errorf("%w: bucket %q", ErrNotFound, name)
		}
		return nil, fmt.Errorf("open bucket %q: %w", name, err)
	}

	c.buckets[cacheKey] = &natsBucket{nc: nc, kv: kv}
	c.logger.Info("nats bucket opened", logger.String(logger.FieldStore, store.ID), logger.String("bucket", name))
	return kv, nil
}

func (c *NATSClient) ListRevisions(ctx context.Context, store models.StoreDefinition, keyFilter, labelFilter string) (models.Snapshot, error) {
	kv, err := c.bucket(store)
	if err != nil {
		return nil, err
	}

	m := NewMatcher(keyFilter, labelFilter)
	out := make(models.Snapshot, 0)
	if !m.MatchLabel("") {
		return out, nil
	}

	keys, err := kv.Keys(nats.Context(ctx))
	if err != nil {
		if errors.Is(err, nats.ErrNoKeysFound) {
			return out, nil
		}
		return nil, fmt.Errorf("list keys: %w", err)
	}

	for _, key := range keys {
		if !m.MatchKey(key) {
			continue
		}
		entry, err := kv.Get(key)
		if err != nil {
			if errors.Is(err, nats.ErrKeyNotFound) {
				continue
			}
			return nil, fmt.Errorf("get %q: %w", key, err)
		}
		out = append(out, models.Revision{Key: key, ETag: strconv.FormatUint(entry.Revision(), 10)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Close drains every open connection.
func (c *NATSClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for key, b := range c.buckets {
		if err := b.nc.Drain(); err != nil {
			errs = append(errs, err)
		}
		delete(c.buckets, key)
	}
	return errors.Join(errs...)
}
