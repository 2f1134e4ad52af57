package revision

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Alwanly/service-refresh-watcher/internal/models"
)

type entryKey struct {
	key   string
	label string
}

// MemoryClient is an in-process store used for local runs and tests. Every write
// assigns a fresh ETag.
type MemoryClient struct {
	mu     sync.RWMutex
	stores map[string]map[entryKey]string
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{stores: make(map[string]map[entryKey]string)}
}

// Put creates or replaces an entry and returns its new ETag.
func (c *MemoryClient) Put(storeID, key, label string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, ok := c.stores[storeID]
	if !ok {
		entries = make(map[entryKey]string)
		c.stores[storeID] = entries
	}
	etag := uuid.NewString()
	entries[entryKey{key: key, label: label}] = etag
	return etag
}

// Delete removes an entry. It reports whether the entry existed.
func (c *MemoryClient) Delete(storeID, key, label string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, ok := c.stores[storeID]
	if !ok {
		return false
	}
	k := entryKey{key: key, label: label}
	if _, ok := entries[k]; !ok {
		return false
	}
	delete(entries, k)
	return true
}

func (c *MemoryClient) ListRevisions(ctx context.Context, store models.StoreDefinition, keyFilter, labelFilter string) (models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := NewMatcher(keyFilter, labelFilter)

	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(models.Snapshot, 0)
	for k, etag := range c.stores[store.ID] {
		if m.Match(k.key, k.label) {
			out = append(out, models.Revision{Key: k.key, Label: k.label, ETag: etag})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key != out[j].Key {
			return out[i].Key < out[j].Key
		}
		return out[i].Label < out[j].Label
	})
	return out, nil
}
