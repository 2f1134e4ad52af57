package state

import (
	"context"

	"github.com/Alwanly/service-refresh-watcher/internal/models"
)

// Store keeps the last observed revision snapshot per (store id, category).
// Entries are created on the first successful poll and never expire on their own.
type Store interface {
	Get(ctx context.Context, storeID string, category models.Category) (models.Snapshot, bool, error)
	Set(ctx context.Context, storeID string, category models.Category, snapshot models.Snapshot) error
	// Clear drops every entry, e.g. between test runs.
	Clear(ctx context.Context) error
}

// Key builds the composite key of one entry.
func Key(storeID string, category models.Category) string {
	return storeID + "_" + string(category)
}
