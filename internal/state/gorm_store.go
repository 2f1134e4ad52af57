package state

import (
	"context"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Alwanly/service-refresh-watcher/internal/models"
)

// GormStore persists entries in the refresh_state table. When the state is kept
// across a restart, the first poll is compared against the persisted snapshot instead
// of being captured as a silent baseline.
type GormStore struct {
	DB *gorm.DB
}

// NewGormStore returns a Store backed by db. The refresh_state table must exist,
// see database.RunMigrations.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

// OpenGormStore returns a GormStore on a migrated db. With reset set, entries left by
// a previous process are dropped so the store starts empty.
func OpenGormStore(ctx context.Context, db *gorm.DB, reset bool) (*GormStore, error) {
	s := NewGormStore(db)
	if reset {
		if err := s.Clear(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *GormStore) Get(ctx context.Context, storeID string, category models.Category) (models.Snapshot, bool, error) {
	var entry models.StateEntry
	err := s.DB.WithContext(ctx).
		Where("store_id = ? AND category = ?", storeID, string(category)).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get state %s: %w", Key(storeID, category), err)
	}

	var snapshot models.Snapshot
	if err := json.Unmarshal([]byte(entry.Snapshot), &snapshot); err != nil {
		return nil, false, fmt.Errorf("failed to decode state %s: %w", Key(storeID, category), err)
	}
	if snapshot == nil {
		snapshot = models.Snapshot{}
	}
	return snapshot, true, nil
}

func (s *GormStore) Set(ctx context.Context, storeID string, category models.Category, snapshot models.Snapshot) error {
	if snapshot == nil {
		snapshot = models.Snapshot{}
	}
	body, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode state %s: %w", Key(storeID, category), err)
	}

	entry := models.StateEntry{
		StoreID:  storeID,
		Category: string(category),
		Snapshot: string(body),
	}
	err = s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "store_id"}, {Name: "category"}},
		DoUpdates: clause.AssignmentColumns([]string{"snapshot", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to set state %s: %w", Key(storeID, category), err)
	}
	return nil
}

func (s *GormStore) Clear(ctx context.Context) error {
	if err := s.DB.WithContext(ctx).Where("1 = 1").Delete(&models.StateEntry{}).Error; err != nil {
		return fmt.Errorf("failed to clear state: %w", err)
	}
	return nil
}
