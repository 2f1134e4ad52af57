package repository

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Alwanly/service-refresh-watcher/internal/models"
)

// ErrNotFound is returned when no setting exists for a key and label.
var ErrNotFound = errors.New("setting not found")

type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

type IRepository interface {
	PutSetting(ctx context.Context, key, label, value, contentType string) (*models.Setting, error)
	GetSetting(ctx context.Context, key, label string) (*models.Setting, error)
	DeleteSetting(ctx context.Context, key, label string) error
	ListRevisions(ctx context.Context, keyPrefix string) ([]models.Revision, error)
}

func keyLabel(key, label string) map[string]interface{} {
	return map[string]interface{}{"key": key, "label": label}
}

// PutSetting creates or replaces a setting. Every write issues a new ETag.
func (r *Repository) PutSetting(ctx context.Context, key, label, value, contentType string) (*models.Setting, error) {
	setting := &models.Setting{
		Key:         key,
		Label:       label,
		Value:       value,
		ContentType: contentType,
		ETag:        uuid.NewString(),
	}

	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}, {Name: "label"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "content_type", "etag", "updated_at"}),
	}).Create(setting).Error
	if err != nil {
		return nil, fmt.Errorf("failed to put setting: %w", err)
	}

	return r.GetSetting(ctx, key, label)
}

func (r *Repository) GetSetting(ctx context.Context, key, label string) (*models.Setting, error) {
	var setting models.Setting
	if err := r.DB.WithContext(ctx).Where(keyLabel(key, label)).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get setting: %w", err)
	}
	return &setting, nil
}

func (r *Repository) DeleteSetting(ctx context.Context, key, label string) error {
	result := r.DB.WithContext(ctx).Where(keyLabel(key, label)).Delete(&models.Setting{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete setting: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListRevisions returns the revision of every setting whose key starts with keyPrefix.
func (r *Repository) ListRevisions(ctx context.Context, keyPrefix string) ([]models.Revision, error) {
	var settings []models.Setting
	q := r.DB.WithContext(ctx).Model(&models.Setting{}).Select("key", "label", "etag")
	if keyPrefix != "" {
		q = q.Where("substr(`key`, 1, ?) = ?", utf8.RuneCountInString(keyPrefix), keyPrefix)
	}
	if err := q.Order("`key`").Order("label").Find(&settings).Error; err != nil {
		return nil, fmt.Errorf("failed to list revisions: %w", err)
	}

	out := make([]models.Revision, 0, len(settings))
	for _, s := range settings {
		out = append(out, s.Revision())
	}
	return out, nil
}
