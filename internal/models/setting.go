package models

import "time"

// Setting is one key/label pair held by the configuration store service.
type Setting struct {
	ID          int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Key         string    `gorm:"column:key;uniqueIndex:idx_setting_key_label;not null"`
	Label       string    `gorm:"column:label;uniqueIndex:idx_setting_key_label;not null;default:''"`
	Value       string    `gorm:"column:value"`
	ContentType string    `gorm:"column:content_type"`
	ETag        string    `gorm:"column:etag;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Setting) TableName() string {
	return "settings"
}

// Revision projects the setting onto its (key, label, etag) triple.
func (s Setting) Revision() Revision {
	return Revision{Key: s.Key, Label: s.Label, ETag: s.ETag}
}

// StateEntry persists the last observed snapshot for one (store, category) pair.
type StateEntry struct {
	StoreID   string    `gorm:"primaryKey;column:store_id"`
	Category  string    `gorm:"primaryKey;column:category"`
	Snapshot  string    `gorm:"column:snapshot;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (StateEntry) TableName() string {
	return "refresh_state"
}
