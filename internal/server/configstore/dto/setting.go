package dto

import (
	"time"

	"github.com/Alwanly/service-refresh-watcher/internal/models"
)

// PutSettingRequest creates or replaces the value of a key.
type PutSettingRequest struct {
	Value       string `json:"value" validate:"required"`
	ContentType string `json:"content_type" validate:"omitempty,max=255"`
}

// SettingResponse is one stored setting.
type SettingResponse struct {
	Key          string    `json:"key"`
	Label        string    `json:"label"`
	Value        string    `json:"value"`
	ContentType  string    `json:"content_type,omitempty"`
	ETag         string    `json:"etag"`
	LastModified time.Time `json:"last_modified"`
}

func NewSettingResponse(s models.Setting) SettingResponse {
	return SettingResponse{
		Key:          s.Key,
		Label:        s.Label,
		Value:        s.Value,
		ContentType:  s.ContentType,
		ETag:         s.ETag,
		LastModified: s.UpdatedAt,
	}
}
