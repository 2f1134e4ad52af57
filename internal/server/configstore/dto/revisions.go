package dto

import "github.com/Alwanly/service-refresh-watcher/internal/models"

// ListRevisionsQuery filters the revisions listing. Both filters default to "*".
type ListRevisionsQuery struct {
	Key   string `query:"key"`
	Label string `query:"label"`
}

// RevisionsResponse lists the (key, label, etag) triples matching a filter.
type RevisionsResponse struct {
	Items []models.Revision `json:"items"`
}
