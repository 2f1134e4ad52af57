package dto

import (
	"time"

	"github.com/Alwanly/service-refresh-watcher/internal/models"
	"github.com/Alwanly/service-refresh-watcher/internal/notify"
)

// RefreshResponse reports whether a refresh event was published.
type RefreshResponse struct {
	Changed bool `json:"changed"`
}

type StoreStatus struct {
	ID   string           `json:"id"`
	Kind models.StoreKind `json:"kind"`
}

type BrokerStatus struct {
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
}

// StatusResponse describes the watcher state.
type StatusResponse struct {
	Stores    []StoreStatus  `json:"stores"`
	Brokers   []BrokerStatus `json:"brokers,omitempty"`
	LastPoll  *time.Time     `json:"last_poll,omitempty"`
	LastEvent *notify.Event  `json:"last_event,omitempty"`
}
