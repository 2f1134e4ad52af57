package models

import (
	"fmt"
	"strings"
)

// StoreKind selects the RevisionClient used to reach a store.
type StoreKind string

const (
	StoreKindHTTP   StoreKind = "http"
	StoreKindNATS   StoreKind = "nats"
	// StoreKindMemory is an in-process store written through revision.MemoryClient.
	// Stores files cannot declare it since nothing outside the process can write to it.
	StoreKindMemory StoreKind = "memory"
)

const (
	DefaultWatchedKey        = "*"
	DefaultContext           = "/application/"
	DefaultLabelFilter       = "*"
	DefaultFeatureFlagFilter = ".appconfig.featureflag/*"
)

// StoreDefinition identifies one remote configuration origin. It is immutable once loaded.
type StoreDefinition struct {
	ID                string    `yaml:"id" toml:"id" json:"id" validate:"required"`
	Kind              StoreKind `yaml:"kind" toml:"kind" json:"kind" validate:"required,oneof=http nats"`
	Endpoint          string    `yaml:"endpoint" toml:"endpoint" json:"endpoint"`
	Connection        string    `yaml:"connection" toml:"connection" json:"connection,omitempty"`
	WatchedKey        string    `yaml:"watched_key" toml:"watched_key" json:"watched_key,omitempty"`
	Contexts          []string  `yaml:"contexts" toml:"contexts" json:"contexts,omitempty"`
	Label             string    `yaml:"label" toml:"label" json:"label,omitempty"`
	FeatureFlagFilter string    `yaml:"feature_flag_filter" toml:"feature_flag_filter" json:"feature_flag_filter,omitempty"`
}

// WithDefaults fills every unset optional attribute.
func (s StoreDefinition) WithDefaults() StoreDefinition {
	if strings.TrimSpace(s.WatchedKey) == "" {
		s.WatchedKey = DefaultWatchedKey
	}
	if len(s.Contexts) == 0 {
		s.Contexts = []string{DefaultContext}
	} else {
		s.Contexts = append([]string(nil), s.Contexts...)
	}
	if strings.TrimSpace(s.Label) == "" {
		s.Label = DefaultLabelFilter
	}
	if strings.TrimSpace(s.FeatureFlagFilter) == "" {
		s.FeatureFlagFilter = DefaultFeatureFlagFilter
	}
	return s
}

// ConnectionDescriptor is a parsed "Endpoint=...;Id=...;Secret=..." connection string.
type ConnectionDescriptor map[string]string

// ParseConnection splits a connection string into its parts. Keys are case-insensitive.
func ParseConnection(raw string) (ConnectionDescriptor, error) {
	out := make(ConnectionDescriptor)
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, ok := strings.Cut(part, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("malformed connection segment %q", part)
		}
		out[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return out, nil
}

// Get returns the value stored under key, case-insensitively.
func (c ConnectionDescriptor) Get(key string) string {
	return c[strings.ToLower(key)]
}
