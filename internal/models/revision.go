package models

import (
	"sort"
)

// Category is a sub-namespace of a store that is polled independently.
type Category string

const (
	CategoryConfiguration Category = "configuration"
	CategoryFeatureFlag   Category = "feature-flag"
)

// Categories lists every category in polling order.
var Categories = []Category{CategoryConfiguration, CategoryFeatureFlag}

func (c Category) String() string {
	return string(c)
}

// Revision is the latest known version of one key as reported by a store.
// ETag is opaque and only ever compared for equality.
type Revision struct {
	Key   string `json:"key"`
	Label string `json:"label,omitempty"`
	ETag  string `json:"etag"`
}

// Snapshot is the sequence of revisions returned for one filter at one polling instant.
type Snapshot []Revision

// Equal reports whether both snapshots hold the same set of revisions.
// Order and duplicates are ignored.
func (s Snapshot) Equal(other Snapshot) bool {
	a, b := s.set(), other.set()
	if len(a) != len(b) {
		return false
	}
	for r := range a {
		if _, ok := b[r]; !ok {
			return false
		}
	}
	return true
}

// Diff returns the sorted keys that were added, removed or re-tagged compared to prev.
func (s Snapshot) Diff(prev Snapshot) []string {
	cur, old := s.set(), prev.set()
	changed := make(map[string]struct{})
	for r := range cur {
		if _, ok := old[r]; !ok {
			changed[r.Key] = struct{}{}
		}
	}
	for r := range old {
		if _, ok := cur[r]; !ok {
			changed[r.Key] = struct{}{}
		}
	}

	keys := make([]string, 0, len(changed))
	for k := range changed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a copy that shares no backing array with s.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	copy(out, s)
	return out
}

func (s Snapshot) set() map[Revision]struct{} {
	m := make(map[Revision]struct{}, len(s))
	for _, r := range s {
		m[r] = struct{}{}
	}
	return m
}
