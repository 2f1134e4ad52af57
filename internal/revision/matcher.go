package revision

import (
	"strings"

	"github.com/gobwas/glob"
)

// Wildcard matches every key or label.
const Wildcard = "*"

// NullLabel selects entries stored without a label.
const NullLabel = `\0`

type pattern struct {
	raw  string
	glob glob.Glob
}

func (p pattern) match(s string) bool {
	if p.glob == nil {
		return p.raw == s
	}
	return p.glob.Match(s)
}

// Matcher applies a key filter and a label filter to store entries. Both filters are
// comma separated lists of glob patterns; a part that does not compile is compared
// literally.
type Matcher struct {
	keys   []pattern
	labels []pattern
}

// NewMatcher compiles keyFilter and labelFilter. An empty filter matches everything.
func NewMatcher(keyFilter, labelFilter string) *Matcher {
	return &Matcher{
		keys:   compile(keyFilter),
		labels: compile(labelFilter),
	}
}

func compile(filter string) []pattern {
	filter = strings.TrimSpace(filter)
	if filter == "" || filter == Wildcard {
		return nil
	}

	parts := strings.Split(filter, ",")
	out := make([]pattern, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		p := pattern{raw: part}
		if part != NullLabel {
			if g, err := glob.Compile(part); err == nil {
				p.glob = g
			}
		}
		out = append(out, p)
	}
	return out
}

// MatchKey reports whether key passes the key filter.
func (m *Matcher) MatchKey(key string) bool {
	return matchAny(m.keys, key)
}

// MatchLabel reports whether label passes the label filter. The empty label is
// selected by NullLabel.
func (m *Matcher) MatchLabel(label string) bool {
	if len(m.labels) == 0 {
		return true
	}
	for _, p := range m.labels {
		if p.raw == NullLabel {
			if label == "" {
				return true
			}
			continue
		}
		if label != "" && p.match(label) {
			return true
		}
	}
	return false
}

// Match reports whether the entry passes both filters.
func (m *Matcher) Match(key, label string) bool {
	return m.MatchKey(key) && m.MatchLabel(label)
}

func matchAny(patterns []pattern, s string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if p.match(s) {
			return true
		}
	}
	return false
}
