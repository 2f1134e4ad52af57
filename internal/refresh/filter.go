package refresh

import (
	"strings"

	"github.com/gobwas/glob"

	"github.com/Alwanly/service-refresh-watcher/internal/models"
)

// KeyFilterResolver produces the key filter passed to a RevisionClient.
type KeyFilterResolver func(store models.StoreDefinition, category models.Category) string

// ResolveKeyFilter returns the key filter watched for category in store.
//
// Feature flags use the store's feature flag filter. Configuration keys combine every
// context prefix with the watched key, dropping the watched key's leading "/" when the
// prefix already ends with one. A list of more than one key that contains a wildcard collapses
// to "*", since stores cannot combine several patterns in one query.
func ResolveKeyFilter(store models.StoreDefinition, category models.Category) string {
	store = store.WithDefaults()

	if category == models.CategoryFeatureFlag {
		return strings.TrimSpace(store.FeatureFlagFilter)
	}

	watched := strings.TrimSpace(store.WatchedKey)

	seen := make(map[string]struct{}, len(store.Contexts))
	keys := make([]string, 0, len(store.Contexts))
	for _, prefix := range store.Contexts {
		prefix = strings.TrimSpace(prefix)
		key := prefix + watched
		if strings.HasSuffix(prefix, "/") {
			key = prefix + strings.TrimPrefix(watched, "/")
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}

	filter := strings.Join(keys, ",")
	if len(keys) > 1 && strings.Contains(filter, "*") {
		return "*"
	}
	return filter
}

// LabelFilter returns the label filter for store.
func LabelFilter(store models.StoreDefinition) string {
	return strings.TrimSpace(store.WithDefaults().Label)
}

// malformedPatterns lists the comma separated parts of filter that are not valid globs.
// Such parts are matched literally by the clients.
func malformedPatterns(filter string) []string {
	var bad []string
	for _, part := range strings.Split(filter, ",") {
		if _, err := glob.Compile(strings.TrimSpace(part)); err != nil {
			bad = append(bad, part)
		}
	}
	return bad
}
