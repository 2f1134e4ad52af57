package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alwanly/service-refresh-watcher/internal/models"
)

func scrape(t *testing.T, m Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.HTTPHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestRefreshCollector(t *testing.T) {
	m := New()
	c := NewRefreshCollector(func() time.Time { return time.Unix(1700000000, 0) })
	require.NoError(t, m.Register(c.Collectors()...))

	c.CycleSkipped()
	c.CycleCompleted("notified", 20*time.Millisecond)
	c.CycleCompleted("unchanged", 5*time.Millisecond)
	c.StoreFailed("store1", models.CategoryFeatureFlag)
	c.Notified(3)

	body := scrape(t, m)
	assert.Contains(t, body, "refresh_watcher_cycles_skipped_total 1")
	assert.Contains(t, body, `refresh_watcher_cycles_total{outcome="notified"} 1`)
	assert.Contains(t, body, `refresh_watcher_cycles_total{outcome="unchanged"} 1`)
	assert.Contains(t, body, `refresh_watcher_store_failures_total{category="feature-flag",store="store1"} 1`)
	assert.Contains(t, body, "refresh_watcher_events_published_total 1")
	assert.Contains(t, body, "refresh_watcher_changes_total 3")
	assert.Contains(t, body, "refresh_watcher_last_poll_timestamp_seconds")
	assert.Contains(t, body, "refresh_watcher_cycle_duration_seconds_count 2")
}

func TestMetricsUnregisterAll(t *testing.T) {
	m := New()
	c := NewRefreshCollector(nil)
	require.NoError(t, m.Register(c.Collectors()...))
	assert.Error(t, m.Register(c.Collectors()[0]), "duplicate registration")

	m.UnregisterAll()
	assert.NoError(t, m.Register(c.Collectors()...), "collectors can be registered again")
	assert.NotContains(t, scrape(t, m), "last_poll_timestamp_seconds")
}
