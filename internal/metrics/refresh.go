package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Alwanly/service-refresh-watcher/internal/models"
)

const namespace = "refresh_watcher"

// RefreshCollector records refresh cycle outcomes.
type RefreshCollector struct {
	cycles       *prometheus.CounterVec
	duration     prometheus.Histogram
	skipped      prometheus.Counter
	storeFailed  *prometheus.CounterVec
	notified     prometheus.Counter
	changedPairs prometheus.Counter
	lastPoll     prometheus.GaugeFunc
}

// NewRefreshCollector builds the collector. lastPoll, when set, is exported as a Unix timestamp.
func NewRefreshCollector(lastPoll func() time.Time) *RefreshCollector {
	c := &RefreshCollector{
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Number of completed refresh cycles by outcome",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of completed refresh cycles",
			Buckets:   prometheus.DefBuckets,
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_skipped_total",
			Help:      "Number of refresh calls rejected by the minimum interval",
		}),
		storeFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_failures_total",
			Help:      "Number of failed store polls",
		}, []string{"store", "category"}),
		notified: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Number of refresh events published",
		}),
		changedPairs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "changes_total",
			Help:      "Number of changed store categories reported in refresh events",
		}),
	}
	if lastPoll != nil {
		c.lastPoll = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_poll_timestamp_seconds",
			Help:      "Unix time of the last attempted refresh cycle",
		}, func() float64 {
			t := lastPoll()
			if t.IsZero() {
				return 0
			}
			return float64(t.UnixNano()) / 1e9
		})
	}
	return c
}

// Collectors returns every metric of the collector for registration.
func (c *RefreshCollector) Collectors() []prometheus.Collector {
	out := []prometheus.Collector{c.cycles, c.duration, c.skipped, c.storeFailed, c.notified, c.changedPairs}
	if c.lastPoll != nil {
		out = append(out, c.lastPoll)
	}
	return out
}

func (c *RefreshCollector) CycleSkipped() {
	c.skipped.Inc()
}

func (c *RefreshCollector) CycleCompleted(outcome string, d time.Duration) {
	c.cycles.WithLabelValues(outcome).Inc()
	c.duration.Observe(d.Seconds())
}

func (c *RefreshCollector) StoreFailed(storeID string, category models.Category) {
	c.storeFailed.WithLabelValues(storeID, category.String()).Inc()
}

func (c *RefreshCollector) Notified(changes int) {
	c.notified.Inc()
	c.changedPairs.Add(float64(changes))
}
