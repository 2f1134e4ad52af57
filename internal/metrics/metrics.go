package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics interface {
	Register(cs ...prometheus.Collector) error
	UnregisterAll()
	Reader
}

type Reader interface {
	HTTPHandler() http.Handler
}

type metrics struct {
	registry   *prometheus.Registry
	collectors []prometheus.Collector
}

func New() Metrics {
	return &metrics{
		registry: prometheus.NewRegistry(),
	}
}

func (m *metrics) Register(cs ...prometheus.Collector) error {
	for _, c := range cs {
		if err := m.registry.Register(c); err != nil {
			return err
		}
		m.collectors = append(m.collectors, c)
	}
	return nil
}

func (m *metrics) UnregisterAll() {
	for _, cs := range m.collectors {
		m.registry.Unregister(cs)
	}
	m.collectors = nil
}

func (m *metrics) HTTPHandler() http.Handler {
	return promhttp.InstrumentMetricHandler(m.registry, promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
