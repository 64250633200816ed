package gql

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records client activity. A nil *Metrics records nothing.
type Metrics struct {
	operationsTotal  *prometheus.CounterVec
	networkDuration  *prometheus.HistogramVec
	cacheReads       *prometheus.CounterVec
	deduplicatedHits *prometheus.CounterVec
	activeWatches    prometheus.Gauge
	cacheEntities    prometheus.Gauge
}

// NewMetrics registers the client collectors on registry.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)
	return &Metrics{
		operationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blogcms_graphql_operations_total",
				Help: "GraphQL operations issued through the client by outcome",
			},
			[]string{"operation", "kind", "outcome"},
		),
		networkDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "blogcms_graphql_network_duration_seconds",
				Help:    "Duration of GraphQL round trips through the transport link",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		cacheReads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blogcms_graphql_cache_reads_total",
				Help: "Cache reads by result",
			},
			[]string{"operation", "result"},
		),
		deduplicatedHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blogcms_graphql_deduplicated_total",
				Help: "Queries answered by an identical in-flight request",
			},
			[]string{"operation"},
		),
		activeWatches: factory.NewGauge(prometheus.GaugeOpts{
			Name: "blogcms_graphql_active_watches",
			Help: "Watch queries currently running",
		}),
		cacheEntities: factory.NewGauge(prometheus.GaugeOpts{
			Name: "blogcms_graphql_cache_entities",
			Help: "Normalized entities held by the root client cache",
		}),
	}
}

func (m *Metrics) recordOperation(opName string, kind operationKind, outcome string) {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues(opName, string(kind), outcome).Inc()
}

func (m *Metrics) recordNetwork(opName string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.networkDuration.WithLabelValues(opName).Observe(elapsed.Seconds())
}

func (m *Metrics) recordCacheRead(opName string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheReads.WithLabelValues(opName, result).Inc()
}

func (m *Metrics) recordDeduplicated(opName string) {
	if m == nil {
		return
	}
	m.deduplicatedHits.WithLabelValues(opName).Inc()
}

func (m *Metrics) watchStarted() {
	if m == nil {
		return
	}
	m.activeWatches.Inc()
}

func (m *Metrics) watchStopped() {
	if m == nil {
		return
	}
	m.activeWatches.Dec()
}

func (m *Metrics) setCacheEntities(count int) {
	if m == nil || m.cacheEntities == nil {
		return
	}
	m.cacheEntities.Set(float64(count))
}

// forFork shares every collector except the entity gauge, which tracks the root cache only.
func (m *Metrics) forFork() *Metrics {
	if m == nil {
		return nil
	}
	fork := *m
	fork.cacheEntities = nil
	return &fork
}
