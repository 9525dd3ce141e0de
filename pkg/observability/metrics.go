package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the engine. Each collector
// owns its registry so tests can create independent instances without
// duplicate-registration panics.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Graph mutation metrics
	NodesCreated prometheus.Counter
	NodesRemoved prometheus.Counter
	EdgesCreated prometheus.Counter
	EdgesRemoved prometheus.Counter
	EdgesPruned  prometheus.Counter

	// Graph state gauges, refreshed on every maintenance sweep
	GraphNodes       prometheus.Gauge
	GraphEdges       prometheus.Gauge
	AvgEdgeStrength  prometheus.Gauge
	WebSocketClients prometheus.Gauge

	// Query metrics
	TraversalDuration *prometheus.HistogramVec
}

// NewCollector creates a metrics collector with its own registry
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		NodesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_created_total",
			Help:      "Total number of nodes created",
		}),
		NodesRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_removed_total",
			Help:      "Total number of nodes removed",
		}),
		EdgesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edges_created_total",
			Help:      "Total number of edges created",
		}),
		EdgesRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edges_removed_total",
			Help:      "Total number of edges removed",
		}),
		EdgesPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edges_pruned_total",
			Help:      "Total number of edges dropped by maintenance sweeps",
		}),

		GraphNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_nodes",
			Help:      "Current number of live nodes",
		}),
		GraphEdges: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_edges",
			Help:      "Current number of live edges",
		}),
		AvgEdgeStrength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_avg_edge_strength",
			Help:      "Mean strength across live edges",
		}),
		WebSocketClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Currently connected WebSocket clients",
		}),

		TraversalDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "traversal_duration_seconds",
				Help:      "Graph traversal duration in seconds",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"operation"},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.NodesCreated,
		c.NodesRemoved,
		c.EdgesCreated,
		c.EdgesRemoved,
		c.EdgesPruned,
		c.GraphNodes,
		c.GraphEdges,
		c.AvgEdgeStrength,
		c.WebSocketClients,
		c.TraversalDuration,
	)

	return c
}

// ObserveTraversal records the duration of one traversal operation
func (c *Collector) ObserveTraversal(operation string, duration time.Duration) {
	c.TraversalDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// Handler returns the HTTP handler serving this collector's registry
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry returns the Prometheus registry for this collector
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
