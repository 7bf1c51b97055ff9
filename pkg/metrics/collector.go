// Package metrics records geometry operation counts and latencies.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Status labels recorded for each operation.
const (
	StatusOK         = "ok"
	StatusTypeError  = "type_error"
	StatusValueError = "value_error"
	StatusError      = "error"
)

// OperationMetrics summarizes recorded operations
type OperationMetrics struct {
	// Total operations recorded
	Total uint64
	// Operations that returned an error
	Failed uint64
	// Mean latency in milliseconds over all recorded operations
	AvgLatencyMs float64
	// Per-operation totals
	ByOperation map[string]uint64
	// Time when metrics were last updated
	Timestamp time.Time
}

// Collector manages the collection of metrics
type Collector struct {
	// Prometheus registry
	registry *prometheus.Registry
	// Operation latency histogram
	latency *prometheus.HistogramVec
	// Operation counter
	operations *prometheus.CounterVec
	// Whether Prometheus metrics are enabled
	prometheusEnabled bool
	// Lock for concurrent access
	mu sync.RWMutex
	// Recent metrics
	recent OperationMetrics
	// Sum of all recorded latencies in milliseconds
	latencySumMs float64
}

// NewCollector creates a new metrics collector
func NewCollector(prometheusEnabled bool) *Collector {
	c := &Collector{
		prometheusEnabled: prometheusEnabled,
		recent: OperationMetrics{
			ByOperation: make(map[string]uint64),
			Timestamp:   time.Now(),
		},
	}

	if prometheusEnabled {
		c.registry = prometheus.NewRegistry()

		c.latency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "coordgeom_operation_duration_seconds",
				Help:    "Geometry operation latency in seconds",
				Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10), // 1µs-262ms
			},
			[]string{"operation"},
		)

		c.operations = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coordgeom_operations_total",
				Help: "Total number of geometry operations executed",
			},
			[]string{"operation", "status"},
		)

		c.registry.MustRegister(c.latency)
		c.registry.MustRegister(c.operations)
	}

	return c
}

// Observe records one operation that started at start and finished with status.
func (c *Collector) Observe(operation, status string, start time.Time) {
	elapsed := time.Since(start)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.latencySumMs += float64(elapsed) / float64(time.Millisecond)
	c.recent.Total++
	c.recent.AvgLatencyMs = c.latencySumMs / float64(c.recent.Total)
	if status != StatusOK {
		c.recent.Failed++
	}
	c.recent.ByOperation[operation]++
	c.recent.Timestamp = time.Now()

	if c.prometheusEnabled {
		c.latency.WithLabelValues(operation).Observe(elapsed.Seconds())
		c.operations.WithLabelValues(operation, status).Inc()
	}
}

// GetRecentMetrics retrieves a copy of the most recent metrics
func (c *Collector) GetRecentMetrics() OperationMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := c.recent
	out.ByOperation = make(map[string]uint64, len(c.recent.ByOperation))
	for k, v := range c.recent.ByOperation {
		out.ByOperation[k] = v
	}
	return out
}

// GetRegistry returns the Prometheus registry, or nil when Prometheus is disabled
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}
