package metrics

import "github.com/prometheus/client_golang/prometheus"

// Option configures a Manager.
type Option func(*Manager)

// WithNamespace replaces the "gantt" metric namespace.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithLatencyBuckets sets the millisecond buckets shared by the transform,
// worker and GC histograms.
func WithLatencyBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.latencyBuckets = buckets
		}
	}
}

// WithHTTPBuckets sets the second buckets of the HTTP duration histogram.
func WithHTTPBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.httpBuckets = buckets
		}
	}
}

// WithConstLabels attaches labels to every metric, e.g. an instance name.
func WithConstLabels(labels map[string]string) Option {
	return func(m *Manager) {
		m.constLabels = labels
	}
}

// WithMetricsEnabled turns recording off when false. Collectors are still
// built so recorders stay callable; they are not exported.
func WithMetricsEnabled(enabled bool) Option {
	return func(m *Manager) {
		m.enabled = enabled
	}
}

// WithRegistry registers the collectors on r instead of the default registerer.
func WithRegistry(r prometheus.Registerer) Option {
	return func(m *Manager) {
		if r != nil {
			m.registry = r
		}
	}
}
