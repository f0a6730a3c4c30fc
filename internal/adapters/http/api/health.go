package api

import (
	"net/http"

	"github.com/okian/gantt/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthHandler exposes the metrics registry as the liveness probe.
type HealthHandler struct {
	metrics http.Handler
}

// NewHealthHandler serves g, or the process-wide registry when g is nil.
func NewHealthHandler(g prometheus.Gatherer) *HealthHandler {
	if g == nil {
		g = metrics.GetRegistry()
	}
	return &HealthHandler{metrics: promhttp.HandlerFor(g, promhttp.HandlerOpts{})}
}

// HandleHealth handles GET /healthz.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}
