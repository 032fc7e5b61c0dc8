// Package metrics declares the Prometheus collectors of the map service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// LayerLoads counts static layer fetches by outcome ("ok" or "failed").
	LayerLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "platmetro",
		Subsystem: "layers",
		Name:      "loads_total",
		Help:      "Static layer fetches by layer and result",
	}, []string{"layer", "result"})

	LayerLoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "platmetro",
		Subsystem: "layers",
		Name:      "load_all_duration_seconds",
		Help:      "Duration of a full static layer load, from first fetch to join",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	ObjectRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "platmetro",
		Subsystem: "objects",
		Name:      "refreshes_total",
		Help:      "Live object list refreshes by result",
	}, []string{"result"})

	ObjectCreates = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "platmetro",
		Subsystem: "objects",
		Name:      "creates_total",
		Help:      "User object creations by result",
	}, []string{"result"})

	SceneChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "platmetro",
		Subsystem: "view",
		Name:      "changes_total",
		Help:      "View state changes that trigger a scene recompute, by cause",
	}, []string{"cause"})

	ActiveStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "platmetro",
		Subsystem: "sse",
		Name:      "active_streams",
		Help:      "Open map event streams",
	})
)

// Result labels an outcome.
func Result(err error) string {
	if err != nil {
		return "failed"
	}
	return "ok"
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
