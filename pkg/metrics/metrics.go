// Package metrics exposes Prometheus instruments for attribution runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "nodepnl"

// Recorder collects per-position outcomes of attribution runs.
type Recorder struct {
	registry  *prometheus.Registry
	positions *prometheus.CounterVec
	duration  prometheus.Histogram
	points    prometheus.Counter
}

// NewRecorder registers its instruments on a private registry so several
// recorders can coexist in one process.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		positions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "attribution",
			Name:      "positions_total",
			Help:      "Positions attributed, by outcome and instrument kind.",
		}, []string{"outcome", "kind"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "attribution",
			Name:      "position_duration_seconds",
			Help:      "Time spent attributing one position.",
			Buckets:   prometheus.DefBuckets,
		}),
		points: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "attribution",
			Name:      "pnl_points_total",
			Help:      "P&L observations produced.",
		}),
	}
	r.registry.MustRegister(r.positions, r.duration, r.points)
	return r
}

// Observe records one position. err == nil counts as success.
func (r *Recorder) Observe(kind string, elapsed time.Duration, points int, err error) {
	if r == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.positions.WithLabelValues(outcome, kind).Inc()
	r.duration.Observe(elapsed.Seconds())
	r.points.Add(float64(points))
}

// Registry exposes the instruments for scraping or dumping.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
