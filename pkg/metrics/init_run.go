package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initRunMetrics() {
	r.RunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipesizer_runs_total",
			Help: "Total number of sizing runs by outcome",
		},
		[]string{"outcome"},
	)

	r.StageDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipesizer_stage_duration_seconds",
			Help:    "Duration of each pipeline stage in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
		},
		[]string{"stage"},
	)

	r.CandidatesGenerated = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pipesizer_candidates_per_run",
			Help:    "Diameter candidates generated per run",
			Buckets: prometheus.ExponentialBuckets(4, 2, 10),
		},
	)

	r.ModelVariables = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pipesizer_model_variables",
			Help:    "Binary variables in the assembled sizing model",
			Buckets: prometheus.ExponentialBuckets(4, 2, 10),
		},
	)

	r.SolverNodes = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipesizer_solver_nodes",
			Help:    "Search nodes explored by the solver",
			Buckets: prometheus.ExponentialBuckets(1, 4, 12),
		},
		[]string{"solver"},
	)

	r.OptimizedCost = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "pipesizer_last_optimized_cost",
			Help: "Total material cost of the last optimized assignment",
		},
	)

	r.DeficientOutlets = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pipesizer_deficient_outlets",
			Help: "Outlets below their required pressure in the last run, by assignment origin",
		},
		[]string{"origin"},
	)
}
