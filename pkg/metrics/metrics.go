package metrics

import (
	"strconv"
	"time"
)

// Run outcomes.
const (
	OutcomeOptimal    = "optimal"
	OutcomeInvalid    = "invalid"
	OutcomeTopology   = "topology_error"
	OutcomeCandidate  = "candidate_infeasible"
	OutcomeInfeasible = "model_infeasible"
	OutcomeTimeout    = "timeout"
	OutcomeManual     = "manual_input"
	OutcomeError      = "error"
)

// RecordRun counts a finished run.
func (r *Registry) RecordRun(outcome string) {
	r.RunsTotal.WithLabelValues(outcome).Inc()
}

// RecordStage records the duration of one pipeline stage.
func (r *Registry) RecordStage(stage string, duration time.Duration) {
	r.StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordModel records the size of an assembled model.
func (r *Registry) RecordModel(candidates, variables int) {
	r.CandidatesGenerated.Observe(float64(candidates))
	r.ModelVariables.Observe(float64(variables))
}

// RecordSolve records the search effort of one solve.
func (r *Registry) RecordSolve(solver string, nodes int64) {
	r.SolverNodes.WithLabelValues(solver).Observe(float64(nodes))
}

// RecordResult records the outcome of a projected assignment.
func (r *Registry) RecordResult(origin string, cost float64, deficient int) {
	if origin == "optimized" {
		r.OptimizedCost.Set(cost)
	}
	r.DeficientOutlets.WithLabelValues(origin).Set(float64(deficient))
}

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
