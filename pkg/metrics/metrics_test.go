package metrics

import (
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	switch {
	case m.Counter != nil:
		return m.Counter.GetValue()
	case m.Gauge != nil:
		return m.Gauge.GetValue()
	case m.Histogram != nil:
		return float64(m.Histogram.GetSampleCount())
	}
	t.Fatal("unsupported metric type")
	return 0
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}
	if r.RunsTotal == nil || r.StageDuration == nil || r.SolverNodes == nil {
		t.Error("run metrics not initialized")
	}
	if r.HTTPRequestsTotal == nil || r.HTTPRequestDuration == nil {
		t.Error("HTTP metrics not initialized")
	}
	if r.registry == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	if DefaultRegistry() != DefaultRegistry() {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestRecordRun(t *testing.T) {
	r := NewRegistry()
	r.RecordRun(OutcomeOptimal)
	r.RecordRun(OutcomeOptimal)
	r.RecordRun(OutcomeInfeasible)

	c, err := r.RunsTotal.GetMetricWithLabelValues(OutcomeOptimal)
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	if v := counterValue(t, c); v != 2 {
		t.Errorf("optimal runs = %v, want 2", v)
	}
}

func TestRecordStagesAndSolve(t *testing.T) {
	r := NewRegistry()
	r.RecordStage("solve", 20*time.Millisecond)
	r.RecordStage("solve", 40*time.Millisecond)
	r.RecordSolve("branch-and-bound", 130)
	r.RecordModel(22, 22)

	h, err := r.StageDuration.GetMetricWithLabelValues("solve")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	if v := counterValue(t, h.(interface{ Write(*dto.Metric) error })); v != 2 {
		t.Errorf("solve stage samples = %v, want 2", v)
	}
	if v := counterValue(t, r.ModelVariables); v != 1 {
		t.Errorf("model samples = %v, want 1", v)
	}
}

func TestRecordResult(t *testing.T) {
	r := NewRegistry()
	r.RecordResult("optimized", 412.5, 0)
	r.RecordResult("manual", 300, 2)

	if v := counterValue(t, r.OptimizedCost); v != 412.5 {
		t.Errorf("optimized cost = %v, want 412.5", v)
	}
	g, _ := r.DeficientOutlets.GetMetricWithLabelValues("manual")
	if v := counterValue(t, g); v != 2 {
		t.Errorf("manual deficient = %v, want 2", v)
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	r := NewRegistry()
	r.RecordHTTPRequest("POST", "/api/solve", 200, 100*time.Millisecond)
	r.RecordHTTPRequest("POST", "/api/solve", 422, 10*time.Millisecond)

	c, err := r.HTTPRequestsTotal.GetMetricWithLabelValues("POST", "/api/solve", "422")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	if v := counterValue(t, c); v != 1 {
		t.Errorf("Counter value = %v, want 1", v)
	}

	families, err := r.Gatherer().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(families) == 0 {
		t.Error("Gather returned no metric families")
	}
}
