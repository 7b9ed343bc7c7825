package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/manual"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/metrics"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/pipeline"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/scene"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/spec"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/validation"
)

// Server exposes one project over HTTP. The project is reloaded on every
// request so edits to its files show up without a restart.
type Server struct {
	projectPath string
	port        int
	log         *slog.Logger
	metrics     *metrics.Registry
}

// New creates a server for the given project directory. A nil logger means
// slog.Default and a nil registry means metrics.DefaultRegistry.
func New(projectPath string, port int, log *slog.Logger, reg *metrics.Registry) *Server {
	if log == nil {
		log = slog.Default()
	}
	if reg == nil {
		reg = metrics.DefaultRegistry()
	}
	return &Server{
		projectPath: projectPath,
		port:        port,
		log:         log,
		metrics:     reg,
	}
}

// Handler returns the routed handler with request metrics applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/spec", s.handleSpec)
	mux.HandleFunc("GET /api/validation", s.handleValidation)
	mux.HandleFunc("POST /api/solve", s.handleSolve)
	mux.HandleFunc("GET /api/scene", s.handleScene)
	mux.HandleFunc("POST /api/compare", s.handleCompare)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.metrics.Gatherer(), promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /{$}", s.handleIndex)

	return s.instrument(mux)
}

// Start launches the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.log.Info("pipesizer server starting", "addr", "http://localhost"+addr, "project", s.projectPath)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) instrument(next *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			_, route = next.Handler(r)
		}
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(started)
		s.metrics.RecordHTTPRequest(r.Method, route, rec.status, elapsed)
		s.log.Debug("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "elapsed", elapsed)
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, `<!DOCTYPE html>
<html><head><title>pipesizer</title></head>
<body style="font-family:system-ui;margin:2em">
<h1>pipesizer</h1>
<ul>
<li>GET /api/spec</li>
<li>GET /api/validation</li>
<li>POST /api/solve</li>
<li>GET /api/scene</li>
<li>POST /api/compare {"diameters": ["25", "20", ...]}</li>
<li>GET /metrics</li>
</ul>
</body></html>`)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSpec(w http.ResponseWriter, _ *http.Request) {
	ps, err := spec.LoadProject(s.projectPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (s *Server) handleValidation(w http.ResponseWriter, _ *http.Request) {
	ps, err := spec.LoadProject(s.projectPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err, nil)
		return
	}
	report := validation.ValidateSchema(ps)
	if report.Valid {
		_, netReport, err := pipeline.Prepare(ps, pipeline.Options{Logger: s.log})
		report.Merge(netReport)
		if err != nil {
			report.AddError(validation.Result{Level: validation.LevelTopology, Message: err.Error()})
		}
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) solve(r *http.Request) (*pipeline.Run, error) {
	ps, err := spec.LoadProject(s.projectPath)
	if err != nil {
		return nil, err
	}
	return pipeline.Execute(r.Context(), ps, pipeline.Options{Logger: s.log, Metrics: s.metrics})
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	run, err := s.solve(r)
	if err != nil {
		writeRunError(w, run, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	run, err := s.solve(r)
	if err != nil {
		writeRunError(w, run, err)
		return
	}
	writeJSON(w, http.StatusOK, scene.Assemble(run.Spec.Name, run.ID, run.Network, run.Result))
}

type compareRequest struct {
	Diameters []string `json:"diameters"`
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decoding request body: %w", err), nil)
		return
	}

	run, err := s.solve(r)
	if err != nil {
		writeRunError(w, run, err)
		return
	}
	a, err := manual.FromValues(req.Diameters, run.Network, run.Tables)
	if err != nil {
		writeError(w, http.StatusBadRequest, err, nil)
		return
	}
	cmp, report, err := run.Compare(a, pipeline.Options{Logger: s.log, Metrics: s.metrics})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err, nil)
		return
	}
	run.Validation.Merge(report)
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":     run.ID,
		"comparison": cmp,
		"validation": run.Validation,
	})
}

func writeRunError(w http.ResponseWriter, run *pipeline.Run, err error) {
	status := http.StatusInternalServerError
	switch pipeline.Outcome(err) {
	case metrics.OutcomeInvalid, metrics.OutcomeTopology, metrics.OutcomeCandidate, metrics.OutcomeInfeasible:
		status = http.StatusUnprocessableEntity
	case metrics.OutcomeTimeout:
		status = http.StatusGatewayTimeout
	}
	var report *validation.Report
	if run != nil {
		report = run.Validation
	}
	writeError(w, status, err, report)
}

func writeError(w http.ResponseWriter, status int, err error, report *validation.Report) {
	body := map[string]any{
		"error":   err.Error(),
		"outcome": pipeline.Outcome(err),
	}
	if report != nil {
		body["validation"] = report
	}
	var ie *manual.InputError
	if errors.As(err, &ie) {
		body["line"] = ie.Line
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
