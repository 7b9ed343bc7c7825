// Package pipeline runs one sizing batch: load the project inputs, build
// the network and its candidate diameters, solve the cost model and
// project the answer back onto the network.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/analytics"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/candidate"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/cost"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/demand"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/hydraulics"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/manual"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/metrics"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/milp"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/network"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/projection"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/sizing"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/solver"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/spec"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/tables"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/validation"
)

// ErrInvalidSpec is returned when the project file fails schema validation.
var ErrInvalidSpec = errors.New("project has validation errors")

// Stage names used in logs and metrics.
const (
	StageTables     = "tables"
	StageNetwork    = "network"
	StageDemand     = "demand"
	StageCandidates = "candidates"
	StageHydraulics = "hydraulics"
	StageModel      = "model"
	StageSolve      = "solve"
	StageProject    = "project"
	StageCompare    = "compare"
)

// Options configures a run. Zero values are usable.
type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Registry
	// WorkDir holds solver scratch files; empty means the system temp dir.
	WorkDir string
}

// Input is everything derived from the project before the solver runs.
// It is read-only once built and may be shared by several projections.
type Input struct {
	Spec       *spec.ProjectSpec
	Tables     *tables.Tables
	Network    *network.Network
	Flows      map[string]demand.Flow
	Candidates map[string][]candidate.Candidate
	Evaluator  hydraulics.Evaluator
	Pricing    cost.Pricing
}

// Projector returns the projector for this input.
func (in *Input) Projector() projection.Projector {
	return projection.Projector{Evaluator: in.Evaluator, Pricing: in.Pricing}
}

// Run is the outcome of one batch.
type Run struct {
	ID     string `json:"run_id"`
	*Input `json:"-"`

	Model      *sizing.Model            `json:"-"`
	Solution   *milp.Solution           `json:"solution,omitempty"`
	Assignment projection.Assignment    `json:"assignment"`
	Result     *projection.Result       `json:"result,omitempty"`
	Margins    *analytics.MarginReport  `json:"margins,omitempty"`
	Validation *validation.Report       `json:"validation"`
	Stages     map[string]time.Duration `json:"stages"`
}

type runner struct {
	id     string
	log    *slog.Logger
	reg    *metrics.Registry
	stages map[string]time.Duration
}

func newRunner(opts Options) *runner {
	id := uuid.NewString()
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &runner{
		id:     id,
		log:    log.With("run_id", id),
		reg:    opts.Metrics,
		stages: make(map[string]time.Duration),
	}
}

func (r *runner) stage(name string, fn func() error) error {
	started := time.Now()
	r.log.Debug("stage started", "stage", name)
	err := fn()
	elapsed := time.Since(started)
	r.stages[name] = elapsed
	if r.reg != nil {
		r.reg.RecordStage(name, elapsed)
	}
	if err != nil {
		r.log.Error("stage failed", "stage", name, "elapsed", elapsed, "error", err)
		return err
	}
	r.log.Info("stage finished", "stage", name, "elapsed", elapsed)
	return nil
}

// Execute validates s and runs the full batch. The returned Run carries
// the validation report even when err is non-nil.
func Execute(ctx context.Context, s *spec.ProjectSpec, opts Options) (*Run, error) {
	r := newRunner(opts)
	run := &Run{ID: r.id, Stages: r.stages, Validation: validation.ValidateSchema(s)}
	r.log.Info("run started", "project", s.Name, "solver", s.Solver.Backend)

	err := r.execute(ctx, s, run, opts)
	if r.reg != nil {
		r.reg.RecordRun(Outcome(err))
	}
	if err != nil {
		r.log.Warn("run failed", "outcome", Outcome(err), "error", err)
		return run, err
	}
	r.log.Info("run finished",
		"total_cost", run.Result.TotalCost.StringFixed(cost.MoneyPlaces),
		"min_margin", run.Margins.Summary.Min)
	return run, nil
}

func (r *runner) execute(ctx context.Context, s *spec.ProjectSpec, run *Run, opts Options) error {
	if !run.Validation.Valid {
		return fmt.Errorf("%w: %w", ErrInvalidSpec, run.Validation.Err())
	}

	in, report, err := r.prepare(s)
	run.Input = in
	run.Validation.Merge(report)
	if err != nil {
		return err
	}

	if err := r.stage(StageModel, func() error {
		m, err := sizing.Build(
			sizing.Problem{Network: in.Network, Candidates: in.Candidates},
			sizing.Options{Pricing: in.Pricing, NonIncreasing: s.Sizing.NonIncreasing},
		)
		if err != nil {
			return fmt.Errorf("building sizing model: %w", err)
		}
		run.Model = m
		r.log.Info("model assembled", "variables", len(m.Vars), "constraints", len(m.Constraints),
			"reducers", len(m.Reducers), "excluded_pairs", m.Excluded)
		if r.reg != nil {
			r.reg.RecordModel(candidate.Count(in.Candidates), len(m.Vars))
		}
		return nil
	}); err != nil {
		return err
	}

	if err := r.stage(StageSolve, func() error {
		sv, err := solver.New(solver.Config{
			Backend: s.Solver.Backend,
			CBCPath: s.Solver.CBCPath,
			WorkDir: opts.WorkDir,
			Logger:  r.log,
		})
		if err != nil {
			return err
		}
		solveCtx, cancel := context.WithTimeout(ctx, s.Solver.Timeout())
		defer cancel()

		sol, err := sv.Solve(solveCtx, run.Model.Model)
		run.Solution = sol
		if sol != nil {
			r.log.Info("solver returned", "solver", sv.Name(), "status", sol.Status, "objective", sol.Objective, "nodes", sol.Nodes)
			if r.reg != nil {
				r.reg.RecordSolve(sv.Name(), sol.Nodes)
			}
		}
		if err != nil {
			return err
		}
		run.Assignment, err = run.Model.Decode(sol)
		return err
	}); err != nil {
		return err
	}

	return r.stage(StageProject, func() error {
		res, err := in.Projector().Project(in.Network, in.Flows, run.Assignment)
		if err != nil {
			return fmt.Errorf("projecting optimized assignment: %w", err)
		}
		run.Result = res
		margins, report := analytics.Margins(res, reportOptions(s))
		run.Margins = margins
		run.Validation.Merge(report)
		if r.reg != nil {
			f, _ := res.TotalCost.Float64()
			r.reg.RecordResult(string(res.Origin), f, margins.Deficient)
		}
		return report.Err()
	})
}

// Prepare runs the stages up to the annotated candidate sets. The report
// holds network warnings such as outlets above the static limit.
func Prepare(s *spec.ProjectSpec, opts Options) (*Input, *validation.Report, error) {
	return newRunner(opts).prepare(s)
}

func (r *runner) prepare(s *spec.ProjectSpec) (*Input, *validation.Report, error) {
	in := &Input{Spec: s}
	report := validation.NewReport()

	if err := r.stage(StageTables, func() error {
		ref, err := tables.Load(tables.Paths{
			Fixtures:      s.Resolve(s.Tables.Fixtures),
			Diameters:     s.Resolve(s.Tables.Diameters),
			Fittings:      s.Resolve(s.Tables.Fittings),
			FittingPrices: s.Resolve(s.Tables.FittingPrices),
			Reductions:    s.Resolve(s.Tables.Reductions),
			Meters:        s.Resolve(s.Tables.Meters),
		})
		if err != nil {
			return fmt.Errorf("loading reference tables: %w", err)
		}
		in.Tables = ref
		in.Pricing = cost.Pricing{Tables: ref, IncludeFittings: s.Sizing.IncludeFittingCosts}
		return nil
	}); err != nil {
		return in, report, err
	}

	if err := r.stage(StageNetwork, func() error {
		n, err := LoadNetwork(s, in.Tables, r.log)
		if err != nil {
			return err
		}
		in.Network = n
		report.Merge(validation.ValidateNetwork(n, s.Hydraulics.StaticLimit))
		r.log.Info("network loaded", "nodes", len(n.Nodes()), "segments", len(n.Segments()), "outlets", len(n.Outlets()))
		return nil
	}); err != nil {
		return in, report, err
	}

	if err := r.stage(StageDemand, func() error {
		in.Flows = demand.Aggregator{Coefficient: s.Hydraulics.DemandCoefficient}.Aggregate(in.Network)
		return nil
	}); err != nil {
		return in, report, err
	}

	var sets map[string][]candidate.Candidate
	if err := r.stage(StageCandidates, func() error {
		var err error
		g := candidate.Generator{MaxVelocity: s.Hydraulics.MaxVelocity, Extra: s.Extra()}
		sets, err = g.GenerateAll(in.Network, in.Flows, in.Tables)
		if err != nil {
			return err
		}
		r.log.Info("candidates generated", "candidates", candidate.Count(sets))
		return nil
	}); err != nil {
		return in, report, err
	}

	err := r.stage(StageHydraulics, func() error {
		model, err := hydraulics.NewModel(s.Hydraulics.FrictionModel, s.Hydraulics.Roughness, s.Hydraulics.Viscosity)
		if err != nil {
			return err
		}
		in.Evaluator = hydraulics.Evaluator{Friction: model, Tables: in.Tables}
		in.Candidates, err = in.Evaluator.Annotate(in.Network, in.Flows, sets)
		return err
	})
	return in, report, err
}

// LoadNetwork builds the network named in the project file.
func LoadNetwork(s *spec.ProjectSpec, ref *tables.Tables, log *slog.Logger) (*network.Network, error) {
	var src network.Source
	switch {
	case s.Network.Drawing != "":
		d, err := network.LoadDrawing(s.Resolve(s.Network.Drawing))
		if err != nil {
			return nil, err
		}
		src = network.DrawingSource{
			Drawing:   d,
			Material:  s.Network.Material,
			ExtraHead: s.Network.ExtraHead,
			Tolerance: s.Network.Tolerance,
			Logger:    log,
		}
	case s.Network.File != "":
		fn, err := network.LoadFileNetwork(s.Resolve(s.Network.File))
		if err != nil {
			return nil, err
		}
		src = network.FileSource{Network: fn, Material: s.Network.Material, ExtraHead: s.Network.ExtraHead}
	default:
		return nil, fmt.Errorf("project names no network source")
	}
	return src.Load(ref)
}

// Compare projects a manual assignment over the run's network and sets it
// against the optimized result. The solver is not involved.
func (run *Run) Compare(a projection.Assignment, opts Options) (*analytics.Comparison, *validation.Report, error) {
	if run.Result == nil || run.Input == nil {
		return nil, nil, fmt.Errorf("run %s has no optimized result to compare against", run.ID)
	}
	r := newRunner(opts)
	r.log = r.log.With("optimized_run", run.ID)

	var (
		cmp    *analytics.Comparison
		report *validation.Report
	)
	err := r.stage(StageCompare, func() error {
		man, err := run.Projector().Project(run.Network, run.Flows, a)
		if err != nil {
			return fmt.Errorf("projecting manual assignment: %w", err)
		}
		cmp, report, err = analytics.Compare(run.Result, man, reportOptions(run.Spec))
		if err != nil {
			return err
		}
		if r.reg != nil {
			f, _ := man.TotalCost.Float64()
			r.reg.RecordResult(string(man.Origin), f, cmp.Manual.Deficient)
		}
		r.log.Info("manual assignment compared",
			"cost_difference", cmp.CostDifference.StringFixed(cost.MoneyPlaces),
			"deficient_outlets", cmp.Manual.Deficient)
		return nil
	})
	return cmp, report, err
}

func reportOptions(s *spec.ProjectSpec) analytics.Options {
	return analytics.Options{MarginBin: s.Report.MarginBin, VelocityBin: s.Report.VelocityBin}
}

// Outcome classifies a run error for metrics and exit codes.
func Outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOptimal
	case errors.Is(err, ErrInvalidSpec):
		return metrics.OutcomeInvalid
	case errors.Is(err, network.ErrTopology):
		return metrics.OutcomeTopology
	case errors.Is(err, candidate.ErrInfeasible):
		return metrics.OutcomeCandidate
	case errors.Is(err, solver.ErrInfeasible):
		return metrics.OutcomeInfeasible
	case errors.Is(err, solver.ErrTimeout):
		return metrics.OutcomeTimeout
	case errors.Is(err, manual.ErrInput):
		return metrics.OutcomeManual
	}
	return metrics.OutcomeError
}
