// Package solver runs 0-1 integer programs. Every backend reports an
// explicit status; infeasible, unbounded, timed-out and failed solves come
// back as errors and never as a default assignment.
package solver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/milp"
)

// Backend names accepted in project files.
const (
	BackendBranchAndBound = "branch-and-bound"
	BackendCBC            = "cbc"
)

var (
	ErrInfeasible = errors.New("model is infeasible")
	ErrUnbounded  = errors.New("model is unbounded")
	ErrTimeout    = errors.New("solver time limit exceeded")
	ErrSolver     = errors.New("solver failed")
)

// StatusError carries a non-optimal status. errors.Is matches it against
// ErrInfeasible, ErrUnbounded, ErrTimeout or ErrSolver.
type StatusError struct {
	Solver string
	Status milp.Status
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", e.Solver, e.Status)
	}
	return fmt.Sprintf("%s: %s: %s", e.Solver, e.Status, e.Detail)
}

func (e *StatusError) Is(target error) bool {
	switch e.Status {
	case milp.StatusInfeasible:
		return target == ErrInfeasible
	case milp.StatusUnbounded:
		return target == ErrUnbounded
	case milp.StatusTimeLimit:
		return target == ErrTimeout
	case milp.StatusError:
		return target == ErrSolver
	}
	return false
}

// Solver solves a model. On success the solution status is optimal and
// the error nil; any other status comes with a *StatusError.
type Solver interface {
	Name() string
	Solve(ctx context.Context, m *milp.Model) (*milp.Solution, error)
}

// Config selects and configures a backend.
type Config struct {
	Backend string
	CBCPath string
	WorkDir string
	Logger  *slog.Logger
}

// New returns the backend named in cfg.
func New(cfg Config) (Solver, error) {
	switch cfg.Backend {
	case "", BackendBranchAndBound:
		return &BranchAndBound{Logger: cfg.Logger}, nil
	case BackendCBC:
		return &CBC{Path: cfg.CBCPath, WorkDir: cfg.WorkDir, Logger: cfg.Logger}, nil
	}
	return nil, fmt.Errorf("unknown solver backend %q", cfg.Backend)
}

func failed(solver string, status milp.Status, detail string) (*milp.Solution, error) {
	return &milp.Solution{Status: status, Message: detail}, &StatusError{Solver: solver, Status: status, Detail: detail}
}

func contextFailure(ctx context.Context, solver string) (*milp.Solution, error) {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return failed(solver, milp.StatusTimeLimit, "deadline exceeded")
	}
	return &milp.Solution{Status: milp.StatusError, Message: ctx.Err().Error()}, fmt.Errorf("%s: %w", solver, ctx.Err())
}

func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
