package solver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/milp"
)

// ExecFunc runs an external command and returns its combined output.
type ExecFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// CBC solves models with the COIN-OR CBC executable. The model is written
// as MPS to a scratch directory, CBC is run with the remaining context
// budget as its time limit, and its solution file is parsed back.
type CBC struct {
	Path    string // executable, "cbc" when empty
	WorkDir string // parent of the scratch directory, os.TempDir when empty
	Logger  *slog.Logger
	Exec    ExecFunc // nil runs the real command
}

func (c *CBC) Name() string { return BackendCBC }

// Solve implements Solver.
func (c *CBC) Solve(ctx context.Context, m *milp.Model) (*milp.Solution, error) {
	log := logger(c.Logger)
	if ctx.Err() != nil {
		return contextFailure(ctx, c.Name())
	}

	dir, err := os.MkdirTemp(c.WorkDir, "pipesizer-cbc-*")
	if err != nil {
		return failed(c.Name(), milp.StatusError, fmt.Sprintf("creating scratch directory: %v", err))
	}
	defer os.RemoveAll(dir)

	mpsFile := filepath.Join(dir, "model.mps")
	solFile := filepath.Join(dir, "model.sol")
	if err := writeModel(mpsFile, m); err != nil {
		return failed(c.Name(), milp.StatusError, err.Error())
	}

	args := []string{mpsFile}
	if deadline, ok := ctx.Deadline(); ok {
		secs := math.Max(1, math.Floor(time.Until(deadline).Seconds()))
		args = append(args, "-sec", strconv.Itoa(int(secs)))
	}
	args = append(args, "-solve", "-solu", solFile)

	path := c.Path
	if path == "" {
		path = "cbc"
	}
	run := c.Exec
	if run == nil {
		run = runCommand
	}
	log.Debug("running cbc", "path", path, "vars", len(m.Vars), "rows", len(m.Constraints))
	out, err := run(ctx, path, args...)
	if ctx.Err() != nil {
		return contextFailure(ctx, c.Name())
	}
	if err != nil {
		return failed(c.Name(), milp.StatusError, fmt.Sprintf("%v: %s", err, tail(out, 200)))
	}

	f, err := os.Open(solFile)
	if err != nil {
		return failed(c.Name(), milp.StatusError, fmt.Sprintf("reading solution file: %v", err))
	}
	defer f.Close()
	sol, err := ParseCBCSolution(f, m)
	if err != nil {
		return failed(c.Name(), milp.StatusError, err.Error())
	}
	if sol.Status != milp.StatusOptimal {
		return sol, &StatusError{Solver: c.Name(), Status: sol.Status, Detail: sol.Message}
	}
	return sol, nil
}

func writeModel(path string, m *milp.Model) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating MPS file: %w", err)
	}
	if err := milp.WriteMPS(f, m); err != nil {
		f.Close()
		return fmt.Errorf("writing MPS file: %w", err)
	}
	return f.Close()
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// ParseCBCSolution reads a CBC solution file: a status line such as
// "Optimal - objective value 12.5" followed by "index name value cost"
// rows. Variables absent from the file are zero.
func ParseCBCSolution(r io.Reader, m *milp.Model) (*milp.Solution, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, errors.New("empty solution file")
	}
	header := strings.TrimSpace(sc.Text())
	sol := &milp.Solution{Status: cbcStatus(header), Message: header}
	if i := strings.LastIndex(header, "objective value"); i >= 0 {
		fields := strings.Fields(header[i+len("objective value"):])
		if len(fields) > 0 {
			sol.Objective, _ = strconv.ParseFloat(fields[0], 64)
		}
	}
	if sol.Status != milp.StatusOptimal {
		return sol, nil
	}

	index := make(map[string]int, len(m.Vars))
	for i, v := range m.Vars {
		index[v.Name] = i
	}
	sol.Values = make([]float64, len(m.Vars))
	for line := 2; sc.Scan(); line++ {
		fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(sc.Text()), "**"))
		if len(fields) < 3 {
			continue
		}
		i, ok := index[fields[1]]
		if !ok {
			return nil, fmt.Errorf("solution line %d: unknown variable %q", line, fields[1])
		}
		v, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("solution line %d: %w", line, err)
		}
		sol.Values[i] = math.Round(v)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	sol.Objective = m.Objective(sol.Values)
	return sol, nil
}

func cbcStatus(header string) milp.Status {
	h := strings.ToLower(header)
	switch {
	case strings.HasPrefix(h, "optimal"):
		return milp.StatusOptimal
	case strings.Contains(h, "infeasible"):
		return milp.StatusInfeasible
	case strings.Contains(h, "unbounded"):
		return milp.StatusUnbounded
	case strings.Contains(h, "stopped on time"):
		return milp.StatusTimeLimit
	}
	return milp.StatusError
}

func tail(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		return "..." + s[len(s)-n:]
	}
	return s
}
