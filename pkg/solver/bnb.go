package solver

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/milp"
)

const (
	defaultTolerance = 1e-9
	ctxCheckInterval = 1024
)

// BranchAndBound is an exact depth-first search for binary models. Rows
// of the form sum(x) = 1 with unit coefficients become choice groups
// branched as a whole; any other variable is branched on 0 then 1. Nodes
// are pruned on a cost lower bound and on an optimistic bound of every
// remaining constraint. Options are tried cheapest first, and a later
// solution replaces the incumbent only when strictly cheaper, so equal-cost
// ties always resolve to the same assignment.
type BranchAndBound struct {
	Tolerance float64
	Logger    *slog.Logger
}

func (b *BranchAndBound) Name() string { return BackendBranchAndBound }

type sideRow struct {
	sense milp.Sense
	rhs   float64
	// suffix bounds of the contribution of groups g.. (len groups+1)
	sufMin, sufMax []float64
}

type occurrence struct {
	row  int
	coef float64
}

type search struct {
	ctx        context.Context
	tol        float64
	groups     [][]int // variable indices, -1 = select nothing
	costs      []float64
	rows       []sideRow
	occ        [][]occurrence // per variable
	touch      [][]int        // per group: side rows it can change
	sufMinCost []float64

	lhs       []float64
	chosen    []int
	best      float64
	bestPick  []int
	nodes     int64
	cancelled bool
}

// Solve implements Solver.
func (b *BranchAndBound) Solve(ctx context.Context, m *milp.Model) (*milp.Solution, error) {
	log := logger(b.Logger)
	if err := m.Validate(); err != nil {
		return failed(b.Name(), milp.StatusError, err.Error())
	}
	if ctx.Err() != nil {
		return contextFailure(ctx, b.Name())
	}
	tol := b.Tolerance
	if tol <= 0 {
		tol = defaultTolerance
	}

	s := newSearch(ctx, m, tol)
	started := time.Now()
	if s.rootFeasible() {
		s.dfs(0, 0)
	}
	log.Debug("branch-and-bound finished",
		"nodes", s.nodes, "groups", len(s.groups), "side_rows", len(s.rows),
		"elapsed", time.Since(started))

	if s.cancelled {
		sol, err := contextFailure(ctx, b.Name())
		sol.Nodes = s.nodes
		return sol, err
	}
	if s.bestPick == nil {
		sol, err := failed(b.Name(), milp.StatusInfeasible, "no assignment satisfies every constraint")
		sol.Nodes = s.nodes
		return sol, err
	}

	values := make([]float64, len(m.Vars))
	for _, v := range s.bestPick {
		if v >= 0 {
			values[v] = 1
		}
	}
	return &milp.Solution{
		Status:    milp.StatusOptimal,
		Objective: m.Objective(values),
		Values:    values,
		Nodes:     s.nodes,
	}, nil
}

func newSearch(ctx context.Context, m *milp.Model, tol float64) *search {
	s := &search{ctx: ctx, tol: tol, best: math.Inf(1)}

	// Choice groups: disjoint sum(x)=1 rows with unit coefficients.
	inGroup := make([]bool, len(m.Vars))
	isGroupRow := make([]bool, len(m.Constraints))
	for ci, c := range m.Constraints {
		if c.Sense != milp.Equal || c.RHS != 1 || len(c.Terms) == 0 {
			continue
		}
		ok := true
		for _, t := range c.Terms {
			if t.Coef != 1 || inGroup[t.Var] {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		g := make([]int, 0, len(c.Terms))
		for _, t := range c.Terms {
			inGroup[t.Var] = true
			g = append(g, t.Var)
		}
		s.groups = append(s.groups, g)
		isGroupRow[ci] = true
	}
	for v := range m.Vars {
		if !inGroup[v] {
			s.groups = append(s.groups, []int{-1, v})
		}
	}

	cost := func(v int) float64 {
		if v < 0 {
			return 0
		}
		return m.Vars[v].Cost
	}
	for _, g := range s.groups {
		sort.SliceStable(g, func(i, j int) bool { return cost(g[i]) < cost(g[j]) })
	}

	s.occ = make([][]occurrence, len(m.Vars))
	for ci, c := range m.Constraints {
		if isGroupRow[ci] {
			continue
		}
		row := len(s.rows)
		s.rows = append(s.rows, sideRow{sense: c.Sense, rhs: c.RHS})
		for _, t := range c.Terms {
			s.occ[t.Var] = append(s.occ[t.Var], occurrence{row: row, coef: t.Coef})
		}
	}

	G := len(s.groups)
	s.touch = make([][]int, G)
	s.sufMinCost = make([]float64, G+1)
	for r := range s.rows {
		s.rows[r].sufMin = make([]float64, G+1)
		s.rows[r].sufMax = make([]float64, G+1)
	}
	coefIn := func(v, row int) float64 {
		if v < 0 {
			return 0
		}
		var sum float64
		for _, o := range s.occ[v] {
			if o.row == row {
				sum += o.coef
			}
		}
		return sum
	}
	for g := G - 1; g >= 0; g-- {
		minCost := math.Inf(1)
		rowsHere := map[int]bool{}
		for _, v := range s.groups[g] {
			minCost = math.Min(minCost, cost(v))
			if v >= 0 {
				for _, o := range s.occ[v] {
					rowsHere[o.row] = true
				}
			}
		}
		s.sufMinCost[g] = s.sufMinCost[g+1] + minCost
		for r := range s.rows {
			s.rows[r].sufMin[g] = s.rows[r].sufMin[g+1]
			s.rows[r].sufMax[g] = s.rows[r].sufMax[g+1]
		}
		for r := range rowsHere {
			lo, hi := math.Inf(1), math.Inf(-1)
			for _, v := range s.groups[g] {
				c := coefIn(v, r)
				lo, hi = math.Min(lo, c), math.Max(hi, c)
			}
			s.rows[r].sufMin[g] += lo
			s.rows[r].sufMax[g] += hi
			s.touch[g] = append(s.touch[g], r)
		}
		sort.Ints(s.touch[g])
	}

	s.costs = make([]float64, len(m.Vars))
	for i, v := range m.Vars {
		s.costs[i] = v.Cost
	}
	s.lhs = make([]float64, len(s.rows))
	s.chosen = make([]int, G)
	return s
}

// rowOK checks whether row r can still be met once groups g.. are chosen.
func (s *search) rowOK(r, g int) bool {
	row := s.rows[r]
	lo := s.lhs[r] + row.sufMin[g]
	hi := s.lhs[r] + row.sufMax[g]
	switch row.sense {
	case milp.LessEqual:
		return lo <= row.rhs+s.tol
	case milp.GreaterEqual:
		return hi >= row.rhs-s.tol
	default:
		return lo <= row.rhs+s.tol && hi >= row.rhs-s.tol
	}
}

func (s *search) rootFeasible() bool {
	for r := range s.rows {
		if !s.rowOK(r, 0) {
			return false
		}
	}
	return true
}

func (s *search) dfs(g int, cost float64) {
	if s.cancelled {
		return
	}
	s.nodes++
	if s.nodes%ctxCheckInterval == 0 && s.ctx.Err() != nil {
		s.cancelled = true
		return
	}
	if g == len(s.groups) {
		if cost < s.best-s.tol {
			s.best = cost
			s.bestPick = append([]int{}, s.chosen...)
		}
		return
	}

	for _, v := range s.groups[g] {
		c := cost
		if v >= 0 {
			c += s.costs[v]
		}
		if c+s.sufMinCost[g+1] >= s.best-s.tol {
			// Options are sorted by cost, so no later option can do better.
			return
		}
		s.apply(v, 1)
		feasible := true
		for _, r := range s.touch[g] {
			if !s.rowOK(r, g+1) {
				feasible = false
				break
			}
		}
		if feasible {
			s.chosen[g] = v
			s.dfs(g+1, c)
		}
		s.apply(v, -1)
		if s.cancelled {
			return
		}
	}
}

func (s *search) apply(v int, sign float64) {
	if v < 0 {
		return
	}
	for _, o := range s.occ[v] {
		s.lhs[o.row] += sign * o.coef
	}
}
