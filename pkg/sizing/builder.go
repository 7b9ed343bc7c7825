// Package sizing assembles the diameter-selection integer program: one
// binary per candidate, exactly one choice per segment, and a head-loss
// budget per outlet along its supply path. When a reductions table is
// loaded, every parent/child pair of different diameters either carries
// a reducer binary or is excluded.
package sizing

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/candidate"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/cost"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/hydraulics"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/milp"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/network"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/projection"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/tables"
)

// Problem is everything the builder reads. Candidates must carry losses.
type Problem struct {
	Network    *network.Network
	Candidates map[string][]candidate.Candidate
}

// Options tunes the model.
type Options struct {
	Pricing cost.Pricing
	// NonIncreasing forbids a segment from being wider than the one feeding it.
	NonIncreasing bool
}

// Choice ties a model variable back to its candidate.
type Choice struct {
	Var       int
	Candidate candidate.Candidate
}

// Reducer is the binary set when a segment and its parent are built with
// the two candidates Parent and Child. Loss and Price are charged to the
// child segment.
type Reducer struct {
	Var     int
	Segment string
	Parent  int // variable of the parent candidate
	Child   int // variable of the child candidate
	Loss    float64
	Price   float64
}

// Model is the assembled program plus the bookkeeping to decode solutions.
type Model struct {
	*milp.Model
	Choices  []Choice         // indexed like the first len(Choices) vars
	Groups   map[string][]int // segment ID -> variable indices
	Reducers []Reducer
	// Excluded counts parent/child pairs ruled out for lack of a reducer.
	Excluded int
	// Budgets holds the admissible path loss per outlet node ID.
	Budgets  map[string]float64
}

// Build assembles the program for p.
func Build(p Problem, opts Options) (*Model, error) {
	n := p.Network
	if err := checkNames(n); err != nil {
		return nil, err
	}
	m := &Model{
		Model:   milp.NewModel("pipesizing"),
		Groups:  make(map[string][]int, len(n.Segments())),
		Budgets: make(map[string]float64, len(n.Outlets())),
	}

	for _, s := range n.Segments() {
		cs := p.Candidates[s.ID]
		if len(cs) == 0 {
			return nil, fmt.Errorf("segment %s has no candidates", s.ID)
		}
		terms := make([]milp.Term, 0, len(cs))
		for _, c := range cs {
			name := fmt.Sprintf("x_%s_%d", mpsName(s.ID), c.Rank)
			v := m.AddBinary(name, opts.Pricing.Objective(s, c.Option))
			m.Choices = append(m.Choices, Choice{Var: v, Candidate: c})
			m.Groups[s.ID] = append(m.Groups[s.ID], v)
			terms = append(terms, milp.Term{Var: v, Coef: 1})
		}
		m.AddConstraint("one_"+mpsName(s.ID), milp.Equal, 1, terms...)
	}

	bySegment := m.addReducers(n, opts.Pricing.Tables)

	for _, o := range n.Outlets() {
		budget := n.StaticPressure(o.ID) - o.Fixture.MinPressure
		m.Budgets[o.ID] = budget
		var terms []milp.Term
		for _, s := range n.PathTo(o.ID) {
			for _, v := range m.Groups[s.ID] {
				if loss := m.Choices[v].Candidate.Loss; loss != 0 {
					terms = append(terms, milp.Term{Var: v, Coef: loss})
				}
			}
			for _, i := range bySegment[s.ID] {
				if r := m.Reducers[i]; r.Loss != 0 {
					terms = append(terms, milp.Term{Var: r.Var, Coef: r.Loss})
				}
			}
		}
		m.AddConstraint("p_"+mpsName(o.ID), milp.LessEqual, budget, terms...)
	}

	if opts.NonIncreasing {
		for _, s := range n.Segments() {
			parent, ok := n.Parent(s.ID)
			if !ok {
				continue
			}
			var terms []milp.Term
			for _, v := range m.Groups[parent.ID] {
				terms = append(terms, milp.Term{Var: v, Coef: m.Choices[v].Candidate.Option.Internal * 1000})
			}
			for _, v := range m.Groups[s.ID] {
				terms = append(terms, milp.Term{Var: v, Coef: -m.Choices[v].Candidate.Option.Internal * 1000})
			}
			m.AddConstraint("mono_"+mpsName(s.ID), milp.GreaterEqual, 0, terms...)
		}
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// addReducers links every segment to its parent. A pair of equal
// diameters needs nothing. A pair with a reducer row gets a binary y with
// x_parent + x_child - y <= 1 carrying the reducer price and loss. A pair
// without one is excluded by x_parent + x_child <= 1. It returns the
// reducer indices per child segment.
func (m *Model) addReducers(n *network.Network, t *tables.Tables) map[string][]int {
	bySegment := make(map[string][]int)
	if t == nil {
		return bySegment
	}
	for _, s := range n.Segments() {
		parent, ok := n.Parent(s.ID)
		if !ok {
			continue
		}
		for _, pv := range m.Groups[parent.ID] {
			pc := m.Choices[pv].Candidate
			for _, cv := range m.Groups[s.ID] {
				cc := m.Choices[cv].Candidate
				r, needed, ok := t.Reducer(pc.Option, cc.Option)
				if !needed {
					continue
				}
				suffix := fmt.Sprintf("%s_%d_%d", mpsName(s.ID), pc.Rank, cc.Rank)
				if !ok {
					m.AddConstraint("nr_"+suffix, milp.LessEqual, 1,
						milp.Term{Var: pv, Coef: 1}, milp.Term{Var: cv, Coef: 1})
					m.Excluded++
					continue
				}
				price, _ := r.UnitPrice.Float64()
				red := Reducer{
					Segment: s.ID,
					Parent:  pv,
					Child:   cv,
					Loss:    hydraulics.ReducerLoss(r.Coefficient, cc.Velocity),
					Price:   price,
				}
				red.Var = m.AddBinary("y_"+suffix, price)
				m.AddConstraint("red_"+suffix, milp.LessEqual, 1,
					milp.Term{Var: pv, Coef: 1}, milp.Term{Var: cv, Coef: 1}, milp.Term{Var: red.Var, Coef: -1})
				bySegment[s.ID] = append(bySegment[s.ID], len(m.Reducers))
				m.Reducers = append(m.Reducers, red)
			}
		}
	}
	return bySegment
}

// checkNames rejects networks whose segment or outlet IDs collapse to the
// same model name.
func checkNames(n *network.Network) error {
	segs := make(map[string]string, len(n.Segments()))
	for _, s := range n.Segments() {
		name := mpsName(s.ID)
		if other, ok := segs[name]; ok {
			return fmt.Errorf("segment IDs %q and %q both become %q in the model; rename one of them", other, s.ID, name)
		}
		segs[name] = s.ID
	}
	outlets := make(map[string]string, len(n.Outlets()))
	for _, o := range n.Outlets() {
		name := mpsName(o.ID)
		if other, ok := outlets[name]; ok {
			return fmt.Errorf("outlet IDs %q and %q both become %q in the model; rename one of them", other, o.ID, name)
		}
		outlets[name] = o.ID
	}
	return nil
}

// Decode turns an optimal solution into an assignment. Exactly one
// variable per segment must be selected.
func (m *Model) Decode(sol *milp.Solution) (projection.Assignment, error) {
	a := projection.NewAssignment(projection.OriginOptimized)
	if sol == nil || sol.Status != milp.StatusOptimal {
		return a, fmt.Errorf("cannot decode a non-optimal solution")
	}
	if len(sol.Values) != len(m.Vars) {
		return a, fmt.Errorf("solution has %d values for %d variables", len(sol.Values), len(m.Vars))
	}
	for seg, vars := range m.Groups {
		var chosen []tables.DiameterOption
		for _, v := range vars {
			if sol.Values[v] > 0.5 {
				chosen = append(chosen, m.Choices[v].Candidate.Option)
			}
		}
		if len(chosen) != 1 {
			return a, fmt.Errorf("segment %s: %d diameters selected", seg, len(chosen))
		}
		a.Options[seg] = chosen[0]
	}
	return a, nil
}

// mpsName makes an identifier safe for MPS column and row names.
func mpsName(id string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.' {
			return r
		}
		return '_'
	}, id)
}
