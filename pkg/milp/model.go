// Package milp holds a solver-neutral 0-1 integer program: binary
// variables with objective costs and linear constraints over them.
package milp

import (
	"fmt"
	"math"
)

// Sense is the relation of a constraint's left side to its right side.
type Sense int

const (
	LessEqual Sense = iota
	GreaterEqual
	Equal
)

func (s Sense) String() string {
	switch s {
	case LessEqual:
		return "<="
	case GreaterEqual:
		return ">="
	case Equal:
		return "="
	}
	return fmt.Sprintf("Sense(%d)", int(s))
}

// Variable is a binary decision variable.
type Variable struct {
	Name string  `json:"name"`
	Cost float64 `json:"cost"`
}

// Term is coefficient * variable.
type Term struct {
	Var  int     `json:"var"`
	Coef float64 `json:"coef"`
}

// Constraint is sum(terms) <sense> RHS.
type Constraint struct {
	Name  string  `json:"name"`
	Terms []Term  `json:"terms"`
	Sense Sense   `json:"sense"`
	RHS   float64 `json:"rhs"`
}

// LHS evaluates the left side at values.
func (c Constraint) LHS(values []float64) float64 {
	var sum float64
	for _, t := range c.Terms {
		sum += t.Coef * values[t.Var]
	}
	return sum
}

// Satisfied reports whether values meet the constraint within tol.
func (c Constraint) Satisfied(values []float64, tol float64) bool {
	lhs := c.LHS(values)
	switch c.Sense {
	case LessEqual:
		return lhs <= c.RHS+tol
	case GreaterEqual:
		return lhs >= c.RHS-tol
	default:
		return math.Abs(lhs-c.RHS) <= tol
	}
}

// Model is a minimization over binary variables.
type Model struct {
	Name        string       `json:"name"`
	Vars        []Variable   `json:"vars"`
	Constraints []Constraint `json:"constraints"`
}

// NewModel creates an empty model.
func NewModel(name string) *Model {
	return &Model{Name: name}
}

// AddBinary appends a binary variable and returns its index.
func (m *Model) AddBinary(name string, cost float64) int {
	m.Vars = append(m.Vars, Variable{Name: name, Cost: cost})
	return len(m.Vars) - 1
}

// AddConstraint appends a constraint and returns its index.
func (m *Model) AddConstraint(name string, sense Sense, rhs float64, terms ...Term) int {
	m.Constraints = append(m.Constraints, Constraint{Name: name, Terms: terms, Sense: sense, RHS: rhs})
	return len(m.Constraints) - 1
}

// Validate checks names are unique and terms reference existing variables.
func (m *Model) Validate() error {
	names := make(map[string]bool, len(m.Vars)+len(m.Constraints))
	for _, v := range m.Vars {
		if v.Name == "" || names[v.Name] {
			return fmt.Errorf("model %s: variable name %q empty or duplicated", m.Name, v.Name)
		}
		names[v.Name] = true
	}
	for _, c := range m.Constraints {
		if c.Name == "" || names[c.Name] {
			return fmt.Errorf("model %s: constraint name %q empty or duplicated", m.Name, c.Name)
		}
		names[c.Name] = true
		for _, t := range c.Terms {
			if t.Var < 0 || t.Var >= len(m.Vars) {
				return fmt.Errorf("model %s: constraint %s references variable %d of %d", m.Name, c.Name, t.Var, len(m.Vars))
			}
		}
	}
	return nil
}

// Objective evaluates the objective at values.
func (m *Model) Objective(values []float64) float64 {
	var sum float64
	for i, v := range m.Vars {
		sum += v.Cost * values[i]
	}
	return sum
}

// Violations returns the names of constraints values fails.
func (m *Model) Violations(values []float64, tol float64) []string {
	var out []string
	for _, c := range m.Constraints {
		if !c.Satisfied(values, tol) {
			out = append(out, c.Name)
		}
	}
	return out
}

// VarIndex finds a variable by name.
func (m *Model) VarIndex(name string) (int, bool) {
	for i, v := range m.Vars {
		if v.Name == name {
			return i, true
		}
	}
	return -1, false
}
