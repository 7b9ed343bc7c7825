package milp

// Status is the outcome reported by a solver.
type Status string

const (
	StatusOptimal    Status = "optimal"
	StatusInfeasible Status = "infeasible"
	StatusUnbounded  Status = "unbounded"
	StatusTimeLimit  Status = "time_limit"
	StatusError      Status = "error"
)

// Solution is a solver's answer. Values is indexed like Model.Vars and is
// only meaningful when Status is StatusOptimal.
type Solution struct {
	Status    Status    `json:"status"`
	Objective float64   `json:"objective"`
	Values    []float64 `json:"values,omitempty"`
	Nodes     int64     `json:"nodes,omitempty"` // search nodes explored, if reported
	Message   string    `json:"message,omitempty"`
}

// Selected returns the indices of variables set to one.
func (s *Solution) Selected() []int {
	var out []int
	for i, v := range s.Values {
		if v > 0.5 {
			out = append(out, i)
		}
	}
	return out
}
