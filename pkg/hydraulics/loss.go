// Package hydraulics turns every (segment, diameter) pair into a constant
// head loss so that the sizing model stays linear in its binary choices.
package hydraulics

import (
	"fmt"

	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/candidate"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/demand"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/network"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/tables"
)

// Loss is the head loss of a segment at one diameter.
type Loss struct {
	Gradient         float64 `json:"gradient_m_m"`          // friction per metre
	EquivalentLength float64 `json:"equivalent_length_m"`   // fittings
	Meter            float64 `json:"meter_m,omitempty"`     // flow-based water meter loss
	Total            float64 `json:"total_m"`
}

// MeterLoss is the head loss (m) of a water meter of maximum flow qmax
// carrying q, both in m³/s.
func MeterLoss(q, qmax float64) float64 {
	return (10 * q) * (10 * q) / (qmax * qmax * 10)
}

// ReducerLoss is the head loss (m) of a reducer with the given
// coefficient feeding a pipe at velocity v.
func ReducerLoss(coefficient, v float64) float64 {
	return coefficient * v * v
}

// Evaluator computes losses with a fixed friction model and fitting table.
type Evaluator struct {
	Friction FrictionModel
	Tables   *tables.Tables
}

// Evaluate returns the loss of seg carrying flow through option o: the
// friction gradient times the real length plus the equivalent length of
// its fittings at that diameter. A water meter with a capacity row for the
// diameter uses MeterLoss instead of its equivalent length.
func (e Evaluator) Evaluate(seg network.Segment, flow float64, o tables.DiameterOption) (Loss, error) {
	var eq, meter float64
	for _, f := range seg.Fittings {
		if f == tables.FittingMeter {
			if qmax, ok := e.Tables.MeterFlow(o.Nominal, flow); ok {
				meter += MeterLoss(flow, qmax)
				continue
			}
		}
		l, err := e.Tables.EquivalentLength(f, o.Nominal)
		if err != nil {
			return Loss{}, fmt.Errorf("segment %s: %w", seg.ID, err)
		}
		eq += l
	}
	j := e.Friction.Gradient(flow, o.Internal)
	return Loss{Gradient: j, EquivalentLength: eq, Meter: meter, Total: j*(seg.Length+eq) + meter}, nil
}

// Transition returns the reducer loss where a segment built with from
// feeds one built with to carrying flow. needed is false when no reducer
// sits there; ok is false when the pair has no reducer row.
func (e Evaluator) Transition(from, to tables.DiameterOption, flow float64) (loss float64, needed, ok bool) {
	r, needed, ok := e.Tables.Reducer(from, to)
	if !needed || !ok {
		return 0, needed, ok
	}
	return ReducerLoss(r.Coefficient, to.Velocity(flow)), true, true
}

// Annotate returns a copy of sets with every candidate's Loss filled in.
func (e Evaluator) Annotate(n *network.Network, flows map[string]demand.Flow, sets map[string][]candidate.Candidate) (map[string][]candidate.Candidate, error) {
	out := make(map[string][]candidate.Candidate, len(sets))
	for _, s := range n.Segments() {
		cs := sets[s.ID]
		annotated := make([]candidate.Candidate, len(cs))
		for i, c := range cs {
			l, err := e.Evaluate(s, flows[s.ID].Flow, c.Option)
			if err != nil {
				return nil, err
			}
			c.Loss = l.Total
			annotated[i] = c
		}
		out[s.ID] = annotated
	}
	return out, nil
}
