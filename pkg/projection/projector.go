package projection

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/cost"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/demand"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/hydraulics"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/network"
)

// SegmentResult is one row of the sizing report.
type SegmentResult struct {
	SegmentID        string          `json:"segment_id"`
	Upstream         string          `json:"upstream"`
	Downstream       string          `json:"downstream"`
	Length           float64         `json:"length_m"`
	Weight           float64         `json:"weight"`
	Flow             float64         `json:"flow_l_s"`
	PriceCode        string          `json:"price_code"`
	Nominal          float64         `json:"nominal_mm"`
	Internal         float64         `json:"internal_mm"`
	Velocity         float64         `json:"velocity_m_s"`
	Gradient         float64         `json:"gradient_m_m"`
	EquivalentLength float64         `json:"equivalent_length_m"`
	ReducerLoss      float64         `json:"reducer_loss_m,omitempty"`
	Loss             float64         `json:"loss_m"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	ReducerCost      decimal.Decimal `json:"reducer_cost"`
	Cost             decimal.Decimal `json:"cost"`
	// MissingReducer is set when the diameter change from the parent
	// segment has no reducer row. Only manual assignments can hit it.
	MissingReducer   bool            `json:"missing_reducer,omitempty"`
}

// OutletResult is the pressure balance at one outlet. Margin is negative
// when the assignment does not deliver the required pressure.
type OutletResult struct {
	NodeID    string  `json:"node_id"`
	Fixture   string  `json:"fixture"`
	Elevation float64 `json:"elevation_m"`
	Static    float64 `json:"static_m"`
	PathLoss  float64 `json:"path_loss_m"`
	Residual  float64 `json:"residual_m"`
	Required  float64 `json:"required_m"`
	Margin    float64 `json:"margin_m"`
}

// Result is an assignment projected onto the network.
type Result struct {
	Origin    Origin          `json:"origin"`
	Segments  []SegmentResult `json:"segments"` // traversal order
	Outlets   []OutletResult  `json:"outlets"`
	Bill      *cost.Report    `json:"bill"`
	TotalCost decimal.Decimal `json:"total_cost"`
}

// OptimizedTolerance is how far below zero an optimized margin may fall
// before it counts as deficient. Solvers only meet their rows to within
// about 1e-7.
const OptimizedTolerance = 1e-6

// Deficient returns the outlets whose margin is negative.
func (r *Result) Deficient() []OutletResult {
	limit := 0.0
	if r.Origin == OriginOptimized {
		limit = -OptimizedTolerance
	}
	var out []OutletResult
	for _, o := range r.Outlets {
		if o.Margin < limit {
			out = append(out, o)
		}
	}
	return out
}

// Segment looks up the row of one segment.
func (r *Result) Segment(id string) (SegmentResult, bool) {
	for _, s := range r.Segments {
		if s.SegmentID == id {
			return s, true
		}
	}
	return SegmentResult{}, false
}

// Projector recomputes velocities, losses, pressures and costs for an
// assignment from the physical model.
type Projector struct {
	Evaluator hydraulics.Evaluator
	Pricing   cost.Pricing
}

// Project maps a onto n. The assignment must cover every segment; outlets
// that fall short of their minimum pressure are reported, not rejected.
func (p Projector) Project(n *network.Network, flows map[string]demand.Flow, a Assignment) (*Result, error) {
	if err := a.Covers(n); err != nil {
		return nil, err
	}

	r := &Result{Origin: a.Origin}
	loss := make(map[string]float64, len(n.Segments()))
	for _, s := range n.Segments() {
		o := a.Options[s.ID]
		f := flows[s.ID]
		l, err := p.Evaluator.Evaluate(s, f.Flow, o)
		if err != nil {
			return nil, fmt.Errorf("projecting %s assignment: %w", a.Origin, err)
		}
		row := SegmentResult{
			SegmentID:        s.ID,
			Upstream:         s.Upstream,
			Downstream:       s.Downstream,
			Length:           s.Length,
			Weight:           f.Weight,
			Flow:             f.FlowLS(),
			PriceCode:        o.PriceCode,
			Nominal:          o.Nominal,
			Internal:         o.Internal * 1000,
			Velocity:         o.Velocity(f.Flow),
			Gradient:         l.Gradient,
			EquivalentLength: l.EquivalentLength,
			Loss:             l.Total,
			UnitPrice:        o.UnitPrice,
			ReducerCost:      decimal.Zero,
			Cost:             p.Pricing.Segment(s, o).Total,
		}
		if par, ok := n.Parent(s.ID); ok {
			po := a.Options[par.ID]
			rl, needed, has := p.Evaluator.Transition(po, o, f.Flow)
			row.MissingReducer = needed && !has
			if price, needed, has := p.Pricing.Reducer(po, o); needed && has {
				row.ReducerCost = price
				row.Cost = row.Cost.Add(price)
			}
			row.ReducerLoss = rl
			row.Loss += rl
		}
		loss[s.ID] = row.Loss
		r.Segments = append(r.Segments, row)
	}

	for _, o := range n.Outlets() {
		var pathLoss float64
		for _, s := range n.PathTo(o.ID) {
			pathLoss += loss[s.ID]
		}
		static := n.StaticPressure(o.ID)
		residual := static - pathLoss
		r.Outlets = append(r.Outlets, OutletResult{
			NodeID:    o.ID,
			Fixture:   o.Fixture.Code,
			Elevation: o.Elevation(),
			Static:    static,
			PathLoss:  pathLoss,
			Residual:  residual,
			Required:  o.Fixture.MinPressure,
			Margin:    residual - o.Fixture.MinPressure,
		})
	}

	r.Bill = cost.Estimate(n, a.Options, p.Pricing)
	r.TotalCost = r.Bill.Total
	return r, nil
}
