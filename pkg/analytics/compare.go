package analytics

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/cost"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/projection"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/validation"
)

// DiameterRow aggregates length and cost of one nominal diameter in both
// assignments.
type DiameterRow struct {
	Nominal         float64         `json:"nominal_mm"`
	OptimizedLength float64         `json:"optimized_length_m"`
	OptimizedCost   decimal.Decimal `json:"optimized_cost"`
	ManualLength    float64         `json:"manual_length_m"`
	ManualCost      decimal.Decimal `json:"manual_cost"`
}

// VelocityPair compares one segment across both assignments.
type VelocityPair struct {
	SegmentID        string  `json:"segment_id"`
	OptimizedNominal float64 `json:"optimized_nominal_mm"`
	OptimizedSpeed   float64 `json:"optimized_velocity_m_s"`
	ManualNominal    float64 `json:"manual_nominal_mm"`
	ManualSpeed      float64 `json:"manual_velocity_m_s"`
}

// Comparison is the side-by-side evaluation of two assignments of the same
// network.
type Comparison struct {
	Optimized  *MarginReport  `json:"optimized"`
	Manual     *MarginReport  `json:"manual"`
	Diameters  []DiameterRow  `json:"diameters"`
	Velocities []VelocityPair `json:"velocities"` // traversal order

	OptimizedVelocity Histogram `json:"optimized_velocity_histogram"`
	ManualVelocity    Histogram `json:"manual_velocity_histogram"`

	OptimizedCost decimal.Decimal `json:"optimized_cost"`
	ManualCost    decimal.Decimal `json:"manual_cost"`
	// CostDifference is manual minus optimized.
	CostDifference decimal.Decimal `json:"cost_difference"`
}

// Compare evaluates opt against man. Both must project the same network.
// A manual assignment that misses outlet pressures is compared, not
// rejected; its shortfalls appear as warnings.
func Compare(opt, man *projection.Result, opts Options) (*Comparison, *validation.Report, error) {
	if len(opt.Segments) != len(man.Segments) {
		return nil, nil, fmt.Errorf("cannot compare assignments of %d and %d segments", len(opt.Segments), len(man.Segments))
	}

	report := validation.NewReport()
	c := &Comparison{
		OptimizedCost:  opt.TotalCost,
		ManualCost:     man.TotalCost,
		CostDifference: man.TotalCost.Sub(opt.TotalCost),
	}
	var r *validation.Report
	c.Optimized, r = Margins(opt, opts)
	report.Merge(r)
	c.Manual, r = Margins(man, opts)
	report.Merge(r)

	optSpeed := make([]float64, len(opt.Segments))
	manSpeed := make([]float64, len(man.Segments))
	for i, s := range opt.Segments {
		m, ok := man.Segment(s.SegmentID)
		if !ok {
			return nil, nil, fmt.Errorf("manual assignment has no segment %s", s.SegmentID)
		}
		c.Velocities = append(c.Velocities, VelocityPair{
			SegmentID:        s.SegmentID,
			OptimizedNominal: s.Nominal,
			OptimizedSpeed:   s.Velocity,
			ManualNominal:    m.Nominal,
			ManualSpeed:      m.Velocity,
		})
		optSpeed[i] = s.Velocity
		manSpeed[i] = m.Velocity
	}
	c.OptimizedVelocity = NewHistogram(optSpeed, opts.velocityBin())
	c.ManualVelocity = NewHistogram(manSpeed, opts.velocityBin())
	c.Diameters = diameterRows(opt.Bill, man.Bill)

	if c.CostDifference.IsNegative() {
		report.AddInfo(validation.Result{
			Level:       validation.LevelHydraulic,
			Message:     fmt.Sprintf("manual assignment is %s cheaper than the optimized one", cost.Round(c.CostDifference.Neg())),
			ActualValue: cost.Round(c.ManualCost).String(),
			Expected:    fmt.Sprintf(">= %s", cost.Round(c.OptimizedCost)),
		})
	}
	return c, report, nil
}

func diameterRows(opt, man *cost.Report) []DiameterRow {
	rows := map[float64]*DiameterRow{}
	row := func(nominal float64) *DiameterRow {
		r, ok := rows[nominal]
		if !ok {
			r = &DiameterRow{Nominal: nominal, OptimizedCost: decimal.Zero, ManualCost: decimal.Zero}
			rows[nominal] = r
		}
		return r
	}
	for _, t := range opt.ByDiameter {
		r := row(t.Nominal)
		r.OptimizedLength = t.Length
		r.OptimizedCost = t.Cost
	}
	for _, t := range man.ByDiameter {
		r := row(t.Nominal)
		r.ManualLength = t.Length
		r.ManualCost = t.Cost
	}
	out := make([]DiameterRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nominal < out[j].Nominal })
	return out
}
