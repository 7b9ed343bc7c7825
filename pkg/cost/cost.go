package cost

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/network"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/tables"
)

// MoneyPlaces is the rounding applied to reported amounts.
const MoneyPlaces = 2

// Breakdown itemizes the material cost of one segment.
type Breakdown struct {
	Pipe     decimal.Decimal `json:"pipe"`
	Fittings decimal.Decimal `json:"fittings"`
	// Reducer is the reducer fitted where the parent segment changes
	// diameter into this one.
	Reducer  decimal.Decimal `json:"reducer"`
	Total    decimal.Decimal `json:"total"`
	// Unpriced lists fitting kinds with no row in the price table.
	Unpriced []tables.FittingKind `json:"unpriced,omitempty"`
}

// Pricing prices segments. Fitting prices are only added when
// IncludeFittings is set.
type Pricing struct {
	Tables          *tables.Tables
	IncludeFittings bool
}

// Segment returns the cost of building seg with option o.
func (p Pricing) Segment(seg network.Segment, o tables.DiameterOption) Breakdown {
	b := Breakdown{Pipe: o.UnitPrice.Mul(decimal.NewFromFloat(seg.Length))}
	b.Fittings = decimal.Zero
	b.Reducer = decimal.Zero
	if p.IncludeFittings && p.Tables != nil {
		for _, f := range seg.Fittings {
			price, ok := p.Tables.FittingPrice(f, o.Nominal)
			if !ok {
				b.Unpriced = append(b.Unpriced, f)
				continue
			}
			b.Fittings = b.Fittings.Add(price)
		}
	}
	b.Total = b.Pipe.Add(b.Fittings)
	return b
}

// Reducer returns the price of the reducer between a parent built with
// from and a child built with to. needed is false when no reducer sits
// there; ok is false when the pair has no reducer row.
func (p Pricing) Reducer(from, to tables.DiameterOption) (price decimal.Decimal, needed, ok bool) {
	if p.Tables == nil {
		return decimal.Zero, false, true
	}
	r, needed, ok := p.Tables.Reducer(from, to)
	if !needed || !ok {
		return decimal.Zero, needed, ok
	}
	return r.UnitPrice, true, true
}

// Objective returns the segment cost as a float for the optimization model.
func (p Pricing) Objective(seg network.Segment, o tables.DiameterOption) float64 {
	f, _ := p.Segment(seg, o).Total.Float64()
	return f
}

// Line is one row of a bill of materials.
type Line struct {
	SegmentID string          `json:"segment_id"`
	Nominal   float64         `json:"nominal_mm"`
	Length    float64         `json:"length_m"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Breakdown
}

// DiameterTotal aggregates every line of one nominal diameter.
type DiameterTotal struct {
	Nominal  float64         `json:"nominal_mm"`
	Segments int             `json:"segments"`
	Length   float64         `json:"length_m"`
	Cost     decimal.Decimal `json:"cost"`
}

// Report is the bill of materials of an assignment.
type Report struct {
	Lines      []Line          `json:"lines"`
	ByDiameter []DiameterTotal `json:"by_diameter"`
	Total      decimal.Decimal `json:"total"`
}

// Estimate prices an assignment of one option per segment, in the
// network's traversal order. Segments missing from choice are skipped.
func Estimate(n *network.Network, choice map[string]tables.DiameterOption, p Pricing) *Report {
	r := &Report{Total: decimal.Zero}
	totals := make(map[float64]*DiameterTotal)
	for _, s := range n.Segments() {
		o, ok := choice[s.ID]
		if !ok {
			continue
		}
		b := p.Segment(s, o)
		if par, ok := n.Parent(s.ID); ok {
			if po, ok := choice[par.ID]; ok {
				if price, needed, has := p.Reducer(po, o); needed && has {
					b.Reducer = price
					b.Total = b.Total.Add(price)
				}
			}
		}
		r.Lines = append(r.Lines, Line{
			SegmentID: s.ID,
			Nominal:   o.Nominal,
			Length:    s.Length,
			UnitPrice: o.UnitPrice,
			Breakdown: b,
		})
		r.Total = r.Total.Add(b.Total)

		t, ok := totals[o.Nominal]
		if !ok {
			t = &DiameterTotal{Nominal: o.Nominal, Cost: decimal.Zero}
			totals[o.Nominal] = t
		}
		t.Segments++
		t.Length += s.Length
		t.Cost = t.Cost.Add(b.Total)
	}
	for _, t := range totals {
		r.ByDiameter = append(r.ByDiameter, *t)
	}
	sort.Slice(r.ByDiameter, func(i, j int) bool { return r.ByDiameter[i].Nominal < r.ByDiameter[j].Nominal })
	return r
}

// Round rounds an amount to MoneyPlaces.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}
