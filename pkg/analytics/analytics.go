// Package analytics summarizes projected assignments: the distribution of
// pressure margins at the outlets and the side-by-side comparison of an
// optimized and a manual assignment.
package analytics

import (
	"fmt"

	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/projection"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/validation"
)

// Default bin widths.
const (
	DefaultMarginBin   = 0.5  // m
	DefaultVelocityBin = 0.25 // m/s
)

// Options sets the histogram bin widths. Zero values use the defaults.
type Options struct {
	MarginBin   float64
	VelocityBin float64
}

func (o Options) marginBin() float64 {
	if o.MarginBin > 0 {
		return o.MarginBin
	}
	return DefaultMarginBin
}

func (o Options) velocityBin() float64 {
	if o.VelocityBin > 0 {
		return o.VelocityBin
	}
	return DefaultVelocityBin
}

// MarginReport is the margin distribution of one assignment.
type MarginReport struct {
	Origin    projection.Origin         `json:"origin"`
	Outlets   []projection.OutletResult `json:"outlets"`
	Summary   Summary                   `json:"summary"`
	Histogram Histogram                 `json:"histogram"`
	Deficient int                       `json:"deficient"` // outlets with negative margin
}

// Margins builds the margin distribution of r. Negative margins are
// reported as hydraulic warnings for a manual assignment; on an optimized
// assignment they mean the model and the projection disagree and are
// reported as errors.
func Margins(r *projection.Result, opts Options) (*MarginReport, *validation.Report) {
	report := validation.NewReport()

	margins := make([]float64, len(r.Outlets))
	for i, o := range r.Outlets {
		margins[i] = o.Margin
	}
	m := &MarginReport{
		Origin:    r.Origin,
		Outlets:   r.Outlets,
		Summary:   Summarize(margins),
		Histogram: NewHistogram(margins, opts.marginBin()),
	}

	for _, o := range r.Deficient() {
		m.Deficient++
		res := validation.Result{
			Level:       validation.LevelHydraulic,
			Message:     fmt.Sprintf("outlet %s (%s): residual pressure %.2f m is below the required %.2f m", o.NodeID, o.Fixture, o.Residual, o.Required),
			Element:     o.NodeID,
			ActualValue: o.Margin,
			Expected:    ">= 0 m margin",
		}
		if r.Origin == projection.OriginOptimized {
			report.AddError(res)
			continue
		}
		res.Suggestions = []string{"Increase the diameters along the path to this outlet"}
		report.AddWarning(res)
	}
	for _, s := range r.Segments {
		if !s.MissingReducer {
			continue
		}
		up := "the source"
		for _, p := range r.Segments {
			if p.Downstream == s.Upstream {
				up = fmt.Sprintf("DN%g", p.Nominal)
				break
			}
		}
		report.AddWarning(validation.Result{
			Level:       validation.LevelHydraulic,
			Message:     fmt.Sprintf("segment %s: no reducer from %s to DN%g", s.SegmentID, up, s.Nominal),
			Element:     s.SegmentID,
			Suggestions: []string{"Use the parent diameter or add the reducer to the reductions table"},
		})
	}
	return m, report
}
