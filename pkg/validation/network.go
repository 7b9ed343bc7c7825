package validation

import (
	"fmt"

	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/network"
)

// ValidateNetwork checks a loaded network against the static pressure
// window before sizing. Outlets above staticLimit get a warning; outlets
// whose static pressure is already below their fixture minimum get a
// warning: the sizing model for such a network is infeasible.
func ValidateNetwork(n *network.Network, staticLimit float64) *Report {
	r := NewReport()

	fittings := 0
	for _, s := range n.Segments() {
		fittings += len(s.Fittings)
	}
	r.AddInfo(Result{
		Level:   LevelTopology,
		Message: fmt.Sprintf("%d nodes, %d segments, %d outlets, %d fittings", len(n.Nodes()), len(n.Segments()), len(n.Outlets()), fittings),
	})

	for _, o := range n.Outlets() {
		static := n.StaticPressure(o.ID)
		if staticLimit > 0 && static > staticLimit {
			r.AddWarning(Result{
				Level:       LevelHydraulic,
				Message:     fmt.Sprintf("outlet %s (%s): static pressure %.2f m exceeds %.0f m", o.ID, o.Fixture.Code, static, staticLimit),
				Element:     o.ID,
				ActualValue: static,
				Expected:    fmt.Sprintf("<= %.0f m", staticLimit),
				Suggestions: []string{"Add a pressure-reducing valve upstream of this outlet"},
			})
		}
		if static < o.Fixture.MinPressure {
			r.AddWarning(Result{
				Level:       LevelHydraulic,
				Message:     fmt.Sprintf("outlet %s (%s): static pressure %.2f m is below the required %.2f m", o.ID, o.Fixture.Code, static, o.Fixture.MinPressure),
				Element:     o.ID,
				ActualValue: static,
				Expected:    fmt.Sprintf(">= %.2f m", o.Fixture.MinPressure),
				Suggestions: []string{
					"Raise the reservoir or increase network.extra_head_m",
					"Lower the outlet",
				},
			})
		}
	}
	return r
}
