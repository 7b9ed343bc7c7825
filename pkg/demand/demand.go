// Package demand converts fixture demand weights into segment design
// flows using the probable-simultaneous-use relation of NBR 5626:
// Q = C * sqrt(sum of weights).
package demand

import (
	"math"

	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/network"
)

// DefaultCoefficient is C in L/s.
const DefaultCoefficient = 0.3

// Flow is the design load carried by one segment.
type Flow struct {
	SegmentID string  `json:"segment_id"`
	Weight    float64 `json:"weight"`     // cumulative downstream weight
	Flow      float64 `json:"flow_m3_s"`  // design flow
}

// FlowLS returns the design flow in litres per second.
func (f Flow) FlowLS() float64 {
	return f.Flow * 1000
}

// Aggregator computes design flows.
type Aggregator struct {
	Coefficient float64 // L/s; DefaultCoefficient when zero
}

// FlowForWeight converts a cumulative weight into m³/s. Zero weight
// yields zero flow.
func (a Aggregator) FlowForWeight(weight float64) float64 {
	if weight <= 0 {
		return 0
	}
	c := a.Coefficient
	if c <= 0 {
		c = DefaultCoefficient
	}
	return c * math.Sqrt(weight) / 1000
}

// Aggregate returns one Flow per segment, keyed by segment ID. Weights are
// accumulated bottom-up: a segment carries the weights of every outlet in
// the subtree it feeds.
func (a Aggregator) Aggregate(n *network.Network) map[string]Flow {
	segs := n.Segments()
	weights := make(map[string]float64, len(segs))
	// Traversal order is a pre-order, so walking it backwards visits every
	// child before its parent.
	for i := len(segs) - 1; i >= 0; i-- {
		s := segs[i]
		down, _ := n.Node(s.Downstream)
		w := down.Weight()
		for _, c := range n.Children(s.Downstream) {
			w += weights[c.ID]
		}
		weights[s.ID] = w
	}

	out := make(map[string]Flow, len(segs))
	for _, s := range segs {
		w := weights[s.ID]
		out[s.ID] = Flow{SegmentID: s.ID, Weight: w, Flow: a.FlowForWeight(w)}
	}
	return out
}
