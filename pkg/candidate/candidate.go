package candidate

import (
	"errors"
	"fmt"

	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/demand"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/network"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/tables"
)

const (
	// DefaultMaxVelocity is the NBR 5626 ceiling in m/s.
	DefaultMaxVelocity = 3.0
	// DefaultExtra is the number of discretionary sizes above the minimum.
	DefaultExtra = 1
)

// ErrInfeasible matches every *InfeasibleError via errors.Is.
var ErrInfeasible = errors.New("no admissible diameter")

// InfeasibleError names a segment whose design flow exceeds the largest
// option's capacity at the velocity ceiling.
type InfeasibleError struct {
	SegmentID   string
	Material    string
	Flow        float64 // m³/s
	MaxVelocity float64
	Largest     float64 // nominal mm, zero when the material has no options
	Capacity    float64 // m³/s of the largest option
}

func (e *InfeasibleError) Error() string {
	if e.Largest == 0 {
		return fmt.Sprintf("segment %s: no diameter options for material %q", e.SegmentID, e.Material)
	}
	return fmt.Sprintf("segment %s: design flow %.3f L/s exceeds DN %v capacity %.3f L/s at %.2f m/s",
		e.SegmentID, e.Flow*1000, e.Largest, e.Capacity*1000, e.MaxVelocity)
}

func (e *InfeasibleError) Is(target error) bool {
	return target == ErrInfeasible
}

// Candidate is one diameter eligible for one segment. Loss is zero until
// the hydraulic evaluator fills it.
type Candidate struct {
	SegmentID string                `json:"segment_id"`
	Rank      int                   `json:"rank"` // 0 is the mandatory minimum
	Option    tables.DiameterOption `json:"option"`
	Velocity  float64               `json:"velocity_m_s"`
	Loss      float64               `json:"loss_m"`
}

// Generator picks, per segment, the smallest option within the velocity
// ceiling plus Extra larger ones.
type Generator struct {
	MaxVelocity float64
	Extra       int
}

// Generate returns the candidates of one segment in increasing diameter.
// options must be sorted by internal diameter. Zero flow makes the
// smallest option the first candidate.
func (g Generator) Generate(seg network.Segment, flow float64, options []tables.DiameterOption) ([]Candidate, error) {
	vmax := g.MaxVelocity
	if vmax <= 0 {
		vmax = DefaultMaxVelocity
	}
	if len(options) == 0 {
		return nil, &InfeasibleError{SegmentID: seg.ID, Material: seg.Material, Flow: flow, MaxVelocity: vmax}
	}

	first := -1
	for i, o := range options {
		if o.Velocity(flow) <= vmax {
			first = i
			break
		}
	}
	if first < 0 {
		last := options[len(options)-1]
		return nil, &InfeasibleError{
			SegmentID:   seg.ID,
			Material:    seg.Material,
			Flow:        flow,
			MaxVelocity: vmax,
			Largest:     last.Nominal,
			Capacity:    last.Capacity(vmax),
		}
	}

	extra := g.Extra
	if extra < 0 {
		extra = 0
	}
	end := first + 1 + extra
	if end > len(options) {
		end = len(options)
	}
	out := make([]Candidate, 0, end-first)
	for i := first; i < end; i++ {
		out = append(out, Candidate{
			SegmentID: seg.ID,
			Rank:      i - first,
			Option:    options[i],
			Velocity:  options[i].Velocity(flow),
		})
	}
	return out, nil
}

// GenerateAll builds candidate sets for every segment of n. It stops at the
// first infeasible segment in traversal order.
func (g Generator) GenerateAll(n *network.Network, flows map[string]demand.Flow, ref *tables.Tables) (map[string][]Candidate, error) {
	out := make(map[string][]Candidate, len(n.Segments()))
	for _, s := range n.Segments() {
		cs, err := g.Generate(s, flows[s.ID].Flow, ref.Options(s.Material))
		if err != nil {
			return nil, err
		}
		out[s.ID] = cs
	}
	return out, nil
}

// Count returns the total number of candidates across all sets.
func Count(sets map[string][]Candidate) int {
	total := 0
	for _, cs := range sets {
		total += len(cs)
	}
	return total
}
