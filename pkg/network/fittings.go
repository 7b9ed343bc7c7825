package network

import (
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/geo"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/tables"
)

// Direction changes below this angle (degrees) need no fitting.
const straightTolerance = 10.0

// DetectFittings infers the fittings at the upstream end of every segment
// from the drawing geometry: an entrance on segments leaving the source, a
// tee where a node feeds two or more segments (straight passage when the
// segment continues the feeding segment, side outlet otherwise) and an
// elbow wherever a single run changes direction.
func DetectFittings(n *Network) map[string][]tables.FittingKind {
	out := make(map[string][]tables.FittingKind)
	src := n.Source().ID
	for _, s := range n.Segments() {
		if s.Upstream == src {
			out[s.ID] = append(out[s.ID], tables.FittingEntrance)
			continue
		}
		parent, ok := n.Parent(s.ID)
		if !ok {
			continue
		}
		defl := geo.Deflection(n.direction(parent), n.direction(s))
		if len(n.Children(s.Upstream)) >= 2 {
			if defl < straightTolerance {
				out[s.ID] = append(out[s.ID], tables.FittingTeeStraight)
			} else {
				out[s.ID] = append(out[s.ID], tables.FittingTeeSide)
			}
			continue
		}
		switch {
		case defl < straightTolerance:
		case defl < 67.5:
			out[s.ID] = append(out[s.ID], tables.FittingElbow45)
		default:
			out[s.ID] = append(out[s.ID], tables.FittingElbow90)
		}
	}
	return out
}

func (n *Network) direction(s Segment) geo.Point3D {
	up, _ := n.Node(s.Upstream)
	down, _ := n.Node(s.Downstream)
	return down.Position.Sub(up.Position)
}

// WithFittings returns a copy of the network whose segments carry the
// extra fittings appended to their own.
func (n *Network) WithFittings(extra map[string][]tables.FittingKind) (*Network, error) {
	segs := make([]Segment, len(n.segments))
	for i, s := range n.segments {
		s.Fittings = append(append([]tables.FittingKind(nil), s.Fittings...), extra[s.ID]...)
		segs[i] = s
	}
	return New(n.nodes, segs)
}
