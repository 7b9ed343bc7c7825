package scene

import (
	"fmt"
	"math"
	"time"

	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/geo"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/network"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/projection"
)

const (
	reservoirSize = 1.0  // m
	outletSize    = 0.15 // m
)

// Assemble converts a projected assignment into a scene graph. r must be
// a projection of n.
func Assemble(project, runID string, n *network.Network, r *projection.Result) *Graph {
	g := NewGraph()

	assembleReservoir(n, g)
	assemblePipes(n, r, g)
	assembleOutlets(n, r, g)

	g.Metadata = Metadata{
		Project:     project,
		RunID:       runID,
		Origin:      string(r.Origin),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Bounds:      computeBounds(g.Entities),
	}

	return g
}

func assembleReservoir(n *network.Network, g *Graph) {
	src := n.Source()
	addEntity(g, Entity{
		ID:         NodeID(src.ID),
		Type:       EntityReservoir,
		Position:   toScene(src.Position),
		Dimensions: Vec3{X: reservoirSize, Y: reservoirSize, Z: reservoirSize},
		Rotation:   identityQuat(),
		Material:   "water",
		Level:      levelOf(src.Elevation()),
		Metadata: map[string]any{
			"head_m":  src.Head,
			"grade_m": n.SourceGrade(),
		},
	})
}

func assemblePipes(n *network.Network, r *projection.Result, g *Graph) {
	for _, res := range r.Segments {
		seg, ok := n.Segment(res.SegmentID)
		if !ok {
			continue
		}
		up, _ := n.Node(seg.Upstream)
		down, _ := n.Node(seg.Downstream)
		a, b := toScene(up.Position), toScene(down.Position)
		dir := Vec3{X: b.X - a.X, Y: b.Y - a.Y, Z: b.Z - a.Z}

		var children []string
		for _, c := range n.Children(seg.Downstream) {
			children = append(children, PipeID(c.ID))
		}
		fittings := make([]string, len(seg.Fittings))
		for i, f := range seg.Fittings {
			fittings[i] = string(f)
		}

		addEntity(g, Entity{
			ID:   PipeID(seg.ID),
			Type: EntityPipe,
			Position: Vec3{
				X: (a.X + b.X) / 2,
				Y: (a.Y + b.Y) / 2,
				Z: (a.Z + b.Z) / 2,
			},
			Dimensions: Vec3{
				X: res.Internal / 1000,
				Y: res.Internal / 1000,
				Z: math.Sqrt(dir.X*dir.X + dir.Y*dir.Y + dir.Z*dir.Z),
			},
			Rotation: alignQuat(dir),
			Material: seg.Material,
			Diameter: fmt.Sprintf("DN%g", res.Nominal),
			Level:    levelOf(down.Elevation()),
			Metadata: map[string]any{
				"segment_id":   seg.ID,
				"length_m":     res.Length,
				"flow_l_s":     res.Flow,
				"velocity_m_s": res.Velocity,
				"loss_m":       res.Loss,
				"cost":         res.Cost.StringFixed(2),
				"fittings":     fittings,
			},
			Children: children,
		})
	}
}

func assembleOutlets(n *network.Network, r *projection.Result, g *Graph) {
	deficient := make(map[string]bool)
	for _, o := range r.Deficient() {
		deficient[o.NodeID] = true
	}
	for _, o := range r.Outlets {
		node, ok := n.Node(o.NodeID)
		if !ok {
			continue
		}
		id := NodeID(o.NodeID)
		addEntity(g, Entity{
			ID:         id,
			Type:       EntityOutlet,
			Position:   toScene(node.Position),
			Dimensions: Vec3{X: outletSize, Y: outletSize, Z: outletSize},
			Rotation:   identityQuat(),
			Material:   o.Fixture,
			Level:      levelOf(o.Elevation),
			Metadata: map[string]any{
				"fixture":    node.Fixture.Label,
				"static_m":   o.Static,
				"residual_m": o.Residual,
				"required_m": o.Required,
				"margin_m":   o.Margin,
			},
		})
		if deficient[o.NodeID] {
			g.Groups.Deficient = append(g.Groups.Deficient, id)
		}
	}
}

// addEntity appends an entity and updates all group indices.
func addEntity(g *Graph, e Entity) {
	g.Entities = append(g.Entities, e)
	id := e.ID

	if e.Diameter != "" {
		g.Groups.Diameters[e.Diameter] = append(g.Groups.Diameters[e.Diameter], id)
	}
	g.Groups.Levels[e.Level] = append(g.Groups.Levels[e.Level], id)
	g.Groups.EntityTypes[e.Type] = append(g.Groups.EntityTypes[e.Type], id)
}

// computeBounds calculates an AABB enclosing every entity whatever its
// rotation.
func computeBounds(entities []Entity) BoundingBox {
	if len(entities) == 0 {
		return BoundingBox{}
	}
	minV := Vec3{X: math.MaxFloat64, Y: math.MaxFloat64, Z: math.MaxFloat64}
	maxV := Vec3{X: -math.MaxFloat64, Y: -math.MaxFloat64, Z: -math.MaxFloat64}

	for _, e := range entities {
		half := math.Max(e.Dimensions.X, math.Max(e.Dimensions.Y, e.Dimensions.Z)) / 2
		minV.X = math.Min(minV.X, e.Position.X-half)
		minV.Y = math.Min(minV.Y, e.Position.Y-half)
		minV.Z = math.Min(minV.Z, e.Position.Z-half)
		maxV.X = math.Max(maxV.X, e.Position.X+half)
		maxV.Y = math.Max(maxV.Y, e.Position.Y+half)
		maxV.Z = math.Max(maxV.Z, e.Position.Z+half)
	}
	return BoundingBox{Min: minV, Max: maxV}
}

func toScene(p geo.Point3D) Vec3 {
	return Vec3{X: p.X, Y: p.Z, Z: p.Y}
}

func levelOf(elevation float64) string {
	return fmt.Sprintf("%.2f", elevation)
}

func identityQuat() [4]float64 {
	return [4]float64{0, 0, 0, 1}
}

// alignQuat returns the rotation taking +Z onto dir.
func alignQuat(dir Vec3) [4]float64 {
	l := math.Sqrt(dir.X*dir.X + dir.Y*dir.Y + dir.Z*dir.Z)
	if l < 1e-12 {
		return identityQuat()
	}
	x, y, z := dir.X/l, dir.Y/l, dir.Z/l
	if z < -1+1e-12 {
		return [4]float64{1, 0, 0, 0}
	}
	// Half-way quaternion: axis Z×dir, w = 1 + Z·dir, then normalized.
	cx, cy, w := -y, x, 1+z
	norm := math.Sqrt(cx*cx + cy*cy + w*w)
	return [4]float64{cx / norm, cy / norm, 0, w / norm}
}
