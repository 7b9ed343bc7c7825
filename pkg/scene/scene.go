// Package scene exports a sized network as a 3D scene graph for a
// renderer. Scene coordinates are Y-up: the drawing elevation becomes Y
// and the floor-plan Y becomes Z.
package scene

// EntityType identifies the kind of entity.
type EntityType string

const (
	EntityPipe      EntityType = "pipe"
	EntityReservoir EntityType = "reservoir"
	EntityOutlet    EntityType = "outlet"
)

// Vec3 is a 3D vector.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// BoundingBox defines an axis-aligned bounding box.
type BoundingBox struct {
	Min Vec3 `json:"min"`
	Max Vec3 `json:"max"`
}

// Entity is a single element in the scene graph. Pipes are cylinders
// along their local Z axis; Rotation turns that axis onto the segment.
type Entity struct {
	ID         string         `json:"id"`
	Type       EntityType     `json:"type"`
	Position   Vec3           `json:"position"`
	Dimensions Vec3           `json:"dimensions"`
	Rotation   [4]float64     `json:"rotation"` // quaternion [x, y, z, w]
	Material   string         `json:"material"`
	Diameter   string         `json:"diameter,omitempty"`
	Level      string         `json:"level"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Children   []string       `json:"children,omitempty"`
}

// Graph is the scene graph of one projected assignment.
type Graph struct {
	Metadata Metadata `json:"metadata"`
	Entities []Entity `json:"entities"`
	Groups   Groups   `json:"groups"`
}

// Metadata holds scene-level information.
type Metadata struct {
	Project     string      `json:"project"`
	RunID       string      `json:"run_id,omitempty"`
	Origin      string      `json:"origin"`
	GeneratedAt string      `json:"generated_at"`
	Bounds      BoundingBox `json:"bounds"`
}

// Groups organizes entity IDs by various axes for fast filtering.
type Groups struct {
	Diameters   map[string][]string     `json:"diameters"`
	Levels      map[string][]string     `json:"levels"`
	EntityTypes map[EntityType][]string `json:"entity_types"`
	// Deficient lists outlets below their required pressure.
	Deficient []string `json:"deficient"`
}

// NewGraph creates an empty scene graph.
func NewGraph() *Graph {
	return &Graph{
		Entities: []Entity{},
		Groups: Groups{
			Diameters:   make(map[string][]string),
			Levels:      make(map[string][]string),
			EntityTypes: make(map[EntityType][]string),
			Deficient:   []string{},
		},
	}
}

// Entity returns the entity with the given ID.
func (g *Graph) Entity(id string) (Entity, bool) {
	for _, e := range g.Entities {
		if e.ID == id {
			return e, true
		}
	}
	return Entity{}, false
}

// PipeID and NodeID name the entities built for segments and nodes.
func PipeID(segmentID string) string { return "pipe-" + segmentID }
func NodeID(nodeID string) string    { return "node-" + nodeID }
