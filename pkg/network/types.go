package network

import (
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/geo"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/tables"
)

// Role is the hydraulic role of a node.
type Role string

const (
	RoleSource   Role = "source"
	RoleJunction Role = "junction"
	RoleOutlet   Role = "outlet"
)

// Fixture is the consumption point attached to an outlet node.
type Fixture struct {
	Code        string  `json:"code"`
	Label       string  `json:"label"` // drawing text, e.g. "ch2"
	Weight      float64 `json:"weight"`
	MinPressure float64 `json:"min_pressure_m"`
}

// Node is a point of the network. Position.Z is the elevation.
type Node struct {
	ID       string      `json:"id"`
	Position geo.Point3D `json:"position"`
	Role     Role        `json:"role"`
	Fixture  *Fixture    `json:"fixture,omitempty"`
	// Head is the water level above the node, only meaningful for the source.
	Head float64 `json:"head,omitempty"`
}

// Elevation returns the node height in metres.
func (n Node) Elevation() float64 {
	return n.Position.Z
}

// Weight returns the fixture demand weight, zero for non-outlets.
func (n Node) Weight() float64 {
	if n.Fixture == nil {
		return 0
	}
	return n.Fixture.Weight
}

// Segment is a pipe run from Upstream to Downstream.
type Segment struct {
	ID         string               `json:"id"`
	Upstream   string               `json:"upstream"`
	Downstream string               `json:"downstream"`
	Length     float64              `json:"length_m"`
	Material   string               `json:"material"`
	Fittings   []tables.FittingKind `json:"fittings,omitempty"`
}

// FittingCount tallies the fittings of a segment by kind.
func (s Segment) FittingCount() map[tables.FittingKind]int {
	out := make(map[tables.FittingKind]int, len(s.Fittings))
	for _, f := range s.Fittings {
		out[f]++
	}
	return out
}

// Source produces a network from an external topology description.
type Source interface {
	Load(ref *tables.Tables) (*Network, error)
}
