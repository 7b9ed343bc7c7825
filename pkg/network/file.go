package network

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/geo"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/tables"
)

// FileNetwork is an explicit network description.
type FileNetwork struct {
	Nodes    []FileNode    `yaml:"nodes" json:"nodes"`
	Segments []FileSegment `yaml:"segments" json:"segments"`
}

type FileNode struct {
	ID        string    `yaml:"id" json:"id"`
	Position  []float64 `yaml:"position,omitempty" json:"position,omitempty"`
	Elevation *float64  `yaml:"elevation,omitempty" json:"elevation,omitempty"`
	Source    bool      `yaml:"source,omitempty" json:"source,omitempty"`
	Head      float64   `yaml:"head,omitempty" json:"head,omitempty"`
	Fixture   string    `yaml:"fixture,omitempty" json:"fixture,omitempty"`
}

type FileSegment struct {
	ID         string   `yaml:"id" json:"id"`
	Upstream   string   `yaml:"from" json:"from"`
	Downstream string   `yaml:"to" json:"to"`
	Length     float64  `yaml:"length,omitempty" json:"length,omitempty"`
	Material   string   `yaml:"material,omitempty" json:"material,omitempty"`
	Fittings   []string `yaml:"fittings,omitempty" json:"fittings,omitempty"`
}

// LoadFileNetwork reads an explicit network from a YAML file.
func LoadFileNetwork(path string) (*FileNetwork, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading network file: %w", err)
	}
	var fn FileNetwork
	if err := yaml.Unmarshal(data, &fn); err != nil {
		return nil, fmt.Errorf("parsing network YAML: %w", err)
	}
	return &fn, nil
}

// FileSource builds a network from a FileNetwork. Segments without a
// length take the distance between their node positions; segments without
// a material take Material.
type FileSource struct {
	Network   *FileNetwork
	Material  string
	ExtraHead float64
}

// Load implements Source.
func (f FileSource) Load(ref *tables.Tables) (*Network, error) {
	if f.Network == nil {
		return nil, topoErr(TopologyMalformed, "", "no network description")
	}
	nodes := make([]Node, 0, len(f.Network.Nodes))
	pos := make(map[string]geo.Point3D, len(f.Network.Nodes))
	for _, fn := range f.Network.Nodes {
		n := Node{ID: fn.ID, Position: geo.FromSlice(fn.Position), Role: RoleJunction}
		if fn.Elevation != nil {
			n.Position.Z = *fn.Elevation
		}
		switch {
		case fn.Source:
			n.Role = RoleSource
			n.Head = fn.Head + f.ExtraHead
		case fn.Fixture != "":
			fx, err := ref.Fixture(strings.ToLower(fn.Fixture))
			if err != nil {
				return nil, topoErr(TopologyMalformed, fn.ID, "%v", err)
			}
			n.Role = RoleOutlet
			n.Fixture = &Fixture{Code: fx.Code, Label: fn.Fixture, Weight: fx.Weight, MinPressure: fx.MinPressure}
		}
		pos[n.ID] = n.Position
		nodes = append(nodes, n)
	}

	segs := make([]Segment, 0, len(f.Network.Segments))
	for _, fs := range f.Network.Segments {
		s := Segment{
			ID:         fs.ID,
			Upstream:   fs.Upstream,
			Downstream: fs.Downstream,
			Length:     fs.Length,
			Material:   fs.Material,
		}
		if s.Material == "" {
			s.Material = f.Material
		}
		if s.Length == 0 {
			s.Length = pos[s.Upstream].Distance(pos[s.Downstream])
		}
		for _, k := range fs.Fittings {
			kind := tables.FittingKind(strings.ToLower(k))
			if !kind.Valid() {
				return nil, topoErr(TopologyMalformed, fs.ID, "unknown fitting %q", k)
			}
			s.Fittings = append(s.Fittings, kind)
		}
		segs = append(segs, s)
	}
	return New(nodes, segs)
}
