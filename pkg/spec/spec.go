package spec

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectFile is the file LoadProject looks for.
const ProjectFile = "project.yaml"

// Defaults applied to unset fields.
const (
	DefaultMaterial          = "pvc"
	DefaultDemandCoefficient = 0.3 // L/s
	DefaultMaxVelocity       = 3.0 // m/s
	DefaultFrictionModel     = "fair-whipple-hsiao"
	DefaultRoughness         = 6e-5 // m
	DefaultViscosity         = 1e-6 // m²/s
	DefaultStaticLimit       = 40.0 // m
	DefaultExtraCandidates   = 1
	DefaultTolerance         = 0.01 // m
	DefaultBackend           = "branch-and-bound"
	DefaultTimeLimit         = 60.0 // s
	DefaultMarginBin         = 0.5  // m
	DefaultVelocityBin       = 0.25 // m/s
)

// Load reads a project spec from a YAML file and applies defaults.
func Load(path string) (*ProjectSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading spec file: %w", err)
	}

	s, err := Parse(data)
	if err != nil {
		return nil, err
	}
	s.Dir = filepath.Dir(path)
	return s, nil
}

// Parse decodes a project spec and applies defaults. Relative paths
// resolve against the working directory until Dir is set.
func Parse(data []byte) (*ProjectSpec, error) {
	var s ProjectSpec
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing spec YAML: %w", err)
	}
	s.ApplyDefaults()
	return &s, nil
}

// LoadProject loads the project spec of a project directory.
// It looks for project.yaml in the given directory.
func LoadProject(projectDir string) (*ProjectSpec, error) {
	return Load(filepath.Join(projectDir, ProjectFile))
}

// ApplyDefaults fills unset fields.
func (s *ProjectSpec) ApplyDefaults() {
	if s.Network.Material == "" {
		s.Network.Material = DefaultMaterial
	}
	if s.Network.Tolerance == 0 {
		s.Network.Tolerance = DefaultTolerance
	}
	h := &s.Hydraulics
	if h.DemandCoefficient == 0 {
		h.DemandCoefficient = DefaultDemandCoefficient
	}
	if h.MaxVelocity == 0 {
		h.MaxVelocity = DefaultMaxVelocity
	}
	if h.FrictionModel == "" {
		h.FrictionModel = DefaultFrictionModel
	}
	if h.Roughness == 0 {
		h.Roughness = DefaultRoughness
	}
	if h.Viscosity == 0 {
		h.Viscosity = DefaultViscosity
	}
	if h.StaticLimit == 0 {
		h.StaticLimit = DefaultStaticLimit
	}
	if s.Sizing.ExtraCandidates == nil {
		k := DefaultExtraCandidates
		s.Sizing.ExtraCandidates = &k
	}
	if s.Solver.Backend == "" {
		s.Solver.Backend = DefaultBackend
	}
	if s.Solver.TimeLimit == 0 {
		s.Solver.TimeLimit = DefaultTimeLimit
	}
	if s.Report.MarginBin == 0 {
		s.Report.MarginBin = DefaultMarginBin
	}
	if s.Report.VelocityBin == 0 {
		s.Report.VelocityBin = DefaultVelocityBin
	}
}

// Extra returns the number of extra candidates per segment.
func (s *ProjectSpec) Extra() int {
	if s.Sizing.ExtraCandidates == nil {
		return DefaultExtraCandidates
	}
	return *s.Sizing.ExtraCandidates
}

// Resolve turns a path from the project file into one usable from the
// working directory. Empty and absolute paths are returned unchanged.
func (s *ProjectSpec) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.Dir, p)
}
