package spec

import "time"

// ProjectSpec is the top-level description of one sizing project.
type ProjectSpec struct {
	SpecVersion string        `yaml:"spec_version" json:"spec_version" validate:"required"`
	Name        string        `yaml:"name" json:"name" validate:"required"`
	Network     NetworkDef    `yaml:"network" json:"network"`
	Tables      TablesDef     `yaml:"tables" json:"tables"`
	Hydraulics  HydraulicsDef `yaml:"hydraulics" json:"hydraulics"`
	Sizing      SizingDef     `yaml:"sizing" json:"sizing"`
	Solver      SolverDef     `yaml:"solver" json:"solver"`
	Report      ReportDef     `yaml:"report" json:"report"`

	// Dir is the directory relative paths resolve against.
	Dir string `yaml:"-" json:"-"`
}

// NetworkDef names the topology source. Exactly one of Drawing and File
// is set.
type NetworkDef struct {
	Drawing   string  `yaml:"drawing" json:"drawing,omitempty" validate:"required_without=File,excluded_with=File"`
	File      string  `yaml:"file" json:"file,omitempty" validate:"required_without=Drawing"`
	Material  string  `yaml:"material" json:"material"`
	ExtraHead float64 `yaml:"extra_head_m" json:"extra_head_m" validate:"gte=0"`
	Tolerance float64 `yaml:"tolerance_m" json:"tolerance_m" validate:"gte=0"`
}

// TablesDef points at the reference table CSV files.
type TablesDef struct {
	Fixtures      string `yaml:"fixtures" json:"fixtures" validate:"required"`
	Diameters     string `yaml:"diameters" json:"diameters" validate:"required"`
	Fittings      string `yaml:"fittings" json:"fittings" validate:"required"`
	FittingPrices string `yaml:"fitting_prices" json:"fitting_prices,omitempty"`
	// Reductions enables reducers between segments of different diameters.
	Reductions string `yaml:"reductions" json:"reductions,omitempty"`
	// Meters switches water meter losses to the flow-based formula.
	Meters string `yaml:"meters" json:"meters,omitempty"`
}

type HydraulicsDef struct {
	DemandCoefficient float64 `yaml:"demand_coefficient" json:"demand_coefficient" validate:"gte=0"`
	MaxVelocity       float64 `yaml:"max_velocity" json:"max_velocity" validate:"gte=0"`
	FrictionModel     string  `yaml:"friction_model" json:"friction_model" validate:"omitempty,oneof=fair-whipple-hsiao darcy-weisbach"`
	Roughness         float64 `yaml:"roughness_m" json:"roughness_m" validate:"gte=0"`
	Viscosity         float64 `yaml:"kinematic_viscosity" json:"kinematic_viscosity" validate:"gte=0"`
	StaticLimit       float64 `yaml:"static_pressure_limit_m" json:"static_pressure_limit_m" validate:"gte=0"`
}

type SizingDef struct {
	// ExtraCandidates is k, the number of diameters offered above the
	// smallest admissible one. Nil means the default.
	ExtraCandidates     *int `yaml:"extra_candidates" json:"extra_candidates" validate:"omitempty,gte=0,lte=8"`
	NonIncreasing       bool `yaml:"non_increasing_diameters" json:"non_increasing_diameters"`
	IncludeFittingCosts bool `yaml:"include_fitting_costs" json:"include_fitting_costs"`
}

type SolverDef struct {
	Backend   string  `yaml:"backend" json:"backend" validate:"omitempty,oneof=branch-and-bound cbc"`
	CBCPath   string  `yaml:"cbc_path" json:"cbc_path,omitempty"`
	TimeLimit float64 `yaml:"time_limit_s" json:"time_limit_s" validate:"gte=0"`
}

// Timeout returns the solver wall-clock budget.
func (s SolverDef) Timeout() time.Duration {
	return time.Duration(s.TimeLimit * float64(time.Second))
}

type ReportDef struct {
	MarginBin   float64 `yaml:"margin_bin_m" json:"margin_bin_m" validate:"gte=0"`
	VelocityBin float64 `yaml:"velocity_bin_m_s" json:"velocity_bin_m_s" validate:"gte=0"`
}
