package tables

import (
	"math"

	"github.com/shopspring/decimal"
)

// Fixture is one row of the fixture demand table.
type Fixture struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`         // relative demand weight
	MinPressure float64 `json:"min_pressure_m"` // metres of water column
}

// DiameterOption is one commercial pipe size.
type DiameterOption struct {
	PriceCode string          `json:"price_code"`
	Material  string          `json:"material"`
	Nominal   float64         `json:"nominal_mm"`
	Internal  float64         `json:"internal_m"`
	Area      float64         `json:"area_m2"`
	UnitPrice decimal.Decimal `json:"unit_price"` // per metre
}

// Capacity returns the largest flow (m³/s) the option carries at velocity v (m/s).
func (o DiameterOption) Capacity(v float64) float64 {
	return o.Area * v
}

// Velocity returns the mean velocity (m/s) for flow q (m³/s).
func (o DiameterOption) Velocity(q float64) float64 {
	if o.Area <= 0 {
		return math.Inf(1)
	}
	return q / o.Area
}

func circleArea(d float64) float64 {
	return math.Pi * d * d / 4
}

// FittingKind identifies a local-loss element.
type FittingKind string

const (
	FittingEntrance    FittingKind = "entrance"
	FittingElbow90     FittingKind = "elbow_90"
	FittingElbow45     FittingKind = "elbow_45"
	FittingTeeStraight FittingKind = "tee_straight"
	FittingTeeSide     FittingKind = "tee_side"
	FittingGateValve   FittingKind = "gate_valve"
	FittingGlobeValve  FittingKind = "globe_valve"
	FittingMeter       FittingKind = "meter"
)

// FittingKinds lists every kind in table column order.
var FittingKinds = []FittingKind{
	FittingEntrance,
	FittingElbow90,
	FittingElbow45,
	FittingTeeStraight,
	FittingTeeSide,
	FittingGateValve,
	FittingGlobeValve,
	FittingMeter,
}

// Valid reports whether k is a known fitting kind.
func (k FittingKind) Valid() bool {
	for _, known := range FittingKinds {
		if k == known {
			return true
		}
	}
	return false
}

// FittingPrice is one row of the optional fitting price table.
type FittingPrice struct {
	PriceCode string          `json:"price_code"`
	Kind      FittingKind     `json:"kind"`
	Nominal   float64         `json:"nominal_mm"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type fittingKey struct {
	kind    FittingKind
	nominal float64
}

// Reduction is one row of the optional reducer table: the fitting that
// joins a pipe of nominal diameter Inlet to a downstream pipe of nominal
// diameter Outlet. Its head loss is Coefficient·v², v being the velocity
// in the downstream pipe.
type Reduction struct {
	PriceCode   string          `json:"price_code,omitempty"`
	Inlet       float64         `json:"inlet_mm"`
	Outlet      float64         `json:"outlet_mm"`
	Coefficient float64         `json:"coefficient"` // s²/m
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// MeterCapacity is one row of the optional water meter table: a meter
// model for pipes of a nominal diameter and its maximum flow.
type MeterCapacity struct {
	Nominal float64 `json:"nominal_mm"`
	MaxFlow float64 `json:"max_flow_m3_s"`
}

type reductionKey struct {
	inlet, outlet float64
}
