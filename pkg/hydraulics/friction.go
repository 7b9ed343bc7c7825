package hydraulics

import (
	"fmt"
	"math"
)

const gravity = 9.81 // m/s²

// Friction model names accepted in project files.
const (
	ModelFairWhippleHsiao = "fair-whipple-hsiao"
	ModelDarcyWeisbach    = "darcy-weisbach"
)

// FrictionModel returns the friction head loss per metre of pipe (m/m) for
// a flow (m³/s) through an internal diameter (m).
type FrictionModel interface {
	Gradient(flow, internal float64) float64
	Name() string
}

// FairWhippleHsiao is the power law for smooth plastic pipe:
// J = 8.59e-4 * Q^1.75 * D^-4.75 (SI units).
type FairWhippleHsiao struct{}

func (FairWhippleHsiao) Name() string { return ModelFairWhippleHsiao }

func (FairWhippleHsiao) Gradient(flow, internal float64) float64 {
	if flow <= 0 {
		return 0
	}
	return 8.59e-4 * math.Pow(flow, 1.75) * math.Pow(internal, -4.75)
}

// DarcyWeisbach uses the Swamee-Jain explicit friction factor in turbulent
// flow and 64/Re below Reynolds 2000.
type DarcyWeisbach struct {
	Roughness float64 // absolute, m
	Viscosity float64 // kinematic, m²/s
}

func (DarcyWeisbach) Name() string { return ModelDarcyWeisbach }

func (d DarcyWeisbach) Gradient(flow, internal float64) float64 {
	if flow <= 0 {
		return 0
	}
	area := math.Pi * internal * internal / 4
	v := flow / area
	return d.FrictionFactor(v, internal) / internal * v * v / (2 * gravity)
}

// FrictionFactor returns the Darcy friction factor at velocity v (m/s).
func (d DarcyWeisbach) FrictionFactor(v, internal float64) float64 {
	re := v * internal / d.Viscosity
	if re < 2000 {
		return 64 / re
	}
	x := math.Log10(d.Roughness/(3.7*internal) + 5.74/math.Pow(re, 0.9))
	return 0.25 / (x * x)
}

// NewModel resolves a friction model by name.
func NewModel(name string, roughness, viscosity float64) (FrictionModel, error) {
	switch name {
	case "", ModelFairWhippleHsiao:
		return FairWhippleHsiao{}, nil
	case ModelDarcyWeisbach:
		if viscosity <= 0 {
			return nil, fmt.Errorf("darcy-weisbach needs a positive kinematic viscosity, got %g", viscosity)
		}
		return DarcyWeisbach{Roughness: roughness, Viscosity: viscosity}, nil
	}
	return nil, fmt.Errorf("unknown friction model %q", name)
}
