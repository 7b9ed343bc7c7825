package tables

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by lookups with no matching row.
var ErrNotFound = errors.New("not found in reference table")

// Tables holds every reference table for one run. It is built once by Load
// (or New) and never mutated afterwards.
type Tables struct {
	fixtures      map[string]Fixture
	diameters     map[string][]DiameterOption
	fittings      map[fittingKey]float64
	fittingPrices map[fittingKey]FittingPrice
	reductions    map[reductionKey]Reduction
	meters        map[float64][]float64 // nominal -> capacities, ascending
}

// New assembles tables from already-parsed rows. Diameter options are
// grouped by material and sorted by internal diameter; Validate checks the
// ordering invariants.
func New(fixtures []Fixture, diameters []DiameterOption, fittings map[float64]map[FittingKind]float64, prices []FittingPrice) *Tables {
	t := &Tables{
		fixtures:      make(map[string]Fixture, len(fixtures)),
		diameters:     make(map[string][]DiameterOption),
		fittings:      make(map[fittingKey]float64),
		fittingPrices: make(map[fittingKey]FittingPrice, len(prices)),
	}
	for _, f := range fixtures {
		t.fixtures[f.Code] = f
	}
	for _, d := range diameters {
		if d.Area == 0 {
			d.Area = circleArea(d.Internal)
		}
		t.diameters[d.Material] = append(t.diameters[d.Material], d)
	}
	for m := range t.diameters {
		opts := t.diameters[m]
		sort.SliceStable(opts, func(i, j int) bool { return opts[i].Internal < opts[j].Internal })
	}
	for nominal, row := range fittings {
		for kind, length := range row {
			t.fittings[fittingKey{kind, nominal}] = length
		}
	}
	for _, p := range prices {
		t.fittingPrices[fittingKey{p.Kind, p.Nominal}] = p
	}
	return t
}

// WithReductions returns a copy of t that models reducers with rows. Once
// a reducer table is present, consecutive segments of different nominal
// diameters need a row for their pair.
func (t *Tables) WithReductions(rows []Reduction) *Tables {
	c := *t
	c.reductions = make(map[reductionKey]Reduction, len(rows))
	for _, r := range rows {
		c.reductions[reductionKey{r.Inlet, r.Outlet}] = r
	}
	return &c
}

// WithMeters returns a copy of t whose water meter losses come from the
// capacity rows instead of the equivalent-length column.
func (t *Tables) WithMeters(rows []MeterCapacity) *Tables {
	c := *t
	c.meters = make(map[float64][]float64)
	for _, r := range rows {
		c.meters[r.Nominal] = append(c.meters[r.Nominal], r.MaxFlow)
	}
	for _, caps := range c.meters {
		sort.Float64s(caps)
	}
	return &c
}

// Validate checks that, per material, internal diameters strictly increase
// and unit prices never decrease.
func (t *Tables) Validate() error {
	for _, m := range t.Materials() {
		opts := t.diameters[m]
		for i, o := range opts {
			if o.Internal <= 0 {
				return fmt.Errorf("diameter %s (DN %v): internal diameter must be > 0", o.PriceCode, o.Nominal)
			}
			if i == 0 {
				continue
			}
			prev := opts[i-1]
			if o.Internal == prev.Internal {
				return fmt.Errorf("material %s: DN %v and DN %v share internal diameter %.4f m", m, prev.Nominal, o.Nominal, o.Internal)
			}
			if o.UnitPrice.LessThan(prev.UnitPrice) {
				return fmt.Errorf("material %s: DN %v costs less than DN %v (%s < %s)", m, o.Nominal, prev.Nominal, o.UnitPrice, prev.UnitPrice)
			}
		}
	}
	for k, r := range t.reductions {
		if k.inlet == k.outlet {
			return fmt.Errorf("reducer DN %v -> DN %v joins equal diameters", k.inlet, k.outlet)
		}
		if r.Coefficient < 0 || r.UnitPrice.IsNegative() {
			return fmt.Errorf("reducer DN %v -> DN %v: coefficient and price must be >= 0", k.inlet, k.outlet)
		}
	}
	for nominal, caps := range t.meters {
		if caps[0] <= 0 {
			return fmt.Errorf("water meter for DN %v: maximum flow must be > 0", nominal)
		}
	}
	return nil
}

// Fixture returns the fixture row for code.
func (t *Tables) Fixture(code string) (Fixture, error) {
	f, ok := t.fixtures[code]
	if !ok {
		return Fixture{}, fmt.Errorf("fixture %q: %w", code, ErrNotFound)
	}
	return f, nil
}

// FixtureCodes returns all fixture codes, sorted.
func (t *Tables) FixtureCodes() []string {
	codes := make([]string, 0, len(t.fixtures))
	for c := range t.fixtures {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// Materials returns the material classes that have diameter options, sorted.
func (t *Tables) Materials() []string {
	ms := make([]string, 0, len(t.diameters))
	for m := range t.diameters {
		ms = append(ms, m)
	}
	sort.Strings(ms)
	return ms
}

// Options returns the diameter options of a material ordered by internal
// diameter. The returned slice must not be modified.
func (t *Tables) Options(material string) []DiameterOption {
	return t.diameters[material]
}

// Option finds the option of a material by nominal diameter.
func (t *Tables) Option(material string, nominal float64) (DiameterOption, error) {
	for _, o := range t.diameters[material] {
		if o.Nominal == nominal {
			return o, nil
		}
	}
	return DiameterOption{}, fmt.Errorf("material %s DN %v: %w", material, nominal, ErrNotFound)
}

// EquivalentLength returns the equivalent pipe length (m) of one fitting of
// the given kind at a nominal diameter.
func (t *Tables) EquivalentLength(kind FittingKind, nominal float64) (float64, error) {
	l, ok := t.fittings[fittingKey{kind, nominal}]
	if !ok {
		return 0, fmt.Errorf("equivalent length for %s at DN %v: %w", kind, nominal, ErrNotFound)
	}
	return l, nil
}

// FittingPrice returns the unit price of a fitting kind at a nominal
// diameter. Missing rows report ok=false.
func (t *Tables) FittingPrice(kind FittingKind, nominal float64) (decimal.Decimal, bool) {
	p, ok := t.fittingPrices[fittingKey{kind, nominal}]
	if !ok {
		return decimal.Zero, false
	}
	return p.UnitPrice, true
}

// Reducer looks up the fitting joining an upstream option from to a
// downstream option to. needed is false when nothing is modelled there:
// equal nominal diameters, or no reducer table loaded. ok is false when a
// reducer is needed and the table has no row for the pair, which makes
// the pair unbuildable.
func (t *Tables) Reducer(from, to DiameterOption) (r Reduction, needed, ok bool) {
	if t.reductions == nil || from.Nominal == to.Nominal {
		return Reduction{}, false, true
	}
	r, ok = t.reductions[reductionKey{from.Nominal, to.Nominal}]
	return r, true, ok
}

// MeterFlow returns the maximum flow (m³/s) of the water meter fitted to a
// pipe of the given nominal diameter carrying flow: the smallest meter
// rated for at least twice the flow, or the largest one when none is.
// ok is false when no meter table is loaded or it has no row for nominal.
func (t *Tables) MeterFlow(nominal, flow float64) (float64, bool) {
	caps := t.meters[nominal]
	if len(caps) == 0 {
		return 0, false
	}
	for _, c := range caps {
		if c >= 2*flow {
			return c, true
		}
	}
	return caps[len(caps)-1], true
}
