package tables_test

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/tables"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/tables/tabletest"
)

const exampleDir = "../../examples/two-storey-house/tables"

func examplePaths() tables.Paths {
	return tables.Paths{
		Fixtures:      filepath.Join(exampleDir, "fixtures.csv"),
		Diameters:     filepath.Join(exampleDir, "diameters.csv"),
		Fittings:      filepath.Join(exampleDir, "fittings.csv"),
		FittingPrices: filepath.Join(exampleDir, "fitting_prices.csv"),
	}
}

func TestLoadExampleMatchesTestTables(t *testing.T) {
	got, err := tables.Load(examplePaths())
	require.NoError(t, err)
	want := tabletest.Default()

	assert.Equal(t, want.FixtureCodes(), got.FixtureCodes())
	assert.Equal(t, []string{"pvc"}, got.Materials())

	gotOpts, wantOpts := got.Options("pvc"), want.Options("pvc")
	require.Len(t, gotOpts, len(wantOpts))
	for i := range wantOpts {
		assert.Equal(t, wantOpts[i].Nominal, gotOpts[i].Nominal)
		assert.InDelta(t, wantOpts[i].Internal, gotOpts[i].Internal, 1e-12)
		assert.InDelta(t, wantOpts[i].Area, gotOpts[i].Area, 1e-12)
		assert.True(t, wantOpts[i].UnitPrice.Equal(gotOpts[i].UnitPrice), "DN %v price", wantOpts[i].Nominal)
	}

	for _, kind := range tables.FittingKinds {
		for _, o := range wantOpts {
			w, err := want.EquivalentLength(kind, o.Nominal)
			require.NoError(t, err)
			g, err := got.EquivalentLength(kind, o.Nominal)
			require.NoError(t, err)
			assert.InDelta(t, w, g, 1e-12, "%s DN %v", kind, o.Nominal)
		}
	}

	p, ok := got.FittingPrice(tables.FittingElbow90, 25)
	require.True(t, ok)
	assert.True(t, decimal.RequireFromString("0.80").Equal(p))
}

func TestLoadWithoutFittingPrices(t *testing.T) {
	p := examplePaths()
	p.FittingPrices = ""
	got, err := tables.Load(p)
	require.NoError(t, err)
	_, ok := got.FittingPrice(tables.FittingElbow90, 25)
	assert.False(t, ok)
}

func TestLoadMissingFile(t *testing.T) {
	p := examplePaths()
	p.Fittings = filepath.Join(exampleDir, "nope.csv")
	_, err := tables.Load(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fitting table")
}

func TestLookups(t *testing.T) {
	ref := tabletest.Default()

	f, err := ref.Fixture("ch")
	require.NoError(t, err)
	assert.InDelta(t, 0.4, f.Weight, 1e-12)

	_, err = ref.Fixture("xyz")
	assert.True(t, errors.Is(err, tables.ErrNotFound))

	o, err := ref.Option("pvc", 32)
	require.NoError(t, err)
	assert.Equal(t, "89357", o.PriceCode)
	_, err = ref.Option("pvc", 33)
	assert.True(t, errors.Is(err, tables.ErrNotFound))
	_, err = ref.Option("cpvc", 32)
	assert.Error(t, err)

	_, err = ref.EquivalentLength(tables.FittingMeter, 33)
	assert.True(t, errors.Is(err, tables.ErrNotFound))
}

func TestReadDiametersSemicolonDecimalComma(t *testing.T) {
	in := "price_code;material;nominal_mm;internal_mm;unit_price\n\n# comment\n1;PVC;25;21,6;5,25\n"
	ds, err := tables.ReadDiameters(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, ds, 1)
	assert.Equal(t, "pvc", ds[0].Material)
	assert.InDelta(t, 0.0216, ds[0].Internal, 1e-12)
	assert.True(t, decimal.RequireFromString("5.25").Equal(ds[0].UnitPrice))
}

func TestReadErrors(t *testing.T) {
	_, err := tables.ReadFixtures(strings.NewReader("code,weight\nch,0.4\n"))
	assert.ErrorContains(t, err, `missing column "min_pressure_m"`)

	_, err = tables.ReadFixtures(strings.NewReader("code,weight,min_pressure_m\nch,heavy,1\n"))
	assert.Error(t, err)

	_, err = tables.ReadFixtures(strings.NewReader("\n# only comments\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	ok := tabletest.Default()
	assert.NoError(t, ok.Validate())

	ds := tabletest.Diameters()
	ds[3].UnitPrice = decimal.RequireFromString("1.00")
	bad := tables.New(tabletest.Fixtures(), ds, tabletest.Fittings(), nil)
	assert.ErrorContains(t, bad.Validate(), "costs less")

	ds = tabletest.Diameters()
	ds[2].Internal = ds[1].Internal
	bad = tables.New(tabletest.Fixtures(), ds, tabletest.Fittings(), nil)
	assert.ErrorContains(t, bad.Validate(), "share internal diameter")
}

func TestParseNumber(t *testing.T) {
	for in, want := range map[string]float64{"2,5": 2.5, " 3.75 ": 3.75, "10": 10} {
		got, err := tables.ParseNumber(in)
		require.NoError(t, err)
		assert.InDelta(t, want, got, 1e-12, in)
	}
}

func TestDiameterOptionVelocity(t *testing.T) {
	o, err := tabletest.Default().Option("pvc", 25)
	require.NoError(t, err)
	assert.InDelta(t, 3.0*o.Area, o.Capacity(3.0), 1e-15)
	assert.InDelta(t, 1.0, o.Velocity(o.Area), 1e-12)
}

func TestReadReductions(t *testing.T) {
	in := "price_code;inlet_mm;outlet_mm;coefficient;unit_price\nR1;32;25;0,0094;0,91\n"
	rs, err := tables.ReadReductions(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rs, 1)
	assert.Equal(t, "R1", rs[0].PriceCode)
	assert.Equal(t, 32.0, rs[0].Inlet)
	assert.Equal(t, 25.0, rs[0].Outlet)
	assert.InDelta(t, 0.0094, rs[0].Coefficient, 1e-15)
	assert.True(t, decimal.RequireFromString("0.91").Equal(rs[0].UnitPrice))

	_, err = tables.ReadReductions(strings.NewReader("inlet_mm,outlet_mm,unit_price\n32,25,0.91\n"))
	assert.ErrorContains(t, err, `missing column "coefficient"`)
}

func TestReducer(t *testing.T) {
	plain := tabletest.Default()
	o20, _ := plain.Option("pvc", 20)
	o25, _ := plain.Option("pvc", 25)
	o32, _ := plain.Option("pvc", 32)

	_, needed, ok := plain.Reducer(o32, o20)
	assert.False(t, needed, "no reductions table")
	assert.True(t, ok)

	ref := plain.WithReductions(tabletest.Reductions())
	r, needed, ok := ref.Reducer(o32, o25)
	assert.True(t, needed)
	assert.True(t, ok)
	assert.True(t, decimal.RequireFromString("0.91").Equal(r.UnitPrice))

	_, needed, ok = ref.Reducer(o32, o20)
	assert.True(t, needed)
	assert.False(t, ok)

	_, needed, _ = ref.Reducer(o25, o25)
	assert.False(t, needed)

	_, needed, _ = plain.Reducer(o25, o32)
	assert.False(t, needed, "the original set is untouched")
}

func TestValidateReductionsAndMeters(t *testing.T) {
	assert.NoError(t, tabletest.Default().WithReductions(tabletest.Reductions()).WithMeters(tabletest.Meters()).Validate())

	bad := tabletest.Default().WithReductions([]tables.Reduction{{Inlet: 25, Outlet: 25, UnitPrice: decimal.Zero}})
	assert.ErrorContains(t, bad.Validate(), "equal diameters")

	bad = tabletest.Default().WithReductions([]tables.Reduction{{Inlet: 32, Outlet: 25, Coefficient: -1, UnitPrice: decimal.Zero}})
	assert.ErrorContains(t, bad.Validate(), "must be >= 0")

	bad = tabletest.Default().WithMeters([]tables.MeterCapacity{{Nominal: 20, MaxFlow: 0}})
	assert.ErrorContains(t, bad.Validate(), "maximum flow must be > 0")
}

func TestMeterFlow(t *testing.T) {
	ms, err := tables.ReadMeters(strings.NewReader("nominal_mm,max_flow_m3_h\n20,5\n20,1.5\n20,3\n25,7\n"))
	require.NoError(t, err)
	require.Len(t, ms, 4)
	assert.InDelta(t, 5.0/3600, ms[0].MaxFlow, 1e-15)

	ref := tabletest.Default().WithMeters(ms)
	// 0.3 L/s needs a meter of at least 0.6 L/s = 2.16 m³/h
	q, ok := ref.MeterFlow(20, 0.0003)
	require.True(t, ok)
	assert.InDelta(t, 3.0/3600, q, 1e-15)

	q, ok = ref.MeterFlow(20, 0.01)
	require.True(t, ok)
	assert.InDelta(t, 5.0/3600, q, 1e-15, "largest meter when none is big enough")

	_, ok = ref.MeterFlow(32, 0.0003)
	assert.False(t, ok)
	_, ok = tabletest.Default().MeterFlow(20, 0.0003)
	assert.False(t, ok)
}
