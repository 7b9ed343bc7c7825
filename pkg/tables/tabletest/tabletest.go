// Package tabletest provides reference tables for tests: the PVC
// cold-water series with NBR 5626 fixture weights.
package tabletest

import (
	"github.com/shopspring/decimal"

	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/tables"
)

// Fixtures returns the fixture rows used by Default.
func Fixtures() []tables.Fixture {
	return []tables.Fixture{
		{Code: "bs", Description: "bacia sanitaria com caixa acoplada", Weight: 0.3, MinPressure: 1.0},
		{Code: "ch", Description: "chuveiro", Weight: 0.4, MinPressure: 1.0},
		{Code: "lv", Description: "lavatorio", Weight: 0.3, MinPressure: 1.0},
		{Code: "pia", Description: "pia de cozinha", Weight: 0.7, MinPressure: 1.0},
		{Code: "tq", Description: "tanque", Weight: 0.7, MinPressure: 1.0},
		{Code: "mlr", Description: "maquina de lavar roupa", Weight: 1.0, MinPressure: 1.0},
	}
}

// Diameters returns the PVC options used by Default.
func Diameters() []tables.DiameterOption {
	rows := []struct {
		code     string
		nominal  float64
		internal float64 // mm
		price    string
	}{
		{"89355", 20, 17.0, "3.90"},
		{"89356", 25, 21.6, "5.25"},
		{"89357", 32, 27.8, "11.40"},
		{"89358", 40, 35.2, "16.10"},
		{"89359", 50, 44.0, "18.90"},
		{"89360", 60, 53.4, "30.20"},
		{"89361", 75, 66.6, "41.80"},
		{"89362", 85, 75.6, "56.70"},
		{"89363", 110, 97.8, "83.50"},
	}
	out := make([]tables.DiameterOption, len(rows))
	for i, r := range rows {
		out[i] = tables.DiameterOption{
			PriceCode: r.code,
			Material:  "pvc",
			Nominal:   r.nominal,
			Internal:  r.internal / 1000,
			UnitPrice: decimal.RequireFromString(r.price),
		}
	}
	return out
}

// Fittings returns the equivalent-length rows used by Default.
func Fittings() map[float64]map[tables.FittingKind]float64 {
	row := func(entrance, e90, e45, teeS, teeL, gate, globe, meter float64) map[tables.FittingKind]float64 {
		return map[tables.FittingKind]float64{
			tables.FittingEntrance:    entrance,
			tables.FittingElbow90:     e90,
			tables.FittingElbow45:     e45,
			tables.FittingTeeStraight: teeS,
			tables.FittingTeeSide:     teeL,
			tables.FittingGateValve:   gate,
			tables.FittingGlobeValve:  globe,
			tables.FittingMeter:       meter,
		}
	}
	return map[float64]map[tables.FittingKind]float64{
		20:  row(0.3, 1.1, 0.4, 0.7, 2.3, 0.1, 11.1, 5.0),
		25:  row(0.4, 1.2, 0.5, 0.8, 2.4, 0.2, 11.4, 6.0),
		32:  row(0.5, 1.5, 0.7, 0.9, 3.1, 0.3, 15.0, 7.0),
		40:  row(0.6, 2.0, 1.0, 1.5, 4.6, 0.4, 22.0, 8.0),
		50:  row(1.0, 3.2, 1.3, 2.2, 7.3, 0.7, 35.8, 9.0),
		60:  row(1.5, 3.4, 1.5, 2.3, 7.6, 0.8, 37.9, 10.0),
		75:  row(1.6, 3.7, 1.7, 2.4, 7.8, 0.9, 38.0, 11.0),
		85:  row(2.0, 3.9, 1.8, 2.5, 8.0, 0.9, 40.0, 12.0),
		110: row(2.2, 4.3, 1.9, 2.6, 8.3, 1.0, 42.3, 13.0),
	}
}

// FittingPrices returns a small fitting price list.
func FittingPrices() []tables.FittingPrice {
	var out []tables.FittingPrice
	prices := map[tables.FittingKind][]string{
		tables.FittingElbow90:     {"0.55", "0.80", "2.10", "5.40"},
		tables.FittingTeeStraight: {"0.95", "1.30", "3.60", "8.10"},
		tables.FittingTeeSide:     {"0.95", "1.30", "3.60", "8.10"},
	}
	for kind, ps := range prices {
		for i, nominal := range []float64{20, 25, 32, 40} {
			out = append(out, tables.FittingPrice{Kind: kind, Nominal: nominal, UnitPrice: decimal.RequireFromString(ps[i])})
		}
	}
	return out
}

// Default returns the full table set.
func Default() *tables.Tables {
	return tables.New(Fixtures(), Diameters(), Fittings(), FittingPrices())
}

// Reductions returns reducer rows between neighbouring PVC sizes, downward
// only. Default does not include them.
func Reductions() []tables.Reduction {
	rows := []struct {
		in, out float64
		coef    float64
		price   string
	}{
		{25, 20, 0.0094, "0.62"},
		{32, 25, 0.0094, "0.91"},
		{40, 32, 0.0094, "1.85"},
		{50, 40, 0.0094, "3.40"},
	}
	out := make([]tables.Reduction, len(rows))
	for i, r := range rows {
		out[i] = tables.Reduction{Inlet: r.in, Outlet: r.out, Coefficient: r.coef, UnitPrice: decimal.RequireFromString(r.price)}
	}
	return out
}

// Meters returns water meter capacities in m³/s (1.5 to 30 m³/h).
func Meters() []tables.MeterCapacity {
	perHour := []struct {
		nominal float64
		flow    float64
	}{
		{20, 1.5}, {20, 3}, {20, 5},
		{25, 7}, {25, 10},
		{40, 20},
		{50, 30},
	}
	out := make([]tables.MeterCapacity, len(perHour))
	for i, m := range perHour {
		out[i] = tables.MeterCapacity{Nominal: m.nominal, MaxFlow: m.flow / 3600}
	}
	return out
}
