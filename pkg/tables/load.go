package tables

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Paths locates the table files of a project.
type Paths struct {
	Fixtures      string
	Diameters     string
	Fittings      string
	FittingPrices string // optional
	Reductions    string // optional
	Meters        string // optional
}

// Load reads and validates every table named in p.
func Load(p Paths) (*Tables, error) {
	fixtures, err := readFile(p.Fixtures, ReadFixtures)
	if err != nil {
		return nil, fmt.Errorf("fixture table: %w", err)
	}
	diameters, err := readFile(p.Diameters, ReadDiameters)
	if err != nil {
		return nil, fmt.Errorf("diameter table: %w", err)
	}
	fittings, err := readFile(p.Fittings, ReadFittings)
	if err != nil {
		return nil, fmt.Errorf("fitting table: %w", err)
	}
	var prices []FittingPrice
	if p.FittingPrices != "" {
		prices, err = readFile(p.FittingPrices, ReadFittingPrices)
		if err != nil {
			return nil, fmt.Errorf("fitting price table: %w", err)
		}
	}

	t := New(fixtures, diameters, fittings, prices)
	if p.Reductions != "" {
		rows, err := readFile(p.Reductions, ReadReductions)
		if err != nil {
			return nil, fmt.Errorf("reducer table: %w", err)
		}
		t = t.WithReductions(rows)
	}
	if p.Meters != "" {
		rows, err := readFile(p.Meters, ReadMeters)
		if err != nil {
			return nil, fmt.Errorf("water meter table: %w", err)
		}
		t = t.WithMeters(rows)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func readFile[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, err
	}
	defer f.Close()
	return read(f)
}

// ReadFixtures parses code,description,weight,min_pressure_m rows.
func ReadFixtures(r io.Reader) ([]Fixture, error) {
	rows, err := readRows(r, "code", "weight", "min_pressure_m")
	if err != nil {
		return nil, err
	}
	out := make([]Fixture, 0, len(rows))
	for _, row := range rows {
		f := Fixture{
			Code:        strings.ToLower(row.get("code")),
			Description: row.get("description"),
		}
		if f.Weight, err = row.float("weight"); err != nil {
			return nil, err
		}
		if f.MinPressure, err = row.float("min_pressure_m"); err != nil {
			return nil, err
		}
		if f.Weight < 0 {
			return nil, fmt.Errorf("line %d: weight must be >= 0", row.line)
		}
		out = append(out, f)
	}
	return out, nil
}

// ReadDiameters parses price_code,material,nominal_mm,internal_mm,unit_price rows.
func ReadDiameters(r io.Reader) ([]DiameterOption, error) {
	rows, err := readRows(r, "price_code", "material", "nominal_mm", "internal_mm", "unit_price")
	if err != nil {
		return nil, err
	}
	out := make([]DiameterOption, 0, len(rows))
	for _, row := range rows {
		o := DiameterOption{
			PriceCode: row.get("price_code"),
			Material:  strings.ToLower(row.get("material")),
		}
		if o.Nominal, err = row.float("nominal_mm"); err != nil {
			return nil, err
		}
		internalMM, err := row.float("internal_mm")
		if err != nil {
			return nil, err
		}
		o.Internal = internalMM / 1000
		o.Area = circleArea(o.Internal)
		if o.UnitPrice, err = row.money("unit_price"); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// ReadFittings parses the equivalent-length table: one row per nominal
// diameter, one column per fitting kind. Blank cells are skipped.
func ReadFittings(r io.Reader) (map[float64]map[FittingKind]float64, error) {
	rows, err := readRows(r, "nominal_mm")
	if err != nil {
		return nil, err
	}
	out := make(map[float64]map[FittingKind]float64, len(rows))
	for _, row := range rows {
		nominal, err := row.float("nominal_mm")
		if err != nil {
			return nil, err
		}
		lengths := make(map[FittingKind]float64)
		for _, kind := range FittingKinds {
			if row.get(string(kind)) == "" {
				continue
			}
			if lengths[kind], err = row.float(string(kind)); err != nil {
				return nil, err
			}
		}
		out[nominal] = lengths
	}
	return out, nil
}

// ReadFittingPrices parses price_code,kind,nominal_mm,unit_price rows.
func ReadFittingPrices(r io.Reader) ([]FittingPrice, error) {
	rows, err := readRows(r, "kind", "nominal_mm", "unit_price")
	if err != nil {
		return nil, err
	}
	out := make([]FittingPrice, 0, len(rows))
	for _, row := range rows {
		p := FittingPrice{
			PriceCode: row.get("price_code"),
			Kind:      FittingKind(strings.ToLower(row.get("kind"))),
		}
		if !p.Kind.Valid() {
			return nil, fmt.Errorf("line %d: unknown fitting kind %q", row.line, p.Kind)
		}
		if p.Nominal, err = row.float("nominal_mm"); err != nil {
			return nil, err
		}
		if p.UnitPrice, err = row.money("unit_price"); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// ReadReductions parses inlet_mm,outlet_mm,coefficient,unit_price rows
// with an optional price_code column.
func ReadReductions(r io.Reader) ([]Reduction, error) {
	rows, err := readRows(r, "inlet_mm", "outlet_mm", "coefficient", "unit_price")
	if err != nil {
		return nil, err
	}
	out := make([]Reduction, 0, len(rows))
	for _, row := range rows {
		red := Reduction{PriceCode: row.get("price_code")}
		if red.Inlet, err = row.float("inlet_mm"); err != nil {
			return nil, err
		}
		if red.Outlet, err = row.float("outlet_mm"); err != nil {
			return nil, err
		}
		if red.Coefficient, err = row.float("coefficient"); err != nil {
			return nil, err
		}
		if red.UnitPrice, err = row.money("unit_price"); err != nil {
			return nil, err
		}
		out = append(out, red)
	}
	return out, nil
}

// ReadMeters parses nominal_mm,max_flow_m3_h rows. Flows are stored in m³/s.
func ReadMeters(r io.Reader) ([]MeterCapacity, error) {
	rows, err := readRows(r, "nominal_mm", "max_flow_m3_h")
	if err != nil {
		return nil, err
	}
	out := make([]MeterCapacity, 0, len(rows))
	for _, row := range rows {
		var m MeterCapacity
		if m.Nominal, err = row.float("nominal_mm"); err != nil {
			return nil, err
		}
		perHour, err := row.float("max_flow_m3_h")
		if err != nil {
			return nil, err
		}
		m.MaxFlow = perHour / 3600
		out = append(out, m)
	}
	return out, nil
}

type record struct {
	line   int
	fields map[string]string
}

func (r record) get(col string) string {
	return r.fields[col]
}

func (r record) float(col string) (float64, error) {
	v, err := ParseNumber(r.fields[col])
	if err != nil {
		return 0, fmt.Errorf("line %d column %s: %w", r.line, col, err)
	}
	return v, nil
}

func (r record) money(col string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(normalizeNumber(r.fields[col]))
	if err != nil {
		return decimal.Zero, fmt.Errorf("line %d column %s: %w", r.line, col, err)
	}
	return d, nil
}

// ParseNumber parses a float that may use a decimal comma.
func ParseNumber(s string) (float64, error) {
	return strconv.ParseFloat(normalizeNumber(s), 64)
}

func normalizeNumber(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
}

// readRows reads a headed CSV. The delimiter is ';' when the header
// contains one (spreadsheet export with decimal commas), ',' otherwise.
// Blank lines and lines starting with '#' are skipped.
func readRows(r io.Reader, required ...string) ([]record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var cleaned bytes.Buffer
	var lineNums []int
	sc := bufio.NewScanner(bytes.NewReader(data))
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cleaned.WriteString(line)
		cleaned.WriteByte('\n')
		lineNums = append(lineNums, n)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(lineNums) == 0 {
		return nil, fmt.Errorf("empty table")
	}

	cr := csv.NewReader(&cleaned)
	cr.TrimLeadingSpace = true
	header := strings.SplitN(cleaned.String(), "\n", 2)[0]
	if strings.Contains(header, ";") {
		cr.Comma = ';'
	}
	all, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}

	cols := make([]string, len(all[0]))
	for i, c := range all[0] {
		cols[i] = strings.ToLower(strings.TrimSpace(c))
	}
	for _, want := range required {
		found := false
		for _, c := range cols {
			if c == want {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("missing column %q", want)
		}
	}

	out := make([]record, 0, len(all)-1)
	for i, fields := range all[1:] {
		rec := record{line: lineNums[i+1], fields: make(map[string]string, len(cols))}
		for j, c := range cols {
			if j < len(fields) {
				rec.fields[c] = strings.TrimSpace(fields[j])
			}
		}
		out = append(out, rec)
	}
	return out, nil
}
