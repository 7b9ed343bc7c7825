package milp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

const objectiveRow = "COST"

type entry struct {
	row  string
	coef float64
}

// WriteMPS writes m in free MPS format with every variable declared binary
// inside an integer marker block.
func WriteMPS(w io.Writer, m *Model) error {
	if err := m.Validate(); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	name := m.Name
	if name == "" {
		name = "MODEL"
	}

	fmt.Fprintf(bw, "NAME %s\n", name)
	fmt.Fprintln(bw, "ROWS")
	fmt.Fprintf(bw, " N %s\n", objectiveRow)
	for _, c := range m.Constraints {
		fmt.Fprintf(bw, " %s %s\n", mpsSense(c.Sense), c.Name)
	}

	// Column-major view of the constraint matrix.
	cols := make([][]entry, len(m.Vars))
	for _, c := range m.Constraints {
		for _, t := range c.Terms {
			cols[t.Var] = append(cols[t.Var], entry{c.Name, t.Coef})
		}
	}

	fmt.Fprintln(bw, "COLUMNS")
	fmt.Fprintln(bw, " MARKER 'MARKER' 'INTORG'")
	for i, v := range m.Vars {
		fmt.Fprintf(bw, " %s %s %s\n", v.Name, objectiveRow, num(v.Cost))
		for _, e := range cols[i] {
			fmt.Fprintf(bw, " %s %s %s\n", v.Name, e.row, num(e.coef))
		}
	}
	fmt.Fprintln(bw, " MARKER 'MARKER' 'INTEND'")

	fmt.Fprintln(bw, "RHS")
	for _, c := range m.Constraints {
		if c.RHS != 0 {
			fmt.Fprintf(bw, " RHS %s %s\n", c.Name, num(c.RHS))
		}
	}

	fmt.Fprintln(bw, "BOUNDS")
	for _, v := range m.Vars {
		fmt.Fprintf(bw, " BV BND %s\n", v.Name)
	}
	fmt.Fprintln(bw, "ENDATA")
	return bw.Flush()
}

func mpsSense(s Sense) string {
	switch s {
	case LessEqual:
		return "L"
	case GreaterEqual:
		return "G"
	}
	return "E"
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'g', 15, 64)
}
