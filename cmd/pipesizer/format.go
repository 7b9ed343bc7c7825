package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/analytics"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/cost"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/pipeline"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/validation"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFF00"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)
)

const histogramWidth = 40

func printValidationReport(w io.Writer, r *validation.Report) {
	if len(r.Errors) > 0 {
		fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("ERRORS (%d):", len(r.Errors))))
		for _, e := range r.Errors {
			printResult(w, e)
		}
		fmt.Fprintln(w)
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("WARNINGS (%d):", len(r.Warnings))))
		for _, e := range r.Warnings {
			printResult(w, e)
		}
		fmt.Fprintln(w)
	}

	if len(r.Info) > 0 {
		fmt.Fprintf(w, "INFO (%d):\n", len(r.Info))
		for _, i := range r.Info {
			fmt.Fprintf(w, "  [%s] %s\n", i.Level, i.Message)
		}
		fmt.Fprintln(w)
	}

	if r.Valid {
		fmt.Fprintln(w, successStyle.Render(fmt.Sprintf("Result: VALID (%s)", r.Summary)))
	} else {
		fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("Result: INVALID (%s)", r.Summary)))
	}
}

func printResult(w io.Writer, e validation.Result) {
	fmt.Fprintf(w, "  [%s] %s\n", e.Level, e.Message)
	if e.Path != "" {
		fmt.Fprintf(w, "    -> %s = %v\n", e.Path, e.ActualValue)
	}
	if e.Expected != "" {
		fmt.Fprintf(w, "    expected: %s\n", e.Expected)
	}
	for _, s := range e.Suggestions {
		fmt.Fprintf(w, "    * %s\n", s)
	}
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

func printRun(w io.Writer, run *pipeline.Run) {
	res := run.Result
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s (run %s)", run.Spec.Name, run.ID)))
	fmt.Fprintln(w)

	segs := newTable("Segment", "From", "To", "L (m)", "Weight", "Q (L/s)", "DN", "v (m/s)", "J (m/m)", "Leq (m)", "Loss (m)", "Price/m", "Cost")
	for _, s := range res.Segments {
		segs.Row(
			s.SegmentID, s.Upstream, s.Downstream,
			fmt.Sprintf("%.2f", s.Length),
			fmt.Sprintf("%.1f", s.Weight),
			fmt.Sprintf("%.3f", s.Flow),
			fmt.Sprintf("%g", s.Nominal),
			fmt.Sprintf("%.2f", s.Velocity),
			fmt.Sprintf("%.4f", s.Gradient),
			fmt.Sprintf("%.2f", s.EquivalentLength),
			fmt.Sprintf("%.3f", s.Loss),
			formatMoney(s.UnitPrice),
			formatMoney(s.Cost),
		)
	}
	fmt.Fprintln(w, segs)
	fmt.Fprintln(w)

	printOutlets(w, run.Margins)
	fmt.Fprintln(w)

	printBill(w, res.Bill)
	fmt.Fprintln(w)
	printMarginSummary(w, "Pressure margin", run.Margins)
}

func printOutlets(w io.Writer, m *analytics.MarginReport) {
	t := newTable("Outlet", "Fixture", "z (m)", "Static (m)", "Path loss (m)", "Residual (m)", "Required (m)", "Margin (m)")
	for _, o := range m.Outlets {
		margin := fmt.Sprintf("%.2f", o.Margin)
		if o.Margin < 0 {
			margin = errorStyle.Render(margin)
		}
		t.Row(
			o.NodeID, o.Fixture,
			fmt.Sprintf("%.2f", o.Elevation),
			fmt.Sprintf("%.2f", o.Static),
			fmt.Sprintf("%.3f", o.PathLoss),
			fmt.Sprintf("%.2f", o.Residual),
			fmt.Sprintf("%.2f", o.Required),
			margin,
		)
	}
	fmt.Fprintln(w, t)
}

func printBill(w io.Writer, bill *cost.Report) {
	t := newTable("DN", "Segments", "Length (m)", "Cost")
	for _, d := range bill.ByDiameter {
		t.Row(
			fmt.Sprintf("%g", d.Nominal),
			fmt.Sprintf("%d", d.Segments),
			fmt.Sprintf("%.2f", d.Length),
			formatMoney(d.Cost),
		)
	}
	t.Row("TOTAL", "", "", formatMoney(bill.Total))
	fmt.Fprintln(w, t)
}

func printMarginSummary(w io.Writer, title string, m *analytics.MarginReport) {
	s := m.Summary
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s (%s)", title, m.Origin)))
	fmt.Fprintf(w, "  outlets: %d  min: %.2f m  max: %.2f m  mean: %.2f m  std: %.2f m\n",
		s.Count, s.Min, s.Max, s.Mean, s.StdDev)
	if m.Deficient > 0 {
		fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("  %d outlet(s) below the required pressure", m.Deficient)))
	}
	printHistogram(w, m.Histogram, "m")
}

func printHistogram(w io.Writer, h analytics.Histogram, unit string) {
	most := 0
	for _, b := range h.Bins {
		most = max(most, b.Count)
	}
	for _, b := range h.Bins {
		bar := 0
		if most > 0 {
			bar = b.Count * histogramWidth / most
		}
		fmt.Fprintf(w, "  [%6.2f, %6.2f) %s | %s %d\n", b.Lower, b.Upper, unit, strings.Repeat("#", bar), b.Count)
	}
}

func printComparison(w io.Writer, c *analytics.Comparison) {
	fmt.Fprintln(w, titleStyle.Render("Optimized vs manual"))
	fmt.Fprintln(w)

	dn := newTable("DN", "Optimized (m)", "Optimized cost", "Manual (m)", "Manual cost")
	for _, d := range c.Diameters {
		dn.Row(
			fmt.Sprintf("%g", d.Nominal),
			fmt.Sprintf("%.2f", d.OptimizedLength),
			formatMoney(d.OptimizedCost),
			fmt.Sprintf("%.2f", d.ManualLength),
			formatMoney(d.ManualCost),
		)
	}
	dn.Row("TOTAL", "", formatMoney(c.OptimizedCost), "", formatMoney(c.ManualCost))
	fmt.Fprintln(w, dn)
	fmt.Fprintln(w)

	v := newTable("Segment", "DN opt", "v opt (m/s)", "DN manual", "v manual (m/s)")
	for _, p := range c.Velocities {
		v.Row(
			p.SegmentID,
			fmt.Sprintf("%g", p.OptimizedNominal),
			fmt.Sprintf("%.2f", p.OptimizedSpeed),
			fmt.Sprintf("%g", p.ManualNominal),
			fmt.Sprintf("%.2f", p.ManualSpeed),
		)
	}
	fmt.Fprintln(w, v)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Cost difference (manual - optimized): %s\n\n", formatMoney(c.CostDifference))

	printOutlets(w, c.Manual)
	fmt.Fprintln(w)
	printMarginSummary(w, "Pressure margin", c.Optimized)
	fmt.Fprintln(w)
	printMarginSummary(w, "Pressure margin", c.Manual)
	fmt.Fprintln(w)

	fmt.Fprintln(w, titleStyle.Render("Velocity (optimized)"))
	printHistogram(w, c.OptimizedVelocity, "m/s")
	fmt.Fprintln(w, titleStyle.Render("Velocity (manual)"))
	printHistogram(w, c.ManualVelocity, "m/s")
}

func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(cost.MoneyPlaces)
}
