package analytics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Bin is one histogram bucket covering [Lower, Upper).
type Bin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Histogram counts values in fixed-width bins aligned to multiples of
// Width. Empty bins between the extremes are kept so that plots have a
// continuous axis.
type Histogram struct {
	Width float64 `json:"width"`
	Bins  []Bin   `json:"bins"`
}

// Total returns the number of values counted.
func (h Histogram) Total() int {
	n := 0
	for _, b := range h.Bins {
		n += b.Count
	}
	return n
}

// NewHistogram bins values with the given width.
func NewHistogram(values []float64, width float64) Histogram {
	h := Histogram{Width: width}
	if len(values) == 0 || width <= 0 {
		return h
	}
	x := append([]float64(nil), values...)
	sort.Float64s(x)

	lo := math.Floor(x[0]/width) * width
	if lo > x[0] {
		lo -= width
	}
	n := int(math.Floor((x[len(x)-1]-lo)/width)) + 1
	dividers := make([]float64, n+1)
	for i := range dividers {
		dividers[i] = lo + float64(i)*width
	}
	if dividers[n] <= x[len(x)-1] {
		dividers = append(dividers, dividers[n]+width)
		n++
	}

	counts := stat.Histogram(nil, dividers, x, nil)
	h.Bins = make([]Bin, n)
	for i := range h.Bins {
		h.Bins[i] = Bin{Lower: dividers[i], Upper: dividers[i+1], Count: int(counts[i])}
	}
	return h
}

// Summary holds descriptive statistics of a sample. StdDev is the sample
// standard deviation and zero for fewer than two values.
type Summary struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// Summarize computes a Summary of values.
func Summarize(values []float64) Summary {
	s := Summary{Count: len(values)}
	if len(values) == 0 {
		return s
	}
	s.Min = floats.Min(values)
	s.Max = floats.Max(values)
	if len(values) < 2 {
		s.Mean = values[0]
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(values, nil)
	return s
}
