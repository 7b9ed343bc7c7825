package network

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/tables"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/tables/tabletest"
)

// A riser from the reservoir down to the floor, a run to a tee, then a
// shower on the side branch and a basin straight ahead.
func riserDrawing() *Drawing {
	return &Drawing{
		Lines: []DrawingLine{
			{Start: []float64{0, 0, 10}, End: []float64{0, 0, 3}},
			{Start: []float64{0, 0, 3}, End: []float64{4, 0, 3}},
			{Start: []float64{4, 0, 3}, End: []float64{4, 3, 3}},
			{Start: []float64{4, 0, 3}, End: []float64{8, 0, 3}},
		},
		Texts: []DrawingText{
			{Content: "res", At: []float64{0, 0, 10}},
			{Content: "1", At: []float64{0, 0, 3}},
			{Content: "2", At: []float64{4, 0, 3}},
			{Content: "3", At: []float64{4, 3, 3}},
			{Content: "4", At: []float64{8, 0, 3}},
			{Content: "CH1", At: []float64{4, 3, 3.001}},
			{Content: "lv1", At: []float64{8, 0, 3}},
			{Content: "rg", At: []float64{0, 0, 3}},
		},
	}
}

func TestDrawingSource(t *testing.T) {
	n, err := DrawingSource{Drawing: riserDrawing(), Material: "pvc"}.Load(tabletest.Default())
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2", "3", "4"}, segmentIDs(n.Segments()))

	src := n.Source()
	assert.InDelta(t, 10.0, src.Elevation(), 1e-9)
	assert.InDelta(t, 0.0, src.Head, 1e-9)

	outlets := n.Outlets()
	require.Len(t, outlets, 2)
	assert.Equal(t, "ch", outlets[0].Fixture.Code)
	assert.Equal(t, "CH1", outlets[0].Fixture.Label)
	assert.InDelta(t, 0.4, outlets[0].Weight(), 1e-9)
	assert.Equal(t, "lv", outlets[1].Fixture.Code)
	assert.InDelta(t, 7.0, n.StaticPressure(outlets[1].ID), 1e-9)

	s1, _ := n.Segment("1")
	assert.InDelta(t, 7.0, s1.Length, 1e-9)
	assert.Equal(t, "pvc", s1.Material)
	assert.Equal(t, []tables.FittingKind{tables.FittingEntrance}, s1.Fittings)

	s2, _ := n.Segment("2")
	assert.Equal(t, []tables.FittingKind{tables.FittingGateValve, tables.FittingElbow90}, s2.Fittings)
	s3, _ := n.Segment("3")
	assert.Equal(t, []tables.FittingKind{tables.FittingTeeSide}, s3.Fittings)
	s4, _ := n.Segment("4")
	assert.Equal(t, []tables.FittingKind{tables.FittingTeeStraight}, s4.Fittings)
}

func TestDrawingSourceOrientsReversedLines(t *testing.T) {
	d := riserDrawing()
	d.Lines[0] = DrawingLine{Start: []float64{0, 0, 3}, End: []float64{0, 0, 10}}
	n, err := DrawingSource{Drawing: d, Material: "pvc"}.Load(tabletest.Default())
	require.NoError(t, err)

	// The riser keeps its number, which now sits on its drawn start.
	s, ok := n.Segment("1")
	require.True(t, ok)
	up, _ := n.Node(s.Upstream)
	assert.InDelta(t, 10.0, up.Elevation(), 1e-9)
	assert.Equal(t, n.Source().ID, up.ID)
	assert.Len(t, n.Outlets(), 2)
}

func TestDrawingSourceReversedLinesShareJunction(t *testing.T) {
	// Riser and run are both drawn towards (0,0,3), where number 1 sits.
	d := riserDrawing()
	d.Lines[0] = DrawingLine{Start: []float64{0, 0, 10}, End: []float64{0, 0, 3}}
	d.Lines[1] = DrawingLine{Start: []float64{4, 0, 3}, End: []float64{0, 0, 3}}
	n, err := DrawingSource{Drawing: d, Material: "pvc"}.Load(tabletest.Default())
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2", "3", "4"}, segmentIDs(n.Segments()))
	s1, _ := n.Segment("1")
	assert.Equal(t, n.Source().ID, s1.Upstream)
	s2, _ := n.Segment("2")
	assert.Equal(t, s1.Downstream, s2.Upstream)
	assert.InDelta(t, 4.0, s2.Length, 1e-9)
}

func TestDrawingSourceErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Drawing)
		kind   TopologyKind
	}{
		{"no reservoir", func(d *Drawing) { d.Texts = d.Texts[1:] }, TopologySource},
		{"loop", func(d *Drawing) {
			d.Lines = append(d.Lines, DrawingLine{Start: []float64{4, 3, 3}, End: []float64{8, 0, 3}})
		}, TopologyCyclic},
		{"detached", func(d *Drawing) {
			d.Lines = append(d.Lines, DrawingLine{Start: []float64{50, 50, 3}, End: []float64{51, 50, 3}})
		}, TopologyDisconnected},
		{"zero length", func(d *Drawing) {
			d.Lines = append(d.Lines, DrawingLine{Start: []float64{1, 1, 1}, End: []float64{1, 1, 1}})
		}, TopologyMalformed},
		{"unknown fixture", func(d *Drawing) {
			d.Texts = append(d.Texts, DrawingText{Content: "xyz9", At: []float64{4, 3, 3}})
		}, TopologyMalformed},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			d := riserDrawing()
			c.mutate(d)
			_, err := DrawingSource{Drawing: d, Material: "pvc"}.Load(tabletest.Default())
			var te *TopologyError
			require.True(t, errors.As(err, &te), "got %v", err)
			assert.Equal(t, c.kind, te.Kind)
		})
	}
}

func TestLoadDrawing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drawing.yaml")
	data := []byte(`lines:
  - {start: [0, 0, 5], end: [0, 0, 2]}
  - {start: [0, 0, 2], end: [3, 0, 2]}
texts:
  - {content: res, at: [0, 0, 5]}
  - {content: pia1, at: [3, 0, 2]}
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	d, err := LoadDrawing(path)
	require.NoError(t, err)
	n, err := DrawingSource{Drawing: d, Material: "pvc", ExtraHead: 1.5}.Load(tabletest.Default())
	require.NoError(t, err)
	assert.InDelta(t, 1.5, n.Source().Head, 1e-9)
	assert.Len(t, n.Outlets(), 1)
}

func TestFileSource(t *testing.T) {
	elev := 2.0
	fn := &FileNetwork{
		Nodes: []FileNode{
			{ID: "r", Source: true, Position: []float64{0, 0, 8}, Head: 1},
			{ID: "j", Position: []float64{0, 0, 2}},
			{ID: "o", Position: []float64{5, 0, 0}, Elevation: &elev, Fixture: "TQ"},
		},
		Segments: []FileSegment{
			{ID: "a", Upstream: "r", Downstream: "j", Fittings: []string{"entrance"}},
			{ID: "b", Upstream: "j", Downstream: "o", Length: 6, Material: "cpvc"},
		},
	}
	n, err := FileSource{Network: fn, Material: "pvc"}.Load(tabletest.Default())
	require.NoError(t, err)

	a, _ := n.Segment("a")
	assert.InDelta(t, 6.0, a.Length, 1e-9)
	assert.Equal(t, "pvc", a.Material)
	b, _ := n.Segment("b")
	assert.Equal(t, "cpvc", b.Material)
	assert.InDelta(t, 7.0, n.StaticPressure("o"), 1e-9)

	fn.Segments[0].Fittings = []string{"bogus"}
	_, err = FileSource{Network: fn}.Load(tabletest.Default())
	assert.ErrorIs(t, err, ErrTopology)
}
