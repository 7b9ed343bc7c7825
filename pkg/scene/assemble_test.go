package scene

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/pipeline"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/projection"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/spec"
)

func exampleRun(t *testing.T) *pipeline.Run {
	t.Helper()
	s, err := spec.LoadProject("../../examples/two-storey-house")
	require.NoError(t, err)
	run, err := pipeline.Execute(context.Background(), s, pipeline.Options{})
	require.NoError(t, err)
	return run
}

// rotate applies the unit quaternion q to v.
func rotate(q [4]float64, v Vec3) Vec3 {
	x, y, z, w := q[0], q[1], q[2], q[3]
	// t = 2 * (q.xyz × v)
	tx := 2 * (y*v.Z - z*v.Y)
	ty := 2 * (z*v.X - x*v.Z)
	tz := 2 * (x*v.Y - y*v.X)
	return Vec3{
		X: v.X + w*tx + (y*tz - z*ty),
		Y: v.Y + w*ty + (z*tx - x*tz),
		Z: v.Z + w*tz + (x*ty - y*tx),
	}
}

func TestAlignQuat(t *testing.T) {
	for _, d := range []Vec3{{Z: 1}, {Z: -2}, {Y: -4}, {X: 3}, {X: 1, Y: 1, Z: 1}} {
		q := alignQuat(d)
		got := rotate(q, Vec3{Z: 1})
		l := math.Sqrt(d.X*d.X + d.Y*d.Y + d.Z*d.Z)
		assert.InDelta(t, d.X/l, got.X, 1e-9, "%v", d)
		assert.InDelta(t, d.Y/l, got.Y, 1e-9, "%v", d)
		assert.InDelta(t, d.Z/l, got.Z, 1e-9, "%v", d)
	}
	assert.Equal(t, identityQuat(), alignQuat(Vec3{}))
}

func TestAssembleExample(t *testing.T) {
	run := exampleRun(t)
	g := Assemble(run.Spec.Name, run.ID, run.Network, run.Result)

	assert.Len(t, g.Groups.EntityTypes[EntityPipe], len(run.Network.Segments()))
	assert.Len(t, g.Groups.EntityTypes[EntityOutlet], len(run.Network.Outlets()))
	assert.Len(t, g.Groups.EntityTypes[EntityReservoir], 1)
	assert.Empty(t, g.Groups.Deficient)
	assert.Equal(t, run.ID, g.Metadata.RunID)
	assert.Equal(t, "optimized", g.Metadata.Origin)

	r := ValidateGraph(g)
	assert.True(t, r.Valid, "%v", r.Errors)
	assert.Empty(t, r.Warnings)
}

func TestAssembleRiserGeometry(t *testing.T) {
	run := exampleRun(t)
	g := Assemble(run.Spec.Name, run.ID, run.Network, run.Result)

	// Segment 1 drops from the tank at 11 m to the upper floor at 7 m.
	riser, ok := g.Entity(PipeID("1"))
	require.True(t, ok)
	assert.InDelta(t, 4.0, riser.Dimensions.Z, 1e-9)
	assert.InDelta(t, 9.0, riser.Position.Y, 1e-9)
	assert.Equal(t, "7.00", riser.Level)
	assert.ElementsMatch(t, []string{PipeID("2"), PipeID("7")}, riser.Children)

	seg, _ := run.Result.Segment("1")
	assert.InDelta(t, seg.Internal/1000, riser.Dimensions.X, 1e-12)
	assert.Contains(t, g.Groups.Diameters[riser.Diameter], riser.ID)

	axis := rotate(riser.Rotation, Vec3{Z: 1})
	assert.InDelta(t, -1.0, axis.Y, 1e-9)
}

func TestAssembleMarksDeficientOutlets(t *testing.T) {
	run := exampleRun(t)
	res := *run.Result
	res.Origin = projection.OriginManual
	res.Outlets = append([]projection.OutletResult(nil), run.Result.Outlets...)
	res.Outlets[0].Margin = -0.5

	g := Assemble(run.Spec.Name, "", run.Network, &res)
	assert.Equal(t, []string{NodeID(res.Outlets[0].NodeID)}, g.Groups.Deficient)
	assert.True(t, ValidateGraph(g).Valid)
}
