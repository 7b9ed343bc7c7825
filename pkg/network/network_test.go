package network

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/geo"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/tables"
)

// branched: src -1-> a -2-> b(outlet ch), a -10-> c -3-> d(outlet lv)
func branchedNodes() []Node {
	return []Node{
		{ID: "src", Role: RoleSource, Position: geo.Pt(0, 0, 10)},
		{ID: "a", Role: RoleJunction, Position: geo.Pt(0, 0, 3)},
		{ID: "b", Role: RoleOutlet, Position: geo.Pt(4, 0, 3), Fixture: &Fixture{Code: "ch", Weight: 0.4, MinPressure: 1}},
		{ID: "c", Role: RoleJunction, Position: geo.Pt(0, 4, 3)},
		{ID: "d", Role: RoleOutlet, Position: geo.Pt(0, 8, 1), Fixture: &Fixture{Code: "lv", Weight: 0.3, MinPressure: 1}},
	}
}

func branchedSegments() []Segment {
	return []Segment{
		{ID: "3", Upstream: "c", Downstream: "d", Length: 4},
		{ID: "10", Upstream: "a", Downstream: "c", Length: 4},
		{ID: "1", Upstream: "src", Downstream: "a", Length: 7},
		{ID: "2", Upstream: "a", Downstream: "b", Length: 4},
	}
}

func segmentIDs(segs []Segment) []string {
	ids := make([]string, len(segs))
	for i, s := range segs {
		ids[i] = s.ID
	}
	return ids
}

func TestNewTraversalOrder(t *testing.T) {
	n, err := New(branchedNodes(), branchedSegments())
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2", "10", "3"}, segmentIDs(n.Segments()))
	assert.Equal(t, "src", n.Source().ID)

	outlets := n.Outlets()
	require.Len(t, outlets, 2)
	assert.Equal(t, "b", outlets[0].ID)
	assert.Equal(t, "d", outlets[1].ID)
	assert.Equal(t, 2, n.SegmentIndex("10"))
	assert.Equal(t, -1, n.SegmentIndex("nope"))
}

func TestPathsAndSubtrees(t *testing.T) {
	n, err := New(branchedNodes(), branchedSegments())
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "10", "3"}, segmentIDs(n.PathTo("d")))
	assert.Empty(t, n.PathTo("src"))
	assert.Equal(t, []string{"10", "3"}, segmentIDs(n.Subtree("10")))
	assert.Equal(t, []string{"1", "2", "10", "3"}, segmentIDs(n.Subtree("1")))

	p, ok := n.Parent("3")
	require.True(t, ok)
	assert.Equal(t, "10", p.ID)
	_, ok = n.Parent("1")
	assert.False(t, ok)

	assert.Equal(t, []string{"2", "10"}, segmentIDs(n.Children("a")))
}

func TestStaticPressure(t *testing.T) {
	nodes := branchedNodes()
	nodes[0].Head = 2
	n, err := New(nodes, branchedSegments())
	require.NoError(t, err)

	assert.InDelta(t, 12.0, n.SourceGrade(), 1e-9)
	assert.InDelta(t, 9.0, n.StaticPressure("b"), 1e-9)
	assert.InDelta(t, 11.0, n.StaticPressure("d"), 1e-9)
}

func TestNewRejectsBadTopology(t *testing.T) {
	cases := []struct {
		name   string
		mutate func([]Node, []Segment) ([]Node, []Segment)
		kind   TopologyKind
	}{
		{"no source", func(n []Node, s []Segment) ([]Node, []Segment) {
			n[0].Role = RoleJunction
			return n, s
		}, TopologySource},
		{"two sources", func(n []Node, s []Segment) ([]Node, []Segment) {
			n[1].Role = RoleSource
			return n, s
		}, TopologySource},
		{"unknown node", func(n []Node, s []Segment) ([]Node, []Segment) {
			s[0].Downstream = "zz"
			return n, s
		}, TopologyMalformed},
		{"zero length", func(n []Node, s []Segment) ([]Node, []Segment) {
			s[1].Length = 0
			return n, s
		}, TopologyMalformed},
		{"duplicate segment", func(n []Node, s []Segment) ([]Node, []Segment) {
			s[1].ID = "3"
			return n, s
		}, TopologyMalformed},
		{"node fed twice", func(n []Node, s []Segment) ([]Node, []Segment) {
			return n, append(s, Segment{ID: "9", Upstream: "b", Downstream: "d", Length: 1})
		}, TopologyCyclic},
		{"flows into source", func(n []Node, s []Segment) ([]Node, []Segment) {
			return n, append(s, Segment{ID: "9", Upstream: "c", Downstream: "src", Length: 1})
		}, TopologyCyclic},
		{"isolated node", func(n []Node, s []Segment) ([]Node, []Segment) {
			return append(n, Node{ID: "lonely", Role: RoleJunction}), s
		}, TopologyDisconnected},
		{"outlet not a leaf", func(n []Node, s []Segment) ([]Node, []Segment) {
			n = append(n, Node{ID: "e", Role: RoleJunction})
			return n, append(s, Segment{ID: "4", Upstream: "b", Downstream: "e", Length: 1})
		}, TopologyMalformed},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			nodes, segs := c.mutate(branchedNodes(), branchedSegments())
			_, err := New(nodes, segs)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrTopology))
			var te *TopologyError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, c.kind, te.Kind, te.Error())
		})
	}
}

func TestNewDetectsDetachedLoop(t *testing.T) {
	nodes := append(branchedNodes(),
		Node{ID: "x", Role: RoleJunction},
		Node{ID: "y", Role: RoleJunction},
	)
	segs := append(branchedSegments(),
		Segment{ID: "7", Upstream: "x", Downstream: "y", Length: 1},
		Segment{ID: "8", Upstream: "y", Downstream: "x", Length: 1},
	)
	_, err := New(nodes, segs)
	var te *TopologyError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, TopologyCyclic, te.Kind)
}

func TestLessID(t *testing.T) {
	ids := []string{"s2", "10", "2", "a", "1"}
	SortIDs(ids)
	assert.Equal(t, []string{"1", "2", "10", "a", "s2"}, ids)
}

func TestDetectFittings(t *testing.T) {
	n, err := New(branchedNodes(), branchedSegments())
	require.NoError(t, err)

	got := DetectFittings(n)
	assert.Equal(t, []tables.FittingKind{tables.FittingEntrance}, got["1"])
	assert.Equal(t, []tables.FittingKind{tables.FittingTeeSide}, got["2"])
	assert.Equal(t, []tables.FittingKind{tables.FittingTeeSide}, got["10"])
	// c -> d drops 2 m over 4 m: about 27 degrees off the feeding run.
	assert.Equal(t, []tables.FittingKind{tables.FittingElbow45}, got["3"])

	withValve, err := n.WithFittings(map[string][]tables.FittingKind{"3": {tables.FittingGateValve}})
	require.NoError(t, err)
	seg, ok := withValve.Segment("3")
	require.True(t, ok)
	assert.Equal(t, []tables.FittingKind{tables.FittingGateValve}, seg.Fittings)
	orig, _ := n.Segment("3")
	assert.Empty(t, orig.Fittings)
}
