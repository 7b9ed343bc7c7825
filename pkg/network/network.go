package network

import (
	"sort"
)

// Network is a validated supply tree rooted at a single source. It is
// immutable after New returns; accessors hand out copies or slices that
// callers must not modify.
type Network struct {
	nodes    []Node
	segments []Segment // traversal order
	nodeIdx  map[string]int
	segIdx   map[string]int
	feeder   map[string]int   // node ID -> index of the segment ending there
	children map[string][]int // node ID -> downstream segment indices, in ID order
	source   int
	outlets  []int // node indices, traversal order
}

// New validates nodes and segments and builds the tree indexes. Segment
// order in the result is the depth-first pre-order from the source with
// sibling segments visited in LessID order.
func New(nodes []Node, segments []Segment) (*Network, error) {
	n := &Network{
		nodes:    make([]Node, len(nodes)),
		nodeIdx:  make(map[string]int, len(nodes)),
		segIdx:   make(map[string]int, len(segments)),
		feeder:   make(map[string]int, len(segments)),
		children: make(map[string][]int),
		source:   -1,
	}
	copy(n.nodes, nodes)

	for i, nd := range n.nodes {
		if nd.ID == "" {
			return nil, topoErr(TopologyMalformed, "", "node %d has no identifier", i)
		}
		if _, dup := n.nodeIdx[nd.ID]; dup {
			return nil, topoErr(TopologyMalformed, nd.ID, "duplicate node identifier")
		}
		n.nodeIdx[nd.ID] = i
		if nd.Role == RoleSource {
			if n.source >= 0 {
				return nil, topoErr(TopologySource, nd.ID, "second source node (first is %s)", n.nodes[n.source].ID)
			}
			n.source = i
		}
	}
	if n.source < 0 {
		return nil, topoErr(TopologySource, "", "network has no source node")
	}

	segs := make([]Segment, len(segments))
	copy(segs, segments)
	seen := make(map[string]bool, len(segs))
	for i, s := range segs {
		switch {
		case s.ID == "":
			return nil, topoErr(TopologyMalformed, "", "segment %d has no identifier", i)
		case seen[s.ID]:
			return nil, topoErr(TopologyMalformed, s.ID, "duplicate segment identifier")
		case s.Length <= 0:
			return nil, topoErr(TopologyMalformed, s.ID, "length %.3f m must be > 0", s.Length)
		case s.Upstream == s.Downstream:
			return nil, topoErr(TopologyCyclic, s.ID, "segment starts and ends at node %s", s.Upstream)
		}
		seen[s.ID] = true
		if _, ok := n.nodeIdx[s.Upstream]; !ok {
			return nil, topoErr(TopologyMalformed, s.ID, "unknown upstream node %q", s.Upstream)
		}
		if _, ok := n.nodeIdx[s.Downstream]; !ok {
			return nil, topoErr(TopologyMalformed, s.ID, "unknown downstream node %q", s.Downstream)
		}
		if s.Downstream == n.nodes[n.source].ID {
			return nil, topoErr(TopologyCyclic, s.ID, "segment flows back into the source")
		}
		if prev, ok := n.feeder[s.Downstream]; ok {
			return nil, topoErr(TopologyCyclic, s.Downstream, "node fed by both %s and %s", segs[prev].ID, s.ID)
		}
		n.feeder[s.Downstream] = i
		n.children[s.Upstream] = append(n.children[s.Upstream], i)
	}
	for id := range n.children {
		kids := n.children[id]
		sort.SliceStable(kids, func(a, b int) bool { return LessID(segs[kids[a]].ID, segs[kids[b]].ID) })
	}

	// Depth-first pre-order from the source.
	order := make([]int, 0, len(segs))
	reached := map[string]bool{n.nodes[n.source].ID: true}
	stack := []string{n.nodes[n.source].ID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		kids := n.children[id]
		for k := len(kids) - 1; k >= 0; k-- {
			stack = append(stack, segs[kids[k]].Downstream)
		}
		if f, ok := n.feeder[id]; ok {
			order = append(order, f)
		}
		reached[id] = true
	}

	if len(order) != len(segs) {
		return nil, n.unreachable(segs, reached)
	}
	for _, nd := range n.nodes {
		if !reached[nd.ID] {
			return nil, topoErr(TopologyDisconnected, nd.ID, "node is not connected to the source")
		}
	}

	// Re-index segments in traversal order.
	n.segments = make([]Segment, len(segs))
	remap := make(map[int]int, len(segs))
	for pos, old := range order {
		n.segments[pos] = segs[old]
		n.segIdx[segs[old].ID] = pos
		remap[old] = pos
	}
	for id, f := range n.feeder {
		n.feeder[id] = remap[f]
	}
	for id, kids := range n.children {
		for k := range kids {
			kids[k] = remap[kids[k]]
		}
		n.children[id] = kids
	}

	for _, s := range n.segments {
		i := n.nodeIdx[s.Downstream]
		if n.nodes[i].Role == RoleOutlet {
			if len(n.children[s.Downstream]) > 0 {
				return nil, topoErr(TopologyMalformed, s.Downstream, "outlet node feeds further segments")
			}
			n.outlets = append(n.outlets, i)
		}
	}
	for _, nd := range n.nodes {
		if nd.Role == RoleOutlet && nd.Fixture == nil {
			return nil, topoErr(TopologyMalformed, nd.ID, "outlet has no fixture")
		}
	}
	return n, nil
}

// unreachable explains why some segments were never visited: either they
// sit on a directed loop or they hang off nodes the source cannot reach.
func (n *Network) unreachable(segs []Segment, reached map[string]bool) *TopologyError {
	for _, s := range segs {
		if reached[s.Downstream] {
			continue
		}
		walk := map[string]bool{}
		id := s.Downstream
		for {
			if walk[id] {
				return topoErr(TopologyCyclic, s.ID, "segment lies on a closed loop")
			}
			walk[id] = true
			f, ok := n.feeder[id]
			if !ok {
				break
			}
			id = segs[f].Upstream
		}
		return topoErr(TopologyDisconnected, s.ID, "segment is not connected to the source")
	}
	return topoErr(TopologyDisconnected, "", "network is not connected")
}

// Source returns the source node.
func (n *Network) Source() Node {
	return n.nodes[n.source]
}

// SourceGrade is the hydraulic grade (m) available at the source: its
// elevation plus the water level above it.
func (n *Network) SourceGrade() float64 {
	s := n.Source()
	return s.Elevation() + s.Head
}

// StaticPressure is the pressure head (m) at a node with no flow.
func (n *Network) StaticPressure(nodeID string) float64 {
	nd, _ := n.Node(nodeID)
	return n.SourceGrade() - nd.Elevation()
}

// Nodes returns all nodes in input order.
func (n *Network) Nodes() []Node {
	return n.nodes
}

// Node looks up a node by ID.
func (n *Network) Node(id string) (Node, bool) {
	i, ok := n.nodeIdx[id]
	if !ok {
		return Node{}, false
	}
	return n.nodes[i], true
}

// Segments returns the segments in traversal order.
func (n *Network) Segments() []Segment {
	return n.segments
}

// Segment looks up a segment by ID.
func (n *Network) Segment(id string) (Segment, bool) {
	i, ok := n.segIdx[id]
	if !ok {
		return Segment{}, false
	}
	return n.segments[i], true
}

// SegmentIndex returns the traversal position of a segment, or -1.
func (n *Network) SegmentIndex(id string) int {
	i, ok := n.segIdx[id]
	if !ok {
		return -1
	}
	return i
}

// Outlets returns outlet nodes in traversal order.
func (n *Network) Outlets() []Node {
	out := make([]Node, len(n.outlets))
	for k, i := range n.outlets {
		out[k] = n.nodes[i]
	}
	return out
}

// Children returns the segments leaving a node, in ID order.
func (n *Network) Children(nodeID string) []Segment {
	kids := n.children[nodeID]
	out := make([]Segment, len(kids))
	for k, i := range kids {
		out[k] = n.segments[i]
	}
	return out
}

// Parent returns the segment feeding the upstream node of segment id.
// The first segment out of the source has no parent.
func (n *Network) Parent(id string) (Segment, bool) {
	s, ok := n.Segment(id)
	if !ok {
		return Segment{}, false
	}
	f, ok := n.feeder[s.Upstream]
	if !ok {
		return Segment{}, false
	}
	return n.segments[f], true
}

// PathTo returns the segments from the source down to nodeID.
func (n *Network) PathTo(nodeID string) []Segment {
	var rev []Segment
	id := nodeID
	for {
		f, ok := n.feeder[id]
		if !ok {
			break
		}
		rev = append(rev, n.segments[f])
		id = n.segments[f].Upstream
	}
	path := make([]Segment, len(rev))
	for i, s := range rev {
		path[len(rev)-1-i] = s
	}
	return path
}

// Subtree returns segment id and every segment downstream of it, in
// traversal order.
func (n *Network) Subtree(id string) []Segment {
	start, ok := n.segIdx[id]
	if !ok {
		return nil
	}
	var out []Segment
	stack := []int{start}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, n.segments[i])
		kids := n.children[n.segments[i].Downstream]
		for k := len(kids) - 1; k >= 0; k-- {
			stack = append(stack, kids[k])
		}
	}
	return out
}
