package network

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/geo"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/tables"
)

// DefaultTolerance is the distance (m) under which drawing endpoints merge.
const DefaultTolerance = 0.01

// Drawing is the geometry exported from the CAD plan: LINE entities and
// TEXT entities with their insertion points.
type Drawing struct {
	Lines []DrawingLine `yaml:"lines" json:"lines"`
	Texts []DrawingText `yaml:"texts" json:"texts"`
}

type DrawingLine struct {
	Start []float64 `yaml:"start" json:"start"`
	End   []float64 `yaml:"end" json:"end"`
	Layer string    `yaml:"layer,omitempty" json:"layer,omitempty"`
}

type DrawingText struct {
	Content string    `yaml:"content" json:"content"`
	At      []float64 `yaml:"at" json:"at"`
}

// LoadDrawing reads a drawing export from a YAML file.
func LoadDrawing(path string) (*Drawing, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading drawing file: %w", err)
	}
	var d Drawing
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parsing drawing YAML: %w", err)
	}
	return &d, nil
}

// DrawingSource builds a network from drawing geometry. Labels placed on
// a line endpoint tag that line: a number on its downstream end names the
// segment,
// "res" marks the reservoir (the endpoint it sits on is the source and the
// label height is the water level), "rg"/"rgl" add gate/globe valves,
// "hidr..." adds a water meter, and any other label is a fixture code
// whose outlet is the line's downstream node.
type DrawingSource struct {
	Drawing   *Drawing
	Material  string
	ExtraHead float64 // added on top of the reservoir level
	Tolerance float64
	Logger    *slog.Logger
}

type drawnLine struct {
	id         string
	start, end int // endpoint indices
	labels     []label
}

type label struct {
	text  DrawingText
	point int // endpoint the text sits on
}

// Load implements Source.
func (d DrawingSource) Load(ref *tables.Tables) (*Network, error) {
	if d.Drawing == nil || len(d.Drawing.Lines) == 0 {
		return nil, topoErr(TopologyMalformed, "", "drawing has no lines")
	}
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	tol := d.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}

	ix := newEndpointIndex(tol)
	lines := make([]drawnLine, len(d.Drawing.Lines))
	for i, l := range d.Drawing.Lines {
		if len(l.Start) < 2 || len(l.End) < 2 {
			return nil, topoErr(TopologyMalformed, fmt.Sprintf("line %d", i+1), "line needs start and end coordinates")
		}
		a := ix.add(geo.FromSlice(l.Start).Round(2))
		b := ix.add(geo.FromSlice(l.End).Round(2))
		if a == b {
			return nil, topoErr(TopologyMalformed, fmt.Sprintf("line %d", i+1), "line has zero length")
		}
		lines[i] = drawnLine{id: fmt.Sprintf("s%d", i+1), start: a, end: b}
	}

	numbers := make(map[int]string) // endpoint -> segment number
	for _, t := range d.Drawing.Texts {
		content := strings.TrimSpace(t.Content)
		if content == "" || len(t.At) < 2 {
			continue
		}
		p := ix.find(geo.FromSlice(t.At).Round(2))
		if p < 0 {
			log.Warn("drawing text not on any line endpoint", "text", content)
			continue
		}
		if isDigits(content) {
			numbers[p] = content
			continue
		}
		attached := false
		for _, byStart := range []bool{true, false} {
			for i := range lines {
				if (byStart && lines[i].start == p) || (!byStart && lines[i].end == p) {
					lines[i].labels = append(lines[i].labels, label{text: DrawingText{Content: content, At: t.At}, point: p})
					attached = true
					break
				}
			}
			if attached {
				break
			}
		}
	}

	return d.assemble(ref, ix, lines, numbers)
}

// assemble orients the lines away from the reservoir and names each one
// after the number sitting on its downstream endpoint. Every endpoint is
// fed by a single line, so a number names at most one segment however the
// lines were drawn.
func (d DrawingSource) assemble(ref *tables.Tables, ix *endpointIndex, lines []drawnLine, numbers map[int]string) (*Network, error) {
	sourceNode, sourceLine := -1, -1
	var level float64
	for i, l := range lines {
		for _, lb := range l.labels {
			if labelCode(lb.text.Content) != "res" {
				continue
			}
			if sourceLine >= 0 {
				return nil, topoErr(TopologySource, l.id, "second reservoir label (first on %s)", lines[sourceLine].id)
			}
			sourceLine, sourceNode = i, lb.point
			level = geo.FromSlice(lb.text.At).Z
		}
	}
	if sourceLine < 0 {
		return nil, topoErr(TopologySource, "", "no line is labelled res")
	}

	// Orient lines away from the source.
	adj := make(map[int][]int)
	for i, l := range lines {
		adj[l.start] = append(adj[l.start], i)
		adj[l.end] = append(adj[l.end], i)
	}
	up := make([]int, len(lines))
	down := make([]int, len(lines))
	oriented := make([]bool, len(lines))
	visited := map[int]bool{sourceNode: true}
	queue := []int{sourceNode}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, li := range adj[p] {
			if oriented[li] {
				continue
			}
			other := lines[li].end
			if other == p {
				other = lines[li].start
			}
			if visited[other] {
				return nil, topoErr(TopologyCyclic, lines[li].id, "line closes a loop")
			}
			up[li], down[li] = p, other
			oriented[li] = true
			visited[other] = true
			queue = append(queue, other)
		}
	}
	for i, l := range lines {
		if !oriented[i] {
			return nil, topoErr(TopologyDisconnected, l.id, "line is not connected to the reservoir")
		}
	}
	for i := range lines {
		if id, ok := numbers[down[i]]; ok {
			lines[i].id = id
		}
	}

	nodes := make([]Node, len(ix.points))
	for i, p := range ix.points {
		nodes[i] = Node{ID: fmt.Sprintf("n%d", i+1), Position: p, Role: RoleJunction}
	}
	src := &nodes[sourceNode]
	src.Role = RoleSource
	src.Head = level - src.Position.Z + d.ExtraHead

	segs := make([]Segment, len(lines))
	for i, l := range lines {
		s := Segment{
			ID:         l.id,
			Upstream:   nodes[up[i]].ID,
			Downstream: nodes[down[i]].ID,
			Length:     ix.points[up[i]].Distance(ix.points[down[i]]),
			Material:   d.Material,
		}
		for _, lb := range l.labels {
			code := labelCode(lb.text.Content)
			switch {
			case code == "res":
			case code == "rg":
				s.Fittings = append(s.Fittings, tables.FittingGateValve)
			case code == "rgl":
				s.Fittings = append(s.Fittings, tables.FittingGlobeValve)
			case strings.HasPrefix(code, "hidr"):
				s.Fittings = append(s.Fittings, tables.FittingMeter)
			default:
				out := &nodes[down[i]]
				if out.Fixture != nil {
					return nil, topoErr(TopologyMalformed, l.id, "fixtures %s and %s on the same outlet", out.Fixture.Label, lb.text.Content)
				}
				fx, err := ref.Fixture(code)
				if err != nil {
					return nil, topoErr(TopologyMalformed, l.id, "label %q: %v", lb.text.Content, err)
				}
				out.Role = RoleOutlet
				out.Fixture = &Fixture{Code: fx.Code, Label: lb.text.Content, Weight: fx.Weight, MinPressure: fx.MinPressure}
			}
		}
		segs[i] = s
	}

	n, err := New(nodes, segs)
	if err != nil {
		return nil, err
	}
	return n.WithFittings(DetectFittings(n))
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

// labelCode keeps the letters of a drawing label, lower-cased: "CH2" -> "ch".
func labelCode(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
