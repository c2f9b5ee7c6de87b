// Package render keeps a rendering surface in step with a graph model.
// It decides which nodes and edges are materialized, which level of detail
// applies, and which attributes need to be refreshed.
package render

import (
	"log/slog"

	"github.com/TFMV/assaynet/graph"
	"github.com/TFMV/assaynet/models"
)

// LevelOfDetail describes how much of the visible network is drawn.
type LevelOfDetail struct {
	// Focused shows full node content and enables continuous culling.
	Focused bool `json:"focused"`
	// Overlook suppresses every edge.
	Overlook bool `json:"overlook"`
}

// Change is the materialization delta of one update pass. Entering
// elements carry their current position.
type Change struct {
	EnterNodes []*graph.Node
	ExitNodes  []int
	EnterEdges []*graph.Edge
	ExitEdges  []int
	Detail     LevelOfDetail
}

// Surface receives rendering notifications. Implementations must not
// retain the node and edge pointers beyond the call.
type Surface interface {
	Materialize(c Change)
	Move(nodes []*graph.Node, edges []*graph.Edge)
	Restyle(nodes []NodeStyle, edges []EdgeStyle)
	SetTransform(t models.Transform)
	SetSelection(indices []int)
	SetTemperature(t float64)
}

// Thresholds are the level-of-detail switch points, in rendered nodes.
type Thresholds struct {
	Focused  int `toml:"focused_view_threshold"`
	Overlook int `toml:"overlook_view_threshold"`
}

// DefaultThresholds returns the stock level-of-detail switch points.
func DefaultThresholds() Thresholds {
	return Thresholds{Focused: 100, Overlook: 500}
}

// Sync materializes the renderable subset of a model onto a surface.
type Sync struct {
	model   *graph.Model
	surface Surface
	limits  Thresholds
	mapping Mapping
	logger  *slog.Logger

	nodes   []*graph.Node
	edges   []*graph.Edge
	nodeSet map[int]bool
	edgeSet map[int]bool
	detail  LevelOfDetail
	dirty   bool
}

// NewSync creates a sync with nothing materialized. The first Update
// materializes and styles everything in view.
func NewSync(m *graph.Model, s Surface, limits Thresholds, mp Mapping) *Sync {
	return &Sync{
		model:   m,
		surface: s,
		limits:  limits,
		mapping: mp,
		logger:  slog.Default().With("component", "render"),
		nodeSet: map[int]bool{},
		edgeSet: map[int]bool{},
		dirty:   true,
	}
}

// Update refreshes the cached edge endpoints, requeries the renderable
// sets against the current focus area, re-evaluates the level of detail
// and notifies the surface of what entered, what left and what needs
// restyling.
func (s *Sync) Update() {
	s.model.SyncEndpoints()
	nodes := s.model.NodesToRender()
	detail := LevelOfDetail{
		Focused:  len(nodes) < s.limits.Focused,
		Overlook: len(nodes) > s.limits.Overlook,
	}
	var edges []*graph.Edge
	if !detail.Overlook {
		edges = s.model.EdgesToRender()
	}

	c := Change{Detail: detail}
	var keptNodes []*graph.Node
	nodeSet := make(map[int]bool, len(nodes))
	for _, n := range nodes {
		nodeSet[n.Index] = true
		if s.nodeSet[n.Index] {
			keptNodes = append(keptNodes, n)
		} else {
			c.EnterNodes = append(c.EnterNodes, n)
		}
	}
	for _, n := range s.nodes {
		if !nodeSet[n.Index] {
			c.ExitNodes = append(c.ExitNodes, n.Index)
		}
	}

	var keptEdges []*graph.Edge
	edgeSet := make(map[int]bool, len(edges))
	for _, e := range edges {
		edgeSet[e.Num] = true
		if s.edgeSet[e.Num] {
			keptEdges = append(keptEdges, e)
		} else {
			c.EnterEdges = append(c.EnterEdges, e)
		}
	}
	for _, e := range s.edges {
		if !edgeSet[e.Num] {
			c.ExitEdges = append(c.ExitEdges, e.Num)
		}
	}

	refreshAll := s.dirty || detail.Focused != s.detail.Focused
	s.nodes, s.edges = nodes, edges
	s.nodeSet, s.edgeSet = nodeSet, edgeSet
	s.detail = detail
	s.dirty = false

	s.surface.Materialize(c)
	if len(keptNodes) > 0 || len(keptEdges) > 0 {
		s.surface.Move(keptNodes, keptEdges)
	}
	if refreshAll {
		s.restyle(nodes, edges)
	} else {
		s.restyle(c.EnterNodes, c.EnterEdges)
	}
	s.logger.Debug("update",
		"nodes", len(nodes), "edges", len(edges),
		"enter", len(c.EnterNodes), "exit", len(c.ExitNodes),
		"focused", detail.Focused, "overlook", detail.Overlook,
		"restyle_all", refreshAll)
}

func (s *Sync) restyle(nodes []*graph.Node, edges []*graph.Edge) {
	if len(nodes) == 0 && len(edges) == 0 {
		return
	}
	ns := make([]NodeStyle, len(nodes))
	for i, n := range nodes {
		ns[i] = s.mapping.node(n, s.detail)
	}
	es := make([]EdgeStyle, len(edges))
	for i, e := range edges {
		es[i] = s.mapping.edge(e)
	}
	s.surface.Restyle(ns, es)
}

// Clear removes every materialized element from the surface.
func (s *Sync) Clear() {
	c := Change{Detail: s.detail}
	for _, n := range s.nodes {
		c.ExitNodes = append(c.ExitNodes, n.Index)
	}
	for _, e := range s.edges {
		c.ExitEdges = append(c.ExitEdges, e.Num)
	}
	s.nodes, s.edges = nil, nil
	s.nodeSet, s.edgeSet = map[int]bool{}, map[int]bool{}
	s.dirty = true
	s.surface.Materialize(c)
}

// Tick moves the materialized nodes and edges to their current
// positions. It does not requery the focus area; edges that are not
// materialized are refreshed by the next Update.
func (s *Sync) Tick() {
	for _, e := range s.edges {
		s.model.RefreshEdge(e.Num)
	}
	if len(s.nodes) > 0 || len(s.edges) > 0 {
		s.surface.Move(s.nodes, s.edges)
	}
}

// UpdateNode re-renders node i and its materialized incident edges.
func (s *Sync) UpdateNode(i int) {
	n, err := s.model.Node(i)
	if err != nil {
		return
	}
	var nodes []*graph.Node
	if s.nodeSet[i] {
		nodes = []*graph.Node{n}
	}
	var edges []*graph.Edge
	for _, a := range n.Adjacency {
		if s.edgeSet[a.Edge] {
			edges = append(edges, s.model.Edges()[a.Edge])
		}
	}
	if len(nodes) > 0 || len(edges) > 0 {
		s.surface.Move(nodes, edges)
	}
}

// SetMapping replaces the visual channels. Every materialized element is
// restyled on the next Update.
func (s *Sync) SetMapping(mp Mapping) {
	s.mapping = mp
	s.dirty = true
}

// Mapping returns the visual channels in use.
func (s *Sync) Mapping() Mapping { return s.mapping }

// Invalidate forces a full attribute refresh on the next Update.
func (s *Sync) Invalidate() { s.dirty = true }

// SetTransform forwards a transform to the surface without recomputing
// the focus area.
func (s *Sync) SetTransform(t models.Transform) { s.surface.SetTransform(t) }

// Selection pushes the current selection to the surface overlay.
func (s *Sync) Selection() { s.surface.SetSelection(s.model.Selected()) }

// SetTemperature updates the temperature readout.
func (s *Sync) SetTemperature(t float64) { s.surface.SetTemperature(t) }

// Detail returns the level of detail of the last update.
func (s *Sync) Detail() LevelOfDetail { return s.detail }

// Rendered returns the materialized nodes and edges.
func (s *Sync) Rendered() ([]*graph.Node, []*graph.Edge) { return s.nodes, s.edges }
