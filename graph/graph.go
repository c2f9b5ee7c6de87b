// Package graph holds the network model of a loaded dataset: nodes with
// their adjacency, edges with cached endpoint coordinates, and the
// viewport used to cull what is rendered.
package graph

import (
	"errors"
	"fmt"
	"math"

	"github.com/TFMV/assaynet/models"
	"github.com/TFMV/assaynet/physics"
)

var (
	ErrMalformed    = errors.New("malformed network")
	ErrCoordsLength = errors.New("coordinate count does not match node count")
	ErrUnknownNode  = errors.New("unknown node")
	ErrThreshold    = errors.New("network threshold out of range")
	ErrTransform    = errors.New("invalid transform")
)

// Adjacent is one entry of a node's adjacency list.
type Adjacent struct {
	Neighbor int
	Edge     int
}

// Node is a compound in the network. The embedded Particle is the only
// part handed to the physics engine.
type Node struct {
	physics.Particle
	Index     int
	Adjacency []Adjacent
	Selected  bool
	Record    models.Record
}

// Edge is a similarity pair. Source is always the lower node index.
// SX, SY, TX, TY cache the endpoint positions for the render loop.
type Edge struct {
	Num    int
	Source int
	Target int
	Weight float64
	SX, SY float64
	TX, TY float64
	Record models.Record
}

// Options configure the viewport of a model.
type Options struct {
	Width       float64
	Height      float64
	FocusMargin float64
}

// DefaultOptions returns the viewport defaults.
func DefaultOptions() Options {
	return Options{Width: 1200, Height: 1000, FocusMargin: 50}
}

// Model owns the nodes, edges and viewport of one network view.
type Model struct {
	nodes     []*Node
	edges     []*Edge
	particles []*physics.Particle

	viewBox   Rect
	transform models.Transform
	focusArea Rect
	boundary  Rect
	margin    float64

	threshold float64
	cutoff    float64
}

// New builds a model from a dataset and its view snapshot. Node records
// must carry a dense 0..N-1 index and every edge must join two distinct
// existing nodes. Edges are normalized so that Source < Target.
func New(d *models.Dataset, snap *models.Snapshot, opts Options) (*Model, error) {
	if snap == nil {
		snap = models.DefaultSnapshot(d.Cutoff())
	}
	m := &Model{
		nodes:     make([]*Node, len(d.Nodes.Records)),
		edges:     make([]*Edge, len(d.Edges.Records)),
		particles: make([]*physics.Particle, len(d.Nodes.Records)),
		transform: snap.FieldTransform,
		margin:    opts.FocusMargin,
		threshold: snap.NetworkThreshold,
		cutoff:    snap.NetworkThresholdCutoff,
	}
	if !m.transform.Valid() {
		m.transform = models.Identity
	}

	for i, r := range d.Nodes.Records {
		idx, err := r.Int(models.KeyIndex)
		if err != nil {
			return nil, fmt.Errorf("%w: node record %d: %v", ErrMalformed, i, err)
		}
		if idx < 0 || idx >= len(m.nodes) {
			return nil, fmt.Errorf("%w: node index %d outside 0..%d", ErrMalformed, idx, len(m.nodes)-1)
		}
		if m.nodes[idx] != nil {
			return nil, fmt.Errorf("%w: duplicate node index %d", ErrMalformed, idx)
		}
		m.nodes[idx] = &Node{Index: idx, Record: r}
		m.particles[idx] = &m.nodes[idx].Particle
	}

	for num, r := range d.Edges.Records {
		e, err := newEdge(num, r, len(m.nodes))
		if err != nil {
			return nil, err
		}
		m.edges[num] = e
		m.nodes[e.Source].Adjacency = append(m.nodes[e.Source].Adjacency, Adjacent{Neighbor: e.Target, Edge: num})
		m.nodes[e.Target].Adjacency = append(m.nodes[e.Target].Adjacency, Adjacent{Neighbor: e.Source, Edge: num})
	}

	coords := snap.Coords
	if len(coords) == 0 {
		coords = make([]models.Coord, len(m.nodes))
		for i := range coords {
			coords[i].X, coords[i].Y = physics.InitialPosition(i)
		}
	}
	if err := m.SetAllCoords(coords); err != nil {
		return nil, err
	}
	m.SetViewBox(opts.Width, opts.Height)
	return m, nil
}

func newEdge(num int, r models.Record, n int) (*Edge, error) {
	s, err := r.Int(models.KeySource)
	if err != nil {
		return nil, fmt.Errorf("%w: edge %d: %v", ErrMalformed, num, err)
	}
	t, err := r.Int(models.KeyTarget)
	if err != nil {
		return nil, fmt.Errorf("%w: edge %d: %v", ErrMalformed, num, err)
	}
	w, err := r.Float(models.KeyWeight)
	if err != nil {
		return nil, fmt.Errorf("%w: edge %d: %v", ErrMalformed, num, err)
	}
	if s < 0 || s >= n || t < 0 || t >= n {
		return nil, fmt.Errorf("%w: edge %d references missing node (%d, %d)", ErrMalformed, num, s, t)
	}
	if s == t {
		return nil, fmt.Errorf("%w: edge %d is a self loop on %d", ErrMalformed, num, s)
	}
	if math.IsInf(w, 0) {
		return nil, fmt.Errorf("%w: edge %d has infinite weight", ErrMalformed, num)
	}
	if s > t {
		s, t = t, s
	}
	return &Edge{Num: num, Source: s, Target: t, Weight: w, Record: r}, nil
}

// Nodes returns all nodes ordered by index.
func (m *Model) Nodes() []*Node { return m.nodes }

// Edges returns all edges ordered by number.
func (m *Model) Edges() []*Edge { return m.edges }

// Node returns the node with the given index.
func (m *Model) Node(i int) (*Node, error) {
	if i < 0 || i >= len(m.nodes) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownNode, i)
	}
	return m.nodes[i], nil
}

// Particles returns the position view of every node, index-aligned.
func (m *Model) Particles() []*physics.Particle { return m.particles }

// Incident returns the edges touching node i.
func (m *Model) Incident(i int) []*Edge {
	n := m.nodes[i]
	out := make([]*Edge, len(n.Adjacency))
	for k, a := range n.Adjacency {
		out[k] = m.edges[a.Edge]
	}
	return out
}

// NetworkThreshold returns the minimum weight of a rendered edge.
func (m *Model) NetworkThreshold() float64 { return m.threshold }

// Cutoff returns the lowest threshold the query allows.
func (m *Model) Cutoff() float64 { return m.cutoff }

// SetNetworkThreshold changes the minimum weight of a rendered edge.
func (m *Model) SetNetworkThreshold(t float64) error {
	if math.IsNaN(t) || t < m.cutoff || t > 1 {
		return fmt.Errorf("%w: %v not in [%v, 1]", ErrThreshold, t, m.cutoff)
	}
	m.threshold = t
	return nil
}

// ThresholdEdges returns the edges passing the network threshold,
// regardless of the viewport.
func (m *Model) ThresholdEdges() []*Edge {
	var out []*Edge
	for _, e := range m.edges {
		if e.Weight >= m.threshold {
			out = append(out, e)
		}
	}
	return out
}

// Coords returns the current node positions, index-aligned.
func (m *Model) Coords() []models.Coord {
	out := make([]models.Coord, len(m.nodes))
	for i, n := range m.nodes {
		out[i] = models.Coord{X: n.X, Y: n.Y}
	}
	return out
}

// SetAllCoords moves every node, refreshes every cached edge endpoint
// and recomputes the boundary.
func (m *Model) SetAllCoords(coords []models.Coord) error {
	if len(coords) != len(m.nodes) {
		return fmt.Errorf("%w: got %d, want %d", ErrCoordsLength, len(coords), len(m.nodes))
	}
	for i, n := range m.nodes {
		n.X, n.Y = coords[i].X, coords[i].Y
		m.refreshEndpoints(n)
	}
	m.updateBoundary()
	return nil
}

// SetCoords moves a single node and refreshes the cached endpoints of its
// incident edges. The boundary is left alone; it is recomputed on the
// next bulk update.
func (m *Model) SetCoords(i int, x, y float64) error {
	n, err := m.Node(i)
	if err != nil {
		return err
	}
	n.X, n.Y = x, y
	if n.Fixed {
		n.FX, n.FY = x, y
	}
	m.refreshEndpoints(n)
	return nil
}

// RefreshEdge recomputes the cached endpoints of edge num from the
// current positions of its nodes.
func (m *Model) RefreshEdge(num int) {
	if num < 0 || num >= len(m.edges) {
		return
	}
	e := m.edges[num]
	s, t := m.nodes[e.Source], m.nodes[e.Target]
	e.SX, e.SY = s.X, s.Y
	e.TX, e.TY = t.X, t.Y
}

// SyncEndpoints recomputes every cached edge endpoint. Unlike
// SetAllCoords it leaves the boundary alone.
func (m *Model) SyncEndpoints() {
	for num := range m.edges {
		m.RefreshEdge(num)
	}
}

func (m *Model) refreshEndpoints(n *Node) {
	for _, a := range n.Adjacency {
		e := m.edges[a.Edge]
		if n.Index < a.Neighbor {
			e.SX, e.SY = n.X, n.Y
		} else {
			e.TX, e.TY = n.X, n.Y
		}
	}
}

// PinAll fixes every node at its current position.
func (m *Model) PinAll() {
	for _, n := range m.nodes {
		n.Pin(n.X, n.Y)
	}
}

// UnpinAll releases every node to the simulation.
func (m *Model) UnpinAll() {
	for _, n := range m.nodes {
		n.Unpin()
	}
}

// SelectOnly makes node i the only selected node.
func (m *Model) SelectOnly(i int) error {
	if _, err := m.Node(i); err != nil {
		return err
	}
	for _, n := range m.nodes {
		n.Selected = n.Index == i
	}
	return nil
}

// ToggleSelected flips the selection of node i.
func (m *Model) ToggleSelected(i int) error {
	n, err := m.Node(i)
	if err != nil {
		return err
	}
	n.Selected = !n.Selected
	return nil
}

// Selected returns the indices of the selected nodes.
func (m *Model) Selected() []int {
	var out []int
	for _, n := range m.nodes {
		if n.Selected {
			out = append(out, n.Index)
		}
	}
	return out
}
