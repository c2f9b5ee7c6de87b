package render

import (
	"github.com/TFMV/assaynet/graph"
	"github.com/TFMV/assaynet/models"
)

// NodeState is the position of a materialized node.
type NodeState struct {
	Index int     `json:"index"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// EdgeState is the segment of a materialized edge.
type EdgeState struct {
	Num    int     `json:"num"`
	Source int     `json:"source"`
	Target int     `json:"target"`
	SX     float64 `json:"sx"`
	SY     float64 `json:"sy"`
	TX     float64 `json:"tx"`
	TY     float64 `json:"ty"`
}

// Frame is the accumulated surface delta between two flushes. Nil
// pointers mean "unchanged".
type Frame struct {
	Seq         uint64            `json:"seq"`
	Enter       []NodeState       `json:"enter,omitempty"`
	Exit        []int             `json:"exit,omitempty"`
	EnterEdges  []EdgeState       `json:"enterEdges,omitempty"`
	ExitEdges   []int             `json:"exitEdges,omitempty"`
	Moves       []NodeState       `json:"moves,omitempty"`
	EdgeMoves   []EdgeState       `json:"edgeMoves,omitempty"`
	NodeStyles  []NodeStyle       `json:"nodeStyles,omitempty"`
	EdgeStyles  []EdgeStyle       `json:"edgeStyles,omitempty"`
	Detail      *LevelOfDetail    `json:"detail,omitempty"`
	Transform   *models.Transform `json:"transform,omitempty"`
	Selection   *[]int            `json:"selection,omitempty"`
	Temperature *float64          `json:"temperature,omitempty"`
}

// Empty reports whether the frame carries no change.
func (f *Frame) Empty() bool {
	return len(f.Enter) == 0 && len(f.Exit) == 0 &&
		len(f.EnterEdges) == 0 && len(f.ExitEdges) == 0 &&
		len(f.Moves) == 0 && len(f.EdgeMoves) == 0 &&
		len(f.NodeStyles) == 0 && len(f.EdgeStyles) == 0 &&
		f.Detail == nil && f.Transform == nil &&
		f.Selection == nil && f.Temperature == nil
}

// Recorder is a Surface that accumulates notifications into frames.
// Repeated moves of the same element between flushes are coalesced.
type Recorder struct {
	seq       uint64
	frame     Frame
	moves     map[int]int
	edgeMoves map[int]int
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{moves: map[int]int{}, edgeMoves: map[int]int{}}
}

func nodeState(n *graph.Node) NodeState {
	return NodeState{Index: n.Index, X: n.X, Y: n.Y}
}

func edgeState(e *graph.Edge) EdgeState {
	return EdgeState{Num: e.Num, Source: e.Source, Target: e.Target, SX: e.SX, SY: e.SY, TX: e.TX, TY: e.TY}
}

func (r *Recorder) Materialize(c Change) {
	for _, n := range c.EnterNodes {
		r.frame.Enter = append(r.frame.Enter, nodeState(n))
	}
	r.frame.Exit = append(r.frame.Exit, c.ExitNodes...)
	for _, e := range c.EnterEdges {
		r.frame.EnterEdges = append(r.frame.EnterEdges, edgeState(e))
	}
	r.frame.ExitEdges = append(r.frame.ExitEdges, c.ExitEdges...)
	d := c.Detail
	r.frame.Detail = &d
}

func (r *Recorder) Move(nodes []*graph.Node, edges []*graph.Edge) {
	for _, n := range nodes {
		if k, ok := r.moves[n.Index]; ok {
			r.frame.Moves[k] = nodeState(n)
			continue
		}
		r.moves[n.Index] = len(r.frame.Moves)
		r.frame.Moves = append(r.frame.Moves, nodeState(n))
	}
	for _, e := range edges {
		if k, ok := r.edgeMoves[e.Num]; ok {
			r.frame.EdgeMoves[k] = edgeState(e)
			continue
		}
		r.edgeMoves[e.Num] = len(r.frame.EdgeMoves)
		r.frame.EdgeMoves = append(r.frame.EdgeMoves, edgeState(e))
	}
}

func (r *Recorder) Restyle(nodes []NodeStyle, edges []EdgeStyle) {
	r.frame.NodeStyles = append(r.frame.NodeStyles, nodes...)
	r.frame.EdgeStyles = append(r.frame.EdgeStyles, edges...)
}

func (r *Recorder) SetTransform(t models.Transform) { r.frame.Transform = &t }

func (r *Recorder) SetSelection(indices []int) {
	sel := append([]int{}, indices...)
	r.frame.Selection = &sel
}

func (r *Recorder) SetTemperature(t float64) { r.frame.Temperature = &t }

// Flush returns the pending frame and starts a new one. The boolean is
// false when nothing changed since the last flush.
func (r *Recorder) Flush() (Frame, bool) {
	f := r.frame
	r.frame = Frame{}
	clear(r.moves)
	clear(r.edgeMoves)
	if f.Empty() {
		return f, false
	}
	r.seq++
	f.Seq = r.seq
	return f, true
}
