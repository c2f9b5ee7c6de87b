package render

import (
	"sort"
	"testing"

	"github.com/TFMV/assaynet/graph"
	"github.com/TFMV/assaynet/mapping"
	"github.com/TFMV/assaynet/models"
)

func line(t *testing.T, xs []float64, edges ...[2]int) *graph.Model {
	t.Helper()
	d := models.NewDataset("line")
	snap := models.DefaultSnapshot(0.3)
	for i, x := range xs {
		d.Nodes.Records = append(d.Nodes.Records, models.Record{
			models.KeyIndex: float64(i),
			"potency":       float64(i) / 10,
		})
		snap.Coords = append(snap.Coords, models.Coord{X: x, Y: 10})
	}
	for _, e := range edges {
		d.Edges.Records = append(d.Edges.Records, models.Record{
			models.KeySource: float64(e[0]),
			models.KeyTarget: float64(e[1]),
			models.KeyWeight: 0.8,
		})
	}
	m, err := graph.New(d, snap, graph.Options{Width: 200, Height: 100, FocusMargin: 50})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return m
}

func flush(t *testing.T, r *Recorder) Frame {
	t.Helper()
	f, ok := r.Flush()
	if !ok {
		t.Fatal("expected a frame")
	}
	return f
}

func entered(f Frame) []int {
	out := []int{}
	for _, n := range f.Enter {
		out = append(out, n.Index)
	}
	sort.Ints(out)
	return out
}

func styled(f Frame) []int {
	out := []int{}
	for _, s := range f.NodeStyles {
		out = append(out, s.Index)
	}
	sort.Ints(out)
	return out
}

func sameInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestUpdateMaterializesVisibleSet(t *testing.T) {
	m := line(t, []float64{0, 100, 300, 400}, [2]int{0, 1}, [2]int{2, 3})
	r := NewRecorder()
	s := NewSync(m, r, DefaultThresholds(), MappingOf(models.DefaultSnapshot(0.3)))

	s.Update()
	f := flush(t, r)
	if got := entered(f); !sameInts(got, []int{0, 1}) {
		t.Errorf("expected nodes [0 1] to enter, got %v", got)
	}
	if len(f.EnterEdges) != 1 || f.EnterEdges[0].Num != 0 {
		t.Errorf("expected edge 0 to enter, got %+v", f.EnterEdges)
	}
	if got := styled(f); !sameInts(got, []int{0, 1}) {
		t.Errorf("expected every entering node styled, got %v", got)
	}
	if f.Detail == nil || !f.Detail.Focused || f.Detail.Overlook {
		t.Errorf("expected focused detail, got %+v", f.Detail)
	}

	// pan so that nodes 2 and 3 are in view
	m.SetTransform(models.Transform{X: -300, Y: 0, K: 1})
	s.Update()
	f = flush(t, r)
	if got := entered(f); !sameInts(got, []int{2, 3}) {
		t.Errorf("expected nodes [2 3] to enter, got %v", got)
	}
	if !sameInts(f.Exit, []int{0, 1}) {
		t.Errorf("expected nodes [0 1] to exit, got %v", f.Exit)
	}
	if !sameInts(f.ExitEdges, []int{0}) {
		t.Errorf("expected edge 0 to exit, got %v", f.ExitEdges)
	}
	if got := styled(f); !sameInts(got, []int{2, 3}) {
		t.Errorf("expected only entering nodes restyled, got %v", got)
	}
}

func TestOverlookSuppressesEdges(t *testing.T) {
	m := line(t, []float64{0, 10, 20, 30, 40}, [2]int{0, 1}, [2]int{3, 4})
	r := NewRecorder()
	s := NewSync(m, r, Thresholds{Focused: 2, Overlook: 4}, MappingOf(models.DefaultSnapshot(0.3)))

	s.Update()
	f := flush(t, r)
	if !s.Detail().Overlook || s.Detail().Focused {
		t.Fatalf("expected overlook view, got %+v", s.Detail())
	}
	if len(f.EnterEdges) != 0 {
		t.Errorf("expected no edges in overlook view, got %d", len(f.EnterEdges))
	}
	if _, edges := s.Rendered(); len(edges) != 0 {
		t.Errorf("expected no rendered edges, got %d", len(edges))
	}
}

func TestFocusedToggleRestylesEverything(t *testing.T) {
	m := line(t, []float64{0, 10, 400})
	r := NewRecorder()
	s := NewSync(m, r, Thresholds{Focused: 3, Overlook: 500}, MappingOf(models.DefaultSnapshot(0.3)))

	s.Update() // two nodes visible: focused
	flush(t, r)

	m.SetTransform(models.Transform{X: 0, Y: 0, K: 0.5}) // all three visible
	s.Update()
	f := flush(t, r)
	if s.Detail().Focused {
		t.Fatal("expected focused view to switch off")
	}
	if got := styled(f); !sameInts(got, []int{0, 1, 2}) {
		t.Errorf("expected all nodes restyled on detail change, got %v", got)
	}
	for _, st := range f.NodeStyles {
		if st.Structure {
			t.Errorf("node %d still shows structure", st.Index)
		}
	}
}

func TestTickMovesMaterializedElements(t *testing.T) {
	m := line(t, []float64{0, 100, 400, 500}, [2]int{0, 1}, [2]int{2, 3})
	r := NewRecorder()
	s := NewSync(m, r, DefaultThresholds(), MappingOf(models.DefaultSnapshot(0.3)))
	s.Update()
	flush(t, r)

	// the simulation moves particles without touching cached endpoints
	for _, n := range m.Nodes() {
		n.X += 1
	}
	s.Tick()
	s.Tick()
	f := flush(t, r)
	if len(f.Moves) != 2 {
		t.Fatalf("expected two coalesced moves, got %d", len(f.Moves))
	}
	if len(f.Enter) != 0 || len(f.EnterEdges) != 0 {
		t.Errorf("tick must not touch materialization: %+v", f)
	}
	if f.Moves[0].X != 1 {
		t.Errorf("expected node 0 at x=1, got %v", f.Moves[0].X)
	}
	if len(f.EdgeMoves) != 1 {
		t.Fatalf("expected the materialized edge to move, got %+v", f.EdgeMoves)
	}
	if em := f.EdgeMoves[0]; em.SX != 1 || em.TX != 101 {
		t.Errorf("expected edge segment 1..101, got %v..%v", em.SX, em.TX)
	}
	if e := m.Edges()[1]; e.TX != 500 {
		t.Errorf("edge outside the view refreshed on tick: tx=%v", e.TX)
	}
}

func TestUpdateRefreshesStaleEndpoints(t *testing.T) {
	m := line(t, []float64{0, 100, 400}, [2]int{0, 1}, [2]int{1, 2})
	r := NewRecorder()
	s := NewSync(m, r, DefaultThresholds(), MappingOf(models.DefaultSnapshot(0.3)))

	// node 2 drifts into view while no update runs
	m.Nodes()[2].X = 150
	s.Update()

	_, edges := s.Rendered()
	if len(edges) != 2 {
		t.Fatalf("expected both edges rendered, got %d", len(edges))
	}
	for _, e := range edges {
		src, tgt := m.Nodes()[e.Source], m.Nodes()[e.Target]
		if e.SX != src.X || e.SY != src.Y || e.TX != tgt.X || e.TY != tgt.Y {
			t.Errorf("edge %d has stale endpoints %+v", e.Num, e)
		}
	}
}

func TestUpdateNodeMovesIncidentEdges(t *testing.T) {
	m := line(t, []float64{0, 20, 40, 60}, [2]int{0, 1}, [2]int{1, 2}, [2]int{2, 3})
	r := NewRecorder()
	s := NewSync(m, r, DefaultThresholds(), MappingOf(models.DefaultSnapshot(0.3)))
	s.Update()
	flush(t, r)

	if err := m.SetCoords(1, 25, 30); err != nil {
		t.Fatal(err)
	}
	s.UpdateNode(1)
	f := flush(t, r)
	if len(f.Moves) != 1 || f.Moves[0].Index != 1 {
		t.Errorf("expected only node 1 moved, got %+v", f.Moves)
	}
	var nums []int
	for _, e := range f.EdgeMoves {
		nums = append(nums, e.Num)
	}
	sort.Ints(nums)
	if !sameInts(nums, []int{0, 1}) {
		t.Errorf("expected incident edges [0 1], got %v", nums)
	}
	if e := f.EdgeMoves[0]; e.Num == 0 && (e.TX != 25 || e.TY != 30) {
		t.Errorf("edge 0 target not updated: %+v", e)
	}
}

func TestSetMappingRestylesAll(t *testing.T) {
	m := line(t, []float64{0, 20, 40})
	r := NewRecorder()
	s := NewSync(m, r, DefaultThresholds(), MappingOf(models.DefaultSnapshot(0.3)))
	s.Update()
	flush(t, r)

	s.Update()
	if _, ok := r.Flush(); !ok {
		// kept nodes are still moved
		t.Fatal("expected move frame")
	}

	mp := s.Mapping()
	mp.NodeColor = mapping.Scale{
		Field:   "potency",
		Type:    mapping.Linear,
		Domain:  []float64{0, 0.2},
		Range:   []mapping.Literal{"#000000", "#ffffff"},
		Unknown: "#888888",
	}
	s.SetMapping(mp)
	s.Update()
	f := flush(t, r)
	if got := styled(f); !sameInts(got, []int{0, 1, 2}) {
		t.Fatalf("expected all nodes restyled, got %v", got)
	}
	colors := map[int]string{}
	for _, st := range f.NodeStyles {
		colors[st.Index] = st.Color
	}
	if colors[0] != "#000000" || colors[2] != "#ffffff" {
		t.Errorf("unexpected colors %v", colors)
	}
}

func TestRecorderFlush(t *testing.T) {
	r := NewRecorder()
	if _, ok := r.Flush(); ok {
		t.Error("expected empty recorder to have nothing to flush")
	}
	r.SetTemperature(0.5)
	r.SetSelection(nil)
	f := flush(t, r)
	if f.Seq != 1 || *f.Temperature != 0.5 || f.Selection == nil || len(*f.Selection) != 0 {
		t.Errorf("unexpected frame %+v", f)
	}
	r.SetTransform(models.Identity)
	if f := flush(t, r); f.Seq != 2 || f.Temperature != nil {
		t.Errorf("unexpected frame %+v", f)
	}
}

func TestClear(t *testing.T) {
	m := line(t, []float64{0, 20}, [2]int{0, 1})
	r := NewRecorder()
	s := NewSync(m, r, DefaultThresholds(), MappingOf(models.DefaultSnapshot(0.3)))
	s.Update()
	flush(t, r)

	s.Clear()
	f := flush(t, r)
	if !sameInts(f.Exit, []int{0, 1}) || !sameInts(f.ExitEdges, []int{0}) {
		t.Errorf("expected everything to exit, got %+v", f)
	}
	s.Update()
	if f := flush(t, r); len(f.Enter) != 2 || len(f.NodeStyles) != 2 {
		t.Errorf("expected everything to re-enter styled, got %+v", f)
	}
}
