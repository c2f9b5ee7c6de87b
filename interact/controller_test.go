package interact

import (
	"errors"
	"math"
	"testing"

	"github.com/TFMV/assaynet/graph"
	"github.com/TFMV/assaynet/models"
	"github.com/TFMV/assaynet/render"
)

type fakeEngine struct {
	alpha, target float64
	restarts      int
}

func (e *fakeEngine) Alpha() float64 { return e.alpha }
func (e *fakeEngine) AlphaMin() float64 { return 0.001 }
func (e *fakeEngine) SetAlpha(a float64) { e.alpha = a }
func (e *fakeEngine) SetAlphaTarget(a float64) { e.target = a }
func (e *fakeEngine) Restart() { e.restarts++ }
func (e *fakeEngine) Stop()                    {}

func setup(t *testing.T, limits render.Thresholds, coords ...models.Coord) (*graph.Model, *render.Recorder, *render.Sync, *fakeEngine, *Controller) {
	t.Helper()
	d := models.NewDataset("interact")
	snap := models.DefaultSnapshot(0.3)
	snap.Coords = coords
	for i := range coords {
		d.Nodes.Records = append(d.Nodes.Records, models.Record{models.KeyIndex: float64(i)})
	}
	// a star around node 0 plus one unrelated edge
	for i := 1; i < len(coords)-2; i++ {
		d.Edges.Records = append(d.Edges.Records, models.Record{
			models.KeySource: 0.0, models.KeyTarget: float64(i), models.KeyWeight: 0.9,
		})
	}
	n := len(coords)
	d.Edges.Records = append(d.Edges.Records, models.Record{
		models.KeySource: float64(n - 2), models.KeyTarget: float64(n - 1), models.KeyWeight: 0.9,
	})
	m, err := graph.New(d, snap, graph.Options{Width: 400, Height: 300, FocusMargin: 50})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := render.NewRecorder()
	s := render.NewSync(m, r, limits, render.MappingOf(snap))
	s.Update()
	r.Flush()
	e := &fakeEngine{}
	c := New(m, s, e, func() float64 { return 0.1 }, DefaultOptions())
	return m, r, s, e, c
}

func grid() []models.Coord {
	return []models.Coord{{X: 100, Y: 100}, {X: 150, Y: 100}, {X: 100, Y: 150}, {X: 200, Y: 200}, {X: 250, Y: 250}}
}

func TestPhysicsDrag(t *testing.T) {
	m, _, _, e, c := setup(t, render.DefaultThresholds(), grid()...)

	if err := c.DragStart(1, 150, 100); err != nil {
		t.Fatal(err)
	}
	if e.target != 0.3 || e.restarts != 1 {
		t.Errorf("expected drag to reheat the engine, got %+v", e)
	}
	if err := c.DragMove(1, 170, 120); err != nil {
		t.Fatal(err)
	}
	n, _ := m.Node(1)
	if !n.Fixed || n.FX != 170 || n.FY != 120 {
		t.Errorf("expected node pinned to pointer, got %+v", n.Particle)
	}
	if n.X != 150 {
		t.Error("physics drag must leave the position to the engine")
	}
	if err := c.DragEnd(1); err != nil {
		t.Fatal(err)
	}
	if n.Fixed {
		t.Error("expected pin released")
	}
	if e.target != 0.1 {
		t.Errorf("expected base target restored, got %v", e.target)
	}
	if err := c.DragStart(42, 0, 0); err == nil {
		t.Error("expected unknown node error")
	}
}

func TestDirectDragTouchesOnlyIncident(t *testing.T) {
	m, r, _, _, c := setup(t, render.DefaultThresholds(), grid()...)
	m.PinAll()
	c.UseDirectDrag()
	before := m.Coords()
	other := *m.Edges()[len(m.Edges())-1]

	if err := c.DragStart(1, 150, 100); err != nil {
		t.Fatal(err)
	}
	if err := c.DragMove(1, 160, 90); err != nil {
		t.Fatal(err)
	}
	f, ok := r.Flush()
	if !ok {
		t.Fatal("expected a frame")
	}
	if len(f.Moves) != 1 || f.Moves[0].Index != 1 || f.Moves[0].X != 160 || f.Moves[0].Y != 90 {
		t.Errorf("expected only node 1 moved to (160, 90), got %+v", f.Moves)
	}
	if len(f.EdgeMoves) != 1 || f.EdgeMoves[0].Num != 0 || f.EdgeMoves[0].TX != 160 {
		t.Errorf("expected edge 0 re-rendered, got %+v", f.EdgeMoves)
	}
	after := m.Coords()
	for i := range before {
		if i != 1 && before[i] != after[i] {
			t.Errorf("node %d moved", i)
		}
	}
	e := m.Edges()[len(m.Edges())-1]
	if e.SX != other.SX || e.SY != other.SY || e.TX != other.TX || e.TY != other.TY {
		t.Error("unrelated edge moved")
	}
	_ = c.DragEnd(1)
	if n, _ := m.Node(1); !n.Fixed || n.FX != 160 {
		t.Error("expected dragged node to stay pinned where dropped")
	}
}

func TestZoomCadence(t *testing.T) {
	t.Run("focused commits past the pixel threshold", func(t *testing.T) {
		m, r, _, _, c := setup(t, render.DefaultThresholds(), grid()...)
		c.Zoom(models.Transform{X: 5, Y: 5, K: 1})
		if m.Transform() != models.Identity {
			t.Errorf("small pan committed: %+v", m.Transform())
		}
		f, _ := r.Flush()
		if f.Transform == nil || f.Transform.X != 5 {
			t.Error("expected surface transform for every frame")
		}
		c.Zoom(models.Transform{X: 20, Y: 0, K: 1})
		if m.Transform().X != 20 {
			t.Errorf("expected commit past threshold, got %+v", m.Transform())
		}
	})
	t.Run("unfocused commits only at gesture end", func(t *testing.T) {
		m, _, s, _, c := setup(t, render.Thresholds{Focused: 1, Overlook: 500}, grid()...)
		if s.Detail().Focused {
			t.Fatal("expected unfocused view")
		}
		c.Zoom(models.Transform{X: 200, Y: 0, K: 1})
		if m.Transform() != models.Identity {
			t.Errorf("unfocused pan committed mid-gesture: %+v", m.Transform())
		}
		c.ZoomEnd(models.Transform{X: 200, Y: 0, K: 1})
		if m.Transform().X != 200 {
			t.Errorf("expected commit at gesture end, got %+v", m.Transform())
		}
	})
}

func TestZoomRejectsInvalidTransform(t *testing.T) {
	m, r, s, _, c := setup(t, render.DefaultThresholds(), grid()...)
	before, _ := s.Rendered()
	focus := m.FocusArea()
	r.Flush()

	for _, tf := range []models.Transform{
		{},
		{X: 10, Y: 10, K: -1},
		{X: math.NaN(), K: 1},
		{Y: math.Inf(1), K: 1},
		{K: math.Inf(1)},
	} {
		if err := c.ZoomEnd(tf); !errors.Is(err, graph.ErrTransform) {
			t.Errorf("ZoomEnd(%+v): expected ErrTransform, got %v", tf, err)
		}
		if err := c.Zoom(tf); !errors.Is(err, graph.ErrTransform) {
			t.Errorf("Zoom(%+v): expected ErrTransform, got %v", tf, err)
		}
	}
	if m.Transform() != models.Identity || m.FocusArea() != focus {
		t.Errorf("rejected transform changed the viewport: %+v %+v", m.Transform(), m.FocusArea())
	}
	if after, _ := s.Rendered(); len(after) != len(before) {
		t.Errorf("expected %d rendered nodes, got %d", len(before), len(after))
	}
	if f, ok := r.Flush(); ok {
		t.Errorf("rejected transform reached the surface: %+v", f)
	}
}

func TestClickSelection(t *testing.T) {
	m, r, _, _, c := setup(t, render.DefaultThresholds(), grid()...)
	_ = c.Click(1)
	_ = c.Click(2)
	if got := m.Selected(); len(got) != 1 || got[0] != 2 {
		t.Errorf("single select: expected [2], got %v", got)
	}
	c.SetMultiSelect(true)
	_ = c.Click(3)
	_ = c.Click(2)
	if got := m.Selected(); len(got) != 1 || got[0] != 3 {
		t.Errorf("multi select: expected [3], got %v", got)
	}
	f, _ := r.Flush()
	if f.Selection == nil || len(*f.Selection) != 1 || (*f.Selection)[0] != 3 {
		t.Errorf("expected selection overlay [3], got %v", f.Selection)
	}
	if err := c.Click(99); err == nil {
		t.Error("expected unknown node error")
	}
}

func TestFit(t *testing.T) {
	coords := append(grid(), models.Coord{X: 5000, Y: 4000})
	m, _, s, _, c := setup(t, render.DefaultThresholds(), coords...)
	if _, err := c.Fit(20); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	nodes, _ := s.Rendered()
	if len(nodes) != len(coords) {
		t.Errorf("expected all %d nodes rendered after fit, got %d", len(coords), len(nodes))
	}
	if m.Transform().K >= 1 {
		t.Errorf("expected zoom out, got %+v", m.Transform())
	}
}
