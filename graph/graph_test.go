package graph

import (
	"errors"
	"testing"

	"github.com/TFMV/assaynet/models"
)

type edgeSpec struct {
	s, t int
	w    float64
}

func dataset(n int, edges ...edgeSpec) *models.Dataset {
	d := models.NewDataset("test")
	for i := 0; i < n; i++ {
		d.Nodes.Records = append(d.Nodes.Records, models.Record{models.KeyIndex: float64(i)})
	}
	for _, e := range edges {
		d.Edges.Records = append(d.Edges.Records, models.Record{
			models.KeySource: float64(e.s),
			models.KeyTarget: float64(e.t),
			models.KeyWeight: e.w,
		})
	}
	d.Edges.Query.Params.Threshold = 0.3
	return d
}

func snapshotAt(cutoff float64, coords ...models.Coord) *models.Snapshot {
	s := models.DefaultSnapshot(cutoff)
	s.Coords = coords
	return s
}

func xy(x, y float64) models.Coord { return models.Coord{X: x, Y: y} }

func mustModel(t *testing.T, d *models.Dataset, s *models.Snapshot) *Model {
	t.Helper()
	m, err := New(d, s, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return m
}

func checkEndpoints(t *testing.T, m *Model) {
	t.Helper()
	for _, n := range m.Nodes() {
		for _, a := range n.Adjacency {
			e := m.Edges()[a.Edge]
			x, y := e.TX, e.TY
			if n.Index < a.Neighbor {
				x, y = e.SX, e.SY
			}
			if x != n.X || y != n.Y {
				t.Errorf("edge %d endpoint for node %d is (%v, %v), node at (%v, %v)", e.Num, n.Index, x, y, n.X, n.Y)
			}
		}
	}
}

func TestAdjacency(t *testing.T) {
	m := mustModel(t, dataset(3, edgeSpec{0, 1, 0.9}, edgeSpec{1, 2, 0.4}), nil)

	if got := len(m.Nodes()[1].Adjacency); got != 2 {
		t.Errorf("expected node 1 to have 2 neighbors, got %d", got)
	}
	want := Adjacent{Neighbor: 1, Edge: 0}
	if got := m.Nodes()[0].Adjacency; len(got) != 1 || got[0] != want {
		t.Errorf("expected %v, got %v", want, got)
	}
	if got := m.Incident(2); len(got) != 1 || got[0].Num != 1 {
		t.Errorf("expected edge 1 incident to node 2, got %v", got)
	}
	checkEndpoints(t, m)
}

func TestEdgesNormalizedToSourceBelowTarget(t *testing.T) {
	m := mustModel(t, dataset(3, edgeSpec{2, 0, 0.8}), snapshotAt(0.3, xy(1, 1), xy(2, 2), xy(3, 3)))

	e := m.Edges()[0]
	if e.Source != 0 || e.Target != 2 {
		t.Fatalf("expected edge (0, 2), got (%d, %d)", e.Source, e.Target)
	}
	if e.SX != 1 || e.SY != 1 || e.TX != 3 || e.TY != 3 {
		t.Errorf("unexpected cached endpoints %+v", e)
	}
}

func TestMalformedInput(t *testing.T) {
	tests := []struct {
		name string
		d    *models.Dataset
	}{
		{"dangling endpoint", dataset(2, edgeSpec{0, 5, 0.9})},
		{"self loop", dataset(2, edgeSpec{1, 1, 0.9})},
		{"duplicate index", func() *models.Dataset {
			d := dataset(2)
			d.Nodes.Records[1][models.KeyIndex] = 0.0
			return d
		}()},
		{"sparse index", func() *models.Dataset {
			d := dataset(2)
			d.Nodes.Records[1][models.KeyIndex] = 7.0
			return d
		}()},
		{"missing weight", func() *models.Dataset {
			d := dataset(2, edgeSpec{0, 1, 0.9})
			delete(d.Edges.Records[0], models.KeyWeight)
			return d
		}()},
	}
	for _, tt := range tests {
		if _, err := New(tt.d, nil, DefaultOptions()); !errors.Is(err, ErrMalformed) {
			t.Errorf("%s: expected ErrMalformed, got %v", tt.name, err)
		}
	}
}

func TestUnorderedIndicesArePlaced(t *testing.T) {
	d := dataset(3)
	d.Nodes.Records[0][models.KeyIndex] = 2.0
	d.Nodes.Records[2][models.KeyIndex] = 0.0
	m := mustModel(t, d, nil)
	for i, n := range m.Nodes() {
		if n.Index != i {
			t.Errorf("node at %d has index %d", i, n.Index)
		}
	}
	if idx, _ := m.Nodes()[2].Record.Int(models.KeyIndex); idx != 2 {
		t.Errorf("expected node 2 to own its record, got index %d", idx)
	}
}

func TestSetAllCoordsRefreshesEndpoints(t *testing.T) {
	m := mustModel(t, dataset(4, edgeSpec{0, 1, 0.9}, edgeSpec{1, 2, 0.5}, edgeSpec{3, 0, 0.7}), nil)

	coords := []models.Coord{xy(10, 20), xy(-5, 3), xy(7, 7), xy(100, -40)}
	if err := m.SetAllCoords(coords); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checkEndpoints(t, m)

	want := Rect{Top: -40, Left: -5, Bottom: 20, Right: 100}
	if got := m.Boundary(); got != want {
		t.Errorf("expected boundary %+v, got %+v", want, got)
	}
	if err := m.SetAllCoords(coords[:2]); !errors.Is(err, ErrCoordsLength) {
		t.Errorf("expected ErrCoordsLength, got %v", err)
	}
}

func TestSetCoordsTouchesOnlyIncidentEdges(t *testing.T) {
	coords := []models.Coord{xy(0, 0), xy(10, 0), xy(20, 0), xy(30, 0)}
	m := mustModel(t, dataset(4, edgeSpec{0, 1, 0.9}, edgeSpec{2, 3, 0.9}), snapshotAt(0.3, coords...))
	m.PinAll()

	other := m.Edges()[1]
	before := [4]float64{other.SX, other.SY, other.TX, other.TY}
	if err := m.SetCoords(1, 15, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e := m.Edges()[0]
	if e.TX != 15 || e.TY != 5 {
		t.Errorf("expected dragged endpoint (15, 5), got (%v, %v)", e.TX, e.TY)
	}
	if [4]float64{other.SX, other.SY, other.TX, other.TY} != before {
		t.Error("unrelated edge changed")
	}
	for _, i := range []int{0, 2, 3} {
		n := m.Nodes()[i]
		if n.X != coords[i].X || n.Y != coords[i].Y {
			t.Errorf("unrelated node %d moved", i)
		}
	}
	n := m.Nodes()[1]
	if n.FX != 15 || n.FY != 5 {
		t.Errorf("expected pin to follow the drag, got (%v, %v)", n.FX, n.FY)
	}
	checkEndpoints(t, m)

	if err := m.SetCoords(9, 0, 0); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("expected ErrUnknownNode, got %v", err)
	}
}

func TestSelection(t *testing.T) {
	m := mustModel(t, dataset(3), nil)
	_ = m.SelectOnly(1)
	_ = m.ToggleSelected(2)
	if got := m.Selected(); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("expected [1 2], got %v", got)
	}
	_ = m.SelectOnly(0)
	if got := m.Selected(); len(got) != 1 || got[0] != 0 {
		t.Errorf("expected [0], got %v", got)
	}
}

func TestSetNetworkThreshold(t *testing.T) {
	m := mustModel(t, dataset(2), nil)
	if err := m.SetNetworkThreshold(0.2); !errors.Is(err, ErrThreshold) {
		t.Errorf("expected ErrThreshold below cutoff, got %v", err)
	}
	if err := m.SetNetworkThreshold(1.1); !errors.Is(err, ErrThreshold) {
		t.Errorf("expected ErrThreshold above one, got %v", err)
	}
	if err := m.SetNetworkThreshold(0.8); err != nil || m.NetworkThreshold() != 0.8 {
		t.Errorf("expected threshold 0.8, got %v (%v)", m.NetworkThreshold(), err)
	}
}
