package cluster

import (
	"errors"
	"reflect"
	"testing"

	"github.com/TFMV/assaynet/models"
)

type fixed map[int]int

func (f fixed) Communities(nodes []int, edges []Edge) (map[int]int, error) { return f, nil }

type failing struct{}

func (failing) Communities(nodes []int, edges []Edge) (map[int]int, error) {
	return nil, errors.New("boom")
}

func TestRunRenumbersBySize(t *testing.T) {
	alg := fixed{0: 7, 1: 3, 2: 3, 3: 3, 4: 7, 5: 9, 6: 1, 7: 1}
	nodes := []int{0, 1, 2, 3, 4, 5, 6, 7}
	edges := []Edge{{0, 4, 1}}

	r, err := Run(alg, nodes, edges, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[int]int{1: 0, 2: 0, 3: 0, 0: 1, 4: 1, 6: 2, 7: 2, 5: 3}
	if !reflect.DeepEqual(r.Assignment, want) {
		t.Errorf("expected %v, got %v", want, r.Assignment)
	}
	if !reflect.DeepEqual(r.Sizes, []int{3, 2, 2, 1}) {
		t.Errorf("unexpected sizes %v", r.Sizes)
	}

	r, _ = Run(alg, nodes, edges, true)
	if r.Assignment[5] != Unassigned {
		t.Errorf("expected singleton nulled, got %d", r.Assignment[5])
	}
	if r.Clusters(true) != 3 || r.Clusters(false) != 4 {
		t.Errorf("unexpected cluster counts %d / %d", r.Clusters(true), r.Clusters(false))
	}
}

func TestRunWithoutEdges(t *testing.T) {
	r, err := Run(failing{}, []int{0, 1, 2}, nil, false)
	if err != nil {
		t.Fatalf("algorithm must not be called without edges: %v", err)
	}
	if !reflect.DeepEqual(r.Assignment, map[int]int{0: 0, 1: 1, 2: 2}) {
		t.Errorf("expected singletons, got %v", r.Assignment)
	}
	r, _ = Run(failing{}, []int{0, 1, 2}, nil, true)
	for n, id := range r.Assignment {
		if id != Unassigned {
			t.Errorf("node %d: expected unassigned, got %d", n, id)
		}
	}
}

func TestRunErrors(t *testing.T) {
	if _, err := Run(failing{}, []int{0, 1}, []Edge{{0, 1, 1}}, false); err == nil {
		t.Error("expected algorithm error to propagate")
	}
	if _, err := Run(fixed{0: 0}, []int{0, 1}, []Edge{{0, 1, 1}}, false); err == nil {
		t.Error("expected error for unassigned node")
	}
}

func TestLouvainThresholdScenario(t *testing.T) {
	// (1, 2) is below the threshold and is not passed in
	r, err := Run(Louvain{Resolution: 1, Seed: 1}, []int{0, 1, 2}, []Edge{{0, 1, 0.9}}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Assignment[2] != Unassigned {
		t.Errorf("expected isolated node unassigned, got %d", r.Assignment[2])
	}
	if r.Assignment[0] != r.Assignment[1] || r.Assignment[0] == Unassigned {
		t.Errorf("expected 0 and 1 to share a cluster, got %v", r.Assignment)
	}
	if v := r.Values(); v[2] != nil || v[0] != 0 {
		t.Errorf("unexpected field values %v", v)
	}
}

func TestLouvainDeterminism(t *testing.T) {
	var nodes []int
	var edges []Edge
	for c := 0; c < 3; c++ {
		base := c * 5
		for i := 0; i < 5; i++ {
			nodes = append(nodes, base+i)
			for j := i + 1; j < 5; j++ {
				edges = append(edges, Edge{base + i, base + j, 0.9})
			}
		}
	}
	edges = append(edges, Edge{4, 5, 0.4}, Edge{9, 10, 0.4})
	nodes = append(nodes, 15)

	alg := Louvain{Resolution: 1, Seed: 42}
	first, err := Run(alg, nodes, edges, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _ := Run(alg, nodes, edges, true)
	if !reflect.DeepEqual(first.Assignment, second.Assignment) {
		t.Errorf("repeated runs differ:\n%v\n%v", first.Assignment, second.Assignment)
	}
	if first.Assignment[15] != Unassigned {
		t.Errorf("expected isolated node unassigned")
	}
	if first.Assignment[0] != first.Assignment[3] || first.Assignment[0] == first.Assignment[12] {
		t.Errorf("expected cliques to cluster together, got %v", first.Assignment)
	}
}

func TestJoin(t *testing.T) {
	d := models.NewDataset("join")
	for i := 0; i < 3; i++ {
		d.Nodes.Records = append(d.Nodes.Records, models.Record{models.KeyIndex: float64(i)})
	}
	r, _ := Run(nil, []int{0, 1, 2}, nil, false)
	Join(d, "cluster", r)
	Join(d, "cluster", r)
	if len(d.Nodes.Fields) != 1 {
		t.Errorf("expected the field to be deduplicated, got %v", d.Nodes.Fields)
	}
	if d.Nodes.Records[2]["cluster"] != 2 {
		t.Errorf("expected cluster 2 on node 2, got %v", d.Nodes.Records[2]["cluster"])
	}
}
