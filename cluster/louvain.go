package cluster

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/graph/community"
	"gonum.org/v1/gonum/graph/simple"
)

// Louvain is modularity optimization over a weighted undirected graph.
type Louvain struct {
	Resolution float64
	Seed       uint64
}

// Communities runs Louvain. Non-positive weights are ignored.
func (l Louvain) Communities(nodes []int, edges []Edge) (map[int]int, error) {
	g := simple.NewWeightedUndirectedGraph(0, 0)
	for _, n := range nodes {
		g.AddNode(simple.Node(int64(n)))
	}
	for _, e := range edges {
		if e.Weight <= 0 || e.Source == e.Target {
			continue
		}
		g.SetWeightedEdge(simple.WeightedEdge{
			F: simple.Node(int64(e.Source)),
			T: simple.Node(int64(e.Target)),
			W: e.Weight,
		})
	}

	out := make(map[int]int, len(nodes))
	if g.Edges().Len() == 0 {
		for _, n := range nodes {
			out[n] = n
		}
		return out, nil
	}
	res := l.Resolution
	if res <= 0 {
		res = 1
	}
	reduced := community.Modularize(g, res, rand.NewPCG(l.Seed, l.Seed))
	for id, members := range reduced.Communities() {
		for _, m := range members {
			out[int(m.ID())] = id
		}
	}
	return out, nil
}
