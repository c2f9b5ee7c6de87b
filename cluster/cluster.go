// Package cluster assigns community ids to the nodes of a network and
// joins them into the dataset as a node field.
package cluster

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"github.com/TFMV/assaynet/models"
)

// Unassigned marks a node left out of every cluster.
const Unassigned = -1

// Edge is one weighted input edge of the clustering algorithm.
type Edge struct {
	Source int
	Target int
	Weight float64
}

// Algorithm partitions nodes into communities. The returned ids are
// arbitrary; they are renumbered by Run.
type Algorithm interface {
	Communities(nodes []int, edges []Edge) (map[int]int, error)
}

// Options control a clustering run.
type Options struct {
	// NullIsolated collapses clusters of a single node to Unassigned.
	NullIsolated bool    `toml:"nulliso"`
	Resolution   float64 `toml:"resolution"`
	Seed         uint64  `toml:"seed"`
	Field        string  `toml:"field"`
	// Color switches node color to the cluster field after a run.
	Color        bool    `toml:"color"`
}

// DefaultOptions returns the stock clustering options.
func DefaultOptions() Options {
	return Options{NullIsolated: true, Resolution: 1, Seed: 1, Field: "cluster", Color: true}
}

// Result is a renumbered clustering. Cluster 0 is the largest.
type Result struct {
	Assignment map[int]int
	Sizes      []int
}

// Run clusters nodes with alg. Without edges every node is its own
// cluster and alg is not called. Clusters are renumbered by descending
// size, ties broken by their smallest member.
func Run(alg Algorithm, nodes []int, edges []Edge, nullIsolated bool) (*Result, error) {
	raw := make(map[int]int, len(nodes))
	if len(edges) == 0 {
		for _, n := range nodes {
			raw[n] = n
		}
	} else {
		var err error
		if raw, err = alg.Communities(nodes, edges); err != nil {
			return nil, fmt.Errorf("clustering: %w", err)
		}
	}

	groups := map[int][]int{}
	for _, n := range nodes {
		id, ok := raw[n]
		if !ok {
			return nil, fmt.Errorf("clustering: node %d not assigned", n)
		}
		groups[id] = append(groups[id], n)
	}
	ordered := make([][]int, 0, len(groups))
	for _, g := range groups {
		slices.Sort(g)
		ordered = append(ordered, g)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if len(ordered[i]) != len(ordered[j]) {
			return len(ordered[i]) > len(ordered[j])
		}
		return ordered[i][0] < ordered[j][0]
	})

	r := &Result{Assignment: make(map[int]int, len(nodes))}
	for id, g := range ordered {
		r.Sizes = append(r.Sizes, len(g))
		for _, n := range g {
			if nullIsolated && len(g) == 1 {
				r.Assignment[n] = Unassigned
			} else {
				r.Assignment[n] = id
			}
		}
	}
	slog.Debug("clustered", "nodes", len(nodes), "edges", len(edges), "clusters", len(ordered))
	return r, nil
}

// Values returns the assignment as field values. Unassigned nodes map
// to nil.
func (r *Result) Values() map[int]any {
	out := make(map[int]any, len(r.Assignment))
	for n, id := range r.Assignment {
		if id == Unassigned {
			out[n] = nil
		} else {
			out[n] = id
		}
	}
	return out
}

// Clusters counts the non-singleton clusters when isolated nodes are
// nulled, and every cluster otherwise.
func (r *Result) Clusters(nullIsolated bool) int {
	if !nullIsolated {
		return len(r.Sizes)
	}
	k := 0
	for _, s := range r.Sizes {
		if s > 1 {
			k++
		}
	}
	return k
}

// Join materializes the result as a node field of d, replacing any
// field with the same key.
func Join(d *models.Dataset, key string, r *Result) {
	d.JoinField(models.Field{Key: key, Name: key, Format: "integer", Visible: true}, r.Values())
}
