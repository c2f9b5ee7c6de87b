// Package models provides the dataset and view snapshot structures shared
// by the loader, the network view and storage.
package models

import (
	"context"
	"time"
)

// Well-known record keys.
const (
	KeyIndex  = "index"
	KeySource = "source"
	KeyTarget = "target"
	KeyWeight = "weight"
)

// Field describes one column of a table.
type Field struct {
	Key     string `json:"key" yaml:"key"`
	Name    string `json:"name" yaml:"name"`
	Format  string `json:"format" yaml:"format"`
	Visible bool   `json:"visible" yaml:"visible"`
}

// Record is a single row. Values are whatever the decoder produced
// (numbers, strings, booleans, nested maps or lists).
type Record map[string]any

// Table is a list of records with their field descriptors.
type Table struct {
	Fields  []Field  `json:"fields" yaml:"fields"`
	Records []Record `json:"records" yaml:"records"`
}

// Params are the parameters of the query that produced the edges.
type Params struct {
	Measure   string  `json:"measure,omitempty" yaml:"measure,omitempty"`
	Threshold float64 `json:"threshold" yaml:"threshold"`
}

// Query describes the originating similarity query.
type Query struct {
	Params Params `json:"params" yaml:"params"`
}

// EdgeTable holds the network edges, the originating query and the
// persisted view state.
type EdgeTable struct {
	Table    `yaml:",inline"`
	Query    Query     `json:"query" yaml:"query"`
	Snapshot *Snapshot `json:"snapshot,omitempty" yaml:"snapshot,omitempty"`
}

// Dataset is one loaded network: compounds as nodes, similarity pairs as
// edges.
type Dataset struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Nodes     Table     `json:"nodes" yaml:"nodes"`
	Edges     EdgeTable `json:"edges" yaml:"edges"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Cutoff returns the minimum network threshold allowed by the query.
func (d *Dataset) Cutoff() float64 {
	return d.Edges.Query.Params.Threshold
}

// DatasetRepository defines operations for persisting datasets
type DatasetRepository interface {
	Get(ctx context.Context, id string) (*Dataset, error)
	Put(ctx context.Context, d *Dataset) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
}
