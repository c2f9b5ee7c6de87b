package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/TFMV/assaynet/mapping"
)

// NewDataset creates an empty dataset with a unique ID and timestamps
func NewDataset(name string) *Dataset {
	now := time.Now()
	return &Dataset{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy of the dataset. Exported and persisted copies
// must not share records with a live view.
func (d *Dataset) Clone() *Dataset {
	c := *d
	c.Nodes = d.Nodes.Clone()
	c.Edges.Table = d.Edges.Table.Clone()
	c.Edges.Snapshot = d.Edges.Snapshot.Clone()
	return &c
}

// Clone returns a deep copy of the table.
func (t Table) Clone() Table {
	c := Table{}
	if t.Fields != nil {
		c.Fields = append([]Field(nil), t.Fields...)
	}
	if t.Records != nil {
		c.Records = make([]Record, len(t.Records))
		for i, r := range t.Records {
			c.Records[i] = r.Clone()
		}
	}
	return c
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	c := make(Record, len(r))
	for k, v := range r {
		c[k] = cloneValue(v)
	}
	return c
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, e := range x {
			m[k] = cloneValue(e)
		}
		return m
	case Record:
		return x.Clone()
	case []any:
		s := make([]any, len(x))
		for i, e := range x {
			s[i] = cloneValue(e)
		}
		return s
	}
	return v
}

// Int reads an integer-valued key.
func (r Record) Int(key string) (int, error) {
	v, ok := r[key]
	if !ok {
		return 0, fmt.Errorf("missing %q", key)
	}
	f, ok := mapping.Number(v)
	if !ok || f != float64(int(f)) {
		return 0, fmt.Errorf("%q is not an integer: %v", key, v)
	}
	return int(f), nil
}

// Float reads a number-valued key.
func (r Record) Float(key string) (float64, error) {
	v, ok := r[key]
	if !ok {
		return 0, fmt.Errorf("missing %q", key)
	}
	f, ok := mapping.Number(v)
	if !ok {
		return 0, fmt.Errorf("%q is not a number: %v", key, v)
	}
	return f, nil
}

// Field returns the descriptor with the given key.
func (t Table) Field(key string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// JoinField adds or replaces a node column. Values are keyed by node
// index; indices missing from values get nil.
func (d *Dataset) JoinField(field Field, values map[int]any) {
	replaced := false
	for i, f := range d.Nodes.Fields {
		if f.Key == field.Key {
			d.Nodes.Fields[i] = field
			replaced = true
			break
		}
	}
	if !replaced {
		d.Nodes.Fields = append(d.Nodes.Fields, field)
	}
	for i, r := range d.Nodes.Records {
		idx, err := r.Int(KeyIndex)
		if err != nil {
			idx = i
		}
		r[field.Key] = values[idx]
	}
	d.UpdatedAt = time.Now()
}
