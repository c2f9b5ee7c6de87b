package models

import (
	"errors"
	"fmt"
	"math"

	"github.com/TFMV/assaynet/mapping"
)

// SnapshotVersion is the schema version written by this package.
// Version 0 marks snapshots stored before the field was introduced.
const SnapshotVersion = 1

var (
	ErrSnapshotVersion = errors.New("unsupported snapshot version")
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// Transform is the pan offset and zoom scale of the drawing surface.
type Transform struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	K float64 `json:"k" yaml:"k"`
}

// Identity is the untransformed view.
var Identity = Transform{K: 1}

// Valid reports whether t has finite components and a positive scale.
func (t Transform) Valid() bool {
	return finite(t.X) && finite(t.Y) && finite(t.K) && t.K > 0
}

// Coord is a stored node position.
type Coord struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Label controls a text label channel.
type Label struct {
	Field   string  `json:"field" yaml:"field"`
	Size    float64 `json:"size" yaml:"size"`
	Visible bool    `json:"visible" yaml:"visible"`
}

// Snapshot is the persisted state of a network view. Coords are
// positional and aligned with the node records.
type Snapshot struct {
	Version                int           `json:"version" yaml:"version"`
	NodeColor              mapping.Scale `json:"nodeColor" yaml:"nodeColor"`
	NodeSize               mapping.Scale `json:"nodeSize" yaml:"nodeSize"`
	NodeLabel              Label         `json:"nodeLabel" yaml:"nodeLabel"`
	NodeLabelColor         mapping.Scale `json:"nodeLabelColor" yaml:"nodeLabelColor"`
	EdgeWidth              mapping.Scale `json:"edgeWidth" yaml:"edgeWidth"`
	EdgeLabel              Label         `json:"edgeLabel" yaml:"edgeLabel"`
	NetworkThreshold       float64       `json:"networkThreshold" yaml:"networkThreshold"`
	NetworkThresholdCutoff float64       `json:"networkThresholdCutoff" yaml:"networkThresholdCutoff"`
	FieldTransform         Transform     `json:"fieldTransform" yaml:"fieldTransform"`
	Coords                 []Coord       `json:"coords,omitempty" yaml:"coords,omitempty"`
}

// DefaultSnapshot returns the view state of a freshly loaded network.
func DefaultSnapshot(cutoff float64) *Snapshot {
	p := mapping.DefaultPalette()
	return &Snapshot{
		Version: SnapshotVersion,
		NodeColor: mapping.Scale{
			Type:    mapping.Linear,
			Domain:  []float64{0, 1},
			Range:   []mapping.Literal{p.Low, p.High},
			Unknown: p.Low,
		},
		NodeSize: mapping.Scale{
			Type:    mapping.Linear,
			Domain:  []float64{0, 1},
			Range:   []mapping.Literal{"40", "40"},
			Unknown: "40",
		},
		NodeLabel: Label{Field: KeyIndex, Size: 12},
		NodeLabelColor: mapping.Scale{
			Type:    mapping.Linear,
			Domain:  []float64{0, 1},
			Range:   []mapping.Literal{"#333333", "#333333"},
			Unknown: "#333333",
		},
		EdgeWidth: mapping.Scale{
			Field:   KeyWeight,
			Type:    mapping.Linear,
			Domain:  []float64{cutoff, 1},
			Range:   []mapping.Literal{"0.5", "30"},
			Unknown: "1",
		},
		EdgeLabel:              Label{Field: KeyWeight, Size: 12},
		NetworkThreshold:       cutoff,
		NetworkThresholdCutoff: cutoff,
		FieldTransform:         Identity,
	}
}

// Normalize upgrades a snapshot to the current schema, filling every
// channel left unset with its default.
func (s *Snapshot) Normalize(cutoff float64) error {
	if s.Version > SnapshotVersion {
		return fmt.Errorf("%w: %d", ErrSnapshotVersion, s.Version)
	}
	d := DefaultSnapshot(cutoff)
	if s.NodeColor.Type == "" {
		s.NodeColor = d.NodeColor
	}
	if s.NodeSize.Type == "" {
		s.NodeSize = d.NodeSize
	}
	if s.NodeLabelColor.Type == "" {
		s.NodeLabelColor = d.NodeLabelColor
	}
	if s.EdgeWidth.Type == "" {
		s.EdgeWidth = d.EdgeWidth
	}
	if s.NodeLabel.Field == "" && s.NodeLabel.Size == 0 {
		s.NodeLabel = d.NodeLabel
	}
	if s.EdgeLabel.Field == "" && s.EdgeLabel.Size == 0 {
		s.EdgeLabel = d.EdgeLabel
	}
	if s.Version == 0 && s.NetworkThresholdCutoff == 0 {
		s.NetworkThresholdCutoff = cutoff
	}
	if s.Version == 0 && s.NetworkThreshold == 0 {
		s.NetworkThreshold = s.NetworkThresholdCutoff
	}
	if s.FieldTransform.K == 0 {
		s.FieldTransform = Identity
	}
	s.Version = SnapshotVersion
	return nil
}

// Validate checks the snapshot against its own invariants.
func (s *Snapshot) Validate() error {
	if s.NetworkThresholdCutoff < 0 || s.NetworkThresholdCutoff > 1 {
		return fmt.Errorf("%w: cutoff %v outside [0, 1]", ErrInvalidSnapshot, s.NetworkThresholdCutoff)
	}
	if s.NetworkThreshold < s.NetworkThresholdCutoff || s.NetworkThreshold > 1 {
		return fmt.Errorf("%w: threshold %v outside [%v, 1]", ErrInvalidSnapshot, s.NetworkThreshold, s.NetworkThresholdCutoff)
	}
	if t := s.FieldTransform; !t.Valid() {
		return fmt.Errorf("%w: bad transform %+v", ErrInvalidSnapshot, t)
	}
	for name, sc := range map[string]mapping.Scale{
		"nodeColor":      s.NodeColor,
		"nodeSize":       s.NodeSize,
		"nodeLabelColor": s.NodeLabelColor,
		"edgeWidth":      s.EdgeWidth,
	} {
		if err := sc.Validate(); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidSnapshot, name, err)
		}
	}
	for i, c := range s.Coords {
		if !finite(c.X) || !finite(c.Y) {
			return fmt.Errorf("%w: coords[%d] is not finite", ErrInvalidSnapshot, i)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := *s
	c.NodeColor = cloneScale(s.NodeColor)
	c.NodeSize = cloneScale(s.NodeSize)
	c.NodeLabelColor = cloneScale(s.NodeLabelColor)
	c.EdgeWidth = cloneScale(s.EdgeWidth)
	if s.Coords != nil {
		c.Coords = append([]Coord(nil), s.Coords...)
	}
	return &c
}

func cloneScale(s mapping.Scale) mapping.Scale {
	if s.Domain != nil {
		s.Domain = append([]float64(nil), s.Domain...)
	}
	if s.Range != nil {
		s.Range = append([]mapping.Literal(nil), s.Range...)
	}
	return s
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
