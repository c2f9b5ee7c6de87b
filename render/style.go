package render

import (
	"fmt"
	"strconv"

	"github.com/TFMV/assaynet/graph"
	"github.com/TFMV/assaynet/mapping"
	"github.com/TFMV/assaynet/models"
)

// Mapping is the set of visual channels applied to materialized elements.
type Mapping struct {
	NodeColor      mapping.Scale
	NodeSize       mapping.Scale
	NodeLabel      models.Label
	NodeLabelColor mapping.Scale
	EdgeWidth      mapping.Scale
	EdgeLabel      models.Label
}

// MappingOf extracts the visual channels of a snapshot.
func MappingOf(s *models.Snapshot) Mapping {
	return Mapping{
		NodeColor:      s.NodeColor,
		NodeSize:       s.NodeSize,
		NodeLabel:      s.NodeLabel,
		NodeLabelColor: s.NodeLabelColor,
		EdgeWidth:      s.EdgeWidth,
		EdgeLabel:      s.EdgeLabel,
	}
}

// NodeStyle is the resolved appearance of one node.
type NodeStyle struct {
	Index        int     `json:"index"`
	Color        string  `json:"color"`
	Size         float64 `json:"size"`
	Label        string  `json:"label,omitempty"`
	LabelColor   string  `json:"labelColor,omitempty"`
	LabelSize    float64 `json:"labelSize,omitempty"`
	LabelVisible bool    `json:"labelVisible"`
	Structure    bool    `json:"structure"`
}

// EdgeStyle is the resolved appearance of one edge.
type EdgeStyle struct {
	Num          int     `json:"num"`
	Width        float64 `json:"width"`
	Label        string  `json:"label,omitempty"`
	LabelSize    float64 `json:"labelSize,omitempty"`
	LabelVisible bool    `json:"labelVisible"`
}

func (mp Mapping) node(n *graph.Node, lod LevelOfDetail) NodeStyle {
	size, _ := mp.NodeSize.Float(n.Record[mp.NodeSize.Field])
	return NodeStyle{
		Index:        n.Index,
		Color:        mp.NodeColor.Apply(n.Record[mp.NodeColor.Field]),
		Size:         size,
		Label:        labelText(n.Record[mp.NodeLabel.Field]),
		LabelColor:   mp.NodeLabelColor.Apply(n.Record[mp.NodeLabelColor.Field]),
		LabelSize:    mp.NodeLabel.Size,
		LabelVisible: mp.NodeLabel.Visible,
		Structure:    lod.Focused,
	}
}

func (mp Mapping) edge(e *graph.Edge) EdgeStyle {
	width, _ := mp.EdgeWidth.Float(e.Record[mp.EdgeWidth.Field])
	return EdgeStyle{
		Num:          e.Num,
		Width:        width,
		Label:        labelText(e.Record[mp.EdgeLabel.Field]),
		LabelSize:    mp.EdgeLabel.Size,
		LabelVisible: mp.EdgeLabel.Visible,
	}
}

func labelText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', 4, 64)
	}
	return fmt.Sprint(v)
}
