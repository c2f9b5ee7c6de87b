package graph

import (
	"fmt"
	"math"

	"github.com/TFMV/assaynet/models"
)

// Rect is an axis-aligned rectangle. Y grows downwards.
type Rect struct {
	Top    float64
	Left   float64
	Bottom float64
	Right  float64
}

// Width of the rectangle.
func (r Rect) Width() float64 { return r.Right - r.Left }

// Height of the rectangle.
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// Contains reports whether (x, y) lies strictly inside r.
func (r Rect) Contains(x, y float64) bool {
	return r.Left < x && x < r.Right && r.Top < y && y < r.Bottom
}

// SetViewBox resizes the drawing surface and recomputes the focus area.
func (m *Model) SetViewBox(width, height float64) {
	m.viewBox = Rect{Top: 0, Left: 0, Bottom: height, Right: width}
	m.updateFocusArea()
}

// SetTransform commits a pan/zoom transform and recomputes the focus
// area. A non-finite transform or one with K <= 0 is rejected and the
// committed transform is kept.
func (m *Model) SetTransform(t models.Transform) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %+v", ErrTransform, t)
	}
	m.transform = t
	m.updateFocusArea()
	return nil
}

// ViewBox returns the drawing surface in screen space.
func (m *Model) ViewBox() Rect { return m.viewBox }

// Transform returns the last committed transform.
func (m *Model) Transform() models.Transform { return m.transform }

// FocusArea returns the visible world-space region, including margin.
func (m *Model) FocusArea() Rect { return m.focusArea }

// Boundary returns the bounding box of all nodes as of the last bulk
// coordinate update.
func (m *Model) Boundary() Rect { return m.boundary }

func (m *Model) updateFocusArea() {
	t := m.transform
	m.focusArea = Rect{
		Top:    (m.viewBox.Top-t.Y)/t.K - m.margin,
		Left:   (m.viewBox.Left-t.X)/t.K - m.margin,
		Bottom: (m.viewBox.Bottom-t.Y)/t.K + m.margin,
		Right:  (m.viewBox.Right-t.X)/t.K + m.margin,
	}
}

func (m *Model) updateBoundary() {
	if len(m.nodes) == 0 {
		m.boundary = Rect{}
		return
	}
	b := Rect{
		Top:    math.Inf(1),
		Left:   math.Inf(1),
		Bottom: math.Inf(-1),
		Right:  math.Inf(-1),
	}
	for _, n := range m.nodes {
		b.Top = math.Min(b.Top, n.Y)
		b.Left = math.Min(b.Left, n.X)
		b.Bottom = math.Max(b.Bottom, n.Y)
		b.Right = math.Max(b.Right, n.X)
	}
	m.boundary = b
}

// NodesToRender returns the nodes inside the focus area.
func (m *Model) NodesToRender() []*Node {
	var out []*Node
	for _, n := range m.nodes {
		if m.focusArea.Contains(n.X, n.Y) {
			out = append(out, n)
		}
	}
	return out
}

// EdgesToRender returns the edges passing the network threshold whose
// bounding box overlaps the focus area.
func (m *Model) EdgesToRender() []*Edge {
	f := m.focusArea
	var out []*Edge
	for _, e := range m.edges {
		if e.Weight < m.threshold {
			continue
		}
		if math.Min(e.SX, e.TX) < f.Right && math.Max(e.SX, e.TX) > f.Left &&
			math.Min(e.SY, e.TY) < f.Bottom && math.Max(e.SY, e.TY) > f.Top {
			out = append(out, e)
		}
	}
	return out
}

// FitTransform returns the transform that shows the whole boundary inside
// the view box, leaving padding screen pixels on every side.
func (m *Model) FitTransform(padding float64) models.Transform {
	b := m.boundary
	w, h := b.Width(), b.Height()
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	sx := (m.viewBox.Width() - 2*padding) / w
	sy := (m.viewBox.Height() - 2*padding) / h
	k := math.Min(sx, sy)
	if k <= 0 || math.IsNaN(k) || math.IsInf(k, 0) {
		k = 1
	}
	// center the boundary in the view box
	cx := (b.Left + b.Right) / 2
	cy := (b.Top + b.Bottom) / 2
	return models.Transform{
		X: m.viewBox.Width()/2 - cx*k,
		Y: m.viewBox.Height()/2 - cy*k,
		K: k,
	}
}
