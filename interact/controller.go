// Package interact translates pointer gestures into model and engine
// updates: dragging, zooming, selection and fit-to-screen.
package interact

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/TFMV/assaynet/graph"
	"github.com/TFMV/assaynet/layout"
	"github.com/TFMV/assaynet/models"
	"github.com/TFMV/assaynet/render"
)

// Options tune gesture handling.
type Options struct {
	// ZoomCommitPixels is how far a focused-view pan must travel before
	// the focus area is recomputed mid-gesture.
	ZoomCommitPixels float64 `toml:"zoom_commit_pixels"`
	// DragTarget is the energy target held while a node is dragged under
	// physics.
	DragTarget float64 `toml:"drag_target"`
}

// DefaultOptions returns the stock gesture options.
func DefaultOptions() Options {
	return Options{ZoomCommitPixels: 10, DragTarget: 0.3}
}

// DragHandler reacts to the three phases of a node drag.
type DragHandler interface {
	Start(i int, x, y float64) error
	Move(i int, x, y float64) error
	End(i int) error
}

// Controller owns the active drag handler and the gesture state.
type Controller struct {
	model     *graph.Model
	sync      *render.Sync
	engine    layout.Engine
	base      func() float64
	opts      Options
	logger    *slog.Logger
	drag      DragHandler
	multi     bool
	committed models.Transform
}

// New creates a controller with physics drag installed. base returns the
// energy target the engine falls back to once a drag ends.
func New(m *graph.Model, s *render.Sync, e layout.Engine, base func() float64, opts Options) *Controller {
	c := &Controller{
		model:     m,
		sync:      s,
		engine:    e,
		base:      base,
		opts:      opts,
		logger:    slog.Default().With("component", "interact"),
		committed: m.Transform(),
	}
	c.UsePhysicsDrag()
	return c
}

// UsePhysicsDrag installs the drag handler that lets the simulation move
// the neighbors of a dragged node.
func (c *Controller) UsePhysicsDrag() {
	c.drag = &physicsDrag{model: c.model, engine: c.engine, target: c.opts.DragTarget, base: c.base}
}

// UseDirectDrag installs the drag handler that moves pinned nodes
// without physics.
func (c *Controller) UseDirectDrag() {
	c.drag = &directDrag{model: c.model, sync: c.sync}
}

// Drag returns the installed drag handler.
func (c *Controller) Drag() DragHandler { return c.drag }

func (c *Controller) DragStart(i int, x, y float64) error { return c.drag.Start(i, x, y) }
func (c *Controller) DragMove(i int, x, y float64) error { return c.drag.Move(i, x, y) }
func (c *Controller) DragEnd(i int) error { return c.drag.End(i) }

// Zoom applies an intermediate pan/zoom frame to the surface. The focus
// area is only recomputed when the focused view is active and the pan
// moved more than ZoomCommitPixels since the last commit. Non-finite
// transforms and those with K <= 0 are rejected.
func (c *Controller) Zoom(t models.Transform) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %+v", graph.ErrTransform, t)
	}
	c.sync.SetTransform(t)
	if !c.sync.Detail().Focused {
		return nil
	}
	if math.Hypot(t.X-c.committed.X, t.Y-c.committed.Y) > c.opts.ZoomCommitPixels {
		return c.commit(t)
	}
	return nil
}

// ZoomEnd ends a pan/zoom gesture and always commits the transform.
func (c *Controller) ZoomEnd(t models.Transform) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %+v", graph.ErrTransform, t)
	}
	c.sync.SetTransform(t)
	return c.commit(t)
}

func (c *Controller) commit(t models.Transform) error {
	if err := c.model.SetTransform(t); err != nil {
		return err
	}
	c.committed = t
	c.sync.Update()
	return nil
}

// Fit zooms so that every node is visible, leaving padding screen pixels
// around the boundary.
func (c *Controller) Fit(padding float64) (models.Transform, error) {
	t := c.model.FitTransform(padding)
	return t, c.ZoomEnd(t)
}

// SetMultiSelect switches between replacing and toggling the selection
// on click.
func (c *Controller) SetMultiSelect(on bool) { c.multi = on }

// MultiSelect reports whether clicks toggle selection membership.
func (c *Controller) MultiSelect() bool { return c.multi }

// Click selects node i.
func (c *Controller) Click(i int) error {
	var err error
	if c.multi {
		err = c.model.ToggleSelected(i)
	} else {
		err = c.model.SelectOnly(i)
	}
	if err != nil {
		return err
	}
	c.sync.Selection()
	return nil
}
