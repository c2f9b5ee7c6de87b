package interact

import (
	"github.com/TFMV/assaynet/graph"
	"github.com/TFMV/assaynet/layout"
	"github.com/TFMV/assaynet/render"
)

type physicsDrag struct {
	model  *graph.Model
	engine layout.Engine
	target float64
	base   func() float64
}

func (d *physicsDrag) Start(i int, x, y float64) error {
	if _, err := d.model.Node(i); err != nil {
		return err
	}
	d.engine.SetAlphaTarget(d.target)
	d.engine.Restart()
	return nil
}

func (d *physicsDrag) Move(i int, x, y float64) error {
	n, err := d.model.Node(i)
	if err != nil {
		return err
	}
	n.Pin(x, y)
	return nil
}

func (d *physicsDrag) End(i int) error {
	n, err := d.model.Node(i)
	if err != nil {
		return err
	}
	n.Unpin()
	d.engine.SetAlphaTarget(d.base())
	return nil
}

// directDrag moves pinned nodes. Each move costs O(degree).
type directDrag struct {
	model *graph.Model
	sync  *render.Sync
}

func (d *directDrag) Start(i int, x, y float64) error {
	_, err := d.model.Node(i)
	return err
}

func (d *directDrag) Move(i int, x, y float64) error {
	if err := d.model.SetCoords(i, x, y); err != nil {
		return err
	}
	d.sync.UpdateNode(i)
	return nil
}

func (d *directDrag) End(i int) error {
	_, err := d.model.Node(i)
	return err
}
