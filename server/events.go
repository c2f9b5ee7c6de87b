package server

import (
	"errors"
	"fmt"

	"github.com/TFMV/assaynet/cluster"
	"github.com/TFMV/assaynet/mapping"
	"github.com/TFMV/assaynet/models"
	"github.com/TFMV/assaynet/network"
)

var ErrUnknownEvent = errors.New("unknown event")

// Event is an interaction sent by a client.
type Event struct {
	Type      string           `json:"type"`
	Node      int              `json:"node,omitempty"`
	X         float64          `json:"x,omitempty"`
	Y         float64          `json:"y,omitempty"`
	Transform models.Transform `json:"transform,omitempty"`
	On        bool             `json:"on,omitempty"`
	Value     float64          `json:"value,omitempty"`
	Width     float64          `json:"width,omitempty"`
	Height    float64          `json:"height,omitempty"`
	Channel   string           `json:"channel,omitempty"`
	Scale     *mapping.Scale   `json:"scale,omitempty"`
	Label     *models.Label    `json:"label,omitempty"`
}

// Apply dispatches an event to the view. It must run on the view's loop.
func Apply(v *network.View, ev Event, opts cluster.Options) error {
	c := v.Controller()
	switch ev.Type {
	case "zoom":
		return c.Zoom(ev.Transform)
	case "zoomend":
		return c.ZoomEnd(ev.Transform)
	case "fit":
		padding := ev.Value
		if padding <= 0 {
			padding = 20
		}
		_, err := c.Fit(padding)
		return err
	case "resize":
		v.Resize(ev.Width, ev.Height)
	case "dragstart":
		return c.DragStart(ev.Node, ev.X, ev.Y)
	case "dragmove":
		return c.DragMove(ev.Node, ev.X, ev.Y)
	case "dragend":
		return c.DragEnd(ev.Node)
	case "click":
		return c.Click(ev.Node)
	case "modifier":
		c.SetMultiSelect(ev.On)
	case "stick":
		return v.Stick()
	case "relax":
		return v.Relax()
	case "restart":
		return v.Restart()
	case "threshold":
		return v.SetNetworkThreshold(ev.Value)
	case "mapping":
		if ev.Scale == nil {
			return fmt.Errorf("mapping event without scale")
		}
		return v.SetMapping(ev.Channel, *ev.Scale)
	case "label":
		if ev.Label == nil {
			return fmt.Errorf("label event without label")
		}
		return v.SetLabel(ev.Channel, *ev.Label)
	case "cluster":
		_, err := v.Cluster(opts)
		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
	}
	return nil
}
