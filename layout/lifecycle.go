// Package layout drives the layout lifecycle of a network view: full
// simulation, pinned manual layout and gentle relaxation.
package layout

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/TFMV/assaynet/graph"
	"github.com/TFMV/assaynet/render"
)

var ErrIllegalTransition = errors.New("illegal layout transition")

// State is a layout lifecycle state.
type State int

const (
	Uninitialized State = iota
	Simulating
	Stuck
	Relaxing
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Simulating:
		return "simulating"
	case Stuck:
		return "stuck"
	case Relaxing:
		return "relaxing"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Engine is the physics engine as seen by the lifecycle. It calls back
// Tick and End on the lifecycle; positions are read off the particles it
// was given.
type Engine interface {
	Alpha() float64
	AlphaMin() float64
	SetAlpha(a float64)
	SetAlphaTarget(a float64)
	Restart()
	Stop()
}

// Handlers swaps the drag behavior when nodes become pinned or free.
type Handlers interface {
	UsePhysicsDrag()
	UseDirectDrag()
}

// Params tune the energy levels of the lifecycle.
type Params struct {
	RelaxTarget float64 `toml:"relax_target"`
}

// DefaultParams returns the stock lifecycle parameters.
func DefaultParams() Params {
	return Params{RelaxTarget: 0.1}
}

// Lifecycle is the Simulating / Stuck / Relaxing state machine.
type Lifecycle struct {
	state    State
	model    *graph.Model
	sync     *render.Sync
	engine   Engine
	handlers Handlers
	params   Params
	logger   *slog.Logger
}

// New creates an uninitialized lifecycle.
func New(m *graph.Model, s *render.Sync, e Engine, p Params) *Lifecycle {
	return &Lifecycle{
		model:  m,
		sync:   s,
		engine: e,
		params: p,
		logger: slog.Default().With("component", "layout"),
	}
}

// SetHandlers installs the drag handler switch.
func (l *Lifecycle) SetHandlers(h Handlers) { l.handlers = h }

// State returns the current state.
func (l *Lifecycle) State() State { return l.state }

// Start leaves the uninitialized state: a view restored from stored
// coordinates sticks, anything else is laid out from scratch.
func (l *Lifecycle) Start(restored bool) error {
	if l.state != Uninitialized {
		return fmt.Errorf("%w: start from %s", ErrIllegalTransition, l.state)
	}
	if restored {
		return l.Stick()
	}
	return l.Restart()
}

// Restart unpins every node and runs the simulation at full energy.
func (l *Lifecycle) Restart() error {
	if l.state == Relaxing {
		return fmt.Errorf("%w: restart from %s", ErrIllegalTransition, l.state)
	}
	l.release(Simulating)
	l.engine.SetAlpha(1)
	l.engine.SetAlphaTarget(0)
	l.engine.Restart()
	return nil
}

// Relax unpins every node and holds the simulation at a low energy so
// nodes drift instead of re-laying out.
func (l *Lifecycle) Relax() error {
	if l.state != Stuck && l.state != Relaxing {
		return fmt.Errorf("%w: relax from %s", ErrIllegalTransition, l.state)
	}
	l.release(Relaxing)
	l.engine.SetAlpha(l.params.RelaxTarget)
	l.engine.SetAlphaTarget(l.params.RelaxTarget)
	l.engine.Restart()
	return nil
}

// Stick freezes the simulation and pins every node where it is. Drags
// then move nodes directly. Sticking twice is the same as sticking once.
func (l *Lifecycle) Stick() error {
	l.engine.SetAlpha(0)
	l.engine.SetAlphaTarget(0)
	l.engine.Stop()
	l.model.PinAll()
	if l.handlers != nil {
		l.handlers.UseDirectDrag()
	}
	l.transition(Stuck)
	l.End()
	return nil
}

func (l *Lifecycle) release(to State) {
	l.model.UnpinAll()
	if l.handlers != nil {
		l.handlers.UsePhysicsDrag()
	}
	l.transition(to)
}

func (l *Lifecycle) transition(to State) {
	if l.state != to {
		l.logger.Debug("transition", "from", l.state, "to", to)
	}
	l.state = to
}

// BaseTarget is the energy target the simulation returns to after a drag.
func (l *Lifecycle) BaseTarget() float64 {
	if l.state == Relaxing {
		return l.params.RelaxTarget
	}
	return 0
}

// Temperature is the convergence readout: 1 means settled.
func (l *Lifecycle) Temperature() float64 {
	a := l.engine.Alpha()
	if a < l.engine.AlphaMin() {
		return 1
	}
	return math.Max(0, math.Min(1, 1-a))
}

// Tick is the per-step engine callback. It moves the materialized nodes
// and edges without requerying the focus area. Ticks delivered while
// stuck have no effect.
func (l *Lifecycle) Tick() {
	if l.state != Simulating && l.state != Relaxing {
		return
	}
	l.sync.Tick()
	l.sync.SetTemperature(l.Temperature())
}

// End is the settle callback. It reasserts the model's ownership of the
// positions, recomputes the boundary and requeries and restyles
// everything in view.
func (l *Lifecycle) End() {
	if err := l.model.SetAllCoords(l.model.Coords()); err != nil {
		l.logger.Error("resync coordinates", "error", err)
		return
	}
	l.sync.Invalidate()
	l.sync.Update()
	l.sync.SetTemperature(l.Temperature())
	l.logger.Debug("settled", "state", l.state, "boundary", l.model.Boundary())
}
