// Package network assembles a network view from a dataset: the graph
// model, the physics engine, the layout lifecycle, the render sync and
// the interaction controller.
package network

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/TFMV/assaynet/cluster"
	"github.com/TFMV/assaynet/config"
	"github.com/TFMV/assaynet/graph"
	"github.com/TFMV/assaynet/interact"
	"github.com/TFMV/assaynet/layout"
	"github.com/TFMV/assaynet/mapping"
	"github.com/TFMV/assaynet/models"
	"github.com/TFMV/assaynet/physics"
	"github.com/TFMV/assaynet/render"
)

var ErrUnknownChannel = errors.New("unknown visual channel")

// Visual channels accepted by SetMapping and SetLabel.
const (
	NodeColor      = "nodeColor"
	NodeSize       = "nodeSize"
	NodeLabelColor = "nodeLabelColor"
	EdgeWidth      = "edgeWidth"
	NodeLabel      = "nodeLabel"
	EdgeLabel      = "edgeLabel"
)

// Options configure every component of a view.
type Options struct {
	Graph      graph.Options
	Thresholds render.Thresholds
	Physics    physics.Params
	Layout     layout.Params
	Interact   interact.Options
	Cluster    cluster.Options
}

// DefaultOptions returns the stock view options.
func DefaultOptions() Options {
	return OptionsFrom(config.Default())
}

// OptionsFrom extracts the view options from a configuration.
func OptionsFrom(cfg *config.Config) Options {
	return Options{
		Graph:      cfg.GraphOptions(),
		Thresholds: cfg.Thresholds(),
		Physics:    cfg.Physics,
		Layout:     cfg.Layout,
		Interact:   cfg.Interact,
		Cluster:    cfg.Cluster,
	}
}

// View is one interactive network. It is not safe for concurrent use;
// drive it from a Loop.
type View struct {
	dataset *models.Dataset
	surface render.Surface
	opts    Options
	logger  *slog.Logger

	model *graph.Model
	sim   *physics.Simulation
	sync  *render.Sync
	life  *layout.Lifecycle
	ctrl  *interact.Controller
}

// NewView builds a view over a private copy of d. A dataset whose
// snapshot carries coordinates starts stuck; any other starts simulating.
func NewView(d *models.Dataset, surface render.Surface, opts Options) (*View, error) {
	v := &View{
		dataset: d.Clone(),
		surface: surface,
		opts:    opts,
		logger:  slog.Default().With("component", "network", "dataset", d.ID),
	}
	if err := v.build(); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *View) build() error {
	snap := v.dataset.Edges.Snapshot
	if snap == nil {
		snap = models.DefaultSnapshot(v.dataset.Cutoff())
	}
	m, err := graph.New(v.dataset, snap, v.opts.Graph)
	if err != nil {
		return fmt.Errorf("building network %q: %w", v.dataset.Name, err)
	}
	if v.dataset.Edges.Snapshot == nil {
		// fresh layouts grow around the origin
		center := models.Transform{X: v.opts.Graph.Width / 2, Y: v.opts.Graph.Height / 2, K: 1}
		if err := m.SetTransform(center); err != nil {
			return err
		}
	}

	links := make([]physics.Link, len(m.Edges()))
	for i, e := range m.Edges() {
		links[i] = physics.Link{Source: e.Source, Target: e.Target, Weight: e.Weight}
	}
	sim := physics.New(v.opts.Physics)
	sim.SetNodes(m.Particles())
	sim.SetLinks(links)

	s := render.NewSync(m, v.surface, v.opts.Thresholds, render.MappingOf(snap))
	life := layout.New(m, s, sim, v.opts.Layout)
	ctrl := interact.New(m, s, sim, life.BaseTarget, v.opts.Interact)
	life.SetHandlers(ctrl)
	sim.OnTick(life.Tick)
	sim.OnEnd(life.End)

	if v.sim != nil {
		v.sim.Stop()
	}
	if v.sync != nil {
		v.sync.Clear()
	}
	v.model, v.sim, v.sync, v.life, v.ctrl = m, sim, s, life, ctrl

	s.SetTransform(m.Transform())
	restored := len(snap.Coords) > 0
	if err := life.Start(restored); err != nil {
		return err
	}
	if !restored {
		s.Update()
	}
	v.logger.Info("network built",
		"nodes", len(m.Nodes()), "edges", len(m.Edges()),
		"state", life.State(), "threshold", m.NetworkThreshold())
	return nil
}

func (v *View) Model() *graph.Model { return v.model }
func (v *View) Sync() *render.Sync { return v.sync }
func (v *View) Lifecycle() *layout.Lifecycle { return v.life }
func (v *View) Controller() *interact.Controller { return v.ctrl }
func (v *View) Simulation() *physics.Simulation { return v.sim }
func (v *View) State() layout.State { return v.life.State() }
func (v *View) Name() string { return v.dataset.Name }
func (v *View) ID() string { return v.dataset.ID }
func (v *View) Options() Options { return v.opts }
func (v *View) Temperature() float64 { return v.life.Temperature() }
func (v *View) Fields() []models.Field { return v.dataset.Nodes.Fields }
func (v *View) Detail() render.LevelOfDetail { return v.sync.Detail() }

// Tick advances the physics clock by one step. It reports whether the
// simulation is still running.
func (v *View) Tick() bool { return v.sim.Tick() }

// Settle ticks until the simulation stops or max steps have run.
func (v *View) Settle(max int) int {
	n := 0
	for n < max && v.sim.Running() {
		v.sim.Tick()
		n++
	}
	return n
}

func (v *View) Restart() error { return v.life.Restart() }
func (v *View) Relax() error { return v.life.Relax() }
func (v *View) Stick() error { return v.life.Stick() }

// Resize changes the drawing surface size and re-renders.
func (v *View) Resize(width, height float64) {
	v.model.SetViewBox(width, height)
	v.sync.Update()
}

// Resync makes the surface rebuild everything it shows, as needed when a
// new client attaches to it.
func (v *View) Resync() {
	v.sync.Clear()
	v.sync.Update()
	v.sync.SetTransform(v.model.Transform())
	v.sync.Selection()
	v.sync.SetTemperature(v.life.Temperature())
}

// SetNetworkThreshold changes the minimum rendered edge weight and
// re-renders.
func (v *View) SetNetworkThreshold(t float64) error {
	if err := v.model.SetNetworkThreshold(t); err != nil {
		return err
	}
	v.sync.Update()
	return nil
}

// SetMapping replaces the scale of a visual channel. Every materialized
// element is restyled.
func (v *View) SetMapping(channel string, sc mapping.Scale) error {
	if err := sc.Validate(); err != nil {
		return err
	}
	mp := v.sync.Mapping()
	switch channel {
	case NodeColor:
		mp.NodeColor = sc
	case NodeSize:
		mp.NodeSize = sc
	case NodeLabelColor:
		mp.NodeLabelColor = sc
	case EdgeWidth:
		mp.EdgeWidth = sc
	default:
		return fmt.Errorf("%w: %q", ErrUnknownChannel, channel)
	}
	v.sync.SetMapping(mp)
	v.sync.Update()
	return nil
}

// SetLabel replaces a label channel.
func (v *View) SetLabel(channel string, l models.Label) error {
	mp := v.sync.Mapping()
	switch channel {
	case NodeLabel:
		mp.NodeLabel = l
	case EdgeLabel:
		mp.EdgeLabel = l
	default:
		return fmt.Errorf("%w: %q", ErrUnknownChannel, channel)
	}
	v.sync.SetMapping(mp)
	v.sync.Update()
	return nil
}

// Snapshot captures the current view state. It shares nothing with the
// live view.
func (v *View) Snapshot() *models.Snapshot {
	mp := v.sync.Mapping()
	s := &models.Snapshot{
		Version:                models.SnapshotVersion,
		NodeColor:              mp.NodeColor,
		NodeSize:               mp.NodeSize,
		NodeLabel:              mp.NodeLabel,
		NodeLabelColor:         mp.NodeLabelColor,
		EdgeWidth:              mp.EdgeWidth,
		EdgeLabel:              mp.EdgeLabel,
		NetworkThreshold:       v.model.NetworkThreshold(),
		NetworkThresholdCutoff: v.model.Cutoff(),
		FieldTransform:         v.model.Transform(),
		Coords:                 v.model.Coords(),
	}
	return s.Clone()
}

// Export returns a deep copy of the dataset carrying the current
// snapshot. Later mutation of the view does not affect it.
func (v *View) Export() *models.Dataset {
	d := v.dataset.Clone()
	d.Edges.Snapshot = v.Snapshot()
	d.UpdatedAt = time.Now()
	return d
}

// Save exports the view and stores it in the background. The returned
// channel yields the outcome once; callers may ignore it.
func (v *View) Save(ctx context.Context, repo models.DatasetRepository) <-chan error {
	d := v.Export()
	done := make(chan error, 1)
	go func() {
		err := repo.Put(ctx, d)
		if err != nil {
			v.logger.Error("saving snapshot", "error", err)
		} else {
			v.logger.Info("snapshot saved", "nodes", len(d.Nodes.Records))
		}
		done <- err
	}()
	return done
}

// Cluster partitions the nodes over the edges passing the network
// threshold, joins the result as a node field and rebuilds the view.
// Positions, transform and mappings survive the rebuild. If the rebuild
// fails the view keeps its previous dataset.
func (v *View) Cluster(opts cluster.Options) (*cluster.Result, error) {
	nodes := make([]int, len(v.model.Nodes()))
	for i := range nodes {
		nodes[i] = i
	}
	var edges []cluster.Edge
	for _, e := range v.model.ThresholdEdges() {
		edges = append(edges, cluster.Edge{Source: e.Source, Target: e.Target, Weight: e.Weight})
	}
	alg := cluster.Louvain{Resolution: opts.Resolution, Seed: opts.Seed}
	r, err := cluster.Run(alg, nodes, edges, opts.NullIsolated)
	if err != nil {
		return nil, err
	}

	snap := v.Snapshot()
	if opts.Color {
		snap.NodeColor = mapping.DefaultPalette().CategoryScale(opts.Field)
	}
	prev := v.dataset
	d := prev.Clone()
	cluster.Join(d, opts.Field, r)
	d.Edges.Snapshot = snap
	v.dataset = d
	if err := v.build(); err != nil {
		v.dataset = prev
		return nil, fmt.Errorf("joining %q: %w", opts.Field, err)
	}
	v.logger.Info("clustered",
		"clusters", r.Clusters(opts.NullIsolated), "edges", len(edges),
		"threshold", v.model.NetworkThreshold())
	return r, nil
}

// Reload replaces the dataset and rebuilds the view on the same surface.
func (v *View) Reload(d *models.Dataset) error {
	prev := v.dataset
	v.dataset = d.Clone()
	if err := v.build(); err != nil {
		v.dataset = prev
		return err
	}
	return nil
}
