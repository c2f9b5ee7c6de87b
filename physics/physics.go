// Package physics implements the force simulation that lays out the
// similarity network. The simulation only ever sees Particles, the
// position sub-structure of each node, and Links between their indices.
package physics

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Particle is the part of a node the simulation is allowed to write.
type Particle struct {
	X, Y   float64
	VX, VY float64
	FX, FY float64
	Fixed  bool
}

// Pin fixes the particle at (x, y).
func (p *Particle) Pin(x, y float64) {
	p.FX, p.FY, p.Fixed = x, y, true
}

// Unpin releases the particle back to the simulation.
func (p *Particle) Unpin() {
	p.Fixed = false
}

// Link connects two particles by their position in the node list.
type Link struct {
	Source int
	Target int
	Weight float64
}

// Params are the force parameters of the simulation.
type Params struct {
	AlphaMin      float64 `toml:"alpha_min"`
	AlphaDecay    float64 `toml:"alpha_decay"`
	VelocityDecay float64 `toml:"velocity_decay"`
	LinkDistance  float64 `toml:"link_distance"`
	LinkStrength  float64 `toml:"link_strength"`
	Charge        float64 `toml:"charge"`
	ChargeMax     float64 `toml:"charge_distance_max"`
	Gravity       float64 `toml:"gravity"`
	Seed          int64   `toml:"seed"`
}

// DefaultParams returns parameters tuned for compound similarity networks
// of a few thousand nodes.
func DefaultParams() Params {
	return Params{
		AlphaMin:      0.001,
		AlphaDecay:    1 - math.Pow(0.001, 1.0/300),
		VelocityDecay: 0.4,
		LinkDistance:  60,
		LinkStrength:  1,
		Charge:        -600,
		ChargeMax:     800,
		Gravity:       0.002,
		Seed:          1,
	}
}

// Simulation is a velocity Verlet force simulation driven by an external
// clock. Each Tick advances one step and reports progress through the
// tick and end callbacks.
type Simulation struct {
	params      Params
	nodes       []*Particle
	links       []Link
	alpha       float64
	alphaTarget float64
	running     bool
	noise       opensimplex.Noise
	jiggles     int
	onTick      func()
	onEnd       func()

	// per-link scratch computed in SetLinks
	strengths []float64
	bias      []float64
}

// New creates a stopped simulation with full energy.
func New(p Params) *Simulation {
	return &Simulation{
		params: p,
		alpha:  1,
		noise:  opensimplex.New(p.Seed),
	}
}

// Params returns the force parameters.
func (s *Simulation) Params() Params { return s.params }

// SetNodes binds the particles the simulation may move.
func (s *Simulation) SetNodes(ps []*Particle) {
	s.nodes = ps
	s.SetLinks(s.links)
}

// SetLinks binds the springs between particles.
func (s *Simulation) SetLinks(links []Link) {
	s.links = links
	count := make([]int, len(s.nodes))
	for _, l := range links {
		if l.Source < len(count) && l.Target < len(count) {
			count[l.Source]++
			count[l.Target]++
		}
	}
	s.strengths = make([]float64, len(links))
	s.bias = make([]float64, len(links))
	for i, l := range links {
		if l.Source >= len(count) || l.Target >= len(count) {
			continue
		}
		cs, ct := count[l.Source], count[l.Target]
		w := l.Weight
		if w <= 0 {
			w = 1
		}
		s.strengths[i] = s.params.LinkStrength * w / float64(min(cs, ct))
		s.bias[i] = float64(cs) / float64(cs+ct)
	}
}

func (s *Simulation) Alpha() float64 { return s.alpha }
func (s *Simulation) AlphaMin() float64 { return s.params.AlphaMin }
func (s *Simulation) AlphaTarget() float64 { return s.alphaTarget }
func (s *Simulation) SetAlpha(a float64) { s.alpha = a }
func (s *Simulation) SetAlphaTarget(a float64) { s.alphaTarget = a }
func (s *Simulation) Running() bool { return s.running }

// OnTick registers the callback invoked after every integration step.
func (s *Simulation) OnTick(fn func()) { s.onTick = fn }

// OnEnd registers the callback invoked when the energy falls below
// AlphaMin.
func (s *Simulation) OnEnd(fn func()) { s.onEnd = fn }

// Restart resumes ticking. A simulation without nodes or links has
// nothing to integrate and settles immediately.
func (s *Simulation) Restart() {
	if len(s.nodes) == 0 || len(s.links) == 0 {
		s.running = false
		s.alpha = 0
		for _, p := range s.nodes {
			p.VX, p.VY = 0, 0
		}
		if s.onEnd != nil {
			s.onEnd()
		}
		return
	}
	s.running = true
}

// Stop halts ticking without firing the end callback.
func (s *Simulation) Stop() {
	s.running = false
}

// Tick advances the simulation by one step when it is running. It
// returns whether the simulation is still running afterwards.
func (s *Simulation) Tick() bool {
	if !s.running {
		return false
	}
	s.Step()
	if s.onTick != nil {
		s.onTick()
	}
	if s.alpha < s.params.AlphaMin {
		s.running = false
		if s.onEnd != nil {
			s.onEnd()
		}
	}
	return s.running
}

// Step performs one integration step without invoking callbacks.
func (s *Simulation) Step() {
	s.alpha += (s.alphaTarget - s.alpha) * s.params.AlphaDecay

	s.applyLinks()
	s.applyCharge()
	s.applyGravity()

	keep := 1 - s.params.VelocityDecay
	for _, p := range s.nodes {
		if p.Fixed {
			p.X, p.Y = p.FX, p.FY
			p.VX, p.VY = 0, 0
			continue
		}
		p.VX *= keep
		p.VY *= keep
		p.X += p.VX
		p.Y += p.VY
	}
}

func (s *Simulation) applyLinks() {
	for i, l := range s.links {
		if s.strengths[i] == 0 {
			continue
		}
		src, tgt := s.nodes[l.Source], s.nodes[l.Target]
		x := tgt.X + tgt.VX - src.X - src.VX
		y := tgt.Y + tgt.VY - src.Y - src.VY
		if x == 0 {
			x = s.jiggle()
		}
		if y == 0 {
			y = s.jiggle()
		}
		d := math.Sqrt(x*x + y*y)
		f := (d - s.params.LinkDistance) / d * s.alpha * s.strengths[i]
		x *= f
		y *= f
		b := s.bias[i]
		tgt.VX -= x * b
		tgt.VY -= y * b
		src.VX += x * (1 - b)
		src.VY += y * (1 - b)
	}
}

// applyCharge is the pairwise many-body force. Negative charge repels.
func (s *Simulation) applyCharge() {
	maxD2 := s.params.ChargeMax * s.params.ChargeMax
	for i := 0; i < len(s.nodes); i++ {
		a := s.nodes[i]
		for j := i + 1; j < len(s.nodes); j++ {
			b := s.nodes[j]
			dx := b.X - a.X
			dy := b.Y - a.Y
			if dx == 0 {
				dx = s.jiggle()
			}
			if dy == 0 {
				dy = s.jiggle()
			}
			l2 := dx*dx + dy*dy
			if maxD2 > 0 && l2 >= maxD2 {
				continue
			}
			if l2 < 1 {
				l2 = math.Sqrt(l2)
			}
			w := s.params.Charge * s.alpha / l2
			a.VX += dx * w
			a.VY += dy * w
			b.VX -= dx * w
			b.VY -= dy * w
		}
	}
}

func (s *Simulation) applyGravity() {
	g := s.params.Gravity * s.alpha
	for _, p := range s.nodes {
		p.VX -= p.X * g
		p.VY -= p.Y * g
	}
}

// jiggle returns a tiny non-zero offset used to separate coincident
// particles. It is deterministic for a given seed.
func (s *Simulation) jiggle() float64 {
	s.jiggles++
	v := s.noise.Eval2(float64(s.jiggles)*0.618+0.1, 0.37) * 1e-6
	if v == 0 {
		return 1e-6
	}
	return v
}

// InitialPosition places the i-th node on a phyllotaxis spiral so that
// an unlaid-out network starts evenly spread around the origin.
func InitialPosition(i int) (x, y float64) {
	const initialRadius = 10
	angle := float64(i) * math.Pi * (3 - math.Sqrt(5))
	r := initialRadius * math.Sqrt(0.5+float64(i))
	return r * math.Cos(angle), r * math.Sin(angle)
}
