package sim

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/san-kum/sandsim/internal/material"
	"github.com/san-kum/sandsim/internal/physics"
	"github.com/san-kum/sandsim/internal/world"
)

var DefaultGravity = world.V(0, -1)

// Simulation owns the grid and every entity living on it. Particles and
// objects are never removed from their slices, so the indices stored in
// world refs stay valid; fractured objects are only marked Destroyed.
type Simulation struct {
	world   *world.World
	rng     physics.Rand
	gravity world.Vec2
	logger  *log.Logger

	particles []*physics.Particle
	objects   []*physics.Object
	emitters  []*Emitter

	metrics   []Metric
	observers []Observer

	tick         int
	nextObjectID int
	fractures    int
}

type Option func(*Simulation)

func WithGravity(g world.Vec2) Option {
	return func(s *Simulation) { s.gravity = g }
}

// WithLogger routes spawn and fracture events to l.
func WithLogger(l *log.Logger) Option {
	return func(s *Simulation) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithEmitter(e Emitter) Option {
	return func(s *Simulation) { s.emitters = append(s.emitters, &e) }
}

func New(w *world.World, rng physics.Rand, opts ...Option) *Simulation {
	s := &Simulation{
		world:        w,
		rng:          rng,
		gravity:      DefaultGravity,
		logger:       log.New(io.Discard, "", 0),
		nextObjectID: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulation) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulation) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulation) World() *world.World            { return s.world }
func (s *Simulation) Particles() []*physics.Particle { return s.particles }
func (s *Simulation) Objects() []*physics.Object     { return s.objects }
func (s *Simulation) Gravity() world.Vec2            { return s.gravity }
func (s *Simulation) TickCount() int                 { return s.tick }

// SpawnParticle adds a free particle at rest on an empty cell.
func (s *Simulation) SpawnParticle(pos world.Vec2, m material.Material) (*physics.Particle, error) {
	if m.IsAir() {
		return nil, &SpawnError{Kind: "particle", Position: pos, Err: ErrAirSpawn}
	}
	x, y := pos.Cell()
	if pos.X < 0 || pos.Y < 0 || !s.world.InBounds(x, y) {
		return nil, &SpawnError{Kind: "particle", Position: pos, Err: ErrOutOfBounds}
	}
	if s.world.Occupied(x, y) {
		return nil, &SpawnError{Kind: "particle", Position: pos, Err: ErrCellOccupied}
	}
	return s.addParticle(pos, world.Vec2{}, m), nil
}

func (s *Simulation) addParticle(pos, vel world.Vec2, m material.Material) *physics.Particle {
	idx := len(s.particles)
	p := physics.NewParticle(idx, pos, vel, m, world.FreeRef(idx))
	s.particles = append(s.particles, p)
	s.world.Place(p.Position, p.Ref, p.Mass())
	return p
}

// SpawnObject takes ownership of o, assigns its ID and writes it into the
// grid. Every non-air cell must land on a free cell.
func (s *Simulation) SpawnObject(o *physics.Object) (*physics.Object, error) {
	x, y := o.Position.Cell()
	if o.Position.X < 0 || o.Position.Y < 0 || x+o.Width > s.world.Width || y+o.Height > s.world.Height {
		return nil, &SpawnError{Kind: "object", Position: o.Position, Err: ErrOutOfBounds}
	}
	if !o.Fits(s.world, o.Position) {
		return nil, &SpawnError{Kind: "object", Position: o.Position, Err: ErrCellOccupied}
	}
	o.ID = s.nextObjectID
	s.nextObjectID++
	s.addObject(o)
	s.logger.Printf("tick %d: object %d spawned at (%.1f,%.1f) %dx%d", s.tick, o.ID, o.Position.X, o.Position.Y, o.Height, o.Width)
	return o, nil
}

func (s *Simulation) addObject(o *physics.Object) {
	o.Bind(len(s.objects))
	s.objects = append(s.objects, o)
	o.Place(s.world)
}

// AddStatic marks (x,y) as immovable terrain. Terrain may be laid over
// terrain but never over a live entity.
func (s *Simulation) AddStatic(x, y int, mass float64) error {
	pos := world.V(float64(x), float64(y))
	if !s.world.InBounds(x, y) {
		return &SpawnError{Kind: "static", Position: pos, Err: ErrOutOfBounds}
	}
	if ref, ok := s.world.OccupantAt(x, y); ok && ref.Kind != world.RefStatic {
		return &SpawnError{Kind: "static", Position: pos, Err: ErrCellOccupied}
	}
	s.world.SetStatic(x, y, mass)
	return nil
}

// Step advances the simulation by one tick and returns the objects that
// fractured. Fractured objects are marked destroyed but keep their cells
// reserved in the grid, so later movers in the same tick collide with them.
// Materialize releases those cells and places the fragments.
func (s *Simulation) Step() []Fracture {
	s.emit()

	w := s.world
	w.RecomputePressure()

	for _, p := range s.particles {
		p.UpdateVelocity(s.gravity, w)
		p.UpdatePosition(w)
	}
	for _, p := range s.particles {
		p.ResolvePressure(w, s.rng)
	}
	for _, p := range s.particles {
		if !p.FallDown(w) {
			p.FlowSideways(w, s.rng)
		}
	}

	var fractures []Fracture
	for i, o := range s.objects {
		if o.Destroyed {
			continue
		}
		if frags := o.UpdateObjectVelocity(s.gravity, w); frags != nil {
			fractures = append(fractures, s.fracture(i, CauseImpact, frags))
			continue
		}
		o.UpdateObjectPosition(w)
	}
	for i, o := range s.objects {
		if o.Destroyed || !o.Velocity.IsZero() {
			continue
		}
		if frags := o.SplitUnderLoad(w); frags != nil {
			fractures = append(fractures, s.fracture(i, CausePressure, frags))
		}
	}

	s.tick++
	s.fractures += len(fractures)
	return fractures
}

func (s *Simulation) fracture(index int, cause Cause, frags []physics.Fragment) Fracture {
	o := s.objects[index]
	f := Fracture{
		ObjectIndex: index,
		ObjectID:    o.ID,
		Cause:       cause,
		Velocity:    o.Velocity,
		Fragments:   make([][]physics.FragmentCell, 0, len(frags)),
	}
	for _, frag := range frags {
		f.Fragments = append(f.Fragments, o.ExtractFragmentData(frag))
	}
	o.Destroyed = true
	s.logger.Printf("tick %d: object %d split by %s into %d fragments", s.tick, o.ID, cause, len(frags))
	return f
}

// Materialize turns fracture fragments into entities: single cells become
// free particles, larger pieces become new objects. Each fragment lands on
// cells its destroyed parent held until now.
func (s *Simulation) Materialize(fractures []Fracture) {
	for _, f := range fractures {
		s.objects[f.ObjectIndex].ClearFromWorld(s.world)
		for _, cells := range f.Fragments {
			switch len(cells) {
			case 0:
			case 1:
				s.addParticle(cells[0].Position, f.Velocity, cells[0].Material)
			default:
				o := physics.NewFromFragment(s.nextObjectID, cells, f.Velocity)
				s.nextObjectID++
				s.addObject(o)
			}
		}
	}
}

// Tick runs Step and materializes its fragments.
func (s *Simulation) Tick() []Fracture {
	fractures := s.Step()
	s.Materialize(fractures)
	return fractures
}

// Stats reports counts and totals at the current tick. PeakPressure reflects
// the field as of the last recompute.
func (s *Simulation) Stats() Stats {
	st := Stats{
		Tick:         s.tick,
		Particles:    len(s.particles),
		TotalMass:    s.world.TotalMass(),
		PeakPressure: s.world.PeakPressure(),
		Fractures:    s.fractures,
	}
	for _, p := range s.particles {
		if p.Velocity.IsZero() {
			st.Settled++
		}
	}
	for _, o := range s.objects {
		if !o.Destroyed {
			st.Objects++
		}
	}
	return st
}

func (c RunConfig) validate() error {
	if c.Ticks <= 0 {
		return fmt.Errorf("%w: ticks must be positive, got %d", ErrInvalidConfig, c.Ticks)
	}
	if c.StatsEvery < 0 {
		return fmt.Errorf("%w: stats interval must not be negative, got %d", ErrInvalidConfig, c.StatsEvery)
	}
	return nil
}

// Run ticks the simulation cfg.Ticks times, sampling stats and feeding
// metrics and observers. Cancellation is checked between ticks.
func (s *Simulation) Run(ctx context.Context, cfg RunConfig) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	every := max(cfg.StatsEvery, 1)

	result := &Result{
		Stats:   make([]Stats, 0, cfg.Ticks/every+1),
		Metrics: make(map[string]float64),
	}
	for _, m := range s.metrics {
		m.Reset()
	}
	result.Stats = append(result.Stats, s.Stats())

	for i := 0; i < cfg.Ticks; i++ {
		select {
		case <-ctx.Done():
			s.collect(result)
			return result, ctx.Err()
		default:
		}

		fractures := s.Tick()
		for _, f := range fractures {
			result.Fractures = append(result.Fractures, f.Event(s.tick))
		}

		for _, m := range s.metrics {
			m.Observe(s, fractures)
		}
		for _, obs := range s.observers {
			obs.OnTick(s, fractures)
		}

		result.TicksRun++
		if result.TicksRun%every == 0 {
			result.Stats = append(result.Stats, s.Stats())
		}
	}

	s.collect(result)
	return result, nil
}

func (s *Simulation) collect(result *Result) {
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}
