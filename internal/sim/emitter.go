package sim

import (
	"github.com/san-kum/sandsim/internal/material"
	"github.com/san-kum/sandsim/internal/world"
)

// Emitter drops a particle near (X, Y) every Every ticks, offset by up to
// Jitter columns either way. An occupied target skips the drop without
// counting it. Limit caps the total; 0 means unlimited.
type Emitter struct {
	X, Y     int
	Jitter   int
	Every    int
	Limit    int
	Material material.Material

	emitted int
}

func (e *Emitter) Emitted() int { return e.emitted }

func (e *Emitter) done() bool { return e.Limit > 0 && e.emitted >= e.Limit }

func (s *Simulation) emit() {
	for _, e := range s.emitters {
		every := max(e.Every, 1)
		if s.tick%every != 0 || e.done() || e.Material.IsAir() {
			continue
		}
		x := e.X
		if e.Jitter > 0 {
			x += s.rng.Intn(2*e.Jitter+1) - e.Jitter
		}
		if !s.world.Free(x, e.Y) {
			continue
		}
		s.addParticle(world.V(float64(x), float64(e.Y)), world.Vec2{}, e.Material)
		e.emitted++
	}
}

func (s *Simulation) Emitters() []*Emitter { return s.emitters }
