package metrics

import "github.com/san-kum/sandsim/internal/sim"

// SettledRatio is the share of free particles at rest after the latest
// tick. An empty simulation counts as fully settled.
type SettledRatio struct {
	name      string
	settled   int
	particles int
}

func NewSettledRatio() *SettledRatio {
	return &SettledRatio{name: "settled_ratio"}
}

func (r *SettledRatio) Name() string { return r.name }

func (r *SettledRatio) Observe(s *sim.Simulation, _ []sim.Fracture) {
	r.settled, r.particles = 0, 0
	for _, p := range s.Particles() {
		r.particles++
		if p.Velocity.IsZero() {
			r.settled++
		}
	}
}

func (r *SettledRatio) Value() float64 {
	if r.particles == 0 {
		return 1.0
	}
	return float64(r.settled) / float64(r.particles)
}

func (r *SettledRatio) Reset() {
	r.settled = 0
	r.particles = 0
}
