package metrics

import (
	"math"

	"github.com/san-kum/sandsim/internal/sim"
	"github.com/san-kum/sandsim/internal/world"
)

// MassDrift tracks the largest gap between the mass stored in the grid and
// the mass carried by the entities that should own it. A correct engine
// keeps it at zero through every move and fracture.
type MassDrift struct {
	name     string
	maxDrift float64
	samples  int
}

func NewMassDrift() *MassDrift {
	return &MassDrift{name: "mass_drift"}
}

func (m *MassDrift) Name() string { return m.name }

func (m *MassDrift) Observe(s *sim.Simulation, _ []sim.Fracture) {
	w := s.World()
	drift := math.Abs(w.TotalMass() - EntityMass(s))
	m.maxDrift = math.Max(m.maxDrift, drift)
	m.samples++
}

func (m *MassDrift) Value() float64 { return m.maxDrift }

func (m *MassDrift) Reset() {
	m.maxDrift = 0
	m.samples = 0
}

// EntityMass sums the mass of every particle, every live object and all
// static terrain.
func EntityMass(s *sim.Simulation) float64 {
	sum := 0.0
	for _, p := range s.Particles() {
		sum += p.Mass()
	}
	for _, o := range s.Objects() {
		if !o.Destroyed {
			sum += o.TotalMass
		}
	}
	w := s.World()
	for y := 0; y < w.Height; y++ {
		for x := 0; x < w.Width; x++ {
			if c := w.CellAt(x, y); c.Occupant.Kind == world.RefStatic {
				sum += c.Mass
			}
		}
	}
	return sum
}
