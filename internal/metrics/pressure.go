package metrics

import (
	"math"

	"github.com/san-kum/sandsim/internal/sim"
)

// PeakPressure records the highest column load seen on any non-terrain cell
// during the run.
type PeakPressure struct {
	name string
	peak float64
}

func NewPeakPressure() *PeakPressure {
	return &PeakPressure{name: "peak_pressure"}
}

func (p *PeakPressure) Name() string { return p.name }

func (p *PeakPressure) Observe(s *sim.Simulation, _ []sim.Fracture) {
	p.peak = math.Max(p.peak, s.World().PeakPressure())
}

func (p *PeakPressure) Value() float64 { return p.peak }

func (p *PeakPressure) Reset() { p.peak = 0 }
