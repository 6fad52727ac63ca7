package metrics

import "github.com/san-kum/sandsim/internal/sim"

// Fractures counts fracture events, split by cause.
type Fractures struct {
	name     string
	impact   int
	pressure int
}

func NewFractures() *Fractures {
	return &Fractures{name: "fractures"}
}

func (f *Fractures) Name() string { return f.name }

func (f *Fractures) Observe(_ *sim.Simulation, fractures []sim.Fracture) {
	for _, fr := range fractures {
		switch fr.Cause {
		case sim.CauseImpact:
			f.impact++
		case sim.CausePressure:
			f.pressure++
		}
	}
}

func (f *Fractures) Value() float64 { return float64(f.impact + f.pressure) }

func (f *Fractures) Impact() int   { return f.impact }
func (f *Fractures) Pressure() int { return f.pressure }

func (f *Fractures) Reset() {
	f.impact = 0
	f.pressure = 0
}
