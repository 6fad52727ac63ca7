package metrics

import "github.com/san-kum/sandsim/internal/sim"

// Default returns one fresh instance of every metric.
func Default() []sim.Metric {
	return []sim.Metric{
		NewMassDrift(),
		NewFractures(),
		NewSettledRatio(),
		NewPeakPressure(),
	}
}

// Attach registers every metric in ms on s.
func Attach(s *sim.Simulation, ms ...sim.Metric) {
	for _, m := range ms {
		s.AddMetric(m)
	}
}
