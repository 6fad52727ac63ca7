package analysis

import "github.com/san-kum/sandsim/internal/sim"

// SettleTick returns the tick of the first sample from which every later
// sample has all particles at rest. ok is false if the last sample is still
// moving.
func SettleTick(stats []sim.Stats) (tick int, ok bool) {
	start := -1
	for i := len(stats) - 1; i >= 0; i-- {
		if stats[i].Settled != stats[i].Particles {
			break
		}
		start = i
	}
	if start < 0 {
		return 0, false
	}
	return stats[start].Tick, true
}

type FractureSummary struct {
	Impact    int
	Pressure  int
	Fragments int
	FirstTick int
	LastTick  int
}

func (s FractureSummary) Total() int { return s.Impact + s.Pressure }

func SummarizeFractures(events []sim.FractureEvent) FractureSummary {
	var s FractureSummary
	for i, e := range events {
		switch e.Cause {
		case sim.CauseImpact.String():
			s.Impact++
		case sim.CausePressure.String():
			s.Pressure++
		}
		s.Fragments += e.Fragments
		if i == 0 || e.Tick < s.FirstTick {
			s.FirstTick = e.Tick
		}
		s.LastTick = max(s.LastTick, e.Tick)
	}
	return s
}
