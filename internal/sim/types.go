package sim

import (
	"github.com/san-kum/sandsim/internal/physics"
	"github.com/san-kum/sandsim/internal/world"
)

// Cause says which check split an object.
type Cause uint8

const (
	CauseImpact Cause = iota
	CausePressure
)

func (c Cause) String() string {
	switch c {
	case CauseImpact:
		return "impact"
	case CausePressure:
		return "pressure"
	default:
		return "unknown"
	}
}

// Fracture records one object splitting during a tick. Fragments hold the
// world cells of each piece, already extracted from the destroyed object.
type Fracture struct {
	ObjectIndex int
	ObjectID    int
	Cause       Cause
	Velocity    world.Vec2
	Fragments   [][]physics.FragmentCell
}

// Metric accumulates a scalar over a run.
type Metric interface {
	Name() string
	Observe(s *Simulation, fractures []Fracture)
	Value() float64
	Reset()
}

// Observer is called once after every tick, fragments already materialized.
type Observer interface {
	OnTick(s *Simulation, fractures []Fracture)
}

type ObserverFunc func(s *Simulation, fractures []Fracture)

func (f ObserverFunc) OnTick(s *Simulation, fractures []Fracture) { f(s, fractures) }

type RunConfig struct {
	Ticks int
	// StatsEvery samples Stats every n ticks; 0 means every tick.
	StatsEvery int
}

// Stats is a snapshot of the simulation between ticks.
type Stats struct {
	Tick         int     `json:"tick"`
	Particles    int     `json:"particles"`
	Objects      int     `json:"objects"`
	Settled      int     `json:"settled"`
	TotalMass    float64 `json:"total_mass"`
	PeakPressure float64 `json:"peak_pressure"`
	Fractures    int     `json:"fractures"`
}

type FractureEvent struct {
	Tick      int    `json:"tick"`
	ObjectID  int    `json:"object_id"`
	Cause     string `json:"cause"`
	Fragments int    `json:"fragments"`
}

// Event summarises f as it happened on the given tick.
func (f Fracture) Event(tick int) FractureEvent {
	return FractureEvent{
		Tick:      tick,
		ObjectID:  f.ObjectID,
		Cause:     f.Cause.String(),
		Fragments: len(f.Fragments),
	}
}

type Result struct {
	TicksRun  int
	Stats     []Stats
	Fractures []FractureEvent
	Metrics   map[string]float64
}
