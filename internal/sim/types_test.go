package sim

import (
	"errors"
	"testing"

	"github.com/san-kum/sandsim/internal/world"
)

func TestCauseString(t *testing.T) {
	tests := []struct {
		cause Cause
		want  string
	}{
		{CauseImpact, "impact"},
		{CausePressure, "pressure"},
		{Cause(9), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.cause.String(); got != tt.want {
			t.Errorf("Cause(%d).String() = %q, want %q", tt.cause, got, tt.want)
		}
	}
}

func TestSpawnErrorUnwrap(t *testing.T) {
	err := &SpawnError{Kind: "particle", Position: world.V(1, 2), Err: ErrCellOccupied}

	if !errors.Is(err, ErrCellOccupied) {
		t.Error("errors.Is failed through SpawnError")
	}
	if got, want := err.Error(), "spawn particle at (1.0, 2.0): sim: cell already occupied"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestObserverFunc(t *testing.T) {
	called := 0
	var obs Observer = ObserverFunc(func(*Simulation, []Fracture) { called++ })
	obs.OnTick(nil, nil)
	if called != 1 {
		t.Errorf("called = %d", called)
	}
}
