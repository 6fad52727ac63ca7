package world

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func column(w *World, x int) []float64 {
	out := make([]float64, w.Height)
	for y := 0; y < w.Height; y++ {
		out[y] = w.PressureAt(x, y)
	}
	return out
}

func TestRecomputePressurePrefixSum(t *testing.T) {
	w := New(5, 3)
	w.Place(V(1, 0), FreeRef(0), 1.5)
	w.Place(V(1, 1), FreeRef(1), 1.5)
	w.Place(V(1, 3), FreeRef(2), 2.0)

	w.RecomputePressure()

	want := []float64{5.0, 3.5, 2.0, 2.0, 0}
	if diff := cmp.Diff(want, column(w, 1)); diff != "" {
		t.Errorf("pressure column mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0, 0, 0, 0, 0}, column(w, 0)); diff != "" {
		t.Errorf("empty column should have zero pressure (-want +got):\n%s", diff)
	}
}

func TestPressureMonotonic(t *testing.T) {
	w := New(12, 4)
	masses := []float64{0.6, 0, 2.5, 1.0, 0, 7.8, 1.5, 0, 0, 2.4, 1.0, 0}
	for x := 0; x < w.Width; x++ {
		for y, m := range masses {
			if (x+y)%3 == 0 {
				continue
			}
			w.Place(V(float64(x), float64(y)), FreeRef(x*100+y), m)
		}
	}
	w.RecomputePressure()

	for x := 0; x < w.Width; x++ {
		for y := 0; y < w.Height-1; y++ {
			if w.PressureAt(x, y) < w.PressureAt(x, y+1) {
				t.Errorf("column %d: pressure at row %d (%f) below row %d (%f)",
					x, y, w.PressureAt(x, y), y+1, w.PressureAt(x, y+1))
			}
		}
	}
}

func TestRecomputeIsNotIncremental(t *testing.T) {
	w := New(4, 1)
	w.Place(V(0, 3), FreeRef(0), 1)
	w.RecomputePressure()
	w.Vacate(V(0, 3))
	w.Place(V(0, 0), FreeRef(0), 1)
	w.RecomputePressure()

	if diff := cmp.Diff([]float64{1, 0, 0, 0}, column(w, 0)); diff != "" {
		t.Errorf("stale pressure survived recompute (-want +got):\n%s", diff)
	}
}

func TestSetAndClear(t *testing.T) {
	w := New(3, 3)
	pos := V(1.9, 2.4)

	w.SetOccupant(pos, FreeRef(7))
	w.SetMass(pos, 2.5)

	ref, ok := w.OccupantAt(1, 2)
	if !ok || ref != FreeRef(7) {
		t.Errorf("expected free(7) at (1,2), got %v (%v)", ref, ok)
	}
	if w.MassAt(1, 2) != 2.5 {
		t.Errorf("expected mass 2.5, got %f", w.MassAt(1, 2))
	}

	w.ClearOccupant(pos)
	w.ClearMass(pos)
	if w.Occupied(1, 2) || w.MassAt(1, 2) != 0 {
		t.Error("cell should be empty after clear")
	}
}

func TestOutOfRangeWritesIgnored(t *testing.T) {
	w := New(2, 2)
	for _, pos := range []Vec2{V(-1, 0), V(0, -0.5), V(2, 0), V(0, 2), V(5, 5)} {
		w.Place(pos, FreeRef(1), 3)
		w.SetMass(pos, 3)
	}
	if w.TotalMass() != 0 {
		t.Errorf("expected no mass written, got %f", w.TotalMass())
	}
}

func TestOutOfRangeReadPanics(t *testing.T) {
	w := New(2, 2)
	defer func() {
		if recover() == nil {
			t.Error("expected panic on out-of-range read")
		}
	}()
	w.PressureAt(2, 0)
}

func TestNewRejectsEmptyGrid(t *testing.T) {
	tests := []struct {
		name          string
		height, width int
	}{
		{"zero height", 0, 4},
		{"zero width", 4, 0},
		{"negative", -2, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("New(%d, %d) did not panic", tt.height, tt.width)
				}
			}()
			New(tt.height, tt.width)
		})
	}
}

func TestFree(t *testing.T) {
	w := New(2, 2)
	w.SetStatic(0, 0, 1000)

	tests := []struct {
		x, y int
		free bool
	}{
		{0, 0, false},
		{1, 0, true},
		{-1, 0, false},
		{0, 2, false},
	}
	for _, tt := range tests {
		if got := w.Free(tt.x, tt.y); got != tt.free {
			t.Errorf("Free(%d,%d) = %v, want %v", tt.x, tt.y, got, tt.free)
		}
	}
}

func TestMassAbove(t *testing.T) {
	w := New(5, 2)
	w.Place(V(0, 4), FreeRef(0), 1)
	w.Place(V(0, 2), FreeRef(1), 2)
	w.Place(V(0, 1), FreeRef(2), 4)

	if got := w.MassAbove(0, 1); got != 3 {
		t.Errorf("MassAbove(0,1) = %f, want 3", got)
	}
	if got := w.MassAbove(0, 4); got != 0 {
		t.Errorf("MassAbove(0,4) = %f, want 0", got)
	}
	if got := w.MassAbove(9, 0); got != 0 {
		t.Errorf("MassAbove off-grid = %f, want 0", got)
	}
}

func TestPeakPressureIgnoresStatic(t *testing.T) {
	w := New(3, 1)
	w.SetStatic(0, 0, 1000)
	w.Place(V(0, 1), FreeRef(0), 1.5)
	w.RecomputePressure()

	if got := w.PeakPressure(); got != 1.5 {
		t.Errorf("PeakPressure = %f, want 1.5", got)
	}
}

func TestDump(t *testing.T) {
	w := New(1, 2)
	w.Place(V(1, 0), FreeRef(3), 1)
	var buf bytes.Buffer
	if err := w.Dump(&buf); err != nil {
		t.Fatalf("dump failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[1], "occupant=free(3)") {
		t.Errorf("unexpected dump line: %s", lines[1])
	}
}
