package physics

import (
	"math/rand"
	"testing"

	"github.com/san-kum/sandsim/internal/material"
	"github.com/san-kum/sandsim/internal/world"
)

// fixedRand always picks the same option index.
type fixedRand struct{ pick int }

func (f fixedRand) Intn(n int) int { return f.pick % n }

func spawn(w *world.World, idx int, x, y float64, m material.Material) *Particle {
	p := NewParticle(idx, world.V(x, y), world.Vec2{}, m, world.FreeRef(idx))
	w.Place(p.Position, p.Ref, p.Mass())
	return p
}

func tickParticles(w *world.World, gravity world.Vec2, rng Rand, ps ...*Particle) {
	w.RecomputePressure()
	for _, p := range ps {
		p.UpdateVelocity(gravity, w)
		p.UpdatePosition(w)
	}
	for _, p := range ps {
		p.ResolvePressure(w, rng)
	}
	for _, p := range ps {
		if !p.FallDown(w) {
			p.FlowSideways(w, rng)
		}
	}
}

func occupiedCells(w *world.World) int {
	n := 0
	for y := 0; y < w.Height; y++ {
		for x := 0; x < w.Width; x++ {
			if w.Occupied(x, y) {
				n++
			}
		}
	}
	return n
}

func TestStraightFall(t *testing.T) {
	w := world.New(20, 10)
	p := spawn(w, 0, 5, 10, material.Sand)
	gravity := world.V(0, -0.5)
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 20; i++ {
		tickParticles(w, gravity, rng, p)
		if n := occupiedCells(w); n != 1 {
			t.Fatalf("tick %d: expected 1 occupied cell, got %d", i, n)
		}
	}

	x, y := p.Cell()
	if x != 5 || y != 0 {
		t.Errorf("expected particle at rest on (5,0), got (%d,%d)", x, y)
	}
	if p.Position.Y != 0 {
		t.Errorf("expected exact floor position, got y=%f", p.Position.Y)
	}
	if p.Velocity.Y != 0 {
		t.Errorf("expected vertical velocity 0, got %f", p.Velocity.Y)
	}
	if w.MassAt(5, 0) != material.Sand.Density() {
		t.Errorf("expected sand mass on floor cell, got %f", w.MassAt(5, 0))
	}
}

func TestUpdateVelocity(t *testing.T) {
	gravity := world.V(0, -0.5)

	tests := []struct {
		name     string
		y, vy    float64
		blocker  bool
		expected float64
	}{
		{"accumulates gravity", 10, -1, false, -1.5},
		{"collision stops", 3, -1, true, 0},
		{"floor snap", 1, -2, false, -1},
		{"resting on floor", 0, 0, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := world.New(20, 10)
			p := spawn(w, 0, 4, tt.y, material.Sand)
			p.Velocity.Y = tt.vy
			if tt.blocker {
				w.SetStatic(4, 1, 1000)
			}
			p.UpdateVelocity(gravity, w)
			if p.Velocity.Y != tt.expected {
				t.Errorf("vy = %f, want %f", p.Velocity.Y, tt.expected)
			}
			if p.Velocity.X != 0 {
				t.Errorf("horizontal velocity changed: %f", p.Velocity.X)
			}
		})
	}
}

func TestUpdatePositionClearsThenWrites(t *testing.T) {
	w := world.New(10, 10)
	p := spawn(w, 3, 2, 6, material.Water)
	p.Velocity = world.V(1, -2)

	p.UpdatePosition(w)

	if w.Occupied(2, 6) || w.MassAt(2, 6) != 0 {
		t.Error("old cell not cleared")
	}
	ref, ok := w.OccupantAt(3, 4)
	if !ok || ref != world.FreeRef(3) {
		t.Errorf("new cell occupant = %v, want free(3)", ref)
	}
	if w.MassAt(3, 4) != material.Water.Density() {
		t.Errorf("new cell mass = %f, want %f", w.MassAt(3, 4), material.Water.Density())
	}
}

func TestUpdatePositionRefusesOccupiedCell(t *testing.T) {
	w := world.New(10, 10)
	p := spawn(w, 0, 2, 6, material.Sand)
	other := spawn(w, 1, 2, 3, material.Sand)
	p.Velocity = world.V(0, -3)

	p.UpdatePosition(w)

	if x, y := p.Cell(); x != 2 || y != 6 {
		t.Errorf("particle moved into occupied cell: (%d,%d)", x, y)
	}
	if !p.Velocity.IsZero() {
		t.Errorf("expected velocity zeroed, got %+v", p.Velocity)
	}
	if ref, _ := w.OccupantAt(2, 3); ref != other.Ref {
		t.Errorf("occupant of (2,3) overwritten: %v", ref)
	}
}

func TestUpdatePositionClampsToGrid(t *testing.T) {
	w := world.New(10, 10)
	p := spawn(w, 0, 8, 5, material.Sand)
	p.Velocity = world.V(4, 0)

	p.UpdatePosition(w)

	if x, _ := p.Cell(); x != 9 {
		t.Errorf("expected clamp to column 9, got %d", x)
	}
	if p.Velocity.X != 0 {
		t.Errorf("expected horizontal velocity zeroed, got %f", p.Velocity.X)
	}
}

func TestPressureStack(t *testing.T) {
	w := world.New(10, 10)
	bottom := spawn(w, 0, 5, 0, material.Sand)
	middle := spawn(w, 1, 5, 1, material.Sand)
	top := spawn(w, 2, 5, 2, material.Sand)
	w.RecomputePressure()

	if !(w.PressureAt(5, 2) < w.PressureAt(5, 1) && w.PressureAt(5, 1) < w.PressureAt(5, 0)) {
		t.Fatalf("column not ordered: %f %f %f",
			w.PressureAt(5, 0), w.PressureAt(5, 1), w.PressureAt(5, 2))
	}

	if top.ResolvePressure(w, fixedRand{1}) {
		t.Error("top particle carries only its own mass and must stay")
	}
	// bottom row: the first tied candidate is up-right, which is never taken
	if bottom.ResolvePressure(w, fixedRand{0}) {
		t.Error("bottom particle moved upward")
	}

	// Six neighbours tie at zero; index 1 is "right".
	if !middle.ResolvePressure(w, fixedRand{1}) {
		t.Fatal("expected middle particle to relocate")
	}
	if x, y := middle.Cell(); x != 6 || y != 1 {
		t.Errorf("expected move to (6,1), got (%d,%d)", x, y)
	}
	if w.Occupied(5, 1) {
		t.Error("old cell still occupied")
	}
}

func TestResolvePressureNeverMovesUp(t *testing.T) {
	w := world.New(10, 10)
	spawn(w, 0, 5, 0, material.Sand)
	middle := spawn(w, 1, 5, 1, material.Sand)
	spawn(w, 2, 5, 2, material.Sand)
	w.RecomputePressure()

	// index 0 is up-right, the first of the tied candidates
	if middle.ResolvePressure(w, fixedRand{0}) {
		t.Error("particle moved upward")
	}
	if x, y := middle.Cell(); x != 5 || y != 1 {
		t.Errorf("particle left its cell: (%d,%d)", x, y)
	}
}

func TestResolvePressureTieBreakProperty(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		w := world.New(10, 10)
		spawn(w, 0, 5, 0, material.Sand)
		middle := spawn(w, 1, 5, 1, material.Sand)
		spawn(w, 2, 5, 2, material.Sand)
		w.RecomputePressure()

		middle.ResolvePressure(w, rand.New(rand.NewSource(seed)))

		x, y := middle.Cell()
		if y > 1 {
			t.Errorf("seed %d: moved up to row %d", seed, y)
		}
		if x < 4 || x > 6 {
			t.Errorf("seed %d: moved more than one column: %d", seed, x)
		}
		if occupiedCells(w) != 3 {
			t.Errorf("seed %d: occupancy count changed", seed)
		}
	}
}

func TestFallDown(t *testing.T) {
	tests := []struct {
		name      string
		m         material.Material
		blockLeft bool
		wantX     int
		wantY     int
	}{
		{"sand slides left", material.Sand, false, 4, 0},
		{"sand slides right when left blocked", material.Sand, true, 6, 0},
		{"water slides left", material.Water, false, 4, 0},
		{"stone stays", material.Stone, false, 5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := world.New(10, 10)
			w.SetStatic(5, 0, 1000)
			if tt.blockLeft {
				w.SetStatic(4, 0, 1000)
			}
			p := spawn(w, 0, 5, 1, tt.m)
			p.FallDown(w)
			if x, y := p.Cell(); x != tt.wantX || y != tt.wantY {
				t.Errorf("got (%d,%d), want (%d,%d)", x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestFallDownStraight(t *testing.T) {
	w := world.New(10, 10)
	p := spawn(w, 0, 5, 4.5, material.Stone)
	if !p.FallDown(w) {
		t.Fatal("expected fall")
	}
	if p.Position.Y != 3.5 {
		t.Errorf("expected y=3.5, got %f", p.Position.Y)
	}
	if p.FallDown(w); p.Position.Y != 2.5 {
		t.Errorf("expected y=2.5, got %f", p.Position.Y)
	}
}

func TestFlowSideways(t *testing.T) {
	t.Run("tie uses rng", func(t *testing.T) {
		for pick, wantX := range map[int]int{0: 4, 1: 6} {
			w := world.New(10, 10)
			p := spawn(w, 0, 5, 0, material.Water)
			w.RecomputePressure()
			if !p.FlowSideways(w, fixedRand{pick}) {
				t.Fatalf("pick %d: expected flow", pick)
			}
			if x, _ := p.Cell(); x != wantX {
				t.Errorf("pick %d: got x=%d, want %d", pick, x, wantX)
			}
		}
	})

	t.Run("prefers lower pressure", func(t *testing.T) {
		w := world.New(10, 10)
		p := spawn(w, 0, 5, 0, material.Water)
		spawn(w, 1, 4, 3, material.Stone)
		w.RecomputePressure()
		if !p.FlowSideways(w, fixedRand{0}) {
			t.Fatal("expected flow")
		}
		if x, _ := p.Cell(); x != 6 {
			t.Errorf("expected flow to the unloaded right side, got x=%d", x)
		}
	})

	t.Run("single side", func(t *testing.T) {
		w := world.New(10, 10)
		w.SetStatic(6, 0, 1000)
		p := spawn(w, 0, 5, 0, material.Water)
		w.RecomputePressure()
		p.FlowSideways(w, fixedRand{1})
		if x, _ := p.Cell(); x != 4 {
			t.Errorf("expected x=4, got %d", x)
		}
	})

	t.Run("boxed in", func(t *testing.T) {
		w := world.New(10, 10)
		w.SetStatic(4, 0, 1000)
		w.SetStatic(6, 0, 1000)
		p := spawn(w, 0, 5, 0, material.Water)
		if p.FlowSideways(w, fixedRand{0}) {
			t.Error("expected no flow")
		}
	})

	t.Run("falling liquid does not flow", func(t *testing.T) {
		w := world.New(10, 10)
		p := spawn(w, 0, 5, 3, material.Water)
		if p.FlowSideways(w, fixedRand{0}) {
			t.Error("expected no flow while the cell below is open")
		}
	})

	t.Run("solids never flow", func(t *testing.T) {
		w := world.New(10, 10)
		p := spawn(w, 0, 5, 0, material.Sand)
		if p.FlowSideways(w, fixedRand{0}) {
			t.Error("sand flowed sideways")
		}
	})
}

func TestWaterSpreadsOverFloor(t *testing.T) {
	w := world.New(10, 12)
	rng := rand.New(rand.NewSource(7))
	var ps []*Particle
	for i := 0; i < 5; i++ {
		ps = append(ps, spawn(w, i, 6, float64(2+i), material.Water))
	}

	for i := 0; i < 60; i++ {
		tickParticles(w, world.V(0, -1), rng, ps...)
		if n := occupiedCells(w); n != len(ps) {
			t.Fatalf("tick %d: %d occupied cells for %d particles", i, n, len(ps))
		}
	}

	for _, p := range ps {
		if _, y := p.Cell(); y > 1 {
			t.Errorf("water particle %d still stacked at row %d", p.ID, y)
		}
	}
}
