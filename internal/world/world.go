package world

import (
	"fmt"
	"io"
)

type Cell struct {
	Occupant Ref
	Mass     float64
	Pressure float64
}

type World struct {
	Height, Width int
	cells         []Cell
}

// New allocates a height x width grid. The size is fixed for the life of the
// world; a non-positive dimension panics.
func New(height, width int) *World {
	if height <= 0 || width <= 0 {
		panic(fmt.Sprintf("world: invalid grid size %dx%d", width, height))
	}
	return &World{
		Height: height,
		Width:  width,
		cells:  make([]Cell, height*width),
	}
}

func (w *World) InBounds(x, y int) bool {
	return x >= 0 && x < w.Width && y >= 0 && y < w.Height
}

func (w *World) index(x, y int) int { return y*w.Width + x }

// at is the checked read path.
func (w *World) at(x, y int) *Cell {
	if !w.InBounds(x, y) {
		panic(fmt.Sprintf("world: read (%d,%d) outside %dx%d grid", x, y, w.Width, w.Height))
	}
	return &w.cells[w.index(x, y)]
}

// writable returns nil when pos lies outside the grid.
func (w *World) writable(pos Vec2) *Cell {
	if pos.X < 0 || pos.Y < 0 {
		return nil
	}
	x, y := pos.Cell()
	if !w.InBounds(x, y) {
		return nil
	}
	return &w.cells[w.index(x, y)]
}

func (w *World) CellAt(x, y int) Cell { return *w.at(x, y) }

func (w *World) PressureAt(x, y int) float64 { return w.at(x, y).Pressure }

func (w *World) MassAt(x, y int) float64 { return w.at(x, y).Mass }

func (w *World) OccupantAt(x, y int) (Ref, bool) {
	c := w.at(x, y)
	return c.Occupant, !c.Occupant.IsNone()
}

func (w *World) Occupied(x, y int) bool {
	return !w.at(x, y).Occupant.IsNone()
}

// Free reports whether (x,y) is inside the grid and unoccupied.
func (w *World) Free(x, y int) bool {
	return w.InBounds(x, y) && w.at(x, y).Occupant.IsNone()
}

func (w *World) SetMass(pos Vec2, mass float64) {
	if c := w.writable(pos); c != nil {
		c.Mass = mass
	}
}

func (w *World) ClearMass(pos Vec2) { w.SetMass(pos, 0) }

func (w *World) SetOccupant(pos Vec2, ref Ref) {
	if c := w.writable(pos); c != nil {
		c.Occupant = ref
	}
}

func (w *World) ClearOccupant(pos Vec2) { w.SetOccupant(pos, NoRef) }

// Place writes occupant and mass together.
func (w *World) Place(pos Vec2, ref Ref, mass float64) {
	if c := w.writable(pos); c != nil {
		c.Occupant = ref
		c.Mass = mass
	}
}

// Vacate clears occupant and mass together.
func (w *World) Vacate(pos Vec2) {
	if c := w.writable(pos); c != nil {
		c.Occupant = NoRef
		c.Mass = 0
	}
}

// SetStatic marks a cell as immovable terrain.
func (w *World) SetStatic(x, y int, mass float64) {
	w.Place(V(float64(x), float64(y)), StaticRef, mass)
}

// RecomputePressure rebuilds the pressure field from scratch. Pressure at a
// cell is the total mass of its column from the top row down to and
// including the cell itself.
func (w *World) RecomputePressure() {
	for x := 0; x < w.Width; x++ {
		sum := 0.0
		for y := w.Height - 1; y >= 0; y-- {
			c := &w.cells[w.index(x, y)]
			sum += c.Mass
			c.Pressure = sum
		}
	}
}

// MassAbove sums the current mass strictly above (x,y) in its column. Unlike
// PressureAt it reflects moves made since the last recompute.
func (w *World) MassAbove(x, y int) float64 {
	if x < 0 || x >= w.Width {
		return 0
	}
	sum := 0.0
	for yy := y + 1; yy < w.Height; yy++ {
		if yy < 0 {
			continue
		}
		sum += w.cells[w.index(x, yy)].Mass
	}
	return sum
}

func (w *World) TotalMass() float64 {
	sum := 0.0
	for i := range w.cells {
		sum += w.cells[i].Mass
	}
	return sum
}

func (w *World) PeakPressure() float64 {
	peak := 0.0
	for i := range w.cells {
		if w.cells[i].Occupant.Kind == RefStatic {
			continue
		}
		if w.cells[i].Pressure > peak {
			peak = w.cells[i].Pressure
		}
	}
	return peak
}

// Dump writes one line per cell with occupation, mass and pressure.
func (w *World) Dump(out io.Writer) error {
	for y := 0; y < w.Height; y++ {
		for x := 0; x < w.Width; x++ {
			c := w.cells[w.index(x, y)]
			if _, err := fmt.Fprintf(out, "x=%d y=%d occupant=%s mass=%.3f pressure=%.3f\n",
				x, y, c.Occupant, c.Mass, c.Pressure); err != nil {
				return err
			}
		}
	}
	return nil
}
