package physics

import (
	"github.com/san-kum/sandsim/internal/material"
	"github.com/san-kum/sandsim/internal/world"
)

// Rand is the random source used for tie-breaks. *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

type Particle struct {
	ID       int
	Position world.Vec2
	Velocity world.Vec2
	Material material.Material
	Ref      world.Ref
}

func NewParticle(id int, position, velocity world.Vec2, m material.Material, ref world.Ref) *Particle {
	return &Particle{
		ID:       id,
		Position: position,
		Velocity: velocity,
		Material: m,
		Ref:      ref,
	}
}

func (p *Particle) Mass() float64 { return p.Material.Density() }

func (p *Particle) Cell() (int, int) { return p.Position.Cell() }

// blocked reports whether (x,y) is off-grid or held by another entity.
func (p *Particle) blocked(w *world.World, x, y int) bool {
	if !w.InBounds(x, y) {
		return true
	}
	ref, ok := w.OccupantAt(x, y)
	return ok && ref != p.Ref
}

func (p *Particle) moveTo(w *world.World, pos world.Vec2) {
	w.Vacate(p.Position)
	p.Position = pos
	w.Place(p.Position, p.Ref, p.Mass())
}

// UpdateVelocity applies gravity to the vertical velocity. A particle whose
// next cell is taken stops; one that would pass below the floor is given
// exactly the velocity that lands it on row 0.
func (p *Particle) UpdateVelocity(gravity world.Vec2, w *world.World) {
	next := p.Position.Y + p.Velocity.Y + gravity.Y
	check := max(next, 0)

	x := int(p.Position.X)
	switch {
	case p.blocked(w, x, int(check)):
		p.Velocity.Y = 0
	case next < 0:
		p.Velocity.Y = -p.Position.Y
	default:
		p.Velocity.Y += gravity.Y
	}
}

// UpdatePosition moves the particle by its velocity. The destination is
// clamped to the grid; a destination held by another entity stops the
// particle in place.
func (p *Particle) UpdatePosition(w *world.World) {
	if p.Velocity.IsZero() {
		return
	}
	target := p.Position.Add(p.Velocity)

	if target.X < 0 {
		target.X, p.Velocity.X = 0, 0
	} else if maxX := float64(w.Width - 1); target.X > maxX {
		target.X, p.Velocity.X = maxX, 0
	}
	if target.Y < 0 {
		target.Y, p.Velocity.Y = 0, 0
	} else if maxY := float64(w.Height - 1); target.Y > maxY {
		target.Y, p.Velocity.Y = maxY, 0
	}

	tx, ty := target.Cell()
	if p.blocked(w, tx, ty) {
		p.Velocity = world.Vec2{}
		return
	}
	p.moveTo(w, target)
}

// neighbours lists every direction except straight up, in evaluation order.
var neighbours = [7][2]int{
	{1, 1},   // up-right
	{1, 0},   // right
	{1, -1},  // down-right
	{0, -1},  // down
	{-1, -1}, // down-left
	{-1, 0},  // left
	{-1, 1},  // up-left
}

type candidate struct {
	x, y     int
	pressure float64
}

func (p *Particle) lowestNeighbour(w *world.World, x, y int, rng Rand) (candidate, bool) {
	var options [len(neighbours)]candidate
	n := 0
	lowest := 0.0
	for _, d := range neighbours {
		nx, ny := x+d[0], y+d[1]
		if !w.InBounds(nx, ny) {
			continue
		}
		c := candidate{x: nx, y: ny, pressure: w.PressureAt(nx, ny)}
		switch {
		case n == 0 || c.pressure < lowest:
			lowest = c.pressure
			options[0] = c
			n = 1
		case c.pressure == lowest:
			options[n] = c
			n++
		}
	}
	if n == 0 {
		return candidate{}, false
	}
	if n == 1 {
		return options[0], true
	}
	return options[rng.Intn(n)], true
}

// ResolvePressure moves the particle one cell toward the lowest-pressure
// neighbour once the load on its cell exceeds its own mass. It never moves
// upward and never into an occupied cell. Reports whether it moved.
func (p *Particle) ResolvePressure(w *world.World, rng Rand) bool {
	x, y := p.Cell()
	own := w.PressureAt(x, y)
	if own <= p.Mass() {
		return false
	}

	target, ok := p.lowestNeighbour(w, x, y, rng)
	if !ok || target.pressure >= own || target.y > y || w.Occupied(target.x, target.y) {
		return false
	}
	p.moveTo(w, world.V(float64(target.x), float64(target.y)))
	return true
}

// FallDown drops the particle one cell if the cell below is free. Liquids and
// sliding solids also try down-left, then down-right.
func (p *Particle) FallDown(w *world.World) bool {
	x, y := p.Cell()
	if y <= 0 {
		return false
	}

	if w.Free(x, y-1) {
		p.moveTo(w, world.V(p.Position.X, p.Position.Y-1))
		return true
	}

	if p.Material.IsSolid() && !p.Material.Slides() {
		return false
	}

	for _, dx := range [2]int{-1, 1} {
		if w.Free(x+dx, y-1) {
			p.moveTo(w, world.V(p.Position.X+float64(dx), p.Position.Y-1))
			return true
		}
	}
	return false
}

// FlowSideways spreads a resting liquid one cell left or right, preferring the
// side with lower pressure.
func (p *Particle) FlowSideways(w *world.World, rng Rand) bool {
	if !p.Material.IsLiquid() {
		return false
	}
	x, y := p.Cell()
	if y > 0 && w.Free(x, y-1) {
		return false
	}

	left, right := w.Free(x-1, y), w.Free(x+1, y)
	var dx int
	switch {
	case left && right:
		pl, pr := w.PressureAt(x-1, y), w.PressureAt(x+1, y)
		switch {
		case pl < pr:
			dx = -1
		case pr < pl:
			dx = 1
		case rng.Intn(2) == 0:
			dx = -1
		default:
			dx = 1
		}
	case left:
		dx = -1
	case right:
		dx = 1
	default:
		return false
	}

	p.moveTo(w, world.V(p.Position.X+float64(dx), p.Position.Y))
	return true
}
