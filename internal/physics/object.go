package physics

import (
	"math"

	"github.com/san-kum/sandsim/internal/material"
	"github.com/san-kum/sandsim/internal/world"
)

// Per-kind share of the impact force transmitted back into a landing object.
const (
	DampeningStatic   = 1.0
	DampeningFree     = 0.4
	DampeningInObject = 0.6
)

// DefaultQuadrant is the four-material test pattern, listed bottom-left,
// bottom-right, top-left, top-right.
var DefaultQuadrant = [4]material.Material{material.Stone, material.Metal, material.Wood, material.Glass}

type ObjectCell struct {
	Particle    Particle
	AuxMass     float64
	AuxPressure float64 // load seen by the cell during the last pressure check
}

func (c *ObjectCell) IsAir() bool { return c.Particle.Material.IsAir() }

// Object is a rigid cluster of cells. Position is the world position of the
// lower-left cell; Cells[0] is the bottom row.
type Object struct {
	ID        int
	Destroyed bool
	Position  world.Vec2
	Velocity  world.Vec2
	TotalMass float64
	Height    int
	Width     int
	Cells     [][]ObjectCell

	index int
}

// CellCoord addresses a cell in an object's local grid.
type CellCoord struct {
	Row, Col int
}

type Fragment []CellCoord

// FragmentCell is one cell of a fragment in world terms, enough to rebuild it
// as a particle or a new object.
type FragmentCell struct {
	Position world.Vec2
	Material material.Material
}

func newObject(id int, anchor, velocity world.Vec2, height, width int, fill func(row, col int) material.Material) *Object {
	o := &Object{
		ID:       id,
		Position: anchor,
		Velocity: velocity,
		Height:   height,
		Width:    width,
		Cells:    make([][]ObjectCell, height),
		index:    -1,
	}
	for r := 0; r < height; r++ {
		o.Cells[r] = make([]ObjectCell, width)
		for c := 0; c < width; c++ {
			m := fill(r, c)
			o.Cells[r][c] = ObjectCell{
				Particle: Particle{
					ID:       r*width + c,
					Position: anchor.Add(world.V(float64(c), float64(r))),
					Velocity: velocity,
					Material: m,
				},
				AuxMass: m.Density(),
			}
			o.TotalMass += m.Density()
		}
	}
	o.Bind(-1)
	return o
}

// NewObject builds a uniform height x width block of one material.
func NewObject(id int, anchor, velocity world.Vec2, m material.Material, height, width int) *Object {
	return newObject(id, anchor, velocity, height, width, func(int, int) material.Material { return m })
}

// NewQuadrant builds a 4x4 object made of four 2x2 quadrants. Materials are
// given bottom-left, bottom-right, top-left, top-right.
func NewQuadrant(id int, anchor, velocity world.Vec2, pattern [4]material.Material) *Object {
	return newObject(id, anchor, velocity, 4, 4, func(r, c int) material.Material {
		return pattern[(r/2)*2+c/2]
	})
}

// NewFromFragment rebuilds an object from world cells. The local grid spans
// the tight bounding box; cells missing from the input become Air.
func NewFromFragment(id int, cells []FragmentCell, velocity world.Vec2) *Object {
	if len(cells) == 0 {
		return nil
	}
	minX, minY := cells[0].Position.X, cells[0].Position.Y
	maxX, maxY := minX, minY
	for _, fc := range cells[1:] {
		minX, maxX = math.Min(minX, fc.Position.X), math.Max(maxX, fc.Position.X)
		minY, maxY = math.Min(minY, fc.Position.Y), math.Max(maxY, fc.Position.Y)
	}
	width := int(math.Round(maxX-minX)) + 1
	height := int(math.Round(maxY-minY)) + 1

	layout := make(map[CellCoord]material.Material, len(cells))
	for _, fc := range cells {
		layout[CellCoord{
			Row: int(math.Round(fc.Position.Y - minY)),
			Col: int(math.Round(fc.Position.X - minX)),
		}] = fc.Material
	}

	return newObject(id, world.V(minX, minY), velocity, height, width, func(r, c int) material.Material {
		return layout[CellCoord{Row: r, Col: c}]
	})
}

// Bind assigns the object's slot in the owning collection and retags every
// cell with it.
func (o *Object) Bind(index int) {
	o.index = index
	for r := range o.Cells {
		for c := range o.Cells[r] {
			o.Cells[r][c].Particle.Ref = world.ObjectRef(index, r, c)
		}
	}
}

func (o *Object) Index() int { return o.index }

func (o *Object) owns(ref world.Ref) bool {
	return ref.Kind == world.RefInObject && ref.Index == o.index
}

// CellCount counts the non-air cells.
func (o *Object) CellCount() int {
	n := 0
	o.eachSolid(func(int, int, *ObjectCell) { n++ })
	return n
}

func (o *Object) eachSolid(fn func(r, c int, cell *ObjectCell)) {
	for r := range o.Cells {
		for c := range o.Cells[r] {
			if !o.Cells[r][c].IsAir() {
				fn(r, c, &o.Cells[r][c])
			}
		}
	}
}

func (o *Object) solid(r, c int) bool {
	return r >= 0 && r < o.Height && c >= 0 && c < o.Width && !o.Cells[r][c].IsAir()
}

func (o *Object) offset(r, c int) world.Vec2 {
	return o.Position.Add(world.V(float64(c), float64(r)))
}

// Fits reports whether every non-air cell would land inside the grid on a
// cell that is free or already held by this object when anchored at anchor.
func (o *Object) Fits(w *world.World, anchor world.Vec2) bool {
	ok := true
	o.eachSolid(func(r, c int, _ *ObjectCell) {
		if !ok {
			return
		}
		pos := anchor.Add(world.V(float64(c), float64(r)))
		if pos.X < 0 || pos.Y < 0 {
			ok = false
			return
		}
		x, y := pos.Cell()
		if !w.InBounds(x, y) {
			ok = false
			return
		}
		if ref, taken := w.OccupantAt(x, y); taken && !o.owns(ref) {
			ok = false
		}
	})
	return ok
}

// Place writes every non-air cell into the grid at the current anchor.
func (o *Object) Place(w *world.World) {
	o.eachSolid(func(r, c int, cell *ObjectCell) {
		cell.Particle.Position = o.offset(r, c)
		w.Place(cell.Particle.Position, cell.Particle.Ref, cell.AuxMass)
	})
}

// ClearFromWorld removes every cell this object still holds in the grid.
func (o *Object) ClearFromWorld(w *world.World) {
	o.eachSolid(func(_, _ int, cell *ObjectCell) {
		x, y := cell.Particle.Position.Cell()
		if !w.InBounds(x, y) {
			return
		}
		if ref, ok := w.OccupantAt(x, y); ok && o.owns(ref) {
			w.Vacate(cell.Particle.Position)
		}
	})
}

// bottomProbes returns, per column, the lowest non-air row (-1 for an all-air
// column).
func (o *Object) bottomProbes() []int {
	rows := make([]int, o.Width)
	for c := 0; c < o.Width; c++ {
		rows[c] = -1
		for r := 0; r < o.Height; r++ {
			if !o.Cells[r][c].IsAir() {
				rows[c] = r
				break
			}
		}
	}
	return rows
}

func (o *Object) collisions(w *world.World, baseY int) []world.Ref {
	ax := int(o.Position.X)
	var hits []world.Ref
	for c, r := range o.bottomProbes() {
		if r < 0 {
			continue
		}
		x, y := ax+c, baseY+r
		if !w.InBounds(x, y) {
			continue
		}
		ref, ok := w.OccupantAt(x, y)
		if !ok || o.owns(ref) {
			continue
		}
		seen := false
		for _, h := range hits {
			if h == ref {
				seen = true
				break
			}
		}
		if !seen {
			hits = append(hits, ref)
		}
	}
	return hits
}

func collisionDampening(hits []world.Ref) float64 {
	if len(hits) == 0 {
		return 0
	}
	sum := 0.0
	for _, ref := range hits {
		switch ref.Kind {
		case world.RefStatic:
			sum += DampeningStatic
		case world.RefFree:
			sum += DampeningFree
		case world.RefInObject:
			sum += DampeningInObject
		}
	}
	return sum / float64(len(hits))
}

// UpdateObjectVelocity applies gravity to the object. When the next row below
// any column is taken the object stops; if it was moving, the impact is run
// through fracture detection and the resulting fragments are returned.
func (o *Object) UpdateObjectVelocity(gravity world.Vec2, w *world.World) []Fragment {
	next := o.Position.Y + o.Velocity.Y + gravity.Y
	probe := max(next, 0)

	if hits := o.collisions(w, int(probe)); len(hits) > 0 {
		before := o.Velocity.Y
		o.Velocity.Y = 0
		if before == 0 {
			return nil
		}
		impact := o.TotalMass * math.Abs(before)
		broken := o.CheckFracture(impact, collisionDampening(hits))
		return o.split(broken)
	}

	if next < 0 {
		o.Velocity.Y = -o.Position.Y
	} else {
		o.Velocity.Y += gravity.Y
	}
	return nil
}

// UpdateObjectPosition moves the whole body by its velocity. The move is
// clamped to the grid and refused (velocity zeroed) if any destination cell
// belongs to another entity. A refused move is not an impact: only the
// bottom-row probe in UpdateObjectVelocity runs fracture detection.
func (o *Object) UpdateObjectPosition(w *world.World) {
	if o.Velocity.IsZero() {
		return
	}
	target := o.Position.Add(o.Velocity)

	if target.X < 0 {
		target.X, o.Velocity.X = 0, 0
	} else if maxX := float64(w.Width - o.Width); target.X > maxX {
		target.X, o.Velocity.X = maxX, 0
	}
	if target.Y < 0 {
		target.Y, o.Velocity.Y = 0, 0
	} else if maxY := float64(w.Height - o.Height); target.Y > maxY {
		target.Y, o.Velocity.Y = maxY, 0
	}

	if !o.Fits(w, target) {
		o.Velocity = world.Vec2{}
		return
	}

	o.ClearFromWorld(w)
	o.Position = target
	for r := range o.Cells {
		for c := range o.Cells[r] {
			o.Cells[r][c].Particle.Velocity = o.Velocity
		}
	}
	o.Place(w)
}

// ExtractFragmentData converts a fragment's local coordinates into world
// cells.
func (o *Object) ExtractFragmentData(cells Fragment) []FragmentCell {
	out := make([]FragmentCell, 0, len(cells))
	for _, cc := range cells {
		if !o.solid(cc.Row, cc.Col) {
			continue
		}
		cell := &o.Cells[cc.Row][cc.Col]
		out = append(out, FragmentCell{
			Position: o.offset(cc.Row, cc.Col),
			Material: cell.Particle.Material,
		})
	}
	return out
}
