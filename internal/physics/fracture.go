package physics

import (
	"github.com/san-kum/sandsim/internal/material"
	"github.com/san-kum/sandsim/internal/world"
)

// Bond joins two orthogonally adjacent non-air cells. A is always the lower
// (row, col) of the pair.
type Bond struct {
	A, B CellCoord
}

func newBond(a, b CellCoord) Bond {
	if b.Row < a.Row || (b.Row == a.Row && b.Col < a.Col) {
		a, b = b, a
	}
	return Bond{A: a, B: b}
}

func (o *Object) bondStrength(a, b CellCoord) float64 {
	return material.BondStrength(
		o.Cells[a.Row][a.Col].Particle.Material,
		o.Cells[b.Row][b.Col].Particle.Material,
	)
}

// CheckFracture lists the bonds that break under an impact. The force felt by
// a cell falls off with its height above the impacted row as 1/(row+1).
func (o *Object) CheckFracture(force, dampeningFactor float64) []Bond {
	var broken []Bond
	o.eachSolid(func(r, c int, _ *ObjectCell) {
		felt := force * dampeningFactor / float64(r+1)
		here := CellCoord{Row: r, Col: c}
		for _, n := range [2]CellCoord{{Row: r, Col: c + 1}, {Row: r + 1, Col: c}} {
			if !o.solid(n.Row, n.Col) {
				continue
			}
			if felt > o.bondStrength(here, n) {
				broken = append(broken, newBond(here, n))
			}
		}
	})
	return broken
}

// CheckPressureFracture lists the bonds crushed by the weight resting on the
// object. Columns with nothing on top are skipped. Each column is walked top
// to bottom, adding every cell's own mass to the load before testing the
// bond below it and the bond to its right.
func (o *Object) CheckPressureFracture(w *world.World) []Bond {
	var broken []Bond
	ax, ay := o.Position.Cell()

	for c := 0; c < o.Width; c++ {
		top := -1
		for r := o.Height - 1; r >= 0; r-- {
			if !o.Cells[r][c].IsAir() {
				top = r
				break
			}
		}
		if top < 0 {
			continue
		}

		load := w.MassAbove(ax+c, ay+top)
		if load == 0 {
			continue
		}

		for r := top; r >= 0; r-- {
			cell := &o.Cells[r][c]
			load += cell.AuxMass
			cell.AuxPressure = load
			if cell.IsAir() {
				continue
			}
			here := CellCoord{Row: r, Col: c}
			below := CellCoord{Row: r - 1, Col: c}
			right := CellCoord{Row: r, Col: c + 1}
			if o.solid(below.Row, below.Col) && load > o.bondStrength(here, below) {
				broken = append(broken, newBond(below, here))
			}
			if o.solid(right.Row, right.Col) && load > o.bondStrength(here, right) {
				broken = append(broken, newBond(here, right))
			}
		}
	}
	return broken
}

// FindFragments splits the object's cell graph along the broken bonds and
// returns its connected components. Fragments are ordered by their first cell
// in row-major order, and cells within a fragment likewise.
func (o *Object) FindFragments(broken []Bond) []Fragment {
	cut := make(map[Bond]struct{}, len(broken))
	for _, b := range broken {
		cut[newBond(b.A, b.B)] = struct{}{}
	}

	uf := newUnionFind(o.Height * o.Width)
	id := func(cc CellCoord) int { return cc.Row*o.Width + cc.Col }

	o.eachSolid(func(r, c int, _ *ObjectCell) {
		here := CellCoord{Row: r, Col: c}
		for _, n := range [2]CellCoord{{Row: r, Col: c + 1}, {Row: r + 1, Col: c}} {
			if !o.solid(n.Row, n.Col) {
				continue
			}
			if _, ok := cut[newBond(here, n)]; ok {
				continue
			}
			uf.union(id(here), id(n))
		}
	})

	var fragments []Fragment
	slot := make(map[int]int)
	o.eachSolid(func(r, c int, _ *ObjectCell) {
		cc := CellCoord{Row: r, Col: c}
		root := uf.find(id(cc))
		i, ok := slot[root]
		if !ok {
			i = len(fragments)
			slot[root] = i
			fragments = append(fragments, nil)
		}
		fragments[i] = append(fragments[i], cc)
	})
	return fragments
}

// split returns the fragments produced by broken, or nil when the bonds that
// broke still leave the object in one piece.
func (o *Object) split(broken []Bond) []Fragment {
	if len(broken) == 0 {
		return nil
	}
	fragments := o.FindFragments(broken)
	if len(fragments) < 2 {
		return nil
	}
	return fragments
}

// SplitUnderLoad runs the pressure check and returns the resulting
// fragments, or nil if the object holds.
func (o *Object) SplitUnderLoad(w *world.World) []Fragment {
	return o.split(o.CheckPressureFracture(w))
}

type unionFind struct {
	parent []int
	rank   []uint8
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]uint8, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(i int) int {
	root := i
	for uf.parent[root] != root {
		root = uf.parent[root]
	}
	for uf.parent[i] != root {
		next := uf.parent[i]
		uf.parent[i] = root
		i = next
	}
	return root
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	switch {
	case uf.rank[ra] < uf.rank[rb]:
		uf.parent[ra] = rb
	case uf.rank[ra] > uf.rank[rb]:
		uf.parent[rb] = ra
	default:
		uf.parent[rb] = ra
		uf.rank[ra]++
	}
}
