package scenario

import (
	"github.com/san-kum/sandsim/internal/material"
	"github.com/san-kum/sandsim/internal/physics"
	"github.com/san-kum/sandsim/internal/sim"
	"github.com/san-kum/sandsim/internal/world"
)

const dropSize = 3

// DropBlock spawns a 3x3 block of m one row below the top edge, centred on
// column x where the grid allows it.
func DropBlock(s *sim.Simulation, m material.Material, x int) (*physics.Object, error) {
	w := s.World()
	ax := min(max(x-dropSize/2, 0), w.Width-dropSize)
	ay := w.Height - dropSize - 1
	anchor := world.V(float64(ax), float64(ay))
	return s.SpawnObject(physics.NewObject(0, anchor, world.Vec2{}, m, dropSize, dropSize))
}
