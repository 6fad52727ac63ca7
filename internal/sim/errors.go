package sim

import (
	"errors"
	"fmt"

	"github.com/san-kum/sandsim/internal/world"
)

var (
	// ErrOutOfBounds indicates a spawn or terrain position outside the grid.
	ErrOutOfBounds = errors.New("sim: position outside the grid")

	// ErrCellOccupied indicates a spawn onto a cell another entity holds.
	ErrCellOccupied = errors.New("sim: cell already occupied")

	// ErrAirSpawn indicates an attempt to spawn a particle of air.
	ErrAirSpawn = errors.New("sim: cannot spawn air")

	// ErrInvalidConfig indicates a run configuration that cannot be executed.
	ErrInvalidConfig = errors.New("sim: invalid run configuration")
)

// SpawnError wraps a spawn failure with the entity kind and position.
type SpawnError struct {
	Kind     string
	Position world.Vec2
	Err      error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %s at (%.1f, %.1f): %v", e.Kind, e.Position.X, e.Position.Y, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}
