// Package world provides the shared spatial substrate of the simulation.
//
// A [World] is a fixed-size grid of cells, sized once by [New] and never
// resized. Each cell holds an optional occupant [Ref], a mass, and a
// pressure value derived once per tick by [World.RecomputePressure]. Particles and objects never store grid state
// themselves; they read and write it through the accessors here.
//
// # Coordinates
//
// Row 0 is the floor. Positions are real-valued and addressed by truncation,
// so (5.7, 2.2) refers to cell (5, 2). Writes outside the grid are dropped;
// reads outside the grid are programming errors and panic, as does asking
// [New] for a grid with a non-positive dimension.
//
// # Thread Safety
//
// World is NOT thread-safe. The simulation sequences every update on a
// single goroutine.
package world
