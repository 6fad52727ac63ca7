// Package physics implements the per-tick update rules of the simulation.
//
// Two kinds of entities live on a [world.World]:
//
//   - [Particle]: a single free cell of material that falls under gravity,
//     slides off piles, is pushed sideways by pressure, and (for liquids)
//     spreads along the surface it rests on.
//   - [Object]: a rigid cluster of cells moving as one body. On impact, or
//     under a sustained load from above, it evaluates every bond between
//     neighbouring cells and splits into fragments along the broken ones.
//
// Entities hold only their own kinematic state. All spatial truth lives in
// the world grid and is read and written through its accessors.
//
// # Randomness
//
// Tie-breaks in lateral movement draw from an injected [Rand]. Pass a
// seeded *rand.Rand for reproducible runs:
//
//	rng := rand.New(rand.NewSource(42))
//	p.ResolvePressure(w, rng)
package physics
