package scenario

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/aquilax/go-perlin"

	"github.com/san-kum/sandsim/internal/config"
	"github.com/san-kum/sandsim/internal/material"
	"github.com/san-kum/sandsim/internal/physics"
	"github.com/san-kum/sandsim/internal/sim"
	"github.com/san-kum/sandsim/internal/world"
)

var (
	ErrUnknownScenario = errors.New("scenario: unknown scenario")
	ErrUnknownTerrain  = errors.New("scenario: unknown terrain")
	ErrUnknownShape    = errors.New("scenario: unknown object shape")
)

// TerrainFunc lays static cells into a fresh simulation.
type TerrainFunc func(s *sim.Simulation, t config.TerrainConfig, seed int64) error

// ShapeFunc builds an unplaced object from its description.
type ShapeFunc func(o config.ObjectConfig) (*physics.Object, error)

type Registry struct {
	terrains map[string]TerrainFunc
	shapes   map[string]ShapeFunc
}

func NewRegistry() *Registry {
	r := &Registry{
		terrains: make(map[string]TerrainFunc),
		shapes:   make(map[string]ShapeFunc),
	}

	r.terrains["none"] = func(*sim.Simulation, config.TerrainConfig, int64) error { return nil }
	r.terrains["flat"] = flatTerrain
	r.terrains["perlin"] = perlinTerrain

	r.shapes["block"] = func(o config.ObjectConfig) (*physics.Object, error) {
		m, err := material.Parse(o.Material)
		if err != nil {
			return nil, err
		}
		return physics.NewObject(0, world.V(o.X, o.Y), world.V(o.VX, o.VY), m, o.Height, o.Width), nil
	}
	r.shapes["quadrant"] = func(o config.ObjectConfig) (*physics.Object, error) {
		pattern := physics.DefaultQuadrant
		if len(o.Pattern) > 0 {
			if len(o.Pattern) != len(pattern) {
				return nil, fmt.Errorf("quadrant pattern needs %d materials, got %d", len(pattern), len(o.Pattern))
			}
			for i, name := range o.Pattern {
				m, err := material.Parse(name)
				if err != nil {
					return nil, err
				}
				pattern[i] = m
			}
		}
		return physics.NewQuadrant(0, world.V(o.X, o.Y), world.V(o.VX, o.VY), pattern), nil
	}

	return r
}

func (r *Registry) GetTerrain(name string) (TerrainFunc, error) {
	fn, ok := r.terrains[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTerrain, name)
	}
	return fn, nil
}

func (r *Registry) GetShape(name string) (ShapeFunc, error) {
	fn, ok := r.shapes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownShape, name)
	}
	return fn, nil
}

func (r *Registry) ListTerrains() []string { return sortedKeys(r.terrains) }
func (r *Registry) ListShapes() []string   { return sortedKeys(r.shapes) }

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build creates the world described by cfg and populates it. Extra options
// are applied after the ones derived from cfg.
func (r *Registry) Build(cfg *config.Config, opts ...sim.Option) (*sim.Simulation, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: grid must be at least 1x1, got %dx%d", config.ErrInvalidConfig, cfg.Width, cfg.Height)
	}
	terrain, err := r.GetTerrain(cfg.Terrain.Kind)
	if err != nil {
		return nil, err
	}

	base := []sim.Option{sim.WithGravity(world.V(0, cfg.Gravity))}
	for i, e := range cfg.Emitters {
		m, err := material.Parse(e.Material)
		if err != nil {
			return nil, fmt.Errorf("emitter %d: %w", i, err)
		}
		base = append(base, sim.WithEmitter(sim.Emitter{
			X: e.X, Y: e.Y, Jitter: e.Jitter, Every: e.Every, Limit: e.Limit, Material: m,
		}))
	}

	s := sim.New(world.New(cfg.Height, cfg.Width), rand.New(rand.NewSource(cfg.Seed)), append(base, opts...)...)

	if err := terrain(s, cfg.Terrain, cfg.Seed); err != nil {
		return nil, fmt.Errorf("terrain %s: %w", cfg.Terrain.Kind, err)
	}
	for i, rect := range cfg.Terrain.Obstacles {
		if err := fillStatic(s, rect, terrainMass(cfg.Terrain)); err != nil {
			return nil, fmt.Errorf("obstacle %d: %w", i, err)
		}
	}

	for i, p := range cfg.Particles {
		m, err := material.Parse(p.Material)
		if err != nil {
			return nil, fmt.Errorf("particle block %d: %w", i, err)
		}
		for dy := 0; dy < max(p.Height, 1); dy++ {
			for dx := 0; dx < max(p.Width, 1); dx++ {
				pos := world.V(float64(p.X+dx), float64(p.Y+dy))
				if _, err := s.SpawnParticle(pos, m); err != nil {
					return nil, fmt.Errorf("particle block %d: %w", i, err)
				}
			}
		}
	}

	for i, o := range cfg.Objects {
		shape, err := r.GetShape(o.Shape)
		if err != nil {
			return nil, fmt.Errorf("object %d: %w", i, err)
		}
		obj, err := shape(o)
		if err != nil {
			return nil, fmt.Errorf("object %d: %w", i, err)
		}
		if _, err := s.SpawnObject(obj); err != nil {
			return nil, fmt.Errorf("object %d: %w", i, err)
		}
	}

	return s, nil
}

// Build uses a fresh default registry.
func Build(cfg *config.Config, opts ...sim.Option) (*sim.Simulation, error) {
	return NewRegistry().Build(cfg, opts...)
}

// Lookup returns a copy of the named preset.
func Lookup(name string) (*config.Config, error) {
	cfg := config.GetPreset(name)
	if cfg == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScenario, name)
	}
	return cfg, nil
}

func terrainMass(t config.TerrainConfig) float64 {
	if t.Mass > 0 {
		return t.Mass
	}
	return config.DefaultGroundMass
}

func flatTerrain(s *sim.Simulation, t config.TerrainConfig, _ int64) error {
	w := s.World()
	return fillStatic(s, config.RectConfig{Width: w.Width, Height: 1}, terrainMass(t))
}

// perlinTerrain raises a column of static cells at every x, at least one
// cell and at most MaxHeight cells tall.
func perlinTerrain(s *sim.Simulation, t config.TerrainConfig, seed int64) error {
	p := t.Perlin
	alpha, beta, octaves, scale := p.Alpha, p.Beta, p.Octaves, p.Scale
	if alpha == 0 {
		alpha = 2
	}
	if beta == 0 {
		beta = 2
	}
	if octaves == 0 {
		octaves = 3
	}
	if scale == 0 {
		scale = 0.1
	}
	top := max(p.MaxHeight, 1)

	noise := perlin.NewPerlin(alpha, beta, octaves, seed)
	mass := terrainMass(t)
	for x := 0; x < s.World().Width; x++ {
		h := ColumnHeight(noise.Noise1D(float64(x)*scale), top)
		if err := fillStatic(s, config.RectConfig{X: x, Width: 1, Height: h}, mass); err != nil {
			return err
		}
	}
	return nil
}

// ColumnHeight maps a noise sample in [-1, 1] onto a height in [1, top].
func ColumnHeight(sample float64, top int) int {
	h := 1 + int((sample+1)/2*float64(top))
	return min(max(h, 1), top)
}

func fillStatic(s *sim.Simulation, r config.RectConfig, mass float64) error {
	for y := r.Y; y < r.Y+r.Height; y++ {
		for x := r.X; x < r.X+r.Width; x++ {
			if err := s.AddStatic(x, y, mass); err != nil {
				return err
			}
		}
	}
	return nil
}
