package config

import "sort"

var Presets = map[string]*Config{
	"sandbox": {
		Name: "sandbox", Width: 40, Height: 30, Gravity: -1, Ticks: 600, Seed: 1, DropMaterial: "metal",
		Terrain: TerrainConfig{
			Kind: "flat", Mass: DefaultGroundMass,
			Obstacles: []RectConfig{{X: 17, Y: 1, Width: 6, Height: 4}},
		},
		Emitters: []EmitterConfig{{Material: "sand", X: 20, Y: 28, Jitter: 1, Every: 2, Limit: 300}},
	},
	"fall": {
		Name: "fall", Width: 10, Height: 20, Gravity: -0.5, Ticks: 30, Seed: 1, DropMaterial: DefaultDrop,
		Terrain:   TerrainConfig{Kind: "none"},
		Particles: []ParticleConfig{{Material: "sand", X: 5, Y: 10}},
	},
	"stack": {
		Name: "stack", Width: 10, Height: 10, Gravity: -1, Ticks: 20, Seed: 1, DropMaterial: DefaultDrop,
		Terrain:   TerrainConfig{Kind: "none"},
		Particles: []ParticleConfig{{Material: "sand", X: 5, Y: 0, Width: 1, Height: 3}},
	},
	"stone-drop": {
		Name: "stone-drop", Width: 10, Height: 12, Gravity: -1, Ticks: 20, Seed: 1, DropMaterial: DefaultDrop,
		Terrain: TerrainConfig{Kind: "flat", Mass: DefaultGroundMass},
		Objects: []ObjectConfig{{Shape: "block", Material: "stone", X: 3, Y: 2, Width: 3, Height: 3}},
	},
	"seam": {
		Name: "seam", Width: 10, Height: 12, Gravity: -0.5, Ticks: 20, Seed: 1, DropMaterial: DefaultDrop,
		Terrain: TerrainConfig{Kind: "flat", Mass: DefaultGroundMass},
		Objects: []ObjectConfig{{Shape: "quadrant", Pattern: []string{"stone", "stone", "wood", "wood"}, X: 3, Y: 3}},
	},
	"quadrant": {
		Name: "quadrant", Width: 16, Height: 20, Gravity: -1, Ticks: 40, Seed: 1, DropMaterial: DefaultDrop,
		Terrain: TerrainConfig{Kind: "flat", Mass: DefaultGroundMass},
		Objects: []ObjectConfig{{Shape: "quadrant", X: 6, Y: 14}},
	},
	"waterfall": {
		Name: "waterfall", Width: 48, Height: 24, Gravity: -1, Ticks: 500, Seed: 7, DropMaterial: "glass",
		Terrain: TerrainConfig{
			Kind: "perlin", Mass: DefaultGroundMass,
			Perlin: PerlinConfig{Alpha: 2, Beta: 2, Octaves: 3, Scale: 0.08, MaxHeight: 8},
		},
		Emitters: []EmitterConfig{
			{Material: "water", X: 8, Y: 22, Jitter: 2, Every: 1, Limit: 250},
			{Material: "sand", X: 36, Y: 22, Jitter: 1, Every: 3, Limit: 120},
		},
	},
}

// GetPreset returns a private copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
