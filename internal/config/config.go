package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultWidth      = 40
	DefaultHeight     = 30
	DefaultGravity    = -1.0
	DefaultTicks      = 300
	DefaultSeed       = 1
	DefaultGroundMass = 1000.0
	DefaultDrop       = "stone"
)

// Config describes a scenario: grid, physics constants, terrain and the
// entities present at tick zero.
type Config struct {
	Name         string           `yaml:"name" json:"name"`
	Width        int              `yaml:"width" json:"width"`
	Height       int              `yaml:"height" json:"height"`
	Gravity      float64          `yaml:"gravity" json:"gravity"`
	Ticks        int              `yaml:"ticks" json:"ticks"`
	Seed         int64            `yaml:"seed" json:"seed"`
	DropMaterial string           `yaml:"drop_material" json:"drop_material"`
	Terrain      TerrainConfig    `yaml:"terrain" json:"terrain"`
	Emitters     []EmitterConfig  `yaml:"emitters,omitempty" json:"emitters,omitempty"`
	Particles    []ParticleConfig `yaml:"particles,omitempty" json:"particles,omitempty"`
	Objects      []ObjectConfig   `yaml:"objects,omitempty" json:"objects,omitempty"`
}

type TerrainConfig struct {
	Kind      string       `yaml:"kind" json:"kind"`
	Mass      float64      `yaml:"mass" json:"mass"`
	Obstacles []RectConfig `yaml:"obstacles,omitempty" json:"obstacles,omitempty"`
	Perlin    PerlinConfig `yaml:"perlin,omitempty" json:"perlin,omitempty"`
}

// PerlinConfig shapes the height-field terrain. Noise is sampled at x*Scale.
type PerlinConfig struct {
	Alpha     float64 `yaml:"alpha,omitempty" json:"alpha,omitempty"`
	Beta      float64 `yaml:"beta,omitempty" json:"beta,omitempty"`
	Octaves   int32   `yaml:"octaves,omitempty" json:"octaves,omitempty"`
	Scale     float64 `yaml:"scale,omitempty" json:"scale,omitempty"`
	MaxHeight int     `yaml:"max_height,omitempty" json:"max_height,omitempty"`
}

type RectConfig struct {
	X      int `yaml:"x" json:"x"`
	Y      int `yaml:"y" json:"y"`
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

type EmitterConfig struct {
	Material string `yaml:"material" json:"material"`
	X        int    `yaml:"x" json:"x"`
	Y        int    `yaml:"y" json:"y"`
	Jitter   int    `yaml:"jitter,omitempty" json:"jitter,omitempty"`
	Every    int    `yaml:"every,omitempty" json:"every,omitempty"`
	Limit    int    `yaml:"limit,omitempty" json:"limit,omitempty"`
}

// ParticleConfig fills a Width x Height block of cells anchored at (X, Y).
// Zero width or height means one cell.
type ParticleConfig struct {
	Material string `yaml:"material" json:"material"`
	X        int    `yaml:"x" json:"x"`
	Y        int    `yaml:"y" json:"y"`
	Width    int    `yaml:"width,omitempty" json:"width,omitempty"`
	Height   int    `yaml:"height,omitempty" json:"height,omitempty"`
}

type ObjectConfig struct {
	Shape    string   `yaml:"shape" json:"shape"`
	Material string   `yaml:"material,omitempty" json:"material,omitempty"`
	Pattern  []string `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	X        float64  `yaml:"x" json:"x"`
	Y        float64  `yaml:"y" json:"y"`
	Width    int      `yaml:"width,omitempty" json:"width,omitempty"`
	Height   int      `yaml:"height,omitempty" json:"height,omitempty"`
	VX       float64  `yaml:"vx,omitempty" json:"vx,omitempty"`
	VY       float64  `yaml:"vy,omitempty" json:"vy,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:         "default",
		Width:        DefaultWidth,
		Height:       DefaultHeight,
		Gravity:      DefaultGravity,
		Ticks:        DefaultTicks,
		Seed:         DefaultSeed,
		DropMaterial: DefaultDrop,
		Terrain: TerrainConfig{
			Kind: "flat",
			Mass: DefaultGroundMass,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy, so presets can be tweaked by callers.
func (c *Config) Clone() *Config {
	out := *c
	out.Terrain.Obstacles = append([]RectConfig(nil), c.Terrain.Obstacles...)
	out.Emitters = append([]EmitterConfig(nil), c.Emitters...)
	out.Particles = append([]ParticleConfig(nil), c.Particles...)
	if c.Objects != nil {
		out.Objects = make([]ObjectConfig, len(c.Objects))
		for i, o := range c.Objects {
			o.Pattern = append([]string(nil), o.Pattern...)
			out.Objects[i] = o
		}
	}
	return &out
}
