package sweep

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/sandsim/internal/config"
)

var (
	ErrUnknownParam = errors.New("sweep: unknown parameter")
	ErrBadRange     = errors.New("sweep: malformed parameter range")
)

// Param is one axis of the grid.
type Param struct {
	Name   string
	Values []float64
}

type setter func(cfg *config.Config, v float64)

var setters = map[string]setter{
	"gravity":      func(c *config.Config, v float64) { c.Gravity = v },
	"width":        func(c *config.Config, v float64) { c.Width = int(v) },
	"height":       func(c *config.Config, v float64) { c.Height = int(v) },
	"ticks":        func(c *config.Config, v float64) { c.Ticks = int(v) },
	"seed":         func(c *config.Config, v float64) { c.Seed = int64(v) },
	"terrain_mass": func(c *config.Config, v float64) { c.Terrain.Mass = v },
	"perlin_scale": func(c *config.Config, v float64) { c.Terrain.Perlin.Scale = v },
	"perlin_max_height": func(c *config.Config, v float64) {
		c.Terrain.Perlin.MaxHeight = int(v)
	},
	"emitter_every": func(c *config.Config, v float64) {
		for i := range c.Emitters {
			c.Emitters[i].Every = int(v)
		}
	},
	"object_vy": func(c *config.Config, v float64) {
		for i := range c.Objects {
			c.Objects[i].VY = v
		}
	},
	"object_y": func(c *config.Config, v float64) {
		for i := range c.Objects {
			c.Objects[i].Y = v
		}
	},
}

// Names lists the parameters a sweep can vary.
func Names() []string {
	names := make([]string, 0, len(setters))
	for n := range setters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Apply sets the named parameter on cfg.
func Apply(cfg *config.Config, name string, v float64) error {
	set, ok := setters[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownParam, name)
	}
	set(cfg, v)
	return nil
}

// Range returns steps evenly spaced values from lo to hi inclusive.
func Range(lo, hi float64, steps int) []float64 {
	if steps <= 1 {
		return []float64{lo}
	}
	step := (hi - lo) / float64(steps-1)
	out := make([]float64, steps)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[steps-1] = hi
	return out
}

// ParseParam reads "name=lo:hi:steps" or "name=v1,v2,...".
func ParseParam(s string) (Param, error) {
	name, raw, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" || raw == "" {
		return Param{}, fmt.Errorf("%w: %q", ErrBadRange, s)
	}
	if _, known := setters[name]; !known {
		return Param{}, fmt.Errorf("%w: %s", ErrUnknownParam, name)
	}

	if parts := strings.Split(raw, ":"); len(parts) == 3 {
		lo, err1 := strconv.ParseFloat(parts[0], 64)
		hi, err2 := strconv.ParseFloat(parts[1], 64)
		steps, err3 := strconv.Atoi(parts[2])
		if err := errors.Join(err1, err2, err3); err != nil || steps < 1 {
			return Param{}, fmt.Errorf("%w: %q", ErrBadRange, s)
		}
		return Param{Name: name, Values: Range(lo, hi, steps)}, nil
	}

	var values []float64
	for _, f := range strings.Split(raw, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return Param{}, fmt.Errorf("%w: %q", ErrBadRange, s)
		}
		values = append(values, v)
	}
	return Param{Name: name, Values: values}, nil
}
