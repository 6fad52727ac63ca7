package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

//go:embed schema.json
var schemaJSON string

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString("config.schema.json", schemaJSON)
	})
	return schema, schemaErr
}

// Schema returns the JSON schema scenario files are checked against.
func Schema() string { return schemaJSON }

// Validate checks cfg against the embedded schema, then the cross-field
// rules the schema cannot express.
func Validate(cfg *Config) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return checkBounds(cfg)
}

func checkBounds(cfg *Config) error {
	inside := func(x, y int) bool { return x < cfg.Width && y < cfg.Height }

	for i, r := range cfg.Terrain.Obstacles {
		if !inside(r.X+r.Width-1, r.Y+r.Height-1) {
			return fmt.Errorf("%w: obstacle %d exceeds the %dx%d grid", ErrInvalidConfig, i, cfg.Width, cfg.Height)
		}
	}
	if cfg.Terrain.Kind == "perlin" && cfg.Terrain.Perlin.MaxHeight >= cfg.Height {
		return fmt.Errorf("%w: perlin max_height %d leaves no room in a grid %d tall",
			ErrInvalidConfig, cfg.Terrain.Perlin.MaxHeight, cfg.Height)
	}
	for i, e := range cfg.Emitters {
		if !inside(e.X, e.Y) {
			return fmt.Errorf("%w: emitter %d at (%d,%d) outside the grid", ErrInvalidConfig, i, e.X, e.Y)
		}
	}
	for i, p := range cfg.Particles {
		w, h := max(p.Width, 1), max(p.Height, 1)
		if !inside(p.X+w-1, p.Y+h-1) {
			return fmt.Errorf("%w: particle block %d exceeds the grid", ErrInvalidConfig, i)
		}
	}
	for i, o := range cfg.Objects {
		w, h := o.Width, o.Height
		if o.Shape == "quadrant" {
			w, h = 4, 4
		}
		if !inside(int(o.X)+w-1, int(o.Y)+h-1) {
			return fmt.Errorf("%w: object %d exceeds the grid", ErrInvalidConfig, i)
		}
	}
	return nil
}
