// Package material holds the static catalog of material kinds.
//
// Every cell in the simulation carries exactly one [Material]. Its facets are
// fixed lookups; nothing in this package has state.
package material

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrUnknownMaterial = errors.New("material: unknown material")

type Material uint8

const (
	Air Material = iota
	Sand
	Water
	Stone
	Wood
	Metal
	Glass
)

// Properties are the derived facets of a material. Cell volume is 1, so
// Density is also the mass of a single cell.
type Properties struct {
	Name            string
	Density         float64
	BindingStrength float64
	IsSolid         bool
	Slides          bool // solid that may still fall diagonally (granular)
	ImpactDampening float64
	Color           string
}

var catalog = [...]Properties{
	Air:   {Name: "air", Color: "#000000"},
	Sand:  {Name: "sand", Density: 1.5, IsSolid: true, Slides: true, ImpactDampening: 0.3, Color: "#c2b280"},
	Water: {Name: "water", Density: 1.0, ImpactDampening: 0.1, Color: "#3a7bd5"},
	Stone: {Name: "stone", Density: 2.5, BindingStrength: 50, IsSolid: true, ImpactDampening: 0.8, Color: "#8a8a8a"},
	Wood:  {Name: "wood", Density: 0.6, BindingStrength: 20, IsSolid: true, ImpactDampening: 0.5, Color: "#8b5a2b"},
	Metal: {Name: "metal", Density: 7.8, BindingStrength: 200, IsSolid: true, ImpactDampening: 0.9, Color: "#b0c4de"},
	Glass: {Name: "glass", Density: 2.4, BindingStrength: 8, IsSolid: true, ImpactDampening: 1.0, Color: "#a8e6e6"},
}

func (m Material) Properties() Properties {
	if int(m) >= len(catalog) {
		return catalog[Air]
	}
	return catalog[m]
}

func (m Material) Density() float64         { return m.Properties().Density }
func (m Material) BindingStrength() float64 { return m.Properties().BindingStrength }
func (m Material) IsSolid() bool            { return m.Properties().IsSolid }
func (m Material) Slides() bool             { return m.Properties().Slides }
func (m Material) ImpactDampening() float64 { return m.Properties().ImpactDampening }
func (m Material) Color() string            { return m.Properties().Color }
func (m Material) IsAir() bool              { return m == Air }

// IsLiquid reports whether the material spreads sideways when blocked below.
func (m Material) IsLiquid() bool { return m != Air && !m.IsSolid() }

func (m Material) String() string { return m.Properties().Name }

// BondStrength is the force two adjacent cells withstand before their bond
// breaks. Any material transition is half as strong as the weaker side.
func BondStrength(a, b Material) float64 {
	if a == b {
		return a.BindingStrength()
	}
	return 0.5 * min(a.BindingStrength(), b.BindingStrength())
}

// All returns every material except Air, in catalog order.
func All() []Material {
	out := make([]Material, 0, len(catalog)-1)
	for i := 1; i < len(catalog); i++ {
		out = append(out, Material(i))
	}
	return out
}

// Names lists the catalog names sorted alphabetically.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for _, p := range catalog {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}

func Parse(name string) (Material, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for i, p := range catalog {
		if p.Name == key {
			return Material(i), nil
		}
	}
	return Air, fmt.Errorf("%w: %q", ErrUnknownMaterial, name)
}

func (m Material) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Material) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
