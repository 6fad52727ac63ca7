package world

import "math"

type Vec2 struct {
	X, Y float64
}

func V(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{X: v.X + o.X, Y: v.Y + o.Y} }

func (v Vec2) IsZero() bool { return v.X == 0 && v.Y == 0 }

// Cell truncates the position to its integer cell address.
func (v Vec2) Cell() (x, y int) { return int(v.X), int(v.Y) }

func (v Vec2) Magnitude() float64 { return math.Hypot(v.X, v.Y) }
