package game

import "math"

// Vec2 is a 2D vector in board units. It is a value type; every operation
// returns a new vector.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func NewVec2(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

// FromPolar builds a vector of the given length pointing at angle degrees,
// measured from +x towards +y (screen coordinates, y grows downwards).
func FromPolar(length, degrees float64) Vec2 {
	rad := degrees * math.Pi / 180
	return Vec2{X: length * math.Cos(rad), Y: length * math.Sin(rad)}
}

func (v Vec2) Plus(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vec2) Minus(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vec2) Times(s float64) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

func (v Vec2) Dot(o Vec2) float64 {
	return v.X*o.X + v.Y*o.Y
}

func (v Vec2) Magnitude() float64 {
	return math.Hypot(v.X, v.Y)
}

func (v Vec2) MagnitudeSquared() float64 {
	return v.X*v.X + v.Y*v.Y
}

func (v Vec2) DistanceTo(o Vec2) float64 {
	return v.Minus(o).Magnitude()
}

func (v Vec2) Normalize() Vec2 {
	m := v.Magnitude()
	if m == 0 {
		return Vec2{}
	}
	return v.Times(1.0 / m)
}

// Rotate turns the vector by degrees, keeping its length.
func (v Vec2) Rotate(degrees float64) Vec2 {
	rad := degrees * math.Pi / 180
	sin, cos := math.Sincos(rad)
	return Vec2{
		X: v.X*cos - v.Y*sin,
		Y: v.X*sin + v.Y*cos,
	}
}

// ScaleTo returns a vector with the same heading and the given length.
func (v Vec2) ScaleTo(length float64) Vec2 {
	return v.Normalize().Times(length)
}

func (v Vec2) IsZero() bool {
	return v.X == 0 && v.Y == 0
}
