// Package vec provides the 2-D vector primitives used by the layout
// simulation and the edge geometry resolver.
//
// Vec is a plain value type: every operation returns a new vector and
// never mutates its receiver, so values can be shared freely between
// the physics loop and geometry computations.
package vec

import "math"

// Vec is a point or displacement in the plane.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Zero is the origin.
var Zero = Vec{}

// Fallback is the direction returned by [Vec.Unit] for the zero vector.
var Fallback = Vec{X: 1, Y: 0}

// New returns the vector (x, y).
func New(x, y float64) Vec { return Vec{X: x, Y: y} }

// Add returns v + w.
func (v Vec) Add(w Vec) Vec { return Vec{v.X + w.X, v.Y + w.Y} }

// Sub returns v - w.
func (v Vec) Sub(w Vec) Vec { return Vec{v.X - w.X, v.Y - w.Y} }

// Scale returns v multiplied by s.
func (v Vec) Scale(s float64) Vec { return Vec{v.X * s, v.Y * s} }

// Neg returns -v.
func (v Vec) Neg() Vec { return Vec{-v.X, -v.Y} }

// Dot returns the dot product of v and w.
func (v Vec) Dot(w Vec) float64 { return v.X*w.X + v.Y*w.Y }

// Len2 returns the squared length of v.
func (v Vec) Len2() float64 { return v.X*v.X + v.Y*v.Y }

// Len returns the Euclidean length of v.
func (v Vec) Len() float64 { return math.Hypot(v.X, v.Y) }

// Dist returns the distance between v and w.
func (v Vec) Dist(w Vec) float64 { return v.Sub(w).Len() }

// Unit returns v normalized to length 1. The zero vector (and any vector
// whose length is not a positive finite number) yields [Fallback].
func (v Vec) Unit() Vec {
	l := v.Len()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return Fallback
	}
	return Vec{v.X / l, v.Y / l}
}

// Rotate returns v rotated counter-clockwise by theta radians.
func (v Vec) Rotate(theta float64) Vec {
	sin, cos := math.Sincos(theta)
	return Vec{
		X: v.X*cos - v.Y*sin,
		Y: v.X*sin + v.Y*cos,
	}
}

// IsZero reports whether v is the origin.
func (v Vec) IsZero() bool { return v.X == 0 && v.Y == 0 }

// Finite reports whether both components are finite numbers.
func (v Vec) Finite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}
