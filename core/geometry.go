package core

import (
	"math"

	"github.com/signalsfoundry/cablegrid/model"
)

// Up is the world vertical axis. Cables sag along -Up.
var Up = Vec3{Y: 1}

// Vec3 is a world-space position or direction. Y is vertical.
type Vec3 struct {
	X, Y, Z float64
}

// VecFrom converts a model position into a Vec3.
func VecFrom(p model.Position) Vec3 {
	return Vec3{X: p.X, Y: p.Y, Z: p.Z}
}

// Position converts v back into its model representation.
func (v Vec3) Position() model.Position {
	return model.Position{X: v.X, Y: v.Y, Z: v.Z}
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// DistanceTo returns the straight-line distance between two points.
func (v Vec3) DistanceTo(other Vec3) float64 {
	return v.Sub(other).Norm()
}

// Normalize returns the unit vector along v. The zero vector is returned
// unchanged.
func (v Vec3) Normalize() Vec3 {
	n := v.Norm()
	if n == 0 {
		return v
	}
	return v.Scale(1 / n)
}

// Horizontal drops the vertical component.
func (v Vec3) Horizontal() Vec3 {
	return Vec3{X: v.X, Z: v.Z}
}

// Lerp interpolates linearly between v (t=0) and other (t=1).
func (v Vec3) Lerp(other Vec3, t float64) Vec3 {
	return v.Add(other.Sub(v).Scale(t))
}

// IsFinite reports whether every component is a finite number.
func (v Vec3) IsFinite() bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

// RotateToHeading rotates v about the vertical axis so that local +X maps
// onto the planar heading. A zero heading leaves v unchanged.
func (v Vec3) RotateToHeading(heading Vec3) Vec3 {
	h := heading.Horizontal().Normalize()
	if h == (Vec3{}) {
		return v
	}
	// Rotation in the XZ plane taking local +X onto h.
	return Vec3{
		X: v.X*h.X - v.Z*h.Z,
		Y: v.Y,
		Z: v.X*h.Z + v.Z*h.X,
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
