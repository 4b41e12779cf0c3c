package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Up is the vertical axis. Headings rotate around it.
var Up = r3.Vec{Y: 1}

// Forward is the facing direction at heading 0.
var Forward = r3.Vec{Z: 1}

// Deg2Rad converts degrees to radians.
const Deg2Rad = math.Pi / 180

// Rad2Deg converts radians to degrees.
const Rad2Deg = 180 / math.Pi

// YawRotation returns the rotation by degrees around the vertical axis.
// Positive angles turn +Z toward +X.
func YawRotation(degrees float64) r3.Rotation {
	return r3.NewRotation(degrees*Deg2Rad, Up)
}

// HeadingForward returns the unit facing vector for a heading in degrees.
func HeadingForward(degrees float64) r3.Vec {
	return YawRotation(degrees).Rotate(Forward)
}

// HeadingTo returns the heading in degrees that faces from one point toward another.
func HeadingTo(from, to r3.Vec) float64 {
	return NormalizeHeading(math.Atan2(to.X-from.X, to.Z-from.Z) * Rad2Deg)
}

// NormalizeHeading wraps a heading to [0, 360).
func NormalizeHeading(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return h
}

// NormalizeAngle wraps an angle in degrees to [-180, 180).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a+180, 360)
	if a < 0 {
		a += 360
	}
	return a - 180
}

// PlanarDistance returns the distance between two points on the X-Z plane.
func PlanarDistance(a, b r3.Vec) float64 {
	return math.Hypot(a.X-b.X, a.Z-b.Z)
}

// Direction returns the unit vector from one point to another, or the zero
// vector when the points coincide.
func Direction(from, to r3.Vec) r3.Vec {
	d := r3.Sub(to, from)
	n := r3.Norm(d)
	if n == 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/n, d)
}
