package components

import "gonum.org/v1/gonum/spatial/r3"

// Transform holds a body's pose. The arena lies on the X-Z plane with Y up.
type Transform struct {
	Position r3.Vec
	Heading  float64 // degrees around the vertical axis
}

// Velocity holds linear and angular velocity.
type Velocity struct {
	Linear  r3.Vec  // units per second
	Angular float64 // degrees per second
}
