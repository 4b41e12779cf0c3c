package components

import "gonum.org/v1/gonum/spatial/r3"

// Swimmer drives a fish toward a wandering target.
type Swimmer struct {
	Speed     float64 // episode swim speed
	LegSpeed  float64 // speed for the current leg, Speed times a random jitter
	Target    r3.Vec
	HasTarget bool
}
