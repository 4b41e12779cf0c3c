package agent

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/penguin/systems"
)

// ObservationSize is the length of the observation vector sent to a policy.
const ObservationSize = 8

// Observation indices.
const (
	ObsIsFull = iota
	ObsBabyDistance
	ObsBabyDirX
	ObsBabyDirY
	ObsBabyDirZ
	ObsForwardX
	ObsForwardY
	ObsForwardZ
)

// Observation is the fixed-order vector
// [isFull, distanceToBaby, dirToBaby.xyz, forward.xyz].
type Observation [ObservationSize]float64

// NewObservation assembles an observation from the agent's state.
// Coincident agent and baby positions yield a zero direction.
func NewObservation(isFull bool, agentPos, forward, babyPos r3.Vec) Observation {
	var o Observation
	if isFull {
		o[ObsIsFull] = 1
	}
	o[ObsBabyDistance] = r3.Norm(r3.Sub(babyPos, agentPos))

	dir := systems.Direction(agentPos, babyPos)
	o[ObsBabyDirX] = dir.X
	o[ObsBabyDirY] = dir.Y
	o[ObsBabyDirZ] = dir.Z

	o[ObsForwardX] = forward.X
	o[ObsForwardY] = forward.Y
	o[ObsForwardZ] = forward.Z
	return o
}

// IsFull reports the hunger flag.
func (o Observation) IsFull() bool {
	return o[ObsIsFull] != 0
}

// BabyDistance returns the distance to the baby.
func (o Observation) BabyDistance() float64 {
	return o[ObsBabyDistance]
}

// BabyDirection returns the unit direction to the baby.
func (o Observation) BabyDirection() r3.Vec {
	return r3.Vec{X: o[ObsBabyDirX], Y: o[ObsBabyDirY], Z: o[ObsBabyDirZ]}
}

// Forward returns the agent's facing direction.
func (o Observation) Forward() r3.Vec {
	return r3.Vec{X: o[ObsForwardX], Y: o[ObsForwardY], Z: o[ObsForwardZ]}
}

// Slice returns the observation as a slice.
func (o Observation) Slice() []float64 {
	return o[:]
}

// Float32 returns the observation converted for network inference.
func (o Observation) Float32() []float32 {
	out := make([]float32, ObservationSize)
	for i, v := range o {
		out[i] = float32(v)
	}
	return out
}
