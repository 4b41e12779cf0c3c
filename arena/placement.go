package arena

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/penguin/config"
	"github.com/pthm-cable/penguin/systems"
)

// Region is a partial annulus around the arena center.
// Angles are in degrees, measured from +Z toward +X.
type Region struct {
	MinAngle, MaxAngle   float64
	MinRadius, MaxRadius float64
}

// RegionFromConfig converts a configured region.
func RegionFromConfig(c config.RegionConfig) Region {
	return Region{
		MinAngle:  c.MinAngle,
		MaxAngle:  c.MaxAngle,
		MinRadius: c.MinRadius,
		MaxRadius: c.MaxRadius,
	}
}

// Sample draws a position inside the region.
func (r Region) Sample(rng *rand.Rand, center r3.Vec) r3.Vec {
	return ChooseRandomPosition(rng, center, r.MinAngle, r.MaxAngle, r.MinRadius, r.MaxRadius)
}

// Contains reports whether pos lies inside the region on the X-Z plane,
// bounds inclusive, allowing eps of numeric slack.
func (r Region) Contains(center, pos r3.Vec, eps float64) bool {
	radius := systems.PlanarDistance(center, pos)
	if radius < r.MinRadius-eps || radius > r.MaxRadius+eps {
		return false
	}
	// The angle is undefined at the center itself.
	if radius <= eps {
		return true
	}
	angle := math.Atan2(pos.X-center.X, pos.Z-center.Z) * systems.Rad2Deg
	// Bring the angle into [MinAngle, MinAngle+360) before comparing.
	offset := systems.NormalizeHeading(angle - r.MinAngle)
	span := r.MaxAngle - r.MinAngle
	return offset <= span+eps || offset >= 360-eps
}

// ChooseRandomPosition picks a position on the X-Z plane within the wedge
// [minAngle, maxAngle] and radius band [minRadius, maxRadius] around center.
// A degenerate range (max <= min) uses the minimum exactly.
func ChooseRandomPosition(rng *rand.Rand, center r3.Vec, minAngle, maxAngle, minRadius, maxRadius float64) r3.Vec {
	radius := minRadius
	angle := minAngle

	if maxRadius > minRadius {
		radius = uniform(rng, minRadius, maxRadius)
	}
	if maxAngle > minAngle {
		angle = uniform(rng, minAngle, maxAngle)
	}

	offset := systems.YawRotation(angle).Rotate(systems.Forward)
	return r3.Add(center, r3.Scale(radius, offset))
}

// uniform draws from [lo, hi].
func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
