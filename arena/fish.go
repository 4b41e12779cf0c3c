package arena

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/penguin/components"
	"github.com/pthm-cable/penguin/systems"
)

// Swim steers every fish toward its wander target for a step of dt seconds.
// It sets velocities only; the physics step moves the bodies.
// A fish that would reach its target this step is snapped onto it and
// picks a new target on the next call.
func (a *Arena) Swim(dt float64) {
	for _, f := range a.fish {
		sw := a.swimmers.Get(f)
		if sw.Speed <= 0 {
			a.physics.ResetVelocity(f)
			continue
		}

		pos := a.physics.Position(f)
		if !sw.HasTarget {
			a.chooseSwimTarget(f, sw, pos)
		}

		remaining := systems.PlanarDistance(pos, sw.Target)
		if remaining <= sw.LegSpeed*dt {
			a.physics.MovePosition(f, sw.Target)
			a.physics.ResetVelocity(f)
			sw.HasTarget = false
			continue
		}

		dir := systems.Direction(pos, sw.Target)
		a.physics.SetVelocity(f, components.Velocity{Linear: r3.Scale(sw.LegSpeed, dir)})
	}
}

// chooseSwimTarget picks a new point in the fish region and turns the fish toward it.
func (a *Arena) chooseSwimTarget(f ecs.Entity, sw *components.Swimmer, pos r3.Vec) {
	sw.Target = a.lift(a.fishRegion.Sample(a.rng, a.center))
	sw.LegSpeed = sw.Speed * uniform(a.rng, a.jitterMin, a.jitterMax)
	sw.HasTarget = true
	a.physics.SetHeading(f, systems.HeadingTo(pos, sw.Target))
}
