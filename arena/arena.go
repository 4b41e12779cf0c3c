// Package arena owns the episode layout: fish population, agent start pose,
// baby pose, and the reset protocol that establishes each new episode.
package arena

import (
	"log/slog"
	"math"
	"math/rand"
	"slices"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/penguin/components"
	"github.com/pthm-cable/penguin/config"
	"github.com/pthm-cable/penguin/params"
	"github.com/pthm-cable/penguin/systems"
)

// Arena owns the bodies of one penguin area. It is built once and reused
// across episodes; ResetEpisode re-randomizes everything.
type Arena struct {
	physics  *systems.PhysicsSystem
	params   params.Source
	rng      *rand.Rand
	swimmers *ecs.Map[components.Swimmer]

	center      r3.Vec
	spawnHeight float64
	fishCount   int
	babyHeading float64
	fishRadius  float64
	jitterMin   float64
	jitterMax   float64

	agentRegion Region
	babyRegion  Region
	fishRegion  Region

	agent ecs.Entity
	baby  ecs.Entity
	fish  []ecs.Entity

	fishSpeed float64
	episode   int
}

// New creates an arena over the given substrate and spawns the agent and baby bodies.
// The arena is empty of fish until the first ResetEpisode.
func New(physics *systems.PhysicsSystem, src params.Source, rng *rand.Rand, cfg *config.Config) *Arena {
	ac := cfg.Arena
	center := r3.Vec{X: ac.Center[0], Y: ac.Center[1], Z: ac.Center[2]}

	a := &Arena{
		physics:     physics,
		params:      src,
		rng:         rng,
		swimmers:    ecs.NewMap[components.Swimmer](physics.World()),
		center:      center,
		spawnHeight: ac.SpawnHeight,
		fishCount:   ac.FishCount,
		babyHeading: ac.BabyHeading,
		fishRadius:  cfg.Physics.FishRadius,
		jitterMin:   cfg.Fish.SpeedJitterMin,
		jitterMax:   cfg.Fish.SpeedJitterMax,
		agentRegion: RegionFromConfig(ac.AgentRegion),
		babyRegion:  RegionFromConfig(ac.BabyRegion),
		fishRegion:  RegionFromConfig(ac.FishRegion),
		fishSpeed:   params.DefaultFishSpeed,
	}

	a.agent = physics.Spawn(components.TagAgent, a.lift(center), 0, cfg.Physics.AgentRadius)
	a.baby = physics.Spawn(components.TagBaby, a.lift(center), a.babyHeading, cfg.Physics.BabyRadius)

	return a
}

// ResetEpisode clears the fish, places the agent and the baby, and spawns a
// fresh fish population. The arena is fully valid when it returns.
func (a *Arena) ResetEpisode() {
	a.removeAllFish()
	a.placeAgent()
	a.placeBaby()
	a.fishSpeed = a.params.Get(params.FishSpeed, params.DefaultFishSpeed)
	a.spawnFish(a.fishCount, a.fishSpeed)
	a.episode++

	slog.Debug("arena_reset",
		"episode", a.episode,
		"fish", len(a.fish),
		"fish_speed", a.fishSpeed,
	)
}

// RemoveFish removes an eaten fish. Handles no longer tracked are ignored.
// Returns true if the fish was tracked.
func (a *Arena) RemoveFish(e ecs.Entity) bool {
	i := slices.Index(a.fish, e)
	if i < 0 {
		return false
	}
	a.fish = slices.Delete(a.fish, i, i+1)
	a.physics.Destroy(e)
	return true
}

// FishRemaining returns the number of live fish.
func (a *Arena) FishRemaining() int {
	return len(a.fish)
}

// HasFish reports whether e is a tracked fish.
func (a *Arena) HasFish(e ecs.Entity) bool {
	return slices.Contains(a.fish, e)
}

// Fish returns a copy of the tracked fish handles.
func (a *Arena) Fish() []ecs.Entity {
	return slices.Clone(a.fish)
}

// NearestFish returns the tracked fish closest to pos on the arena floor.
func (a *Arena) NearestFish(pos r3.Vec) (ecs.Entity, r3.Vec, bool) {
	var best ecs.Entity
	var bestPos r3.Vec
	bestDist := math.Inf(1)
	for _, f := range a.fish {
		p := a.physics.Position(f)
		if d := systems.PlanarDistance(pos, p); d < bestDist {
			best, bestPos, bestDist = f, p, d
		}
	}
	return best, bestPos, !math.IsInf(bestDist, 1)
}

// AgentBody returns the agent's body handle.
func (a *Arena) AgentBody() ecs.Entity {
	return a.agent
}

// AgentPosition returns the agent's current position.
func (a *Arena) AgentPosition() r3.Vec {
	return a.physics.Position(a.agent)
}

// BabyBody returns the baby's body handle.
func (a *Arena) BabyBody() ecs.Entity {
	return a.baby
}

// BabyPosition returns the baby's position for this episode.
func (a *Arena) BabyPosition() r3.Vec {
	return a.physics.Position(a.baby)
}

// Center returns the arena's reference point.
func (a *Arena) Center() r3.Vec {
	return a.center
}

// FishSpeed returns the swim speed read at the last reset.
func (a *Arena) FishSpeed() float64 {
	return a.fishSpeed
}

// Episode returns the number of resets performed so far.
func (a *Arena) Episode() int {
	return a.episode
}

// Physics returns the arena's movement substrate.
func (a *Arena) Physics() *systems.PhysicsSystem {
	return a.physics
}

// Regions returns the agent, baby, and fish placement regions.
func (a *Arena) Regions() (agent, baby, fish Region) {
	return a.agentRegion, a.babyRegion, a.fishRegion
}

// removeAllFish destroys every tracked fish.
func (a *Arena) removeAllFish() {
	for _, f := range a.fish {
		a.physics.Destroy(f)
	}
	a.fish = a.fish[:0]
}

// placeAgent puts the agent at rest anywhere in its region with a random heading.
func (a *Arena) placeAgent() {
	a.physics.ResetVelocity(a.agent)
	pos := a.lift(a.agentRegion.Sample(a.rng, a.center))
	a.physics.Teleport(a.agent, pos, uniform(a.rng, 0, 360))
}

// placeBaby puts the baby in its wedge, facing the arena center.
func (a *Arena) placeBaby() {
	a.physics.ResetVelocity(a.baby)
	pos := a.lift(a.babyRegion.Sample(a.rng, a.center))
	a.physics.Teleport(a.baby, pos, a.babyHeading)
}

// spawnFish creates count fish in the fish region, each swimming at speed.
func (a *Arena) spawnFish(count int, speed float64) {
	for i := 0; i < count; i++ {
		pos := a.lift(a.fishRegion.Sample(a.rng, a.center))
		e := a.physics.Spawn(components.TagFish, pos, uniform(a.rng, 0, 360), a.fishRadius)
		a.swimmers.Add(e, &components.Swimmer{Speed: speed})
		a.fish = append(a.fish, e)
	}
}

// lift raises a floor position to the spawn height.
func (a *Arena) lift(p r3.Vec) r3.Vec {
	p.Y = a.center.Y + a.spawnHeight
	return p
}
