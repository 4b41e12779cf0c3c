package policy

import (
	"context"
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/penguin/agent"
	"github.com/pthm-cable/penguin/systems"
)

// Targets is what the scripted policy needs to know about the arena.
type Targets interface {
	AgentPosition() r3.Vec
	BabyPosition() r3.Vec
	NearestFish(pos r3.Vec) (ecs.Entity, r3.Vec, bool)
}

// Scripted steers toward the nearest fish while empty and toward the baby while full.
type Scripted struct {
	targets Targets

	// TurnTolerance is the heading error in degrees below which the agent stops turning.
	TurnTolerance float64
	// SlowAngle is the heading error above which the agent slows to SlowForward.
	SlowAngle   float64
	SlowForward float64
}

// NewScripted creates a scripted policy over an arena.
func NewScripted(targets Targets) *Scripted {
	return &Scripted{
		targets:       targets,
		TurnTolerance: 10,
		SlowAngle:     60,
		SlowForward:   0.2,
	}
}

// Decide implements agent.Decider.
func (s *Scripted) Decide(_ context.Context, req agent.Request) (agent.Action, error) {
	return s.plan(s.look(req)), nil
}

// Snapshot implements Snapshotter. The returned decider reads only the
// positions captured here, so it may run off the stepping goroutine.
func (s *Scripted) Snapshot(req agent.Request) agent.Decider {
	sc := s.look(req)
	return Func(func(context.Context, agent.Request) (agent.Action, error) {
		return s.plan(sc), nil
	})
}

// scene is the arena state one scripted decision depends on.
type scene struct {
	pos, forward, target r3.Vec
	ok                   bool
}

func (s *Scripted) look(req agent.Request) scene {
	sc := scene{pos: s.targets.AgentPosition(), forward: req.Observation.Forward(), ok: true}
	if req.Observation.IsFull() {
		sc.target = s.targets.BabyPosition()
	} else {
		_, sc.target, sc.ok = s.targets.NearestFish(sc.pos)
	}
	return sc
}

func (s *Scripted) plan(sc scene) agent.Action {
	if !sc.ok {
		return agent.Action{}
	}
	return s.steer(sc.pos, sc.forward, sc.target)
}

// steer turns toward target and moves forward, slower when facing away.
func (s *Scripted) steer(pos, forward, target r3.Vec) agent.Action {
	heading := systems.HeadingTo(r3.Vec{}, forward)
	errDeg := systems.NormalizeAngle(systems.HeadingTo(pos, target) - heading)

	act := agent.Action{Forward: 1}
	switch {
	case errDeg > s.TurnTolerance:
		act.Turn = agent.TurnRight
	case errDeg < -s.TurnTolerance:
		act.Turn = agent.TurnLeft
	}
	if math.Abs(errDeg) > s.SlowAngle {
		act.Forward = s.SlowForward
	}
	return act
}
