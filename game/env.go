package game

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/penguin/agent"
	"github.com/pthm-cable/penguin/arena"
	"github.com/pthm-cable/penguin/config"
	"github.com/pthm-cable/penguin/params"
	"github.com/pthm-cable/penguin/renderer"
	"github.com/pthm-cable/penguin/systems"
	"github.com/pthm-cable/penguin/telemetry"
)

// EpisodeRecorder receives every finished episode of every arena.
// It is called from the goroutine stepping the arena.
type EpisodeRecorder interface {
	RecordEpisode(e *Env, s agent.Summary, wall time.Duration)
}

// DeciderFactory builds the action source for an arena once its layout exists.
type DeciderFactory func(e *Env) (agent.Decider, error)

// EnvConfig describes one arena instance.
type EnvConfig struct {
	Index    int
	Seed     int64
	Params   params.Source
	Decider  DeciderFactory
	Effects  *renderer.EffectSystem // optional
	Recorder EpisodeRecorder        // optional
}

// Env is one independent arena: its own physics world, layout, agent, and
// step counter. An Env is stepped by one goroutine at a time.
type Env struct {
	index   int
	cfg     *config.Config
	physics *systems.PhysicsSystem
	arena   *arena.Arena
	agent   *agent.Agent
	perf    *telemetry.PerfCollector
	effects *renderer.EffectSystem

	recorder   EpisodeRecorder
	listeners  []agent.Listener
	closers    []io.Closer
	trajectory *trajectoryDecider

	maxSteps   int
	dt         float64
	totalSteps int64
	started    time.Time
}

// NewEnv builds an arena and its agent and begins the first episode.
func NewEnv(cfg *config.Config, ec EnvConfig) (*Env, error) {
	center := r3.Vec{X: cfg.Arena.Center[0], Y: cfg.Arena.Center[1], Z: cfg.Arena.Center[2]}
	physics := systems.NewPhysicsSystem(center, cfg.Physics.BoundaryRadius)
	rng := rand.New(rand.NewSource(ec.Seed))

	e := &Env{
		index:    ec.Index,
		cfg:      cfg,
		physics:  physics,
		arena:    arena.New(physics, ec.Params, rng, cfg),
		perf:     telemetry.NewPerfCollector(120),
		effects:  ec.Effects,
		recorder: ec.Recorder,
		maxSteps: cfg.Agent.MaxSteps,
		dt:       cfg.Physics.DT,
	}

	decider, err := ec.Decider(e)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("arena %d policy: %w", ec.Index, err)
	}

	opts := []agent.Option{agent.WithListener(e)}
	if ec.Effects != nil {
		opts = append(opts, agent.WithEffects(ec.Effects))
	}
	e.agent = agent.New(e.arena, physics, decider, ec.Params, agent.SettingsFromConfig(cfg), opts...)

	e.beginEpisode()
	return e, nil
}

// Step advances the arena by one fixed step: the agent acts, the fish swim,
// the bodies move, and the agent's contacts are routed to it. An episode
// that ends during the step is recorded and a new one begins before Step
// returns, so callers never see a half-reset arena.
func (e *Env) Step(ctx context.Context) error {
	e.perf.StartStep()
	defer e.perf.EndStep()

	e.perf.StartPhase(telemetry.PhaseAgent)
	if err := e.agent.Step(ctx); err != nil {
		return fmt.Errorf("arena %d: %w", e.index, err)
	}
	e.totalSteps++

	if !e.ended() {
		e.perf.StartPhase(telemetry.PhaseSwim)
		e.arena.Swim(e.dt)

		e.perf.StartPhase(telemetry.PhasePhysics)
		contacts := e.physics.Step(e.dt)

		e.perf.StartPhase(telemetry.PhaseContacts)
		e.routeContacts(contacts)
		e.enforceStepLimit()
	}

	if e.effects != nil {
		e.effects.Update(e.dt)
	}

	if e.ended() {
		e.perf.StartPhase(telemetry.PhaseReset)
		e.beginEpisode()
	}
	return nil
}

// routeContacts hands the agent every contact it is part of.
func (e *Env) routeContacts(contacts []systems.Contact) {
	self := e.agent.Body()
	for _, c := range contacts {
		other, tag, ok := c.Other(self)
		if !ok {
			continue
		}
		e.agent.OnCollision(tag, other)
	}
}

// enforceStepLimit ends the episode once maxSteps steps have run.
func (e *Env) enforceStepLimit() {
	if e.maxSteps > 0 && e.agent.StepCount() >= e.maxSteps {
		e.agent.EndEpisode(agent.EndStepLimit)
	}
}

func (e *Env) ended() bool {
	_, ended := e.agent.Ended()
	return ended
}

// Close releases the arena's policy resources.
func (e *Env) Close() error {
	var first error
	for _, c := range e.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	e.closers = nil
	return first
}

// Index returns the arena's position in its game.
func (e *Env) Index() int { return e.index }

// Agent returns the arena's agent.
func (e *Env) Agent() *agent.Agent { return e.agent }

// Arena returns the arena layout.
func (e *Env) Arena() *arena.Arena { return e.arena }

// TotalSteps returns the steps run across all episodes.
func (e *Env) TotalSteps() int64 { return e.totalSteps }

// Perf returns the arena's step timing collector.
func (e *Env) Perf() *telemetry.PerfCollector { return e.perf }
