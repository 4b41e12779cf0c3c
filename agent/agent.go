// Package agent implements the penguin's per-step decision cycle, reward
// shaping, and feeding state machine.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/penguin/components"
	"github.com/pthm-cable/penguin/config"
	"github.com/pthm-cable/penguin/params"
)

// ErrEpisodeEnded is returned by Step after the episode has ended and before
// the next OnEpisodeBegin.
var ErrEpisodeEnded = errors.New("agent: episode has ended")

// Area is the part of the arena the agent depends on.
type Area interface {
	ResetEpisode()
	RemoveFish(e ecs.Entity) bool
	FishRemaining() int
	BabyPosition() r3.Vec
	AgentBody() ecs.Entity
}

// Mover is the movement substrate for the agent's body.
type Mover interface {
	Position(e ecs.Entity) r3.Vec
	Forward(e ecs.Entity) r3.Vec
	MovePosition(e ecs.Entity, pos r3.Vec)
	Rotate(e ecs.Entity, degrees float64)
}

// Request is what the agent sends to a policy at a decision step.
type Request struct {
	Episode     int
	Step        int
	Observation Observation
	Reward      float64 // reward accumulated since the previous decision
}

// Decider produces the next action from an observation.
type Decider interface {
	Decide(ctx context.Context, req Request) (Action, error)
}

// Resetter is implemented by deciders that keep per-episode state.
type Resetter interface {
	Reset()
}

// Listener receives the end of each episode.
type Listener interface {
	EpisodeEnded(s Summary)
}

// Settings are the agent's movement and cadence parameters.
type Settings struct {
	MoveSpeed      float64 // units per second at forward=1
	TurnSpeed      float64 // degrees per second
	MaxSteps       int     // 0 or negative = unbounded
	DecisionPeriod int     // steps between decisions
	DT             float64 // seconds per step
	EffectLifetime float64 // seconds
	HeartHeight    float64
}

// SettingsFromConfig extracts agent settings from the loaded config.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		MoveSpeed:      cfg.Agent.MoveSpeed,
		TurnSpeed:      cfg.Agent.TurnSpeed,
		MaxSteps:       cfg.Agent.MaxSteps,
		DecisionPeriod: cfg.Agent.DecisionPeriod,
		DT:             cfg.Physics.DT,
		EffectLifetime: cfg.Effects.Lifetime,
		HeartHeight:    cfg.Effects.HeartHeight,
	}
}

// Option configures an Agent.
type Option func(*Agent)

// WithEffects sets the sink for feeding effects.
func WithEffects(sink EffectSink) Option {
	return func(a *Agent) { a.effects = sink }
}

// WithListener sets the receiver of episode summaries.
func WithListener(l Listener) Option {
	return func(a *Agent) { a.listener = l }
}

// Agent is the penguin. It holds non-owning references to its area and
// movement substrate and is reused across episodes.
type Agent struct {
	area     Area
	body     Mover
	decider  Decider
	params   params.Source
	effects  EffectSink
	listener Listener
	settings Settings

	self ecs.Entity

	// Episode state
	episode             int
	isFull              bool
	feedRadius          float64
	stepCount           int
	decisions           int
	cumulativeReward    float64
	rewardSinceDecision float64
	lastAction          Action
	fishEaten           int
	babiesFed           int
	ended               bool
	endReason           EndReason
}

// New creates an agent. Call OnEpisodeBegin before the first Step.
func New(area Area, body Mover, decider Decider, src params.Source, settings Settings, opts ...Option) *Agent {
	if settings.DecisionPeriod <= 0 {
		settings.DecisionPeriod = 1
	}
	a := &Agent{
		area:     area,
		body:     body,
		decider:  decider,
		params:   src,
		effects:  discardEffects{},
		settings: settings,
		self:     area.AgentBody(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SetDecider replaces the action source. It takes effect at the next decision step.
func (a *Agent) SetDecider(d Decider) {
	a.decider = d
}

// OnEpisodeBegin resets the per-episode state and the arena, then reads the
// feed radius for the new episode.
func (a *Agent) OnEpisodeBegin() {
	a.isFull = false
	a.area.ResetEpisode()
	a.feedRadius = a.params.Get(params.FeedRadius, params.DefaultFeedRadius)

	a.episode++
	a.stepCount = 0
	a.decisions = 0
	a.cumulativeReward = 0
	a.rewardSinceDecision = 0
	a.lastAction = Action{}
	a.fishEaten = 0
	a.babiesFed = 0
	a.ended = false
	a.endReason = ""

	if r, ok := a.decider.(Resetter); ok {
		r.Reset()
	}
}

// Step runs one fixed step: a fresh decision every DecisionPeriod steps
// (the last action is re-applied in between), the action itself, and the
// feed-radius check.
func (a *Agent) Step(ctx context.Context) error {
	if a.ended {
		return ErrEpisodeEnded
	}

	if a.stepCount%a.settings.DecisionPeriod == 0 {
		act, err := a.requestDecision(ctx)
		if err != nil {
			return err
		}
		a.lastAction = act
	}

	a.OnAction(a.lastAction)
	a.stepCount++

	a.checkProximity()
	return nil
}

// requestDecision asks the policy for a new action.
func (a *Agent) requestDecision(ctx context.Context) (Action, error) {
	req := Request{
		Episode:     a.episode,
		Step:        a.stepCount,
		Observation: a.CollectObservation(),
		Reward:      a.rewardSinceDecision,
	}
	act, err := a.decider.Decide(ctx, req)
	if err != nil {
		return Action{}, fmt.Errorf("decision at step %d: %w", a.stepCount, err)
	}
	if err := act.Validate(); err != nil {
		return Action{}, fmt.Errorf("decision at step %d: %w", a.stepCount, err)
	}
	a.rewardSinceDecision = 0
	a.decisions++
	return act, nil
}

// OnAction moves and turns the agent and applies the step penalty.
func (a *Agent) OnAction(act Action) {
	dt := a.settings.DT

	if act.Forward != 0 {
		pos := a.body.Position(a.self)
		fwd := a.body.Forward(a.self)
		next := r3.Add(pos, r3.Scale(act.Forward*a.settings.MoveSpeed*dt, fwd))
		a.body.MovePosition(a.self, next)
	}

	if yaw := act.Turn.Yaw(); yaw != 0 {
		a.body.Rotate(a.self, yaw*a.settings.TurnSpeed*dt)
	}

	if a.settings.MaxSteps > 0 {
		a.AddReward(-1 / float64(a.settings.MaxSteps))
	}
}

// CollectObservation builds the observation for the current state.
func (a *Agent) CollectObservation() Observation {
	return NewObservation(
		a.isFull,
		a.body.Position(a.self),
		a.body.Forward(a.self),
		a.area.BabyPosition(),
	)
}

// OnCollision handles a contact-begin with another body.
// Contacts that arrive after the episode ended are ignored.
func (a *Agent) OnCollision(tag components.Tag, other ecs.Entity) {
	if a.ended {
		return
	}
	switch tag {
	case components.TagFish:
		a.eatFish(other)
	case components.TagBaby:
		a.regurgitateFish()
	}
}

// checkProximity feeds the baby when the agent is within the feed radius.
func (a *Agent) checkProximity() {
	if a.ended {
		return
	}
	d := r3.Norm(r3.Sub(a.body.Position(a.self), a.area.BabyPosition()))
	if d < a.feedRadius {
		a.regurgitateFish()
	}
}

// eatFish fills the stomach. Ignored when already full.
func (a *Agent) eatFish(fish ecs.Entity) bool {
	if a.isFull {
		return false
	}
	a.isFull = true
	a.area.RemoveFish(fish)
	a.AddReward(1)
	a.fishEaten++

	slog.Debug("fish_eaten",
		"episode", a.episode,
		"step", a.stepCount,
		"fish_remaining", a.area.FishRemaining(),
	)
	return true
}

// regurgitateFish feeds the baby. Ignored when the stomach is empty.
// Feeding the last fish ends the episode.
func (a *Agent) regurgitateFish() bool {
	if !a.isFull {
		return false
	}
	a.isFull = false

	babyPos := a.area.BabyPosition()
	a.effects.Emit(Effect{Kind: EffectRegurgitatedFish, Position: babyPos, Lifetime: a.settings.EffectLifetime})
	a.effects.Emit(Effect{
		Kind:     EffectHeart,
		Position: r3.Add(babyPos, r3.Vec{Y: a.settings.HeartHeight}),
		Lifetime: a.settings.EffectLifetime,
	})

	a.AddReward(1)
	a.babiesFed++

	slog.Debug("baby_fed",
		"episode", a.episode,
		"step", a.stepCount,
		"fish_remaining", a.area.FishRemaining(),
	)

	if a.area.FishRemaining() <= 0 {
		a.EndEpisode(EndCompleted)
	}
	return true
}

// AddReward adds to the episode's cumulative reward.
func (a *Agent) AddReward(r float64) {
	a.cumulativeReward += r
	a.rewardSinceDecision += r
}

// EndEpisode marks the episode finished and notifies the listener once.
func (a *Agent) EndEpisode(reason EndReason) {
	if a.ended {
		return
	}
	a.ended = true
	a.endReason = reason
	if a.listener != nil {
		a.listener.EpisodeEnded(a.Summary())
	}
}

// Summary returns the current episode's statistics.
func (a *Agent) Summary() Summary {
	return Summary{
		Episode:       a.episode,
		Steps:         a.stepCount,
		Decisions:     a.decisions,
		Reward:        a.cumulativeReward,
		FishEaten:     a.fishEaten,
		BabiesFed:     a.babiesFed,
		FishRemaining: a.area.FishRemaining(),
		FeedRadius:    a.feedRadius,
		Reason:        a.endReason,
	}
}

// IsFull reports whether the agent carries a fish.
func (a *Agent) IsFull() bool { return a.isFull }

// StepCount returns the steps taken in this episode.
func (a *Agent) StepCount() int { return a.stepCount }

// CumulativeReward returns the reward accumulated in this episode.
func (a *Agent) CumulativeReward() float64 { return a.cumulativeReward }

// FeedRadius returns the feed radius read at episode start.
func (a *Agent) FeedRadius() float64 { return a.feedRadius }

// LastAction returns the action applied on the most recent step.
func (a *Agent) LastAction() Action { return a.lastAction }

// Episode returns the 1-based index of the current episode.
func (a *Agent) Episode() int { return a.episode }

// Ended reports whether the current episode has ended, and why.
func (a *Agent) Ended() (EndReason, bool) { return a.endReason, a.ended }

// Body returns the agent's body handle.
func (a *Agent) Body() ecs.Entity { return a.self }
