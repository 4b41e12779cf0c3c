package agent

import (
	"log/slog"

	"gonum.org/v1/gonum/spatial/r3"
)

// EndReason says why an episode ended.
type EndReason string

const (
	EndCompleted EndReason = "completed"  // every fish was fed to the baby
	EndStepLimit EndReason = "step_limit" // the harness step ceiling was reached
)

// Summary holds the statistics of one episode.
type Summary struct {
	Episode       int
	Steps         int
	Decisions     int
	Reward        float64
	FishEaten     int
	BabiesFed     int
	FishRemaining int
	FeedRadius    float64
	Reason        EndReason
}

// LogValue implements slog.LogValuer for structured logging.
func (s Summary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("episode", s.Episode),
		slog.Int("steps", s.Steps),
		slog.Int("decisions", s.Decisions),
		slog.Float64("reward", s.Reward),
		slog.Int("fish_eaten", s.FishEaten),
		slog.Int("babies_fed", s.BabiesFed),
		slog.Int("fish_remaining", s.FishRemaining),
		slog.Float64("feed_radius", s.FeedRadius),
		slog.String("reason", string(s.Reason)),
	)
}

// EffectKind identifies a transient visual effect.
type EffectKind uint8

const (
	EffectRegurgitatedFish EffectKind = iota
	EffectHeart
)

// String returns the effect name.
func (k EffectKind) String() string {
	switch k {
	case EffectRegurgitatedFish:
		return "regurgitated_fish"
	case EffectHeart:
		return "heart"
	}
	return "unknown"
}

// Effect is a fire-and-forget request to show something for Lifetime seconds.
type Effect struct {
	Kind     EffectKind
	Position r3.Vec
	Lifetime float64
}

// EffectSink receives feeding effects. The sink owns their expiry.
type EffectSink interface {
	Emit(e Effect)
}

// EffectFunc adapts a function to EffectSink.
type EffectFunc func(Effect)

// Emit implements EffectSink.
func (f EffectFunc) Emit(e Effect) { f(e) }

type discardEffects struct{}

func (discardEffects) Emit(Effect) {}
