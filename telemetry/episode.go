package telemetry

import (
	"log/slog"

	"github.com/pthm-cable/penguin/agent"
)

// EpisodeRecord is one finished episode as written to episodes.csv and the episode database.
type EpisodeRecord struct {
	RunID         string  `csv:"run_id" json:"run_id"`
	Arena         int     `csv:"arena" json:"arena"`
	Episode       int     `csv:"episode" json:"episode"`
	Steps         int     `csv:"steps" json:"steps"`
	Decisions     int     `csv:"decisions" json:"decisions"`
	Reward        float64 `csv:"reward" json:"reward"`
	FishEaten     int     `csv:"fish_eaten" json:"fish_eaten"`
	BabiesFed     int     `csv:"babies_fed" json:"babies_fed"`
	FishRemaining int     `csv:"fish_remaining" json:"fish_remaining"`
	FeedRadius    float64 `csv:"feed_radius" json:"feed_radius"`
	FishSpeed     float64 `csv:"fish_speed" json:"fish_speed"`
	Reason        string  `csv:"reason" json:"reason"`
	WallMS        int64   `csv:"wall_ms" json:"wall_ms"`
}

// NewEpisodeRecord builds a record from an agent's episode summary.
func NewEpisodeRecord(runID string, arena int, s agent.Summary, fishSpeed float64, wallMS int64) EpisodeRecord {
	return EpisodeRecord{
		RunID:         runID,
		Arena:         arena,
		Episode:       s.Episode,
		Steps:         s.Steps,
		Decisions:     s.Decisions,
		Reward:        s.Reward,
		FishEaten:     s.FishEaten,
		BabiesFed:     s.BabiesFed,
		FishRemaining: s.FishRemaining,
		FeedRadius:    s.FeedRadius,
		FishSpeed:     fishSpeed,
		Reason:        string(s.Reason),
		WallMS:        wallMS,
	}
}

// Completed reports whether every fish was delivered.
func (r EpisodeRecord) Completed() bool {
	return r.Reason == string(agent.EndCompleted)
}

// LogValue implements slog.LogValuer for structured logging.
func (r EpisodeRecord) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("arena", r.Arena),
		slog.Int("episode", r.Episode),
		slog.Int("steps", r.Steps),
		slog.Float64("reward", r.Reward),
		slog.Int("fish_eaten", r.FishEaten),
		slog.Int("babies_fed", r.BabiesFed),
		slog.String("reason", r.Reason),
	)
}
