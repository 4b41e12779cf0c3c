package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics over a window of finished episodes.
type WindowStats struct {
	Window        int `csv:"window"`
	Episodes      int `csv:"episodes"`
	TotalEpisodes int `csv:"total_episodes"`

	// Outcomes
	Completed      int     `csv:"completed"`
	StepLimited    int     `csv:"step_limited"`
	CompletionRate float64 `csv:"completion_rate"`

	// Reward distribution
	RewardMean float64 `csv:"reward_mean"`
	RewardStd  float64 `csv:"reward_std"`
	RewardP10  float64 `csv:"reward_p10"`
	RewardP50  float64 `csv:"reward_p50"`
	RewardP90  float64 `csv:"reward_p90"`

	// Episode length
	StepsMean float64 `csv:"steps_mean"`
	StepsP50  float64 `csv:"steps_p50"`

	// Feeding
	FishEatenMean float64 `csv:"fish_eaten_mean"`
	BabiesFedMean float64 `csv:"babies_fed_mean"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Distribution calculates mean, population std, and percentiles.
func Distribution(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}

	mean, std = stat.PopMeanStdDev(values, nil)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, std, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window", s.Window),
		slog.Int("episodes", s.Episodes),
		slog.Int("total_episodes", s.TotalEpisodes),
		slog.Int("completed", s.Completed),
		slog.Int("step_limited", s.StepLimited),
		slog.Float64("completion_rate", s.CompletionRate),
		slog.Float64("reward_mean", s.RewardMean),
		slog.Float64("reward_std", s.RewardStd),
		slog.Float64("reward_p10", s.RewardP10),
		slog.Float64("reward_p50", s.RewardP50),
		slog.Float64("reward_p90", s.RewardP90),
		slog.Float64("steps_mean", s.StepsMean),
		slog.Float64("steps_p50", s.StepsP50),
		slog.Float64("fish_eaten_mean", s.FishEatenMean),
		slog.Float64("babies_fed_mean", s.BabiesFedMean),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats_window",
		"window", s.Window,
		"episodes", s.Episodes,
		"total_episodes", s.TotalEpisodes,
		"completion_rate", s.CompletionRate,
		"reward_mean", s.RewardMean,
		"reward_p50", s.RewardP50,
		"steps_mean", s.StepsMean,
		"fish_eaten_mean", s.FishEatenMean,
	)
}
