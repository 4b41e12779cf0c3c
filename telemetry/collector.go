package telemetry

import "sync"

// Collector accumulates finished episodes and produces WindowStats every
// windowSize episodes. It is shared by all arenas of a run.
type Collector struct {
	mu         sync.Mutex
	windowSize int

	window int
	total  int

	// Current window
	rewards   []float64
	steps     []float64
	fishEaten int
	babiesFed int
	completed int
	limited   int
}

// NewCollector creates a collector that flushes every windowSize episodes.
func NewCollector(windowSize int) *Collector {
	if windowSize < 1 {
		windowSize = 1
	}
	return &Collector{
		windowSize: windowSize,
		rewards:    make([]float64, 0, windowSize),
		steps:      make([]float64, 0, windowSize),
	}
}

// Record adds a finished episode. When it completes a window, the window's
// stats are returned with ok=true and the counters are reset.
func (c *Collector) Record(rec EpisodeRecord) (stats WindowStats, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.total++
	c.rewards = append(c.rewards, rec.Reward)
	c.steps = append(c.steps, float64(rec.Steps))
	c.fishEaten += rec.FishEaten
	c.babiesFed += rec.BabiesFed
	if rec.Completed() {
		c.completed++
	} else {
		c.limited++
	}

	if len(c.rewards) < c.windowSize {
		return WindowStats{}, false
	}
	return c.flushLocked(), true
}

// Flush produces stats for a partial window, if any episodes are pending.
func (c *Collector) Flush() (WindowStats, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.rewards) == 0 {
		return WindowStats{}, false
	}
	return c.flushLocked(), true
}

func (c *Collector) flushLocked() WindowStats {
	n := len(c.rewards)
	c.window++

	rewardMean, rewardStd, p10, p50, p90 := Distribution(c.rewards)
	stepsMean, _, _, stepsP50, _ := Distribution(c.steps)

	stats := WindowStats{
		Window:         c.window,
		Episodes:       n,
		TotalEpisodes:  c.total,
		Completed:      c.completed,
		StepLimited:    c.limited,
		CompletionRate: float64(c.completed) / float64(n),
		RewardMean:     rewardMean,
		RewardStd:      rewardStd,
		RewardP10:      p10,
		RewardP50:      p50,
		RewardP90:      p90,
		StepsMean:      stepsMean,
		StepsP50:       stepsP50,
		FishEatenMean:  float64(c.fishEaten) / float64(n),
		BabiesFedMean:  float64(c.babiesFed) / float64(n),
	}

	// Reset for next window
	c.rewards = c.rewards[:0]
	c.steps = c.steps[:0]
	c.fishEaten = 0
	c.babiesFed = 0
	c.completed = 0
	c.limited = 0

	return stats
}

// WindowSize returns the number of episodes per window.
func (c *Collector) WindowSize() int {
	return c.windowSize
}

// TotalEpisodes returns the number of episodes recorded so far.
func (c *Collector) TotalEpisodes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}
