package telemetry

import (
	"math"
	"sync"
	"testing"

	"github.com/pthm-cable/penguin/agent"
)

func record(reward float64, steps int, reason agent.EndReason) EpisodeRecord {
	fed := 0
	if reason == agent.EndCompleted {
		fed = 4
	}
	return EpisodeRecord{Reward: reward, Steps: steps, FishEaten: fed, BabiesFed: fed, Reason: string(reason)}
}

func TestCollectorWindow(t *testing.T) {
	c := NewCollector(3)

	if _, ok := c.Record(record(8, 100, agent.EndCompleted)); ok {
		t.Fatal("window flushed after 1 episode")
	}
	if _, ok := c.Record(record(-1, 5000, agent.EndStepLimit)); ok {
		t.Fatal("window flushed after 2 episodes")
	}
	stats, ok := c.Record(record(7, 200, agent.EndCompleted))
	if !ok {
		t.Fatal("window not flushed after 3 episodes")
	}

	if stats.Window != 1 || stats.Episodes != 3 || stats.TotalEpisodes != 3 {
		t.Errorf("counts = %+v", stats)
	}
	if stats.Completed != 2 || stats.StepLimited != 1 {
		t.Errorf("completed = %d, step_limited = %d", stats.Completed, stats.StepLimited)
	}
	if math.Abs(stats.CompletionRate-2.0/3) > 1e-9 {
		t.Errorf("completion rate = %v", stats.CompletionRate)
	}
	if math.Abs(stats.RewardMean-14.0/3) > 1e-9 {
		t.Errorf("reward mean = %v", stats.RewardMean)
	}
	if stats.StepsP50 != 200 {
		t.Errorf("steps p50 = %v, want 200", stats.StepsP50)
	}
	if math.Abs(stats.FishEatenMean-8.0/3) > 1e-9 {
		t.Errorf("fish eaten mean = %v", stats.FishEatenMean)
	}

	// Counters reset for the next window.
	stats, ok = c.Flush()
	if ok {
		t.Errorf("Flush on empty window returned %+v", stats)
	}
	c.Record(record(1, 10, agent.EndStepLimit))
	stats, ok = c.Flush()
	if !ok || stats.Window != 2 || stats.Episodes != 1 || stats.TotalEpisodes != 4 || stats.Completed != 0 {
		t.Errorf("partial flush = %+v, %v", stats, ok)
	}
}

func TestCollectorConcurrent(t *testing.T) {
	c := NewCollector(10)
	var wg sync.WaitGroup
	var mu sync.Mutex
	windows := 0

	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				if _, ok := c.Record(record(1, 10, agent.EndCompleted)); ok {
					mu.Lock()
					windows++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	if windows != 10 {
		t.Errorf("windows = %d, want 10", windows)
	}
	if c.TotalEpisodes() != 100 {
		t.Errorf("TotalEpisodes() = %d, want 100", c.TotalEpisodes())
	}
}
