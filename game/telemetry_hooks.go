package game

import (
	"context"
	"log/slog"
	"time"

	"github.com/pthm-cable/penguin/agent"
	"github.com/pthm-cable/penguin/telemetry"
)

// RecordEpisode implements EpisodeRecorder: it writes the episode to every
// enabled sink and flushes the stats window when it fills.
func (g *Game) RecordEpisode(e *Env, s agent.Summary, wall time.Duration) {
	rec := telemetry.NewEpisodeRecord(g.runID, e.index, s, e.arena.FishSpeed(), wall.Milliseconds())
	total := g.episodes.Add(1)

	slog.Debug("episode_end", "record", rec, "total", total)

	if err := g.output.WriteEpisode(rec); err != nil {
		slog.Error("failed to write episode", "error", err)
	}
	if g.db != nil {
		if err := g.db.Insert(context.Background(), rec); err != nil {
			slog.Error("failed to store episode", "error", err)
		}
	}

	if stats, ok := g.collector.Record(rec); ok {
		g.flushWindow(stats, e)
	}
}

// flushWindow logs and writes a full stats window along with the timing of
// the arena that closed it.
func (g *Game) flushWindow(stats telemetry.WindowStats, e *Env) {
	perfStats := e.perf.Stats()

	stats.LogStats()
	perfStats.LogStats()

	if err := g.output.WriteWindow(stats); err != nil {
		slog.Error("failed to write stats window", "error", err)
	}
	if err := g.output.WritePerf(perfStats, e.totalSteps); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
}

// flushPartialWindow writes whatever the collector holds at shutdown.
func (g *Game) flushPartialWindow() {
	stats, ok := g.collector.Flush()
	if !ok {
		return
	}
	stats.LogStats()
	if err := g.output.WriteWindow(stats); err != nil {
		slog.Error("failed to write stats window", "error", err)
	}
}

// trajectoryDecider records every decision of an arena, plus a terminal
// record per episode, to the trajectory log.
type trajectoryDecider struct {
	inner agent.Decider
	w     *telemetry.TrajectoryWriter
	runID string
	arena int

	// reward already reported with a decision this episode
	reported float64
}

// Decide implements agent.Decider.
func (d *trajectoryDecider) Decide(ctx context.Context, req agent.Request) (agent.Action, error) {
	act, err := d.inner.Decide(ctx, req)
	if err != nil {
		return act, err
	}
	d.reported += req.Reward

	d.write(telemetry.TrajectoryRecord{
		RunID:       d.runID,
		Arena:       d.arena,
		Episode:     req.Episode,
		Step:        req.Step,
		Observation: req.Observation.Slice(),
		Action:      act.Vector(),
		Reward:      req.Reward,
	})
	return act, nil
}

// Reset implements agent.Resetter.
func (d *trajectoryDecider) Reset() {
	d.reported = 0
	if r, ok := d.inner.(agent.Resetter); ok {
		r.Reset()
	}
}

// finish writes the terminal record carrying the reward earned after the
// last decision.
func (d *trajectoryDecider) finish(s agent.Summary, final agent.Observation) {
	d.write(telemetry.TrajectoryRecord{
		RunID:       d.runID,
		Arena:       d.arena,
		Episode:     s.Episode,
		Step:        s.Steps,
		Observation: final.Slice(),
		Reward:      s.Reward - d.reported,
		Done:        true,
		Reason:      string(s.Reason),
	})
}

func (d *trajectoryDecider) write(rec telemetry.TrajectoryRecord) {
	if err := d.w.Write(rec); err != nil {
		slog.Error("failed to write trajectory", "arena", d.arena, "error", err)
	}
}
