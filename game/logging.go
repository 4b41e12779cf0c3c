package game

import "log/slog"

// logRunStart logs the run configuration once all arenas are built.
func (g *Game) logRunStart() {
	slog.Info("run_started",
		"run_id", g.runID,
		"seed", g.opts.Seed,
		"policy", string(g.opts.Policy),
		"arenas", len(g.envs),
		"workers", g.pool.numWorkers,
		"async_inference", g.opts.AsyncInference,
		"max_steps", g.cfg.Agent.MaxSteps,
		"decision_period", g.cfg.Agent.DecisionPeriod,
		"parameters", g.params.Snapshot(),
	)
}

// LogRunEnd logs the final counters.
func (g *Game) LogRunEnd() {
	slog.Info("run_finished",
		"run_id", g.runID,
		"ticks", g.tick,
		"episodes", g.Episodes(),
	)
}

func (g *Game) logCloseError(what string, err error) {
	slog.Error("failed to close "+what, "run_id", g.runID, "error", err)
}
