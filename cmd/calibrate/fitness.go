package main

import (
	"context"
	"errors"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/penguin/agent"
	"github.com/pthm-cable/penguin/config"
	"github.com/pthm-cable/penguin/game"
	"github.com/pthm-cable/penguin/params"
	"github.com/pthm-cable/penguin/policy"
)

// incompletePenalty weights the fraction of episodes that hit the step limit.
const incompletePenalty = 2.0

// stepsPerBatch is how far every arena advances between completion checks.
const stepsPerBatch = 500

// episodeLog collects the finished episodes of one arena.
// It is written only by the goroutine stepping that arena.
type episodeLog struct {
	summaries []agent.Summary
}

// RecordEpisode implements game.EpisodeRecorder.
func (l *episodeLog) RecordEpisode(_ *game.Env, s agent.Summary, _ time.Duration) {
	l.summaries = append(l.summaries, s)
}

// evalResult summarizes the scripted episodes of one evaluation.
type evalResult struct {
	MeanSteps float64
	StdSteps  float64
	Completed float64 // fraction of episodes that fed every fish
	Fitness   float64
}

// FitnessEvaluator runs headless scripted episodes and scores a parameter
// vector by how close its mean episode length is to a target.
type FitnessEvaluator struct {
	params      *ParamVector
	cfg         *config.Config
	seeds       []int64
	episodes    int // per seed
	targetSteps float64
	pool        *game.Pool
}

// NewFitnessEvaluator creates an evaluator. Every seed runs in its own arena.
func NewFitnessEvaluator(pv *ParamVector, cfg *config.Config, seeds []int64, episodes int, targetSteps float64, workers int) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      pv,
		cfg:         cfg,
		seeds:       seeds,
		episodes:    max(episodes, 1),
		targetSteps: targetSteps,
		pool:        game.NewPool(workers),
	}
}

// Close stops the evaluator's workers.
func (fe *FitnessEvaluator) Close() {
	fe.pool.Stop()
}

// Evaluate runs every seed with the given raw parameter values.
func (fe *FitnessEvaluator) Evaluate(ctx context.Context, raw []float64) (evalResult, error) {
	// Without a step ceiling an episode that never completes would never end
	if fe.cfg.Agent.MaxSteps <= 0 {
		return evalResult{}, errors.New("calibration needs a positive max_steps")
	}
	if len(fe.seeds) == 0 {
		return evalResult{}, errors.New("calibration needs at least one seed")
	}

	store := params.NewStore(fe.cfg.Parameters)
	store.Update(fe.params.Values(raw))
	scripted := func(e *game.Env) (agent.Decider, error) {
		return policy.NewScripted(e.Arena()), nil
	}

	logs := make([]*episodeLog, len(fe.seeds))
	envs := make([]*game.Env, 0, len(fe.seeds))
	defer func() {
		for _, e := range envs {
			e.Close()
		}
	}()
	for i, seed := range fe.seeds {
		logs[i] = &episodeLog{}
		e, err := game.NewEnv(fe.cfg, game.EnvConfig{
			Index:    i,
			Seed:     seed,
			Params:   store,
			Decider:  scripted,
			Recorder: logs[i],
		})
		if err != nil {
			return evalResult{}, err
		}
		envs = append(envs, e)
	}

	for !fe.finished(logs) {
		if err := fe.pool.Run(ctx, envs, stepsPerBatch); err != nil {
			return evalResult{}, err
		}
	}

	var steps []float64
	completed := 0
	for _, l := range logs {
		for _, s := range l.summaries[:fe.episodes] {
			steps = append(steps, float64(s.Steps))
			if s.Reason == agent.EndCompleted {
				completed++
			}
		}
	}

	res := evalResult{
		MeanSteps: stat.Mean(steps, nil),
		Completed: float64(completed) / float64(len(steps)),
	}
	if len(steps) > 1 {
		res.StdSteps = stat.StdDev(steps, nil)
	}
	res.Fitness = fitness(res.MeanSteps, res.Completed, fe.targetSteps)
	return res, nil
}

func (fe *FitnessEvaluator) finished(logs []*episodeLog) bool {
	for _, l := range logs {
		if len(l.summaries) < fe.episodes {
			return false
		}
	}
	return true
}

// fitness is the squared relative distance from the target length plus a
// penalty for episodes that never finished (lower = better).
func fitness(meanSteps, completed, target float64) float64 {
	rel := (meanSteps - target) / target
	return rel*rel + incompletePenalty*(1-completed)
}
