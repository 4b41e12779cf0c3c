package game

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/penguin/agent"
	"github.com/pthm-cable/penguin/config"
	"github.com/pthm-cable/penguin/params"
	"github.com/pthm-cable/penguin/policy"
	"github.com/pthm-cable/penguin/storage"
	"github.com/pthm-cable/penguin/telemetry"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	return cfg
}

// summaryRecorder collects the summaries passed to RecordEpisode.
type summaryRecorder struct {
	mu        sync.Mutex
	summaries []agent.Summary
}

func (r *summaryRecorder) RecordEpisode(_ *Env, s agent.Summary, _ time.Duration) {
	r.mu.Lock()
	r.summaries = append(r.summaries, s)
	r.mu.Unlock()
}

func (r *summaryRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.summaries)
}

func standStill(*Env) (agent.Decider, error) {
	return policy.Func(func(context.Context, agent.Request) (agent.Action, error) {
		return agent.Action{}, nil
	}), nil
}

func TestEnvStepLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Agent.MaxSteps = 50
	cfg.Arena.FishCount = 0

	rec := &summaryRecorder{}
	e, err := NewEnv(cfg, EnvConfig{
		Seed:     1,
		Params:   params.NewStore(nil),
		Decider:  standStill,
		Recorder: rec,
	})
	if err != nil {
		t.Fatalf("NewEnv: %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 49; i++ {
		if err := e.Step(ctx); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if rec.count() != 0 {
		t.Fatalf("episode ended early after 49 steps")
	}

	if err := e.Step(ctx); err != nil {
		t.Fatalf("step 50: %v", err)
	}
	if rec.count() != 1 {
		t.Fatalf("got %d summaries, want 1", rec.count())
	}

	s := rec.summaries[0]
	if s.Reason != agent.EndStepLimit {
		t.Errorf("got reason %q, want %q", s.Reason, agent.EndStepLimit)
	}
	if s.Steps != 50 {
		t.Errorf("got %d steps, want 50", s.Steps)
	}
	if math.Abs(s.Reward-(-1)) > 1e-9 {
		t.Errorf("got reward %v, want -1", s.Reward)
	}

	// The next episode has already begun
	if got := e.Agent().Episode(); got != 2 {
		t.Errorf("got episode %d, want 2", got)
	}
	if got := e.Agent().StepCount(); got != 0 {
		t.Errorf("got step count %d, want 0", got)
	}
	if got := e.TotalSteps(); got != 50 {
		t.Errorf("got total steps %d, want 50", got)
	}
}

func TestEnvUnboundedNeverHitsStepLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Agent.MaxSteps = 0
	cfg.Arena.FishCount = 0

	rec := &summaryRecorder{}
	e, err := NewEnv(cfg, EnvConfig{Params: params.NewStore(nil), Decider: standStill, Recorder: rec})
	if err != nil {
		t.Fatalf("NewEnv: %v", err)
	}
	for i := 0; i < 500; i++ {
		if err := e.Step(context.Background()); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if rec.count() != 0 {
		t.Errorf("got %d summaries, want 0", rec.count())
	}
	if got := e.Agent().CumulativeReward(); got != 0 {
		t.Errorf("got reward %v, want 0 without a step penalty", got)
	}
}

func TestEnvScriptedEpisodeCompletes(t *testing.T) {
	cfg := testConfig(t)
	store := params.NewStore(map[string]float64{
		params.FishSpeed:  0,
		params.FeedRadius: 1.5,
	})

	rec := &summaryRecorder{}
	e, err := NewEnv(cfg, EnvConfig{
		Seed:   42,
		Params: store,
		Decider: func(e *Env) (agent.Decider, error) {
			return policy.NewScripted(e.Arena()), nil
		},
		Recorder: rec,
	})
	if err != nil {
		t.Fatalf("NewEnv: %v", err)
	}

	ctx := context.Background()
	for i := 0; i < cfg.Agent.MaxSteps && rec.count() == 0; i++ {
		if err := e.Step(ctx); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if rec.count() != 1 {
		t.Fatalf("got %d summaries, want 1", rec.count())
	}

	s := rec.summaries[0]
	if s.Reason != agent.EndCompleted {
		t.Fatalf("got reason %q, want %q", s.Reason, agent.EndCompleted)
	}
	if s.FishEaten != 4 || s.BabiesFed != 4 || s.FishRemaining != 0 {
		t.Errorf("got eaten=%d fed=%d remaining=%d, want 4/4/0", s.FishEaten, s.BabiesFed, s.FishRemaining)
	}
	// 8 transitions minus the step penalty
	want := 8 - float64(s.Steps)/float64(cfg.Agent.MaxSteps)
	if math.Abs(s.Reward-want) > 1e-9 {
		t.Errorf("got reward %v, want %v", s.Reward, want)
	}
	if s.FeedRadius != 1.5 {
		t.Errorf("got feed radius %v, want 1.5", s.FeedRadius)
	}

	// Reset restored a full population
	if got := e.Arena().FishRemaining(); got != cfg.Arena.FishCount {
		t.Errorf("got %d fish after reset, want %d", got, cfg.Arena.FishCount)
	}
}

// Run with -race: the scripted policy reads fish and agent transforms that
// the physics step writes, so async inference must not touch them.
func TestEnvAsyncScriptedStepsConcurrently(t *testing.T) {
	cfg := testConfig(t)
	rec := &summaryRecorder{}
	e, err := NewEnv(cfg, EnvConfig{
		Seed:   7,
		Params: params.NewStore(nil),
		Decider: func(e *Env) (agent.Decider, error) {
			return policy.NewAsync(policy.NewScripted(e.Arena())), nil
		},
		Recorder: rec,
	})
	if err != nil {
		t.Fatalf("NewEnv: %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 3000; i++ {
		if err := e.Step(ctx); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if got := e.Agent().CumulativeReward(); math.IsNaN(got) || math.IsInf(got, 0) {
		t.Errorf("got reward %v, want finite", got)
	}
}

var errPolicy = errors.New("policy failed")

func TestPoolRun(t *testing.T) {
	cfg := testConfig(t)
	cfg.Arena.FishCount = 0

	tests := []struct {
		name    string
		workers int
		arenas  int
	}{
		{"single arena", 4, 1},
		{"single worker", 1, 5},
		{"more arenas than workers", 3, 7},
		{"more workers than arenas", 8, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envs := make([]*Env, tt.arenas)
			for i := range envs {
				e, err := NewEnv(cfg, EnvConfig{Index: i, Seed: int64(i), Params: params.NewStore(nil), Decider: standStill})
				if err != nil {
					t.Fatalf("NewEnv: %v", err)
				}
				envs[i] = e
			}

			p := NewPool(tt.workers)
			defer p.Stop()

			for round := 0; round < 3; round++ {
				if err := p.Run(context.Background(), envs, 10); err != nil {
					t.Fatalf("Run: %v", err)
				}
			}
			for i, e := range envs {
				if got := e.TotalSteps(); got != 30 {
					t.Errorf("arena %d: got %d steps, want 30", i, got)
				}
			}
		})
	}
}

func TestPoolRunError(t *testing.T) {
	cfg := testConfig(t)
	cfg.Arena.FishCount = 0

	failing := func(*Env) (agent.Decider, error) {
		return policy.Func(func(context.Context, agent.Request) (agent.Action, error) {
			return agent.Action{}, errPolicy
		}), nil
	}

	envs := make([]*Env, 4)
	for i := range envs {
		factory := standStill
		if i == 2 {
			factory = failing
		}
		e, err := NewEnv(cfg, EnvConfig{Index: i, Params: params.NewStore(nil), Decider: factory})
		if err != nil {
			t.Fatalf("NewEnv: %v", err)
		}
		envs[i] = e
	}

	p := NewPool(2)
	defer p.Stop()

	err := p.Run(context.Background(), envs, 10)
	if !errors.Is(err, errPolicy) {
		t.Fatalf("got %v, want %v", err, errPolicy)
	}
	if got := envs[3].TotalSteps(); got != 10 {
		t.Errorf("healthy arena: got %d steps, want 10", got)
	}
	if got := envs[2].TotalSteps(); got != 0 {
		t.Errorf("failing arena: got %d steps, want 0", got)
	}
}

func TestPoolRunCanceled(t *testing.T) {
	cfg := testConfig(t)
	e, err := NewEnv(cfg, EnvConfig{Params: params.NewStore(nil), Decider: standStill})
	if err != nil {
		t.Fatalf("NewEnv: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPool(1)
	if err := p.Run(ctx, []*Env{e}, 10); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want %v", err, context.Canceled)
	}
	if got := e.TotalSteps(); got != 0 {
		t.Errorf("got %d steps, want 0", got)
	}
}

func TestNewGameRejects(t *testing.T) {
	cfg := testConfig(t)
	tests := []struct {
		name string
		opts Options
	}{
		{"manual without window", Options{Policy: policy.KindManual, Headless: true}},
		{"remote without url", Options{Policy: policy.KindRemote, Headless: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewGame(context.Background(), cfg, tt.opts); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestGameHeadlessRun(t *testing.T) {
	cfg := testConfig(t)
	cfg.Agent.MaxSteps = 20
	cfg.Telemetry.StatsWindow = 4

	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	trajPath := filepath.Join(dir, "traj.jsonl.zst")
	dbPath := filepath.Join(dir, "episodes.db")

	g, err := NewGame(context.Background(), cfg, Options{
		Seed:           7,
		RunID:          "run-test",
		Arenas:         4,
		Workers:        2,
		Policy:         policy.KindRandom,
		OutputDir:      outDir,
		Trajectory:     trajPath,
		DB:             dbPath,
		StepsPerUpdate: 10,
		MaxEpisodes:    8,
		Headless:       true,
	})
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}

	for i := 0; !g.Done(); i++ {
		if i >= 4 {
			t.Fatalf("not done after %d updates: %d episodes", i, g.Episodes())
		}
		if err := g.UpdateHeadless(context.Background()); err != nil {
			t.Fatalf("UpdateHeadless: %v", err)
		}
	}
	if got := g.Episodes(); got != 8 {
		t.Errorf("got %d episodes, want 8", got)
	}
	if got := g.Tick(); got != 40 {
		t.Errorf("got tick %d, want 40", got)
	}
	g.Unload()

	t.Run("episodes csv", func(t *testing.T) {
		data, err := os.ReadFile(filepath.Join(outDir, "episodes.csv"))
		if err != nil {
			t.Fatal(err)
		}
		var recs []telemetry.EpisodeRecord
		if err := gocsv.UnmarshalBytes(data, &recs); err != nil {
			t.Fatal(err)
		}
		if len(recs) != 8 {
			t.Fatalf("got %d rows, want 8", len(recs))
		}
		for _, r := range recs {
			if r.RunID != "run-test" || r.Steps != 20 || r.Reason != string(agent.EndStepLimit) {
				t.Errorf("unexpected record %+v", r)
			}
		}
	})

	t.Run("windows csv", func(t *testing.T) {
		data, err := os.ReadFile(filepath.Join(outDir, "windows.csv"))
		if err != nil {
			t.Fatal(err)
		}
		var windows []telemetry.WindowStats
		if err := gocsv.UnmarshalBytes(data, &windows); err != nil {
			t.Fatal(err)
		}
		if len(windows) != 2 {
			t.Errorf("got %d windows, want 2", len(windows))
		}
	})

	t.Run("database", func(t *testing.T) {
		db, err := storage.Open(dbPath)
		if err != nil {
			t.Fatal(err)
		}
		defer db.Close()
		sum, err := db.Summary(context.Background(), "run-test")
		if err != nil {
			t.Fatal(err)
		}
		if sum.Episodes != 8 {
			t.Errorf("got %d stored episodes, want 8", sum.Episodes)
		}
	})

	t.Run("trajectory", func(t *testing.T) {
		var decisions, done int
		err := telemetry.ReadTrajectory(trajPath, func(r telemetry.TrajectoryRecord) error {
			if r.Done {
				done++
				if r.Step != 20 {
					t.Errorf("terminal record at step %d, want 20", r.Step)
				}
			} else {
				decisions++
			}
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
		// Decisions at steps 0, 5, 10, 15 of each episode
		if decisions != 32 || done != 8 {
			t.Errorf("got %d decisions and %d terminal records, want 32 and 8", decisions, done)
		}
	})
}

func TestTrajectoryRewardAccounting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traj.jsonl.zst")
	w, err := telemetry.NewTrajectoryWriter(path)
	if err != nil {
		t.Fatal(err)
	}

	inner := policy.Func(func(context.Context, agent.Request) (agent.Action, error) {
		return agent.Action{Forward: 1}, nil
	})
	d := &trajectoryDecider{inner: inner, w: w, runID: "r", arena: 3}

	ctx := context.Background()
	for _, reward := range []float64{0, 0.5, 1} {
		if _, err := d.Decide(ctx, agent.Request{Episode: 1, Reward: reward}); err != nil {
			t.Fatal(err)
		}
	}
	d.finish(agent.Summary{Episode: 1, Steps: 12, Reward: 2.25, Reason: agent.EndCompleted}, agent.Observation{})
	d.Reset()
	if d.reported != 0 {
		t.Errorf("Reset kept reported reward %v", d.reported)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	var last telemetry.TrajectoryRecord
	var n int
	err = telemetry.ReadTrajectory(path, func(r telemetry.TrajectoryRecord) error {
		n++
		last = r
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Fatalf("got %d records, want 4", n)
	}
	if !last.Done || last.Reason != "completed" || last.Arena != 3 {
		t.Errorf("unexpected terminal record %+v", last)
	}
	if math.Abs(last.Reward-0.75) > 1e-12 {
		t.Errorf("got terminal reward %v, want 0.75", last.Reward)
	}
}
