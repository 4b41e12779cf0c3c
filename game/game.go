// Package game drives one or more penguin arenas: it owns the fixed-step
// loop, the episode harness, the telemetry sinks, and the interactive view.
package game

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/penguin/camera"
	"github.com/pthm-cable/penguin/config"
	"github.com/pthm-cable/penguin/params"
	"github.com/pthm-cable/penguin/policy"
	"github.com/pthm-cable/penguin/renderer"
	"github.com/pthm-cable/penguin/storage"
	"github.com/pthm-cable/penguin/telemetry"
	"github.com/pthm-cable/penguin/ui"
)

// Options configures a game instance.
type Options struct {
	Seed           int64
	RunID          string // empty = generated
	Arenas         int    // independent arenas stepped in parallel
	Policy         policy.Kind
	Weights        string // network policy weights file
	TrainerURL     string // remote policy websocket URL
	AsyncInference bool
	OutputDir      string // CSV logs and config snapshot
	Trajectory     string // zstd JSONL trajectory file
	DB             string // sqlite episode database
	Params         map[string]float64
	StepsPerUpdate int
	MaxEpisodes    int
	Workers        int // 0 = GOMAXPROCS
	Headless       bool
}

// Game holds the complete run state.
type Game struct {
	cfg    *config.Config
	opts   Options
	runID  string
	params *params.Store
	keys   *policy.KeyState

	envs []*Env
	pool *Pool

	// Telemetry sinks, shared by all arenas
	collector  *telemetry.Collector
	output     *telemetry.OutputManager
	db         *storage.EpisodeDB
	trajectory *telemetry.TrajectoryWriter

	// State
	tick           int64
	episodes       atomic.Int64
	stepsPerUpdate int
	paused         bool

	// Rendering (nil when headless)
	camera        *camera.Camera
	arenaRenderer *renderer.ArenaRenderer
	effects       *renderer.EffectSystem
	hud           *ui.HUD
	controls      *ui.ControlsPanel
	screenWidth   float32
	screenHeight  float32
}

// NewGame creates a game with the given options. In windowed mode the
// raylib window must already be open.
func NewGame(ctx context.Context, cfg *config.Config, opts Options) (*Game, error) {
	if opts.Arenas < 1 {
		opts.Arenas = 1
	}
	if opts.StepsPerUpdate < 1 {
		opts.StepsPerUpdate = 1
	}
	if opts.Policy == "" {
		opts.Policy = policy.KindScripted
	}
	if opts.Policy == policy.KindManual && opts.Headless {
		return nil, errors.New("manual policy needs a window")
	}
	if opts.Policy == policy.KindRemote && opts.TrainerURL == "" {
		return nil, errors.New("remote policy needs a trainer URL")
	}

	g := &Game{
		cfg:            cfg,
		opts:           opts,
		runID:          opts.RunID,
		params:         params.NewStore(cfg.Parameters),
		keys:           &policy.KeyState{},
		pool:           NewPool(opts.Workers),
		collector:      telemetry.NewCollector(cfg.Telemetry.StatsWindow),
		stepsPerUpdate: opts.StepsPerUpdate,
	}
	if g.runID == "" {
		g.runID = uuid.NewString()
	}
	g.params.Update(opts.Params)

	if err := g.openSinks(ctx); err != nil {
		g.Unload()
		return nil, err
	}

	if !opts.Headless {
		g.initRendering()
	}

	factory := g.deciderFactory(ctx)
	for i := 0; i < opts.Arenas; i++ {
		ec := EnvConfig{
			Index:    i,
			Seed:     opts.Seed + int64(i)*7919,
			Params:   g.params,
			Decider:  factory,
			Recorder: g,
		}
		if i == 0 && g.effects != nil {
			ec.Effects = g.effects
		}
		e, err := NewEnv(cfg, ec)
		if err != nil {
			g.Unload()
			return nil, err
		}
		g.envs = append(g.envs, e)
	}

	g.logRunStart()
	return g, nil
}

// openSinks opens the configured output files and the episode database.
func (g *Game) openSinks(ctx context.Context) error {
	var err error
	if g.output, err = telemetry.NewOutputManager(g.opts.OutputDir); err != nil {
		return err
	}
	if err := g.output.WriteConfig(g.cfg); err != nil {
		return err
	}

	if g.opts.Trajectory != "" {
		if g.trajectory, err = telemetry.NewTrajectoryWriter(g.opts.Trajectory); err != nil {
			return err
		}
	}

	if g.opts.DB != "" {
		if g.db, err = storage.Open(g.opts.DB); err != nil {
			return err
		}
		snapshot, err := yaml.Marshal(g.cfg)
		if err != nil {
			return fmt.Errorf("marshaling config snapshot: %w", err)
		}
		run := storage.Run{
			ID:        g.runID,
			StartedAt: time.Now().UTC(),
			Seed:      g.opts.Seed,
			Policy:    string(g.opts.Policy),
			Arenas:    g.opts.Arenas,
			Config:    string(snapshot),
		}
		if err := g.db.RecordRun(ctx, run); err != nil {
			return err
		}
	}
	return nil
}

// step advances every arena by n steps.
func (g *Game) step(ctx context.Context, n int) error {
	if err := g.pool.Run(ctx, g.envs, n); err != nil {
		return err
	}
	g.tick += int64(n)
	return nil
}

// UpdateHeadless runs one batch of steps without rendering.
func (g *Game) UpdateHeadless(ctx context.Context) error {
	return g.step(ctx, g.stepsPerUpdate)
}

// Update handles input and, unless paused, runs one batch of steps.
func (g *Game) Update(ctx context.Context) error {
	g.handleInput()
	if !g.paused {
		if err := g.step(ctx, g.stepsPerUpdate); err != nil {
			return err
		}
	}
	g.envs[0].perf.RecordFrame()
	return nil
}

// Done reports whether the episode budget is spent.
func (g *Game) Done() bool {
	return g.opts.MaxEpisodes > 0 && g.Episodes() >= int64(g.opts.MaxEpisodes)
}

// Tick returns the number of steps each arena has run.
func (g *Game) Tick() int64 {
	return g.tick
}

// Episodes returns the number of finished episodes across all arenas.
func (g *Game) Episodes() int64 {
	return g.episodes.Load()
}

// RunID returns the run identifier used in every record.
func (g *Game) RunID() string {
	return g.runID
}

// Params returns the environment parameter store.
func (g *Game) Params() *params.Store {
	return g.params
}

// Envs returns the arenas.
func (g *Game) Envs() []*Env {
	return g.envs
}

// Unload stops the workers, flushes telemetry, and closes every resource.
// It is safe to call on a partially built game.
func (g *Game) Unload() {
	g.pool.Stop()
	for _, e := range g.envs {
		if err := e.Close(); err != nil {
			g.logCloseError("policy", err)
		}
	}
	g.flushPartialWindow()

	if g.trajectory != nil {
		if err := g.trajectory.Close(); err != nil {
			g.logCloseError("trajectory", err)
		}
	}
	if err := g.output.Close(); err != nil {
		g.logCloseError("output", err)
	}
	if g.db != nil {
		if err := g.db.Close(); err != nil {
			g.logCloseError("database", err)
		}
	}
}
