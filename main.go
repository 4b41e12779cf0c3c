package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/joho/godotenv"

	"github.com/pthm-cable/penguin/config"
	"github.com/pthm-cable/penguin/game"
	"github.com/pthm-cable/penguin/params"
	"github.com/pthm-cable/penguin/policy"
)

func main() {
	// .env supplies defaults such as PENGUIN_TRAINER_URL
	for _, envFile := range []string{".env", "../.env"} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N steps per arena (0 = unlimited)")
	maxEpisodes := flag.Int("max-episodes", 0, "Stop after N finished episodes across all arenas (0 = unlimited)")
	arenas := flag.Int("arenas", 1, "Independent arenas stepped in parallel")
	workers := flag.Int("workers", 0, "Worker goroutines for parallel arenas (0 = GOMAXPROCS)")
	policyName := flag.String("policy", "", "Action source: manual, scripted, random, network, remote (default manual with a window, scripted headless)")
	weights := flag.String("weights", "", "Network policy weights file (empty = seeded random weights)")
	trainerURL := flag.String("trainer-url", os.Getenv("PENGUIN_TRAINER_URL"), "Remote trainer websocket URL")
	asyncInference := flag.Bool("async-inference", false, "Decide out of band; actions apply one decision late")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	trajectory := flag.String("trajectory", "", "Write decision trajectories to this zstd JSONL file")
	dbPath := flag.String("db", "", "Store episodes in this sqlite database")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Steps per update call (higher = faster headless runs)")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	overrides := params.Flag{}
	flag.Var(overrides, "param", "Environment parameter override name=value (repeatable)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	kind := policy.KindScripted
	if !*headless {
		kind = policy.KindManual
	}
	if *policyName != "" {
		k, err := policy.ParseKind(*policyName)
		if err != nil {
			slog.Error("invalid policy", "error", err)
			os.Exit(1)
		}
		kind = k
	}

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	opts := game.Options{
		Seed:           rngSeed,
		Arenas:         *arenas,
		Workers:        *workers,
		Policy:         kind,
		Weights:        *weights,
		TrainerURL:     *trainerURL,
		AsyncInference: *asyncInference,
		OutputDir:      *outputDir,
		Trajectory:     *trajectory,
		DB:             *dbPath,
		Params:         overrides,
		StepsPerUpdate: *stepsPerUpdate,
		MaxEpisodes:    *maxEpisodes,
		Headless:       *headless,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, opts, *maxTicks); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts game.Options, maxTicks int) error {
	if opts.Headless {
		// Headless mode - pure CPU simulation, no raylib needed
		g, err := game.NewGame(ctx, cfg, opts)
		if err != nil {
			return err
		}
		defer g.Unload()
		defer g.LogRunEnd()

		slog.Info("starting headless simulation",
			"seed", opts.Seed,
			"arenas", opts.Arenas,
			"max_ticks", maxTicks,
			"max_episodes", opts.MaxEpisodes,
			"steps_per_update", opts.StepsPerUpdate,
		)

		for !g.Done() {
			if err := g.UpdateHeadless(ctx); err != nil {
				return err
			}
			if maxTicks > 0 && g.Tick() >= int64(maxTicks) {
				slog.Info("max ticks reached", "tick", g.Tick())
				return nil
			}
		}
		slog.Info("max episodes reached", "episodes", g.Episodes())
		return nil
	}

	// Graphical mode
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Penguin")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g, err := game.NewGame(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer g.Unload()
	defer g.LogRunEnd()

	for !rl.WindowShouldClose() && !g.Done() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := g.Update(ctx); err != nil {
			return err
		}
		g.Draw()

		if maxTicks > 0 && g.Tick() >= int64(maxTicks) {
			break
		}
	}
	return nil
}
