// Package main calibrates the environment parameters (feed radius and fish
// speed) so that a scripted penguin finishes episodes in a target number of
// steps.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/penguin/config"
)

// evalRow is one line of calibrate_log.csv.
type evalRow struct {
	Eval       int     `csv:"eval"`
	Fitness    float64 `csv:"fitness"`
	FeedRadius float64 `csv:"feed_radius"`
	FishSpeed  float64 `csv:"fish_speed"`
	MeanSteps  float64 `csv:"mean_steps"`
	StdSteps   float64 `csv:"std_steps"`
	Completed  float64 `csv:"completed"`
}

// formatDuration formats a duration as HhMMmSSs or MMmSSs for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

// newMethod returns the optimizer for a method name.
func newMethod(name string, dim int) (optimize.Method, error) {
	switch name {
	case "nelder-mead":
		return &optimize.NelderMead{}, nil
	case "cmaes":
		return &optimize.CmaEsChol{InitStepSize: 0.3, Population: 4 + 3*dim/2}, nil
	default:
		return nil, fmt.Errorf("unknown method %q (want nelder-mead or cmaes)", name)
	}
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	targetSteps := flag.Float64("target-steps", 600, "Desired mean steps per scripted episode")
	seeds := flag.Int("seeds", 4, "Arenas (seeds) per evaluation")
	episodes := flag.Int("episodes", 3, "Episodes per seed")
	maxSteps := flag.Int("max-steps", 0, "Episode step ceiling (0 = config max_steps)")
	maxEvals := flag.Int("max-evals", 60, "Maximum number of evaluations")
	methodName := flag.String("method", "nelder-mead", "Optimizer: nelder-mead or cmaes")
	workers := flag.Int("workers", 0, "Worker goroutines (0 = GOMAXPROCS)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if *targetSteps <= 0 {
		log.Fatal("--target-steps must be positive")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *maxSteps > 0 {
		cfg.Agent.MaxSteps = *maxSteps
	}

	pv := NewParamVector()
	method, err := newMethod(*methodName, pv.Dim())
	if err != nil {
		log.Fatal(err)
	}

	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}
	evaluator := NewFitnessEvaluator(pv, cfg, evalSeeds, *episodes, *targetSteps, *workers)
	defer evaluator.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var (
		rows        []evalRow
		bestFitness = math.Inf(1)
		bestParams  = pv.DefaultVector()
		runErr      error
		startTime   = time.Now()
	)

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			if runErr != nil {
				return math.Inf(1)
			}
			clamped := pv.Clamp(pv.Denormalize(x))
			res, err := evaluator.Evaluate(ctx, clamped)
			if err != nil {
				runErr = err
				return math.Inf(1)
			}

			rows = append(rows, evalRow{
				Eval:       len(rows) + 1,
				Fitness:    res.Fitness,
				FeedRadius: clamped[0],
				FishSpeed:  clamped[1],
				MeanSteps:  res.MeanSteps,
				StdSteps:   res.StdSteps,
				Completed:  res.Completed,
			})
			if res.Fitness < bestFitness {
				bestFitness = res.Fitness
				bestParams = clamped
			}

			n := len(rows)
			elapsed := time.Since(startTime)
			remaining := time.Duration(*maxEvals-n) * (elapsed / time.Duration(n))
			fmt.Printf("Eval %d/%d: feed_radius=%.3f fish_speed=%.3f steps=%.0f±%.0f completed=%.0f%% (best=%.4f) | elapsed: %s, ETA: %s\n",
				n, *maxEvals, clamped[0], clamped[1], res.MeanSteps, res.StdSteps, res.Completed*100, bestFitness,
				formatDuration(elapsed), formatDuration(remaining))
			return res.Fitness
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0, // arenas already run in parallel
	}

	fmt.Printf("Calibrating %d parameters with %s toward %.0f steps, max_evals=%d\n",
		pv.Dim(), *methodName, *targetSteps, *maxEvals)
	fmt.Printf("Seeds per evaluation: %d, episodes per seed: %d, step ceiling: %d\n",
		*seeds, *episodes, cfg.Agent.MaxSteps)

	if _, err := optimize.Minimize(problem, pv.Normalize(pv.DefaultVector()), settings, method); err != nil {
		log.Printf("optimization ended: %v", err)
	}
	if runErr != nil {
		log.Printf("evaluation failed: %v", runErr)
	}

	fmt.Printf("\nCalibration complete after %d evaluations in %s\n", len(rows), formatDuration(time.Since(startTime)))
	fmt.Printf("Best fitness: %.4f\n", bestFitness)
	fmt.Println("\nBest parameters:")
	for i, spec := range pv.Specs {
		fmt.Printf("  %s: %.6f\n", spec.Name, bestParams[i])
	}

	logPath := filepath.Join(*outputDir, "calibrate_log.csv")
	if err := writeLog(logPath, rows); err != nil {
		log.Printf("failed to write log: %v", err)
	}

	for name, v := range pv.Values(bestParams) {
		cfg.Parameters[name] = v
	}
	configOutPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := cfg.WriteYAML(configOutPath); err != nil {
		log.Printf("failed to write best config: %v", err)
	} else {
		fmt.Printf("\nBest config saved to: %s\n", configOutPath)
	}

	if runErr != nil {
		os.Exit(1)
	}
}

func writeLog(path string, rows []evalRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
