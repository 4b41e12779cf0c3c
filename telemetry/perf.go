package telemetry

import (
	"log/slog"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Phase is one timed section of an arena step.
type Phase int

const (
	PhaseAgent    Phase = iota // decision, action, proximity check
	PhaseSwim                  // fish steering
	PhasePhysics               // integration and contact detection
	PhaseContacts              // feeding transitions and step limit
	PhaseReset                 // arena reset after an episode end
	numPhases
)

var phaseNames = [numPhases]string{"agent", "swim", "physics", "contacts", "reset"}

func (p Phase) String() string {
	if p < 0 || p >= numPhases {
		return "unknown"
	}
	return phaseNames[p]
}

// PerfCollector tracks step timing over a rolling window. It is owned by
// the goroutine stepping its arena.
type PerfCollector struct {
	steps  []float64 // step durations in microseconds, ring buffer
	phases [][numPhases]time.Duration
	next   int
	filled int

	stepStart  time.Time
	phaseStart time.Time
	current    Phase
	inPhase    bool
	pending    [numPhases]time.Duration

	lastFrame time.Time
	frame     time.Duration
}

// NewPerfCollector creates a collector averaging over window steps.
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = 60
	}
	return &PerfCollector{
		steps:  make([]float64, window),
		phases: make([][numPhases]time.Duration, window),
	}
}

// StartStep begins timing a new arena step.
func (p *PerfCollector) StartStep() {
	p.stepStart = time.Now()
	p.pending = [numPhases]time.Duration{}
	p.inPhase = false
}

// StartPhase closes the running phase, if any, and starts timing ph.
func (p *PerfCollector) StartPhase(ph Phase) {
	now := time.Now()
	p.closePhase(now)
	p.phaseStart = now
	p.current = ph
	p.inPhase = true
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.inPhase {
		p.pending[p.current] += now.Sub(p.phaseStart)
	}
}

// EndStep finishes timing the current step and records the sample.
func (p *PerfCollector) EndStep() {
	now := time.Now()
	p.closePhase(now)
	p.inPhase = false

	p.steps[p.next] = float64(now.Sub(p.stepStart)) / float64(time.Microsecond)
	p.phases[p.next] = p.pending
	p.next = (p.next + 1) % len(p.steps)
	if p.filled < len(p.steps) {
		p.filled++
	}
}

// RecordFrame records the time since the previous rendered frame.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrame.IsZero() {
		p.frame = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PerfStats holds step timing aggregated over the window.
type PerfStats struct {
	AvgStepUS float64
	MinStepUS float64
	MaxStepUS float64
	P95StepUS float64

	// Share of the average step spent in each phase, in percent
	PhasePct [numPhases]float64

	StepsPerSecond float64
	FPS            float64 // 0 when headless
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	var s PerfStats
	if p.frame > 0 {
		s.FPS = float64(time.Second) / float64(p.frame)
	}
	if p.filled == 0 {
		return s
	}

	window := p.steps[:p.filled]
	s.AvgStepUS = stat.Mean(window, nil)
	s.MinStepUS = floats.Min(window)
	s.MaxStepUS = floats.Max(window)

	sorted := make([]float64, len(window))
	copy(sorted, window)
	floats.Argsort(sorted, make([]int, len(sorted)))
	s.P95StepUS = stat.Quantile(0.95, stat.Empirical, sorted, nil)

	if s.AvgStepUS > 0 {
		s.StepsPerSecond = 1e6 / s.AvgStepUS
		var sum [numPhases]time.Duration
		for _, sample := range p.phases[:p.filled] {
			for ph, d := range sample {
				sum[ph] += d
			}
		}
		total := s.AvgStepUS * float64(p.filled) * float64(time.Microsecond)
		for ph, d := range sum {
			s.PhasePct[ph] = float64(d) / total * 100
		}
	}
	return s
}

// LogStats logs the statistics at info level.
func (s PerfStats) LogStats() {
	slog.Info("perf", "stats", s)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("avg_step_us", int(s.AvgStepUS)),
		slog.Int("p95_step_us", int(s.P95StepUS)),
		slog.Int("max_step_us", int(s.MaxStepUS)),
		slog.Int("steps_per_sec", int(s.StepsPerSecond)),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Int("fps", int(s.FPS)))
	}
	for ph := Phase(0); ph < numPhases; ph++ {
		if pct := s.PhasePct[ph]; pct > 0.1 {
			attrs = append(attrs, slog.Float64(ph.String()+"_pct", float64(int(pct*10))/10))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one row of perf.csv.
type PerfStatsCSV struct {
	Step        int64   `csv:"step"`
	AvgStepUS   float64 `csv:"avg_step_us"`
	MinStepUS   float64 `csv:"min_step_us"`
	MaxStepUS   float64 `csv:"max_step_us"`
	P95StepUS   float64 `csv:"p95_step_us"`
	StepsPerSec float64 `csv:"steps_per_sec"`
	FPS         float64 `csv:"fps"`
	AgentPct    float64 `csv:"agent_pct"`
	SwimPct     float64 `csv:"swim_pct"`
	PhysicsPct  float64 `csv:"physics_pct"`
	ContactsPct float64 `csv:"contacts_pct"`
	ResetPct    float64 `csv:"reset_pct"`
}

// ToCSV flattens the stats for the arena's step count.
func (s PerfStats) ToCSV(step int64) PerfStatsCSV {
	return PerfStatsCSV{
		Step:        step,
		AvgStepUS:   s.AvgStepUS,
		MinStepUS:   s.MinStepUS,
		MaxStepUS:   s.MaxStepUS,
		P95StepUS:   s.P95StepUS,
		StepsPerSec: s.StepsPerSecond,
		FPS:         s.FPS,
		AgentPct:    s.PhasePct[PhaseAgent],
		SwimPct:     s.PhasePct[PhaseSwim],
		PhysicsPct:  s.PhasePct[PhasePhysics],
		ContactsPct: s.PhasePct[PhaseContacts],
		ResetPct:    s.PhasePct[PhaseReset],
	}
}
