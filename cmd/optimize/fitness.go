package main

import (
	"log/slog"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/sim"
	"github.com/pthm-cable/flock/telemetry"
)

// Penalty returned when a run cannot start.
const failedRun = 1e6

// FitnessEvaluator runs short headless simulations and scores how close
// the flock gets to a target polarization without collapsing into a few
// dense cells.
type FitnessEvaluator struct {
	params  *ParamVector
	baseCfg *config.Config
	mode    sim.Mode
	ticks   int
	seeds   []int64

	// TargetPolarization is the desired mean polarization over the
	// second half of each run.
	TargetPolarization float64
	// CrowdingWeight scales the penalty for peak cell population.
	CrowdingWeight float64

	mu          sync.Mutex
	lastQuality float64
}

// NewFitnessEvaluator creates an evaluator over the given seeds.
func NewFitnessEvaluator(params *ParamVector, ticks int, seeds []int64, baseCfg *config.Config, mode sim.Mode) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:             params,
		baseCfg:            baseCfg,
		mode:               mode,
		ticks:              ticks,
		seeds:              seeds,
		TargetPolarization: 0.9,
		CrowdingWeight:     0.001,
	}
}

// LastQuality returns the mean polarization of the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// runResult holds the windows of one seeded run.
type runResult struct {
	windows []telemetry.WindowStats
}

// Evaluate returns the fitness of raw parameter values. Lower is better.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	var total, quality float64
	for _, seed := range fe.seeds {
		r := fe.runSimulation(x, seed)
		if r == nil {
			return failedRun
		}
		fit, pol := fe.computeFitness(r)
		total += fit
		quality += pol
	}

	fe.mu.Lock()
	fe.lastQuality = quality / float64(len(fe.seeds))
	fe.mu.Unlock()

	return total / float64(len(fe.seeds))
}

func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) *runResult {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)
	cfg.Simulation.Seed = seed

	s, err := sim.New(cfg, sim.Options{})
	if err != nil {
		slog.Warn("evaluation rejected", "error", err)
		return nil
	}
	defer s.Shutdown()

	window := fe.ticks / 10
	if window < 1 {
		window = 1
	}
	collector := telemetry.NewCollector(window, cfg.Simulation.DT)

	var (
		r         runResult
		state     sim.State
		occupancy []int
	)
	for s.Tick() < int64(fe.ticks) {
		if err := s.Step(cfg.Simulation.DT, fe.mode); err != nil {
			slog.Warn("evaluation step failed", "error", err)
			return nil
		}
		collector.RecordMode(fe.mode.String())

		tick := int32(s.Tick())
		if collector.ShouldFlush(tick) {
			s.ExportStateInto(&state)
			occupancy = s.Occupancy(occupancy[:0])
			r.windows = append(r.windows, collector.Flush(tick, state.Pos, state.Vel, occupancy))
		}
	}
	return &r
}

// copyConfig returns an independent copy of the base config.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseCfg
	return &cfg
}

// computeFitness scores the second half of a run and returns the score
// with the mean polarization it saw.
func (fe *FitnessEvaluator) computeFitness(r *runResult) (fitness, polarization float64) {
	windows := r.windows[len(r.windows)/2:]
	if len(windows) == 0 {
		return failedRun, 0
	}

	var crowd float64
	for _, w := range windows {
		polarization += w.Polarization
		crowd += float64(w.CellPopMax)
	}
	polarization /= float64(len(windows))
	crowd /= float64(len(windows))

	miss := polarization - fe.TargetPolarization
	return miss*miss + fe.CrowdingWeight*crowd + stabilityPenalty(windows), polarization
}

// stabilityPenalty is the coefficient of variation of polarization across
// windows, so flocks that keep forming and breaking score worse.
func stabilityPenalty(windows []telemetry.WindowStats) float64 {
	values := make([]float64, len(windows))
	for i, w := range windows {
		values[i] = w.Polarization
	}
	return cv(values)
}

// cv returns standard deviation over mean, or 0 for an empty or zero-mean set.
func cv(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	if mean == 0 {
		return 0
	}
	return std / math.Abs(mean)
}
