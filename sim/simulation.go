// Package sim owns a flock and runs its per-step pipeline: bucketing,
// optional reshuffle, velocity update and integration.
package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/gpu"
	"github.com/pthm-cable/flock/systems"
	"github.com/pthm-cable/flock/telemetry"
)

var (
	// ErrShutdown is returned by Step after Shutdown.
	ErrShutdown = errors.New("simulation shut down")
	// ErrInvalidPopulation is returned by New for a particle count below one.
	ErrInvalidPopulation = errors.New("invalid particle count")
	// ErrUnknownMode is returned for a mode outside Modes().
	ErrUnknownMode = errors.New("unknown mode")
	// ErrInvalidStep is returned by Step for a non-positive or non-finite dt.
	ErrInvalidStep = errors.New("invalid time step")
)

// Seeder fills the initial particle state.
type Seeder func(rng *rand.Rand, pos, vel []r3.Vec)

// ScatterSeeder places particles uniformly in the scene cube with small
// random velocities.
func ScatterSeeder(halfExtent, maxSpeed float64) Seeder {
	return func(rng *rand.Rand, pos, vel []r3.Vec) {
		systems.ScatterPositions(rng, pos, halfExtent)
		systems.ScatterVelocities(rng, vel, maxSpeed)
	}
}

// ClusterSeeder places particles in noise-shaped clumps with small random
// velocities.
func ClusterSeeder(halfExtent, features, maxSpeed float64) Seeder {
	return func(rng *rand.Rand, pos, vel []r3.Vec) {
		systems.ClusterPositions(rng, pos, halfExtent, features)
		systems.ScatterVelocities(rng, vel, maxSpeed)
	}
}

// seederFromConfig picks the seeder for scene.layout.
func seederFromConfig(cfg *config.Config) Seeder {
	if cfg.Scene.Layout == "clustered" {
		return ClusterSeeder(cfg.Scene.Scale, cfg.Scene.ClusterFeatures, cfg.Motion.MaxSpeed)
	}
	return ScatterSeeder(cfg.Scene.Scale, cfg.Motion.MaxSpeed)
}

// Options holds optional collaborators for New.
type Options struct {
	// Seeder fills initial state. Defaults to the scene.layout seeder.
	Seeder Seeder
	// Rng drives the seeder. Defaults to a source seeded from
	// simulation.seed, or the clock when that is zero.
	Rng *rand.Rand
	// Perf receives per-phase step timings. May be nil.
	Perf *telemetry.PerfCollector
}

// State is a snapshot of every particle in original particle order.
type State struct {
	Pos []r3.Vec
	Vel []r3.Vec
}

// Simulation holds every buffer, the grid and the worker pool of one flock.
// It is not safe for concurrent use.
type Simulation struct {
	rules      systems.Rules
	halfExtent float64

	particles *components.Particles
	grid      *systems.SpatialGrid
	pool      *Pool
	perf      *telemetry.PerfCollector
	solver    *gpu.Solver

	tick     int64
	lastMode Mode
	closed   bool
}

// New validates cfg, allocates buffers for cfg.Simulation.ParticleCount
// particles and seeds their initial state. A nil cfg uses the embedded
// defaults.
func New(cfg *config.Config, opts Options) (*Simulation, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	n := cfg.Simulation.ParticleCount
	if n < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPopulation, n)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rules := systems.RulesFromConfig(cfg)
	geom, err := systems.NewGeometry(cfg.Scene.Scale, rules.MaxRadius(), cfg.Grid.DoubleWidth)
	if err != nil {
		return nil, fmt.Errorf("sizing grid: %w", err)
	}

	s := &Simulation{
		rules:      rules,
		halfExtent: cfg.Scene.Scale,
		particles:  components.NewParticles(n),
		grid:       systems.NewSpatialGrid(geom, n),
		pool:       NewPool(cfg.Parallel.Workers, cfg.Parallel.Threshold),
		perf:       opts.Perf,
	}

	rng := opts.Rng
	if rng == nil {
		seed := cfg.Simulation.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng = rand.New(rand.NewSource(seed))
	}
	seeder := opts.Seeder
	if seeder == nil {
		seeder = seederFromConfig(cfg)
	}
	seeder(rng, s.particles.Pos, s.particles.Vel)

	if cfg.GPU.Enabled {
		solver, err := gpu.NewSolver(gpu.Params{Rules: rules, Geometry: geom, Particles: n})
		if err != nil {
			slog.Warn("GPU backend unavailable, using CPU kernels", "error", err)
		} else {
			slog.Info("GPU backend enabled", "device", solver.DeviceName())
			s.solver = solver
		}
	}

	slog.Debug("simulation initialized",
		"particles", n,
		"cell_width", geom.CellWidth,
		"grid_side", geom.Side,
		"cells", geom.CellCount,
		"workers", s.pool.Workers(),
	)
	return s, nil
}

// Step advances the flock by dt using the given neighbor-search mode.
func (s *Simulation) Step(dt float64, mode Mode) error {
	if s.closed {
		return ErrShutdown
	}
	if !(dt > 0) || math.IsInf(dt, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidStep, dt)
	}

	if _, ok := modeNames[mode]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownMode, int(mode))
	}

	s.perf.StartTick()
	defer s.perf.EndTick()

	p := s.particles
	if mode.UsesGrid() {
		s.bucket()
	}

	if mode == ModeCoherent {
		s.perf.StartPhase(telemetry.PhaseReshuffle)
		systems.Reshuffle(s.pool, s.grid.ParticleIndex, p.Pos, p.Vel, p.PosShuffled, p.VelShuffled)
		p.SwapShuffled(s.grid.ParticleIndex)
	}

	s.perf.StartPhase(telemetry.PhaseVelocity)
	s.updateVelocity(mode)

	s.perf.StartPhase(telemetry.PhaseIntegrate)
	s.integrate(dt)
	p.SwapVelocity()

	s.tick++
	s.lastMode = mode
	return nil
}

// bucket labels, sorts and extracts cell ranges over the current positions.
func (s *Simulation) bucket() {
	s.perf.StartPhase(telemetry.PhaseHash)
	s.grid.ComputeIndices(s.pool, s.particles.Pos)

	s.perf.StartPhase(telemetry.PhaseSort)
	s.grid.SortByCell()

	s.perf.StartPhase(telemetry.PhaseCells)
	s.grid.IdentifyCellRanges(s.pool)
}

func (s *Simulation) updateVelocity(mode Mode) {
	p := s.particles
	if s.solver != nil {
		err := s.solver.UpdateVelocity(gpuKernel(mode), s.grid, p.Pos, p.Vel, p.VelNext)
		if err == nil {
			return
		}
		s.dropSolver(err)
	}

	switch mode {
	case ModeBruteForce:
		systems.UpdateVelocityBruteForce(s.pool, &s.rules, p.Pos, p.Vel, p.VelNext)
	case ModeScattered:
		s.grid.UpdateVelocityScattered(s.pool, &s.rules, p.Pos, p.Vel, p.VelNext)
	case ModeCoherent:
		s.grid.UpdateVelocityCoherent(s.pool, &s.rules, p.Pos, p.Vel, p.VelNext)
	}
}

// integrate moves particles by the freshly computed velocities.
func (s *Simulation) integrate(dt float64) {
	p := s.particles
	if s.solver != nil {
		err := s.solver.Integrate(p.Pos, p.VelNext, dt, s.halfExtent)
		if err == nil {
			return
		}
		s.dropSolver(err)
	}
	systems.Integrate(s.pool, p.Pos, p.VelNext, dt, s.halfExtent)
}

// dropSolver falls back to the CPU kernels for the rest of the run.
func (s *Simulation) dropSolver(err error) {
	slog.Warn("GPU step failed, falling back to CPU kernels", "error", err)
	s.solver.Close()
	s.solver = nil
}

func gpuKernel(mode Mode) gpu.Kernel {
	switch mode {
	case ModeScattered:
		return gpu.KernelScattered
	case ModeCoherent:
		return gpu.KernelCoherent
	}
	return gpu.KernelBruteForce
}

// ExportState returns copies of every position and velocity in original
// particle order. Simulation buffers are not modified.
func (s *Simulation) ExportState() State {
	var st State
	s.ExportStateInto(&st)
	return st
}

// ExportStateInto is ExportState reusing dst's slices when large enough.
func (s *Simulation) ExportStateInto(dst *State) {
	n := 0
	if !s.closed {
		n = s.particles.Len()
	}
	dst.Pos = resizeVecs(dst.Pos, n)
	dst.Vel = resizeVecs(dst.Vel, n)
	if n == 0 {
		return
	}

	p := s.particles
	for slot, id := range p.Order {
		dst.Pos[id] = p.Pos[slot]
		dst.Vel[id] = p.Vel[slot]
	}
}

func resizeVecs(buf []r3.Vec, n int) []r3.Vec {
	if cap(buf) < n {
		return make([]r3.Vec, n)
	}
	return buf[:n]
}

// Occupancy rebuilds the grid over the current positions and appends the
// population of every occupied cell to dst. The next step rebuilds the grid
// anyway, so particle state is unaffected.
func (s *Simulation) Occupancy(dst []int) []int {
	if s.closed {
		return dst
	}
	s.grid.Build(s.pool, s.particles.Pos)
	return s.grid.Occupancy(dst)
}

// Len returns the number of particles.
func (s *Simulation) Len() int {
	if s.closed {
		return 0
	}
	return s.particles.Len()
}

// Tick returns the number of completed steps.
func (s *Simulation) Tick() int64 {
	return s.tick
}

// LastMode returns the mode of the most recent step.
func (s *Simulation) LastMode() Mode {
	return s.lastMode
}

// Geometry returns the grid layout.
func (s *Simulation) Geometry() systems.Geometry {
	return s.grid.Geometry
}

// HalfExtent returns the scene half-width.
func (s *Simulation) HalfExtent() float64 {
	return s.halfExtent
}

// UsingGPU reports whether steps run on the OpenCL backend.
func (s *Simulation) UsingGPU() bool {
	return s.solver != nil
}

// Shutdown stops the worker pool and releases every buffer. Later calls to
// Step return ErrShutdown. Shutdown is idempotent.
func (s *Simulation) Shutdown() {
	if s.closed {
		return
	}
	s.closed = true
	s.pool.Close()
	if s.solver != nil {
		s.solver.Close()
		s.solver = nil
	}
	s.particles.Release()
	s.grid.Release()
}
