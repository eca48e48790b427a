// Package game wires the simulation to telemetry, snapshots and the raylib
// front end.
package game

import (
	"fmt"
	"log/slog"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/flock/camera"
	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/renderer"
	"github.com/pthm-cable/flock/sim"
	"github.com/pthm-cable/flock/telemetry"
	"github.com/pthm-cable/flock/ui"
)

// Options configures a Game.
type Options struct {
	// Config to run. Nil uses the embedded defaults.
	Config *config.Config
	// Seed overrides simulation.seed when non-zero.
	Seed int64
	// Mode overrides simulation.mode when non-empty.
	Mode string
	// Particles overrides simulation.particle_count when positive.
	Particles int
	// StepsPerUpdate overrides simulation.steps_per_update when positive.
	StepsPerUpdate int
	// GPU enables the OpenCL backend regardless of config.
	GPU bool

	LogStats    bool
	OutputDir   string
	SnapshotDir string
	// RestorePath seeds the flock from a saved snapshot.
	RestorePath string
	Headless    bool
}

// Game owns one simulation and everything that observes it.
type Game struct {
	cfg  *config.Config
	sim  *sim.Simulation
	mode sim.Mode

	dt             float64
	stepsPerUpdate int
	paused         bool
	rngSeed        int64

	state     sim.State
	occupancy []int
	lastStats telemetry.WindowStats

	// Telemetry
	perfCollector    *telemetry.PerfCollector
	collector        *telemetry.Collector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	logStats         bool
	snapshotDir      string

	// Rendering, nil in headless mode
	camera        *camera.Camera
	flockRenderer *renderer.FlockRenderer
	hud           *ui.HUD
	perfPanel     *ui.PerfPanel
	controls      *ui.ControlsPanel
	showPerf      bool
	screenWidth   float32
	screenHeight  float32
}

// NewGame builds a simulation from opts. Rendering state is only created
// when opts.Headless is false, so raylib must already have a window open in
// that case.
func NewGame(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	applyOverrides(cfg, opts)

	var snap *telemetry.Snapshot
	if opts.RestorePath != "" {
		var err error
		snap, err = telemetry.LoadSnapshot(opts.RestorePath)
		if err != nil {
			return nil, fmt.Errorf("restoring snapshot: %w", err)
		}
		cfg.Simulation.ParticleCount = len(snap.Particles)
		cfg.Scene.Scale = snap.Scale
		cfg.Simulation.Seed = snap.RNGSeed
		if opts.Mode == "" && snap.Mode != "" {
			cfg.Simulation.Mode = snap.Mode
		}
	}

	mode, err := sim.ParseMode(cfg.Simulation.Mode)
	if err != nil {
		return nil, err
	}

	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow)
	simOpts := sim.Options{Perf: perf}
	if snap != nil {
		simOpts.Seeder = snapshotSeeder(snap)
	}

	s, err := sim.New(cfg, simOpts)
	if err != nil {
		return nil, err
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		s.Shutdown()
		return nil, err
	}
	if err := om.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	g := &Game{
		cfg:              cfg,
		sim:              s,
		mode:             mode,
		dt:               cfg.Simulation.DT,
		stepsPerUpdate:   cfg.Simulation.StepsPerUpdate,
		rngSeed:          cfg.Simulation.Seed,
		perfCollector:    perf,
		collector:        telemetry.NewCollector(cfg.Telemetry.StatsWindow, cfg.Simulation.DT),
		bookmarkDetector: telemetry.NewBookmarkDetector(10),
		outputManager:    om,
		logStats:         opts.LogStats,
		snapshotDir:      opts.SnapshotDir,
	}
	if g.stepsPerUpdate < 1 {
		g.stepsPerUpdate = 1
	}

	if !opts.Headless {
		g.initRendering()
	}

	slog.Info("flock initialized",
		"particles", s.Len(),
		"mode", mode.String(),
		"gpu", s.UsingGPU(),
		"grid_side", s.Geometry().Side,
		"output_dir", om.Dir(),
	)
	return g, nil
}

func applyOverrides(cfg *config.Config, opts Options) {
	if opts.Seed != 0 {
		cfg.Simulation.Seed = opts.Seed
	}
	if opts.Mode != "" {
		cfg.Simulation.Mode = opts.Mode
	}
	if opts.Particles > 0 {
		cfg.Simulation.ParticleCount = opts.Particles
	}
	if opts.StepsPerUpdate > 0 {
		cfg.Simulation.StepsPerUpdate = opts.StepsPerUpdate
	}
	if opts.GPU {
		cfg.GPU.Enabled = true
	}
}

// snapshotSeeder copies a saved flock into the fresh buffers.
func snapshotSeeder(snap *telemetry.Snapshot) sim.Seeder {
	return func(_ *rand.Rand, pos, vel []r3.Vec) {
		// Counts were matched when the config was overridden.
		if err := snap.Restore(pos, vel); err != nil {
			slog.Error("snapshot restore failed", "error", err)
		}
	}
}

// UpdateHeadless advances the simulation by stepsPerUpdate ticks without
// touching raylib.
func (g *Game) UpdateHeadless() error {
	for i := 0; i < g.stepsPerUpdate; i++ {
		if err := g.step(); err != nil {
			return err
		}
	}
	return nil
}

// Update processes input and advances the simulation unless paused.
func (g *Game) Update() {
	g.handleInput()
	if g.paused {
		return
	}
	if err := g.UpdateHeadless(); err != nil {
		slog.Error("step failed", "error", err)
		g.paused = true
	}
}

func (g *Game) step() error {
	if err := g.sim.Step(g.dt, g.mode); err != nil {
		return err
	}
	g.collector.RecordMode(g.mode.String())
	g.flushTelemetry()
	return nil
}

// SetMode switches the neighbor-search mode for subsequent steps.
func (g *Game) SetMode(mode sim.Mode) {
	if mode == g.mode {
		return
	}
	slog.Info("mode switched", "from", g.mode.String(), "to", mode.String(), "tick", g.sim.Tick())
	g.mode = mode
}

// Mode returns the active neighbor-search mode.
func (g *Game) Mode() sim.Mode {
	return g.mode
}

// Tick returns the number of completed steps.
func (g *Game) Tick() int64 {
	return g.sim.Tick()
}

// LastStats returns the most recently flushed window.
func (g *Game) LastStats() telemetry.WindowStats {
	return g.lastStats
}

// Unload flushes output and releases the simulation.
func (g *Game) Unload() {
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
	g.sim.Shutdown()
}
