package telemetry

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// Collector tracks tick windows and turns flock state into WindowStats.
type Collector struct {
	windowDurationTicks int32
	dt                  float64

	// Current window tracking
	windowStartTick int32
	modeSwitches    int
	lastMode        string

	// Scratch reused across flushes
	speeds   []float64
	cellPops []float64
}

// NewCollector creates a stats collector that flushes every windowTicks
// ticks. dt converts ticks to simulation time.
func NewCollector(windowTicks int, dt float64) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{
		windowDurationTicks: int32(windowTicks),
		dt:                  dt,
	}
}

// RecordMode notes the mode used for a tick, counting switches.
func (c *Collector) RecordMode(mode string) {
	if c.lastMode != "" && c.lastMode != mode {
		c.modeSwitches++
	}
	c.lastMode = mode
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats from the flock state at window end and
// resets counters for the next window. occupancy holds the population of
// every occupied grid cell.
func (c *Collector) Flush(currentTick int32, pos, vel []r3.Vec, occupancy []int) WindowStats {
	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,
		Mode:            c.lastMode,
		Particles:       len(pos),
		ModeSwitches:    c.modeSwitches,
	}

	c.speeds = c.speeds[:0]
	var heading r3.Vec
	for _, v := range vel {
		speed := r3.Norm(v)
		c.speeds = append(c.speeds, speed)
		if speed > 0 {
			heading = r3.Add(heading, r3.Scale(1/speed, v))
		}
	}
	if len(vel) > 0 {
		stats.Polarization = r3.Norm(heading) / float64(len(vel))
	}
	stats.SpeedMean, stats.SpeedStd, stats.SpeedP10, stats.SpeedP50, stats.SpeedP90 =
		ComputeDistribution(c.speeds)

	if len(pos) > 0 {
		var sum r3.Vec
		for _, p := range pos {
			sum = r3.Add(sum, p)
		}
		centroid := r3.Scale(1/float64(len(pos)), sum)
		stats.CentroidX, stats.CentroidY, stats.CentroidZ = centroid.X, centroid.Y, centroid.Z
	}

	c.cellPops = c.cellPops[:0]
	for _, n := range occupancy {
		c.cellPops = append(c.cellPops, float64(n))
	}
	stats.OccupiedCells = len(occupancy)
	if len(c.cellPops) > 0 {
		stats.CellPopMax = int(floats.Max(c.cellPops))
		stats.CellPopMean, _, _, _, stats.CellPopP90 = ComputeDistribution(c.cellPops)
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.modeSwitches = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
