package telemetry

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.9},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeDistribution(t *testing.T) {
	values := []float64{1.0, 0.9, 0.8, 0.7, 0.6, 0.5, 0.4, 0.3, 0.2, 0.1}
	mean, std, p10, p50, p90 := ComputeDistribution(values)

	if math.Abs(mean-0.55) > 0.001 {
		t.Errorf("mean = %v, want 0.55", mean)
	}
	// Population std of 0.1..1.0
	if math.Abs(std-0.2872) > 0.001 {
		t.Errorf("std = %v, want ~0.2872", std)
	}
	if math.Abs(p10-0.19) > 0.01 {
		t.Errorf("p10 = %v, want ~0.19", p10)
	}
	if math.Abs(p50-0.55) > 0.01 {
		t.Errorf("p50 = %v, want ~0.55", p50)
	}
	if math.Abs(p90-0.91) > 0.01 {
		t.Errorf("p90 = %v, want ~0.91", p90)
	}
}

func TestComputeDistributionEmpty(t *testing.T) {
	mean, std, p10, p50, p90 := ComputeDistribution(nil)
	if mean != 0 || std != 0 || p10 != 0 || p50 != 0 || p90 != 0 {
		t.Error("empty slice should return all zeros")
	}
}

func TestCollectorFlush(t *testing.T) {
	c := NewCollector(10, 0.2)

	pos := []r3.Vec{{X: 1}, {X: 3}, {Y: 4}, {Z: -2}}
	vel := []r3.Vec{{X: 0.5}, {X: 0.5}, {X: 0.5}, {X: 0.5}}
	occupancy := []int{1, 2, 1}

	if c.ShouldFlush(9) {
		t.Error("flushed before the window filled")
	}
	if !c.ShouldFlush(10) {
		t.Error("did not flush at window end")
	}

	c.RecordMode("coherent")
	c.RecordMode("scattered")
	c.RecordMode("scattered")

	stats := c.Flush(10, pos, vel, occupancy)

	if stats.Particles != 4 || stats.Mode != "scattered" || stats.ModeSwitches != 1 {
		t.Errorf("header = %d %q %d", stats.Particles, stats.Mode, stats.ModeSwitches)
	}
	if math.Abs(stats.SimTimeSec-2) > 1e-12 {
		t.Errorf("SimTimeSec = %v, want 2", stats.SimTimeSec)
	}
	if math.Abs(stats.SpeedMean-0.5) > 1e-12 || stats.SpeedStd > 1e-12 {
		t.Errorf("speed = %v ± %v, want 0.5 ± 0", stats.SpeedMean, stats.SpeedStd)
	}
	if math.Abs(stats.Polarization-1) > 1e-12 {
		t.Errorf("Polarization = %v, want 1 for parallel headings", stats.Polarization)
	}
	if math.Abs(stats.CentroidX-1) > 1e-12 || math.Abs(stats.CentroidY-1) > 1e-12 || math.Abs(stats.CentroidZ+0.5) > 1e-12 {
		t.Errorf("centroid = %v %v %v", stats.CentroidX, stats.CentroidY, stats.CentroidZ)
	}
	if stats.OccupiedCells != 3 || stats.CellPopMax != 2 {
		t.Errorf("occupancy = %d cells, max %d", stats.OccupiedCells, stats.CellPopMax)
	}
	if math.Abs(stats.CellPopMean-4.0/3) > 1e-12 {
		t.Errorf("CellPopMean = %v", stats.CellPopMean)
	}

	// Counters reset for the next window.
	if c.ShouldFlush(19) || !c.ShouldFlush(20) {
		t.Error("window did not restart at the flush tick")
	}
	if next := c.Flush(20, pos, vel, occupancy); next.ModeSwitches != 0 || next.WindowStartTick != 10 {
		t.Errorf("next window = start %d, switches %d", next.WindowStartTick, next.ModeSwitches)
	}
}

func TestCollectorPolarizationOpposed(t *testing.T) {
	c := NewCollector(1, 1)
	vel := []r3.Vec{{X: 1}, {X: -1}, {Y: 0.3}, {Y: -0.3}, {}}
	stats := c.Flush(1, make([]r3.Vec, len(vel)), vel, nil)
	if stats.Polarization > 1e-12 {
		t.Errorf("Polarization = %v, want 0 for cancelling headings", stats.Polarization)
	}
	if stats.OccupiedCells != 0 || stats.CellPopMax != 0 {
		t.Errorf("empty occupancy reported %d cells", stats.OccupiedCells)
	}
}
