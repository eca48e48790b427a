package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseHash)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseVelocity)
		time.Sleep(200 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()

	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration")
	}
	if stats.PhaseAvg[PhaseHash] <= 0 {
		t.Error("expected hash phase to be tracked")
	}
	if stats.PhaseAvg[PhaseVelocity] <= 0 {
		t.Error("expected velocity phase to be tracked")
	}
	if stats.PhaseAvg[PhaseSort] != 0 {
		t.Errorf("sort phase never ran but averaged %v", stats.PhaseAvg[PhaseSort])
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	for i := 0; i < 10; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseSort)
		pc.EndTick()
	}

	stats := pc.Stats()

	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration after window filled")
	}
	if stats.TicksPerSecond <= 0 {
		t.Error("expected positive ticks per second")
	}
	if stats.MinTickDuration > stats.MaxTickDuration {
		t.Errorf("min %v > max %v", stats.MinTickDuration, stats.MaxTickDuration)
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseCells)
		time.Sleep(10 * time.Microsecond)
		pc.StartPhase(PhaseVelocity)
		time.Sleep(2 * time.Millisecond)
		pc.EndTick()
	}

	stats := pc.Stats()

	fastPct := stats.PhasePct[PhaseCells]
	slowPct := stats.PhasePct[PhaseVelocity]
	if slowPct <= fastPct {
		t.Errorf("expected velocity phase (%v%%) > cells phase (%v%%)", slowPct, fastPct)
	}
	if total := fastPct + slowPct; total > 100.01 {
		t.Errorf("phase percentages sum to %v%%", total)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)

	stats := pc.Stats()

	if stats.AvgTickDuration != 0 {
		t.Error("expected zero avg tick duration for empty collector")
	}
	if stats.TicksPerSecond != 0 {
		t.Error("expected zero throughput for empty collector")
	}
}

func TestPerfCollector_NilIsNoop(t *testing.T) {
	var pc *PerfCollector

	pc.StartTick()
	pc.StartPhase(PhaseHash)
	pc.EndTick()
	pc.RecordFrame()

	if stats := pc.Stats(); stats.AvgTickDuration != 0 {
		t.Errorf("nil collector reported %v", stats.AvgTickDuration)
	}
}

func TestPerfCollector_FrameTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	pc.RecordFrame()
	time.Sleep(16 * time.Millisecond)
	pc.RecordFrame()

	stats := pc.Stats()

	if stats.FrameDuration < 15*time.Millisecond {
		t.Errorf("expected frame duration >= 15ms, got %v", stats.FrameDuration)
	}
	if stats.FPS <= 0 || stats.FPS > 70 {
		t.Errorf("expected FPS in (0, 70] with 16ms frame time, got %v", stats.FPS)
	}
}

func TestPhaseNames(t *testing.T) {
	want := []string{"hash", "sort", "cells", "reshuffle", "velocity", "integrate"}
	phases := Phases()
	if len(phases) != len(want) {
		t.Fatalf("Phases() = %d entries, want %d", len(phases), len(want))
	}
	for i, ph := range phases {
		if ph.String() != want[i] {
			t.Errorf("phase %d = %q, want %q", i, ph.String(), want[i])
		}
	}
	if Phase(99).String() != "unknown" {
		t.Errorf("out-of-range phase = %q", Phase(99).String())
	}
}

func TestPerfStatsToCSV(t *testing.T) {
	s := PerfStats{AvgTickDuration: 2 * time.Millisecond}
	s.PhasePct[PhaseSort] = 12.5
	s.PhasePct[PhaseIntegrate] = 3

	row := s.ToCSV(120, "coherent")

	if row.WindowEnd != 120 || row.Mode != "coherent" {
		t.Errorf("row header = %d %q", row.WindowEnd, row.Mode)
	}
	if row.AvgTickUS != 2000 {
		t.Errorf("AvgTickUS = %d, want 2000", row.AvgTickUS)
	}
	if row.SortPct != 12.5 || row.IntegratePct != 3 || row.HashPct != 0 {
		t.Errorf("phase columns = %+v", row)
	}
}
