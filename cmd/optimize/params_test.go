package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/sim"
	"github.com/pthm-cable/flock/telemetry"
)

func TestNormalizeRoundTrip(t *testing.T) {
	pv := NewParamVector()
	raw := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		if math.Abs(back[i]-raw[i]) > 1e-12 {
			t.Errorf("%s: %v -> %v", pv.Specs[i].Name, raw[i], back[i])
		}
	}
}

func TestDefaultsMatchConfig(t *testing.T) {
	pv := NewParamVector()
	got := pv.ExtractFromConfig(config.Default())
	for i, spec := range pv.Specs {
		if got[i] != spec.Default {
			t.Errorf("%s default = %v, config has %v", spec.Path, spec.Default, got[i])
		}
	}
}

func TestApplyToConfigClamps(t *testing.T) {
	pv := NewParamVector()
	cfg := config.Default()

	values := make([]float64, pv.Dim())
	for i := range values {
		values[i] = 1e9
	}
	pv.ApplyToConfig(cfg, values)

	got := pv.ExtractFromConfig(cfg)
	for i, spec := range pv.Specs {
		if got[i] != spec.Max {
			t.Errorf("%s = %v, want clamped to %v", spec.Path, got[i], spec.Max)
		}
	}
	if cfg.Derived.MaxRadius != 10 {
		t.Errorf("MaxRadius = %v, want 10", cfg.Derived.MaxRadius)
	}
}

func TestCV(t *testing.T) {
	if cv(nil) != 0 || cv([]float64{0, 0}) != 0 {
		t.Error("degenerate inputs should give 0")
	}
	if got := cv([]float64{1, 3}); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("cv = %v, want 0.5", got)
	}
}

func TestComputeFitness(t *testing.T) {
	fe := NewFitnessEvaluator(NewParamVector(), 10, []int64{1}, config.Default(), sim.ModeCoherent)
	fe.CrowdingWeight = 0

	r := &runResult{windows: []telemetry.WindowStats{
		{Polarization: 0.1}, {Polarization: 0.2},
		{Polarization: 0.9}, {Polarization: 0.9},
	}}
	fitness, pol := fe.computeFitness(r)
	if math.Abs(pol-0.9) > 1e-12 || math.Abs(fitness) > 1e-12 {
		t.Errorf("fitness = %v, polarization = %v", fitness, pol)
	}

	if fitness, _ := fe.computeFitness(&runResult{}); fitness != failedRun {
		t.Errorf("empty run fitness = %v", fitness)
	}
}

func TestEvaluateShortRun(t *testing.T) {
	cfg := config.Default()
	cfg.Simulation.ParticleCount = 200
	cfg.Scene.Scale = 15

	fe := NewFitnessEvaluator(NewParamVector(), 20, []int64{7}, cfg, sim.ModeScattered)
	fitness := fe.Evaluate(fe.params.DefaultVector())
	if fitness >= failedRun || math.IsNaN(fitness) {
		t.Errorf("fitness = %v", fitness)
	}
	if q := fe.LastQuality(); q < 0 || q > 1 {
		t.Errorf("polarization = %v", q)
	}
}
