package systems

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestRulesLoneParticleKeepsVelocity(t *testing.T) {
	r := testRules()
	pos := []r3.Vec{{X: 1, Y: 2, Z: 3}}
	vel := []r3.Vec{{X: 0.5, Y: -0.25, Z: 0.1}}
	next := make([]r3.Vec, 1)

	UpdateVelocityBruteForce(Serial{}, &r, pos, vel, next)

	if next[0] != vel[0] {
		t.Errorf("velocity = %v, want %v", next[0], vel[0])
	}
}

func TestRulesPairInsideSeparation(t *testing.T) {
	r := testRules()
	d := r.SeparationDistance - 1e-3
	pos := []r3.Vec{{}, {X: d}}
	vel := make([]r3.Vec, 2)
	next := make([]r3.Vec, 2)

	UpdateVelocityBruteForce(Serial{}, &r, pos, vel, next)

	// Cohesion pulls in by 0.01d, separation pushes out by 0.1d.
	want := (r.CohesionScale - r.SeparationScale) * d
	if math.Abs(next[0].X-want) > 1e-12 {
		t.Errorf("vel0.X = %v, want %v", next[0].X, want)
	}
	if next[0].X >= 0 {
		t.Errorf("vel0.X = %v, want pushed away (negative)", next[0].X)
	}
	if math.Abs(next[1].X+want) > 1e-12 {
		t.Errorf("vel1.X = %v, want %v", next[1].X, -want)
	}
	if next[0].Y != 0 || next[0].Z != 0 || next[1].Y != 0 || next[1].Z != 0 {
		t.Errorf("off-axis velocity: %v %v", next[0], next[1])
	}
}

func TestRulesRadiiAreStrict(t *testing.T) {
	r := testRules()
	pos := []r3.Vec{{}, {X: r.SeparationDistance}}
	vel := []r3.Vec{{}, {Y: 0.4}}
	next := make([]r3.Vec, 2)

	UpdateVelocityBruteForce(Serial{}, &r, pos, vel, next)

	// Exactly at the separation radius: cohesion and alignment only.
	want := r3.Vec{
		X: r.CohesionScale * r.SeparationDistance,
		Y: r.AlignmentScale * 0.4,
	}
	if !vecClose(next[0], want, 1e-12) {
		t.Errorf("velocity = %v, want %v", next[0], want)
	}
}

func TestRulesClampPerAxis(t *testing.T) {
	r := testRules()
	pos := []r3.Vec{{}, {X: 0.01}}
	vel := []r3.Vec{{X: 0.9, Y: -5, Z: 0.2}, {}}
	next := make([]r3.Vec, 2)

	UpdateVelocityBruteForce(Serial{}, &r, pos, vel, next)

	for i, v := range next {
		for _, c := range []float64{v.X, v.Y, v.Z} {
			if math.Abs(c) > r.MaxSpeed {
				t.Errorf("particle %d component %v exceeds %v", i, c, r.MaxSpeed)
			}
		}
	}
	if next[0].Y != -r.MaxSpeed {
		t.Errorf("vel0.Y = %v, want clamped to %v", next[0].Y, -r.MaxSpeed)
	}
}

func TestRulesMaxRadius(t *testing.T) {
	tests := []struct {
		name       string
		c, s, a    float64
		wantRadius float64
	}{
		{"defaults", 5, 3, 5, 5},
		{"separation widest", 2, 7, 1, 7},
		{"alignment widest", 1, 1, 9, 9},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRules(Rules{CohesionDistance: tc.c, SeparationDistance: tc.s, AlignmentDistance: tc.a})
			if got := r.MaxRadius(); got != tc.wantRadius {
				t.Errorf("MaxRadius = %v, want %v", got, tc.wantRadius)
			}
		})
	}
}
