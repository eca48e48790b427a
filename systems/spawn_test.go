package systems

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestPerlinNoiseLatticeZero(t *testing.T) {
	noise := NewPerlinNoise(rand.New(rand.NewSource(3)))

	// Gradient noise vanishes at integer lattice points.
	for _, p := range []r3.Vec{{}, {X: 1, Y: 2, Z: 3}, {X: -4, Y: 7, Z: 300}} {
		if got := noise.Noise(p); math.Abs(got) > 1e-12 {
			t.Errorf("Noise(%v) = %v, want 0", p, got)
		}
	}
}

func TestPerlinNoiseDeterministic(t *testing.T) {
	a := NewPerlinNoise(rand.New(rand.NewSource(11)))
	b := NewPerlinNoise(rand.New(rand.NewSource(11)))

	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 200; i++ {
		p := randomVec(rng, 20)
		na, nb := a.Noise(p), b.Noise(p)
		if na != nb {
			t.Fatalf("same seed differs at %v: %v vs %v", p, na, nb)
		}
		if na < -1.5 || na > 1.5 {
			t.Fatalf("Noise(%v) = %v out of range", p, na)
		}
	}
}

func TestScatterPositionsBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	pos := make([]r3.Vec, 1000)
	vel := make([]r3.Vec, 1000)
	ScatterPositions(rng, pos, 10)
	ScatterVelocities(rng, vel, 2)

	for i := range pos {
		if math.Abs(pos[i].X) > 10 || math.Abs(pos[i].Y) > 10 || math.Abs(pos[i].Z) > 10 {
			t.Fatalf("pos[%d] = %v outside cube", i, pos[i])
		}
		if math.Abs(vel[i].X) > 0.2 || math.Abs(vel[i].Y) > 0.2 || math.Abs(vel[i].Z) > 0.2 {
			t.Fatalf("vel[%d] = %v above a tenth of max speed", i, vel[i])
		}
	}
}

func TestClusterPositions(t *testing.T) {
	const (
		n    = 4000
		half = 30.0
	)
	uniform := make([]r3.Vec, n)
	clustered := make([]r3.Vec, n)
	ScatterPositions(rand.New(rand.NewSource(8)), uniform, half)
	ClusterPositions(rand.New(rand.NewSource(8)), clustered, half, 3)

	for i, p := range clustered {
		if math.Abs(p.X) > half || math.Abs(p.Y) > half || math.Abs(p.Z) > half {
			t.Fatalf("clustered[%d] = %v outside cube", i, p)
		}
	}

	geom := mustGeometry(t, half, 5, true)
	peak := func(pos []r3.Vec) int {
		grid := NewSpatialGrid(geom, len(pos))
		grid.Build(Serial{}, pos)
		best := 0
		for _, c := range grid.Occupancy(nil) {
			best = max(best, c)
		}
		return best
	}

	if pu, pc := peak(uniform), peak(clustered); pc <= pu {
		t.Errorf("clustered peak cell %d not above uniform peak %d", pc, pu)
	}
}

func TestClusterDensity(t *testing.T) {
	tests := []struct {
		noise, want float64
	}{
		{-1, 0},
		{-5, 0},
		{0, 0.0625},
		{1, 1},
		{3, 1},
	}
	for _, tt := range tests {
		if got := clusterDensity(tt.noise); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("clusterDensity(%v) = %v, want %v", tt.noise, got, tt.want)
		}
	}
}
