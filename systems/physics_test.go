package systems

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestWrapAxis(t *testing.T) {
	tests := []struct {
		name string
		v    float64
		want float64
	}{
		{"inside", 12.5, 12.5},
		{"on upper face", 100, 100},
		{"on lower face", -100, -100},
		{"past upper face", 100.5, -100},
		{"past lower face", -100.5, 100},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := wrapAxis(tc.v, 100); got != tc.want {
				t.Errorf("wrapAxis(%v) = %v, want %v", tc.v, got, tc.want)
			}
		})
	}
}

func TestIntegrate(t *testing.T) {
	pos := []r3.Vec{{X: 1, Y: 2, Z: 3}, {X: 99.9}, {Z: -99.9}}
	vel := []r3.Vec{{X: 1, Y: -1, Z: 0.5}, {X: 1}, {Z: -1}}

	Integrate(Serial{}, pos, vel, 0.2, 100)

	want := []r3.Vec{{X: 1.2, Y: 1.8, Z: 3.1}, {X: -100}, {Z: 100}}
	for i := range pos {
		if !vecClose(pos[i], want[i], 1e-12) {
			t.Errorf("pos[%d] = %v, want %v", i, pos[i], want[i])
		}
	}
}

func TestIntegrateStaysInBounds(t *testing.T) {
	const half = 100
	pos, vel := randomFlock(9, 2000, half, 1)
	for step := 0; step < 50; step++ {
		Integrate(Serial{}, pos, vel, 0.2, half)
	}
	for i, p := range pos {
		for _, c := range []float64{p.X, p.Y, p.Z} {
			if c < -half || c > half {
				t.Fatalf("particle %d left the scene: %v", i, p)
			}
		}
	}
}
