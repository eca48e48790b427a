package systems

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

// testRules mirrors the embedded defaults.
func testRules() Rules {
	return NewRules(Rules{
		CohesionDistance:   5,
		SeparationDistance: 3,
		AlignmentDistance:  5,
		CohesionScale:      0.01,
		SeparationScale:    0.1,
		AlignmentScale:     0.1,
		MaxSpeed:           1,
	})
}

// randomFlock returns n particles scattered in [-half, half]^3 with
// velocities up to maxSpeed on each axis.
func randomFlock(seed int64, n int, half, maxSpeed float64) (pos, vel []r3.Vec) {
	rng := rand.New(rand.NewSource(seed))
	pos = make([]r3.Vec, n)
	vel = make([]r3.Vec, n)
	ScatterPositions(rng, pos, half)
	for i := range vel {
		vel[i] = randomVec(rng, maxSpeed)
	}
	return pos, vel
}

func mustGeometry(t testing.TB, half, radius float64, double bool) Geometry {
	t.Helper()
	geom, err := NewGeometry(half, radius, double)
	if err != nil {
		t.Fatalf("NewGeometry(%v, %v, %v): %v", half, radius, double, err)
	}
	return geom
}

func vecClose(a, b r3.Vec, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol && math.Abs(a.Z-b.Z) <= tol
}

// checkPermutation fails the test unless perm holds each of [0, len) once.
func checkPermutation(t *testing.T, perm []int) {
	t.Helper()
	seen := make([]bool, len(perm))
	for i, v := range perm {
		if v < 0 || v >= len(perm) {
			t.Fatalf("perm[%d] = %d out of range [0, %d)", i, v, len(perm))
		}
		if seen[v] {
			t.Fatalf("perm value %d appears twice", v)
		}
		seen[v] = true
	}
}
