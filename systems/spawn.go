package systems

import (
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

// ScatterPositions places every particle uniformly at random inside the
// cube [-halfExtent, halfExtent]^3.
func ScatterPositions(rng *rand.Rand, pos []r3.Vec, halfExtent float64) {
	for i := range pos {
		pos[i] = randomVec(rng, halfExtent)
	}
}

// ScatterVelocities gives every particle a small random velocity so the
// flock does not start from rest.
func ScatterVelocities(rng *rand.Rand, vel []r3.Vec, maxSpeed float64) {
	for i := range vel {
		vel[i] = randomVec(rng, maxSpeed*0.1)
	}
}

func randomVec(rng *rand.Rand, scale float64) r3.Vec {
	return r3.Vec{
		X: (rng.Float64()*2 - 1) * scale,
		Y: (rng.Float64()*2 - 1) * scale,
		Z: (rng.Float64()*2 - 1) * scale,
	}
}

// maxRejections bounds the draws per particle in ClusterPositions. The last
// candidate is kept so seeding always terminates.
const maxRejections = 64

// ClusterPositions places particles in clumps by rejection sampling against
// Perlin noise. features is the number of noise periods across the cube;
// larger values give more, smaller clumps.
func ClusterPositions(rng *rand.Rand, pos []r3.Vec, halfExtent, features float64) {
	noise := NewPerlinNoise(rng)
	freq := features / (2 * halfExtent)

	for i := range pos {
		var p r3.Vec
		for try := 0; try < maxRejections; try++ {
			p = randomVec(rng, halfExtent)
			if rng.Float64() < clusterDensity(noise.Noise(r3.Scale(freq, p))) {
				break
			}
		}
		pos[i] = p
	}
}

// clusterDensity maps a noise value to an acceptance probability that
// strongly favors noise peaks.
func clusterDensity(n float64) float64 {
	d := clampFloat((n+1)/2, 0, 1)
	d *= d
	return d * d
}
