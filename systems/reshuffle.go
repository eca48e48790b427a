package systems

import "gonum.org/v1/gonum/spatial/r3"

// Reshuffle copies the state of particle perm[i] into slot i of posOut and
// velOut, giving a cell-contiguous layout when perm is the sorted
// ParticleIndex. The input buffers are not modified.
func Reshuffle(d Dispatcher, perm []int, pos, vel, posOut, velOut []r3.Vec) {
	d.ParallelFor(len(perm), func(start, end int) {
		for i := start; i < end; i++ {
			src := perm[i]
			posOut[i] = pos[src]
			velOut[i] = vel[src]
		}
	})
}

// Unshuffle scatters sorted-slot state back to particle order: slot i of
// posIn and velIn is written to perm[i] of posOut and velOut. It undoes
// Reshuffle for the same perm.
func Unshuffle(d Dispatcher, perm []int, posIn, velIn, posOut, velOut []r3.Vec) {
	d.ParallelFor(len(perm), func(start, end int) {
		for i := start; i < end; i++ {
			dst := perm[i]
			posOut[dst] = posIn[i]
			velOut[dst] = velIn[i]
		}
	})
}
