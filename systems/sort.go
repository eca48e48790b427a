package systems

import "gonum.org/v1/gonum/floats"

// sortScratch holds preallocated buffers for the key sort so that sorting
// does not allocate per step.
type sortScratch struct {
	keys []float64
	perm []int
	vals []int
}

func newSortScratch(n int) sortScratch {
	return sortScratch{
		keys: make([]float64, n),
		perm: make([]int, n),
		vals: make([]int, n),
	}
}

// SortByCell reorders ParticleIndex so that ParticleCell is ascending.
// Particles in the same cell end up contiguous in no particular order.
func (g *SpatialGrid) SortByCell() {
	sortByKey(g.ParticleCell, g.ParticleIndex, &g.scratch)
}

// SortByKey sorts keys ascending and applies the same permutation to values.
// Ties may come out in any order. Both slices must have the same length.
func SortByKey(keys, values []int) {
	s := newSortScratch(len(keys))
	sortByKey(keys, values, &s)
}

func sortByKey(keys, values []int, s *sortScratch) {
	n := len(keys)
	if len(values) != n {
		panic("systems: key and value lengths differ")
	}
	if n <= 1 {
		return
	}
	s.ensure(n)

	// Cell ids are far below 2^53 so the float64 keys are exact.
	for i, k := range keys {
		s.keys[i] = float64(k)
	}
	floats.Argsort(s.keys[:n], s.perm[:n])

	for i, src := range s.perm[:n] {
		s.vals[i] = values[src]
		keys[i] = int(s.keys[i])
	}
	copy(values, s.vals[:n])
}

func (s *sortScratch) ensure(n int) {
	if len(s.keys) < n {
		*s = newSortScratch(n)
	}
}
