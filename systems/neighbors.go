package systems

import "gonum.org/v1/gonum/spatial/r3"

// UpdateVelocityBruteForce computes the next velocity of every particle by
// visiting all other particles. O(N^2); the reference for the grid variants.
// vel is only read and velNext only written, so no particle observes
// another's updated velocity.
func UpdateVelocityBruteForce(d Dispatcher, r *Rules, pos, vel, velNext []r3.Vec) {
	n := len(pos)
	d.ParallelFor(n, func(start, end int) {
		for i := start; i < end; i++ {
			var in influence
			self := pos[i]
			for j := 0; j < n; j++ {
				if j == i {
					continue
				}
				in.add(r, self, pos[j], vel[j])
			}
			velNext[i] = in.resolve(r, self, vel[i])
		}
	})
}

// UpdateVelocityScattered computes next velocities by visiting only the
// grid cells that can hold neighbors, following ParticleIndex from each
// sorted slot to the particle's storage slot. Requires Build on pos.
func (g *SpatialGrid) UpdateVelocityScattered(d Dispatcher, r *Rules, pos, vel, velNext []r3.Vec) {
	d.ParallelFor(len(pos), func(start, end int) {
		for i := start; i < end; i++ {
			in := g.accumulate(r, i, pos, vel, true)
			velNext[i] = in.resolve(r, pos[i], vel[i])
		}
	})
}

// UpdateVelocityCoherent is UpdateVelocityScattered for state that has been
// reshuffled into sorted-slot order, so a cell range indexes pos and vel
// directly.
func (g *SpatialGrid) UpdateVelocityCoherent(d Dispatcher, r *Rules, pos, vel, velNext []r3.Vec) {
	d.ParallelFor(len(pos), func(start, end int) {
		for i := start; i < end; i++ {
			in := g.accumulate(r, i, pos, vel, false)
			velNext[i] = in.resolve(r, pos[i], vel[i])
		}
	})
}

// accumulate gathers rule contributions for slot i from the candidate cells.
func (g *SpatialGrid) accumulate(r *Rules, i int, pos, vel []r3.Vec, indirect bool) influence {
	var in influence
	self := pos[i]

	lo, hi, ok := g.searchBounds(self)
	if !ok {
		return in
	}

	for z := lo[2]; z <= hi[2]; z++ {
		for y := lo[1]; y <= hi[1]; y++ {
			row := g.CellID(0, y, z)
			for x := lo[0]; x <= hi[0]; x++ {
				cell := row + x
				s := g.CellStart[cell]
				if s == EmptyCell {
					continue
				}
				e := g.CellEnd[cell]
				for k := s; k <= e; k++ {
					j := k
					if indirect {
						j = g.ParticleIndex[k]
					}
					if j == i {
						continue
					}
					in.add(r, self, pos[j], vel[j])
				}
			}
		}
	}
	return in
}

// searchBounds returns the inclusive per-axis range of cells that can hold a
// neighbor of p. With double-width cells only the half of the 3x3x3 block
// facing p's position inside its cell is searched (8 cells). Ranges are
// clipped to [0, Side); ok is false when p has no usable cell coordinate.
func (g *SpatialGrid) searchBounds(p r3.Vec) (lo, hi [3]int, ok bool) {
	cell, frac, ok := g.CellCoord(p)
	if !ok {
		return lo, hi, false
	}

	last := g.Side - 1
	for axis := range cell {
		c := cell[axis]
		switch {
		case !g.DoubleWidth:
			lo[axis], hi[axis] = c-1, c+1
		case frac[axis] < 0.5:
			lo[axis], hi[axis] = c-1, c
		default:
			lo[axis], hi[axis] = c, c+1
		}
		if lo[axis] < 0 {
			lo[axis] = 0
		}
		if hi[axis] > last {
			hi[axis] = last
		}
		if lo[axis] > hi[axis] {
			return lo, hi, false
		}
	}
	return lo, hi, true
}

// NeighborCells appends the ids of every in-range cell searched for a
// particle at p.
func (g *SpatialGrid) NeighborCells(p r3.Vec, dst []int) []int {
	lo, hi, ok := g.searchBounds(p)
	if !ok {
		return dst
	}
	for z := lo[2]; z <= hi[2]; z++ {
		for y := lo[1]; y <= hi[1]; y++ {
			for x := lo[0]; x <= hi[0]; x++ {
				dst = append(dst, g.CellID(x, y, z))
			}
		}
	}
	return dst
}
