package systems

// IdentifyCellRanges rebuilds CellStart and CellEnd from the sorted
// ParticleCell array. Every occupied cell gets exactly one start and one end;
// all other cells hold EmptyCell. Must run after SortByCell.
func (g *SpatialGrid) IdentifyCellRanges(d Dispatcher) {
	d.ParallelFor(len(g.CellStart), func(start, end int) {
		for c := start; c < end; c++ {
			g.CellStart[c] = EmptyCell
			g.CellEnd[c] = EmptyCell
		}
	})

	cells := g.ParticleCell
	n := len(cells)
	d.ParallelFor(n, func(start, end int) {
		for i := start; i < end; i++ {
			c := cells[i]
			if i == 0 {
				g.CellStart[c] = 0
			}
			if i == n-1 {
				g.CellEnd[c] = n - 1
				continue
			}
			// Edge between two runs: each boundary is written by exactly one i.
			if next := cells[i+1]; next != c {
				g.CellEnd[c] = i
				g.CellStart[next] = i + 1
			}
		}
	})
}

// CellRange returns the inclusive slot range of a cell and whether the cell
// is occupied.
func (g *SpatialGrid) CellRange(cell int) (start, end int, ok bool) {
	start = g.CellStart[cell]
	if start == EmptyCell {
		return 0, 0, false
	}
	return start, g.CellEnd[cell], true
}

// Occupancy appends the population of every occupied cell to dst.
func (g *SpatialGrid) Occupancy(dst []int) []int {
	for c, s := range g.CellStart {
		if s == EmptyCell {
			continue
		}
		dst = append(dst, g.CellEnd[c]-s+1)
	}
	return dst
}
