package systems

import "testing"

// checkCellRanges verifies the start/end tables against the sorted arrays.
func checkCellRanges(t *testing.T, grid *SpatialGrid) {
	t.Helper()
	n := len(grid.ParticleCell)
	covered := make([]int, n)

	for c := 0; c < grid.CellCount; c++ {
		start, end, ok := grid.CellRange(c)
		if !ok {
			if grid.CellEnd[c] != EmptyCell {
				t.Fatalf("cell %d: start empty but end = %d", c, grid.CellEnd[c])
			}
			continue
		}
		if start > end {
			t.Fatalf("cell %d: start %d > end %d", c, start, end)
		}
		for k := start; k <= end; k++ {
			if grid.ParticleCell[k] != c {
				t.Fatalf("cell %d: slot %d belongs to cell %d", c, k, grid.ParticleCell[k])
			}
			covered[k]++
		}
	}

	// Ranges never overlap and together cover every slot.
	for k, hits := range covered {
		if hits != 1 {
			t.Fatalf("slot %d covered %d times", k, hits)
		}
	}
}

func TestIdentifyCellRangesRandom(t *testing.T) {
	for _, double := range []bool{true, false} {
		g := mustGeometry(t, 100, 5, double)
		pos, _ := randomFlock(11, 3000, 100, 1)
		grid := NewSpatialGrid(g, len(pos))

		grid.Build(Serial{}, pos)
		checkCellRanges(t, grid)
	}
}

func TestIdentifyCellRangesKnown(t *testing.T) {
	g := mustGeometry(t, 10, 5, true) // side 4, 64 cells
	grid := NewSpatialGrid(g, 6)
	copy(grid.ParticleCell, []int{2, 2, 5, 9, 9, 9})
	copy(grid.ParticleIndex, []int{4, 1, 0, 5, 2, 3})

	grid.IdentifyCellRanges(Serial{})

	want := map[int][2]int{2: {0, 1}, 5: {2, 2}, 9: {3, 5}}
	for c := 0; c < grid.CellCount; c++ {
		start, end, ok := grid.CellRange(c)
		w, occupied := want[c]
		if ok != occupied {
			t.Fatalf("cell %d occupied = %v, want %v", c, ok, occupied)
		}
		if ok && (start != w[0] || end != w[1]) {
			t.Errorf("cell %d range = [%d, %d], want [%d, %d]", c, start, end, w[0], w[1])
		}
	}
}

func TestIdentifyCellRangesSingleParticle(t *testing.T) {
	g := mustGeometry(t, 10, 5, true)
	grid := NewSpatialGrid(g, 1)
	grid.ParticleCell[0] = 17

	grid.IdentifyCellRanges(Serial{})

	start, end, ok := grid.CellRange(17)
	if !ok || start != 0 || end != 0 {
		t.Errorf("CellRange(17) = %d, %d, %v; want 0, 0, true", start, end, ok)
	}
	if occ := grid.Occupancy(nil); len(occ) != 1 || occ[0] != 1 {
		t.Errorf("Occupancy = %v, want [1]", occ)
	}
}

func TestIdentifyCellRangesClearsStaleCells(t *testing.T) {
	g := mustGeometry(t, 10, 5, true)
	grid := NewSpatialGrid(g, 3)

	copy(grid.ParticleCell, []int{1, 1, 2})
	grid.IdentifyCellRanges(Serial{})
	copy(grid.ParticleCell, []int{40, 40, 40})
	grid.IdentifyCellRanges(Serial{})

	for _, c := range []int{1, 2} {
		if _, _, ok := grid.CellRange(c); ok {
			t.Errorf("cell %d still occupied after rebuild", c)
		}
	}
	if start, end, ok := grid.CellRange(40); !ok || start != 0 || end != 2 {
		t.Errorf("CellRange(40) = %d, %d, %v; want 0, 2, true", start, end, ok)
	}
}

func TestOccupancySumsToPopulation(t *testing.T) {
	g := mustGeometry(t, 30, 5, true)
	pos, _ := randomFlock(5, 777, 30, 1)
	grid := NewSpatialGrid(g, len(pos))
	grid.Build(Serial{}, pos)

	total := 0
	for _, n := range grid.Occupancy(nil) {
		total += n
	}
	if total != len(pos) {
		t.Errorf("occupancy total = %d, want %d", total, len(pos))
	}
}
