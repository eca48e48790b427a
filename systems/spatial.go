// Package systems implements the stages of a flocking step: grid bucketing,
// neighbor search and integration.
package systems

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// EmptyCell marks a grid cell that holds no particles in the start/end tables.
const EmptyCell = -1

// maxCellCount caps the size of the start/end tables.
const maxCellCount = 1 << 27

// ErrGridTooLarge is returned when the scene extent and rule radii would
// produce more cells than the start/end tables may hold.
var ErrGridTooLarge = errors.New("grid too large")

// Geometry describes a uniform cubic grid covering the scene.
// It is computed once and never changes.
type Geometry struct {
	CellWidth    float64
	InvCellWidth float64
	Origin       r3.Vec // Minimum corner
	Side         int    // Cells per axis
	CellCount    int    // Side^3
	DoubleWidth  bool   // Cells are twice the largest rule radius wide
}

// NewGeometry sizes a grid for a scene spanning [-halfExtent, halfExtent]
// on every axis. The cell width is maxRadius, or 2*maxRadius when
// doubleWidth is set.
func NewGeometry(halfExtent, maxRadius float64, doubleWidth bool) (Geometry, error) {
	if !(halfExtent > 0) || !(maxRadius > 0) {
		return Geometry{}, fmt.Errorf("grid extent %v and radius %v must be positive", halfExtent, maxRadius)
	}

	cellWidth := maxRadius
	if doubleWidth {
		cellWidth *= 2
	}

	halfSide := halfExtent/cellWidth + 1
	if halfSide*2 > math.Cbrt(maxCellCount) {
		return Geometry{}, fmt.Errorf("%w: %.0f cells per axis", ErrGridTooLarge, halfSide*2)
	}
	halfSideCount := int(halfSide)
	side := 2 * halfSideCount

	halfWidth := cellWidth * float64(halfSideCount)
	return Geometry{
		CellWidth:    cellWidth,
		InvCellWidth: 1 / cellWidth,
		Origin:       r3.Vec{X: -halfWidth, Y: -halfWidth, Z: -halfWidth},
		Side:         side,
		CellCount:    side * side * side,
		DoubleWidth:  doubleWidth,
	}, nil
}

// CellID flattens a 3-D cell coordinate.
func (g *Geometry) CellID(x, y, z int) int {
	return x + y*g.Side + z*g.Side*g.Side
}

// CellCoord returns the unclamped cell coordinate containing p along with
// the fractional position inside that cell on each axis.
func (g *Geometry) CellCoord(p r3.Vec) (cell [3]int, frac [3]float64, ok bool) {
	rel := r3.Scale(g.InvCellWidth, r3.Sub(p, g.Origin))
	for axis, v := range [3]float64{rel.X, rel.Y, rel.Z} {
		if math.IsNaN(v) {
			return cell, frac, false
		}
		// Keep the conversion inside int range; anything this far out is
		// outside the grid either way.
		f := math.Floor(clampFloat(v, -2, float64(g.Side)+1))
		cell[axis] = int(f)
		frac[axis] = v - f
	}
	return cell, frac, true
}

// cellIndex returns the flat cell id for a world position, clamped to the grid.
func (g *Geometry) cellIndex(p r3.Vec) int {
	cell, _, ok := g.CellCoord(p)
	if !ok {
		return 0
	}
	last := g.Side - 1
	return g.CellID(
		clampInt(cell[0], 0, last),
		clampInt(cell[1], 0, last),
		clampInt(cell[2], 0, last),
	)
}

// SpatialGrid holds the per-step bucketing state: the particle index array,
// the parallel cell-id array and the per-cell start/end tables.
type SpatialGrid struct {
	Geometry

	// ParticleIndex is always a permutation of [0, N). After SortByCell,
	// particles sharing a cell are contiguous.
	ParticleIndex []int
	// ParticleCell holds the cell id of ParticleIndex[i] at slot i.
	ParticleCell []int

	// CellStart and CellEnd hold inclusive ranges into ParticleIndex, or
	// EmptyCell for unoccupied cells.
	CellStart []int
	CellEnd   []int

	scratch sortScratch
}

// NewSpatialGrid allocates bucketing buffers for n particles.
func NewSpatialGrid(geom Geometry, n int) *SpatialGrid {
	g := &SpatialGrid{
		Geometry:      geom,
		ParticleIndex: make([]int, n),
		ParticleCell:  make([]int, n),
		CellStart:     make([]int, geom.CellCount),
		CellEnd:       make([]int, geom.CellCount),
		scratch:       newSortScratch(n),
	}
	for i := range g.CellStart {
		g.CellStart[i] = EmptyCell
		g.CellEnd[i] = EmptyCell
	}
	return g
}

// ComputeIndices labels every particle with its own id and current cell id.
func (g *SpatialGrid) ComputeIndices(d Dispatcher, pos []r3.Vec) {
	d.ParallelFor(len(pos), func(start, end int) {
		for i := start; i < end; i++ {
			g.ParticleIndex[i] = i
			g.ParticleCell[i] = g.cellIndex(pos[i])
		}
	})
}

// Build runs the full bucketing pipeline: label, sort, extract ranges.
func (g *SpatialGrid) Build(d Dispatcher, pos []r3.Vec) {
	g.ComputeIndices(d, pos)
	g.SortByCell()
	g.IdentifyCellRanges(d)
}

// Release drops every buffer.
func (g *SpatialGrid) Release() {
	g.ParticleIndex = nil
	g.ParticleCell = nil
	g.CellStart = nil
	g.CellEnd = nil
	g.scratch = sortScratch{}
}
