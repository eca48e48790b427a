//go:build !opencl

package gpu

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/flock/systems"
)

// Solver is a placeholder in builds without OpenCL support.
type Solver struct{}

// NewSolver always fails without the opencl build tag.
func NewSolver(Params) (*Solver, error) {
	return nil, fmt.Errorf("%w: rebuild with -tags opencl", ErrUnavailable)
}

func (s *Solver) UpdateVelocity(Kernel, *systems.SpatialGrid, []r3.Vec, []r3.Vec, []r3.Vec) error {
	return ErrUnavailable
}

func (s *Solver) Integrate([]r3.Vec, []r3.Vec, float64, float64) error {
	return ErrUnavailable
}

func (s *Solver) Close() {}

func (s *Solver) DeviceName() string { return "" }
