// Package gpu runs the velocity and integration stages on an OpenCL device.
// The solver is only compiled with the opencl build tag; the default build
// returns ErrUnavailable from NewSolver.
package gpu

import (
	"errors"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/flock/systems"
)

// ErrUnavailable is returned when no OpenCL solver can be created.
var ErrUnavailable = errors.New("OpenCL solver unavailable")

// Kernel selects the velocity kernel variant.
type Kernel int

const (
	KernelBruteForce Kernel = iota
	KernelScattered
	KernelCoherent
)

// Params sizes a solver.
type Params struct {
	Rules     systems.Rules
	Geometry  systems.Geometry
	Particles int
}

// packVecs narrows vectors into a flat xyz float32 buffer.
func packVecs(dst []float32, src []r3.Vec) []float32 {
	dst = growFloat32(dst, 3*len(src))
	for i, v := range src {
		dst[3*i] = float32(v.X)
		dst[3*i+1] = float32(v.Y)
		dst[3*i+2] = float32(v.Z)
	}
	return dst
}

// unpackVecs widens a flat xyz float32 buffer into dst.
func unpackVecs(dst []r3.Vec, src []float32) {
	for i := range dst {
		dst[i] = r3.Vec{
			X: float64(src[3*i]),
			Y: float64(src[3*i+1]),
			Z: float64(src[3*i+2]),
		}
	}
}

// packInts narrows grid tables to the int32 the kernels index with.
func packInts(dst []int32, src []int) []int32 {
	if cap(dst) < len(src) {
		dst = make([]int32, len(src))
	}
	dst = dst[:len(src)]
	for i, v := range src {
		dst[i] = int32(v)
	}
	return dst
}

func growFloat32(buf []float32, n int) []float32 {
	if cap(buf) < n {
		return make([]float32, n)
	}
	return buf[:n]
}
