//go:build !opencl

package gpu

import (
	"errors"
	"testing"
)

func TestNewSolverUnavailable(t *testing.T) {
	s, err := NewSolver(Params{Particles: 10})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	if s != nil {
		t.Error("expected nil solver")
	}
}
