package sim

import (
	"sync/atomic"
	"testing"
)

func TestPoolCoversRangeOnce(t *testing.T) {
	tests := []struct {
		name      string
		workers   int
		threshold int
		n         int
	}{
		{"inline below threshold", 4, 64, 10},
		{"parallel", 4, 64, 1000},
		{"more workers than elements", 16, 1, 5},
		{"uneven chunks", 3, 1, 101},
		{"single worker", 1, 1, 500},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPool(tc.workers, tc.threshold)
			defer p.Close()

			hits := make([]int32, tc.n)
			for round := 0; round < 3; round++ {
				p.ParallelFor(tc.n, func(start, end int) {
					for i := start; i < end; i++ {
						atomic.AddInt32(&hits[i], 1)
					}
				})
			}
			for i, h := range hits {
				if h != 3 {
					t.Fatalf("index %d visited %d times, want 3", i, h)
				}
			}
		})
	}
}

func TestPoolEmptyRange(t *testing.T) {
	p := NewPool(2, 1)
	defer p.Close()

	called := false
	p.ParallelFor(0, func(start, end int) { called = true })
	if called {
		t.Error("fn called for empty range")
	}
}

func TestPoolCloseIdempotent(t *testing.T) {
	p := NewPool(4, 1)
	var sum int64
	p.ParallelFor(100, func(start, end int) {
		atomic.AddInt64(&sum, int64(end-start))
	})
	p.Close()
	p.Close()

	// A closed pool still runs work, inline.
	p.ParallelFor(50, func(start, end int) {
		atomic.AddInt64(&sum, int64(end-start))
	})
	if sum != 150 {
		t.Errorf("sum = %d, want 150", sum)
	}
}

func TestNewPoolDefaults(t *testing.T) {
	p := NewPool(0, 0)
	defer p.Close()
	if p.Workers() < 1 {
		t.Errorf("Workers = %d, want at least 1", p.Workers())
	}
	if p.threshold != defaultParallelThreshold {
		t.Errorf("threshold = %d, want %d", p.threshold, defaultParallelThreshold)
	}
}
