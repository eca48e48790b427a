package systems

// Dispatcher runs fn over [0, n) split into contiguous chunks and returns
// only after every chunk has finished. That return is the barrier between
// pipeline stages.
type Dispatcher interface {
	ParallelFor(n int, fn func(start, end int))
}

// Serial runs every stage inline on the calling goroutine.
type Serial struct{}

// ParallelFor calls fn once for the whole range.
func (Serial) ParallelFor(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	fn(0, n)
}
