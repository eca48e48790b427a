// Package components defines the particle state buffers shared by the
// simulation stages.
package components

import "gonum.org/v1/gonum/spatial/r3"

// Particles owns the per-particle state of a flock.
//
// Pos and Vel are the current state read by every stage. VelNext receives
// the velocity update and is swapped in with SwapVelocity once the update
// stage has finished. PosShuffled and VelShuffled are scratch buffers that
// receive a cell-sorted copy of the state; SwapShuffled promotes them.
type Particles struct {
	Pos     []r3.Vec
	Vel     []r3.Vec
	VelNext []r3.Vec

	PosShuffled []r3.Vec
	VelShuffled []r3.Vec

	// Order maps a storage slot to the particle that originally occupied it.
	// Reshuffling moves payloads between slots; Order follows them so that
	// exports stay in original particle order.
	Order        []int
	orderScratch []int
}

// NewParticles allocates zeroed buffers for n particles.
func NewParticles(n int) *Particles {
	p := &Particles{
		Pos:          make([]r3.Vec, n),
		Vel:          make([]r3.Vec, n),
		VelNext:      make([]r3.Vec, n),
		PosShuffled:  make([]r3.Vec, n),
		VelShuffled:  make([]r3.Vec, n),
		Order:        make([]int, n),
		orderScratch: make([]int, n),
	}
	for i := range p.Order {
		p.Order[i] = i
	}
	return p
}

// Len returns the population size.
func (p *Particles) Len() int {
	return len(p.Pos)
}

// SwapVelocity promotes VelNext to the current velocity buffer.
func (p *Particles) SwapVelocity() {
	p.Vel, p.VelNext = p.VelNext, p.Vel
}

// SwapShuffled promotes the shuffled buffers to the primary role. The old
// primary buffers become scratch space for the next reshuffle. perm is the
// sorted particle index array the shuffle was built from.
func (p *Particles) SwapShuffled(perm []int) {
	p.Pos, p.PosShuffled = p.PosShuffled, p.Pos
	p.Vel, p.VelShuffled = p.VelShuffled, p.Vel

	for i, src := range perm {
		p.orderScratch[i] = p.Order[src]
	}
	p.Order, p.orderScratch = p.orderScratch, p.Order
}

// Release drops every buffer. The Particles value is unusable afterwards.
func (p *Particles) Release() {
	p.Pos = nil
	p.Vel = nil
	p.VelNext = nil
	p.PosShuffled = nil
	p.VelShuffled = nil
	p.Order = nil
	p.orderScratch = nil
}
