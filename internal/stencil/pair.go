// Package stencil implements the explicit finite-difference acoustic
// propagator: second-order in time, fourth-order in space, shared by
// forward and adjoint passes (the operator is self-adjoint).
package stencil

// Pair holds the two time slices of a wavefield. Ownership of the
// "current" and "previous" roles alternates via an index toggle; the
// underlying buffers are never copied.
type Pair struct {
	bufs [2][]float64
	cur  int
}

// NewPair allocates a zeroed wavefield pair of n elements per slice.
func NewPair(n int) *Pair {
	return &Pair{bufs: [2][]float64{make([]float64, n), make([]float64, n)}}
}

// Cur returns the current time slice.
func (p *Pair) Cur() []float64 { return p.bufs[p.cur] }

// Prev returns the previous time slice. After a step has written the
// new slice into it, Swap promotes it to current.
func (p *Pair) Prev() []float64 { return p.bufs[1-p.cur] }

// Swap exchanges the current/previous roles. This is the only
// synchronisation point between consecutive time steps.
func (p *Pair) Swap() { p.cur = 1 - p.cur }

// Zero clears both slices for reuse on the next shot.
func (p *Pair) Zero() {
	for i := range p.bufs {
		b := p.bufs[i]
		for j := range b {
			b[j] = 0
		}
	}
}
