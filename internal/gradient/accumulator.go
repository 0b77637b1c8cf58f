// Package gradient accumulates the adjoint-state cross-correlation
// into a misfit gradient and post-processes it for output: velocity
// scaling, optional illumination preconditioning, bell smoothing and
// near-surface muting.
package gradient

import "github.com/seisgo/fwigrad/internal/grid"

// Accumulator collects the gradient and illumination sums for one
// outer iteration. Grad lives on the interior grid; Illum stays padded
// because the propagator writes it during the adjoint sweep and it is
// windowed only at output time.
type Accumulator struct {
	g     grid.Grid
	Grad  []float64
	Illum []float64
}

// NewAccumulator allocates zeroed accumulators for the grid.
func NewAccumulator(g grid.Grid) *Accumulator {
	return &Accumulator{
		g:     g,
		Grad:  make([]float64, g.Size()),
		Illum: make([]float64, g.PadSize()),
	}
}

// Reset clears both sums at the start of an outer iteration.
func (a *Accumulator) Reset() {
	for i := range a.Grad {
		a.Grad[i] = 0
	}
	for i := range a.Illum {
		a.Illum[i] = 0
	}
}

// Add accumulates one backward time step: the elementwise product of
// the plain Laplacian of the reconstructed source field and the
// adjoint field, both padded, restricted to the interior.
func (a *Accumulator) Add(lap, adj []float64) {
	g := a.g
	nzp := g.Nzpad()
	for ix := 0; ix < g.Nx; ix++ {
		off := nzp * (ix + g.Nb)
		row := a.Grad[g.Nz*ix : g.Nz*(ix+1)]
		for iz := range row {
			row[iz] += lap[off+iz] * adj[off+iz]
		}
	}
}

// Merge folds another accumulator into this one. Gradient and
// illumination sums are commutative, so shot-parallel workers can
// accumulate privately and reduce here; the floating-point result may
// differ from sequential accumulation by rounding only.
func (a *Accumulator) Merge(b *Accumulator) {
	for i, v := range b.Grad {
		a.Grad[i] += v
	}
	for i, v := range b.Illum {
		a.Illum[i] += v
	}
}
