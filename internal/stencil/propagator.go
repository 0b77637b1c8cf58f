package stencil

import (
	"github.com/seisgo/fwigrad/internal/grid"
)

// Fourth-order central-difference weights for the second derivative.
// The centre weight is minus the sum of the others so a constant field
// has zero Laplacian.
const (
	w1 = 4.0 / 3.0
	w2 = -1.0 / 12.0
)

// guard is the half-width of the spatial stencil; points closer than
// this to the padded boundary are never updated.
const guard = 2

// Propagator advances an acoustic wavefield on a padded grid with the
// shared forward/adjoint stencil
//
//	p_new = 2*p_cur - p_prev + v²dt² * L(p_cur)
//
// where L is the fourth-order Laplacian. The velocity term vv holds
// v²dt² on the padded grid and is read-only during propagation.
type Propagator struct {
	g       grid.Grid
	vv      []float64
	workers int

	c0, c1z, c2z, c1x, c2x float64
}

// New builds a propagator for the grid and padded v²dt² array.
// workers bounds the spatial parallelism of one sweep; 0 means
// GOMAXPROCS, 1 disables parallelism.
func New(g grid.Grid, vv []float64, workers int) *Propagator {
	if len(vv) != g.PadSize() {
		panic("stencil: velocity array size mismatch")
	}
	idz2 := 1.0 / (g.Dz * g.Dz)
	idx2 := 1.0 / (g.Dx * g.Dx)
	return &Propagator{
		g:       g,
		vv:      vv,
		workers: workers,
		c1z:     w1 * idz2,
		c2z:     w2 * idz2,
		c1x:     w1 * idx2,
		c2x:     w2 * idx2,
		c0:      -2.0 * (w1 + w2) * (idz2 + idx2),
	}
}

// StepForward advances the pair one time step: the previous slice is
// overwritten with the new one. Call Swap on the pair afterwards.
func (pr *Propagator) StepForward(w *Pair) {
	pr.sweep(w.Prev(), w.Cur(), nil, nil)
}

// StepAdjoint is the backward-pass variant. In the same sweep, before
// the update, it writes the plain second-order 5-point Laplacian of
// the current slice into lap and accumulates the squared current
// amplitude into illum. Both observe the pre-update field.
func (pr *Propagator) StepAdjoint(w *Pair, lap, illum []float64) {
	if len(lap) != pr.g.PadSize() || len(illum) != pr.g.PadSize() {
		panic("stencil: adjoint scratch size mismatch")
	}
	pr.sweep(w.Prev(), w.Cur(), lap, illum)
}

func (pr *Propagator) sweep(p0, p1, lap, illum []float64) {
	g := pr.g
	nzp := g.Nzpad()
	nxp := g.Nxpad()
	vv := pr.vv
	c0, c1z, c2z, c1x, c2x := pr.c0, pr.c1z, pr.c2z, pr.c1x, pr.c2x

	parallelSweep(pr.workers, guard, nxp-guard, func(lo, hi int) {
		for ix := lo; ix < hi; ix++ {
			base := nzp * ix
			for iz := guard; iz < nzp-guard; iz++ {
				i := base + iz
				cur := p1[i]
				if lap != nil {
					lap[i] = p1[i-1] + p1[i+1] + p1[i-nzp] + p1[i+nzp] - 4*cur
					illum[i] += cur * cur
				}
				l := c0*cur +
					c1z*(p1[i-1]+p1[i+1]) + c2z*(p1[i-2]+p1[i+2]) +
					c1x*(p1[i-nzp]+p1[i+nzp]) + c2x*(p1[i-2*nzp]+p1[i+2*nzp])
				p0[i] = 2*cur - p0[i] + vv[i]*l
			}
		}
	})
}
