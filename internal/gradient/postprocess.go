package gradient

import (
	"math"

	"github.com/seisgo/fwigrad/internal/grid"
)

// eps guards divisions in the scaling steps.
const eps = 1e-15

// PostOptions selects the post-processing applied after all shots of
// an iteration have accumulated.
type PostOptions struct {
	// Precondition divides by sqrt(illumination) to compensate for
	// uneven energy deposition near the sources.
	Precondition bool
	// Smooth applies the separable bell convolution with radius RBell.
	Smooth bool
	RBell  int
	// MuteRows zeroes this many of the shallowest rows before output.
	MuteRows int
}

// Process finalises the accumulated gradient in place. vel is the raw
// interior velocity model (physical units, not squared); illum is the
// padded illumination sum.
func Process(g grid.Grid, grad, vel, illum []float64, opt PostOptions) {
	scale(g, grad, vel, illum, opt.Precondition)
	replicateEdges(g, grad)
	if opt.Smooth && opt.RBell > 0 {
		smoothZ(g, grad, opt.RBell)
		smoothX(g, grad, opt.RBell)
	}
	muteTop(g, grad, opt.MuteRows)
}

func scale(g grid.Grid, grad, vel, illum []float64, precondition bool) {
	for ix := 0; ix < g.Nx; ix++ {
		for iz := 0; iz < g.Nz; iz++ {
			i := g.Idx(iz, ix)
			s := 2.0 / vel[i]
			if precondition {
				s /= math.Sqrt(illum[g.PadIdx(iz, ix)] + eps)
			}
			grad[i] *= s
		}
	}
}

// replicateEdges copies the first interior row/column onto the
// outermost ones, a zero-gradient boundary for the model update.
func replicateEdges(g grid.Grid, grad []float64) {
	nz, nx := g.Nz, g.Nx
	for ix := 0; ix < nx; ix++ {
		grad[g.Idx(0, ix)] = grad[g.Idx(1, ix)]
		grad[g.Idx(nz-1, ix)] = grad[g.Idx(nz-2, ix)]
	}
	for iz := 0; iz < nz; iz++ {
		grad[g.Idx(iz, 0)] = grad[g.Idx(iz, 1)]
		grad[g.Idx(iz, nx-1)] = grad[g.Idx(iz, nx-2)]
	}
}

// bell returns the unnormalised Gaussian weights exp(-2i²/r) for
// offsets i in [-r, r]. The weights deliberately do not sum to one;
// the smoothed gradient keeps the reference amplitude convention.
func bell(r int) []float64 {
	w := make([]float64, 2*r+1)
	for i := -r; i <= r; i++ {
		w[i+r] = math.Exp(-2.0 * float64(i*i) / float64(r))
	}
	return w
}

func smoothZ(g grid.Grid, grad []float64, r int) {
	w := bell(r)
	col := make([]float64, g.Nz)
	for ix := 0; ix < g.Nx; ix++ {
		copy(col, grad[g.Nz*ix:g.Nz*(ix+1)])
		for iz := 0; iz < g.Nz; iz++ {
			var s float64
			for k := -r; k <= r; k++ {
				jz := iz + k
				if jz < 0 || jz >= g.Nz {
					continue
				}
				s += w[k+r] * col[jz]
			}
			grad[g.Idx(iz, ix)] = s
		}
	}
}

func smoothX(g grid.Grid, grad []float64, r int) {
	w := bell(r)
	row := make([]float64, g.Nx)
	for iz := 0; iz < g.Nz; iz++ {
		for ix := 0; ix < g.Nx; ix++ {
			row[ix] = grad[g.Idx(iz, ix)]
		}
		for ix := 0; ix < g.Nx; ix++ {
			var s float64
			for k := -r; k <= r; k++ {
				jx := ix + k
				if jx < 0 || jx >= g.Nx {
					continue
				}
				s += w[k+r] * row[jx]
			}
			grad[g.Idx(iz, ix)] = s
		}
	}
}

func muteTop(g grid.Grid, grad []float64, rows int) {
	if rows > g.Nz {
		rows = g.Nz
	}
	for ix := 0; ix < g.Nx; ix++ {
		for iz := 0; iz < rows; iz++ {
			grad[g.Idx(iz, ix)] = 0
		}
	}
}
