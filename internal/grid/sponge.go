package grid

import "math"

// Sponge is the multiplicative absorbing taper applied near the padded
// edges. The profile runs from the outer edge of the pad (strongest
// damping) to the interior boundary (no damping); the free surface at
// the top is never damped.
type Sponge struct {
	g    Grid
	bndr []float64
}

// NewSponge precomputes the damping profile for the grid's border
// width: bndr[i] = exp(-(0.015*(nb-i))^2) for i in [0, nb).
func NewSponge(g Grid) *Sponge {
	bndr := make([]float64, g.Nb)
	for i := range bndr {
		d := 0.015 * float64(g.Nb-i)
		bndr[i] = math.Exp(-d * d)
	}
	return &Sponge{g: g, bndr: bndr}
}

// Profile exposes the damping coefficients, outer edge first.
func (s *Sponge) Profile() []float64 { return s.bndr }

// Apply damps a padded field in place along the left, right and bottom
// pads. The forward and adjoint propagators call this on both time
// slices after every step so the two operators stay consistent.
func (s *Sponge) Apply(p []float64) {
	g := s.g
	nzp, nxp := g.Nzpad(), g.Nxpad()
	for ix := 0; ix < nxp; ix++ {
		col := p[nzp*ix : nzp*(ix+1)]
		for iz := g.Nz; iz < nzp; iz++ {
			col[iz] *= s.bndr[nzp-1-iz] // bottom pad
		}
	}
	for ix := 0; ix < g.Nb; ix++ {
		w := s.bndr[ix]
		left := p[nzp*ix : nzp*(ix+1)]
		right := p[nzp*(nxp-1-ix) : nzp*(nxp-ix)]
		for iz := range left {
			left[iz] *= w
		}
		for iz := range right {
			right[iz] *= w
		}
	}
}
