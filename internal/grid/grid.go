// Package grid describes the finite-difference computation grid: the
// physical interior region, the absorbing pad wrapped around it, and
// the conversions between padded and unpadded arrays.
package grid

import "fmt"

// Grid holds the geometry of a 2-D acoustic model. The interior region
// is Nz x Nx cells with spacing Dz, Dx (metres). An absorbing border of
// Nb cells is added on the left, right and bottom edges; the top edge
// is the free surface and carries no pad.
//
// Padded arrays are flat row-major []float64 of size Nzpad()*Nxpad(),
// indexed z + Nzpad()*x to match the column-linearised position
// convention used by acquisition geometries. The interior cell (iz, ix)
// lives at padded coordinates (iz, ix+Nb).
type Grid struct {
	Nz, Nx int
	Dz, Dx float64
	Nb     int
}

// New validates the geometry and returns a Grid.
func New(nz, nx int, dz, dx float64, nb int) (Grid, error) {
	if nz <= 0 || nx <= 0 {
		return Grid{}, fmt.Errorf("grid: non-positive dimensions %dx%d", nz, nx)
	}
	if dz <= 0 || dx <= 0 {
		return Grid{}, fmt.Errorf("grid: non-positive spacing dz=%g dx=%g", dz, dx)
	}
	if nb < 0 {
		return Grid{}, fmt.Errorf("grid: negative border width %d", nb)
	}
	return Grid{Nz: nz, Nx: nx, Dz: dz, Dx: dx, Nb: nb}, nil
}

// Nzpad returns the padded depth extent. Only the bottom edge is
// padded; the free surface stays at row zero.
func (g Grid) Nzpad() int { return g.Nz + g.Nb }

// Nxpad returns the padded lateral extent (pad on both sides).
func (g Grid) Nxpad() int { return g.Nx + 2*g.Nb }

// PadSize returns the element count of a padded array.
func (g Grid) PadSize() int { return g.Nzpad() * g.Nxpad() }

// Size returns the element count of an interior array.
func (g Grid) Size() int { return g.Nz * g.Nx }

// PadIdx maps interior coordinates to a padded flat index.
func (g Grid) PadIdx(iz, ix int) int { return iz + g.Nzpad()*(ix+g.Nb) }

// Idx maps interior coordinates to an interior flat index.
func (g Grid) Idx(iz, ix int) int { return iz + g.Nz*ix }

// Expand copies the interior array src (Nz*Nx) into the padded array
// dst (PadSize()), then fills the absorbing border by constant
// extrapolation of the nearest interior value: the bottom pad
// replicates the last interior row, the side pads replicate the first
// and last interior columns.
func (g Grid) Expand(dst, src []float64) {
	if len(dst) != g.PadSize() || len(src) != g.Size() {
		panic("grid: expand size mismatch")
	}
	nzp := g.Nzpad()
	for ix := 0; ix < g.Nx; ix++ {
		col := dst[nzp*(ix+g.Nb):]
		copy(col[:g.Nz], src[g.Nz*ix:g.Nz*(ix+1)])
		for iz := g.Nz; iz < nzp; iz++ {
			col[iz] = src[g.Nz*ix+g.Nz-1]
		}
	}
	for ix := 0; ix < g.Nb; ix++ {
		left := dst[nzp*g.Nb : nzp*(g.Nb+1)]
		right := dst[nzp*(g.Nxpad()-g.Nb-1) : nzp*(g.Nxpad()-g.Nb)]
		copy(dst[nzp*ix:nzp*(ix+1)], left)
		copy(dst[nzp*(g.Nxpad()-1-ix):nzp*(g.Nxpad()-ix)], right)
	}
}

// Window extracts the interior region of the padded array src into the
// interior array dst. It is the inverse of Expand on the interior.
func (g Grid) Window(dst, src []float64) {
	if len(dst) != g.Size() || len(src) != g.PadSize() {
		panic("grid: window size mismatch")
	}
	nzp := g.Nzpad()
	for ix := 0; ix < g.Nx; ix++ {
		copy(dst[g.Nz*ix:g.Nz*(ix+1)], src[nzp*(ix+g.Nb):nzp*(ix+g.Nb)+g.Nz])
	}
}
