package grid

import (
	"math"
	"testing"
)

func testGrid(t *testing.T, nz, nx, nb int) Grid {
	t.Helper()
	g, err := New(nz, nx, 5, 5, nb)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}

func TestNewRejectsBadGeometry(t *testing.T) {
	cases := []struct {
		name           string
		nz, nx         int
		dz, dx         float64
		nb             int
	}{
		{"zero nz", 0, 10, 5, 5, 2},
		{"negative nx", 10, -1, 5, 5, 2},
		{"zero dz", 10, 10, 0, 5, 2},
		{"negative nb", 10, 10, 5, 5, -1},
	}
	for _, tc := range cases {
		if _, err := New(tc.nz, tc.nx, tc.dz, tc.dx, tc.nb); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestExpandWindowRoundTrip(t *testing.T) {
	g := testGrid(t, 7, 5, 3)

	src := make([]float64, g.Size())
	for i := range src {
		src[i] = float64(i) + 1
	}
	padded := make([]float64, g.PadSize())
	g.Expand(padded, src)

	got := make([]float64, g.Size())
	g.Window(got, padded)
	for i := range src {
		if got[i] != src[i] {
			t.Fatalf("interior[%d] = %g, want %g", i, got[i], src[i])
		}
	}
}

func TestExpandReplicatesEdges(t *testing.T) {
	g := testGrid(t, 4, 3, 2)

	src := make([]float64, g.Size())
	for ix := 0; ix < g.Nx; ix++ {
		for iz := 0; iz < g.Nz; iz++ {
			src[g.Idx(iz, ix)] = float64(10*ix + iz)
		}
	}
	padded := make([]float64, g.PadSize())
	g.Expand(padded, src)

	nzp := g.Nzpad()
	// Bottom pad replicates the last interior row.
	for ix := 0; ix < g.Nx; ix++ {
		want := src[g.Idx(g.Nz-1, ix)]
		for iz := g.Nz; iz < nzp; iz++ {
			if got := padded[iz+nzp*(ix+g.Nb)]; got != want {
				t.Fatalf("bottom pad (%d,%d) = %g, want %g", iz, ix, got, want)
			}
		}
	}
	// Side pads replicate the first/last interior columns.
	for ix := 0; ix < g.Nb; ix++ {
		for iz := 0; iz < g.Nz; iz++ {
			if got, want := padded[iz+nzp*ix], src[g.Idx(iz, 0)]; got != want {
				t.Fatalf("left pad col %d row %d = %g, want %g", ix, iz, got, want)
			}
			if got, want := padded[iz+nzp*(g.Nxpad()-1-ix)], src[g.Idx(iz, g.Nx-1)]; got != want {
				t.Fatalf("right pad col %d row %d = %g, want %g", ix, iz, got, want)
			}
		}
	}
}

func TestSpongeProfileMonotonic(t *testing.T) {
	g := testGrid(t, 10, 10, 20)
	sp := NewSponge(g)

	prof := sp.Profile()
	if len(prof) != g.Nb {
		t.Fatalf("profile length %d, want %d", len(prof), g.Nb)
	}
	for i := 1; i < len(prof); i++ {
		if prof[i] <= prof[i-1] {
			t.Fatalf("profile not strictly increasing at %d: %g <= %g", i, prof[i], prof[i-1])
		}
	}
	if prof[len(prof)-1] >= 1 {
		t.Fatalf("innermost coefficient %g, want < 1", prof[len(prof)-1])
	}
}

func TestSpongeDampsBorderNotInterior(t *testing.T) {
	g := testGrid(t, 6, 6, 4)
	sp := NewSponge(g)

	p := make([]float64, g.PadSize())
	for i := range p {
		p[i] = 1
	}
	sp.Apply(p)

	// Outermost left-pad cell must be damped below its undamped value.
	if got := p[0]; got >= 1 {
		t.Fatalf("outer border cell = %g, want < 1", got)
	}
	// Interior cells away from every pad are untouched.
	if got := p[g.PadIdx(0, g.Nx/2)]; got != 1 {
		t.Fatalf("interior cell = %g, want 1", got)
	}
	// Damping increases toward the outer edge.
	nzp := g.Nzpad()
	if math.Abs(p[0]) >= math.Abs(p[nzp*(g.Nb-1)]) {
		t.Fatalf("outer cell %g not damped harder than inner pad cell %g", p[0], p[nzp*(g.Nb-1)])
	}
}
