package inversion

import (
	"context"
	"math"
	"testing"

	"github.com/seisgo/fwigrad/pkg/seis"
)

// naiveModel is a straight-line reimplementation of the forward pass,
// written with 2D index arithmetic rather than the production sweep, to
// give the modelling path an independent reference.
func naiveModel(model *seis.GridData, acq *seis.Acquisition) []float64 {
	nz, nx, nb := model.Nz, model.Nx, acq.Nb
	nzp, nxp := nz+nb, nx+2*nb
	at := func(p []float64, iz, ix int) float64 { return p[iz+nzp*ix] }

	// Edge-replicated v²dt² on the padded grid.
	vv := make([]float64, nzp*nxp)
	for ix := 0; ix < nxp; ix++ {
		sx := ix - nb
		if sx < 0 {
			sx = 0
		}
		if sx > nx-1 {
			sx = nx - 1
		}
		for iz := 0; iz < nzp; iz++ {
			sz := iz
			if sz > nz-1 {
				sz = nz - 1
			}
			v := model.Data[sz+nz*sx]
			vv[iz+nzp*ix] = v * acq.Dt * v * acq.Dt
		}
	}

	bndr := make([]float64, nb)
	for i := range bndr {
		d := 0.015 * float64(nb-i)
		bndr[i] = math.Exp(-d * d)
	}
	damp := func(p []float64) {
		for ix := 0; ix < nxp; ix++ {
			for iz := 0; iz < nzp; iz++ {
				w := 1.0
				if iz >= nz {
					w *= bndr[nzp-1-iz]
				}
				if ix < nb {
					w *= bndr[ix]
				} else if ix >= nxp-nb {
					w *= bndr[nxp-1-ix]
				}
				p[iz+nzp*ix] *= w
			}
		}
	}

	wlt := make([]float64, acq.Nt)
	for it := range wlt {
		x := math.Pi * acq.Fm * (float64(it)*acq.Dt - 1.0/acq.Fm)
		x *= x
		wlt[it] = acq.Amp * (1 - 2*x) * math.Exp(-x)
	}

	idz2 := 1.0 / (model.Dz * model.Dz)
	idx2 := 1.0 / (model.Dx * model.Dx)
	cur := make([]float64, nzp*nxp)
	prev := make([]float64, nzp*nxp)
	next := make([]float64, nzp*nxp)

	out := make([]float64, acq.Nt*acq.Ng)
	for it := 0; it < acq.Nt; it++ {
		cur[acq.SzBeg+nzp*(acq.SxBeg+nb)] += wlt[it]
		for ix := 2; ix < nxp-2; ix++ {
			for iz := 2; iz < nzp-2; iz++ {
				dz := (4.0/3.0)*(at(cur, iz-1, ix)+at(cur, iz+1, ix)) -
					(1.0/12.0)*(at(cur, iz-2, ix)+at(cur, iz+2, ix))
				dx := (4.0/3.0)*(at(cur, iz, ix-1)+at(cur, iz, ix+1)) -
					(1.0/12.0)*(at(cur, iz, ix-2)+at(cur, iz, ix+2))
				c0 := -2.0 * (4.0/3.0 - 1.0/12.0) * (idz2 + idx2)
				lap := c0*at(cur, iz, ix) + dz*idz2 + dx*idx2
				next[iz+nzp*ix] = 2*at(cur, iz, ix) - at(prev, iz, ix) +
					vv[iz+nzp*ix]*lap
			}
		}
		prev, cur, next = cur, next, prev
		damp(cur)
		damp(prev)
		for ig := 0; ig < acq.Ng; ig++ {
			gz := acq.GzBeg + ig*acq.Jgz
			gx := acq.GxBeg + ig*acq.Jgx
			out[it*acq.Ng+ig] = cur[gz+nzp*(gx+nb)]
		}
	}
	return out
}

func TestModelMatchesReferenceTrace(t *testing.T) {
	model := homogeneousModel(36, 36, 5, 5, 1500)
	acq := testAcquisition()
	acq.SxBeg = 18
	acq.GxBeg = 8

	eng, err := NewEngine(model, acq, nil, Config{}, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	got, err := eng.Model(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := naiveModel(model, acq)

	var peak float64
	for _, v := range want {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		t.Fatal("reference trace is identically zero")
	}
	for i := range want {
		if d := math.Abs(got[i] - want[i]); d > 1e-8*peak {
			t.Fatalf("sample %d: got %g, reference %g", i, got[i], want[i])
		}
	}
}

func TestTwoLayerGradientLocalised(t *testing.T) {
	const (
		nz, nx = 40, 40
		sx     = 20
	)
	trueModel := twoLayerModel(nz, nx, 5, 5, 1500, 2000, 20)
	startModel := homogeneousModel(nz, nx, 5, 5, 1500)

	acq := &seis.Acquisition{
		Ns: 1, Ng: 1, Nt: 140, Nb: 12,
		Dt: 1e-3, Amp: 1, Fm: 15,
		SzBeg: 3, SxBeg: sx,
		GzBeg: 2, GxBeg: sx,
	}

	mod, err := NewEngine(trueModel, acq, nil, Config{}, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	obsData, err := mod.Model(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	eng, err := NewEngine(startModel, acq, gatherFrom(t, obsData, acq), Config{}, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	res, err := eng.RunIteration(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}

	if res.Objective <= 0 {
		t.Fatalf("objective = %g, want > 0 for a wrong starting model", res.Objective)
	}

	// The single reflection arrives along the source column, so the
	// strongest gradient response must sit near that column rather
	// than out at the edges of the grid.
	var maxAbs float64
	maxAt := -1
	for i, v := range res.Gradient {
		if a := math.Abs(v); a > maxAbs {
			maxAbs, maxAt = a, i
		}
	}
	if maxAbs == 0 {
		t.Fatal("gradient is identically zero")
	}
	if ix := maxAt / nz; ix < sx-10 || ix > sx+10 {
		t.Fatalf("gradient peak at column %d, want within 10 of %d", ix, sx)
	}
}
