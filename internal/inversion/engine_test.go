package inversion

import (
	"context"
	"math"
	"testing"

	"github.com/seisgo/fwigrad/internal/logger"
	"github.com/seisgo/fwigrad/pkg/seis"
)

func quietLogger() logger.Logger {
	return logger.Default()
}

func homogeneousModel(nz, nx int, dz, dx, v float64) *seis.GridData {
	data := make([]float64, nz*nx)
	for i := range data {
		data[i] = v
	}
	return &seis.GridData{Nz: nz, Nx: nx, Dz: dz, Dx: dx, Data: data}
}

func twoLayerModel(nz, nx int, dz, dx, vTop, vBottom float64, interface_ int) *seis.GridData {
	m := homogeneousModel(nz, nx, dz, dx, vTop)
	for ix := 0; ix < nx; ix++ {
		for iz := interface_; iz < nz; iz++ {
			m.Data[iz+nz*ix] = vBottom
		}
	}
	return m
}

func gatherFrom(t *testing.T, samples []float64, acq *seis.Acquisition) *seis.Gather {
	t.Helper()
	raw, err := seis.EncodeGather(samples, acq)
	if err != nil {
		t.Fatalf("encode gather: %v", err)
	}
	gth, err := seis.NewGather(raw, acq)
	if err != nil {
		t.Fatalf("new gather: %v", err)
	}
	return gth
}

func testAcquisition() *seis.Acquisition {
	return &seis.Acquisition{
		Ns: 1, Ng: 8, Nt: 60, Nb: 10,
		Dt: 1e-3, Amp: 1, Fm: 15,
		SzBeg: 2, SxBeg: 15, Jsx: 5,
		GzBeg: 2, GxBeg: 6, Jgx: 2,
	}
}

func TestGeometryValidatedUpFront(t *testing.T) {
	model := homogeneousModel(30, 30, 5, 5, 1500)
	acq := testAcquisition()
	acq.Ns = 5 // sources at columns 15..35, past the 30-wide grid
	if _, err := NewEngine(model, acq, nil, Config{}, quietLogger()); err == nil {
		t.Fatal("off-grid source pattern accepted")
	}

	acq = testAcquisition()
	acq.CSDGather = true
	acq.Ns = 4
	// Moving spread: shot 3 puts receivers at columns 21..35.
	if _, err := NewEngine(model, acq, nil, Config{}, quietLogger()); err == nil {
		t.Fatal("off-grid moving receiver pattern accepted")
	}
}

func TestOrderBelowStencilRejected(t *testing.T) {
	model := homogeneousModel(30, 30, 5, 5, 1500)
	if _, err := NewEngine(model, testAcquisition(), nil, Config{Order: 1}, quietLogger()); err == nil {
		t.Fatal("order 1 accepted")
	}
}

func TestMatchingModelGivesVanishingGradient(t *testing.T) {
	model := homogeneousModel(30, 30, 5, 5, 1500)
	acq := testAcquisition()

	mod, err := NewEngine(model, acq, nil, Config{}, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	obsData, err := mod.Model(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	run := func(obs []float64) *Result {
		eng, err := NewEngine(model, acq, gatherFrom(t, obs, acq), Config{}, quietLogger())
		if err != nil {
			t.Fatal(err)
		}
		res, err := eng.RunIteration(context.Background(), 0)
		if err != nil {
			t.Fatal(err)
		}
		return res
	}

	// Observed data from the same model leaves only the float32
	// storage rounding as residual. Against the all-zero-data run,
	// where the residual is the whole synthetic, both objective and
	// gradient must collapse by many orders of magnitude.
	matched := run(obsData)
	baseline := run(make([]float64, len(obsData)))

	if baseline.Objective <= 0 {
		t.Fatalf("baseline objective = %g, want > 0", baseline.Objective)
	}
	if matched.Objective > 1e-12*baseline.Objective {
		t.Fatalf("matched objective %g vs baseline %g", matched.Objective, baseline.Objective)
	}
	var maxMatched, maxBase float64
	for i := range matched.Gradient {
		if a := math.Abs(matched.Gradient[i]); a > maxMatched {
			maxMatched = a
		}
		if a := math.Abs(baseline.Gradient[i]); a > maxBase {
			maxBase = a
		}
	}
	if maxBase == 0 {
		t.Fatal("baseline gradient is identically zero")
	}
	if maxMatched > 1e-5*maxBase {
		t.Fatalf("matched gradient peak %g vs baseline %g", maxMatched, maxBase)
	}
	// The source still illuminated the medium.
	var illumSum float64
	for _, v := range matched.Illum {
		illumSum += v
	}
	if illumSum <= 0 {
		t.Fatalf("illumination sum = %g, want > 0", illumSum)
	}
}

func TestObjectiveAdditivityAcrossShots(t *testing.T) {
	model := homogeneousModel(30, 40, 5, 5, 1500)
	acq := testAcquisition()
	acq.Ns = 2

	// Observed data of all zeros makes the objective the synthetic
	// energy, which separates exactly per shot.
	zeros := make([]float64, acq.Ns*acq.Nt*acq.Ng)
	eng, err := NewEngine(model, acq, gatherFrom(t, zeros, acq), Config{}, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	both, err := eng.RunIteration(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}

	var sum float64
	for is := 0; is < 2; is++ {
		single := *acq
		single.Ns = 1
		single.SxBeg = acq.SxBeg + is*acq.Jsx
		singleZeros := make([]float64, single.Nt*single.Ng)
		e1, err := NewEngine(model, &single, gatherFrom(t, singleZeros, &single), Config{}, quietLogger())
		if err != nil {
			t.Fatal(err)
		}
		res, err := e1.RunIteration(context.Background(), 0)
		if err != nil {
			t.Fatal(err)
		}
		sum += res.Objective
	}

	if both.Objective <= 0 {
		t.Fatalf("objective = %g, want > 0", both.Objective)
	}
	if d := math.Abs(both.Objective - sum); d > 1e-9*both.Objective {
		t.Fatalf("objective %g vs per-shot sum %g (diff %g)", both.Objective, sum, d)
	}
}

func TestShotParallelMatchesSequential(t *testing.T) {
	trueModel := twoLayerModel(30, 40, 5, 5, 1500, 1800, 15)
	startModel := homogeneousModel(30, 40, 5, 5, 1500)
	acq := testAcquisition()
	acq.Ns = 3

	mod, err := NewEngine(trueModel, acq, nil, Config{}, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	obsData, err := mod.Model(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	obs := gatherFrom(t, obsData, acq)

	run := func(shotWorkers int) *Result {
		eng, err := NewEngine(startModel, acq, obs, Config{ShotWorkers: shotWorkers}, quietLogger())
		if err != nil {
			t.Fatal(err)
		}
		res, err := eng.RunIteration(context.Background(), 0)
		if err != nil {
			t.Fatal(err)
		}
		return res
	}

	seq := run(1)
	par := run(3)

	if seq.Objective != par.Objective {
		t.Fatalf("objective: sequential %g, parallel %g", seq.Objective, par.Objective)
	}
	var maxG float64
	for _, v := range seq.Gradient {
		if a := math.Abs(v); a > maxG {
			maxG = a
		}
	}
	if maxG == 0 {
		t.Fatal("sequential gradient is identically zero")
	}
	for i := range seq.Gradient {
		if d := math.Abs(seq.Gradient[i] - par.Gradient[i]); d > 1e-9*maxG {
			t.Fatalf("gradient[%d]: sequential %g, parallel %g", i, seq.Gradient[i], par.Gradient[i])
		}
	}
}

func TestRunKeepsVelocityFixed(t *testing.T) {
	model := homogeneousModel(24, 24, 5, 5, 1500)
	acq := testAcquisition()
	acq.Nt = 40
	acq.SxBeg = 10
	acq.GxBeg = 4

	zeros := make([]float64, acq.Nt*acq.Ng)
	eng, err := NewEngine(model, acq, gatherFrom(t, zeros, acq), Config{Iterations: 2}, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	results, err := eng.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	// No internal model update: both iterations see the same model and
	// must produce the same objective.
	if results[0].Objective != results[1].Objective {
		t.Fatalf("objective drifted: %g then %g", results[0].Objective, results[1].Objective)
	}
	for i := range results[0].Gradient {
		if results[0].Gradient[i] != results[1].Gradient[i] {
			t.Fatalf("gradient drifted at %d", i)
		}
	}
}

func TestCancellationStopsRun(t *testing.T) {
	model := homogeneousModel(30, 30, 5, 5, 1500)
	acq := testAcquisition()
	zeros := make([]float64, acq.Nt*acq.Ng)
	eng, err := NewEngine(model, acq, gatherFrom(t, zeros, acq), Config{}, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := eng.RunIteration(ctx, 0); err == nil {
		t.Fatal("cancelled iteration succeeded")
	}
}
