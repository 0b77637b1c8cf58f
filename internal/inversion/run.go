package inversion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/seisgo/fwigrad/internal/gradient"
)

// Result carries one outer iteration's outputs on the interior grid.
type Result struct {
	Iteration int
	Gradient  []float64
	Illum     []float64
	Objective float64
}

// RunIteration computes the gradient, illumination map and objective
// for one outer iteration over all shots.
func (e *Engine) RunIteration(ctx context.Context, iter int) (*Result, error) {
	if e.obs == nil {
		return nil, errors.New("inversion: engine has no observed data")
	}
	e.refreshVV()
	e.acc.Reset()

	objPerShot := make([]float64, e.acq.Ns)
	if e.cfg.ShotWorkers > 1 {
		if err := e.runShotsParallel(ctx, objPerShot); err != nil {
			return nil, err
		}
	} else {
		st, err := e.newShotState(e.acc)
		if err != nil {
			return nil, err
		}
		for is := 0; is < e.acq.Ns; is++ {
			obj, err := e.runShot(ctx, is, st)
			if err != nil {
				return nil, err
			}
			objPerShot[is] = obj
			e.log.Debug("shot done", "iter", iter, "shot", is, "objective", obj)
		}
	}

	var objective float64
	for _, o := range objPerShot {
		objective += o
	}

	res := &Result{
		Iteration: iter,
		Gradient:  make([]float64, e.g.Size()),
		Illum:     make([]float64, e.g.Size()),
		Objective: objective,
	}
	copy(res.Gradient, e.acc.Grad)
	e.g.Window(res.Illum, e.acc.Illum)
	gradient.Process(e.g, res.Gradient, e.vel, e.acc.Illum, gradient.PostOptions{
		Precondition: e.cfg.Precondition,
		Smooth:       e.cfg.Smooth,
		RBell:        e.cfg.RBell,
		MuteRows:     e.cfg.MuteRows,
	})
	return res, nil
}

// runShotsParallel fans the shot loop out over ShotWorkers goroutines.
// Each worker owns private field buffers, a private checkpoint store
// and a private accumulator; the reductions at the end are commutative
// so only rounding order differs from the sequential path.
func (e *Engine) runShotsParallel(ctx context.Context, objPerShot []float64) error {
	workers := e.cfg.ShotWorkers
	if workers > e.acq.Ns {
		workers = e.acq.Ns
	}

	shots := make(chan int)
	grp, gctx := errgroup.WithContext(ctx)
	accs := make([]*gradient.Accumulator, workers)
	for w := 0; w < workers; w++ {
		acc := gradient.NewAccumulator(e.g)
		accs[w] = acc
		grp.Go(func() error {
			st, err := e.newShotState(acc)
			if err != nil {
				return err
			}
			for is := range shots {
				obj, err := e.runShot(gctx, is, st)
				if err != nil {
					return err
				}
				objPerShot[is] = obj
			}
			return nil
		})
	}
	grp.Go(func() error {
		defer close(shots)
		for is := 0; is < e.acq.Ns; is++ {
			select {
			case shots <- is:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	if err := grp.Wait(); err != nil {
		return err
	}
	for _, acc := range accs {
		e.acc.Merge(acc)
	}
	return nil
}

// Run executes the configured number of outer iterations and returns
// their results in order. The velocity model is left untouched
// throughout: each iteration re-derives the same gradient unless an
// external orchestrator rewrites the model file between runs.
func (e *Engine) Run(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, 0, e.cfg.Iterations)
	for iter := 0; iter < e.cfg.Iterations; iter++ {
		start := time.Now()
		res, err := e.RunIteration(ctx, iter)
		if err != nil {
			return results, fmt.Errorf("iteration %d: %w", iter, err)
		}
		e.log.Info("iteration done",
			"iter", iter, "objective", res.Objective, "elapsed", time.Since(start))
		results = append(results, res)
	}
	return results, nil
}

// Model synthesises the full shot gather for the engine's velocity
// model: ns*nt*ng samples, shot-major. It needs no observed data and
// is the pass an orchestrator runs on a perturbed model to estimate a
// step length.
func (e *Engine) Model(ctx context.Context) ([]float64, error) {
	e.refreshVV()
	st, err := e.newShotState(e.acc)
	if err != nil {
		return nil, err
	}
	out := make([]float64, e.acq.Ns*e.acq.Nt*e.acq.Ng)
	for is := 0; is < e.acq.Ns; is++ {
		block := out[is*e.acq.Nt*e.acq.Ng : (is+1)*e.acq.Nt*e.acq.Ng]
		if err := e.modelShot(ctx, is, st, block); err != nil {
			return nil, err
		}
	}
	return out, nil
}
