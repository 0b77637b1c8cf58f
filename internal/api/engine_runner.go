package api

import (
	"context"
	"fmt"

	"github.com/seisgo/fwigrad/internal/grid"
	"github.com/seisgo/fwigrad/internal/inversion"
	"github.com/seisgo/fwigrad/internal/logger"
)

// Runner is one job's computation. Run blocks until all iterations
// finish or ctx is cancelled; Close releases the input mapping.
type Runner interface {
	Run(ctx context.Context) ([]*inversion.Result, error)
	Grid() grid.Grid
	Close() error
}

// RunnerFactory validates a request and builds its Runner. Errors are
// reported to the client as a rejected submission.
type RunnerFactory func(req *JobRequest) (Runner, error)

type engineRunner struct {
	in  *inversion.Input
	eng *inversion.Engine
}

// NewEngineRunner is the production factory: it loads the SEIS input
// file and builds an inversion engine from it.
func NewEngineRunner(req *JobRequest) (Runner, error) {
	in, err := inversion.LoadInput(req.DataFile)
	if err != nil {
		return nil, err
	}
	if in.Obs == nil {
		in.Close()
		return nil, fmt.Errorf("%s: input carries no shot data", req.DataFile)
	}

	cfg := inversion.Config{
		Precondition: req.Precondition,
		Smooth:       req.Smooth,
		RBell:        req.RBell,
		MuteRows:     req.MuteRows,
	}
	if req.Order != nil {
		cfg.Order = *req.Order
	}
	if req.Workers != nil {
		cfg.Workers = *req.Workers
	}
	if req.ShotWorkers != nil {
		cfg.ShotWorkers = *req.ShotWorkers
	}
	if req.Iterations != nil {
		cfg.Iterations = *req.Iterations
	}

	eng, err := inversion.NewEngine(in.Model, in.Acq, in.Obs, cfg, logger.Default())
	if err != nil {
		in.Close()
		return nil, err
	}
	return &engineRunner{in: in, eng: eng}, nil
}

func (r *engineRunner) Run(ctx context.Context) ([]*inversion.Result, error) {
	return r.eng.Run(ctx)
}

func (r *engineRunner) Grid() grid.Grid { return r.eng.Grid() }

func (r *engineRunner) Close() error { return r.in.Close() }
