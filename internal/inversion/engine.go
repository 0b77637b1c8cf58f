// Package inversion drives the adjoint-state gradient computation:
// per-shot forward and backward passes, per-iteration accumulation and
// post-processing. It owns all propagation buffers; callers feed it
// decoded SEIS payloads and collect results.
package inversion

import (
	"fmt"
	"math"

	"github.com/seisgo/fwigrad/internal/checkpoint"
	"github.com/seisgo/fwigrad/internal/gradient"
	"github.com/seisgo/fwigrad/internal/grid"
	"github.com/seisgo/fwigrad/internal/logger"
	"github.com/seisgo/fwigrad/internal/stencil"
	"github.com/seisgo/fwigrad/internal/survey"
	"github.com/seisgo/fwigrad/pkg/seis"
)

// Config selects the run parameters not carried by the acquisition
// metadata.
type Config struct {
	// Order is the checkpoint strip thickness; it must cover the
	// stencil half-width.
	Order int
	// Workers bounds the spatial parallelism of one stencil sweep.
	Workers int
	// ShotWorkers processes this many shots concurrently with private
	// accumulators. 0 or 1 keeps the reference sequential order.
	ShotWorkers int
	// Iterations is the number of outer iterations to run.
	Iterations int

	Precondition bool
	Smooth       bool
	RBell        int
	MuteRows     int
}

func (c *Config) normalise() {
	if c.Order == 0 {
		c.Order = 2
	}
	if c.Iterations <= 0 {
		c.Iterations = 1
	}
	if c.ShotWorkers <= 0 {
		c.ShotWorkers = 1
	}
}

// Engine computes FWI gradients for one velocity model and one
// observed shot-gather file. The velocity model is read-only for the
// engine's whole lifetime: updating it between runs is the outer
// orchestrator's responsibility, not ours.
type Engine struct {
	g   grid.Grid
	acq *seis.Acquisition
	cfg Config
	log logger.Logger

	vel    []float64 // interior, physical units
	vv     []float64 // padded v²dt², rebuilt each iteration
	wlt    []float64
	sponge *grid.Sponge
	src    survey.Sampling
	rcv    survey.Sampling
	obs    *seis.Gather // nil for modelling-only engines

	acc *gradient.Accumulator
}

// NewEngine validates the model and acquisition geometry and builds a
// ready-to-run engine. obs may be nil when only forward modelling is
// needed. All geometry errors are fatal and reported before any
// propagation starts.
func NewEngine(model *seis.GridData, acq *seis.Acquisition, obs *seis.Gather, cfg Config, log logger.Logger) (*Engine, error) {
	cfg.normalise()
	if cfg.Order < 2 {
		return nil, fmt.Errorf("inversion: strip order %d below stencil half-width", cfg.Order)
	}

	g, err := grid.New(model.Nz, model.Nx, model.Dz, model.Dx, acq.Nb)
	if err != nil {
		return nil, err
	}
	if len(model.Data) != g.Size() {
		return nil, fmt.Errorf("inversion: model has %d cells, want %d", len(model.Data), g.Size())
	}

	src := survey.Sampling{ZBegin: acq.SzBeg, XBegin: acq.SxBeg, Jz: acq.Jsz, Jx: acq.Jsx}
	if err := src.Validate(g, acq.Ns); err != nil {
		return nil, fmt.Errorf("source geometry: %w", err)
	}
	rcv := survey.Sampling{ZBegin: acq.GzBeg, XBegin: acq.GxBeg, Jz: acq.Jgz, Jx: acq.Jgx}
	if acq.CSDGather {
		for is := 0; is < acq.Ns; is++ {
			if _, err := survey.ShiftReceivers(g, rcv, src, acq.Ng, is); err != nil {
				return nil, fmt.Errorf("receiver geometry: %w", err)
			}
		}
	} else if err := rcv.Validate(g, acq.Ng); err != nil {
		return nil, fmt.Errorf("receiver geometry: %w", err)
	}

	e := &Engine{
		g:      g,
		acq:    acq,
		cfg:    cfg,
		log:    log,
		vel:    model.Data,
		vv:     make([]float64, g.PadSize()),
		wlt:    survey.Ricker(acq.Nt, acq.Dt, acq.Fm, acq.Amp),
		sponge: grid.NewSponge(g),
		src:    src,
		rcv:    rcv,
		obs:    obs,
		acc:    gradient.NewAccumulator(g),
	}

	if c := e.courant(); c > 1 {
		log.Warn("time step violates the stability bound, expect blowup",
			"courant", c, "dt", acq.Dt)
	}
	return e, nil
}

// Grid exposes the computation grid for output writers.
func (e *Engine) Grid() grid.Grid { return e.g }

// courant returns v_max*dt*sqrt(1/dz²+1/dx²), the quantity the
// explicit scheme needs below its stability constant.
func (e *Engine) courant() float64 {
	var maxV float64
	for _, v := range e.vel {
		if v > maxV {
			maxV = v
		}
	}
	return maxV * e.acq.Dt * math.Sqrt(1/(e.g.Dz*e.g.Dz)+1/(e.g.Dx*e.g.Dx))
}

// refreshVV rebuilds the padded v²dt² array from the raw velocity at
// the start of each iteration.
func (e *Engine) refreshVV() {
	tmp := make([]float64, e.g.Size())
	dt2 := e.acq.Dt * e.acq.Dt
	for i, v := range e.vel {
		tmp[i] = v * v * dt2
	}
	e.g.Expand(e.vv, tmp)
}

// shotState bundles the per-shot propagation buffers. Sequential runs
// reuse one; shot-parallel workers own one each, plus a private
// accumulator merged after the loop.
type shotState struct {
	pr    *stencil.Propagator
	sfld  *stencil.Pair // source field (forward, then reconstructed)
	afld  *stencil.Pair // adjoint field
	lap   []float64
	store *checkpoint.Store

	syn    []float64 // one time step of synthetic data
	obsBuf []float64
	resid  []float64 // nt*ng, kept to re-seed the adjoint source

	acc *gradient.Accumulator
}

func (e *Engine) newShotState(acc *gradient.Accumulator) (*shotState, error) {
	store, err := checkpoint.NewStore(e.g, e.cfg.Order, e.acq.Nt)
	if err != nil {
		return nil, err
	}
	return &shotState{
		pr:     stencil.New(e.g, e.vv, e.cfg.Workers),
		sfld:   stencil.NewPair(e.g.PadSize()),
		afld:   stencil.NewPair(e.g.PadSize()),
		lap:    make([]float64, e.g.PadSize()),
		store:  store,
		syn:    make([]float64, e.acq.Ng),
		obsBuf: make([]float64, e.acq.Ng),
		resid:  make([]float64, e.acq.Nt*e.acq.Ng),
		acc:    acc,
	}, nil
}

// receiverPositions resolves the receiver spread for shot is.
func (e *Engine) receiverPositions(is int) ([]int, error) {
	if e.acq.CSDGather {
		shifted, err := survey.ShiftReceivers(e.g, e.rcv, e.src, e.acq.Ng, is)
		if err != nil {
			return nil, err
		}
		return shifted.Positions(e.g, e.acq.Ng), nil
	}
	return e.rcv.Positions(e.g, e.acq.Ng), nil
}
