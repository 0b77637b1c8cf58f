package inversion

import (
	"context"
	"fmt"

	"github.com/seisgo/fwigrad/internal/survey"
)

// runShot executes one shot's forward and backward pass, accumulating
// into st.acc and returning the shot's residual energy.
func (e *Engine) runShot(ctx context.Context, is int, st *shotState) (float64, error) {
	srcPos := e.src.Positions(e.g, e.acq.Ns)[is]
	rcvPos, err := e.receiverPositions(is)
	if err != nil {
		return 0, err
	}

	st.sfld.Zero()
	st.afld.Zero()
	st.store.Reset()

	// Forward: inject the wavelet, advance, damp, checkpoint the
	// boundary strips of the pre-step slice, record at the receivers.
	var objective float64
	for it := 0; it < e.acq.Nt; it++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		survey.Inject(e.g, st.sfld.Cur(), srcPos, e.wlt[it])
		st.pr.StepForward(st.sfld)
		st.sfld.Swap()
		e.sponge.Apply(st.sfld.Cur())
		e.sponge.Apply(st.sfld.Prev())
		if err := st.store.Save(it, st.sfld.Prev()); err != nil {
			return 0, fmt.Errorf("shot %d: %w", is, err)
		}
		survey.Record(e.g, st.sfld.Cur(), rcvPos, st.syn)
		e.obs.Trace(is, it, st.obsBuf)
		objective += survey.Residual(st.resid[it*e.acq.Ng:(it+1)*e.acq.Ng], st.syn, st.obsBuf)
	}
	if err := st.store.Seal(); err != nil {
		return 0, fmt.Errorf("shot %d: %w", is, err)
	}

	// Backward: reconstruct the source field from the checkpoints
	// while the residual drives the adjoint field through the same
	// operator; cross-correlate the two each step.
	for it := e.acq.Nt - 1; it >= 0; it-- {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		st.sfld.Swap()
		if err := st.store.Restore(it, st.sfld.Cur()); err != nil {
			return 0, fmt.Errorf("shot %d: %w", is, err)
		}
		st.pr.StepAdjoint(st.sfld, st.lap, st.acc.Illum)
		survey.Inject(e.g, st.sfld.Cur(), srcPos, -e.wlt[it])

		survey.InjectAll(e.g, st.afld.Cur(), rcvPos, st.resid[it*e.acq.Ng:(it+1)*e.acq.Ng])
		st.pr.StepForward(st.afld)
		st.afld.Swap()
		e.sponge.Apply(st.afld.Cur())
		e.sponge.Apply(st.afld.Prev())

		st.acc.Add(st.lap, st.afld.Cur())
	}
	return objective, nil
}

// modelShot runs the forward pass only, writing the synthetic gather
// for shot is into out (nt*ng samples, time-major).
func (e *Engine) modelShot(ctx context.Context, is int, st *shotState, out []float64) error {
	srcPos := e.src.Positions(e.g, e.acq.Ns)[is]
	rcvPos, err := e.receiverPositions(is)
	if err != nil {
		return err
	}
	st.sfld.Zero()
	for it := 0; it < e.acq.Nt; it++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		survey.Inject(e.g, st.sfld.Cur(), srcPos, e.wlt[it])
		st.pr.StepForward(st.sfld)
		st.sfld.Swap()
		e.sponge.Apply(st.sfld.Cur())
		e.sponge.Apply(st.sfld.Prev())
		survey.Record(e.g, st.sfld.Cur(), rcvPos, out[it*e.acq.Ng:(it+1)*e.acq.Ng])
	}
	return nil
}
