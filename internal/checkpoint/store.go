// Package checkpoint stores thin boundary strips of the source
// wavefield at every forward time step so the interior field can be
// regenerated exactly during reverse time stepping, using
// O(nt * perimeter) memory instead of O(nt * area).
package checkpoint

import (
	"errors"
	"fmt"

	"github.com/seisgo/fwigrad/internal/grid"
)

var (
	// ErrOutOfOrder is returned when saves or restores break the
	// stack discipline: saves must arrive at strictly increasing time
	// indices, restores at strictly decreasing ones.
	ErrOutOfOrder = errors.New("checkpoint: out-of-order access")
	// ErrNotSealed is returned when a restore is attempted before the
	// forward pass sealed the store.
	ErrNotSealed = errors.New("checkpoint: store not sealed")
	// ErrSealed is returned when a save is attempted after sealing.
	ErrSealed = errors.New("checkpoint: store already sealed")
)

// Store is a bounded stack of per-time-step boundary records for one
// shot. A record holds the field on strips of `order` thickness along
// the bottom, left and right edges of the interior region; the free
// surface at the top needs no strip because it is never damped.
//
// The store is written once front-to-back during the forward pass,
// sealed, and then read back-to-front during the backward pass. It
// must not be shared between concurrently running shots.
type Store struct {
	g     grid.Grid
	order int
	nt    int

	rec    []float64 // nt fixed-size records, concatenated
	stride int       // scalars per record

	nextSave    int
	nextRestore int
	sealed      bool
}

// NewStore allocates records for nt time steps on the given grid.
func NewStore(g grid.Grid, order, nt int) (*Store, error) {
	if order <= 0 {
		return nil, fmt.Errorf("checkpoint: non-positive strip order %d", order)
	}
	if nt <= 0 {
		return nil, fmt.Errorf("checkpoint: non-positive step count %d", nt)
	}
	if order > g.Nx/2 || order > g.Nz {
		return nil, fmt.Errorf("checkpoint: order %d too thick for %dx%d interior", order, g.Nz, g.Nx)
	}
	stride := 2*order*g.Nz + order*g.Nx
	return &Store{
		g:      g,
		order:  order,
		nt:     nt,
		rec:    make([]float64, nt*stride),
		stride: stride,
	}, nil
}

// RecordSize returns the number of scalars stored per time step.
func (s *Store) RecordSize() int { return s.stride }

// Reset reopens the store for the next shot's forward pass. Record
// contents need not be cleared; every save overwrites its slot.
func (s *Store) Reset() {
	s.nextSave = 0
	s.nextRestore = 0
	s.sealed = false
}

// Save copies the boundary strips of the padded field p into the
// record for time step it.
func (s *Store) Save(it int, p []float64) error {
	if s.sealed {
		return ErrSealed
	}
	if it != s.nextSave || it >= s.nt {
		return fmt.Errorf("%w: save at %d, expected %d", ErrOutOfOrder, it, s.nextSave)
	}
	s.copyStrips(s.record(it), p, false)
	s.nextSave++
	return nil
}

// Seal marks the forward pass complete. All nt records must have been
// saved; restores become legal afterwards.
func (s *Store) Seal() error {
	if s.nextSave != s.nt {
		return fmt.Errorf("checkpoint: sealed after %d of %d saves", s.nextSave, s.nt)
	}
	s.sealed = true
	s.nextRestore = s.nt - 1
	return nil
}

// Restore overwrites the boundary strips of the padded field p with
// the record for time step it, immediately before the backward
// decrement of that step.
func (s *Store) Restore(it int, p []float64) error {
	if !s.sealed {
		return ErrNotSealed
	}
	if it != s.nextRestore || it < 0 {
		return fmt.Errorf("%w: restore at %d, expected %d", ErrOutOfOrder, it, s.nextRestore)
	}
	s.copyStrips(s.record(it), p, true)
	s.nextRestore--
	return nil
}

func (s *Store) record(it int) []float64 {
	return s.rec[it*s.stride : (it+1)*s.stride]
}

// copyStrips moves the left, right and bottom interior-edge strips
// between the record and the padded field. The strips are exactly as
// thick as the stencil half-width, which is what makes the reverse
// reconstruction exact: every deeper interior point depends only on
// interior points, and every shallower one is restored directly.
func (s *Store) copyStrips(rec, p []float64, restore bool) {
	g := s.g
	k := 0
	mv := func(i int) {
		if restore {
			p[i] = rec[k]
		} else {
			rec[k] = p[i]
		}
		k++
	}
	for j := 0; j < s.order; j++ {
		for iz := 0; iz < g.Nz; iz++ {
			mv(g.PadIdx(iz, j)) // left strip
		}
		for iz := 0; iz < g.Nz; iz++ {
			mv(g.PadIdx(iz, g.Nx-1-j)) // right strip
		}
	}
	for j := 0; j < s.order; j++ {
		for ix := 0; ix < g.Nx; ix++ {
			mv(g.PadIdx(g.Nz-1-j, ix)) // bottom strip
		}
	}
}
