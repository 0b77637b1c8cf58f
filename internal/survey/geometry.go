// Package survey maps the acquisition geometry onto the grid: source
// and receiver placement, wavelet generation, source injection, trace
// recording and the data residual.
package survey

import (
	"fmt"

	"github.com/seisgo/fwigrad/internal/grid"
)

// Sampling is a regular placement rule on the interior grid: element i
// sits at (ZBegin + i*Jz, XBegin + i*Jx).
type Sampling struct {
	ZBegin, XBegin int
	Jz, Jx         int
}

// Validate checks that all n positions fall inside the interior grid.
// It runs before any propagation; an out-of-range pattern is fatal for
// the whole run.
func (s Sampling) Validate(g grid.Grid, n int) error {
	if n <= 0 {
		return fmt.Errorf("survey: non-positive element count %d", n)
	}
	lastZ := s.ZBegin + (n-1)*s.Jz
	lastX := s.XBegin + (n-1)*s.Jx
	if s.ZBegin < 0 || s.XBegin < 0 || lastZ < 0 || lastX < 0 ||
		s.ZBegin >= g.Nz || s.XBegin >= g.Nx || lastZ >= g.Nz || lastX >= g.Nx {
		return fmt.Errorf("survey: sampling z=%d+%d*i x=%d+%d*i exceeds %dx%d grid for %d elements",
			s.ZBegin, s.Jz, s.XBegin, s.Jx, g.Nz, g.Nx, n)
	}
	return nil
}

// Positions returns the linearised interior positions z + Nz*x for n
// elements.
func (s Sampling) Positions(g grid.Grid, n int) []int {
	pos := make([]int, n)
	for i := range pos {
		pos[i] = (s.ZBegin + i*s.Jz) + g.Nz*(s.XBegin+i*s.Jx)
	}
	return pos
}

// Geometry holds the resolved positions for one shot.
type Geometry struct {
	Sources   []int
	Receivers []int
}

// ShiftReceivers recomputes receiver positions for common-shot-gather
// acquisition, where the spread moves with the source. The base
// receiver sampling is offset by the lateral distance between shot is
// and the first shot.
func ShiftReceivers(g grid.Grid, rcv Sampling, srcSampling Sampling, ng, is int) (Sampling, error) {
	shifted := rcv
	shifted.XBegin += is * srcSampling.Jx
	shifted.ZBegin += is * srcSampling.Jz
	if err := shifted.Validate(g, ng); err != nil {
		return Sampling{}, fmt.Errorf("shot %d: %w", is, err)
	}
	return shifted, nil
}
