package survey

import "github.com/seisgo/fwigrad/internal/grid"

// Inject adds amp into the padded field at the linearised interior
// position pos. The backward pass withdraws the source by passing the
// negated amplitude.
func Inject(g grid.Grid, p []float64, pos int, amp float64) {
	iz, ix := pos%g.Nz, pos/g.Nz
	p[g.PadIdx(iz, ix)] += amp
}

// InjectAll adds amps[i] at positions[i]; amps and positions must have
// equal length.
func InjectAll(g grid.Grid, p []float64, positions []int, amps []float64) {
	for i, pos := range positions {
		Inject(g, p, pos, amps[i])
	}
}

// Record extracts the field values at the receiver positions into out,
// one sample per receiver for the current time step.
func Record(g grid.Grid, p []float64, positions []int, out []float64) {
	for i, pos := range positions {
		iz, ix := pos%g.Nz, pos/g.Nz
		out[i] = p[g.PadIdx(iz, ix)]
	}
}

// Residual writes syn - obs into out and returns the added squared
// residual energy for this batch of samples.
func Residual(out, syn, obs []float64) float64 {
	var sum float64
	for i := range out {
		r := syn[i] - obs[i]
		out[i] = r
		sum += r * r
	}
	return sum
}
