package survey

import "math"

// Ricker generates an amplitude-scaled Ricker wavelet with dominant
// frequency fm (Hz) sampled at dt over nt steps:
//
//	w(t) = amp * (1 - 2x) * exp(-x),  x = (pi*fm*(t - 1/fm))^2
//
// The one-period delay keeps the onset causal.
func Ricker(nt int, dt, fm, amp float64) []float64 {
	w := make([]float64, nt)
	for it := range w {
		tmp := math.Pi * fm * (float64(it)*dt - 1.0/fm)
		x := tmp * tmp
		w[it] = amp * (1 - 2*x) * math.Exp(-x)
	}
	return w
}
