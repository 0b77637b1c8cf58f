// Package optimize provides the nonlinear conjugate-gradient
// primitives used to turn an FWI gradient into a model update: the
// hybrid Hestenes-Stiefel/Dai-Yuan beta, the search direction, the
// trial perturbation and the parabolic step length.
//
// The functions are pure and hold no state. The engine never calls
// them on the velocity model itself; driving an update loop is an
// external orchestrator's job.
package optimize

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// eps guards divisions throughout the package.
const eps = 1e-15

// Beta computes the hybrid conjugate-gradient beta from the new
// gradient g1, the previous gradient g0 and the previous search
// direction cg, clamped as max(0, min(betaHS, betaDY)). Whenever
// either formula goes non-positive the result is zero, restarting the
// next direction at steepest descent.
func Beta(g1, g0, cg []float64) float64 {
	if len(g1) != len(g0) || len(g1) != len(cg) {
		panic("optimize: beta length mismatch")
	}
	diff := make([]float64, len(g1))
	floats.SubTo(diff, g1, g0)

	gdg := floats.Dot(g1, diff)
	ddg := floats.Dot(cg, diff)
	gg := floats.Dot(g1, g1)

	betaHS := gdg / (ddg + eps)
	betaDY := gg / (ddg + eps)
	return math.Max(0, math.Min(betaHS, betaDY))
}

// Direction writes the new search direction -g + beta*cg into cg in
// place, so the previous direction feeds its own replacement.
func Direction(cg, g []float64, beta float64) {
	if len(cg) != len(g) {
		panic("optimize: direction length mismatch")
	}
	for i := range cg {
		cg[i] = -g[i] + beta*cg[i]
	}
}

// TrialStep returns the scale-invariant probe perturbation
// 0.01 * max|vel| / (max|dir| + eps) used to estimate curvature with a
// second forward-modelling pass.
func TrialStep(vel, dir []float64) float64 {
	maxV := floats.Norm(vel, math.Inf(1))
	maxD := floats.Norm(dir, math.Inf(1))
	return 0.01 * maxV / (maxD + eps)
}

// StepLength estimates alpha from the two modelling passes: cal0
// holds the synthetic data at the current model, cal1 at the model
// perturbed by epsilon along the search direction, and derr the data
// residual of the current model. All three are flat time-by-receiver
// arrays over every shot.
func StepLength(cal0, cal1, derr []float64, epsilon float64) float64 {
	if len(cal0) != len(cal1) || len(cal0) != len(derr) {
		panic("optimize: step length mismatch")
	}
	var num, den float64
	for i := range cal0 {
		d := cal1[i] - cal0[i]
		num += -d * derr[i]
		den += d * d
	}
	return epsilon * num / (den + eps)
}

// UpdateModel applies vel += alpha*dir in place.
func UpdateModel(vel, dir []float64, alpha float64) {
	floats.AddScaled(vel, alpha, dir)
}
