package perturbation

import "math/cmplx"

// SeriesCoeffs holds the first-order bilinear series coefficients A_n such
// that delta_n ~= A_n * delta_c.
//
// Recurrence: A_{n+1} = 2*Z_n*A_n + 1, A_0 = 0.
//
// A second-order term would tighten the iteration-skip bound further; this
// implementation carries first order only — see DESIGN.md for the tradeoff.
type SeriesCoeffs struct {
	A []complex128
}

// ComputeSeriesCoeffs precomputes A_n for n in [0, len(orbit.Orbit)).
func ComputeSeriesCoeffs(orbit *ReferenceOrbit) *SeriesCoeffs {
	n := len(orbit.Orbit)
	a := make([]complex128, n)
	var cur complex128
	for i := 0; i < n; i++ {
		a[i] = cur
		cur = orbit.TwoZ[i]*cur + 1
	}
	return &SeriesCoeffs{A: a}
}

// SkipIterations returns the largest N <= len(sc.A) such that, for every
// pixel whose offset from the reference magnitude is at most maxDeltaC, the
// second-order error bound |A_N| * maxDeltaC^2 stays below epsilonSeries.
// Skipping is only valid while the bound holds, so callers must re-verify
// it per tile rather than caching N across tiles with different maxDeltaC.
func (sc *SeriesCoeffs) SkipIterations(maxDeltaC float64, epsilonSeries float64) int {
	if epsilonSeries <= 0 || maxDeltaC <= 0 {
		return 0
	}
	maxDeltaC2 := maxDeltaC * maxDeltaC
	n := 0
	for i := len(sc.A) - 1; i >= 0; i-- {
		if cmplx.Abs(sc.A[i])*maxDeltaC2 < epsilonSeries {
			n = i
			break
		}
	}
	return n
}

// DeltaAt evaluates delta_n ~= A_n * delta_c for the iteration-skip starting
// point.
func (sc *SeriesCoeffs) DeltaAt(n int, deltaC complex128) complex128 {
	if n <= 0 || n >= len(sc.A) {
		return 0
	}
	return sc.A[n] * deltaC
}
