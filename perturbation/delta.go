package perturbation

import "math"

// DefaultGlitchTolerance is the default glitch-detection tolerance applied
// when a caller passes zero.
const DefaultGlitchTolerance = 1e-4

// PixelOutcome is the result of the per-pixel delta recurrence.
type PixelOutcome struct {
	Iterations  float64 // smooth-capable iteration count
	FinalZ      complex128
	Escaped     bool
	Glitched    bool
	GlitchRatio float64 // |delta|/|Z_ref| at the glitch iteration, only set when Glitched
}

// IteratePixel runs the delta recurrence
//
//	delta_{n+1} = 2*Z_n*delta_n + delta_n^2 + delta_c
//
// against orbit starting from delta0 at iteration startN (0 unless a series
// iteration-skip was applied), escaping when |Z_n + delta_n|^2 > bailout^2
// and flagging a glitch when |delta_n|^2 > glitchTolerance^2 * |Z_n|^2
// smooth selects the fractional smooth iteration count vs. the integer
// count.
func IteratePixel(orbit *ReferenceOrbit, deltaC complex128, startN int, delta0 complex128, maxIterations int, bailout float64, glitchTolerance float64, smooth bool) PixelOutcome {
	if glitchTolerance <= 0 {
		glitchTolerance = DefaultGlitchTolerance
	}
	bailout2 := bailout * bailout
	gt2 := glitchTolerance * glitchTolerance

	delta := delta0
	n := startN
	refLen := len(orbit.Orbit)

	for ; n < maxIterations && n < refLen; n++ {
		zRef, twoZ, zMag2 := orbit.At(n)
		z := zRef + delta

		mag2 := real(z)*real(z) + imag(z)*imag(z)
		if mag2 > bailout2 {
			iter := float64(n)
			if smooth {
				iter = smoothCount(n, mag2)
			}
			return PixelOutcome{Iterations: iter, FinalZ: z, Escaped: true}
		}

		dMag2 := real(delta)*real(delta) + imag(delta)*imag(delta)
		if dMag2 > gt2*zMag2 {
			ratio := 0.0
			if zMag2 > 0 {
				ratio = math.Sqrt(dMag2 / zMag2)
			}
			return PixelOutcome{Iterations: float64(n), FinalZ: z, Glitched: true, GlitchRatio: ratio}
		}

		delta = twoZ*delta + delta*delta + deltaC
	}

	// Reference orbit ended without escape: interior w.r.t. this view,
	// same interpretation as direct iteration.
	return PixelOutcome{Iterations: float64(maxIterations), FinalZ: orbit.Orbit[min(n, refLen-1)] + delta, Escaped: false}
}

// smoothCount computes the fractional escape-time count for continuous
// coloring:
//
//	n + 1 - log2(log(|z|^2)/2)
//
// Interior pixels are not passed here (Escaped is false for them).
// log(|z|^2) is guarded against non-positive arguments: escape guarantees
// |z|^2 > bailout^2, and bailout is validated > 0 by FractalParams.Validate,
// but a bailout configured below 1 can still make |z|^2 <= 1, so the guard
// stays in the hot path rather than relying solely on admission-time
// validation.
func smoothCount(n int, mag2 float64) float64 {
	arg := math.Log(mag2) / 2
	if arg <= 0 {
		arg = 1e-12
	}
	return float64(n) + 1 - math.Log2(arg)
}
