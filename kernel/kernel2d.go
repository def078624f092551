package kernel

import "math"

// PixelOutcome2D is the direct (non-perturbative) result of iterating a
// single pixel of a 2D escape-time fractal: the iteration count it escaped
// at (or ran to completion without escaping), its final z, and whether it
// escaped.
type PixelOutcome2D struct {
	Iterations float64
	FinalZ     complex128
	Escaped    bool
}

// Iterate2D dispatches to the kernel for params.Kind and returns the direct
// escape-time result for the point c (or, in Julia mode, the starting
// value z with params.JuliaC as the fixed parameter).
//
// All kernels share the common escape test |z|^2 > bailout^2 and respect
// maxIterations.
func Iterate2D(c complex128, params FractalParams, smooth bool) PixelOutcome2D {
	switch params.Kind {
	case PlaneJulia:
		return iterateJulia(c, params, smooth)
	case PlaneBurningShip:
		return iterateBurningShip(c, params, smooth)
	case PlaneTricorn:
		return iterateTricorn(c, params, smooth)
	case PlaneMandelPower:
		return iterateMandelPower(c, params, smooth)
	default:
		return iterateMandelbrot(c, params, smooth)
	}
}

// iterateMandelbrot is the tight inner loop for the standard Mandelbrot
// family: z <- z^2 + c, z_0 = 0. The (zr2+zi2) bailout-as-loop-predicate
// form counts the iteration before the update that first violates the
// bailout.
func iterateMandelbrot(c complex128, params FractalParams, smooth bool) PixelOutcome2D {
	cr, ci := real(c), imag(c)
	bailout2 := params.Bailout * params.Bailout

	var zr, zi, zr2, zi2 float64
	n := 0
	for ; n < params.MaxIterations && zr2+zi2 <= bailout2; n++ {
		zi = 2*zr*zi + ci
		zr = zr2 - zi2 + cr
		zr2 = zr * zr
		zi2 = zi * zi
	}
	return finishEscapeTest(n, params.MaxIterations, zr2+zi2, bailout2, complex(zr, zi), smooth)
}

// iterateJulia iterates z <- z^2 + C with C fixed from params and z_0 = the
// pixel's coordinate.
func iterateJulia(z0 complex128, params FractalParams, smooth bool) PixelOutcome2D {
	cr, ci := real(params.JuliaC), imag(params.JuliaC)
	bailout2 := params.Bailout * params.Bailout

	zr, zi := real(z0), imag(z0)
	zr2, zi2 := zr*zr, zi*zi
	n := 0
	for ; n < params.MaxIterations && zr2+zi2 <= bailout2; n++ {
		zi = 2*zr*zi + ci
		zr = zr2 - zi2 + cr
		zr2 = zr * zr
		zi2 = zi * zi
	}
	return finishEscapeTest(n, params.MaxIterations, zr2+zi2, bailout2, complex(zr, zi), smooth)
}

// iterateBurningShip takes the absolute value of each component before
// squaring.
func iterateBurningShip(c complex128, params FractalParams, smooth bool) PixelOutcome2D {
	cr, ci := real(c), imag(c)
	bailout2 := params.Bailout * params.Bailout

	var zr, zi, zr2, zi2 float64
	n := 0
	for ; n < params.MaxIterations && zr2+zi2 <= bailout2; n++ {
		ar, ai := math.Abs(zr), math.Abs(zi)
		zi = 2*ar*ai + ci
		zr = zr2 - zi2 + cr
		zr2 = zr * zr
		zi2 = zi * zi
	}
	return finishEscapeTest(n, params.MaxIterations, zr2+zi2, bailout2, complex(zr, zi), smooth)
}

// iterateTricorn negates zi (the conjugate) each step before squaring.
// zi = -2*zr*zi + ci is the algebraic expansion of conjugate-then-square;
// DESIGN.md records the sign-convention decision.
func iterateTricorn(c complex128, params FractalParams, smooth bool) PixelOutcome2D {
	cr, ci := real(c), imag(c)
	bailout2 := params.Bailout * params.Bailout

	var zr, zi, zr2, zi2 float64
	n := 0
	for ; n < params.MaxIterations && zr2+zi2 <= bailout2; n++ {
		zi = -2*zr*zi + ci
		zr = zr2 - zi2 + cr
		zr2 = zr * zr
		zi2 = zi * zi
	}
	return finishEscapeTest(n, params.MaxIterations, zr2+zi2, bailout2, complex(zr, zi), smooth)
}

// iterateMandelPower iterates z <- z^power + c in polar form, for power > 2.
// r = 0 is clamped before atan2 to avoid NaN.
func iterateMandelPower(c complex128, params FractalParams, smooth bool) PixelOutcome2D {
	power := params.Power
	if power == 0 {
		power = 2
	}
	bailout2 := params.Bailout * params.Bailout

	var zr, zi float64
	n := 0
	mag2 := zr*zr + zi*zi
	for ; n < params.MaxIterations && mag2 <= bailout2; n++ {
		r := math.Hypot(zr, zi)
		if r == 0 {
			r = 1e-300
		}
		theta := math.Atan2(zi, zr)
		rp := math.Pow(r, power)
		thetaP := theta * power
		zr = rp*math.Cos(thetaP) + real(c)
		zi = rp*math.Sin(thetaP) + imag(c)
		mag2 = zr*zr + zi*zi
	}
	return finishEscapeTest(n, params.MaxIterations, mag2, bailout2, complex(zr, zi), smooth)
}

// finishEscapeTest turns the loop-local iteration count and final z into a
// PixelOutcome2D, applying the smooth-coloring transform when requested and
// escaped.
func finishEscapeTest(n, maxIterations int, mag2, bailout2 float64, z complex128, smooth bool) PixelOutcome2D {
	if n >= maxIterations {
		return PixelOutcome2D{Iterations: float64(maxIterations), FinalZ: z, Escaped: false}
	}
	iter := float64(n)
	if smooth {
		iter = SmoothIterationCount(n, mag2)
	}
	return PixelOutcome2D{Iterations: iter, FinalZ: z, Escaped: true}
}

// SmoothIterationCount turns an integer escape iteration into a fractional
// count for continuous coloring:
//
//	n + 1 - log2(log(|z|^2)/2)
//
// Interior pixels (no escape) are returned unchanged by the caller; this
// function is only ever invoked with an escaped mag2, which guarantees
// mag2 > bailout^2 >= 4 under the common default, but a caller-configured
// bailout below 1 can make log(mag2) non-positive, so the argument is still
// clamped here.
func SmoothIterationCount(n int, mag2 float64) float64 {
	arg := math.Log(mag2) / 2
	if arg <= 0 {
		arg = 1e-12
	}
	return float64(n) + 1 - math.Log2(arg)
}
