package perturbation

import "math"

// MaxRebaseDepth bounds rebase retries. A bounded retry depth prevents
// livelock; tiles that exhaust it fall back to direct (non-perturbative)
// iteration in bignum as the authoritative slow path.
const MaxRebaseDepth = 3

// PixelSample is a minimal per-pixel record used to pick a rebase center:
// the pixel's offset from the current reference and its glitch ratio
// |delta|/|Z_ref| at the point it glitched (0 for pixels that did not glitch).
type PixelSample struct {
	DeltaC   complex128
	GlitchRatio float64
	Glitched bool
}

// ChooseRebaseCenter picks a new reference point within a glitched tile:
// the pixel with the least |delta|/|Z| ratio among the glitched samples, or
// the tile's geometric center if no sample data is available.
func ChooseRebaseCenter(samples []PixelSample, tileCenterDeltaC complex128) complex128 {
	best := -1
	bestRatio := math.Inf(1)
	for i, s := range samples {
		if !s.Glitched {
			continue
		}
		if s.GlitchRatio < bestRatio {
			bestRatio = s.GlitchRatio
			best = i
		}
	}
	if best < 0 {
		return tileCenterDeltaC
	}
	return samples[best].DeltaC
}

// RebaseResult is the outcome of rebasing a reference orbit: either a new
// ReferenceOrbit ready for another perturbation attempt, or a signal that
// the retry budget is exhausted and the tile must fall back to direct
// high-precision iteration.
type RebaseResult struct {
	Orbit      *ReferenceOrbit
	Series     *SeriesCoeffs
	Exhausted  bool
	Depth      int
}

// Rebase computes a fresh reference orbit centered at oldCenter + offset
// (the chosen rebase center expressed as an HPComplex delta added at full
// precision) and increments the retry depth. Once depth reaches
// MaxRebaseDepth, Exhausted is set and the caller must fall back to direct
// iteration (DirectIteratePixel).
func Rebase(oldCenter HPComplex, offset complex128, depth int, maxIterations int, bailout float64) RebaseResult {
	if depth >= MaxRebaseDepth {
		return RebaseResult{Exhausted: true, Depth: depth}
	}
	prec := oldCenter.Prec()
	newCenter := oldCenter.Add(NewHPComplex(real(offset), imag(offset), prec))
	orbit := ComputeReferenceOrbit(newCenter, maxIterations, bailout)
	series := ComputeSeriesCoeffs(orbit)
	return RebaseResult{Orbit: orbit, Series: series, Depth: depth + 1}
}

// DirectIteratePixel is the authoritative slow path: exact Mandelbrot-family
// iteration (z_0 = 0, z_{n+1} = z_n^2 + c) from the pixel's absolute
// high-precision coordinate c, used when the rebase retry budget is
// exhausted. The loop mirrors kernel.Iterate2D's check-before-update
// structure exactly, so it reports the same iteration count for the same c.
func DirectIteratePixel(c HPComplex, maxIterations int, bailout float64, smooth bool) PixelOutcome {
	bailout2 := bailout * bailout
	z := NewHPComplex(0, 0, c.Prec())
	zf := z.Float64()
	mag2 := 0.0
	n := 0
	for ; n < maxIterations && mag2 <= bailout2; n++ {
		z = z.Sqr().Add(c)
		zf = z.Float64()
		mag2 = real(zf)*real(zf) + imag(zf)*imag(zf)
	}
	if n >= maxIterations {
		return PixelOutcome{Iterations: float64(maxIterations), FinalZ: zf, Escaped: false}
	}
	iter := float64(n)
	if smooth {
		iter = smoothCount(n, mag2)
	}
	return PixelOutcome{Iterations: iter, FinalZ: zf, Escaped: true}
}
