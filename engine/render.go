package engine

import (
	"hash/fnv"
	"math/cmplx"
	"math/rand"

	"github.com/fractalkit/engine/etrace"
	"github.com/fractalkit/engine/kernel"
	"github.com/fractalkit/engine/perturbation"
	"github.com/fractalkit/engine/raymarch"
	"gonum.org/v1/gonum/spatial/r3"
)

// render2D returns the job closure for one 2D tile: direct iteration when
// no reference orbit is available (shallow zoom, or a plane kind other than
// Mandelbrot — see referenceOrbitEligible, the perturbation path only knows
// the z <- z^2 + c recurrence), perturbation against the handle's current
// reference orbit otherwise, with per-pixel glitch detection and bounded
// tile-level rebasing.
func (h *Handle) render2D(view View, tile Tile, opts Options) func(cancelled func() bool) (interface{}, error) {
	return func(cancelled func() bool) (interface{}, error) {
		withFinalZ := opts.ColorMode == ColorOrbitTrap
		result := NewTileResult2D(tile.X, tile.Y, tile.W, tile.H, withFinalZ)

		if view.Center2D == nil {
			h.fillDirect2D(result, view, tile, cancelled)
			return result, nil
		}

		orbit, series := h.orbits.Current()
		if orbit == nil {
			h.fillDirect2D(result, view, tile, cancelled)
			return result, nil
		}
		depth := 0
		for {
			samples := make([]perturbation.PixelSample, tile.W*tile.H)
			glitches := h.fillPerturbed2D(result, view, tile, opts, orbit, series, samples, cancelled)
			if cancelled() {
				return result, ErrCancelled
			}
			if glitches == 0 {
				break
			}
			h.trace.RecordRebase(etrace.RebaseRecord{TileX: tile.X, TileY: tile.Y, Depth: depth})
			if depth >= perturbation.MaxRebaseDepth {
				result.Flags |= FlagGlitched
				h.fallbackGlitchedPixels(result, view, tile, orbit, samples)
				break
			}
			tileCenterDeltaC := tile.Origin(view) + complex(float64(tile.W)/2*view.PixelStep(), -float64(tile.H)/2*view.PixelStep()) - orbit.Center.Float64()
			chosen := perturbation.ChooseRebaseCenter(samples, tileCenterDeltaC)
			rr := perturbation.Rebase(orbit.Center, chosen, depth, view.Params.MaxIterations, view.Params.Bailout)
			depth = rr.Depth
			if rr.Exhausted {
				result.Flags |= FlagGlitched
				h.fallbackGlitchedPixels(result, view, tile, orbit, samples)
				break
			}
			orbit, series = rr.Orbit, rr.Series
			h.orbits.Publish(orbit, series)
		}
		return result, nil
	}
}

func (h *Handle) fillDirect2D(result *TileResult, view View, tile Tile, cancelled func() bool) {
	step := view.PixelStep()
	origin := tile.Origin(view)
	for row := 0; row < tile.H; row++ {
		if cancelled() {
			return
		}
		for col := 0; col < tile.W; col++ {
			c := origin + complex(float64(col)*step, -float64(row)*step)
			outcome := kernel.Iterate2D(c, view.Params, true)
			idx := row*tile.W + col
			result.Iterations[idx] = float32(outcome.Iterations)
			if outcome.Escaped {
				result.Escaped[idx] = 1
			}
			if result.FinalZ != nil {
				result.FinalZ[2*idx] = float32(real(outcome.FinalZ))
				result.FinalZ[2*idx+1] = float32(imag(outcome.FinalZ))
			}
		}
	}
}

// fillPerturbed2D iterates every pixel of the tile against orbit/series,
// recording a PixelSample for each (used to pick a rebase center if needed)
// and returns the number of pixels that glitched.
func (h *Handle) fillPerturbed2D(result *TileResult, view View, tile Tile, opts Options, orbit *perturbation.ReferenceOrbit, series *perturbation.SeriesCoeffs, samples []perturbation.PixelSample, cancelled func() bool) int {
	seriesEps := opts.SeriesEpsilon
	if seriesEps <= 0 {
		seriesEps = DefaultSeriesEpsilon
	}
	step := view.PixelStep()
	origin := tile.Origin(view)
	refCenter := orbit.Center.Float64()
	glitches := 0

	for row := 0; row < tile.H; row++ {
		if cancelled() {
			return glitches
		}
		for col := 0; col < tile.W; col++ {
			idx := row*tile.W + col
			c := origin + complex(float64(col)*step, -float64(row)*step)
			deltaC := c - refCenter

			startN, delta0 := 0, complex128(0)
			if series != nil {
				if n := series.SkipIterations(cmplx.Abs(deltaC), seriesEps); n > 0 {
					startN, delta0 = n, series.DeltaAt(n, deltaC)
				}
			}

			po := perturbation.IteratePixel(orbit, deltaC, startN, delta0, view.Params.MaxIterations, view.Params.Bailout, opts.GlitchTolerance, true)
			samples[idx] = perturbation.PixelSample{DeltaC: deltaC, GlitchRatio: po.GlitchRatio, Glitched: po.Glitched}
			if po.Glitched {
				glitches++
				h.trace.RecordGlitch(etrace.GlitchRecord{TileX: tile.X, TileY: tile.Y, PixelX: col, PixelY: row})
				continue
			}
			result.Iterations[idx] = float32(po.Iterations)
			if po.Escaped {
				result.Escaped[idx] = 1
			}
			if result.FinalZ != nil {
				result.FinalZ[2*idx] = float32(real(po.FinalZ))
				result.FinalZ[2*idx+1] = float32(imag(po.FinalZ))
			}
		}
	}
	return glitches
}

// fallbackGlitchedPixels resolves any pixel still flagged glitched in
// samples by switching to exact high-precision iteration from its absolute
// coordinate, the authoritative slow path once the rebase budget is spent.
func (h *Handle) fallbackGlitchedPixels(result *TileResult, view View, tile Tile, orbit *perturbation.ReferenceOrbit, samples []perturbation.PixelSample) {
	refCenter := orbit.Center.Float64()
	prec := orbit.Center.Prec()
	for idx, s := range samples {
		if !s.Glitched {
			continue
		}
		c := refCenter + s.DeltaC
		abs := perturbation.NewHPComplex(real(c), imag(c), prec)
		po := perturbation.DirectIteratePixel(abs, view.Params.MaxIterations, view.Params.Bailout, true)
		result.Iterations[idx] = float32(po.Iterations)
		if po.Escaped {
			result.Escaped[idx] = 1
		}
		if result.FinalZ != nil {
			result.FinalZ[2*idx] = float32(real(po.FinalZ))
			result.FinalZ[2*idx+1] = float32(imag(po.FinalZ))
		}
	}
}

// render3D returns the job closure for one 3D tile: sphere-trace every
// pixel, averaging position/normal/step-count over AASamples jittered
// sub-pixel rays. This populates only the physical Hit/Distance/Steps/
// Normal buffers; AO, soft shadows and fog are shading concerns applied
// later by the palette package, which reconstructs the same camera ray
// from View and these buffers rather than carrying a shaded-color channel
// through the tile result.
func (h *Handle) render3D(view View, tile Tile, opts Options) func(cancelled func() bool) (interface{}, error) {
	return func(cancelled func() bool) (interface{}, error) {
		result := NewTileResult3D(tile.X, tile.Y, tile.W, tile.H)
		cam := raymarch.Camera{Origin: view.Camera, Target: view.Target, Up: view.Up, FOVY: view.FOVY}
		aspect := float64(tile.CanvasW) / float64(tile.CanvasH)

		for row := 0; row < tile.H; row++ {
			if cancelled() {
				return result, ErrCancelled
			}
			for col := 0; col < tile.W; col++ {
				idx := row*tile.W + col
				px, py := tile.X+col, tile.Y+row

				var sumDist float64
				var sumSteps int
				var sumNormal r3.Vec
				hits := 0

				for s := 0; s < opts.AASamples; s++ {
					jx, jy := aaJitter(px, py, s)
					u := 2*(float64(px)+jx)/float64(tile.CanvasW) - 1
					v := 1 - 2*(float64(py)+jy)/float64(tile.CanvasH)
					origin, dir := cam.Ray(u, v, aspect)
					hitResult := raymarch.March(origin, dir, view.Params, cancelled)
					sumSteps += hitResult.Steps
					if hitResult.Hit {
						hits++
						sumDist += hitResult.Distance
						sumNormal = r3.Add(sumNormal, hitResult.Normal)
					}
				}

				result.Steps[idx] = uint16(sumSteps / opts.AASamples)
				if hits > 0 {
					result.Hit[idx] = 1
					result.Distance[idx] = float32(sumDist / float64(hits))
					n := normalizeVec(sumNormal)
					result.Normal[3*idx+0] = float32(n.X)
					result.Normal[3*idx+1] = float32(n.Y)
					result.Normal[3*idx+2] = float32(n.Z)
				}
			}
		}
		return result, nil
	}
}

func normalizeVec(v r3.Vec) r3.Vec {
	n := v.Norm()
	if n == 0 {
		return v
	}
	return r3.Scale(1/n, v)
}

// aaJitter returns a deterministic pseudo-random sub-pixel offset in
// [0, 1)^2 for anti-aliasing sample s of pixel (px, py): the same tile
// rendered twice produces bit-identical output, the same property the
// simulator's per-subsystem RNG seeding gives reproducible runs.
func aaJitter(px, py, s int) (float64, float64) {
	h := fnv.New64a()
	var buf [12]byte
	putInt32(buf[0:4], int32(px))
	putInt32(buf[4:8], int32(py))
	putInt32(buf[8:12], int32(s))
	h.Write(buf[:])
	seed := int64(h.Sum64())
	r := rand.New(rand.NewSource(seed))
	return r.Float64(), r.Float64()
}

func putInt32(b []byte, v int32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
