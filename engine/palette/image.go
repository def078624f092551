package palette

import (
	"image"
	"image/color"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/fractalkit/engine/engine"
	"github.com/fractalkit/engine/raymarch"
)

// ColorMode mirrors engine.ColorMode's values; kept as a distinct type so
// palette has no import-time dependency cycle risk with engine beyond this
// one-directional import.
type ColorMode string

const (
	ColorIteration ColorMode = "iteration"
	ColorSmooth    ColorMode = "smooth"
	ColorOrbitTrap ColorMode = "orbit-trap"
	ColorDistance  ColorMode = "distance"
	ColorNormal    ColorMode = "normal"
)

// Compose2D paints tr into dst at its own (X, Y) offset using mode and
// gradient. Interior (non-escaped) pixels are painted black.
func Compose2D(dst *image.RGBA, tr *engine.TileResult, mode ColorMode, maxIterations int, gradient Gradient) {
	for row := 0; row < tr.H; row++ {
		for col := 0; col < tr.W; col++ {
			idx := row*tr.W + col
			px, py := tr.X+col, tr.Y+row

			if tr.Escaped[idx] == 0 {
				dst.SetRGBA(px, py, color.RGBA{A: 255})
				continue
			}

			var t float64
			switch mode {
			case ColorIteration:
				band := int(tr.Iterations[idx])
				if maxIterations > 0 {
					t = float64(band%maxIterations) / float64(maxIterations)
				}
			case ColorOrbitTrap:
				if tr.FinalZ != nil {
					re, im := float64(tr.FinalZ[2*idx]), float64(tr.FinalZ[2*idx+1])
					t = clamp01(math.Hypot(re, im) / 2)
				} else {
					t = smoothTone(tr.Iterations[idx], maxIterations)
				}
			default: // ColorSmooth and anything unrecognized fall back to smooth
				t = smoothTone(tr.Iterations[idx], maxIterations)
			}
			dst.SetRGBA(px, py, gradient.RGBA(t))
		}
	}
}

func smoothTone(iterations float32, maxIterations int) float64 {
	if maxIterations <= 0 {
		return 0
	}
	return clamp01(float64(iterations) / float64(maxIterations))
}

// Compose3D paints tr into dst using the distance/normal buffers. Misses
// are painted transparent. When view/opts request shadows, AO or fog, each
// hit pixel is shaded via Shade3D by reconstructing its world position from
// the camera ray; otherwise it is colored directly from its normal.
func Compose3D(dst *image.RGBA, tr *engine.TileResult, view engine.View, opts engine.Options, mode ColorMode, gradient Gradient) {
	cam := raymarch.Camera{Origin: view.Camera, Target: view.Target, Up: view.Up, FOVY: view.FOVY}
	aspect := float64(view.Width) / float64(view.Height)

	for row := 0; row < tr.H; row++ {
		for col := 0; col < tr.W; col++ {
			idx := row*tr.W + col
			px, py := tr.X+col, tr.Y+row

			if tr.Hit[idx] == 0 {
				dst.SetRGBA(px, py, color.RGBA{})
				continue
			}

			u := 2*(float64(px)+0.5)/float64(view.Width) - 1
			v := 1 - 2*(float64(py)+0.5)/float64(view.Height)
			origin, dir := cam.Ray(u, v, aspect)
			position := r3.Add(origin, r3.Scale(float64(tr.Distance[idx]), dir))
			normal := r3.Vec{X: float64(tr.Normal[3*idx]), Y: float64(tr.Normal[3*idx+1]), Z: float64(tr.Normal[3*idx+2])}

			var rgba color.RGBA
			switch mode {
			case ColorDistance:
				t := clamp01(float64(tr.Distance[idx]) / view.Params.MaxDistance)
				rgba = gradient.RGBA(t)
			case ColorNormal:
				rgba = color.RGBA{
					R: uint8(clamp01((normal.X+1)/2) * 255),
					G: uint8(clamp01((normal.Y+1)/2) * 255),
					B: uint8(clamp01((normal.Z+1)/2) * 255),
					A: 255,
				}
			default:
				if opts.EnableAO || opts.EnableShadows || opts.FogDensity > 0 {
					rgba = Shade3D(view, opts, position, normal, gradient)
				} else {
					rgba = gradient.RGBA(normalTone(normal))
				}
			}
			dst.SetRGBA(px, py, rgba)
		}
	}
}
