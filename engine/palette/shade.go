package palette

import (
	"image/color"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/fractalkit/engine/engine"
	"github.com/fractalkit/engine/raymarch"
)

// Shade3D computes the final pixel color for one hit pixel of a 3D
// TileResult. It reconstructs the lighting geometry (surface position plus
// the stored normal) and re-evaluates the distance estimator along the
// normal and toward the light to get ambient occlusion, soft shadows and
// distance fog -- shading the render pass itself never computes, so a
// glitched re-render doesn't redundantly pay for it twice.
func Shade3D(view engine.View, opts engine.Options, position, normal r3.Vec, gradient Gradient) color.RGBA {
	base := gradient.RGBA(normalTone(normal))

	shade := 1.0
	if opts.EnableAO {
		shade *= raymarch.AmbientOcclusion(position, normal, view.Params)
	}
	if opts.EnableShadows {
		light := normalizeVec(r3.Vec{X: opts.LightDir[0], Y: opts.LightDir[1], Z: opts.LightDir[2]})
		shade *= raymarch.SoftShadow(position, light, view.Params, opts.ShadowSoftness, view.Params.MaxDistance)
	}

	distCam := r3.Sub(position, view.Camera).Norm()
	fog := raymarch.Fog(distCam, opts.FogDensity)

	return color.RGBA{
		R: scaleChannel(base.R, shade*fog),
		G: scaleChannel(base.G, shade*fog),
		B: scaleChannel(base.B, shade*fog),
		A: 255,
	}
}

// normalTone maps a surface normal to a scalar in [0, 1] for gradient
// lookup: the vertical component remapped from [-1, 1].
func normalTone(n r3.Vec) float64 {
	return clamp01((n.Y + 1) / 2)
}

func scaleChannel(c uint8, factor float64) uint8 {
	v := float64(c) * clamp01(factor)
	if v > 255 {
		v = 255
	}
	return uint8(math.Round(v))
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func normalizeVec(v r3.Vec) r3.Vec {
	n := v.Norm()
	if n == 0 {
		return v
	}
	return r3.Scale(1/n, v)
}
