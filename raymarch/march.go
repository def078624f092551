package raymarch

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/fractalkit/engine/kernel"
)

// Hit is the outcome of marching a single ray to a surface or a miss.
type Hit struct {
	Position   r3.Vec
	Normal     r3.Vec
	Distance   float64 // total distance traveled along the ray
	Steps      int
	OrbitTrap  float64
	Hit        bool
	Degenerate bool // true if the DE evaluation at the hit point was clamped
}

// DefaultNormalEpsilon is the central-difference step used for normal
// estimation when a caller passes zero.
const DefaultNormalEpsilon = 1e-4

// March sphere-traces from origin along direction (must be unit length)
// against the distance estimator implied by params:
//
//	t <- 0
//	loop:
//	  p <- origin + t*direction
//	  d <- DE(p)
//	  if d < epsilon: HIT
//	  t <- t + d*stepMultiplier
//	  if t > maxDistance: MISS
//
// cancelled is polled once per step; March returns promptly with Hit=false
// once it reports true.
func March(origin, direction r3.Vec, params kernel.FractalParams, cancelled func() bool) Hit {
	t := 0.0
	stepMul := params.StepMultiplier
	if stepMul <= 0 || stepMul > 1 {
		stepMul = 1
	}

	for step := 0; step < params.MaxSteps; step++ {
		if cancelled != nil && cancelled() {
			return Hit{Steps: step}
		}

		p := r3.Add(origin, r3.Scale(t, direction))
		de := kernel.DistanceEstimator(p, params)

		if de.Distance < params.Epsilon {
			normal := EstimateNormal(p, params, DefaultNormalEpsilon)
			return Hit{
				Position:   p,
				Normal:     normal,
				Distance:   t,
				Steps:      step + 1,
				OrbitTrap:  de.OrbitTrap,
				Hit:        true,
				Degenerate: de.Degenerate,
			}
		}

		t += de.Distance * stepMul
		if t > params.MaxDistance {
			return Hit{Distance: t, Steps: step + 1}
		}
	}

	return Hit{Distance: t, Steps: params.MaxSteps}
}

// EstimateNormal computes the surface normal at p via central differencing
// of the distance estimator along each axis.
func EstimateNormal(p r3.Vec, params kernel.FractalParams, eps float64) r3.Vec {
	if eps <= 0 {
		eps = DefaultNormalEpsilon
	}
	dx := r3.Vec{X: eps}
	dy := r3.Vec{Y: eps}
	dz := r3.Vec{Z: eps}

	nx := kernel.DistanceEstimator(r3.Add(p, dx), params).Distance - kernel.DistanceEstimator(r3.Sub(p, dx), params).Distance
	ny := kernel.DistanceEstimator(r3.Add(p, dy), params).Distance - kernel.DistanceEstimator(r3.Sub(p, dy), params).Distance
	nz := kernel.DistanceEstimator(r3.Add(p, dz), params).Distance - kernel.DistanceEstimator(r3.Sub(p, dz), params).Distance

	n := r3.Vec{X: nx, Y: ny, Z: nz}
	norm := n.Norm()
	if norm == 0 {
		return r3.Vec{Y: 1}
	}
	return r3.Scale(1/norm, n)
}

// AmbientOcclusion samples the distance estimator along the normal at
// increasing offsets and returns an occlusion factor in [0, 1], 1 meaning
// fully unoccluded. A fixed, small sample count keeps this affordable in
// the per-pixel hot path.
func AmbientOcclusion(p, normal r3.Vec, params kernel.FractalParams) float64 {
	const samples = 5
	const stepSize = 0.02
	occlusion := 0.0
	weight := 1.0
	for i := 1; i <= samples; i++ {
		dist := stepSize * float64(i)
		sample := r3.Add(p, r3.Scale(dist, normal))
		de := kernel.DistanceEstimator(sample, params)
		occlusion += weight * (dist - de.Distance)
		weight *= 0.5
	}
	return clamp01(1 - occlusion)
}

// SoftShadow marches a secondary ray from p toward the light, returning a
// shadow factor in [0, 1] via the standard penumbra formula: the minimum
// ratio of distance-to-surface over distance-traveled, scaled by
// softness.
func SoftShadow(p, lightDir r3.Vec, params kernel.FractalParams, softness float64, maxDistance float64) float64 {
	if softness <= 0 {
		softness = 16
	}
	res := 1.0
	t := params.Epsilon * 10
	for i := 0; i < params.MaxSteps; i++ {
		sample := r3.Add(p, r3.Scale(t, lightDir))
		de := kernel.DistanceEstimator(sample, params)
		if de.Distance < params.Epsilon {
			return 0
		}
		res = math.Min(res, softness*de.Distance/t)
		t += de.Distance
		if t > maxDistance {
			break
		}
	}
	return clamp01(res)
}

// Fog applies exponential distance fog: exp(-distance*density).
func Fog(distance, density float64) float64 {
	if density <= 0 {
		return 1
	}
	return math.Exp(-distance * density)
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
