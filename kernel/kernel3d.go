package kernel

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// DEResult is the result of a distance-estimator evaluation: the safe
// (underestimating) distance plus the auxiliary quantities a color-data
// mapping needs, such as orbit traps and fold counters.
type DEResult struct {
	Distance   float64
	OrbitTrap  float64 // min |z| over the orbit
	Folds      int     // fold-operation counter, where applicable
	Degenerate bool    // true if the raw evaluation was NaN/Inf and was clamped
}

// DistanceEstimator returns a provable underestimate of the distance from p
// to the fractal surface defined by params.Solid.
func DistanceEstimator(p r3.Vec, params FractalParams) DEResult {
	switch params.Solid {
	case SolidMandelbox:
		return deMandelbox(p, params)
	case SolidMenger:
		return deMenger(p, params)
	case SolidSierpinski:
		return deSierpinski(p, params)
	case SolidQuatJulia:
		return deQuatJulia(p, params)
	case SolidKleinian:
		return deKleinian(p, params)
	case SolidIFS:
		return deIFS(p, params)
	default:
		return deMandelbulb(p, params)
	}
}

// clampDE enforces that DE functions are non-negative for all finite
// inputs, and that a NaN/Inf evaluation degrades to maxDistance rather than
// propagating.
func clampDE(d, maxDistance float64) (float64, bool) {
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return maxDistance, true
	}
	if d < 0 {
		d = 0
	}
	return d, false
}

// deMandelbulb iterates z <- z^power + c in spherical coordinates, tracking
// the derivative dr <- p*|z|^(p-1)*dr + 1; DE ~= 0.5*log(r)*r/dr.
func deMandelbulb(p r3.Vec, params FractalParams) DEResult {
	power := params.BulbPower
	if power == 0 {
		power = 8
	}
	bailout2 := params.Bailout * params.Bailout

	z := p
	dr := 1.0
	r := 0.0
	trap := math.Inf(1)

	for i := 0; i < params.MaxIterations; i++ {
		r = z.Norm()
		trap = math.Min(trap, r)
		if r*r > bailout2 {
			break
		}

		theta := math.Acos(clampUnit(z.Z / maxf(r, 1e-300)))
		phi := math.Atan2(z.Y, z.X)
		dr = math.Pow(r, power-1)*power*dr + 1

		zr := math.Pow(r, power)
		theta *= power
		phi *= power

		z = r3.Vec{
			X: zr * math.Sin(theta) * math.Cos(phi),
			Y: zr * math.Sin(theta) * math.Sin(phi),
			Z: zr * math.Cos(theta),
		}
		z = z.Add(p)
	}

	d := 0.5 * math.Log(maxf(r, 1e-300)) * r / maxf(dr, 1e-300)
	d, degenerate := clampDE(d, params.MaxDistance)
	return DEResult{Distance: d, OrbitTrap: trap, Degenerate: degenerate}
}

// deMandelbox alternates a box-fold and a sphere-fold, accumulating the
// derivative dz <- dz*|scale| + 1; DE ~= (|z| - 0.5)/|dz|.
func deMandelbox(p r3.Vec, params FractalParams) DEResult {
	mb := params.Mandelbox
	scale := mb.Scale
	if scale == 0 {
		scale = 2.5
	}
	foldLimit := mb.FoldLimit
	if foldLimit == 0 {
		foldLimit = 1
	}
	rMin := mb.RMin
	if rMin == 0 {
		rMin = 0.5
	}
	rFixed := mb.RFixed
	if rFixed == 0 {
		rFixed = 1
	}
	rMin2 := rMin * rMin
	rFixed2 := rFixed * rFixed

	z := p
	dz := 1.0
	folds := 0
	trap := math.Inf(1)

	for i := 0; i < params.MaxIterations; i++ {
		var folded bool
		z, folded = boxFold(z, foldLimit)
		if folded {
			folds++
		}

		r2 := z.Dot(z)
		switch {
		case r2 < rMin2:
			factor := rFixed2 / rMin2
			z = z.Scale(factor)
			dz *= factor
		case r2 < rFixed2:
			factor := rFixed2 / r2
			z = z.Scale(factor)
			dz *= factor
		}

		z = z.Scale(scale).Add(p)
		dz = dz*math.Abs(scale) + 1

		trap = math.Min(trap, z.Norm())
		if z.Norm() > params.Bailout*4 {
			break
		}
	}

	d := (z.Norm() - 0.5) / maxf(math.Abs(dz), 1e-300)
	d, degenerate := clampDE(d, params.MaxDistance)
	return DEResult{Distance: d, OrbitTrap: trap, Folds: folds, Degenerate: degenerate}
}

// boxFold clamps each component to [-limit, limit] via z <- clamp(z,-L,L)*2 - z.
func boxFold(z r3.Vec, limit float64) (r3.Vec, bool) {
	folded := false
	fold := func(v float64) float64 {
		if v > limit {
			folded = true
			return 2*limit - v
		}
		if v < -limit {
			folded = true
			return -2*limit - v
		}
		return v
	}
	return r3.Vec{X: fold(z.X), Y: fold(z.Y), Z: fold(z.Z)}, folded
}

// deMenger is a cross-distance DE using repeated mod-wrap and triple-axis
// max(|.|) differencing, accumulating scale s <- 3*s.
func deMenger(p r3.Vec, params FractalParams) DEResult {
	crossW := params.Menger.CrossW
	if crossW == 0 {
		crossW = 1.0 / 3.0
	}

	z := p
	scale := 1.0
	folds := 0

	// Fold into the base cube.
	for i := 0; i < params.MaxIterations; i++ {
		z = r3.Vec{X: math.Abs(z.X), Y: math.Abs(z.Y), Z: math.Abs(z.Z)}
		if z.X < z.Y {
			z.X, z.Y = z.Y, z.X
			folds++
		}
		if z.X < z.Z {
			z.X, z.Z = z.Z, z.X
			folds++
		}
		if z.Y < z.Z {
			z.Y, z.Z = z.Z, z.Y
			folds++
		}

		z = z.Scale(3).Sub(r3.Vec{X: 2, Y: 2, Z: 2})
		if z.Z < -1 {
			z.Z += 2
		}
		scale *= 3
	}

	cubeDE := (maxf(math.Abs(z.X), math.Abs(z.Y)) - 1) / scale
	crossDE := (math.Min(math.Max(math.Abs(z.X)-crossW, math.Abs(z.Y)-crossW), math.Abs(z.Z)-crossW)) / scale
	d := math.Max(cubeDE, -crossDE)
	d, degenerate := clampDE(d, params.MaxDistance)
	return DEResult{Distance: d, OrbitTrap: z.Norm(), Folds: folds, Degenerate: degenerate}
}

// deSierpinski folds into the half-space of the nearest tetrahedron vertex,
// then z <- 2z - v; DE = (|z| - r0)/2^n.
func deSierpinski(p r3.Vec, params FractalParams) DEResult {
	vertices := [4]r3.Vec{
		{X: 1, Y: 1, Z: 1},
		{X: -1, Y: -1, Z: 1},
		{X: 1, Y: -1, Z: -1},
		{X: -1, Y: 1, Z: -1},
	}
	const r0 = 1.0

	z := p
	scale := 1.0
	folds := 0

	for i := 0; i < params.MaxIterations; i++ {
		best := 0
		bestDist := math.Inf(1)
		for vi, v := range vertices {
			d := z.Sub(v).Norm()
			if d < bestDist {
				bestDist = d
				best = vi
			}
		}
		v := vertices[best]
		z = z.Sub(v).Scale(2).Add(v)
		scale *= 2
		folds++
	}

	d := (z.Norm() - r0) / scale
	d, degenerate := clampDE(d, params.MaxDistance)
	return DEResult{Distance: d, OrbitTrap: z.Norm(), Folds: folds, Degenerate: degenerate}
}

// deQuatJulia iterates q <- q^2 + c in the quaternions, tracking dq <-
// 2*q*dq; DE ~= 0.5*log(|q|)*|q|/|dq|. The slice plane W =
// params.QuatSliceW fixes the 4th quaternion component for the 3D cross
// section. The bicomplex variant instead iterates the commutative relation
// (z1,z2) <- (z1^2 - z2^2, 2*z1*z2) + c.
func deQuatJulia(p r3.Vec, params FractalParams) DEResult {
	bailout2 := params.Bailout * params.Bailout

	if params.QuatVariant == QuatVariantBicomplex {
		return deBicomplexJulia(p, params)
	}

	q := Quaternion{W: p.X, X: p.Y, Y: p.Z, Z: params.QuatSliceW}
	c := params.QuatC
	dq := Quaternion{W: 1}
	trap := math.Inf(1)

	var n2 float64
	for i := 0; i < params.MaxIterations; i++ {
		n2 = q.Norm2()
		trap = math.Min(trap, math.Sqrt(n2))
		if n2 > bailout2 {
			break
		}
		dq = q.Mul(dq).Scale(2)
		q = q.Sqr().Add(c)
	}

	qn := math.Sqrt(n2)
	dqn := dq.Norm()
	d := 0.5 * math.Log(maxf(qn, 1e-300)) * qn / maxf(dqn, 1e-300)
	d, degenerate := clampDE(d, params.MaxDistance)
	return DEResult{Distance: d, OrbitTrap: trap, Degenerate: degenerate}
}

func deBicomplexJulia(p r3.Vec, params FractalParams) DEResult {
	bailout2 := params.Bailout * params.Bailout
	z1 := complex(p.X, p.Y)
	z2 := complex(p.Z, params.QuatSliceW)
	c1 := params.QuatC.W
	c2 := params.QuatC.X
	c := complex(c1, 0)
	c2c := complex(c2, 0)

	d1, d2 := complex(1, 0), complex(0, 0)
	trap := math.Inf(1)
	var mag2 float64

	for i := 0; i < params.MaxIterations; i++ {
		mag2 = real(z1)*real(z1) + imag(z1)*imag(z1) + real(z2)*real(z2) + imag(z2)*imag(z2)
		trap = math.Min(trap, math.Sqrt(mag2))
		if mag2 > bailout2 {
			break
		}
		nd1 := 2 * (z1*d1 - z2*d2)
		nd2 := 2 * (z1*d2 + z2*d1)
		d1, d2 = nd1, nd2
		nz1 := z1*z1 - z2*z2 + c
		nz2 := 2*z1*z2 + c2c
		z1, z2 = nz1, nz2
	}

	qn := math.Sqrt(mag2)
	dqn := math.Sqrt(real(d1)*real(d1) + imag(d1)*imag(d1) + real(d2)*real(d2) + imag(d2)*imag(d2))
	d := 0.5 * math.Log(maxf(qn, 1e-300)) * qn / maxf(dqn, 1e-300)
	d, degenerate := clampDE(d, params.MaxDistance)
	return DEResult{Distance: d, OrbitTrap: trap, Degenerate: degenerate}
}

// deKleinian folds p into the Kleinian group's fundamental domain (box wrap
// plus sphere inversion z <- z*max(R/|z|^2, 1)), accumulating scale; DE =
// min orbit distance / scale. The "knighty" variant admits several
// inequivalent DE formulations in the wild; DESIGN.md records the one
// chosen here (box-fold plus sphere inversion) as the intended behavior
// rather than a literal match to any single external construction.
func deKleinian(p r3.Vec, params FractalParams) DEResult {
	box := r3.Vec{X: params.KleinianBox[0], Y: params.KleinianBox[1], Z: params.KleinianBox[2]}
	if box.X == 0 {
		box = r3.Vec{X: 1, Y: 1, Z: 1}
	}
	kr := params.KleinianR
	if kr == 0 {
		kr = 1
	}
	ki := params.KleinianI
	if ki == 0 {
		ki = 0
	}

	z := p
	scale := 1.0
	minDist := math.Inf(1)

	for i := 0; i < params.MaxIterations; i++ {
		z = wrapBox(z, box)

		r2 := z.Dot(z)
		if r2 < 1e-12 {
			r2 = 1e-12
		}
		k := maxf(kr*kr/r2, 1)
		z = z.Scale(k)
		scale *= k

		z = z.Add(r3.Vec{X: ki, Y: 0, Z: 0})

		minDist = math.Min(minDist, z.Norm())
	}

	d := minDist / maxf(scale, 1e-300)
	d, degenerate := clampDE(d, params.MaxDistance)
	return DEResult{Distance: d, OrbitTrap: minDist, Degenerate: degenerate}
}

func wrapBox(z, box r3.Vec) r3.Vec {
	wrap := func(v, b float64) float64 {
		if b <= 0 {
			return v
		}
		return v - 2*b*math.Round(v/(2*b))
	}
	return r3.Vec{X: wrap(z.X, box.X), Y: wrap(z.Y, box.Y), Z: wrap(z.Z, box.Z)}
}

// deIFS applies the inverse of the nearest transform's map repeatedly,
// dividing a base-shape DE by the accumulated scale.
func deIFS(p r3.Vec, params FractalParams) DEResult {
	if len(params.IFSTransforms) == 0 {
		d, degenerate := clampDE(p.Norm()-1, params.MaxDistance)
		return DEResult{Distance: d, OrbitTrap: p.Norm(), Degenerate: degenerate}
	}

	z := p
	scale := 1.0

	for i := 0; i < params.MaxIterations; i++ {
		best := 0
		bestDist := math.Inf(1)
		for ti, t := range params.IFSTransforms {
			fp := applyAffine(t, z)
			d := fp.Norm()
			if d < bestDist {
				bestDist = d
				best = ti
			}
		}
		t := params.IFSTransforms[best]
		z = applyAffine(t, z)
		s := affineScaleEstimate(t)
		scale *= s
	}

	baseDE := z.Norm() - 1
	d := baseDE / maxf(scale, 1e-300)
	d, degenerate := clampDE(d, params.MaxDistance)
	return DEResult{Distance: d, OrbitTrap: z.Norm(), Degenerate: degenerate}
}

func applyAffine(t Affine3, p r3.Vec) r3.Vec {
	l := t.Linear
	return r3.Vec{
		X: l[0]*p.X + l[1]*p.Y + l[2]*p.Z + t.Translation[0],
		Y: l[3]*p.X + l[4]*p.Y + l[5]*p.Z + t.Translation[1],
		Z: l[6]*p.X + l[7]*p.Y + l[8]*p.Z + t.Translation[2],
	}
}

// affineScaleEstimate approximates the uniform scale factor of an affine
// map from the norm of its first row, sufficient for DE normalization.
func affineScaleEstimate(t Affine3) float64 {
	l := t.Linear
	s := math.Sqrt(l[0]*l[0] + l[1]*l[1] + l[2]*l[2])
	if s == 0 {
		s = 1
	}
	return s
}

func clampUnit(x float64) float64 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
