// Package raymarch implements sphere tracing against a 3D distance
// estimator: ray construction from a camera basis, the marching loop,
// surface normal estimation by central differencing, ambient occlusion,
// soft shadows, fog, and multi-sample anti-aliasing.
package raymarch

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Camera describes a perspective camera looking from Origin toward Target,
// with an up hint used to build an orthonormal basis.
type Camera struct {
	Origin r3.Vec
	Target r3.Vec
	Up     r3.Vec
	FOVY   float64 // vertical field of view, radians
}

// basis is the camera's orthonormal right/up/forward frame.
type basis struct {
	right, up, forward r3.Vec
}

func (c Camera) buildBasis() basis {
	forward := normalize(r3.Sub(c.Target, c.Origin))
	up := c.Up
	if up == (r3.Vec{}) {
		up = r3.Vec{Y: 1}
	}
	right := normalize(r3.Cross(forward, up))
	trueUp := r3.Cross(right, forward)
	return basis{right: right, up: trueUp, forward: forward}
}

// Ray builds the primary ray for normalized device coordinates u, v in
// [-1, 1], with v positive pointing up and aspect the viewport width/height.
func (c Camera) Ray(u, v, aspect float64) (origin, direction r3.Vec) {
	b := c.buildBasis()
	halfHeight := math.Tan(c.FOVY / 2)
	halfWidth := halfHeight * aspect

	dir := r3.Add(
		r3.Add(b.forward, r3.Scale(u*halfWidth, b.right)),
		r3.Scale(v*halfHeight, b.up),
	)
	return c.Origin, normalize(dir)
}

func normalize(v r3.Vec) r3.Vec {
	n := v.Norm()
	if n == 0 {
		return v
	}
	return r3.Scale(1/n, v)
}
