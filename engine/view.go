package engine

import (
	"github.com/fractalkit/engine/kernel"
	"github.com/fractalkit/engine/perturbation"
	"gonum.org/v1/gonum/spatial/r3"
)

// View is the camera/frame description for one render pass: the 2D complex
// plane center and zoom for escape-time families, or the 3D camera pose for
// distance-estimated families, plus the output canvas size.
//
// A View is published once per render pass and is read-only thereafter; all
// workers rendering tiles against it see the same immutable snapshot.
type View struct {
	Params kernel.FractalParams

	// 2D fields. Center2D holds the view center at whatever precision
	// PrecisionBits implies; CenterF64 is its float64 rounding, cached so
	// per-pixel arithmetic never touches big.Float.
	Center2D      *perturbation.HPComplex
	CenterF64     complex128
	PrecisionBits uint
	Zoom          float64
	Rotation      float64

	// 3D fields.
	Camera r3.Vec
	Target r3.Vec
	Up     r3.Vec
	FOVY   float64

	Width, Height int
}

// PixelStep returns the complex-plane distance spanned by one pixel at this
// view's zoom. Zoom is defined as pixels-per-unit scale; a zoom of 1 means
// the canvas spans one unit of the complex plane along its height.
func (v View) PixelStep() float64 {
	if v.Zoom <= 0 || v.Height <= 0 {
		return 0
	}
	return 1 / (v.Zoom * float64(v.Height))
}

// Validate checks the view's own invariants, independent of FractalParams
// (checked separately by admission.go).
func (v View) Validate() error {
	if v.Width <= 0 || v.Height <= 0 {
		return ErrInvalidParams
	}
	switch v.Params.Dim {
	case kernel.Dim2D:
		if v.Zoom < 1 {
			return ErrInvalidParams
		}
	case kernel.Dim3D:
		if v.Camera == v.Target {
			return ErrInvalidParams
		}
		if v.FOVY <= 0 {
			return ErrInvalidParams
		}
	}
	return nil
}
