package kernel

import "fmt"

// PlaneKind identifies a 2D escape-time fractal family.
type PlaneKind string

const (
	PlaneMandelbrot PlaneKind = "mandelbrot"
	PlaneJulia      PlaneKind = "julia"
	PlaneBurningShip PlaneKind = "burning-ship"
	PlaneTricorn    PlaneKind = "tricorn"
	PlaneMandelPower PlaneKind = "mandel-power"
)

var validPlaneKinds = map[PlaneKind]bool{
	PlaneMandelbrot:  true,
	PlaneJulia:       true,
	PlaneBurningShip: true,
	PlaneTricorn:     true,
	PlaneMandelPower: true,
}

// IsValidPlaneKind reports whether kind is a recognized 2D fractal family.
func IsValidPlaneKind(kind PlaneKind) bool { return validPlaneKinds[kind] }

// SolidKind identifies a 3D distance-estimated fractal family.
type SolidKind string

const (
	SolidMandelbulb   SolidKind = "mandelbulb"
	SolidMandelbox    SolidKind = "mandelbox"
	SolidMenger       SolidKind = "menger"
	SolidSierpinski   SolidKind = "sierpinski"
	SolidQuatJulia    SolidKind = "quat-julia"
	SolidKleinian     SolidKind = "kleinian"
	SolidIFS          SolidKind = "ifs"
)

var validSolidKinds = map[SolidKind]bool{
	SolidMandelbulb: true,
	SolidMandelbox:  true,
	SolidMenger:     true,
	SolidSierpinski: true,
	SolidQuatJulia:  true,
	SolidKleinian:   true,
	SolidIFS:        true,
}

// IsValidSolidKind reports whether kind is a recognized 3D fractal family.
func IsValidSolidKind(kind SolidKind) bool { return validSolidKinds[kind] }

// Dimension distinguishes 2D escape-time params from 3D distance-estimated
// params within a single FractalParams value.
type Dimension uint8

const (
	Dim2D Dimension = iota
	Dim3D
)

// QuatVariant selects the algebra used by the quaternion Julia kernel.
type QuatVariant string

const (
	QuatVariantQuat         QuatVariant = "quat"
	QuatVariantBicomplex    QuatVariant = "bicomplex"
	QuatVariantHypercomplex QuatVariant = "hypercomplex"
)

// KleinianVariant selects the fundamental-domain construction for the
// Kleinian group DE.
type KleinianVariant string

const (
	KleinianKnighty    KleinianVariant = "knighty"
	KleinianApollonian KleinianVariant = "apollonian"
	KleinianSchottky   KleinianVariant = "schottky"
)

// Affine3 is a 3D affine map: p -> Linear*p + Translation, used by the IFS
// solid kind. Linear is stored row-major.
type Affine3 struct {
	Linear      [9]float64
	Translation [3]float64
}

// MandelboxParams groups the fold/scale constants of the Mandelbox DE.
type MandelboxParams struct {
	Scale     float64
	FoldLimit float64 // L in the box-fold clamp
	RMin      float64
	RFixed    float64
	Rotations [3]float64 // per-axis pre-fold rotation, radians
}

// MengerParams groups the Menger sponge DE constants.
type MengerParams struct {
	Variant int     // 0 = classic cross, 1 = variant with extra crossbar
	CrossW  float64 // crossbar half-width
}

// FractalParams is a tagged variant over the plane and solid fractal
// families. Only the fields relevant to Kind/SolidKind are meaningful; the
// engine validates this at Prepare time (see admission.go).
//
// FractalParams is immutable for the duration of a view render: the
// scheduler rejects tile submissions against a stale parameter snapshot
// (see Handle.paramsEpoch).
type FractalParams struct {
	Dim  Dimension
	Kind PlaneKind // meaningful when Dim == Dim2D
	Solid SolidKind // meaningful when Dim == Dim3D

	// Common across kinds.
	MaxIterations int
	Bailout       float64
	Epsilon       float64 // 3D hit threshold / gradient offset
	MaxSteps      int
	MaxDistance   float64
	StepMultiplier float64 // raymarch safety factor, 0 < x <= 1
	JuliaMode     bool

	// Plane-kind specific.
	JuliaC complex128 // PlaneJulia
	Power  float64    // PlaneMandelPower and power-generalized kernels

	// Solid-kind specific.
	BulbPower   float64 // SolidMandelbulb
	BulbVariant int
	Mandelbox   MandelboxParams
	Menger      MengerParams
	Sierpinski  struct{ Variant int }
	QuatC       Quaternion
	QuatSliceW  float64
	QuatVariant QuatVariant
	QuatPower   float64
	KleinianBox [3]float64
	KleinianR   float64
	KleinianI   float64
	KleinianVariant KleinianVariant
	IFSTransforms []Affine3
}

// Validate checks FractalParams for the invariants the admission policy
// enforces before any tile is scheduled against it.
func (p FractalParams) Validate() error {
	if p.MaxIterations < 0 {
		return fmt.Errorf("%w: maxIterations must be >= 0, got %d", ErrInvalidParams, p.MaxIterations)
	}
	if p.Bailout <= 0 {
		return fmt.Errorf("%w: bailout must be > 0, got %g", ErrInvalidParams, p.Bailout)
	}
	switch p.Dim {
	case Dim2D:
		if !IsValidPlaneKind(p.Kind) {
			return fmt.Errorf("%w: unknown plane kind %q", ErrInvalidParams, p.Kind)
		}
	case Dim3D:
		if !IsValidSolidKind(p.Solid) {
			return fmt.Errorf("%w: unknown solid kind %q", ErrInvalidParams, p.Solid)
		}
		if p.Epsilon <= 0 {
			return fmt.Errorf("%w: epsilon must be > 0 for 3D kinds, got %g", ErrInvalidParams, p.Epsilon)
		}
		if p.MaxSteps <= 0 {
			return fmt.Errorf("%w: maxSteps must be > 0 for 3D kinds, got %d", ErrInvalidParams, p.MaxSteps)
		}
		if p.MaxDistance <= 0 {
			return fmt.Errorf("%w: maxDistance must be > 0 for 3D kinds, got %g", ErrInvalidParams, p.MaxDistance)
		}
		if p.StepMultiplier <= 0 || p.StepMultiplier > 1 {
			return fmt.Errorf("%w: stepMultiplier must be in (0, 1], got %g", ErrInvalidParams, p.StepMultiplier)
		}
	default:
		return fmt.Errorf("%w: unknown dimension %d", ErrInvalidParams, p.Dim)
	}
	return nil
}

// DefaultFractalParams returns a FractalParams with conservative defaults
// for the given plane kind.
func DefaultFractalParams(kind PlaneKind) FractalParams {
	return FractalParams{
		Dim:            Dim2D,
		Kind:           kind,
		MaxIterations:  1000,
		Bailout:        4,
		StepMultiplier: 0.9,
	}
}

// DefaultSolidParams returns a FractalParams with conservative defaults for
// the given 3D fractal family.
func DefaultSolidParams(kind SolidKind) FractalParams {
	return FractalParams{
		Dim:            Dim3D,
		Solid:          kind,
		MaxIterations:  12,
		Bailout:        4,
		Epsilon:        1e-4,
		MaxSteps:       256,
		MaxDistance:    50,
		StepMultiplier: 0.9,
		BulbPower:      8,
	}
}
