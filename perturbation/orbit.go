package perturbation

// ReferenceOrbit is the sequence Z0, Z1, ... generated from a reference
// point C in high precision. Orbit[n] == Z_n for every n, including
// Orbit[0] == Z_0 == 0, so that an iteration count read off this orbit
// lines up with kernel.Iterate2D's count for the same pixel.
//
// Invariants:
//   - Length == len(Orbit) <= cap(Orbit)
//   - if Escaped, ZMag2[Length-1] > bailout^2 and EscapeIteration == Length-1
//   - otherwise Length == maxIterations+1
//   - TwoZ[n] == 2*Orbit[n] elementwise, exactly, as f64
type ReferenceOrbit struct {
	Center HPComplex

	Orbit  []complex128 // low-precision snapshot of Z_n
	TwoZ   []complex128 // precomputed 2*Z_n
	ZMag2  []float64    // |Z_n|^2

	// OrbitHP holds the full-precision Z_n, used only for rebasing.
	// Discarded by DropHighPrecision once perturbation is stable for the
	// current view.
	OrbitHP []HPComplex

	Length          int
	Escaped         bool
	EscapeIteration int

	Bailout float64
}

// ComputeReferenceOrbit iterates Z <- Z^2 + C in high precision up to
// maxIterations or until |Z|^2 > bailout^2, snapshotting Z in f64 at every
// step. Z_0 = 0 is stored at index 0, and the escape test runs the same
// check-before-update loop kernel.Iterate2D runs (the magnitude that
// gates iteration n+1 is Z_n's, not Z_{n+1}'s), so EscapeIteration lands on
// the same n kernel.Iterate2D would report for the direct iteration of the
// same pixel. The operation is pure with respect to (center, maxIterations,
// bailout) and its result is cacheable.
func ComputeReferenceOrbit(center HPComplex, maxIterations int, bailout float64) *ReferenceOrbit {
	ro := &ReferenceOrbit{
		Center:  center,
		Orbit:   make([]complex128, 0, maxIterations+1),
		TwoZ:    make([]complex128, 0, maxIterations+1),
		ZMag2:   make([]float64, 0, maxIterations+1),
		OrbitHP: make([]HPComplex, 0, maxIterations+1),
		Bailout: bailout,
	}

	prec := center.Prec()
	z := NewHPComplex(0, 0, prec)
	bailout2 := bailout * bailout

	zf := z.Float64()
	ro.Orbit = append(ro.Orbit, zf)
	ro.TwoZ = append(ro.TwoZ, 2*zf)
	ro.ZMag2 = append(ro.ZMag2, 0)
	ro.OrbitHP = append(ro.OrbitHP, z)

	mag2 := 0.0
	n := 0
	for ; n < maxIterations && mag2 <= bailout2; n++ {
		z = z.Sqr().Add(center)

		zf = z.Float64()
		mag2 = real(zf)*real(zf) + imag(zf)*imag(zf)

		ro.Orbit = append(ro.Orbit, zf)
		ro.TwoZ = append(ro.TwoZ, 2*zf)
		ro.ZMag2 = append(ro.ZMag2, mag2)
		ro.OrbitHP = append(ro.OrbitHP, z)
	}

	if n >= maxIterations {
		ro.Length = len(ro.Orbit)
		ro.Escaped = false
		return ro
	}
	ro.Length = len(ro.Orbit)
	ro.Escaped = true
	ro.EscapeIteration = n
	return ro
}

// DropHighPrecision releases OrbitHP, keeping only the cheap Orbit/TwoZ/
// ZMag2 slices once perturbation is stable for the current view.
func (ro *ReferenceOrbit) DropHighPrecision() {
	ro.OrbitHP = nil
}

// At returns (Z_n, 2*Z_n, |Z_n|^2) for n < Length.
func (ro *ReferenceOrbit) At(n int) (z, twoZ complex128, zMag2 float64) {
	return ro.Orbit[n], ro.TwoZ[n], ro.ZMag2[n]
}
