// Package perturbation implements the high-precision reference orbit and
// low-precision delta recurrence used to render deep-zoom escape-time
// fractals without paying bignum cost on every pixel.
//
// Only the reference-orbit computation touches big.Float; the per-pixel
// loop is pure float64. math/big is used directly rather than a
// third-party decimal library; see DESIGN.md for the justification.
package perturbation

import "math/big"

// defaultPrecisionMargin is the number of extra mantissa bits requested
// beyond the bare log2(zoom) requirement.
const defaultPrecisionMargin = 30

// PrecisionForZoom returns the mantissa bit count required to resolve
// coordinate differences at the given zoom level: approximately
// log2(zoom) + margin.
func PrecisionForZoom(zoom float64, margin uint) uint {
	if margin == 0 {
		margin = defaultPrecisionMargin
	}
	bits := uint(0)
	if zoom > 1 {
		bits = uint(big.NewFloat(zoom).MantExp(nil)) // approx log2(zoom)
	}
	return bits + margin
}

// HPScalar is a high-precision real scalar backed by big.Float. Only the
// operations the reference orbit needs are exposed: add, sub, mul, square
// and compare.
type HPScalar struct {
	v *big.Float
}

// NewHPScalar creates an HPScalar from a float64 at the given precision.
func NewHPScalar(x float64, prec uint) HPScalar {
	return HPScalar{v: new(big.Float).SetPrec(prec).SetFloat64(x)}
}

// NewHPScalarString parses a decimal string at the given precision, used to
// decode the shareable view encoding's decimal-string center coordinates.
func NewHPScalarString(s string, prec uint) (HPScalar, error) {
	v, _, err := big.ParseFloat(s, 10, prec, big.ToNearestEven)
	if err != nil {
		return HPScalar{}, err
	}
	return HPScalar{v: v}, nil
}

// Prec returns the mantissa bit count of the scalar.
func (a HPScalar) Prec() uint { return a.v.Prec() }

// Float64 returns the nearest float64 approximation.
func (a HPScalar) Float64() float64 { f, _ := a.v.Float64(); return f }

// String returns the decimal string form, used for the shareable view
// encoding.
func (a HPScalar) String() string { return a.v.Text('g', int(a.v.Prec()/3)+10) }

// Add returns a + b, rounded to a's precision.
func (a HPScalar) Add(b HPScalar) HPScalar {
	r := new(big.Float).SetPrec(a.v.Prec())
	return HPScalar{v: r.Add(a.v, b.v)}
}

// Sub returns a - b, rounded to a's precision.
func (a HPScalar) Sub(b HPScalar) HPScalar {
	r := new(big.Float).SetPrec(a.v.Prec())
	return HPScalar{v: r.Sub(a.v, b.v)}
}

// Mul returns a * b, rounded to a's precision.
func (a HPScalar) Mul(b HPScalar) HPScalar {
	r := new(big.Float).SetPrec(a.v.Prec())
	return HPScalar{v: r.Mul(a.v, b.v)}
}

// Sqr returns a * a.
func (a HPScalar) Sqr() HPScalar { return a.Mul(a) }

// Cmp compares a to b, returning -1, 0 or +1.
func (a HPScalar) Cmp(b HPScalar) int { return a.v.Cmp(b.v) }

// HPComplex is a pair of HPScalars supporting the z -> z^2 + c reference
// recurrence.
type HPComplex struct {
	Re, Im HPScalar
}

// NewHPComplex builds an HPComplex from float64 components at prec bits.
func NewHPComplex(re, im float64, prec uint) HPComplex {
	return HPComplex{Re: NewHPScalar(re, prec), Im: NewHPScalar(im, prec)}
}

// Prec returns the shared mantissa bit count of the pair.
func (c HPComplex) Prec() uint { return c.Re.Prec() }

// Add returns c + o.
func (c HPComplex) Add(o HPComplex) HPComplex {
	return HPComplex{Re: c.Re.Add(o.Re), Im: c.Im.Add(o.Im)}
}

// Sqr returns c * c using the standard 3-multiply complex squaring
// identity: (a+bi)^2 = (a^2 - b^2) + 2abi.
func (c HPComplex) Sqr() HPComplex {
	a2 := c.Re.Sqr()
	b2 := c.Im.Sqr()
	ab := c.Re.Mul(c.Im)
	return HPComplex{
		Re: a2.Sub(b2),
		Im: ab.Add(ab),
	}
}

// Float64 returns the nearest complex128 approximation.
func (c HPComplex) Float64() complex128 {
	return complex(c.Re.Float64(), c.Im.Float64())
}

// Norm2 returns |c|^2 as a float64 (sufficient for the glitch/bailout tests
// that only ever run against the low-precision snapshot, never HPComplex
// itself, but useful for diagnostics).
func (c HPComplex) Norm2() float64 {
	re, im := c.Re.Float64(), c.Im.Float64()
	return re*re + im*im
}
