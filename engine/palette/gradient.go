// Package palette maps a rendered TileResult's raw numerical buffers
// (iteration counts, distance/normal fields) into colors: banded and
// continuous gradients for 2D escape-time coloring, and the deferred
// ambient-occlusion/soft-shadow/fog shading for 3D surfaces, grounded on the
// same banded/periodic palette abstraction used by hobbyist fractal
// renderers in the wild.
package palette

import (
	"image/color"
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Stop is one color anchored at position Pos in [0, 1] along a Gradient.
type Stop struct {
	Pos   float64
	Color colorful.Color
}

// Gradient interpolates linearly between an ordered list of Stops in HSV
// space, the same blend colorful.Color.BlendHsv uses for a single pair.
type Gradient struct {
	Stops []Stop
}

// NewGradient builds a Gradient from stops not necessarily given in
// position order.
func NewGradient(stops ...Stop) Gradient {
	g := Gradient{Stops: append([]Stop(nil), stops...)}
	sort.Slice(g.Stops, func(i, j int) bool { return g.Stops[i].Pos < g.Stops[j].Pos })
	return g
}

// At returns the interpolated color at t, clamped to the gradient's own
// span. A Gradient with no stops returns black; one stop returns that
// stop's color everywhere.
func (g Gradient) At(t float64) colorful.Color {
	if len(g.Stops) == 0 {
		return colorful.Color{}
	}
	if t <= g.Stops[0].Pos {
		return g.Stops[0].Color
	}
	last := g.Stops[len(g.Stops)-1]
	if t >= last.Pos {
		return last.Color
	}
	for i := 1; i < len(g.Stops); i++ {
		a, b := g.Stops[i-1], g.Stops[i]
		if t > b.Pos {
			continue
		}
		span := b.Pos - a.Pos
		if span <= 0 {
			return a.Color
		}
		frac := (t - a.Pos) / span
		return a.Color.BlendHsv(b.Color, frac)
	}
	return last.Color
}

// RGBA returns the gradient color at t as an image/color.RGBA.
func (g Gradient) RGBA(t float64) color.RGBA {
	r, gr, b := g.At(t).RGB255()
	return color.RGBA{R: r, G: gr, B: b, A: 255}
}

// BandedPalette is a small fixed set of colors selected by discrete index
// rather than interpolated, for the classic banded look.
type BandedPalette struct {
	Colors []colorful.Color
}

// NewUniformBandedPalette builds a BandedPalette from the given colors in
// order.
func NewUniformBandedPalette(colors ...colorful.Color) BandedPalette {
	return BandedPalette{Colors: append([]colorful.Color(nil), colors...)}
}

// At returns the color for band index, wrapping modulo the palette length.
func (b BandedPalette) At(index int) colorful.Color {
	if len(b.Colors) == 0 {
		return colorful.Color{}
	}
	n := len(b.Colors)
	i := index % n
	if i < 0 {
		i += n
	}
	return b.Colors[i]
}

// BlendedGradient turns a BandedPalette into a continuously interpolated
// Gradient, one stop per band spaced evenly across [0, 1].
func BlendedGradient(b BandedPalette) Gradient {
	n := len(b.Colors)
	if n == 0 {
		return Gradient{}
	}
	if n == 1 {
		return NewGradient(Stop{Pos: 0, Color: b.Colors[0]}, Stop{Pos: 1, Color: b.Colors[0]})
	}
	stops := make([]Stop, n)
	for i, c := range b.Colors {
		stops[i] = Stop{Pos: float64(i) / float64(n-1), Color: c}
	}
	return NewGradient(stops...)
}

// PeriodicPalette repeats a BandedPalette every Period units of whatever
// scalar it is sampled with (typically iteration count), so a handful of
// bands can stripe an image many times over.
type PeriodicPalette struct {
	Period float64
	Bands  BandedPalette
}

// At returns the banded color for value, wrapped by Period.
func (p PeriodicPalette) At(value float64) colorful.Color {
	if p.Period <= 0 || len(p.Bands.Colors) == 0 {
		return colorful.Color{}
	}
	n := len(p.Bands.Colors)
	frac := value / p.Period
	idx := int(frac) % n
	if idx < 0 {
		idx += n
	}
	return p.Bands.At(idx)
}

// Default palettes, grounded on the same hue choices hobbyist fractal
// renderers reach for: a warm banded set, its smooth-blended counterpart,
// and a plain grayscale ramp for distance/normal visualization.
var (
	DawnBands = NewUniformBandedPalette(
		colorful.Hsv(24.0, 0.38, 0.33),
		colorful.Hsv(158.0, 0.48, 0.73),
		colorful.Hsv(58.0, 0.72, 0.83),
		colorful.Hsv(58.0, 0.32, 0.95),
		colorful.Hsv(24.0, 0.86, 0.97),
	)
	DawnGradient = BlendedGradient(DawnBands)

	EmberBands = NewUniformBandedPalette(
		colorful.Hsv(27.0, 0.75, 0.25),
		colorful.Hsv(188.0, 0.35, 0.82),
		colorful.Hsv(175.0, 0.13, 0.91),
		colorful.Hsv(35.0, 0.17, 0.85),
		colorful.Hsv(52.0, 0.06, 1.00),
	)
	EmberGradient = BlendedGradient(EmberBands)

	GrayscaleGradient = NewGradient(
		Stop{Pos: 0, Color: colorful.Hsv(0, 0, 0)},
		Stop{Pos: 1, Color: colorful.Hsv(0, 0, 1)},
	)
)
