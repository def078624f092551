package perturbation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChooseRebaseCenter_PicksLeastGlitchRatio(t *testing.T) {
	samples := []PixelSample{
		{DeltaC: complex(1, 0), GlitchRatio: 0.9, Glitched: true},
		{DeltaC: complex(2, 0), GlitchRatio: 0.2, Glitched: true},
		{DeltaC: complex(3, 0), GlitchRatio: 0.5, Glitched: true},
	}
	got := ChooseRebaseCenter(samples, complex(0, 0))
	assert.Equal(t, complex(2.0, 0), got)
}

func TestChooseRebaseCenter_FallsBackToTileCenter(t *testing.T) {
	samples := []PixelSample{{Glitched: false}}
	got := ChooseRebaseCenter(samples, complex(5, 5))
	assert.Equal(t, complex(5.0, 5.0), got)
}

func TestRebase_ExhaustsAfterMaxDepth(t *testing.T) {
	center := NewHPComplex(-0.75, 0.1, 64)
	r := Rebase(center, complex(1e-6, 0), MaxRebaseDepth, 100, 4)
	assert.True(t, r.Exhausted)
}

func TestRebase_ProducesFreshOrbitBelowMaxDepth(t *testing.T) {
	center := NewHPComplex(-0.75, 0.1, 64)
	r := Rebase(center, complex(1e-6, 0), 0, 100, 4)
	assert.False(t, r.Exhausted)
	assert.Equal(t, 1, r.Depth)
	assert.NotNil(t, r.Orbit)
	assert.NotNil(t, r.Series)
}

func TestDirectIteratePixel_MatchesReferenceOrbitEscape(t *testing.T) {
	// Same escape case as the reference-orbit test, via the direct bignum
	// fallback path.
	c := NewHPComplex(1.0, 0, 64)
	out := DirectIteratePixel(c, 1000, 4, false)
	assert.True(t, out.Escaped)
	assert.Equal(t, 3.0, out.Iterations)
}
