package engine

import "testing"

func TestOptions_WithDefaultsFillsZeroValues(t *testing.T) {
	o := Options{}.withDefaults()
	if o.SeriesEpsilon != DefaultSeriesEpsilon {
		t.Errorf("SeriesEpsilon = %v, want %v", o.SeriesEpsilon, DefaultSeriesEpsilon)
	}
	if o.AASamples != 1 {
		t.Errorf("AASamples = %v, want 1", o.AASamples)
	}
	if o.ShadowSoftness != 16 {
		t.Errorf("ShadowSoftness = %v, want 16", o.ShadowSoftness)
	}
	if o.ColorMode != ColorSmooth {
		t.Errorf("ColorMode = %v, want %v", o.ColorMode, ColorSmooth)
	}
}

func TestOptions_WithDefaultsClampsAASamplesToNearestSupported(t *testing.T) {
	cases := map[int]int{-3: 1, 0: 1, 1: 1, 2: 2, 3: 2, 4: 4, 9: 4}
	for in, want := range cases {
		got := Options{AASamples: in}.withDefaults().AASamples
		if got != want {
			t.Errorf("AASamples(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestOptions_WithDefaultsClampsNegativeWorkerCountToZero(t *testing.T) {
	o := Options{WorkerCount: -5}.withDefaults()
	if o.WorkerCount != 0 {
		t.Fatalf("WorkerCount = %v, want 0", o.WorkerCount)
	}
}

func TestOptions_WithDefaultsPreservesExplicitNonZeroValues(t *testing.T) {
	o := Options{
		WorkerCount:    4,
		SeriesEpsilon:  1e-3,
		AASamples:      2,
		ShadowSoftness: 8,
		ColorMode:      ColorDistance,
	}.withDefaults()
	if o.WorkerCount != 4 || o.SeriesEpsilon != 1e-3 || o.AASamples != 2 || o.ShadowSoftness != 8 || o.ColorMode != ColorDistance {
		t.Fatalf("withDefaults() changed explicit values: %+v", o)
	}
}
