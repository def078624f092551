package engine

import (
	"math"
	"testing"

	"github.com/fractalkit/engine/etrace"
	"github.com/fractalkit/engine/perturbation"
	"gonum.org/v1/gonum/spatial/r3"
)

func neverCancelled() bool { return false }

func TestRender2D_DirectPathFillsEveryPixel(t *testing.T) {
	h := &Handle{trace: etrace.New(etrace.Config{Level: etrace.LevelNone}), orbits: perturbation.NewOrbitCache(1)}
	view := smallView2D()
	tile := Tile{X: 0, Y: 0, W: 8, H: 8, CanvasW: 8, CanvasH: 8}

	res, err := h.render2D(view, tile, Options{})(neverCancelled)
	if err != nil {
		t.Fatalf("render2D: %v", err)
	}
	tr := res.(*TileResult)
	for i, it := range tr.Iterations {
		if it < 0 {
			t.Fatalf("pixel %d has negative iteration count %v", i, it)
		}
	}
}

func TestRender2D_DirectAndPerturbedAgreeAtShallowZoom(t *testing.T) {
	view := smallView2D()
	tile := Tile{X: 0, Y: 0, W: 8, H: 8, CanvasW: 8, CanvasH: 8}

	hDirect := &Handle{trace: etrace.New(etrace.Config{Level: etrace.LevelNone}), orbits: perturbation.NewOrbitCache(1)}
	directRes, err := hDirect.render2D(view, tile, Options{})(neverCancelled)
	if err != nil {
		t.Fatalf("direct render2D: %v", err)
	}

	perturbedView := view
	center := perturbation.NewHPComplex(real(view.CenterF64), imag(view.CenterF64), 64)
	perturbedView.Center2D = &center
	orbit := perturbation.ComputeReferenceOrbit(center, view.Params.MaxIterations, view.Params.Bailout)
	series := perturbation.ComputeSeriesCoeffs(orbit)
	hPerturbed := &Handle{trace: etrace.New(etrace.Config{Level: etrace.LevelNone}), orbits: perturbation.NewOrbitCache(1)}
	hPerturbed.orbits.Publish(orbit, series)
	perturbedRes, err := hPerturbed.render2D(perturbedView, tile, Options{})(neverCancelled)
	if err != nil {
		t.Fatalf("perturbed render2D: %v", err)
	}

	direct := directRes.(*TileResult)
	perturbed := perturbedRes.(*TileResult)
	for i := range direct.Iterations {
		if math.Abs(float64(direct.Iterations[i]-perturbed.Iterations[i])) > 1 {
			t.Errorf("pixel %d: direct=%v perturbed=%v, want close agreement", i, direct.Iterations[i], perturbed.Iterations[i])
		}
		if direct.Escaped[i] != perturbed.Escaped[i] {
			t.Errorf("pixel %d: direct.Escaped=%v perturbed.Escaped=%v", i, direct.Escaped[i], perturbed.Escaped[i])
		}
	}
}

func TestRender2D_CancellationStopsFilling(t *testing.T) {
	h := &Handle{trace: etrace.New(etrace.Config{Level: etrace.LevelNone}), orbits: perturbation.NewOrbitCache(1)}
	view := smallView2D()
	tile := Tile{X: 0, Y: 0, W: 8, H: 8, CanvasW: 8, CanvasH: 8}

	res, err := h.render2D(view, tile, Options{})(func() bool { return true })
	if err != nil && err != ErrCancelled {
		t.Fatalf("render2D with immediate cancel: %v", err)
	}
	tr := res.(*TileResult)
	for _, it := range tr.Iterations {
		if it != 0 {
			t.Fatalf("expected untouched buffer under immediate cancellation, got %v", it)
		}
	}
}

func TestRender3D_PopulatesHitDistanceAndUnitNormals(t *testing.T) {
	h := &Handle{trace: etrace.New(etrace.Config{Level: etrace.LevelNone}), orbits: perturbation.NewOrbitCache(1)}
	view := baseView3D()
	view.Width, view.Height = 8, 8
	tile := Tile{X: 0, Y: 0, W: 8, H: 8, CanvasW: 8, CanvasH: 8}
	opts := Options{AASamples: 1}.withDefaults()

	res, err := h.render3D(view, tile, opts)(neverCancelled)
	if err != nil {
		t.Fatalf("render3D: %v", err)
	}
	tr := res.(*TileResult)

	hits := 0
	for i := range tr.Hit {
		if tr.Hit[i] == 0 {
			continue
		}
		hits++
		nx, ny, nz := tr.Normal[3*i], tr.Normal[3*i+1], tr.Normal[3*i+2]
		norm := math.Sqrt(float64(nx*nx + ny*ny + nz*nz))
		if math.Abs(norm-1) > 1e-3 {
			t.Errorf("pixel %d: normal norm = %v, want ~1", i, norm)
		}
		if tr.Distance[i] <= 0 {
			t.Errorf("pixel %d: hit with non-positive distance %v", i, tr.Distance[i])
		}
	}
	if hits == 0 {
		t.Fatalf("no pixel hit the mandelbulb surface; camera framing is likely wrong")
	}
}

func TestRender3D_MissingPixelsLeaveZeroedBuffers(t *testing.T) {
	h := &Handle{trace: etrace.New(etrace.Config{Level: etrace.LevelNone}), orbits: perturbation.NewOrbitCache(1)}
	view := baseView3D()
	// Point the camera far away, looking further away still: every ray
	// misses the fractal entirely.
	view.Camera = r3.Vec{X: 0, Y: 0, Z: -1000}
	view.Target = r3.Vec{X: 0, Y: 0, Z: -999}
	view.Width, view.Height = 4, 4
	tile := Tile{X: 0, Y: 0, W: 4, H: 4, CanvasW: 4, CanvasH: 4}
	opts := Options{AASamples: 1}.withDefaults()

	res, err := h.render3D(view, tile, opts)(neverCancelled)
	if err != nil {
		t.Fatalf("render3D: %v", err)
	}
	tr := res.(*TileResult)
	for i, hit := range tr.Hit {
		if hit != 0 {
			t.Fatalf("pixel %d unexpectedly hit with camera aimed away from the fractal", i)
		}
	}
}

func TestAAJitter_IsDeterministicAcrossRepeatedCalls(t *testing.T) {
	x1, y1 := aaJitter(3, 4, 0)
	x2, y2 := aaJitter(3, 4, 0)
	if x1 != x2 || y1 != y2 {
		t.Fatalf("aaJitter not deterministic: (%v,%v) vs (%v,%v)", x1, y1, x2, y2)
	}
}

func TestAAJitter_VariesAcrossSampleIndex(t *testing.T) {
	x0, y0 := aaJitter(3, 4, 0)
	x1, y1 := aaJitter(3, 4, 1)
	if x0 == x1 && y0 == y1 {
		t.Fatalf("aaJitter returned identical offsets for different sample indices")
	}
}
