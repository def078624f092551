package engine

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"testing"

	"github.com/fractalkit/engine/kernel"
	"github.com/fractalkit/engine/perturbation"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

func TestEncodeShareLink_RoundTripsA2DViewWithHighPrecisionCenter(t *testing.T) {
	center := perturbation.NewHPComplex(-0.743643887037151, 0.131825904205330, 256)
	view := View{
		Params:    kernel.DefaultFractalParams(kernel.PlaneMandelbrot),
		Center2D:  &center,
		CenterF64: center.Float64(),
		Zoom:      1e12,
		Width:     800,
		Height:    600,
	}

	token, err := EncodeShareLink(view, "dawn", ColorSmooth)
	if err != nil {
		t.Fatalf("EncodeShareLink: %v", err)
	}
	if token == "" {
		t.Fatalf("expected a non-empty token")
	}

	got, paletteID, mode, err := DecodeShareLink(token, 800, 600)
	if err != nil {
		t.Fatalf("DecodeShareLink: %v", err)
	}
	if paletteID != "dawn" || mode != ColorSmooth {
		t.Fatalf("paletteID=%q mode=%q, want dawn/smooth", paletteID, mode)
	}
	if got.Center2D == nil {
		t.Fatalf("decoded view lost its center")
	}
	if got.Center2D.Re.String() != center.Re.String() || got.Center2D.Im.String() != center.Im.String() {
		t.Errorf("center did not round-trip: got (%s, %s), want (%s, %s)",
			got.Center2D.Re.String(), got.Center2D.Im.String(), center.Re.String(), center.Im.String())
	}
	if got.Zoom != view.Zoom {
		t.Errorf("Zoom = %v, want %v", got.Zoom, view.Zoom)
	}
}

func TestEncodeShareLink_RoundTripsA3DView(t *testing.T) {
	view := View{
		Params: kernel.DefaultSolidParams(kernel.SolidMandelbulb),
		Camera: r3.Vec{X: 0, Y: 0, Z: -4},
		Target: r3.Vec{},
		Up:     r3.Vec{Y: 1},
		FOVY:   1,
		Width:  640,
		Height: 480,
	}

	token, err := EncodeShareLink(view, "ember", ColorNormal)
	if err != nil {
		t.Fatalf("EncodeShareLink: %v", err)
	}
	got, paletteID, mode, err := DecodeShareLink(token, 640, 480)
	if err != nil {
		t.Fatalf("DecodeShareLink: %v", err)
	}
	if got.Camera != view.Camera || got.Target != view.Target || got.Up != view.Up {
		t.Errorf("camera pose did not round-trip: got Camera=%v Target=%v Up=%v", got.Camera, got.Target, got.Up)
	}
	if got.FOVY != view.FOVY {
		t.Errorf("FOVY = %v, want %v", got.FOVY, view.FOVY)
	}
	if paletteID != "ember" || mode != ColorNormal {
		t.Fatalf("paletteID=%q mode=%q, want ember/normal", paletteID, mode)
	}
	if got.Center2D != nil {
		t.Errorf("expected no 2D center for a 3D view")
	}
}

func TestDecodeShareLink_RejectsGarbageToken(t *testing.T) {
	if _, _, _, err := DecodeShareLink("not-valid-base64!!", 100, 100); err == nil {
		t.Fatalf("expected an error decoding a garbage token")
	}
}

func TestDecodeShareLink_RejectsFutureVersion(t *testing.T) {
	doc := ShareDoc{Version: ShareVersion + 1, Dim: kernel.Dim2D, Kind: kernel.PlaneMandelbrot, Zoom: 1}
	raw, err := yaml.Marshal(doc)
	if err != nil {
		t.Fatalf("yaml.Marshal: %v", err)
	}
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(raw); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	token := base64.URLEncoding.EncodeToString(buf.Bytes())

	if _, _, _, err := DecodeShareLink(token, 100, 100); err == nil {
		t.Fatalf("expected an error decoding a future-version token")
	}
}
