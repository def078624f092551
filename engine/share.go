package engine

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/fractalkit/engine/kernel"
	"github.com/fractalkit/engine/perturbation"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

// ShareVersion is the format version stamped into every encoded share
// link. Bump whenever a field is added or its meaning changes; decoders
// reject unknown newer versions rather than guess at their layout.
const ShareVersion = 1

// ShareDoc is the YAML document embedded in a share link: the fractal
// dimension and kind (or solid), the view center at full decimal precision,
// zoom, rotation, camera geometry, and the coloring choices the UI should
// restore. The remaining FractalParams fields (iteration limit, bailout,
// Julia constant, powers, raymarch budget, per-solid constants) are not
// carried, so a decoded View has them at their zero values. Unknown fields are tolerated on
// decode (yaml.v3 ignores them by default) so older links keep working as
// fields are added.
type ShareDoc struct {
	Version int `yaml:"version"`

	Dim   kernel.Dimension `yaml:"dim"`
	Kind  kernel.PlaneKind `yaml:"kind,omitempty"`
	Solid kernel.SolidKind `yaml:"solid,omitempty"`

	// CenterRe/CenterIm are decimal strings so a deep-zoom center survives
	// round-tripping through the share link at full precision; ordinary
	// float64 would truncate exactly the mantissa bits perturbation needs.
	CenterRe string  `yaml:"centerRe,omitempty"`
	CenterIm string  `yaml:"centerIm,omitempty"`
	Zoom     float64 `yaml:"zoom,omitempty"`
	Rotation float64 `yaml:"rotation,omitempty"`

	CameraX float64 `yaml:"cameraX,omitempty"`
	CameraY float64 `yaml:"cameraY,omitempty"`
	CameraZ float64 `yaml:"cameraZ,omitempty"`
	TargetX float64 `yaml:"targetX,omitempty"`
	TargetY float64 `yaml:"targetY,omitempty"`
	TargetZ float64 `yaml:"targetZ,omitempty"`
	UpX     float64 `yaml:"upX,omitempty"`
	UpY     float64 `yaml:"upY,omitempty"`
	UpZ     float64 `yaml:"upZ,omitempty"`
	FOVY    float64 `yaml:"fovy,omitempty"`

	PaletteID string    `yaml:"paletteId,omitempty"`
	ColorMode ColorMode `yaml:"colorMode,omitempty"`
}

// EncodeShareLink serializes view/paletteID/colorMode to YAML, gzips it, and
// base64-encodes the result for embedding in a URL fragment.
func EncodeShareLink(view View, paletteID string, colorMode ColorMode) (string, error) {
	doc := ShareDoc{
		Version:   ShareVersion,
		Dim:       view.Params.Dim,
		Kind:      view.Params.Kind,
		Solid:     view.Params.Solid,
		Zoom:      view.Zoom,
		Rotation:  view.Rotation,
		CameraX:   view.Camera.X,
		CameraY:   view.Camera.Y,
		CameraZ:   view.Camera.Z,
		TargetX:   view.Target.X,
		TargetY:   view.Target.Y,
		TargetZ:   view.Target.Z,
		UpX:       view.Up.X,
		UpY:       view.Up.Y,
		UpZ:       view.Up.Z,
		FOVY:      view.FOVY,
		PaletteID: paletteID,
		ColorMode: colorMode,
	}
	if view.Center2D != nil {
		doc.CenterRe = view.Center2D.Re.String()
		doc.CenterIm = view.Center2D.Im.String()
	}

	raw, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("%w: marshal share doc: %v", ErrInvalidParams, err)
	}

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(raw); err != nil {
		return "", fmt.Errorf("%w: compress share doc: %v", ErrInvalidParams, err)
	}
	if err := gw.Close(); err != nil {
		return "", fmt.Errorf("%w: compress share doc: %v", ErrInvalidParams, err)
	}
	return base64.URLEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeShareLink reverses EncodeShareLink, reconstructing a View (with
// PrecisionBits set from the current zoom) and the palette/color choices.
// A future ShareVersion is rejected rather than silently misinterpreted.
func DecodeShareLink(token string, width, height int) (View, string, ColorMode, error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return View{}, "", "", fmt.Errorf("%w: decode share token: %v", ErrInvalidParams, err)
	}
	gr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return View{}, "", "", fmt.Errorf("%w: decompress share token: %v", ErrInvalidParams, err)
	}
	defer gr.Close()
	yamlBytes, err := io.ReadAll(gr)
	if err != nil {
		return View{}, "", "", fmt.Errorf("%w: decompress share token: %v", ErrInvalidParams, err)
	}

	var doc ShareDoc
	if err := yaml.Unmarshal(yamlBytes, &doc); err != nil {
		return View{}, "", "", fmt.Errorf("%w: unmarshal share doc: %v", ErrInvalidParams, err)
	}
	if doc.Version > ShareVersion {
		return View{}, "", "", fmt.Errorf("%w: share link version %d is newer than supported version %d", ErrInvalidParams, doc.Version, ShareVersion)
	}

	view := View{
		Params:   kernel.FractalParams{Dim: doc.Dim, Kind: doc.Kind, Solid: doc.Solid},
		Zoom:     doc.Zoom,
		Rotation: doc.Rotation,
		Camera:   r3.Vec{X: doc.CameraX, Y: doc.CameraY, Z: doc.CameraZ},
		Target:   r3.Vec{X: doc.TargetX, Y: doc.TargetY, Z: doc.TargetZ},
		Up:       r3.Vec{X: doc.UpX, Y: doc.UpY, Z: doc.UpZ},
		FOVY:     doc.FOVY,
		Width:    width,
		Height:   height,
	}
	if doc.CenterRe != "" {
		bits := perturbation.PrecisionForZoom(doc.Zoom, 0)
		re, err := perturbation.NewHPScalarString(doc.CenterRe, bits)
		if err != nil {
			return View{}, "", "", fmt.Errorf("%w: parse center real part: %v", ErrInvalidParams, err)
		}
		im, err := perturbation.NewHPScalarString(doc.CenterIm, bits)
		if err != nil {
			return View{}, "", "", fmt.Errorf("%w: parse center imaginary part: %v", ErrInvalidParams, err)
		}
		center := perturbation.HPComplex{Re: re, Im: im}
		view.Center2D = &center
		view.CenterF64 = center.Float64()
		view.PrecisionBits = bits
	}

	return view, doc.PaletteID, doc.ColorMode, nil
}
