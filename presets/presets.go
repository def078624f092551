// Package presets loads named fractal-parameter presets from YAML, the way
// the CLI's default_config.go loaded named model/workload configurations:
// strict field checking so a typo in a preset file fails loudly instead of
// silently falling back to a zero value.
package presets

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"sort"

	"github.com/fractalkit/engine/kernel"
	"gopkg.in/yaml.v3"
)

//go:embed builtin.yaml
var builtinYAML []byte

// Preset is one named, shareable starting point: a fractal kind/parameter
// set plus the view geometry and coloring choices that make it look right
// out of the box.
type Preset struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	Dim   string `yaml:"dim"` // "2d" or "3d"
	Kind  string `yaml:"kind,omitempty"`
	Solid string `yaml:"solid,omitempty"`

	MaxIterations int     `yaml:"maxIterations"`
	Bailout       float64 `yaml:"bailout"`

	CenterRe string  `yaml:"centerRe,omitempty"`
	CenterIm string  `yaml:"centerIm,omitempty"`
	Zoom     float64 `yaml:"zoom,omitempty"`

	JuliaCRe float64 `yaml:"juliaCRe,omitempty"`
	JuliaCIm float64 `yaml:"juliaCIm,omitempty"`
	Power    float64 `yaml:"power,omitempty"`

	Epsilon        float64 `yaml:"epsilon,omitempty"`
	MaxSteps       int     `yaml:"maxSteps,omitempty"`
	MaxDistance    float64 `yaml:"maxDistance,omitempty"`
	StepMultiplier float64 `yaml:"stepMultiplier,omitempty"`
	BulbPower      float64 `yaml:"bulbPower,omitempty"`

	CameraX float64 `yaml:"cameraX,omitempty"`
	CameraY float64 `yaml:"cameraY,omitempty"`
	CameraZ float64 `yaml:"cameraZ,omitempty"`
	TargetX float64 `yaml:"targetX,omitempty"`
	TargetY float64 `yaml:"targetY,omitempty"`
	TargetZ float64 `yaml:"targetZ,omitempty"`
	FOVY    float64 `yaml:"fovy,omitempty"`

	PaletteID string `yaml:"paletteId,omitempty"`
	ColorMode string `yaml:"colorMode,omitempty"`
}

// Params converts a Preset into the kernel.FractalParams it describes. Zero
// fields that must not be zero (bailout, step multiplier, and the 3D
// raymarch budget) fall back to kernel's own defaults for the family.
func (p Preset) Params() (kernel.FractalParams, error) {
	switch p.Dim {
	case "2d", "":
		fp := kernel.DefaultFractalParams(kernel.PlaneKind(p.Kind))
		if p.MaxIterations > 0 {
			fp.MaxIterations = p.MaxIterations
		}
		if p.Bailout > 0 {
			fp.Bailout = p.Bailout
		}
		if p.Power > 0 {
			fp.Power = p.Power
		}
		if p.JuliaCRe != 0 || p.JuliaCIm != 0 {
			fp.JuliaC = complex(p.JuliaCRe, p.JuliaCIm)
			fp.JuliaMode = true
		}
		return fp, fp.Validate()
	case "3d":
		fp := kernel.DefaultSolidParams(kernel.SolidKind(p.Solid))
		if p.MaxIterations > 0 {
			fp.MaxIterations = p.MaxIterations
		}
		if p.Bailout > 0 {
			fp.Bailout = p.Bailout
		}
		if p.Epsilon > 0 {
			fp.Epsilon = p.Epsilon
		}
		if p.MaxSteps > 0 {
			fp.MaxSteps = p.MaxSteps
		}
		if p.MaxDistance > 0 {
			fp.MaxDistance = p.MaxDistance
		}
		if p.StepMultiplier > 0 {
			fp.StepMultiplier = p.StepMultiplier
		}
		if p.BulbPower > 0 {
			fp.BulbPower = p.BulbPower
		}
		return fp, fp.Validate()
	default:
		return kernel.FractalParams{}, fmt.Errorf("preset %q: unknown dim %q, want \"2d\" or \"3d\"", p.Name, p.Dim)
	}
}

// Catalog is a loaded set of presets keyed by name.
type Catalog struct {
	byName map[string]Preset
}

// Builtin returns the catalog of presets shipped with the module.
func Builtin() (*Catalog, error) {
	return decodeCatalog(builtinYAML)
}

// LoadFile reads path as a preset catalog, strict-decoded the way
// defaults.yaml was: an unrecognized field is an error, not a silent skip.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read preset file %s: %w", path, err)
	}
	return decodeCatalog(data)
}

func decodeCatalog(data []byte) (*Catalog, error) {
	var doc struct {
		Presets []Preset `yaml:"presets"`
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode preset catalog: %w", err)
	}
	c := &Catalog{byName: make(map[string]Preset, len(doc.Presets))}
	for _, p := range doc.Presets {
		if p.Name == "" {
			return nil, fmt.Errorf("preset catalog has an entry with an empty name")
		}
		c.byName[p.Name] = p
	}
	return c, nil
}

// Merge layers other's presets on top of c, overwriting c's entries sharing
// a name. Used to let a user-supplied catalog override built-in presets by
// name without losing the rest of the built-ins.
func (c *Catalog) Merge(other *Catalog) {
	for name, p := range other.byName {
		c.byName[name] = p
	}
}

// Get looks up a preset by name.
func (c *Catalog) Get(name string) (Preset, bool) {
	p, ok := c.byName[name]
	return p, ok
}

// Names returns every preset name in the catalog, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.byName))
	for name := range c.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
