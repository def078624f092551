package cmd

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/fractalkit/engine/engine"
	"github.com/fractalkit/engine/engine/palette"
	"github.com/fractalkit/engine/kernel"
	"github.com/fractalkit/engine/perturbation"
	"github.com/fractalkit/engine/presets"
)

func vec(x, y, z float64) r3.Vec { return r3.Vec{X: x, Y: y, Z: z} }

var (
	renderPreset   string
	renderOut      string
	renderWidth    int
	renderHeight   int
	renderTileSize int
	renderWorkers  int
	renderAA       int
	renderPalette  string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a preset view to a PNG file",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runRender(); err != nil {
			logrus.Errorf("render failed: %v", err)
			os.Exit(exitCodeFor(err))
		}
	},
}

func init() {
	renderCmd.Flags().StringVar(&renderPreset, "preset", "mandelbrot-classic", "Named preset from the built-in catalog")
	renderCmd.Flags().StringVar(&renderOut, "out", "out.png", "Output PNG path")
	renderCmd.Flags().IntVar(&renderWidth, "width", 1024, "Canvas width in pixels")
	renderCmd.Flags().IntVar(&renderHeight, "height", 768, "Canvas height in pixels")
	renderCmd.Flags().IntVar(&renderTileSize, "tile-size", 64, "Tile edge length in pixels")
	renderCmd.Flags().IntVar(&renderWorkers, "workers", 0, "Worker count; 0 = auto-detect")
	renderCmd.Flags().IntVar(&renderAA, "aa", 1, "Anti-aliasing samples for 3D renders (1, 2, or 4)")
	renderCmd.Flags().StringVar(&renderPalette, "palette", "", "Palette name; defaults to the preset's own choice")
}

func runRender() error {
	cat, err := presets.Builtin()
	if err != nil {
		return fmt.Errorf("%w: load built-in presets: %v", engine.ErrInvalidParams, err)
	}
	preset, ok := cat.Get(renderPreset)
	if !ok {
		return fmt.Errorf("%w: unknown preset %q", engine.ErrInvalidParams, renderPreset)
	}

	view, err := viewForPreset(preset, renderWidth, renderHeight)
	if err != nil {
		return err
	}

	opts := engine.Options{
		WorkerCount: renderWorkers,
		AASamples:   renderAA,
		ColorMode:   engine.ColorMode(preset.ColorMode),
	}

	h, err := engine.Prepare(view, opts)
	if err != nil {
		return err
	}
	defer engine.Dispose(h)

	started := time.Now()
	img, err := renderToImage(h, view, opts, preset)
	if err != nil {
		return err
	}
	logrus.Infof("rendered %dx%d in %s", renderWidth, renderHeight, time.Since(started))

	return writePNG(renderOut, img)
}

func viewForPreset(p presets.Preset, width, height int) (engine.View, error) {
	params, err := p.Params()
	if err != nil {
		return engine.View{}, fmt.Errorf("%w: %v", engine.ErrInvalidParams, err)
	}

	view := engine.View{Params: params, Width: width, Height: height}
	switch params.Dim {
	case kernel.Dim2D:
		zoom := p.Zoom
		if zoom < 1 {
			zoom = 1
		}
		view.Zoom = zoom
		if p.CenterRe != "" {
			bits := perturbation.PrecisionForZoom(zoom, 0)
			re, err := perturbation.NewHPScalarString(p.CenterRe, bits)
			if err != nil {
				return engine.View{}, fmt.Errorf("%w: preset center real part: %v", engine.ErrInvalidParams, err)
			}
			im, err := perturbation.NewHPScalarString(p.CenterIm, bits)
			if err != nil {
				return engine.View{}, fmt.Errorf("%w: preset center imaginary part: %v", engine.ErrInvalidParams, err)
			}
			center := perturbation.HPComplex{Re: re, Im: im}
			view.Center2D = &center
			view.CenterF64 = center.Float64()
			view.PrecisionBits = bits
		}
	case kernel.Dim3D:
		view.Camera = vec(p.CameraX, p.CameraY, p.CameraZ)
		view.Target = vec(p.TargetX, p.TargetY, p.TargetZ)
		view.Up = vec(0, 1, 0)
		view.FOVY = p.FOVY
		if view.FOVY <= 0 {
			view.FOVY = 1
		}
	}
	return view, nil
}

func renderToImage(h *engine.Handle, view engine.View, opts engine.Options, preset presets.Preset) (*image.RGBA, error) {
	tiles := engine.TilesForCanvas(view.Width, view.Height, renderTileSize)
	if _, err := engine.SubmitBatch(h, tiles, h.Epoch(), engine.PriorityNormal); err != nil {
		return nil, err
	}

	dst := image.NewRGBA(image.Rect(0, 0, view.Width, view.Height))
	gradient := gradientFor(renderPalette, preset.PaletteID)
	mode := palette.ColorMode(preset.ColorMode)

	remaining := len(tiles)
	for remaining > 0 {
		tr, status, err := engine.PollResult(h)
		if err != nil {
			return nil, err
		}
		if status == engine.PollPending {
			time.Sleep(time.Millisecond)
			continue
		}
		remaining--
		if tr == nil {
			continue
		}
		if view.Params.Dim == kernel.Dim3D {
			palette.Compose3D(dst, tr, view, opts, mode, gradient)
		} else {
			palette.Compose2D(dst, tr, mode, view.Params.MaxIterations, gradient)
		}
	}
	return dst, nil
}

func gradientFor(flag, presetDefault string) palette.Gradient {
	name := flag
	if name == "" {
		name = presetDefault
	}
	switch name {
	case "ember":
		return palette.EmberGradient
	case "grayscale":
		return palette.GrayscaleGradient
	default:
		return palette.DawnGradient
	}
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()
	return png.Encode(f, img)
}
