package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fractalkit/engine/engine"
	"github.com/fractalkit/engine/presets"
)

var (
	benchPreset   string
	benchWidth    int
	benchHeight   int
	benchTileSize int
	benchWorkers  int
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Render a preset without writing output, reporting timing and scheduler stats",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runBench(); err != nil {
			logrus.Errorf("bench failed: %v", err)
			os.Exit(exitCodeFor(err))
		}
	},
}

func init() {
	benchCmd.Flags().StringVar(&benchPreset, "preset", "mandelbrot-classic", "Named preset to benchmark")
	benchCmd.Flags().IntVar(&benchWidth, "width", 1024, "Canvas width in pixels")
	benchCmd.Flags().IntVar(&benchHeight, "height", 768, "Canvas height in pixels")
	benchCmd.Flags().IntVar(&benchTileSize, "tile-size", 64, "Tile edge length in pixels")
	benchCmd.Flags().IntVar(&benchWorkers, "workers", 0, "Worker count; 0 = auto-detect")
}

func runBench() error {
	cat, err := presets.Builtin()
	if err != nil {
		return fmt.Errorf("%w: load built-in presets: %v", engine.ErrInvalidParams, err)
	}
	p, ok := cat.Get(benchPreset)
	if !ok {
		return fmt.Errorf("%w: unknown preset %q", engine.ErrInvalidParams, benchPreset)
	}

	view, err := viewForPreset(p, benchWidth, benchHeight)
	if err != nil {
		return err
	}
	opts := engine.Options{WorkerCount: benchWorkers, ColorMode: engine.ColorMode(p.ColorMode)}

	h, err := engine.Prepare(view, opts)
	if err != nil {
		return err
	}
	defer engine.Dispose(h)

	tiles := engine.TilesForCanvas(view.Width, view.Height, benchTileSize)
	started := time.Now()
	if _, err := engine.SubmitBatch(h, tiles, h.Epoch(), engine.PriorityNormal); err != nil {
		return err
	}

	remaining := len(tiles)
	for remaining > 0 {
		_, status, err := engine.PollResult(h)
		if err != nil {
			return err
		}
		if status == engine.PollPending {
			time.Sleep(time.Millisecond)
			continue
		}
		remaining--
	}
	elapsed := time.Since(started)

	stats := engine.QueryStats(h)
	fmt.Printf("tiles=%d elapsed=%s tiles/s=%.1f glitches=%d rebases=%d replaces=%d\n",
		len(tiles), elapsed, float64(len(tiles))/elapsed.Seconds(), stats.Glitches, stats.Rebases, stats.Replaces)
	return nil
}
