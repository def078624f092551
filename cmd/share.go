package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fractalkit/engine/engine"
	"github.com/fractalkit/engine/presets"
)

var (
	encodePreset string
	encodeWidth  int
	encodeHeight int
)

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Encode a preset view as a shareable link token",
	Run: func(cmd *cobra.Command, args []string) {
		cat, err := presets.Builtin()
		if err != nil {
			logrus.Errorf("%v", err)
			os.Exit(1)
		}
		p, ok := cat.Get(encodePreset)
		if !ok {
			logrus.Errorf("unknown preset %q", encodePreset)
			os.Exit(2)
		}
		view, err := viewForPreset(p, encodeWidth, encodeHeight)
		if err != nil {
			logrus.Errorf("%v", err)
			os.Exit(exitCodeFor(err))
		}
		token, err := engine.EncodeShareLink(view, p.PaletteID, engine.ColorMode(p.ColorMode))
		if err != nil {
			logrus.Errorf("%v", err)
			os.Exit(exitCodeFor(err))
		}
		fmt.Println(token)
	},
}

var decodeCmd = &cobra.Command{
	Use:   "decode <token>",
	Short: "Decode a shareable link token back into its view parameters",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		view, paletteID, mode, err := engine.DecodeShareLink(args[0], encodeWidth, encodeHeight)
		if err != nil {
			logrus.Errorf("%v", err)
			os.Exit(exitCodeFor(err))
		}
		fmt.Printf("dim=%v kind=%v solid=%v zoom=%v palette=%q colorMode=%q\n",
			view.Params.Dim, view.Params.Kind, view.Params.Solid, view.Zoom, paletteID, mode)
		if view.Center2D != nil {
			fmt.Printf("center=(%s, %s)\n", view.Center2D.Re.String(), view.Center2D.Im.String())
		}
	},
}

func init() {
	encodeCmd.Flags().StringVar(&encodePreset, "preset", "mandelbrot-classic", "Named preset to encode")
	encodeCmd.Flags().IntVar(&encodeWidth, "width", 1024, "Canvas width, carried in the link for aspect-correct decoding")
	encodeCmd.Flags().IntVar(&encodeHeight, "height", 768, "Canvas height")
	decodeCmd.Flags().IntVar(&encodeWidth, "width", 1024, "Canvas width to reconstruct the view with")
	decodeCmd.Flags().IntVar(&encodeHeight, "height", 768, "Canvas height to reconstruct the view with")
}
