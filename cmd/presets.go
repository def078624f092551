package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fractalkit/engine/presets"
)

var presetsFile string

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List and inspect named fractal presets",
}

var presetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available preset names",
	Run: func(cmd *cobra.Command, args []string) {
		cat, err := loadCatalog()
		if err != nil {
			logrus.Errorf("%v", err)
			os.Exit(exitCodeFor(err))
		}
		for _, name := range cat.Names() {
			fmt.Println(name)
		}
	},
}

var presetsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a preset's full parameters",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cat, err := loadCatalog()
		if err != nil {
			logrus.Errorf("%v", err)
			os.Exit(exitCodeFor(err))
		}
		p, ok := cat.Get(args[0])
		if !ok {
			logrus.Errorf("unknown preset %q", args[0])
			os.Exit(2)
		}
		fmt.Printf("%+v\n", p)
	},
}

func loadCatalog() (*presets.Catalog, error) {
	cat, err := presets.Builtin()
	if err != nil {
		return nil, err
	}
	if presetsFile != "" {
		extra, err := presets.LoadFile(presetsFile)
		if err != nil {
			return nil, err
		}
		cat.Merge(extra)
	}
	return cat, nil
}

func init() {
	presetsCmd.PersistentFlags().StringVar(&presetsFile, "presets-file", "", "Optional YAML file of additional presets, overriding built-ins by name")
	presetsCmd.AddCommand(presetsListCmd)
	presetsCmd.AddCommand(presetsShowCmd)
}
