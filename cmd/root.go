// cmd/root.go
package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "fractalctl",
	Short: "Render, benchmark, and share views of the fractal explorer engine",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// Execute runs the root command. Each subcommand translates the engine's
// sentinel errors into the documented exit codes (0 success, 2 invalid
// params, 3 precision unsupported, 4 worker pool failure, 5 cancelled) and
// exits itself; an error returned to Execute comes from cobra (bad flags or
// arguments) and exits with exitCodeFor's fallback code.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (debug, info, warn, error)")
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(benchCmd)
}
