// Command svgmin validates, optimizes and converts SVG files, either one shot
// from the command line or behind an HTTP API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "svgmin",
		Short:         "SVG validation, optimization and conversion",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.AddCommand(
		serveCmd(),
		optimizeCmd(),
		versionCmd(),
	)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "svgmin "+version)
		},
	}
}
