// Package main provides the autolevel command line.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "config.yaml"

var configPath string

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "autolevel",
		Short:        "Screen reading auto leveler for Temtem",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "path to the config file")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newMatchCmd())
	rootCmd.AddCommand(newTemplatesCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newProfileCmd())

	return rootCmd
}
