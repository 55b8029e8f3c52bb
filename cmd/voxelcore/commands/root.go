// Package commands implements the voxelcore CLI.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"

	// Global flags.
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "voxelcore",
	Short: "voxelcore - headless voxel-world engine core",
	Long: `voxelcore drives the chunk lifecycle, meshing, and GPU upload
pipeline of a voxel-world engine independent of any renderer, window, or
input layer. Use "voxelcore [command] --help" for details.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called once by main.main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/voxelcore/config.yaml)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

// GetConfigFile returns the config file path from the global flag.
func GetConfigFile() string {
	return cfgFile
}
