package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the voxelcore version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("voxelcore %s (%s)\n", Version, Commit)
		return nil
	},
}
