// Command voxelcore runs the headless voxel-world engine core.
package main

import (
	"fmt"
	"os"

	"voxelcore/cmd/voxelcore/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
