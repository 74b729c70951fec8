package internal

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is overridden at link time for release builds.
var Version = "devel"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the forge version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("forge " + Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
