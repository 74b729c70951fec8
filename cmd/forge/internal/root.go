package internal

import (
	"github.com/DataDrake/waterlog"
	"github.com/DataDrake/waterlog/format"
	"github.com/DataDrake/waterlog/level"
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "forge",
	Short: "forge builds and installs the Ascent in-situ visualization stack",
	Long: `forge drives cmake builds of Ascent and its dependency stack from
declarative recipes: it resolves variants and dependency edges, generates a
host-config cache file for the target machine, and runs the configure,
compile and install cycle.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		waterlog.SetFormat(format.Min)
		if verbose {
			waterlog.SetLevel(level.Debug)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// Execute runs the root command. This is called by main.main() and only
// needs to happen once.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		waterlog.Fatalln(err.Error())
	}
}
