// Package cli wires the jobscout commands.
package cli

import (
	"github.com/spf13/cobra"
)

const app = "jobscout"

var (
	debugFlag bool
	jsonFlag  bool

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobscout ingests job postings from company career sites into one searchable catalogue",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&jsonFlag, "json", "j", false, "json format for logging")
}
