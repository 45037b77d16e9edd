package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// versionCmd prints the application version.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of changelog-weaver",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("changelog-weaver v%s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
