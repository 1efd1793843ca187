package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/rostergrid/pkg/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit, and build time of rosterctl.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if GetOutput() == "json" {
			return printJSON(config.GetBuildInfo())
		}
		fmt.Println(config.VersionString("rosterctl"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
