package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/drewdunne/mrscope/internal/server"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "mrscope %s\n", server.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
