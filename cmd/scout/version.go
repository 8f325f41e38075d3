package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/scout"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of scout",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "scout version %s\n", strings.TrimSpace(scout.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
