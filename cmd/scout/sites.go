package main

import (
	"github.com/aretw0/scout/internal/cli"
	"github.com/spf13/cobra"
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List the configured sites",
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonMode, _ := cmd.Flags().GetBool("json")
		return cli.ListSites(cli.SitesOptions{GlobalOptions: globalOptions(cmd), JSON: jsonMode}, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(sitesCmd)
	sitesCmd.Flags().Bool("json", false, "Print the registry as JSON")
}
