package main

import (
	"github.com/aretw0/scout/internal/cli"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the workflow as a Mermaid flowchart",
	Long: `Prints the workflow graph. With --run, the path taken by a stored run is
highlighted. The run is read from the configured store (runs.dir or redis).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		runID, _ := cmd.Flags().GetString("run")
		jsonMode, _ := cmd.Flags().GetBool("json")
		return cli.PrintGraph(cmd.Context(), cli.GraphOptions{
			GlobalOptions: globalOptions(cmd),
			RunID:         runID,
			JSON:          jsonMode,
		}, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("run", "", "Run ID whose path should be highlighted")
	graphCmd.Flags().Bool("json", false, "Print nodes and edges as JSON instead of Mermaid")
}
