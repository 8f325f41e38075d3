package main

import (
	"github.com/aretw0/scout/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [site...]",
	Short: "Scout one or more sites",
	Long: `Runs the workflow for the given sites, or for every configured site when
none is given. Sites run in parallel up to the configured concurrency; one
failing site does not stop the others. The exit code is non-zero if any run failed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonMode, _ := cmd.Flags().GetBool("json")
		quiet, _ := cmd.Flags().GetBool("quiet")
		request, _ := cmd.Flags().GetString("request")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		return cli.Execute(ctx, cli.RunOptions{
			GlobalOptions: globalOptions(cmd),
			Sites:         args,
			Request:       request,
			JSON:          jsonMode,
			Quiet:         quiet,
		}, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("json", false, "Print run summaries as JSON")
	runCmd.Flags().BoolP("quiet", "q", false, "Skip the banner and progress messages")
	runCmd.Flags().String("request", "", "Custom opening question (single site only)")
}
