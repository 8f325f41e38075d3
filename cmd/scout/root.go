package main

import (
	"fmt"
	"os"

	"github.com/aretw0/scout/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "scout",
	Short: "Scout finds open positions on company career pages",
	Long: `Scout runs an LLM-driven workflow per company: it tries the configured
scraper tools first and falls back to writing, running and grading its own
extraction script. Sites, models and backends are read from scout.yaml.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func globalOptions(cmd *cobra.Command) cli.GlobalOptions {
	configPath, _ := cmd.Flags().GetString("config")
	level, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	return cli.GlobalOptions{ConfigPath: configPath, LogLevel: level, LogFormat: format}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "scout.yaml", "Path to the scout config file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text, json or color (default: color on a terminal)")
}
