package cmd

import (
	"github.com/spf13/cobra"

	"github.com/rustyeddy/nodepnl/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "nodepnl",
	Short: "Historical P&L attribution from node sensitivities",
	Long: `Nodepnl turns per-factor sensitivities into historical P&L.

It provides tools for:
  - Running attribution over a book of positions from a config file
  - Loading factor and FX histories into a local market data store
  - Querying past runs from the journal

Each position's sensitivities are multiplied by the day-over-day moves of
the factors they refer to, converted into one reporting currency and summed.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logger.Init(logLevel, logEnv)
	},
}

var (
	logLevel string
	logEnv   string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	defer func() { _ = logger.Sync() }()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logEnv, "log-env", "development", "log format: production for JSON, anything else for console")
}
