package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/nodepnl/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage configuration files for attribution runs.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  nodepnl config init -o book.yaml
  nodepnl config validate -f book.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	Long: `Create a new configuration file with default settings and one sample position.

Example:
  nodepnl config init -o book.yaml`,
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Check if a configuration file is valid and can be loaded.

Environment overrides (NODEPNL_SECTION__KEY) are applied before validation.

Example:
  nodepnl config validate -f book.yaml`,
	RunE: runConfigValidate,
}

var (
	configInitOutput   string
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "nodepnl.yaml", "output config file path")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", "", "path to config file (required)")
	configValidateCmd.MarkFlagRequired("file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Created default configuration: %s\n", configInitOutput)
	fmt.Fprintln(out, "\nEdit the file and run with:")
	fmt.Fprintf(out, "  nodepnl run -f %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configValidatePath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	sched, err := cfg.BuildSchedule()
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	target := cfg.Currency.Target
	if target == "" {
		target = "(position currency)"
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Configuration valid: %s\n", configValidatePath)
	fmt.Fprintf(out, "  Schedule: %s to %s, %d dates (%s)\n", cfg.Schedule.Start, cfg.Schedule.End, len(sched), cfg.Schedule.Frequency)
	fmt.Fprintf(out, "  Sampling: %s, %s returns\n", cfg.Sampling.GapPolicy, cfg.Sampling.Returns)
	fmt.Fprintf(out, "  Target: %s\n", target)
	fmt.Fprintf(out, "  Positions: %d\n", len(cfg.Positions))
	fmt.Fprintf(out, "  Journal: %s\n", cfg.Journal.Type)
	return nil
}
