package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/nodepnl/config"
	"github.com/rustyeddy/nodepnl/marketdata"
	"github.com/rustyeddy/nodepnl/series"
)

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Manage the local market data store",
	Long: `Load, list and export factor and FX histories.

FX histories are stored as factors named FX:<PAIR>, for example FX:USD_JPY,
quoted in units of the base currency per unit of the counter currency.

The store is --db, or market_data.db_path of the config given with -f so
imports land in the same file "nodepnl run -f" reads. An explicit --db wins.

Subcommands:
  import - Load observations from CSV files (factor_id,date,value)
  list   - List stored factors with their date ranges
  export - Write factor histories as CSV to stdout

Examples:
  nodepnl data import curves.csv fx.csv
  nodepnl data import -f book.yaml curves.csv
  nodepnl data list
  nodepnl data export USD-SOFR-2Y FX:EUR_USD`,
}

var dataImportCmd = &cobra.Command{
	Use:   "import <file.csv>...",
	Short: "Load observations from CSV files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDataImport,
}

var dataListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored factors",
	Args:  cobra.NoArgs,
	RunE:  runDataList,
}

var dataExportCmd = &cobra.Command{
	Use:   "export <factor-id>...",
	Short: "Write factor histories as CSV",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDataExport,
}

var (
	dataDBPath     string
	dataConfigPath string
)

func init() {
	rootCmd.AddCommand(dataCmd)
	dataCmd.AddCommand(dataImportCmd)
	dataCmd.AddCommand(dataListCmd)
	dataCmd.AddCommand(dataExportCmd)

	dataCmd.PersistentFlags().StringVarP(&dataDBPath, "db", "d", "./marketdata.sqlite", "path to SQLite market data DB")
	dataCmd.PersistentFlags().StringVarP(&dataConfigPath, "config", "f", "", "read the DB path from this config file's market_data.db_path")
}

// openDataStore opens --db, or the config's store when -f is given and --db
// is not.
func openDataStore(cmd *cobra.Command) (*marketdata.SQLite, error) {
	path := dataDBPath
	if dataConfigPath != "" && !cmd.Flags().Changed("db") {
		cfg, err := config.LoadFromFile(dataConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		path = cfg.MarketData.DBPath
	}
	store, err := marketdata.NewSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return store, nil
}

func runDataImport(cmd *cobra.Command, args []string) error {
	store, err := openDataStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, path := range args {
		raws, err := marketdata.ReadCSVFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		points := 0
		for _, raw := range raws {
			if err := store.Put(cmd.Context(), raw); err != nil {
				return fmt.Errorf("store %s: %w", raw.FactorID, err)
			}
			points += raw.Len()
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: %d factors, %d observations\n", path, len(raws), points)
	}
	return nil
}

func runDataList(cmd *cobra.Command, args []string) error {
	store, err := openDataStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	infos, err := store.Factors(cmd.Context())
	if err != nil {
		return fmt.Errorf("list factors: %w", err)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FACTOR\tCOUNT\tFIRST\tLAST\tDESCRIPTION")
	for _, fi := range infos {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", fi.FactorID, fi.Count, fi.First, fi.Last, fi.Description)
	}
	return tw.Flush()
}

func runDataExport(cmd *cobra.Command, args []string) error {
	store, err := openDataStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	raws := make([]series.Raw, 0, len(args))
	for _, id := range args {
		raw, ok, err := store.Lookup(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("lookup %s: %w", id, err)
		}
		if !ok {
			return fmt.Errorf("factor %s not found", id)
		}
		raws = append(raws, raw)
	}
	return marketdata.WriteCSV(cmd.OutOrStdout(), raws...)
}
