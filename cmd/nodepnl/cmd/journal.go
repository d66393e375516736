package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/nodepnl/journal"
	"github.com/rustyeddy/nodepnl/pkg/id"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query attribution runs",
	Long: `Query and display attribution runs from the SQLite journal.

Subcommands:
  run  - Show one run and its position outcomes
  list - List recent runs
  pnl  - Print the stored P&L series of one position

Examples:
  nodepnl journal run <run-id>
  nodepnl journal list -n 5 --since 24h
  nodepnl journal pnl <run-id> swap-usd-5y`,
}

var journalRunCmd = &cobra.Command{
	Use:   "run <run-id>",
	Short: "Show one run and its position outcomes",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalRun,
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	Args:  cobra.NoArgs,
	RunE:  runJournalList,
}

var journalPnLCmd = &cobra.Command{
	Use:   "pnl <run-id> <position-id>",
	Short: "Print the stored P&L series of one position",
	Args:  cobra.ExactArgs(2),
	RunE:  runJournalPnL,
}

var (
	journalDBPath string
	journalLimit  int
	journalSince  time.Duration
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalRunCmd)
	journalCmd.AddCommand(journalListCmd)
	journalCmd.AddCommand(journalPnLCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./nodepnl.sqlite", "path to SQLite journal DB")
	journalListCmd.Flags().IntVarP(&journalLimit, "limit", "n", 20, "maximum number of runs")
	journalListCmd.Flags().DurationVar(&journalSince, "since", 0, "only runs started within this long ago (e.g. 24h)")
}

func runJournalRun(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	rec, err := j.GetRun(args[0])
	if err != nil {
		return fmt.Errorf("get run: %w", err)
	}
	positions, err := j.ListPositions(rec.RunID)
	if err != nil {
		return fmt.Errorf("list positions: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatRunOrg(rec, positions))
	return nil
}

func runJournalList(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	recs, err := j.ListRuns(journalLimit)
	if err != nil {
		return fmt.Errorf("query runs: %w", err)
	}
	if journalSince > 0 {
		recs = startedSince(recs, time.Now().Add(-journalSince))
	}

	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatRunsOrg(recs))
	return nil
}

// startedSince keeps runs whose id timestamp is not before cutoff. Ids that
// are not ULIDs fall back to the recorded creation time.
func startedSince(recs []journal.RunRecord, cutoff time.Time) []journal.RunRecord {
	out := recs[:0]
	for _, r := range recs {
		started, err := id.Time(r.RunID)
		if err != nil {
			started = r.Created
		}
		if !started.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

func runJournalPnL(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	s, err := j.PnL(args[0], args[1])
	if err != nil {
		return fmt.Errorf("query pnl: %w", err)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tPNL")
	for i := 0; i < s.Len(); i++ {
		fmt.Fprintf(tw, "%s\t%.2f\n", s.Date(i).Format("2006-01-02"), s.Value(i))
	}
	fmt.Fprintf(tw, "TOTAL\t%.2f\n", s.Sum())
	return tw.Flush()
}
