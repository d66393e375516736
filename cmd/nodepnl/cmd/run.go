package cmd

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/nodepnl/attrib"
	"github.com/rustyeddy/nodepnl/config"
	"github.com/rustyeddy/nodepnl/engine"
	"github.com/rustyeddy/nodepnl/journal"
	"github.com/rustyeddy/nodepnl/marketdata"
	"github.com/rustyeddy/nodepnl/pkg/logger"
	"github.com/rustyeddy/nodepnl/pkg/metrics"
	"github.com/rustyeddy/nodepnl/series"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Attribute P&L for every position in a config file",
	Long: `Run historical P&L attribution using settings from a configuration file.

The config file names the schedule, the sampling rules, the reporting currency,
the market data store and the positions with their sensitivities. Every
position is computed independently; a failing position is reported and
journaled without stopping the others.

Example:
  nodepnl run -f book.yaml
  nodepnl run -f book.yaml --metrics-out run.prom`,
	RunE: runRun,
}

var (
	runConfigPath string
	runMetricsOut string
	runByCurve    bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON) (required)")
	runCmd.Flags().StringVar(&runMetricsOut, "metrics-out", "", "write Prometheus metrics in text format to this file")
	runCmd.Flags().BoolVar(&runByCurve, "by-curve", false, "print each position's per-curve totals")
	runCmd.MarkFlagRequired("config")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level, env := cfg.Log.Level, cfg.Log.Env
	if cmd.Flags().Changed("log-level") {
		level = logLevel
	}
	if cmd.Flags().Changed("log-env") {
		env = logEnv
	}
	if err := logger.Init(level, env); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	sched, err := cfg.BuildSchedule()
	if err != nil {
		return fmt.Errorf("schedule: %w", err)
	}
	positions, err := cfg.BuildPositions()
	if err != nil {
		return fmt.Errorf("positions: %w", err)
	}
	policy, _ := series.ParseGapPolicy(cfg.Sampling.GapPolicy)
	returns, _ := series.ParseReturnMode(cfg.Sampling.Returns)

	store, err := marketdata.NewSQLite(cfg.MarketData.DBPath)
	if err != nil {
		return fmt.Errorf("open market data: %w", err)
	}
	defer store.Close()

	var src marketdata.Source = store
	if cfg.MarketData.Cache {
		src = marketdata.NewCache(store)
	}

	j, err := openJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	if j != nil {
		defer j.Close()
	}

	rec := metrics.NewRecorder()
	runner := &engine.Runner{
		Calculator: &attrib.Calculator{
			Source:   src,
			FX:       src,
			Schedule: sched,
			Policy:   policy,
			Returns:  returns,
			Target:   cfg.Currency.Target,
		},
		Workers: cfg.Engine.Workers,
		Journal: j,
		Metrics: rec,
		Log:     logger.Get().Named("engine"),
	}

	rep, err := runner.Run(cmd.Context(), positions)
	// The recorder holds whatever finished, even when the run itself failed.
	if werr := writeMetrics(runMetricsOut, rec); werr != nil {
		if err != nil {
			return fmt.Errorf("%w (and %v)", err, werr)
		}
		return werr
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s: %d positions, %d failed, %d dates\n\n", rep.RunID, len(rep.Outcomes), rep.Failures, len(sched))
	printOutcomes(out, rep.Outcomes, runByCurve)

	if rep.Failures > 0 {
		return fmt.Errorf("%d of %d positions failed", rep.Failures, len(rep.Outcomes))
	}
	return nil
}

func writeMetrics(path string, rec *metrics.Recorder) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, rec.Registry()); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

func openJournal(jc config.JournalConfig) (journal.Journal, error) {
	switch jc.Type {
	case "csv":
		return journal.NewCSV(jc.RunsFile, jc.PositionsFile, jc.PnLFile)
	case "sqlite":
		return journal.NewSQLite(jc.DBPath)
	}
	return nil, nil
}

func printOutcomes(w io.Writer, outcomes []engine.Outcome, byCurve bool) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "POSITION\tKIND\tQTY\tCCY\tTOTAL\tPOINTS\tERROR")
	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Fprintf(tw, "%s\t%s\t%.2f\t\t\t\t%v\n", o.PositionID, o.Kind, o.Quantity, o.Err)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\t%.2f\t%d\t\n",
			o.PositionID, o.Kind, o.Quantity, o.Result.Conversion.Target, o.Result.PnL.Sum(), o.Result.PnL.Len())
		if !byCurve {
			continue
		}
		names := make([]string, 0, len(o.Result.ByCurve))
		for name := range o.Result.ByCurve {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(tw, "  %s\t\t\t\t%.2f\t%d\t\n", name, o.Result.ByCurve[name].Sum(), o.Result.ByCurve[name].Len())
		}
	}
	_ = tw.Flush()
}
