package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/nodepnl/journal"
	"github.com/rustyeddy/nodepnl/pkg/id"
)

// resetFlags puts every flag back to its default so one test's flags do not
// leak into the next Execute.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	resetFlags(rootCmd)
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

const marketCSV = `factor_id,date,value
USD-SOFR-2Y,2024-01-01,100
USD-SOFR-2Y,2024-01-02,102
USD-SOFR-2Y,2024-01-03,101
USD-SOFR-2Y,2024-01-04,104
USD-SOFR-2Y,2024-01-05,103
EUR-ESTR-5Y,2024-01-01,3.00
EUR-ESTR-5Y,2024-01-02,3.10
EUR-ESTR-5Y,2024-01-03,3.10
EUR-ESTR-5Y,2024-01-04,3.00
EUR-ESTR-5Y,2024-01-05,3.00
FX:EUR_USD,2024-01-01,1.10
FX:EUR_USD,2024-01-02,1.10
FX:EUR_USD,2024-01-03,1.10
FX:EUR_USD,2024-01-04,1.10
FX:EUR_USD,2024-01-05,1.10
`

func TestEndToEnd(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "market.csv")
	mdPath := filepath.Join(dir, "md.sqlite")
	journalPath := filepath.Join(dir, "journal.sqlite")
	cfgPath := filepath.Join(dir, "book.yaml")
	require.NoError(t, os.WriteFile(csvPath, []byte(marketCSV), 0644))

	out, err := execute(t, "data", "import", "--db", mdPath, csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "3 factors, 15 observations")

	out, err = execute(t, "data", "list", "--db", mdPath)
	require.NoError(t, err)
	assert.Contains(t, out, "FX:EUR_USD")
	assert.Contains(t, out, "2024-01-05")

	out, err = execute(t, "data", "export", "--db", mdPath, "USD-SOFR-2Y")
	require.NoError(t, err)
	assert.Contains(t, out, "USD-SOFR-2Y,2024-01-03")

	book := `
schedule:
  start: "2024-01-01"
  end: "2024-01-05"
  include_start: true
  include_end: true
sampling:
  gap_policy: strict
currency:
  target: USD
market_data:
  db_path: ` + mdPath + `
  cache: true
journal:
  type: sqlite
  db_path: ` + journalPath + `
engine:
  workers: 2
log:
  level: error
positions:
  - id: swap-usd
    kind: yield_curve
    quantity: 2
    currency: USD
    exposures:
      - curve: USD-SOFR
        sensitivities:
          - factor: USD-SOFR-2Y
            value: 10
  - id: swap-eur
    kind: yield_curve
    quantity: 1
    currency: EUR
    exposures:
      - curve: EUR-ESTR
        sensitivities:
          - factor: EUR-ESTR-5Y
            value: 1000
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(book), 0644))

	out, err = execute(t, "config", "validate", "-f", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "5 dates")
	assert.Contains(t, out, "Positions: 2")

	out, err = execute(t, "run", "-f", cfgPath, "--by-curve")
	require.NoError(t, err)
	assert.Contains(t, out, "2 positions, 0 failed")
	assert.Contains(t, out, "USD-SOFR")
	assert.Contains(t, out, "swap-eur")
	assert.Contains(t, out, "60.00")

	out, err = execute(t, "journal", "list", "--db", journalPath)
	require.NoError(t, err)
	assert.Contains(t, out, ":POSITIONS: 2")
	assert.Contains(t, out, ":FAILURES: 0")
}

func TestRunReportsFailedPositions(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "book.yaml")
	book := `
schedule:
  start: "2024-01-01"
  end: "2024-01-05"
market_data:
  db_path: ` + filepath.Join(dir, "empty.sqlite") + `
journal:
  type: none
positions:
  - id: swap-usd
    kind: yield_curve
    quantity: 1
    currency: USD
    exposures:
      - curve: USD-SOFR
        sensitivities:
          - factor: USD-SOFR-2Y
            value: 10
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(book), 0644))

	out, err := execute(t, "run", "-f", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 positions failed")
	assert.Contains(t, out, "missing factor data")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "nodepnl version "+version)
}

func writeBook(t *testing.T, dir, mdPath string) string {
	t.Helper()

	path := filepath.Join(dir, "book.yaml")
	book := `
schedule:
  start: "2024-01-01"
  end: "2024-01-05"
  include_start: true
  include_end: true
market_data:
  db_path: ` + mdPath + `
journal:
  type: none
positions:
  - id: swap-usd
    kind: yield_curve
    quantity: 1
    currency: USD
    exposures:
      - curve: USD-SOFR
        sensitivities:
          - factor: USD-SOFR-2Y
            value: 10
`
	require.NoError(t, os.WriteFile(path, []byte(book), 0644))
	return path
}

func TestDataImportReadsStoreFromConfig(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "market.csv")
	mdPath := filepath.Join(dir, "custom.sqlite")
	require.NoError(t, os.WriteFile(csvPath, []byte(marketCSV), 0644))
	cfgPath := writeBook(t, dir, mdPath)

	_, err := execute(t, "data", "import", "-f", cfgPath, csvPath)
	require.NoError(t, err)

	out, err := execute(t, "data", "list", "--db", mdPath)
	require.NoError(t, err)
	assert.Contains(t, out, "USD-SOFR-2Y")

	out, err = execute(t, "run", "-f", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "1 positions, 0 failed")
}

func TestRunWritesMetricsWhenRunFails(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeBook(t, dir, filepath.Join(dir, "md.sqlite"))
	promPath := filepath.Join(dir, "run.prom")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	runCmd.SetContext(ctx)
	t.Cleanup(func() { runCmd.SetContext(context.Background()) })

	_, err := execute(t, "run", "-f", cfgPath, "--metrics-out", promPath)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	data, err := os.ReadFile(promPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "nodepnl_attribution_pnl_points_total")
}

func TestJournalListSince(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "journal.sqlite")
	j, err := journal.NewSQLite(dbPath)
	require.NoError(t, err)

	old := id.NewAt(time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC))
	recent := id.NewAt(time.Now())
	for _, runID := range []string{old, recent} {
		require.NoError(t, j.RecordRun(journal.RunRecord{RunID: runID, Created: time.Now(), Target: "USD", GapPolicy: "strict"}))
	}
	require.NoError(t, j.Close())

	out, err := execute(t, "journal", "list", "--db", dbPath, "--since", "24h")
	require.NoError(t, err)
	assert.Contains(t, out, ":RUN_ID: "+recent)
	assert.NotContains(t, out, ":RUN_ID: "+old)

	out, err = execute(t, "journal", "list", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, ":RUN_ID: "+old)
}
