package journal

import (
	"database/sql"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rustyeddy/nodepnl/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	j, err := NewSQLite(path)
	require.NoError(t, err)
	return j, path
}

func sampleRun(id string) RunRecord {
	return RunRecord{
		RunID:     id,
		Created:   time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC),
		Start:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:       time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		Target:    "USD",
		GapPolicy: "carry_forward",
		Positions: 2,
		Failures:  1,
	}
}

func samplePnL() []series.Point {
	return []series.Point{
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Value: 20},
		{Date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Value: -40},
	}
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	assert.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('runs','positions','pnl')`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	require.NoError(t, rows.Err())

	assert.True(t, found["runs"])
	assert.True(t, found["positions"])
	assert.True(t, found["pnl"])
}

func TestSQLiteRunRoundTrip(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	run := sampleRun("01HQZ0000000000000000000AA")
	require.NoError(t, j.RecordRun(run))

	ok := PositionRecord{RunID: run.RunID, PositionID: "swap-1", Kind: "yield_curve", Quantity: 10, Status: StatusOK, Total: -20, Points: 2}
	bad := PositionRecord{RunID: run.RunID, PositionID: "fut-1", Kind: "rate_future", Quantity: -2, Status: StatusError, Error: "missing factor data for \"SR3-Z4\""}
	require.NoError(t, j.RecordPosition(ok, samplePnL()))
	require.NoError(t, j.RecordPosition(bad, nil))

	got, err := j.GetRun(run.RunID)
	require.NoError(t, err)
	assert.Equal(t, run.RunID, got.RunID)
	assert.True(t, run.Created.Equal(got.Created))
	assert.True(t, run.Start.Equal(got.Start))
	assert.Equal(t, "USD", got.Target)
	assert.Equal(t, 1, got.Failures)

	positions, err := j.ListPositions(run.RunID)
	require.NoError(t, err)
	require.Len(t, positions, 2)
	assert.Equal(t, "fut-1", positions[0].PositionID)
	assert.Equal(t, StatusError, positions[0].Status)
	assert.Equal(t, ok, positions[1])

	pnl, err := j.PnL(run.RunID, "swap-1")
	require.NoError(t, err)
	assert.Equal(t, []float64{20, -40}, pnl.Values())

	_, err = j.GetRun("missing")
	assert.Error(t, err)
}

func TestSQLiteListRunsNewestFirst(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	require.NoError(t, j.RecordRun(sampleRun("01HQZ0000000000000000000AA")))
	require.NoError(t, j.RecordRun(sampleRun("01HQZ0000000000000000000BB")))

	runs, err := j.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "01HQZ0000000000000000000BB", runs[0].RunID)

	runs, err = j.ListRuns(1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestCSVJournal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	runsPath := filepath.Join(dir, "runs.csv")
	posPath := filepath.Join(dir, "positions.csv")
	pnlPath := filepath.Join(dir, "pnl.csv")

	j, err := NewCSV(runsPath, posPath, pnlPath)
	require.NoError(t, err)

	run := sampleRun("R1")
	require.NoError(t, j.RecordRun(run))
	require.NoError(t, j.RecordPosition(PositionRecord{RunID: "R1", PositionID: "swap-1", Kind: "yield_curve", Status: StatusOK, Total: -20, Points: 2}, samplePnL()))
	require.NoError(t, j.Close())

	read := func(path string) [][]string {
		f, err := os.Open(path)
		require.NoError(t, err)
		defer f.Close()
		recs, err := csv.NewReader(f).ReadAll()
		require.NoError(t, err)
		return recs
	}

	runs := read(runsPath)
	require.Len(t, runs, 2)
	assert.Equal(t, "run_id", runs[0][0])
	assert.Equal(t, []string{"R1", "2024-02-01T09:30:00Z", "2024-01-01", "2024-01-31", "USD", "carry_forward", "2", "1"}, runs[1])

	pnl := read(pnlPath)
	require.Len(t, pnl, 3)
	assert.Equal(t, []string{"R1", "swap-1", "2024-01-03", "-40.000000"}, pnl[2])
}

func TestFormatRunOrg(t *testing.T) {
	t.Parallel()

	run := sampleRun("01HQZ0000000000000000000AA")
	out := FormatRunOrg(run, []PositionRecord{
		{PositionID: "swap-1", Kind: "yield_curve", Quantity: 10, Status: StatusOK, Total: -20, Points: 2},
		{PositionID: "fut-1", Kind: "rate_future", Status: StatusError, Error: "boom"},
	})

	assert.Contains(t, out, "** Attribution run 01HQZ000")
	assert.Contains(t, out, ":RUN_ID: 01HQZ0000000000000000000AA\n")
	assert.Contains(t, out, "| swap-1 | yield_curve | 10.00 | ok | -20.00 | 2 |")
	assert.Contains(t, out, "- fut-1: boom")

	both := FormatRunsOrg([]RunRecord{run, sampleRun("R2")})
	assert.Contains(t, both, ":RUN_ID: R2")
}
