package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/nodepnl/series"
)

// GetRun returns a single run record by ID.
func (j *SQLite) GetRun(runID string) (RunRecord, error) {
	var rec RunRecord

	row := j.db.QueryRow(`
		SELECT run_id, created, start_date, end_date, target, gap_policy, positions, failures
		FROM runs
		WHERE run_id = ?`, runID)

	err := row.Scan(
		&rec.RunID,
		&rec.Created,
		&rec.Start,
		&rec.End,
		&rec.Target,
		&rec.GapPolicy,
		&rec.Positions,
		&rec.Failures,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunRecord{}, fmt.Errorf("run %q not found", runID)
		}
		return RunRecord{}, err
	}
	return rec, nil
}

// ListRuns returns the most recent runs first, at most limit of them.
func (j *SQLite) ListRuns(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.Query(`
		SELECT run_id, created, start_date, end_date, target, gap_policy, positions, failures
		FROM runs
		ORDER BY run_id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		if err := rows.Scan(
			&rec.RunID,
			&rec.Created,
			&rec.Start,
			&rec.End,
			&rec.Target,
			&rec.GapPolicy,
			&rec.Positions,
			&rec.Failures,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListPositions returns every position outcome of a run ordered by position id.
func (j *SQLite) ListPositions(runID string) ([]PositionRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, position_id, kind, quantity, status, error, total, points
		FROM positions
		WHERE run_id = ?
		ORDER BY position_id ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PositionRecord
	for rows.Next() {
		var rec PositionRecord
		if err := rows.Scan(
			&rec.RunID,
			&rec.PositionID,
			&rec.Kind,
			&rec.Quantity,
			&rec.Status,
			&rec.Error,
			&rec.Total,
			&rec.Points,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// PnL returns the stored P&L series of one position in a run.
func (j *SQLite) PnL(runID, positionID string) (series.Series, error) {
	rows, err := j.db.Query(`
		SELECT date, value FROM pnl
		WHERE run_id = ? AND position_id = ?
		ORDER BY date ASC`, runID, positionID)
	if err != nil {
		return series.Series{}, err
	}
	defer rows.Close()

	var dates []time.Time
	var values []float64
	for rows.Next() {
		var ds string
		var v float64
		if err := rows.Scan(&ds, &v); err != nil {
			return series.Series{}, err
		}
		t, err := time.Parse("2006-01-02", ds)
		if err != nil {
			return series.Series{}, err
		}
		dates = append(dates, t)
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return series.Series{}, err
	}
	return series.New(dates, values)
}
