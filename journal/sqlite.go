package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/nodepnl/series"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordRun(r RunRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO runs
		(run_id, created, start_date, end_date, target, gap_policy, positions, failures)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET positions = excluded.positions, failures = excluded.failures`,
		r.RunID, r.Created.UTC(), r.Start.UTC(), r.End.UTC(), r.Target, r.GapPolicy, r.Positions, r.Failures,
	)
	return err
}

// RecordPosition stores the outcome row and its P&L points atomically.
func (j *SQLite) RecordPosition(p PositionRecord, pnl []series.Point) error {
	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO positions
		(run_id, position_id, kind, quantity, status, error, total, points)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.RunID, p.PositionID, p.Kind, p.Quantity, p.Status, p.Error, p.Total, p.Points,
	); err != nil {
		return err
	}

	for _, pt := range pnl {
		if _, err := tx.Exec(`
			INSERT INTO pnl (run_id, position_id, date, value) VALUES (?, ?, ?, ?)`,
			p.RunID, p.PositionID, pt.Date.Format("2006-01-02"), pt.Value,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
