package marketdata

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/nodepnl/series"
)

// SQLite stores factor histories. It serves both factor and FX lookups and is
// safe for concurrent readers.
type SQLite struct {
	db *sql.DB
}

// FactorInfo summarizes one stored factor.
type FactorInfo struct {
	FactorID    string
	Description string
	Count       int
	First       string
	Last        string
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

// AddFactor registers a factor. A registered factor with no observations is
// reported as present but empty by Lookup.
func (s *SQLite) AddFactor(ctx context.Context, factorID, description string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO factors (factor_id, description) VALUES (?, ?)
		ON CONFLICT(factor_id) DO UPDATE SET description = excluded.description`,
		factorID, description)
	return err
}

// Put registers raw.FactorID and upserts its observations in one transaction.
func (s *SQLite) Put(ctx context.Context, raw series.Raw) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO factors (factor_id) VALUES (?)`, raw.FactorID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO observations (factor_id, date, value) VALUES (?, ?, ?)
		ON CONFLICT(factor_id, date) DO UPDATE SET value = excluded.value`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range raw.Points() {
		if _, err := stmt.ExecContext(ctx, raw.FactorID, p.Date.Format(dateLayout), p.Value); err != nil {
			return fmt.Errorf("factor %s on %s: %w", raw.FactorID, p.Date.Format(dateLayout), err)
		}
	}
	return tx.Commit()
}

// Lookup loads the full history of factorID.
func (s *SQLite) Lookup(ctx context.Context, factorID string) (series.Raw, bool, error) {
	var known int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM factors WHERE factor_id = ?`, factorID).Scan(&known)
	if err != nil {
		return series.Raw{}, false, err
	}
	if known == 0 {
		return series.Raw{}, false, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT date, value FROM observations
		WHERE factor_id = ?
		ORDER BY date ASC`, factorID)
	if err != nil {
		return series.Raw{}, false, err
	}
	defer rows.Close()

	var pts []series.Point
	for rows.Next() {
		var ds string
		var v float64
		if err := rows.Scan(&ds, &v); err != nil {
			return series.Raw{}, false, err
		}
		t, err := time.Parse(dateLayout, ds)
		if err != nil {
			return series.Raw{}, false, fmt.Errorf("factor %s: bad date %q: %w", factorID, ds, err)
		}
		pts = append(pts, series.Point{Date: t, Value: v})
	}
	if err := rows.Err(); err != nil {
		return series.Raw{}, false, err
	}
	return series.NewRaw(factorID, pts), true, nil
}

// FXSeries loads the pair history stored under FXPrefix+pair.
func (s *SQLite) FXSeries(ctx context.Context, pair string) (series.Raw, bool, error) {
	return s.Lookup(ctx, FXPrefix+pair)
}

// Factors lists every registered factor with its observation range.
func (s *SQLite) Factors(ctx context.Context) ([]FactorInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.factor_id, f.description, COUNT(o.date), COALESCE(MIN(o.date), ''), COALESCE(MAX(o.date), '')
		FROM factors f
		LEFT JOIN observations o ON o.factor_id = f.factor_id
		GROUP BY f.factor_id, f.description
		ORDER BY f.factor_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FactorInfo
	for rows.Next() {
		var fi FactorInfo
		if err := rows.Scan(&fi.FactorID, &fi.Description, &fi.Count, &fi.First, &fi.Last); err != nil {
			return nil, err
		}
		out = append(out, fi)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
