package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"github.com/rustyeddy/nodepnl/series"
)

// CSVJournal writes runs, position outcomes and P&L points to three files.
type CSVJournal struct {
	runs, positions, pnl *csv.Writer
	files                []*os.File
}

func NewCSV(runsPath, positionsPath, pnlPath string) (*CSVJournal, error) {
	j := &CSVJournal{}
	headers := [][]string{
		{"run_id", "created", "start", "end", "target", "gap_policy", "positions", "failures"},
		{"run_id", "position_id", "kind", "quantity", "status", "error", "total", "points"},
		{"run_id", "position_id", "date", "value"},
	}

	writers := make([]*csv.Writer, 0, 3)
	for i, path := range []string{runsPath, positionsPath, pnlPath} {
		f, err := os.Create(path)
		if err != nil {
			_ = j.closeFiles()
			return nil, err
		}
		j.files = append(j.files, f)

		w := csv.NewWriter(f)
		if err := w.Write(headers[i]); err != nil {
			_ = j.closeFiles()
			return nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			_ = j.closeFiles()
			return nil, err
		}
		writers = append(writers, w)
	}
	j.runs, j.positions, j.pnl = writers[0], writers[1], writers[2]
	return j, nil
}

func (j *CSVJournal) RecordRun(r RunRecord) error {
	err := j.runs.Write([]string{
		r.RunID,
		r.Created.UTC().Format(time.RFC3339),
		r.Start.Format("2006-01-02"),
		r.End.Format("2006-01-02"),
		r.Target,
		r.GapPolicy,
		strconv.Itoa(r.Positions),
		strconv.Itoa(r.Failures),
	})
	if err != nil {
		return err
	}
	j.runs.Flush()
	return j.runs.Error()
}

func (j *CSVJournal) RecordPosition(p PositionRecord, pnl []series.Point) error {
	err := j.positions.Write([]string{
		p.RunID,
		p.PositionID,
		p.Kind,
		f(p.Quantity),
		p.Status,
		p.Error,
		f(p.Total),
		strconv.Itoa(p.Points),
	})
	if err != nil {
		return err
	}
	for _, pt := range pnl {
		if err := j.pnl.Write([]string{p.RunID, p.PositionID, pt.Date.Format("2006-01-02"), f(pt.Value)}); err != nil {
			return err
		}
	}
	j.positions.Flush()
	j.pnl.Flush()
	if err := j.positions.Error(); err != nil {
		return err
	}
	return j.pnl.Error()
}

func (j *CSVJournal) Close() error {
	for _, w := range []*csv.Writer{j.runs, j.positions, j.pnl} {
		w.Flush()
		if err := w.Error(); err != nil {
			return err
		}
	}
	return j.closeFiles()
}

func (j *CSVJournal) closeFiles() error {
	var first error
	for _, fh := range j.files {
		if err := fh.Close(); err != nil && first == nil {
			first = err
		}
	}
	j.files = nil
	return first
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
