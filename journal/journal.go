// journal/journal.go
package journal

import (
	"time"

	"github.com/rustyeddy/nodepnl/series"
)

// RunRecord describes one attribution run over a set of positions.
type RunRecord struct {
	RunID     string
	Created   time.Time
	Start     time.Time
	End       time.Time
	Target    string
	GapPolicy string
	Positions int
	Failures  int
}

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// PositionRecord is the outcome for one position in a run.
type PositionRecord struct {
	RunID      string
	PositionID string
	Kind       string
	Quantity   float64
	Status     string
	Error      string
	Total      float64
	Points     int
}

type Journal interface {
	RecordRun(RunRecord) error
	RecordPosition(rec PositionRecord, pnl []series.Point) error
	Close() error
}
