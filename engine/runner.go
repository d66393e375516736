// Package engine attributes a book of positions concurrently and journals the
// outcome of each one.
package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/nodepnl/attrib"
	"github.com/rustyeddy/nodepnl/journal"
	"github.com/rustyeddy/nodepnl/pkg/id"
	"github.com/rustyeddy/nodepnl/pkg/logger"
	"github.com/rustyeddy/nodepnl/pkg/metrics"
)

// Outcome is the result of one position. Exactly one of Result and Err is set.
type Outcome struct {
	PositionID string
	Kind       attrib.Kind
	Quantity   float64
	Result     attrib.Result
	Err        error
	Elapsed    time.Duration
}

// Report summarizes a run.
type Report struct {
	RunID    string
	Created  time.Time
	Outcomes []Outcome
	Failures int
}

// Runner drives a Calculator over many positions.
type Runner struct {
	Calculator *attrib.Calculator
	// Workers bounds concurrent positions. Zero means GOMAXPROCS.
	Workers int
	Journal journal.Journal
	Metrics *metrics.Recorder
	Log     *logger.Logger

	// now is swapped in tests.
	now func() time.Time
}

func (r *Runner) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

func (r *Runner) log() *logger.Logger {
	if r.Log != nil {
		return r.Log
	}
	return logger.Get().Named("engine")
}

// Run attributes every position. A failing position is recorded in its
// Outcome and never cancels the others. The returned error covers setup,
// cancellation and journal failures only.
func (r *Runner) Run(ctx context.Context, positions []attrib.Position) (Report, error) {
	if r.Calculator == nil {
		return Report{}, errors.New("engine: Calculator is required")
	}
	if len(r.Calculator.Schedule) == 0 {
		return Report{}, errors.New("engine: empty schedule")
	}

	created := r.clock().UTC()
	rep := Report{
		RunID:    id.NewAt(created),
		Created:  created,
		Outcomes: make([]Outcome, len(positions)),
	}
	log := r.log().With("run", rep.RunID)
	log.Infow("attribution run started", "positions", len(positions), "target", r.Calculator.Target)

	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, pos := range positions {
		i, pos := i, pos
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rep.Outcomes[i] = r.compute(gctx, pos)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return rep, fmt.Errorf("engine: run %s: %w", rep.RunID, err)
	}

	for _, o := range rep.Outcomes {
		if o.Err != nil {
			rep.Failures++
			log.Warnw("position failed", "position", o.PositionID, "kind", o.Kind, "err", o.Err)
		}
	}

	if err := r.record(rep); err != nil {
		return rep, fmt.Errorf("engine: journal run %s: %w", rep.RunID, err)
	}

	log.Infow("attribution run finished", "positions", len(positions), "failures", rep.Failures)
	return rep, nil
}

func (r *Runner) compute(ctx context.Context, pos attrib.Position) Outcome {
	start := r.clock()
	res, err := r.Calculator.Compute(ctx, pos)
	elapsed := r.clock().Sub(start)

	r.Metrics.Observe(string(pos.Kind), elapsed, res.PnL.Len(), err)

	return Outcome{
		PositionID: pos.ID,
		Kind:       pos.Kind,
		Quantity:   pos.Quantity,
		Result:     res,
		Err:        err,
		Elapsed:    elapsed,
	}
}

// record writes the run and then its positions in input order.
func (r *Runner) record(rep Report) error {
	if r.Journal == nil {
		return nil
	}

	sched := r.Calculator.Schedule
	run := journal.RunRecord{
		RunID:     rep.RunID,
		Created:   rep.Created,
		Start:     sched.First(),
		End:       sched.Last(),
		Target:    r.Calculator.Target,
		GapPolicy: r.Calculator.Policy.String(),
		Positions: len(rep.Outcomes),
		Failures:  rep.Failures,
	}
	if err := r.Journal.RecordRun(run); err != nil {
		return err
	}

	for _, o := range rep.Outcomes {
		rec := journal.PositionRecord{
			RunID:      rep.RunID,
			PositionID: o.PositionID,
			Kind:       string(o.Kind),
			Quantity:   o.Quantity,
			Status:     journal.StatusOK,
		}
		if o.Err != nil {
			rec.Status = journal.StatusError
			rec.Error = o.Err.Error()
			if err := r.Journal.RecordPosition(rec, nil); err != nil {
				return err
			}
			continue
		}
		rec.Total = o.Result.PnL.Sum()
		rec.Points = o.Result.PnL.Len()
		if err := r.Journal.RecordPosition(rec, o.Result.PnL.Points()); err != nil {
			return err
		}
	}
	return nil
}
