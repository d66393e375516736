package attrib

import (
	"context"
	"fmt"

	"github.com/rustyeddy/nodepnl/calendar"
	"github.com/rustyeddy/nodepnl/market"
	"github.com/rustyeddy/nodepnl/series"
)

// Exposure is the sensitivity of a position to one curve or surface.
type Exposure struct {
	Curve         Curve  `json:"curve" yaml:"curve"`
	Sensitivities Vector `json:"sensitivities" yaml:"sensitivities"`
}

// Position is everything the calculator needs about one holding.
type Position struct {
	ID              string
	Kind            Kind
	Quantity        float64
	Currency        string
	PayCurrency     string
	ReceiveCurrency string
	Exposures       []Exposure
}

// Result is the attributed P&L of one position.
type Result struct {
	PositionID string
	PnL        series.Series
	ByCurve    map[string]series.Series
	Conversion market.Conversion
}

// Calculator runs the full attribution for positions sharing one schedule,
// market data and reporting currency. It holds no mutable state, so one value
// may serve many goroutines.
type Calculator struct {
	Source     FactorSource
	FX         market.FXLookup
	Convention market.Convention
	Schedule   calendar.Schedule
	Policy     series.GapPolicy
	Returns    series.ReturnMode
	// Target is the reporting currency. Empty keeps each position's own.
	Target string
	// Profiles overrides the package strategy table when set.
	Profiles map[Kind]Profile
}

func (c *Calculator) profile(k Kind) (Profile, error) {
	table := c.Profiles
	if table == nil {
		table = Profiles
	}
	p, ok := table[k]
	if !ok {
		return Profile{}, fmt.Errorf("%q: %w", k, ErrUnknownKind)
	}
	return p, nil
}

// Compute maps every exposure of pos, sums the curves and scales by quantity.
// It stops at the first error and returns no partial result.
func (c *Calculator) Compute(ctx context.Context, pos Position) (Result, error) {
	prof, err := c.profile(pos.Kind)
	if err != nil {
		return Result{}, err
	}

	source, err := prof.SourceCurrency(pos, c.Convention)
	if err != nil {
		return Result{}, err
	}
	target := c.Target
	if target == "" {
		target = source
	}
	conv, err := market.Resolve(ctx, source, target, c.FX, c.Convention)
	if err != nil {
		return Result{}, fmt.Errorf("position %s: %w", pos.ID, err)
	}

	m := Mapping{
		Policy:  c.Policy,
		Returns: c.Returns,
		Sign:    prof.Sign,
		Unit:    prof.Unit,
	}
	if !conv.IsIdentity() {
		m.FX = &conv
	}

	byCurve := make(map[string]series.Series, len(pos.Exposures))
	groups := make([]series.Series, 0, len(pos.Exposures))
	for _, ex := range pos.Exposures {
		var s series.Series
		if len(ex.Curve.Factors) > 0 {
			s, err = MapCurve(ctx, ex.Curve, ex.Sensitivities, c.Source, c.Schedule, m)
		} else {
			s, err = MapToSeries(ctx, ex.Sensitivities, c.Source, c.Schedule, m)
		}
		if err != nil {
			return Result{}, fmt.Errorf("position %s curve %s: %w", pos.ID, ex.Curve.Name, err)
		}
		if _, dup := byCurve[ex.Curve.Name]; dup {
			return Result{}, fmt.Errorf("position %s curve %s listed twice: %w", pos.ID, ex.Curve.Name, ErrShapeMismatch)
		}
		byCurve[ex.Curve.Name] = Scale(s, pos.Quantity)
		groups = append(groups, s)
	}

	var total series.Series
	if len(groups) == 0 {
		total = zeroPnL(c.Schedule)
	} else {
		total = Aggregate(groups...)
	}

	return Result{
		PositionID: pos.ID,
		PnL:        Scale(total, pos.Quantity),
		ByCurve:    byCurve,
		Conversion: conv,
	}, nil
}
