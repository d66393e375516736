// Package attrib maps sensitivity vectors onto historical market moves and
// rolls the per-factor results up into position-level P&L series.
package attrib

import (
	"context"
	"fmt"

	"github.com/rustyeddy/nodepnl/calendar"
	"github.com/rustyeddy/nodepnl/market"
	"github.com/rustyeddy/nodepnl/series"
)

// FactorSource resolves the raw history of a factor. A factor it does not
// know reports ok == false. Implementations must be safe for concurrent use.
type FactorSource interface {
	Lookup(ctx context.Context, factorID string) (series.Raw, bool, error)
}

// FactorSourceFunc adapts a plain function to FactorSource.
type FactorSourceFunc func(ctx context.Context, factorID string) (series.Raw, bool, error)

func (f FactorSourceFunc) Lookup(ctx context.Context, factorID string) (series.Raw, bool, error) {
	return f(ctx, factorID)
}

// SignFunc returns -1 for factors whose quote moves opposite to the quantity
// the sensitivity is measured against, and +1 otherwise.
type SignFunc func(factorID string) int

// UnitFunc returns the multiplier that brings a factor's quoted move into the
// unit its sensitivity is expressed per.
type UnitFunc func(factorID string) float64

// Mapping carries the per-invocation settings of MapToSeries.
type Mapping struct {
	Policy  series.GapPolicy
	Returns series.ReturnMode
	Sign    SignFunc
	Unit    UnitFunc
	FX      *market.Conversion
}

func (m Mapping) sign(id string) float64 {
	if m.Sign != nil && m.Sign(id) < 0 {
		return -1
	}
	return 1
}

func (m Mapping) unit(id string) float64 {
	if m.Unit == nil {
		return 1
	}
	return m.Unit(id)
}

// MapToSeries turns a sensitivity vector into a single P&L series over the
// difference domain of schedule. Terms are added in vector order and must all
// land on the same dates.
func MapToSeries(ctx context.Context, v Vector, src FactorSource, schedule calendar.Schedule, m Mapping) (series.Series, error) {
	if err := v.Validate(); err != nil {
		return series.Series{}, err
	}
	if len(v) == 0 {
		return zeroPnL(schedule), nil
	}

	var total series.Series
	for i, s := range v {
		term, err := factorPnL(ctx, s, src, schedule, m)
		if err != nil {
			return series.Series{}, err
		}
		if i == 0 {
			total = term
			continue
		}
		if total, err = series.Add(total, term); err != nil {
			return series.Series{}, fmt.Errorf("factor %q: %w", s.FactorID, err)
		}
	}
	return total, nil
}

// MapCurve checks that v matches the curve's resolved factors before mapping.
func MapCurve(ctx context.Context, c Curve, v Vector, src FactorSource, schedule calendar.Schedule, m Mapping) (series.Series, error) {
	if err := c.Check(v); err != nil {
		return series.Series{}, err
	}
	return MapToSeries(ctx, v, src, schedule, m)
}

// FactorBreakdown returns each factor's own contribution, keyed by factor id.
func FactorBreakdown(ctx context.Context, v Vector, src FactorSource, schedule calendar.Schedule, m Mapping) (map[string]series.Series, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	out := make(map[string]series.Series, len(v))
	for _, s := range v {
		term, err := factorPnL(ctx, s, src, schedule, m)
		if err != nil {
			return nil, err
		}
		out[s.FactorID] = term
	}
	return out, nil
}

func factorPnL(ctx context.Context, s Sensitivity, src FactorSource, schedule calendar.Schedule, m Mapping) (series.Series, error) {
	raw, ok, err := src.Lookup(ctx, s.FactorID)
	if err != nil {
		return series.Series{}, err
	}
	if !ok || raw.IsEmpty() {
		return series.Series{}, &MissingFactorDataError{FactorID: s.FactorID}
	}

	sampled, err := series.Sample(raw, schedule, m.Policy)
	if err != nil {
		return series.Series{}, err
	}
	moves, err := m.Returns.Returns(sampled)
	if err != nil {
		return series.Series{}, fmt.Errorf("factor %q: %w", s.FactorID, err)
	}

	moves = series.Scale(moves, m.sign(s.FactorID)*m.unit(s.FactorID))
	if m.FX != nil {
		moves = m.FX.Apply(moves)
	}
	return series.Scale(moves, s.Value), nil
}

func zeroPnL(schedule calendar.Schedule) series.Series {
	if len(schedule) < 2 {
		return series.Series{}
	}
	return series.Zeros(schedule[1:])
}
