package market

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rustyeddy/nodepnl/series"
)

var ErrUnresolvedCurrencyPair = errors.New("unresolved currency pair")

// UnresolvedCurrencyPairError reports a conversion with no usable FX history
// or no quotation convention. Err carries the convention failure, if any.
type UnresolvedCurrencyPairError struct {
	Source string
	Target string
	Pair   string
	Err    error
}

func (e *UnresolvedCurrencyPairError) Error() string {
	msg := fmt.Sprintf("unresolved currency pair %s (converting %s to %s)", e.Pair, e.Source, e.Target)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UnresolvedCurrencyPairError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUnresolvedCurrencyPair}
	}
	return []error{ErrUnresolvedCurrencyPair, e.Err}
}

// FXLookup finds the history of a pair named BASE_COUNTER. Observations are
// base-currency units per one counter-currency unit. A missing pair reports
// ok == false.
type FXLookup interface {
	FXSeries(ctx context.Context, pair string) (series.Raw, bool, error)
}

// FXLookupFunc adapts a plain function to FXLookup.
type FXLookupFunc func(ctx context.Context, pair string) (series.Raw, bool, error)

func (f FXLookupFunc) FXSeries(ctx context.Context, pair string) (series.Raw, bool, error) {
	return f(ctx, pair)
}

type Direction int

const (
	Identity Direction = iota
	Multiply
	Divide
)

func (d Direction) String() string {
	switch d {
	case Identity:
		return "identity"
	case Multiply:
		return "multiply"
	case Divide:
		return "divide"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Conversion turns amounts in Source into amounts in Target.
type Conversion struct {
	Source    string
	Target    string
	Pair      string
	FX        series.Raw
	Direction Direction
}

func (c Conversion) IsIdentity() bool { return c.Direction == Identity }

// Resolve works out how to express source amounts in target. Counter-currency
// targets divide by the FX history, base-currency targets multiply by it.
func Resolve(ctx context.Context, source, target string, fx FXLookup, convention Convention) (Conversion, error) {
	source, target = strings.ToUpper(source), strings.ToUpper(target)
	if source == target {
		return Conversion{Source: source, Target: target, Direction: Identity}, nil
	}
	if convention == nil {
		convention = MarketConvention{}
	}

	base, counter, err := Order(convention, source, target)
	if err != nil {
		return Conversion{}, &UnresolvedCurrencyPairError{Source: source, Target: target, Pair: PairName(source, target), Err: err}
	}
	pair := PairName(base, counter)

	dir := Multiply
	if target == counter {
		dir = Divide
	}

	if fx == nil {
		return Conversion{}, &UnresolvedCurrencyPairError{Source: source, Target: target, Pair: pair}
	}
	raw, ok, err := fx.FXSeries(ctx, pair)
	if err != nil {
		return Conversion{}, fmt.Errorf("fx series %s: %w", pair, err)
	}
	if !ok || raw.IsEmpty() {
		return Conversion{}, &UnresolvedCurrencyPairError{Source: source, Target: target, Pair: pair}
	}

	return Conversion{
		Source:    source,
		Target:    target,
		Pair:      pair,
		FX:        raw,
		Direction: dir,
	}, nil
}

// Apply converts s date by date. Only dates carrying both a value and an FX
// observation survive.
func (c Conversion) Apply(s series.Series) series.Series {
	if c.IsIdentity() {
		return s
	}

	fx := c.FX.Series()
	if c.Direction == Divide {
		return series.Divide(s, fx)
	}
	return series.Multiply(s, fx)
}

// Inverse converts back from Target to Source with the same FX history.
func (c Conversion) Inverse() Conversion {
	inv := c
	inv.Source, inv.Target = c.Target, c.Source
	switch c.Direction {
	case Multiply:
		inv.Direction = Divide
	case Divide:
		inv.Direction = Multiply
	}
	return inv
}
