package attrib

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/nodepnl/market"
)

// Kind tags the instrument family a position belongs to.
type Kind string

const (
	YieldCurve   Kind = "yield_curve"
	CreditSpread Kind = "credit_spread"
	Volatility   Kind = "volatility"
	FXForward    Kind = "fx_forward"
	FXOption     Kind = "fx_option"
	RateFuture   Kind = "rate_future"
)

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := Profiles[k]; !ok {
		return "", fmt.Errorf("%q: %w", s, ErrUnknownKind)
	}
	return k, nil
}

// Profile is the per-kind configuration of the mapping pipeline.
type Profile struct {
	Kind Kind
	Sign SignFunc
	Unit UnitFunc
	// SourceCurrency names the currency the position's sensitivities, and so
	// its raw P&L, are expressed in.
	SourceCurrency func(p Position, c market.Convention) (string, error)
}

// Keep leaves every factor's sign alone.
func Keep(string) int { return 1 }

// Flip inverts every factor. Rate futures carry sensitivities to the rate but
// their history is the price, quoted as 100 minus the rate.
func Flip(string) int { return -1 }

// FlipPrefix inverts only factors whose id starts with one of prefixes.
func FlipPrefix(prefixes ...string) SignFunc {
	return func(id string) int {
		for _, p := range prefixes {
			if strings.HasPrefix(id, p) {
				return -1
			}
		}
		return 1
	}
}

// BasisPoints scales decimal quotes to basis points.
func BasisPoints(string) float64 { return 10_000 }

func positionCurrency(p Position, _ market.Convention) (string, error) {
	if p.Currency == "" {
		return "", fmt.Errorf("position %s has no currency", p.ID)
	}
	return strings.ToUpper(p.Currency), nil
}

// counterCurrency is the currency an FX trade's value accrues in: the counter
// side of its pay/receive (or put/call) pair.
func counterCurrency(p Position, c market.Convention) (string, error) {
	if p.PayCurrency == "" || p.ReceiveCurrency == "" {
		return "", fmt.Errorf("position %s needs pay and receive currencies", p.ID)
	}
	if c == nil {
		c = market.MarketConvention{}
	}
	_, counter, err := market.Order(c, p.PayCurrency, p.ReceiveCurrency)
	if err != nil {
		return "", fmt.Errorf("position %s: %w", p.ID, err)
	}
	return counter, nil
}

// Profiles is the strategy table consulted by Calculator.
var Profiles = map[Kind]Profile{
	YieldCurve: {
		Kind:           YieldCurve,
		Sign:           Keep,
		SourceCurrency: positionCurrency,
	},
	CreditSpread: {
		Kind:           CreditSpread,
		Sign:           Keep,
		Unit:           BasisPoints,
		SourceCurrency: positionCurrency,
	},
	Volatility: {
		Kind:           Volatility,
		Sign:           Keep,
		SourceCurrency: positionCurrency,
	},
	FXForward: {
		Kind:           FXForward,
		Sign:           Keep,
		SourceCurrency: counterCurrency,
	},
	FXOption: {
		Kind:           FXOption,
		Sign:           Keep,
		SourceCurrency: counterCurrency,
	},
	RateFuture: {
		Kind:           RateFuture,
		Sign:           Flip,
		SourceCurrency: positionCurrency,
	},
}
