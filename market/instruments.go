// market/instruments.go
package market

import (
	"fmt"
	"strings"
)

// PairMeta records the market quotation order of a currency pair.
type PairMeta struct {
	Name            string
	BaseCurrency    string
	CounterCurrency string
}

// Pairs lists pairs whose quotation order is fixed explicitly. Pairs missing
// here fall back to currency ranking.
var Pairs = map[string]PairMeta{
	"EUR_USD": {Name: "EUR_USD", BaseCurrency: "EUR", CounterCurrency: "USD"},
	"GBP_USD": {Name: "GBP_USD", BaseCurrency: "GBP", CounterCurrency: "USD"},
	"USD_JPY": {Name: "USD_JPY", BaseCurrency: "USD", CounterCurrency: "JPY"},
	"USD_CHF": {Name: "USD_CHF", BaseCurrency: "USD", CounterCurrency: "CHF"},
	"EUR_GBP": {Name: "EUR_GBP", BaseCurrency: "EUR", CounterCurrency: "GBP"},
	"AUD_USD": {Name: "AUD_USD", BaseCurrency: "AUD", CounterCurrency: "USD"},
	"USD_CAD": {Name: "USD_CAD", BaseCurrency: "USD", CounterCurrency: "CAD"},
	"USD_KRW": {Name: "USD_KRW", BaseCurrency: "USD", CounterCurrency: "KRW"},
}

// ranking orders currencies by precedence as a pair base. Earlier wins.
var ranking = []string{
	"EUR", "GBP", "AUD", "NZD", "USD", "CAD", "CHF", "NOK", "SEK", "DKK",
	"CZK", "PLN", "HUF", "MXN", "ZAR", "HKD", "SGD", "TRY", "CNH", "KRW", "JPY",
}

func PairName(base, counter string) string {
	return base + "_" + counter
}

// Convention decides which currency of a pair is the quotation base.
type Convention interface {
	Base(a, b string) (string, error)
}

// ConventionFunc adapts a plain function to Convention.
type ConventionFunc func(a, b string) (string, error)

func (f ConventionFunc) Base(a, b string) (string, error) { return f(a, b) }

// MarketConvention resolves bases from Pairs first and currency ranking second.
type MarketConvention struct{}

func (MarketConvention) Base(a, b string) (string, error) {
	a, b = strings.ToUpper(a), strings.ToUpper(b)
	if meta, ok := Pairs[PairName(a, b)]; ok {
		return meta.BaseCurrency, nil
	}
	if meta, ok := Pairs[PairName(b, a)]; ok {
		return meta.BaseCurrency, nil
	}

	ra, rb := rank(a), rank(b)
	if ra < 0 && rb < 0 {
		return "", fmt.Errorf("no quotation convention for %s/%s", a, b)
	}
	switch {
	case rb < 0:
		return a, nil
	case ra < 0:
		return b, nil
	case ra <= rb:
		return a, nil
	default:
		return b, nil
	}
}

func rank(ccy string) int {
	for i, c := range ranking {
		if c == ccy {
			return i
		}
	}
	return -1
}

// Order returns the pair in base/counter order under c.
func Order(c Convention, a, b string) (base, counter string, err error) {
	a, b = strings.ToUpper(a), strings.ToUpper(b)
	base, err = c.Base(a, b)
	if err != nil {
		return "", "", err
	}
	switch base {
	case a:
		return a, b, nil
	case b:
		return b, a, nil
	}
	return "", "", fmt.Errorf("convention returned %s for pair %s/%s", base, a, b)
}
