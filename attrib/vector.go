package attrib

import (
	"errors"
	"fmt"

	"github.com/rustyeddy/nodepnl/series"
)

var (
	ErrMissingFactorData = errors.New("missing factor data")
	ErrUnknownKind       = errors.New("unknown instrument kind")

	// ErrShapeMismatch is the series package sentinel, repeated here so callers
	// of this package need not import series to test for it.
	ErrShapeMismatch = series.ErrShapeMismatch
)

// MissingFactorDataError names the factor whose history could not be found.
type MissingFactorDataError struct {
	FactorID string
}

func (e *MissingFactorDataError) Error() string {
	return fmt.Sprintf("missing factor data for %q", e.FactorID)
}

func (e *MissingFactorDataError) Unwrap() error { return ErrMissingFactorData }

// Sensitivity is a position's value change per unit move of one factor.
type Sensitivity struct {
	FactorID string  `json:"factor" yaml:"factor"`
	Value    float64 `json:"value" yaml:"value"`
}

// Vector is an ordered list of sensitivities with unique factor ids.
type Vector []Sensitivity

// Validate checks that factor ids are non-empty and unique.
func (v Vector) Validate() error {
	seen := make(map[string]struct{}, len(v))
	for i, s := range v {
		if s.FactorID == "" {
			return fmt.Errorf("sensitivity %d has no factor id: %w", i, ErrShapeMismatch)
		}
		if _, dup := seen[s.FactorID]; dup {
			return fmt.Errorf("factor %q repeated in vector: %w", s.FactorID, ErrShapeMismatch)
		}
		seen[s.FactorID] = struct{}{}
	}
	return nil
}

func (v Vector) FactorIDs() []string {
	ids := make([]string, len(v))
	for i, s := range v {
		ids[i] = s.FactorID
	}
	return ids
}

// Curve is a named set of factors resolved for a yield curve, spread curve or
// volatility surface at evaluation time.
type Curve struct {
	Name    string   `json:"name" yaml:"name"`
	Factors []string `json:"factors" yaml:"factors"`
}

// Check enforces that v lines up one-to-one, in order, with the curve factors.
func (c Curve) Check(v Vector) error {
	if len(v) != len(c.Factors) {
		return fmt.Errorf("curve %s has %d factors, vector has %d: %w",
			c.Name, len(c.Factors), len(v), ErrShapeMismatch)
	}
	for i, s := range v {
		if s.FactorID != c.Factors[i] {
			return fmt.Errorf("curve %s factor %d is %q, vector has %q: %w",
				c.Name, i, c.Factors[i], s.FactorID, ErrShapeMismatch)
		}
	}
	return nil
}
