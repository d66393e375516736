package series

import (
	"fmt"
	"strings"
	"time"
)

// ReturnMode picks the period-over-period operator.
type ReturnMode int

const (
	Absolute ReturnMode = iota
	Relative
)

func (m ReturnMode) String() string {
	if m == Relative {
		return "relative"
	}
	return "absolute"
}

func ParseReturnMode(s string) (ReturnMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "absolute":
		return Absolute, nil
	case "relative":
		return Relative, nil
	}
	return Absolute, fmt.Errorf("unknown return mode %q", s)
}

// Returns applies the operator selected by m.
func (m ReturnMode) Returns(s Series) (Series, error) {
	if m == Relative {
		return RelativeDifference(s)
	}
	return Difference(s)
}

// Difference returns s[i+1]-s[i] dated on s[i+1].
func Difference(s Series) (Series, error) {
	n := s.Len()
	if n < 2 {
		return Series{}, fmt.Errorf("%d sampled points: %w", n, ErrInsufficientData)
	}
	out := Series{
		dates:  make([]time.Time, n-1),
		values: make([]float64, n-1),
	}
	for i := 0; i < n-1; i++ {
		out.dates[i] = s.dates[i+1]
		out.values[i] = s.values[i+1] - s.values[i]
	}
	return out, nil
}

// RelativeDifference returns (s[i+1]-s[i])/s[i] dated on s[i+1].
func RelativeDifference(s Series) (Series, error) {
	n := s.Len()
	if n < 2 {
		return Series{}, fmt.Errorf("%d sampled points: %w", n, ErrInsufficientData)
	}
	out := Series{
		dates:  make([]time.Time, n-1),
		values: make([]float64, n-1),
	}
	for i := 0; i < n-1; i++ {
		if s.values[i] == 0 {
			return Series{}, fmt.Errorf("zero level on %s: %w",
				s.dates[i].Format("2006-01-02"), ErrInsufficientData)
		}
		out.dates[i] = s.dates[i+1]
		out.values[i] = (s.values[i+1] - s.values[i]) / s.values[i]
	}
	return out, nil
}
