package series

import (
	"fmt"
	"strings"
	"time"
)

// GapPolicy decides what sampling does when a scheduled date has no
// observation of its own.
type GapPolicy int

const (
	// Strict drops the scheduled date.
	Strict GapPolicy = iota
	// CarryForward uses the latest earlier observation for dates inside the
	// observed range and drops dates outside it.
	CarryForward
)

func (p GapPolicy) String() string {
	switch p {
	case Strict:
		return "strict"
	case CarryForward:
		return "carry_forward"
	default:
		return fmt.Sprintf("GapPolicy(%d)", int(p))
	}
}

func ParseGapPolicy(s string) (GapPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict":
		return Strict, nil
	case "", "carry_forward", "carry-forward", "previous":
		return CarryForward, nil
	}
	return Strict, fmt.Errorf("unknown gap policy %q", s)
}

// Sample aligns raw onto schedule. It never produces a value before the first
// or after the last observation of raw.
func Sample(raw Raw, schedule []time.Time, policy GapPolicy) (Series, error) {
	if len(schedule) == 0 {
		return Series{}, nil
	}
	if raw.IsEmpty() {
		return Series{}, fmt.Errorf("factor %q: %w", raw.FactorID, ErrEmptySeries)
	}

	last := raw.points[len(raw.points)-1].Date
	dates := make([]time.Time, 0, len(schedule))
	values := make([]float64, 0, len(schedule))
	for _, t := range schedule {
		v, ok := raw.At(t)
		if !ok && policy == CarryForward && !Day(t).After(last) {
			v, ok = raw.AtOrBefore(t)
		}
		if !ok {
			continue
		}
		dates = append(dates, Day(t))
		values = append(values, v)
	}
	return New(dates, values)
}
