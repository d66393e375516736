package calendar

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

const dateLayout = "2006-01-02"

var ErrInvalidRange = errors.New("invalid schedule range")

// RangeError reports schedule bounds where start falls after end.
type RangeError struct {
	Start time.Time
	End   time.Time
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid schedule range: start %s after end %s",
		e.Start.Format(dateLayout), e.End.Format(dateLayout))
}

func (e *RangeError) Unwrap() error { return ErrInvalidRange }

// Holidays is a set of non-business dates keyed by calendar day.
type Holidays map[string]struct{}

func NewHolidays(dates ...time.Time) Holidays {
	h := make(Holidays, len(dates))
	for _, d := range dates {
		h[d.Format(dateLayout)] = struct{}{}
	}
	return h
}

// ParseHolidays builds a holiday set from YYYY-MM-DD strings.
func ParseHolidays(days []string) (Holidays, error) {
	h := make(Holidays, len(days))
	for _, s := range days {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return nil, fmt.Errorf("holiday %q: %w", s, err)
		}
		h[t.Format(dateLayout)] = struct{}{}
	}
	return h, nil
}

func (h Holidays) Contains(t time.Time) bool {
	_, ok := h[t.Format(dateLayout)]
	return ok
}

// Union returns a new set holding the dates of h and every other set.
func (h Holidays) Union(others ...Holidays) Holidays {
	out := make(Holidays, len(h))
	for k := range h {
		out[k] = struct{}{}
	}
	for _, o := range others {
		for k := range o {
			out[k] = struct{}{}
		}
	}
	return out
}

// Dates returns the holidays in ascending order.
func (h Holidays) Dates() []time.Time {
	out := make([]time.Time, 0, len(h))
	for k := range h {
		t, err := time.Parse(dateLayout, k)
		if err != nil {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// IsBusinessDay checks weekends and the holiday set.
func IsBusinessDay(h Holidays, t time.Time) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !h.Contains(t)
}
