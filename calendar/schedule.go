package calendar

import (
	"fmt"
	"strings"
	"time"
)

// Schedule is a strictly increasing run of business dates at UTC midnight.
type Schedule []time.Time

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Generate lists every business day between start and end. The include flags
// decide whether the bounds themselves may appear.
func Generate(start, end time.Time, holidays Holidays, includeStart, includeEnd bool) (Schedule, error) {
	start, end = day(start), day(end)
	if start.After(end) {
		return nil, &RangeError{Start: start, End: end}
	}

	var out Schedule
	for t := start; !t.After(end); t = t.AddDate(0, 0, 1) {
		if t.Equal(start) && !includeStart {
			continue
		}
		if t.Equal(end) && !includeEnd {
			continue
		}
		if !IsBusinessDay(holidays, t) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s Schedule) First() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return s[0]
}

func (s Schedule) Last() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return s[len(s)-1]
}

// Frequency selects how densely a schedule samples the calendar.
type Frequency int

const (
	Daily Frequency = iota
	Weekly
	Monthly
)

func (f Frequency) String() string {
	switch f {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	default:
		return fmt.Sprintf("Frequency(%d)", int(f))
	}
}

func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "daily":
		return Daily, nil
	case "weekly":
		return Weekly, nil
	case "monthly":
		return Monthly, nil
	}
	return Daily, fmt.Errorf("unknown frequency %q", s)
}

// Thin keeps the last scheduled date of each period. Daily returns s as is.
func Thin(s Schedule, f Frequency) Schedule {
	if f == Daily || len(s) == 0 {
		return s
	}

	period := func(t time.Time) [2]int {
		if f == Weekly {
			y, w := t.ISOWeek()
			return [2]int{y, w}
		}
		return [2]int{t.Year(), int(t.Month())}
	}

	out := make(Schedule, 0, len(s))
	for i, t := range s {
		if i+1 < len(s) && period(s[i+1]) == period(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}
