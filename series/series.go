// Package series holds the date-indexed value types the attribution pipeline
// works on, along with sampling, differencing and date-aligned arithmetic.
package series

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	ErrEmptySeries      = errors.New("series has no observations")
	ErrInsufficientData = errors.New("insufficient data to difference")
	ErrShapeMismatch    = errors.New("series shape mismatch")
)

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type Point struct {
	Date  time.Time
	Value float64
}

// Raw is the sparse history of one factor. Points are ascending and unique by day.
type Raw struct {
	FactorID string
	points   []Point
}

// NewRaw normalizes points to days and sorts them. When a day repeats the
// first observation wins.
func NewRaw(factorID string, points []Point) Raw {
	ps := make([]Point, len(points))
	for i, p := range points {
		ps[i] = Point{Date: Day(p.Date), Value: p.Value}
	}
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].Date.Before(ps[j].Date) })

	out := ps[:0]
	for _, p := range ps {
		if len(out) > 0 && out[len(out)-1].Date.Equal(p.Date) {
			continue
		}
		out = append(out, p)
	}
	return Raw{FactorID: factorID, points: out}
}

// RawFromMap builds a Raw from a date-keyed map.
func RawFromMap(factorID string, m map[time.Time]float64) Raw {
	ps := make([]Point, 0, len(m))
	for k, v := range m {
		ps = append(ps, Point{Date: k, Value: v})
	}
	return NewRaw(factorID, ps)
}

func (r Raw) Len() int        { return len(r.points) }
func (r Raw) IsEmpty() bool   { return len(r.points) == 0 }
func (r Raw) Points() []Point { return append([]Point(nil), r.points...) }

// At returns the observation on exactly t.
func (r Raw) At(t time.Time) (float64, bool) {
	t = Day(t)
	i := sort.Search(len(r.points), func(i int) bool { return !r.points[i].Date.Before(t) })
	if i < len(r.points) && r.points[i].Date.Equal(t) {
		return r.points[i].Value, true
	}
	return 0, false
}

// AtOrBefore returns the latest observation on or before t.
func (r Raw) AtOrBefore(t time.Time) (float64, bool) {
	t = Day(t)
	i := sort.Search(len(r.points), func(i int) bool { return r.points[i].Date.After(t) })
	if i == 0 {
		return 0, false
	}
	return r.points[i-1].Value, true
}

// Series returns the observations as a dense Series on their own dates.
func (r Raw) Series() Series {
	s := Series{dates: make([]time.Time, len(r.points)), values: make([]float64, len(r.points))}
	for i, p := range r.points {
		s.dates[i] = p.Date
		s.values[i] = p.Value
	}
	return s
}

// Series is a dense run of values on strictly ascending dates. Sampled levels
// and P&L deltas both use it.
type Series struct {
	dates  []time.Time
	values []float64
}

// New copies dates and values into a Series. Dates must be strictly ascending
// and the slices the same length.
func New(dates []time.Time, values []float64) (Series, error) {
	if len(dates) != len(values) {
		return Series{}, fmt.Errorf("%d dates for %d values: %w", len(dates), len(values), ErrShapeMismatch)
	}
	ds := make([]time.Time, len(dates))
	for i, t := range dates {
		ds[i] = Day(t)
		if i > 0 && !ds[i-1].Before(ds[i]) {
			return Series{}, fmt.Errorf("dates not strictly ascending at %s: %w",
				ds[i].Format("2006-01-02"), ErrShapeMismatch)
		}
	}
	return Series{dates: ds, values: append([]float64(nil), values...)}, nil
}

// MustNew is New for literals known to be well formed.
func MustNew(dates []time.Time, values []float64) Series {
	s, err := New(dates, values)
	if err != nil {
		panic(err)
	}
	return s
}

// Zeros returns a series of zeros over dates.
func Zeros(dates []time.Time) Series {
	return MustNew(dates, make([]float64, len(dates)))
}

func (s Series) Len() int                { return len(s.dates) }
func (s Series) Dates() []time.Time      { return append([]time.Time(nil), s.dates...) }
func (s Series) Values() []float64       { return append([]float64(nil), s.values...) }
func (s Series) Date(i int) time.Time    { return s.dates[i] }
func (s Series) Value(i int) float64     { return s.values[i] }
func (s Series) Point(i int) Point       { return Point{Date: s.dates[i], Value: s.values[i]} }
func (s Series) Raw(factorID string) Raw { return Raw{FactorID: factorID, points: s.Points()} }

// Points returns the observations as date/value pairs.
func (s Series) Points() []Point {
	ps := make([]Point, len(s.dates))
	for i := range s.dates {
		ps[i] = Point{Date: s.dates[i], Value: s.values[i]}
	}
	return ps
}

// Sum returns the total of all values.
func (s Series) Sum() float64 {
	var total float64
	for _, v := range s.values {
		total += v
	}
	return total
}

// SameDomain reports whether both series carry exactly the same dates.
func (s Series) SameDomain(o Series) bool {
	if len(s.dates) != len(o.dates) {
		return false
	}
	for i := range s.dates {
		if !s.dates[i].Equal(o.dates[i]) {
			return false
		}
	}
	return true
}
