package series

import (
	"fmt"
	"time"
)

// Add sums two series that must share exactly the same dates.
func Add(a, b Series) (Series, error) {
	if !a.SameDomain(b) {
		return Series{}, fmt.Errorf("adding %d dates to %d dates: %w", b.Len(), a.Len(), ErrShapeMismatch)
	}
	out := Series{dates: a.Dates(), values: make([]float64, a.Len())}
	for i := range a.values {
		out.values[i] = a.values[i] + b.values[i]
	}
	return out, nil
}

// Scale multiplies every value by k.
func Scale(s Series, k float64) Series {
	out := Series{dates: s.Dates(), values: make([]float64, s.Len())}
	for i, v := range s.values {
		out.values[i] = v * k
	}
	return out
}

// Combine joins a and b on the dates present in both. Dates where op reports
// false are dropped as well.
func Combine(a, b Series, op func(x, y float64) (float64, bool)) Series {
	var dates []time.Time
	var values []float64

	i, j := 0, 0
	for i < a.Len() && j < b.Len() {
		switch {
		case a.dates[i].Before(b.dates[j]):
			i++
		case b.dates[j].Before(a.dates[i]):
			j++
		default:
			if v, ok := op(a.values[i], b.values[j]); ok {
				dates = append(dates, a.dates[i])
				values = append(values, v)
			}
			i++
			j++
		}
	}
	return Series{dates: dates, values: values}
}

// Multiply is the date-intersection product of a and b.
func Multiply(a, b Series) Series {
	return Combine(a, b, func(x, y float64) (float64, bool) { return x * y, true })
}

// Divide is the date-intersection quotient a/b. Dates where b is zero are dropped.
func Divide(a, b Series) Series {
	return Combine(a, b, func(x, y float64) (float64, bool) {
		if y == 0 {
			return 0, false
		}
		return x / y, true
	})
}

// IntersectSum adds all series on the dates common to every one of them.
func IntersectSum(all ...Series) Series {
	if len(all) == 0 {
		return Series{}
	}
	out := Series{dates: all[0].Dates(), values: all[0].Values()}
	for _, s := range all[1:] {
		out = Combine(out, s, func(x, y float64) (float64, bool) { return x + y, true })
	}
	return out
}
