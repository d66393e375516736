package attrib

import "github.com/rustyeddy/nodepnl/series"

// Aggregate sums P&L series on the dates common to all of them. Groups built
// on different schedules should be reconciled by the caller first.
func Aggregate(groups ...series.Series) series.Series {
	return series.IntersectSum(groups...)
}

// Scale multiplies a P&L series by a signed position quantity.
func Scale(s series.Series, quantity float64) series.Series {
	return series.Scale(s, quantity)
}
