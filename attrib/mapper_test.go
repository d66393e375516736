package attrib

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rustyeddy/nodepnl/calendar"
	"github.com/rustyeddy/nodepnl/market"
	"github.com/rustyeddy/nodepnl/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFactorSource struct {
	mu     sync.Mutex
	raw    map[string]series.Raw
	err    error
	called int
}

func (f *fakeFactorSource) Lookup(ctx context.Context, id string) (series.Raw, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.called++
	if f.err != nil {
		return series.Raw{}, false, f.err
	}
	r, ok := f.raw[id]
	return r, ok, nil
}

func weekdays(t *testing.T) calendar.Schedule {
	t.Helper()
	// Monday 2024-01-01 through Friday 2024-01-05
	s, err := calendar.Generate(day(1), day(5), nil, true, true)
	require.NoError(t, err)
	return s
}

func day(n int) time.Time {
	return time.Date(2024, 1, n, 0, 0, 0, 0, time.UTC)
}

func rawOn(id string, sched calendar.Schedule, values ...float64) series.Raw {
	pts := make([]series.Point, len(values))
	for i, v := range values {
		pts[i] = series.Point{Date: sched[i], Value: v}
	}
	return series.NewRaw(id, pts)
}

func TestMapToSeries_EndToEnd(t *testing.T) {
	t.Parallel()

	sched := weekdays(t)
	src := &fakeFactorSource{raw: map[string]series.Raw{
		"USD-SOFR-2Y": rawOn("USD-SOFR-2Y", sched, 100, 101, 99, 102, 100),
	}}

	sampled, err := series.Sample(src.raw["USD-SOFR-2Y"], sched, series.Strict)
	require.NoError(t, err)
	diff, err := series.Difference(sampled)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, -2, 3, -2}, diff.Values())

	v := Vector{{FactorID: "USD-SOFR-2Y", Value: 2.0}}
	mapped, err := MapToSeries(context.Background(), v, src, sched, Mapping{Sign: Keep})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, -4, 6, -4}, mapped.Values())
	assert.Equal(t, []time.Time(sched[1:]), mapped.Dates())

	pnl := Scale(mapped, 10)
	assert.Equal(t, []float64{20, -40, 60, -40}, pnl.Values())
}

func TestMapToSeries_MissingFactor(t *testing.T) {
	t.Parallel()

	sched := weekdays(t)
	tests := []struct {
		name string
		raw  map[string]series.Raw
	}{
		{"empty series", map[string]series.Raw{"EUR-6M": series.NewRaw("EUR-6M", nil)}},
		{"absent series", map[string]series.Raw{}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			src := &fakeFactorSource{raw: tt.raw}
			v := Vector{{FactorID: "EUR-6M", Value: 2.0}}

			out, err := MapToSeries(context.Background(), v, src, sched, Mapping{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMissingFactorData))
			assert.Equal(t, 0, out.Len())

			var me *MissingFactorDataError
			require.True(t, errors.As(err, &me))
			assert.Equal(t, "EUR-6M", me.FactorID)
		})
	}
}

func TestMapToSeries_EmptyVectorIsZero(t *testing.T) {
	t.Parallel()

	sched := weekdays(t)
	src := &fakeFactorSource{err: errors.New("must not be called")}

	out, err := MapToSeries(context.Background(), nil, src, sched, Mapping{})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 0}, out.Values())
	assert.Equal(t, []time.Time(sched[1:]), out.Dates())
	assert.Equal(t, 0, src.called)
}

func TestMapToSeries_SumsFactorsInOrder(t *testing.T) {
	t.Parallel()

	sched := weekdays(t)
	src := &fakeFactorSource{raw: map[string]series.Raw{
		"A": rawOn("A", sched, 1, 2, 3, 4, 5),
		"B": rawOn("B", sched, 10, 8, 6, 4, 2),
	}}
	v := Vector{{FactorID: "A", Value: 3}, {FactorID: "B", Value: 1}}

	out, err := MapToSeries(context.Background(), v, src, sched, Mapping{})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 1, 1}, out.Values())
	assert.Equal(t, 2, src.called)

	parts, err := FactorBreakdown(context.Background(), v, src, sched, Mapping{})
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 3, 3, 3}, parts["A"].Values())
	assert.Equal(t, []float64{-2, -2, -2, -2}, parts["B"].Values())
}

func TestMapToSeries_DomainMismatchFailsLoudly(t *testing.T) {
	t.Parallel()

	sched := weekdays(t)
	late := series.NewRaw("B", []series.Point{
		{Date: sched[2], Value: 1}, {Date: sched[3], Value: 2}, {Date: sched[4], Value: 3},
	})
	src := &fakeFactorSource{raw: map[string]series.Raw{
		"A": rawOn("A", sched, 1, 2, 3, 4, 5),
		"B": late,
	}}
	v := Vector{{FactorID: "A", Value: 1}, {FactorID: "B", Value: 1}}

	_, err := MapToSeries(context.Background(), v, src, sched, Mapping{Policy: series.CarryForward})
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestMapToSeries_DuplicateFactor(t *testing.T) {
	t.Parallel()

	v := Vector{{FactorID: "A", Value: 1}, {FactorID: "A", Value: 2}}
	_, err := MapToSeries(context.Background(), v, &fakeFactorSource{}, weekdays(t), Mapping{})
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestMapToSeries_SignAndUnit(t *testing.T) {
	t.Parallel()

	sched := weekdays(t)
	src := &fakeFactorSource{raw: map[string]series.Raw{
		"PX:ED-Z4": rawOn("PX:ED-Z4", sched, 95.00, 95.10, 95.05, 95.05, 95.20),
		"SPREAD":   rawOn("SPREAD", sched, 0.0100, 0.0101, 0.0100, 0.0102, 0.0102),
	}}

	fut, err := MapToSeries(context.Background(), Vector{{FactorID: "PX:ED-Z4", Value: 1}}, src, sched,
		Mapping{Sign: FlipPrefix("PX:")})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{-0.10, 0.05, 0, -0.15}, fut.Values(), 1e-9)

	cs, err := MapToSeries(context.Background(), Vector{{FactorID: "SPREAD", Value: 2}}, src, sched,
		Mapping{Unit: BasisPoints})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2, -2, 4, 0}, cs.Values(), 1e-9)
}

func TestMapToSeries_CurrencyConversion(t *testing.T) {
	t.Parallel()

	sched := weekdays(t)
	src := &fakeFactorSource{raw: map[string]series.Raw{
		"EUR-ESTR-5Y": rawOn("EUR-ESTR-5Y", sched, 1, 2, 3, 4, 5),
	}}
	// EUR per USD history, missing Thursday
	fx := market.FXLookupFunc(func(ctx context.Context, pair string) (series.Raw, bool, error) {
		return series.NewRaw(pair, []series.Point{
			{Date: sched[1], Value: 0.5}, {Date: sched[2], Value: 0.5}, {Date: sched[4], Value: 0.25},
		}), true, nil
	})
	conv, err := market.Resolve(context.Background(), "EUR", "USD", fx, nil)
	require.NoError(t, err)
	require.Equal(t, market.Divide, conv.Direction)

	v := Vector{{FactorID: "EUR-ESTR-5Y", Value: 3}}
	out, err := MapToSeries(context.Background(), v, src, sched, Mapping{FX: &conv})
	require.NoError(t, err)
	assert.Equal(t, []time.Time{sched[1], sched[2], sched[4]}, out.Dates())
	assert.InDeltaSlice(t, []float64{6, 6, 12}, out.Values(), 1e-12)

	identity, err := market.Resolve(context.Background(), "USD", "USD", fx, nil)
	require.NoError(t, err)
	plain, err := MapToSeries(context.Background(), v, src, sched, Mapping{})
	require.NoError(t, err)
	same, err := MapToSeries(context.Background(), v, src, sched, Mapping{FX: &identity})
	require.NoError(t, err)
	assert.Equal(t, plain.Values(), same.Values())
}

func TestMapToSeries_LookupErrorPropagates(t *testing.T) {
	t.Parallel()

	boom := errors.New("market data offline")
	src := &fakeFactorSource{err: boom}
	_, err := MapToSeries(context.Background(), Vector{{FactorID: "A", Value: 1}}, src, weekdays(t), Mapping{})
	assert.True(t, errors.Is(err, boom))
	assert.False(t, errors.Is(err, ErrMissingFactorData))
}

func TestMapToSeries_InsufficientData(t *testing.T) {
	t.Parallel()

	sched := weekdays(t)
	src := &fakeFactorSource{raw: map[string]series.Raw{
		"A": series.NewRaw("A", []series.Point{{Date: sched[4], Value: 1}}),
	}}
	_, err := MapToSeries(context.Background(), Vector{{FactorID: "A", Value: 1}}, src, sched, Mapping{})
	assert.True(t, errors.Is(err, series.ErrInsufficientData))
}

func TestMapToSeries_StaleHistoryIsNotExtended(t *testing.T) {
	t.Parallel()

	sched := weekdays(t)
	src := &fakeFactorSource{raw: map[string]series.Raw{
		"A": rawOn("A", sched, 1, 2),
	}}

	s, err := MapToSeries(context.Background(), Vector{{FactorID: "A", Value: 2}}, src, sched, Mapping{Policy: series.CarryForward})
	require.NoError(t, err)
	assert.Equal(t, []time.Time{sched[1]}, s.Dates())
	assert.Equal(t, []float64{2}, s.Values())

	src.raw["B"] = rawOn("B", sched, 5)
	_, err = MapToSeries(context.Background(), Vector{{FactorID: "B", Value: 1}}, src, sched, Mapping{Policy: series.CarryForward})
	assert.True(t, errors.Is(err, series.ErrInsufficientData))
}

func TestMapCurve_ShapeMatch(t *testing.T) {
	t.Parallel()

	sched := weekdays(t)
	src := &fakeFactorSource{raw: map[string]series.Raw{
		"1Y": rawOn("1Y", sched, 1, 2, 3, 4, 5),
		"2Y": rawOn("2Y", sched, 1, 2, 3, 4, 5),
	}}
	curve := Curve{Name: "USD-SOFR", Factors: []string{"1Y", "2Y"}}

	_, err := MapCurve(context.Background(), curve, Vector{{FactorID: "1Y", Value: 1}}, src, sched, Mapping{})
	assert.True(t, errors.Is(err, ErrShapeMismatch))

	_, err = MapCurve(context.Background(), curve,
		Vector{{FactorID: "2Y", Value: 1}, {FactorID: "1Y", Value: 1}}, src, sched, Mapping{})
	assert.True(t, errors.Is(err, ErrShapeMismatch))
	assert.Equal(t, 0, src.called)

	out, err := MapCurve(context.Background(), curve,
		Vector{{FactorID: "1Y", Value: 1}, {FactorID: "2Y", Value: 1}}, src, sched, Mapping{})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 2, 2, 2}, out.Values())
}

func TestAggregate(t *testing.T) {
	t.Parallel()

	sched := weekdays(t)
	a := series.MustNew(sched[1:], []float64{1, 2, 3, 4})
	b := series.MustNew(sched[2:], []float64{10, 10, 10})

	sum := Aggregate(a, b)
	assert.Equal(t, []time.Time(sched[2:]), sum.Dates())
	assert.Equal(t, []float64{12, 13, 14}, sum.Values())
	assert.Equal(t, 0, Aggregate().Len())
}
