package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderObserve(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	r.Observe("yield_curve", 10*time.Millisecond, 4, nil)
	r.Observe("yield_curve", 5*time.Millisecond, 0, errors.New("missing"))
	r.Observe("fx_forward", time.Millisecond, 4, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.positions.WithLabelValues("ok", "yield_curve")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.positions.WithLabelValues("error", "yield_curve")))
	assert.Equal(t, 8.0, testutil.ToFloat64(r.points))

	families, err := r.Registry().Gather()
	require.NoError(t, err)
	assert.Len(t, families, 3)
}

func TestRecorderNilSafe(t *testing.T) {
	t.Parallel()

	var r *Recorder
	assert.NotPanics(t, func() { r.Observe("k", time.Second, 1, nil) })
}
