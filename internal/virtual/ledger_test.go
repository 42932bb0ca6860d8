package virtual

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerFixed(t *testing.T) {
	t.Parallel()

	l := NewLedger(LedgerConfig{Count: 1000, FixedExtent: 50})
	require.True(t, l.Fixed())

	ext, err := l.Extent(999)
	require.NoError(t, err)
	assert.Equal(t, 50.0, ext)

	off, err := l.Offset(20)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, off)

	assert.Equal(t, 50000.0, l.TotalExtent())
	assert.Equal(t, 20, l.IndexAt(1000))
	assert.Equal(t, 20, l.IndexAt(1049.9))
	assert.Equal(t, 0, l.IndexAt(-30))
	assert.Equal(t, 999, l.IndexAt(1e9))

	changed, err := l.SetMeasuredExtent(3, 10)
	require.NoError(t, err)
	assert.False(t, changed, "fixed ledgers ignore measurements")
}

func TestLedgerVariable(t *testing.T) {
	t.Parallel()

	t.Run("estimates until measured", func(t *testing.T) {
		t.Parallel()
		l := NewLedger(LedgerConfig{Count: 10, EstimatedExtent: 100})

		before6, err := l.Offset(6)
		require.NoError(t, err)
		before3, err := l.Offset(3)
		require.NoError(t, err)

		changed, err := l.SetMeasuredExtent(5, 40)
		require.NoError(t, err)
		require.True(t, changed)

		after6, err := l.Offset(6)
		require.NoError(t, err)
		after3, err := l.Offset(3)
		require.NoError(t, err)

		assert.Equal(t, before6-60, after6)
		assert.Equal(t, before3, after3)
		assert.Equal(t, 940.0, l.TotalExtent())

		entry, err := l.Entry(5)
		require.NoError(t, err)
		assert.True(t, entry.Measured)
		entry, err = l.Entry(4)
		require.NoError(t, err)
		assert.False(t, entry.Measured)
		assert.Equal(t, 100.0, entry.Extent)
	})

	t.Run("monotonic offsets", func(t *testing.T) {
		t.Parallel()
		l := NewLedger(LedgerConfig{Count: 200, EstimatedExtent: 7})
		for i := 0; i < 200; i += 3 {
			_, err := l.SetMeasuredExtent(i, float64(i%11))
			require.NoError(t, err)
		}
		for i := range 200 {
			cur, err := l.Offset(i)
			require.NoError(t, err)
			next, err := l.Offset(i + 1)
			require.NoError(t, err)
			ext, err := l.Extent(i)
			require.NoError(t, err)
			assert.LessOrEqual(t, cur, next)
			assert.InDelta(t, ext, next-cur, 1e-9)
		}
		total, err := l.Offset(200)
		require.NoError(t, err)
		assert.InDelta(t, l.TotalExtent(), total, 1e-9)
	})

	t.Run("invalidation is local", func(t *testing.T) {
		t.Parallel()
		l := NewLedger(LedgerConfig{Count: 100, EstimatedExtent: 10})
		_, err := l.Offset(100)
		require.NoError(t, err)
		require.Len(t, l.prefix, 101)

		var kept []float64
		for i := 0; i <= 42; i++ {
			off, err := l.Offset(i)
			require.NoError(t, err)
			kept = append(kept, off)
		}

		_, err = l.SetMeasuredExtent(42, 3)
		require.NoError(t, err)
		assert.Len(t, l.prefix, 43, "cache keeps offsets up to the changed index")

		for i := 0; i <= 42; i++ {
			off, err := l.Offset(i)
			require.NoError(t, err)
			assert.Equal(t, kept[i], off)
		}
		off, err := l.Offset(43)
		require.NoError(t, err)
		assert.Equal(t, 423.0, off)
	})

	t.Run("out of order measurements", func(t *testing.T) {
		t.Parallel()
		a := NewLedger(LedgerConfig{Count: 20, EstimatedExtent: 5})
		b := NewLedger(LedgerConfig{Count: 20, EstimatedExtent: 5})
		order := []int{9, 2, 17, 0, 5}
		for _, i := range order {
			_, err := a.SetMeasuredExtent(i, float64(i+1))
			require.NoError(t, err)
			_, _ = a.Offset(20)
		}
		for i := len(order) - 1; i >= 0; i-- {
			_, err := b.SetMeasuredExtent(order[i], float64(order[i]+1))
			require.NoError(t, err)
		}
		for i := 0; i <= 20; i++ {
			x, _ := a.Offset(i)
			y, _ := b.Offset(i)
			assert.Equal(t, x, y, "offset %d", i)
		}
	})

	t.Run("index at extends estimates", func(t *testing.T) {
		t.Parallel()
		l := NewLedger(LedgerConfig{Count: 1_000_000, EstimatedExtent: 20})
		assert.Equal(t, 500_000, l.IndexAt(10_000_000))
		assert.Equal(t, 0, l.IndexAt(0))
		assert.Equal(t, 0, l.IndexAt(19.9))
		assert.Equal(t, 1, l.IndexAt(20))
	})

	t.Run("zero extent items", func(t *testing.T) {
		t.Parallel()
		l := NewLedger(LedgerConfig{Count: 4, EstimatedExtent: 10})
		_, _ = l.SetMeasuredExtent(0, 0)
		_, _ = l.SetMeasuredExtent(1, 0)
		assert.Equal(t, 2, l.IndexAt(5))
		assert.Equal(t, 3, l.IndexAt(10))
		off, err := l.Offset(2)
		require.NoError(t, err)
		assert.Equal(t, 0.0, off)
	})

	t.Run("estimate func", func(t *testing.T) {
		t.Parallel()
		l := NewLedger(LedgerConfig{Count: 4, Estimate: func(i int) float64 { return float64(i + 1) }})
		assert.Equal(t, 10.0, l.TotalExtent())
		off, err := l.Offset(3)
		require.NoError(t, err)
		assert.Equal(t, 6.0, off)
	})

	t.Run("gap", func(t *testing.T) {
		t.Parallel()
		l := NewLedger(LedgerConfig{Count: 3, EstimatedExtent: 2, Gap: 1})
		assert.Equal(t, 8.0, l.TotalExtent())
		off, err := l.Offset(2)
		require.NoError(t, err)
		assert.Equal(t, 6.0, off)
		assert.Equal(t, 1, l.IndexAt(3))
	})
}

func TestLedgerSetCount(t *testing.T) {
	t.Parallel()

	l := NewLedger(LedgerConfig{Count: 3, EstimatedExtent: 10, Gap: 2})
	_, _ = l.SetMeasuredExtent(1, 4)
	require.Equal(t, 28.0, l.TotalExtent())
	_, _ = l.Offset(3)

	l.SetCount(5)
	assert.Equal(t, 5, l.Len())
	assert.Equal(t, 52.0, l.TotalExtent())
	off, err := l.Offset(3)
	require.NoError(t, err)
	assert.Equal(t, 30.0, off, "previous last item gains a gap")
	assert.True(t, l.IsMeasured(1))

	l.SetCount(1)
	assert.Equal(t, 10.0, l.TotalExtent())
	assert.False(t, l.IsMeasured(1))

	l.Reset(2)
	assert.Equal(t, 22.0, l.TotalExtent())
}

func TestLedgerInvalidArguments(t *testing.T) {
	t.Parallel()

	l := NewLedger(LedgerConfig{Count: 5, EstimatedExtent: 1})
	for _, idx := range []int{-1, 5} {
		_, err := l.Extent(idx)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidArgument))

		changed, err := l.SetMeasuredExtent(idx, 3)
		require.Error(t, err)
		assert.False(t, changed)
	}
	_, err := l.Offset(5)
	require.NoError(t, err, "offset(N) is the total extent")
	_, err = l.Offset(6)
	require.True(t, IsInvalidArgument(err))
	assert.Equal(t, 5.0, l.TotalExtent())
}

func TestLedgerMeasurementAnomaly(t *testing.T) {
	t.Parallel()

	var diags []Diagnostic
	l := NewLedger(LedgerConfig{Count: 3, EstimatedExtent: 10})
	l.onAnomaly = func(d Diagnostic) { diags = append(diags, d) }

	_, err := l.SetMeasuredExtent(1, -25)
	require.NoError(t, err)
	_, err = l.SetMeasuredExtent(2, math.Inf(1))
	require.NoError(t, err)

	ext, _ := l.Extent(1)
	assert.Equal(t, 0.0, ext)
	ext, _ = l.Extent(2)
	assert.Equal(t, 0.0, ext)
	assert.Equal(t, 10.0, l.TotalExtent())

	require.Len(t, diags, 2)
	assert.Equal(t, DiagnosticNegativeExtent, diags[0].Kind)
	assert.Equal(t, -25.0, diags[0].Reported)
	assert.Equal(t, DiagnosticNonFiniteExtent, diags[1].Kind)
}

func TestLedgerSetEstimatedExtent(t *testing.T) {
	t.Parallel()

	l := NewLedger(LedgerConfig{Count: 4, EstimatedExtent: 10})
	_, _ = l.SetMeasuredExtent(0, 3)
	l.SetEstimatedExtent(5)
	assert.Equal(t, 18.0, l.TotalExtent())
	assert.True(t, l.IsMeasured(0))

	_, _ = l.SetEstimate(1, 1)
	assert.Equal(t, 14.0, l.TotalExtent())
	assert.False(t, l.IsMeasured(1))
	changed, _ := l.SetEstimate(0, 50)
	assert.False(t, changed, "measured extents win over estimates")
}

func TestLedgerTotalMatchesOffset(t *testing.T) {
	t.Parallel()

	const n = 10000
	l := NewLedger(LedgerConfig{Count: n, EstimatedExtent: 1, Gap: 0.1})
	for i := n - 1; i >= 0; i-- {
		_, err := l.SetMeasuredExtent(i, 0.1+float64(i%7)*0.1)
		require.NoError(t, err)
	}

	end, err := l.Offset(n)
	require.NoError(t, err)
	assert.Equal(t, end, l.TotalExtent())

	_, err = l.SetMeasuredExtent(n/2, 0.35)
	require.NoError(t, err)
	assert.InDelta(t, end-(0.1+float64((n/2)%7)*0.1)+0.35, l.TotalExtent(), 1e-6)

	end, err = l.Offset(n)
	require.NoError(t, err)
	assert.Equal(t, end, l.TotalExtent())
}
