package virtual

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridHelpers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, ToRowIndex(2, 3))
	assert.Equal(t, 1, ToRowIndex(3, 3))
	assert.Equal(t, 0, ToRowIndex(5, 0))

	assert.Equal(t, 4, RowCount(10, 3))
	assert.Equal(t, 3, RowCount(9, 3))
	assert.Equal(t, 0, RowCount(0, 3))

	assert.Equal(t, []int{9}, ItemsInRow(3, 3, 10))
	assert.Equal(t, []int{3, 4, 5}, ItemsInRow(1, 3, 10))
	assert.Nil(t, ItemsInRow(4, 3, 10))
}

func TestGridRowExtent(t *testing.T) {
	t.Parallel()

	l := NewLedger(LedgerConfig{EstimatedExtent: 20})
	g := NewGrid(3, 10, l)
	require.Equal(t, 4, g.Rows())
	require.Equal(t, 4, l.Len())
	assert.Equal(t, 80.0, l.TotalExtent())

	changed, err := g.ReportItemExtent(4, 30)
	require.NoError(t, err)
	require.True(t, changed)
	_, err = g.ReportItemExtent(5, 50)
	require.NoError(t, err)
	ext, _ := l.Extent(1)
	assert.Equal(t, 50.0, ext, "row takes its tallest item")

	_, err = g.ReportItemExtent(5, 10)
	require.NoError(t, err)
	ext, _ = l.Extent(1)
	assert.Equal(t, 30.0, ext, "row shrinks when its tallest item does")

	off, _ := l.Offset(2)
	assert.Equal(t, 50.0, off)

	_, err = g.ReportItemExtent(10, 5)
	require.Error(t, err)
	assert.True(t, IsInvalidArgument(err))
}

func TestGridRanges(t *testing.T) {
	t.Parallel()

	g := NewGrid(3, 10, NewLedger(LedgerConfig{EstimatedExtent: 20}))
	assert.Equal(t, Range{Start: 3, End: 9}, g.ItemRange(Range{Start: 1, End: 3}))
	assert.Equal(t, Range{Start: 6, End: 10}, g.ItemRange(Range{Start: 2, End: 4}))
	assert.Equal(t, Range{Start: 1, End: 4}, g.RowRange(Range{Start: 4, End: 10}))
	assert.Equal(t, Range{Start: 1, End: 1}, g.RowRange(Range{Start: 3, End: 3}))
}

func TestGridResize(t *testing.T) {
	t.Parallel()

	l := NewLedger(LedgerConfig{EstimatedExtent: 20})
	g := NewGrid(3, 10, l)
	_, _ = g.ReportItemExtent(0, 40)
	_, _ = g.ReportItemExtent(9, 70)

	g.SetItemCount(12)
	assert.Equal(t, 4, g.Rows())
	assert.True(t, l.IsMeasured(0))
	assert.True(t, l.IsMeasured(3))

	g.SetItemCount(6)
	assert.Equal(t, 2, g.Rows())
	assert.True(t, l.IsMeasured(0))

	g.SetColumns(2)
	assert.Equal(t, 3, g.Rows())
	assert.False(t, l.IsMeasured(0), "column change re-derives every row")

	g.Reset(1)
	assert.Equal(t, 1, g.Rows())
	assert.Equal(t, 20.0, l.TotalExtent())
}

func TestGridListEquivalence(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	extents := make([]float64, 300)
	for i := range extents {
		extents[i] = float64(1 + rng.Intn(40))
	}

	list := newTestEngine(t, len(extents), WithEstimatedExtent(15), WithContainerSize(120), WithOverscan(2))
	grid := newTestEngine(t, len(extents), WithEstimatedExtent(15), WithContainerSize(120), WithOverscan(2), WithColumns(1))

	for i, ext := range extents {
		if i%4 == 3 {
			continue
		}
		require.NoError(t, list.ReportMeasuredExtent(i, ext))
		require.NoError(t, grid.ReportMeasuredExtent(i, ext))
	}
	require.Equal(t, list.TotalExtent(), grid.TotalExtent())

	for offset := 0.0; offset < list.TotalExtent(); offset += 53 {
		require.NoError(t, list.Scroll(offset))
		require.NoError(t, grid.Scroll(offset))
		require.Equal(t, list.RenderedRange(), grid.RenderedRange(), "offset %v", offset)
		require.Equal(t, list.VisibleRange(), grid.VisibleRange(), "offset %v", offset)
	}
	for i := range extents {
		a, err := list.OffsetFor(i)
		require.NoError(t, err)
		b, err := grid.OffsetFor(i)
		require.NoError(t, err)
		require.Equal(t, a, b, "offset for %d", i)
	}
}
