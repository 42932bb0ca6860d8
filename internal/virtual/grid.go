package virtual

// ToRowIndex returns the row holding item in a grid of columns columns.
func ToRowIndex(item, columns int) int {
	if columns <= 0 || item < 0 {
		return 0
	}
	return item / columns
}

// RowCount returns ceil(n / columns).
func RowCount(n, columns int) int {
	if columns <= 0 || n <= 0 {
		return 0
	}
	return (n + columns - 1) / columns
}

// ItemsInRow returns the item indices of row. The last row may be partial.
func ItemsInRow(row, columns, n int) []int {
	if columns <= 0 || row < 0 {
		return nil
	}
	start := row * columns
	end := min(start+columns, n)
	if start >= end {
		return nil
	}
	items := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		items = append(items, i)
	}
	return items
}

// Grid maps a flat item sequence onto rows of a fixed column count. Its
// ledger is indexed by row, and a row's extent is the largest measured
// extent among its items.
type Grid struct {
	columns int
	count   int
	ledger  *Ledger
	items   map[int]float64
}

// NewGrid wraps ledger, which must be indexed by row, for count items laid
// out in columns columns.
func NewGrid(columns, count int, ledger *Ledger) *Grid {
	g := &Grid{
		columns: max(columns, 1),
		count:   max(count, 0),
		ledger:  ledger,
		items:   make(map[int]float64),
	}
	ledger.Reset(g.Rows())
	return g
}

// Columns returns the column count.
func (g *Grid) Columns() int {
	return g.columns
}

// Rows returns the number of rows.
func (g *Grid) Rows() int {
	return RowCount(g.count, g.columns)
}

// Len returns the number of items.
func (g *Grid) Len() int {
	return g.count
}

// SetColumns changes the column count. Row membership of every item shifts,
// so the row ledger is reset.
func (g *Grid) SetColumns(columns int) {
	columns = max(columns, 1)
	if columns == g.columns {
		return
	}
	g.columns = columns
	g.items = make(map[int]float64)
	g.ledger.Reset(g.Rows())
}

// SetItemCount resizes the item sequence, keeping rows that are unaffected.
func (g *Grid) SetItemCount(n int) {
	n = max(n, 0)
	for i := range g.items {
		if i >= n {
			delete(g.items, i)
		}
	}
	g.count = n
	g.ledger.SetCount(g.Rows())
}

// Reset starts a new sequence version of n items.
func (g *Grid) Reset(n int) {
	g.count = max(n, 0)
	g.items = make(map[int]float64)
	g.ledger.Reset(g.Rows())
}

// ItemRange expands a row range to the item range it covers, clamped to the
// item count.
func (g *Grid) ItemRange(rows Range) Range {
	return Range{
		Start: min(rows.Start*g.columns, g.count),
		End:   min(rows.End*g.columns, g.count),
	}
}

// RowRange returns the rows covering items.
func (g *Grid) RowRange(items Range) Range {
	if items.Empty() {
		return Range{Start: ToRowIndex(items.Start, g.columns), End: ToRowIndex(items.Start, g.columns)}
	}
	return Range{
		Start: ToRowIndex(items.Start, g.columns),
		End:   ToRowIndex(items.End-1, g.columns) + 1,
	}
}

// ReportItemExtent records the measured extent of item and updates its row.
// It returns whether the row extent changed.
func (g *Grid) ReportItemExtent(item int, extent float64) (bool, error) {
	if item < 0 || item >= g.count {
		return false, indexError("report item extent", item, g.count)
	}
	g.items[item] = g.ledger.sanitize(item, extent)
	row := ToRowIndex(item, g.columns)
	var tallest float64
	for _, i := range ItemsInRow(row, g.columns, g.count) {
		if e, ok := g.items[i]; ok && e > tallest {
			tallest = e
		}
	}
	return g.ledger.SetMeasuredExtent(row, tallest)
}
