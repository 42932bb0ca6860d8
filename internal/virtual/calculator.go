package virtual

import (
	"fmt"
	"math"
)

// DefaultInitialCount is the number of items rendered before the container
// has been measured.
const DefaultInitialCount = 10

// Range is an inclusive-exclusive index window [Start, End).
type Range struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// Len returns the number of indices in the range.
func (r Range) Len() int {
	return max(r.End-r.Start, 0)
}

// Empty reports whether the range holds no index.
func (r Range) Empty() bool {
	return r.Len() == 0
}

// Contains reports whether index falls inside the range.
func (r Range) Contains(index int) bool {
	return index >= r.Start && index < r.End
}

// Covers reports whether r includes every index of o.
func (r Range) Covers(o Range) bool {
	if o.Empty() {
		return true
	}
	return r.Start <= o.Start && r.End >= o.End
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// Viewport is the scroll position and size of the host container along the
// scroll axis.
type Viewport struct {
	ScrollOffset  float64 `json:"scroll_offset" yaml:"scroll_offset"`
	ContainerSize float64 `json:"container_size" yaml:"container_size"`
}

// MaxScrollOffset returns the largest offset a scroll can settle on for a
// sequence of the given total extent.
func (v Viewport) MaxScrollOffset(total float64) float64 {
	return math.Max(0, total-v.ContainerSize)
}

// Clamp returns v with the scroll offset limited to [0, MaxScrollOffset].
func (v Viewport) Clamp(total float64) Viewport {
	v.ScrollOffset = math.Min(math.Max(v.ScrollOffset, 0), v.MaxScrollOffset(total))
	return v
}

// Calculator computes visible and rendered ranges. It remembers the last
// resolved start index so that small scroll deltas are answered by a short
// walk instead of a search from zero.
type Calculator struct {
	Overscan     int
	InitialCount int

	hint int
}

// NewCalculator returns a calculator with the given overscan.
func NewCalculator(overscan int) *Calculator {
	return &Calculator{
		Overscan:     max(overscan, 0),
		InitialCount: DefaultInitialCount,
		hint:         -1,
	}
}

// Reset forgets the remembered start index.
func (c *Calculator) Reset() {
	c.hint = -1
}

// Compute returns the visible and rendered ranges for vp over ledger.
func (c *Calculator) Compute(vp Viewport, ledger *Ledger) (visible, rendered Range) {
	n := ledger.Len()
	if n == 0 {
		return Range{}, Range{}
	}
	if vp.ContainerSize <= 0 || math.IsNaN(vp.ContainerSize) {
		initial := Range{Start: 0, End: min(n, max(c.InitialCount, 0))}
		return initial, initial
	}

	// Elastic overscroll may report offsets outside the content; resolve
	// against the nearest valid edge.
	offset := vp.ScrollOffset
	if math.IsNaN(offset) || offset < 0 {
		offset = 0
	}
	total := ledger.TotalExtent()
	offset = math.Min(offset, total)

	start := ledger.indexNear(c.hint, offset)
	c.hint = start
	end := ledger.endFrom(start, offset+vp.ContainerSize)

	visible = Range{Start: start, End: end}
	rendered = Range{
		Start: max(start-c.Overscan, 0),
		End:   min(end+c.Overscan, n),
	}
	return visible, rendered
}

// ComputeRenderedRange is the stateless form of [Calculator.Compute].
func ComputeRenderedRange(vp Viewport, ledger *Ledger, overscan int) Range {
	_, rendered := NewCalculator(overscan).Compute(vp, ledger)
	return rendered
}
