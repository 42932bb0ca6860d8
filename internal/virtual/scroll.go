package virtual

import (
	"fmt"
	"math"
	"strings"
)

// Align positions a scroll target inside the viewport.
type Align int

const (
	AlignStart Align = iota
	AlignCenter
	AlignEnd
	// AlignAuto scrolls only when the item is not fully visible, aligning it
	// to the nearest edge.
	AlignAuto
)

func (a Align) String() string {
	switch a {
	case AlignStart:
		return "start"
	case AlignCenter:
		return "center"
	case AlignEnd:
		return "end"
	case AlignAuto:
		return "auto"
	default:
		return fmt.Sprintf("align(%d)", int(a))
	}
}

// ParseAlign parses start, center, end or auto.
func ParseAlign(s string) (Align, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "start":
		return AlignStart, nil
	case "center":
		return AlignCenter, nil
	case "end":
		return AlignEnd, nil
	case "auto":
		return AlignAuto, nil
	}
	return AlignStart, &InvalidArgumentError{Op: "parse align", Name: "alignment", Value: s, Limit: "start, center, end or auto"}
}

// DefaultCorrectionTolerance is the largest difference between an estimated
// and a measured target offset that is left uncorrected.
const DefaultCorrectionTolerance = 1.0

// ScrollController resolves scroll-to-index requests to offsets. When the
// target was unmeasured at request time it arms a single correction that is
// applied once the target is measured.
type ScrollController struct {
	Tolerance float64

	pending *correction
}

type correction struct {
	index   int
	align   Align
	applied float64
}

// NewScrollController returns a controller with the given tolerance.
func NewScrollController(tolerance float64) *ScrollController {
	if tolerance < 0 || math.IsNaN(tolerance) {
		tolerance = DefaultCorrectionTolerance
	}
	return &ScrollController{Tolerance: tolerance}
}

// Resolve returns the offset that positions index per align within vp, and
// the concrete alignment used. move is false when AlignAuto finds the item
// already fully visible.
func (c *ScrollController) Resolve(index int, align Align, vp Viewport, ledger *Ledger) (offset float64, used Align, move bool) {
	start := ledger.offsetAt(index)
	extent := ledger.extentAt(index)
	used = align
	if align == AlignAuto {
		top, bottom := vp.ScrollOffset, vp.ScrollOffset+vp.ContainerSize
		switch {
		case start >= top && start+extent <= bottom:
			return vp.ScrollOffset, AlignAuto, false
		case extent >= vp.ContainerSize || start < top:
			used = AlignStart
		default:
			used = AlignEnd
		}
	}
	switch used {
	case AlignCenter:
		offset = start + extent/2 - vp.ContainerSize/2
	case AlignEnd:
		offset = start + extent - vp.ContainerSize
	default:
		offset = start
	}
	vp.ScrollOffset = offset
	return vp.Clamp(ledger.TotalExtent()).ScrollOffset, used, true
}

// Arm records a correction for index, scrolled with align to applied.
func (c *ScrollController) Arm(index int, align Align, applied float64) {
	c.pending = &correction{index: index, align: align, applied: applied}
}

// Pending returns the index awaiting correction.
func (c *ScrollController) Pending() (int, bool) {
	if c.pending == nil {
		return 0, false
	}
	return c.pending.index, true
}

// Applied returns the offset the pending correction was scrolled to.
func (c *ScrollController) Applied() (float64, bool) {
	if c.pending == nil {
		return 0, false
	}
	return c.pending.applied, true
}

// Cancel drops the pending correction.
func (c *ScrollController) Cancel() {
	c.pending = nil
}

// Correct is called after a measurement. Once the pending target is
// measured it disarms and, if the true offset moved by more than the
// tolerance, returns the corrected offset.
func (c *ScrollController) Correct(vp Viewport, ledger *Ledger) (float64, bool) {
	p := c.pending
	if p == nil {
		return 0, false
	}
	if p.index >= ledger.Len() {
		c.pending = nil
		return 0, false
	}
	if !ledger.IsMeasured(p.index) {
		return 0, false
	}
	c.pending = nil
	target, _, _ := c.Resolve(p.index, p.align, vp, ledger)
	if math.Abs(target-p.applied) <= c.Tolerance {
		return 0, false
	}
	return target, true
}
