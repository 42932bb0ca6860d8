// Package virtual implements list and grid virtualization: it tracks a
// moving viewport over items of fixed or measured extent and reports which
// index window the host must materialize, and where each item goes.
//
// An Engine serves exactly one list or grid. All state changes happen
// synchronously inside the call that caused them; events are delivered after
// the engine's lock is released, so subscribers may call back into it.
package virtual

import (
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrClosed is returned by operations on a closed engine.
var ErrClosed = errors.New("engine closed")

// State is a snapshot of an engine.
type State struct {
	ItemCount   int      `json:"item_count" yaml:"item_count"`
	Columns     int      `json:"columns,omitempty" yaml:"columns,omitempty"`
	Viewport    Viewport `json:"viewport" yaml:"viewport"`
	Visible     Range    `json:"visible" yaml:"visible"`
	Rendered    Range    `json:"rendered" yaml:"rendered"`
	TotalExtent float64  `json:"total_extent" yaml:"total_extent"`
	Scrolling   bool     `json:"scrolling" yaml:"scrolling"`
	Latched     bool     `json:"latched" yaml:"latched"`
}

// Engine composes the height ledger, range calculator, viewport tracker,
// end-reached detector, scroll controller and, for grids, the grid adapter.
type Engine struct {
	id     string
	logger *slog.Logger

	mu       sync.Mutex
	opts     options
	count    int
	ledger   *Ledger
	grid     *Grid
	calc     *Calculator
	tracker  *Tracker
	detector *EndReachedDetector
	scroller *ScrollController

	visible  Range
	rendered Range
	closed   bool

	rangeSubs  listeners[RangeChange]
	endSubs    listeners[EndReached]
	scrollSubs listeners[ScrollState]
	diagSubs   listeners[Diagnostic]
	queued     []func()
}

// New creates an engine for count items.
func New(count int, opts ...Option) (*Engine, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if count < 0 {
		return nil, &InvalidArgumentError{Op: "new engine", Name: "item count", Value: count, Limit: ">= 0"}
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	e := &Engine{
		id:       uuid.NewString(),
		opts:     o,
		count:    count,
		calc:     NewCalculator(o.overscan),
		tracker:  NewTracker(o.settleDelay, o.scheduler),
		detector: NewEndReachedDetector(o.threshold),
		scroller: NewScrollController(o.tolerance),
	}
	e.logger = o.logger.With("engine", e.id)
	e.calc.InitialCount = o.initialCount
	e.ledger = NewLedger(LedgerConfig{
		Count:           count,
		FixedExtent:     o.fixedExtent,
		EstimatedExtent: o.estimatedExtent,
		Estimate:        o.estimate,
		Gap:             o.gap,
	})
	e.ledger.logger = e.logger
	e.ledger.onAnomaly = e.queueDiagnostic
	if o.columns > 0 {
		e.grid = NewGrid(o.columns, count, e.ledger)
	}
	e.tracker.Resize(o.containerSize)
	// Nobody is subscribed yet; the end-reached check waits for the first
	// observation so the trigger is not lost.
	e.updateRanges()
	e.queued = nil
	return e, nil
}

// ID returns the engine's unique id, used to tag log records.
func (e *Engine) ID() string {
	return e.id
}

// do runs fn under the lock, then dispatches the events fn queued.
func (e *Engine) do(fn func() error) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	err := fn()
	queued := e.queued
	e.queued = nil
	e.mu.Unlock()
	for _, f := range queued {
		f()
	}
	return err
}

func (e *Engine) queue(f func()) {
	if f != nil {
		e.queued = append(e.queued, f)
	}
}

func (e *Engine) queueDiagnostic(d Diagnostic) {
	e.queue(e.diagSubs.snapshot(d))
}

// units returns the number of ledger entries: items for a list, rows for a
// grid.
func (e *Engine) units() int {
	if e.grid != nil {
		return e.grid.Rows()
	}
	return e.count
}

func (e *Engine) unitOf(index int) int {
	if e.grid != nil {
		return ToRowIndex(index, e.grid.Columns())
	}
	return index
}

// recompute derives the ranges from the current viewport, emits a range
// change only when the rendered range moved, and checks the end-reached
// latch.
func (e *Engine) recompute() {
	unitsEnd := e.updateRanges()
	if e.detector.Check(unitsEnd, e.units(), e.count) {
		e.logger.Debug("End reached", "item_count", e.count, "rendered", e.rendered.String())
		e.queue(e.endSubs.snapshot(EndReached{ItemCount: e.count, Rendered: e.rendered}))
	}
}

// updateRanges returns the end of the rendered range in ledger units.
func (e *Engine) updateRanges() int {
	visible, rendered := e.calc.Compute(e.tracker.Viewport(), e.ledger)
	unitsEnd := rendered.End
	if e.grid != nil {
		visible = e.grid.ItemRange(visible)
		rendered = e.grid.ItemRange(rendered)
	}
	e.visible = visible
	if rendered != e.rendered {
		change := RangeChange{Visible: visible, Rendered: rendered, Previous: e.rendered}
		e.rendered = rendered
		e.logger.Debug("Rendered range changed", "rendered", rendered.String(), "previous", change.Previous.String())
		e.queue(e.rangeSubs.snapshot(change))
	}
	return unitsEnd
}

// Resize records a new container size. Negative or non-finite sizes are
// rejected.
func (e *Engine) Resize(size float64) error {
	if size < 0 || math.IsNaN(size) || math.IsInf(size, 0) {
		return &InvalidArgumentError{Op: "resize", Name: "container size", Value: size, Limit: ">= 0"}
	}
	return e.do(func() error {
		e.tracker.Resize(size)
		e.recompute()
		return nil
	})
}

// Scroll records a scroll event from the host. Transient out-of-range
// offsets such as elastic overscroll are accepted.
func (e *Engine) Scroll(offset float64) error {
	if math.IsNaN(offset) || math.IsInf(offset, 0) {
		return &InvalidArgumentError{Op: "scroll", Name: "offset", Value: offset, Limit: "finite"}
	}
	return e.do(func() error {
		if applied, ok := e.scroller.Applied(); ok && math.Abs(applied-offset) > e.scroller.Tolerance {
			e.scroller.Cancel()
		}
		e.scrollTo(offset)
		return nil
	})
}

func (e *Engine) scrollTo(offset float64) {
	if e.tracker.Scroll(offset, e.settle) {
		e.queue(e.scrollSubs.snapshot(ScrollState{Scrolling: true, Offset: offset}))
	}
	e.recompute()
}

func (e *Engine) settle(seq uint64) {
	_ = e.do(func() error {
		if e.tracker.Settle(seq) {
			offset := e.tracker.Viewport().ScrollOffset
			e.queue(e.scrollSubs.snapshot(ScrollState{Scrolling: false, Offset: offset}))
		}
		return nil
	})
}

// applyScroll moves the viewport programmatically and commands the host.
func (e *Engine) applyScroll(offset float64) {
	e.scrollTo(offset)
	if h := e.opts.scrollHandler; h != nil {
		e.queue(func() { h(offset) })
	}
}

// ScrollToIndex scrolls so that index is positioned per align. Unmeasured
// targets are resolved from estimates and corrected once, after the target
// is measured. An out-of-range index is a no-op.
func (e *Engine) ScrollToIndex(index int, align Align) error {
	return e.do(func() error {
		if index < 0 || index >= e.count {
			return indexError("scroll to index", index, e.count)
		}
		unit := e.unitOf(index)
		offset, used, move := e.scroller.Resolve(unit, align, e.tracker.Viewport(), e.ledger)
		if !move {
			return nil
		}
		if e.ledger.IsMeasured(unit) {
			e.scroller.Cancel()
		} else {
			e.scroller.Arm(unit, used, offset)
		}
		e.applyScroll(offset)
		return nil
	})
}

// ReportMeasuredExtent records the rendered extent of index. In grid mode
// index is an item index and its row takes the tallest measured item.
func (e *Engine) ReportMeasuredExtent(index int, extent float64) error {
	return e.do(func() error {
		if index < 0 || index >= e.count {
			return indexError("report measured extent", index, e.count)
		}
		var changed bool
		var err error
		if e.grid != nil {
			changed, err = e.grid.ReportItemExtent(index, extent)
		} else {
			changed, err = e.ledger.SetMeasuredExtent(index, extent)
		}
		if err != nil {
			return err
		}
		if changed {
			e.recompute()
		}
		if target, ok := e.scroller.Correct(e.tracker.Viewport(), e.ledger); ok {
			e.logger.Debug("Correcting scroll to index", "offset", target)
			e.applyScroll(target)
		}
		return nil
	})
}

// ReportRowExtent sets the extent of a grid row directly. In list mode a row
// is an item.
func (e *Engine) ReportRowExtent(row int, extent float64) error {
	return e.do(func() error {
		if row < 0 || row >= e.units() {
			return indexError("report row extent", row, e.units())
		}
		changed, err := e.ledger.SetMeasuredExtent(row, extent)
		if err != nil {
			return err
		}
		if changed {
			e.recompute()
		}
		if target, ok := e.scroller.Correct(e.tracker.Viewport(), e.ledger); ok {
			e.applyScroll(target)
		}
		return nil
	})
}

// SetItemCount resizes the current sequence, typically after a page of items
// was appended. Measurements of surviving indices are kept. Growing the
// sequence re-arms the end-reached detector.
func (e *Engine) SetItemCount(n int) error {
	if n < 0 {
		return &InvalidArgumentError{Op: "set item count", Name: "item count", Value: n, Limit: ">= 0"}
	}
	return e.do(func() error {
		e.count = n
		if e.grid != nil {
			e.grid.SetItemCount(n)
		} else {
			e.ledger.SetCount(n)
		}
		if idx, ok := e.scroller.Pending(); ok && idx >= e.units() {
			e.scroller.Cancel()
		}
		e.recompute()
		return nil
	})
}

// Reset replaces the sequence with a new version of n items. Every stored
// extent is dropped and the end-reached detector is re-armed.
func (e *Engine) Reset(n int) error {
	if n < 0 {
		return &InvalidArgumentError{Op: "reset", Name: "item count", Value: n, Limit: ">= 0"}
	}
	return e.do(func() error {
		e.count = n
		if e.grid != nil {
			e.grid.Reset(n)
		} else {
			e.ledger.Reset(n)
		}
		e.calc.Reset()
		e.detector.Reset()
		e.scroller.Cancel()
		e.recompute()
		return nil
	})
}

// SetColumns switches between list (0) and grid (> 0) layout or changes the
// column count. All row extents are re-derived.
func (e *Engine) SetColumns(columns int) error {
	if columns < 0 {
		return &InvalidArgumentError{Op: "set columns", Name: "columns", Value: columns, Limit: ">= 0"}
	}
	return e.do(func() error {
		switch {
		case columns == 0:
			e.grid = nil
			e.ledger.Reset(e.count)
		case e.grid == nil:
			e.grid = NewGrid(columns, e.count, e.ledger)
		default:
			e.grid.SetColumns(columns)
		}
		e.opts.columns = columns
		e.calc.Reset()
		e.scroller.Cancel()
		e.recompute()
		return nil
	})
}

// SetFixedExtent switches to fixed mode with extent ext, or to variable mode
// when ext is 0.
func (e *Engine) SetFixedExtent(ext float64) error {
	if ext < 0 || math.IsNaN(ext) || math.IsInf(ext, 0) {
		return &InvalidArgumentError{Op: "set fixed extent", Name: "extent", Value: ext, Limit: ">= 0"}
	}
	return e.do(func() error {
		e.opts.fixedExtent = ext
		e.ledger.SetFixedExtent(ext)
		if e.grid != nil {
			e.grid.Reset(e.count)
		}
		e.calc.Reset()
		e.scroller.Cancel()
		e.recompute()
		return nil
	})
}

// SetEstimatedExtent changes the estimate used for unmeasured items.
func (e *Engine) SetEstimatedExtent(ext float64) error {
	if ext < 0 || math.IsNaN(ext) || math.IsInf(ext, 0) {
		return &InvalidArgumentError{Op: "set estimated extent", Name: "extent", Value: ext, Limit: ">= 0"}
	}
	return e.do(func() error {
		e.opts.estimatedExtent = ext
		e.ledger.SetEstimatedExtent(ext)
		e.recompute()
		return nil
	})
}

// SetOverscan changes the overscan.
func (e *Engine) SetOverscan(n int) error {
	if n < 0 {
		return &InvalidArgumentError{Op: "set overscan", Name: "overscan", Value: n, Limit: ">= 0"}
	}
	return e.do(func() error {
		e.opts.overscan = n
		e.calc.Overscan = n
		e.recompute()
		return nil
	})
}

// SetEndReachedThreshold changes the end-reached threshold. The latch is
// left untouched.
func (e *Engine) SetEndReachedThreshold(t float64) error {
	if t <= 0 || t > 1 || math.IsNaN(t) {
		return &InvalidArgumentError{Op: "set end reached threshold", Name: "threshold", Value: t, Limit: "0 < threshold <= 1"}
	}
	return e.do(func() error {
		e.opts.threshold = t
		e.detector.Threshold = t
		e.recompute()
		return nil
	})
}

// SetSettleDelay changes the settle delay for subsequent scroll events.
func (e *Engine) SetSettleDelay(d time.Duration) error {
	if d <= 0 {
		return &InvalidArgumentError{Op: "set settle delay", Name: "delay", Value: d, Limit: "> 0"}
	}
	return e.do(func() error {
		e.opts.settleDelay = d
		e.tracker.SetSettleDelay(d)
		return nil
	})
}

// RenderedRange returns the item window the host must materialize.
func (e *Engine) RenderedRange() Range {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rendered
}

// VisibleRange returns the items intersecting the viewport.
func (e *Engine) VisibleRange() Range {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.visible
}

// OffsetFor returns the absolute position of index along the scroll axis.
func (e *Engine) OffsetFor(index int) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if index < 0 || index >= e.count {
		return 0, indexError("offset for", index, e.count)
	}
	return e.ledger.Offset(e.unitOf(index))
}

// ExtentFor returns the current extent of index: its row's extent in grid
// mode.
func (e *Engine) ExtentFor(index int) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if index < 0 || index >= e.count {
		return 0, indexError("extent for", index, e.count)
	}
	return e.ledger.Extent(e.unitOf(index))
}

// IsMeasured reports whether index (its row, in grid mode) has a measured
// extent.
func (e *Engine) IsMeasured(index int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if index < 0 || index >= e.count {
		return false
	}
	return e.ledger.IsMeasured(e.unitOf(index))
}

// TotalExtent returns the size the host must give its scrollable content.
func (e *Engine) TotalExtent() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.TotalExtent()
}

// IsScrolling reports whether a scroll burst is in progress.
func (e *Engine) IsScrolling() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.IsScrolling()
}

// Viewport returns the last observed viewport.
func (e *Engine) Viewport() Viewport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.Viewport()
}

// ItemCount returns the sequence length.
func (e *Engine) ItemCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.count
}

// Columns returns the grid column count, or 0 for a list.
func (e *Engine) Columns() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.grid == nil {
		return 0
	}
	return e.grid.Columns()
}

// Snapshot returns the engine state.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := State{
		ItemCount:   e.count,
		Viewport:    e.tracker.Viewport(),
		Visible:     e.visible,
		Rendered:    e.rendered,
		TotalExtent: e.ledger.TotalExtent(),
		Scrolling:   e.tracker.IsScrolling(),
		Latched:     e.detector.Latched(),
	}
	if e.grid != nil {
		s.Columns = e.grid.Columns()
	}
	return s
}

func subscribe[T any](e *Engine, l *listeners[T], fn func(T)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || fn == nil {
		return func() {}
	}
	id := l.add(fn)
	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			l.remove(id)
		})
	}
}

// OnRangeChanged subscribes fn to rendered range changes. The returned func
// unsubscribes and is safe to call more than once.
func (e *Engine) OnRangeChanged(fn func(RangeChange)) func() {
	return subscribe(e, &e.rangeSubs, fn)
}

// OnEndReached subscribes fn to end-reached triggers.
func (e *Engine) OnEndReached(fn func(EndReached)) func() {
	return subscribe(e, &e.endSubs, fn)
}

// OnScrollStateChanged subscribes fn to scroll burst start and settle.
func (e *Engine) OnScrollStateChanged(fn func(ScrollState)) func() {
	return subscribe(e, &e.scrollSubs, fn)
}

// OnDiagnostic subscribes fn to measurement anomalies.
func (e *Engine) OnDiagnostic(fn func(Diagnostic)) func() {
	return subscribe(e, &e.diagSubs, fn)
}

// Close stops the settle timer and drops every subscription. Later calls
// that mutate the engine return ErrClosed.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.tracker.Stop()
	e.rangeSubs.clear()
	e.endSubs.clear()
	e.scrollSubs.clear()
	e.diagSubs.clear()
	e.queued = nil
}
