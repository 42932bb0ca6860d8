package virtual

import (
	"log/slog"
	"math"
	"time"
)

const (
	DefaultOverscan        = 3
	DefaultEstimatedExtent = 1
)

type options struct {
	fixedExtent     float64
	estimatedExtent float64
	estimate        EstimateFunc
	gap             float64
	overscan        int
	initialCount    int
	threshold       float64
	settleDelay     time.Duration
	tolerance       float64
	columns         int
	containerSize   float64
	scheduler       Scheduler
	logger          *slog.Logger
	scrollHandler   func(offset float64)
}

func defaultOptions() options {
	return options{
		estimatedExtent: DefaultEstimatedExtent,
		overscan:        DefaultOverscan,
		initialCount:    DefaultInitialCount,
		threshold:       DefaultEndReachedThreshold,
		settleDelay:     DefaultSettleDelay,
		tolerance:       DefaultCorrectionTolerance,
	}
}

// Option configures an [Engine].
type Option func(*options)

// WithFixedExtent selects fixed mode: every item has extent e.
func WithFixedExtent(e float64) Option {
	return func(o *options) {
		o.fixedExtent = e
	}
}

// WithEstimatedExtent sets the extent assumed for unmeasured items in
// variable mode.
func WithEstimatedExtent(e float64) Option {
	return func(o *options) {
		o.estimatedExtent = e
	}
}

// WithEstimateFunc sets a per-index estimate for unmeasured items.
func WithEstimateFunc(fn EstimateFunc) Option {
	return func(o *options) {
		o.estimate = fn
	}
}

// WithGap sets the spacing between consecutive items.
func WithGap(gap float64) Option {
	return func(o *options) {
		o.gap = gap
	}
}

// WithOverscan sets how many extra items are rendered on each side of the
// visible range.
func WithOverscan(n int) Option {
	return func(o *options) {
		o.overscan = n
	}
}

// WithInitialCount sets how many items are rendered before the container
// size is known.
func WithInitialCount(n int) Option {
	return func(o *options) {
		o.initialCount = n
	}
}

// WithEndReachedThreshold sets the fraction (0, 1] of the sequence that
// triggers end-reached.
func WithEndReachedThreshold(t float64) Option {
	return func(o *options) {
		o.threshold = t
	}
}

// WithSettleDelay sets the quiet period that ends a scroll burst.
func WithSettleDelay(d time.Duration) Option {
	return func(o *options) {
		o.settleDelay = d
	}
}

// WithCorrectionTolerance sets the scroll-to-index correction tolerance.
func WithCorrectionTolerance(t float64) Option {
	return func(o *options) {
		o.tolerance = t
	}
}

// WithColumns lays items out in a grid of n columns. Zero means a list.
func WithColumns(n int) Option {
	return func(o *options) {
		o.columns = n
	}
}

// WithContainerSize sets the initial container size.
func WithContainerSize(size float64) Option {
	return func(o *options) {
		o.containerSize = size
	}
}

// WithScheduler sets the scheduler driving the settle timer.
func WithScheduler(s Scheduler) Option {
	return func(o *options) {
		o.scheduler = s
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithScrollHandler sets the callback that moves the host viewport when the
// engine scrolls programmatically.
func WithScrollHandler(fn func(offset float64)) Option {
	return func(o *options) {
		o.scrollHandler = fn
	}
}

// finite reports whether v is a number that is neither NaN nor infinite.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (o options) validate() error {
	switch {
	case o.fixedExtent < 0 || !finite(o.fixedExtent):
		return &InvalidArgumentError{Op: "new engine", Name: "fixed extent", Value: o.fixedExtent, Limit: ">= 0"}
	case o.estimatedExtent < 0 || !finite(o.estimatedExtent):
		return &InvalidArgumentError{Op: "new engine", Name: "estimated extent", Value: o.estimatedExtent, Limit: ">= 0"}
	case o.gap < 0 || !finite(o.gap):
		return &InvalidArgumentError{Op: "new engine", Name: "gap", Value: o.gap, Limit: ">= 0"}
	case o.overscan < 0:
		return &InvalidArgumentError{Op: "new engine", Name: "overscan", Value: o.overscan, Limit: ">= 0"}
	case o.initialCount < 0:
		return &InvalidArgumentError{Op: "new engine", Name: "initial count", Value: o.initialCount, Limit: ">= 0"}
	case !(o.threshold > 0 && o.threshold <= 1):
		return &InvalidArgumentError{Op: "new engine", Name: "end reached threshold", Value: o.threshold, Limit: "0 < threshold <= 1"}
	case o.tolerance < 0 || !finite(o.tolerance):
		return &InvalidArgumentError{Op: "new engine", Name: "correction tolerance", Value: o.tolerance, Limit: ">= 0"}
	case o.columns < 0:
		return &InvalidArgumentError{Op: "new engine", Name: "columns", Value: o.columns, Limit: ">= 0"}
	case o.containerSize < 0 || !finite(o.containerSize):
		return &InvalidArgumentError{Op: "new engine", Name: "container size", Value: o.containerSize, Limit: ">= 0"}
	}
	return nil
}
