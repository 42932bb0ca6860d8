package virtual

import "math"

// DefaultEndReachedThreshold is the fraction of the sequence the rendered
// range must reach before more items are requested.
const DefaultEndReachedThreshold = 0.8

// ShouldTriggerEndReached reports whether a range ending at end has reached
// threshold of a sequence of length n. Lists pass item counts, grids pass
// row counts.
func ShouldTriggerEndReached(end, n int, threshold float64) bool {
	if n <= 0 {
		return false
	}
	threshold = math.Min(math.Max(threshold, 0), 1)
	return float64(end) >= float64(n)*threshold
}

// EndReachedDetector latches the end-reached condition. Once it fires for an
// epoch (the item count at trigger time) it stays silent until the item count
// grows past that epoch.
type EndReachedDetector struct {
	Threshold float64

	latched bool
	epoch   int
}

// NewEndReachedDetector returns a detector for threshold in [0, 1].
func NewEndReachedDetector(threshold float64) *EndReachedDetector {
	if threshold <= 0 || threshold > 1 || math.IsNaN(threshold) {
		threshold = DefaultEndReachedThreshold
	}
	return &EndReachedDetector{Threshold: threshold}
}

// Check evaluates the condition for a range ending at end over length units
// (items or rows). itemCount defines the epoch. It returns true at most once
// per epoch.
func (d *EndReachedDetector) Check(end, length, itemCount int) bool {
	if d.latched {
		if itemCount <= d.epoch {
			return false
		}
		d.latched = false
	}
	if !ShouldTriggerEndReached(end, length, d.Threshold) {
		return false
	}
	d.latched = true
	d.epoch = itemCount
	return true
}

// Latched reports whether the detector fired and is waiting for more items.
func (d *EndReachedDetector) Latched() bool {
	return d.latched
}

// Epoch returns the item count at the last trigger.
func (d *EndReachedDetector) Epoch() int {
	return d.epoch
}

// Reset re-arms the detector for a new sequence version.
func (d *EndReachedDetector) Reset() {
	d.latched = false
	d.epoch = 0
}
