package virtual

import (
	"log/slog"
	"math"
	"sort"
)

// EstimateFunc returns the estimated extent of an item that has not been
// measured yet.
type EstimateFunc func(index int) float64

// LedgerConfig configures a [Ledger]. A positive FixedExtent selects fixed
// mode; otherwise the ledger runs in variable mode and unmeasured items use
// Estimate, falling back to EstimatedExtent.
type LedgerConfig struct {
	Count           int
	FixedExtent     float64
	EstimatedExtent float64
	Estimate        EstimateFunc
	Gap             float64
}

// LedgerEntry is the stored state of one index.
type LedgerEntry struct {
	Index    int
	Extent   float64
	Measured bool
}

type entry struct {
	extent   float64
	measured bool
}

// maxHintWalk bounds the linear walk from a previous index before falling
// back to a binary search over the prefix cache.
const maxHintWalk = 16

// Ledger stores per-index extents and answers prefix-offset queries.
//
// In variable mode it keeps a prefix cache of offsets that is extended lazily
// as far as queries reach. Changing the extent of index k truncates the cache
// to k+1 entries, so offsets at or before k are never recomputed.
type Ledger struct {
	count    int
	fixed    float64
	estimate float64
	estFn    EstimateFunc
	gap      float64

	entries map[int]entry
	// prefix[k] is offset(k); always holds at least offset(0) = 0.
	prefix []float64
	// sum of extent(i) for i < count, maintained incrementally.
	sum float64

	logger    *slog.Logger
	onAnomaly func(Diagnostic)
}

// NewLedger creates a ledger from cfg.
func NewLedger(cfg LedgerConfig) *Ledger {
	l := &Ledger{
		fixed:    math.Max(cfg.FixedExtent, 0),
		estimate: math.Max(cfg.EstimatedExtent, 0),
		estFn:    cfg.Estimate,
		gap:      math.Max(cfg.Gap, 0),
		logger:   slog.Default(),
	}
	l.Reset(cfg.Count)
	return l
}

// Len returns the number of indices in the current sequence.
func (l *Ledger) Len() int {
	return l.count
}

// Fixed reports whether every index shares a single extent.
func (l *Ledger) Fixed() bool {
	return l.fixed > 0
}

// Gap returns the spacing inserted between consecutive items.
func (l *Ledger) Gap() float64 {
	return l.gap
}

// Reset starts a new sequence version of n items, dropping every stored
// extent.
func (l *Ledger) Reset(n int) {
	l.count = max(n, 0)
	l.entries = make(map[int]entry)
	l.prefix = []float64{0}
	l.sum = 0
	if l.Fixed() {
		return
	}
	if l.estFn == nil {
		l.sum = float64(l.count) * l.estimate
		return
	}
	for i := range l.count {
		l.sum += l.estimatedAt(i)
	}
}

// SetCount resizes the current sequence. Extents of indices below n are
// kept; indices at or beyond n are dropped.
func (l *Ledger) SetCount(n int) {
	n = max(n, 0)
	if n == l.count {
		return
	}
	old := l.count
	if !l.Fixed() {
		if n > old {
			for i := old; i < n; i++ {
				l.sum += l.extentAt(i)
			}
		} else {
			for i := n; i < old; i++ {
				l.sum -= l.extentAt(i)
				delete(l.entries, i)
			}
		}
	}
	l.count = n
	// The stride of the previous last item changes once it gains a neighbor.
	l.invalidateAfter(min(old, n) - 1)
}

// SetFixedExtent switches the ledger to fixed mode with extent e, or back to
// variable mode when e <= 0. Stored extents are dropped.
func (l *Ledger) SetFixedExtent(e float64) {
	l.fixed = math.Max(e, 0)
	l.Reset(l.count)
}

// SetEstimatedExtent changes the global estimate used for unmeasured indices.
// Measured extents are kept.
func (l *Ledger) SetEstimatedExtent(e float64) {
	l.estimate = math.Max(e, 0)
	kept := l.entries
	l.Reset(l.count)
	for i, en := range kept {
		l.sum += en.extent - l.extentAt(i)
		l.entries[i] = en
	}
}

// Extent returns the extent stored for index.
func (l *Ledger) Extent(index int) (float64, error) {
	if index < 0 || index >= l.count {
		return 0, indexError("extent", index, l.count)
	}
	return l.extentAt(index), nil
}

// Entry returns the ledger entry for index.
func (l *Ledger) Entry(index int) (LedgerEntry, error) {
	if index < 0 || index >= l.count {
		return LedgerEntry{}, indexError("entry", index, l.count)
	}
	e := LedgerEntry{Index: index, Extent: l.extentAt(index)}
	if en, ok := l.entries[index]; ok {
		e.Measured = en.measured
	}
	return e, nil
}

// IsMeasured reports whether index carries a measured extent. Indices in a
// fixed ledger always count as measured.
func (l *Ledger) IsMeasured(index int) bool {
	if l.Fixed() {
		return index >= 0 && index < l.count
	}
	en, ok := l.entries[index]
	return ok && en.measured
}

// SetMeasuredExtent records the real extent of index. Negative or
// non-finite extents are clamped to 0 and reported as anomalies. It returns
// whether the stored extent changed. Fixed ledgers ignore measurements.
func (l *Ledger) SetMeasuredExtent(index int, extent float64) (bool, error) {
	return l.set(index, extent, true)
}

// SetEstimate records an explicit estimate for a single index without
// marking it measured.
func (l *Ledger) SetEstimate(index int, extent float64) (bool, error) {
	if l.IsMeasured(index) {
		return false, nil
	}
	return l.set(index, extent, false)
}

func (l *Ledger) set(index int, extent float64, measured bool) (bool, error) {
	if index < 0 || index >= l.count {
		return false, indexError("set extent", index, l.count)
	}
	clean := l.sanitize(index, extent)
	if l.Fixed() {
		return false, nil
	}
	old := l.extentAt(index)
	prev, had := l.entries[index]
	l.entries[index] = entry{extent: clean, measured: measured || (had && prev.measured)}
	if old == clean {
		return false, nil
	}
	l.sum += clean - old
	l.invalidateAfter(index)
	return true, nil
}

// sanitize clamps a reported extent, logging and forwarding anomalies.
func (l *Ledger) sanitize(index int, extent float64) float64 {
	clean, kind, ok := sanitizeExtent(extent)
	if ok {
		return clean
	}
	l.logger.Warn("Measurement anomaly", "kind", kind, "index", index, "reported", extent)
	if l.onAnomaly != nil {
		l.onAnomaly(Diagnostic{Kind: kind, Index: index, Reported: extent, Applied: clean})
	}
	return clean
}

// Offset returns the cumulative extent before index. Offset(Len()) is the
// total extent.
func (l *Ledger) Offset(index int) (float64, error) {
	if index < 0 || index > l.count {
		return 0, indexError("offset", index, l.count+1)
	}
	return l.offsetAt(index), nil
}

// TotalExtent returns offset(N).
func (l *Ledger) TotalExtent() float64 {
	if l.count == 0 {
		return 0
	}
	gaps := l.gap * float64(l.count-1)
	if l.Fixed() {
		return l.fixed*float64(l.count) + gaps
	}
	if len(l.prefix) > l.count {
		return l.prefix[l.count]
	}
	return l.sum + gaps
}

// IndexAt returns the index whose offset interval contains offset. Offsets
// outside the sequence resolve to the first or last index. It returns -1 for
// an empty sequence.
func (l *Ledger) IndexAt(offset float64) int {
	return l.indexNear(-1, offset)
}

// indexNear resolves offset starting from a previously resolved index. Small
// scroll deltas are answered by a short walk from hint.
func (l *Ledger) indexNear(hint int, offset float64) int {
	if l.count == 0 {
		return -1
	}
	if offset <= 0 || math.IsNaN(offset) {
		return 0
	}
	if offset >= l.TotalExtent() {
		return l.count - 1
	}
	if l.Fixed() {
		return min(int(offset/l.stride()), l.count-1)
	}

	if hint >= 0 && hint < l.count {
		i := hint
		for range maxHintWalk {
			start, end := l.offsetAt(i), l.offsetAt(i+1)
			switch {
			case offset < start && i > 0:
				i--
			case offset >= end && i < l.count-1:
				i++
			default:
				return i
			}
		}
	}

	l.extendPast(offset)
	k := sort.Search(len(l.prefix), func(k int) bool {
		return l.prefix[k] > offset
	})
	return min(max(k-1, 0), l.count-1)
}

// endFrom returns the smallest k > start with offset(k) >= target, clamped
// to Len(). It scans forward from start.
func (l *Ledger) endFrom(start int, target float64) int {
	if l.count == 0 {
		return 0
	}
	start = max(start, 0)
	if l.Fixed() {
		end := int(math.Ceil(target / l.stride()))
		return min(max(end, start+1), l.count)
	}
	k := start + 1
	for k < l.count && l.offsetAt(k) < target {
		k++
	}
	return min(k, l.count)
}

func (l *Ledger) estimatedAt(index int) float64 {
	if l.estFn != nil {
		if v, _, ok := sanitizeExtent(l.estFn(index)); ok {
			return v
		}
		return 0
	}
	return l.estimate
}

func (l *Ledger) extentAt(index int) float64 {
	if l.Fixed() {
		return l.fixed
	}
	if en, ok := l.entries[index]; ok {
		return en.extent
	}
	return l.estimatedAt(index)
}

func (l *Ledger) stride() float64 {
	return l.fixed + l.gap
}

func (l *Ledger) strideAt(index int) float64 {
	if index < l.count-1 {
		return l.extentAt(index) + l.gap
	}
	return l.extentAt(index)
}

func (l *Ledger) offsetAt(index int) float64 {
	if l.Fixed() {
		if index >= l.count {
			return l.TotalExtent()
		}
		return float64(index) * l.stride()
	}
	l.ensure(index)
	return l.prefix[index]
}

// ensure extends the prefix cache to cover index.
func (l *Ledger) ensure(index int) {
	last := len(l.prefix) - 1
	if last >= index || last >= l.count {
		return
	}
	for ; last < index && last < l.count; last++ {
		l.prefix = append(l.prefix, l.prefix[last]+l.strideAt(last))
	}
	l.resync()
}

// extendPast extends the prefix cache until it holds an offset greater than
// target or covers the whole sequence.
func (l *Ledger) extendPast(target float64) {
	last := len(l.prefix) - 1
	if l.prefix[last] > target || last >= l.count {
		return
	}
	for ; l.prefix[last] <= target && last < l.count; last++ {
		l.prefix = append(l.prefix, l.prefix[last]+l.strideAt(last))
	}
	l.resync()
}

// resync replaces the running sum with the prefix total once the cache
// covers the whole sequence, dropping the rounding drift of incremental
// updates.
func (l *Ledger) resync() {
	if len(l.prefix) <= l.count || l.count == 0 {
		return
	}
	l.sum = l.prefix[l.count] - l.gap*float64(l.count-1)
}

// invalidateAfter drops cached offsets for indices greater than k.
func (l *Ledger) invalidateAfter(k int) {
	keep := max(k, 0) + 1
	if len(l.prefix) > keep {
		l.prefix = l.prefix[:keep]
	}
}
