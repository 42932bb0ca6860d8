package virtual

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerSettle(t *testing.T) {
	t.Parallel()

	sched := NewManualScheduler()
	tr := NewTracker(150*time.Millisecond, sched)

	var settled []uint64
	settle := func(seq uint64) {
		if tr.Settle(seq) {
			settled = append(settled, seq)
		}
	}

	require.True(t, tr.Scroll(10, settle), "first event starts a burst")
	sched.Advance(100 * time.Millisecond)
	require.False(t, tr.Scroll(20, settle))
	assert.Equal(t, 1, sched.Pending(), "superseded timer is stopped")
	assert.True(t, tr.IsScrolling())

	sched.Advance(149 * time.Millisecond)
	assert.True(t, tr.IsScrolling())
	assert.Empty(t, settled)

	sched.Advance(time.Millisecond)
	assert.False(t, tr.IsScrolling())
	assert.Equal(t, []uint64{2}, settled)
	assert.Equal(t, 20.0, tr.Viewport().ScrollOffset)
	assert.Equal(t, 250*time.Millisecond, sched.Now())

	assert.False(t, tr.Settle(1), "stale sequence is ignored")
}

func TestTrackerResizeKeepsScrollState(t *testing.T) {
	t.Parallel()

	sched := NewManualScheduler()
	tr := NewTracker(0, sched)
	assert.Equal(t, DefaultSettleDelay, tr.SettleDelay())

	require.True(t, tr.Resize(300))
	require.False(t, tr.Resize(300))
	assert.False(t, tr.IsScrolling())

	tr.Scroll(40, func(seq uint64) { tr.Settle(seq) })
	require.True(t, tr.Resize(200))
	assert.True(t, tr.IsScrolling())
	assert.Equal(t, Viewport{ScrollOffset: 40, ContainerSize: 200}, tr.Viewport())

	tr.Stop()
	assert.Zero(t, sched.Pending())
	sched.Advance(time.Second)
	assert.True(t, tr.IsScrolling(), "stopped timers never settle")
}

func TestManualSchedulerOrder(t *testing.T) {
	t.Parallel()

	sched := NewManualScheduler()
	var fired []string
	sched.AfterFunc(30*time.Millisecond, func() { fired = append(fired, "c") })
	sched.AfterFunc(10*time.Millisecond, func() { fired = append(fired, "a") })
	sched.AfterFunc(10*time.Millisecond, func() { fired = append(fired, "b") })
	stopped := sched.AfterFunc(20*time.Millisecond, func() { fired = append(fired, "x") })

	require.True(t, stopped.Stop())
	require.False(t, stopped.Stop())

	sched.Advance(time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, fired)
	assert.Zero(t, sched.Pending())
}
