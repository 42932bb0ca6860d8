package list

import (
	"time"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/vlist/internal/virtual"
)

// settleMsg fires a timer scheduled by the engine.
type settleMsg struct {
	id uint64
}

// tickScheduler runs engine timers on the bubbletea event loop. AfterFunc
// queues a tea.Tick; the callback runs when the tick message comes back
// through Update. It is only used from the Update goroutine.
type tickScheduler struct {
	seq    uint64
	timers map[uint64]func()
	ticks  []tea.Cmd
}

type tickTimer struct {
	s  *tickScheduler
	id uint64
}

func newTickScheduler() *tickScheduler {
	return &tickScheduler{timers: make(map[uint64]func())}
}

// AfterFunc implements virtual.Scheduler.
func (s *tickScheduler) AfterFunc(d time.Duration, f func()) virtual.Timer {
	s.seq++
	id := s.seq
	s.timers[id] = f
	s.ticks = append(s.ticks, tea.Tick(d, func(time.Time) tea.Msg {
		return settleMsg{id: id}
	}))
	return tickTimer{s: s, id: id}
}

func (t tickTimer) Stop() bool {
	_, ok := t.s.timers[t.id]
	delete(t.s.timers, t.id)
	return ok
}

// fire runs the timer id unless it was stopped.
func (s *tickScheduler) fire(id uint64) bool {
	f, ok := s.timers[id]
	if !ok {
		return false
	}
	delete(s.timers, id)
	f()
	return true
}

func (s *tickScheduler) drain() []tea.Cmd {
	ticks := s.ticks
	s.ticks = nil
	return ticks
}

func (s *tickScheduler) pending() int {
	return len(s.timers)
}
