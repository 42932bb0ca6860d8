package virtual

import (
	"slices"

	"github.com/google/uuid"
)

// RangeChange is emitted when the rendered range differs from the previous
// one.
type RangeChange struct {
	Visible  Range `json:"visible" yaml:"visible"`
	Rendered Range `json:"rendered" yaml:"rendered"`
	Previous Range `json:"previous" yaml:"previous"`
}

// EndReached is emitted when the rendered range reaches the end threshold.
// ItemCount is the epoch the detector latched on.
type EndReached struct {
	ItemCount int   `json:"item_count" yaml:"item_count"`
	Rendered  Range `json:"rendered" yaml:"rendered"`
}

// ScrollState is emitted when a scroll burst starts or settles.
type ScrollState struct {
	Scrolling bool    `json:"scrolling" yaml:"scrolling"`
	Offset    float64 `json:"offset" yaml:"offset"`
}

type listener[T any] struct {
	id string
	fn func(T)
}

type listeners[T any] struct {
	subs []listener[T]
}

func (l *listeners[T]) add(fn func(T)) string {
	id := uuid.NewString()
	l.subs = append(l.subs, listener[T]{id: id, fn: fn})
	return id
}

func (l *listeners[T]) remove(id string) {
	l.subs = slices.DeleteFunc(l.subs, func(s listener[T]) bool {
		return s.id == id
	})
}

func (l *listeners[T]) clear() {
	l.subs = nil
}

// snapshot returns a dispatch func bound to the current subscribers, or nil
// when there are none.
func (l *listeners[T]) snapshot(v T) func() {
	if len(l.subs) == 0 {
		return nil
	}
	subs := slices.Clone(l.subs)
	return func() {
		for _, s := range subs {
			s.fn(v)
		}
	}
}
