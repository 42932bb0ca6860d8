package trace

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/charmbracelet/vlist/internal/virtual"
)

type EventKind string

const (
	EventRange       EventKind = "range"
	EventEndReached  EventKind = "end_reached"
	EventScrollState EventKind = "scroll_state"
	EventScrollTo    EventKind = "scroll_command"
	EventDiagnostic  EventKind = "diagnostic"
	EventError       EventKind = "error"
)

// Event is something the engine emitted, or rejected, while a step ran.
type Event struct {
	Step   int       `json:"step" yaml:"step"`
	Kind   EventKind `json:"kind" yaml:"kind"`
	Detail string    `json:"detail" yaml:"detail"`
}

// StepResult is the engine state after a step.
type StepResult struct {
	Step   int           `json:"step" yaml:"step"`
	Action string        `json:"action" yaml:"action"`
	State  virtual.State `json:"state" yaml:"state"`
}

// Result is the outcome of a replay.
type Result struct {
	Name   string        `json:"name" yaml:"name"`
	Items  int           `json:"items" yaml:"items"`
	Steps  []StepResult  `json:"steps" yaml:"steps"`
	Events []Event       `json:"events" yaml:"events"`
	Final  virtual.State `json:"final" yaml:"final"`
}

func (o Options) engineOptions() []virtual.Option {
	var opts []virtual.Option
	if o.FixedExtent > 0 {
		opts = append(opts, virtual.WithFixedExtent(o.FixedExtent))
	}
	if o.EstimatedExtent > 0 {
		opts = append(opts, virtual.WithEstimatedExtent(o.EstimatedExtent))
	}
	if o.Gap > 0 {
		opts = append(opts, virtual.WithGap(o.Gap))
	}
	if o.Overscan != nil {
		opts = append(opts, virtual.WithOverscan(*o.Overscan))
	}
	if o.Threshold > 0 {
		opts = append(opts, virtual.WithEndReachedThreshold(o.Threshold))
	}
	if o.SettleMS > 0 {
		opts = append(opts, virtual.WithSettleDelay(time.Duration(o.SettleMS)*time.Millisecond))
	}
	if o.Tolerance > 0 {
		opts = append(opts, virtual.WithCorrectionTolerance(o.Tolerance))
	}
	if o.Columns > 0 {
		opts = append(opts, virtual.WithColumns(o.Columns))
	}
	if o.Container > 0 {
		opts = append(opts, virtual.WithContainerSize(o.Container))
	}
	return opts
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Replay runs t against a new engine driven by a manual clock. Rejected
// steps are recorded as error events and the replay goes on.
func Replay(t Trace, logger *slog.Logger) (*Result, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	res := &Result{Name: t.Name, Items: t.Items}
	step := 0
	record := func(kind EventKind, format string, args ...any) {
		res.Events = append(res.Events, Event{Step: step, Kind: kind, Detail: fmt.Sprintf(format, args...)})
	}

	sched := virtual.NewManualScheduler()
	opts := append(t.Options.engineOptions(),
		virtual.WithScheduler(sched),
		virtual.WithLogger(logger),
		virtual.WithScrollHandler(func(offset float64) {
			record(EventScrollTo, "offset=%s", formatFloat(offset))
		}),
	)
	e, err := virtual.New(t.Items, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	defer e.Close()

	e.OnRangeChanged(func(c virtual.RangeChange) {
		record(EventRange, "rendered=%s visible=%s previous=%s", c.Rendered, c.Visible, c.Previous)
	})
	e.OnEndReached(func(r virtual.EndReached) {
		record(EventEndReached, "items=%d rendered=%s", r.ItemCount, r.Rendered)
	})
	e.OnScrollStateChanged(func(s virtual.ScrollState) {
		record(EventScrollState, "scrolling=%t offset=%s", s.Scrolling, formatFloat(s.Offset))
	})
	e.OnDiagnostic(func(d virtual.Diagnostic) {
		record(EventDiagnostic, "%s", d)
	})

	for i, s := range t.Steps {
		step = i + 1
		if err := apply(e, sched, s); err != nil {
			record(EventError, "%v", err)
		}
		res.Steps = append(res.Steps, StepResult{Step: step, Action: s.String(), State: e.Snapshot()})
	}
	res.Final = e.Snapshot()
	return res, nil
}

func apply(e *virtual.Engine, sched *virtual.ManualScheduler, s Step) error {
	switch {
	case s.Resize != nil:
		return e.Resize(*s.Resize)
	case s.Scroll != nil:
		return e.Scroll(*s.Scroll)
	case s.ScrollTo != nil:
		align, err := virtual.ParseAlign(s.ScrollTo.Align)
		if err != nil {
			return err
		}
		return e.ScrollToIndex(s.ScrollTo.Index, align)
	case s.Measure != nil:
		return e.ReportMeasuredExtent(s.Measure.Index, s.Measure.Extent)
	case s.MeasureRendered != nil:
		r := e.RenderedRange()
		for i := r.Start; i < r.End; i++ {
			if err := e.ReportMeasuredExtent(i, *s.MeasureRendered); err != nil {
				return err
			}
		}
		return nil
	case s.Count != nil:
		return e.SetItemCount(*s.Count)
	case s.Reset != nil:
		return e.Reset(*s.Reset)
	case s.Columns != nil:
		return e.SetColumns(*s.Columns)
	case s.AdvanceMS != nil:
		sched.Advance(time.Duration(*s.AdvanceMS) * time.Millisecond)
		return nil
	}
	return errEmptyStep
}
